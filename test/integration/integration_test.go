//go:build integration
// +build integration

// Package integration carries the teacher's own test/integration
// convention forward: github.com/stretchr/testify-driven, multi-step
// end-to-end suites, reserved for the six concrete scenarios this
// module's specification names, as opposed to the plain-testing
// package-level _test.go files beside each package.
package integration

import (
	"context"
	"encoding/binary"
	"math"
	"os"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"

	"github.com/behrlich/goclx/internal/cache"
	"github.com/behrlich/goclx/internal/executor"
	"github.com/behrlich/goclx/internal/handle"
	"github.com/behrlich/goclx/internal/native"
	"github.com/behrlich/goclx/internal/native/fake"
	"github.com/behrlich/goclx/internal/partition"
	"github.com/behrlich/goclx/pipeline"
	"github.com/behrlich/goclx/task"
)

func encodeFloat32s(vals []float32) []byte {
	buf := make([]byte, 4*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

func decodeFloat32s(buf []byte) []float32 {
	out := make([]float32, len(buf)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return out
}

func fill(n int, v float32) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func createKernel(t *testing.T, engine *fake.Engine, ctxPtr native.Context, devices []native.Device, name string) *handle.Handle {
	t.Helper()
	program, err := engine.CreateProgramWithSource(ctxPtr, name)
	require.NoError(t, err)
	require.NoError(t, engine.BuildProgram(program, devices, ""))
	kernelPtr, err := engine.CreateKernel(program, name)
	require.NoError(t, err)
	return handle.Wrap(engine, handle.KindKernel, kernelPtr)
}

func deviceSlice(ex *executor.Executor) []native.Device {
	out := make([]native.Device, len(ex.Devices()))
	for i, d := range ex.Devices() {
		out[i] = d.Pointer()
	}
	return out
}

// Scenario 1: vector add on 1 device, global_size=1024, a=1.0 b=2.0 -> a=3.0,
// profiling on yields exactly one profiling sample.
func TestScenarioVectorAddOneDevice(t *testing.T) {
	engine := fake.New(fake.PlatformSpec{
		Name: "p", Version: "OpenCL 2.0",
		Devices: []fake.DeviceSpec{{Name: "d0", Version: "OpenCL 2.0", ComputeUnits: 4, ClockMHz: 1000, GlobalMemMiB: 512}},
	})
	ex, err := executor.New(engine, executor.BestPlatform, executor.WithProfiling(true))
	require.NoError(t, err)
	defer ex.Close()

	devices := deviceSlice(ex)
	kernel := createKernel(t, engine, ex.Context().Pointer(), devices, "vector_add")

	const n = 1024
	a := encodeFloat32s(fill(n, 1.0))
	b := encodeFloat32s(fill(n, 2.0))
	bufA, err := ex.CreateBuffer(native.MemReadWrite, len(a))
	require.NoError(t, err)
	defer bufA.Release()
	bufB, err := ex.CreateBuffer(native.MemReadWrite, len(b))
	require.NoError(t, err)
	defer bufB.Release()
	require.NoError(t, engine.WriteBuffer(bufA.Pointer(), a))
	require.NoError(t, engine.WriteBuffer(bufB.Pointer(), b))

	dst := make([]byte, len(a))
	tk := task.New(kernel).
		WithArg(task.BufferArg{Index: 0, Buffer: bufA}).
		WithArg(task.BufferArg{Index: 1, Buffer: bufB}).
		WithWork(partition.WorkDescriptor{GlobalSize: [3]int{n, 1, 1}}).
		WithReadback(task.Readback{Target: bufA, Destination: dst, Region: [2]int{0, len(dst)}}).
		WithProfiling(true)

	report, err := tk.Run(context.Background(), ex)
	require.NoError(t, err)
	require.Len(t, report.Profiling, 1)

	for i, v := range decodeFloat32s(dst) {
		require.Equalf(t, float32(3.0), v, "a[%d]", i)
	}
}

// Scenario 2: vector add on 2 devices weighted 3:1, global_size=1024 ->
// chunks of 768 and 256, a=3.0 everywhere.
func TestScenarioVectorAddTwoDevicesWeighted(t *testing.T) {
	engine := fake.New(fake.PlatformSpec{
		Name: "p", Version: "OpenCL 2.0",
		Devices: []fake.DeviceSpec{
			// Weight formula: floor(cu*mhz/100) + floor(mem_mib/10). Chosen
			// so the two devices land at a 3:1 weight ratio.
			{Name: "strong", Version: "OpenCL 2.0", ComputeUnits: 30, ClockMHz: 100, GlobalMemMiB: 0},
			{Name: "weak", Version: "OpenCL 2.0", ComputeUnits: 10, ClockMHz: 100, GlobalMemMiB: 0},
		},
	})
	ex, err := executor.New(engine, executor.BestPlatform)
	require.NoError(t, err)
	defer ex.Close()
	require.Equal(t, []uint64{30, 10}, ex.Weights())

	devices := deviceSlice(ex)
	kernel := createKernel(t, engine, ex.Context().Pointer(), devices, "vector_add")

	const n = 1024
	a := encodeFloat32s(fill(n, 1.0))
	b := encodeFloat32s(fill(n, 2.0))
	bufA, err := ex.CreateBuffer(native.MemReadWrite, len(a))
	require.NoError(t, err)
	defer bufA.Release()
	bufB, err := ex.CreateBuffer(native.MemReadWrite, len(b))
	require.NoError(t, err)
	defer bufB.Release()
	require.NoError(t, engine.WriteBuffer(bufA.Pointer(), a))
	require.NoError(t, engine.WriteBuffer(bufB.Pointer(), b))

	subs, err := partition.Partition(partition.WorkDescriptor{GlobalSize: [3]int{n, 1, 1}}, ex.Queues(), ex.Weights())
	require.NoError(t, err)
	require.Len(t, subs, 2)
	require.Equal(t, 768, subs[0].Size[0])
	require.Equal(t, 256, subs[1].Size[0])

	dst := make([]byte, len(a))
	tk := task.New(kernel).
		WithArg(task.BufferArg{Index: 0, Buffer: bufA}).
		WithArg(task.BufferArg{Index: 1, Buffer: bufB}).
		WithWork(partition.WorkDescriptor{GlobalSize: [3]int{n, 1, 1}}).
		WithReadback(task.Readback{Target: bufA, Destination: dst, Region: [2]int{0, len(dst)}})

	report, err := tk.Run(context.Background(), ex)
	require.NoError(t, err)
	require.Equal(t, 2, report.Submissions)

	for i, v := range decodeFloat32s(dst) {
		require.Equalf(t, float32(3.0), v, "a[%d]", i)
	}
}

// Scenario 3: pipeline (a+b) then (a*2.0), a=10.0 b=5.0 size=1024 -> a=30.0.
func TestScenarioPipelineAddThenMultiply(t *testing.T) {
	engine := fake.New(fake.PlatformSpec{
		Name: "p", Version: "OpenCL 2.0",
		Devices: []fake.DeviceSpec{{Name: "d0", Version: "OpenCL 2.0", ComputeUnits: 4, ClockMHz: 1000, GlobalMemMiB: 512}},
	})
	ex, err := executor.New(engine, executor.BestPlatform)
	require.NoError(t, err)
	defer ex.Close()

	devices := deviceSlice(ex)
	addKernel := createKernel(t, engine, ex.Context().Pointer(), devices, "vector_add")
	mulKernel := createKernel(t, engine, ex.Context().Pointer(), devices, "scalar_multiply")

	const n = 1024
	a := encodeFloat32s(fill(n, 10.0))
	b := encodeFloat32s(fill(n, 5.0))
	bufA, err := ex.CreateBuffer(native.MemReadWrite, len(a))
	require.NoError(t, err)
	defer bufA.Release()
	bufB, err := ex.CreateBuffer(native.MemReadWrite, len(b))
	require.NoError(t, err)
	defer bufB.Release()
	require.NoError(t, engine.WriteBuffer(bufA.Pointer(), a))
	require.NoError(t, engine.WriteBuffer(bufB.Pointer(), b))

	scalar := encodeFloat32s([]float32{2.0})

	addStage := pipeline.Stage{Kernel: task.New(addKernel).
		WithArg(task.BufferArg{Index: 0, Buffer: bufA}).
		WithArg(task.BufferArg{Index: 1, Buffer: bufB}).
		WithWork(partition.WorkDescriptor{GlobalSize: [3]int{n, 1, 1}})}
	mulStage := pipeline.Stage{Kernel: task.New(mulKernel).
		WithArg(task.BufferArg{Index: 0, Buffer: bufA}).
		WithArg(task.Scalar{Index: 1, Bytes: scalar}).
		WithWork(partition.WorkDescriptor{GlobalSize: [3]int{n, 1, 1}})}

	dst := make([]byte, len(a))
	pl := pipeline.New().
		WithStage(addStage).
		WithStage(mulStage).
		WithReadback(task.Readback{Target: bufA, Destination: dst, Region: [2]int{0, len(dst)}})

	_, err = pl.Run(context.Background(), ex)
	require.NoError(t, err)

	for i, v := range decodeFloat32s(dst) {
		require.Equalf(t, float32(30.0), v, "a[%d]", i)
	}
}

// Scenario 4: binary cache hit, then fallback to source once the cached
// artifact is removed.
func TestScenarioBinaryCacheHitThenFallback(t *testing.T) {
	engine := fake.New(fake.PlatformSpec{
		Name: "p", Version: "OpenCL 2.0",
		Devices: []fake.DeviceSpec{{Name: "d0", Version: "OpenCL 2.0", ComputeUnits: 4, ClockMHz: 1000, GlobalMemMiB: 512}},
	})
	ex, err := executor.New(engine, executor.BestPlatform)
	require.NoError(t, err)
	defer ex.Close()

	sourceDir := t.TempDir()
	sourcePath := sourceDir + "/add.cl"
	require.NoError(t, os.WriteFile(sourcePath, []byte("vector_add"), 0o644))
	binaryFolder := t.TempDir()

	c := cache.New(engine, nil)
	program1, err := c.CompileOrBinary(ex.Context(), ex.Devices(), sourcePath, binaryFolder, "")
	require.NoError(t, err)
	require.NotNil(t, program1)

	entries, err := os.ReadDir(binaryFolder)
	require.NoError(t, err)
	require.Len(t, entries, 1, "first run should persist exactly one device artifact")

	// Second run with the cached binary present should not need the
	// source file at all.
	require.NoError(t, os.Remove(sourcePath))
	program2, err := c.CompileOrBinary(ex.Context(), ex.Devices(), sourcePath, binaryFolder, "")
	require.NoError(t, err)
	require.NotNil(t, program2)

	// Deleting the cached artifact forces the next run back onto the
	// source, which builds and persists the artifact again.
	require.NoError(t, os.WriteFile(sourcePath, []byte("vector_add"), 0o644))
	require.NoError(t, os.Remove(binaryFolder+"/"+entries[0].Name()))
	program3, err := c.CompileOrBinary(ex.Context(), ex.Devices(), sourcePath, binaryFolder, "")
	require.NoError(t, err)
	require.NotNil(t, program3)
	entries, err = os.ReadDir(binaryFolder)
	require.NoError(t, err)
	require.Len(t, entries, 1, "fallback run should persist the artifact again")
}

// Scenario 5: SVM kernel writes 42.0 into a 512-element region; host reads
// it back after mapping.
func TestScenarioSharedVirtualMemoryWrite(t *testing.T) {
	engine := fake.New(fake.PlatformSpec{
		Name: "p", Version: "OpenCL 2.0",
		Devices: []fake.DeviceSpec{{Name: "d0", Version: "OpenCL 2.0", ComputeUnits: 4, ClockMHz: 1000, GlobalMemMiB: 512, SVM: true}},
	})
	ex, err := executor.New(engine, executor.BestPlatform)
	require.NoError(t, err)
	defer ex.Close()

	devices := deviceSlice(ex)
	kernel := createKernel(t, engine, ex.Context().Pointer(), devices, "svm_write")

	const n = 512
	region, err := ex.CreateSharedRegion(n * 4)
	require.NoError(t, err)
	defer ex.FreeSharedRegion(region)

	ptr, err := ex.MapSharedRegion(ex.Queues()[0], region)
	require.NoError(t, err)
	defer ex.UnmapSharedRegion(ex.Queues()[0], region, ptr)

	scalar := encodeFloat32s([]float32{42.0})
	tk := task.New(kernel).
		WithArg(task.SharedRegionArg{Index: 0, Ptr: ptr, Size: n * 4}).
		WithArg(task.Scalar{Index: 1, Bytes: scalar}).
		WithWork(partition.WorkDescriptor{GlobalSize: [3]int{n, 1, 1}})

	_, err = tk.Run(context.Background(), ex)
	require.NoError(t, err)

	guard := unsafe.Slice((*float32)(ptr), n)
	for i, v := range guard {
		require.Equalf(t, float32(42.0), v, "guard[%d]", i)
	}
}

// Scenario 6: profiling roundtrip, a trivial 1-element kernel on 1 device
// yields non-negative queued/submitted/started/ended deltas.
func TestScenarioProfilingRoundtrip(t *testing.T) {
	engine := fake.New(fake.PlatformSpec{
		Name: "p", Version: "OpenCL 2.0",
		Devices: []fake.DeviceSpec{{Name: "d0", Version: "OpenCL 2.0", ComputeUnits: 4, ClockMHz: 1000, GlobalMemMiB: 512}},
	})
	ex, err := executor.New(engine, executor.BestPlatform, executor.WithProfiling(true))
	require.NoError(t, err)
	defer ex.Close()

	devices := deviceSlice(ex)
	kernel := createKernel(t, engine, ex.Context().Pointer(), devices, "vector_add")

	a := encodeFloat32s([]float32{1.0})
	b := encodeFloat32s([]float32{2.0})
	bufA, err := ex.CreateBuffer(native.MemReadWrite, len(a))
	require.NoError(t, err)
	defer bufA.Release()
	bufB, err := ex.CreateBuffer(native.MemReadWrite, len(b))
	require.NoError(t, err)
	defer bufB.Release()
	require.NoError(t, engine.WriteBuffer(bufA.Pointer(), a))
	require.NoError(t, engine.WriteBuffer(bufB.Pointer(), b))

	tk := task.New(kernel).
		WithArg(task.BufferArg{Index: 0, Buffer: bufA}).
		WithArg(task.BufferArg{Index: 1, Buffer: bufB}).
		WithWork(partition.WorkDescriptor{GlobalSize: [3]int{1, 1, 1}}).
		WithProfiling(true)

	report, err := tk.Run(context.Background(), ex)
	require.NoError(t, err)
	require.Len(t, report.Profiling, 1)

	ts := report.Profiling[0]
	require.GreaterOrEqual(t, ts.Ended, ts.Started)
	require.GreaterOrEqual(t, ts.Started, ts.Submitted)
	require.GreaterOrEqual(t, ts.Submitted, ts.Queued)
}
