package task_test

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/behrlich/goclx/internal/executor"
	"github.com/behrlich/goclx/internal/handle"
	"github.com/behrlich/goclx/internal/native"
	"github.com/behrlich/goclx/internal/native/fake"
	"github.com/behrlich/goclx/internal/partition"
	"github.com/behrlich/goclx/task"
)

func workFor(n int) partition.WorkDescriptor {
	return partition.WorkDescriptor{GlobalSize: [3]int{n, 1, 1}}
}

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

// Example walks the whole public surface in narrative order: platform,
// context, queue, program, kernel, task, report -- the same role the
// teacher's cmd/ublk-mem/main.go plays as a single file demonstrating the
// whole API end to end.
func Example() {
	engine := fake.New(fake.PlatformSpec{
		Name: "example", Version: "OpenCL 2.0",
		Devices: []fake.DeviceSpec{
			{Name: "device0", Version: "OpenCL 2.0", ComputeUnits: 8, ClockMHz: 1200, GlobalMemMiB: 2048},
		},
	})

	ex, err := executor.New(engine, executor.BestPlatform)
	if err != nil {
		fmt.Println("executor.New:", err)
		return
	}
	defer ex.Close()

	program, err := engine.CreateProgramWithSource(ex.Context().Pointer(), "vector_add")
	if err != nil {
		fmt.Println("CreateProgramWithSource:", err)
		return
	}
	devices := make([]native.Device, len(ex.Devices()))
	for i, d := range ex.Devices() {
		devices[i] = d.Pointer()
	}
	if err := engine.BuildProgram(program, devices, ""); err != nil {
		fmt.Println("BuildProgram:", err)
		return
	}
	kernelPtr, err := engine.CreateKernel(program, "vector_add")
	if err != nil {
		fmt.Println("CreateKernel:", err)
		return
	}
	kernel := handle.Wrap(engine, handle.KindKernel, kernelPtr)

	const n = 8
	a := encodeFloat32s([]float32{1, 1, 1, 1, 1, 1, 1, 1})
	b := encodeFloat32s([]float32{2, 2, 2, 2, 2, 2, 2, 2})

	bufA, _ := ex.CreateBuffer(native.MemReadWrite, len(a))
	bufB, _ := ex.CreateBuffer(native.MemReadWrite, len(b))
	defer bufA.Release()
	defer bufB.Release()

	_ = engine.WriteBuffer(bufA.Pointer(), a)
	_ = engine.WriteBuffer(bufB.Pointer(), b)

	dst := make([]byte, len(a))

	t := task.New(kernel).
		WithArg(task.BufferArg{Index: 0, Buffer: bufA}).
		WithArg(task.BufferArg{Index: 1, Buffer: bufB}).
		WithWork(workFor(n)).
		WithReadback(task.Readback{Target: bufA, Destination: dst, Region: [2]int{0, len(dst)}})

	report, err := t.Run(context.Background(), ex)
	if err != nil {
		fmt.Println("Run:", err)
		return
	}

	fmt.Println(report.Submissions, decodeFloat32s(dst)[0])
	// Output: 1 3
}
