package pipeline_test

import (
	"context"
	"encoding/binary"
	"math"
	"testing"

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

func createKernel(t *testing.T, engine *fake.Engine, ctxPtr native.Context, devices []native.Device, name string) *handle.Handle {
	t.Helper()
	program, err := engine.CreateProgramWithSource(ctxPtr, name)
	if err != nil {
		t.Fatalf("CreateProgramWithSource(%q): %v", name, err)
	}
	if err := engine.BuildProgram(program, devices, ""); err != nil {
		t.Fatalf("BuildProgram: %v", err)
	}
	kernelPtr, err := engine.CreateKernel(program, name)
	if err != nil {
		t.Fatalf("CreateKernel(%q): %v", name, err)
	}
	return handle.Wrap(engine, handle.KindKernel, kernelPtr)
}

// TestPipelineAddThenMultiply reproduces spec.md's own end-to-end scenario
// 3, carried forward from original_source's tests/pipeline_test.rs: a
// two-stage pipeline computing (a+b) then (result*2.0).
func TestPipelineAddThenMultiply(t *testing.T) {
	engine := fake.New(fake.PlatformSpec{
		Name: "p", Version: "OpenCL 2.0",
		Devices: []fake.DeviceSpec{{Name: "d0", Version: "OpenCL 2.0", ComputeUnits: 4, ClockMHz: 1000, GlobalMemMiB: 512}},
	})
	ex, err := executor.New(engine, executor.BestPlatform)
	if err != nil {
		t.Fatalf("executor.New: %v", err)
	}
	defer ex.Close()

	devices := []native.Device{ex.Devices()[0].Pointer()}
	addKernel := createKernel(t, engine, ex.Context().Pointer(), devices, "vector_add")
	mulKernel := createKernel(t, engine, ex.Context().Pointer(), devices, "scalar_multiply")

	n := 4
	a := encodeFloat32s([]float32{1, 1, 1, 1})
	b := encodeFloat32s([]float32{2, 2, 2, 2})
	bufA, _ := ex.CreateBuffer(native.MemReadWrite, len(a))
	bufB, _ := ex.CreateBuffer(native.MemReadWrite, len(b))
	defer bufA.Release()
	defer bufB.Release()
	_ = engine.WriteBuffer(bufA.Pointer(), a)
	_ = engine.WriteBuffer(bufB.Pointer(), b)

	scalar := encodeFloat32s([]float32{2})[:4]

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

	report, err := pl.Run(context.Background(), ex)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(report.Stages) != 2 {
		t.Fatalf("len(report.Stages) = %d, want 2", len(report.Stages))
	}
	for i, stage := range report.Stages {
		if stage.Submissions != 1 {
			t.Errorf("stage %d Submissions = %d, want 1", i, stage.Submissions)
		}
	}

	got := decodeFloat32s(dst)
	for i, v := range got {
		if v != 6 {
			t.Errorf("result[%d] = %v, want 6 ((1+2)*2)", i, v)
		}
	}
}

func TestPipelineRejectsEmptyStages(t *testing.T) {
	ex := &executor.Executor{}
	if _, err := pipeline.New().Run(context.Background(), ex); err == nil {
		t.Error("expected an empty pipeline to error")
	}
}
