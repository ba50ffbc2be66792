// Command goclx-vecadd runs a single vector-add kernel launch across every
// device of the best-scoring platform and prints the result, the same
// shape of demo as the teacher's cmd/ublk-mem but trading a long-running
// served device for a one-shot compute round trip.
package main

import (
	"context"
	"encoding/binary"
	"flag"
	"fmt"
	"log"
	"math"

	"github.com/behrlich/goclx/internal/executor"
	"github.com/behrlich/goclx/internal/handle"
	"github.com/behrlich/goclx/internal/logging"
	"github.com/behrlich/goclx/internal/native"
	"github.com/behrlich/goclx/internal/native/fake"
	"github.com/behrlich/goclx/internal/partition"
	"github.com/behrlich/goclx/task"
)

func main() {
	var (
		n       = flag.Int("n", 8, "number of float32 elements to add")
		verbose = flag.Bool("v", false, "verbose logging")
	)
	flag.Parse()

	logConfig := logging.DefaultConfig()
	if *verbose {
		logConfig.Level = logging.LevelDebug
	}
	logger := logging.NewLogger(logConfig)

	// goclx ships no cgo ICD binding (see internal/native/real_stub.go);
	// this demo drives the in-memory simulation so it runs anywhere.
	engine := fake.New(fake.PlatformSpec{
		Name:    "Demo Platform",
		Version: "OpenCL 2.1",
		Devices: []fake.DeviceSpec{
			{Name: "Demo GPU 0", Version: "OpenCL 2.1", ComputeUnits: 8, ClockMHz: 1200, GlobalMemMiB: 2048},
			{Name: "Demo GPU 1", Version: "OpenCL 2.1", ComputeUnits: 4, ClockMHz: 900, GlobalMemMiB: 1024},
		},
	})

	ex, err := executor.New(engine, executor.BestPlatform, executor.WithLogger(logger))
	if err != nil {
		log.Fatalf("executor.New: %v", err)
	}
	defer ex.Close()

	logger.Info("executor constructed", "devices", len(ex.Devices()))

	devices := make([]native.Device, len(ex.Devices()))
	for i, d := range ex.Devices() {
		devices[i] = d.Pointer()
	}

	program, err := engine.CreateProgramWithSource(ex.Context().Pointer(), "vector_add")
	if err != nil {
		log.Fatalf("CreateProgramWithSource: %v", err)
	}
	if err := engine.BuildProgram(program, devices, ""); err != nil {
		log.Fatalf("BuildProgram: %v", err)
	}
	kernelPtr, err := engine.CreateKernel(program, "vector_add")
	if err != nil {
		log.Fatalf("CreateKernel: %v", err)
	}
	kernel := handle.Wrap(engine, handle.KindKernel, kernelPtr)
	defer kernel.Release()

	a := make([]float32, *n)
	b := make([]float32, *n)
	for i := range a {
		a[i] = float32(i)
		b[i] = float32(2 * i)
	}
	aBytes, bBytes := encodeFloat32s(a), encodeFloat32s(b)

	bufA, err := ex.CreateBuffer(native.MemReadWrite, len(aBytes))
	if err != nil {
		log.Fatalf("CreateBuffer(a): %v", err)
	}
	defer bufA.Release()
	bufB, err := ex.CreateBuffer(native.MemReadWrite, len(bBytes))
	if err != nil {
		log.Fatalf("CreateBuffer(b): %v", err)
	}
	defer bufB.Release()

	if err := engine.WriteBuffer(bufA.Pointer(), aBytes); err != nil {
		log.Fatalf("WriteBuffer(a): %v", err)
	}
	if err := engine.WriteBuffer(bufB.Pointer(), bBytes); err != nil {
		log.Fatalf("WriteBuffer(b): %v", err)
	}

	dst := make([]byte, len(aBytes))
	t := task.New(kernel).
		WithArg(task.BufferArg{Index: 0, Buffer: bufA}).
		WithArg(task.BufferArg{Index: 1, Buffer: bufB}).
		WithWork(partition.WorkDescriptor{GlobalSize: [3]int{*n, 1, 1}}).
		WithReadback(task.Readback{Target: bufA, Destination: dst, Region: [2]int{0, len(dst)}})

	report, err := t.Run(context.Background(), ex)
	if err != nil {
		log.Fatalf("Run: %v", err)
	}

	result := decodeFloat32s(dst)
	fmt.Printf("submissions: %d\n", report.Submissions)
	fmt.Printf("a + b = %v\n", result)
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
