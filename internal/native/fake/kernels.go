package fake

import (
	"encoding/binary"
	"math"
)

// kernelFunc simulates the device-side effect of one named kernel over the
// element range [offset, offset+count). Real kernel source is opaque to
// goclx (spec.md §1); the fake engine instead recognizes a small, fixed set
// of kernel names so end-to-end tests can assert on actual numeric output
// rather than just "the call sequence happened."
type kernelFunc func(args map[int]*boundArg, offset, count int) error

// boundArg is what SetKernelArg/SetKernelArgSVM recorded for one index.
type boundArg struct {
	bytes []byte        // scalar payload, or an encoded native.Pointer for mem objects
	buf   *bufferObj    // resolved once the engine knows the argument is a buffer
	svm   []float32     // resolved shared-region backing slice
}

var kernelRegistry = map[string]kernelFunc{
	"vector_add":      kernelVectorAdd,
	"scalar_multiply": kernelScalarMultiply,
	"svm_write":       kernelSVMWrite,
}

// kernelVectorAdd implements a[i] += b[i] over float32 buffers bound at
// argument indices 0 and 1, matching spec.md §8 scenario 1/2.
func kernelVectorAdd(args map[int]*boundArg, offset, count int) error {
	a, b := args[0], args[1]
	if a == nil || a.buf == nil || b == nil || b.buf == nil {
		return errInvalidKernelArgs
	}
	for i := offset; i < offset+count; i++ {
		av := readFloat32(a.buf.data, i)
		bv := readFloat32(b.buf.data, i)
		writeFloat32(a.buf.data, i, av+bv)
	}
	return nil
}

// kernelScalarMultiply implements a[i] *= scalar over a float32 buffer
// bound at index 0, with the scalar bound at index 1. Used by the pipeline
// end-to-end scenario's second stage.
func kernelScalarMultiply(args map[int]*boundArg, offset, count int) error {
	a, s := args[0], args[1]
	if a == nil || a.buf == nil || s == nil || len(s.bytes) < 4 {
		return errInvalidKernelArgs
	}
	scalar := math.Float32frombits(binary.LittleEndian.Uint32(s.bytes))
	for i := offset; i < offset+count; i++ {
		av := readFloat32(a.buf.data, i)
		writeFloat32(a.buf.data, i, av*scalar)
	}
	return nil
}

// kernelSVMWrite writes a constant scalar (index 1) into every element of
// the shared-virtual-memory region bound at index 0, matching spec.md §8
// scenario 5.
func kernelSVMWrite(args map[int]*boundArg, offset, count int) error {
	region, s := args[0], args[1]
	if region == nil || region.svm == nil || s == nil || len(s.bytes) < 4 {
		return errInvalidKernelArgs
	}
	scalar := math.Float32frombits(binary.LittleEndian.Uint32(s.bytes))
	for i := offset; i < offset+count && i < len(region.svm); i++ {
		region.svm[i] = scalar
	}
	return nil
}

func readFloat32(data *shardedBytes, elem int) float32 {
	var b [4]byte
	data.ReadAt(b[:], elem*4)
	return math.Float32frombits(binary.LittleEndian.Uint32(b[:]))
}

func writeFloat32(data *shardedBytes, elem int, v float32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], math.Float32bits(v))
	data.WriteAt(b[:], elem*4)
}
