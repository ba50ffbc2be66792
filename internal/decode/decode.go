// Package decode implements C2 Info Decoder: converting the raw byte
// buffers a native info query returns into typed values. It generalizes
// internal/uapi/marshal.go's fixed-offset binary.LittleEndian decode into a
// small declarative accessor set, per spec.md §9's "Generic per-info-query
// accessors" design note.
package decode

import (
	"encoding/binary"
	"fmt"

	"github.com/behrlich/goclx/internal/handle"
	"github.com/behrlich/goclx/internal/native"
)

// Error is a decoder failure, distinct from a native API failure (spec.md
// §4.2: "Mismatched length is a recoverable DecoderError, not an API
// error").
type Error struct {
	Want int
	Got  int
}

func (e *Error) Error() string {
	return fmt.Sprintf("decode: buffer length %d does not match expected width %d", e.Got, e.Want)
}

// Decoder has no state; it exists as a method-set namespace so call sites
// read as "decode.Decoder{}.Uint32(buf)" the same way the teacher's
// marshal.go centralizes every struct's layout behind Marshal/Unmarshal.
type Decoder struct{}

// Uint32 decodes a little-endian 32-bit unsigned integer. The buffer length
// must match exactly.
func (Decoder) Uint32(buf []byte) (uint32, error) {
	if len(buf) != 4 {
		return 0, &Error{Want: 4, Got: len(buf)}
	}
	return binary.LittleEndian.Uint32(buf), nil
}

// Uint64 decodes a little-endian 64-bit unsigned integer.
func (Decoder) Uint64(buf []byte) (uint64, error) {
	if len(buf) != 8 {
		return 0, &Error{Want: 8, Got: len(buf)}
	}
	return binary.LittleEndian.Uint64(buf), nil
}

// Bool decodes a 32-bit integer and reports whether it is nonzero (spec.md
// §4.2: "Boolean: decode as a 32-bit integer; value is nonzero").
func (d Decoder) Bool(buf []byte) (bool, error) {
	v, err := d.Uint32(buf)
	if err != nil {
		return false, err
	}
	return v != 0, nil
}

// String decodes a buffer as UTF-8. The trailing NUL, if present, is not
// stripped — callers needing C-string semantics trim it themselves
// (spec.md §4.2).
func (Decoder) String(buf []byte) (string, error) {
	return string(buf), nil
}

// Sequence decodes a buffer as a left-to-right run of fixed-size elements.
// The buffer length must be an exact multiple of elemSize.
func Sequence[T any](buf []byte, elemSize int, decodeOne func([]byte) (T, error)) ([]T, error) {
	if elemSize <= 0 || len(buf)%elemSize != 0 {
		return nil, &Error{Want: elemSize, Got: len(buf)}
	}
	n := len(buf) / elemSize
	out := make([]T, 0, n)
	for i := 0; i < n; i++ {
		v, err := decodeOne(buf[i*elemSize : (i+1)*elemSize])
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// HandleSequence decodes a buffer as a run of pointer-sized chunks and
// wraps each one as a Handle. Every resulting wrapper has its reference
// count incremented (spec.md §4.2: "the native API returns non-retained
// pointers"), grounded on the teacher's runtime.KeepAlive discipline in
// control.go's AddDevice — the raw info buffer must outlive the syscall,
// and here the decoded pointer must outlive the buffer by being retained
// before the buffer can be discarded.
func HandleSequence(api native.API, kind native.Kind, buf []byte) ([]*handle.Handle, error) {
	const ptrSize = 8
	if len(buf)%ptrSize != 0 {
		return nil, &Error{Want: ptrSize, Got: len(buf)}
	}
	n := len(buf) / ptrSize
	out := make([]*handle.Handle, 0, n)
	for i := 0; i < n; i++ {
		raw := binary.LittleEndian.Uint64(buf[i*ptrSize : (i+1)*ptrSize])
		ptr := native.Pointer(raw)
		if err := api.Retain(kind, ptr); err != nil {
			return nil, err
		}
		out = append(out, handle.Wrap(api, kind, ptr))
	}
	return out, nil
}
