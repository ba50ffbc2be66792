// Package goclx provides the public API: an asynchronous, multi-device
// orchestration layer over an OpenCL-class heterogeneous compute API.
package goclx

import (
	"errors"
	"fmt"

	"github.com/behrlich/goclx/internal/native"
)

// Error is a structured goclx error, generalized from the teacher's own
// Op/DevID/Queue/Code/Errno/Msg/Inner shape to wrap a native.StatusCode
// in place of a kernel errno.
type Error struct {
	Op     string
	Code   ErrorCode
	Status native.StatusCode // zero value (StatusSuccess) means not applicable
	Msg    string
	Inner  error
}

func (e *Error) Error() string {
	var parts []string
	if e.Op != "" {
		parts = append(parts, fmt.Sprintf("op=%s", e.Op))
	}
	if e.Status != native.StatusSuccess {
		parts = append(parts, fmt.Sprintf("status=%s", e.Status))
	}

	msg := e.Msg
	if msg == "" {
		msg = string(e.Code)
	}
	if len(parts) > 0 {
		return fmt.Sprintf("goclx: %s (%s)", msg, parts[0])
	}
	return fmt.Sprintf("goclx: %s", msg)
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Inner
}

// Is compares two goclx errors by Code, matching the teacher's own
// category-equality semantics rather than pointer identity.
func (e *Error) Is(target error) bool {
	if target == nil {
		return false
	}
	te, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == te.Code
}

// ErrorCode is a high-level error category, independent of the specific
// native.StatusCode (if any) that produced it.
type ErrorCode string

const (
	ErrDecoderFailed           ErrorCode = "decoder failed"
	ErrDefaultPlatformNotFound ErrorCode = "default platform not found"
	ErrPlatformsNotFound       ErrorCode = "platforms not found"
	ErrDeviceNotFoundInProgram ErrorCode = "device not found in program"
	ErrFileIOError             ErrorCode = "file I/O error"
	ErrNameConversionFailed    ErrorCode = "name conversion failed"
	ErrSubdeviceNotAvailable   ErrorCode = "subdevice not available"
	ErrNativeCallFailed        ErrorCode = "native call failed"
)

// NewError creates a new structured error with no native status attached.
func NewError(op string, code ErrorCode, msg string) *Error {
	return &Error{Op: op, Code: code, Msg: msg}
}

// NewStatusError creates a structured error wrapping a native status code.
func NewStatusError(op string, status native.StatusCode, msg string) *Error {
	return &Error{Op: op, Code: codeForStatus(status), Status: status, Msg: msg}
}

// WrapError wraps an existing error with goclx context, generalizing the
// teacher's WrapError: a *goclx.Error is re-tagged with the new Op, and
// anything else becomes ErrNativeCallFailed.
func WrapError(op string, inner error) *Error {
	if inner == nil {
		return nil
	}
	if ge, ok := inner.(*Error); ok {
		return &Error{Op: op, Code: ge.Code, Status: ge.Status, Msg: ge.Msg, Inner: ge.Inner}
	}
	return &Error{Op: op, Code: ErrNativeCallFailed, Msg: inner.Error(), Inner: inner}
}

// codeForStatus maps a native status to the closest high-level
// ErrorCode, the generalization of the teacher's mapErrnoToCode.
func codeForStatus(status native.StatusCode) ErrorCode {
	switch status {
	case native.StatusInvalidPlatform:
		return ErrPlatformsNotFound
	case native.StatusInvalidDevice:
		return ErrDeviceNotFoundInProgram
	default:
		return ErrNativeCallFailed
	}
}

// IsCode reports whether err is (or wraps) a *Error with the given code.
func IsCode(err error, code ErrorCode) bool {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Code == code
	}
	return false
}

// IsStatus reports whether err is (or wraps) a *Error carrying the given
// native status code.
func IsStatus(err error, status native.StatusCode) bool {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Status == status
	}
	return false
}
