package goclx

import (
	"errors"
	"testing"

	"github.com/behrlich/goclx/internal/native"
)

func TestStructuredError(t *testing.T) {
	err := NewError("BuildProgram", ErrFileIOError, "source file not found")

	if err.Op != "BuildProgram" {
		t.Errorf("Op = %s, want BuildProgram", err.Op)
	}
	if err.Code != ErrFileIOError {
		t.Errorf("Code = %s, want %s", err.Code, ErrFileIOError)
	}

	expected := "goclx: source file not found (op=BuildProgram)"
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}
}

func TestNewStatusError(t *testing.T) {
	err := NewStatusError("CreateContext", native.StatusInvalidDevice, "device already released")

	if err.Status != native.StatusInvalidDevice {
		t.Errorf("Status = %v, want %v", err.Status, native.StatusInvalidDevice)
	}
	if err.Code != ErrDeviceNotFoundInProgram {
		t.Errorf("Code = %s, want %s", err.Code, ErrDeviceNotFoundInProgram)
	}
}

func TestWrapError(t *testing.T) {
	inner := errors.New("boom")
	err := WrapError("EnqueueNDRange", inner)

	if err.Code != ErrNativeCallFailed {
		t.Errorf("Code = %s, want %s", err.Code, ErrNativeCallFailed)
	}
	if !errors.Is(err, err) {
		t.Error("an error should always satisfy errors.Is against itself")
	}
	if errors.Unwrap(err) != inner {
		t.Error("Unwrap should return the original inner error")
	}
}

func TestWrapErrorRetagsGoclxError(t *testing.T) {
	inner := NewError("first", ErrPlatformsNotFound, "no platforms")
	wrapped := WrapError("second", inner)

	if wrapped.Op != "second" {
		t.Errorf("Op = %s, want second", wrapped.Op)
	}
	if wrapped.Code != ErrPlatformsNotFound {
		t.Errorf("Code should carry through the re-tag, got %s", wrapped.Code)
	}
}

func TestWrapErrorNil(t *testing.T) {
	if WrapError("op", nil) != nil {
		t.Error("WrapError(nil) must return nil")
	}
}

func TestIsCode(t *testing.T) {
	err := NewError("op", ErrDecoderFailed, "bad length")

	if !IsCode(err, ErrDecoderFailed) {
		t.Error("IsCode should return true for a matching code")
	}
	if IsCode(err, ErrFileIOError) {
		t.Error("IsCode should return false for a non-matching code")
	}
	if IsCode(nil, ErrDecoderFailed) {
		t.Error("IsCode should return false for a nil error")
	}
}

func TestIsStatus(t *testing.T) {
	err := NewStatusError("op", native.StatusInvalidPlatform, "gone")

	if !IsStatus(err, native.StatusInvalidPlatform) {
		t.Error("IsStatus should return true for a matching status")
	}
	if IsStatus(err, native.StatusInvalidDevice) {
		t.Error("IsStatus should return false for a non-matching status")
	}
}

func TestErrorIsComparesByCode(t *testing.T) {
	a := &Error{Code: ErrFileIOError}
	b := &Error{Code: ErrFileIOError, Op: "different op"}
	c := &Error{Code: ErrDecoderFailed}

	if !errors.Is(a, b) {
		t.Error("two errors with the same Code should satisfy errors.Is")
	}
	if errors.Is(a, c) {
		t.Error("errors with different Codes should not satisfy errors.Is")
	}
}
