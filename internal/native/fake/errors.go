package fake

import (
	"fmt"

	"github.com/behrlich/goclx/internal/native"
)

// statusError is the fake engine's realization of a native-level failure:
// every error it returns carries a native.StatusCode so goclx's error
// taxonomy (native.StatusCode-wrapping goclx.Error) has something real to
// wrap, the same way a genuine ICD loader would return a non-zero cl_int.
type statusError struct {
	code native.StatusCode
	msg  string
}

func (e *statusError) Error() string {
	if e.msg != "" {
		return fmt.Sprintf("%s: %s", e.code, e.msg)
	}
	return e.code.String()
}

// Status lets callers (internal/native/fake's own tests and goclx's error
// wrapping) recover the status code via errors.As.
func (e *statusError) Status() native.StatusCode { return e.code }

func newStatusError(code native.StatusCode, msg string) error {
	return &statusError{code: code, msg: msg}
}

var (
	errInvalidKernelArgs   = newStatusError(native.StatusInvalidKernelArgs, "kernel arguments not bound or not the expected kind")
	errInvalidKernelName   = newStatusError(native.StatusInvalidKernelName, "no simulated kernel registered under that name")
	errProgramNotBuilt     = newStatusError(native.StatusInvalidProgramExecutable, "program has not been built")
	errUnknownPointer      = newStatusError(native.StatusInvalidMemObject, "unknown or already-released handle")
	errDoubleRelease       = newStatusError(native.StatusInvalidMemObject, "release called on a handle with zero references")
	errNoPlatforms         = newStatusError(native.StatusDeviceNotFound, "no platforms configured")
)
