//go:build !opencl
// +build !opencl

package native

import "fmt"

// NewReal is available when built with -tags opencl, where it would bind to
// a real ICD loader via cgo (the way other_examples/opencl_bridge.go.go
// does for a single-device prototype). goclx ships no cgo binding; this
// stub keeps the extension point named and compiling by default.
func NewReal() (API, error) {
	return nil, fmt.Errorf("opencl bindings not enabled; build with -tags opencl")
}
