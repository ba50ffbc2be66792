// Package handle implements C1 Handle Wrappers: typed, reference-counted
// ownership over the opaque pointers internal/native.API hands back.
// Generalized from the teacher's Controller/Runner open-acquire,
// Close-release discipline (internal/ctrl/control.go) to the eleven
// resource kinds spec.md's data model names.
package handle

import "github.com/behrlich/goclx/internal/native"

// Handle is an owning wrapper around one native pointer. Copying a Handle
// value is never done directly; Clone is the only sanctioned way to get a
// second owner, and it increments the native reference count before
// returning.
type Handle struct {
	kind Kind
	ptr  native.Pointer
	api  native.API

	// refCounted is false only for Platform (spec.md §3: "Platform handles
	// are not reference-counted"). Clone/Release become no-ops on the
	// native side for such handles, since there is nothing to retain.
	refCounted bool
}

// Kind re-exports native.Kind so callers of this package don't need to
// import internal/native just to name a handle kind.
type Kind = native.Kind

const (
	KindPlatform     = native.KindPlatform
	KindDevice       = native.KindDevice
	KindContext      = native.KindContext
	KindQueue        = native.KindQueue
	KindBuffer       = native.KindBuffer
	KindImage        = native.KindImage
	KindSharedRegion = native.KindSharedRegion
	KindPipe         = native.KindPipe
	KindProgram      = native.KindProgram
	KindKernel       = native.KindKernel
	KindEvent        = native.KindEvent
)

// Wrap constructs a Handle around a freshly-created native pointer. The
// caller is asserting the native side already holds one reference (the one
// CreateXxx implicitly grants), matching the teacher's pattern of treating
// a successful AddDevice/StartDevice as already owning the resource it
// names.
func Wrap(api native.API, kind Kind, ptr native.Pointer) *Handle {
	return &Handle{kind: kind, ptr: ptr, api: api, refCounted: kind != native.KindPlatform}
}

// Kind reports which of the eleven resource kinds this handle wraps.
func (h *Handle) Kind() Kind { return h.kind }

// Pointer is an internal accessor: it exists for internal/native.API calls
// that need the raw pointer, not for goclx's public surface.
func (h *Handle) Pointer() native.Pointer { return h.ptr }

// Clone increments the native reference count and returns a second,
// independent owner. Per spec.md's testable property 2, both the original
// and the clone must be releasable without double-freeing the underlying
// resource — Clone enforces this by retaining *before* returning, so a
// caller that immediately releases the clone never drops the count below
// what the original still holds.
func (h *Handle) Clone() (*Handle, error) {
	if h.refCounted {
		if err := h.api.Retain(h.kind, h.ptr); err != nil {
			return nil, err
		}
	}
	return &Handle{kind: h.kind, ptr: h.ptr, api: h.api, refCounted: h.refCounted}, nil
}

// Release decrements the native reference count. Failure is swallowed —
// spec.md §4.1: "Failure of release is swallowed (there is no safe
// recovery at destruction time)", the same discipline as the teacher's
// Controller.Close and Runner.Stop ignoring their own error returns.
func (h *Handle) Release() {
	if !h.refCounted {
		return
	}
	_ = h.api.Release(h.kind, h.ptr)
}
