// Package event implements C3 Event Future Adapter: turning a native
// completion event into a host-suspendable handle. Grounded on
// internal/ctrl/control.go's AsyncStartHandle.Wait(timeout) plus
// internal/queue/runner.go's completion-channel loop — one native
// completion callback signals a channel, and the awaiter reads it,
// scaled here from one well-known handle to any native.Event.
package event

import (
	"context"

	"github.com/behrlich/goclx/internal/native"
)

// Future is a suspendable handle over one native.Event. Only one callback
// is registered per event; broadcast to multiple awaiters, if ever needed,
// is an application-layer concern per spec.md §4.3.
type Future struct {
	api  native.API
	ev   native.Event
	done chan native.EventState
}

// New registers a one-shot completion callback on ev and returns a Future
// that resolves when it fires. The callback is bridged to a
// single-producer/single-consumer channel exactly as spec.md §4.3
// prescribes.
func New(api native.API, ev native.Event) *Future {
	f := &Future{api: api, ev: ev, done: make(chan native.EventState, 1)}
	api.EventSetCallback(ev, func(state native.EventState) {
		select {
		case f.done <- state:
		default:
			// Another send already delivered a terminal state; a second
			// callback invocation (there shouldn't be one, but the native
			// side is someone else's code) must not block forever.
		}
	})
	return f
}

// Wait blocks until the event reaches a terminal state or ctx is done.
// Context cancellation detaches only the host-side wait — per spec.md
// §4.3 and §5, the underlying native work is never recalled; it keeps
// running and its handle is released normally whenever the caller drops
// it.
func (f *Future) Wait(ctx context.Context) (native.EventState, error) {
	select {
	case state := <-f.done:
		if state == native.EventFailed {
			return state, &FailedError{Event: f.ev}
		}
		return state, nil
	case <-ctx.Done():
		return native.EventQueued, ctx.Err()
	}
}

// Detach abandons the host-side wait without affecting the native event.
// Grounded on the teacher's Stop()/context-cancellation pattern: cancelling
// the host observer, never the device-owned work.
func (f *Future) Detach() {
	// The callback already sends into a buffered channel of size 1 and
	// self-guards against a blocked receiver; there is nothing further to
	// release on the host side, and the native event is never touched.
}

// FailedError reports that an awaited event resolved to EventFailed rather
// than EventComplete.
type FailedError struct {
	Event native.Event
}

func (e *FailedError) Error() string {
	return "event: native event reached Failed state"
}

// WaitAll blocks until every future in fs has resolved, returning the
// first error encountered (others are still drained to avoid leaking a
// blocked callback goroutine). This is the primitive task's readback uses
// instead of golang.org/x/sync/errgroup when it needs
// plain "wait for N events" semantics rather than errgroup's
// context-propagating cancellation.
func WaitAll(ctx context.Context, fs []*Future) error {
	var firstErr error
	for _, f := range fs {
		if _, err := f.Wait(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
