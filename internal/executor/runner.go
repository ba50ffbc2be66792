package executor

import (
	"runtime"

	"golang.org/x/sys/unix"

	"github.com/behrlich/goclx/internal/logging"
)

// worker pins one goroutine to a CPU for the lifetime of a device slot.
// Adapted from internal/queue/runner.go's ioLoop: that function's FETCH/
// COMMIT tag state machine has no OpenCL analogue (there is no SQE/CQE ring
// to drain here, only enqueue calls the caller already made synchronously
// against native.API), so only the CPU-pinning half is carried forward;
// see DESIGN.md for why the rest of ioLoop was not adapted.
type worker struct {
	queueID uint16
	done    chan struct{}
}

// newWorker starts a goroutine that locks its OS thread and pins it to
// cpus[int(queueID) % len(cpus)], exactly the round-robin assignment
// internal/queue/runner.go uses. The goroutine otherwise idles until stop
// is called; it exists so a device's native submissions, when issued from
// within it, run on a consistent, affinitized thread.
func newWorker(queueID uint16, cpus []int, logger *logging.Logger) *worker {
	w := &worker{queueID: queueID, done: make(chan struct{})}
	ready := make(chan struct{})
	go func() {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()

		cpuIdx := cpus[int(queueID)%len(cpus)]
		var mask unix.CPUSet
		mask.Set(cpuIdx)
		if err := unix.SchedSetaffinity(0, &mask); err != nil {
			if logger != nil {
				logger.Warnf("device %d: failed to set CPU affinity to CPU %d: %v", queueID, cpuIdx, err)
			}
		} else if logger != nil {
			logger.Debugf("device %d: set CPU affinity to CPU %d", queueID, cpuIdx)
		}

		close(ready)
		<-w.done
	}()
	<-ready
	return w
}

func (w *worker) stop() {
	select {
	case <-w.done:
	default:
		close(w.done)
	}
}
