// Package task implements C8 Task Builder: an immutable, fluent builder
// over one kernel launch, grounded on backend.go's DeviceParams/Options
// pair but made fluent (With... returning a new *Task) rather than
// struct-literal, because kernel arguments are ordered and appended one
// at a time the way the teacher's per-tag ioCmds are filled in one at a
// time before a single flush.
package task

import (
	"context"
	"fmt"
	"unsafe"

	"golang.org/x/sync/errgroup"

	"github.com/behrlich/goclx/internal/constants"
	"github.com/behrlich/goclx/internal/event"
	"github.com/behrlich/goclx/internal/executor"
	"github.com/behrlich/goclx/internal/handle"
	"github.com/behrlich/goclx/internal/native"
	"github.com/behrlich/goclx/internal/partition"
)

// Arg is one bound kernel argument. The concrete variants mirror the
// argument kinds spec.md §3 names: a plain scalar, a buffer, an image, an
// SVM-backed shared region, or a pipe.
type Arg interface{ isArg() }

// Scalar binds raw bytes (e.g. an encoded int32/float32) at Index.
type Scalar struct {
	Index int
	Bytes []byte
}

func (Scalar) isArg() {}

// BufferArg binds a device buffer at Index.
type BufferArg struct {
	Index  int
	Buffer *handle.Handle
}

func (BufferArg) isArg() {}

// ImageArg binds a device image at Index.
type ImageArg struct {
	Index int
	Image *handle.Handle
}

func (ImageArg) isArg() {}

// SharedRegionArg binds a host-mapped SVM pointer at Index.
type SharedRegionArg struct {
	Index int
	Ptr   unsafe.Pointer
	Size  int
}

func (SharedRegionArg) isArg() {}

// PipeArg binds a pipe memory object at Index.
type PipeArg struct {
	Index int
	Pipe  *handle.Handle
}

func (PipeArg) isArg() {}

// Readback describes a post-launch copy from a device memory object back
// to host memory.
type Readback struct {
	Target      *handle.Handle // Buffer or Image
	Destination []byte
	Region      [2]int // byte offset, length
}

// Report summarizes one Run: per-submission profiling timestamps when
// profiling was requested, and the number of device submissions the work
// was split across.
type Report struct {
	Submissions int
	Profiling   []native.ProfilingTimestamps
}

// Launch is the result of submitting a Task's kernel without awaiting its
// completion: the raw native events (for chaining into a dependent
// stage's wait list) and their Future wrappers (for awaiting later).
type Launch struct {
	Subs    []partition.Submission
	Events  []native.Event
	Futures []*event.Future
}

// Task is an immutable kernel-launch description. Every With... method
// returns a new *Task; the receiver is never mutated, so a Task can be
// reused as a template for multiple Run calls (spec.md §4.8: "rebinding
// an argument index is last-writer-wins", applied at builder time, not
// across runs).
type Task struct {
	kernel   *handle.Handle
	args     []Arg
	work     partition.WorkDescriptor
	readback *Readback
	profile  bool
}

// New starts a Task bound to kernel, with a default one-work-item launch
// at the origin until WithWork overrides it.
func New(kernel *handle.Handle) *Task {
	return &Task{
		kernel: kernel,
		work: partition.WorkDescriptor{
			GlobalSize: [3]int{constants.DefaultGlobalSizeAxis, 1, 1},
		},
		profile: constants.DefaultProfilingEnabled,
	}
}

// WithArg binds or rebinds one argument. Binding the same Index twice is
// last-writer-wins: the later call replaces the earlier one outright.
func (t *Task) WithArg(a Arg) *Task {
	next := t.clone()
	idx := argIndex(a)
	for i, existing := range next.args {
		if argIndex(existing) == idx {
			next.args[i] = a
			return next
		}
	}
	next.args = append(next.args, a)
	return next
}

// WithWork overrides the default single-work-item launch.
func (t *Task) WithWork(wd partition.WorkDescriptor) *Task {
	next := t.clone()
	next.work = wd
	return next
}

// WithReadback requests a host readback after the launch completes.
func (t *Task) WithReadback(r Readback) *Task {
	next := t.clone()
	next.readback = &r
	return next
}

// WithProfiling toggles whether Run collects per-submission profiling
// timestamps; the owning queue must have been created with the profiling
// property for this to take effect.
func (t *Task) WithProfiling(enabled bool) *Task {
	next := t.clone()
	next.profile = enabled
	return next
}

func (t *Task) clone() *Task {
	next := *t
	next.args = append([]Arg{}, t.args...)
	return &next
}

func argIndex(a Arg) int {
	switch v := a.(type) {
	case Scalar:
		return v.Index
	case BufferArg:
		return v.Index
	case ImageArg:
		return v.Index
	case SharedRegionArg:
		return v.Index
	case PipeArg:
		return v.Index
	default:
		return -1
	}
}

// Run executes the five-step contract spec.md §4.8 names: bind every
// argument to the kernel, default/finalize the work descriptor, partition
// it across the executor's device queues, await every submission in
// parallel (reporting the first error; the rest still run to completion),
// and, only once every submission has resolved, perform the conditional
// readback before assembling the report.
func (t *Task) Run(ctx context.Context, ex *executor.Executor) (Report, error) {
	launch, err := t.LaunchWithWait(ctx, ex, nil)
	if err != nil {
		return Report{}, err
	}
	if len(launch.Subs) == 0 {
		// Zero-size work: spec.md §4.8, §8 -- no submissions, empty
		// report, no error.
		return Report{}, nil
	}

	// Await every submission in parallel; errgroup reports the first
	// non-nil error while the others still run to completion, exactly
	// spec.md §4.8 step 4's rule.
	g, gctx := errgroup.WithContext(ctx)
	for _, f := range launch.Futures {
		f := f
		g.Go(func() error {
			_, err := f.Wait(gctx)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return Report{}, fmt.Errorf("task: await submissions: %w", err)
	}

	if t.readback != nil {
		if err := t.doReadback(ex.API(), launch.Subs[len(launch.Subs)-1].Queue.Pointer()); err != nil {
			return Report{}, fmt.Errorf("task: readback: %w", err)
		}
	}

	report := Report{Submissions: len(launch.Subs)}
	if t.profile {
		for _, ev := range launch.Events {
			ts, err := ex.API().EventProfilingInfo(ev)
			if err == nil {
				report.Profiling = append(report.Profiling, ts)
			}
		}
	}
	return report, nil
}

// LaunchWithWait binds arguments, partitions the work, and submits one
// NDRange enqueue per partitioned submission, chaining wait as the
// explicit wait list of every submission -- the mechanism Pipeline uses to
// stitch stage k's completion events into stage k+1's submissions without
// a host-side barrier between them (spec.md §4.9 step 1). Task.Run calls
// this with a nil wait list.
//
// Zero-size work (GlobalSize[0] == 0) short-circuits here, before binding
// any argument or partitioning: it returns an empty Launch and a nil
// error (spec.md §4.8, §8: "Zero-size work -> no submissions, empty
// report, no error").
func (t *Task) LaunchWithWait(ctx context.Context, ex *executor.Executor, wait []native.Event) (Launch, error) {
	if t.work.GlobalSize[0] == 0 {
		return Launch{}, nil
	}

	api := ex.API()
	if err := t.bindArgs(api); err != nil {
		return Launch{}, fmt.Errorf("task: bind args: %w", err)
	}

	queues := ex.Queues()
	weights := ex.Weights()
	subs, err := partition.Partition(t.work, queues, weights)
	if err != nil {
		return Launch{}, fmt.Errorf("task: partition work: %w", err)
	}

	events, futures, err := t.submit(ex, subs, wait)
	if err != nil {
		return Launch{}, fmt.Errorf("task: submit: %w", err)
	}
	return Launch{Subs: subs, Events: events, Futures: futures}, nil
}

// bindArgs applies every bound Arg to the kernel via the matching
// native.API setter, dispatching on the concrete Arg variant.
func (t *Task) bindArgs(api native.API) error {
	for _, a := range t.args {
		switch v := a.(type) {
		case Scalar:
			if err := api.SetKernelArg(t.kernel.Pointer(), v.Index, len(v.Bytes), unsafe.Pointer(&v.Bytes[0])); err != nil {
				return fmt.Errorf("scalar arg %d: %w", v.Index, err)
			}
		case BufferArg:
			ptr := v.Buffer.Pointer()
			if err := api.SetKernelArg(t.kernel.Pointer(), v.Index, int(unsafe.Sizeof(ptr)), unsafe.Pointer(&ptr)); err != nil {
				return fmt.Errorf("buffer arg %d: %w", v.Index, err)
			}
		case ImageArg:
			ptr := v.Image.Pointer()
			if err := api.SetKernelArg(t.kernel.Pointer(), v.Index, int(unsafe.Sizeof(ptr)), unsafe.Pointer(&ptr)); err != nil {
				return fmt.Errorf("image arg %d: %w", v.Index, err)
			}
		case SharedRegionArg:
			if err := api.SetKernelArgSVM(t.kernel.Pointer(), v.Index, v.Ptr); err != nil {
				return fmt.Errorf("shared region arg %d: %w", v.Index, err)
			}
		case PipeArg:
			ptr := v.Pipe.Pointer()
			if err := api.SetKernelArg(t.kernel.Pointer(), v.Index, int(unsafe.Sizeof(ptr)), unsafe.Pointer(&ptr)); err != nil {
				return fmt.Errorf("pipe arg %d: %w", v.Index, err)
			}
		default:
			return fmt.Errorf("unknown arg type %T", a)
		}
	}
	return nil
}

// submit enqueues one NDRange per partitioned submission, resolving each
// submission's local work-group size against its own device's capability
// set (spec.md §4.7's local-work-group-selection rules), and wraps each
// resulting native.Event in an event.Future. wait is chained as the
// explicit wait list of every enqueue, letting Pipeline stitch a
// dependent stage's submissions onto the previous stage's events.
func (t *Task) submit(ex *executor.Executor, subs []partition.Submission, wait []native.Event) ([]native.Event, []*event.Future, error) {
	api := ex.API()
	dims := partition.EffectiveDims(t.work)

	queueIndex := make(map[native.Queue]int, len(ex.Queues()))
	for i, q := range ex.Queues() {
		queueIndex[q.Pointer()] = i
	}
	devicePointers := ex.Devices()

	events := make([]native.Event, 0, len(subs))
	futures := make([]*event.Future, 0, len(subs))
	for _, s := range subs {
		idx := queueIndex[s.Queue.Pointer()]
		caps := ex.Capabilities(idx)
		devicePtr := devicePointers[idx].Pointer()
		preferred := func() (int, error) {
			return api.PreferredWorkGroupSizeMultiple(t.kernel.Pointer(), devicePtr)
		}

		local3, err := partition.ChooseLocalSize(partition.WorkDescriptor{Dims: dims, LocalSize: s.Local}, caps, preferred)
		if err != nil {
			return nil, nil, err
		}
		var local []int
		if local3 != nil {
			local = local3[:dims]
		}

		ev, err := api.EnqueueNDRange(s.Queue.Pointer(), t.kernel.Pointer(), s.Offset[:dims], s.Size[:dims], local, wait)
		if err != nil {
			return nil, nil, err
		}
		events = append(events, ev)
		futures = append(futures, event.New(api, ev))
	}
	return events, futures, nil
}

// doReadback runs after every kernel-launch future has resolved (spec.md
// §4.8 step 5, §9's third open question): the readback is issued as a
// plain follow-on enqueue, not chained via an explicit wait-list, so it is
// observable only under out-of-order queues. It runs on whichever queue
// the final partitioned submission used, matching the common single-
// device case; a multi-device task reading back a result that several
// devices contributed to must gather it itself before calling Run again.
func (t *Task) doReadback(api native.API, q native.Queue) error {
	r := t.readback
	var ev native.Event
	var err error
	switch r.Target.Kind() {
	case handle.KindBuffer:
		ev, err = api.EnqueueReadBuffer(q, r.Target.Pointer(), r.Destination, r.Region[0], nil)
	case handle.KindImage:
		ev, err = api.EnqueueReadImage(q, r.Target.Pointer(), r.Destination, [3]int{r.Region[1], 1, 1}, nil)
	default:
		return fmt.Errorf("readback target must be a Buffer or Image, got %v", r.Target.Kind())
	}
	if err != nil {
		return err
	}
	return event.WaitAll(context.Background(), []*event.Future{event.New(api, ev)})
}
