// Package pipeline implements C9 Pipeline Builder: sequential host-side
// submission of several kernel launches with explicit event-graph wait-list
// chaining, grounded on backend.go's own strict ordering discipline
// (CreateAndServe: runners created and started, only then START_DEV
// submitted, only then declared ready) -- the same "phase N must fully
// register before phase N+1 begins" shape, generalized from a fixed
// two-phase startup sequence to an arbitrary stage count and from a
// host-blocking wait to a device-side wait list (spec.md §4.9, §5).
package pipeline

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/behrlich/goclx/internal/event"
	"github.com/behrlich/goclx/internal/executor"
	"github.com/behrlich/goclx/internal/handle"
	"github.com/behrlich/goclx/internal/native"
	"github.com/behrlich/goclx/task"
)

// Stage is one step of a Pipeline. It reuses Task's argument/work
// vocabulary; a Stage's Kernel should not itself carry a Readback --
// only the Pipeline's own WithReadback produces a host-visible result,
// applied after the final stage.
type Stage struct {
	Kernel *task.Task
}

// PipelineReport is an ordered collection of per-stage TaskReports,
// concatenated in stage order (spec.md §4.9 step 3).
type PipelineReport struct {
	Stages []task.Report
}

// Pipeline chains stages so each one's completion events become the
// next stage's wait list, applied identically to every queue the next
// stage launches on. No stage blocks the host waiting for the previous
// one to finish; its events are only collected, so host control flow can
// race ahead of device execution (spec.md §5) while the device enforces
// the actual ordering via the wait list.
type Pipeline struct {
	stages   []Stage
	readback *task.Readback
	profile  bool
}

// New starts an empty Pipeline.
func New() *Pipeline {
	return &Pipeline{}
}

// WithStage appends s as the next stage. Stages run in the order they
// were added.
func (p *Pipeline) WithStage(s Stage) *Pipeline {
	next := *p
	next.stages = append(append([]Stage{}, p.stages...), s)
	return &next
}

// WithReadback requests a host readback after the final stage completes.
// Per spec.md §4.9 step 2, it is submitted with the final stage's events
// as its explicit wait list -- unlike a standalone Task's own readback,
// which deliberately omits a wait list (see task.Readback).
func (p *Pipeline) WithReadback(r task.Readback) *Pipeline {
	next := *p
	next.readback = &r
	return &next
}

// WithProfiling toggles whether every stage collects profiling timestamps.
func (p *Pipeline) WithProfiling(enabled bool) *Pipeline {
	next := *p
	next.profile = enabled
	return &next
}

// Run submits every stage in order without a host-side barrier between
// them: stage k's completion events become stage k+1's wait list
// (spec.md §4.9 step 1), and the final readback, if any, carries the
// final stage's events as its own explicit wait list (step 2). Only once
// every stage and the final readback have been submitted does Run await
// them all, reporting the first error while the rest still run to
// completion -- the same parallel-await rule task.Task.Run applies to one
// stage's own submissions.
func (p *Pipeline) Run(ctx context.Context, ex *executor.Executor) (PipelineReport, error) {
	if len(p.stages) == 0 {
		return PipelineReport{}, fmt.Errorf("pipeline: no stages to run")
	}
	api := ex.API()

	var allFutures []*event.Future
	var wait []native.Event
	var lastQueue native.Queue
	haveQueue := false
	reports := make([]task.Report, len(p.stages))

	for i, stage := range p.stages {
		t := stage.Kernel.WithProfiling(p.profile)
		launch, err := t.LaunchWithWait(ctx, ex, wait)
		if err != nil {
			return PipelineReport{}, fmt.Errorf("pipeline: stage %d: %w", i, err)
		}

		reports[i] = task.Report{Submissions: len(launch.Subs)}
		if p.profile {
			for _, ev := range launch.Events {
				ts, perr := api.EventProfilingInfo(ev)
				if perr == nil {
					reports[i].Profiling = append(reports[i].Profiling, ts)
				}
			}
		}

		allFutures = append(allFutures, launch.Futures...)
		// Collected, not awaited: the next stage's submissions chain onto
		// these events as their wait list, but the host does not block
		// here (spec.md §5).
		wait = launch.Events
		if len(launch.Subs) > 0 {
			lastQueue = launch.Subs[len(launch.Subs)-1].Queue.Pointer()
			haveQueue = true
		}
	}

	if p.readback != nil && haveQueue {
		ev, err := issueReadback(api, lastQueue, p.readback, wait)
		if err != nil {
			return PipelineReport{}, fmt.Errorf("pipeline: readback: %w", err)
		}
		allFutures = append(allFutures, event.New(api, ev))
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, f := range allFutures {
		f := f
		g.Go(func() error {
			_, err := f.Wait(gctx)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return PipelineReport{}, fmt.Errorf("pipeline: await: %w", err)
	}

	return PipelineReport{Stages: reports}, nil
}

// issueReadback enqueues the Pipeline's final readback with wait as its
// explicit wait list, mirroring task.Task.doReadback's target-kind switch
// but -- unlike that method -- chaining the dependency explicitly rather
// than relying on a prior host-side await (spec.md §4.9 step 2).
func issueReadback(api native.API, q native.Queue, r *task.Readback, wait []native.Event) (native.Event, error) {
	switch r.Target.Kind() {
	case handle.KindBuffer:
		return api.EnqueueReadBuffer(q, r.Target.Pointer(), r.Destination, r.Region[0], wait)
	case handle.KindImage:
		return api.EnqueueReadImage(q, r.Target.Pointer(), r.Destination, [3]int{r.Region[1], 1, 1}, wait)
	default:
		return 0, fmt.Errorf("pipeline: readback target must be a Buffer or Image, got %v", r.Target.Kind())
	}
}
