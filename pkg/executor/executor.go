// Package executor drives a Plan to completion: for each step set in
// order, it builds every class's instance, decides skip-vs-run against
// RunData's up-to-date predicate, and merges the resulting productions and
// timestamps back into RunData before the next set is allowed to start.
//
// Two modes share this bookkeeping. Sequential runs each class in the
// coordinator's own goroutine, in order. Parallel dispatches classes that
// need to run to separate worker processes up to a configurable width,
// mirroring the teacher's errgroup-plus-semaphore fan-out in
// pkg/engine/executor.go, but over OS processes instead of goroutines, per
// spec.md §5.
package executor

import (
	"context"
	"time"

	"github.com/ridgeline-run/steprunner/pkg/catalog"
	"github.com/ridgeline-run/steprunner/pkg/logger"
	"github.com/ridgeline-run/steprunner/pkg/planner"
	"github.com/ridgeline-run/steprunner/pkg/rundata"
	"github.com/ridgeline-run/steprunner/pkg/step"
	"github.com/ridgeline-run/steprunner/pkg/stepsrunnererr"
)

// Worker dispatches one non-up-to-date step's Run to an external process and
// reports what it observed afterward. workerproc.Dispatcher is the
// production implementation; tests substitute an in-process fake.
type Worker interface {
	// Dispatch runs the class in a fresh worker, blocking until it exits.
	// args is the resolved constructor argument bag built in the
	// coordinator. The returned values mirror what a sequential, in-process
	// Run+observe would have produced.
	Dispatch(ctx context.Context, className string, args step.ConstructArgs) (lastRunTime time.Time, ok bool, productions map[string]interface{}, err error)
}

// Executor runs a Plan against a catalog's factories, mutating a RunData as
// it goes. Jobs controls parallelism: Jobs<=1 runs every set sequentially
// in-process; Jobs>1 dispatches non-up-to-date steps to Worker up to that
// many concurrently in-flight.
type Executor struct {
	Jobs   int
	Worker Worker
	Log    logger.Sink

	// OnStepDone, if set, is called once a step has been either skipped or
	// run, with its class name, whether it was actually run (false means
	// skipped as up-to-date), and how long Run took (zero for a skipped
	// step). Callers use it to drive a progress indicator or a structured
	// report; it is never required for correct scheduling.
	OnStepDone func(className string, ran bool, duration time.Duration)
}

// New returns a sequential executor (Jobs=1, no Worker needed).
func New(log logger.Sink) *Executor {
	if log == nil {
		log = logger.NopSink{}
	}
	return &Executor{Jobs: 1, Log: log}
}

// NewParallel returns an executor that dispatches to w with up to jobs
// workers in flight per step set. jobs<=1 degrades to sequential.
func NewParallel(jobs int, w Worker, log logger.Sink) *Executor {
	if log == nil {
		log = logger.NopSink{}
	}
	return &Executor{Jobs: jobs, Worker: w, Log: log}
}

// Run drives plan to completion against config, returning the accumulated
// RunData. The config map supplies constructor args for every step's
// declared InitArgs; productions flowing along the dependency graph are
// resolved from RunData and always take precedence over a same-named config
// entry.
func (e *Executor) Run(ctx context.Context, cat *catalog.Catalog, plan *planner.Plan, config map[string]interface{}) (*rundata.RunData, error) {
	rd := rundata.New()
	for _, set := range plan.Sets {
		rd.StartStepSet()
		var err error
		if e.Jobs > 1 && e.Worker != nil {
			err = e.runSetParallel(ctx, rd, set, config)
		} else {
			err = e.runSetSequential(ctx, rd, set, config)
		}
		if err != nil {
			return rd, err
		}
	}
	return rd, nil
}

func (e *Executor) runSetSequential(ctx context.Context, rd *rundata.RunData, set planner.Set, config map[string]interface{}) error {
	for _, entry := range set {
		s, err := rd.MakeStepObject(entry.Info.Meta.Name, entry.Info.Dependencies, initArgNames(entry.Info.InitArgs), config, entry.Factory)
		if err != nil {
			return err
		}
		if rd.UpToDate(s) {
			e.Log.Debug("%s is up to date, skipping", entry.Info.Meta.Name)
			recordFromStep(rd, s)
			e.notifyDone(entry.Info.Meta.Name, false, 0)
			continue
		}
		e.Log.Info("running %s", entry.Info.Meta.Name)
		start := time.Now()
		if err := s.Run(ctx); err != nil {
			return stepsrunnererr.Wrap(stepsrunnererr.WorkerFailure, entry.Info.Meta.Name, err, "step failed")
		}
		recordFromStep(rd, s)
		e.notifyDone(entry.Info.Meta.Name, true, time.Since(start))
	}
	return nil
}

func (e *Executor) notifyDone(className string, ran bool, duration time.Duration) {
	if e.OnStepDone != nil {
		e.OnStepDone(className, ran, duration)
	}
}

func recordFromStep(rd *rundata.RunData, s step.Step) {
	t, ok := s.LastRunTime()
	rd.RecordRunTime(t, ok)
	rd.RecordProductions(s.ProductionValues())
}

func initArgNames(args []step.InitArg) []string {
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = a.Name
	}
	return out
}
