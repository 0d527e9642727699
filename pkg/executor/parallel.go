package executor

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ridgeline-run/steprunner/pkg/planner"
	"github.com/ridgeline-run/steprunner/pkg/rundata"
	"github.com/ridgeline-run/steprunner/pkg/stepsrunnererr"
)

// runSetParallel mirrors the teacher's errgroup-plus-semaphore fan-out
// (pkg/engine/executor.go), but every unit of concurrent work is a worker
// *process*, not a goroutine: the goroutine here only blocks on
// Worker.Dispatch, which does the actual forking.
//
// Constructor-arg projection always happens in this coordinator goroutine,
// never inside the dispatched worker, because it needs read access to
// RunData's accumulated productions — state that lives only here (spec.md
// §4.6). The worker receives the already-resolved args and returns only
// what it observed after Run: a timestamp and a productions map, merged
// back into RunData by whichever goroutine's Dispatch returns, serialized
// by mergeMu so RunData never sees a concurrent or partial write.
//
// On the first worker failure, failed latches and every subsequent
// completion — even a sibling that finishes successfully afterward — is
// drained but its result discarded rather than merged, per spec.md §9's
// resolution of that open question.
//
// Dispatch is always called with the outer ctx, never groupCtx: groupCtx
// is cancelled the instant any goroutine in the group returns an error, and
// an already-running worker must be allowed to finish rather than be
// killed out from under it (spec.md §5 — "no attempt is made to kill
// siblings early"). groupCtx is consulted only while the coordinator waits
// for a free slot: a failure observed during that wait stops any further
// dispatch, while a class for which a slot is already free is dispatched
// straight away.
func (e *Executor) runSetParallel(ctx context.Context, rd *rundata.RunData, set planner.Set, config map[string]interface{}) error {
	sem := make(chan struct{}, e.Jobs)
	group, groupCtx := errgroup.WithContext(ctx)
	var mergeMu sync.Mutex
	var failed atomic.Bool

	for _, entry := range set {
		entry := entry
		s, err := rd.MakeStepObject(entry.Info.Meta.Name, entry.Info.Dependencies, initArgNames(entry.Info.InitArgs), config, entry.Factory)
		if err != nil {
			return err
		}

		if rd.UpToDate(s) {
			e.Log.Debug("%s is up to date, skipping", entry.Info.Meta.Name)
			mergeMu.Lock()
			recordFromStep(rd, s)
			mergeMu.Unlock()
			e.notifyDone(entry.Info.Meta.Name, false, 0)
			continue
		}

		args, err := rd.ResolveArgs(entry.Info.Meta.Name, entry.Info.Dependencies, initArgNames(entry.Info.InitArgs), config)
		if err != nil {
			return err
		}
		className := entry.Info.Meta.Name

		select {
		case sem <- struct{}{}:
		default:
			select {
			case sem <- struct{}{}:
			case <-groupCtx.Done():
				return waitDrain(group)
			}
		}

		group.Go(func() error {
			defer func() { <-sem }()
			e.Log.Info("dispatching %s", className)
			dispatchStart := time.Now()
			t, ok, productions, err := e.Worker.Dispatch(ctx, className, args)
			if err != nil {
				e.Log.Error("%s failed: %v", className, err)
				failed.Store(true)
				return stepsrunnererr.Wrap(stepsrunnererr.WorkerFailure, className, err, "worker failed")
			}
			if failed.Load() {
				e.Log.Warning("discarding productions from %s: a sibling in this step set failed", className)
				e.notifyDone(className, true, time.Since(dispatchStart))
				return nil
			}
			mergeMu.Lock()
			rd.RecordRunTime(t, ok)
			rd.RecordProductions(productions)
			mergeMu.Unlock()
			e.notifyDone(className, true, time.Since(dispatchStart))
			return nil
		})
	}

	return waitDrain(group)
}

// waitDrain waits for every in-flight worker of the current set to finish
// before reporting an error, so a failing set never leaves siblings
// orphaned — spec.md §4.6's "drain all in-flight peers" requirement.
func waitDrain(group *errgroup.Group) error {
	if err := group.Wait(); err != nil {
		return fmt.Errorf("step set aborted: %w", err)
	}
	return nil
}
