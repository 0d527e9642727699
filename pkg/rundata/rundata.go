// Package rundata holds the mutable state a single Executor.Run invocation
// accumulates as its Plan's step sets are processed: productions gathered so
// far, the timestamps observed within the set currently being processed, and
// the rolling maximum of every prior set's timestamps — the quantity the
// up-to-date predicate compares each step's own last-run time against.
//
// A RunData exists only for the lifetime of one run; nothing here survives
// across separate calls to Executor.Run — productions live in a
// cache.GenericCache built with no default TTL (entries never expire on
// their own), used here purely for its sync.Map-backed concurrent
// Get/Set, since the parallel executor's worker-result merges and the
// sequential executor's in-process writes both need safe concurrent
// access without RunData hand-rolling its own mutex.
package rundata

import (
	"time"

	"github.com/ridgeline-run/steprunner/pkg/cache"
	"github.com/ridgeline-run/steprunner/pkg/step"
	"github.com/ridgeline-run/steprunner/pkg/stepsrunnererr"
)

// RunData is the coordinator-private state threaded through one run. The
// timestamp bookkeeping is coordinator-only and expects serialized access
// (the parallel executor's merge goroutine holds a mutex around every
// call); productions is backed by a concurrent cache and tolerates being
// read from other goroutines mid-run.
type RunData struct {
	productions *cache.GenericCache

	currentSetTimes    []time.Time
	currentSetComplete bool

	previousMax      time.Time
	previousMaxKnown bool
	// everIncomplete latches once a processed step reports no last-run
	// time at all. previousMax is a single scalar folded from every prior
	// set's producers; once one producer's timestamp is undefined, the
	// "all prior defined" guard in UpToDate can never be satisfied again
	// for the rest of this run, so there is nothing to recover from.
	everIncomplete bool
}

// New returns an empty RunData ready for the first step set of a run.
func New() *RunData {
	return &RunData{productions: cache.New(cache.DefaultExpiration, 0), currentSetComplete: true}
}

// StartStepSet folds the previous set's observed timestamps into
// previousMax and clears the per-set accumulator, per spec.md §4.5. Call it
// once, before processing each step set, including the first (a no-op the
// first time since there is nothing yet to fold).
func (rd *RunData) StartStepSet() {
	if !rd.currentSetComplete {
		rd.everIncomplete = true
	}
	if !rd.everIncomplete {
		for _, t := range rd.currentSetTimes {
			if !rd.previousMaxKnown || t.After(rd.previousMax) {
				rd.previousMax = t
				rd.previousMaxKnown = true
			}
		}
	} else {
		rd.previousMaxKnown = false
	}
	rd.currentSetTimes = nil
	rd.currentSetComplete = true
}

// RecordRunTime appends a completed step's last-run time to the current
// set's accumulator. A step that reports no timestamp at all (ok=false)
// marks the whole set "incomplete": previousMax becomes unknown once this
// set folds, which in turn forces every subsequent step in later sets to
// report not-up-to-date, since the up-to-date predicate requires every
// producer's timestamp to be defined.
func (rd *RunData) RecordRunTime(t time.Time, ok bool) {
	if !ok {
		rd.currentSetComplete = false
		return
	}
	rd.currentSetTimes = append(rd.currentSetTimes, t)
}

// RecordProductions merges a completed step's productions into the run's
// aggregate cache. Keys never collide across a valid plan, so last-write
// semantics are never actually exercised by correct input, but are the
// simplest correct behavior if they ever are.
func (rd *RunData) RecordProductions(values map[string]interface{}) {
	for k, v := range values {
		rd.productions.Set(k, v)
	}
}

// Productions returns a snapshot of the accumulated production map.
func (rd *RunData) Productions() map[string]interface{} {
	out := make(map[string]interface{}, rd.productions.Count())
	rd.productions.Range(func(k string, v interface{}) bool {
		out[k] = v
		return true
	})
	return out
}

// UpToDate implements the predicate from spec.md §4.5: a step is up to date
// if it has a defined last-run time and, whenever it has at least one
// dependency, its own timestamp strictly exceeds previousMax, which is only
// defined once every producer of a prior set reported one. Equal
// timestamps are treated as stale (strict '>'); a step with no dependencies
// is up to date as long as its own timestamp is known.
func (rd *RunData) UpToDate(s step.Step) bool {
	own, ok := s.LastRunTime()
	if !ok {
		return false
	}
	if len(s.Dependencies()) == 0 {
		return true
	}
	if !rd.previousMaxKnown {
		return false
	}
	return own.After(rd.previousMax)
}

// ResolveArgs projects config for every declared init arg and overlays
// upstream productions for every declared dependency name (productions win
// when a name appears in both, per spec.md §4.5). A dependency with no
// production value recorded yet is MissingProductionAtConstruct — a
// defensive check; a valid plan never reaches it, since every dependency of
// a step in set i is produced by set i-1 or earlier. The returned args are
// everything a Factory — whether called here in the coordinator, or by a
// worker process that received them over the wire — needs to build the
// instance.
func (rd *RunData) ResolveArgs(className string, deps, initArgNames []string, config map[string]interface{}) (step.ConstructArgs, error) {
	args := make(step.ConstructArgs, len(initArgNames)+len(deps))
	for _, name := range initArgNames {
		if v, ok := config[name]; ok {
			args[name] = v
		}
	}
	for _, dep := range deps {
		v, ok := rd.productions.Get(dep)
		if !ok {
			return nil, stepsrunnererr.New(stepsrunnererr.MissingProductionAtConstruct, className,
				"dependency %q has no recorded production at construction time", dep)
		}
		args[dep] = v
	}
	return args, nil
}

// MakeStepObject resolves entry's constructor args and builds it via
// factory — the path used in the coordinator both for the sequential
// executor and for the parallel executor's up-to-date check, which needs a
// live instance to read LastRunTime/ProductionValues from without running
// it.
func (rd *RunData) MakeStepObject(className string, deps, initArgNames []string, config map[string]interface{}, factory step.Factory) (step.Step, error) {
	args, err := rd.ResolveArgs(className, deps, initArgNames, config)
	if err != nil {
		return nil, err
	}
	return factory(args)
}
