package executor

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ridgeline-run/steprunner/pkg/catalog"
	"github.com/ridgeline-run/steprunner/pkg/logger"
	"github.com/ridgeline-run/steprunner/pkg/planner"
	"github.com/ridgeline-run/steprunner/pkg/spec"
	"github.com/ridgeline-run/steprunner/pkg/step"
)

type fakeEnumerator map[string][]catalog.Candidate

func (f fakeEnumerator) Candidates(namespace string) []catalog.Candidate { return f[namespace] }

type countingStep struct {
	step.Base
	runs    *int
	out     map[string]interface{}
	mu      *sync.Mutex
	lastRun *time.Time
}

func (s *countingStep) Run(ctx context.Context) error {
	now := time.Now()
	s.mu.Lock()
	*s.runs++
	*s.lastRun = now
	s.mu.Unlock()
	s.MarkRan(now, s.out)
	return nil
}

// makeFactory's instances share one last-run time per class, standing in for
// the external state (a file's mtime, say) a real step reads when it is
// constructed: a fresh instance of a class that has already run reports that
// time and its productions without being run again.
func makeFactory(name string, deps, prods []string, runs *int, mu *sync.Mutex) step.Factory {
	lastRun := new(time.Time)
	return func(args step.ConstructArgs) (step.Step, error) {
		out := make(map[string]interface{}, len(prods))
		for _, p := range prods {
			out[p] = name + ":" + p
		}
		s := &countingStep{
			Base: step.NewBase(step.ClassInfo{
				Meta:         spec.StepMeta{Name: name},
				Dependencies: deps,
				Productions:  prods,
			}),
			runs:    runs,
			out:     out,
			mu:      mu,
			lastRun: lastRun,
		}
		mu.Lock()
		if !lastRun.IsZero() {
			s.SeedLastRunTime(*lastRun)
			s.SeedProductionValues(out)
		}
		mu.Unlock()
		return s, nil
	}
}

func buildChainCatalog(t *testing.T, runs *int, mu *sync.Mutex) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.Build(fakeEnumerator{"ns": {
		{Namespace: "ns", Info: step.ClassInfo{Meta: spec.StepMeta{Name: "A"}, Productions: []string{"a"}}, Factory: makeFactory("A", nil, []string{"a"}, runs, mu)},
		{Namespace: "ns", Info: step.ClassInfo{Meta: spec.StepMeta{Name: "B"}, Dependencies: []string{"a"}, Productions: []string{"b"}}, Factory: makeFactory("B", []string{"a"}, []string{"b"}, runs, mu)},
		{Namespace: "ns", Info: step.ClassInfo{Meta: spec.StepMeta{Name: "C"}, Dependencies: []string{"b"}}, Factory: makeFactory("C", []string{"b"}, nil, runs, mu)},
	}}, []string{"ns"})
	if err != nil {
		t.Fatalf("catalog.Build: %v", err)
	}
	return cat
}

func TestSequentialRunExecutesEveryStepOnce(t *testing.T) {
	var runs int
	var mu sync.Mutex
	cat := buildChainCatalog(t, &runs, &mu)
	plan, err := planner.Build(cat, []string{"C"})
	if err != nil {
		t.Fatalf("planner.Build: %v", err)
	}

	exec := New(logger.NopSink{})
	rd, err := exec.Run(context.Background(), cat, plan, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if runs != 3 {
		t.Fatalf("runs = %d, want 3", runs)
	}
	if got := rd.Productions()["b"]; got != "B:b" {
		t.Fatalf("Productions()[b] = %v, want B:b", got)
	}
}

func TestSecondRunSkipsEverythingWhenNothingStale(t *testing.T) {
	var runs int
	var mu sync.Mutex
	cat := buildChainCatalog(t, &runs, &mu)
	plan, err := planner.Build(cat, []string{"C"})
	if err != nil {
		t.Fatalf("planner.Build: %v", err)
	}
	exec := New(logger.NopSink{})

	if _, err := exec.Run(context.Background(), cat, plan, nil); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	firstRuns := runs

	if _, err := exec.Run(context.Background(), cat, plan, nil); err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if runs != firstRuns {
		t.Fatalf("second run executed %d additional steps, want 0 (everything up to date)", runs-firstRuns)
	}
}

type fakeWorker struct {
	mu      sync.Mutex
	calls   []string
	failOn  string
	delay   time.Duration
	ctxErrs map[string]error
}

func (w *fakeWorker) Dispatch(ctx context.Context, className string, args step.ConstructArgs) (time.Time, bool, map[string]interface{}, error) {
	w.mu.Lock()
	w.calls = append(w.calls, className)
	w.mu.Unlock()
	if className == w.failOn {
		return time.Time{}, false, nil, fmt.Errorf("simulated failure for %s", className)
	}
	if w.delay > 0 {
		time.Sleep(w.delay)
	}
	if w.ctxErrs != nil {
		w.mu.Lock()
		w.ctxErrs[className] = ctx.Err()
		w.mu.Unlock()
	}
	// Every class in these tests declares the lower-cased class name as its
	// production, so that is the key its dependents are resolved by.
	return time.Now(), true, map[string]interface{}{strings.ToLower(className): className + ":ok"}, nil
}

func TestParallelRunDispatchesNonUpToDateSteps(t *testing.T) {
	var runs int
	var mu sync.Mutex
	cat := buildChainCatalog(t, &runs, &mu)
	plan, err := planner.Build(cat, []string{"C"})
	if err != nil {
		t.Fatalf("planner.Build: %v", err)
	}

	w := &fakeWorker{}
	exec := NewParallel(2, w, logger.NopSink{})
	rd, err := exec.Run(context.Background(), cat, plan, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(w.calls) != 3 {
		t.Fatalf("worker dispatched %d times, want 3: %v", len(w.calls), w.calls)
	}
	if got := rd.Productions()["a"]; got != "A:ok" {
		t.Fatalf("Productions()[a] = %v, want A:ok", got)
	}
}

func TestParallelRunAbortsAndDrainsOnWorkerFailure(t *testing.T) {
	var runs int
	var mu sync.Mutex
	cat, err := catalog.Build(fakeEnumerator{"ns": {
		{Namespace: "ns", Info: step.ClassInfo{Meta: spec.StepMeta{Name: "S1"}, Productions: []string{"s1"}}, Factory: makeFactory("S1", nil, []string{"s1"}, &runs, &mu)},
		{Namespace: "ns", Info: step.ClassInfo{Meta: spec.StepMeta{Name: "S2"}, Productions: []string{"s2"}}, Factory: makeFactory("S2", nil, []string{"s2"}, &runs, &mu)},
		{Namespace: "ns", Info: step.ClassInfo{Meta: spec.StepMeta{Name: "S3"}, Productions: []string{"s3"}}, Factory: makeFactory("S3", nil, []string{"s3"}, &runs, &mu)},
	}}, []string{"ns"})
	if err != nil {
		t.Fatalf("catalog.Build: %v", err)
	}
	plan, err := planner.Build(cat, []string{"S1", "S2", "S3"})
	if err != nil {
		t.Fatalf("planner.Build: %v", err)
	}

	// S1 and S3 are given a delay so they are still in flight when S2's
	// immediate failure is observed by the group; ctxErrs records the
	// context.Context each saw when it finished, so the test can assert
	// neither was cancelled out from under it.
	w := &fakeWorker{failOn: "S2", delay: 50 * time.Millisecond, ctxErrs: map[string]error{}}
	exec := NewParallel(3, w, logger.NopSink{})

	_, err = exec.Run(context.Background(), cat, plan, nil)
	if err == nil {
		t.Fatal("expected an error from a failing worker")
	}
	if len(w.calls) != 3 {
		t.Fatalf("expected all three siblings dispatched before abort, got %v", w.calls)
	}
	if got := w.ctxErrs["S1"]; got != nil {
		t.Fatalf("S1's dispatch context was cancelled (%v); siblings must run to completion, not be killed early", got)
	}
	if got := w.ctxErrs["S3"]; got != nil {
		t.Fatalf("S3's dispatch context was cancelled (%v); siblings must run to completion, not be killed early", got)
	}
}
