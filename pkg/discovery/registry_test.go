package discovery

import (
	"testing"

	"github.com/ridgeline-run/steprunner/pkg/spec"
	"github.com/ridgeline-run/steprunner/pkg/step"
)

func noopFactory(step.ConstructArgs) (step.Step, error) { return nil, nil }

func TestRegisterAndCandidatesPreserveOrder(t *testing.T) {
	Reset()
	defer Reset()

	Register("ns", step.ClassInfo{Meta: spec.StepMeta{Name: "first"}}, noopFactory)
	Register("ns", step.ClassInfo{Meta: spec.StepMeta{Name: "second"}}, noopFactory)
	Register("other", step.ClassInfo{Meta: spec.StepMeta{Name: "elsewhere"}}, noopFactory)

	var reg Registry
	got := reg.Candidates("ns")
	if len(got) != 2 {
		t.Fatalf("Candidates(ns) = %d entries, want 2", len(got))
	}
	if got[0].Info.Meta.Name != "first" || got[1].Info.Meta.Name != "second" {
		t.Fatalf("Candidates(ns) out of order: %v", got)
	}
}

func TestCandidatesEmptyNamespace(t *testing.T) {
	Reset()
	defer Reset()
	var reg Registry
	if got := reg.Candidates("nothing-registered"); len(got) != 0 {
		t.Fatalf("Candidates() = %v, want empty", got)
	}
}
