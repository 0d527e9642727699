package catalog

import (
	"testing"

	"github.com/ridgeline-run/steprunner/pkg/spec"
	"github.com/ridgeline-run/steprunner/pkg/step"
	"github.com/ridgeline-run/steprunner/pkg/stepsrunnererr"
)

type fakeEnumerator map[string][]Candidate

func (f fakeEnumerator) Candidates(namespace string) []Candidate { return f[namespace] }

func noopFactory(step.ConstructArgs) (step.Step, error) { return nil, nil }

func TestBuildOrdersByNamespaceThenName(t *testing.T) {
	enum := fakeEnumerator{
		"ns-a": {
			{Namespace: "ns-a", Info: step.ClassInfo{Meta: spec.StepMeta{Name: "b.Class"}}, Factory: noopFactory},
			{Namespace: "ns-a", Info: step.ClassInfo{Meta: spec.StepMeta{Name: "a.Class"}}, Factory: noopFactory},
		},
		"ns-b": {
			{Namespace: "ns-b", Info: step.ClassInfo{Meta: spec.StepMeta{Name: "z.Class"}}, Factory: noopFactory},
		},
	}
	cat, err := Build(enum, []string{"ns-a", "ns-b"})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	names := make([]string, 0)
	for _, e := range cat.Entries() {
		names = append(names, e.Info.Meta.Name)
	}
	want := []string{"a.Class", "b.Class", "z.Class"}
	if len(names) != len(want) {
		t.Fatalf("Entries() = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("Entries()[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestBuildRejectsDuplicateName(t *testing.T) {
	enum := fakeEnumerator{
		"ns": {
			{Namespace: "ns", Info: step.ClassInfo{Meta: spec.StepMeta{Name: "dup"}}, Factory: noopFactory},
			{Namespace: "ns", Info: step.ClassInfo{Meta: spec.StepMeta{Name: "dup"}}, Factory: noopFactory},
		},
	}
	_, err := Build(enum, []string{"ns"})
	if kind, ok := stepsrunnererr.KindOf(err); !ok || kind != stepsrunnererr.CatalogMalformed {
		t.Fatalf("Build() error = %v, want CatalogMalformed", err)
	}
}

func TestBuildRejectsSelfDependency(t *testing.T) {
	enum := fakeEnumerator{
		"ns": {
			{Namespace: "ns", Info: step.ClassInfo{
				Meta:         spec.StepMeta{Name: "self"},
				Dependencies: []string{"value"},
				Productions:  []string{"value"},
			}, Factory: noopFactory},
		},
	}
	_, err := Build(enum, []string{"ns"})
	if kind, ok := stepsrunnererr.KindOf(err); !ok || kind != stepsrunnererr.SelfDependency {
		t.Fatalf("Build() error = %v, want SelfDependency", err)
	}
}

func TestProductionMapFirstNamespaceWins(t *testing.T) {
	enum := fakeEnumerator{
		"ns-a": {
			{Namespace: "ns-a", Info: step.ClassInfo{Meta: spec.StepMeta{Name: "a.Producer"}, Productions: []string{"thing"}}, Factory: noopFactory},
		},
		"ns-b": {
			{Namespace: "ns-b", Info: step.ClassInfo{Meta: spec.StepMeta{Name: "b.Producer"}, Productions: []string{"thing"}}, Factory: noopFactory},
		},
	}
	cat, err := Build(enum, []string{"ns-a", "ns-b"})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	cls, ok := cat.Productions().ProducerOf("thing")
	if !ok || cls != "a.Producer" {
		t.Fatalf("ProducerOf(thing) = %q, %v; want a.Producer, true", cls, ok)
	}
}

func TestProducerOfUnknownProduction(t *testing.T) {
	cat, err := Build(fakeEnumerator{}, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if _, ok := cat.Productions().ProducerOf("nothing"); ok {
		t.Fatal("expected ProducerOf to report unknown production as absent")
	}
}
