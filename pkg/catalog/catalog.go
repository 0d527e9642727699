// Package catalog enumerates the step classes available under a set of
// declared namespaces, validates each against the step capability, and
// builds the production-name-to-producing-class map the planner resolves
// dependencies through.
package catalog

import (
	"sort"

	"github.com/ridgeline-run/steprunner/pkg/step"
	"github.com/ridgeline-run/steprunner/pkg/stepsrunnererr"
)

// Candidate is one step class as reported by an Enumerator: its static
// declaration and the factory that builds instances of it.
type Candidate struct {
	Namespace string
	Info      step.ClassInfo
	Factory   step.Factory
}

// Enumerator is the pluggable source of step classes a Catalog is built
// from. discovery.Registry is the default, reflection-free implementation;
// a caller can supply any other Enumerator (e.g. one backed by a plugin
// directory scan) without the catalog package knowing the difference.
type Enumerator interface {
	// Candidates returns every class registered under namespace, in
	// registration order.
	Candidates(namespace string) []Candidate
}

// Entry is a Candidate annotated with the index of the namespace it was
// declared under, used to break production-name ties by namespace order.
type Entry struct {
	Candidate
	namespaceIndex int
}

// NamespaceIndex reports the position of this entry's namespace in the
// list Build was called with.
func (e Entry) NamespaceIndex() int { return e.namespaceIndex }

// Catalog is the validated, ordered set of step classes available for
// planning, plus the ProductionMap derived from it.
type Catalog struct {
	entries []Entry
	byName  map[string]Entry
	prodMap *ProductionMap
}

// Build enumerates candidates under each namespace in order, validates
// them, and returns an error tagged CatalogMalformed or SelfDependency on
// the first defect found.
func Build(enum Enumerator, namespaces []string) (*Catalog, error) {
	c := &Catalog{byName: map[string]Entry{}}

	for idx, ns := range namespaces {
		for _, cand := range enum.Candidates(ns) {
			if cand.Info.Meta.Name == "" {
				return nil, stepsrunnererr.New(stepsrunnererr.CatalogMalformed, "", "class registered under namespace %q has an empty name", ns)
			}
			if cand.Factory == nil {
				return nil, stepsrunnererr.New(stepsrunnererr.CatalogMalformed, cand.Info.Meta.Name, "class has no factory")
			}
			if _, exists := c.byName[cand.Info.Meta.Name]; exists {
				return nil, stepsrunnererr.New(stepsrunnererr.CatalogMalformed, cand.Info.Meta.Name, "duplicate class name")
			}
			if selfProduced(cand.Info) {
				return nil, stepsrunnererr.New(stepsrunnererr.SelfDependency, cand.Info.Meta.Name, "class depends on a production name it also supplies")
			}

			e := Entry{Candidate: cand, namespaceIndex: idx}
			c.entries = append(c.entries, e)
			c.byName[cand.Info.Meta.Name] = e
		}
	}

	sort.SliceStable(c.entries, func(i, j int) bool {
		if c.entries[i].namespaceIndex != c.entries[j].namespaceIndex {
			return c.entries[i].namespaceIndex < c.entries[j].namespaceIndex
		}
		return c.entries[i].Info.Meta.Name < c.entries[j].Info.Meta.Name
	})
	for _, e := range c.entries {
		c.byName[e.Info.Meta.Name] = e
	}

	c.prodMap = buildProductionMap(c.entries)
	return c, nil
}

func selfProduced(info step.ClassInfo) bool {
	produced := make(map[string]struct{}, len(info.Productions))
	for _, p := range info.Productions {
		produced[p] = struct{}{}
	}
	for _, d := range info.Dependencies {
		if _, ok := produced[d]; ok {
			return true
		}
	}
	return false
}

// Entries returns every validated class, ordered by (namespace index,
// class name). Classes with Meta.Hidden set are still included — Hidden
// only affects CLI listings, not planning.
func (c *Catalog) Entries() []Entry {
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Lookup returns the entry for a class name.
func (c *Catalog) Lookup(className string) (Entry, bool) {
	e, ok := c.byName[className]
	return e, ok
}

// Productions returns the catalog's first-namespace-wins production map.
func (c *Catalog) Productions() *ProductionMap { return c.prodMap }
