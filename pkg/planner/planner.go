// Package planner builds the dependency tree for each final step a run
// targets and flattens the union of those trees into a layered Plan: an
// ordered sequence of step sets where every dependency of a class in set i
// is satisfied by a class in some earlier set, and classes within a set are
// mutually independent.
package planner

import (
	"sort"

	"github.com/ridgeline-run/steprunner/pkg/catalog"
	"github.com/ridgeline-run/steprunner/pkg/steptree"
	"github.com/ridgeline-run/steprunner/pkg/stepsrunnererr"
)

// Set is one layer of a Plan: classes whose dependencies are all satisfied
// by earlier sets, sorted by class name for reproducible iteration order.
type Set []catalog.Entry

// Plan is the ordered sequence of step sets a run executes, set 0 first.
type Plan struct {
	Sets []Set
}

// Planner holds the catalog a run plans against. It is built once and
// reused across repeated run() calls against the same catalog.
type Planner struct {
	cat *catalog.Catalog
}

// New wraps an already-built catalog for planning.
func New(cat *catalog.Catalog) *Planner {
	return &Planner{cat: cat}
}

// Catalog returns the catalog this planner plans against.
func (p *Planner) Catalog() *catalog.Catalog { return p.cat }

// Build resolves a StepTree for every final class, assigns each distinct
// class in the union of those trees a layer equal to one more than the
// maximum layer of its children (zero for leaves), and emits the layers as
// an ordered Plan. A class reachable from more than one final step is
// emitted once, at its highest-computed layer, so every one of its
// dependents — regardless of which final step's tree pulled it in — still
// finds it satisfied by an earlier set.
func Build(cat *catalog.Catalog, finalClasses []string) (*Plan, error) {
	if len(finalClasses) == 0 {
		return nil, stepsrunnererr.New(stepsrunnererr.ArgumentInvalid, "", "final_steps must not be empty")
	}

	layers := make(map[string]int)
	var order []string

	for _, final := range finalClasses {
		if _, ok := cat.Lookup(final); !ok {
			return nil, stepsrunnererr.New(stepsrunnererr.ArgumentInvalid, final, "final step %q is not in the catalog", final)
		}
		root, err := steptree.Build(cat, final)
		if err != nil {
			return nil, err
		}
		steptree.Walk(root, func(n *steptree.Node) {
			layer := 0
			for _, c := range n.Children {
				if cl := layers[c.ClassName]; cl+1 > layer {
					layer = cl + 1
				}
			}
			if existing, seen := layers[n.ClassName]; !seen {
				layers[n.ClassName] = layer
				order = append(order, n.ClassName)
			} else if layer > existing {
				layers[n.ClassName] = layer
			}
		})
	}

	maxLayer := 0
	for _, l := range layers {
		if l > maxLayer {
			maxLayer = l
		}
	}

	buckets := make([][]catalog.Entry, maxLayer+1)
	for _, className := range order {
		entry, _ := cat.Lookup(className)
		l := layers[className]
		buckets[l] = append(buckets[l], entry)
	}

	plan := &Plan{Sets: make([]Set, 0, len(buckets))}
	for _, bucket := range buckets {
		if len(bucket) == 0 {
			continue
		}
		sort.Slice(bucket, func(i, j int) bool {
			return bucket[i].Info.Meta.Name < bucket[j].Info.Meta.Name
		})
		plan.Sets = append(plan.Sets, Set(bucket))
	}
	return plan, nil
}

// Run is the high-level entry point a caller who only wants a Plan (not
// execution) can use directly — steprunner plan builds exactly this.
func (p *Planner) Run(finalClasses []string) (*Plan, error) {
	return Build(p.cat, finalClasses)
}
