// Package steptree builds the dependency tree for a single final step: an
// immutable, post-order structure whose children are the resolved
// producers of that step's declared dependency names. Build constructs the
// whole tree up front; children are not built lazily.
//
// Cycle avoidance works by ancestor exclusion rather than a dedicated graph
// algorithm: while resolving a node's dependency, the producer class is
// checked against every class already on the current root-to-node path. If
// the producer is one of its own ancestors, the dependency is treated
// exactly like one with no producer at all — the tree has no special
// "cycle" error, only UnresolvedDependency, matching how the scheduler
// collapses true cycles into the same failure a typo in a dependency name
// would produce.
package steptree

import (
	"github.com/ridgeline-run/steprunner/pkg/catalog"
	"github.com/ridgeline-run/steprunner/pkg/stepsrunnererr"
)

// Node is one class in a resolved dependency tree. Children are deduped by
// producer class: if two declared dependency names resolve to the same
// producer, that producer appears once.
type Node struct {
	ClassName string
	Entry     catalog.Entry
	Children  []*Node
}

// Build resolves the full dependency tree rooted at finalClass against cat.
// Subtrees are memoized by class name across the whole build, since the
// catalog's production resolution is deterministic: a class's dependency
// structure never varies with the path used to reach it, so a subtree that
// builds successfully once is valid wherever else it's referenced in the
// same tree.
func Build(cat *catalog.Catalog, finalClass string) (*Node, error) {
	memo := make(map[string]*Node)
	return buildNode(cat, finalClass, map[string]struct{}{}, memo)
}

func buildNode(cat *catalog.Catalog, className string, ancestors map[string]struct{}, memo map[string]*Node) (*Node, error) {
	if n, ok := memo[className]; ok {
		return n, nil
	}

	entry, ok := cat.Lookup(className)
	if !ok {
		return nil, stepsrunnererr.New(stepsrunnererr.UnresolvedDependency, className, "no catalog entry named %q", className)
	}

	childAncestors := make(map[string]struct{}, len(ancestors)+1)
	for a := range ancestors {
		childAncestors[a] = struct{}{}
	}
	childAncestors[className] = struct{}{}

	seenProducers := make(map[string]struct{}, len(entry.Info.Dependencies))
	var children []*Node
	for _, dep := range entry.Info.Dependencies {
		producer, ok := cat.Productions().ProducerOf(dep)
		if !ok {
			return nil, stepsrunnererr.New(stepsrunnererr.UnresolvedDependency, className, "dependency %q has no producer in the catalog", dep)
		}
		if _, isAncestor := childAncestors[producer]; isAncestor {
			return nil, stepsrunnererr.New(stepsrunnererr.UnresolvedDependency, className,
				"dependency %q resolves to %q, which already appears upstream of %q (possible cycle)", dep, producer, className)
		}
		if _, dup := seenProducers[producer]; dup {
			continue
		}
		seenProducers[producer] = struct{}{}

		child, err := buildNode(cat, producer, childAncestors, memo)
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}

	n := &Node{ClassName: className, Entry: entry, Children: children}
	memo[className] = n
	return n, nil
}

// Walk calls visit once for every node in the tree in post-order (every
// child before its parent), which is also a valid dependency-respecting
// construction order for a single linear pass.
func Walk(root *Node, visit func(*Node)) {
	visited := make(map[string]bool)
	var walk func(*Node)
	walk = func(n *Node) {
		if visited[n.ClassName] {
			return
		}
		visited[n.ClassName] = true
		for _, c := range n.Children {
			walk(c)
		}
		visit(n)
	}
	walk(root)
}
