// Package discovery provides the default catalog.Enumerator: a process-wide
// registry that step packages populate from an init() function, the
// standard Go idiom for plugin-style self-registration (mirrored by how
// Cobra's own command tree self-assembles via each subcommand package's
// init()).
package discovery

import (
	"sort"
	"sync"

	"github.com/ridgeline-run/steprunner/pkg/catalog"
	"github.com/ridgeline-run/steprunner/pkg/step"
)

type registration struct {
	namespace string
	seq       int
	candidate catalog.Candidate
}

var (
	mu   sync.Mutex
	regs []registration
	seq  int
)

// Register associates a step class's static declaration and constructor
// with a namespace. Call it from a step package's init() function; the
// caller only needs to import that package for its side effect to make the
// class visible to a Registry-backed catalog build.
func Register(namespace string, info step.ClassInfo, factory step.Factory) {
	mu.Lock()
	defer mu.Unlock()
	seq++
	regs = append(regs, registration{
		namespace: namespace,
		seq:       seq,
		candidate: catalog.Candidate{Namespace: namespace, Info: info, Factory: factory},
	})
}

// Registry implements catalog.Enumerator over everything Register has
// recorded, in registration order.
type Registry struct{}

func (Registry) Candidates(namespace string) []catalog.Candidate {
	mu.Lock()
	defer mu.Unlock()

	var matched []registration
	for _, r := range regs {
		if r.namespace == namespace {
			matched = append(matched, r)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].seq < matched[j].seq })

	out := make([]catalog.Candidate, len(matched))
	for i, m := range matched {
		out[i] = m.candidate
	}
	return out
}

// Reset clears every registration. It exists for test isolation; production
// code should never need it since registration only ever happens once, at
// package init time.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	regs = nil
	seq = 0
}
