package step

import (
	"time"

	"github.com/ridgeline-run/steprunner/pkg/spec"
)

// Base is an embeddable implementation of the bookkeeping every Step needs:
// metadata, declared dependency/production/init-arg names, and the
// last-run-time and production-value state a real step mutates from Run.
// Concrete step classes embed Base and implement Run themselves.
type Base struct {
	Info          spec.StepMeta
	Deps          []string
	Prods         []string
	Args          []InitArg
	lastRunTime   time.Time
	lastRunKnown  bool
	productionMap map[string]interface{}
}

// NewBase builds a Base from a class's static ClassInfo, so a concrete
// constructor doesn't have to restate Dependencies/Productions/InitArgs a
// second time after registering them with discovery.Register.
func NewBase(info ClassInfo) Base {
	return Base{Info: info.Meta, Deps: info.Dependencies, Prods: info.Productions, Args: info.InitArgs}
}

func (b *Base) Meta() spec.StepMeta { return b.Info }

// BaseStep returns b itself, promoted onto any concrete step that embeds
// Base so generic builder code can reach the shared bookkeeping fields
// without a type assertion.
func (b *Base) BaseStep() *Base { return b }

func (b *Base) Dependencies() []string { return b.Deps }

func (b *Base) Productions() []string { return b.Prods }

func (b *Base) InitArgs() []InitArg { return b.Args }

func (b *Base) LastRunTime() (time.Time, bool) { return b.lastRunTime, b.lastRunKnown }

func (b *Base) ProductionValues() map[string]interface{} {
	if b.productionMap == nil {
		return map[string]interface{}{}
	}
	return b.productionMap
}

// MarkRan records that the step's unit of work ran at t and produced the
// given values. A concrete step's Run implementation calls this once its
// work succeeds.
func (b *Base) MarkRan(t time.Time, values map[string]interface{}) {
	b.lastRunTime = t
	b.lastRunKnown = true
	b.productionMap = values
}

// SeedProductionValues sets production values without marking the step as
// run — used when a constructor computes production values eagerly (e.g.
// by inspecting a file that already exists) and only Run decides whether
// the underlying work needs doing.
func (b *Base) SeedProductionValues(values map[string]interface{}) {
	b.productionMap = values
}

// SeedLastRunTime records a last-run time discovered at construction time
// (e.g. a file's mtime) without running the step.
func (b *Base) SeedLastRunTime(t time.Time) {
	b.lastRunTime = t
	b.lastRunKnown = true
}
