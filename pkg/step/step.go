// Package step defines the capability every step class must implement to be
// enumerated by a catalog, planned by the planner, and run by the executor.
//
// A step neither knows nor cares which other classes depend on it. It
// declares, by name, which productions (named values) it needs as
// constructor arguments, which productions it supplies once built, and
// which of its constructor arguments come from outside the dependency graph
// entirely (init args, sourced from run configuration).
package step

import (
	"context"
	"time"

	"github.com/ridgeline-run/steprunner/pkg/spec"
)

// InitArg describes a constructor argument a step needs that no other step
// produces — it must come from the run's configuration document instead.
type InitArg struct {
	Name     string
	Required bool
}

// ConstructArgs is the resolved argument bag a Factory receives: the union
// of init-arg values pulled from configuration and production values
// supplied by already-built dependency steps, keyed by name.
type ConstructArgs map[string]interface{}

// Step is the capability a step class must satisfy. Implementations
// typically embed Base and are produced by a Factory registered with a
// catalog namespace.
type Step interface {
	// Meta returns the class's descriptive metadata.
	Meta() spec.StepMeta

	// Dependencies lists the production names this step's constructor
	// needs. The catalog resolves each name to a producing class via its
	// ProductionMap.
	Dependencies() []string

	// Productions lists the names this step supplies once constructed.
	Productions() []string

	// InitArgs lists the constructor arguments sourced from configuration
	// rather than from another step's productions.
	InitArgs() []InitArg

	// LastRunTime reports when this step's unit of work was last actually
	// performed (not merely constructed), and whether that time is known
	// at all. An unknown last-run time (ok=false) always forces a run.
	LastRunTime() (t time.Time, ok bool)

	// ProductionValues returns the current value of every name in
	// Productions(), available immediately after construction (so a
	// skipped, up-to-date step can still hand its values to dependents
	// without being run again).
	ProductionValues() map[string]interface{}

	// Run performs the step's unit of work. After Run returns nil,
	// LastRunTime and ProductionValues must reflect the fresh run.
	Run(ctx context.Context) error
}

// Factory constructs a Step instance of one class from resolved arguments.
type Factory func(args ConstructArgs) (Step, error)
