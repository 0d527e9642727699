package step

import "github.com/ridgeline-run/steprunner/pkg/spec"

// ClassInfo is a step class's static declaration: what it needs, what it
// supplies, and its descriptive metadata — everything the catalog and
// planner need to know before any instance of the class is ever
// constructed. A class registers one ClassInfo alongside its Factory.
type ClassInfo struct {
	Meta spec.StepMeta

	// Dependencies lists the production names this class's constructor
	// needs resolved from other classes before it can be built.
	Dependencies []string

	// Productions lists the names this class supplies once built.
	Productions []string

	// InitArgs lists constructor arguments sourced from run configuration
	// rather than from another step's productions.
	InitArgs []InitArg
}
