// Package cmd implements the steprunner CLI: `plan` to print a computed
// Plan without executing it, `run` to drive a Plan to completion, and the
// hidden `worker` subcommand a dispatched worker process re-execs into.
// Grounded on the teacher's cmd/kubexm/cmd/root.go.
package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/ridgeline-run/steprunner/pkg/logger"
)

var verboseFlag bool

// cmdOut is where plan/run print their tables and reports; a variable
// (rather than a bare os.Stdout reference) so tests can redirect it.
var cmdOut = os.Stdout

var rootCmd = &cobra.Command{
	Use:   "steprunner",
	Short: "steprunner drives a dependency-ordered catalog of step classes to completion.",
	Long: `steprunner loads a catalog of step classes, resolves the dependency
graph rooted at a chosen set of final steps, and runs it — sequentially or
across a pool of worker processes — skipping any step whose outputs are
already newer than its inputs.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		opts := logger.DefaultOptions()
		if verboseFlag {
			opts.ConsoleLevel = logger.DebugLevel
		}
		if cmd.Name() == workerCmd.Name() {
			// The worker's stdout carries exactly one workerproc.Response
			// envelope; logging must never share that stream with it.
			opts.ConsoleWriter = os.Stderr
		}
		logger.Init(opts)
		return nil
	},
}

// Execute runs the root command. Called once from main.main.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "enable debug-level logging")
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(workerCmd)
}
