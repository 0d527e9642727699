package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/ridgeline-run/steprunner/pkg/discovery"
	"github.com/ridgeline-run/steprunner/pkg/workerproc"
)

// workerCmd is the hidden re-exec target a parallel Executor's
// workerproc.Dispatcher spawns for every step that needs to run. It is not
// meant to be invoked by a human: it reads one workerproc.Request from
// stdin and writes one workerproc.Response to stdout.
var workerCmd = &cobra.Command{
	Use:    "worker",
	Hidden: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return workerproc.RunWorkerMain(cmd.Context(), discovery.Registry{}, os.Stdin, os.Stdout)
	},
}
