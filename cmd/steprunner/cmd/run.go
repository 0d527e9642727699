package cmd

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/ridgeline-run/steprunner/pkg/catalog"
	"github.com/ridgeline-run/steprunner/pkg/discovery"
	"github.com/ridgeline-run/steprunner/pkg/executor"
	"github.com/ridgeline-run/steprunner/pkg/logger"
	"github.com/ridgeline-run/steprunner/pkg/planner"
	"github.com/ridgeline-run/steprunner/pkg/runconfig"
	"github.com/ridgeline-run/steprunner/pkg/workerproc"
)

var (
	runConfigPath string
	jobsOverride  int
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute the plan for a config's final steps",
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := runconfig.Load(runConfigPath)
		if err != nil {
			return err
		}
		if err := runconfig.Validate(doc); err != nil {
			return err
		}
		jobs := doc.Jobs
		if jobsOverride > 0 {
			jobs = jobsOverride
		}
		if jobs <= 0 {
			jobs = 1
		}

		cat, err := catalog.Build(discovery.Registry{}, doc.StepNamespaces)
		if err != nil {
			return err
		}
		plan, err := planner.Build(cat, doc.FinalSteps)
		if err != nil {
			return err
		}

		log := logger.Get()
		exec := buildExecutor(jobs, doc.StepNamespaces, log)

		total := 0
		for _, set := range plan.Sets {
			total += len(set)
		}
		bar := progressBar(total)
		ran := map[string]bool{}
		durations := map[string]time.Duration{}
		exec.OnStepDone = func(className string, didRun bool, duration time.Duration) {
			ran[className] = didRun
			durations[className] = duration
			bar.Add(1)
		}

		start := time.Now()
		_, runErr := exec.Run(cmd.Context(), cat, plan, doc.Config)
		printReport(plan, ran, durations, time.Since(start))
		return runErr
	},
}

func buildExecutor(jobs int, namespaces []string, log logger.Sink) *executor.Executor {
	if jobs <= 1 {
		return executor.New(log)
	}
	dispatcher, err := workerproc.NewDispatcher([]string{"worker"}, namespaces, log)
	if err != nil {
		log.Warning("could not resolve worker re-exec path (%v); falling back to sequential execution", err)
		return executor.New(log)
	}
	return executor.NewParallel(jobs, dispatcher, log)
}

// progressBar shows live progress across the whole run, grounded on the
// teacher's download-step progress bars (pkg/step/harbor/download_harbor.go).
func progressBar(total int) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription("running steps"),
		progressbar.OptionSetWriter(cmdOut),
		progressbar.OptionShowCount(),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionOnCompletion(func() { fmt.Fprintln(cmdOut) }),
	)
}

// printReport renders the structured run report — classes run vs. skipped,
// per-class duration, and total wall time — grounded on the teacher's
// pkg/step/common/report_table_step.go, with colored status cells
// (github.com/fatih/color) matching the teacher's CLI output conventions.
func printReport(plan *planner.Plan, ran map[string]bool, durations map[string]time.Duration, elapsed time.Duration) {
	table := tablewriter.NewWriter(cmdOut)
	table.SetHeader([]string{"Set", "Class", "Status", "Duration"})
	green := color.New(color.FgGreen).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	for i, set := range plan.Sets {
		for _, entry := range set {
			status := yellow("skipped")
			if ran[entry.Info.Meta.Name] {
				status = green("ran")
			}
			dur := "-"
			if d := durations[entry.Info.Meta.Name]; d > 0 {
				dur = d.Round(time.Millisecond).String()
			}
			table.Append([]string{fmt.Sprintf("%d", i), entry.Info.Meta.Name, status, dur})
		}
	}
	table.Render()
	fmt.Fprintf(cmdOut, "Total wall time: %s\n", elapsed.Round(time.Millisecond))
}

func init() {
	runCmd.Flags().StringVarP(&runConfigPath, "config", "c", "steprunner.yaml", "path to the run config document")
	runCmd.Flags().IntVarP(&jobsOverride, "jobs", "j", 0, "worker pool width; 0 uses the config document's value")
}
