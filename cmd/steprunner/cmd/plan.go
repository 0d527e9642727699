package cmd

import (
	"fmt"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/ridgeline-run/steprunner/pkg/catalog"
	"github.com/ridgeline-run/steprunner/pkg/discovery"
	"github.com/ridgeline-run/steprunner/pkg/planner"
	"github.com/ridgeline-run/steprunner/pkg/runconfig"
)

var planConfigPath string

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Build and print the execution plan for a config's final steps, without running anything",
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := runconfig.Load(planConfigPath)
		if err != nil {
			return err
		}
		if err := runconfig.Validate(doc); err != nil {
			return err
		}

		cat, err := catalog.Build(discovery.Registry{}, doc.StepNamespaces)
		if err != nil {
			return err
		}
		plan, err := planner.Build(cat, doc.FinalSteps)
		if err != nil {
			return err
		}
		printPlan(plan)
		return nil
	},
}

// printPlan renders a Plan as a table — grounded on the teacher's
// pkg/step/common/report_table.go use of tablewriter — one row per class not
// marked Hidden, annotated with the set index it was placed in, its
// description, and its declared dependencies and productions.
func printPlan(plan *planner.Plan) {
	table := tablewriter.NewWriter(cmdOut)
	table.SetHeader([]string{"Set", "Class", "Description", "Dependencies", "Productions"})
	for i, set := range plan.Sets {
		for _, entry := range set {
			if entry.Info.Meta.Hidden {
				continue
			}
			table.Append([]string{
				fmt.Sprintf("%d", i),
				entry.Info.Meta.Name,
				entry.Info.Meta.Description,
				fmt.Sprintf("%v", entry.Info.Dependencies),
				fmt.Sprintf("%v", entry.Info.Productions),
			})
		}
	}
	table.Render()
}

func init() {
	planCmd.Flags().StringVarP(&planConfigPath, "config", "c", "steprunner.yaml", "path to the run config document")
}
