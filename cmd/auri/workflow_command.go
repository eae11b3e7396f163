package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/auri/auri-agent/internal/workflow"
)

func newWorkflowCommand() *cobra.Command {
	var (
		stepsPath string
		ideas     []string
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "workflow <script>",
		Short: "Add the video production steps a script needs to a step plan",
		Example: `  auri workflow script.txt --steps steps.yaml
  auri workflow script.txt --idea "a reel about mornings" --json`,
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			script, err := readScript(cmd, args[0])
			if err != nil {
				return err
			}
			steps, err := loadSteps(stepsPath)
			if err != nil {
				return err
			}

			exp := workflow.Expand(steps, ideas, script)
			if asJSON {
				return writeJSON(cmd, exp)
			}

			out := cmd.OutOrStdout()
			color := shouldColorize(out)
			fmt.Fprintln(out, renderSectionHeader("Workflow", color))
			fmt.Fprintf(out, "  Video:       %s\n", yesNo(exp.Workflow.NeedsVideo))
			fmt.Fprintf(out, "  Video ideas: %s\n", yesNo(exp.VideoIdeas))
			fmt.Fprintln(out)

			if len(exp.Steps) == 0 {
				fmt.Fprintln(out, "No steps.")
				return nil
			}
			rows := make([][]string, 0, len(exp.Steps))
			for i, s := range exp.Steps {
				rows = append(rows, []string{strconv.Itoa(i + 1), s.Title, s.Auri, s.User})
			}
			fmt.Fprintln(out, renderTable([]string{"#", "Step", "Auri", "You"}, rows, nil))
			if exp.Inserted {
				fmt.Fprintln(out, "Video steps added.")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&stepsPath, "steps", "", "Step plan file (JSON or YAML list of title/auri/user)")
	cmd.Flags().StringArrayVar(&ideas, "idea", nil, "Content idea (repeatable)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the workflow and steps as JSON")
	return cmd
}

func loadSteps(path string) ([]workflow.Step, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read steps: %w", err)
	}
	var steps []workflow.Step
	if err := yaml.Unmarshal(data, &steps); err != nil {
		return nil, fmt.Errorf("parse steps %s: %w", path, err)
	}
	return steps, nil
}
