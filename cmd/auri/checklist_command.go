package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/auri/auri-agent/internal/project"
)

func newChecklistCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:         "checklist <script|->",
		Short:       "Show the minimal set of shots to film",
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			script, err := readScript(cmd, args[0])
			if err != nil {
				return err
			}
			a := project.Analyze(script)
			if asJSON {
				return writeJSON(cmd, a.Checklist)
			}

			out := cmd.OutOrStdout()
			if len(a.Checklist) == 0 {
				fmt.Fprintln(out, "Nothing to film: every scene can use stock footage.")
				return nil
			}

			rows := make([][]string, 0, len(a.Checklist))
			for _, s := range a.Checklist {
				rows = append(rows, []string{
					strconv.Itoa(s.SceneIndex + 1),
					strconv.FormatFloat(s.Duration, 'f', -1, 64) + "s",
					s.ShotType,
					s.Description,
					s.OnscreenText,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Scene", "Duration", "Shot", "Description", "On-screen text"},
				rows,
				[]columnAlignment{alignRight, alignRight},
			))

			color := shouldColorize(out)
			fmt.Fprintln(out)
			fmt.Fprintln(out, renderSectionHeader("Shooting instructions", color))
			for _, block := range a.Instructions {
				fmt.Fprintln(out, block)
				fmt.Fprintln(out)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the checklist as JSON")
	return cmd
}
