package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/auri/auri-agent/internal/assembly"
	"github.com/auri/auri-agent/internal/edit"
)

func newEditsCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:         "edits <request>...",
		Short:       "Interpret a free-text edit request",
		Example:     `  auri edits "trim scene 2 to 3s and lower music by 4dB"`,
		Args:        cobra.MinimumNArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmds := edit.Parse(strings.Join(args, " "))
			if asJSON {
				return writeJSON(cmd, map[string]any{
					"commands": cmds,
					"globals":  assembly.GlobalsFrom(cmds),
				})
			}

			out := cmd.OutOrStdout()
			if len(cmds) == 0 {
				fmt.Fprintln(out, "No edits recognized.")
				return nil
			}
			rows := make([][]string, 0, len(cmds))
			for _, c := range cmds {
				rows = append(rows, []string{string(c.Type), c.Target, c.Text()})
			}
			fmt.Fprintln(out, renderTable([]string{"Type", "Target", "Value"}, rows, nil))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print commands and timeline settings as JSON")
	return cmd
}
