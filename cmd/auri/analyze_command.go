package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/auri/auri-agent/internal/project"
)

func newAnalyzeCommand() *cobra.Command {
	var asJSON bool
	var showPrompts bool

	cmd := &cobra.Command{
		Use:         "analyze <script|->",
		Short:       "Parse a script into scenes and planned shots",
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			script, err := readScript(cmd, args[0])
			if err != nil {
				return err
			}
			a := project.Analyze(script)
			if asJSON {
				return writeJSON(cmd, a)
			}

			out := cmd.OutOrStdout()
			color := shouldColorize(out)
			if len(a.Scenes) == 0 {
				fmt.Fprintln(out, "No scenes found. Scenes start with a time range such as \"0s-3s\".")
				return nil
			}

			fmt.Fprintln(out, renderSectionHeader("Scenes", color))
			rows := make([][]string, 0, len(a.Scenes))
			for i, sc := range a.Scenes {
				shot := a.Shots[i]
				source := shot.SuggestedSource
				if shot.RequiresUserUpload {
					source = colorize(source, ansiYellow, color)
				}
				rows = append(rows, []string{
					strconv.Itoa(i + 1),
					sc.Start() + "–" + sc.End(),
					sc.Narration,
					sc.Camera,
					source,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"#", "Time", "Narration", "Camera", "Source"},
				rows,
				[]columnAlignment{alignRight},
			))

			fmt.Fprintln(out)
			fmt.Fprintln(out, renderSectionHeader("Workflow", color))
			fmt.Fprintf(out, "  Video:      %s\n", yesNo(a.Workflow.NeedsVideo))
			fmt.Fprintf(out, "  Voiceover:  %s\n", yesNo(a.Workflow.NeedsVoiceover))
			fmt.Fprintf(out, "  Thumbnail:  %s\n", yesNo(a.Workflow.NeedsThumbnail))
			fmt.Fprintf(out, "  To film:    %d shot(s)\n", len(a.Checklist))

			if showPrompts {
				fmt.Fprintln(out)
				fmt.Fprintln(out, renderSectionHeader("Generation prompts", color))
				for _, p := range a.Prompts {
					fmt.Fprintf(out, "%s (%s)\n%s\n\n", p.Scene, p.DurationHint, strings.TrimSpace(p.Prompt))
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the full analysis as JSON")
	cmd.Flags().BoolVar(&showPrompts, "prompts", false, "Include per-scene generation prompts")
	return cmd
}
