package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/auri/auri-agent/internal/assembly"
	"github.com/auri/auri-agent/internal/project"
)

func newPlanCommand() *cobra.Command {
	var (
		selectionsPath string
		edits          []string
		outPath        string
		format         string
	)

	cmd := &cobra.Command{
		Use:   "plan <script|->",
		Short: "Build an assembly plan from a script, footage selections and edits",
		Long: `Build an assembly plan from a script.

Selections map "scene_<n>" (0-based) to {use_stock, filename} and may be
JSON or YAML. Each --edit is applied in order, as if typed one after another.

Without --out or --format the plan is printed as a table.`,
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			script, err := readScript(cmd, args[0])
			if err != nil {
				return err
			}
			sel, err := loadSelections(selectionsPath)
			if err != nil {
				return err
			}

			a := project.Analyze(script)
			plan, globals := assembly.Replay(assembly.Build(a.Shots, sel), edits)
			doc := assembly.NewDocument(plan, globals)

			if outPath == "" && format == "" {
				printPlan(cmd, doc)
				return nil
			}

			f := assembly.Format(strings.ToLower(format))
			if f == "" {
				f = assembly.FormatFromPath(outPath)
			}
			data, err := assembly.Encode(doc, f)
			if err != nil {
				return err
			}
			if outPath == "" {
				_, err := cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(outPath, data, 0644); err != nil {
				return fmt.Errorf("write plan: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d-item plan to %s\n", len(doc.Items), outPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&selectionsPath, "selections", "s", "", "Footage selections file (JSON or YAML)")
	cmd.Flags().StringArrayVarP(&edits, "edit", "e", nil, "Edit request to apply (repeatable)")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Write the plan document to this file (.json, .yaml)")
	cmd.Flags().StringVarP(&format, "format", "f", "", "Document format: json or yaml")
	return cmd
}

// loadSelections reads a selections file. YAML is a superset of JSON so one
// decoder serves both.
func loadSelections(path string) (assembly.Selections, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read selections: %w", err)
	}
	var sel assembly.Selections
	if err := yaml.Unmarshal(data, &sel); err != nil {
		return nil, fmt.Errorf("parse selections %s: %w", path, err)
	}
	for key := range sel {
		if !strings.HasPrefix(key, "scene_") {
			return nil, fmt.Errorf("selection key %q must look like scene_<n>", key)
		}
	}
	return sel, nil
}

func printPlan(cmd *cobra.Command, doc assembly.Document) {
	out := cmd.OutOrStdout()
	color := shouldColorize(out)

	rows := make([][]string, 0, len(doc.Items))
	for _, it := range doc.Items {
		footage := it.Filename
		switch {
		case it.MissingFootage():
			footage = colorize("missing", ansiRed, color)
		case footage == "":
			footage = colorize("stock", ansiGreen, color)
		}
		effects := []string{}
		if it.Speed != 1 {
			effects = append(effects, strconv.FormatFloat(it.Speed, 'f', -1, 64)+"x")
		}
		if it.Zoom != nil {
			effects = append(effects, "zoom "+*it.Zoom)
		}
		if it.Caption != nil {
			effects = append(effects, fmt.Sprintf("caption %q", *it.Caption))
		}
		rows = append(rows, []string{
			strconv.Itoa(it.SceneIndex + 1),
			formatSpan(it.StartSeconds, it.EndSeconds),
			footage,
			truncate(it.Visual, 40),
			strings.Join(effects, ", "),
		})
	}

	fmt.Fprintln(out, renderTable(
		[]string{"Scene", "Span", "Footage", "Visual", "Effects"},
		rows,
		[]columnAlignment{alignRight},
	))
	fmt.Fprintf(out, "Source footage: %ss", strconv.FormatFloat(doc.Items.TotalSeconds(), 'f', 1, 64))
	if doc.Globals.MusicGainDB != 0 {
		fmt.Fprintf(out, "  Music: %+gdB", doc.Globals.MusicGainDB)
	}
	if doc.Globals.CrossfadeMs != 0 {
		fmt.Fprintf(out, "  Crossfade: %dms", doc.Globals.CrossfadeMs)
	}
	fmt.Fprintln(out)
	if missing := doc.Items.Missing(); len(missing) > 0 {
		fmt.Fprintln(out, colorize(fmt.Sprintf("%d scene(s) have no footage and will be skipped", len(missing)), ansiYellow, color))
	}
}

func formatSpan(start, end float64) string {
	return strconv.FormatFloat(start, 'f', -1, 64) + "s–" + strconv.FormatFloat(end, 'f', -1, 64) + "s"
}
