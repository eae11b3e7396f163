package main

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/auri/auri-agent/internal/export"
	"github.com/auri/auri-agent/internal/project"
)

func newExportCommand() *cobra.Command {
	exportCmd := &cobra.Command{
		Use:         "export",
		Short:       "Export a plan or checklist for use in other tools",
		Annotations: map[string]string{"skipConfigLoad": "true"},
	}

	exportCmd.AddCommand(newExportEDLCommand())
	exportCmd.AddCommand(newExportChecklistCommand())

	return exportCmd
}

func newExportEDLCommand() *cobra.Command {
	var (
		assetsDir string
		title     string
		frameRate float64
		outDir    string
	)

	cmd := &cobra.Command{
		Use:   "edl <plan-file>",
		Short: "Write a CMX3600 edit decision list for an NLE",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readPlanDocument(args[0])
			if err != nil {
				return err
			}
			clips, unresolved := export.ClipsFromPlan(doc.Items, assetsDir)
			if len(clips) == 0 {
				return fmt.Errorf("no scene in %s has a footage file to reference", args[0])
			}
			if title == "" {
				title = planTitle(args[0])
			}
			edl := export.GenerateEDL(clips, title, frameRate)

			if outDir == "" {
				_, err := fmt.Fprint(cmd.OutOrStdout(), edl)
				return err
			}
			path, err := export.WriteFile(outDir, export.FileName(title, export.FormatEDL), []byte(edl))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote %d clip(s) to %s\n", len(clips), path)
			if len(unresolved) > 0 {
				fmt.Fprintf(out, "Scenes without a file were left out: %s\n", sceneList(unresolved))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&assetsDir, "assets", "a", "", "Directory that relative clip filenames resolve against")
	cmd.Flags().StringVarP(&title, "title", "t", "", "EDL title (default plan file name)")
	cmd.Flags().Float64Var(&frameRate, "fps", 30, "Timeline frame rate; 29.97 and 59.94 use drop-frame")
	cmd.Flags().StringVarP(&outDir, "out-dir", "o", "", "Directory to write <title>.edl into (default stdout)")
	return cmd
}

func newExportChecklistCommand() *cobra.Command {
	var (
		title  string
		outDir string
	)

	cmd := &cobra.Command{
		Use:   "checklist <script|->",
		Short: "Write the filming checklist as a printable PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			script, err := readScript(cmd, args[0])
			if err != nil {
				return err
			}
			a := project.Analyze(script)
			if title == "" {
				title = planTitle(args[0])
			}

			var buf bytes.Buffer
			if err := export.WriteChecklistPDF(&buf, export.Checklist{
				Title:        title,
				Specs:        a.Checklist,
				Instructions: a.Instructions,
				GeneratedAt:  time.Now(),
			}); err != nil {
				return err
			}
			path, err := export.WriteFile(outDir, export.FileName(title, "pdf"), buf.Bytes())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d shot(s) to %s\n", len(a.Checklist), path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "Checklist title (default script file name)")
	cmd.Flags().StringVarP(&outDir, "out-dir", "o", ".", "Directory to write <title>.pdf into")
	return cmd
}

// planTitle names an export after its input file, e.g. "launch.yaml" becomes
// "launch".
func planTitle(path string) string {
	if path == "-" {
		return "Untitled"
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func sceneList(indexes []int) string {
	parts := make([]string, len(indexes))
	for i, idx := range indexes {
		parts[i] = fmt.Sprintf("%d", idx+1)
	}
	return strings.Join(parts, ", ")
}
