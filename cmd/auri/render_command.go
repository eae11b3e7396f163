package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/auri/auri-agent/internal/assembly"
	"github.com/auri/auri-agent/internal/config"
	"github.com/auri/auri-agent/internal/render"
)

func newRenderCommand(ctx *commandContext) *cobra.Command {
	var (
		assetsDir   string
		outPath     string
		edits       []string
		scriptsOnly bool
		asJSON      bool
	)

	cmd := &cobra.Command{
		Use:   "render <plan-file>",
		Short: "Render a plan document to video, or to ffmpeg scripts when ffmpeg is unavailable",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, closer := ctx.logger(cmd)
			defer closer.Close()

			doc, err := readPlanDocument(args[0])
			if err != nil {
				return err
			}

			if outPath == "" {
				stem := strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
				outPath = filepath.Join(cfg.OutputDir(), stem+".mp4")
			}
			if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
				return fmt.Errorf("create output directory: %w", err)
			}

			opts := config.RenderOptions(cfg)
			var renderer render.Renderer
			if scriptsOnly {
				renderer = render.NewScriptRenderer(opts, nil, logger)
			} else {
				renderer, _ = render.NewSystemDispatcher(opts, logger)
			}

			runCtx, cancel := signalContext(cmd.Context())
			defer cancel()

			job := render.Job{
				Plan:        doc.Items,
				AssetsDir:   assetsDir,
				OutPath:     outPath,
				MusicGainDB: doc.Globals.MusicGainDB,
				CrossfadeMs: doc.Globals.CrossfadeMs,
			}
			started := time.Now()
			var res render.Result
			if len(edits) > 0 {
				res, err = render.Assemble(runCtx, renderer, job, strings.Join(edits, " and "))
			} else {
				res, err = renderer.Render(runCtx, job)
			}
			if err != nil {
				return fmt.Errorf("render: %w", err)
			}

			if asJSON {
				return writeJSON(cmd, res)
			}
			printResult(cmd, res, time.Since(started))
			return nil
		},
	}

	cmd.Flags().StringVarP(&assetsDir, "assets", "a", "", "Directory that relative clip filenames resolve against")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Output video path (default <output_dir>/<plan>.mp4)")
	cmd.Flags().StringArrayVarP(&edits, "edit", "e", nil, "Edit request to apply before rendering (repeatable)")
	cmd.Flags().BoolVar(&scriptsOnly, "scripts-only", false, "Write ffmpeg scripts without attempting a direct render")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the render result as JSON")
	return cmd
}

func readPlanDocument(path string) (assembly.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return assembly.Document{}, fmt.Errorf("read plan: %w", err)
	}
	doc, err := assembly.Decode(data, assembly.FormatFromPath(path))
	if err != nil {
		return assembly.Document{}, fmt.Errorf("plan %s: %w", path, err)
	}
	return doc, nil
}

func printResult(cmd *cobra.Command, res render.Result, took time.Duration) {
	out := cmd.OutOrStdout()
	color := shouldColorize(out)

	switch res.Kind {
	case render.KindFile:
		fmt.Fprintln(out, colorize("Rendered", ansiGreen, color), res.Path)
		fmt.Fprintf(out, "  Size:   %s\n", humanize.Bytes(uint64(max(res.SizeBytes, 0))))
	default:
		fmt.Fprintln(out, colorize("ffmpeg scripts written", ansiYellow, color))
		fmt.Fprintf(out, "  Shell:  %s\n", res.Path)
		fmt.Fprintf(out, "  Batch:  %s\n", res.BatchPath)
		if res.GraphPath != "" {
			fmt.Fprintf(out, "  Graph:  %s\n", res.GraphPath)
		}
	}
	fmt.Fprintf(out, "  Scenes: %d rendered, %d skipped\n", len(res.Rendered), len(res.Skipped))
	fmt.Fprintf(out, "  Took:   %s\n", took.Round(time.Millisecond))
}
