package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/auri/auri-agent/internal/config"
	"github.com/auri/auri-agent/internal/render"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check that ffmpeg and ffprobe are available for direct rendering",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, closer := ctx.logger(cmd)
			defer closer.Close()

			_, doctor := render.NewSystemDispatcher(config.RenderOptions(cfg), logger)
			caps, err := doctor.Refresh(cmd.Context())
			if err != nil {
				return fmt.Errorf("probe tools: %w", err)
			}

			out := cmd.OutOrStdout()
			color := shouldColorize(out)
			rows := [][]string{
				{"ffmpeg", toolState(caps.FFmpeg, color), caps.FFmpegPath},
				{"ffprobe", toolState(caps.FFprobe, color), caps.FFprobePath},
			}
			fmt.Fprintln(out, renderTable([]string{"Tool", "Status", "Path"}, rows, nil))
			if caps.FFmpegVersion != "" {
				fmt.Fprintln(out, caps.FFmpegVersion)
			}
			if caps.CanRenderDirect() {
				fmt.Fprintln(out, "Direct rendering available.")
			} else {
				fmt.Fprintln(out, colorize("Direct rendering unavailable; renders will produce ffmpeg scripts.", ansiYellow, color))
			}
			return nil
		},
	}
}

func toolState(ok, color bool) string {
	if ok {
		return colorize("OK", ansiGreen, color)
	}
	return colorize("MISSING", ansiRed, color)
}
