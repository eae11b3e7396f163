package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/auri/auri-agent/internal/config"
	"github.com/auri/auri-agent/internal/logging"
)

type commandContext struct {
	configFlag *string
	verbose    *bool

	configOnce sync.Once
	config     *config.EnvConfig
	configErr  error
}

func newCommandContext(configFlag *string, verbose *bool) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		verbose:    verbose,
	}
}

// ensureConfig loads the configuration once. --config wins over AURI_CONFIG.
func (c *commandContext) ensureConfig() (*config.EnvConfig, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		if path == "" {
			path = os.Getenv(config.EnvConfigFile)
		}
		cfg, err := config.Load(path, ".env")
		if err != nil {
			c.configErr = fmt.Errorf("load config: %w", err)
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// logger writes human-readable logs to the command's stderr so stdout stays
// clean for JSON and plan documents.
func (c *commandContext) logger(cmd *cobra.Command) (*slog.Logger, io.Closer) {
	level := config.DefaultLogLevel
	var file string
	if cfg, err := c.ensureConfig(); err == nil {
		level = cfg.LogLevel()
		file = cfg.LogFile()
	}
	if c.verbose != nil && *c.verbose {
		level = "debug"
	}
	return logging.NewLogger(logging.Options{
		Level:  level,
		Format: logging.FormatText,
		File:   file,
		Output: cmd.ErrOrStderr(),
	})
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
