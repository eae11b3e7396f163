// Package config provides configuration management for the Auri agent.
// Values come from built-in defaults, an optional TOML file, an optional
// .env file and AURI_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/auri/auri-agent/internal/render"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

const (
	// Default values
	DefaultPort          = 8797
	DefaultLogLevel      = "info"
	DefaultLogFormat     = "json"
	DefaultDataDir       = ".auri"
	DefaultFFmpeg        = "ffmpeg"
	DefaultFFprobe       = "ffprobe"
	DefaultVideoCodec    = "libx264"
	DefaultFontSize      = 42
	DefaultRenderTimeout = 30 * time.Minute
	DefaultPollInterval  = 2 * time.Second

	// Environment variable names
	EnvConfigFile    = "AURI_CONFIG"
	EnvPort          = "AURI_PORT"
	EnvLogLevel      = "AURI_LOG_LEVEL"
	EnvLogFormat     = "AURI_LOG_FORMAT"
	EnvLogFile       = "AURI_LOG_FILE"
	EnvDataDir       = "AURI_DATA_DIR"
	EnvOutputDir     = "AURI_OUTPUT_DIR"
	EnvFFmpeg        = "AURI_FFMPEG"
	EnvFFprobe       = "AURI_FFPROBE"
	EnvVideoCodec    = "AURI_VIDEO_CODEC"
	EnvFontFile      = "AURI_FONT_FILE"
	EnvFontSize      = "AURI_FONT_SIZE"
	EnvRenderTimeout = "AURI_RENDER_TIMEOUT"
	EnvPollInterval  = "AURI_POLL_INTERVAL"

	// Database filename
	DBFilename = "auri.db"

	// ConfigFilename is looked up inside the data directory when AURI_CONFIG is unset.
	ConfigFilename = "config.toml"
)

// Config defines the application configuration interface
type Config interface {
	Port() int
	LogLevel() string
	LogFormat() string
	LogFile() string
	DataDir() string
	DBPath() string
	OutputDir() string
	FFmpegPath() string
	FFprobePath() string
	VideoCodec() string
	FontFile() string
	FontSize() int
	RenderTimeout() time.Duration
	PollInterval() time.Duration
}

// fileConfig mirrors the TOML file layout.
type fileConfig struct {
	Port      int    `toml:"port"`
	DataDir   string `toml:"data_dir"`
	OutputDir string `toml:"output_dir"`

	Logging struct {
		Level  string `toml:"level"`
		Format string `toml:"format"`
		File   string `toml:"file"`
	} `toml:"logging"`

	Render struct {
		FFmpeg       string `toml:"ffmpeg"`
		FFprobe      string `toml:"ffprobe"`
		VideoCodec   string `toml:"video_codec"`
		FontFile     string `toml:"font_file"`
		FontSize     int    `toml:"font_size"`
		Timeout      string `toml:"timeout"`
		PollInterval string `toml:"poll_interval"`
	} `toml:"render"`
}

// EnvConfig holds the resolved configuration.
type EnvConfig struct {
	port      int
	logLevel  string
	logFormat string
	logFile   string
	dataDir   string
	outputDir string

	ffmpeg        string
	ffprobe       string
	videoCodec    string
	fontFile      string
	fontSize      int
	renderTimeout time.Duration
	pollInterval  time.Duration

	source string
}

// New loads configuration from the file named by AURI_CONFIG (or
// <data dir>/config.toml when present), ./.env and the environment.
func New() (*EnvConfig, error) {
	return Load(os.Getenv(EnvConfigFile), ".env")
}

// Load builds a config from defaults, the TOML file at path, the given .env
// files and finally the process environment. An explicitly named file that
// does not exist is an error; missing .env files are ignored. Variables
// already present in the environment win over .env entries.
func Load(path string, envFiles ...string) (*EnvConfig, error) {
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	cfg := &EnvConfig{
		port:          DefaultPort,
		logLevel:      DefaultLogLevel,
		logFormat:     DefaultLogFormat,
		dataDir:       defaultDataDir(),
		ffmpeg:        DefaultFFmpeg,
		ffprobe:       DefaultFFprobe,
		videoCodec:    DefaultVideoCodec,
		fontSize:      DefaultFontSize,
		renderTimeout: DefaultRenderTimeout,
		pollInterval:  DefaultPollInterval,
	}

	explicit := path != ""
	if !explicit {
		dir := cfg.dataDir
		if dd := os.Getenv(EnvDataDir); dd != "" {
			dir = dd
		}
		path = filepath.Join(dir, ConfigFilename)
	}
	if err := cfg.applyFile(path, explicit); err != nil {
		return nil, err
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *EnvConfig) applyFile(path string, required bool) error {
	path, err := expandPath(path)
	if err != nil {
		return err
	}
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !required {
			return nil
		}
		return fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var fc fileConfig
	if err := toml.NewDecoder(file).Decode(&fc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	c.source = path

	if fc.Port != 0 {
		c.port = fc.Port
	}
	setString(&c.dataDir, fc.DataDir)
	setString(&c.outputDir, fc.OutputDir)
	setString(&c.logLevel, fc.Logging.Level)
	setString(&c.logFormat, fc.Logging.Format)
	setString(&c.logFile, fc.Logging.File)
	setString(&c.ffmpeg, fc.Render.FFmpeg)
	setString(&c.ffprobe, fc.Render.FFprobe)
	setString(&c.videoCodec, fc.Render.VideoCodec)
	setString(&c.fontFile, fc.Render.FontFile)
	if fc.Render.FontSize != 0 {
		c.fontSize = fc.Render.FontSize
	}
	if fc.Render.Timeout != "" {
		if c.renderTimeout, err = parseDuration("render.timeout", fc.Render.Timeout); err != nil {
			return err
		}
	}
	if fc.Render.PollInterval != "" {
		if c.pollInterval, err = parseDuration("render.poll_interval", fc.Render.PollInterval); err != nil {
			return err
		}
	}
	return nil
}

func (c *EnvConfig) applyEnv() error {
	if p := os.Getenv(EnvPort); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvPort, err)
		}
		c.port = port
	}

	setString(&c.logLevel, os.Getenv(EnvLogLevel))
	setString(&c.logFormat, os.Getenv(EnvLogFormat))
	setString(&c.logFile, os.Getenv(EnvLogFile))
	setString(&c.dataDir, os.Getenv(EnvDataDir))
	setString(&c.outputDir, os.Getenv(EnvOutputDir))
	setString(&c.ffmpeg, os.Getenv(EnvFFmpeg))
	setString(&c.ffprobe, os.Getenv(EnvFFprobe))
	setString(&c.videoCodec, os.Getenv(EnvVideoCodec))
	setString(&c.fontFile, os.Getenv(EnvFontFile))

	if v := os.Getenv(EnvFontSize); v != "" {
		size, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvFontSize, err)
		}
		c.fontSize = size
	}

	var err error
	if v := os.Getenv(EnvRenderTimeout); v != "" {
		if c.renderTimeout, err = parseDuration(EnvRenderTimeout, v); err != nil {
			return err
		}
	}
	if v := os.Getenv(EnvPollInterval); v != "" {
		if c.pollInterval, err = parseDuration(EnvPollInterval, v); err != nil {
			return err
		}
	}
	return nil
}

func (c *EnvConfig) validate() error {
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port %d: must be between 1 and 65535", c.port)
	}
	switch c.logFormat {
	case "json", "text":
	default:
		return fmt.Errorf("invalid log format %q: want json or text", c.logFormat)
	}
	if c.fontSize <= 0 {
		return fmt.Errorf("invalid font size %d", c.fontSize)
	}
	if c.renderTimeout <= 0 || c.pollInterval <= 0 {
		return errors.New("render timeout and poll interval must be positive")
	}
	var err error
	if c.dataDir, err = expandPath(c.dataDir); err != nil {
		return err
	}
	if c.outputDir, err = expandPath(c.outputDir); err != nil {
		return err
	}
	if c.logFile, err = expandPath(c.logFile); err != nil {
		return err
	}
	return nil
}

// Port returns the HTTP server port
func (c *EnvConfig) Port() int {
	return c.port
}

// LogLevel returns the log level (debug, info, warn, error)
func (c *EnvConfig) LogLevel() string {
	return c.logLevel
}

// LogFormat returns "json" or "text".
func (c *EnvConfig) LogFormat() string {
	return c.logFormat
}

// LogFile returns the rotating log file path, or "" for console only.
func (c *EnvConfig) LogFile() string {
	return c.logFile
}

// DataDir returns the data directory path
func (c *EnvConfig) DataDir() string {
	return c.dataDir
}

// DBPath returns the full path to the SQLite database file
func (c *EnvConfig) DBPath() string {
	return filepath.Join(c.dataDir, DBFilename)
}

// OutputDir returns where renders and exports are written.
func (c *EnvConfig) OutputDir() string {
	if c.outputDir != "" {
		return c.outputDir
	}
	return filepath.Join(c.dataDir, "renders")
}

func (c *EnvConfig) FFmpegPath() string {
	return c.ffmpeg
}

func (c *EnvConfig) FFprobePath() string {
	return c.ffprobe
}

func (c *EnvConfig) VideoCodec() string {
	return c.videoCodec
}

func (c *EnvConfig) FontFile() string {
	return c.fontFile
}

func (c *EnvConfig) FontSize() int {
	return c.fontSize
}

func (c *EnvConfig) RenderTimeout() time.Duration {
	return c.renderTimeout
}

func (c *EnvConfig) PollInterval() time.Duration {
	return c.pollInterval
}

// Source returns the config file that was read, or "" if none was.
func (c *EnvConfig) Source() string {
	return c.source
}

// Settings lists every resolved value by its TOML key, for display.
func (c *EnvConfig) Settings() [][2]string {
	return [][2]string{
		{"port", strconv.Itoa(c.port)},
		{"data_dir", c.dataDir},
		{"output_dir", c.OutputDir()},
		{"logging.level", c.logLevel},
		{"logging.format", c.logFormat},
		{"logging.file", c.logFile},
		{"render.ffmpeg", c.ffmpeg},
		{"render.ffprobe", c.ffprobe},
		{"render.video_codec", c.videoCodec},
		{"render.font_file", c.fontFile},
		{"render.font_size", strconv.Itoa(c.fontSize)},
		{"render.timeout", c.renderTimeout.String()},
		{"render.poll_interval", c.pollInterval.String()},
	}
}

// WriteSample writes a config file holding every default, for editing.
func WriteSample(path string) error {
	var fc fileConfig
	fc.Port = DefaultPort
	fc.DataDir = "~/" + DefaultDataDir
	fc.Logging.Level = DefaultLogLevel
	fc.Logging.Format = DefaultLogFormat
	fc.Render.FFmpeg = DefaultFFmpeg
	fc.Render.FFprobe = DefaultFFprobe
	fc.Render.VideoCodec = DefaultVideoCodec
	fc.Render.FontSize = DefaultFontSize
	fc.Render.Timeout = DefaultRenderTimeout.String()
	fc.Render.PollInterval = DefaultPollInterval.String()

	data, err := toml.Marshal(fc)
	if err != nil {
		return fmt.Errorf("encode sample config: %w", err)
	}
	header := "# Auri configuration. AURI_* environment variables override these values.\n\n"
	if err := os.WriteFile(path, append([]byte(header), data...), 0644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// RenderOptions maps the [render] settings onto the renderer defaults.
func RenderOptions(c Config) render.Options {
	opts := render.DefaultOptions()
	opts.FFmpegPath = c.FFmpegPath()
	opts.FFprobePath = c.FFprobePath()
	opts.VideoCodec = c.VideoCodec()
	opts.FontFile = c.FontFile()
	opts.FontSize = c.FontSize()
	return opts
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func parseDuration(key, v string) (time.Duration, error) {
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func expandPath(path string) (string, error) {
	if path == "" || !strings.HasPrefix(path, "~") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("expand %s: %w", path, err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

// defaultDataDir returns the default data directory path
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home is not available
		return DefaultDataDir
	}
	return filepath.Join(home, DefaultDataDir)
}

// Version information (set at build time via ldflags)
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)
