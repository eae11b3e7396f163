package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var allEnv = []string{
	EnvConfigFile, EnvPort, EnvLogLevel, EnvLogFormat, EnvLogFile, EnvDataDir,
	EnvOutputDir, EnvFFmpeg, EnvFFprobe, EnvVideoCodec, EnvFontFile, EnvFontSize,
	EnvRenderTimeout, EnvPollInterval,
}

// isolate unsets every AURI_* variable for the test and points the data
// directory at a temp dir so a real ~/.auri/config.toml is never read.
func isolate(t *testing.T) string {
	t.Helper()
	for _, k := range allEnv {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
	dir := t.TempDir()
	t.Setenv(EnvDataDir, dir)
	return dir
}

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	dir := isolate(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port() != DefaultPort {
		t.Errorf("Port = %d, want %d", cfg.Port(), DefaultPort)
	}
	if cfg.LogLevel() != "info" || cfg.LogFormat() != "json" || cfg.LogFile() != "" {
		t.Errorf("logging = %s/%s/%q", cfg.LogLevel(), cfg.LogFormat(), cfg.LogFile())
	}
	if cfg.DBPath() != filepath.Join(dir, DBFilename) {
		t.Errorf("DBPath = %s", cfg.DBPath())
	}
	if cfg.OutputDir() != filepath.Join(dir, "renders") {
		t.Errorf("OutputDir = %s", cfg.OutputDir())
	}
	if cfg.FFmpegPath() != "ffmpeg" || cfg.FFprobePath() != "ffprobe" || cfg.VideoCodec() != "libx264" {
		t.Errorf("tools = %s %s %s", cfg.FFmpegPath(), cfg.FFprobePath(), cfg.VideoCodec())
	}
	if cfg.FontSize() != DefaultFontSize || cfg.RenderTimeout() != DefaultRenderTimeout || cfg.PollInterval() != DefaultPollInterval {
		t.Errorf("render = %d %v %v", cfg.FontSize(), cfg.RenderTimeout(), cfg.PollInterval())
	}
	if cfg.Source() != "" {
		t.Errorf("Source = %q, want none", cfg.Source())
	}
}

func TestLoad_TOMLFile(t *testing.T) {
	dir := isolate(t)
	path := writeFile(t, filepath.Join(dir, "auri.toml"), `
port = 9000
output_dir = "/tmp/auri-out"

[logging]
level = "debug"
format = "text"

[render]
ffmpeg = "/opt/ffmpeg/bin/ffmpeg"
font_size = 56
timeout = "10m"
poll_interval = "500ms"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port() != 9000 || cfg.LogLevel() != "debug" || cfg.LogFormat() != "text" {
		t.Errorf("got port=%d level=%s format=%s", cfg.Port(), cfg.LogLevel(), cfg.LogFormat())
	}
	if cfg.OutputDir() != "/tmp/auri-out" || cfg.FFmpegPath() != "/opt/ffmpeg/bin/ffmpeg" {
		t.Errorf("got output=%s ffmpeg=%s", cfg.OutputDir(), cfg.FFmpegPath())
	}
	if cfg.FontSize() != 56 || cfg.RenderTimeout() != 10*time.Minute || cfg.PollInterval() != 500*time.Millisecond {
		t.Errorf("got font=%d timeout=%v poll=%v", cfg.FontSize(), cfg.RenderTimeout(), cfg.PollInterval())
	}
	if cfg.Source() != path {
		t.Errorf("Source = %s, want %s", cfg.Source(), path)
	}
}

func TestLoad_DataDirConfigPickedUp(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, ConfigFilename), "port = 9100\n")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port() != 9100 {
		t.Errorf("Port = %d, want 9100", cfg.Port())
	}
}

func TestLoad_Precedence(t *testing.T) {
	dir := isolate(t)
	path := writeFile(t, filepath.Join(dir, "auri.toml"), "port = 9000\n[render]\nvideo_codec = \"libx265\"\nfont_size = 50\n")
	envFile := writeFile(t, filepath.Join(dir, ".env"), "AURI_PORT=9001\nAURI_FONT_SIZE=60\nAURI_LOG_LEVEL=warn\n")

	t.Setenv(EnvPort, "9002")

	cfg, err := Load(path, envFile)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port() != 9002 {
		t.Errorf("Port = %d, want process env value 9002", cfg.Port())
	}
	if cfg.FontSize() != 60 {
		t.Errorf("FontSize = %d, want .env value 60", cfg.FontSize())
	}
	if cfg.LogLevel() != "warn" {
		t.Errorf("LogLevel = %s, want .env value warn", cfg.LogLevel())
	}
	if cfg.VideoCodec() != "libx265" {
		t.Errorf("VideoCodec = %s, want file value libx265", cfg.VideoCodec())
	}
}

func TestLoad_MissingDotEnvIgnored(t *testing.T) {
	dir := isolate(t)
	if _, err := Load("", filepath.Join(dir, "nope.env")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		file    string
		wantErr string
	}{
		{name: "port not a number", env: map[string]string{EnvPort: "abc"}, wantErr: EnvPort},
		{name: "port out of range", env: map[string]string{EnvPort: "70000"}, wantErr: "between 1 and 65535"},
		{name: "bad log format", env: map[string]string{EnvLogFormat: "xml"}, wantErr: "log format"},
		{name: "bad timeout", env: map[string]string{EnvRenderTimeout: "soon"}, wantErr: EnvRenderTimeout},
		{name: "zero font size", env: map[string]string{EnvFontSize: "0"}, wantErr: "font size"},
		{name: "bad toml", file: "port = [", wantErr: "parse config"},
		{name: "bad file duration", file: "[render]\ntimeout = \"x\"\n", wantErr: "render.timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := isolate(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := ""
			if tt.file != "" {
				path = writeFile(t, filepath.Join(dir, "auri.toml"), tt.file)
			}
			_, err := Load(path)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_ExplicitMissingFile(t *testing.T) {
	dir := isolate(t)
	if _, err := Load(filepath.Join(dir, "absent.toml")); err == nil {
		t.Error("expected error for a named config file that does not exist")
	}
}

func TestNew_UsesConfigEnv(t *testing.T) {
	dir := isolate(t)
	path := writeFile(t, filepath.Join(dir, "custom.toml"), "[logging]\nlevel = \"error\"\n")
	t.Setenv(EnvConfigFile, path)

	cfg, err := New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.LogLevel() != "error" {
		t.Errorf("LogLevel = %s, want error", cfg.LogLevel())
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	got, err := expandPath("~/renders")
	if err != nil {
		t.Fatal(err)
	}
	if got != filepath.Join(home, "renders") {
		t.Errorf("expandPath = %s", got)
	}
	if got, _ := expandPath("/abs"); got != "/abs" {
		t.Errorf("expandPath(/abs) = %s", got)
	}
}

func TestSettings(t *testing.T) {
	isolate(t)
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	keys := map[string]string{}
	for _, kv := range cfg.Settings() {
		keys[kv[0]] = kv[1]
	}
	if keys["port"] != "8797" || keys["render.timeout"] != "30m0s" {
		t.Errorf("settings = %v", keys)
	}
}

func TestRenderOptions(t *testing.T) {
	isolate(t)
	t.Setenv(EnvFFmpeg, "/opt/ffmpeg")
	t.Setenv(EnvFontSize, "60")
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}

	opts := RenderOptions(cfg)
	if opts.FFmpegPath != "/opt/ffmpeg" || opts.FontSize != 60 {
		t.Errorf("opts = %+v", opts)
	}
	if opts.Width != 1080 || opts.Height != 1920 || opts.FPS != 30 || opts.AudioCodec != "aac" {
		t.Errorf("renderer defaults lost: %+v", opts)
	}
}

func TestWriteSample_LoadsBackAsDefaults(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := WriteSample(path); err != nil {
		t.Fatalf("WriteSample() error = %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load(sample) error = %v", err)
	}
	if cfg.Port() != DefaultPort || cfg.RenderTimeout() != DefaultRenderTimeout || cfg.VideoCodec() != DefaultVideoCodec {
		t.Errorf("sample did not round-trip: %v", cfg.Settings())
	}
	if cfg.Source() != path {
		t.Errorf("Source() = %s, want %s", cfg.Source(), path)
	}
}
