package config

import (
	"errors"
	"image/color"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	// Test graphics defaults
	if cfg.Graphics.Width != 1280 {
		t.Errorf("expected width 1280, got %d", cfg.Graphics.Width)
	}
	if cfg.Graphics.Height != 720 {
		t.Errorf("expected height 720, got %d", cfg.Graphics.Height)
	}
	if cfg.Graphics.Fullscreen {
		t.Error("expected fullscreen to be false by default")
	}
	if !cfg.Graphics.VSync {
		t.Error("expected vsync to be true by default")
	}

	// Test streaming defaults
	if cfg.Streaming.MaxDepth != 5 {
		t.Errorf("expected max depth 5, got %d", cfg.Streaming.MaxDepth)
	}
	if cfg.Streaming.LoadInterval != 250*time.Millisecond {
		t.Errorf("expected load interval 250ms, got %v", cfg.Streaming.LoadInterval)
	}

	// Test logging defaults
	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
	if cfg.Metrics.Listen != "" {
		t.Errorf("expected metrics disabled, got %s", cfg.Metrics.Listen)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	// Create temporary config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
graphics:
  width: 1920
  height: 1080
  fullscreen: true
  vsync: false
  fov: 45

lighting:
  ambient: "#202020"
  main: "#ffffff80"
  sun_azimuth: 90
  sun_elevation: 90

streaming:
  region_size: 1000
  max_depth: 3
  refine_factor: 2
  load_interval: 1s

logging:
  level: "debug"
  log_file: "lod.log"

metrics:
  listen: ":9100"
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	// Load config
	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	// Verify values were loaded
	if cfg.Graphics.Width != 1920 {
		t.Errorf("expected width 1920, got %d", cfg.Graphics.Width)
	}
	if !cfg.Graphics.Fullscreen {
		t.Error("expected fullscreen to be true")
	}
	if cfg.Graphics.FOV != 45 {
		t.Errorf("expected fov 45, got %v", cfg.Graphics.FOV)
	}
	if cfg.Lighting.SunAzimuth != 90 || cfg.Lighting.SunElevation != 90 {
		t.Errorf("expected sun at 90/90, got %v/%v", cfg.Lighting.SunAzimuth, cfg.Lighting.SunElevation)
	}
	if cfg.Streaming.RegionSize != 1000 {
		t.Errorf("expected region size 1000, got %v", cfg.Streaming.RegionSize)
	}
	if cfg.Streaming.MaxDepth != 3 {
		t.Errorf("expected max depth 3, got %d", cfg.Streaming.MaxDepth)
	}
	if cfg.Streaming.LoadInterval != time.Second {
		t.Errorf("expected load interval 1s, got %v", cfg.Streaming.LoadInterval)
	}
	if cfg.Logging.LogFile != "lod.log" {
		t.Errorf("expected log file 'lod.log', got %s", cfg.Logging.LogFile)
	}
	if cfg.Metrics.Listen != ":9100" {
		t.Errorf("expected metrics listen ':9100', got %s", cfg.Metrics.Listen)
	}

	opts, err := cfg.Lighting.Options()
	if err != nil {
		t.Fatalf("lighting options: %v", err)
	}
	if opts.MainLightColor != (color.RGBA{255, 255, 255, 128}) {
		t.Errorf("unexpected main colour %v", opts.MainLightColor)
	}
	if opts.AmbientLightColor != (color.RGBA{32, 32, 32, 255}) {
		t.Errorf("unexpected ambient colour %v", opts.AmbientLightColor)
	}
	if d := opts.MainLightDirection; d[2] > -0.999999 {
		t.Errorf("expected overhead sun, got direction %v", d)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	// Create temporary config file with invalid YAML
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")

	invalidYAML := `
graphics:
  width: not a number
  invalid syntax here
`

	if err := os.WriteFile(configPath, []byte(invalidYAML), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	// Try to load - should error
	cfg := Default()
	err := loadFromFile(cfg, configPath)
	if err == nil {
		t.Error("expected error loading invalid YAML, got nil")
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := Default()
	err := loadFromFile(cfg, "/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestLoadFileRejectsInvalidValues(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte("streaming:\n  refine_factor: 0\n"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	_, err := LoadFile(configPath)
	if !errors.Is(err, ErrInvalid) {
		t.Errorf("expected ErrInvalid, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero width", func(c *Config) { c.Graphics.Width = 0 }},
		{"negative msaa", func(c *Config) { c.Graphics.MSAA = -1 }},
		{"fov too wide", func(c *Config) { c.Graphics.FOV = 180 }},
		{"negative depth", func(c *Config) { c.Streaming.MaxDepth = -1 }},
		{"empty region", func(c *Config) { c.Streaming.RegionSize = 0 }},
		{"bad level", func(c *Config) { c.Logging.Level = "loud" }},
		{"bad capture format", func(c *Config) { c.Capture.Format = "gif" }},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }},
		{"bad colour", func(c *Config) { c.Lighting.Ambient = "#12345" }},
		{"non-hex colour", func(c *Config) { c.Lighting.Main = "#gggggg" }},
		{"sun below horizon", func(c *Config) { c.Lighting.SunElevation = -5 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalid) {
				t.Errorf("expected ErrInvalid, got %v", err)
			}
		})
	}
}

func TestLoggingOptions(t *testing.T) {
	cfg := Default()
	cfg.Logging.LogFile = "lod.log"
	opts := cfg.Logging.Options()
	if opts.Level != "info" || opts.Format != "console" || opts.File != "lod.log" {
		t.Errorf("unexpected options %+v", opts)
	}
	if opts.Rotation.MaxSizeMB != 50 || opts.Rotation.MaxBackups != 3 || opts.Rotation.MaxAgeDays != 7 {
		t.Errorf("unexpected rotation %+v", opts.Rotation)
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in   string
		want color.RGBA
	}{
		{"#000000", color.RGBA{0, 0, 0, 255}},
		{"#ff8000", color.RGBA{255, 128, 0, 255}},
		{"a0b0c0d0", color.RGBA{0xa0, 0xb0, 0xc0, 0xd0}},
	}

	for _, tt := range tests {
		got, err := ParseColor(tt.in)
		if err != nil {
			t.Errorf("ParseColor(%q) error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseColor(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()

	// Just verify it returns a non-empty path
	// Actual path depends on OS
	if dir == "" {
		t.Error("ConfigDir returned empty string")
	}

	// Verify path is absolute
	if !filepath.IsAbs(dir) {
		t.Errorf("ConfigDir should return absolute path, got %s", dir)
	}
}

func TestFindConfigFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Chdir(t.TempDir())

	// No config file exists - should return empty
	path := findConfigFile()
	if path != "" {
		t.Errorf("expected empty path when no config exists, got %s", path)
	}

	// Create config.yaml in current directory
	if err := os.WriteFile("config.yaml", []byte("graphics:\n  width: 800\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}

	// Should find it now
	path = findConfigFile()
	if path == "" {
		t.Error("expected to find config.yaml in current directory")
	}
}

func TestApplyFlags(t *testing.T) {
	tests := []struct {
		name     string
		setup    func()
		verify   func(*testing.T, *Config)
		teardown func()
	}{
		{
			name:  "debug flag",
			setup: func() { *flagDebug = true },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Logging.Level != "debug" {
					t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
				}
			},
			teardown: func() { *flagDebug = false },
		},
		{
			name:  "log format flag",
			setup: func() { *flagLogFormat = "json" },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Logging.Format != "json" {
					t.Errorf("expected log format 'json', got %s", cfg.Logging.Format)
				}
			},
			teardown: func() { *flagLogFormat = "" },
		},
		{
			name:  "fullscreen flag",
			setup: func() { *flagFullscreen = true },
			verify: func(t *testing.T, cfg *Config) {
				if !cfg.Graphics.Fullscreen {
					t.Error("expected fullscreen to be true with fullscreen flag")
				}
			},
			teardown: func() { *flagFullscreen = false },
		},
		{
			name: "width and height flags",
			setup: func() {
				*flagWidth = 2560
				*flagHeight = 1440
			},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Graphics.Width != 2560 {
					t.Errorf("expected width 2560, got %d", cfg.Graphics.Width)
				}
				if cfg.Graphics.Height != 1440 {
					t.Errorf("expected height 1440, got %d", cfg.Graphics.Height)
				}
			},
			teardown: func() {
				*flagWidth = 0
				*flagHeight = 0
			},
		},
		{
			name:  "depth flag",
			setup: func() { *flagDepth = 0 },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Streaming.MaxDepth != 0 {
					t.Errorf("expected max depth 0, got %d", cfg.Streaming.MaxDepth)
				}
			},
			teardown: func() { *flagDepth = -1 },
		},
		{
			name:  "metrics flag",
			setup: func() { *flagMetrics = "127.0.0.1:9100" },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Metrics.Listen != "127.0.0.1:9100" {
					t.Errorf("expected metrics listen address, got %q", cfg.Metrics.Listen)
				}
			},
			teardown: func() { *flagMetrics = "" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Setup
			tt.setup()
			defer tt.teardown()

			// Apply flags to default config
			cfg := Default()
			applyFlags(cfg)

			// Verify
			tt.verify(t, cfg)
		})
	}
}

func TestLoadPriority(t *testing.T) {
	// Create temporary config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
graphics:
  width: 1600
  height: 900
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	// Set flag to override config file
	*flagConfig = configPath
	*flagWidth = 1920
	defer func() {
		*flagConfig = ""
		*flagWidth = 0
	}()

	// Load config
	cfg, err := Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	// Width should be from flag (1920), not file (1600)
	if cfg.Graphics.Width != 1920 {
		t.Errorf("expected width 1920 from flag, got %d", cfg.Graphics.Width)
	}

	// Height should be from file (900) since no flag override
	if cfg.Graphics.Height != 900 {
		t.Errorf("expected height 900 from file, got %d", cfg.Graphics.Height)
	}
}

func TestSaveToRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Default()
	cfg.Streaming.MaxDepth = 7
	cfg.Lighting.Ambient = "#101010"

	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}
	loaded, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if loaded.Streaming.MaxDepth != 7 || loaded.Lighting.Ambient != "#101010" {
		t.Errorf("round trip lost values: %+v", loaded)
	}
	if loaded.Streaming.LoadInterval != cfg.Streaming.LoadInterval {
		t.Errorf("load interval %v, want %v", loaded.Streaming.LoadInterval, cfg.Streaming.LoadInterval)
	}
}
