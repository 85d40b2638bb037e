// Package config handles viewer and tool configuration loading and management.
package config

import "time"

// Config holds all settings.
type Config struct {
	Graphics  GraphicsConfig  `yaml:"graphics"`
	Lighting  LightingConfig  `yaml:"lighting"`
	Streaming StreamingConfig `yaml:"streaming"`
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Capture   CaptureConfig   `yaml:"capture"`
}

// GraphicsConfig holds display and rendering settings.
type GraphicsConfig struct {
	Width      int     `yaml:"width"`
	Height     int     `yaml:"height"`
	Fullscreen bool    `yaml:"fullscreen"`
	VSync      bool    `yaml:"vsync"`
	FPSLimit   int     `yaml:"fps_limit"`
	MSAA       int     `yaml:"msaa"` // Multisample count, 0 disables
	FOV        float64 `yaml:"fov"`  // Vertical field of view, degrees
}

// LightingConfig holds the model lighting. Colours are "#rrggbb" or
// "#rrggbbaa".
type LightingConfig struct {
	Ambient      string  `yaml:"ambient"`
	Main         string  `yaml:"main"`
	SunAzimuth   float64 `yaml:"sun_azimuth"`   // Degrees clockwise from north
	SunElevation float64 `yaml:"sun_elevation"` // Degrees above the horizon
}

// StreamingConfig controls the synthetic LOD tree and how often it is
// re-evaluated.
type StreamingConfig struct {
	RegionSize   float64       `yaml:"region_size"`   // Root tile edge, world units
	MaxDepth     int           `yaml:"max_depth"`     // Deepest quadtree level
	RefineFactor float64       `yaml:"refine_factor"` // Refine while distance < size * factor
	LoadInterval time.Duration `yaml:"load_interval"` // Time between data source loads
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"` // console or json
	LogFile    string `yaml:"log_file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// MetricsConfig holds the Prometheus endpoint settings.
type MetricsConfig struct {
	Listen string `yaml:"listen"` // e.g. ":9100"; empty disables the endpoint
}

// CaptureConfig controls where F12 screenshots go.
type CaptureConfig struct {
	Dir    string `yaml:"dir"`
	Format string `yaml:"format"` // png or bmp
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Graphics: GraphicsConfig{
			Width:      1280,
			Height:     720,
			Fullscreen: false,
			VSync:      true,
			FPSLimit:   0,
			MSAA:       4,
			FOV:        60,
		},
		Lighting: LightingConfig{
			Ambient:      "#404040",
			Main:         "#c0c0c0",
			SunAzimuth:   225,
			SunElevation: 60,
		},
		Streaming: StreamingConfig{
			RegionSize:   4096,
			MaxDepth:     5,
			RefineFactor: 1.5,
			LoadInterval: 250 * time.Millisecond,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			LogFile:    "",
			MaxSizeMB:  50,
			MaxBackups: 3,
			MaxAgeDays: 7,
		},
		Metrics: MetricsConfig{
			Listen: "",
		},
		Capture: CaptureConfig{
			Dir:    "screenshots",
			Format: "png",
		},
	}
}
