package config

import (
	"errors"
	"fmt"
	"image/color"
	"strings"

	"go.uber.org/zap/zapcore"

	"github.com/Faultbox/midgard-lod/internal/engine/debug"
	"github.com/Faultbox/midgard-lod/internal/engine/lighting"
	"github.com/Faultbox/midgard-lod/internal/lod"
	"github.com/Faultbox/midgard-lod/internal/logger"
)

// ErrInvalid is returned for configurations that cannot be used.
var ErrInvalid = errors.New("invalid config")

// Validate checks value ranges and that colours and the log level parse.
func (c *Config) Validate() error {
	if c.Graphics.Width <= 0 || c.Graphics.Height <= 0 {
		return fmt.Errorf("%w: window size %dx%d", ErrInvalid, c.Graphics.Width, c.Graphics.Height)
	}
	if c.Graphics.MSAA < 0 || c.Graphics.MSAA > 16 {
		return fmt.Errorf("%w: msaa %d", ErrInvalid, c.Graphics.MSAA)
	}
	if c.Graphics.FOV <= 0 || c.Graphics.FOV >= 180 {
		return fmt.Errorf("%w: fov %v", ErrInvalid, c.Graphics.FOV)
	}
	if c.Streaming.RegionSize <= 0 {
		return fmt.Errorf("%w: region size %v", ErrInvalid, c.Streaming.RegionSize)
	}
	if c.Streaming.RefineFactor <= 0 {
		return fmt.Errorf("%w: refine factor %v", ErrInvalid, c.Streaming.RefineFactor)
	}
	if c.Streaming.MaxDepth < 0 {
		return fmt.Errorf("%w: max depth %d", ErrInvalid, c.Streaming.MaxDepth)
	}
	if _, err := zapcore.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if f := c.Logging.Format; f != logger.FormatConsole && f != logger.FormatJSON {
		return fmt.Errorf("%w: log format %q", ErrInvalid, f)
	}
	if f := c.Capture.Format; f != debug.FormatPNG && f != debug.FormatBMP {
		return fmt.Errorf("%w: capture format %q", ErrInvalid, f)
	}
	if _, err := c.Lighting.Options(); err != nil {
		return err
	}
	return nil
}

// Options converts the lighting section to renderer options.
func (l LightingConfig) Options() (*lod.Options, error) {
	ambient, err := ParseColor(l.Ambient)
	if err != nil {
		return nil, fmt.Errorf("ambient: %w", err)
	}
	main, err := ParseColor(l.Main)
	if err != nil {
		return nil, fmt.Errorf("main: %w", err)
	}
	if l.SunElevation <= 0 || l.SunElevation > 90 {
		return nil, fmt.Errorf("%w: sun elevation %v", ErrInvalid, l.SunElevation)
	}
	return &lod.Options{
		AmbientLightColor:  ambient,
		MainLightColor:     main,
		MainLightDirection: lighting.SunDirection(l.SunAzimuth, l.SunElevation),
	}, nil
}

// Options converts the logging section to logger options.
func (l LoggingConfig) Options() logger.Options {
	return logger.Options{
		Level:  l.Level,
		Format: l.Format,
		File:   l.LogFile,
		Rotation: logger.Rotation{
			MaxSizeMB:  l.MaxSizeMB,
			MaxBackups: l.MaxBackups,
			MaxAgeDays: l.MaxAgeDays,
			Compress:   true,
		},
	}
}

// ParseColor parses "#rrggbb" or "#rrggbbaa". Alpha defaults to opaque.
func ParseColor(s string) (color.RGBA, error) {
	c := color.RGBA{A: 255}
	hex := strings.TrimPrefix(s, "#")
	var err error
	switch len(hex) {
	case 6:
		_, err = fmt.Sscanf(hex, "%2x%2x%2x", &c.R, &c.G, &c.B)
	case 8:
		_, err = fmt.Sscanf(hex, "%2x%2x%2x%2x", &c.R, &c.G, &c.B, &c.A)
	default:
		err = errors.New("want #rrggbb or #rrggbbaa")
	}
	if err != nil {
		return color.RGBA{}, fmt.Errorf("%w: colour %q: %v", ErrInvalid, s, err)
	}
	return c, nil
}
