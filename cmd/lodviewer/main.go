// Package main is an interactive viewer for the streamed LOD grid.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-lod/internal/config"
	"github.com/Faultbox/midgard-lod/internal/engine/window"
	"github.com/Faultbox/midgard-lod/internal/layer"
	"github.com/Faultbox/midgard-lod/internal/logger"
	"github.com/Faultbox/midgard-lod/internal/metrics"
	"github.com/Faultbox/midgard-lod/pkg/projection"
)

const windowTitle = "Midgard LOD Viewer"

func main() {
	// Parse CLI flags
	config.ParseFlags()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logging.Options()); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("=== Midgard LOD Viewer ===")
	logger.Sugar.Debugf("Config: %+v", cfg)

	if err := run(cfg); err != nil {
		logger.Error("viewer error", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("viewer closed normally")
}

func run(cfg *config.Config) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Metrics.Listen != "" {
		wait := metrics.Serve(ctx, cfg.Metrics.Listen)
		defer wait()
		defer cancel()
	}

	win, err := window.New(window.Config{
		Title:      windowTitle,
		Width:      cfg.Graphics.Width,
		Height:     cfg.Graphics.Height,
		Fullscreen: cfg.Graphics.Fullscreen,
		VSync:      cfg.Graphics.VSync,
		Samples:    cfg.Graphics.MSAA,
	})
	if err != nil {
		return err
	}
	defer win.Close()

	v, err := newViewer(cfg, win)
	if err != nil {
		return err
	}
	v.Resize(win.DrawableSize())
	defer v.layer.Close()
	v.layer.OnSurfaceCreated()
	defer v.layer.OnSurfaceDestroyed()

	reloads := make(chan *config.Config, 1)
	if path := config.Path(); path != "" {
		go func() {
			err := config.Watch(ctx, path, func(c *config.Config) {
				select {
				case <-reloads:
				default:
				}
				reloads <- c
			})
			if err != nil {
				logger.Warn("config watch stopped", zap.Error(err))
			}
		}()
	}

	var frameDelay time.Duration
	if cfg.Graphics.FPSLimit > 0 {
		frameDelay = time.Second / time.Duration(cfg.Graphics.FPSLimit)
	}

	last := time.Now()
	for v.running {
		win.PollEvents(v)
		select {
		case c := <-reloads:
			v.applyConfig(c)
		default:
		}

		now := time.Now()
		dt := now.Sub(last)
		last = now

		v.handleKeys(dt)

		gl.ClearColor(0.1, 0.1, 0.15, 1.0)
		gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)

		v.frame(ctx, now, dt)
		if v.wantScreenshot {
			v.screenshot()
			v.wantScreenshot = false
		}
		win.SwapBuffers()
		v.updateTitle(now)

		if frameDelay > 0 {
			if spent := time.Since(now); spent < frameDelay {
				sdl.Delay(uint32((frameDelay - spent).Milliseconds()))
			}
		}
	}
	return nil
}

// handleKeys moves the camera target while movement keys are held.
func (v *viewer) handleKeys(dt time.Duration) {
	step := dt.Seconds() * 60
	var forward, right, up float64
	if window.KeyDown(sdl.SCANCODE_W, sdl.SCANCODE_UP) {
		forward += step
	}
	if window.KeyDown(sdl.SCANCODE_S, sdl.SCANCODE_DOWN) {
		forward -= step
	}
	if window.KeyDown(sdl.SCANCODE_D, sdl.SCANCODE_RIGHT) {
		right += step
	}
	if window.KeyDown(sdl.SCANCODE_A, sdl.SCANCODE_LEFT) {
		right -= step
	}
	if window.KeyDown(sdl.SCANCODE_E) {
		up += step
	}
	if window.KeyDown(sdl.SCANCODE_Q) {
		up -= step
	}
	if forward != 0 || right != 0 || up != 0 {
		v.cam.HandleMovement(forward, right, up)
	}
}

// newGridLayer builds the GL-backed grid layer described by cfg.
func newGridLayer(cfg *config.Config) (*layer.ModelLODTreeLayer, *layer.GridSource, error) {
	src, err := layer.NewGridSource(layer.GridOptions{
		Origin:       mgl64.Vec2{0, 0},
		Size:         cfg.Streaming.RegionSize,
		MaxDepth:     cfg.Streaming.MaxDepth,
		RefineFactor: cfg.Streaming.RefineFactor,
		Projection:   projection.Identity{},
		NewModel:     layer.GLFactory,
	})
	if err != nil {
		return nil, nil, err
	}
	return layer.NewModelLODTreeLayer("grid", src), src, nil
}
