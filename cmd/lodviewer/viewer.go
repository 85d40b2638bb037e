package main

import (
	"context"
	"fmt"
	"time"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Faultbox/midgard-lod/internal/config"
	"github.com/Faultbox/midgard-lod/internal/engine/camera"
	"github.com/Faultbox/midgard-lod/internal/engine/debug"
	"github.com/Faultbox/midgard-lod/internal/engine/window"
	"github.com/Faultbox/midgard-lod/internal/layer"
	"github.com/Faultbox/midgard-lod/internal/lod"
	"github.com/Faultbox/midgard-lod/internal/logger"
)

// viewer holds the per-window state of the render loop and receives the
// window's input events.
type viewer struct {
	win     *window.Window
	layer   *layer.ModelLODTreeLayer
	cam     *camera.OrbitCamera
	opts    *lod.Options
	aspect  float64
	running bool

	drawableW, drawableH int
	frames               int
	titleAt              time.Time

	loadInterval time.Duration
	lastLoad     time.Time
	lastLoadPos  mgl64.Vec3
	settled      bool
	log          *zap.Logger

	wantScreenshot bool
	capture        config.CaptureConfig
}

var _ window.Input = (*viewer)(nil)

func newViewer(cfg *config.Config, win *window.Window) (*viewer, error) {
	l, _, err := newGridLayer(cfg)
	if err != nil {
		return nil, err
	}
	opts, err := cfg.Lighting.Options()
	if err != nil {
		return nil, err
	}
	l.SetOptions(opts)

	size := cfg.Streaming.RegionSize
	cam := camera.NewOrbitCamera()
	cam.FovY = cfg.Graphics.FOV
	cam.MaxDistance = size * 4
	cam.FitToBounds(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{size, size, 0})

	return &viewer{
		win:          win,
		running:      true,
		layer:        l,
		cam:          cam,
		opts:         opts,
		aspect:       float64(cfg.Graphics.Width) / float64(cfg.Graphics.Height),
		loadInterval: cfg.Streaming.LoadInterval,
		log:          logger.Named("viewer"),
		capture:      cfg.Capture,
	}, nil
}

func (v *viewer) view() lod.ViewState {
	return layer.ViewFromCamera(v.cam, v.aspect)
}

// frame starts a background load when the camera moved since the last
// one, then draws the layer.
func (v *viewer) frame(ctx context.Context, now time.Time, dt time.Duration) {
	view := v.view()

	moved := view.CameraPos.Sub(v.lastLoadPos).Len() > 1e-6
	if now.Sub(v.lastLoad) >= v.loadInterval && (moved || v.lastLoad.IsZero()) {
		if v.layer.UpdateAsync(ctx, view) {
			v.lastLoad = now
			v.lastLoadPos = view.CameraPos
		}
	}

	pending := v.layer.OnDrawFrame(float32(dt.Seconds()), view)
	if pending == v.settled {
		v.settled = !pending
		if v.settled {
			stats := v.layer.Renderer().LastFrameStats()
			v.log.Debug("tree settled", zap.Int("resident", stats.Resident), zap.Int("drawn", stats.Drawn))
		}
	}
}

// pick casts a ray through a window point and logs what it hits.
func (v *viewer) pick(x, y float64, w, h int) {
	view := v.view()
	ray := v.cam.ScreenRay(x, y, w, h)
	hits := v.layer.Pick(ray.Origin, ray.Direction, &view)
	if len(hits) == 0 {
		v.log.Info("pick: no hit")
		return
	}
	hit := hits[0]
	v.log.Info("pick",
		zap.String("feature", hit.Feature.Name),
		zap.Int64("id", hit.Feature.ID),
		zap.Any("properties", hit.Feature.Properties),
		zap.Float64s("pos", hit.HitPos[:]),
		zap.Float64("distance", hit.Distance),
		zap.Int("hits", len(hits)),
	)
}

// applyConfig takes the reloadable parts of a changed config file: lighting,
// log level and capture settings. The previous options become unreachable
// and are collected once the renderer stops using them.
func (v *viewer) applyConfig(cfg *config.Config) {
	opts, err := cfg.Lighting.Options()
	if err != nil {
		v.log.Warn("lighting not applied", zap.Error(err))
		return
	}
	v.opts = opts
	v.layer.SetOptions(opts)
	v.capture = cfg.Capture
	if err := logger.SetLevel(cfg.Logging.Level); err != nil {
		v.log.Warn("log level not applied", zap.Error(err))
	}
}

// Quit stops the render loop.
func (v *viewer) Quit() {
	v.running = false
}

// Resize tracks the framebuffer size for the viewport and projection.
func (v *viewer) Resize(w, h int) {
	v.drawableW, v.drawableH = w, h
	v.aspect = float64(w) / float64(max(h, 1))
	gl.Viewport(0, 0, int32(w), int32(h))
}

func (v *viewer) Drag(dx, dy float64) {
	v.cam.HandleDrag(dx, dy)
}

func (v *viewer) Scroll(dy float64) {
	v.cam.HandleZoom(dy)
}

// Click picks at a window point.
func (v *viewer) Click(x, y float64) {
	w, h := v.win.Size()
	v.pick(x, y, w, h)
}

// Key handles one-shot keys: Esc quits, F3 toggles debug logging and F12
// saves a screenshot after the next frame.
func (v *viewer) Key(key sdl.Keycode) {
	switch key {
	case sdl.K_ESCAPE:
		v.Quit()
	case sdl.K_F3:
		lvl := "debug"
		if logger.Level() == zapcore.DebugLevel {
			lvl = "info"
		}
		if err := logger.SetLevel(lvl); err == nil {
			v.log.Info("log level changed", zap.String("level", lvl))
		}
	case sdl.K_F12:
		v.wantScreenshot = true
	}
}

// updateTitle shows frame rate and residency once a second.
func (v *viewer) updateTitle(now time.Time) {
	v.frames++
	if v.titleAt.IsZero() {
		v.titleAt = now
		return
	}
	elapsed := now.Sub(v.titleAt)
	if elapsed < time.Second {
		return
	}
	stats := v.layer.Renderer().LastFrameStats()
	title := fmt.Sprintf("%s | %.0f fps | %d resident, %d drawn, %d pending",
		windowTitle, float64(v.frames)/elapsed.Seconds(), stats.Resident, stats.Drawn, stats.Pending)
	if v.layer.Loading() {
		title += " | loading"
	}
	v.win.SetTitle(title)
	v.frames = 0
	v.titleAt = now
}

// screenshot reads the back buffer and saves it as a PNG.
func (v *viewer) screenshot() {
	w, h := v.drawableW, v.drawableH
	if w <= 0 || h <= 0 {
		return
	}
	pixels := make([]byte, w*h*4)
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, int32(w), int32(h), gl.RGBA, gl.UNSIGNED_BYTE, unsafe.Pointer(&pixels[0]))

	img, err := debug.ImageFromPixels(pixels, w, h)
	if err != nil {
		v.log.Warn("screenshot failed", zap.Error(err))
		return
	}
	path := debug.ScreenshotName(v.capture.Dir, "lod", v.capture.Format, time.Now())
	if err := debug.SaveImage(path, img); err != nil {
		v.log.Warn("screenshot failed", zap.Error(err))
		return
	}
	v.log.Info("screenshot saved", zap.String("path", path))
}
