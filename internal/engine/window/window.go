// Package window opens the SDL2 window and OpenGL context for the viewer and
// turns SDL events into viewer input callbacks.
package window

import (
	"fmt"
	"runtime"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-lod/internal/logger"
)

func init() {
	// OpenGL calls must be made from the main thread
	runtime.LockOSThread()
}

// Config holds window configuration.
type Config struct {
	Title      string
	Width      int
	Height     int
	Fullscreen bool
	VSync      bool
	Samples    int // MSAA samples, 0 disables multisampling
}

// Input receives translated events. Coordinates are window points with the
// origin at the top left.
type Input interface {
	Quit()
	Resize(drawableW, drawableH int)
	Drag(dx, dy float64)
	Click(x, y float64)
	Scroll(dy float64)
	Key(key sdl.Keycode)
}

// Window owns the SDL window and its GL context.
type Window struct {
	win *sdl.Window
	ctx sdl.GLContext
	log *zap.Logger
}

// New initializes SDL, opens a window with an OpenGL 4.1 core context and
// loads the GL function pointers.
func New(cfg Config) (*Window, error) {
	w := &Window{log: logger.Named("window")}

	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		return nil, fmt.Errorf("SDL_Init failed: %w", err)
	}
	setContextAttributes(cfg)

	flags := uint32(sdl.WINDOW_OPENGL | sdl.WINDOW_SHOWN | sdl.WINDOW_RESIZABLE | sdl.WINDOW_ALLOW_HIGHDPI)
	if cfg.Fullscreen {
		flags |= sdl.WINDOW_FULLSCREEN_DESKTOP
	}

	var err error
	w.win, err = sdl.CreateWindow(cfg.Title, sdl.WINDOWPOS_CENTERED, sdl.WINDOWPOS_CENTERED,
		int32(cfg.Width), int32(cfg.Height), flags)
	if err != nil {
		sdl.Quit()
		return nil, fmt.Errorf("SDL_CreateWindow failed: %w", err)
	}

	w.ctx, err = w.win.GLCreateContext()
	if err != nil {
		w.win.Destroy()
		sdl.Quit()
		return nil, fmt.Errorf("SDL_GL_CreateContext failed: %w", err)
	}

	if err := gl.Init(); err != nil {
		w.Close()
		return nil, fmt.Errorf("OpenGL init failed: %w", err)
	}

	interval := 0
	if cfg.VSync {
		interval = 1
	}
	if err := sdl.GLSetSwapInterval(interval); err != nil {
		w.log.Warn("swap interval not applied", zap.Int("interval", interval), zap.Error(err))
	}
	if cfg.Samples > 0 {
		gl.Enable(gl.MULTISAMPLE)
	}

	dw, dh := w.DrawableSize()
	w.log.Info("window created",
		zap.String("title", cfg.Title),
		zap.Int("drawableWidth", dw),
		zap.Int("drawableHeight", dh),
		zap.Bool("fullscreen", cfg.Fullscreen),
		zap.Int("samples", cfg.Samples),
		zap.String("glVersion", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("glRenderer", gl.GoStr(gl.GetString(gl.RENDERER))),
	)
	return w, nil
}

// setContextAttributes requests a 4.1 core profile, the newest macOS offers.
// SDL reads these when the window is created.
func setContextAttributes(cfg Config) {
	sdl.GLSetAttribute(sdl.GL_CONTEXT_MAJOR_VERSION, 4)
	sdl.GLSetAttribute(sdl.GL_CONTEXT_MINOR_VERSION, 1)
	sdl.GLSetAttribute(sdl.GL_CONTEXT_PROFILE_MASK, sdl.GL_CONTEXT_PROFILE_CORE)
	sdl.GLSetAttribute(sdl.GL_DOUBLEBUFFER, 1)
	sdl.GLSetAttribute(sdl.GL_DEPTH_SIZE, 24)
	if cfg.Samples > 0 {
		sdl.GLSetAttribute(sdl.GL_MULTISAMPLEBUFFERS, 1)
		sdl.GLSetAttribute(sdl.GL_MULTISAMPLESAMPLES, cfg.Samples)
	}
}

// PollEvents drains the SDL queue into in. Right-button motion is a drag,
// a left press is a click.
func (w *Window) PollEvents(in Input) {
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch e := event.(type) {
		case *sdl.QuitEvent:
			in.Quit()

		case *sdl.WindowEvent:
			if e.Event == sdl.WINDOWEVENT_SIZE_CHANGED {
				in.Resize(w.DrawableSize())
			}

		case *sdl.MouseMotionEvent:
			if e.State&sdl.ButtonRMask() != 0 {
				in.Drag(float64(e.XRel), float64(e.YRel))
			}

		case *sdl.MouseButtonEvent:
			if e.Button == sdl.BUTTON_LEFT && e.State == sdl.PRESSED {
				in.Click(float64(e.X), float64(e.Y))
			}

		case *sdl.MouseWheelEvent:
			in.Scroll(float64(e.Y))

		case *sdl.KeyboardEvent:
			if e.State == sdl.PRESSED && e.Repeat == 0 {
				in.Key(e.Keysym.Sym)
			}
		}
	}
}

// KeyDown reports whether a key is held.
func KeyDown(codes ...sdl.Scancode) bool {
	state := sdl.GetKeyboardState()
	for _, c := range codes {
		if state[c] != 0 {
			return true
		}
	}
	return false
}

// Close destroys the context and window and shuts SDL down.
func (w *Window) Close() {
	if w.ctx != nil {
		sdl.GLDeleteContext(w.ctx)
		w.ctx = nil
	}
	if w.win != nil {
		w.win.Destroy()
		w.win = nil
	}
	sdl.Quit()
	w.log.Info("window closed")
}

// SwapBuffers presents the back buffer.
func (w *Window) SwapBuffers() {
	w.win.GLSwap()
}

// Size returns the window size in points.
func (w *Window) Size() (int, int) {
	width, height := w.win.GetSize()
	return int(width), int(height)
}

// DrawableSize returns the framebuffer size in pixels, which differs from
// Size on HiDPI displays.
func (w *Window) DrawableSize() (int, int) {
	width, height := w.win.GLGetDrawableSize()
	return int(width), int(height)
}

// SetTitle sets the window title.
func (w *Window) SetTitle(title string) {
	w.win.SetTitle(title)
}
