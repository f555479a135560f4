// Package engine owns the viewer: window, renderer, scene, animation, scroll input and
// the asset load, all driven from the window's message loop on the main thread.
package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-scrub/engine/animation"
	"github.com/Carmen-Shannon/oxy-scrub/engine/device"
	"github.com/Carmen-Shannon/oxy-scrub/engine/loader"
	"github.com/Carmen-Shannon/oxy-scrub/engine/profiler"
	"github.com/Carmen-Shannon/oxy-scrub/engine/remote"
	"github.com/Carmen-Shannon/oxy-scrub/engine/renderer"
	"github.com/Carmen-Shannon/oxy-scrub/engine/scene"
	"github.com/Carmen-Shannon/oxy-scrub/engine/scroll"
	"github.com/Carmen-Shannon/oxy-scrub/engine/window"
	"github.com/Carmen-Shannon/oxy-scrub/internal/telemetry"
)

const (
	// DefaultDocumentHeight is the virtual document height scrolled by the window, in logical pixels.
	DefaultDocumentHeight = 4000

	// DefaultProfileInterval is the frame profiler reporting interval used by the command line viewer.
	DefaultProfileInterval = 5 * time.Second

	shutdownTimeout = 2 * time.Second
)

var (
	// ErrNoWindow is returned by NewEngine when no window was supplied.
	ErrNoWindow = errors.New("engine: window is required")

	// ErrNoRenderer is returned by NewEngine when no renderer was supplied.
	ErrNoRenderer = errors.New("engine: renderer is required")
)

// engine implements the Engine interface.
type engine struct {
	quality device.QualityConfig
	logger  *slog.Logger
	now     func() time.Time

	window     window.Window
	renderer   renderer.Renderer
	scene      *scene.Scene
	controller animation.Controller
	binder     scroll.Binder
	loop       *RenderLoop

	loader   loader.Loader
	assetURL string
	events   <-chan loader.Event

	remote remote.Server

	documentHeight float64
	binderOptions  []scroll.BinderBuilderOption
	sceneOptions   []scene.SceneBuilderOption

	profilerInterval time.Duration
	closed           bool
}

// Engine is the viewer's single owning context.
type Engine interface {
	// Run starts the asset load and runs the window message loop until the window closes
	// or ctx is cancelled. Each iteration drains load events and remote scroll events, then
	// ticks the render loop.
	//
	// Parameters:
	//   - ctx: cancels the loop and any fetch in flight
	//
	// Returns:
	//   - error: nil on a normal close
	Run(ctx context.Context) error

	// Step runs one message loop iteration at now and reports whether a frame was drawn.
	// Run calls it from the window's update callback.
	Step(now time.Time) bool

	// Resize applies a framebuffer size change. Zero sizes are ignored.
	//
	// Parameters:
	//   - width: framebuffer width in pixels
	//   - height: framebuffer height in pixels
	Resize(width, height int)

	// Close disposes the controller, then releases the renderer, the remote feed and the window.
	//
	// Returns:
	//   - error: the joined release errors
	Close() error

	Quality() device.QualityConfig
	Scene() *scene.Scene
	Controller() animation.Controller
	Binder() scroll.Binder
	RenderLoop() *RenderLoop
}

var _ Engine = &engine{}

// NewEngine wires a viewer for the given tier configuration. The window and renderer are
// supplied through WithWindow and WithRenderer; everything else has defaults.
//
// Parameters:
//   - quality: the tier configuration chosen at startup, never changed afterwards
//   - options: functional options for engine configuration
//
// Returns:
//   - Engine: the wired engine
//   - error: ErrNoWindow or ErrNoRenderer when a required part is missing
func NewEngine(quality device.QualityConfig, options ...EngineBuilderOption) (Engine, error) {
	e := &engine{
		quality:        quality,
		logger:         slog.Default(),
		now:            time.Now,
		documentHeight: DefaultDocumentHeight,
	}
	for _, opt := range options {
		opt(e)
	}
	if e.window == nil {
		return nil, ErrNoWindow
	}
	if e.renderer == nil {
		return nil, ErrNoRenderer
	}
	base := e.logger
	e.logger = base.With("component", "engine")

	width, height := e.window.Width(), e.window.Height()
	e.scene = scene.Compose(quality, aspect(width, height), e.sceneOptions...)
	if e.controller == nil {
		e.controller = animation.NewController(animation.WithLogger(base))
	}
	e.binder = scroll.NewBinder(e.controller, e.documentHeight, e.logicalHeight(height),
		append([]scroll.BinderBuilderOption{scroll.WithLogger(base)}, e.binderOptions...)...)

	e.loop = NewRenderLoop(quality, e.scene, e.controller, e.renderer, base)
	if e.profilerInterval > 0 {
		e.loop.SetProfiler(profiler.NewProfiler(base, e.profilerInterval, e.now()))
	}

	e.window.SetResizeCallback(e.Resize)
	e.window.SetScrollCallback(e.binder.OnWheel)
	e.window.SetKeyDownCallback(func(key uint32, shift bool) {
		e.binder.OnKey(key, shift)
	})

	e.logger.Info("engine ready",
		"tier", quality.Tier.String(),
		"target_fps", quality.TargetFPS,
		"antialias", quality.Antialias,
		"width", width,
		"height", height,
	)
	return e, nil
}

func (e *engine) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if e.loader != nil && e.assetURL != "" {
		e.logger.Info("loading asset", "url", e.assetURL)
		e.events = e.loader.Load(ctx, e.assetURL)
	}

	// The watcher must be gone before Close destroys the window.
	var wg sync.WaitGroup
	defer wg.Wait()
	done := make(chan struct{})
	defer close(done)
	wg.Add(1)
	go func() {
		defer wg.Done()
		select {
		case <-ctx.Done():
			e.window.RequestClose()
		case <-done:
		}
	}()

	e.window.SetUpdateCallback(func() {
		e.Step(e.now())
	})
	e.window.ProcessMessages()
	e.window.SetUpdateCallback(nil)
	return nil
}

func (e *engine) Step(now time.Time) bool {
	e.drainLoadEvents()
	e.drainRemote()
	if e.loop.Tick(now) {
		return true
	}
	if wait := e.loop.Remaining(now); wait > 0 {
		e.window.WaitEvents(wait)
	}
	return false
}

// drainLoadEvents handles every load event already queued without blocking.
func (e *engine) drainLoadEvents() {
	for e.events != nil {
		select {
		case ev, ok := <-e.events:
			if !ok {
				e.events = nil
				return
			}
			e.handleLoadEvent(ev)
		default:
			return
		}
	}
}

func (e *engine) handleLoadEvent(ev loader.Event) {
	switch ev := ev.(type) {
	case loader.Progress:
		e.logger.Debug("asset progress", "loaded", ev.BytesLoaded, "total", ev.BytesTotal)
	case loader.Success:
		e.scene.SetAsset(ev.Root)
		if e.controller.Bind(ev.Clips) {
			e.binder.Reapply()
		}
		e.logger.Info("asset loaded", "nodes", len(e.scene.NodeNames()), "clips", len(ev.Clips), "state", e.controller.State().String())
	case loader.Failure:
		e.logger.Error("asset load failed, showing empty scene", "url", e.assetURL, "error", ev.Cause)
		telemetry.CaptureError(ev.Cause, map[string]string{"component": "loader", "url": e.assetURL})
	}
}

func (e *engine) drainRemote() {
	if e.remote == nil {
		return
	}
	for {
		select {
		case g := <-e.remote.Events():
			e.binder.OnScroll(g)
		default:
			return
		}
	}
}

func (e *engine) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	e.scene.Camera().SetAspect(aspect(width, height))
	e.renderer.Resize(width, height)
	e.binder.OnViewportResize(e.logicalHeight(height))
	e.logger.Debug("resized", "width", width, "height", height, "tier", e.quality.Tier.String())
}

// logicalHeight converts a framebuffer height to the logical pixels the scroll document uses.
func (e *engine) logicalHeight(framebufferHeight int) float64 {
	scale := e.window.ContentScale()
	if !(scale > 0) {
		scale = 1
	}
	return float64(framebufferHeight) / float64(scale)
}

func (e *engine) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true

	e.controller.Dispose()
	e.renderer.Release()

	var errs []error
	if e.remote != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		errs = append(errs, e.remote.Shutdown(ctx))
		cancel()
	}
	errs = append(errs, e.window.Close())
	return errors.Join(errs...)
}

func (e *engine) Quality() device.QualityConfig {
	return e.quality
}

func (e *engine) Scene() *scene.Scene {
	return e.scene
}

func (e *engine) Controller() animation.Controller {
	return e.controller
}

func (e *engine) Binder() scroll.Binder {
	return e.binder
}

func (e *engine) RenderLoop() *RenderLoop {
	return e.loop
}

func aspect(width, height int) float32 {
	if width <= 0 || height <= 0 {
		return 1
	}
	return float32(width) / float32(height)
}
