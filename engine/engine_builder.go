package engine

import (
	"log/slog"
	"time"

	"github.com/Carmen-Shannon/oxy-scrub/engine/animation"
	"github.com/Carmen-Shannon/oxy-scrub/engine/loader"
	"github.com/Carmen-Shannon/oxy-scrub/engine/remote"
	"github.com/Carmen-Shannon/oxy-scrub/engine/renderer"
	"github.com/Carmen-Shannon/oxy-scrub/engine/scene"
	"github.com/Carmen-Shannon/oxy-scrub/engine/scroll"
	"github.com/Carmen-Shannon/oxy-scrub/engine/window"
)

// EngineBuilderOption is a functional option for configuring an Engine.
// Use the With* functions to create options that are applied directly to the engine instance.
type EngineBuilderOption func(*engine)

// WithWindow sets the window the engine runs its message loop on. Required.
//
// Parameters:
//   - w: a pre-configured Window instance
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithWindow(w window.Window) EngineBuilderOption {
	return func(e *engine) {
		e.window = w
	}
}

// WithRenderer sets the renderer drawing to the window surface. Required.
//
// Parameters:
//   - r: a renderer created for the window's surface
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRenderer(r renderer.Renderer) EngineBuilderOption {
	return func(e *engine) {
		e.renderer = r
	}
}

// WithAsset sets the loader and the asset location fetched when Run starts.
// Without it the engine shows the empty scene.
//
// Parameters:
//   - l: the asset loader
//   - location: a file path or file/http/https URL
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithAsset(l loader.Loader, location string) EngineBuilderOption {
	return func(e *engine) {
		e.loader = l
		e.assetURL = location
	}
}

// WithRemote attaches a running remote scroll feed. Its geometries are applied on the main thread.
//
// Parameters:
//   - s: the remote feed
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRemote(s remote.Server) EngineBuilderOption {
	return func(e *engine) {
		e.remote = s
	}
}

// WithDocumentHeight sets the height of the virtual document scrolled by the window.
// Values <= 0 keep DefaultDocumentHeight.
//
// Parameters:
//   - height: document height in logical pixels
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithDocumentHeight(height float64) EngineBuilderOption {
	return func(e *engine) {
		if height > 0 {
			e.documentHeight = height
		}
	}
}

// WithBinderOptions passes options through to the scroll binder.
func WithBinderOptions(options ...scroll.BinderBuilderOption) EngineBuilderOption {
	return func(e *engine) {
		e.binderOptions = append(e.binderOptions, options...)
	}
}

// WithSceneOptions passes options through to scene composition.
func WithSceneOptions(options ...scene.SceneBuilderOption) EngineBuilderOption {
	return func(e *engine) {
		e.sceneOptions = append(e.sceneOptions, options...)
	}
}

// WithController replaces the default animation controller.
func WithController(c animation.Controller) EngineBuilderOption {
	return func(e *engine) {
		e.controller = c
	}
}

// WithProfiling enables the frame profiler, reporting once per interval.
//
// Parameters:
//   - interval: the reporting interval; <= 0 disables profiling
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiling(interval time.Duration) EngineBuilderOption {
	return func(e *engine) {
		e.profilerInterval = interval
	}
}

// WithLogger sets the logger the engine and its parts derive their loggers from.
func WithLogger(logger *slog.Logger) EngineBuilderOption {
	return func(e *engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithClock replaces time.Now as the source of tick times.
func WithClock(now func() time.Time) EngineBuilderOption {
	return func(e *engine) {
		if now != nil {
			e.now = now
		}
	}
}
