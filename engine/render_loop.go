package engine

import (
	"log/slog"
	"time"

	"github.com/Carmen-Shannon/oxy-scrub/engine/animation"
	"github.com/Carmen-Shannon/oxy-scrub/engine/device"
	"github.com/Carmen-Shannon/oxy-scrub/engine/profiler"
	"github.com/Carmen-Shannon/oxy-scrub/engine/scene"
	"github.com/Carmen-Shannon/oxy-scrub/internal/telemetry"
)

// errorLogInterval is the minimum spacing between two logged draw errors.
const errorLogInterval = 5 * time.Second

// Drawer draws a scene. renderer.Renderer satisfies it.
type Drawer interface {
	Render(s *scene.Scene) error
}

// RenderLoop decides per tick whether to draw, then poses and draws the scene.
// It holds no goroutine; the window message loop calls Tick on every iteration.
type RenderLoop struct {
	quality    device.QualityConfig
	interval   time.Duration
	scene      *scene.Scene
	controller animation.Controller
	drawer     Drawer
	logger     *slog.Logger
	profiler   *profiler.Profiler

	lastTime time.Time

	lastErrorLog time.Time
	suppressed   int
}

// NewRenderLoop creates a render loop for the given tier configuration.
//
// Parameters:
//   - quality: the tier configuration; its TargetFPS throttles constrained ticks
//   - s: the scene to draw
//   - controller: the animation controller posed before each draw, may be nil
//   - drawer: the renderer
//   - logger: receives draw errors, nil for slog.Default
//
// Returns:
//   - *RenderLoop: the loop, which draws on its first Tick
func NewRenderLoop(quality device.QualityConfig, s *scene.Scene, controller animation.Controller, drawer Drawer, logger *slog.Logger) *RenderLoop {
	if logger == nil {
		logger = slog.Default()
	}
	return &RenderLoop{
		quality:    quality,
		interval:   quality.FrameInterval(),
		scene:      s,
		controller: controller,
		drawer:     drawer,
		logger:     logger.With("component", "render_loop"),
	}
}

// SetProfiler attaches a frame profiler fed by every tick.
func (l *RenderLoop) SetProfiler(p *profiler.Profiler) {
	l.profiler = p
}

// Tick runs one render loop iteration. On the constrained tier a tick arriving less than
// one frame interval after the last drawn frame is skipped and changes nothing. Otherwise
// the current pose is applied, world matrices are refreshed and the scene is drawn. Draw
// errors are logged and reported but never stop the loop.
//
// Parameters:
//   - now: the tick time
//
// Returns:
//   - bool: true if a frame was drawn
func (l *RenderLoop) Tick(now time.Time) bool {
	if l.skip(now) {
		l.record(false, now)
		return false
	}

	l.lastTime = now
	if l.controller != nil {
		l.controller.Update()
	}
	l.scene.Update()
	if err := l.drawer.Render(l.scene); err != nil {
		l.reportDrawError(err, now)
	}
	l.record(true, now)
	return true
}

// Remaining returns how long until a tick at or after now would draw. It is zero on
// unthrottled tiers.
func (l *RenderLoop) Remaining(now time.Time) time.Duration {
	if !l.quality.Throttled() || l.lastTime.IsZero() {
		return 0
	}
	return max(0, l.interval-now.Sub(l.lastTime))
}

// LastTime returns the time of the last drawn frame, zero before the first.
func (l *RenderLoop) LastTime() time.Time {
	return l.lastTime
}

func (l *RenderLoop) skip(now time.Time) bool {
	if !l.quality.Throttled() || l.lastTime.IsZero() {
		return false
	}
	return now.Sub(l.lastTime) < l.interval
}

func (l *RenderLoop) record(drawn bool, now time.Time) {
	if l.profiler != nil {
		l.profiler.Frame(drawn, now)
	}
}

func (l *RenderLoop) reportDrawError(err error, now time.Time) {
	if !l.lastErrorLog.IsZero() && now.Sub(l.lastErrorLog) < errorLogInterval {
		l.suppressed++
		return
	}
	l.logger.Error("draw failed", "error", err, "suppressed", l.suppressed)
	telemetry.CaptureError(err, map[string]string{"component": "render_loop", "tier": l.quality.Tier.String()})
	l.lastErrorLog = now
	l.suppressed = 0
}
