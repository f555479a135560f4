package scroll

import (
	"log/slog"
	"math"

	"github.com/Carmen-Shannon/oxy-scrub/common"
)

// Fraction maps a scroll offset to [0,1]. It returns 0 when the document is
// no taller than the viewport, and never NaN.
//
// Parameters:
//   - scrollTop: offset of the viewport's top edge into the document
//   - documentHeight: total document height
//   - viewportHeight: visible height
//
// Returns:
//   - float32: the scroll fraction
func Fraction(scrollTop, documentHeight, viewportHeight float64) float32 {
	scrollable := documentHeight - viewportHeight
	if !(scrollable > 0) || math.IsInf(scrollable, 0) || math.IsNaN(scrollTop) {
		return 0
	}
	return common.Clamp01(float32(scrollTop / scrollable))
}

// Geometry is the scroll state of a virtual document.
type Geometry struct {
	ScrollTop      float64 `json:"scrollTop"`
	DocumentHeight float64 `json:"documentHeight"`
	ViewportHeight float64 `json:"viewportHeight"`
}

// Fraction returns the scroll fraction of g.
func (g Geometry) Fraction() float32 {
	return Fraction(g.ScrollTop, g.DocumentHeight, g.ViewportHeight)
}

// MaxScrollTop is the furthest the viewport can scroll, never negative.
func (g Geometry) MaxScrollTop() float64 {
	return math.Max(0, g.DocumentHeight-g.ViewportHeight)
}

// PositionSetter receives scroll fractions. animation.Controller implements it.
type PositionSetter interface {
	SetPosition(fraction float32)
}

// binder is the implementation of the Binder interface.
type binder struct {
	logger    *slog.Logger
	target    PositionSetter
	geometry  Geometry
	wheelStep float64
	lineStep  float64
}

// Binder forwards scroll input to a PositionSetter. Every event recomputes the
// fraction and forwards it immediately; nothing is debounced or smoothed.
type Binder interface {
	// OnScroll replaces the whole geometry, as reported by an external scroll source.
	// The geometry is forwarded as given, without clamping.
	//
	// Parameters:
	//   - g: the reported geometry
	OnScroll(g Geometry)

	// OnWheel scrolls by -delta × wheel step. Positive deltas scroll up, matching GLFW.
	//
	// Parameters:
	//   - delta: the vertical wheel offset
	OnWheel(delta float64)

	// OnKey handles navigation keys: arrows by a line, PageUp/PageDown/Space by a
	// viewport, Home/End to the ends. Other keys are ignored.
	//
	// Parameters:
	//   - key: the key code
	//   - shift: whether shift is held, reversing Space
	//
	// Returns:
	//   - bool: true if the key was handled
	OnKey(key uint32, shift bool) bool

	// OnViewportResize updates the viewport height and re-clamps the offset.
	//
	// Parameters:
	//   - height: the new viewport height
	OnViewportResize(height float64)

	// Reapply forwards the current fraction again, e.g. after the target becomes ready.
	Reapply()

	// Geometry returns the current geometry.
	Geometry() Geometry

	// Fraction returns the current scroll fraction.
	Fraction() float32
}

var _ Binder = &binder{}

// NewBinder creates a binder over a virtual document.
//
// Parameters:
//   - target: receives every recomputed fraction
//   - documentHeight: the virtual document height
//   - viewportHeight: the initial viewport height
//   - options: optional builder options
//
// Returns:
//   - Binder: the binder
func NewBinder(target PositionSetter, documentHeight, viewportHeight float64, options ...BinderBuilderOption) Binder {
	b := &binder{
		logger:    slog.Default(),
		target:    target,
		geometry:  Geometry{DocumentHeight: documentHeight, ViewportHeight: viewportHeight},
		wheelStep: DefaultWheelStep,
		lineStep:  DefaultLineStep,
	}
	for _, opt := range options {
		opt(b)
	}
	b.logger = b.logger.With("component", "scroll")
	return b
}

func (b *binder) OnScroll(g Geometry) {
	b.geometry = g
	b.apply()
}

func (b *binder) OnWheel(delta float64) {
	if delta == 0 || math.IsNaN(delta) {
		return
	}
	b.scrollTo(b.geometry.ScrollTop - delta*b.wheelStep)
}

func (b *binder) OnKey(key uint32, shift bool) bool {
	top := b.geometry.ScrollTop
	page := b.geometry.ViewportHeight
	switch key {
	case common.KeyUp:
		top -= b.lineStep
	case common.KeyDown:
		top += b.lineStep
	case common.KeyPageUp:
		top -= page
	case common.KeyPageDown:
		top += page
	case common.KeySpace:
		if shift {
			top -= page
		} else {
			top += page
		}
	case common.KeyHome:
		top = 0
	case common.KeyEnd:
		top = b.geometry.MaxScrollTop()
	default:
		return false
	}
	b.scrollTo(top)
	return true
}

func (b *binder) OnViewportResize(height float64) {
	if height <= 0 || math.IsNaN(height) {
		return
	}
	b.geometry.ViewportHeight = height
	b.scrollTo(b.geometry.ScrollTop)
}

func (b *binder) Reapply() {
	b.apply()
}

func (b *binder) Geometry() Geometry {
	return b.geometry
}

func (b *binder) Fraction() float32 {
	return b.geometry.Fraction()
}

func (b *binder) scrollTo(top float64) {
	b.geometry.ScrollTop = math.Max(0, math.Min(top, b.geometry.MaxScrollTop()))
	b.apply()
}

func (b *binder) apply() {
	f := b.geometry.Fraction()
	b.logger.Debug("scroll", "top", b.geometry.ScrollTop, "fraction", f)
	if b.target != nil {
		b.target.SetPosition(f)
	}
}
