package scroll

import "log/slog"

const (
	// DefaultWheelStep is the scroll distance of one wheel notch.
	DefaultWheelStep = 100.0
	// DefaultLineStep is the scroll distance of one arrow key press.
	DefaultLineStep = 40.0
)

// BinderBuilderOption configures a binder.
type BinderBuilderOption func(*binder)

// WithWheelStep sets the distance scrolled per wheel notch. Non-positive values are ignored.
func WithWheelStep(step float64) BinderBuilderOption {
	return func(b *binder) {
		if step > 0 {
			b.wheelStep = step
		}
	}
}

// WithLineStep sets the distance scrolled per arrow key. Non-positive values are ignored.
func WithLineStep(step float64) BinderBuilderOption {
	return func(b *binder) {
		if step > 0 {
			b.lineStep = step
		}
	}
}

// WithScrollTop sets the initial scroll offset.
func WithScrollTop(top float64) BinderBuilderOption {
	return func(b *binder) {
		b.geometry.ScrollTop = top
	}
}

// WithLogger sets the logger. A nil logger is ignored.
func WithLogger(logger *slog.Logger) BinderBuilderOption {
	return func(b *binder) {
		if logger != nil {
			b.logger = logger
		}
	}
}
