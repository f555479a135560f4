package animation

import "log/slog"

// ControllerBuilderOption configures a controller.
type ControllerBuilderOption func(*controller)

// WithLogger sets the logger. A nil logger is ignored.
func WithLogger(logger *slog.Logger) ControllerBuilderOption {
	return func(c *controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}
