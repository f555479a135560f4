package remote

import (
	"log/slog"
	"strings"
)

// ServerBuilderOption is a functional option applied to a server during construction via Listen.
type ServerBuilderOption func(s *server)

// WithPath sets the WebSocket endpoint path. Empty keeps DefaultPath.
//
// Parameters:
//   - path: the endpoint, with or without a leading slash
//
// Returns:
//   - ServerBuilderOption: option function to apply
func WithPath(path string) ServerBuilderOption {
	return func(s *server) {
		if path == "" {
			return
		}
		if !strings.HasPrefix(path, "/") {
			path = "/" + path
		}
		s.path = path
	}
}

// WithBuffer sets how many geometries may wait for the main thread.
//
// Parameters:
//   - n: buffer size, at least 1
//
// Returns:
//   - ServerBuilderOption: option function to apply
func WithBuffer(n int) ServerBuilderOption {
	return func(s *server) {
		s.buffer = n
	}
}

// WithLogger sets the logger used for connection diagnostics.
func WithLogger(logger *slog.Logger) ServerBuilderOption {
	return func(s *server) {
		if logger != nil {
			s.logger = logger
		}
	}
}
