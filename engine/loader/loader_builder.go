package loader

import (
	"log/slog"
	"net/http"

	"github.com/Carmen-Shannon/oxy-scrub/internal/cache"
)

// LoaderBuilderOption is a functional option for configuring a Loader via NewLoader.
type LoaderBuilderOption func(*loader)

// WithLogger sets the logger. A nil logger is ignored.
func WithLogger(logger *slog.Logger) LoaderBuilderOption {
	return func(l *loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithHTTPClient sets the client used for http(s) sources.
//
// Parameters:
//   - client: the HTTP client
//
// Returns:
//   - LoaderBuilderOption: a function that applies the client option to a loader
func WithHTTPClient(client *http.Client) LoaderBuilderOption {
	return func(l *loader) {
		if client != nil {
			l.client = client
		}
	}
}

// WithCache stores decoded payloads in c and serves later loads of the same
// location from it.
//
// Parameters:
//   - c: the asset cache
//
// Returns:
//   - LoaderBuilderOption: a function that applies the cache option to a loader
func WithCache(c cache.Cache) LoaderBuilderOption {
	return func(l *loader) {
		l.cache = c
	}
}

// WithWorkers sets the maximum number of concurrent fetches. Values below 1 are ignored.
func WithWorkers(n int) LoaderBuilderOption {
	return func(l *loader) {
		if n > 0 {
			l.workers = n
		}
	}
}

// WithProgressStep sets the minimum number of bytes between Progress events.
func WithProgressStep(bytes int64) LoaderBuilderOption {
	return func(l *loader) {
		if bytes > 0 {
			l.progressStep = bytes
		}
	}
}
