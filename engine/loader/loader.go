package loader

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-scrub/internal/cache"
)

const (
	// DefaultProgressStep is the minimum number of bytes between Progress events.
	DefaultProgressStep int64 = 64 << 10

	defaultWorkers     = 2
	defaultQueueSize   = 16
	defaultIdleTimeout = 5 * time.Second

	// eventBuffer is the capacity of each Load channel. One slot is always kept
	// free for the terminal event so the worker never blocks on it.
	eventBuffer = 32
)

// loader is the implementation of the Loader interface.
type loader struct {
	logger       *slog.Logger
	client       *http.Client
	cache        cache.Cache
	workers      int
	progressStep int64

	pool   worker.DynamicWorkerPool
	nextID atomic.Int64
}

// Loader fetches and decodes glTF assets in the background.
type Loader interface {
	// Load starts fetching the asset at location and returns immediately.
	// The returned channel carries zero or more Progress events followed by
	// exactly one Success or Failure, and is then closed. Cancelling ctx aborts
	// the fetch with a Failure.
	//
	// Parameters:
	//   - ctx: cancels the fetch
	//   - location: a local path, file:// URL or http(s):// URL
	//
	// Returns:
	//   - <-chan Event: the load events
	Load(ctx context.Context, location string) <-chan Event
}

var _ Loader = &loader{}

// NewLoader creates a Loader backed by a worker pool.
//
// Parameters:
//   - options: a variadic list of LoaderBuilderOption functions to configure the Loader
//
// Returns:
//   - Loader: the loader
func NewLoader(options ...LoaderBuilderOption) Loader {
	l := &loader{
		logger:       slog.Default(),
		client:       http.DefaultClient,
		workers:      defaultWorkers,
		progressStep: DefaultProgressStep,
	}
	for _, option := range options {
		option(l)
	}
	l.logger = l.logger.With("component", "loader")
	l.pool = worker.NewDynamicWorkerPool(l.workers, defaultQueueSize, defaultIdleTimeout)
	return l
}

func (l *loader) Load(ctx context.Context, location string) <-chan Event {
	events := make(chan Event, eventBuffer)
	id := int(l.nextID.Add(1))

	l.pool.SubmitTask(worker.Task{
		ID: id,
		Do: func() (result any, err error) {
			defer close(events)
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("asset load panicked: %v", r)
					events <- Failure{Cause: err}
				}
			}()

			start := time.Now()
			asset, err := l.load(ctx, location, func(p LoadProgress) {
				// progress is best effort; the terminal slot stays free
				if len(events) < cap(events)-1 {
					events <- Progress{LoadProgress: p}
				}
			})
			if err != nil {
				l.logger.Error("asset load failed", "source", location, "error", err)
				events <- Failure{Cause: err}
				return nil, err
			}

			l.logger.Info("asset loaded",
				"source", location,
				"clips", len(asset.Clips),
				"elapsed", time.Since(start).Round(time.Millisecond),
			)
			events <- Success{Root: asset.Root, Clips: asset.Clips}
			return asset, nil
		},
	})
	return events
}

// load fetches, decodes and imports the asset, consulting the cache first.
func (l *loader) load(ctx context.Context, location string, report func(LoadProgress)) (*Asset, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("load cancelled: %w", err)
	}

	if data, ok := l.cached(location); ok {
		report(LoadProgress{BytesLoaded: int64(len(data)), BytesTotal: int64(len(data))})
		asset, err := newGLTFImporter(l.cacheResolver(ctx, location)).Import(data, location)
		if err == nil {
			return asset, nil
		}
		l.logger.Warn("cached asset unusable, refetching", "source", location, "error", err)
	}

	src, err := openSource(ctx, l.client, location)
	if err != nil {
		return nil, err
	}
	defer src.body.Close()

	counter := newProgressReader(src.body, src.size, l.progressStep, report)
	decoded, err := decodeStream(location, counter)
	if err != nil {
		return nil, err
	}
	defer decoded.Close()

	data, err := io.ReadAll(decoded)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("load cancelled: %w", ctxErr)
		}
		return nil, fmt.Errorf("failed to read asset: %w", err)
	}
	counter.done()

	asset, err := newGLTFImporter(src.resolve).Import(data, location)
	if err != nil {
		return nil, err
	}

	if l.cache != nil && cacheable(location) {
		if err := l.cache.Put(location, data); err != nil {
			l.logger.Warn("failed to cache asset", "source", location, "error", err)
		}
	}
	return asset, nil
}

func (l *loader) cached(location string) ([]byte, bool) {
	if l.cache == nil || !cacheable(location) {
		return nil, false
	}
	data, ok, err := l.cache.Get(location)
	if err != nil {
		l.logger.Warn("asset cache read failed", "source", location, "error", err)
		return nil, false
	}
	if ok {
		l.logger.Debug("asset cache hit", "source", location, "bytes", len(data))
	}
	return data, ok
}

// cacheResolver resolves external buffers of a cached asset lazily, opening the
// original source only if the document actually references one.
func (l *loader) cacheResolver(ctx context.Context, location string) resolveFunc {
	return func(uri string) ([]byte, error) {
		src, err := openSource(ctx, l.client, location)
		if err != nil {
			return nil, err
		}
		src.body.Close()
		return src.resolve(uri)
	}
}
