// Package telemetry wires error reporting (Sentry) and the optional runtime stats dashboard.
package telemetry

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/Carmen-Shannon/oxy-scrub/internal/config"
	"github.com/getsentry/sentry-go"
	"github.com/go-echarts/statsview"
	"github.com/go-echarts/statsview/viewer"
)

// flushTimeout bounds how long shutdown and panic paths wait for queued events.
const flushTimeout = 5 * time.Second

// Init configures the global Sentry client. An empty DSN leaves reporting disabled,
// in which case CaptureError and Recover only log.
//
// Parameters:
//   - cfg: the telemetry section of the configuration
//   - release: the release identifier attached to events
//
// Returns:
//   - bool: true if a client was installed
//   - error: error if the DSN is malformed
func Init(cfg config.TelemetryConfig, release string) (bool, error) {
	if cfg.SentryDSN == "" {
		return false, nil
	}
	err := sentry.Init(sentry.ClientOptions{
		Dsn:         cfg.SentryDSN,
		Environment: cfg.Environment,
		Release:     release,
	})
	if err != nil {
		return false, fmt.Errorf("failed to init sentry: %w", err)
	}
	return true, nil
}

// CaptureError reports err with the given tags on a cloned hub so tags never leak
// into unrelated events.
func CaptureError(err error, tags map[string]string) {
	if err == nil {
		return
	}
	hub := sentry.CurrentHub().Clone()
	hub.ConfigureScope(func(scope *sentry.Scope) {
		for k, v := range tags {
			scope.SetTag(k, v)
		}
	})
	hub.CaptureException(err)
}

// Recover reports a panic in progress, flushes, and re-panics. Use it directly with defer.
func Recover() {
	if r := recover(); r != nil {
		slog.Error("panic", "value", r)
		hub := sentry.CurrentHub().Clone()
		hub.Recover(r)
		hub.Flush(flushTimeout)
		panic(r)
	}
}

// Flush waits for buffered events to be delivered.
func Flush() {
	sentry.Flush(flushTimeout)
}

// StartStatsview serves the go-echarts runtime dashboard on addr until the returned
// stop function is called.
func StartStatsview(addr string) (stop func()) {
	// set configurations before calling `statsview.New()` method
	viewer.SetConfiguration(viewer.WithTheme(viewer.ThemeWesteros), viewer.WithAddr(addr))

	mgr := statsview.New()
	go mgr.Start()
	return mgr.Stop
}
