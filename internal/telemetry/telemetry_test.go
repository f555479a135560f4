package telemetry

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/oxy-scrub/internal/config"
)

func TestInitDisabledWithoutDSN(t *testing.T) {
	enabled, err := Init(config.TelemetryConfig{}, "test")
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if enabled {
		t.Fatal("expected reporting to stay disabled without a DSN")
	}
}

func TestInitRejectsMalformedDSN(t *testing.T) {
	if _, err := Init(config.TelemetryConfig{SentryDSN: "::not-a-dsn"}, "test"); err == nil {
		t.Fatal("expected an error for a malformed DSN")
	}
}

func TestCaptureErrorWithoutClient(t *testing.T) {
	CaptureError(errors.New("boom"), map[string]string{"component": "loader"})
	CaptureError(nil, nil)
	Flush()
}

func TestRecoverRepanics(t *testing.T) {
	defer func() {
		if r := recover(); r != "boom" {
			t.Fatalf("recovered %v, want boom", r)
		}
	}()
	func() {
		defer Recover()
		panic("boom")
	}()
}
