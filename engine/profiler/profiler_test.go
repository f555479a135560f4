package profiler

import (
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-scrub/internal/logging"
)

func TestFrameReportsPerInterval(t *testing.T) {
	start := time.Unix(0, 0)
	p := NewProfiler(logging.Null(), time.Second, start)

	// 30 drawn and 30 skipped ticks spread over just under a second.
	for i := 1; i < 60; i++ {
		if _, ok := p.Frame(i%2 == 0, start.Add(time.Duration(i)*16*time.Millisecond)); ok {
			t.Fatalf("reported early at tick %d", i)
		}
	}
	s, ok := p.Frame(true, start.Add(time.Second))
	if !ok {
		t.Fatal("expected a report after one second")
	}
	if s.Drawn != 30 || s.Skipped != 30 {
		t.Errorf("drawn %d skipped %d, want 30/30", s.Drawn, s.Skipped)
	}
	if s.FPS != 30 {
		t.Errorf("fps = %v, want 30", s.FPS)
	}
	if s.SysMB <= 0 {
		t.Errorf("sys = %v", s.SysMB)
	}

	s, ok = p.Frame(true, start.Add(2*time.Second))
	if !ok || s.Drawn != 1 || s.Skipped != 0 {
		t.Errorf("counters not reset: %+v", s)
	}
}

func TestNewProfilerDefaults(t *testing.T) {
	p := NewProfiler(nil, 0, time.Unix(0, 0))
	if p.interval != time.Second || p.logger == nil {
		t.Errorf("defaults not applied: interval %v", p.interval)
	}
}
