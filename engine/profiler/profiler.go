package profiler

import (
	"log/slog"
	"runtime"
	"time"
)

// Stats summarises one reporting interval.
type Stats struct {
	// FPS is drawn frames per second over the interval.
	FPS float64
	// Drawn and Skipped count render loop ticks that drew or were throttled.
	Drawn   int
	Skipped int

	HeapMB      float64
	SysMB       float64
	AllocRateMB float64
	NumGC       uint32
	// LastPause and MaxPause are GC pauses; MaxPause covers collections since the previous report.
	LastPause time.Duration
	MaxPause  time.Duration
}

// Profiler tracks frame rate and memory statistics for performance monitoring.
// It reports through slog at a fixed interval.
type Profiler struct {
	logger         *slog.Logger
	interval       time.Duration
	drawn          int
	skipped        int
	lastTime       time.Time
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64
}

// NewProfiler creates a Profiler reporting every interval.
//
// Parameters:
//   - logger: receives the periodic report, nil for slog.Default
//   - interval: the reporting interval, non-positive for one second
//   - start: the start of the first interval
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(logger *slog.Logger, interval time.Duration, start time.Time) *Profiler {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = time.Second
	}
	return &Profiler{
		logger:   logger.With("component", "profiler"),
		interval: interval,
		lastTime: start,
	}
}

// Frame records one render loop tick and reports when the interval has elapsed.
//
// Parameters:
//   - drawn: whether the tick drew a frame
//   - now: the tick time
//
// Returns:
//   - Stats: the interval summary, valid only when the bool is true
//   - bool: true if an interval completed on this tick
func (p *Profiler) Frame(drawn bool, now time.Time) (Stats, bool) {
	if drawn {
		p.drawn++
	} else {
		p.skipped++
	}

	elapsed := now.Sub(p.lastTime)
	if elapsed < p.interval {
		return Stats{}, false
	}

	runtime.ReadMemStats(&p.memStats)
	s := Stats{
		FPS:         float64(p.drawn) / elapsed.Seconds(),
		Drawn:       p.drawn,
		Skipped:     p.skipped,
		HeapMB:      float64(p.memStats.Alloc) / 1024 / 1024,
		SysMB:       float64(p.memStats.Sys) / 1024 / 1024,
		AllocRateMB: float64(p.memStats.TotalAlloc-p.lastTotalAlloc) / 1024 / 1024 / elapsed.Seconds(),
		NumGC:       p.memStats.NumGC,
	}

	gcCount := p.memStats.NumGC
	if gcCount > 0 {
		// PauseNs is a circular buffer of the last 256 pauses
		s.LastPause = time.Duration(p.memStats.PauseNs[(gcCount-1)%256])
		startIdx := p.lastGCCount
		if gcCount-startIdx > 256 {
			startIdx = gcCount - 256
		}
		for i := startIdx; i < gcCount; i++ {
			s.MaxPause = max(s.MaxPause, time.Duration(p.memStats.PauseNs[i%256]))
		}
	}

	p.logger.Info("frame stats",
		"fps", s.FPS,
		"drawn", s.Drawn,
		"skipped", s.Skipped,
		"heap_mb", s.HeapMB,
		"alloc_rate_mb", s.AllocRateMB,
		"gc", s.NumGC,
		"gc_last", s.LastPause,
		"gc_max", s.MaxPause,
		"sys_mb", s.SysMB,
	)

	p.drawn, p.skipped = 0, 0
	p.lastTime = now
	p.lastGCCount = gcCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return s, true
}
