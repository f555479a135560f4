// Command oxy-scrub opens a window showing a glTF model whose animation is scrubbed by
// scrolling a virtual document with the mouse wheel, the keyboard or a remote websocket feed.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/Carmen-Shannon/oxy-scrub/common"
	"github.com/Carmen-Shannon/oxy-scrub/engine"
	"github.com/Carmen-Shannon/oxy-scrub/engine/device"
	"github.com/Carmen-Shannon/oxy-scrub/engine/loader"
	"github.com/Carmen-Shannon/oxy-scrub/engine/remote"
	"github.com/Carmen-Shannon/oxy-scrub/engine/renderer"
	"github.com/Carmen-Shannon/oxy-scrub/engine/scroll"
	"github.com/Carmen-Shannon/oxy-scrub/engine/window"
	"github.com/Carmen-Shannon/oxy-scrub/internal/cache"
	"github.com/Carmen-Shannon/oxy-scrub/internal/config"
	"github.com/Carmen-Shannon/oxy-scrub/internal/logging"
	"github.com/Carmen-Shannon/oxy-scrub/internal/telemetry"
	"github.com/spf13/pflag"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

// GLFW and the WebGPU surface must stay on the main thread.
func init() {
	runtime.LockOSThread()
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		if !errors.Is(err, pflag.ErrHelp) {
			fmt.Fprintln(os.Stderr, "oxy-scrub:", err)
			os.Exit(1)
		}
	}
}

func run(args []string) error {
	// ── Configuration ───────────────────────────────────────────────────
	fs := pflag.NewFlagSet("oxy-scrub", pflag.ContinueOnError)
	config.RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	configPath, _ := fs.GetString("config")
	cfg, err := config.Load(configPath, fs)
	if err != nil {
		return err
	}

	logger, closeLog, err := logging.Setup(cfg.Logging)
	if err != nil {
		return err
	}
	defer closeLog()
	slog.SetDefault(logger)

	enabled, err := telemetry.Init(cfg.Telemetry, version)
	if err != nil {
		logger.Warn("error reporting disabled", "error", err)
	}
	if enabled {
		defer telemetry.Flush()
	}
	defer telemetry.Recover()

	if cfg.Debug.StatsviewAddr != "" {
		stop := telemetry.StartStatsview(cfg.Debug.StatsviewAddr)
		defer stop()
		logger.Info("statsview listening", "addr", cfg.Debug.StatsviewAddr)
	}

	// ── Device profile ──────────────────────────────────────────────────
	quality := profile(cfg)
	logger.Info("device profiled",
		"tier", quality.Tier.String(),
		"target_fps", quality.TargetFPS,
		"pixel_ratio_cap", quality.PixelRatioCap,
	)

	// ── Window + Renderer ───────────────────────────────────────────────
	win := window.NewWindow(
		window.WithTitle(cfg.Window.Title),
		window.WithWidth(cfg.Window.Width),
		window.WithHeight(cfg.Window.Height),
		window.WithMinSize(160, 120),
		window.WithHighDPI(quality.PixelRatioCap > 1),
	)

	presentMode := renderer.PresentModeVSync
	if !cfg.Render.VSync {
		presentMode = renderer.PresentModeUncapped
	}
	r := renderer.NewRenderer(win.SurfaceDescriptor(), win.Width(), win.Height(),
		renderer.WithAntialias(quality.Antialias),
		renderer.WithPresentMode(presentMode),
		renderer.WithLogger(logger),
	)

	// ── Asset loader ────────────────────────────────────────────────────
	loaderOptions := []loader.LoaderBuilderOption{
		loader.WithLogger(logger),
		loader.WithHTTPClient(&http.Client{Timeout: cfg.Asset.Timeout}),
		loader.WithWorkers(cfg.Asset.Workers),
	}
	if cfg.Asset.CachePath != "" {
		c, err := cache.Open(cfg.Asset.CachePath)
		if err != nil {
			logger.Warn("asset cache disabled", "path", cfg.Asset.CachePath, "error", err)
		} else {
			defer c.Close()
			loaderOptions = append(loaderOptions, loader.WithCache(c))
		}
	}
	location := loader.SelectSource(quality.Decoder, cfg.Asset.URL, cfg.Asset.CompressedURL)

	// ── Engine ──────────────────────────────────────────────────────────
	engineOptions := []engine.EngineBuilderOption{
		engine.WithWindow(win),
		engine.WithRenderer(r),
		engine.WithLogger(logger),
		engine.WithAsset(loader.NewLoader(loaderOptions...), location),
		engine.WithDocumentHeight(cfg.Scroll.DocumentHeight),
		engine.WithBinderOptions(
			scroll.WithWheelStep(cfg.Scroll.WheelStep),
			scroll.WithLineStep(cfg.Scroll.LineStep),
		),
	}
	if cfg.Debug.Profiler {
		engineOptions = append(engineOptions, engine.WithProfiling(engine.DefaultProfileInterval))
	}
	if cfg.Remote.ListenAddr != "" {
		srv, err := remote.Listen(cfg.Remote.ListenAddr,
			remote.WithPath(cfg.Remote.Path),
			remote.WithLogger(logger),
		)
		if err != nil {
			r.Release()
			win.Close()
			return fmt.Errorf("failed to start remote scroll feed: %w", err)
		}
		engineOptions = append(engineOptions, engine.WithRemote(srv))
	}

	eng, err := engine.NewEngine(quality, engineOptions...)
	if err != nil {
		return err
	}
	defer func() {
		if err := eng.Close(); err != nil {
			logger.Error("shutdown", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return eng.Run(ctx)
}

// profile classifies the host once at startup. The configured window width stands in for
// the viewport width since no window exists yet.
func profile(cfg *config.Config) device.QualityConfig {
	options := []device.ProfilerBuilderOption{
		device.WithWidthThreshold(cfg.Device.WidthThreshold),
		device.WithTargetFPS(cfg.Render.ConstrainedFPS, cfg.Render.FullFPS),
	}
	if tier, ok := device.ParseTier(cfg.Device.ForceTier); ok {
		options = append(options, device.WithForcedTier(tier))
	}
	p := device.NewProfiler(options...)

	tier := p.Classify(device.Signals{
		ViewportWidth: cfg.Window.Width,
		UserAgent:     common.Coalesce(cfg.Device.UserAgent, device.DefaultUserAgent()),
		Network: device.NetworkHint{
			EffectiveType: cfg.Device.NetworkHint,
			SaveData:      cfg.Device.SaveData,
		},
	})
	return p.Config(tier)
}
