// Package config loads the viewer configuration from defaults, an optional YAML file,
// OXYSCRUB_* environment variables and command line flags, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. OXYSCRUB_ASSET_URL.
const EnvPrefix = "OXYSCRUB"

// Config holds all application configuration
type Config struct {
	Window    WindowConfig    `mapstructure:"window"`
	Asset     AssetConfig     `mapstructure:"asset"`
	Scroll    ScrollConfig    `mapstructure:"scroll"`
	Device    DeviceConfig    `mapstructure:"device"`
	Render    RenderConfig    `mapstructure:"render"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Remote    RemoteConfig    `mapstructure:"remote"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Debug     DebugConfig     `mapstructure:"debug"`
}

// WindowConfig holds the initial window setup
type WindowConfig struct {
	Title  string `mapstructure:"title"`
	Width  int    `mapstructure:"width"`
	Height int    `mapstructure:"height"`
}

// AssetConfig describes where the model comes from and how it is fetched
type AssetConfig struct {
	URL           string        `mapstructure:"url"`
	CompressedURL string        `mapstructure:"compressed_url"` // used when the tier prefers compressed payloads
	CachePath     string        `mapstructure:"cache_path"`     // bbolt file, empty disables caching
	Workers       int           `mapstructure:"workers"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

// ScrollConfig describes the virtual document scrolled by the window
type ScrollConfig struct {
	DocumentHeight float64 `mapstructure:"document_height"`
	WheelStep      float64 `mapstructure:"wheel_step"`
	LineStep       float64 `mapstructure:"line_step"`
}

// DeviceConfig holds device profiling hints and overrides
type DeviceConfig struct {
	WidthThreshold int    `mapstructure:"width_threshold"`
	UserAgent      string `mapstructure:"user_agent"`
	NetworkHint    string `mapstructure:"network_hint"`
	SaveData       bool   `mapstructure:"save_data"`
	ForceTier      string `mapstructure:"force_tier"` // "constrained", "full" or empty
}

// RenderConfig holds frame pacing settings
type RenderConfig struct {
	ConstrainedFPS int  `mapstructure:"constrained_fps"`
	FullFPS        int  `mapstructure:"full_fps"`
	VSync          bool `mapstructure:"vsync"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "text" or "json"
	File   string `mapstructure:"file"`   // empty logs to stderr
}

// RemoteConfig holds the websocket scroll feed settings
type RemoteConfig struct {
	ListenAddr string `mapstructure:"listen_addr"`
	Path       string `mapstructure:"path"`
}

// TelemetryConfig holds error reporting settings
type TelemetryConfig struct {
	SentryDSN   string `mapstructure:"sentry_dsn"`
	Environment string `mapstructure:"environment"`
}

// DebugConfig toggles developer tooling
type DebugConfig struct {
	Profiler      bool   `mapstructure:"profiler"`
	StatsviewAddr string `mapstructure:"statsview_addr"`
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Window: WindowConfig{
			Title:  "oxy-scrub",
			Width:  1280,
			Height: 720,
		},
		Asset: AssetConfig{
			URL:     filepath.Join("assets", "model.glb"),
			Workers: 2,
			Timeout: time.Minute,
		},
		Scroll: ScrollConfig{
			DocumentHeight: 4000,
			WheelStep:      100,
			LineStep:       40,
		},
		Device: DeviceConfig{
			WidthThreshold: 768,
		},
		Render: RenderConfig{
			ConstrainedFPS: 30,
			FullFPS:        60,
			VSync:          true,
		},
		Logging: LoggingConfig{
			Level:  "INFO",
			Format: "text",
		},
		Remote: RemoteConfig{
			Path: "/scroll",
		},
		Telemetry: TelemetryConfig{
			Environment: "development",
		},
	}
}

// flagKeys maps command line flag names onto configuration keys.
var flagKeys = map[string]string{
	"asset":     "asset.url",
	"tier":      "device.force_tier",
	"log-level": "logging.level",
	"remote":    "remote.listen_addr",
}

// RegisterFlags adds the flags understood by Load to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "path to a YAML config file")
	fs.String("asset", "", "asset path or URL (glTF / GLB)")
	fs.String("tier", "", "force the quality tier (constrained|full)")
	fs.String("log-level", "", "log level (debug|info|warn|error)")
	fs.String("remote", "", "listen address for the websocket scroll feed")
}

// Load builds the configuration. An empty path searches the default locations and a
// missing file there is not an error; an explicit path must exist.
//
// Parameters:
//   - path: explicit config file, or "" to search
//   - flags: parsed command line flags, may be nil
//
// Returns:
//   - *Config: the merged configuration
//   - error: error if the file cannot be read or the result is invalid
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("oxy-scrub")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(defaultConfigDir())
		v.AddConfigPath("/etc/oxy-scrub")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil && f.Changed {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag %q: %w", name, err)
				}
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges that would otherwise surface as confusing runtime behavior.
func (c *Config) Validate() error {
	var errs []error
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		errs = append(errs, fmt.Errorf("window size must be positive, got %dx%d", c.Window.Width, c.Window.Height))
	}
	if c.Asset.URL == "" {
		errs = append(errs, errors.New("asset.url is required"))
	}
	if c.Asset.Workers <= 0 {
		errs = append(errs, fmt.Errorf("asset.workers must be positive, got %d", c.Asset.Workers))
	}
	if c.Scroll.DocumentHeight < 0 {
		errs = append(errs, fmt.Errorf("scroll.document_height must not be negative, got %v", c.Scroll.DocumentHeight))
	}
	if c.Render.ConstrainedFPS <= 0 || c.Render.FullFPS <= 0 {
		errs = append(errs, fmt.Errorf("render frame rates must be positive, got %d/%d", c.Render.ConstrainedFPS, c.Render.FullFPS))
	}
	switch strings.ToLower(c.Device.ForceTier) {
	case "", "constrained", "full":
	default:
		errs = append(errs, fmt.Errorf("device.force_tier must be constrained or full, got %q", c.Device.ForceTier))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// setDefaults registers every key with viper so environment overrides resolve during Unmarshal.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("window.title", d.Window.Title)
	v.SetDefault("window.width", d.Window.Width)
	v.SetDefault("window.height", d.Window.Height)

	v.SetDefault("asset.url", d.Asset.URL)
	v.SetDefault("asset.compressed_url", d.Asset.CompressedURL)
	v.SetDefault("asset.cache_path", d.Asset.CachePath)
	v.SetDefault("asset.workers", d.Asset.Workers)
	v.SetDefault("asset.timeout", d.Asset.Timeout)

	v.SetDefault("scroll.document_height", d.Scroll.DocumentHeight)
	v.SetDefault("scroll.wheel_step", d.Scroll.WheelStep)
	v.SetDefault("scroll.line_step", d.Scroll.LineStep)

	v.SetDefault("device.width_threshold", d.Device.WidthThreshold)
	v.SetDefault("device.user_agent", d.Device.UserAgent)
	v.SetDefault("device.network_hint", d.Device.NetworkHint)
	v.SetDefault("device.save_data", d.Device.SaveData)
	v.SetDefault("device.force_tier", d.Device.ForceTier)

	v.SetDefault("render.constrained_fps", d.Render.ConstrainedFPS)
	v.SetDefault("render.full_fps", d.Render.FullFPS)
	v.SetDefault("render.vsync", d.Render.VSync)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.file", d.Logging.File)

	v.SetDefault("remote.listen_addr", d.Remote.ListenAddr)
	v.SetDefault("remote.path", d.Remote.Path)

	v.SetDefault("telemetry.sentry_dsn", d.Telemetry.SentryDSN)
	v.SetDefault("telemetry.environment", d.Telemetry.Environment)

	v.SetDefault("debug.profiler", d.Debug.Profiler)
	v.SetDefault("debug.statsview_addr", d.Debug.StatsviewAddr)
}

// defaultConfigDir returns the per-user config directory for the current OS
func defaultConfigDir() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "oxy-scrub")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "oxy-scrub")
	}
}
