// Package device classifies the runtime environment into a quality tier once at startup.
package device

import (
	"fmt"
	"runtime"
	"strings"
)

// QualityTier selects the rendering budget. It is decided once before any GPU resource
// exists and never changes for the life of the process.
type QualityTier int

const (
	// TierFull is the default tier for desktop-class devices.
	TierFull QualityTier = iota

	// TierConstrained caps frame rate, pixel density and lighting for small or slow devices.
	TierConstrained
)

// String returns the lower-case tier name.
func (t QualityTier) String() string {
	switch t {
	case TierConstrained:
		return "constrained"
	case TierFull:
		return "full"
	default:
		return fmt.Sprintf("QualityTier(%d)", int(t))
	}
}

// ParseTier parses a tier name. The empty string is not a tier.
//
// Parameters:
//   - s: "constrained" or "full", case-insensitive
//
// Returns:
//   - QualityTier: the parsed tier
//   - bool: false if s names no tier
func ParseTier(s string) (QualityTier, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "constrained":
		return TierConstrained, true
	case "full":
		return TierFull, true
	default:
		return TierFull, false
	}
}

// NetworkHint mirrors the Network Information API fields the classifier understands.
type NetworkHint struct {
	// EffectiveType is one of "slow-2g", "2g", "3g", "4g", or empty when unknown.
	EffectiveType string

	// SaveData reports that the user asked for reduced data usage.
	SaveData bool
}

// Signals are the environment observations fed to Classify.
type Signals struct {
	// ViewportWidth is the logical (unscaled) viewport width in pixels; 0 when unknown.
	ViewportWidth int

	// UserAgent is a browser-style user agent string.
	UserAgent string

	// Network is an optional connection quality hint.
	Network NetworkHint
}

// defaultSignatures are user agent fragments of devices known to struggle with the full tier.
var defaultSignatures = []string{
	"android",
	"iphone",
	"ipad",
	"ipod",
	"mobile",
	"silk",
	"kindle",
	"opera mini",
	"blackberry",
	"raspberry",
	"aarch64 mobile",
	"webos",
	// native hosts, see DefaultUserAgent
	"(ios;",
	"; arm)",
}

// slowNetworks are effective connection types treated as constrained.
var slowNetworks = map[string]bool{
	"slow-2g": true,
	"2g":      true,
	"3g":      true,
}

// profiler is the implementation of the Profiler interface.
type profiler struct {
	widthThreshold int
	signatures     []string
	forced         *QualityTier
	constrainedFPS int
	fullFPS        int
}

// Profiler decides the QualityTier and the configuration record derived from it.
type Profiler interface {
	// Classify maps environment signals to a tier. It is pure: no side effects, no errors.
	// Inconclusive signals resolve to TierFull.
	//
	// Parameters:
	//   - s: the observed signals
	//
	// Returns:
	//   - QualityTier: the selected tier
	Classify(s Signals) QualityTier

	// Config returns the quality configuration for a tier, including the configured frame rates.
	//
	// Parameters:
	//   - tier: the tier to describe
	//
	// Returns:
	//   - QualityConfig: the configuration record
	Config(tier QualityTier) QualityConfig
}

var _ Profiler = &profiler{}

// NewProfiler creates a Profiler with the default threshold (768 px) and signatures.
//
// Parameters:
//   - options: functional options to adjust thresholds, signatures and overrides
//
// Returns:
//   - Profiler: the configured profiler
func NewProfiler(options ...ProfilerBuilderOption) Profiler {
	p := &profiler{
		widthThreshold: 768,
		signatures:     append([]string(nil), defaultSignatures...),
		constrainedFPS: 30,
		fullFPS:        60,
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

// Classify runs the default profiler over s.
func Classify(s Signals) QualityTier {
	return NewProfiler().Classify(s)
}

func (p *profiler) Classify(s Signals) QualityTier {
	if p.forced != nil {
		return *p.forced
	}
	if s.ViewportWidth > 0 && s.ViewportWidth < p.widthThreshold {
		return TierConstrained
	}
	ua := strings.ToLower(s.UserAgent)
	for _, sig := range p.signatures {
		if sig != "" && strings.Contains(ua, sig) {
			return TierConstrained
		}
	}
	if s.Network.SaveData || slowNetworks[strings.ToLower(s.Network.EffectiveType)] {
		return TierConstrained
	}
	return TierFull
}

func (p *profiler) Config(tier QualityTier) QualityConfig {
	cfg := ConfigFor(tier)
	switch tier {
	case TierConstrained:
		cfg.TargetFPS = p.constrainedFPS
	default:
		cfg.TargetFPS = p.fullFPS
	}
	return cfg
}

// DefaultUserAgent synthesizes a user agent for the native host so mobile builds
// (GOOS android / ios, 32-bit ARM boards) hit the constrained signatures.
func DefaultUserAgent() string {
	return fmt.Sprintf("oxy-scrub (%s; %s)", runtime.GOOS, runtime.GOARCH)
}
