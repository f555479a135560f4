package device

import "strings"

// ProfilerBuilderOption is a functional option for configuring a Profiler.
type ProfilerBuilderOption func(*profiler)

// WithWidthThreshold sets the viewport width below which the constrained tier is chosen.
//
// Parameters:
//   - px: logical width in pixels; values <= 0 disable the width rule
//
// Returns:
//   - ProfilerBuilderOption: option function to apply
func WithWidthThreshold(px int) ProfilerBuilderOption {
	return func(p *profiler) {
		p.widthThreshold = px
	}
}

// WithSignatures adds user agent fragments that select the constrained tier.
// Matching is case-insensitive.
//
// Parameters:
//   - sigs: additional signatures
//
// Returns:
//   - ProfilerBuilderOption: option function to apply
func WithSignatures(sigs ...string) ProfilerBuilderOption {
	return func(p *profiler) {
		for _, s := range sigs {
			p.signatures = append(p.signatures, strings.ToLower(s))
		}
	}
}

// WithForcedTier makes Classify always return tier, ignoring signals.
//
// Parameters:
//   - tier: the tier to force
//
// Returns:
//   - ProfilerBuilderOption: option function to apply
func WithForcedTier(tier QualityTier) ProfilerBuilderOption {
	return func(p *profiler) {
		p.forced = &tier
	}
}

// WithTargetFPS sets the frame rate targets recorded in each tier's QualityConfig.
// Non-positive values keep the defaults (30 constrained, 60 full).
//
// Parameters:
//   - constrained: target frames per second for TierConstrained
//   - full: target frames per second for TierFull
//
// Returns:
//   - ProfilerBuilderOption: option function to apply
func WithTargetFPS(constrained, full int) ProfilerBuilderOption {
	return func(p *profiler) {
		if constrained > 0 {
			p.constrainedFPS = constrained
		}
		if full > 0 {
			p.fullFPS = full
		}
	}
}
