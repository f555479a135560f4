package device

import "time"

// LightSetup names a light rig. SceneComposer turns it into concrete lights.
type LightSetup int

const (
	// LightSetupMinimal is ambient plus a single directional key light.
	LightSetupMinimal LightSetup = iota

	// LightSetupStudio is ambient plus key and fill directional lights and a rim point light.
	LightSetupStudio
)

// DecoderPolicy controls which asset variant is fetched and how it is decoded.
type DecoderPolicy struct {
	// PreferCompressed fetches the compressed asset variant when one is configured.
	PreferCompressed bool
}

// QualityConfig is the single record every tier-dependent component reads.
type QualityConfig struct {
	Tier QualityTier

	// Antialias enables MSAA on the render surface.
	Antialias bool

	// PixelRatioCap limits the device pixel ratio used to size the render surface.
	PixelRatioCap float32

	// ShadowsEnabled marks the key light as a shadow caster.
	ShadowsEnabled bool

	// TargetFPS is the frame rate the render loop throttles to on the constrained tier.
	TargetFPS int

	LightSetup LightSetup
	Decoder    DecoderPolicy
}

// ConfigFor returns the default configuration record for tier.
//
// Parameters:
//   - tier: the tier to describe
//
// Returns:
//   - QualityConfig: the configuration record
func ConfigFor(tier QualityTier) QualityConfig {
	if tier == TierConstrained {
		return QualityConfig{
			Tier:           TierConstrained,
			Antialias:      false,
			PixelRatioCap:  1,
			ShadowsEnabled: false,
			TargetFPS:      30,
			LightSetup:     LightSetupMinimal,
			Decoder:        DecoderPolicy{PreferCompressed: true},
		}
	}
	return QualityConfig{
		Tier:           TierFull,
		Antialias:      true,
		PixelRatioCap:  2,
		ShadowsEnabled: true,
		TargetFPS:      60,
		LightSetup:     LightSetupStudio,
		Decoder:        DecoderPolicy{PreferCompressed: false},
	}
}

// FrameInterval returns 1s / TargetFPS, or 0 when the target is unset.
func (c QualityConfig) FrameInterval() time.Duration {
	if c.TargetFPS <= 0 {
		return 0
	}
	return time.Second / time.Duration(c.TargetFPS)
}

// Throttled reports whether the render loop skips early ticks for this configuration.
func (c QualityConfig) Throttled() bool {
	return c.Tier == TierConstrained
}
