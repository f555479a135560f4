package light

import "github.com/Carmen-Shannon/oxy-scrub/engine/device"

// Rig is the set of lights composed for a quality tier.
type Rig struct {
	// Ambient is the pre-multiplied ambient color added to every fragment.
	Ambient [3]float32

	Lights []Light
}

// NewRig builds the lights named by setup. When shadows is set, the key light is
// flagged as a shadow caster.
//
// Parameters:
//   - setup: the light setup chosen by the quality tier
//   - shadows: whether shadow casting is enabled for the tier
//
// Returns:
//   - Rig: the composed lights
func NewRig(setup device.LightSetup, shadows bool) Rig {
	switch setup {
	case device.LightSetupStudio:
		return Rig{
			Ambient: [3]float32{0.25, 0.25, 0.28},
			Lights: []Light{
				NewLight(LightTypeDirectional,
					WithDirection(-0.5, -1, -0.6),
					WithColor(1, 0.97, 0.92),
					WithIntensity(2.2),
					WithCastsShadows(shadows),
				),
				NewLight(LightTypeDirectional,
					WithDirection(0.7, -0.4, -0.3),
					WithColor(0.75, 0.82, 1),
					WithIntensity(0.8),
				),
				NewLight(LightTypePoint,
					WithPosition(0, 2.5, -3),
					WithColor(1, 1, 1),
					WithIntensity(3),
					WithRange(12),
				),
			},
		}
	default:
		return Rig{
			Ambient: [3]float32{0.35, 0.35, 0.38},
			Lights: []Light{
				NewLight(LightTypeDirectional,
					WithDirection(-0.5, -1, -0.6),
					WithColor(1, 0.97, 0.92),
					WithIntensity(1.6),
					WithCastsShadows(shadows),
				),
			},
		}
	}
}
