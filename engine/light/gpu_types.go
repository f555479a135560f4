package light

import (
	"encoding/binary"
	"math"
)

// MaxGPULights is the number of light slots in the renderer's frame uniform.
// Lights beyond this budget are not evaluated.
const MaxGPULights = 4

// GPULightSize is the byte size of one marshaled GPULight.
const GPULightSize = 48

// GPULight is the GPU-aligned representation of a single light source.
// Matches the WGSL Light struct in the renderer's shader (48 bytes, uniform array stride).
type GPULight struct {
	Position   [3]float32 // offset  0: world-space position (point) or unused (directional)
	LightType  uint32     // offset 12: 0 = directional, 1 = point
	Color      [3]float32 // offset 16: RGB color
	Intensity  float32    // offset 28: scalar multiplier
	Direction  [3]float32 // offset 32: normalized direction (directional) or unused (point)
	LightRange float32    // offset 44: attenuation cutoff distance
}

// ToGPU converts l to its GPU representation.
func ToGPU(l Light) GPULight {
	return GPULight{
		Position:   l.Position(),
		LightType:  uint32(l.Type()),
		Color:      l.Color(),
		Intensity:  l.Intensity(),
		Direction:  l.Direction(),
		LightRange: l.Range(),
	}
}

// Marshal serializes the GPULight struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 48-byte buffer ready for GPU upload
func (g *GPULight) Marshal() []byte {
	buf := make([]byte, GPULightSize)
	putVec3(buf[0:12], g.Position)
	binary.LittleEndian.PutUint32(buf[12:16], g.LightType)
	putVec3(buf[16:28], g.Color)
	binary.LittleEndian.PutUint32(buf[28:32], math.Float32bits(g.Intensity))
	putVec3(buf[32:44], g.Direction)
	binary.LittleEndian.PutUint32(buf[44:48], math.Float32bits(g.LightRange))
	return buf
}

// MarshalLights packs up to MaxGPULights enabled lights into a fixed-size block and
// returns it with the number of lights written.
func MarshalLights(lights []Light) ([]byte, uint32) {
	buf := make([]byte, MaxGPULights*GPULightSize)
	var n uint32
	for _, l := range lights {
		if l == nil || !l.Enabled() {
			continue
		}
		if n == MaxGPULights {
			break
		}
		g := ToGPU(l)
		copy(buf[n*GPULightSize:], g.Marshal())
		n++
	}
	return buf, n
}

func putVec3(dst []byte, v [3]float32) {
	binary.LittleEndian.PutUint32(dst[0:4], math.Float32bits(v[0]))
	binary.LittleEndian.PutUint32(dst[4:8], math.Float32bits(v[1]))
	binary.LittleEndian.PutUint32(dst[8:12], math.Float32bits(v[2]))
}
