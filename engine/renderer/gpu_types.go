package renderer

import (
	"github.com/Carmen-Shannon/oxy-scrub/common"
	"github.com/Carmen-Shannon/oxy-scrub/engine/camera"
	"github.com/Carmen-Shannon/oxy-scrub/engine/light"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	// FrameUniformSize is the byte size of FrameUniform, matching the WGSL Frame struct.
	FrameUniformSize = 96 + light.MaxGPULights*light.GPULightSize

	// ObjectUniformSize is the byte size of ObjectUniform, matching the WGSL Object struct.
	ObjectUniformSize = 144

	// ObjectUniformStride is the distance between object slots in the object buffer.
	// Dynamic uniform offsets must be multiples of minUniformBufferOffsetAlignment (256).
	ObjectUniformStride = 256
)

// FrameUniform is the GPU-aligned per-frame data shared by every draw.
type FrameUniform struct {
	ViewProj   mgl32.Mat4                                    // offset  0
	CameraPos  [3]float32                                    // offset 64
	LightCount uint32                                        // offset 76
	Ambient    [4]float32                                    // offset 80: rgb, w unused
	Lights     [light.MaxGPULights * light.GPULightSize]byte // offset 96
}

// ObjectUniform is the GPU-aligned per-draw data.
type ObjectUniform struct {
	Model  mgl32.Mat4 // offset   0
	Normal mgl32.Mat4 // offset  64: inverse transpose of Model, upper 3x3 used
	Color  [4]float32 // offset 128
}

// NewFrameUniform packs the camera and light rig.
//
// Parameters:
//   - cam: the scene camera
//   - rig: the composed lights
//
// Returns:
//   - FrameUniform: the packed uniform
func NewFrameUniform(cam camera.Camera, rig light.Rig) FrameUniform {
	lights, n := light.MarshalLights(rig.Lights)
	pos := cam.Position()
	u := FrameUniform{
		ViewProj:   cam.ViewProjectionMatrix(),
		CameraPos:  [3]float32{pos.X(), pos.Y(), pos.Z()},
		LightCount: n,
		Ambient:    [4]float32{rig.Ambient[0], rig.Ambient[1], rig.Ambient[2], 1},
	}
	copy(u.Lights[:], lights)
	return u
}

// NewObjectUniform packs a model matrix and base color. A singular model matrix yields a
// zero normal matrix, which the shader tolerates.
func NewObjectUniform(model mgl32.Mat4, color [4]float32) ObjectUniform {
	return ObjectUniform{
		Model:  model,
		Normal: model.Inv().Transpose(),
		Color:  color,
	}
}

// Bytes returns the uniform as raw bytes for upload.
func (u *FrameUniform) Bytes() []byte {
	return common.StructToBytes(u)
}

// Bytes returns the uniform as raw bytes for upload.
func (u *ObjectUniform) Bytes() []byte {
	return common.StructToBytes(u)
}
