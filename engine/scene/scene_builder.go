package scene

import "github.com/go-gl/mathgl/mgl32"

// DefaultFitSize is the largest extent an asset is scaled to by SetAsset.
const DefaultFitSize float32 = 2

type sceneBuilder struct {
	cameraPosition mgl32.Vec3
	cameraTarget   mgl32.Vec3
	background     [4]float32
	fitSize        float32
}

// SceneBuilderOption configures Compose.
type SceneBuilderOption func(*sceneBuilder)

// WithCameraPosition sets the camera eye position.
//
// Parameters:
//   - x, y, z: the eye position in world space
//
// Returns:
//   - SceneBuilderOption: the option
func WithCameraPosition(x, y, z float32) SceneBuilderOption {
	return func(b *sceneBuilder) {
		b.cameraPosition = mgl32.Vec3{x, y, z}
	}
}

// WithCameraTarget sets the point the camera looks at.
func WithCameraTarget(x, y, z float32) SceneBuilderOption {
	return func(b *sceneBuilder) {
		b.cameraTarget = mgl32.Vec3{x, y, z}
	}
}

// WithBackground sets the clear colour.
func WithBackground(r, g, b, a float32) SceneBuilderOption {
	return func(sb *sceneBuilder) {
		sb.background = [4]float32{r, g, b, a}
	}
}

// WithFitSize sets the largest extent the asset is scaled to. Zero or a
// negative size keeps the asset at its authored scale.
func WithFitSize(size float32) SceneBuilderOption {
	return func(b *sceneBuilder) {
		b.fitSize = size
	}
}
