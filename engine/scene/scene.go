package scene

import (
	"github.com/Carmen-Shannon/oxy-scrub/engine/camera"
	"github.com/Carmen-Shannon/oxy-scrub/engine/device"
	"github.com/Carmen-Shannon/oxy-scrub/engine/light"
	"github.com/chewxy/math32"
	"github.com/elliotchance/orderedmap/v2"
	"github.com/go-gl/mathgl/mgl32"
)

// Scene holds the camera, light rig and the single displayed asset.
//
// The graph is root -> pivot -> asset. The pivot offsets and scales the asset
// so its bounding box is centred at the origin; animation writes into the
// asset's nodes and never touches the pivot.
type Scene struct {
	quality    device.QualityConfig
	camera     camera.Camera
	rig        light.Rig
	background [4]float32
	fitSize    float32

	root  *Node
	pivot *Node
	asset *Node
	nodes *orderedmap.OrderedMap[string, *Node]
}

// Compose builds the scene for a quality tier: camera, light rig and an empty
// asset slot.
//
// Parameters:
//   - cfg: the quality config chosen at startup
//   - aspect: the initial viewport aspect ratio
//   - options: optional composition overrides
//
// Returns:
//   - *Scene: the composed scene
func Compose(cfg device.QualityConfig, aspect float32, options ...SceneBuilderOption) *Scene {
	b := &sceneBuilder{
		cameraPosition: mgl32.Vec3{0, 1.2, 4},
		background:     [4]float32{0.1, 0.1, 0.1, 1},
		fitSize:        DefaultFitSize,
	}
	for _, opt := range options {
		opt(b)
	}

	s := &Scene{
		quality:    cfg,
		background: b.background,
		fitSize:    b.fitSize,
		rig:        light.NewRig(cfg.LightSetup, cfg.ShadowsEnabled),
		root:       NewNode("root"),
		pivot:      NewNode("pivot"),
		nodes:      orderedmap.NewOrderedMap[string, *Node](),
	}
	s.root.AddChild(s.pivot)

	p, t := b.cameraPosition, b.cameraTarget
	s.camera = camera.NewCamera(
		camera.WithPosition(p.X(), p.Y(), p.Z()),
		camera.WithTarget(t.X(), t.Y(), t.Z()),
		camera.WithFov(mgl32.DegToRad(45)),
		camera.WithNear(0.1),
		camera.WithFar(100),
		camera.WithAspect(aspect),
	)
	s.Update()
	return s
}

// SetAsset places root in the scene, replacing any previous asset, and
// re-centres the pivot on the asset's bounding box. A nil root clears the slot.
func (s *Scene) SetAsset(root *Node) {
	if s.asset != nil {
		s.pivot.RemoveChild(s.asset)
	}
	s.asset = root
	s.nodes = orderedmap.NewOrderedMap[string, *Node]()
	s.pivot.Translation = mgl32.Vec3{}
	s.pivot.Scale = mgl32.Vec3{1, 1, 1}
	if root == nil {
		s.Update()
		return
	}

	s.pivot.AddChild(root)
	root.Walk(func(n *Node) {
		if n.Name == "" {
			return
		}
		if _, ok := s.nodes.Get(n.Name); !ok {
			s.nodes.Set(n.Name, n)
		}
	})

	root.UpdateWorld(mgl32.Ident4())
	bounds := root.WorldBounds()
	if bounds.Empty() {
		s.Update()
		return
	}

	scale := float32(1)
	if s.fitSize > 0 {
		size := bounds.Size()
		largest := math32.Max(size.X(), math32.Max(size.Y(), size.Z()))
		if largest > 0 && !math32.IsInf(largest, 0) {
			scale = s.fitSize / largest
		}
	}
	s.pivot.Scale = mgl32.Vec3{scale, scale, scale}
	s.pivot.Translation = bounds.Center().Mul(-scale)
	s.Update()
}

// Asset returns the asset root, or nil before SetAsset.
func (s *Scene) Asset() *Node {
	return s.asset
}

// Node looks up an asset node by name. The first node in depth-first order
// wins when names repeat.
func (s *Scene) Node(name string) (*Node, bool) {
	return s.nodes.Get(name)
}

// NodeNames lists the named asset nodes in depth-first order.
func (s *Scene) NodeNames() []string {
	return s.nodes.Keys()
}

// Update refreshes world matrices for the whole graph.
func (s *Scene) Update() {
	s.root.UpdateWorld(mgl32.Ident4())
}

// Root returns the scene root node.
func (s *Scene) Root() *Node {
	return s.root
}

// Camera returns the scene camera.
func (s *Scene) Camera() camera.Camera {
	return s.camera
}

// Lights returns the light rig.
func (s *Scene) Lights() light.Rig {
	return s.rig
}

// Background returns the clear colour.
func (s *Scene) Background() [4]float32 {
	return s.background
}

// Quality returns the quality config the scene was composed with.
func (s *Scene) Quality() device.QualityConfig {
	return s.quality
}
