package scene

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Node is a transform in the scene graph. Its local transform is kept as
// translation / rotation / scale so animation channels can write each part
// independently; the world matrix is refreshed by UpdateWorld.
type Node struct {
	Name string

	Translation mgl32.Vec3
	Rotation    mgl32.Quat
	Scale       mgl32.Vec3

	// Meshes are drawn with this node's world matrix.
	Meshes []*Mesh

	parent   *Node
	children []*Node
	world    mgl32.Mat4
}

// NewNode creates a node with an identity transform.
//
// Parameters:
//   - name: the node name, may be empty
//
// Returns:
//   - *Node: the new node
func NewNode(name string) *Node {
	return &Node{
		Name:     name,
		Rotation: mgl32.QuatIdent(),
		Scale:    mgl32.Vec3{1, 1, 1},
		world:    mgl32.Ident4(),
	}
}

// AddChild attaches c under n, detaching it from any previous parent.
func (n *Node) AddChild(c *Node) {
	if c == nil || c == n {
		return
	}
	if c.parent != nil {
		c.parent.RemoveChild(c)
	}
	c.parent = n
	n.children = append(n.children, c)
}

// RemoveChild detaches c from n. It is a no-op if c is not a child of n.
func (n *Node) RemoveChild(c *Node) {
	for i, child := range n.children {
		if child == c {
			n.children = append(n.children[:i], n.children[i+1:]...)
			c.parent = nil
			return
		}
	}
}

// Children returns the direct children of n.
func (n *Node) Children() []*Node {
	return n.children
}

// Parent returns the parent of n, or nil for a root.
func (n *Node) Parent() *Node {
	return n.parent
}

// LocalMatrix composes T * R * S.
func (n *Node) LocalMatrix() mgl32.Mat4 {
	t := mgl32.Translate3D(n.Translation.X(), n.Translation.Y(), n.Translation.Z())
	s := mgl32.Scale3D(n.Scale.X(), n.Scale.Y(), n.Scale.Z())
	return t.Mul4(n.Rotation.Normalize().Mat4()).Mul4(s)
}

// SetLocalMatrix decomposes m into translation, rotation and scale.
// Shear is discarded; a negative determinant is folded into the X scale.
func (n *Node) SetLocalMatrix(m mgl32.Mat4) {
	n.Translation = m.Col(3).Vec3()

	c0, c1, c2 := m.Col(0).Vec3(), m.Col(1).Vec3(), m.Col(2).Vec3()
	sx, sy, sz := c0.Len(), c1.Len(), c2.Len()
	if m.Mat3().Det() < 0 {
		sx = -sx
	}
	n.Scale = mgl32.Vec3{sx, sy, sz}

	if sx == 0 || sy == 0 || sz == 0 {
		n.Rotation = mgl32.QuatIdent()
		return
	}
	rot := mgl32.Mat3FromCols(c0.Mul(1/sx), c1.Mul(1/sy), c2.Mul(1/sz))
	n.Rotation = mgl32.Mat4ToQuat(rot.Mat4()).Normalize()
}

// UpdateWorld recomputes the world matrix of n and all descendants.
//
// Parameters:
//   - parent: the world matrix of n's parent, or identity for a root
func (n *Node) UpdateWorld(parent mgl32.Mat4) {
	n.world = parent.Mul4(n.LocalMatrix())
	for _, c := range n.children {
		c.UpdateWorld(n.world)
	}
}

// World returns the world matrix computed by the last UpdateWorld.
func (n *Node) World() mgl32.Mat4 {
	return n.world
}

// Walk visits n and its descendants depth first.
func (n *Node) Walk(fn func(*Node)) {
	fn(n)
	for _, c := range n.children {
		c.Walk(fn)
	}
}

// WorldBounds returns the world-space bounding box of every mesh under n,
// using the world matrices from the last UpdateWorld.
func (n *Node) WorldBounds() Bounds {
	var b Bounds
	n.Walk(func(node *Node) {
		for _, m := range node.Meshes {
			if m.Bounds.Empty() {
				continue
			}
			for _, corner := range m.Bounds.Corners() {
				b.Extend(mgl32.TransformCoordinate(corner, node.world))
			}
		}
	})
	return b
}

// Bounds is an axis-aligned bounding box. The zero value is empty.
type Bounds struct {
	Min, Max mgl32.Vec3
	valid    bool
}

// Empty reports whether no point has been added.
func (b Bounds) Empty() bool {
	return !b.valid
}

// Extend grows b to include p.
func (b *Bounds) Extend(p mgl32.Vec3) {
	if !b.valid {
		b.Min, b.Max, b.valid = p, p, true
		return
	}
	for i := 0; i < 3; i++ {
		b.Min[i] = math32.Min(b.Min[i], p[i])
		b.Max[i] = math32.Max(b.Max[i], p[i])
	}
}

// Center returns the midpoint of the box.
func (b Bounds) Center() mgl32.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Size returns the extent along each axis.
func (b Bounds) Size() mgl32.Vec3 {
	return b.Max.Sub(b.Min)
}

// Corners returns the eight corners of the box.
func (b Bounds) Corners() [8]mgl32.Vec3 {
	var out [8]mgl32.Vec3
	for i := 0; i < 8; i++ {
		out[i] = mgl32.Vec3{
			pick(i&1 != 0, b.Max[0], b.Min[0]),
			pick(i&2 != 0, b.Max[1], b.Min[1]),
			pick(i&4 != 0, b.Max[2], b.Min[2]),
		}
	}
	return out
}

func pick(cond bool, a, b float32) float32 {
	if cond {
		return a
	}
	return b
}
