package scene

import "github.com/go-gl/mathgl/mgl32"

// Vertex is the interleaved layout uploaded to the GPU: position then normal.
type Vertex struct {
	Position [3]float32
	Normal   [3]float32
}

// VertexStride is the byte size of one Vertex.
const VertexStride = 24

// Mesh is a triangle list with a single base colour.
type Mesh struct {
	Name      string
	Vertices  []Vertex
	Indices   []uint32
	BaseColor [4]float32

	// Bounds is the local-space bounding box of the positions.
	Bounds Bounds
}

// NewMesh builds a mesh from separate attribute streams. Missing normals are
// generated from the triangle faces; missing indices are generated as a plain
// triangle list.
//
// Parameters:
//   - name: the mesh name
//   - positions: vertex positions
//   - normals: vertex normals, nil or mismatched in length to generate them
//   - indices: triangle indices, nil for non-indexed geometry
//   - color: the RGBA base colour
//
// Returns:
//   - *Mesh: the assembled mesh
func NewMesh(name string, positions, normals [][3]float32, indices []uint32, color [4]float32) *Mesh {
	m := &Mesh{
		Name:      name,
		Vertices:  make([]Vertex, len(positions)),
		Indices:   indices,
		BaseColor: color,
	}
	if m.Indices == nil {
		m.Indices = make([]uint32, len(positions)-len(positions)%3)
		for i := range m.Indices {
			m.Indices[i] = uint32(i)
		}
	}
	for i, p := range positions {
		m.Vertices[i].Position = p
		m.Bounds.Extend(mgl32.Vec3(p))
	}
	if len(normals) == len(positions) {
		for i, n := range normals {
			m.Vertices[i].Normal = n
		}
	} else {
		m.generateNormals()
	}
	return m
}

// generateNormals accumulates area-weighted face normals per vertex.
func (m *Mesh) generateNormals() {
	acc := make([]mgl32.Vec3, len(m.Vertices))
	for i := 0; i+2 < len(m.Indices); i += 3 {
		a, b, c := m.Indices[i], m.Indices[i+1], m.Indices[i+2]
		if int(a) >= len(acc) || int(b) >= len(acc) || int(c) >= len(acc) {
			continue
		}
		pa := mgl32.Vec3(m.Vertices[a].Position)
		pb := mgl32.Vec3(m.Vertices[b].Position)
		pc := mgl32.Vec3(m.Vertices[c].Position)
		face := pb.Sub(pa).Cross(pc.Sub(pa))
		acc[a] = acc[a].Add(face)
		acc[b] = acc[b].Add(face)
		acc[c] = acc[c].Add(face)
	}
	for i, n := range acc {
		if n.Len() > 0 {
			n = n.Normalize()
		} else {
			n = mgl32.Vec3{0, 1, 0}
		}
		m.Vertices[i].Normal = n
	}
}

// IndexCount is the number of indices drawn.
func (m *Mesh) IndexCount() uint32 {
	return uint32(len(m.Indices))
}
