package loader

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-scrub/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
)

var defaultBaseColor = [4]float32{0.8, 0.8, 0.8, 1}

// gltfNodeExtractorImpl is the implementation of the gltfNodeExtractor interface.
type gltfNodeExtractorImpl struct {
	parser gltfParser
	meshes map[int][]*scene.Mesh
}

// gltfNodeExtractor defines the interface for extracting the node hierarchy and
// triangle meshes from a parsed glTF document.
type gltfNodeExtractor interface {
	// ExtractMesh extracts a single mesh by index, one scene.Mesh per triangle primitive.
	// Results are cached so nodes sharing a mesh share the same *scene.Mesh values.
	//
	// Parameters:
	//   - meshIndex: the index of the mesh to extract
	//
	// Returns:
	//   - []*scene.Mesh: the primitives of the mesh
	//   - error: error if extraction fails
	ExtractMesh(meshIndex int) ([]*scene.Mesh, error)

	// ExtractHierarchy builds the default scene under a single root node.
	//
	// Parameters:
	//   - name: the name given to the root node
	//
	// Returns:
	//   - *scene.Node: the asset root
	//   - []*scene.Node: scene nodes indexed by glTF node index, nil for nodes outside the scene
	//   - error: error if extraction fails
	ExtractHierarchy(name string) (*scene.Node, []*scene.Node, error)
}

var _ gltfNodeExtractor = &gltfNodeExtractorImpl{}

// newGLTFNodeExtractor creates a new node extractor for a parsed document.
//
// Parameters:
//   - parser: the parser containing a loaded document
//
// Returns:
//   - gltfNodeExtractor: the node extractor
func newGLTFNodeExtractor(parser gltfParser) gltfNodeExtractor {
	return &gltfNodeExtractorImpl{
		parser: parser,
		meshes: make(map[int][]*scene.Mesh),
	}
}

func (e *gltfNodeExtractorImpl) ExtractMesh(meshIndex int) ([]*scene.Mesh, error) {
	if cached, ok := e.meshes[meshIndex]; ok {
		return cached, nil
	}

	doc := e.parser.Document()
	if doc == nil {
		return nil, fmt.Errorf("no document loaded")
	}
	if meshIndex < 0 || meshIndex >= len(doc.Meshes) {
		return nil, fmt.Errorf("mesh index %d out of range", meshIndex)
	}

	mesh := &doc.Meshes[meshIndex]
	var out []*scene.Mesh
	for i := range mesh.Primitives {
		prim := &mesh.Primitives[i]
		if prim.Mode != nil && *prim.Mode != gltfPrimitiveModeTriangles {
			continue
		}

		posIdx, ok := prim.Attributes["POSITION"]
		if !ok {
			continue
		}
		positions, err := e.parser.ReadVec3Accessor(posIdx)
		if err != nil {
			return nil, fmt.Errorf("mesh %d primitive %d: failed to read positions: %w", meshIndex, i, err)
		}

		var normals [][3]float32
		if nIdx, ok := prim.Attributes["NORMAL"]; ok {
			normals, err = e.parser.ReadVec3Accessor(nIdx)
			if err != nil {
				return nil, fmt.Errorf("mesh %d primitive %d: failed to read normals: %w", meshIndex, i, err)
			}
		}

		var indices []uint32
		if prim.Indices != nil {
			indices, err = e.parser.ReadIndicesAccessor(*prim.Indices)
			if err != nil {
				return nil, fmt.Errorf("mesh %d primitive %d: failed to read indices: %w", meshIndex, i, err)
			}
			for _, idx := range indices {
				if int(idx) >= len(positions) {
					return nil, fmt.Errorf("mesh %d primitive %d: index %d out of range", meshIndex, i, idx)
				}
			}
		}

		name := mesh.Name
		if name == "" {
			name = fmt.Sprintf("mesh_%d", meshIndex)
		}
		if len(mesh.Primitives) > 1 {
			name = fmt.Sprintf("%s_%d", name, i)
		}
		out = append(out, scene.NewMesh(name, positions, normals, indices, e.baseColor(prim.Material)))
	}

	e.meshes[meshIndex] = out
	return out, nil
}

func (e *gltfNodeExtractorImpl) baseColor(material *int) [4]float32 {
	doc := e.parser.Document()
	if material == nil || *material < 0 || *material >= len(doc.Materials) {
		return defaultBaseColor
	}
	pbr := doc.Materials[*material].PbrMetallicRoughness
	if pbr == nil || pbr.BaseColorFactor == nil {
		return [4]float32{1, 1, 1, 1}
	}
	return *pbr.BaseColorFactor
}

func (e *gltfNodeExtractorImpl) ExtractHierarchy(name string) (*scene.Node, []*scene.Node, error) {
	doc := e.parser.Document()
	if doc == nil {
		return nil, nil, fmt.Errorf("no document loaded")
	}

	nodes := make([]*scene.Node, len(doc.Nodes))
	root := scene.NewNode(name)
	for _, idx := range gltfRootNodes(doc) {
		child, err := e.buildNode(idx, nodes)
		if err != nil {
			return nil, nil, err
		}
		root.AddChild(child)
	}
	return root, nodes, nil
}

// buildNode creates the scene node for a glTF node and its subtree. A node
// reached twice means the document is not a forest.
func (e *gltfNodeExtractorImpl) buildNode(idx int, built []*scene.Node) (*scene.Node, error) {
	doc := e.parser.Document()
	if idx < 0 || idx >= len(doc.Nodes) {
		return nil, fmt.Errorf("node index %d out of range", idx)
	}
	if built[idx] != nil {
		return nil, fmt.Errorf("node %d has more than one parent", idx)
	}

	src := &doc.Nodes[idx]
	n := scene.NewNode(src.Name)
	built[idx] = n

	if src.Matrix != nil {
		n.SetLocalMatrix(mgl32.Mat4(*src.Matrix))
	} else {
		if src.Translation != nil {
			n.Translation = mgl32.Vec3(*src.Translation)
		}
		if src.Rotation != nil {
			r := *src.Rotation
			n.Rotation = mgl32.Quat{W: r[3], V: mgl32.Vec3{r[0], r[1], r[2]}}.Normalize()
		}
		if src.Scale != nil {
			n.Scale = mgl32.Vec3(*src.Scale)
		}
	}

	if src.Mesh != nil {
		meshes, err := e.ExtractMesh(*src.Mesh)
		if err != nil {
			return nil, fmt.Errorf("node %d: %w", idx, err)
		}
		n.Meshes = meshes
	}

	for _, c := range src.Children {
		child, err := e.buildNode(c, built)
		if err != nil {
			return nil, err
		}
		n.AddChild(child)
	}
	return n, nil
}

// gltfRootNodes returns the root nodes of the default scene, falling back to
// the first scene and then to every node without a parent.
func gltfRootNodes(doc *gltfDocument) []int {
	if doc.Scene != nil && *doc.Scene >= 0 && *doc.Scene < len(doc.Scenes) {
		return doc.Scenes[*doc.Scene].Nodes
	}
	if len(doc.Scenes) > 0 {
		return doc.Scenes[0].Nodes
	}

	isChild := make([]bool, len(doc.Nodes))
	for _, n := range doc.Nodes {
		for _, c := range n.Children {
			if c >= 0 && c < len(isChild) {
				isChild[c] = true
			}
		}
	}
	var roots []int
	for i, child := range isChild {
		if !child {
			roots = append(roots, i)
		}
	}
	return roots
}
