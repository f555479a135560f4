package loader

import (
	"fmt"
	"path"
	"strings"

	"github.com/Carmen-Shannon/oxy-scrub/engine/animation"
	"github.com/Carmen-Shannon/oxy-scrub/engine/scene"
)

// Asset is a decoded glTF asset: its node hierarchy and animation clips.
type Asset struct {
	Root  *scene.Node
	Clips []*animation.Clip
}

// gltfImporterImpl is the implementation of the gltfImporter interface.
type gltfImporterImpl struct {
	resolve resolveFunc
}

// gltfImporter orchestrates a full glTF/GLB import: parse, hierarchy, animations.
type gltfImporter interface {
	// Import decodes a glTF JSON or GLB payload.
	//
	// Parameters:
	//   - data: the complete payload
	//   - source: the source location, used to name the asset root
	//
	// Returns:
	//   - *Asset: the decoded asset
	//   - error: error if import fails
	Import(data []byte, source string) (*Asset, error)
}

var _ gltfImporter = &gltfImporterImpl{}

// newGLTFImporter creates a new glTF importer.
//
// Parameters:
//   - resolve: loads relative buffer URIs, nil to reject them
//
// Returns:
//   - gltfImporter: the importer
func newGLTFImporter(resolve resolveFunc) gltfImporter {
	return &gltfImporterImpl{resolve: resolve}
}

func (imp *gltfImporterImpl) Import(data []byte, source string) (*Asset, error) {
	parser := newGLTFParser(imp.resolve)
	if err := parser.Parse(data); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", source, err)
	}
	doc := parser.Document()

	root, nodes, err := newGLTFNodeExtractor(parser).ExtractHierarchy(gltfExtractModelName(doc, source))
	if err != nil {
		return nil, fmt.Errorf("node extraction failed: %w", err)
	}

	clips, err := newGLTFAnimationExtractor(parser).ExtractAllAnimations(nodes)
	if err != nil {
		return nil, fmt.Errorf("animation extraction failed: %w", err)
	}

	return &Asset{Root: root, Clips: clips}, nil
}

// gltfExtractModelName derives a model name from the default scene or the source location.
func gltfExtractModelName(doc *gltfDocument, source string) string {
	if doc.Scene != nil && *doc.Scene >= 0 && *doc.Scene < len(doc.Scenes) {
		if name := doc.Scenes[*doc.Scene].Name; name != "" {
			return name
		}
	}

	if source != "" {
		base := path.Base(strings.ReplaceAll(source, "\\", "/"))
		for _, ext := range []string{".gz", ".zst", ".glb", ".gltf"} {
			base = strings.TrimSuffix(base, ext)
		}
		if base != "" && base != "." && base != "/" {
			return base
		}
	}

	return "asset"
}
