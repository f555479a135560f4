package loader

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-scrub/engine/animation"
	"github.com/Carmen-Shannon/oxy-scrub/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
)

// gltfAnimationExtractorImpl is the implementation of the gltfAnimationExtractor interface.
type gltfAnimationExtractorImpl struct {
	parser gltfParser
}

// gltfAnimationExtractor defines the interface for extracting node animations from a parsed glTF document.
// Channels are bound directly to the scene nodes built by the node extractor.
type gltfAnimationExtractor interface {
	// ExtractAnimation extracts a single animation by index.
	//
	// Parameters:
	//   - animIndex: the index of the animation in the document
	//   - nodes: scene nodes indexed by glTF node index
	//
	// Returns:
	//   - *animation.Clip: the extracted clip
	//   - error: error if extraction fails
	ExtractAnimation(animIndex int, nodes []*scene.Node) (*animation.Clip, error)

	// ExtractAllAnimations extracts every animation in document order.
	//
	// Parameters:
	//   - nodes: scene nodes indexed by glTF node index
	//
	// Returns:
	//   - []*animation.Clip: all extracted clips
	//   - error: error if extraction fails
	ExtractAllAnimations(nodes []*scene.Node) ([]*animation.Clip, error)
}

var _ gltfAnimationExtractor = &gltfAnimationExtractorImpl{}

// newGLTFAnimationExtractor creates a new animation extractor for a parsed document.
//
// Parameters:
//   - parser: the parser containing a loaded document
//
// Returns:
//   - gltfAnimationExtractor: the animation extractor
func newGLTFAnimationExtractor(parser gltfParser) gltfAnimationExtractor {
	return &gltfAnimationExtractorImpl{parser: parser}
}

func (e *gltfAnimationExtractorImpl) ExtractAnimation(animIndex int, nodes []*scene.Node) (*animation.Clip, error) {
	doc := e.parser.Document()
	if doc == nil {
		return nil, fmt.Errorf("no document loaded")
	}
	if animIndex < 0 || animIndex >= len(doc.Animations) {
		return nil, fmt.Errorf("animation index %d out of range", animIndex)
	}

	anim := &doc.Animations[animIndex]
	var channels []animation.Channel

	for i := range anim.Channels {
		ch := &anim.Channels[i]

		// Skip channels with no target node or a node outside the default scene
		if ch.Target.Node == nil || *ch.Target.Node < 0 || *ch.Target.Node >= len(nodes) {
			continue
		}
		target := nodes[*ch.Target.Node]
		if target == nil {
			continue
		}

		var path animation.Path
		switch ch.Target.Path {
		case gltfAnimPathTranslation:
			path = animation.PathTranslation
		case gltfAnimPathRotation:
			path = animation.PathRotation
		case gltfAnimPathScale:
			path = animation.PathScale
		default:
			// Morph target weights are not supported; skip
			continue
		}

		if ch.Sampler < 0 || ch.Sampler >= len(anim.Samplers) {
			return nil, fmt.Errorf("animation %q channel %d: invalid sampler index %d", anim.Name, i, ch.Sampler)
		}
		sampler := &anim.Samplers[ch.Sampler]

		interp, err := gltfInterpolation(sampler.Interpolation)
		if err != nil {
			return nil, fmt.Errorf("animation %q channel %d: %w", anim.Name, i, err)
		}

		times, err := e.parser.ReadScalarAccessor(sampler.Input)
		if err != nil {
			return nil, fmt.Errorf("animation %q channel %d: failed to read timestamps: %w", anim.Name, i, err)
		}

		values, err := e.readValues(path, sampler.Output)
		if err != nil {
			return nil, fmt.Errorf("animation %q channel %d: failed to read %s values: %w", anim.Name, i, ch.Target.Path, err)
		}

		channels = append(channels, animation.Channel{
			Target:        target,
			Path:          path,
			Interpolation: interp,
			Times:         times,
			Values:        values,
		})
	}

	name := anim.Name
	if name == "" {
		name = fmt.Sprintf("animation_%d", animIndex)
	}
	return animation.NewClip(name, channels), nil
}

func (e *gltfAnimationExtractorImpl) readValues(path animation.Path, accessor int) ([]mgl32.Vec4, error) {
	if path == animation.PathRotation {
		raw, err := e.parser.ReadVec4Accessor(accessor)
		if err != nil {
			return nil, err
		}
		out := make([]mgl32.Vec4, len(raw))
		for i, v := range raw {
			out[i] = mgl32.Vec4(v)
		}
		return out, nil
	}

	raw, err := e.parser.ReadVec3Accessor(accessor)
	if err != nil {
		return nil, err
	}
	out := make([]mgl32.Vec4, len(raw))
	for i, v := range raw {
		out[i] = mgl32.Vec4{v[0], v[1], v[2], 0}
	}
	return out, nil
}

func (e *gltfAnimationExtractorImpl) ExtractAllAnimations(nodes []*scene.Node) ([]*animation.Clip, error) {
	doc := e.parser.Document()
	if doc == nil {
		return nil, fmt.Errorf("no document loaded")
	}

	clips := make([]*animation.Clip, len(doc.Animations))
	for i := range doc.Animations {
		clip, err := e.ExtractAnimation(i, nodes)
		if err != nil {
			return nil, fmt.Errorf("animation %d: %w", i, err)
		}
		clips[i] = clip
	}
	return clips, nil
}

func gltfInterpolation(s string) (animation.Interpolation, error) {
	switch s {
	case "", gltfAnimInterpolationLinear:
		return animation.InterpolationLinear, nil
	case gltfAnimInterpolationStep:
		return animation.InterpolationStep, nil
	case gltfAnimInterpolationCubicSpline:
		return animation.InterpolationCubicSpline, nil
	default:
		return 0, fmt.Errorf("unknown interpolation %q", s)
	}
}
