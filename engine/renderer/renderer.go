// Package renderer draws a composed scene through WebGPU.
package renderer

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Carmen-Shannon/oxy-scrub/common"
	"github.com/Carmen-Shannon/oxy-scrub/engine/scene"
	"github.com/cogentcore/webgpu/wgpu"
)

// ErrNilScene is returned by Render when no scene is given.
var ErrNilScene = errors.New("renderer: nil scene")

// drawItem is one mesh of one node queued for the current frame.
type drawItem struct {
	node *scene.Node
	mesh *scene.Mesh
	gpu  MeshBuffers
}

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu      *sync.Mutex
	backend RendererBackend
	logger  *slog.Logger

	// meshes holds GPU buffers keyed by the mesh they were uploaded from.
	meshes map[*scene.Mesh]MeshBuffers

	draws   []drawItem
	objects []byte

	width  int
	height int

	pendingPresentMode   *PresentMode
	pendingMSAA          *MSAASampleCount
	forceFallbackAdapter bool
}

// Renderer draws a scene.Scene to the window surface.
type Renderer interface {
	// Resize reconfigures the render surface. Zero or negative sizes are ignored.
	//
	// Parameters:
	//   - width: the new surface width in pixels
	//   - height: the new surface height in pixels
	Resize(width, height int)

	// Size returns the current surface size in pixels.
	Size() (int, int)

	// Render draws one frame of s: the background, then every mesh under the scene root
	// with its node's world transform. World matrices are read as they are; callers refresh
	// them with Scene.Update. Meshes are uploaded to the GPU the first time they are drawn
	// and released once they no longer appear in the scene.
	//
	// Parameters:
	//   - s: the scene to draw
	//
	// Returns:
	//   - error: an error if a mesh could not be uploaded or the frame could not be acquired
	Render(s *scene.Scene) error

	// Release frees all GPU resources. The Renderer must not be used afterwards.
	Release()
}

var _ Renderer = &renderer{}

// NewRenderer creates the WebGPU renderer for the given surface.
// The surface descriptor is platform-specific and is typically obtained from Window.SurfaceDescriptor().
// Panics if no adapter or device is available.
//
// Parameters:
//   - surfaceDescriptor: the platform-specific surface descriptor for WebGPU surface creation
//   - width: initial surface width in pixels
//   - height: initial surface height in pixels
//   - options: variadic list of RendererBuilderOption functions to configure the Renderer
//
// Returns:
//   - Renderer: the configured renderer
func NewRenderer(surfaceDescriptor *wgpu.SurfaceDescriptor, width, height int, options ...RendererBuilderOption) Renderer {
	r := newRenderer(options...)

	msaa := MSAA4x
	if r.pendingMSAA != nil {
		msaa = *r.pendingMSAA
	}
	r.backend = newWGPURendererBackend(surfaceDescriptor, r.forceFallbackAdapter, msaa)
	r.start(width, height)
	return r
}

// newRendererWithBackend wires a renderer to an existing backend.
func newRendererWithBackend(backend RendererBackend, width, height int, options ...RendererBuilderOption) *renderer {
	r := newRenderer(options...)
	r.backend = backend
	r.start(width, height)
	return r
}

func newRenderer(options ...RendererBuilderOption) *renderer {
	r := &renderer{
		mu:     &sync.Mutex{},
		logger: slog.Default(),
		meshes: make(map[*scene.Mesh]MeshBuffers),
	}
	for _, opt := range options {
		opt(r)
	}
	r.logger = r.logger.With("component", "renderer")
	return r
}

func (r *renderer) start(width, height int) {
	mode := PresentModeVSync
	if r.pendingPresentMode != nil {
		mode = *r.pendingPresentMode
	}
	r.backend.SetPresentMode(mode)
	r.width = max(width, 1)
	r.height = max(height, 1)
	r.backend.ConfigureSurface(r.width, r.height)
}

func (r *renderer) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if width == r.width && height == r.height {
		return
	}
	r.width, r.height = width, height
	r.backend.ConfigureSurface(width, height)
	r.logger.Debug("surface resized", "width", width, "height", height)
}

func (r *renderer) Size() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.width, r.height
}

func (r *renderer) Render(s *scene.Scene) error {
	if s == nil {
		return ErrNilScene
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.collect(s.Root()); err != nil {
		return err
	}

	frame := NewFrameUniform(s.Camera(), s.Lights())
	r.packObjects()

	r.backend.SetClearColor(s.Background())
	if err := r.backend.BeginFrame(frame.Bytes(), r.objects, len(r.draws)); err != nil {
		return fmt.Errorf("begin frame: %w", err)
	}
	for i, d := range r.draws {
		r.backend.DrawMesh(d.gpu, i)
	}
	r.backend.EndFrame()
	r.backend.Present()
	return nil
}

// collect queues every drawable mesh under root, uploading new meshes and releasing the
// ones that left the scene.
func (r *renderer) collect(root *scene.Node) error {
	r.draws = r.draws[:0]
	seen := make(map[*scene.Mesh]struct{}, len(r.meshes))

	var uploadErr error
	root.Walk(func(n *scene.Node) {
		if uploadErr != nil {
			return
		}
		for _, m := range n.Meshes {
			if m == nil || m.IndexCount() == 0 {
				continue
			}
			gpu, err := r.upload(m)
			if err != nil {
				uploadErr = fmt.Errorf("upload mesh %q: %w", m.Name, err)
				return
			}
			seen[m] = struct{}{}
			r.draws = append(r.draws, drawItem{node: n, mesh: m, gpu: gpu})
		}
	})
	if uploadErr != nil {
		return uploadErr
	}

	if len(seen) < len(r.meshes) {
		for m, gpu := range r.meshes {
			if _, ok := seen[m]; !ok {
				gpu.Release()
				delete(r.meshes, m)
			}
		}
	}
	return nil
}

func (r *renderer) upload(m *scene.Mesh) (MeshBuffers, error) {
	if gpu, ok := r.meshes[m]; ok {
		return gpu, nil
	}
	gpu, err := r.backend.UploadMesh(m.Name, common.SliceToBytes(m.Vertices), common.SliceToBytes(m.Indices), m.IndexCount())
	if err != nil {
		return nil, err
	}
	r.meshes[m] = gpu
	r.logger.Debug("mesh uploaded", "mesh", m.Name, "vertices", len(m.Vertices), "indices", m.IndexCount())
	return gpu, nil
}

// packObjects writes one object uniform slot per queued draw.
func (r *renderer) packObjects() {
	size := len(r.draws) * ObjectUniformStride
	if cap(r.objects) < size {
		r.objects = make([]byte, size)
	}
	r.objects = r.objects[:size]
	for i, d := range r.draws {
		u := NewObjectUniform(d.node.World(), d.mesh.BaseColor)
		copy(r.objects[i*ObjectUniformStride:], u.Bytes())
	}
}

func (r *renderer) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for m, gpu := range r.meshes {
		gpu.Release()
		delete(r.meshes, m)
	}
	r.draws = nil
	r.backend.Release()
}
