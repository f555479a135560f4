package renderer

// PresentMode controls how rendered frames are presented to the display surface.
type PresentMode int

const (
	// PresentModeVSync waits for the next vertical blank before presenting, capping frame rate
	// to the monitor's refresh rate. Eliminates tearing.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents frames immediately without waiting for vertical blank.
	// May cause screen tearing but provides the lowest latency.
	PresentModeUncapped
)

// MSAASampleCount controls the number of samples used for multisample anti-aliasing (MSAA).
// WebGPU guarantees support for 1 (off) and 4.
type MSAASampleCount uint32

const (
	// MSAAOff disables multisample anti-aliasing (sample count 1).
	MSAAOff MSAASampleCount = 1

	// MSAA4x enables 4× multisample anti-aliasing. This is the default.
	MSAA4x MSAASampleCount = 4
)

// MeshBuffers is a mesh resident on the GPU.
type MeshBuffers interface {
	// IndexCount returns the number of indices drawn for the mesh.
	IndexCount() uint32

	// Release frees the GPU buffers.
	Release()
}

// RendererBackend is the GPU API the Renderer drives. The Renderer owns scene traversal and
// uniform packing; the backend owns every GPU object.
type RendererBackend interface {
	// ConfigureSurface (re)configures the swapchain and the size-dependent attachments.
	// This is required when the surface size changes, such as when the window is resized.
	//
	// Parameters:
	//   - width: the new width of the surface in pixels
	//   - height: the new height of the surface in pixels
	ConfigureSurface(width, height int)

	// SetPresentMode sets the surface present mode. Takes effect on the next ConfigureSurface.
	//
	// Parameters:
	//   - mode: the PresentMode to use
	SetPresentMode(mode PresentMode)

	// SetClearColor sets the color the main pass clears to.
	//
	// Parameters:
	//   - color: RGBA clear color
	SetClearColor(color [4]float32)

	// UploadMesh creates vertex and index buffers for a mesh.
	//
	// Parameters:
	//   - label: debug label for the buffers
	//   - vertexData: packed vertex bytes (VertexStride per vertex)
	//   - indexData: uint32 indices
	//   - indexCount: the number of indices in indexData
	//
	// Returns:
	//   - MeshBuffers: the resident mesh
	//   - error: an error if the buffers could not be created
	UploadMesh(label string, vertexData, indexData []byte, indexCount uint32) (MeshBuffers, error)

	// BeginFrame writes the frame and object uniforms, acquires the swapchain texture and
	// begins the main render pass. Must be paired with EndFrame.
	//
	// Parameters:
	//   - frameUniform: FrameUniformSize bytes
	//   - objectUniforms: objectCount slots of ObjectUniformStride bytes
	//   - objectCount: the number of object slots in objectUniforms
	//
	// Returns:
	//   - error: an error if the swapchain texture could not be acquired
	BeginFrame(frameUniform, objectUniforms []byte, objectCount int) error

	// DrawMesh encodes an indexed draw of mesh using the object uniform in slot object.
	//
	// Parameters:
	//   - mesh: buffers returned by UploadMesh
	//   - object: the object uniform slot written in BeginFrame
	DrawMesh(mesh MeshBuffers, object int)

	// EndFrame ends the render pass and submits the command buffer to the GPU.
	EndFrame()

	// Present presents the surface to the display and releases the swapchain texture.
	// Must be called once per frame after EndFrame.
	Present()

	// Release frees every GPU object held by the backend.
	Release()
}
