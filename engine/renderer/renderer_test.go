package renderer

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"
	"unsafe"

	"github.com/Carmen-Shannon/oxy-scrub/engine/camera"
	"github.com/Carmen-Shannon/oxy-scrub/engine/device"
	"github.com/Carmen-Shannon/oxy-scrub/engine/light"
	"github.com/Carmen-Shannon/oxy-scrub/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
)

type fakeMesh struct {
	label    string
	count    uint32
	released bool
}

func (m *fakeMesh) IndexCount() uint32 { return m.count }
func (m *fakeMesh) Release()           { m.released = true }

type fakeDraw struct {
	mesh   *fakeMesh
	object int
}

type fakeBackend struct {
	configured  [][2]int
	presentMode PresentMode
	clear       [4]float32
	uploads     []*fakeMesh
	uploadErr   error
	beginErr    error
	frame       []byte
	objects     []byte
	objectCount int
	draws       []fakeDraw
	ended       int
	presented   int
	released    bool
}

func (b *fakeBackend) ConfigureSurface(width, height int) {
	b.configured = append(b.configured, [2]int{width, height})
}
func (b *fakeBackend) SetPresentMode(mode PresentMode) { b.presentMode = mode }
func (b *fakeBackend) SetClearColor(color [4]float32)  { b.clear = color }

func (b *fakeBackend) UploadMesh(label string, vertexData, indexData []byte, indexCount uint32) (MeshBuffers, error) {
	if b.uploadErr != nil {
		return nil, b.uploadErr
	}
	m := &fakeMesh{label: label, count: indexCount}
	b.uploads = append(b.uploads, m)
	return m, nil
}

func (b *fakeBackend) BeginFrame(frameUniform, objectUniforms []byte, objectCount int) error {
	if b.beginErr != nil {
		return b.beginErr
	}
	b.frame = append([]byte(nil), frameUniform...)
	b.objects = append([]byte(nil), objectUniforms...)
	b.objectCount = objectCount
	b.draws = b.draws[:0]
	return nil
}

func (b *fakeBackend) DrawMesh(mesh MeshBuffers, object int) {
	b.draws = append(b.draws, fakeDraw{mesh: mesh.(*fakeMesh), object: object})
}
func (b *fakeBackend) EndFrame() { b.ended++ }
func (b *fakeBackend) Present()  { b.presented++ }
func (b *fakeBackend) Release()  { b.released = true }

func triangle(name string, color [4]float32) *scene.Mesh {
	return scene.NewMesh(name, [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}, nil, nil, color)
}

func testScene(t *testing.T) (*scene.Scene, *scene.Mesh, *scene.Mesh) {
	t.Helper()
	body := triangle("body", [4]float32{1, 0, 0, 1})
	wheel := triangle("wheel", [4]float32{0, 0, 1, 1})

	root := scene.NewNode("car")
	root.Meshes = []*scene.Mesh{body}
	child := scene.NewNode("wheel")
	child.Translation = mgl32.Vec3{0, 0, 1}
	child.Meshes = []*scene.Mesh{wheel, scene.NewMesh("empty", nil, nil, nil, [4]float32{})}
	root.AddChild(child)

	s := scene.Compose(device.ConfigFor(device.TierFull), 16.0/9.0)
	s.SetAsset(root)
	return s, body, wheel
}

func readFloat(b []byte, offset int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b[offset:]))
}

func TestUniformLayout(t *testing.T) {
	if got := unsafe.Sizeof(FrameUniform{}); got != FrameUniformSize {
		t.Errorf("FrameUniform size = %d, want %d", got, FrameUniformSize)
	}
	if got := unsafe.Sizeof(ObjectUniform{}); got != ObjectUniformSize {
		t.Errorf("ObjectUniform size = %d, want %d", got, ObjectUniformSize)
	}
	if got := unsafe.Offsetof(FrameUniform{}.Lights); got != 96 {
		t.Errorf("Lights offset = %d, want 96", got)
	}
	if ObjectUniformStride%256 != 0 || ObjectUniformStride < ObjectUniformSize {
		t.Errorf("ObjectUniformStride %d is not a valid dynamic offset stride", ObjectUniformStride)
	}
}

func TestNewFrameUniform(t *testing.T) {
	cam := camera.NewCamera(camera.WithPosition(0, 1.2, 4))

	tests := []struct {
		name  string
		setup device.LightSetup
		want  uint32
	}{
		{"minimal", device.LightSetupMinimal, 1},
		{"studio", device.LightSetupStudio, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rig := light.NewRig(tt.setup, false)
			u := NewFrameUniform(cam, rig)
			if u.LightCount != tt.want {
				t.Errorf("LightCount = %d, want %d", u.LightCount, tt.want)
			}
			if u.CameraPos != [3]float32{0, 1.2, 4} {
				t.Errorf("CameraPos = %v", u.CameraPos)
			}
			if u.Ambient[0] != rig.Ambient[0] || u.Ambient[3] != 1 {
				t.Errorf("Ambient = %v, rig ambient %v", u.Ambient, rig.Ambient)
			}
			if u.ViewProj != cam.ViewProjectionMatrix() {
				t.Error("ViewProj does not match the camera")
			}
			if len(u.Bytes()) != FrameUniformSize {
				t.Errorf("Bytes() length = %d", len(u.Bytes()))
			}
		})
	}
}

func TestNewObjectUniformNormalMatrix(t *testing.T) {
	model := mgl32.Translate3D(1, 2, 3).Mul4(mgl32.Scale3D(2, 2, 2))
	u := NewObjectUniform(model, [4]float32{0.5, 0.5, 0.5, 1})

	n := u.Normal.Mul4x1(mgl32.Vec4{0, 1, 0, 0})
	if !n.Vec3().Normalize().ApproxEqual(mgl32.Vec3{0, 1, 0}) {
		t.Errorf("normal transform = %v, want +Y", n)
	}
	if u.Color != [4]float32{0.5, 0.5, 0.5, 1} {
		t.Errorf("Color = %v", u.Color)
	}
}

func TestRenderUploadsMeshesOnce(t *testing.T) {
	backend := &fakeBackend{}
	r := newRendererWithBackend(backend, 800, 600)
	s, _, _ := testScene(t)

	for i := 0; i < 3; i++ {
		if err := r.Render(s); err != nil {
			t.Fatalf("Render #%d: %v", i, err)
		}
	}

	if len(backend.uploads) != 2 {
		t.Fatalf("uploads = %d, want 2 (empty mesh skipped, no re-upload)", len(backend.uploads))
	}
	if len(backend.draws) != 2 {
		t.Fatalf("draws = %d, want 2", len(backend.draws))
	}
	if backend.ended != 3 || backend.presented != 3 {
		t.Errorf("ended/presented = %d/%d, want 3/3", backend.ended, backend.presented)
	}
	for i, d := range backend.draws {
		if d.object != i {
			t.Errorf("draw %d uses object slot %d", i, d.object)
		}
	}
	if backend.objectCount != 2 || len(backend.objects) != 2*ObjectUniformStride {
		t.Errorf("objects = %d slots / %d bytes", backend.objectCount, len(backend.objects))
	}
	if backend.clear != s.Background() {
		t.Errorf("clear color = %v, want %v", backend.clear, s.Background())
	}
}

func TestRenderObjectUniforms(t *testing.T) {
	backend := &fakeBackend{}
	r := newRendererWithBackend(backend, 800, 600)
	s, _, wheel := testScene(t)

	if err := r.Render(s); err != nil {
		t.Fatalf("Render: %v", err)
	}

	wheelNode, ok := s.Node("wheel")
	if !ok {
		t.Fatal("wheel node not indexed")
	}
	var slot = -1
	for _, d := range backend.draws {
		if d.mesh.label == wheel.Name {
			slot = d.object
		}
	}
	if slot < 0 {
		t.Fatal("wheel mesh not drawn")
	}

	base := slot * ObjectUniformStride
	world := wheelNode.World()
	for i := 0; i < 16; i++ {
		if got := readFloat(backend.objects, base+i*4); got != world[i] {
			t.Fatalf("model[%d] = %v, want %v", i, got, world[i])
		}
	}
	if got := readFloat(backend.objects, base+128+8); got != 1 {
		t.Errorf("base color blue = %v, want 1", got)
	}
}

func TestRenderReleasesRemovedMeshes(t *testing.T) {
	backend := &fakeBackend{}
	r := newRendererWithBackend(backend, 800, 600)
	s, _, _ := testScene(t)

	if err := r.Render(s); err != nil {
		t.Fatalf("Render: %v", err)
	}
	replacement := scene.NewNode("box")
	replacement.Meshes = []*scene.Mesh{triangle("box", [4]float32{1, 1, 1, 1})}
	s.SetAsset(replacement)

	if err := r.Render(s); err != nil {
		t.Fatalf("Render: %v", err)
	}
	for _, m := range backend.uploads[:2] {
		if !m.released {
			t.Errorf("mesh %q not released after leaving the scene", m.label)
		}
	}
	if backend.uploads[2].released {
		t.Error("current mesh released")
	}
	if len(backend.draws) != 1 {
		t.Errorf("draws = %d, want 1", len(backend.draws))
	}
}

func TestRenderEmptyScene(t *testing.T) {
	backend := &fakeBackend{}
	r := newRendererWithBackend(backend, 800, 600)
	s := scene.Compose(device.ConfigFor(device.TierConstrained), 1)

	if err := r.Render(s); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if backend.presented != 1 || len(backend.draws) != 0 {
		t.Errorf("presented=%d draws=%d, want a cleared frame", backend.presented, len(backend.draws))
	}
}

func TestRenderErrors(t *testing.T) {
	boom := errors.New("boom")

	t.Run("nil scene", func(t *testing.T) {
		r := newRendererWithBackend(&fakeBackend{}, 1, 1)
		if err := r.Render(nil); !errors.Is(err, ErrNilScene) {
			t.Errorf("err = %v, want ErrNilScene", err)
		}
	})

	t.Run("upload", func(t *testing.T) {
		backend := &fakeBackend{uploadErr: boom}
		r := newRendererWithBackend(backend, 1, 1)
		s, _, _ := testScene(t)
		if err := r.Render(s); !errors.Is(err, boom) {
			t.Errorf("err = %v, want wrapped boom", err)
		}
		if backend.presented != 0 {
			t.Error("frame presented after upload failure")
		}
	})

	t.Run("begin frame", func(t *testing.T) {
		backend := &fakeBackend{beginErr: boom}
		r := newRendererWithBackend(backend, 1, 1)
		s, _, _ := testScene(t)
		if err := r.Render(s); !errors.Is(err, boom) {
			t.Errorf("err = %v, want wrapped boom", err)
		}
		if len(backend.draws) != 0 || backend.ended != 0 {
			t.Error("draws encoded without a frame")
		}
	})
}

func TestResize(t *testing.T) {
	backend := &fakeBackend{}
	r := newRendererWithBackend(backend, 1024, 768)

	r.Resize(0, 500)
	r.Resize(320, -1)
	r.Resize(1024, 768)
	r.Resize(320, 480)

	want := [][2]int{{1024, 768}, {320, 480}}
	if len(backend.configured) != len(want) {
		t.Fatalf("configured = %v, want %v", backend.configured, want)
	}
	for i := range want {
		if backend.configured[i] != want[i] {
			t.Errorf("configure #%d = %v, want %v", i, backend.configured[i], want[i])
		}
	}
	if w, h := r.Size(); w != 320 || h != 480 {
		t.Errorf("Size() = %dx%d", w, h)
	}
}

func TestOptions(t *testing.T) {
	backend := &fakeBackend{}
	newRendererWithBackend(backend, 1, 1)
	if backend.presentMode != PresentModeVSync {
		t.Errorf("default present mode = %v, want VSync", backend.presentMode)
	}

	backend = &fakeBackend{}
	newRendererWithBackend(backend, 1, 1, WithPresentMode(PresentModeUncapped))
	if backend.presentMode != PresentModeUncapped {
		t.Errorf("present mode = %v, want Uncapped", backend.presentMode)
	}

	tests := []struct {
		antialias bool
		want      MSAASampleCount
	}{
		{true, MSAA4x},
		{false, MSAAOff},
	}
	for _, tt := range tests {
		r := newRenderer(WithAntialias(tt.antialias))
		if r.pendingMSAA == nil || *r.pendingMSAA != tt.want {
			t.Errorf("WithAntialias(%v) = %v, want %v", tt.antialias, r.pendingMSAA, tt.want)
		}
	}
}

func TestRelease(t *testing.T) {
	backend := &fakeBackend{}
	r := newRendererWithBackend(backend, 1, 1)
	s, _, _ := testScene(t)
	if err := r.Render(s); err != nil {
		t.Fatalf("Render: %v", err)
	}
	r.Release()
	if !backend.released {
		t.Error("backend not released")
	}
	for _, m := range backend.uploads {
		if !m.released {
			t.Errorf("mesh %q not released", m.label)
		}
	}
}
