package loader

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-scrub/engine/animation"
	"github.com/Carmen-Shannon/oxy-scrub/engine/device"
	"github.com/Carmen-Shannon/oxy-scrub/internal/cache"
	"github.com/Carmen-Shannon/oxy-scrub/internal/logging"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

func newTestLoader(opts ...LoaderBuilderOption) Loader {
	return NewLoader(append([]LoaderBuilderOption{WithLogger(logging.Null())}, opts...)...)
}

// collect drains a load channel until it closes.
func collect(t *testing.T, ch <-chan Event) []Event {
	t.Helper()
	var out []Event
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, ev)
		case <-timeout:
			t.Fatal("load did not finish")
		}
	}
}

// terminal checks the event sequence shape and returns the terminal event.
func terminal(t *testing.T, events []Event) Event {
	t.Helper()
	if len(events) == 0 {
		t.Fatal("no events")
	}
	for i, ev := range events[:len(events)-1] {
		if _, ok := ev.(Progress); !ok {
			t.Fatalf("event %d is %T, want Progress before the terminal event", i, ev)
		}
	}
	return events[len(events)-1]
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func checkAsset(t *testing.T, ev Event) Success {
	t.Helper()
	s, ok := ev.(Success)
	if !ok {
		if f, isFailure := ev.(Failure); isFailure {
			t.Fatalf("load failed: %v", f.Cause)
		}
		t.Fatalf("terminal event is %T", ev)
	}
	if s.Root == nil || s.Root.Name != "car" {
		t.Fatalf("root = %+v", s.Root)
	}
	if len(s.Clips) != 1 {
		t.Fatalf("clips = %d, want 1", len(s.Clips))
	}
	return s
}

func TestImportGLTFAndGLB(t *testing.T) {
	tests := []struct {
		name string
		data func(*testing.T) []byte
	}{
		{"gltf json", fixtureGLTF},
		{"glb", fixtureGLB},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			asset, err := newGLTFImporter(nil).Import(tt.data(t), "car.glb")
			if err != nil {
				t.Fatalf("Import: %v", err)
			}

			body := asset.Root.Children()
			if len(body) != 1 || body[0].Name != "body" {
				t.Fatalf("root children = %v", body)
			}
			wheel := body[0].Children()
			if len(wheel) != 1 || wheel[0].Name != "wheel" {
				t.Fatalf("body children = %v", wheel)
			}
			if !wheel[0].Translation.ApproxEqual(mgl32.Vec3{0, 1, 0}) {
				t.Errorf("wheel translation = %v", wheel[0].Translation)
			}

			meshes := wheel[0].Meshes
			if len(meshes) != 1 {
				t.Fatalf("meshes = %d", len(meshes))
			}
			m := meshes[0]
			if len(m.Vertices) != 3 || m.IndexCount() != 3 {
				t.Errorf("vertices %d indices %d", len(m.Vertices), m.IndexCount())
			}
			if m.BaseColor != [4]float32{1, 0, 0, 1} {
				t.Errorf("base colour = %v", m.BaseColor)
			}

			clip := asset.Clips[0]
			if clip.Name != "drive" || clip.Duration != 2 {
				t.Errorf("clip = %q duration %v", clip.Name, clip.Duration)
			}
			if len(clip.Channels) != 2 {
				t.Fatalf("channels = %d, want 2 (weights skipped)", len(clip.Channels))
			}
			if clip.Channels[0].Target != body[0] {
				t.Error("channel not bound to body node")
			}
			if clip.Channels[1].Interpolation != animation.InterpolationStep {
				t.Errorf("rotation interpolation = %v", clip.Channels[1].Interpolation)
			}

			clip.Apply(1)
			if !body[0].Translation.ApproxEqual(mgl32.Vec3{2, 0, 0}) {
				t.Errorf("translation at t=1 = %v", body[0].Translation)
			}
		})
	}
}

func TestImportErrors(t *testing.T) {
	badVersion, _ := json.Marshal(gltfDocument{Asset: gltfAsset{Version: "1.0"}})

	badGLBVersion := bytes.Clone(fixtureGLB(t))
	badGLBVersion[4] = 9

	buf := fixtureBuffer(t)
	doc := fixtureDocument("data:application/octet-stream;base64,AAAA", len(buf))
	short, _ := json.Marshal(doc)

	doc = fixtureDocument("", 0)
	doc.Buffers = nil
	noBuffer, _ := json.Marshal(doc)

	doc = fixtureDocument("external.bin", len(buf))
	external, _ := json.Marshal(doc)

	tests := []struct {
		name    string
		data    []byte
		wantErr error
	}{
		{"not json", []byte("{"), nil},
		{"wrong version", badVersion, errInvalidGLTFVersion},
		{"wrong glb version", badGLBVersion, errInvalidGLBVersion},
		{"buffer shorter than declared", short, errBufferSizeMismatch},
		{"external buffer without resolver", external, errExternalBuffer},
		{"accessor without buffer", noBuffer, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newGLTFImporter(nil).Import(tt.data, "x.gltf")
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestAccessorOutOfBounds(t *testing.T) {
	buf := fixtureBuffer(t)
	doc := fixtureDocument("", len(buf))
	doc.Accessors[0].Count = 1000
	p := &gltfParserImpl{document: &doc}
	doc.Buffers[0].Data = buf
	if _, err := p.ReadVec3Accessor(0); !errors.Is(err, errAccessorOutOfBounds) {
		t.Errorf("error = %v, want out of bounds", err)
	}
}

func TestMatrixNode(t *testing.T) {
	buf := fixtureBuffer(t)
	doc := fixtureDocument("", len(buf))
	m := mgl32.Translate3D(1, 2, 3).Mul4(mgl32.Scale3D(2, 2, 2))
	arr := [16]float32(m)
	doc.Nodes[1].Translation = nil
	doc.Nodes[1].Matrix = &arr
	doc.Buffers[0].Data = buf

	ex := newGLTFNodeExtractor(&gltfParserImpl{document: &doc})
	root, nodes, err := ex.ExtractHierarchy("root")
	if err != nil {
		t.Fatal(err)
	}
	if root.Name != "root" || nodes[1] == nil {
		t.Fatal("hierarchy not built")
	}
	if !nodes[1].Translation.ApproxEqual(mgl32.Vec3{1, 2, 3}) || !nodes[1].Scale.ApproxEqual(mgl32.Vec3{2, 2, 2}) {
		t.Errorf("decomposed = %v %v", nodes[1].Translation, nodes[1].Scale)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := writeFile(t, "car.gltf", fixtureGLTF(t))
	l := newTestLoader(WithProgressStep(256))

	events := collect(t, l.Load(context.Background(), path))
	checkAsset(t, terminal(t, events))

	if len(events) < 2 {
		t.Fatal("expected progress events")
	}
	last := events[len(events)-2].(Progress)
	info, _ := os.Stat(path)
	if last.BytesLoaded != info.Size() || last.BytesTotal != info.Size() {
		t.Errorf("final progress = %+v, want %d", last.LoadProgress, info.Size())
	}
	for i := 1; i < len(events)-1; i++ {
		if events[i].(Progress).BytesLoaded < events[i-1].(Progress).BytesLoaded {
			t.Error("progress went backwards")
		}
	}
}

func TestLoadFileURLAndExternalBuffer(t *testing.T) {
	dir := t.TempDir()
	buf := fixtureBuffer(t)
	doc, _ := json.Marshal(fixtureDocument("car%20data.bin", len(buf)))
	if err := os.WriteFile(filepath.Join(dir, "car data.bin"), buf, 0o644); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "car.gltf")
	if err := os.WriteFile(path, doc, 0o644); err != nil {
		t.Fatal(err)
	}

	events := collect(t, newTestLoader().Load(context.Background(), "file://"+filepath.ToSlash(path)))
	checkAsset(t, terminal(t, events))
}

func TestLoadCompressed(t *testing.T) {
	glb := fixtureGLB(t)

	var gz bytes.Buffer
	zw := gzip.NewWriter(&gz)
	zw.Write(glb)
	zw.Close()

	var zs bytes.Buffer
	enc, err := zstd.NewWriter(&zs)
	if err != nil {
		t.Fatal(err)
	}
	enc.Write(glb)
	enc.Close()

	tests := []struct {
		name string
		file string
		data []byte
	}{
		{"gzip", "car.glb.gz", gz.Bytes()},
		{"zstd", "car.glb.zst", zs.Bytes()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, tt.file, tt.data)
			checkAsset(t, terminal(t, collect(t, newTestLoader().Load(context.Background(), path))))
		})
	}
}

func TestLoadHTTP(t *testing.T) {
	glb := fixtureGLB(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/car.glb":
			w.Write(glb)
		case "/broken.glb":
			w.Write([]byte("not a model"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	l := newTestLoader(WithHTTPClient(srv.Client()))

	checkAsset(t, terminal(t, collect(t, l.Load(context.Background(), srv.URL+"/car.glb"))))

	tests := []struct {
		name    string
		url     string
		wantErr error
	}{
		{"not found", srv.URL + "/missing.glb", ErrHTTPStatus},
		{"undecodable", srv.URL + "/broken.glb", nil},
		{"unsupported scheme", "ftp://example.com/car.glb", ErrUnsupportedScheme},
		{"missing file", filepath.Join(t.TempDir(), "nope.glb"), os.ErrNotExist},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := terminal(t, collect(t, l.Load(context.Background(), tt.url)))
			f, ok := ev.(Failure)
			if !ok {
				t.Fatalf("terminal event is %T, want Failure", ev)
			}
			if tt.wantErr != nil && !errors.Is(f.Cause, tt.wantErr) {
				t.Errorf("cause = %v, want %v", f.Cause, tt.wantErr)
			}
		})
	}
}

func TestLoadCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	path := writeFile(t, "car.glb", fixtureGLB(t))

	ev := terminal(t, collect(t, newTestLoader().Load(ctx, path)))
	f, ok := ev.(Failure)
	if !ok || !errors.Is(f.Cause, context.Canceled) {
		t.Fatalf("terminal = %#v, want cancellation failure", ev)
	}
}

func TestLoadUsesCache(t *testing.T) {
	c, err := cache.Open(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	glb := fixtureGLB(t)
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write(glb)
	}))
	defer srv.Close()

	l := newTestLoader(WithCache(c), WithHTTPClient(srv.Client()))
	location := srv.URL + "/car.glb"
	checkAsset(t, terminal(t, collect(t, l.Load(context.Background(), location))))
	checkAsset(t, terminal(t, collect(t, l.Load(context.Background(), location))))

	if got := hits.Load(); got != 1 {
		t.Errorf("server hits = %d, want 1", got)
	}
}

func TestLoadSkipsCacheForFiles(t *testing.T) {
	c, err := cache.Open(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	path := writeFile(t, "car.glb", fixtureGLB(t))
	l := newTestLoader(WithCache(c))
	checkAsset(t, terminal(t, collect(t, l.Load(context.Background(), path))))

	if _, ok, err := c.Get(path); err != nil || ok {
		t.Fatalf("file asset cached: ok = %v, err = %v", ok, err)
	}

	// An edited file must be read again, not served from the cache.
	if err := os.WriteFile(path, []byte("not a model"), 0o644); err != nil {
		t.Fatal(err)
	}
	if ev := terminal(t, collect(t, l.Load(context.Background(), path))); !isFailure(ev) {
		t.Errorf("terminal event after edit is %T, want Failure", ev)
	}
}

func isFailure(ev Event) bool {
	_, ok := ev.(Failure)
	return ok
}

func TestCacheable(t *testing.T) {
	tests := []struct {
		location string
		want     bool
	}{
		{"https://example.com/car.glb", true},
		{"HTTP://example.com/car.glb", true},
		{"file:///tmp/car.glb", false},
		{"assets/car.glb", false},
		{`C:\assets\car.glb`, false},
	}
	for _, tt := range tests {
		if got := cacheable(tt.location); got != tt.want {
			t.Errorf("cacheable(%q) = %v, want %v", tt.location, got, tt.want)
		}
	}
}

func TestSelectSource(t *testing.T) {
	tests := []struct {
		name       string
		policy     device.DecoderPolicy
		compressed string
		want       string
	}{
		{"full tier", device.DecoderPolicy{}, "car.glb.zst", "car.glb"},
		{"constrained with variant", device.DecoderPolicy{PreferCompressed: true}, "car.glb.zst", "car.glb.zst"},
		{"constrained without variant", device.DecoderPolicy{PreferCompressed: true}, "", "car.glb"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SelectSource(tt.policy, "car.glb", tt.compressed); got != tt.want {
				t.Errorf("SelectSource = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLoadProgressFraction(t *testing.T) {
	if f := (LoadProgress{BytesLoaded: 5, BytesTotal: -1}).Fraction(); f != -1 {
		t.Errorf("unknown total fraction = %v", f)
	}
	if f := (LoadProgress{BytesLoaded: 5, BytesTotal: 10}).Fraction(); f != 0.5 {
		t.Errorf("fraction = %v", f)
	}
}
