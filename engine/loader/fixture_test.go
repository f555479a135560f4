package loader

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"testing"
)

func intPtr(v int) *int { return &v }

// fixtureBuffer lays out a triangle, its indices and a two-key animation
// (translation and rotation) in one little-endian buffer.
func fixtureBuffer(t *testing.T) []byte {
	t.Helper()
	var b bytes.Buffer
	write := func(v any) {
		if err := binary.Write(&b, binary.LittleEndian, v); err != nil {
			t.Fatal(err)
		}
	}
	write([3][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}})            // 0..36 positions
	write([3]uint16{0, 1, 2})                                        // 36..42 indices
	write([2]byte{})                                                 // pad to 44
	write([2]float32{0, 2})                                          // 44..52 times
	write([2][3]float32{{0, 0, 0}, {4, 0, 0}})                       // 52..76 translations
	write([2][4]float32{{0, 0, 0, 1}, {0, 0.7071068, 0, 0.7071068}}) // 76..108 rotations
	return b.Bytes()
}

// fixtureDocument returns a document with two nodes (body -> wheel, wheel has
// the triangle mesh) and one animation targeting body.
func fixtureDocument(bufferURI string, bufferLen int) gltfDocument {
	color := [4]float32{1, 0, 0, 1}
	return gltfDocument{
		Asset:  gltfAsset{Version: "2.0"},
		Scene:  intPtr(0),
		Scenes: []gltfScene{{Name: "car", Nodes: []int{0}}},
		Nodes: []gltfNode{
			{Name: "body", Children: []int{1}},
			{Name: "wheel", Mesh: intPtr(0), Translation: &[3]float32{0, 1, 0}},
		},
		Meshes: []gltfMesh{{Name: "tri", Primitives: []gltfPrimitive{{
			Attributes: map[string]int{"POSITION": 0},
			Indices:    intPtr(1),
			Material:   intPtr(0),
		}}}},
		Materials: []gltfMaterial{{PbrMetallicRoughness: &gltfPbrMetallicRoughness{BaseColorFactor: &color}}},
		Accessors: []gltfAccessor{
			{BufferView: intPtr(0), ComponentType: gltfComponentTypeFloat, Count: 3, Type: gltfAccessorTypeVec3},
			{BufferView: intPtr(1), ComponentType: gltfComponentTypeUnsignedShort, Count: 3, Type: gltfAccessorTypeScalar},
			{BufferView: intPtr(2), ComponentType: gltfComponentTypeFloat, Count: 2, Type: gltfAccessorTypeScalar},
			{BufferView: intPtr(3), ComponentType: gltfComponentTypeFloat, Count: 2, Type: gltfAccessorTypeVec3},
			{BufferView: intPtr(4), ComponentType: gltfComponentTypeFloat, Count: 2, Type: gltfAccessorTypeVec4},
		},
		BufferViews: []gltfBufferView{
			{Buffer: 0, ByteOffset: 0, ByteLength: 36},
			{Buffer: 0, ByteOffset: 36, ByteLength: 6},
			{Buffer: 0, ByteOffset: 44, ByteLength: 8},
			{Buffer: 0, ByteOffset: 52, ByteLength: 24},
			{Buffer: 0, ByteOffset: 76, ByteLength: 32},
		},
		Buffers: []gltfBuffer{{URI: bufferURI, ByteLength: bufferLen}},
		Animations: []gltfAnimation{{
			Name: "drive",
			Channels: []gltfAnimChannel{
				{Sampler: 0, Target: gltfAnimTarget{Node: intPtr(0), Path: gltfAnimPathTranslation}},
				{Sampler: 1, Target: gltfAnimTarget{Node: intPtr(0), Path: gltfAnimPathRotation}},
				{Sampler: 0, Target: gltfAnimTarget{Node: intPtr(0), Path: gltfAnimPathWeights}},
			},
			Samplers: []gltfAnimSampler{
				{Input: 2, Output: 3},
				{Input: 2, Output: 4, Interpolation: gltfAnimInterpolationStep},
			},
		}},
	}
}

// fixtureGLTF returns a self-contained glTF JSON payload.
func fixtureGLTF(t *testing.T) []byte {
	t.Helper()
	buf := fixtureBuffer(t)
	uri := "data:application/octet-stream;base64," + base64.StdEncoding.EncodeToString(buf)
	data, err := json.Marshal(fixtureDocument(uri, len(buf)))
	if err != nil {
		t.Fatal(err)
	}
	return data
}

// fixtureGLB returns the same asset as a GLB container.
func fixtureGLB(t *testing.T) []byte {
	t.Helper()
	buf := fixtureBuffer(t)
	js, err := json.Marshal(fixtureDocument("", len(buf)))
	if err != nil {
		t.Fatal(err)
	}
	for len(js)%4 != 0 {
		js = append(js, ' ')
	}
	for len(buf)%4 != 0 {
		buf = append(buf, 0)
	}

	var out bytes.Buffer
	total := uint32(12 + 8 + len(js) + 8 + len(buf))
	binary.Write(&out, binary.LittleEndian, gltfGLBHeader{Magic: gltfGLBMagic, Version: gltfGLBVersion, Length: total})
	binary.Write(&out, binary.LittleEndian, gltfGLBChunkHeader{ChunkLength: uint32(len(js)), ChunkType: gltfGLBChunkJSON})
	out.Write(js)
	binary.Write(&out, binary.LittleEndian, gltfGLBChunkHeader{ChunkLength: uint32(len(buf)), ChunkType: gltfGLBChunkBIN})
	out.Write(buf)
	return out.Bytes()
}
