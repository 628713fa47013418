package renderer

import (
	"encoding/binary"
	stdmath "math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/anima2d/engine/core"
	"github.com/spaghettifunk/anima2d/engine/math"
)

func floatsOf(t *testing.T, data []byte) []float32 {
	t.Helper()
	require.Zero(t, len(data)%4)
	out := make([]float32, len(data)/4)
	for i := range out {
		out[i] = stdmath.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return out
}

func TestColorPolygonInterleave(t *testing.T) {
	p := ColorPolygon{
		Colors:   []Color{ColorRed, ColorBlue, ColorGreen},
		Vertices: []math.Vec2{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: 1}},
		Indices:  []uint16{0, 1, 2},
	}
	require.NoError(t, p.validate())

	data := p.vertexData()
	assert.Len(t, data, 3*colorVertexStride)
	assert.Equal(t, []float32{
		0, 0, 1, 0, 0, 1,
		1, 0, 0, 0, 1, 1,
		0, 1, 0, 1, 0, 1,
	}, floatsOf(t, data))
	assert.Equal(t, []byte{0, 0, 1, 0, 2, 0}, p.indexData())
}

func TestTexturePolygonInterleave(t *testing.T) {
	p := TexturePolygon{
		UVs:      []math.Vec2{{X: 0, Y: 1}, {X: 1, Y: 1}},
		Vertices: []math.Vec2{{X: -1, Y: -1}, {X: 1, Y: -1}},
	}
	assert.Equal(t, []float32{-1, -1, 0, 1, 1, -1, 1, 1}, floatsOf(t, p.vertexData()))
	assert.Equal(t, 16, vertexStride(p.Kind()))
}

func TestLineHasNoIndices(t *testing.T) {
	l := Line{
		Colors: []Color{ColorWhite, ColorWhite},
		Points: []math.Vec2{{X: 0, Y: 0}, {X: 1, Y: 1}},
	}
	require.NoError(t, l.validate())
	assert.Nil(t, l.indexData())
	assert.Len(t, l.vertexData(), 2*colorVertexStride)
}

func TestShapeValidation(t *testing.T) {
	tri := []math.Vec2{{}, {X: 1}, {Y: 1}}
	cases := map[string]Shape2D{
		"line without points":     Line{},
		"line color mismatch":     Line{Colors: []Color{ColorRed}, Points: tri},
		"polygon color mismatch":  ColorPolygon{Colors: []Color{ColorRed}, Vertices: tri, Indices: []uint16{0, 1, 2}},
		"polygon without indices": ColorPolygon{Colors: make([]Color, 3), Vertices: tri},
		"partial triangle":        ColorPolygon{Colors: make([]Color, 3), Vertices: tri, Indices: []uint16{0, 1}},
		"index out of range":      ColorPolygon{Colors: make([]Color, 3), Vertices: tri, Indices: []uint16{0, 1, 3}},
		"uv mismatch":             TexturePolygon{UVs: tri[:2], Vertices: tri, Indices: []uint16{0, 1, 2}},
		"no vertices":             TexturePolygon{Indices: []uint16{0, 0, 0}},
	}
	for name, shape := range cases {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, shape.validate(), core.ErrInvalidShape)
		})
	}
}

func TestPushConstantsLayout(t *testing.T) {
	tr := math.NewTransform2(math.NewVec2(0.5, -0.25), math.NewRotation2(0), 2)
	pc := NewPushConstants(tr)

	assert.Len(t, pc, 64)
	assert.Equal(t, math.Vec3{X: 2, Y: 0, Z: 0}, pc.Column(0))
	assert.Equal(t, math.Vec3{X: 0, Y: 2, Z: 0}, pc.Column(1))
	assert.Equal(t, math.Vec3{X: 0.5, Y: -0.25, Z: 1}, pc.Column(2))

	// padding after each column and the tail stay zero
	for _, off := range []int{12, 28, 44} {
		assert.Equal(t, []byte{0, 0, 0, 0}, pc[off:off+4])
	}
	assert.Equal(t, make([]byte, 16), pc[48:])

	assert.Equal(t, stdmath.Float32bits(0.5), binary.LittleEndian.Uint32(pc[32:]))
}

func TestPushConstantsIdentity(t *testing.T) {
	pc := NewPushConstants(math.Transform2Identity())
	assert.Equal(t, math.Vec3{X: 1}, pc.Column(0))
	assert.Equal(t, math.Vec3{Y: 1}, pc.Column(1))
	assert.Equal(t, math.Vec3{Z: 1}, pc.Column(2))
}

type countingResource struct{ released int }

func (c *countingResource) Release() { c.released++ }

func TestSharedReleasesOnLastReference(t *testing.T) {
	res := &countingResource{}
	s := NewShared[Resource](res)
	s.Retain()
	s.Retain()
	assert.Equal(t, int32(3), s.RefCount())

	s.Release()
	s.Release()
	assert.Zero(t, res.released)
	s.Release()
	assert.Equal(t, 1, res.released)
}

func TestGraphReleaseOnce(t *testing.T) {
	res := &countingResource{}
	g := NewGraph()
	g.Add(&ClearCommand{Color: ColorBlack}, res)
	g.Retain(res)
	assert.Equal(t, 1, g.Len())
	assert.Empty(t, g.Passes())

	g.Release()
	g.Release()
	assert.Equal(t, 2, res.released)
}

func TestColorFromSlice(t *testing.T) {
	assert.Equal(t, Color{R: 0.1, G: 0.2, B: 0.3, A: 1}, ColorFromSlice([]float32{0.1, 0.2, 0.3}))
	assert.Equal(t, Color{R: 1, G: 0, B: 0.5, A: 0.5}, ColorFromSlice([]float32{2, -1, 0.5, 0.5}))
}
