package renderer

import (
	"encoding/binary"
	"fmt"
	stdmath "math"

	"github.com/spaghettifunk/anima2d/engine/core"
	"github.com/spaghettifunk/anima2d/engine/math"
)

// ShapeKind tells which pipeline draws a shape.
type ShapeKind uint8

const (
	ShapeKindLine ShapeKind = iota
	ShapeKindColorPolygon
	ShapeKindTexturePolygon
)

func (k ShapeKind) String() string {
	switch k {
	case ShapeKindLine:
		return "Line"
	case ShapeKindColorPolygon:
		return "ColorPoly"
	case ShapeKindTexturePolygon:
		return "TexturePoly"
	}
	return "Unknown"
}

// Shape2D is one of Line, ColorPolygon or TexturePolygon.
type Shape2D interface {
	Kind() ShapeKind
	textureID() (ImageID, bool)
	validate() error
	vertexData() []byte
	indexData() []byte
}

// Line is a connected line strip with one color per point.
type Line struct {
	Colors []Color
	Points []math.Vec2
}

// ColorPolygon is an indexed triangle list with one color per vertex.
type ColorPolygon struct {
	Colors   []Color
	Vertices []math.Vec2
	Indices  []uint16
}

// TexturePolygon is an indexed triangle list sampling an uploaded image.
type TexturePolygon struct {
	Texture  ImageID
	UVs      []math.Vec2
	Vertices []math.Vec2
	Indices  []uint16
}

const (
	colorVertexStride   = 6 * 4
	textureVertexStride = 4 * 4
)

func (Line) Kind() ShapeKind           { return ShapeKindLine }
func (ColorPolygon) Kind() ShapeKind   { return ShapeKindColorPolygon }
func (TexturePolygon) Kind() ShapeKind { return ShapeKindTexturePolygon }

func (Line) textureID() (ImageID, bool)             { return ImageID{}, false }
func (ColorPolygon) textureID() (ImageID, bool)     { return ImageID{}, false }
func (p TexturePolygon) textureID() (ImageID, bool) { return p.Texture, true }

func vertexStride(kind ShapeKind) int {
	if kind == ShapeKindTexturePolygon {
		return textureVertexStride
	}
	return colorVertexStride
}

func (l Line) validate() error {
	if len(l.Points) == 0 {
		return fmt.Errorf("line has no points: %w", core.ErrInvalidShape)
	}
	if len(l.Colors) != len(l.Points) {
		return fmt.Errorf("line has %d colors for %d points: %w", len(l.Colors), len(l.Points), core.ErrInvalidShape)
	}
	return nil
}

func (p ColorPolygon) validate() error {
	if len(p.Colors) != len(p.Vertices) {
		return fmt.Errorf("polygon has %d colors for %d vertices: %w", len(p.Colors), len(p.Vertices), core.ErrInvalidShape)
	}
	return validateTriangles(len(p.Vertices), p.Indices)
}

func (p TexturePolygon) validate() error {
	if len(p.UVs) != len(p.Vertices) {
		return fmt.Errorf("polygon has %d uvs for %d vertices: %w", len(p.UVs), len(p.Vertices), core.ErrInvalidShape)
	}
	return validateTriangles(len(p.Vertices), p.Indices)
}

func validateTriangles(vertexCount int, indices []uint16) error {
	if vertexCount == 0 {
		return fmt.Errorf("polygon has no vertices: %w", core.ErrInvalidShape)
	}
	if len(indices) == 0 || len(indices)%3 != 0 {
		return fmt.Errorf("index count %d is not a positive multiple of 3: %w", len(indices), core.ErrInvalidShape)
	}
	for i, idx := range indices {
		if int(idx) >= vertexCount {
			return fmt.Errorf("index %d at position %d out of range for %d vertices: %w", idx, i, vertexCount, core.ErrInvalidShape)
		}
	}
	return nil
}

// Interleaved layout: [x, y, r, g, b, a]
func (l Line) vertexData() []byte {
	return interleaveColored(l.Points, l.Colors)
}

func (Line) indexData() []byte { return nil }

// Interleaved layout: [x, y, r, g, b, a]
func (p ColorPolygon) vertexData() []byte {
	return interleaveColored(p.Vertices, p.Colors)
}

func (p ColorPolygon) indexData() []byte {
	return packIndices(p.Indices)
}

// Interleaved layout: [x, y, u, v]
func (p TexturePolygon) vertexData() []byte {
	out := make([]byte, 0, len(p.Vertices)*textureVertexStride)
	for i, v := range p.Vertices {
		out = appendFloats(out, v.X, v.Y, p.UVs[i].X, p.UVs[i].Y)
	}
	return out
}

func (p TexturePolygon) indexData() []byte {
	return packIndices(p.Indices)
}

func interleaveColored(points []math.Vec2, colors []Color) []byte {
	out := make([]byte, 0, len(points)*colorVertexStride)
	for i, v := range points {
		c := colors[i]
		out = appendFloats(out, v.X, v.Y, c.R, c.G, c.B, c.A)
	}
	return out
}

func appendFloats(dst []byte, fs ...float32) []byte {
	for _, f := range fs {
		dst = binary.LittleEndian.AppendUint32(dst, stdmath.Float32bits(f))
	}
	return dst
}

func packIndices(indices []uint16) []byte {
	out := make([]byte, 0, len(indices)*2)
	for _, idx := range indices {
		out = binary.LittleEndian.AppendUint16(out, idx)
	}
	return out
}
