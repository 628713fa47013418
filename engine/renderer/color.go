package renderer

import "github.com/spaghettifunk/anima2d/engine/math"

// Color is a linear RGBA color with float components in [0, 1].
type Color struct {
	R, G, B, A float32
}

var (
	ColorBlack       = Color{0, 0, 0, 1}
	ColorWhite       = Color{1, 1, 1, 1}
	ColorRed         = Color{1, 0, 0, 1}
	ColorGreen       = Color{0, 1, 0, 1}
	ColorBlue        = Color{0, 0, 1, 1}
	ColorTransparent = Color{}
)

func NewColor(r, g, b, a float32) Color {
	return Color{R: r, G: g, B: b, A: a}
}

// ColorFromSlice builds a Color from up to four components; missing alpha defaults to 1.
func ColorFromSlice(c []float32) Color {
	out := Color{A: 1}
	dst := []*float32{&out.R, &out.G, &out.B, &out.A}
	for i := 0; i < len(c) && i < len(dst); i++ {
		*dst[i] = math.Clamp(c[i], 0, 1)
	}
	return out
}

func (c Color) Array() [4]float32 {
	return [4]float32{c.R, c.G, c.B, c.A}
}
