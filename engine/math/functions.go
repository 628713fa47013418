package math

import "github.com/chewxy/math32"

const (
	K_PI                 float32 = math32.Pi
	K_PI_2               float32 = 2.0 * K_PI
	K_HALF_PI            float32 = 0.5 * K_PI
	K_DEG2RAD_MULTIPLIER float32 = K_PI / 180.0
	K_RAD2DEG_MULTIPLIER float32 = 180.0 / K_PI
	// Smallest positive number where 1.0 + FLOAT_EPSILON != 0
	K_FLOAT_EPSILON float32 = 1.192092896e-07
)

func DegToRad(degrees float32) float32 {
	return degrees * K_DEG2RAD_MULTIPLIER
}

func RadToDeg(radians float32) float32 {
	return radians * K_RAD2DEG_MULTIPLIER
}

// FloatEqual compares two floats within K_FLOAT_EPSILON scaled to their magnitude.
func FloatEqual(a, b float32) bool {
	scale := math32.Max(1, math32.Max(math32.Abs(a), math32.Abs(b)))
	return math32.Abs(a-b) <= K_FLOAT_EPSILON*scale*4
}

func NewVec2(x, y float32) Vec2 {
	return Vec2{X: x, Y: y}
}

func NewVec2Zero() Vec2 {
	return Vec2{}
}

func (v Vec2) Add(o Vec2) Vec2 {
	return Vec2{X: v.X + o.X, Y: v.Y + o.Y}
}

func (v Vec2) Sub(o Vec2) Vec2 {
	return Vec2{X: v.X - o.X, Y: v.Y - o.Y}
}

func (v Vec2) MulScalar(s float32) Vec2 {
	return Vec2{X: v.X * s, Y: v.Y * s}
}

func (v Vec2) Length() float32 {
	return math32.Sqrt(v.X*v.X + v.Y*v.Y)
}

func NewVec3(x, y, z float32) Vec3 {
	return Vec3{X: x, Y: y, Z: z}
}

func NewMat3Identity() Mat3 {
	return Mat3{Cols: [3]Vec3{
		{X: 1},
		{Y: 1},
		{Z: 1},
	}}
}

// MulVec3 returns m * v.
func (m Mat3) MulVec3(v Vec3) Vec3 {
	return Vec3{
		X: m.Cols[0].X*v.X + m.Cols[1].X*v.Y + m.Cols[2].X*v.Z,
		Y: m.Cols[0].Y*v.X + m.Cols[1].Y*v.Y + m.Cols[2].Y*v.Z,
		Z: m.Cols[0].Z*v.X + m.Cols[1].Z*v.Y + m.Cols[2].Z*v.Z,
	}
}

// TransformPoint applies m to the point p (w = 1).
func (m Mat3) TransformPoint(p Vec2) Vec2 {
	r := m.MulVec3(Vec3{X: p.X, Y: p.Y, Z: 1})
	return Vec2{X: r.X, Y: r.Y}
}
