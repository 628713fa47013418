package math

import "github.com/chewxy/math32"

func NewRotation2(angle float32) Rotation2 {
	return Rotation2{Angle: angle}
}

// Rotate returns v rotated counter-clockwise by r.
func (r Rotation2) Rotate(v Vec2) Vec2 {
	s, c := math32.Sin(r.Angle), math32.Cos(r.Angle)
	return Vec2{X: c*v.X - s*v.Y, Y: s*v.X + c*v.Y}
}

func NewTransform2(translation Vec2, rotation Rotation2, scale float32) Transform2 {
	return Transform2{Translation: translation, Rotation: rotation, Scale: scale}
}

func Transform2Identity() Transform2 {
	return Transform2{Scale: 1}
}

func Transform2FromTranslation(translation Vec2) Transform2 {
	return Transform2{Translation: translation, Scale: 1}
}

// HomogeneousMatrix returns T * R * S as a 3x3 matrix acting on (x, y, 1).
func (t Transform2) HomogeneousMatrix() Mat3 {
	s, c := math32.Sin(t.Rotation.Angle), math32.Cos(t.Rotation.Angle)
	return Mat3{Cols: [3]Vec3{
		{X: t.Scale * c, Y: t.Scale * s, Z: 0},
		{X: -t.Scale * s, Y: t.Scale * c, Z: 0},
		{X: t.Translation.X, Y: t.Translation.Y, Z: 1},
	}}
}

// TransformPoint applies scale, rotation and translation to p.
func (t Transform2) TransformPoint(p Vec2) Vec2 {
	return t.Rotation.Rotate(p.MulScalar(t.Scale)).Add(t.Translation)
}

func (t Transform2) Translate(delta Vec2) Transform2 {
	t.Translation = t.Translation.Add(delta)
	return t
}
