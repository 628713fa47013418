package math

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func assertVec2(t *testing.T, want, got Vec2) {
	t.Helper()
	assert.InDelta(t, want.X, got.X, 1e-5)
	assert.InDelta(t, want.Y, got.Y, 1e-5)
}

func TestIdentityHomogeneousMatrix(t *testing.T) {
	assert.Equal(t, NewMat3Identity(), Transform2Identity().HomogeneousMatrix())
}

func TestHomogeneousMatrixTranslation(t *testing.T) {
	m := Transform2FromTranslation(NewVec2(0.25, -0.5)).HomogeneousMatrix()
	assert.Equal(t, Vec3{X: 0.25, Y: -0.5, Z: 1}, m.Cols[2])
	assertVec2(t, NewVec2(1.25, 0.5), m.TransformPoint(NewVec2(1, 1)))
}

func TestHomogeneousMatrixRotationAndScale(t *testing.T) {
	tr := NewTransform2(NewVec2(1, 0), NewRotation2(K_HALF_PI), 2)
	m := tr.HomogeneousMatrix()

	// (1, 0) scaled to (2, 0), rotated to (0, 2), translated to (1, 2)
	assertVec2(t, NewVec2(1, 2), m.TransformPoint(NewVec2(1, 0)))
	assertVec2(t, tr.TransformPoint(NewVec2(0.3, -0.7)), m.TransformPoint(NewVec2(0.3, -0.7)))
	assert.InDelta(t, 0, m.Cols[0].Z, 1e-9)
	assert.InDelta(t, 0, m.Cols[1].Z, 1e-9)
	assert.InDelta(t, 1, m.Cols[2].Z, 1e-9)
}

func TestTranslate(t *testing.T) {
	tr := Transform2Identity().Translate(NewVec2(0, -0.5))
	assertVec2(t, NewVec2(0, -0.5), tr.Translation)
	assert.Equal(t, float32(1), tr.Scale)
}

func TestClampAndLerp(t *testing.T) {
	assert.Equal(t, 5, Clamp(7, 0, 5))
	assert.Equal(t, uint32(2), Clamp(uint32(1), 2, 10))
	assert.Equal(t, float32(-1), Clamp(float32(-3), -1, 0))
	assert.Equal(t, 0.5, Clamp(0.5, 0, 1))
	assert.InDelta(t, 0.75, Lerp(0.5, 1.0, 0.5), 1e-12)
}

func TestDegRad(t *testing.T) {
	assert.InDelta(t, K_PI, DegToRad(180), 1e-6)
	assert.InDelta(t, 90, RadToDeg(K_HALF_PI), 1e-4)
	assert.True(t, FloatEqual(0.1+0.2, 0.3))
	assert.False(t, FloatEqual(1, 1.001))
}
