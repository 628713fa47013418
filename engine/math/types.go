package math

// Vec2 represents a 2D vector or point
type Vec2 struct {
	X, Y float32
}

// Vec3 represents a 3D vector, used for homogeneous 2D coordinates
type Vec3 struct {
	X, Y, Z float32
}

// Mat3 is a column-major 3x3 matrix. Cols[c] is column c.
type Mat3 struct {
	Cols [3]Vec3
}

// Rotation2 is a planar rotation stored as an angle in radians, counter-clockwise.
type Rotation2 struct {
	Angle float32
}

// Transform2 is a similarity transform: uniform scale, then rotation, then translation.
type Transform2 struct {
	Translation Vec2
	Rotation    Rotation2
	Scale       float32
}
