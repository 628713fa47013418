package renderer

import (
	"encoding/binary"
	stdmath "math"

	"github.com/spaghettifunk/anima2d/engine/math"
)

const PushConstantSize = 64

// PushConstants carries the per-draw transform. Each column of the 3x3
// homogeneous matrix takes 16 bytes: x, y, w as float32 then 4 bytes of
// padding, which is how a GLSL mat3 is laid out in a push constant block.
// Bytes 48..63 stay zero.
type PushConstants [PushConstantSize]byte

func NewPushConstants(t math.Transform2) PushConstants {
	return PushConstantsFromMatrix(t.HomogeneousMatrix())
}

func PushConstantsFromMatrix(m math.Mat3) PushConstants {
	var pc PushConstants
	for c, col := range m.Cols {
		off := c * 16
		binary.LittleEndian.PutUint32(pc[off:], stdmath.Float32bits(col.X))
		binary.LittleEndian.PutUint32(pc[off+4:], stdmath.Float32bits(col.Y))
		binary.LittleEndian.PutUint32(pc[off+8:], stdmath.Float32bits(col.Z))
	}
	return pc
}

// Column decodes column c back into a vector.
func (pc PushConstants) Column(c int) math.Vec3 {
	off := c * 16
	return math.Vec3{
		X: stdmath.Float32frombits(binary.LittleEndian.Uint32(pc[off:])),
		Y: stdmath.Float32frombits(binary.LittleEndian.Uint32(pc[off+4:])),
		Z: stdmath.Float32frombits(binary.LittleEndian.Uint32(pc[off+8:])),
	}
}
