package renderer

import (
	"github.com/google/uuid"

	"github.com/spaghettifunk/anima2d/engine/core"
)

// ImageID identifies a texture uploaded through the Renderer.
type ImageID uuid.UUID

func newImageID() ImageID {
	return ImageID(core.NewIdentifier())
}

func (id ImageID) String() string {
	return uuid.UUID(id).String()
}

// ShapeID identifies a shape registered with AddShape2D.
type ShapeID uuid.UUID

func newShapeID() ShapeID {
	return ShapeID(core.NewIdentifier())
}

func (id ShapeID) String() string {
	return uuid.UUID(id).String()
}
