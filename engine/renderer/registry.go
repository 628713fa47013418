package renderer

// imageRegistry owns one reference to every uploaded texture.
type imageRegistry struct {
	entries map[ImageID]*Shared[Texture]
}

func newImageRegistry() *imageRegistry {
	return &imageRegistry{entries: make(map[ImageID]*Shared[Texture])}
}

func (r *imageRegistry) insert(tex *Shared[Texture]) ImageID {
	id := newImageID()
	r.entries[id] = tex
	return id
}

func (r *imageRegistry) get(id ImageID) (*Shared[Texture], bool) {
	tex, ok := r.entries[id]
	return tex, ok
}

// remove drops the registry reference. Absent ids are ignored.
func (r *imageRegistry) remove(id ImageID) {
	if tex, ok := r.entries[id]; ok {
		delete(r.entries, id)
		tex.Release()
	}
}

func (r *imageRegistry) len() int {
	return len(r.entries)
}

func (r *imageRegistry) clear() {
	for id := range r.entries {
		r.remove(id)
	}
}

// shapeInternal is the device side of a registered shape.
type shapeInternal struct {
	kind        ShapeKind
	vertices    *Shared[Buffer]
	indices     *Shared[Buffer]
	texture     *Shared[Texture]
	vertexCount uint32
	indexCount  uint32
}

func (s *shapeInternal) release() {
	if s.vertices != nil {
		s.vertices.Release()
	}
	if s.indices != nil {
		s.indices.Release()
	}
	if s.texture != nil {
		s.texture.Release()
	}
}

type shapeEntry struct {
	internal *shapeInternal
	original Shape2D
}

type shapeRegistry struct {
	entries map[ShapeID]*shapeEntry
}

func newShapeRegistry() *shapeRegistry {
	return &shapeRegistry{entries: make(map[ShapeID]*shapeEntry)}
}

func (r *shapeRegistry) insert(internal *shapeInternal, original Shape2D) ShapeID {
	id := newShapeID()
	r.entries[id] = &shapeEntry{internal: internal, original: original}
	return id
}

func (r *shapeRegistry) get(id ShapeID) (*shapeEntry, bool) {
	e, ok := r.entries[id]
	return e, ok
}

func (r *shapeRegistry) remove(id ShapeID) {
	if e, ok := r.entries[id]; ok {
		delete(r.entries, id)
		e.internal.release()
	}
}

func (r *shapeRegistry) len() int {
	return len(r.entries)
}

func (r *shapeRegistry) clear() {
	for id := range r.entries {
		r.remove(id)
	}
}
