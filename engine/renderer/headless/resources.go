package headless

import "github.com/spaghettifunk/anima2d/engine/renderer"

type Buffer struct {
	backend  *Backend
	usage    renderer.BufferUsage
	data     []byte
	released bool
}

func (b *Buffer) Usage() renderer.BufferUsage { return b.usage }
func (b *Buffer) Size() uint64                { return uint64(len(b.data)) }
func (b *Buffer) Bytes() []byte               { return b.data }
func (b *Buffer) Released() bool              { return b.released }

func (b *Buffer) Release() {
	if b.released {
		return
	}
	b.released = true
	b.backend.mu.Lock()
	b.backend.liveBuffers--
	b.backend.mu.Unlock()
}

type Texture struct {
	backend       *Backend
	width, height uint32
	pixels        []byte
	released      bool
}

func (t *Texture) Width() uint32  { return t.width }
func (t *Texture) Height() uint32 { return t.height }

// Pixels returns the RGBA8 content written by executed copies.
func (t *Texture) Pixels() []byte { return t.pixels }
func (t *Texture) Released() bool { return t.released }

func (t *Texture) Release() {
	if t.released {
		return
	}
	t.released = true
	t.backend.mu.Lock()
	t.backend.liveTextures--
	t.backend.mu.Unlock()
}

type Pipeline struct {
	backend  *Backend
	desc     renderer.PipelineDesc
	released bool
}

func (p *Pipeline) Kind() renderer.ShapeKind    { return p.desc.Kind }
func (p *Pipeline) Desc() renderer.PipelineDesc { return p.desc }

func (p *Pipeline) Release() {
	if p.released {
		return
	}
	p.released = true
	p.backend.mu.Lock()
	p.backend.livePipelines--
	p.backend.mu.Unlock()
}
