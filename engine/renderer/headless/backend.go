// Package headless implements renderer.Backend in host memory. Uploads are
// executed on byte slices and every submitted graph is recorded so the
// commands a frame produced can be inspected.
package headless

import (
	"errors"
	"fmt"
	"sync"

	"github.com/spaghettifunk/anima2d/engine/core"
	"github.com/spaghettifunk/anima2d/engine/renderer"
)

var errSubmitRejected = errors.New("headless submit rejected")

// Submission is a graph that reached Submit or SubmitUpload.
type Submission struct {
	Commands []renderer.Command
	Target   renderer.SwapchainImage
	Present  bool
}

// Passes returns the render passes of the submission in order.
func (s Submission) Passes() []*renderer.PassCommand {
	var out []*renderer.PassCommand
	for _, c := range s.Commands {
		if p, ok := c.(*renderer.PassCommand); ok {
			out = append(out, p)
		}
	}
	return out
}

// Backend is safe for concurrent use so tests can inspect it freely.
type Backend struct {
	mu sync.Mutex

	width, height uint32
	imageCount    uint32
	nextImage     uint32

	submissions []Submission

	liveBuffers   int
	liveTextures  int
	livePipelines int

	// Failure switches.
	NoImageAvailable bool
	FailSubmit       bool
	FailBuffers      bool
	FailTextures     bool
	FailPipeline     map[renderer.ShapeKind]bool
}

func New(width, height uint32) *Backend {
	return &Backend{
		width:        width,
		height:       height,
		imageCount:   2,
		FailPipeline: make(map[renderer.ShapeKind]bool),
	}
}

func (b *Backend) CreateBuffer(usage renderer.BufferUsage, data []byte) (renderer.Buffer, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.FailBuffers {
		return nil, fmt.Errorf("%s buffer of %d bytes: %w", usage, len(data), core.ErrAllocationFailed)
	}
	b.liveBuffers++
	return &Buffer{
		backend: b,
		usage:   usage,
		data:    append([]byte(nil), data...),
	}, nil
}

func (b *Backend) CreateTexture(width, height uint32) (renderer.Texture, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.FailTextures {
		return nil, fmt.Errorf("texture %dx%d: %w", width, height, core.ErrAllocationFailed)
	}
	b.liveTextures++
	return &Texture{
		backend: b,
		width:   width,
		height:  height,
		pixels:  make([]byte, int(width)*int(height)*4),
	}, nil
}

func (b *Backend) CreatePipeline(desc renderer.PipelineDesc) (renderer.Pipeline, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.FailPipeline[desc.Kind] {
		return nil, fmt.Errorf("pipeline %s: %w", desc.Name, core.ErrAllocationFailed)
	}
	if len(desc.VertexShader) == 0 || len(desc.FragmentShader) == 0 {
		return nil, fmt.Errorf("pipeline %s has no shader code: %w", desc.Name, core.ErrShaderCompile)
	}
	b.livePipelines++
	return &Pipeline{backend: b, desc: desc}, nil
}

func (b *Backend) SetSwapchainSize(width, height uint32) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.width, b.height = width, height
	return nil
}

func (b *Backend) SwapchainSize() (uint32, uint32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.width, b.height
}

func (b *Backend) AcquireNextImage() (renderer.SwapchainImage, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.NoImageAvailable || b.width == 0 || b.height == 0 {
		return renderer.SwapchainImage{}, core.ErrNoImageAvailable
	}
	img := renderer.SwapchainImage{Index: b.nextImage, Width: b.width, Height: b.height}
	b.nextImage = (b.nextImage + 1) % b.imageCount
	return img, nil
}

func (b *Backend) Submit(graph *renderer.Graph, target renderer.SwapchainImage) error {
	return b.submit(graph, target, true)
}

func (b *Backend) SubmitUpload(graph *renderer.Graph) error {
	return b.submit(graph, renderer.SwapchainImage{}, false)
}

func (b *Backend) submit(graph *renderer.Graph, target renderer.SwapchainImage, present bool) error {
	// Work is complete as soon as this returns.
	defer graph.Release()

	b.mu.Lock()
	fail := b.FailSubmit
	b.mu.Unlock()
	if fail {
		return errSubmitRejected
	}

	for _, cmd := range graph.Commands() {
		if c, ok := cmd.(*renderer.CopyBufferToImageCommand); ok {
			src := c.Src.(*Buffer)
			dst := c.Dst.(*Texture)
			copy(dst.pixels, src.data)
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.submissions = append(b.submissions, Submission{
		Commands: append([]renderer.Command(nil), graph.Commands()...),
		Target:   target,
		Present:  present,
	})
	return nil
}

func (b *Backend) WaitIdle() error {
	return nil
}

func (b *Backend) Shutdown() error {
	core.LogDebug("headless backend shut down with %d submissions", len(b.Submissions()))
	return nil
}

func (b *Backend) Submissions() []Submission {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Submission(nil), b.submissions...)
}

// Presented returns only the submissions that presented a frame.
func (b *Backend) Presented() []Submission {
	var out []Submission
	for _, s := range b.Submissions() {
		if s.Present {
			out = append(out, s)
		}
	}
	return out
}

func (b *Backend) LiveBuffers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.liveBuffers
}

func (b *Backend) LiveTextures() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.liveTextures
}

func (b *Backend) LivePipelines() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.livePipelines
}
