package renderer

import (
	"fmt"
	"image"

	"github.com/spaghettifunk/anima2d/engine/core"
	"github.com/spaghettifunk/anima2d/engine/math"
)

type FrameState uint8

const (
	FrameBegun FrameState = iota
	FrameRecording
	FrameFinished
)

func (s FrameState) String() string {
	switch s {
	case FrameBegun:
		return "Begun"
	case FrameRecording:
		return "Recording"
	case FrameFinished:
		return "Finished"
	}
	return "Unknown"
}

// RenderFrame records the draws of one displayed frame. Nothing reaches the
// device until Finish; Discard abandons the frame.
type RenderFrame struct {
	renderer *Renderer
	graph    *Graph
	target   SwapchainImage
	state    FrameState

	lineCount        uint32
	colorPolyCount   uint32
	texturePolyCount uint32

	// Images uploaded by this frame. They only hold pixels once it is submitted.
	uploads []ImageID
}

// Begin acquires the next swapchain image and records a clear on it.
// core.ErrNoImageAvailable means this frame should be skipped.
func (r *Renderer) Begin() (*RenderFrame, error) {
	target, err := r.backend.AcquireNextImage()
	if err != nil {
		return nil, err
	}
	graph := NewGraph()
	graph.Add(&ClearCommand{Target: target, Color: r.clearColor})
	return &RenderFrame{
		renderer: r,
		graph:    graph,
		target:   target,
		state:    FrameBegun,
	}, nil
}

func (f *RenderFrame) State() FrameState {
	return f.state
}

func (f *RenderFrame) Target() SwapchainImage {
	return f.target
}

// Graph exposes the commands recorded so far.
func (f *RenderFrame) Graph() *Graph {
	return f.graph
}

func (f *RenderFrame) LineCount() uint32        { return f.lineCount }
func (f *RenderFrame) ColorPolyCount() uint32   { return f.colorPolyCount }
func (f *RenderFrame) TexturePolyCount() uint32 { return f.texturePolyCount }

// DrawShape records one render pass drawing the shape with transform t.
func (f *RenderFrame) DrawShape(id ShapeID, t math.Transform2) error {
	if f.state == FrameFinished {
		return core.ErrFrameFinished
	}
	entry, ok := f.renderer.shapes.get(id)
	if !ok {
		return fmt.Errorf("shape %s: %w", id, core.ErrShapeNotFound)
	}
	internal := entry.internal

	pass := &PassCommand{
		Kind:          internal.kind,
		Pipeline:      f.renderer.pipelines.Get(internal.kind),
		VertexBuffer:  internal.vertices.Get(),
		PushConstants: NewPushConstants(t),
		VertexCount:   internal.vertexCount,
		IndexCount:    internal.indexCount,
		Target:        f.target,
	}
	keep := []Resource{internal.vertices.Retain()}
	if internal.indices != nil {
		pass.IndexBuffer = internal.indices.Get()
		keep = append(keep, internal.indices.Retain())
	}
	if internal.texture != nil {
		pass.Texture = internal.texture.Get()
		keep = append(keep, internal.texture.Retain())
	}

	switch internal.kind {
	case ShapeKindLine:
		f.lineCount++
		pass.Name = fmt.Sprintf("Line #%d", f.lineCount)
		core.LogDebug("Render a line")
	case ShapeKindColorPolygon:
		f.colorPolyCount++
		pass.Name = fmt.Sprintf("ColorPoly #%d", f.colorPolyCount)
		core.LogDebug("Render a colored polygon")
	case ShapeKindTexturePolygon:
		f.texturePolyCount++
		pass.Name = fmt.Sprintf("TexturePoly #%d", f.texturePolyCount)
		core.LogDebug("Render a textured polygon")
	}

	f.graph.Add(pass, keep...)
	f.state = FrameRecording
	return nil
}

// UploadImage registers img and records its copy ahead of the passes drawn
// after this call. The texture holds valid data once the frame is submitted;
// if the frame is discarded or fails to submit the image is dropped again.
func (f *RenderFrame) UploadImage(img *image.RGBA) (ImageID, error) {
	if f.state == FrameFinished {
		return ImageID{}, core.ErrFrameFinished
	}
	pixels, w, h := rgbaPixels(img)
	tex, err := f.renderer.recordTextureUpload(f.graph, pixels, w, h)
	if err != nil {
		return ImageID{}, err
	}
	id := f.renderer.images.insert(tex)
	f.uploads = append(f.uploads, id)
	core.LogDebug("Uploaded image %dx%d with id %s in frame", w, h, id)
	return id, nil
}

// Custom runs fn with direct access to the renderer and the frame's graph.
func (f *RenderFrame) Custom(fn func(r *Renderer, g *Graph)) *RenderFrame {
	if f.state != FrameFinished {
		fn(f.renderer, f.graph)
	}
	return f
}

// Finish submits the frame for presentation and requests the next redraw.
func (f *RenderFrame) Finish() error {
	if f.state == FrameFinished {
		return core.ErrFrameFinished
	}
	f.state = FrameFinished
	core.LogDebug("Finish rendering")

	f.renderer.window.PrePresentNotify()
	if err := f.renderer.backend.Submit(f.graph, f.target); err != nil {
		core.LogError("failed to submit frame: %s", err)
		f.dropUploads()
		return fmt.Errorf("%w: %w", core.ErrSubmitFailed, err)
	}
	f.uploads = nil
	f.renderer.window.RequestRedraw()
	return nil
}

// Discard drops the frame without submitting anything.
func (f *RenderFrame) Discard() {
	if f.state == FrameFinished {
		return
	}
	f.state = FrameFinished
	f.graph.Release()
	f.dropUploads()
}

// dropUploads unregisters the images whose copy never reached the device.
// Shapes registered on them keep their texture reference until dropped.
func (f *RenderFrame) dropUploads() {
	for _, id := range f.uploads {
		f.renderer.images.remove(id)
	}
	f.uploads = nil
}
