package renderer

import (
	"errors"
	"fmt"
	"image"

	"github.com/spaghettifunk/anima2d/engine/core"
)

type Options struct {
	ClearColor Color
}

func DefaultOptions() Options {
	return Options{ClearColor: ColorBlack}
}

// Renderer owns the image and shape registries, the pipelines and the
// backend. It must only be used from the goroutine running the event loop.
type Renderer struct {
	backend    Backend
	window     Window
	pipelines  *PipelineSet
	images     *imageRegistry
	shapes     *shapeRegistry
	clearColor Color
	isShutdown bool
}

// New builds the pipelines and sizes the swapchain to the window. Any
// failure is fatal for the renderer.
func New(backend Backend, window Window, shaders ShaderSource, opts Options) (*Renderer, error) {
	pipelines, err := NewPipelineSet(backend, shaders)
	if err != nil {
		core.LogError("failed to create the pipelines: %s", err)
		return nil, err
	}
	r := &Renderer{
		backend:    backend,
		window:     window,
		pipelines:  pipelines,
		images:     newImageRegistry(),
		shapes:     newShapeRegistry(),
		clearColor: opts.ClearColor,
	}
	if err := r.OnResize(); err != nil {
		pipelines.Release()
		return nil, err
	}
	core.LogInfo("renderer initialized")
	return r, nil
}

func (r *Renderer) Backend() Backend {
	return r.backend
}

func (r *Renderer) Pipelines() *PipelineSet {
	return r.pipelines
}

// UploadImage uploads img as an RGBA8 sRGB texture and waits for the copy to complete.
func (r *Renderer) UploadImage(img *image.RGBA) (ImageID, error) {
	pixels, w, h := rgbaPixels(img)
	return r.UploadPixels(pixels, w, h)
}

// UploadPixels uploads tightly packed RGBA8 pixels and waits for the copy to complete.
func (r *Renderer) UploadPixels(pixels []byte, width, height uint32) (ImageID, error) {
	graph := NewGraph()
	tex, err := r.recordTextureUpload(graph, pixels, width, height)
	if err != nil {
		graph.Release()
		return ImageID{}, err
	}
	if err := r.backend.SubmitUpload(graph); err != nil {
		tex.Release()
		return ImageID{}, fmt.Errorf("failed to upload image: %w: %w", core.ErrSubmitFailed, err)
	}
	id := r.images.insert(tex)
	core.LogDebug("Uploaded image %dx%d with id %s", width, height, id)
	return id, nil
}

// recordTextureUpload creates a texture and records the copy of pixels into
// it on graph. The returned reference belongs to the caller.
func (r *Renderer) recordTextureUpload(graph *Graph, pixels []byte, width, height uint32) (*Shared[Texture], error) {
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("image size %dx%d: %w", width, height, core.ErrInvalidImage)
	}
	if uint64(len(pixels)) != uint64(width)*uint64(height)*4 {
		return nil, fmt.Errorf("got %d bytes for a %dx%d image: %w", len(pixels), width, height, core.ErrInvalidImage)
	}
	staging, err := r.backend.CreateBuffer(BufferUsageStaging, pixels)
	if err != nil {
		return nil, allocationError("staging buffer", err)
	}
	tex, err := r.backend.CreateTexture(width, height)
	if err != nil {
		staging.Release()
		return nil, allocationError("texture", err)
	}
	shared := NewShared(tex)
	graph.Add(&CopyBufferToImageCommand{
		Src:    staging,
		Dst:    tex,
		Width:  width,
		Height: height,
	}, staging, shared.Retain())
	return shared, nil
}

// DropImage removes the image from the registry. Shapes using it keep the
// texture alive until they are dropped.
func (r *Renderer) DropImage(id ImageID) {
	r.images.remove(id)
}

func (r *Renderer) HasImage(id ImageID) bool {
	_, ok := r.images.get(id)
	return ok
}

func (r *Renderer) ImageCount() int {
	return r.images.len()
}

// AddShape2D uploads the shape's vertices and indices and registers it.
// Nothing is registered when an error is returned.
func (r *Renderer) AddShape2D(shape Shape2D) (ShapeID, error) {
	if shape == nil {
		return ShapeID{}, fmt.Errorf("nil shape: %w", core.ErrInvalidShape)
	}
	var texture *Shared[Texture]
	if texID, ok := shape.textureID(); ok {
		tex, found := r.images.get(texID)
		if !found {
			return ShapeID{}, fmt.Errorf("image %s: %w", texID, core.ErrTextureNotFound)
		}
		texture = tex
	}
	if err := shape.validate(); err != nil {
		return ShapeID{}, err
	}

	internal := &shapeInternal{kind: shape.Kind()}
	vertexData := shape.vertexData()
	vb, err := r.backend.CreateBuffer(BufferUsageVertex, vertexData)
	if err != nil {
		return ShapeID{}, allocationError("vertex buffer", err)
	}
	internal.vertices = NewShared(vb)
	internal.vertexCount = uint32(len(vertexData) / vertexStride(internal.kind))

	if indexData := shape.indexData(); len(indexData) > 0 {
		ib, err := r.backend.CreateBuffer(BufferUsageIndex, indexData)
		if err != nil {
			internal.release()
			return ShapeID{}, allocationError("index buffer", err)
		}
		internal.indices = NewShared(ib)
		internal.indexCount = uint32(len(indexData) / 2)
	}
	if texture != nil {
		internal.texture = texture.Retain()
	}

	id := r.shapes.insert(internal, shape)
	core.LogDebug("Added shape with id %s", id)
	return id, nil
}

// DropShape2D removes the shape. Absent ids are ignored.
func (r *Renderer) DropShape2D(id ShapeID) {
	r.shapes.remove(id)
}

// Shape returns the description the shape was registered with.
func (r *Renderer) Shape(id ShapeID) (Shape2D, bool) {
	e, ok := r.shapes.get(id)
	if !ok {
		return nil, false
	}
	return e.original, true
}

func (r *Renderer) ShapeCount() int {
	return r.shapes.len()
}

// OnResize forwards the window's framebuffer size to the swapchain. The new
// extent is used by the next Begin.
func (r *Renderer) OnResize() error {
	w, h := r.window.FramebufferSize()
	if err := r.backend.SetSwapchainSize(w, h); err != nil {
		return fmt.Errorf("failed to resize swapchain to %dx%d: %w", w, h, err)
	}
	core.LogDebug("swapchain configured to %dx%d", w, h)
	return nil
}

func (r *Renderer) RequestRedraw() {
	r.window.RequestRedraw()
}

// Shutdown waits for the device, releases every registered resource and the
// backend. Calls after the first do nothing.
func (r *Renderer) Shutdown() error {
	if r.isShutdown {
		return nil
	}
	r.isShutdown = true
	if err := r.backend.WaitIdle(); err != nil {
		core.LogWarn("failed to wait for device idle: %s", err)
	}
	r.shapes.clear()
	r.images.clear()
	r.pipelines.Release()
	return r.backend.Shutdown()
}

func allocationError(what string, err error) error {
	if errors.Is(err, core.ErrAllocationFailed) {
		return fmt.Errorf("failed to create %s: %w", what, err)
	}
	return fmt.Errorf("failed to create %s: %w: %w", what, core.ErrAllocationFailed, err)
}

// rgbaPixels returns tightly packed pixels for img, copying when the image
// is a sub-image or has row padding.
func rgbaPixels(img *image.RGBA) ([]byte, uint32, uint32) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if img.Stride == w*4 && len(img.Pix) == w*h*4 {
		return img.Pix, uint32(w), uint32(h)
	}
	out := make([]byte, 0, w*h*4)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		start := img.PixOffset(b.Min.X, y)
		out = append(out, img.Pix[start:start+w*4]...)
	}
	return out, uint32(w), uint32(h)
}
