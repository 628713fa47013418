package renderer_test

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/anima2d/engine/core"
	"github.com/spaghettifunk/anima2d/engine/math"
	"github.com/spaghettifunk/anima2d/engine/renderer"
	"github.com/spaghettifunk/anima2d/engine/renderer/headless"
)

func newTestRenderer(t *testing.T) (*renderer.Renderer, *headless.Backend, *headless.Window) {
	t.Helper()
	backend := headless.New(0, 0)
	window := headless.NewWindow(320, 240)
	r, err := renderer.New(backend, window, headless.Shaders{}, renderer.DefaultOptions())
	require.NoError(t, err)
	return r, backend, window
}

func checkerboard() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	black := color.RGBA{A: 255}
	white := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	img.SetRGBA(0, 0, black)
	img.SetRGBA(1, 0, white)
	img.SetRGBA(0, 1, white)
	img.SetRGBA(1, 1, black)
	return img
}

func unitQuad(tex renderer.ImageID) renderer.TexturePolygon {
	return renderer.TexturePolygon{
		Texture:  tex,
		UVs:      []math.Vec2{{X: 0, Y: 1}, {X: 1, Y: 1}, {X: 0, Y: 0}, {X: 1, Y: 0}},
		Vertices: []math.Vec2{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: 1}, {X: 1, Y: 1}},
		Indices:  []uint16{0, 1, 2, 3, 2, 1},
	}
}

func triangle() renderer.ColorPolygon {
	return renderer.ColorPolygon{
		Colors:   []renderer.Color{renderer.ColorRed, renderer.ColorGreen, renderer.ColorBlue},
		Vertices: []math.Vec2{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: 1}},
		Indices:  []uint16{0, 1, 2},
	}
}

func TestNewSizesSwapchainToWindow(t *testing.T) {
	_, backend, _ := newTestRenderer(t)
	w, h := backend.SwapchainSize()
	assert.Equal(t, uint32(320), w)
	assert.Equal(t, uint32(240), h)
	assert.Equal(t, 3, backend.LivePipelines())
}

func TestNewPipelineFailureReleasesBuilt(t *testing.T) {
	backend := headless.New(0, 0)
	backend.FailPipeline[renderer.ShapeKindTexturePolygon] = true

	_, err := renderer.New(backend, headless.NewWindow(1, 1), headless.Shaders{}, renderer.DefaultOptions())
	assert.ErrorIs(t, err, core.ErrAllocationFailed)
	assert.Equal(t, 0, backend.LivePipelines())
}

func TestNewMissingShader(t *testing.T) {
	backend := headless.New(0, 0)
	shaders := headless.Shaders{Missing: map[string]bool{"color_poly2": true}}

	_, err := renderer.New(backend, headless.NewWindow(1, 1), shaders, renderer.DefaultOptions())
	assert.ErrorIs(t, err, core.ErrShaderCompile)
	assert.Equal(t, 0, backend.LivePipelines())
}

func TestEndToEndTexturedQuad(t *testing.T) {
	r, backend, window := newTestRenderer(t)

	img := checkerboard()
	texID, err := r.UploadImage(img)
	require.NoError(t, err)
	shapeID, err := r.AddShape2D(unitQuad(texID))
	require.NoError(t, err)

	frame, err := r.Begin()
	require.NoError(t, err)
	require.NoError(t, frame.DrawShape(shapeID, math.Transform2Identity()))
	require.NoError(t, frame.Finish())

	presented := backend.Presented()
	require.Len(t, presented, 1)
	passes := presented[0].Passes()
	require.Len(t, passes, 1)

	pass := passes[0]
	assert.Equal(t, renderer.ShapeKindTexturePolygon, pass.Kind)
	assert.Equal(t, renderer.ShapeKindTexturePolygon, pass.Pipeline.Kind())
	assert.Equal(t, "TexturePoly #1", pass.Name)
	assert.True(t, pass.Indexed())
	assert.Equal(t, uint32(6), pass.IndexCount)
	assert.Equal(t, uint32(4), pass.VertexCount)
	assert.Equal(t, renderer.NewPushConstants(math.Transform2Identity()), pass.PushConstants)

	// the bound texture holds exactly the uploaded pixels
	tex := pass.Texture.(*headless.Texture)
	assert.Equal(t, img.Pix, tex.Pixels())
	assert.Equal(t, uint32(2), tex.Width())

	assert.Equal(t, uint32(0), frame.LineCount())
	assert.Equal(t, uint32(0), frame.ColorPolyCount())
	assert.Equal(t, uint32(1), frame.TexturePolyCount())

	clear, ok := presented[0].Commands[0].(*renderer.ClearCommand)
	require.True(t, ok)
	assert.Equal(t, renderer.ColorBlack, clear.Color)

	assert.Equal(t, 1, window.PrePresents())
	assert.Equal(t, 1, window.Redraws())
}

func TestTexturePassBindsItsOwnImage(t *testing.T) {
	r, backend, _ := newTestRenderer(t)

	first, err := r.UploadPixels([]byte{255, 0, 0, 255}, 1, 1)
	require.NoError(t, err)
	second, err := r.UploadPixels([]byte{0, 0, 255, 255}, 1, 1)
	require.NoError(t, err)

	quad := unitQuad(second)
	shapeID, err := r.AddShape2D(quad)
	require.NoError(t, err)
	assert.True(t, r.HasImage(first))

	frame, err := r.Begin()
	require.NoError(t, err)
	require.NoError(t, frame.DrawShape(shapeID, math.Transform2Identity()))
	require.NoError(t, frame.Finish())

	pass := backend.Presented()[0].Passes()[0]
	assert.Equal(t, []byte{0, 0, 255, 255}, pass.Texture.(*headless.Texture).Pixels())
}

func TestAddShapeWithDanglingTexture(t *testing.T) {
	r, backend, _ := newTestRenderer(t)

	id, err := r.UploadPixels(make([]byte, 4), 1, 1)
	require.NoError(t, err)
	r.DropImage(id)

	_, err = r.AddShape2D(unitQuad(id))
	assert.ErrorIs(t, err, core.ErrTextureNotFound)
	assert.Equal(t, 0, r.ShapeCount())
	assert.Equal(t, 0, backend.LiveBuffers())
}

func TestAddShapeFreshIDs(t *testing.T) {
	r, _, _ := newTestRenderer(t)

	seen := map[renderer.ShapeID]bool{}
	for i := 0; i < 20; i++ {
		id, err := r.AddShape2D(triangle())
		require.NoError(t, err)
		assert.False(t, seen[id])
		seen[id] = true
	}
	assert.Equal(t, 20, r.ShapeCount())

	shape, ok := r.Shape(firstKey(seen))
	require.True(t, ok)
	assert.Equal(t, renderer.ShapeKindColorPolygon, shape.Kind())
}

func firstKey(m map[renderer.ShapeID]bool) renderer.ShapeID {
	for k := range m {
		return k
	}
	return renderer.ShapeID{}
}

func TestAddShapeInvalid(t *testing.T) {
	r, backend, _ := newTestRenderer(t)

	bad := triangle()
	bad.Indices = []uint16{0, 1, 5}
	_, err := r.AddShape2D(bad)
	assert.ErrorIs(t, err, core.ErrInvalidShape)

	_, err = r.AddShape2D(nil)
	assert.ErrorIs(t, err, core.ErrInvalidShape)

	assert.Equal(t, 0, r.ShapeCount())
	assert.Equal(t, 0, backend.LiveBuffers())
}

func TestAddShapeAllocationFailure(t *testing.T) {
	r, backend, _ := newTestRenderer(t)
	backend.FailBuffers = true

	_, err := r.AddShape2D(triangle())
	assert.ErrorIs(t, err, core.ErrAllocationFailed)
	assert.Equal(t, 0, r.ShapeCount())
}

func TestUploadInvalidImage(t *testing.T) {
	r, backend, _ := newTestRenderer(t)

	_, err := r.UploadPixels(make([]byte, 3), 1, 1)
	assert.ErrorIs(t, err, core.ErrInvalidImage)
	_, err = r.UploadPixels(nil, 0, 4)
	assert.ErrorIs(t, err, core.ErrInvalidImage)

	backend.FailTextures = true
	_, err = r.UploadPixels(make([]byte, 4), 1, 1)
	assert.ErrorIs(t, err, core.ErrAllocationFailed)

	assert.Equal(t, 0, r.ImageCount())
	assert.Equal(t, 0, backend.LiveBuffers())
	assert.Equal(t, 0, backend.LiveTextures())
}

func TestUploadSubImage(t *testing.T) {
	r, backend, _ := newTestRenderer(t)

	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.SetRGBA(2, 2, color.RGBA{R: 9, G: 8, B: 7, A: 6})
	sub := img.SubImage(image.Rect(2, 2, 3, 3)).(*image.RGBA)

	_, err := r.UploadImage(sub)
	require.NoError(t, err)

	subs := backend.Submissions()
	copyCmd := subs[len(subs)-1].Commands[0].(*renderer.CopyBufferToImageCommand)
	assert.Equal(t, []byte{9, 8, 7, 6}, copyCmd.Dst.(*headless.Texture).Pixels())
}

func TestDrawUnknownShape(t *testing.T) {
	r, _, _ := newTestRenderer(t)

	frame, err := r.Begin()
	require.NoError(t, err)
	before := frame.Graph().Len()

	err = frame.DrawShape(renderer.ShapeID{}, math.Transform2Identity())
	assert.ErrorIs(t, err, core.ErrShapeNotFound)
	assert.Equal(t, before, frame.Graph().Len())
	assert.Zero(t, frame.LineCount()+frame.ColorPolyCount()+frame.TexturePolyCount())
	assert.Equal(t, renderer.FrameBegun, frame.State())
	frame.Discard()
}

func TestRemovalIsIdempotent(t *testing.T) {
	r, backend, _ := newTestRenderer(t)

	img, err := r.UploadPixels(make([]byte, 4), 1, 1)
	require.NoError(t, err)
	other, err := r.UploadPixels(make([]byte, 4), 1, 1)
	require.NoError(t, err)
	shape, err := r.AddShape2D(triangle())
	require.NoError(t, err)
	keep, err := r.AddShape2D(triangle())
	require.NoError(t, err)

	r.DropImage(img)
	r.DropImage(img)
	r.DropShape2D(shape)
	r.DropShape2D(shape)

	assert.True(t, r.HasImage(other))
	_, ok := r.Shape(keep)
	assert.True(t, ok)
	assert.Equal(t, 1, r.ImageCount())
	assert.Equal(t, 1, r.ShapeCount())
	assert.Equal(t, 1, backend.LiveTextures())
	assert.Equal(t, 2, backend.LiveBuffers())
}

func TestTextureOutlivesImageRegistryEntry(t *testing.T) {
	r, backend, _ := newTestRenderer(t)

	img, err := r.UploadPixels(make([]byte, 16), 2, 2)
	require.NoError(t, err)
	shape, err := r.AddShape2D(unitQuad(img))
	require.NoError(t, err)

	r.DropImage(img)
	assert.Equal(t, 1, backend.LiveTextures())

	frame, err := r.Begin()
	require.NoError(t, err)
	require.NoError(t, frame.DrawShape(shape, math.Transform2Identity()))

	// dropping mid-frame keeps the pass resources alive until submission
	r.DropShape2D(shape)
	assert.Equal(t, 1, backend.LiveTextures())
	assert.Equal(t, 2, backend.LiveBuffers())

	require.NoError(t, frame.Finish())
	assert.Equal(t, 0, backend.LiveTextures())
	assert.Equal(t, 0, backend.LiveBuffers())
}

func TestResize(t *testing.T) {
	r, _, window := newTestRenderer(t)

	window.Resize(800, 600)
	require.NoError(t, r.OnResize())

	frame, err := r.Begin()
	require.NoError(t, err)
	assert.Equal(t, uint32(800), frame.Target().Width)
	assert.Equal(t, uint32(600), frame.Target().Height)
	frame.Discard()
}

func TestBeginWithoutImage(t *testing.T) {
	r, backend, _ := newTestRenderer(t)
	backend.NoImageAvailable = true

	frame, err := r.Begin()
	assert.ErrorIs(t, err, core.ErrNoImageAvailable)
	assert.Nil(t, frame)

	backend.NoImageAvailable = false
	frame, err = r.Begin()
	require.NoError(t, err)
	frame.Discard()
}

func TestFrameStateMachine(t *testing.T) {
	r, backend, _ := newTestRenderer(t)
	shape, err := r.AddShape2D(triangle())
	require.NoError(t, err)

	frame, err := r.Begin()
	require.NoError(t, err)
	assert.Equal(t, renderer.FrameBegun, frame.State())

	require.NoError(t, frame.DrawShape(shape, math.Transform2Identity()))
	assert.Equal(t, renderer.FrameRecording, frame.State())

	require.NoError(t, frame.Finish())
	assert.Equal(t, renderer.FrameFinished, frame.State())

	assert.ErrorIs(t, frame.DrawShape(shape, math.Transform2Identity()), core.ErrFrameFinished)
	assert.ErrorIs(t, frame.Finish(), core.ErrFrameFinished)
	_, err = frame.UploadImage(checkerboard())
	assert.ErrorIs(t, err, core.ErrFrameFinished)
	assert.Len(t, backend.Presented(), 1)
}

func TestPassNamesPerKind(t *testing.T) {
	r, backend, _ := newTestRenderer(t)
	tex, err := r.UploadImage(checkerboard())
	require.NoError(t, err)

	line, err := r.AddShape2D(renderer.Line{
		Colors: []renderer.Color{renderer.ColorWhite, renderer.ColorWhite},
		Points: []math.Vec2{{X: -1, Y: -1}, {X: 1, Y: 1}},
	})
	require.NoError(t, err)
	poly, err := r.AddShape2D(triangle())
	require.NoError(t, err)
	quad, err := r.AddShape2D(unitQuad(tex))
	require.NoError(t, err)

	frame, err := r.Begin()
	require.NoError(t, err)
	for _, id := range []renderer.ShapeID{line, poly, line, quad, poly, line} {
		require.NoError(t, frame.DrawShape(id, math.Transform2Identity()))
	}
	require.NoError(t, frame.Finish())

	var names []string
	for _, p := range backend.Presented()[0].Passes() {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{
		"Line #1", "ColorPoly #1", "Line #2", "TexturePoly #1", "ColorPoly #2", "Line #3",
	}, names)

	linePass := backend.Presented()[0].Passes()[0]
	assert.False(t, linePass.Indexed())
	assert.Nil(t, linePass.Texture)
	assert.Equal(t, uint32(2), linePass.VertexCount)
	desc := linePass.Pipeline.(*headless.Pipeline).Desc()
	assert.Equal(t, renderer.TopologyLineStrip, desc.Topology)
	assert.Equal(t, renderer.PolygonModeLine, desc.PolygonMode)
}

func TestDiscardSubmitsNothing(t *testing.T) {
	r, backend, window := newTestRenderer(t)
	shape, err := r.AddShape2D(triangle())
	require.NoError(t, err)

	frame, err := r.Begin()
	require.NoError(t, err)
	require.NoError(t, frame.DrawShape(shape, math.Transform2Identity()))
	frame.Discard()
	frame.Discard()

	assert.Empty(t, backend.Presented())
	assert.Zero(t, window.PrePresents())
	assert.ErrorIs(t, frame.Finish(), core.ErrFrameFinished)

	r.DropShape2D(shape)
	assert.Equal(t, 0, backend.LiveBuffers())
}

func TestFinishSubmitFailure(t *testing.T) {
	r, backend, window := newTestRenderer(t)
	shape, err := r.AddShape2D(triangle())
	require.NoError(t, err)
	backend.FailSubmit = true

	frame, err := r.Begin()
	require.NoError(t, err)
	require.NoError(t, frame.DrawShape(shape, math.Transform2Identity()))
	assert.ErrorIs(t, frame.Finish(), core.ErrSubmitFailed)
	assert.Zero(t, window.Redraws())

	r.DropShape2D(shape)
	assert.Equal(t, 0, backend.LiveBuffers())
}

func TestCustomHookAndFrameUpload(t *testing.T) {
	r, backend, _ := newTestRenderer(t)

	frame, err := r.Begin()
	require.NoError(t, err)

	tex, err := frame.UploadImage(checkerboard())
	require.NoError(t, err)
	assert.True(t, r.HasImage(tex))

	var seen *renderer.Renderer
	frame.Custom(func(rr *renderer.Renderer, g *renderer.Graph) {
		seen = rr
		g.Add(&renderer.ClearCommand{Target: frame.Target(), Color: renderer.ColorRed})
	})
	assert.Same(t, r, seen)
	require.NoError(t, frame.Finish())

	cmds := backend.Presented()[0].Commands
	require.Len(t, cmds, 3)
	assert.IsType(t, &renderer.ClearCommand{}, cmds[0])
	assert.IsType(t, &renderer.CopyBufferToImageCommand{}, cmds[1])
	assert.Equal(t, renderer.ColorRed, cmds[2].(*renderer.ClearCommand).Color)

	copyCmd := cmds[1].(*renderer.CopyBufferToImageCommand)
	assert.Equal(t, checkerboard().Pix, copyCmd.Dst.(*headless.Texture).Pixels())
}

func TestShutdownReleasesEverything(t *testing.T) {
	r, backend, _ := newTestRenderer(t)
	tex, err := r.UploadImage(checkerboard())
	require.NoError(t, err)
	_, err = r.AddShape2D(unitQuad(tex))
	require.NoError(t, err)

	require.NoError(t, r.Shutdown())
	assert.Equal(t, 0, backend.LiveBuffers())
	assert.Equal(t, 0, backend.LiveTextures())
	assert.Equal(t, 0, backend.LivePipelines())
}

func TestDiscardDropsFrameUploads(t *testing.T) {
	r, backend, _ := newTestRenderer(t)

	frame, err := r.Begin()
	require.NoError(t, err)
	tex, err := frame.UploadImage(checkerboard())
	require.NoError(t, err)
	frame.Discard()

	assert.False(t, r.HasImage(tex))
	assert.Equal(t, 0, r.ImageCount())
	assert.Equal(t, 0, backend.LiveTextures())

	_, err = r.AddShape2D(unitQuad(tex))
	assert.ErrorIs(t, err, core.ErrTextureNotFound)
	assert.Equal(t, 0, r.ShapeCount())
}

func TestFailedFinishDropsFrameUploads(t *testing.T) {
	r, backend, _ := newTestRenderer(t)
	kept, err := r.UploadImage(checkerboard())
	require.NoError(t, err)
	backend.FailSubmit = true

	frame, err := r.Begin()
	require.NoError(t, err)
	tex, err := frame.UploadImage(checkerboard())
	require.NoError(t, err)
	assert.ErrorIs(t, frame.Finish(), core.ErrSubmitFailed)

	assert.False(t, r.HasImage(tex))
	assert.True(t, r.HasImage(kept))
	assert.Equal(t, 1, backend.LiveTextures())
}
