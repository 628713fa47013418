package testbed

import (
	"image"
	"image/color"
	"testing"

	"github.com/spaghettifunk/anima2d/engine/core"
	"github.com/spaghettifunk/anima2d/engine/renderer"
	"github.com/spaghettifunk/anima2d/engine/renderer/headless"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAssets struct {
	images  map[string]*image.RGBA
	changes []string
	loads   int
}

func (f *fakeAssets) LoadImage(name string) (*image.RGBA, error) {
	f.loads++
	img, ok := f.images[name]
	if !ok {
		return nil, core.ErrInvalidImage
	}
	return img, nil
}

func (f *fakeAssets) Changes() []string {
	out := f.changes
	f.changes = nil
	return out
}

func solid(c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func newTestQuad(t *testing.T) (*BouncingQuad, *headless.Backend, *headless.Window) {
	t.Helper()
	backend := headless.New(640, 480)
	window := headless.NewWindow(640, 480)
	r, err := renderer.New(backend, window, headless.Shaders{}, renderer.DefaultOptions())
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Shutdown() })

	q, err := newBouncingQuad(r, solid(color.RGBA{R: 255, A: 255}))
	require.NoError(t, err)
	return q, backend, window
}

func TestBounceTurnsAroundAtTheEnds(t *testing.T) {
	b := bounce{}
	assert.InDelta(t, -0.5, b.step(1), 1e-6)
	assert.InDelta(t, -1.0, b.step(1), 1e-6)
	assert.True(t, b.moveUp)
	assert.InDelta(t, -0.75, b.step(0.5), 1e-6)
	assert.InDelta(t, 0.0, b.step(2), 1e-6)
	assert.False(t, b.moveUp)
	assert.InDelta(t, -0.25, b.step(0.5), 1e-6)
}

func TestBounceStaysInRange(t *testing.T) {
	b := bounce{}
	for i := 0; i < 100; i++ {
		y := b.step(0.37)
		assert.GreaterOrEqual(t, y, BOUNCE_LOW)
		assert.LessOrEqual(t, y, BOUNCE_TOP)
	}
}

func TestTexturedQuadShape(t *testing.T) {
	quad := texturedQuad(renderer.ImageID{})
	assert.Equal(t, []uint16{0, 1, 2, 3, 2, 1}, quad.Indices)
	assert.Len(t, quad.Vertices, 4)
	assert.Equal(t, quad.Vertices, quad.UVs)
}

func TestRenderFrameDrawsTheQuad(t *testing.T) {
	q, backend, window := newTestQuad(t)
	assets := &fakeAssets{}

	require.NoError(t, q.renderFrame(assets))
	require.NoError(t, q.renderFrame(assets))

	presented := backend.Presented()
	require.Len(t, presented, 2)
	for _, s := range presented {
		passes := s.Passes()
		require.Len(t, passes, 1)
		assert.Equal(t, renderer.ShapeKindTexturePolygon, passes[0].Kind)
		assert.Equal(t, uint32(6), passes[0].IndexCount)
	}
	assert.Equal(t, 2, window.Redraws())
	assert.Zero(t, assets.loads)
}

func TestRenderFrameSkipsWithoutImage(t *testing.T) {
	q, backend, window := newTestQuad(t)
	backend.NoImageAvailable = true

	require.NoError(t, q.renderFrame(&fakeAssets{}))
	assert.Empty(t, backend.Presented())
	assert.Equal(t, 1, window.Redraws())
}

func TestRenderFrameSurfacesSubmitErrors(t *testing.T) {
	q, backend, _ := newTestQuad(t)
	backend.FailSubmit = true

	assert.ErrorIs(t, q.renderFrame(&fakeAssets{}), core.ErrSubmitFailed)
}

func TestChangedImageIsReuploaded(t *testing.T) {
	q, backend, _ := newTestQuad(t)
	oldImage, oldShape := q.image, q.shape

	green := solid(color.RGBA{G: 255, A: 255})
	assets := &fakeAssets{
		images:  map[string]*image.RGBA{IMAGE_ASSET: green},
		changes: []string{"images/other.png", IMAGE_ASSET},
	}
	require.NoError(t, q.renderFrame(assets))
	assert.Equal(t, 1, assets.loads)

	assert.NotEqual(t, oldImage, q.image)
	assert.NotEqual(t, oldShape, q.shape)
	assert.False(t, q.render.HasImage(oldImage))
	assert.True(t, q.render.HasImage(q.image))
	assert.Equal(t, 1, q.render.ImageCount())
	assert.Equal(t, 1, q.render.ShapeCount())

	presented := backend.Presented()
	require.Len(t, presented, 1)
	passes := presented[0].Passes()
	require.Len(t, passes, 1)
	tex, ok := passes[0].Texture.(*headless.Texture)
	require.True(t, ok)
	assert.Equal(t, green.Pix, tex.Pixels())
	// The replaced texture was released once the frame completed.
	assert.Equal(t, 1, backend.LiveTextures())
}

func TestFailedReloadKeepsTheOldImage(t *testing.T) {
	q, backend, _ := newTestQuad(t)
	oldImage := q.image

	assets := &fakeAssets{changes: []string{IMAGE_ASSET}}
	require.NoError(t, q.renderFrame(assets))
	assert.Equal(t, oldImage, q.image)
	assert.Len(t, backend.Presented(), 1)
}
