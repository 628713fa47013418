package headless

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/anima2d/engine/core"
	"github.com/spaghettifunk/anima2d/engine/renderer"
)

func TestAcquireCyclesImages(t *testing.T) {
	b := New(640, 480)

	first, err := b.AcquireNextImage()
	require.NoError(t, err)
	second, err := b.AcquireNextImage()
	require.NoError(t, err)
	third, err := b.AcquireNextImage()
	require.NoError(t, err)

	assert.Equal(t, uint32(0), first.Index)
	assert.Equal(t, uint32(1), second.Index)
	assert.Equal(t, uint32(0), third.Index)
	assert.Equal(t, uint32(640), first.Width)
	assert.Equal(t, uint32(480), first.Height)
}

func TestAcquireWithoutImage(t *testing.T) {
	b := New(640, 480)
	b.NoImageAvailable = true
	_, err := b.AcquireNextImage()
	assert.ErrorIs(t, err, core.ErrNoImageAvailable)

	b.NoImageAvailable = false
	require.NoError(t, b.SetSwapchainSize(0, 0))
	_, err = b.AcquireNextImage()
	assert.ErrorIs(t, err, core.ErrNoImageAvailable)
}

func TestUploadCopiesPixels(t *testing.T) {
	b := New(1, 1)
	pixels := []byte{1, 2, 3, 4, 5, 6, 7, 8}

	src, err := b.CreateBuffer(renderer.BufferUsageStaging, pixels)
	require.NoError(t, err)
	dst, err := b.CreateTexture(2, 1)
	require.NoError(t, err)

	g := renderer.NewGraph()
	g.Add(&renderer.CopyBufferToImageCommand{Src: src, Dst: dst, Width: 2, Height: 1}, src)
	require.NoError(t, b.SubmitUpload(g))

	assert.Equal(t, pixels, dst.(*Texture).Pixels())
	assert.True(t, src.(*Buffer).Released())
	assert.Equal(t, 0, b.LiveBuffers())
	assert.Equal(t, 1, b.LiveTextures())

	subs := b.Submissions()
	require.Len(t, subs, 1)
	assert.False(t, subs[0].Present)
	assert.Empty(t, b.Presented())
}

func TestSubmitFailureStillReleases(t *testing.T) {
	b := New(1, 1)
	b.FailSubmit = true
	buf, err := b.CreateBuffer(renderer.BufferUsageVertex, []byte{0})
	require.NoError(t, err)

	g := renderer.NewGraph()
	g.Retain(buf)
	assert.Error(t, b.Submit(g, renderer.SwapchainImage{}))
	assert.Equal(t, 0, b.LiveBuffers())
	assert.Empty(t, b.Submissions())
}

func TestAllocationFailures(t *testing.T) {
	b := New(1, 1)
	b.FailBuffers = true
	b.FailTextures = true
	b.FailPipeline[renderer.ShapeKindLine] = true

	_, err := b.CreateBuffer(renderer.BufferUsageIndex, []byte{0, 0})
	assert.ErrorIs(t, err, core.ErrAllocationFailed)
	_, err = b.CreateTexture(4, 4)
	assert.ErrorIs(t, err, core.ErrAllocationFailed)
	_, err = b.CreatePipeline(renderer.PipelineDesc{Kind: renderer.ShapeKindLine, Name: "line"})
	assert.ErrorIs(t, err, core.ErrAllocationFailed)
	_, err = b.CreatePipeline(renderer.PipelineDesc{Kind: renderer.ShapeKindColorPolygon, Name: "color_poly2"})
	assert.ErrorIs(t, err, core.ErrShaderCompile)
}

func TestShadersMissing(t *testing.T) {
	s := Shaders{Missing: map[string]bool{"line": true}}
	_, err := s.LoadShader("line", renderer.ShaderStageVertex)
	assert.ErrorIs(t, err, core.ErrShaderCompile)

	code, err := s.LoadShader("tex_poly2", renderer.ShaderStageFragment)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x07230203), code[0])
}
