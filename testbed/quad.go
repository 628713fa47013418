// Package testbed is a small application built on the engine: a textured
// unit square bouncing up and down.
package testbed

import (
	"errors"
	"fmt"
	"image"
	"os"

	"github.com/spaghettifunk/anima2d/engine"
	"github.com/spaghettifunk/anima2d/engine/core"
	"github.com/spaghettifunk/anima2d/engine/math"
	"github.com/spaghettifunk/anima2d/engine/renderer"
)

const (
	IMAGE_ASSET = "images/sample.png"
	// Units per second.
	BOUNCE_SPEED float32 = 0.5
	BOUNCE_TOP   float32 = 0.0
	BOUNCE_LOW   float32 = -1.0
	// Frames between two averaged frame time reports.
	METRICS_INTERVAL uint64 = 120
)

// imageSource is the part of the asset manager the example reads from.
type imageSource interface {
	LoadImage(name string) (*image.RGBA, error)
	Changes() []string
}

type bounce struct {
	y      float32
	moveUp bool
}

// step moves y by BOUNCE_SPEED*dt toward the current direction and turns
// around at the ends of [BOUNCE_LOW, BOUNCE_TOP].
func (b *bounce) step(dt float32) float32 {
	if b.moveUp {
		b.y += BOUNCE_SPEED * dt
		if b.y >= BOUNCE_TOP {
			b.moveUp = false
		}
	} else {
		b.y -= BOUNCE_SPEED * dt
		if b.y <= BOUNCE_LOW {
			b.moveUp = true
		}
	}
	b.y = math.Clamp(b.y, BOUNCE_LOW, BOUNCE_TOP)
	return b.y
}

// texturedQuad is the unit square with the whole image mapped onto it.
func texturedQuad(texture renderer.ImageID) renderer.TexturePolygon {
	corners := []math.Vec2{
		math.NewVec2(0, 0),
		math.NewVec2(0, 1),
		math.NewVec2(1, 0),
		math.NewVec2(1, 1),
	}
	return renderer.TexturePolygon{
		Texture:  texture,
		Indices:  []uint16{0, 1, 2, 3, 2, 1},
		Vertices: corners,
		UVs:      append([]math.Vec2(nil), corners...),
	}
}

// BouncingQuad implements engine.App. Custom events are OS signals, each
// of which ends the loop.
type BouncingQuad struct {
	render  *renderer.Renderer
	image   renderer.ImageID
	shape   renderer.ShapeID
	bounce  bounce
	clock   *core.Clock
	metrics *core.FrameMetrics
	frames  uint64
}

func NewBouncingQuad(el *engine.EventLoop[os.Signal]) (*BouncingQuad, error) {
	r, err := el.NewRenderer(el.Config().Window.Name)
	if err != nil {
		return nil, err
	}
	img, err := el.Assets().LoadImage(IMAGE_ASSET)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", IMAGE_ASSET, err)
	}
	q, err := newBouncingQuad(r, img)
	if err != nil {
		return nil, err
	}
	r.RequestRedraw()
	return q, nil
}

func newBouncingQuad(r *renderer.Renderer, img *image.RGBA) (*BouncingQuad, error) {
	id, err := r.UploadImage(img)
	if err != nil {
		return nil, err
	}
	shape, err := r.AddShape2D(texturedQuad(id))
	if err != nil {
		r.DropImage(id)
		return nil, err
	}
	clock := core.NewClock()
	clock.Start()
	return &BouncingQuad{
		render:  r,
		image:   id,
		shape:   shape,
		clock:   clock,
		metrics: core.NewFrameMetrics(),
	}, nil
}

func (q *BouncingQuad) Resumed(el *engine.EventLoop[os.Signal]) {
	w, h := el.FramebufferSize()
	core.LogInfo("testbed resumed at %dx%d", w, h)
}

func (q *BouncingQuad) WindowEvent(el *engine.EventLoop[os.Signal], ev engine.WindowEvent) {
	switch ev.Kind {
	case engine.WindowEventCloseRequested:
		el.Exit()
	case engine.WindowEventKeyPressed:
		if ev.Key == core.KEY_ESCAPE {
			el.Exit()
		}
	case engine.WindowEventResized:
		if err := q.render.OnResize(); err != nil {
			core.LogError("Error resizing: %s", err)
			el.Exit()
		}
	case engine.WindowEventRedrawRequested:
		if err := q.renderFrame(el.Assets()); err != nil {
			core.LogError("Error rendering: %s", err)
			el.Exit()
		}
	}
}

// DeviceEvent flips the bounce direction on a left click.
func (q *BouncingQuad) DeviceEvent(el *engine.EventLoop[os.Signal], ev engine.DeviceEvent) {
	if ev.Kind == engine.DeviceEventButtonPressed && ev.Button == core.BUTTON_LEFT {
		q.bounce.moveUp = !q.bounce.moveUp
	}
}

func (q *BouncingQuad) CustomEvent(el *engine.EventLoop[os.Signal], sig os.Signal) {
	core.LogInfo("received %s", sig)
	el.Exit()
}

func (q *BouncingQuad) renderFrame(assets imageSource) error {
	dt := q.clock.Tick()
	q.metrics.Update(dt)
	core.LogDebug("Frame time: %s", dt)
	if q.frames++; q.frames%METRICS_INTERVAL == 0 {
		core.LogDebug("Average frame time: %.3fms (%.1f fps)", q.metrics.FrameTime(), q.metrics.FPS())
	}
	y := q.bounce.step(float32(dt.Seconds()))

	frame, err := q.render.Begin()
	if errors.Is(err, core.ErrNoImageAvailable) {
		// Swapchain out of date or window hidden; try again next redraw.
		core.LogDebug("skipping frame: %s", err)
		q.render.RequestRedraw()
		return nil
	}
	if err != nil {
		return err
	}

	if err := q.reloadChanged(frame, assets); err != nil {
		frame.Discard()
		return err
	}
	if err := frame.DrawShape(q.shape, math.Transform2FromTranslation(math.NewVec2(0, y))); err != nil {
		frame.Discard()
		return err
	}
	return frame.Finish()
}

// reloadChanged re-uploads the image inside frame when its file changed and
// swaps the quad over to the new texture.
func (q *BouncingQuad) reloadChanged(frame *renderer.RenderFrame, assets imageSource) error {
	for _, name := range assets.Changes() {
		if name != IMAGE_ASSET {
			continue
		}
		img, err := assets.LoadImage(name)
		if err != nil {
			// Editors often write in several steps; the next change retries.
			core.LogWarn("failed to reload %s: %s", name, err)
			continue
		}
		id, err := frame.UploadImage(img)
		if err != nil {
			return err
		}
		shape, err := q.render.AddShape2D(texturedQuad(id))
		if err != nil {
			q.render.DropImage(id)
			return err
		}
		q.render.DropShape2D(q.shape)
		q.render.DropImage(q.image)
		q.shape, q.image = shape, id
		core.LogInfo("reloaded %s", name)
	}
	return nil
}
