package engine

import (
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spaghettifunk/anima2d/engine/core"
	"github.com/spaghettifunk/anima2d/engine/math"
	"github.com/spaghettifunk/anima2d/engine/platform"
	"github.com/spaghettifunk/anima2d/engine/renderer"
	"github.com/spaghettifunk/anima2d/engine/renderer/headless"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedWindow replays one step per PumpMessages call and quits once the
// script runs out.
type scriptedWindow struct {
	events *core.EventSystem
	input  *core.Input

	width, height uint32
	redraw        bool
	script        []func(w *scriptedWindow)
	pumps         int
	waits         int
	prePresents   int
	started       bool
	shutdown      bool
	title         string
}

func (w *scriptedWindow) Startup(cfg platform.Config) error {
	w.started = true
	w.title = cfg.Name
	return nil
}

func (w *scriptedWindow) Shutdown() { w.shutdown = true }

func (w *scriptedWindow) PumpMessages(wait bool) {
	if wait {
		w.waits++
	}
	if w.pumps < len(w.script) {
		w.script[w.pumps](w)
	} else {
		w.events.Fire(core.EventContext{Type: core.EVENT_CODE_APPLICATION_QUIT})
	}
	w.pumps++
}

func (w *scriptedWindow) RedrawPending() bool { return w.redraw }

func (w *scriptedWindow) TakeRedrawRequest() bool {
	r := w.redraw
	w.redraw = false
	return r
}

func (w *scriptedWindow) SetTitle(title string)              { w.title = title }
func (w *scriptedWindow) FramebufferSize() (uint32, uint32) { return w.width, w.height }
func (w *scriptedWindow) PrePresentNotify()                 { w.prePresents++ }
func (w *scriptedWindow) RequestRedraw()                    { w.redraw = true }

func (w *scriptedWindow) resize(width, height uint32) {
	w.width, w.height = width, height
	w.events.Fire(core.EventContext{Type: core.EVENT_CODE_RESIZED, Data: &core.ResizeEvent{Width: width, Height: height}})
}

type recordingApp struct {
	resumed int
	window  []WindowEvent
	device  []DeviceEvent
	custom  []int
	onEvent func(el *EventLoop[int], ev WindowEvent)
	onStart func(el *EventLoop[int])
}

func (a *recordingApp) Resumed(el *EventLoop[int]) {
	a.resumed++
	if a.onStart != nil {
		a.onStart(el)
	}
}

func (a *recordingApp) WindowEvent(el *EventLoop[int], ev WindowEvent) {
	a.window = append(a.window, ev)
	if a.onEvent != nil {
		a.onEvent(el, ev)
	}
}

func (a *recordingApp) DeviceEvent(el *EventLoop[int], ev DeviceEvent) {
	a.device = append(a.device, ev)
}

func (a *recordingApp) CustomEvent(el *EventLoop[int], ev int) {
	a.custom = append(a.custom, ev)
}

func (a *recordingApp) kinds() []WindowEventKind {
	var out []WindowEventKind
	for _, ev := range a.window {
		out = append(out, ev.Kind)
	}
	return out
}

func testConfig(t *testing.T) *ApplicationConfig {
	t.Helper()
	dir := t.TempDir()
	shaderDir := filepath.Join(dir, "shaders")
	require.NoError(t, os.MkdirAll(shaderDir, 0o755))

	words := []uint32{0x07230203, 0x00010000, 0, 1, 0}
	buf := make([]byte, 4*len(words))
	for i, w := range words {
		binary.LittleEndian.PutUint32(buf[4*i:], w)
	}
	for _, desc := range renderer.DefaultPipelineDescs() {
		for _, stage := range []string{"vert", "frag"} {
			require.NoError(t, os.WriteFile(filepath.Join(shaderDir, desc.Name+"."+stage+".spv"), buf, 0o644))
		}
	}

	cfg := DefaultApplicationConfig()
	cfg.Window.Name = "engine test"
	cfg.Assets.Dir = dir
	cfg.Assets.ShaderDir = shaderDir
	return cfg
}

func newScriptedWindow(steps ...func(w *scriptedWindow)) (*scriptedWindow, *core.EventSystem, *core.Input) {
	events := core.NewEventSystem()
	input := core.NewInput(events)
	return &scriptedWindow{events: events, input: input, width: 640, height: 480, script: steps}, events, input
}

func runScripted(t *testing.T, cfg *ApplicationConfig, w *scriptedWindow, backend *headless.Backend, app *recordingApp) error {
	t.Helper()
	factory := func(title string) (renderer.Backend, error) {
		w.SetTitle(title)
		return backend, nil
	}
	return run(cfg, w.events, w.input, w, factory, nil, func(*EventLoop[int], *EventProxy[int]) (App[int], error) {
		return app, nil
	})
}

func TestRunDeliversWindowEvents(t *testing.T) {
	w, _, _ := newScriptedWindow(
		func(w *scriptedWindow) { w.input.ProcessKey(core.KEY_A, true) },
		func(w *scriptedWindow) { w.input.ProcessKey(core.KEY_A, false) },
		func(w *scriptedWindow) { w.resize(800, 600) },
		func(w *scriptedWindow) { w.events.Fire(core.EventContext{Type: core.EVENT_CODE_WINDOW_CLOSE}) },
	)
	app := &recordingApp{
		onEvent: func(el *EventLoop[int], ev WindowEvent) {
			if ev.Kind == WindowEventCloseRequested {
				el.Exit()
			}
		},
	}

	require.NoError(t, runScripted(t, testConfig(t), w, headless.New(640, 480), app))

	assert.True(t, w.started)
	assert.True(t, w.shutdown)
	assert.Equal(t, "engine test", w.title)
	assert.Equal(t, 1, app.resumed)
	assert.Equal(t, []WindowEventKind{
		WindowEventKeyPressed,
		WindowEventKeyReleased,
		WindowEventResized,
		WindowEventCloseRequested,
	}, app.kinds())
	assert.Equal(t, core.KEY_A, app.window[0].Key)
	assert.Equal(t, uint32(800), app.window[2].Width)
	assert.Equal(t, uint32(600), app.window[2].Height)
	assert.Equal(t, 4, w.pumps)
}

func TestRunDeliversDeviceEvents(t *testing.T) {
	w, _, _ := newScriptedWindow(
		func(w *scriptedWindow) { w.input.ProcessMouseMove(10, 20) },
		func(w *scriptedWindow) { w.input.ProcessButton(core.BUTTON_LEFT, true) },
		func(w *scriptedWindow) { w.input.ProcessMouseWheel(0, -1) },
	)
	app := &recordingApp{}

	require.NoError(t, runScripted(t, testConfig(t), w, headless.New(640, 480), app))

	require.Len(t, app.device, 3)
	assert.Equal(t, DeviceEvent{Kind: DeviceEventMouseMotion, X: 10, Y: 20}, app.device[0])
	assert.Equal(t, DeviceEvent{Kind: DeviceEventButtonPressed, Button: core.BUTTON_LEFT}, app.device[1])
	assert.Equal(t, DeviceEvent{Kind: DeviceEventMouseWheel, Y: -1}, app.device[2])
}

func TestRedrawRendersFrames(t *testing.T) {
	backend := headless.New(640, 480)
	w, _, _ := newScriptedWindow()
	w.script = make([]func(*scriptedWindow), 10)
	for i := range w.script {
		w.script[i] = func(*scriptedWindow) {}
	}

	var r *renderer.Renderer
	frames := 0
	app := &recordingApp{}
	app.onStart = func(el *EventLoop[int]) {
		var err error
		r, err = el.NewRenderer("frames")
		require.NoError(t, err)
		r.RequestRedraw()
	}
	app.onEvent = func(el *EventLoop[int], ev WindowEvent) {
		if ev.Kind != WindowEventRedrawRequested {
			return
		}
		frame, err := r.Begin()
		require.NoError(t, err)
		require.NoError(t, frame.Finish())
		frames++
		if frames == 3 {
			el.Exit()
		}
	}

	require.NoError(t, runScripted(t, testConfig(t), w, backend, app))

	assert.Equal(t, "frames", w.title)
	assert.Equal(t, 3, frames)
	assert.Len(t, backend.Presented(), 3)
	assert.Equal(t, 3, w.prePresents)
	// Finish keeps requesting redraws so the loop never blocks.
	assert.Zero(t, w.waits)
	// The loop shut the renderer down on exit.
	assert.Zero(t, backend.LivePipelines())
}

func TestMinimizedWindowSuspendsRedraws(t *testing.T) {
	var suspendedDuringRedraw bool
	w, _, _ := newScriptedWindow(
		func(w *scriptedWindow) { w.resize(0, 0) },
		func(w *scriptedWindow) { w.RequestRedraw() },
		func(w *scriptedWindow) { w.resize(320, 200) },
	)
	app := &recordingApp{}
	app.onEvent = func(el *EventLoop[int], ev WindowEvent) {
		if ev.Kind == WindowEventRedrawRequested {
			suspendedDuringRedraw = suspendedDuringRedraw || el.Suspended()
			el.Exit()
		}
	}

	require.NoError(t, runScripted(t, testConfig(t), w, headless.New(640, 480), app))

	assert.False(t, suspendedDuringRedraw)
	assert.Equal(t, []WindowEventKind{
		WindowEventResized,
		WindowEventResized,
		WindowEventRedrawRequested,
	}, app.kinds())
	// The second and third pumps ran while suspended and were allowed to block.
	assert.GreaterOrEqual(t, w.waits, 2)
}

func TestProxyDeliversCustomEventsInOrder(t *testing.T) {
	w, _, _ := newScriptedWindow(func(*scriptedWindow) {}, func(*scriptedWindow) {})
	app := &recordingApp{}
	var proxy *EventProxy[int]
	app.onStart = func(el *EventLoop[int]) {
		proxy = el.Proxy()
		require.NoError(t, proxy.Send(1))
		require.NoError(t, proxy.Send(2))
		proxy.Exit()
	}

	require.NoError(t, runScripted(t, testConfig(t), w, headless.New(640, 480), app))

	assert.Equal(t, []int{1, 2}, app.custom)
	// Pending work keeps the first pump from blocking, and exit ends the loop.
	assert.Equal(t, 1, w.pumps)
	assert.Zero(t, w.waits)
	assert.ErrorIs(t, proxy.Send(3), core.ErrEventLoopClosed)
}

func TestProxyQueueBound(t *testing.T) {
	wakes := 0
	p := newEventProxy[string](2, func() { wakes++ })
	require.NoError(t, p.Send("a"))
	require.NoError(t, p.Send("b"))
	assert.ErrorIs(t, p.Send("c"), core.ErrQueueFull)
	assert.Equal(t, 2, wakes)
	assert.Equal(t, []string{"a", "b"}, p.drain())
	assert.False(t, p.pending())

	p.close()
	p.Exit()
	assert.True(t, p.exitRequested())
	assert.Equal(t, 2, wakes)
}

func TestAppFactoryErrorAborts(t *testing.T) {
	w, _, _ := newScriptedWindow()
	boom := errors.New("boom")
	err := run(testConfig(t), w.events, w.input, w, nil, nil, func(*EventLoop[int], *EventProxy[int]) (App[int], error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.True(t, w.shutdown)
	assert.Zero(t, w.pumps)
}

func TestNewRendererFailsWithoutShaders(t *testing.T) {
	cfg := testConfig(t)
	cfg.Assets.ShaderDir = filepath.Join(cfg.Assets.Dir, "missing")
	backend := headless.New(640, 480)
	w, _, _ := newScriptedWindow()

	var rerr error
	app := &recordingApp{onStart: func(el *EventLoop[int]) {
		_, rerr = el.NewRenderer("broken")
		el.Exit()
	}}
	require.NoError(t, runScripted(t, cfg, w, backend, app))
	assert.ErrorIs(t, rerr, core.ErrShaderCompile)
	assert.Zero(t, backend.LivePipelines())
}

func TestFrameTransformDrivesRenderedPass(t *testing.T) {
	backend := headless.New(640, 480)
	w, _, _ := newScriptedWindow()
	app := &recordingApp{}
	app.onStart = func(el *EventLoop[int]) {
		r, err := el.NewRenderer("quad")
		require.NoError(t, err)
		id, err := r.AddShape2D(renderer.ColorPolygon{
			Colors:   []renderer.Color{renderer.ColorWhite, renderer.ColorWhite, renderer.ColorWhite},
			Vertices: []math.Vec2{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: 1}},
			Indices:  []uint16{0, 1, 2},
		})
		require.NoError(t, err)
		frame, err := r.Begin()
		require.NoError(t, err)
		require.NoError(t, frame.DrawShape(id, math.Transform2FromTranslation(math.NewVec2(0.25, 0))))
		require.NoError(t, frame.Finish())
		el.Exit()
	}
	require.NoError(t, runScripted(t, testConfig(t), w, backend, app))

	presented := backend.Presented()
	require.Len(t, presented, 1)
	require.Len(t, presented[0].Passes(), 1)
	pass := presented[0].Passes()[0]
	assert.Equal(t, "ColorPoly #1", pass.Name)
	assert.Equal(t, renderer.ShapeKindColorPolygon, pass.Kind)
	assert.Equal(t, renderer.NewPushConstants(math.Transform2FromTranslation(math.NewVec2(0.25, 0))), pass.PushConstants)
}
