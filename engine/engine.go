package engine

import (
	"fmt"

	"github.com/spaghettifunk/anima2d/engine/assets"
	"github.com/spaghettifunk/anima2d/engine/core"
	"github.com/spaghettifunk/anima2d/engine/platform"
	"github.com/spaghettifunk/anima2d/engine/renderer"
	"github.com/spaghettifunk/anima2d/engine/renderer/vulkan"
)

// windowSystem is the part of the platform the event loop drives.
type windowSystem interface {
	renderer.Window
	Startup(cfg platform.Config) error
	Shutdown()
	PumpMessages(wait bool)
	RedrawPending() bool
	TakeRedrawRequest() bool
	SetTitle(title string)
}

// backendFactory creates the device side of a renderer presenting to the window.
type backendFactory func(title string) (renderer.Backend, error)

// EventLoop owns the window, the input state and the asset index, and turns
// platform events into calls on the App.
type EventLoop[T any] struct {
	config     *ApplicationConfig
	events     *core.EventSystem
	input      *core.Input
	window     windowSystem
	newBackend backendFactory
	assets     *assets.AssetManager
	proxy      *EventProxy[T]
	app        App[T]
	renderers  []*renderer.Renderer

	width     uint32
	height    uint32
	exiting   bool
	suspended bool
}

// Run opens the window, builds the app with newApp and drives it until the
// loop exits. It must be called from the main goroutine.
func Run[T any](cfg *ApplicationConfig, newApp AppFactory[T]) error {
	if cfg == nil {
		cfg = DefaultApplicationConfig()
	}
	events := core.NewEventSystem()
	input := core.NewInput(events)
	p := platform.New(events, input)

	newBackend := func(title string) (renderer.Backend, error) {
		p.SetTitle(title)
		backend, err := vulkan.New(p, cfg.vulkanConfig(title))
		if err != nil {
			return nil, err
		}
		return backend, nil
	}
	return run(cfg, events, input, p, newBackend, platform.Wake, newApp)
}

// RunInit drives an app that was built before the window existed.
func RunInit[T any](cfg *ApplicationConfig, app App[T]) error {
	return Run[T](cfg, func(*EventLoop[T], *EventProxy[T]) (App[T], error) {
		return app, nil
	})
}

func run[T any](cfg *ApplicationConfig, events *core.EventSystem, input *core.Input, window windowSystem, newBackend backendFactory, wake func(), newApp AppFactory[T]) error {
	if cfg == nil {
		cfg = DefaultApplicationConfig()
	}
	core.SetLogLevel(cfg.LogLevel())

	el := &EventLoop[T]{
		config:     cfg,
		events:     events,
		input:      input,
		window:     window,
		newBackend: newBackend,
		proxy:      newEventProxy[T](DEFAULT_PROXY_CAPACITY, wake),
	}

	if err := window.Startup(cfg.platformConfig()); err != nil {
		el.proxy.close()
		return fmt.Errorf("failed to start the platform: %w", err)
	}
	defer window.Shutdown()
	// No wake-ups may reach the window system after it is gone.
	defer el.proxy.close()

	am, err := assets.NewAssetManager(cfg.assetsConfig())
	if err != nil {
		core.LogError("failed to initialize assets: %s", err)
		return err
	}
	el.assets = am
	defer func() {
		if err := am.Close(); err != nil {
			core.LogWarn("failed to close the asset watcher: %s", err)
		}
	}()

	el.width, el.height = window.FramebufferSize()
	el.registerEvents()
	defer events.Shutdown()
	defer el.shutdownRenderers()

	app, err := newApp(el, el.proxy)
	if err != nil {
		core.LogError("failed to create the application: %s", err)
		return err
	}
	el.app = app
	app.Resumed(el)

	for !el.exiting {
		el.step()
	}
	core.LogInfo("event loop exited")
	return nil
}

// step runs one loop iteration. It blocks in the platform when there is
// nothing to draw and no custom event waiting.
func (el *EventLoop[T]) step() {
	wait := (el.suspended || !el.window.RedrawPending()) && !el.proxy.pending() && !el.proxy.exitRequested()
	el.window.PumpMessages(wait)

	if handler, ok := el.app.(CustomEventHandler[T]); ok {
		for _, ev := range el.proxy.drain() {
			handler.CustomEvent(el, ev)
		}
	} else {
		el.proxy.drain()
	}
	if el.proxy.exitRequested() {
		el.Exit()
	}

	if !el.exiting && !el.suspended && el.window.TakeRedrawRequest() {
		el.app.WindowEvent(el, WindowEvent{Kind: WindowEventRedrawRequested})
	}

	// Input state copying is the last thing of an iteration.
	el.input.Update()
}

func (el *EventLoop[T]) Config() *ApplicationConfig {
	return el.config
}

func (el *EventLoop[T]) Assets() *assets.AssetManager {
	return el.assets
}

func (el *EventLoop[T]) Input() *core.Input {
	return el.input
}

func (el *EventLoop[T]) Events() *core.EventSystem {
	return el.events
}

func (el *EventLoop[T]) Proxy() *EventProxy[T] {
	return el.proxy
}

// Exit stops the loop once the current callback returns.
func (el *EventLoop[T]) Exit() {
	if !el.exiting {
		core.LogInfo("exit requested, shutting down")
	}
	el.exiting = true
}

func (el *EventLoop[T]) Exiting() bool {
	return el.exiting
}

// Suspended reports whether the window is minimized. No redraws are
// delivered while suspended.
func (el *EventLoop[T]) Suspended() bool {
	return el.suspended
}

func (el *EventLoop[T]) FramebufferSize() (uint32, uint32) {
	return el.width, el.height
}

// NewRenderer creates a renderer presenting to the window, titled title.
// The loop shuts it down on exit if the app has not done so.
func (el *EventLoop[T]) NewRenderer(title string) (*renderer.Renderer, error) {
	backend, err := el.newBackend(title)
	if err != nil {
		core.LogError("failed to create the rendering backend: %s", err)
		return nil, fmt.Errorf("failed to create the rendering backend: %w", err)
	}
	r, err := renderer.New(backend, el.window, el.assets.Shaders(), renderer.Options{ClearColor: el.config.ClearColor()})
	if err != nil {
		if serr := backend.Shutdown(); serr != nil {
			core.LogWarn("failed to shut down the backend: %s", serr)
		}
		return nil, err
	}
	el.renderers = append(el.renderers, r)
	return r, nil
}

func (el *EventLoop[T]) shutdownRenderers() {
	for i := len(el.renderers) - 1; i >= 0; i-- {
		if err := el.renderers[i].Shutdown(); err != nil {
			core.LogError("renderer shutdown failed: %s", err)
		}
	}
	el.renderers = nil
}

func (el *EventLoop[T]) registerEvents() {
	codes := []core.EventCode{
		core.EVENT_CODE_APPLICATION_QUIT,
		core.EVENT_CODE_WINDOW_CLOSE,
		core.EVENT_CODE_RESIZED,
		core.EVENT_CODE_KEY_PRESSED,
		core.EVENT_CODE_KEY_RELEASED,
		core.EVENT_CODE_BUTTON_PRESSED,
		core.EVENT_CODE_BUTTON_RELEASED,
		core.EVENT_CODE_MOUSE_MOVED,
		core.EVENT_CODE_MOUSE_WHEEL,
	}
	for _, code := range codes {
		el.events.Register(code, el, el.onEvent)
	}
}

func (el *EventLoop[T]) onEvent(context core.EventContext, listener interface{}) bool {
	if el.app == nil {
		return false
	}
	switch context.Type {
	case core.EVENT_CODE_APPLICATION_QUIT:
		el.Exit()
		return true

	case core.EVENT_CODE_WINDOW_CLOSE:
		el.app.WindowEvent(el, WindowEvent{Kind: WindowEventCloseRequested})

	case core.EVENT_CODE_RESIZED:
		re, ok := context.Data.(*core.ResizeEvent)
		if !ok {
			core.LogError("wrong event associated with the event type `%s`", context.Type)
			return false
		}
		el.onResized(re.Width, re.Height)

	case core.EVENT_CODE_KEY_PRESSED, core.EVENT_CODE_KEY_RELEASED:
		ke, ok := context.Data.(*core.KeyEvent)
		if !ok {
			core.LogError("wrong event associated with the event type `%s`", context.Type)
			return false
		}
		kind := WindowEventKeyReleased
		if context.Type == core.EVENT_CODE_KEY_PRESSED {
			kind = WindowEventKeyPressed
		}
		el.app.WindowEvent(el, WindowEvent{Kind: kind, Key: ke.KeyCode})

	case core.EVENT_CODE_BUTTON_PRESSED, core.EVENT_CODE_BUTTON_RELEASED:
		be, ok := context.Data.(*core.ButtonEvent)
		if !ok {
			return false
		}
		kind := DeviceEventButtonReleased
		if context.Type == core.EVENT_CODE_BUTTON_PRESSED {
			kind = DeviceEventButtonPressed
		}
		el.deviceEvent(DeviceEvent{Kind: kind, Button: be.Button})

	case core.EVENT_CODE_MOUSE_MOVED:
		if me, ok := context.Data.(*core.MouseMoveEvent); ok {
			el.deviceEvent(DeviceEvent{Kind: DeviceEventMouseMotion, X: me.X, Y: me.Y})
		}

	case core.EVENT_CODE_MOUSE_WHEEL:
		if we, ok := context.Data.(*core.MouseWheelEvent); ok {
			el.deviceEvent(DeviceEvent{Kind: DeviceEventMouseWheel, X: we.XOffset, Y: we.YOffset})
		}
	}
	return false
}

func (el *EventLoop[T]) deviceEvent(ev DeviceEvent) {
	if handler, ok := el.app.(DeviceEventHandler[T]); ok {
		handler.DeviceEvent(el, ev)
	}
}

func (el *EventLoop[T]) onResized(width, height uint32) {
	if width == el.width && height == el.height {
		return
	}
	el.width, el.height = width, height
	core.LogDebug("Window resize: %d, %d", width, height)

	// Handle minimization
	if width == 0 || height == 0 {
		if !el.suspended {
			core.LogInfo("Window minimized, suspending redraws.")
			el.suspended = true
		}
	} else if el.suspended {
		core.LogInfo("Window restored, resuming redraws.")
		el.suspended = false
		el.window.RequestRedraw()
	}
	el.app.WindowEvent(el, WindowEvent{Kind: WindowEventResized, Width: width, Height: height})
}
