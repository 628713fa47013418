package platform

import (
	"fmt"
	"runtime"

	"github.com/go-gl/glfw/v3.3/glfw"
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/anima2d/engine/core"
)

func init() {
	// GLFW event handling must run on the main OS thread
	runtime.LockOSThread()
}

// Config is the window section of the application configuration.
type Config struct {
	Name   string
	X, Y   uint32
	Width  uint32
	Height uint32
}

// Platform owns the glfw window. Callbacks run inside PumpMessages and turn
// OS events into input state changes and events on the EventSystem.
type Platform struct {
	window *glfw.Window
	events *core.EventSystem
	input  *core.Input

	redrawRequested bool
	startTime       float64
}

func New(events *core.EventSystem, input *core.Input) *Platform {
	return &Platform{
		events: events,
		input:  input,
	}
}

func (p *Platform) Startup(cfg Config) error {
	if err := glfw.Init(); err != nil {
		core.LogError("failed to initialize glfw: %s", err)
		return err
	}
	if !glfw.VulkanSupported() {
		glfw.Terminate()
		err := fmt.Errorf("glfw reports no Vulkan loader")
		core.LogError(err.Error())
		return err
	}

	glfw.WindowHint(glfw.Visible, glfw.False)
	glfw.WindowHint(glfw.Resizable, glfw.True)
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI) // Required for Vulkan.

	window, err := glfw.CreateWindow(int(cfg.Width), int(cfg.Height), cfg.Name, nil, nil)
	if err != nil {
		glfw.Terminate()
		core.LogError("failed to create window: %s", err)
		return err
	}
	p.window = window

	p.window.SetKeyCallback(p.keyCallback)
	p.window.SetMouseButtonCallback(p.mouseButtonCallback)
	p.window.SetCursorPosCallback(p.cursorPosCallback)
	p.window.SetScrollCallback(p.scrollCallback)
	p.window.SetFramebufferSizeCallback(p.framebufferSizeCallback)
	p.window.SetCloseCallback(p.closeCallback)
	p.window.SetRefreshCallback(p.refreshCallback)
	p.window.SetPos(int(cfg.X), int(cfg.Y))
	p.window.Show()

	p.startTime = glfw.GetTime()
	p.redrawRequested = true

	return nil
}

func (p *Platform) Shutdown() {
	if p.window != nil {
		p.window.Destroy()
		p.window = nil
	}
	glfw.Terminate()
}

// PumpMessages processes pending OS events. With wait set it blocks until
// an event arrives or Wake is called.
func (p *Platform) PumpMessages(wait bool) {
	if wait {
		glfw.WaitEvents()
		return
	}
	glfw.PollEvents()
}

// Wake unblocks PumpMessages. Safe to call from any goroutine.
func Wake() {
	glfw.PostEmptyEvent()
}

func (p *Platform) GetAbsoluteTime() float64 {
	return glfw.GetTime() - p.startTime
}

func (p *Platform) SetTitle(title string) {
	p.window.SetTitle(title)
}

func (p *Platform) FramebufferSize() (uint32, uint32) {
	w, h := p.window.GetFramebufferSize()
	return uint32(w), uint32(h)
}

// PrePresentNotify is called right before a frame is presented. glfw has no
// use for it.
func (p *Platform) PrePresentNotify() {}

func (p *Platform) RequestRedraw() {
	p.redrawRequested = true
}

func (p *Platform) RedrawPending() bool {
	return p.redrawRequested
}

// TakeRedrawRequest reports whether a redraw was requested and clears the request.
func (p *Platform) TakeRedrawRequest() bool {
	r := p.redrawRequested
	p.redrawRequested = false
	return r
}

func (p *Platform) RequiredInstanceExtensions() []string {
	return p.window.GetRequiredInstanceExtensions()
}

func (p *Platform) CreateSurface(instance vk.Instance) (vk.Surface, error) {
	surface, err := p.window.CreateWindowSurface(instance, nil)
	if err != nil {
		return vk.NullSurface, fmt.Errorf("vulkan surface creation failed: %w", err)
	}
	return vk.SurfaceFromPointer(surface), nil
}

func (p *Platform) keyCallback(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
	if action == glfw.Repeat {
		return
	}
	p.input.ProcessKey(translateKey(key), action == glfw.Press)
}

func (p *Platform) mouseButtonCallback(w *glfw.Window, button glfw.MouseButton, action glfw.Action, mods glfw.ModifierKey) {
	var b core.Button
	switch button {
	case glfw.MouseButtonLeft:
		b = core.BUTTON_LEFT
	case glfw.MouseButtonRight:
		b = core.BUTTON_RIGHT
	case glfw.MouseButtonMiddle:
		b = core.BUTTON_MIDDLE
	default:
		return
	}
	p.input.ProcessButton(b, action == glfw.Press)
}

func (p *Platform) cursorPosCallback(w *glfw.Window, xpos, ypos float64) {
	p.input.ProcessMouseMove(xpos, ypos)
}

func (p *Platform) scrollCallback(w *glfw.Window, xoff, yoff float64) {
	p.input.ProcessMouseWheel(xoff, yoff)
}

func (p *Platform) framebufferSizeCallback(w *glfw.Window, width, height int) {
	p.events.Fire(core.EventContext{
		Type: core.EVENT_CODE_RESIZED,
		Data: &core.ResizeEvent{Width: uint32(width), Height: uint32(height)},
	})
}

func (p *Platform) closeCallback(w *glfw.Window) {
	// The application decides whether to exit.
	w.SetShouldClose(false)
	p.events.Fire(core.EventContext{Type: core.EVENT_CODE_WINDOW_CLOSE})
}

func (p *Platform) refreshCallback(w *glfw.Window) {
	p.redrawRequested = true
}

var keyMap = map[glfw.Key]core.KeyCode{
	glfw.KeyBackspace:    core.KEY_BACKSPACE,
	glfw.KeyTab:          core.KEY_TAB,
	glfw.KeyEnter:        core.KEY_ENTER,
	glfw.KeyPause:        core.KEY_PAUSE,
	glfw.KeyCapsLock:     core.KEY_CAPITAL,
	glfw.KeyEscape:       core.KEY_ESCAPE,
	glfw.KeySpace:        core.KEY_SPACE,
	glfw.KeyPageUp:       core.KEY_PRIOR,
	glfw.KeyPageDown:     core.KEY_NEXT,
	glfw.KeyEnd:          core.KEY_END,
	glfw.KeyHome:         core.KEY_HOME,
	glfw.KeyLeft:         core.KEY_LEFT,
	glfw.KeyUp:           core.KEY_UP,
	glfw.KeyRight:        core.KEY_RIGHT,
	glfw.KeyDown:         core.KEY_DOWN,
	glfw.KeyInsert:       core.KEY_INSERT,
	glfw.KeyDelete:       core.KEY_DELETE,
	glfw.KeyLeftShift:    core.KEY_LSHIFT,
	glfw.KeyRightShift:   core.KEY_RSHIFT,
	glfw.KeyLeftControl:  core.KEY_LCONTROL,
	glfw.KeyRightControl: core.KEY_RCONTROL,
	glfw.KeyLeftAlt:      core.KEY_LMENU,
	glfw.KeyRightAlt:     core.KEY_RMENU,
	glfw.KeySemicolon:    core.KEY_SEMICOLON,
	glfw.KeyEqual:        core.KEY_PLUS,
	glfw.KeyComma:        core.KEY_COMMA,
	glfw.KeyMinus:        core.KEY_MINUS,
	glfw.KeyPeriod:       core.KEY_PERIOD,
	glfw.KeySlash:        core.KEY_SLASH,
	glfw.KeyGraveAccent:  core.KEY_GRAVE,
}

func translateKey(key glfw.Key) core.KeyCode {
	switch {
	// Digits and letters share their ASCII codes.
	case key >= glfw.Key0 && key <= glfw.Key9, key >= glfw.KeyA && key <= glfw.KeyZ:
		return core.KeyCode(key)
	case key >= glfw.KeyF1 && key <= glfw.KeyF12:
		return core.KEY_F1 + core.KeyCode(key-glfw.KeyF1)
	}
	if k, ok := keyMap[key]; ok {
		return k
	}
	return core.KEY_UNKNOWN
}
