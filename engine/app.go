package engine

import "github.com/spaghettifunk/anima2d/engine/core"

type WindowEventKind uint8

const (
	WindowEventCloseRequested WindowEventKind = iota
	WindowEventResized
	WindowEventRedrawRequested
	WindowEventKeyPressed
	WindowEventKeyReleased
)

func (k WindowEventKind) String() string {
	switch k {
	case WindowEventCloseRequested:
		return "CloseRequested"
	case WindowEventResized:
		return "Resized"
	case WindowEventRedrawRequested:
		return "RedrawRequested"
	case WindowEventKeyPressed:
		return "KeyPressed"
	case WindowEventKeyReleased:
		return "KeyReleased"
	}
	return "Unknown"
}

// WindowEvent is delivered to App.WindowEvent. Width and Height are set for
// Resized, Key for KeyPressed and KeyReleased.
type WindowEvent struct {
	Kind   WindowEventKind
	Width  uint32
	Height uint32
	Key    core.KeyCode
}

type DeviceEventKind uint8

const (
	DeviceEventMouseMotion DeviceEventKind = iota
	DeviceEventButtonPressed
	DeviceEventButtonReleased
	DeviceEventMouseWheel
)

// DeviceEvent carries raw input. X and Y hold the cursor position for
// MouseMotion and the scroll offsets for MouseWheel.
type DeviceEvent struct {
	Kind   DeviceEventKind
	X, Y   float64
	Button core.Button
}

// App is driven by the event loop. Every method runs on the loop goroutine.
type App[T any] interface {
	Resumed(el *EventLoop[T])
	WindowEvent(el *EventLoop[T], ev WindowEvent)
}

// CustomEventHandler is implemented by apps that receive values sent
// through EventProxy.Send.
type CustomEventHandler[T any] interface {
	CustomEvent(el *EventLoop[T], ev T)
}

// DeviceEventHandler is implemented by apps that want raw input.
type DeviceEventHandler[T any] interface {
	DeviceEvent(el *EventLoop[T], ev DeviceEvent)
}

// AppFactory builds the app once the window exists.
type AppFactory[T any] func(el *EventLoop[T], proxy *EventProxy[T]) (App[T], error)
