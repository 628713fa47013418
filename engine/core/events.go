package core

// System internal event codes. Application should use codes beyond 255.
type EventCode uint16

const (
	// Shuts the application down on the next loop iteration.
	EVENT_CODE_APPLICATION_QUIT EventCode = 0x01

	// Keyboard key pressed. Data: *KeyEvent
	EVENT_CODE_KEY_PRESSED EventCode = 0x02

	// Keyboard key released. Data: *KeyEvent
	EVENT_CODE_KEY_RELEASED EventCode = 0x03

	// Mouse button pressed. Data: *ButtonEvent
	EVENT_CODE_BUTTON_PRESSED EventCode = 0x04

	// Mouse button released. Data: *ButtonEvent
	EVENT_CODE_BUTTON_RELEASED EventCode = 0x05

	// Mouse moved. Data: *MouseMoveEvent
	EVENT_CODE_MOUSE_MOVED EventCode = 0x06

	// Mouse wheel or trackpad scrolled. Data: *MouseWheelEvent
	EVENT_CODE_MOUSE_WHEEL EventCode = 0x07

	// Framebuffer resized from the OS. Data: *ResizeEvent
	EVENT_CODE_RESIZED EventCode = 0x08

	// The user asked to close the window. No data.
	EVENT_CODE_WINDOW_CLOSE EventCode = 0x09

	// The window should be redrawn. No data.
	EVENT_CODE_REDRAW_REQUESTED EventCode = 0x0A

	MAX_EVENT_CODE EventCode = 0xFF
)

func (c EventCode) String() string {
	switch c {
	case EVENT_CODE_APPLICATION_QUIT:
		return "ApplicationQuit"
	case EVENT_CODE_KEY_PRESSED:
		return "KeyPressed"
	case EVENT_CODE_KEY_RELEASED:
		return "KeyReleased"
	case EVENT_CODE_BUTTON_PRESSED:
		return "ButtonPressed"
	case EVENT_CODE_BUTTON_RELEASED:
		return "ButtonReleased"
	case EVENT_CODE_MOUSE_MOVED:
		return "MouseMoved"
	case EVENT_CODE_MOUSE_WHEEL:
		return "MouseWheel"
	case EVENT_CODE_RESIZED:
		return "Resized"
	case EVENT_CODE_WINDOW_CLOSE:
		return "CloseRequested"
	case EVENT_CODE_REDRAW_REQUESTED:
		return "RedrawRequested"
	default:
		return "Custom"
	}
}

type EventContext struct {
	Type EventCode
	Data interface{}
}

type KeyEvent struct {
	KeyCode KeyCode
}

type ButtonEvent struct {
	Button Button
}

type MouseMoveEvent struct {
	X, Y float64
}

type MouseWheelEvent struct {
	XOffset, YOffset float64
}

type ResizeEvent struct {
	Width, Height uint32
}

// Should return true if handled.
type FnOnEvent func(context EventContext, listener interface{}) bool

type registeredEvent struct {
	listener interface{}
	callback FnOnEvent
}

// EventSystem dispatches events synchronously, in registration order, on the
// calling goroutine. It is not safe for concurrent use.
type EventSystem struct {
	registered map[EventCode][]*registeredEvent
}

func NewEventSystem() *EventSystem {
	return &EventSystem{
		registered: make(map[EventCode][]*registeredEvent),
	}
}

// Register listens for events sent with the provided code. The listener must be
// comparable (usually a pointer). A listener already registered for the code is
// not registered again and false is returned.
func (es *EventSystem) Register(code EventCode, listener interface{}, onEvent FnOnEvent) bool {
	if onEvent == nil {
		return false
	}
	for _, e := range es.registered[code] {
		if e.listener == listener {
			LogWarn("listener already registered for event `%s`", code)
			return false
		}
	}
	es.registered[code] = append(es.registered[code], &registeredEvent{
		listener: listener,
		callback: onEvent,
	})
	return true
}

// Unregister stops the listener from receiving events with the provided code.
// Returns false if no matching registration exists.
func (es *EventSystem) Unregister(code EventCode, listener interface{}) bool {
	events := es.registered[code]
	for i, e := range events {
		if e.listener == listener {
			es.registered[code] = append(events[:i], events[i+1:]...)
			return true
		}
	}
	return false
}

// Fire sends an event to the listeners of its code. If a handler returns true
// the event is considered handled and is not passed on to any more listeners.
func (es *EventSystem) Fire(context EventContext) bool {
	for _, e := range es.registered[context.Type] {
		if e.callback(context, e.listener) {
			return true
		}
	}
	return false
}

// Shutdown drops every registration.
func (es *EventSystem) Shutdown() {
	es.registered = make(map[EventCode][]*registeredEvent)
}
