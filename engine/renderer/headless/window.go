package headless

import (
	"fmt"
	"sync"

	"github.com/spaghettifunk/anima2d/engine/core"
	"github.com/spaghettifunk/anima2d/engine/renderer"
)

// Window is a renderer.Window with a settable size that counts notifications.
type Window struct {
	mu            sync.Mutex
	width, height uint32
	prePresents   int
	redraws       int
}

func NewWindow(width, height uint32) *Window {
	return &Window{width: width, height: height}
}

func (w *Window) Resize(width, height uint32) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.width, w.height = width, height
}

func (w *Window) FramebufferSize() (uint32, uint32) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.width, w.height
}

func (w *Window) PrePresentNotify() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.prePresents++
}

func (w *Window) RequestRedraw() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.redraws++
}

func (w *Window) PrePresents() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.prePresents
}

func (w *Window) Redraws() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.redraws
}

// Shaders returns a fixed SPIR-V header for every known shader name.
type Shaders struct {
	Missing map[string]bool
}

var spirvMagic = []uint32{0x07230203, 0x00010000, 0, 1, 0}

func (s Shaders) LoadShader(name string, stage renderer.ShaderStage) ([]uint32, error) {
	if s.Missing[name] {
		return nil, fmt.Errorf("%s.%s: %w", name, stage, core.ErrShaderCompile)
	}
	return append([]uint32(nil), spirvMagic...), nil
}
