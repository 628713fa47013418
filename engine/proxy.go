package engine

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/spaghettifunk/anima2d/engine/containers"
	"github.com/spaghettifunk/anima2d/engine/core"
)

// Custom events that can wait for the loop before Send starts failing.
const DEFAULT_PROXY_CAPACITY int = 256

// EventProxy lets other goroutines talk to the event loop. Values passed to
// Send are delivered to the app's CustomEvent on the loop goroutine in FIFO
// order.
type EventProxy[T any] struct {
	queue *containers.RingQueue[T]
	exit  atomic.Bool

	mu     sync.Mutex
	wake   func()
	closed bool
}

func newEventProxy[T any](capacity int, wake func()) *EventProxy[T] {
	if wake == nil {
		wake = func() {}
	}
	return &EventProxy[T]{
		queue: containers.NewRingQueue[T](capacity),
		wake:  wake,
	}
}

// Send queues ev and wakes the loop.
func (p *EventProxy[T]) Send(ev T) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return core.ErrEventLoopClosed
	}
	if err := p.queue.Enqueue(ev); err != nil {
		return fmt.Errorf("custom event dropped: %w", err)
	}
	p.wake()
	return nil
}

// Exit asks the loop to stop after the current iteration.
func (p *EventProxy[T]) Exit() {
	p.exit.Store(true)
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.closed {
		p.wake()
	}
}

func (p *EventProxy[T]) exitRequested() bool {
	return p.exit.Load()
}

func (p *EventProxy[T]) pending() bool {
	return !p.queue.IsEmpty()
}

func (p *EventProxy[T]) drain() []T {
	return p.queue.Drain()
}

// close stops wake-ups once the window system is gone.
func (p *EventProxy[T]) close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
}
