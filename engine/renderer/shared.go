package renderer

import "sync/atomic"

// Shared is a reference counted Resource. The wrapped resource is released
// when the last holder calls Release.
type Shared[T Resource] struct {
	value T
	refs  atomic.Int32
}

// NewShared wraps v with a single reference owned by the caller.
func NewShared[T Resource](v T) *Shared[T] {
	s := &Shared[T]{value: v}
	s.refs.Store(1)
	return s
}

func (s *Shared[T]) Get() T {
	return s.value
}

// Retain adds a reference for a new holder and returns s for chaining.
func (s *Shared[T]) Retain() *Shared[T] {
	s.refs.Add(1)
	return s
}

func (s *Shared[T]) Release() {
	if s.refs.Add(-1) == 0 {
		s.value.Release()
	}
}

func (s *Shared[T]) RefCount() int32 {
	return s.refs.Load()
}
