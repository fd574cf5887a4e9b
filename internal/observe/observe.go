// Package observe provides a value-change observer with explicit disposal.
package observe

import "sync"

// Observer calls fn with the initial value, with every later value that differs from
// the previous one, and once more with the current value when closed. Calls to fn are
// serialized; fn must not call back into the observer.
type Observer[T comparable] struct {
	mu     sync.Mutex
	value  T
	closed bool
	fn     func(T)
}

// New registers fn and fires it for the initial value.
func New[T comparable](initial T, fn func(T)) *Observer[T] {
	o := &Observer[T]{value: initial, fn: fn}
	o.mu.Lock()
	defer o.mu.Unlock()
	fn(initial)
	return o
}

// Set stores v and fires fn when v differs from the current value.
// It reports whether fn fired. Set after Close is a no-op.
func (o *Observer[T]) Set(v T) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed || v == o.value {
		return false
	}
	o.value = v
	o.fn(v)
	return true
}

// Value returns the current value.
func (o *Observer[T]) Value() T {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.value
}

// Close fires fn a final time with the current value. Later calls are no-ops.
func (o *Observer[T]) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return
	}
	o.closed = true
	o.fn(o.value)
}
