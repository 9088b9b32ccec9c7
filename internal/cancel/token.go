// Package cancel provides cooperative cancellation tokens for superseded work.
//
// A token does not abort anything by itself: it only tells guarded callbacks
// to stop producing side effects. Stale updates vanish instead of failing.
package cancel

import (
	"sync"
	"sync/atomic"
)

// Token marks one unit of work as superseded.
type Token struct {
	cancelled atomic.Bool
	once      sync.Once
	done      chan struct{}
}

// New creates a live token.
func New() *Token {
	return &Token{done: make(chan struct{})}
}

// Cancel marks the token cancelled. Idempotent.
func (t *Token) Cancel() {
	if t == nil {
		return
	}
	t.once.Do(func() {
		t.cancelled.Store(true)
		close(t.done)
	})
}

// IsCancelled reports whether Cancel has been called. A nil token is never cancelled.
func (t *Token) IsCancelled() bool {
	if t == nil {
		return false
	}
	return t.cancelled.Load()
}

// Done returns a channel closed on cancellation. A nil token never closes.
func (t *Token) Done() <-chan struct{} {
	if t == nil {
		return nil
	}
	return t.done
}

// Guard returns a function that calls fn only while t is not cancelled.
// Calls after cancellation are silent no-ops.
func Guard[T any](t *Token, fn func(T)) func(T) {
	return func(v T) {
		if t.IsCancelled() {
			return
		}
		fn(v)
	}
}
