// Package cancel provides a shared, cooperative cancellation flag.
//
// A Token is shared by pointer: every holder observes the same flag, and
// cancelling through any holder cancels it for all of them. Work that wants
// to be abandonable polls Check at points where stopping is cheap.
package cancel

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// ErrCancelled is returned by Check once the token has been cancelled.
var ErrCancelled = errors.New("cancelled")

// Token is a cooperative cancellation flag.
type Token struct {
	flag atomic.Bool
	once sync.Once
	done chan struct{}
}

// New returns a token that has not been cancelled.
func New() *Token {
	return &Token{done: make(chan struct{})}
}

// Cancel sets the flag. Calling it more than once has no further effect.
func (t *Token) Cancel() {
	t.once.Do(func() {
		t.flag.Store(true)
		close(t.done)
	})
}

// IsCancelled reports whether Cancel has been called.
func (t *Token) IsCancelled() bool {
	return t.flag.Load()
}

// Check returns ErrCancelled when the token is cancelled, nil otherwise.
func (t *Token) Check() error {
	if t.IsCancelled() {
		return ErrCancelled
	}
	return nil
}

// Done returns a channel closed when the token is cancelled.
func (t *Token) Done() <-chan struct{} {
	return t.done
}

// Context derives a context from parent that is also cancelled when the
// token is. The returned CancelFunc releases the bridge goroutine.
func (t *Token) Context(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	go func() {
		select {
		case <-t.done:
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}
