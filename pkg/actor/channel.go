// Package actor provides typed message channels and single-consumer workers.
//
// Channels are unbounded FIFO queues: Send never blocks. A channel stays
// open while at least one Sender handle is alive, so a worker reading from
// it only sees the channel close after every producer has let go. Sending
// to a channel whose receiver is gone is a wiring bug and panics.
package actor

import (
	"sync"
	"sync/atomic"
)

type queue[T any] struct {
	mu         sync.Mutex
	items      []T
	senders    int
	recvClosed bool
	notify     chan struct{}
}

func (q *queue[T]) signal() {
	select {
	case q.notify <- struct{}{}:
	default:
	}
}

// Sender is one producer handle of a channel.
type Sender[T any] struct {
	q      *queue[T]
	closed atomic.Bool
}

// Receiver is the single consuming end of a channel.
type Receiver[T any] struct {
	q *queue[T]
}

// NewChannel returns a connected sender and receiver.
func NewChannel[T any]() (*Sender[T], *Receiver[T]) {
	q := &queue[T]{senders: 1, notify: make(chan struct{}, 1)}
	return &Sender[T]{q: q}, &Receiver[T]{q: q}
}

// Send enqueues v. It panics when the receiving end has been closed.
func (s *Sender[T]) Send(v T) {
	if !s.trySend(v) {
		panic("actor: send on channel without receiver")
	}
}

func (s *Sender[T]) trySend(v T) bool {
	if s.closed.Load() {
		panic("actor: send on closed sender")
	}
	s.q.mu.Lock()
	if s.q.recvClosed {
		s.q.mu.Unlock()
		return false
	}
	s.q.items = append(s.q.items, v)
	s.q.mu.Unlock()
	s.q.signal()
	return true
}

// Clone returns an additional sender handle for the same channel.
func (s *Sender[T]) Clone() *Sender[T] {
	s.q.mu.Lock()
	s.q.senders++
	s.q.mu.Unlock()
	return &Sender[T]{q: s.q}
}

// Close releases this handle. The channel closes when the last handle is released.
func (s *Sender[T]) Close() {
	if s.closed.Swap(true) {
		return
	}
	s.q.mu.Lock()
	s.q.senders--
	s.q.mu.Unlock()
	s.q.signal()
}

// Recv blocks until a value is available or the channel is closed and drained.
func (r *Receiver[T]) Recv() (T, bool) {
	for {
		if v, ok, closed := r.take(); ok || closed {
			return v, ok
		}
		<-r.q.notify
	}
}

// TryRecv returns the next value without blocking.
func (r *Receiver[T]) TryRecv() (T, bool) {
	v, ok, _ := r.take()
	return v, ok
}

func (r *Receiver[T]) take() (v T, ok bool, closed bool) {
	r.q.mu.Lock()
	defer r.q.mu.Unlock()
	if len(r.q.items) > 0 {
		v = r.q.items[0]
		var zero T
		r.q.items[0] = zero
		r.q.items = r.q.items[1:]
		return v, true, false
	}
	return v, false, r.q.senders <= 0 || r.q.recvClosed
}

// Len reports the number of queued values.
func (r *Receiver[T]) Len() int {
	r.q.mu.Lock()
	defer r.q.mu.Unlock()
	return len(r.q.items)
}

// Close drops the receiving end and any queued values.
func (r *Receiver[T]) Close() {
	r.q.mu.Lock()
	r.q.recvClosed = true
	r.q.items = nil
	r.q.mu.Unlock()
	r.q.signal()
}
