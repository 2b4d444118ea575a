package actor

import "sync"

// Broadcast delivers every value to all current subscribers, in send order.
// Having no subscribers is valid; subscribers that closed their receiver
// are dropped on the next send.
type Broadcast[T any] struct {
	mu     sync.Mutex
	subs   []*Sender[T]
	closed bool
}

// NewBroadcast returns a broadcast with no subscribers.
func NewBroadcast[T any]() *Broadcast[T] {
	return &Broadcast[T]{}
}

// Subscribe returns a receiver for values sent after this call.
func (b *Broadcast[T]) Subscribe() *Receiver[T] {
	s, r := NewChannel[T]()
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		s.Close()
		return r
	}
	b.subs = append(b.subs, s)
	return r
}

// Send delivers v to every live subscriber. It never blocks.
func (b *Broadcast[T]) Send(v T) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	live := b.subs[:0]
	for _, s := range b.subs {
		if !s.trySend(v) {
			s.Close()
			continue
		}
		live = append(live, s)
	}
	for i := len(live); i < len(b.subs); i++ {
		b.subs[i] = nil
	}
	b.subs = live
}

// Subscribers reports the number of live subscribers.
func (b *Broadcast[T]) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Close closes every subscriber channel. Later sends are ignored.
func (b *Broadcast[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for _, s := range b.subs {
		s.Close()
	}
	b.subs = nil
}
