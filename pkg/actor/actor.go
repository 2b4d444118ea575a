package actor

import (
	"log/slog"

	"github.com/dkoosis/retest/pkg/cancel"
)

// Message pairs a payload with the token that can abandon its handling.
type Message[T any] struct {
	Payload T
	Cancel  *cancel.Token
	exit    bool
}

// Msg wraps payload with tok.
func Msg[T any](payload T, tok *cancel.Token) Message[T] {
	return Message[T]{Payload: payload, Cancel: tok}
}

// Plain wraps payload with a fresh token nobody else holds.
func Plain[T any](payload T) Message[T] {
	return Message[T]{Payload: payload, Cancel: cancel.New()}
}

// Exit returns the message that stops an actor.
func Exit[T any]() Message[T] {
	return Message[T]{exit: true}
}

// IsExit reports whether m is the stop message.
func (m Message[T]) IsExit() bool {
	return m.exit
}

// Handler processes one message at a time.
type Handler[T any] interface {
	Handle(msg T, tok *cancel.Token)
}

// Actor runs a Handler over an inbox on its own goroutine.
type Actor[T any, H Handler[T]] struct {
	name    string
	inbox   *Receiver[Message[T]]
	handler H
	logger  *slog.Logger
	done    chan struct{}
}

// Spawn starts consuming inbox with h. The actor stops on an Exit message
// or when every sender of inbox has been closed.
func Spawn[T any, H Handler[T]](name string, inbox *Receiver[Message[T]], h H, logger *slog.Logger) *Actor[T, H] {
	a := &Actor[T, H]{
		name:    name,
		inbox:   inbox,
		handler: h,
		logger:  logger.With("actor", name),
		done:    make(chan struct{}),
	}
	go a.loop()
	return a
}

func (a *Actor[T, H]) loop() {
	defer close(a.done)
	defer a.inbox.Close()
	for {
		m, ok := a.inbox.Recv()
		if !ok {
			a.logger.Debug("inbox closed")
			return
		}
		if m.exit {
			a.logger.Debug("exit requested")
			return
		}
		a.dispatch(m)
	}
}

func (a *Actor[T, H]) dispatch(m Message[T]) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("handler panicked", "panic", r)
		}
	}()
	tok := m.Cancel
	if tok == nil {
		tok = cancel.New()
	}
	a.handler.Handle(m.Payload, tok)
}

// Done is closed once the actor has stopped.
func (a *Actor[T, H]) Done() <-chan struct{} {
	return a.done
}

// Wait blocks until the actor stops and hands back its handler.
func (a *Actor[T, H]) Wait() H {
	<-a.done
	return a.handler
}
