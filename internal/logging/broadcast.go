package logging

import (
	"context"
	"log/slog"
	"time"

	"github.com/dkoosis/retest/pkg/actor"
)

// Entry is a log record as the UI receives it.
type Entry struct {
	Time    time.Time
	Level   slog.Level
	Message string
	Attrs   string
}

// BroadcastHandler publishes records on a broadcast channel. Sending never
// blocks, so a slow or absent subscriber cannot stall the caller.
type BroadcastHandler struct {
	level slog.Leveler
	out   *actor.Broadcast[Entry]
	attrs []slog.Attr
	group string
}

func NewBroadcastHandler(out *actor.Broadcast[Entry], level slog.Leveler) *BroadcastHandler {
	return &BroadcastHandler{level: level, out: out}
}

func (h *BroadcastHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *BroadcastHandler) Handle(_ context.Context, r slog.Record) error {
	h.out.Send(Entry{
		Time:    r.Time,
		Level:   r.Level,
		Message: r.Message,
		Attrs:   formatAttrs(h.group, h.attrs, r),
	})
	return nil
}

func (h *BroadcastHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := *h
	c.attrs = appendAttrs(h.attrs, h.group, attrs)
	return &c
}

func (h *BroadcastHandler) WithGroup(name string) slog.Handler {
	c := *h
	c.group = joinGroup(h.group, name)
	return &c
}
