// Package logging provides the slog handlers retest injects into its
// components: a human-readable writer, a broadcast to the UI, and a tee.
package logging

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
)

// PrettyHandler writes one line per record:
//
//	15:04:05.000  INFO   message text  key=val key2="val with spaces"
//
// With color set, timestamp, level and message get ANSI styling.
type PrettyHandler struct {
	level slog.Leveler
	w     io.Writer
	color bool
	mu    *sync.Mutex
	attrs []slog.Attr
	group string
}

// NewPrettyHandler returns a handler writing records at or above level to w.
func NewPrettyHandler(w io.Writer, level slog.Leveler, color bool) *PrettyHandler {
	return &PrettyHandler{level: level, w: w, color: color, mu: &sync.Mutex{}}
}

const (
	ansiReset  = "\033[0m"
	ansiDim    = "\033[2m"
	ansiBold   = "\033[1m"
	ansiCyan   = "\033[36m"
	ansiYellow = "\033[33m"
	ansiRed    = "\033[31m"
	ansiGray   = "\033[90m"
)

func levelColor(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return ansiRed
	case level >= slog.LevelWarn:
		return ansiYellow
	case level >= slog.LevelInfo:
		return ansiCyan
	default:
		return ansiGray
	}
}

func (h *PrettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *PrettyHandler) Handle(_ context.Context, r slog.Record) error {
	var buf bytes.Buffer
	h.styled(&buf, ansiDim, r.Time.Format("15:04:05.000"))
	buf.WriteString("  ")
	h.styled(&buf, levelColor(r.Level), fmt.Sprintf("%-5s", r.Level.String()))
	buf.WriteString("  ")
	h.styled(&buf, ansiBold, r.Message)
	if attrs := formatAttrs(h.group, h.attrs, r); attrs != "" {
		buf.WriteString("  ")
		buf.WriteString(attrs)
	}
	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.w.Write(buf.Bytes())
	return err
}

func (h *PrettyHandler) styled(buf *bytes.Buffer, code, s string) {
	if !h.color {
		buf.WriteString(s)
		return
	}
	buf.WriteString(code)
	buf.WriteString(s)
	buf.WriteString(ansiReset)
}

func (h *PrettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := *h
	c.attrs = appendAttrs(h.attrs, h.group, attrs)
	return &c
}

func (h *PrettyHandler) WithGroup(name string) slog.Handler {
	c := *h
	c.group = joinGroup(h.group, name)
	return &c
}

// appendAttrs returns a new slice; attrs are qualified by group.
func appendAttrs(base []slog.Attr, group string, attrs []slog.Attr) []slog.Attr {
	out := make([]slog.Attr, 0, len(base)+len(attrs))
	out = append(out, base...)
	for _, a := range attrs {
		if group != "" {
			a.Key = group + "." + a.Key
		}
		out = append(out, a)
	}
	return out
}

func joinGroup(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "." + name
}

// formatAttrs renders handler attrs then record attrs as key=val pairs.
func formatAttrs(group string, pre []slog.Attr, r slog.Record) string {
	var parts []string
	for _, a := range pre {
		parts = append(parts, a.Key+"="+formatValue(a.Value))
	}
	r.Attrs(func(a slog.Attr) bool {
		key := a.Key
		if group != "" {
			key = group + "." + key
		}
		parts = append(parts, key+"="+formatValue(a.Value))
		return true
	})
	return strings.Join(parts, " ")
}

// formatValue quotes strings that are empty or contain separators.
func formatValue(v slog.Value) string {
	v = v.Resolve()
	switch v.Kind() {
	case slog.KindString:
		return quoteIfNeeded(v.String())
	case slog.KindInt64:
		return strconv.FormatInt(v.Int64(), 10)
	case slog.KindUint64:
		return strconv.FormatUint(v.Uint64(), 10)
	case slog.KindFloat64:
		return strconv.FormatFloat(v.Float64(), 'g', -1, 64)
	case slog.KindBool:
		return strconv.FormatBool(v.Bool())
	case slog.KindDuration:
		return v.Duration().String()
	case slog.KindTime:
		return v.Time().Format("15:04:05.000")
	case slog.KindGroup:
		var parts []string
		for _, a := range v.Group() {
			parts = append(parts, a.Key+"="+formatValue(a.Value))
		}
		return strings.Join(parts, " ")
	default:
		return quoteIfNeeded(fmt.Sprintf("%v", v.Any()))
	}
}

func quoteIfNeeded(s string) string {
	if s == "" || strings.ContainsAny(s, " \"=\n\t") {
		return strconv.Quote(s)
	}
	return s
}

// ParseLevel maps debug, info, warn and error to a level. Anything else is info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
