// Package testjson decodes go test -json output one line at a time.
package testjson

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// Actions emitted by go test -json (see go doc test2json).
const (
	ActionStart       = "start"
	ActionRun         = "run"
	ActionPause       = "pause"
	ActionCont        = "cont"
	ActionPass        = "pass"
	ActionFail        = "fail"
	ActionSkip        = "skip"
	ActionOutput      = "output"
	ActionBench       = "bench"
	ActionBuildOutput = "build-output"
	ActionBuildFail   = "build-fail"
)

// TestEvent represents a single event from go test -json output.
type TestEvent struct {
	Time        time.Time `json:"Time"`
	Action      string    `json:"Action"`
	Package     string    `json:"Package"`
	ImportPath  string    `json:"ImportPath"`
	Test        string    `json:"Test"`
	Elapsed     float64   `json:"Elapsed"`
	Output      string    `json:"Output"`
	FailedBuild string    `json:"FailedBuild"`
}

// ErrNotEvent is returned by Decode for lines that are not test2json events.
var ErrNotEvent = errors.New("not a go test -json event")

// Decode parses one line. Lines that are not JSON objects with an Action
// return ErrNotEvent so callers can treat them as plain tool output.
func Decode(line []byte) (TestEvent, error) {
	var e TestEvent
	trimmed := bytes.TrimSpace(line)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return e, ErrNotEvent
	}
	if err := json.Unmarshal(trimmed, &e); err != nil {
		return e, ErrNotEvent
	}
	if e.Action == "" {
		return e, ErrNotEvent
	}
	return e, nil
}

// Text returns the event's output without its trailing newline.
func (e TestEvent) Text() string {
	return strings.TrimRight(e.Output, "\r\n")
}

// Duration returns Elapsed as a time.Duration.
func (e TestEvent) Duration() time.Duration {
	return time.Duration(e.Elapsed * float64(time.Second))
}

// IsBoilerplate reports whether an output line is framing that go test
// prints around every test rather than something the test itself wrote.
func IsBoilerplate(line string) bool {
	trimmed := strings.TrimSpace(line)
	for _, prefix := range []string{"=== RUN", "=== PAUSE", "=== CONT", "=== NAME", "--- PASS", "--- SKIP"} {
		if strings.HasPrefix(trimmed, prefix) {
			return true
		}
	}
	return trimmed == "PASS" || trimmed == "FAIL"
}
