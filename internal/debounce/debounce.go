// Package debounce turns change notifications into run triggers whose
// predecessors are cancelled.
package debounce

import (
	"log/slog"

	"github.com/dkoosis/retest/pkg/actor"
	"github.com/dkoosis/retest/pkg/cancel"
	"github.com/dkoosis/retest/pkg/testrun"
)

// Input is either a changed file or a trigger requested by the user.
type Input struct {
	Path    string
	Trigger testrun.Trigger
}

// Changed is the input for a file change. It always requests a DefaultRun.
func Changed(path string) Input {
	return Input{Path: path, Trigger: testrun.DefaultRun()}
}

// Request passes t through unchanged.
func Request(t testrun.Trigger) Input {
	return Input{Trigger: t}
}

// Debouncer forwards every input as a trigger and cancels the token of the
// trigger it forwarded before. Nothing is dropped; superseded work is
// marked so the handler can abandon it.
type Debouncer struct {
	out     *actor.Sender[actor.Message[testrun.Trigger]]
	current *cancel.Token
	logger  *slog.Logger
}

func New(out *actor.Sender[actor.Message[testrun.Trigger]], logger *slog.Logger) *Debouncer {
	return &Debouncer{out: out, logger: logger}
}

// Handle implements actor.Handler.
func (d *Debouncer) Handle(in Input, _ *cancel.Token) {
	d.supersede()
	d.current = cancel.New()
	if in.Path != "" {
		d.logger.Debug("file changed", "path", in.Path)
	}
	d.out.Send(actor.Msg(in.Trigger, d.current))
}

// Stop cancels the outstanding trigger and releases the outbound sender.
// Call it after the debouncer's actor has stopped.
func (d *Debouncer) Stop() {
	d.supersede()
	d.out.Close()
}

func (d *Debouncer) supersede() {
	if d.current != nil {
		d.current.Cancel()
	}
}
