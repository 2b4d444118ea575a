// Package handler decides what each run trigger executes and owns the live
// TestRun aggregate.
package handler

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/dkoosis/retest/internal/coverage"
	"github.com/dkoosis/retest/internal/runner"
	"github.com/dkoosis/retest/pkg/actor"
	"github.com/dkoosis/retest/pkg/cancel"
	"github.com/dkoosis/retest/pkg/testrun"
)

var errNoCoverageRun = errors.New("tests did not run")

// TestRunner executes one run.
type TestRunner interface {
	Run(tok *cancel.Token, req runner.Request, emit func(testrun.Event)) error
}

// Coverage prepares for and produces a coverage report.
type Coverage interface {
	Clean() error
	Run(tok *cancel.Token, publish func(coverage.Status)) (*coverage.Report, error)
}

// Settings are read on every trigger.
type Settings interface {
	CoverageEnabled() bool
	SnapshotDirs() []string
}

// Approver promotes snapshot candidates written by a test.
type Approver interface {
	Approve(id testrun.TestID, dirs []string) (int, error)
}

// Options wires a Handler. Coverage and Approver may be nil.
type Options struct {
	Runner       TestRunner
	Coverage     Coverage
	Settings     Settings
	Approver     Approver
	Events       *actor.Broadcast[testrun.Event]
	Statuses     *actor.Broadcast[coverage.Status]
	ArtifactsDir string
	Logger       *slog.Logger
}

// Handler is the sole writer of the TestRun it holds. It is meant to run
// inside an actor, one trigger at a time.
type Handler struct {
	opts    Options
	logger  *slog.Logger
	pinned  testrun.TestID
	run     *testrun.TestRun
	covered bool
	// settled is the last coverage status that ended a run, restored when a
	// run that published Preparing produces no report.
	settled coverage.Status
}

func New(opts Options) *Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handler{opts: opts, logger: logger, run: testrun.New(), settled: coverage.Disabled()}
}

// Pinned returns the pinned test id, empty when nothing is pinned.
func (h *Handler) Pinned() testrun.TestID { return h.pinned }

// Run returns the live aggregate. Only read it once the actor has stopped.
func (h *Handler) Run() *testrun.TestRun { return h.run }

// Handle implements actor.Handler.
func (h *Handler) Handle(t testrun.Trigger, tok *cancel.Token) {
	log := h.logger.With("run", uuid.NewString(), "trigger", t.Kind.String())

	switch t.Kind {
	case testrun.TriggerSingle:
		h.execute(tok, runner.Request{Test: t.ID}, t.UpdateSnapshots, log)
		return
	case testrun.TriggerPin:
		h.pinned = t.ID
		log.Info("pinned test", "test", t.ID)
	case testrun.TriggerClearPinned:
		if h.pinned != "" {
			log.Info("cleared pinned test", "test", h.pinned)
		}
		h.pinned = ""
	}

	if h.pinned != "" {
		h.execute(tok, runner.Request{Test: h.pinned, ClearOthers: true}, false, log)
		return
	}
	h.execute(tok, runner.Request{}, false, log)
}

func (h *Handler) execute(tok *cancel.Token, req runner.Request, approve bool, log *slog.Logger) {
	withCoverage := h.coverageFor(req)
	if withCoverage {
		req.Coverage = true
		req.ArtifactsDir = h.opts.ArtifactsDir
		h.publish(coverage.Preparing())
		if err := h.opts.Coverage.Clean(); err != nil {
			log.Warn("stale coverage artifacts remain", "error", err)
			h.publish(coverage.Failed(err))
		}
	}

	if tok.IsCancelled() {
		log.Debug("superseded before start")
		h.restoreCoverage(withCoverage)
		return
	}

	log.Debug("running tests", "test", req.Test, "coverage", req.Coverage)
	err := h.opts.Runner.Run(tok, req, h.forward)
	if errors.Is(err, cancel.ErrCancelled) || tok.IsCancelled() {
		log.Debug("superseded")
		h.restoreCoverage(withCoverage)
		return
	}
	if err != nil {
		log.Error("test run failed", "error", err)
		h.forward(testrun.RunFailed(err.Error()))
		if withCoverage {
			h.publish(coverage.Failed(fmt.Errorf("%w: %w", errNoCoverageRun, err)))
		}
		return
	}
	passed, failed, _ := h.run.Tests.Counts()
	log.Info("tests completed", "state", h.run.State.String(), "passed", passed, "failed", failed)

	if approve && h.opts.Approver != nil {
		n, err := h.opts.Approver.Approve(req.Test, h.opts.Settings.SnapshotDirs())
		if err != nil {
			log.Warn("snapshot approval incomplete", "test", req.Test, "error", err)
		} else {
			log.Info("snapshots approved", "test", req.Test, "count", n)
		}
	}

	if !withCoverage {
		return
	}
	report, err := h.opts.Coverage.Run(tok, h.publish)
	switch {
	case errors.Is(err, cancel.ErrCancelled):
		log.Debug("coverage superseded")
		h.restoreCoverage(true)
	case err != nil:
		log.Debug("no coverage report", "reason", coverage.ReasonOf(err))
	default:
		log.Debug("coverage report", "percent", report.Percent, "covered", report.LinesCovered, "total", report.LinesTotal)
	}
}

// restoreCoverage republishes the last final coverage status after a run
// that published Preparing ends without one.
func (h *Handler) restoreCoverage(published bool) {
	if published {
		h.publish(h.settled)
	}
}

// coverageFor reports whether req gets a coverage report. Only full-suite
// runs are covered. Turning coverage off publishes Disabled once.
func (h *Handler) coverageFor(req runner.Request) bool {
	if req.Test != "" || h.opts.Coverage == nil {
		return false
	}
	enabled := h.opts.Settings.CoverageEnabled()
	if !enabled && h.covered {
		h.publish(coverage.Disabled())
	}
	h.covered = enabled
	return enabled
}

func (h *Handler) forward(e testrun.Event) {
	h.run.Apply(e)
	if h.opts.Events != nil {
		h.opts.Events.Send(e)
	}
}

func (h *Handler) publish(s coverage.Status) {
	switch {
	case s.Kind == coverage.StatusError && s.Reason == coverage.ReasonCleanup:
	case s.Kind == coverage.StatusDisabled, s.Kind == coverage.StatusDone, s.Kind == coverage.StatusError:
		h.settled = s
	}
	if h.opts.Statuses != nil {
		h.opts.Statuses.Send(s)
	}
}
