package main

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/dkoosis/retest/internal/config"
	"github.com/dkoosis/retest/internal/coverage"
	"github.com/dkoosis/retest/internal/debounce"
	"github.com/dkoosis/retest/internal/handler"
	"github.com/dkoosis/retest/internal/runner"
	"github.com/dkoosis/retest/internal/snapshot"
	"github.com/dkoosis/retest/internal/watch"
	"github.com/dkoosis/retest/pkg/actor"
	"github.com/dkoosis/retest/pkg/cancel"
	"github.com/dkoosis/retest/pkg/testrun"
)

// app owns the running actors and the channels between them.
type app struct {
	logger   *slog.Logger
	events   *actor.Broadcast[testrun.Event]
	statuses *actor.Broadcast[coverage.Status]

	inbox     *actor.Sender[actor.Message[debounce.Input]]
	debouncer *actor.Actor[debounce.Input, *debounce.Debouncer]
	handler   *actor.Actor[testrun.Trigger, *handler.Handler]
	watcher   *watch.Watcher

	mu       sync.Mutex
	stopped  bool
	shutOnce sync.Once
}

// start wires watcher -> debouncer -> handler -> broadcasts and starts
// every actor. Nothing runs until the first trigger arrives.
func start(root string, settings *config.Live, logger *slog.Logger) (*app, error) {
	initial := settings.Settings()
	a := &app{
		logger:   logger,
		events:   actor.NewBroadcast[testrun.Event](),
		statuses: actor.NewBroadcast[coverage.Status](),
	}

	triggerTx, triggerRx := actor.NewChannel[actor.Message[testrun.Trigger]]()
	h := handler.New(handler.Options{
		Runner:       &liveRunner{root: root, settings: settings, logger: logger},
		Coverage:     &liveCoverage{root: root, settings: settings, logger: logger},
		Settings:     settings,
		Approver:     &snapshot.Approver{Logger: logger},
		Events:       a.events,
		Statuses:     a.statuses,
		ArtifactsDir: initial.ArtifactsDir,
		Logger:       logger,
	})
	a.handler = actor.Spawn("handler", triggerRx, h, logger)

	inboxTx, inboxRx := actor.NewChannel[actor.Message[debounce.Input]]()
	a.inbox = inboxTx
	a.debouncer = actor.Spawn("debounce", inboxRx, debounce.New(triggerTx, logger), logger)

	changes := inboxTx.Clone()
	w, err := watch.New(watch.Options{
		Root:       root,
		Extensions: initial.Extensions,
		Ignore:     initial.Ignore,
	}, func(c watch.Change) {
		changes.Send(actor.Plain(debounce.Changed(c.Path)))
	}, logger)
	if err != nil {
		changes.Close()
		a.stopActors()
		return nil, fmt.Errorf("starting watcher: %w", err)
	}
	a.watcher = w
	logger.Info("watching", "root", root, "tool", initial.Tool, "coverage", initial.Coverage)
	return a, nil
}

// request asks for a run on behalf of the user. It is a no-op once
// shutdown has begun.
func (a *app) request(t testrun.Trigger) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stopped {
		return
	}
	a.inbox.Send(actor.Plain(debounce.Request(t)))
}

func (a *app) requestDefault() {
	a.request(testrun.DefaultRun())
}

// shutdown stops the watcher, then the actors in pipeline order, then
// closes the broadcasts so subscribers see the end of the stream.
func (a *app) shutdown() {
	a.shutOnce.Do(func() {
		if a.watcher != nil {
			a.watcher.Stop()
		}
		a.stopActors()
		a.events.Close()
		a.statuses.Close()
		a.logger.Debug("shutdown complete")
	})
}

func (a *app) stopActors() {
	a.mu.Lock()
	a.stopped = true
	a.inbox.Send(actor.Exit[debounce.Input]())
	a.mu.Unlock()
	a.debouncer.Wait().Stop()
	h := a.handler.Wait()
	a.logger.Debug("handler stopped", "pinned", h.Pinned(), "state", h.Run().State)
}

// liveRunner builds a runner from the current settings for every run so
// edits to the configuration apply to the next run.
type liveRunner struct {
	root     string
	settings *config.Live
	logger   *slog.Logger
}

func (l *liveRunner) Run(tok *cancel.Token, req runner.Request, emit func(testrun.Event)) error {
	s := l.settings.Settings()
	r := &runner.Runner{
		Tool:         s.Tool,
		Root:         l.root,
		Command:      s.TestCommand,
		Env:          s.Env,
		KillOnCancel: s.KillOnCancel,
		Logger:       l.logger,
	}
	req.ArtifactsDir = s.ArtifactsDir
	return r.Run(tok, req, emit)
}

// liveCoverage builds a coverage engine from the current settings.
type liveCoverage struct {
	root     string
	settings *config.Live
	logger   *slog.Logger
}

func (l *liveCoverage) engine() *coverage.Engine {
	s := l.settings.Settings()
	return &coverage.Engine{
		Backend:      s.Backend,
		Root:         l.root,
		ArtifactsDir: s.ArtifactsDir,
		ReportPath:   s.ReportPath,
		Tool:         s.CoverageTool,
		Logger:       l.logger,
	}
}

func (l *liveCoverage) Clean() error {
	return l.engine().Clean()
}

func (l *liveCoverage) Run(tok *cancel.Token, publish func(coverage.Status)) (*coverage.Report, error) {
	return l.engine().Run(tok, publish)
}
