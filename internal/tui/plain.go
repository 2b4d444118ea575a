package tui

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/dkoosis/retest/internal/coverage"
	"github.com/dkoosis/retest/pkg/testrun"
)

// Plain prints one line per event for terminals that cannot host the
// interactive view, such as CI logs or pipes.
type Plain struct {
	w   io.Writer
	mu  sync.Mutex
	run *testrun.TestRun
}

func NewPlain(w io.Writer) *Plain {
	return &Plain{w: w, run: testrun.New()}
}

// Run prints from src until every source is closed or ctx ends.
func (p *Plain) Run(ctx context.Context, src Sources) {
	var wg sync.WaitGroup
	if src.Events != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				e, ok := src.Events.Recv()
				if !ok {
					return
				}
				p.Event(e)
			}
		}()
	}
	if src.Coverage != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				s, ok := src.Coverage.Recv()
				if !ok {
					return
				}
				p.Coverage(s)
			}
		}()
	}
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-ctx.Done():
	case <-done:
	}
}

// Event folds e and prints what changed.
func (p *Plain) Event(e testrun.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.run.Apply(e)
	switch e.Kind {
	case testrun.EventStart:
		fmt.Fprintln(p.w, "=== running all tests")
	case testrun.EventStartSingle:
		fmt.Fprintf(p.w, "=== running %s\n", e.ID)
	case testrun.EventCompiling:
		fmt.Fprintf(p.w, "... %s\n", e.Message)
	case testrun.EventBuildError:
		fmt.Fprintf(p.w, "!!! build failed\n%s\n", e.Message)
	case testrun.EventTestFinished:
		fmt.Fprintf(p.w, "%s %s\n", statusIcon(e.Test.Status), e.Test.ID)
		if e.Test.Status == testrun.StatusFailed {
			for _, line := range e.Test.Output {
				fmt.Fprintf(p.w, "    %s\n", line)
			}
		}
	case testrun.EventErrorOutput:
		fmt.Fprintf(p.w, "    %s\n", e.Message)
	case testrun.EventNoTests:
		fmt.Fprintln(p.w, "--- no tests found")
	case testrun.EventTestsCompleted:
		passed, failed, unknown := p.run.Tests.Counts()
		fmt.Fprintf(p.w, "--- %s: %d passed, %d failed, %d other\n", p.run.State.Kind, passed, failed, unknown)
	case testrun.EventRunFailed:
		fmt.Fprintf(p.w, "!!! run failed: %s\n", e.Message)
	}
}

// Coverage prints final coverage statuses.
func (p *Plain) Coverage(s coverage.Status) {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch s.Kind {
	case coverage.StatusDone:
		fmt.Fprintf(p.w, "--- coverage %.2f%% (%d/%d lines)\n", s.Report.Percent, s.Report.LinesCovered, s.Report.LinesTotal)
	case coverage.StatusError:
		fmt.Fprintf(p.w, "!!! coverage %s: %s\n", s.Reason, s.Message)
	}
}
