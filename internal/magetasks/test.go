package magetasks

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/dkoosis/retest/internal/coverage"
	"github.com/dkoosis/retest/internal/runner"
	"github.com/dkoosis/retest/internal/tui"
	"github.com/dkoosis/retest/pkg/cancel"
	"github.com/dkoosis/retest/pkg/parse"
	"github.com/dkoosis/retest/pkg/testrun"
)

// ErrTestsFailed is returned when the suite ran and at least one test failed.
var ErrTestsFailed = errors.New("tests failed")

// TestAll runs the suite once and prints each result.
func TestAll() error {
	PrintHeader("Tests")
	return runSuite(runner.Request{})
}

// TestCoverage runs the suite instrumented and prints the coverage total.
func TestCoverage() error {
	PrintHeader("Test Coverage")
	artifacts := filepath.Join(ProjectRoot, ".retest", "artifacts")
	engine := &coverage.Engine{
		Backend:      coverage.BackendGo,
		Root:         ProjectRoot,
		ArtifactsDir: artifacts,
		ReportPath:   filepath.Join(ProjectRoot, ".retest", "coverage.out"),
	}
	if err := engine.Clean(); err != nil {
		PrintWarning(err.Error())
	}
	if err := runSuite(runner.Request{Coverage: true, ArtifactsDir: artifacts}); err != nil && !errors.Is(err, ErrTestsFailed) {
		return err
	}

	plain := tui.NewPlain(Out)
	if _, err := engine.Run(cancel.New(), plain.Coverage); err != nil {
		PrintError("Coverage report failed")
		return err
	}
	PrintSuccess("Coverage report written to " + engine.ReportPath)
	return nil
}

// runSuite folds the run's events alongside printing them so the outcome
// can be judged once the command exits.
func runSuite(req runner.Request) error {
	r := &runner.Runner{Tool: parse.GoTest, Root: ProjectRoot}
	plain := tui.NewPlain(Out)
	run := testrun.New()
	err := r.Run(cancel.New(), req, func(e testrun.Event) {
		run.Apply(e)
		plain.Event(e)
	})
	if err != nil {
		PrintError("Test run failed")
		return err
	}
	if _, failed, _ := run.Tests.Counts(); failed > 0 || run.State.Kind == testrun.StateBuildFailed {
		PrintError(fmt.Sprintf("%d tests failed", failed))
		return ErrTestsFailed
	}
	PrintSuccess("All tests passed")
	return nil
}
