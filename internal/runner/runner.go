// Package runner spawns the test subprocess for one run and turns its
// output into run events.
package runner

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"unicode/utf8"

	"github.com/dkoosis/retest/pkg/cancel"
	"github.com/dkoosis/retest/pkg/parse"
	"github.com/dkoosis/retest/pkg/testrun"
)

var (
	// ErrSpawn means the test command could not be started.
	ErrSpawn = errors.New("failed to start test command")
	// ErrUndecodableOutput means the test command wrote a line that is not UTF-8.
	ErrUndecodableOutput = errors.New("test output is not valid UTF-8")
)

// Request is the scope of one run.
type Request struct {
	// Test restricts the run to one test. Empty runs the whole suite.
	Test testrun.TestID
	// ClearOthers drops every other test from the collection when Test is set.
	ClearOthers bool
	// Coverage instruments the run, writing artifacts to ArtifactsDir.
	Coverage     bool
	ArtifactsDir string
}

// Runner runs one test tool in a workspace.
type Runner struct {
	Tool    parse.Tool
	Root    string
	Command []string // libtest command line; DefaultLibtestCommand when empty
	Env     map[string]string
	// KillOnCancel kills the subprocess and everything it spawned when its
	// run is cancelled instead of letting it finish in the background.
	KillOnCancel bool
	Logger       *slog.Logger

	newCmd func(name string, args ...string) *exec.Cmd
}

// Run executes req and emits its events in order: Start or StartSingle,
// then parsed events, then NoTests when no test finished, then
// TestsCompleted.
//
// A failing test command is a normal outcome. Run returns an error only when
// the command cannot be started or waited for, or its output cannot be
// decoded. A cancelled token returns cancel.ErrCancelled; the subprocess is
// still reaped.
func (r *Runner) Run(tok *cancel.Token, req Request, emit func(testrun.Event)) error {
	if err := tok.Check(); err != nil {
		return err
	}
	argv, env, err := r.command(req)
	if err != nil {
		return err
	}

	cmd := r.cmd(argv[0], argv[1:]...)
	cmd.Dir = r.Root
	cmd.Env = mergeEnv(os.Environ(), env)
	pr, pw := io.Pipe()
	cmd.Stdout = pw
	cmd.Stderr = pw
	if r.KillOnCancel {
		setProcessGroup(cmd)
	}

	log := r.logger()
	log.Debug("starting tests", "cmd", strings.Join(argv, " "), "dir", r.Root)
	if err := cmd.Start(); err != nil {
		_ = pw.Close()
		_ = pr.Close()
		return fmt.Errorf("%w: %s: %w", ErrSpawn, argv[0], err)
	}
	waited := make(chan error, 1)
	go func() {
		err := cmd.Wait()
		_ = pw.Close()
		waited <- err
	}()

	if err := tok.Check(); err != nil {
		r.abandon(cmd, pr, waited)
		return err
	}
	emit(scopeEvent(req))

	parser := parse.New(r.Tool)
	finished := false
	reader := bufio.NewReader(pr)
	for {
		if err := tok.Check(); err != nil {
			r.abandon(cmd, pr, waited)
			return err
		}
		line, readErr := reader.ReadString('\n')
		if line != "" {
			if !utf8.ValidString(line) {
				r.abandon(cmd, pr, waited)
				return ErrUndecodableOutput
			}
			if tok.IsCancelled() {
				r.abandon(cmd, pr, waited)
				return cancel.ErrCancelled
			}
			if ev, ok := parser.Parse(strings.TrimRight(line, "\r\n")); ok {
				finished = finished || ev.Kind == testrun.EventTestFinished
				emit(ev)
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			r.abandon(cmd, pr, waited)
			return fmt.Errorf("reading test output: %w", readErr)
		}
	}

	if err := <-waited; err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return fmt.Errorf("waiting for test command: %w", err)
		}
		log.Debug("test command exited", "code", exitErr.ExitCode())
	}
	if err := tok.Check(); err != nil {
		return err
	}
	if !finished {
		emit(testrun.NoTests())
	}
	emit(testrun.TestsCompleted())
	return nil
}

// abandon stops consuming a run. The rest of the output is discarded in the
// background so the subprocess can exit and be reaped.
func (r *Runner) abandon(cmd *exec.Cmd, pr *io.PipeReader, waited <-chan error) {
	log := r.logger()
	if r.KillOnCancel {
		if err := killProcessGroup(cmd); err != nil {
			log.Debug("killing abandoned test command", "error", err)
		}
	}
	go func() {
		_, _ = io.Copy(io.Discard, pr)
		err := <-waited
		log.Debug("abandoned test command reaped", "error", err)
	}()
}

func (r *Runner) cmd(name string, args ...string) *exec.Cmd {
	if r.newCmd != nil {
		return r.newCmd(name, args...)
	}
	return exec.Command(name, args...)
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return r.Logger
}
