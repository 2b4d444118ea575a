package coverage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/dkoosis/retest/pkg/cancel"
)

// Engine turns the artifacts left by an instrumented test run into a Report.
type Engine struct {
	Backend      Backend
	Root         string // working directory of the report subprocess
	ArtifactsDir string
	ReportPath   string
	Tool         string // overrides the backend's default executable
	Logger       *slog.Logger

	lookPath func(string) (string, error)
	command  func(ctx context.Context, name string, args ...string) *exec.Cmd
}

// Clean ensures the artifacts directory exists and holds no artifacts from
// a previous run. Files that are not artifacts are left alone.
func (e *Engine) Clean() error {
	if err := os.MkdirAll(e.ArtifactsDir, 0o755); err != nil {
		return fmt.Errorf("%w: %w", ErrCleanupIncomplete, err)
	}
	entries, err := os.ReadDir(e.ArtifactsDir)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCleanupIncomplete, err)
	}
	var errs []error
	for _, entry := range entries {
		if entry.IsDir() || !e.Backend.isArtifact(entry.Name()) {
			continue
		}
		if err := os.Remove(filepath.Join(e.ArtifactsDir, entry.Name())); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrCleanupIncomplete, errors.Join(errs...))
	}
	return nil
}

// Run generates the report and publishes Running followed by Done or Error.
// A cancelled token returns cancel.ErrCancelled without a final status.
// The previous report stays in place until the new one has parsed.
func (e *Engine) Run(tok *cancel.Token, publish func(Status)) (*Report, error) {
	publish(Running())
	r, err := e.run(tok)
	if err != nil {
		if errors.Is(err, cancel.ErrCancelled) {
			return nil, err
		}
		e.logger().Warn("coverage failed", "backend", e.Backend, "error", err)
		publish(Failed(err))
		return nil, err
	}
	e.logger().Info("coverage ready", "percent", r.Percent, "report", e.ReportPath)
	publish(Done(r))
	return r, nil
}

func (e *Engine) run(tok *cancel.Token) (*Report, error) {
	tool, err := e.findTool()
	if err != nil {
		return nil, err
	}
	if err := e.checkArtifacts(); err != nil {
		return nil, err
	}
	if err := tok.Check(); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(e.ReportPath), 0o755); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReportFailed, err)
	}
	tmp := e.ReportPath + ".tmp"
	defer os.Remove(tmp)

	ctx, stop := tok.Context(context.Background())
	defer stop()
	cmd := e.newCommand(ctx, tool, e.Backend.args(e.Root, e.ArtifactsDir, tmp)...)
	cmd.Dir = e.Root
	e.logger().Debug("running coverage tool", "cmd", strings.Join(cmd.Args, " "))
	out, err := cmd.CombinedOutput()
	if tok.IsCancelled() {
		return nil, cancel.ErrCancelled
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v: %s", ErrReportFailed, err, tail(out))
	}

	data, err := os.ReadFile(tmp)
	if err != nil {
		return nil, fmt.Errorf("%w: no report written: %w", ErrReportFailed, err)
	}
	r, err := e.Backend.parse(data)
	if err != nil {
		return nil, err
	}
	if err := os.Rename(tmp, e.ReportPath); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReportFailed, err)
	}
	return r, nil
}

func (e *Engine) findTool() (string, error) {
	name := e.Tool
	if name == "" {
		name = e.Backend.defaultTool()
	}
	look := e.lookPath
	if look == nil {
		look = exec.LookPath
	}
	path, err := look(name)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrToolMissing, name, err)
	}
	return path, nil
}

// checkArtifacts tells a missing directory apart from an empty one.
func (e *Engine) checkArtifacts() error {
	entries, err := os.ReadDir(e.ArtifactsDir)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrArtifactsNotFound, e.ArtifactsDir)
	}
	if err != nil {
		return fmt.Errorf("reading %s: %w", e.ArtifactsDir, err)
	}
	for _, entry := range entries {
		if !entry.IsDir() && e.Backend.isArtifact(entry.Name()) {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrNoArtifacts, e.ArtifactsDir)
}

func (e *Engine) newCommand(ctx context.Context, name string, args ...string) *exec.Cmd {
	if e.command != nil {
		return e.command(ctx, name, args...)
	}
	return exec.CommandContext(ctx, name, args...)
}

func (e *Engine) logger() *slog.Logger {
	if e.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return e.Logger
}

// tail keeps the last few lines of subprocess output for error messages.
func tail(out []byte) string {
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	if len(lines) > 5 {
		lines = lines[len(lines)-5:]
	}
	return strings.Join(lines, "\n")
}
