// Command retest watches a workspace and re-runs its tests on every change.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/dkoosis/retest/internal/config"
	"github.com/dkoosis/retest/internal/logging"
	"github.com/dkoosis/retest/internal/tui"
	"github.com/dkoosis/retest/internal/version"
	"github.com/dkoosis/retest/pkg/actor"
)

// options are the startup-only values taken from the command line.
type options struct {
	Root       string
	ConfigPath string
	Plain      bool
	Version    bool
	Flags      config.CliFlags
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the application and returns the exit code.
func run(args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if opts.Version {
		_, _ = fmt.Fprintln(stdout, version.String())
		return 0
	}

	root, err := filepath.Abs(opts.Root)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: resolving root: %v\n", err)
		return 1
	}
	interactive := !opts.Plain && isTerminal(stdout)

	cfgPath := config.Path(opts.ConfigPath, root)
	initial, err := resolveInitial(root, cfgPath, opts.Flags)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	logs := actor.NewBroadcast[logging.Entry]()
	defer logs.Close()
	logger, closeLog, err := newLogger(root, initial.Debug, interactive, stderr, logs)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer closeLog()
	logger.Debug("configuration resolved", "path", cfgPath, "tool", initial.Tool, "tool_source", initial.ToolSource,
		"coverage", initial.Coverage, "coverage_source", initial.CoverageSource, "debug_source", initial.DebugSource)

	settings := config.NewLive(root, cfgPath, opts.Flags, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := start(root, settings, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	src := tui.Sources{Events: app.events.Subscribe(), Coverage: app.statuses.Subscribe()}
	if interactive {
		src.Logs = logs.Subscribe()
	}
	app.requestDefault()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer stop()
		if !interactive {
			tui.NewPlain(stdout).Run(gctx, src)
			return nil
		}
		return tui.Run(gctx, src, tui.Controls{
			Trigger:        app.request,
			ToggleCoverage: settings.ToggleCoverage,
		})
	})
	g.Go(func() error {
		<-gctx.Done()
		app.shutdown()
		return nil
	})
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("presentation failed", "error", err)
		return 1
	}
	return 0
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet("retest", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.Root, "root", ".", "Workspace root to watch and test.")
	fs.StringVar(&opts.ConfigPath, "config", "", "Path to the configuration file (default <root>/"+config.FileName+").")
	fs.StringVar(&opts.Flags.Tool, "tool", "", "Test tool: gotest or libtest.")
	fs.BoolVar(&opts.Flags.Coverage, "coverage", false, "Collect coverage on full runs.")
	fs.BoolVar(&opts.Flags.Debug, "debug", false, "Enable debug logging.")
	fs.BoolVar(&opts.Plain, "plain", false, "Print plain lines instead of the interactive view.")
	fs.BoolVar(&opts.Version, "version", false, "Print version and exit.")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "tool":
			opts.Flags.ToolSet = true
		case "coverage":
			opts.Flags.CoverageSet = true
		case "debug":
			opts.Flags.DebugSet = true
		}
	})
	return opts, nil
}

// resolveInitial validates the configuration once before anything starts.
// Later reads go through config.Live and tolerate a broken file.
func resolveInitial(root, path string, flags config.CliFlags) (*config.Resolved, error) {
	file, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	return config.Resolve(root, file, flags)
}

// newLogger builds the process logger. Interactive sessions publish records
// to the view and, with debug on, to .retest/retest.log; plain sessions
// write to stderr.
func newLogger(root string, debug, interactive bool, stderr io.Writer, logs *actor.Broadcast[logging.Entry]) (*slog.Logger, func(), error) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	if !interactive {
		return slog.New(logging.NewPrettyHandler(stderr, level, isTerminal(stderr))), func() {}, nil
	}

	handlers := logging.Tee{logging.NewBroadcastHandler(logs, slog.LevelInfo)}
	closer := func() {}
	if debug {
		path := filepath.Join(root, ".retest", "retest.log")
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, nil, fmt.Errorf("creating log directory: %w", err)
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("opening log file: %w", err)
		}
		handlers = append(handlers, logging.NewPrettyHandler(f, level, false))
		closer = func() { _ = f.Close() }
	}
	return slog.New(handlers), closer, nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
