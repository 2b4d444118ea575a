package runner

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/dkoosis/retest/pkg/parse"
	"github.com/dkoosis/retest/pkg/testrun"
)

// DefaultLibtestCommand runs the suite when no test command is configured.
var DefaultLibtestCommand = []string{"cargo", "test"}

// command returns argv and the extra environment for req.
func (r *Runner) command(req Request) ([]string, map[string]string, error) {
	env := make(map[string]string, len(r.Env)+2)
	for k, v := range r.Env {
		env[k] = v
	}
	switch r.Tool {
	case parse.Libtest:
		return r.libtestCommand(req, env), env, nil
	default:
		argv, err := r.goTestCommand(req, env)
		return argv, env, err
	}
}

func (r *Runner) goTestCommand(req Request, env map[string]string) ([]string, error) {
	argv := []string{"go", "test", "-json"}
	if req.Coverage {
		argv = append(argv, "-cover")
	}
	if req.Test == "" {
		argv = append(argv, "./...")
	} else {
		pkg, name, ok := parse.SplitGoTestID(req.Test)
		if !ok {
			return nil, fmt.Errorf("%q is not a go test id", req.Test)
		}
		argv = append(argv, "-run", parse.GoRunPattern(name), pkg)
	}
	if req.Coverage {
		env["GOCOVERDIR"] = req.ArtifactsDir
		argv = append(argv, "-args", "-test.gocoverdir="+req.ArtifactsDir)
	}
	return argv, nil
}

func (r *Runner) libtestCommand(req Request, env map[string]string) []string {
	base := r.Command
	if len(base) == 0 {
		base = DefaultLibtestCommand
	}
	argv := append([]string(nil), base...)
	if req.Test != "" {
		argv = append(argv, string(req.Test), "--", "--exact")
	}
	if req.Coverage {
		env["RUSTFLAGS"] = "-C instrument-coverage"
		env["LLVM_PROFILE_FILE"] = filepath.Join(req.ArtifactsDir, "retest-%p-%m.profraw")
	}
	return argv
}

// mergeEnv appends extra to base in key order so the result is stable.
func mergeEnv(base []string, extra map[string]string) []string {
	if len(extra) == 0 {
		return base
	}
	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	env := make([]string, len(base), len(base)+len(extra))
	copy(env, base)
	for _, k := range keys {
		env = append(env, fmt.Sprintf("%s=%s", k, extra[k]))
	}
	return env
}

// scopeEvent is the event that opens a run for req.
func scopeEvent(req Request) testrun.Event {
	if req.Test == "" {
		return testrun.Start()
	}
	return testrun.StartSingle(req.Test, req.ClearOthers)
}
