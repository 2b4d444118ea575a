package runner

import (
	"fmt"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkoosis/retest/pkg/cancel"
	"github.com/dkoosis/retest/pkg/parse"
	"github.com/dkoosis/retest/pkg/testrun"
)

// TestHelperProcess plays the test command for the scenario in HELPER_MODE.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	switch os.Getenv("HELPER_MODE") {
	case "results":
		fmt.Println("running 2 tests")
		fmt.Println("test sample::case_a ... ok")
		fmt.Fprintln(os.Stderr, "test sample::case_b ... FAILED")
		os.Exit(101)
	case "build-error":
		fmt.Println("   Compiling sample v0.1.0")
		fmt.Println("error: could not compile `sample`")
		os.Exit(101)
	case "empty":
	case "binary":
		os.Stdout.Write([]byte("test sample::case_a ... ok\n\xff\xfe\n"))
	case "slow":
		fmt.Println("test sample::case_a ... ok")
		time.Sleep(300 * time.Millisecond)
		fmt.Println("test sample::case_b ... ok")
	case "spawn":
		child := exec.Command(os.Args[0], "-test.run=TestHelperProcess", "--")
		child.Env = append(os.Environ(), "HELPER_MODE=sleep")
		child.Stdout = os.Stdout
		if err := child.Start(); err != nil {
			os.Exit(3)
		}
		fmt.Println("test sample::case_a ... ok")
		time.Sleep(10 * time.Second)
	case "sleep":
		time.Sleep(10 * time.Second)
	}
	os.Exit(0)
}

type fakeCommand struct {
	calls int
	argv  [][]string
}

func (f *fakeCommand) newCmd(name string, args ...string) *exec.Cmd {
	f.calls++
	f.argv = append(f.argv, append([]string{name}, args...))
	return exec.Command(os.Args[0], "-test.run=TestHelperProcess", "--")
}

func helperRunner(mode string) (*Runner, *fakeCommand) {
	f := &fakeCommand{}
	return &Runner{
		Tool:   parse.Libtest,
		Env:    map[string]string{"GO_WANT_HELPER_PROCESS": "1", "HELPER_MODE": mode},
		newCmd: f.newCmd,
	}, f
}

func runAndFold(t *testing.T, r *Runner, tok *cancel.Token, req Request) ([]testrun.Event, *testrun.TestRun, error) {
	t.Helper()
	var events []testrun.Event
	err := r.Run(tok, req, func(e testrun.Event) { events = append(events, e) })
	run := testrun.New()
	run.ApplyAll(events)
	return events, run, err
}

func TestRun_PreCancelledSpawnsNothing(t *testing.T) {
	t.Parallel()
	r, f := helperRunner("results")
	tok := cancel.New()
	tok.Cancel()

	events, _, err := runAndFold(t, r, tok, Request{})

	require.ErrorIs(t, err, cancel.ErrCancelled)
	assert.Zero(t, f.calls)
	assert.Empty(t, events)
}

func TestRun_PassAndFailEndIdle(t *testing.T) {
	t.Parallel()
	r, _ := helperRunner("results")

	events, run, err := runAndFold(t, r, cancel.New(), Request{})

	require.NoError(t, err)
	kinds := make([]testrun.EventKind, len(events))
	for i, e := range events {
		kinds[i] = e.Kind
	}
	assert.Equal(t, []testrun.EventKind{
		testrun.EventStart,
		testrun.EventTestFinished,
		testrun.EventTestFinished,
		testrun.EventTestsCompleted,
	}, kinds)
	assert.Equal(t, testrun.StatusPassed, events[1].Test.Status)
	assert.Equal(t, testrun.StatusFailed, events[2].Test.Status)
	assert.Equal(t, testrun.StateIdle, run.State.Kind)
}

func TestRun_ErrorBeforeTestsIsBuildFailure(t *testing.T) {
	t.Parallel()
	r, _ := helperRunner("build-error")

	_, run, err := runAndFold(t, r, cancel.New(), Request{})

	require.NoError(t, err)
	assert.Equal(t, testrun.State{Kind: testrun.StateBuildFailed, Message: "error: could not compile `sample`"}, run.State)
}

func TestRun_EmptyOutputIsNoTests(t *testing.T) {
	t.Parallel()
	r, _ := helperRunner("empty")

	events, run, err := runAndFold(t, r, cancel.New(), Request{})

	require.NoError(t, err)
	noTests := 0
	for _, e := range events {
		if e.Kind == testrun.EventNoTests {
			noTests++
		}
	}
	assert.Equal(t, 1, noTests)
	assert.Equal(t, testrun.StateIdle, run.State.Kind)
	assert.Zero(t, run.Tests.Len())
}

func TestRun_SingleTestOpensWithStartSingle(t *testing.T) {
	t.Parallel()
	r, f := helperRunner("results")

	events, _, err := runAndFold(t, r, cancel.New(), Request{Test: "sample::case_a", ClearOthers: true})

	require.NoError(t, err)
	require.NotEmpty(t, events)
	assert.Equal(t, testrun.StartSingle("sample::case_a", true), events[0])
	assert.Equal(t, []string{"cargo", "test", "sample::case_a", "--", "--exact"}, f.argv[0])
}

func TestRun_SpawnFailure(t *testing.T) {
	t.Parallel()
	r := &Runner{
		Tool:   parse.Libtest,
		newCmd: func(string, ...string) *exec.Cmd { return exec.Command("/nonexistent/retest-tool") },
	}

	events, _, err := runAndFold(t, r, cancel.New(), Request{})

	require.ErrorIs(t, err, ErrSpawn)
	assert.Empty(t, events)
}

func TestRun_UndecodableOutput(t *testing.T) {
	t.Parallel()
	r, _ := helperRunner("binary")

	_, _, err := runAndFold(t, r, cancel.New(), Request{})

	require.ErrorIs(t, err, ErrUndecodableOutput)
}

func TestRun_CancelMidRunStopsEmitting(t *testing.T) {
	t.Parallel()
	r, _ := helperRunner("slow")
	tok := cancel.New()

	var events []testrun.Event
	err := r.Run(tok, Request{}, func(e testrun.Event) {
		events = append(events, e)
		if e.Kind == testrun.EventTestFinished {
			tok.Cancel()
		}
	})

	require.ErrorIs(t, err, cancel.ErrCancelled)
	require.Len(t, events, 2)
	assert.Equal(t, testrun.TestID("sample::case_a"), events[1].Test.ID)
}

func TestCommand(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		runner  Runner
		req     Request
		argv    []string
		env     map[string]string
		wantErr bool
	}{
		{
			name: "GoSuite",
			req:  Request{},
			argv: []string{"go", "test", "-json", "./..."},
			env:  map[string]string{},
		},
		{
			name: "GoSingleWithCoverage",
			req:  Request{Test: "example.com/m/pkg.TestFoo/sub", Coverage: true, ArtifactsDir: "/tmp/cov"},
			argv: []string{"go", "test", "-json", "-cover", "-run", "^TestFoo$/^sub$", "example.com/m/pkg", "-args", "-test.gocoverdir=/tmp/cov"},
			env:  map[string]string{"GOCOVERDIR": "/tmp/cov"},
		},
		{
			name:    "GoRejectsForeignID",
			req:     Request{Test: "sample::case_a"},
			wantErr: true,
		},
		{
			name:   "LibtestConfiguredCommandWithCoverage",
			runner: Runner{Tool: parse.Libtest, Command: []string{"cargo", "test", "--workspace"}, Env: map[string]string{"RUST_BACKTRACE": "1"}},
			req:    Request{Coverage: true, ArtifactsDir: "/tmp/cov"},
			argv:   []string{"cargo", "test", "--workspace"},
			env: map[string]string{
				"RUST_BACKTRACE":    "1",
				"RUSTFLAGS":         "-C instrument-coverage",
				"LLVM_PROFILE_FILE": "/tmp/cov/retest-%p-%m.profraw",
			},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			argv, env, err := tc.runner.command(tc.req)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.argv, argv)
			assert.Equal(t, tc.env, env)
		})
	}
}

func TestMergeEnv(t *testing.T) {
	t.Parallel()
	got := mergeEnv([]string{"PATH=/bin"}, map[string]string{"B": "2", "A": "1"})
	assert.Equal(t, []string{"PATH=/bin", "A=1", "B=2"}, got)
}
