package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkoosis/retest/pkg/testrun"
)

func feed(p Parser, lines ...string) []testrun.Event {
	var events []testrun.Event
	for _, l := range lines {
		if e, ok := p.Parse(l); ok {
			events = append(events, e)
		}
	}
	return events
}

func TestLibtest_ResultLines(t *testing.T) {
	t.Parallel()
	events := feed(New(Libtest),
		"running 3 tests",
		"test sample::case_a ... ok",
		"test sample::case_b ... FAILED",
		"test sample::case_c ... ignored, slow",
	)

	require.Len(t, events, 3)
	want := []testrun.SingleTest{
		{ID: "sample::case_a", Name: "case_a", Status: testrun.StatusPassed},
		{ID: "sample::case_b", Name: "case_b", Status: testrun.StatusFailed},
		{ID: "sample::case_c", Name: "case_c", Status: testrun.StatusUnknown},
	}
	for i, e := range events {
		assert.Equal(t, testrun.EventTestFinished, e.Kind)
		assert.Equal(t, want[i], e.Test)
	}
}

func TestLibtest_AttributesFailureOutput(t *testing.T) {
	t.Parallel()
	events := feed(New(Libtest),
		"test sample::case_b ... FAILED",
		"",
		"failures:",
		"",
		"---- sample::case_b stdout ----",
		"thread 'sample::case_b' panicked at src/lib.rs:10:9:",
		"assertion `left == right` failed",
		"",
		"---- sample::case_c stdout ----",
		"boom",
		"",
		"failures:",
		"    sample::case_b",
		"",
		"test result: FAILED. 1 passed; 2 failed",
		"error: test failed, to rerun pass `--lib`",
	)

	require.Len(t, events, 4)
	assert.Equal(t, testrun.ErrorOutput("sample::case_b", "thread 'sample::case_b' panicked at src/lib.rs:10:9:"), events[1])
	assert.Equal(t, testrun.ErrorOutput("sample::case_b", "assertion `left == right` failed"), events[2])
	assert.Equal(t, testrun.ErrorOutput("sample::case_c", "boom"), events[3])
}

func TestLibtest_ErrorBeforeAnyTestIsBuildError(t *testing.T) {
	t.Parallel()
	events := feed(New(Libtest),
		"   Compiling sample v0.1.0 (/work/sample)",
		"error[E0425]: cannot find value `x` in this scope",
	)

	require.Len(t, events, 2)
	assert.Equal(t, testrun.Compiling("Compiling sample v0.1.0 (/work/sample)"), events[0])
	assert.Equal(t, testrun.BuildError("error[E0425]: cannot find value `x` in this scope"), events[1])
}

func TestGoTest_PassAndFailWithOutput(t *testing.T) {
	t.Parallel()
	events := feed(New(GoTest),
		`{"Action":"start","Package":"example.com/m/pkg"}`,
		`{"Action":"run","Package":"example.com/m/pkg","Test":"TestA"}`,
		`{"Action":"output","Package":"example.com/m/pkg","Test":"TestA","Output":"=== RUN   TestA\n"}`,
		`{"Action":"pass","Package":"example.com/m/pkg","Test":"TestA","Elapsed":0}`,
		`{"Action":"run","Package":"example.com/m/pkg","Test":"TestB"}`,
		`{"Action":"output","Package":"example.com/m/pkg","Test":"TestB","Output":"    b_test.go:9: want 1, got 2\n"}`,
		`{"Action":"output","Package":"example.com/m/pkg","Test":"TestB","Output":"--- FAIL: TestB (0.00s)\n"}`,
		`{"Action":"fail","Package":"example.com/m/pkg","Test":"TestB","Elapsed":0}`,
		`{"Action":"output","Package":"example.com/m/pkg","Output":"FAIL\n"}`,
		`{"Action":"fail","Package":"example.com/m/pkg","Elapsed":0.1}`,
	)

	require.Len(t, events, 2)
	assert.Equal(t, testrun.SingleTest{ID: "example.com/m/pkg.TestA", Name: "TestA", Status: testrun.StatusPassed}, events[0].Test)
	assert.Equal(t, testrun.SingleTest{
		ID:     "example.com/m/pkg.TestB",
		Name:   "TestB",
		Status: testrun.StatusFailed,
		Output: []string{"    b_test.go:9: want 1, got 2", "--- FAIL: TestB (0.00s)"},
	}, events[1].Test)
}

func TestGoTest_TrailingPanicGoesToFailingTest(t *testing.T) {
	t.Parallel()
	events := feed(New(GoTest),
		`{"Action":"fail","Package":"p","Test":"TestBoom","Elapsed":0}`,
		`{"Action":"output","Package":"p","Output":"panic: runtime error [recovered]\n"}`,
		`{"Action":"output","Package":"p","Output":"FAIL\tp\t0.01s\n"}`,
	)

	require.Len(t, events, 2)
	assert.Equal(t, testrun.ErrorOutput("p.TestBoom", "panic: runtime error [recovered]"), events[1])
}

func TestGoTest_BuildFailure(t *testing.T) {
	t.Parallel()
	events := feed(New(GoTest),
		`{"ImportPath":"p [p.test]","Action":"build-output","Output":"# p [p.test]\n"}`,
		`{"ImportPath":"p [p.test]","Action":"build-output","Output":"./p_test.go:5:2: undefined: x\n"}`,
		`{"ImportPath":"p [p.test]","Action":"build-fail"}`,
	)

	require.Len(t, events, 2)
	assert.Equal(t, testrun.EventCompiling, events[0].Kind)
	assert.Equal(t, testrun.BuildError("# p [p.test]\n./p_test.go:5:2: undefined: x"), events[1])
}

func TestGoTest_PlainTextCompilerError(t *testing.T) {
	t.Parallel()
	events := feed(New(GoTest),
		"# example.com/m/pkg",
		"pkg/a.go:3:1: syntax error: non-declaration statement outside function body",
	)

	require.Len(t, events, 2)
	assert.Equal(t, testrun.Compiling("# example.com/m/pkg"), events[0])
	assert.Equal(t, testrun.EventBuildError, events[1].Kind)
}

func TestGoTest_ModuleDownloadIsNotBuildError(t *testing.T) {
	t.Parallel()
	events := feed(New(GoTest),
		"go: downloading github.com/stretchr/testify v1.11.1",
		"go: finding module for package example.com/dep",
		`{"Action":"run","Package":"example.com/m/pkg","Test":"TestA"}`,
		`{"Action":"pass","Package":"example.com/m/pkg","Test":"TestA","Elapsed":0}`,
	)

	require.Len(t, events, 1)
	run := testrun.New()
	run.ApplyAll(append([]testrun.Event{testrun.Start()}, append(events, testrun.TestsCompleted())...))
	assert.Equal(t, testrun.StateIdle, run.State.Kind)
	passed, failed, _ := run.Tests.Counts()
	assert.Equal(t, 1, passed)
	assert.Zero(t, failed)
}

func TestGoTest_GoCommandFailureIsBuildError(t *testing.T) {
	t.Parallel()
	events := feed(New(GoTest), "go: updates to go.mod needed; to update it:")

	require.Len(t, events, 1)
	assert.Equal(t, testrun.BuildError("go: updates to go.mod needed; to update it:"), events[0])
}

func TestSplitGoTestID(t *testing.T) {
	t.Parallel()
	tests := []struct {
		id     testrun.TestID
		pkg    string
		test   string
		wantOK bool
	}{
		{id: "example.com/m/pkg.TestFoo", pkg: "example.com/m/pkg", test: "TestFoo", wantOK: true},
		{id: "gopkg.in/yaml.v3.TestDecode", pkg: "gopkg.in/yaml.v3", test: "TestDecode", wantOK: true},
		{id: "p.TestFoo/sub_case.1", pkg: "p", test: "TestFoo/sub_case.1", wantOK: true},
		{id: "p.ExampleThing", pkg: "p", test: "ExampleThing", wantOK: true},
		{id: "sample::case_a", wantOK: false},
	}
	for _, tt := range tests {
		pkg, test, ok := SplitGoTestID(tt.id)
		assert.Equal(t, tt.wantOK, ok, tt.id)
		assert.Equal(t, tt.pkg, pkg, tt.id)
		assert.Equal(t, tt.test, test, tt.id)
	}
}

func TestGoRunPattern(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "^TestFoo$", GoRunPattern("TestFoo"))
	assert.Equal(t, `^TestFoo$/^a\.b$`, GoRunPattern("TestFoo/a.b"))
}

func TestParseTool(t *testing.T) {
	t.Parallel()
	for in, want := range map[string]Tool{"": GoTest, "gotest": GoTest, "Cargo": Libtest, "libtest": Libtest} {
		got, err := ParseTool(in)
		require.NoError(t, err)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseTool("jest")
	assert.Error(t, err)
}
