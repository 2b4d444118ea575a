package parse

import (
	"regexp"
	"strings"

	"github.com/dkoosis/retest/pkg/testjson"
	"github.com/dkoosis/retest/pkg/testrun"
)

type goTestParser struct {
	sawTest bool
	failing testrun.TestID
	output  map[testrun.TestID][]string
	build   []string
}

func newGoTestParser() *goTestParser {
	return &goTestParser{output: make(map[testrun.TestID][]string)}
}

func (p *goTestParser) Parse(line string) (testrun.Event, bool) {
	e, err := testjson.Decode([]byte(line))
	if err != nil {
		return p.parseText(strings.TrimRight(line, "\r\n"))
	}

	switch e.Action {
	case testjson.ActionBuildOutput:
		text := e.Text()
		p.build = append(p.build, text)
		if strings.HasPrefix(text, "# ") {
			return testrun.Compiling(text), true
		}

	case testjson.ActionBuildFail:
		msg := strings.Join(p.build, "\n")
		p.build = nil
		if msg == "" {
			msg = "build failed: " + e.ImportPath
		}
		return testrun.BuildError(msg), true

	case testjson.ActionOutput:
		return p.testOutput(e)

	case testjson.ActionPass, testjson.ActionFail, testjson.ActionSkip:
		if e.Test == "" {
			// Package finished; trailing output no longer belongs to its tests.
			p.failing = ""
			return testrun.Event{}, false
		}
		return p.finish(e), true
	}
	return testrun.Event{}, false
}

func (p *goTestParser) testOutput(e testjson.TestEvent) (testrun.Event, bool) {
	text := e.Text()
	if text == "" {
		return testrun.Event{}, false
	}
	if e.Test != "" {
		id := GoTestID(e.Package, e.Test)
		if id == p.failing {
			return testrun.ErrorOutput(id, text), true
		}
		if !testjson.IsBoilerplate(text) {
			p.output[id] = append(p.output[id], text)
		}
		return testrun.Event{}, false
	}
	if p.failing != "" && !isPackageSummary(text) {
		return testrun.ErrorOutput(p.failing, text), true
	}
	return testrun.Event{}, false
}

func (p *goTestParser) finish(e testjson.TestEvent) testrun.Event {
	p.sawTest = true
	id := GoTestID(e.Package, e.Test)
	t := testrun.SingleTest{ID: id, Name: e.Test}
	switch e.Action {
	case testjson.ActionPass:
		t.Status = testrun.StatusPassed
	case testjson.ActionFail:
		t.Status = testrun.StatusFailed
		t.Output = p.output[id]
		p.failing = id
	}
	delete(p.output, id)
	return testrun.TestFinished(t)
}

// parseText handles lines go test prints outside the JSON stream, such as
// compiler errors from older toolchains or go command failures.
func (p *goTestParser) parseText(line string) (testrun.Event, bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return testrun.Event{}, false
	}
	if strings.HasPrefix(trimmed, "# ") {
		return testrun.Compiling(trimmed), true
	}
	if p.sawTest {
		if p.failing != "" {
			return testrun.ErrorOutput(p.failing, line), true
		}
		return testrun.Event{}, false
	}
	if strings.Contains(line, "error") || goCommandFatal(trimmed) || compilerDiag.MatchString(trimmed) {
		return testrun.BuildError(line), true
	}
	return testrun.Event{}, false
}

var compilerDiag = regexp.MustCompile(`\.go:\d+:\d+: `)

// goProgress lists go command notices that are not failures.
var goProgress = []string{"go: downloading ", "go: finding ", "go: extracting ", "go: found ", "go: added ", "go: upgraded "}

// goCommandFatal reports whether a go command line aborts the build, such
// as "go: cannot find main module" or "go: updates to go.mod needed".
func goCommandFatal(trimmed string) bool {
	if !strings.HasPrefix(trimmed, "go: ") {
		return false
	}
	for _, prefix := range goProgress {
		if strings.HasPrefix(trimmed, prefix) {
			return false
		}
	}
	return true
}

func isPackageSummary(text string) bool {
	trimmed := strings.TrimSpace(text)
	return trimmed == "PASS" || trimmed == "FAIL" ||
		strings.HasPrefix(trimmed, "ok ") || strings.HasPrefix(trimmed, "FAIL\t") ||
		strings.HasPrefix(trimmed, "coverage:")
}
