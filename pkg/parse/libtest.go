package parse

import (
	"regexp"
	"strings"

	"github.com/dkoosis/retest/pkg/testrun"
)

var (
	libtestResult  = regexp.MustCompile(`^test (\S+) \.\.\. (ok|FAILED|ignored)`)
	libtestFailure = regexp.MustCompile(`^---- (\S+) stdout ----$`)
)

type libtestParser struct {
	sawTest bool
	failing testrun.TestID
}

func (p *libtestParser) Parse(line string) (testrun.Event, bool) {
	line = strings.TrimRight(line, "\r\n")

	if m := libtestResult.FindStringSubmatch(line); m != nil {
		p.sawTest = true
		return testrun.TestFinished(testrun.SingleTest{
			ID:     testrun.TestID(m[1]),
			Name:   shortName(m[1]),
			Status: libtestStatus(m[2]),
		}), true
	}

	if m := libtestFailure.FindStringSubmatch(line); m != nil {
		p.failing = testrun.TestID(m[1])
		return testrun.Event{}, false
	}

	if p.failing != "" {
		if line == "failures:" || strings.HasPrefix(line, "test result:") {
			p.failing = ""
			return testrun.Event{}, false
		}
		if strings.TrimSpace(line) == "" {
			return testrun.Event{}, false
		}
		return testrun.ErrorOutput(p.failing, line), true
	}

	trimmed := strings.TrimSpace(line)
	if strings.HasPrefix(trimmed, "Compiling ") {
		return testrun.Compiling(trimmed), true
	}
	if !p.sawTest && strings.Contains(line, "error") {
		return testrun.BuildError(line), true
	}
	return testrun.Event{}, false
}

func libtestStatus(word string) testrun.Status {
	switch word {
	case "ok":
		return testrun.StatusPassed
	case "FAILED":
		return testrun.StatusFailed
	default:
		return testrun.StatusUnknown
	}
}

// shortName returns the last path segment of a libtest name.
func shortName(id string) string {
	if i := strings.LastIndex(id, "::"); i >= 0 {
		return id[i+2:]
	}
	return id
}
