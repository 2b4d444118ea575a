// Package parse turns test-runner output lines into run events.
//
// Parsers are stateful only to the extent line-oriented output requires:
// they remember whether any test has reported yet and which failing test
// trailing output belongs to.
package parse

import (
	"fmt"
	"strings"

	"github.com/dkoosis/retest/pkg/testrun"
)

// Tool identifies the test runner whose output is being parsed.
type Tool int

const (
	// GoTest is go test -json.
	GoTest Tool = iota
	// Libtest is the plain "test name ... ok" format of cargo test.
	Libtest
)

func (t Tool) String() string {
	switch t {
	case Libtest:
		return "libtest"
	default:
		return "gotest"
	}
}

// ParseTool maps a configuration value to a Tool.
func ParseTool(s string) (Tool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "gotest", "go":
		return GoTest, nil
	case "libtest", "cargo":
		return Libtest, nil
	default:
		return GoTest, fmt.Errorf("unknown test tool %q (want gotest or libtest)", s)
	}
}

// Parser maps one output line to at most one event.
type Parser interface {
	Parse(line string) (testrun.Event, bool)
}

// New returns a fresh parser for tool. Use one parser per run.
func New(tool Tool) Parser {
	if tool == Libtest {
		return &libtestParser{}
	}
	return newGoTestParser()
}
