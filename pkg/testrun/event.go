package testrun

import "fmt"

// EventKind identifies a run event.
type EventKind int

const (
	EventStart EventKind = iota
	EventStartSingle
	EventCompiling
	EventBuildError
	EventTestFinished
	EventNoTests
	EventErrorOutput
	EventTestsCompleted
	EventRunFailed
)

var eventNames = [...]string{
	EventStart:          "start",
	EventStartSingle:    "start-single",
	EventCompiling:      "compiling",
	EventBuildError:     "build-error",
	EventTestFinished:   "test-finished",
	EventNoTests:        "no-tests",
	EventErrorOutput:    "error-output",
	EventTestsCompleted: "tests-completed",
	EventRunFailed:      "run-failed",
}

func (k EventKind) String() string {
	if int(k) < len(eventNames) {
		return eventNames[k]
	}
	return fmt.Sprintf("event(%d)", int(k))
}

// Event is one step of a run, in the order the runner produced it.
type Event struct {
	Kind EventKind
	// ID is set for StartSingle and ErrorOutput.
	ID TestID
	// ClearOthers is set for StartSingle when only ID should remain.
	ClearOthers bool
	// Message carries Compiling, BuildError, ErrorOutput and RunFailed text.
	Message string
	// Test is set for TestFinished.
	Test SingleTest
}

func Start() Event { return Event{Kind: EventStart} }

func StartSingle(id TestID, clearOthers bool) Event {
	return Event{Kind: EventStartSingle, ID: id, ClearOthers: clearOthers}
}

func Compiling(msg string) Event { return Event{Kind: EventCompiling, Message: msg} }

func BuildError(msg string) Event { return Event{Kind: EventBuildError, Message: msg} }

func TestFinished(t SingleTest) Event { return Event{Kind: EventTestFinished, Test: t} }

func NoTests() Event { return Event{Kind: EventNoTests} }

func ErrorOutput(id TestID, msg string) Event {
	return Event{Kind: EventErrorOutput, ID: id, Message: msg}
}

func TestsCompleted() Event { return Event{Kind: EventTestsCompleted} }

// RunFailed reports a tool or environment failure that ended the run.
func RunFailed(text string) Event { return Event{Kind: EventRunFailed, Message: text} }
