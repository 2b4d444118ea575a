// Package testrun models the live state of a watched test suite.
//
// The TestRun aggregate is only ever changed by folding Events into it, so
// any consumer that sees the same event stream can rebuild an identical copy.
package testrun

import "slices"

// TestID is the qualified name of a single test.
type TestID string

// Status is the outcome of a test's most recent run.
type Status int

const (
	StatusUnknown Status = iota
	StatusPassed
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusPassed:
		return "passed"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// SingleTest is one test and everything it has printed since its last start.
type SingleTest struct {
	ID     TestID
	Name   string
	Status Status
	Output []string
}

// Collection holds at most one SingleTest per TestID, in first-seen order.
type Collection struct {
	tests []SingleTest
	index map[TestID]int
}

// Add inserts t unless a test with the same id exists. It reports whether t was added.
func (c *Collection) Add(t SingleTest) bool {
	if _, ok := c.index[t.ID]; ok {
		return false
	}
	if c.index == nil {
		c.index = make(map[TestID]int)
	}
	c.index[t.ID] = len(c.tests)
	c.tests = append(c.tests, t)
	return true
}

// Upsert replaces the test with t's id, or adds t.
func (c *Collection) Upsert(t SingleTest) {
	if i, ok := c.index[t.ID]; ok {
		c.tests[i] = t
		return
	}
	c.Add(t)
}

// Find returns a pointer to the stored test so callers can update it in place.
func (c *Collection) Find(id TestID) (*SingleTest, bool) {
	i, ok := c.index[id]
	if !ok {
		return nil, false
	}
	return &c.tests[i], true
}

// RetainOnly drops every test except id.
func (c *Collection) RetainOnly(id TestID) {
	i, ok := c.index[id]
	if !ok {
		c.tests = nil
		c.index = nil
		return
	}
	kept := c.tests[i]
	c.tests = []SingleTest{kept}
	c.index = map[TestID]int{id: 0}
}

// Len returns the number of tests.
func (c *Collection) Len() int {
	return len(c.tests)
}

// All returns copies of the tests in insertion order.
func (c *Collection) All() []SingleTest {
	out := make([]SingleTest, len(c.tests))
	for i, t := range c.tests {
		t.Output = slices.Clone(t.Output)
		out[i] = t
	}
	return out
}

// Each calls fn for every test until fn returns false.
func (c *Collection) Each(fn func(*SingleTest) bool) {
	for i := range c.tests {
		if !fn(&c.tests[i]) {
			return
		}
	}
}

// Counts returns how many tests are passed, failed and unknown.
func (c *Collection) Counts() (passed, failed, unknown int) {
	for _, t := range c.tests {
		switch t.Status {
		case StatusPassed:
			passed++
		case StatusFailed:
			failed++
		default:
			unknown++
		}
	}
	return passed, failed, unknown
}
