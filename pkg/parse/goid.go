package parse

import (
	"regexp"
	"strings"

	"github.com/dkoosis/retest/pkg/testrun"
)

// GoTestID joins a package import path and a test name into a TestID.
func GoTestID(pkg, test string) testrun.TestID {
	if pkg == "" {
		return testrun.TestID(test)
	}
	return testrun.TestID(pkg + "." + test)
}

var goIDPattern = regexp.MustCompile(`^(.+?)\.((?:Test|Example|Fuzz|Benchmark)\w*(?:/.*)?)$`)

// SplitGoTestID is the inverse of GoTestID. Package paths may contain dots,
// so the split happens at the first dot that is followed by a test function name.
func SplitGoTestID(id testrun.TestID) (pkg, test string, ok bool) {
	m := goIDPattern.FindStringSubmatch(string(id))
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}

// GoRunPattern returns a -run expression matching exactly test and, for
// subtests, exactly each level of its name.
func GoRunPattern(test string) string {
	parts := strings.Split(test, "/")
	for i, p := range parts {
		parts[i] = "^" + regexp.QuoteMeta(p) + "$"
	}
	return strings.Join(parts, "/")
}
