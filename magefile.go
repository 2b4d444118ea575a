//go:build mage

package main

import (
	"fmt"
	"os"

	"github.com/magefile/mage/mg"

	"github.com/dkoosis/retest/internal/magetasks"
)

// Default target - build the binary
var Default = Build

func init() {
	if err := magetasks.Initialize(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal: %v\n", err)
		os.Exit(1)
	}
}

// Build builds the retest binary
func Build() error {
	return magetasks.BuildAll()
}

// Clean removes build and coverage output
func Clean() error {
	return magetasks.Clean()
}

// Test runs the suite through retest's own runner
func Test() error {
	return magetasks.TestAll()
}

// Cover runs the suite instrumented and reports coverage
func Cover() error {
	return magetasks.TestCoverage()
}

// Lint namespace for linting commands
type Lint mg.Namespace

// All runs all linters
func (Lint) All() error {
	return magetasks.LintAll()
}

// Format checks code formatting
func (Lint) Format() error {
	return magetasks.LintFormat()
}

// Golangci runs golangci-lint
func (Lint) Golangci() error {
	return magetasks.LintGolangci()
}

// CI runs lint, tests and coverage in order
func CI() {
	mg.SerialDeps(Lint.All, Test, Cover)
}
