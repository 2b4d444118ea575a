package magetasks

import (
	"errors"
	"fmt"
	"strings"

	"github.com/magefile/mage/sh"
)

const golangciDisabled = "--disable=exhaustruct,varnamelen,ireturn,wrapcheck,nlreturn,gochecknoglobals,mnd,depguard,tagalign"

// LintAll runs every linter. Missing optional linters are skipped.
func LintAll() error {
	PrintHeader("Lint")
	var errs []error
	if err := LintFormat(); err != nil {
		errs = append(errs, err)
	}
	if err := sh.RunV("go", "vet", "./..."); err != nil {
		errs = append(errs, fmt.Errorf("go vet: %w", err))
	}
	if err := LintGolangci(); err != nil && !IsCommandNotFound(err) {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		PrintError("Lint failed")
		return errors.Join(errs...)
	}
	PrintSuccess("All linters passed")
	return nil
}

// LintFormat fails when any file is not gofmt-clean.
func LintFormat() error {
	out, err := sh.Output("gofmt", "-l", ".")
	if err != nil {
		return fmt.Errorf("gofmt: %w", err)
	}
	var dirty []string
	for _, f := range strings.Split(out, "\n") {
		if f != "" && !strings.HasPrefix(f, "_") {
			dirty = append(dirty, f)
		}
	}
	if len(dirty) > 0 {
		return fmt.Errorf("files need gofmt: %s", strings.Join(dirty, ", "))
	}
	return nil
}

// LintGolangci runs golangci-lint.
func LintGolangci() error {
	if err := sh.RunV("golangci-lint", "run", golangciDisabled, "--timeout=5m", "./..."); err != nil {
		if IsCommandNotFound(err) {
			PrintWarning("golangci-lint not found (install: go install github.com/golangci/golangci-lint/cmd/golangci-lint@latest)")
			return err
		}
		return fmt.Errorf("golangci-lint failed: %w", err)
	}
	return nil
}
