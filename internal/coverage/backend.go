package coverage

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
)

// Backend selects how instrumentation artifacts become a report.
type Backend int

const (
	// BackendGo reads GOCOVERDIR artifacts with go tool covdata.
	BackendGo Backend = iota
	// BackendGrcov reads LLVM .profraw files with grcov.
	BackendGrcov
)

func (b Backend) String() string {
	if b == BackendGrcov {
		return "grcov"
	}
	return "go"
}

// defaultTool is the executable looked up when Engine.Tool is empty.
func (b Backend) defaultTool() string {
	if b == BackendGrcov {
		return "grcov"
	}
	return "go"
}

// isArtifact reports whether a file name in the artifacts directory was
// written by instrumented test binaries.
func (b Backend) isArtifact(name string) bool {
	if b == BackendGrcov {
		return strings.HasSuffix(name, ".profraw")
	}
	return strings.HasPrefix(name, "covmeta.") || strings.HasPrefix(name, "covcounters.")
}

// args builds the report command line writing to out.
func (b Backend) args(root, artifacts, out string) []string {
	if b == BackendGrcov {
		return []string{
			artifacts,
			"-s", root,
			"--binary-path", filepath.Join(root, "target", "debug"),
			"-t", "covdir",
			"--ignore-not-existing",
			"-o", out,
		}
	}
	return []string{"tool", "covdata", "textfmt", "-i=" + artifacts, "-o=" + out}
}

func (b Backend) parse(data []byte) (*Report, error) {
	if b == BackendGrcov {
		return ParseCovdir(data)
	}
	return ParseProfile(bytes.NewReader(data))
}

// ParseBackend maps a configuration value to a Backend.
func ParseBackend(s string) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "go", "gotest", "covdata":
		return BackendGo, nil
	case "grcov", "libtest", "cargo":
		return BackendGrcov, nil
	}
	return BackendGo, fmt.Errorf("unknown coverage backend %q", s)
}
