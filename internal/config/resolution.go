package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dkoosis/retest/internal/coverage"
	"github.com/dkoosis/retest/internal/detect"
	"github.com/dkoosis/retest/pkg/parse"
)

// Environment variables recognized by Resolve.
const (
	EnvCoverage = "RETEST_COVERAGE"
	EnvTool     = "RETEST_TOOL"
	EnvDebug    = "RETEST_DEBUG"
)

// Resolved holds the effective settings after applying all priority rules.
// Paths are absolute.
type Resolved struct {
	Tool         parse.Tool
	TestCommand  []string
	Coverage     bool
	Backend      coverage.Backend
	ArtifactsDir string
	ReportPath   string
	CoverageTool string
	SnapshotDirs []string
	Extensions   []string
	Ignore       []string
	Env          map[string]string
	KillOnCancel bool
	Debug        bool

	// Resolution metadata (for debugging)
	ToolSource     string // "cli", "env", "file", "detected", "default"
	CoverageSource string // "cli", "env", "file", "default"
	DebugSource    string // "cli", "env", "file", "default"
}

// Resolve applies, highest first: CLI flags, environment, file, defaults.
func Resolve(root string, file *AppConfig, flags CliFlags) (*Resolved, error) {
	r := &Resolved{
		Coverage:       file.Coverage,
		CoverageTool:   file.CoverageTool,
		Ignore:         file.Ignore,
		Env:            file.Env,
		KillOnCancel:   file.KillOnCancel,
		Debug:          file.Debug,
		ToolSource:     "file",
		CoverageSource: "file",
		DebugSource:    "file",
	}

	toolName := file.Tool
	if toolName == "" {
		r.ToolSource = "default"
	}
	if flags.ToolSet {
		toolName, r.ToolSource = flags.Tool, "cli"
	} else if env := os.Getenv(EnvTool); env != "" {
		toolName, r.ToolSource = env, "env"
	}
	tool, err := parse.ParseTool(toolName)
	if err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	if r.ToolSource == "default" {
		if detected, ok := detect.Tool(root); ok {
			tool, r.ToolSource = detected, "detected"
		}
	}
	r.Tool = tool

	if flags.CoverageSet {
		r.Coverage, r.CoverageSource = flags.Coverage, "cli"
	} else if b := getEnvBool(EnvCoverage); b != nil {
		r.Coverage, r.CoverageSource = *b, "env"
	}

	if flags.DebugSet {
		r.Debug, r.DebugSource = flags.Debug, "cli"
	} else if b := getEnvBool(EnvDebug); b != nil {
		r.Debug, r.DebugSource = *b, "env"
	}

	if tool == parse.Libtest {
		r.Backend = coverage.BackendGrcov
	}
	r.TestCommand = strings.Fields(file.TestCommand)
	r.ArtifactsDir = abs(root, orDefault(file.CoverageArtifactsDir, DefaultCoverageArtifactsDir))
	r.ReportPath = abs(root, orDefault(file.CoverageReport, defaultReport(tool)))
	for _, d := range file.SnapshotDirs {
		r.SnapshotDirs = append(r.SnapshotDirs, abs(root, d))
	}
	r.Extensions = []string{orDefault(file.WatchExtension, defaultExtension(tool))}
	return r, nil
}

func defaultReport(tool parse.Tool) string {
	if tool == parse.Libtest {
		return ".retest/coverage.json"
	}
	return ".retest/coverage.out"
}

func defaultExtension(tool parse.Tool) string {
	if tool == parse.Libtest {
		return ".rs"
	}
	return ".go"
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func abs(root, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}

// getEnvBool reads a boolean from environment variables, trying multiple keys.
// Returns nil if none are set, or a pointer to the boolean value.
func getEnvBool(keys ...string) *bool {
	for _, key := range keys {
		if val := os.Getenv(key); val != "" {
			if b, err := strconv.ParseBool(val); err == nil {
				return &b
			}
		}
	}
	return nil
}
