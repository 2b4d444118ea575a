package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileName is the configuration file looked up in the workspace root.
const FileName = ".retest.yaml"

// CliFlags holds the values of command-line flags.
type CliFlags struct {
	Tool     string
	Coverage bool
	Debug    bool

	// Flags to track if they were explicitly set by the user
	ToolSet     bool
	CoverageSet bool
	DebugSet    bool
}

// AppConfig represents the contents of .retest.yaml.
type AppConfig struct {
	Tool                 string            `yaml:"tool"`
	TestCommand          string            `yaml:"test_command,omitempty"`
	Coverage             bool              `yaml:"coverage"`
	CoverageArtifactsDir string            `yaml:"coverage_artifacts_dir,omitempty"`
	CoverageReport       string            `yaml:"coverage_report,omitempty"`
	CoverageTool         string            `yaml:"coverage_tool,omitempty"`
	SnapshotDirs         []string          `yaml:"snapshot_dirs,omitempty"`
	WatchExtension       string            `yaml:"watch_extension,omitempty"`
	Ignore               []string          `yaml:"ignore,omitempty"`
	Env                  map[string]string `yaml:"env,omitempty"`
	KillOnCancel         bool              `yaml:"kill_on_cancel"`
	Debug                bool              `yaml:"debug"`
}

// DefaultCoverageArtifactsDir is relative to the workspace root.
const DefaultCoverageArtifactsDir = ".retest/artifacts"

// Defaults returns the configuration used when no file exists. An empty
// Tool selects go test.
func Defaults() *AppConfig {
	return &AppConfig{}
}

// Load reads the configuration file at path over the defaults. A missing
// file is not an error.
func Load(path string) (*AppConfig, error) {
	cfg := Defaults()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("reading %s: %w", path, err)
	}

	var file AppConfig
	if err := yaml.Unmarshal(data, &file); err != nil {
		return cfg, fmt.Errorf("parsing %s: %w", path, err)
	}
	merge(cfg, &file)
	return cfg, nil
}

// merge copies every value set in file onto cfg.
func merge(cfg, file *AppConfig) {
	if file.Tool != "" {
		cfg.Tool = file.Tool
	}
	if file.TestCommand != "" {
		cfg.TestCommand = file.TestCommand
	}
	cfg.Coverage = file.Coverage
	if file.CoverageArtifactsDir != "" {
		cfg.CoverageArtifactsDir = file.CoverageArtifactsDir
	}
	if file.CoverageReport != "" {
		cfg.CoverageReport = file.CoverageReport
	}
	if file.CoverageTool != "" {
		cfg.CoverageTool = file.CoverageTool
	}
	if file.SnapshotDirs != nil {
		cfg.SnapshotDirs = file.SnapshotDirs
	}
	if file.WatchExtension != "" {
		cfg.WatchExtension = file.WatchExtension
	}
	if file.Ignore != nil {
		cfg.Ignore = file.Ignore
	}
	if file.Env != nil {
		cfg.Env = file.Env
	}
	cfg.KillOnCancel = file.KillOnCancel
	cfg.Debug = file.Debug
}

// Path returns the configuration file to read. An explicit path wins; then
// the workspace root; then the user config directory. Empty means none.
func Path(explicit, root string) string {
	if explicit != "" {
		return explicit
	}
	local := filepath.Join(root, FileName)
	if _, err := os.Stat(local); err == nil {
		return local
	}
	configHome, err := os.UserConfigDir()
	// UserConfigDir may succeed with an unusable value in minimal environments.
	if err == nil && configHome != "" && configHome != "/" {
		xdgPath := filepath.Join(configHome, "retest", FileName)
		if _, err := os.Stat(xdgPath); err == nil {
			return xdgPath
		}
	}
	return ""
}
