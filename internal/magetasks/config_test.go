package magetasks

import (
	"os"
	"path/filepath"
	"testing"
)

func TestInitialize(t *testing.T) {
	originalDir, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	defer func() { _ = os.Chdir(originalDir) }()

	tmpDir := t.TempDir()
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("Failed to change to temp directory: %v", err)
	}

	if err := Initialize(); err != nil {
		t.Errorf("Initialize() returned error: %v", err)
	}

	if _, err := os.Stat(filepath.Join(tmpDir, "bin")); os.IsNotExist(err) {
		t.Errorf("Initialize() should create bin directory, but it doesn't exist")
	}

	// EvalSymlinks handles temp dirs behind symlinks.
	expectedRoot, _ := filepath.EvalSymlinks(tmpDir)
	actualRoot, _ := filepath.EvalSymlinks(ProjectRoot)
	if actualRoot != expectedRoot {
		t.Errorf("ProjectRoot = %s, want %s", actualRoot, expectedRoot)
	}
}

func TestModulePath(t *testing.T) {
	if ModulePath != "github.com/dkoosis/retest" {
		t.Errorf("ModulePath = %s, want github.com/dkoosis/retest", ModulePath)
	}
}

func TestBinPath(t *testing.T) {
	if BinPath != "./bin/retest" {
		t.Errorf("BinPath = %s, want ./bin/retest", BinPath)
	}
}
