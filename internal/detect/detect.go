// Package detect sniffs a workspace to determine its test tool.
package detect

import (
	"os"
	"path/filepath"

	"github.com/dkoosis/retest/pkg/parse"
)

// markers maps a root-level file to the tool whose workspaces carry it.
var markers = []struct {
	file string
	tool parse.Tool
}{
	{"go.mod", parse.GoTest},
	{"go.work", parse.GoTest},
	{"Cargo.toml", parse.Libtest},
}

// Tool returns the tool whose marker file sits in root. A workspace with
// markers for more than one tool, or none, is not detected.
func Tool(root string) (parse.Tool, bool) {
	var (
		found parse.Tool
		seen  bool
	)
	for _, m := range markers {
		if _, err := os.Stat(filepath.Join(root, m.file)); err != nil {
			continue
		}
		if seen && found != m.tool {
			return parse.GoTest, false
		}
		found, seen = m.tool, true
	}
	return found, seen
}
