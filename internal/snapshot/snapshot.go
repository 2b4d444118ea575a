// Package snapshot promotes candidate snapshot images to accepted baselines.
package snapshot

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dkoosis/retest/pkg/parse"
	"github.com/dkoosis/retest/pkg/testrun"
)

// CandidateSuffix marks an image written by a test whose output differed
// from the baseline.
const CandidateSuffix = ".new.png"

// Approver renames candidates over their baselines.
type Approver struct {
	Logger *slog.Logger
}

// Approve promotes every candidate in dirs whose name contains the short
// name of id. It returns how many files were promoted. Missing directories
// are skipped; rename failures are collected and returned together.
func (a *Approver) Approve(id testrun.TestID, dirs []string) (int, error) {
	needle := ShortName(id)
	approved := 0
	var errs []error
	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			errs = append(errs, err)
			continue
		}
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			if !e.IsDir() && strings.HasSuffix(e.Name(), CandidateSuffix) && strings.Contains(e.Name(), needle) {
				names = append(names, e.Name())
			}
		}
		sort.Strings(names)
		for _, name := range names {
			from := filepath.Join(dir, name)
			to := filepath.Join(dir, strings.TrimSuffix(name, CandidateSuffix)+".png")
			if err := os.Rename(from, to); err != nil {
				errs = append(errs, fmt.Errorf("approving %s: %w", from, err))
				continue
			}
			approved++
			if a.Logger != nil {
				a.Logger.Debug("snapshot approved", "file", to)
			}
		}
	}
	return approved, errors.Join(errs...)
}

// ShortName is the last component of a test id: the part after the final
// "::" for libtest ids, or the test function name (without subtests) for go
// test ids.
func ShortName(id testrun.TestID) string {
	s := string(id)
	if i := strings.LastIndex(s, "::"); i >= 0 {
		return s[i+2:]
	}
	if _, name, ok := parse.SplitGoTestID(id); ok {
		if top, _, found := strings.Cut(name, "/"); found {
			return top
		}
		return name
	}
	return s
}
