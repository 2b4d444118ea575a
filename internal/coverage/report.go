package coverage

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
)

// Report is one node of a coverage tree: the whole workspace, a directory or a file.
// It marshals to grcov's covdir JSON layout.
type Report struct {
	Name         string             `json:"name"`
	Percent      float64            `json:"coveragePercent"`
	LinesCovered int                `json:"linesCovered"`
	LinesMissed  int                `json:"linesMissed"`
	LinesTotal   int                `json:"linesTotal"`
	Children     map[string]*Report `json:"children,omitempty"`
}

// Names returns child names in sorted order.
func (r *Report) Names() []string {
	names := make([]string, 0, len(r.Children))
	for n := range r.Children {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Child returns the child named name.
func (r *Report) Child(name string) (*Report, bool) {
	c, ok := r.Children[name]
	return c, ok
}

// Find walks a slash-separated path from r.
func (r *Report) Find(path string) (*Report, bool) {
	node := r
	for _, part := range strings.Split(strings.Trim(path, "/"), "/") {
		if part == "" {
			continue
		}
		next, ok := node.Children[part]
		if !ok {
			return nil, false
		}
		node = next
	}
	return node, true
}

func (r *Report) validate(path string) error {
	if r.LinesTotal < 0 || r.LinesCovered < 0 || r.LinesMissed < 0 {
		return fmt.Errorf("%s: negative line counts", path)
	}
	if r.LinesCovered+r.LinesMissed != r.LinesTotal {
		return fmt.Errorf("%s: covered %d + missed %d != total %d", path, r.LinesCovered, r.LinesMissed, r.LinesTotal)
	}
	if math.IsNaN(r.Percent) || r.Percent < 0 || r.Percent > 100 {
		return fmt.Errorf("%s: percent %v out of range", path, r.Percent)
	}
	for name, c := range r.Children {
		if c == nil {
			return fmt.Errorf("%s/%s: null node", path, name)
		}
		if err := c.validate(path + "/" + name); err != nil {
			return err
		}
	}
	return nil
}

// ParseCovdir decodes a grcov covdir document.
func ParseCovdir(data []byte) (*Report, error) {
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedReport, err)
	}
	if err := r.validate(r.Name); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedReport, err)
	}
	return &r, nil
}

// summarize recomputes directory totals bottom-up from file leaves.
func (r *Report) summarize() {
	if len(r.Children) > 0 {
		r.LinesCovered, r.LinesMissed, r.LinesTotal = 0, 0, 0
		for _, c := range r.Children {
			c.summarize()
			r.LinesCovered += c.LinesCovered
			r.LinesMissed += c.LinesMissed
			r.LinesTotal += c.LinesTotal
		}
	}
	r.Percent = percent(r.LinesCovered, r.LinesTotal)
}

func percent(covered, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(covered)/float64(total)*10000) / 100
}
