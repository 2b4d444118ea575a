package coverage

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// maxBlockLines bounds one block's line span in a profile.
const maxBlockLines = 100_000

// ParseProfile reads a Go text coverage profile (the format written by
// go test -coverprofile and go tool covdata textfmt) and folds its blocks
// into a per-line tree keyed by import path segments.
//
// A line counts as covered when any block spanning it executed.
func ParseProfile(r io.Reader) (*Report, error) {
	files := make(map[string]map[int]bool)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	sawMode := false
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "mode:") {
			sawMode = true
			continue
		}
		if !sawMode {
			return nil, fmt.Errorf("%w: line %d: missing mode header", ErrMalformedReport, lineNo)
		}
		b, err := parseBlock(line)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedReport, lineNo, err)
		}
		lines, ok := files[b.file]
		if !ok {
			lines = make(map[int]bool)
			files[b.file] = lines
		}
		for l := b.startLine; l <= b.endLine; l++ {
			lines[l] = lines[l] || b.count > 0
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading profile: %w", err)
	}
	if !sawMode {
		return nil, fmt.Errorf("%w: empty profile", ErrMalformedReport)
	}

	root := &Report{Name: "", Children: make(map[string]*Report)}
	for file, lines := range files {
		leaf := root
		parts := strings.Split(file, "/")
		for i, part := range parts {
			next, ok := leaf.Children[part]
			if !ok {
				next = &Report{Name: part}
				if i < len(parts)-1 {
					next.Children = make(map[string]*Report)
				}
				leaf.Children[part] = next
			}
			leaf = next
		}
		for _, covered := range lines {
			leaf.LinesTotal++
			if covered {
				leaf.LinesCovered++
			} else {
				leaf.LinesMissed++
			}
		}
	}
	root.summarize()
	return root, nil
}

type block struct {
	file      string
	startLine int
	endLine   int
	count     int
}

// parseBlock parses "file.go:12.2,14.16 2 1".
func parseBlock(line string) (block, error) {
	var b block
	colon := strings.LastIndex(line, ":")
	if colon <= 0 {
		return b, fmt.Errorf("no file separator in %q", line)
	}
	b.file = line[:colon]
	fields := strings.Fields(line[colon+1:])
	if len(fields) != 3 {
		return b, fmt.Errorf("want 3 fields after file, got %d", len(fields))
	}
	start, end, ok := strings.Cut(fields[0], ",")
	if !ok {
		return b, fmt.Errorf("bad range %q", fields[0])
	}
	var err error
	if b.startLine, err = positionLine(start); err != nil {
		return b, err
	}
	if b.endLine, err = positionLine(end); err != nil {
		return b, err
	}
	if b.endLine < b.startLine {
		return b, fmt.Errorf("range %q ends before it starts", fields[0])
	}
	if b.endLine-b.startLine >= maxBlockLines {
		return b, fmt.Errorf("range %q spans more than %d lines", fields[0], maxBlockLines)
	}
	if _, err = strconv.Atoi(fields[1]); err != nil {
		return b, fmt.Errorf("bad statement count %q", fields[1])
	}
	if b.count, err = strconv.Atoi(fields[2]); err != nil {
		return b, fmt.Errorf("bad hit count %q", fields[2])
	}
	return b, nil
}

func positionLine(pos string) (int, error) {
	line, _, ok := strings.Cut(pos, ".")
	if !ok {
		return 0, fmt.Errorf("bad position %q", pos)
	}
	n, err := strconv.Atoi(line)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("bad line in position %q", pos)
	}
	return n, nil
}
