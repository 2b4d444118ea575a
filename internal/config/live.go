package config

import (
	"log/slog"
	"sync"
)

// Live re-reads the configuration file on every call so edits take effect
// on the next run without a restart. The coverage override set at runtime
// outranks every other source and is never written back.
type Live struct {
	root   string
	path   string
	flags  CliFlags
	logger *slog.Logger

	mu       sync.Mutex
	override *bool
	last     *Resolved
}

func NewLive(root, path string, flags CliFlags, logger *slog.Logger) *Live {
	return &Live{root: root, path: path, flags: flags, logger: logger}
}

// Settings resolves the current configuration. When the file cannot be
// read or is invalid the last good settings are kept.
func (l *Live) Settings() *Resolved {
	l.mu.Lock()
	defer l.mu.Unlock()

	r, err := l.resolve()
	if err != nil {
		l.logger.Warn("configuration not reloaded", "path", l.path, "error", err)
		if l.last != nil {
			r = l.last
		} else if r, err = Resolve(l.root, Defaults(), l.flags); err != nil {
			r = &Resolved{}
		}
	}
	l.last = r
	if l.override != nil {
		out := *r
		out.Coverage = *l.override
		out.CoverageSource = "runtime"
		return &out
	}
	return r
}

func (l *Live) resolve() (*Resolved, error) {
	file, err := Load(l.path)
	if err != nil {
		return nil, err
	}
	return Resolve(l.root, file, l.flags)
}

// CoverageEnabled reports the live coverage setting.
func (l *Live) CoverageEnabled() bool {
	return l.Settings().Coverage
}

// SnapshotDirs returns the live snapshot directories.
func (l *Live) SnapshotDirs() []string {
	return l.Settings().SnapshotDirs
}

// ToggleCoverage flips coverage for the rest of the process and returns the
// new value.
func (l *Live) ToggleCoverage() bool {
	on := !l.CoverageEnabled()
	l.mu.Lock()
	l.override = &on
	l.mu.Unlock()
	return on
}
