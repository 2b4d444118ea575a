// Package watch reports source files whose content changed under a
// directory tree.
package watch

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// DefaultIgnore lists directory names never descended into.
var DefaultIgnore = []string{".git", ".retest", "node_modules", "vendor", "target", "dist", ".idea", ".vscode"}

// Options configures a Watcher.
type Options struct {
	Root string
	// Extensions restricts notifications to files with these suffixes,
	// such as ".go". Empty means every file.
	Extensions []string
	// Ignore lists directory base names to skip. Nil uses DefaultIgnore.
	Ignore []string
}

// Change is one file whose content differs from the last time it was seen.
type Change struct {
	Path    string
	Removed bool
}

// Watcher watches Root recursively, adding directories as they appear.
type Watcher struct {
	opts     Options
	fsw      *fsnotify.Watcher
	onChange func(Change)
	logger   *slog.Logger

	hashes map[string][sha256.Size]byte
	done   chan struct{}
	wg     sync.WaitGroup
	once   sync.Once
}

// New starts watching. onChange is called from the watcher's goroutine.
func New(opts Options, onChange func(Change), logger *slog.Logger) (*Watcher, error) {
	if opts.Ignore == nil {
		opts.Ignore = DefaultIgnore
	}
	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, fmt.Errorf("resolving watch root: %w", err)
	}
	opts.Root = root
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("watch root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("watch root %s is not a directory", root)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}
	w := &Watcher{
		opts:     opts,
		fsw:      fsw,
		onChange: onChange,
		logger:   logger,
		hashes:   make(map[string][sha256.Size]byte),
		done:     make(chan struct{}),
	}
	if err := w.addTree(root, false); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	w.wg.Add(1)
	go w.loop()
	return w, nil
}

// Stop releases the OS watches and waits for the event loop to exit.
func (w *Watcher) Stop() {
	w.once.Do(func() {
		close(w.done)
		_ = w.fsw.Close()
		w.wg.Wait()
	})
}

func (w *Watcher) loop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("file watcher error", "error", err)
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	path := ev.Name
	if ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
		if _, known := w.hashes[path]; known {
			delete(w.hashes, path)
			w.onChange(Change{Path: path, Removed: true})
		}
		return
	}
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
		return
	}

	info, err := os.Stat(path)
	if err != nil {
		return
	}
	if info.IsDir() {
		if ev.Has(fsnotify.Create) {
			if err := w.addTree(path, true); err != nil {
				w.logger.Warn("watching new directory", "path", path, "error", err)
			}
		}
		return
	}
	if !w.matches(path) {
		return
	}
	if w.refresh(path) {
		w.onChange(Change{Path: path})
	}
}

// refresh rehashes path and reports whether its content changed.
func (w *Watcher) refresh(path string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	sum := sha256.Sum256(data)
	if prev, ok := w.hashes[path]; ok && prev == sum {
		w.logger.Debug("content unchanged", "path", path)
		return false
	}
	w.hashes[path] = sum
	return true
}

// addTree registers dir and its subdirectories and records the content of
// matching files already present. With report set, those files are
// announced as changes; a new directory may fill before its watch exists.
func (w *Watcher) addTree(dir string, report bool) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			if path != w.opts.Root && w.ignored(d.Name()) {
				return filepath.SkipDir
			}
			if err := w.fsw.Add(path); err != nil {
				return fmt.Errorf("watching %s: %w", path, err)
			}
			return nil
		}
		if !w.matches(path) {
			return nil
		}
		if w.refresh(path) && report {
			w.onChange(Change{Path: path})
		}
		return nil
	})
}

func (w *Watcher) ignored(name string) bool {
	for _, ig := range w.opts.Ignore {
		if name == ig {
			return true
		}
	}
	return false
}

func (w *Watcher) matches(path string) bool {
	if len(w.opts.Extensions) == 0 {
		return true
	}
	for _, ext := range w.opts.Extensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}
