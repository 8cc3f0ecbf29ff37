// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package watch re-runs a callback when a single file changes on disk.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce collapses the burst of events an editor save produces.
const DefaultDebounce = 300 * time.Millisecond

// Watcher calls OnChange after the watched file is written, created or
// renamed into place, once per burst of events.
type Watcher struct {
	path     string
	debounce time.Duration
	onChange func()
	logger   *slog.Logger
}

// New creates a Watcher for path. A non-positive debounce uses DefaultDebounce.
func New(path string, debounce time.Duration, onChange func(), logger *slog.Logger) (*Watcher, error) {
	if onChange == nil {
		return nil, fmt.Errorf("watch: onChange callback is required")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("watch: resolve %s: %w", path, err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		path:     filepath.Clean(abs),
		debounce: debounce,
		onChange: onChange,
		logger:   logger,
	}, nil
}

// Path returns the absolute path being watched.
func (w *Watcher) Path() string {
	return w.path
}

// Run blocks until ctx is cancelled or the underlying watcher fails.
//
// The parent directory is watched rather than the file itself: most editors
// save by writing a temp file and renaming it over the original, which drops
// a watch placed on the old inode.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: create watcher: %w", err)
	}
	defer func() { _ = fw.Close() }()

	dir := filepath.Dir(w.path)
	if err := fw.Add(dir); err != nil {
		return fmt.Errorf("watch: add %s: %w", dir, err)
	}
	w.logger.Info("watch.start", "path", w.path, "debounce", w.debounce)

	var timer *time.Timer
	var timerCh <-chan time.Time // nil until an event arrives
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	pending := 0
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("watch.stop", "path", w.path)
			return nil
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			pending++
			w.logger.Debug("watch.event", "path", event.Name, "op", event.Op.String())
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(w.debounce)
			timerCh = timer.C
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch.error", "err", err)
		case <-timerCh:
			timerCh = nil
			w.logger.Debug("watch.rescan", "path", w.path, "events", pending)
			pending = 0
			w.onChange()
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != w.path {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename)
}
