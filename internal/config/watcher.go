package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// DefaultDebounce is how long a Watcher waits after the last write before
// reloading.
const DefaultDebounce = 100 * time.Millisecond

// Watcher reloads a parameter file into a registry whenever it changes.
type Watcher struct {
	path     string
	registry *Registry
	logger   *logrus.Logger
	debounce time.Duration

	// onReload, if set, is called after every reload attempt with its result.
	onReload func(error)
}

// NewWatcher returns a watcher for path. Call Run to start watching.
func NewWatcher(path string, registry *Registry, logger *logrus.Logger) *Watcher {
	return &Watcher{
		path:     filepath.Clean(path),
		registry: registry,
		logger:   logger,
		debounce: DefaultDebounce,
	}
}

// Run watches until ctx is done. The directory is watched rather than the
// file so editors that save by rename are still seen.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.path, err)
	}
	w.logger.WithField("path", w.path).Info("watching parameter file")

	// pending fires once the file has been quiet for the debounce interval
	var pending <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != w.path || !ev.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			pending = time.After(w.debounce)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.WithError(err).Warn("file watcher error")

		case <-pending:
			pending = nil
			err := w.registry.LoadFile(w.path)
			if err != nil {
				w.logger.WithError(err).Error("failed to reload parameter file")
			} else {
				w.logger.WithField("path", w.path).Info("parameter file reloaded")
			}
			if w.onReload != nil {
				w.onReload(err)
			}
		}
	}
}
