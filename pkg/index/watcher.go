package index

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const defaultDebounce = 500 * time.Millisecond

// Watcher watches the corpus file and refreshes the index when it changes.
// Events are debounced because editors and scrapers typically emit several
// writes per save.
type Watcher struct {
	manager  *Manager
	path     string
	debounce time.Duration
	logger   *zap.Logger

	fsw  *fsnotify.Watcher
	done chan struct{}
}

// NewWatcher creates a watcher for the corpus file at path. The parent
// directory is watched rather than the file itself, since many tools
// replace files by rename.
func NewWatcher(manager *Manager, path string, logger *zap.Logger) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating corpus watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watching %s: %w", filepath.Dir(path), err)
	}

	return &Watcher{
		manager:  manager,
		path:     path,
		debounce: defaultDebounce,
		logger:   logger,
		fsw:      fsw,
		done:     make(chan struct{}),
	}, nil
}

// Start runs the watch loop until Close is called or ctx is canceled.
func (w *Watcher) Start(ctx context.Context) {
	go w.loop(ctx)
}

// Close stops the watch loop.
func (w *Watcher) Close() error {
	close(w.done)
	return w.fsw.Close()
}

func (w *Watcher) loop(ctx context.Context) {
	var timer *time.Timer
	var pending <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Rename) {
				continue
			}

			w.logger.Debug("corpus file changed", zap.String("path", w.path), zap.String("op", event.Op.String()))
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(w.debounce)
			pending = timer.C

		case <-pending:
			pending = nil
			w.logger.Info("corpus changed, refreshing index", zap.String("path", w.path))
			if err := w.manager.Refresh(ctx); err != nil {
				// Keep serving the previous index generation.
				w.logger.Error("index refresh failed", zap.Error(err))
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("corpus watcher error", zap.Error(err))
		}
	}
}
