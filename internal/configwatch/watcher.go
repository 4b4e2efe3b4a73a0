// Package configwatch reloads runtime triage settings when the config file
// changes on disk.
package configwatch

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/bft-labs/tracesink/internal/cliconfig"
	"github.com/bft-labs/tracesink/internal/domain"
	"github.com/bft-labs/tracesink/internal/ports"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce coalesces the burst of events editors emit on save.
const DefaultDebounce = 100 * time.Millisecond

// Target receives reloaded settings. *app.SnapshotTriage satisfies it.
type Target interface {
	SetEnabled(enabled bool)
	SetTimeout(seconds float64)
	SetLevel(level domain.Level)
}

// Watcher monitors one TOML file and applies its [snapshot] enabled,
// timeout and level keys to a Target. Keys absent from the file leave
// the running value unchanged.
type Watcher struct {
	path     string
	target   Target
	logger   ports.Logger
	debounce time.Duration

	mu    sync.Mutex
	timer *time.Timer
}

// New creates a watcher for the config file at path.
func New(path string, target Target, logger ports.Logger) *Watcher {
	return &Watcher{
		path:     path,
		target:   target,
		logger:   logger,
		debounce: DefaultDebounce,
	}
}

// Run watches the file's directory until ctx is done. Watching the directory
// rather than the file survives editors that replace the file on save.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()
	defer w.stopTimer()

	dir := filepath.Dir(w.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	w.logger.Info("watching config", ports.String("path", w.path))

	name := filepath.Base(w.path)
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.schedule()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("config watcher error", ports.Err(err))
		}
	}
}

// Reload reads the file and applies it to the target.
func (w *Watcher) Reload() error {
	fc, err := cliconfig.LoadFileConfig(w.path)
	if err != nil {
		return fmt.Errorf("load %s: %w", w.path, err)
	}

	sf := fc.Snapshot
	if sf.Enabled != nil {
		w.target.SetEnabled(*sf.Enabled)
	}
	if sf.Timeout != nil {
		w.target.SetTimeout(*sf.Timeout)
	}
	if sf.Level != "" {
		level, err := domain.ParseLevel(sf.Level)
		if err != nil {
			w.logger.Warn("ignoring snapshot level", ports.String("level", sf.Level), ports.Err(err))
		} else {
			w.target.SetLevel(level)
		}
	}

	w.logger.Info("config reloaded", ports.String("path", w.path))
	return nil
}

func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		if err := w.Reload(); err != nil {
			w.logger.Warn("config reload failed", ports.Err(err))
		}
	})
}

func (w *Watcher) stopTimer() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
}
