package casefile

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceInterval is the quiet period after a file event before the
// catalog reloads. Editors and atomic writers emit bursts of events for a
// single save.
const debounceInterval = 100 * time.Millisecond

// Watch reloads the catalog when the case file changes. It blocks until
// the context is cancelled. The parent directory is watched rather than
// the file itself so rename-and-replace saves are picked up.
func (c *Catalog) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(c.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	c.logger.Info("case file watcher started",
		"path", c.path,
		"debounce_ms", debounceInterval.Milliseconds(),
	)

	debounce := newDebouncer(debounceInterval)
	defer debounce.stop()

	target := filepath.Clean(c.path)

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("case file watcher stopped")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&fsnotify.Chmod == fsnotify.Chmod {
				continue
			}

			c.logger.Debug("case file event detected",
				"path", event.Name,
				"op", event.Op.String(),
			)

			debounce.trigger(func() {
				if err := c.Reload(); err != nil {
					c.logger.Error("case file reload failed", "error", err)
				}
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			c.logger.Error("case file watcher error", "error", err)
			// Keep watching despite errors
		}
	}
}

// debouncer collapses rapid event bursts into a single callback after a
// quiet period.
type debouncer struct {
	interval time.Duration
	mu       sync.Mutex
	timer    *time.Timer
	stopped  bool
}

func newDebouncer(interval time.Duration) *debouncer {
	return &debouncer{interval: interval}
}

func (d *debouncer) trigger(callback func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.interval, callback)
}

func (d *debouncer) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
