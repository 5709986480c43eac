package sqlite

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// startFileWatch follows the database file and its WAL so writes made by
// another process sharing the file reach this process's watchers. Those
// writes cannot be attributed to a path, so they invalidate everything.
// Our own writes trip the watcher as well; watchers simply re-read.
func (s *Store) startFileWatch() error {
	file := s.filePath()
	if file == "" {
		return nil
	}

	abs, err := filepath.Abs(file)
	if err != nil {
		return fmt.Errorf("sqlite: resolve %s: %w", s.path, err)
	}
	dir := filepath.Dir(abs)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("sqlite: create watcher: %w", err)
	}
	// The directory is watched rather than the file: SQLite recreates the
	// -wal and -shm companions as it checkpoints.
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("sqlite: watch %s: %w", dir, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.stopWatch = cancel

	names := map[string]struct{}{
		abs:          {},
		abs + "-wal": {},
		abs + "-shm": {},
	}

	go func() {
		defer func() {
			if err := watcher.Close(); err != nil {
				s.logger.Warn().Err(err).Msg("watcher close")
			}
		}()

		throttle := newEventThrottle(s.throttle)
		defer throttle.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				// We cannot tell what was missed, so refresh everything.
				s.logger.Warn().Err(err).Msg("file watcher error")
				throttle.Enqueue(s.hub.Invalidate)
			case evt, ok := <-watcher.Events:
				if !ok {
					return
				}
				if _, ours := names[filepath.Clean(evt.Name)]; !ours {
					continue
				}
				if evt.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
					continue
				}
				throttle.Enqueue(s.hub.Invalidate)
			}
		}
	}()

	s.logger.Debug().Str("dir", dir).Msg("watching database files")
	return nil
}

// eventThrottle coalesces a burst of file-system notifications into a
// single flush, delay after the first one.
type eventThrottle struct {
	mu    sync.Mutex
	timer *time.Timer
	delay time.Duration
}

func newEventThrottle(delay time.Duration) *eventThrottle {
	return &eventThrottle{delay: delay}
}

func (t *eventThrottle) Enqueue(flush func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.timer == nil {
		t.timer = time.AfterFunc(t.delay, func() {
			t.mu.Lock()
			t.timer = nil
			t.mu.Unlock()
			flush()
		})
	}
}

func (t *eventThrottle) Stop() {
	t.mu.Lock()
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.mu.Unlock()
}
