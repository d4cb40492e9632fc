package provider

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchDebounce coalesces bursts of writes from editors and deploy tools.
var watchDebounce = 500 * time.Millisecond

// Watch reloads the registry file into store whenever it changes, until ctx
// is done. A file that fails to load is logged and the previous registry is
// kept.
func Watch(ctx context.Context, path string, store *Store, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", path, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory so that atomic replace (write temp + rename) is seen.
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	reload := func() {
		r, err := LoadFile(abs)
		store.reloaded(r, err)
		if err != nil {
			logger.Warn("provider registry reload failed, keeping previous", "path", abs, "error", err)
			return
		}
		store.Replace(r)
		logger.Info("provider registry reloaded", "path", abs, "providers", r.Len(), "generation", store.Generation())
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(watchDebounce, reload)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("provider registry watcher error", "error", err)
		}
	}
}
