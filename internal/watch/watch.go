// Package watch reports changes to a single file on disk.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	applog "semmelweis/internal/log"
)

// DefaultDebounce folds the burst of events an editor save produces.
const DefaultDebounce = 200 * time.Millisecond

const relevant = fsnotify.Write | fsnotify.Create | fsnotify.Rename | fsnotify.Remove

// File watches path and calls onChange after it is written, replaced or
// removed. The parent directory is watched, so atomic saves and a file
// appearing later are both seen. It runs until ctx is cancelled.
func File(ctx context.Context, logger *applog.Logger, path string, debounce time.Duration, onChange func(context.Context)) error {
	if logger == nil {
		logger = applog.FromContext(ctx)
	}
	logger = logger.WithComponent(applog.ComponentWatch)

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", path, err)
	}
	dir := filepath.Dir(abs)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	logger.InfoContext(ctx, "Watching for changes", applog.FieldPath, abs)

	var (
		timer   *time.Timer
		pending <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs || event.Op&relevant == 0 {
				continue
			}
			logger.DebugContext(ctx, "File event", applog.FieldPath, abs, "op", event.Op.String())
			if debounce <= 0 {
				onChange(ctx)
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			pending = timer.C

		case <-pending:
			pending = nil
			onChange(ctx)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.ErrorContext(ctx, "Watcher error", applog.FieldPath, abs, applog.FieldError, err)
		}
	}
}
