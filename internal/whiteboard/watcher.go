package whiteboard

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// Event reports a change in the whiteboard directory.
// Op is one of "created", "deleted".
type Event struct {
	Op       string `json:"op"`
	Filename string `json:"filename"`
}

// Watch runs an fsnotify watcher on the whiteboard directory and calls cb for
// every image file that appears or disappears, until ctx is cancelled.
// Writes made through the registry land via rename, so they surface as
// "created" events too.
func (r *Registry) Watch(ctx context.Context, cb func(Event)) error {
	dir, err := r.Dir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("whiteboard: create dir: %w", err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(dir); err != nil {
		return fmt.Errorf("whiteboard: watch %s: %w", dir, err)
	}
	r.logger.Info("watcher: started", slog.String("dir", dir))

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("watcher: stopped")
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			name := filepath.Base(ev.Name)
			if strings.HasPrefix(name, ".") || !isImageName(name) {
				continue
			}

			var op string
			switch {
			case ev.Op&fsnotify.Create != 0:
				op = "created"
			case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				// fsnotify fires Rename on the old path only.
				op = "deleted"
			default:
				continue
			}
			r.logger.Debug("watcher: event", slog.String("file", name), slog.String("op", op))
			if cb != nil {
				cb(Event{Op: op, Filename: name})
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			r.logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}
