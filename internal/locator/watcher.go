package locator

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// Watch marks the locator stale whenever a *.pdf directly under folder
// is created, written, removed, or renamed. It blocks until ctx is
// canceled; callers run it in its own goroutine. The index is never
// rebuilt automatically, staleness only surfaces through Stale().
func (l *HybridLocator) Watch(ctx context.Context, folder string) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = w.Close() }()

	if err := w.Add(folder); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !strings.EqualFold(filepath.Ext(ev.Name), ".pdf") {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0 {
				slog.Debug("indexed folder changed",
					slog.String("file", filepath.Base(ev.Name)),
					slog.String("op", ev.Op.String()))
				l.markStale()
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			slog.Warn("folder watch error", slog.String("error", err.Error()))
		}
	}
}
