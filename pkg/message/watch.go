package message

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// ReloadFile replaces the catalog with the contents of the YAML file at path.
// On error the current catalog is kept.
func (s *Source) ReloadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open message catalog: %w", err)
	}
	defer f.Close()

	catalogs, err := decodeCatalogs(f)
	if err != nil {
		return err
	}
	s.Replace(catalogs)
	return nil
}

// Watch reloads the catalog whenever the file at path is written or
// recreated, until ctx is cancelled. The parent directory is watched so
// editors that replace the file are noticed.
func (s *Source) Watch(ctx context.Context, path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create catalog watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(path), err)
	}

	go s.watchLoop(ctx, watcher, filepath.Clean(path))
	return nil
}

func (s *Source) watchLoop(ctx context.Context, watcher *fsnotify.Watcher, path string) {
	defer watcher.Close()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != path || !(event.Has(fsnotify.Write) || event.Has(fsnotify.Create)) {
				continue
			}
			if err := s.ReloadFile(path); err != nil {
				slog.Warn("Failed to reload message catalog", "path", path, "error", err)
				continue
			}
			slog.Info("Message catalog reloaded", "path", path)
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("Message catalog watcher error", "error", err)
		}
	}
}
