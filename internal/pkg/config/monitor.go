package config

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/gethiox/joydrv/internal/pkg/logger"
	"go.uber.org/zap"
)

var log = logger.GetLogger()

// Watch reloads config file every time it changes. Parent directory is watched instead of
// the file itself, editors tend to replace files rather than write into them.
// Invalid configs are reported and skipped.
func Watch(ctx context.Context, path string) (<-chan Config, error) {
	path = filepath.Clean(path)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("cannot create watcher: %w", err)
	}

	err = watcher.Add(filepath.Dir(path))
	if err != nil {
		watcher.Close()
		return nil, fmt.Errorf("cannot watch \"%s\": %w", filepath.Dir(path), err)
	}

	var changes = make(chan Config)

	go func() {
		<-ctx.Done()
		err := watcher.Close()
		if err != nil {
			log.Info(fmt.Sprintf("closing watcher failed: %v", err), logger.Debug)
		}
	}()

	go func() {
		defer close(changes)

		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != path {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}

				cfg, err := Load(path)
				if err != nil {
					log.Info(fmt.Sprintf("config change ignored: %v", err), zap.String("path", path), logger.Warning)
					continue
				}
				log.Info("config change detected", zap.String("path", path), logger.Info)

				select {
				case changes <- cfg:
				case <-ctx.Done():
					return
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Info(fmt.Sprintf("watcher error: %v", err), logger.Warning)
			}
		}
	}()

	return changes, nil
}
