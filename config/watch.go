package config

import (
	"context"
	"path/filepath"
	"time"

	"github.com/bep/debounce"
	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"

	"go.viam.com/keyframe/logging"
)

// a single save often produces several events; reload once they settle.
const reloadDebounce = 100 * time.Millisecond

// Watch re-reads the config at filePath whenever it is written or replaced and passes each valid result to
// onChange. Invalid revisions are logged and skipped. It blocks until ctx is done, and onChange is only
// called from the calling goroutine.
func Watch(ctx context.Context, filePath string, logger logging.Logger, onChange func(*Config)) error {
	target, err := filepath.Abs(filePath)
	if err != nil {
		return err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "cannot create config watcher")
	}
	defer func() {
		if err := watcher.Close(); err != nil {
			logger.Warnw("error closing config watcher", "error", err)
		}
	}()

	// editors often replace the file rather than writing it, so watch the directory
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return errors.Wrapf(err, "cannot watch %q", filePath)
	}

	reload := make(chan struct{}, 1)
	debounced := debounce.New(reloadDebounce)
	requestReload := func() {
		select {
		case reload <- struct{}{}:
		default:
		}
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) == target && event.Has(fsnotify.Write|fsnotify.Create) {
				debounced(requestReload)
			}
		case <-reload:
			cfg, err := Read(target)
			if err != nil {
				logger.Warnw("ignoring invalid config revision", "path", filePath, "error", err)
				continue
			}
			logger.Debugw("config changed", "path", filePath)
			onChange(cfg)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warnw("config watcher error", "error", err)
		}
	}
}
