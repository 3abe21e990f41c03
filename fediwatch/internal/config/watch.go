package config

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// reloadDelay coalesces the burst of events editors produce on save.
const reloadDelay = 200 * time.Millisecond

// Watch reloads the file at path whenever it changes and passes each valid
// configuration to onChange. Invalid files are logged and ignored. The
// parent directory is watched so atomic rename-on-save is seen. Watch
// blocks until ctx is done.
func Watch(ctx context.Context, path string, logger *slog.Logger, onChange func(*Config)) error {
	if logger == nil {
		logger = slog.Default()
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	path = filepath.Clean(path)
	if err := w.Add(filepath.Dir(path)); err != nil {
		return err
	}
	logger.Info("config: watching", "path", path)

	var timer *time.Timer
	var timerC <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-timerC:
			timerC = nil
			cfg, err := LoadFile(path)
			if err != nil {
				logger.Warn("config: reload rejected", "path", path, "error", err)
				continue
			}
			logger.Info("config: reloaded", "path", path, "pages", len(cfg.Pages))
			onChange(cfg)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != path || ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(reloadDelay)
			} else {
				timer.Reset(reloadDelay)
			}
			timerC = timer.C

		case werr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("config: watch error", "error", werr)
		}
	}
}
