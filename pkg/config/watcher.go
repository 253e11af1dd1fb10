package config

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// WatchReload watches path for writes, debounces bursts of them (editors
// and atomic-save tools like vim/nano emit several events per logical
// save), and re-runs Load on settle. Each successful reload is emitted as
// a freshly DeepCopy'd *Config on the returned channel, so a caller holding
// an older *Config never observes a partially-applied mutation. A reload
// that fails to parse is logged and dropped — the process keeps running on
// its last-known-good configuration rather than crashing on a bad edit
// mid-save. The channel closes when ctx is canceled.
func WatchReload(ctx context.Context, path string) <-chan *Config {
	reloadCh := make(chan *Config, 1) // buffered so a slow consumer doesn't stall the watch goroutine

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		slog.Error("config: failed to create fsnotify watcher", "error", err)
		return reloadCh
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		slog.Warn("config: could not resolve absolute path for watch file", "file", path, "error", err)
		watcher.Close()
		return reloadCh
	}
	if err := watcher.Add(absPath); err != nil {
		slog.Warn("config: could not watch file", "file", absPath, "error", err)
	} else {
		slog.Debug("config: watching configuration file for hot-reload", "file", absPath)
	}

	go func() {
		defer watcher.Close()
		defer close(reloadCh)

		const debounce = 500 * time.Millisecond
		var timer *time.Timer

		reload := func() {
			cfg, err := Load(path)
			if err != nil {
				slog.Error("config: reload failed, keeping previous configuration", "file", path, "error", err)
				return
			}
			slog.Info("config: reloaded from disk", "file", path, "model", cfg.Model)
			select {
			case reloadCh <- cfg.DeepCopy():
			default:
				// previous reload still unconsumed; drop this one, the next
				// write event will trigger another attempt
			}
		}

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op.Has(fsnotify.Write) || event.Op.Has(fsnotify.Create) {
					if timer != nil {
						timer.Stop()
					}
					timer = time.AfterFunc(debounce, reload)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				slog.Error("config: watcher error", "file", path, "error", err)
			}
		}
	}()

	return reloadCh
}
