package pool

import (
	"context"
	"path/filepath"
	"time"

	"gallery-cli/internal/logging"

	"github.com/fsnotify/fsnotify"
)

// Watch calls onChange after path is written, created or renamed into place,
// once the file has been quiet for debounce. It blocks until ctx is done.
//
// The parent directory is watched rather than the file itself, since most
// editors replace files by rename.
func Watch(ctx context.Context, path string, debounce time.Duration, onChange func()) error {
	if debounce <= 0 {
		debounce = 100 * time.Millisecond
	}
	path = filepath.Clean(path)
	logger := logging.NewLogger("pool-watcher").WithField("path", path)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Add(filepath.Dir(path)); err != nil {
		return err
	}

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != path {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			logger.Debugf("fsnotify event op=%v", ev.Op)
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(debounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			onChange()
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.WithError(err).Warn("watcher error")
		}
	}
}
