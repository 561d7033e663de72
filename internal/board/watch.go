package board

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ripi-dev/ripi/internal/debug"
)

// Watch calls onChange whenever an issue appears, moves, disappears or has
// its status marker changed. Bursts of events closer together than delay
// produce one call. onChange runs on the calling goroutine; Watch returns
// nil once ctx is done.
func (b *Board) Watch(ctx context.Context, delay time.Duration, onChange func()) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return ioErr("create watcher for", b.root, err)
	}
	defer func() { _ = w.Close() }()

	for _, dir := range b.watchDirs() {
		if err := w.Add(dir); err != nil {
			return ioErr("watch", dir, err)
		}
	}

	var timer *time.Timer
	fire := make(chan struct{}, 1)
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
			// New issue directories are watched for status markers.
			if ev.Has(fsnotify.Create) && b.stages.Contains(filepath.Dir(ev.Name)) && isDir(ev.Name) {
				if err := w.Add(ev.Name); err != nil {
					debug.Logf("watch %s: %v\n", ev.Name, err)
				}
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(delay, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})
		case <-fire:
			onChange()
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			debug.Logf("watch error: %v\n", err)
		}
	}
}

// watchDirs lists every existing stage directory and the issue directories
// inside them.
func (b *Board) watchDirs() []string {
	var dirs []string
	for _, stageDir := range b.stages.Paths() {
		entries, err := os.ReadDir(stageDir)
		if err != nil {
			continue
		}
		dirs = append(dirs, stageDir)
		for _, e := range entries {
			if e.IsDir() {
				dirs = append(dirs, filepath.Join(stageDir, e.Name()))
			}
		}
	}
	return dirs
}
