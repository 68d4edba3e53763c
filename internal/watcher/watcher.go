// Package watcher monitors directories for arriving video files and
// hands them off once they stop changing, so mosaics are generated from
// complete files rather than half-copied ones.
package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/framegrid/framegrid/internal/logging"
	"github.com/framegrid/framegrid/internal/util"
)

// Handler receives the path of a settled video file. It is called from
// the watch loop, so it must not block; long work belongs in a task
// submitted elsewhere.
type Handler func(path string)

// Options tunes watch behavior. Zero values pick the defaults.
type Options struct {
	// SettleDelay is how long a file must stay quiet before it is
	// handed off. A copy in progress keeps resetting the clock.
	SettleDelay time.Duration

	// PollInterval controls how often quiet files are checked.
	PollInterval time.Duration

	// Recursive extends the watch to subdirectories, including ones
	// created while watching.
	Recursive bool
}

const (
	defaultSettleDelay  = 2 * time.Second
	defaultPollInterval = 500 * time.Millisecond
)

// pendingFile tracks a file that produced events but has not settled.
type pendingFile struct {
	lastEvent time.Time
	size      int64
}

// Watcher watches directories and dispatches settled video files.
type Watcher struct {
	fsw     *fsnotify.Watcher
	handler Handler
	opts    Options
}

// New creates a watcher that calls handler for each settled video file.
func New(handler Handler, opts Options) (*Watcher, error) {
	if handler == nil {
		return nil, fmt.Errorf("watcher requires a handler")
	}
	if opts.SettleDelay <= 0 {
		opts.SettleDelay = defaultSettleDelay
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = defaultPollInterval
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	return &Watcher{fsw: fsw, handler: handler, opts: opts}, nil
}

// Add starts watching a directory. With Recursive set, existing
// subdirectories are watched too.
func (w *Watcher) Add(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("failed to access watch directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("watch path is not a directory: %s", dir)
	}

	if err := w.fsw.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	logging.Info("watching directory", "dir", dir, "recursive", w.opts.Recursive)

	if w.opts.Recursive {
		return w.watchSubdirs(dir, nil)
	}
	return nil
}

// Close releases the underlying file system watcher.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

// Run processes events until ctx is cancelled. It returns nil on
// cancellation and an error if the watcher breaks underneath it.
func (w *Watcher) Run(ctx context.Context) error {
	pending := make(map[string]pendingFile)
	ticker := time.NewTicker(w.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				return fmt.Errorf("watch event channel closed")
			}
			w.handleEvent(event, pending)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return fmt.Errorf("watch error channel closed")
			}
			logging.Warn("watch error", "error", err)

		case now := <-ticker.C:
			w.dispatchSettled(now, pending)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event, pending map[string]pendingFile) {
	if event.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
		delete(pending, event.Name)
		return
	}
	if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
		return
	}

	info, err := os.Stat(event.Name)
	if err != nil {
		delete(pending, event.Name)
		return
	}

	if info.IsDir() {
		// A directory moved in can already hold videos; watchSubdirs
		// queues them alongside adding the watch.
		if w.opts.Recursive && event.Op&fsnotify.Create != 0 {
			if err := w.fsw.Add(event.Name); err != nil {
				logging.Warn("failed to watch new directory", "dir", event.Name, "error", err)
				return
			}
			if err := w.watchSubdirs(event.Name, pending); err != nil {
				logging.Warn("failed to watch new directory tree", "dir", event.Name, "error", err)
			}
		}
		return
	}

	if !eligible(event.Name) {
		return
	}
	pending[event.Name] = pendingFile{lastEvent: time.Now(), size: info.Size()}
}

// dispatchSettled hands off every pending file whose last event is older
// than the settle delay and whose size stopped moving.
func (w *Watcher) dispatchSettled(now time.Time, pending map[string]pendingFile) {
	for path, p := range pending {
		if now.Sub(p.lastEvent) < w.opts.SettleDelay {
			continue
		}

		info, err := os.Stat(path)
		if err != nil {
			delete(pending, path)
			continue
		}
		if info.Size() != p.size || info.Size() == 0 {
			pending[path] = pendingFile{lastEvent: now, size: info.Size()}
			continue
		}

		delete(pending, path)
		logging.Info("video file settled", "path", path, "size", info.Size())
		w.handler(path)
	}
}

// watchSubdirs walks dir adding watches for every subdirectory. When
// pending is non-nil, video files found along the way are queued as if
// they had just arrived.
func (w *Watcher) watchSubdirs(dir string, pending map[string]pendingFile) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path == dir {
				return nil
			}
			if err := w.fsw.Add(path); err != nil {
				logging.Warn("failed to watch subdirectory", "dir", path, "error", err)
			}
			return nil
		}
		if pending != nil && eligible(path) {
			if info, err := d.Info(); err == nil {
				pending[path] = pendingFile{lastEvent: time.Now(), size: info.Size()}
			}
		}
		return nil
	})
}

// eligible reports whether a path looks like a video worth generating
// a mosaic for. Hidden files are skipped; copy tools often stage under
// dotted names before renaming into place.
func eligible(path string) bool {
	if strings.HasPrefix(filepath.Base(path), ".") {
		return false
	}
	return util.IsVideoFile(path)
}
