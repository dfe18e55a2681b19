// Package watch signals when the dataset tree under a root changes, so a
// long-running scan view can re-scan.
//
// fsnotify is not recursive: every directory down to the scan depth is
// watched individually and new directories are added as they appear.
// Directories matching the exclude globs are not watched. Bursts of events
// are coalesced into one Change after a quiet period.
package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/fmrimap/internal/logging"
)

// ErrWatcherFailed indicates the filesystem watcher failed to initialize.
var ErrWatcherFailed = errors.New("failed to initialize filesystem watcher")

// DefaultDebounce is the quiet period before a Change is emitted.
const DefaultDebounce = 500 * time.Millisecond

// Change reports that the tree changed.
type Change struct {
	// Path is the last path seen in the coalesced burst.
	Path string
	At   time.Time
}

// Watcher emits coalesced changes under a root.
type Watcher struct {
	root     string
	maxDepth int
	exclude  []string
	debounce time.Duration
	logger   *logging.Logger

	watcher  *fsnotify.Watcher
	changes  chan Change
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
	started  atomic.Bool
}

// New creates a watcher for root covering directories up to maxDepth
// levels below it, skipping those whose root-relative slash path matches
// an exclude glob. debounce <= 0 uses DefaultDebounce.
func New(root string, maxDepth int, exclude []string, debounce time.Duration, logger *logging.Logger) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	for _, pattern := range exclude {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid exclude pattern %q", pattern)
		}
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWatcherFailed, err)
	}

	return &Watcher{
		root:     filepath.Clean(root),
		maxDepth: maxDepth,
		exclude:  exclude,
		debounce: debounce,
		logger:   logger.Named("watch"),
		watcher:  fw,
		changes:  make(chan Change, 1),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}, nil
}

// Start adds the watches and begins processing events in a goroutine.
// Call Stop to release resources.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.addTree(ctx, w.root); err != nil {
		return err
	}
	w.started.Store(true)
	go w.run(ctx)
	return nil
}

// Changes returns the channel of coalesced changes. At most one change is
// buffered; further bursts are merged into it.
func (w *Watcher) Changes() <-chan Change {
	return w.changes
}

// Stop stops the watcher and waits for its goroutine to exit. Safe to call
// more than once, and before Start.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stop)
		_ = w.watcher.Close()
	})
	if w.started.Load() {
		<-w.done
	}
}

func (w *Watcher) depth(path string) int {
	rel, err := filepath.Rel(w.root, path)
	if err != nil || rel == "." {
		return 0
	}
	return strings.Count(rel, string(filepath.Separator)) + 1
}

func (w *Watcher) excluded(path string) bool {
	rel, err := filepath.Rel(w.root, path)
	if err != nil || rel == "." {
		return false
	}
	rel = filepath.ToSlash(rel)
	for _, pattern := range w.exclude {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

// addTree watches dir and its non-hidden, non-excluded subdirectories
// within maxDepth.
func (w *Watcher) addTree(ctx context.Context, dir string) error {
	if dir != w.root && w.excluded(dir) {
		w.logger.Trace(ctx, "excluded", zap.String("path", dir))
		return nil
	}
	if err := w.watcher.Add(dir); err != nil {
		if dir == w.root {
			return fmt.Errorf("watching %s: %w", dir, err)
		}
		w.logger.Debug(ctx, "cannot watch directory", zap.String("path", dir), zap.Error(err))
		return nil
	}
	if w.depth(dir) >= w.maxDepth {
		return nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if err := w.addTree(ctx, filepath.Join(dir, e.Name())); err != nil {
			return err
		}
	}
	return nil
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.done)

	var (
		timer   *time.Timer
		pending Change
		fire    <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-w.stop:
			return
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() && w.depth(event.Name) <= w.maxDepth {
					_ = w.addTree(ctx, event.Name)
				}
			}
			w.logger.Trace(ctx, "filesystem event", zap.String("event", event.String()))

			pending = Change{Path: event.Name, At: time.Now()}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			select {
			case w.changes <- pending:
			default:
				// A change is already waiting; it covers this one.
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn(ctx, "watcher error", zap.Error(err))
		}
	}
}
