// Package watch keeps fetching subtitles for files that appear under a
// library root after the initial scan.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/jonboulle/clockwork"

	"subfetch/internal/logging"
	"subfetch/internal/media"
	"subfetch/internal/scan"
)

// DefaultDebounce is how long a path must stay quiet before it is handled.
// Copies in progress emit a stream of write events.
const DefaultDebounce = 2 * time.Second

// Handler receives settled files one at a time.
type Handler func(ctx context.Context, file media.File)

// Option customizes a Watcher.
type Option func(*Watcher)

// WithDebounce overrides DefaultDebounce.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithLogger sets the base logger.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Watcher) {
		w.logger = logging.NewComponentLogger(logger, "watch")
	}
}

// WithClock injects a clock (used in tests).
func WithClock(clock clockwork.Clock) Option {
	return func(w *Watcher) {
		if clock != nil {
			w.clock = clock
		}
	}
}

// Watcher reports new files under root.
type Watcher struct {
	root     string
	lister   *scan.Lister
	handle   Handler
	debounce time.Duration
	clock    clockwork.Clock
	logger   *slog.Logger

	readyOnce sync.Once
	ready     chan struct{}
	pending   map[string]time.Time
}

// New builds a watcher. Subdirectories are watched when lister is recursive.
func New(root string, lister *scan.Lister, handle Handler, opts ...Option) *Watcher {
	w := &Watcher{
		root:     root,
		lister:   lister,
		handle:   handle,
		debounce: DefaultDebounce,
		clock:    clockwork.NewRealClock(),
		logger:   logging.NewComponentLogger(nil, "watch"),
		ready:    make(chan struct{}),
		pending:  make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Ready is closed once every directory is being watched.
func (w *Watcher) Ready() <-chan struct{} {
	return w.ready
}

// Run watches until ctx is cancelled. It returns nil on cancellation.
func (w *Watcher) Run(ctx context.Context) error {
	dirs, err := w.lister.Dirs(w.root)
	if err != nil {
		return err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	for _, dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}
	w.logger.Info("watching for new files",
		logging.String("root", w.root),
		logging.Int("directories", len(dirs)),
		logging.Duration("debounce", w.debounce),
	)
	w.readyOnce.Do(func() { close(w.ready) })

	ticker := w.clock.NewTicker(w.debounce / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return errors.New("file watcher closed")
			}
			w.observe(watcher, event)
		case watchErr, ok := <-watcher.Errors:
			if !ok {
				return errors.New("file watcher closed")
			}
			logging.WarnWithContext(w.logger, "file watcher error", "watch_error",
				logging.Error(watchErr),
				logging.String(logging.FieldImpact, "some filesystem events may be missed"),
			)
		case <-ticker.Chan():
			w.flush(ctx)
		}
	}
}

func (w *Watcher) observe(watcher *fsnotify.Watcher, event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}
	info, err := os.Stat(event.Name)
	if err != nil {
		return
	}
	now := w.clock.Now()
	if !info.IsDir() {
		w.pending[event.Name] = now
		return
	}
	if !w.lister.Recursive || !event.Has(fsnotify.Create) {
		return
	}
	// A directory moved or created in place: watch it and pick up whatever
	// landed before the watch was added.
	dirs, err := w.lister.Dirs(event.Name)
	if err != nil {
		w.logger.Debug("new directory vanished", logging.String("path", event.Name), logging.Error(err))
		return
	}
	for _, dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			w.logger.Warn("failed to watch new directory",
				logging.String("path", dir),
				logging.Error(err),
				logging.String(logging.FieldEventType, "watch_add_failed"),
				logging.String(logging.FieldErrorHint, "check inotify limits"),
				logging.String(logging.FieldImpact, "files in this directory are not picked up"),
			)
		}
	}
	files, err := w.lister.List(event.Name)
	if err != nil {
		return
	}
	for _, file := range files {
		w.pending[file.Path] = now
	}
}

func (w *Watcher) flush(ctx context.Context) {
	if len(w.pending) == 0 {
		return
	}
	now := w.clock.Now()
	var settled []string
	for path, seen := range w.pending {
		if now.Sub(seen) >= w.debounce {
			settled = append(settled, path)
		}
	}
	sort.Strings(settled)
	for _, path := range settled {
		delete(w.pending, path)
		if ctx.Err() != nil {
			return
		}
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			continue
		}
		w.handle(ctx, media.NewFile(path))
	}
}
