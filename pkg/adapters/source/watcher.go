package source

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/aretw0/lifecycle/pkg/core/worker"
	"github.com/fsnotify/fsnotify"

	"github.com/aretw0/bagger/pkg/core"
)

// DefaultDebounce is the quiet period before a change is reported.
const DefaultDebounce = 50 * time.Millisecond

// Watcher reports changes below a content root as core.Events whose ID is
// the slash-separated path relative to the root. It is a lifecycle worker, so
// it can run under a supervisor.
type Watcher struct {
	*worker.BaseWorker
	source   *Source
	root     string
	events   chan<- core.Event
	debounce time.Duration

	watcher   *fsnotify.Watcher
	debouncer *debouncer
	cancel    context.CancelFunc
	active    atomic.Bool
}

// NewWatcher creates a watcher for root. Ignore patterns of s apply to events.
func (s *Source) NewWatcher(root string, events chan<- core.Event, debounce time.Duration) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		BaseWorker: worker.NewBaseWorker("source-watcher"),
		source:     s,
		root:       root,
		events:     events,
		debounce:   debounce,
	}
}

func (w *Watcher) logger() *slog.Logger {
	return w.source.config.Logger
}

// Active reports whether the event loop is running.
func (w *Watcher) Active() bool {
	return w.active.Load()
}

// Start registers every non-ignored directory below the root and starts the
// event loop.
func (w *Watcher) Start(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	status := w.State().Status
	if status != worker.StatusCreated && status != worker.StatusPending {
		return fmt.Errorf("watcher already started (status: %s)", status)
	}

	abs, err := filepath.Abs(w.root)
	if err != nil {
		return fmt.Errorf("invalid root: %w", err)
	}
	w.root = abs

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := w.addTree(watcher, abs); err != nil {
		_ = watcher.Close()
		return err
	}

	w.watcher = watcher
	w.debouncer = newDebouncer(w.debounce)
	w.active.Store(true)

	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	w.SetStatus(worker.StatusRunning)
	return w.StartFunc(runCtx, w.run)
}

// Stop ends the event loop.
func (w *Watcher) Stop(ctx context.Context) error {
	if w.cancel != nil {
		w.StopRequested = true
		w.cancel()
	}
	return w.BaseWorker.Stop(ctx)
}

// State implements worker.Worker.
func (w *Watcher) State() worker.State {
	return w.ExportState(func(s *worker.State) {
		s.Metadata = map[string]string{
			worker.MetadataType: string(worker.TypeGoroutine),
			"root":              w.root,
		}
	})
}

// addTree watches dir and every directory below it that is not ignored.
func (w *Watcher) addTree(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if rel := w.rel(path); rel != "." && w.source.Ignored(rel) {
			return filepath.SkipDir
		}
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}

func (w *Watcher) rel(path string) string {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}

func eventType(e fsnotify.Event) core.EventType {
	switch {
	case e.Has(fsnotify.Create):
		return core.EventCreate
	case e.Has(fsnotify.Write):
		return core.EventModify
	case e.Has(fsnotify.Remove), e.Has(fsnotify.Rename):
		return core.EventDelete
	default:
		return ""
	}
}

// handle filters, maps and debounces one filesystem event.
func (w *Watcher) handle(ctx context.Context, e fsnotify.Event) {
	rel := w.rel(e.Name)
	if rel == "." || w.source.Ignored(rel) {
		return
	}
	t := eventType(e)
	if t == "" {
		return
	}
	if t == core.EventCreate {
		if info, err := os.Stat(e.Name); err == nil && info.IsDir() {
			if err := w.addTree(w.watcher, e.Name); err != nil {
				w.logger().Warn("failed to watch new directory", "path", e.Name, "error", err)
			}
		}
	}

	w.debouncer.add(core.NewEvent(t, rel), func(ev core.Event) {
		select {
		case w.events <- ev:
		case <-ctx.Done():
		}
	})
}

func (w *Watcher) run(ctx context.Context) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			panicErr := fmt.Errorf("watcher panic: %v", recovered)
			if w.logger().Enabled(ctx, slog.LevelDebug) {
				w.logger().Error("watcher panic", "error", panicErr, "stack", string(debug.Stack()))
			} else {
				w.logger().Error("watcher panic", "error", panicErr)
			}
			err = panicErr
		}
	}()
	defer w.active.Store(false)
	defer w.watcher.Close()

	err = w.loop(ctx)

	if !w.debouncer.stopAndWait(5 * time.Second) {
		w.logger().Warn("pending change events dropped on shutdown")
	}
	return err
}

func (w *Watcher) loop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil

		case e, ok := <-w.watcher.Events:
			if !ok {
				if w.StopRequested || ctx.Err() != nil {
					return nil
				}
				return errors.New("watcher events channel closed")
			}
			w.logger().Debug("event received", "name", e.Name, "op", e.Op.String())
			w.handle(ctx, e)

		case werr, ok := <-w.watcher.Errors:
			if !ok {
				if w.StopRequested || ctx.Err() != nil {
					return nil
				}
				return errors.New("watcher errors channel closed")
			}
			w.logger().Error("fsnotify error", "error", werr)
		}
	}
}
