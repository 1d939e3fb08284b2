package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	uci "github.com/0xalexb/hjarta-uci"
	"github.com/0xalexb/hjarta-uci/api"

	"github.com/fsnotify/fsnotify"
)

// DefaultWatchDelay is how long the watcher waits after the last event
// before acting on a burst of changes.
const DefaultWatchDelay = 200 * time.Millisecond

// ErrWatcherStarted is returned when Start is called twice.
var ErrWatcherStarted = errors.New("watcher already started")

// Watcher unloads packages whose config file changed on disk so that the
// next access reads the new contents. Packages with pending changes stay
// loaded.
type Watcher struct {
	dir    string
	store  *api.Store
	logger *slog.Logger
	delay  time.Duration

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewWatcher returns a Watcher for dir. A non-positive delay uses DefaultWatchDelay.
func NewWatcher(dir string, store *api.Store, logger *slog.Logger, delay time.Duration) *Watcher {
	if delay <= 0 {
		delay = DefaultWatchDelay
	}

	return &Watcher{dir: dir, store: store, logger: logger, delay: delay}
}

// Start begins watching the directory.
func (w *Watcher) Start(_ context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.watcher != nil {
		return ErrWatcherStarted
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}

	if err := watcher.Add(w.dir); err != nil {
		_ = watcher.Close()

		return fmt.Errorf("watching %q: %w", w.dir, err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	w.watcher = watcher
	w.cancel = cancel
	w.done = make(chan struct{})

	go w.loop(ctx)

	w.logger.Info("watching config directory", slog.String("dir", w.dir))

	return nil
}

// Stop ends watching and waits for the event loop to exit.
func (w *Watcher) Stop(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.watcher == nil {
		return nil
	}

	w.cancel()
	err := w.watcher.Close()

	select {
	case <-w.done:
	case <-ctx.Done():
		return fmt.Errorf("stopping watcher: %w", ctx.Err())
	}

	w.watcher = nil

	if err != nil {
		return fmt.Errorf("closing watcher: %w", err)
	}

	return nil
}

func (w *Watcher) loop(ctx context.Context) {
	defer close(w.done)

	pending := make(map[string]struct{})
	timer := time.NewTimer(w.delay)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			timer.Stop()

			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			name, ok := packageOf(event)
			if !ok {
				continue
			}

			w.logger.Debug("config file changed", slog.String("package", name), slog.String("op", event.Op.String()))

			pending[name] = struct{}{}

			timer.Reset(w.delay)
		case <-timer.C:
			w.flush(ctx, pending)
			clear(pending)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}

			w.logger.Error("watcher error", slog.Any("error", err))
		}
	}
}

// flush unloads the clean packages among names.
func (w *Watcher) flush(ctx context.Context, names map[string]struct{}) {
	err := w.store.Do(ctx, func(c *uci.Context) error {
		loaded := c.Packages()

		for name := range names {
			if !slices.Contains(loaded, name) {
				continue
			}

			pkg, err := c.Package(name)
			if err != nil {
				return err
			}

			if len(pkg.Changes()) > 0 {
				w.logger.Warn("config file changed under pending changes, keeping loaded copy",
					slog.String("package", name))

				continue
			}

			if err := c.Unload(name); err != nil {
				return err
			}

			w.logger.Info("package unloaded after file change", slog.String("package", name))
		}

		return nil
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		w.logger.Error("handling config file change", slog.Any("error", err))
	}
}

// packageOf maps an event to the package it concerns. Hidden and temporary
// files, and names that are not valid package names, are ignored.
func packageOf(event fsnotify.Event) (string, bool) {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return "", false
	}

	name := filepath.Base(event.Name)
	if strings.HasPrefix(name, ".") || strings.Contains(name, ".") {
		return "", false
	}

	if _, err := uci.ParsePath(name); err != nil {
		return "", false
	}

	return name, true
}
