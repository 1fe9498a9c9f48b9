// Package watcher ingests files dropped into an inbox directory.
package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const defaultDebounce = 400 * time.Millisecond

// Handler is invoked once per settled file.
type Handler func(ctx context.Context, path string)

// Inbox watches one directory and calls the handler after writes settle.
type Inbox struct {
	dir      string
	debounce time.Duration
	handle   Handler
	logger   *zap.Logger

	mu      sync.Mutex
	timers  map[string]*time.Timer
	watcher *fsnotify.Watcher
	wg      sync.WaitGroup
}

// NewInbox creates an inbox watcher. debounce <= 0 uses the default.
func NewInbox(dir string, debounce time.Duration, handle Handler, logger *zap.Logger) *Inbox {
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Inbox{dir: dir, debounce: debounce, handle: handle, logger: logger, timers: make(map[string]*time.Timer)}
}

// Start creates the directory if needed, queues files already present and watches for new ones
// until ctx is cancelled.
func (in *Inbox) Start(ctx context.Context) error {
	if in.dir == "" {
		return errors.New("inbox directory is required")
	}
	if err := os.MkdirAll(in.dir, 0o755); err != nil {
		return err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := w.Add(in.dir); err != nil {
		_ = w.Close()
		return err
	}
	in.mu.Lock()
	in.watcher = w
	in.mu.Unlock()

	entries, err := os.ReadDir(in.dir)
	if err == nil {
		for _, e := range entries {
			if e.Type().IsRegular() && !hidden(e.Name()) {
				in.schedule(ctx, filepath.Join(in.dir, e.Name()))
			}
		}
	}

	in.wg.Add(1)
	go in.run(ctx)
	in.logger.Info("inbox watcher started", zap.String("dir", in.dir))
	return nil
}

// Wait blocks until the event loop has exited after ctx cancellation.
func (in *Inbox) Wait() {
	in.wg.Wait()
}

func (in *Inbox) run(ctx context.Context) {
	defer in.wg.Done()
	defer in.stop()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-in.watcher.Events:
			if !ok {
				return
			}
			in.handleEvent(ctx, ev)
		case err, ok := <-in.watcher.Errors:
			if !ok {
				return
			}
			in.logger.Warn("inbox watcher error", zap.Error(err))
		}
	}
}

func (in *Inbox) handleEvent(ctx context.Context, ev fsnotify.Event) {
	if hidden(filepath.Base(ev.Name)) {
		return
	}
	switch {
	case ev.Has(fsnotify.Create), ev.Has(fsnotify.Write):
		info, err := os.Stat(ev.Name)
		if err != nil || !info.Mode().IsRegular() {
			return
		}
		in.schedule(ctx, ev.Name)
	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		in.cancel(ev.Name)
	}
}

func (in *Inbox) schedule(ctx context.Context, path string) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if t, ok := in.timers[path]; ok {
		t.Reset(in.debounce)
		return
	}
	in.timers[path] = time.AfterFunc(in.debounce, func() {
		in.mu.Lock()
		delete(in.timers, path)
		in.mu.Unlock()
		if ctx.Err() != nil {
			return
		}
		in.logger.Debug("inbox file settled", zap.String("path", path))
		in.handle(ctx, path)
	})
}

func (in *Inbox) cancel(path string) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if t, ok := in.timers[path]; ok {
		t.Stop()
		delete(in.timers, path)
	}
}

func (in *Inbox) stop() {
	in.mu.Lock()
	defer in.mu.Unlock()
	for path, t := range in.timers {
		t.Stop()
		delete(in.timers, path)
	}
	if in.watcher != nil {
		_ = in.watcher.Close()
		in.watcher = nil
	}
}

// hidden skips dotfiles and editor swap files.
func hidden(name string) bool {
	return strings.HasPrefix(name, ".") || strings.HasSuffix(name, "~") || strings.HasSuffix(name, ".swp")
}
