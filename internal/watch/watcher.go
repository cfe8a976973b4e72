// Package watch turns file-save events in the working directory into
// auto-save checkpoints.
package watch

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	gogit "github.com/go-git/go-git/v5"

	"github.com/kurobon/gitsavegame/internal/checkpoint"
)

// AutoSaver is the part of the checkpoint controller the watcher drives.
type AutoSaver interface {
	AutoSave(ctx context.Context, path string) (checkpoint.Checkpoint, bool)
}

// Options configures a Watcher.
type Options struct {
	// Enabled gates forwarding; when it returns false, saves are ignored.
	Enabled  func() bool
	Debounce time.Duration
	// Ignore lists directory names that are never watched.
	Ignore []string
	Logger *slog.Logger
}

// Watcher watches a directory tree and auto-saves files after they are written.
//
// Writes to the same path within the debounce window collapse into one
// auto-save. Start should only be called once.
type Watcher struct {
	root    string
	saver   AutoSaver
	opts    Options
	watcher *fsnotify.Watcher

	mu      sync.Mutex
	pending map[string]*time.Timer
	wg      sync.WaitGroup
}

// New creates a watcher over root.
func New(root string, saver AutoSaver, opts Options) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Enabled == nil {
		opts.Enabled = func() bool { return true }
	}
	return &Watcher{
		root:    root,
		saver:   saver,
		opts:    opts,
		watcher: fw,
		pending: make(map[string]*time.Timer),
	}, nil
}

// Start adds the directory tree and processes events until ctx is cancelled.
// Pending auto-saves are flushed before it returns.
func (w *Watcher) Start(ctx context.Context) error {
	defer w.watcher.Close()

	if err := w.addTree(w.root); err != nil {
		return err
	}
	// Auto-saves already scheduled still run after shutdown begins.
	saveCtx := context.WithoutCancel(ctx)
	w.opts.Logger.Debug("Started watching for saves", "root", w.root)

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				w.flush(saveCtx)
				return nil
			}
			w.handleEvent(saveCtx, event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				w.flush(saveCtx)
				return nil
			}
			w.opts.Logger.Warn("Save watcher error", "error", err)

		case <-ctx.Done():
			w.opts.Logger.Debug("Save watcher stopping")
			w.flush(saveCtx)
			return nil
		}
	}
}

// ignored reports whether a directory is skipped. The git metadata directory
// is always skipped; committing writes into it.
func (w *Watcher) ignored(name string) bool {
	return name == gogit.GitDirName || slices.Contains(w.opts.Ignore, name)
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && w.ignored(d.Name()) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			w.opts.Logger.Warn("Failed to watch directory", "path", path, "error", err)
		}
		return nil
	})
}

func (w *Watcher) handleEvent(ctx context.Context, event fsnotify.Event) {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return
	}

	fi, err := os.Stat(event.Name)
	if err != nil {
		return
	}
	if fi.IsDir() {
		if event.Has(fsnotify.Create) && !w.ignored(filepath.Base(event.Name)) {
			if err := w.addTree(event.Name); err != nil {
				w.opts.Logger.Warn("Failed to watch new directory", "path", event.Name, "error", err)
			}
		}
		return
	}
	if !fi.Mode().IsRegular() {
		return
	}
	w.schedule(ctx, event.Name)
}

func (w *Watcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.pending[path]; ok {
		if t.Stop() {
			w.wg.Done()
		}
	}
	w.wg.Add(1)
	var t *time.Timer
	t = time.AfterFunc(w.opts.Debounce, func() {
		defer w.wg.Done()
		w.mu.Lock()
		if w.pending[path] == t {
			delete(w.pending, path)
		}
		w.mu.Unlock()
		w.save(ctx, path)
	})
	w.pending[path] = t
}

func (w *Watcher) save(ctx context.Context, path string) {
	if !w.opts.Enabled() {
		return
	}
	w.saver.AutoSave(ctx, path)
}

// flush runs pending auto-saves immediately and waits for in-flight ones.
func (w *Watcher) flush(ctx context.Context) {
	w.mu.Lock()
	var due []string
	for path, t := range w.pending {
		if t.Stop() {
			w.wg.Done()
			due = append(due, path)
		}
		delete(w.pending, path)
	}
	w.mu.Unlock()

	for _, path := range due {
		w.save(ctx, path)
	}
	w.wg.Wait()
}
