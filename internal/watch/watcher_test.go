package watch

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kurobon/gitsavegame/internal/checkpoint"
)

type recordingSaver struct {
	mu    sync.Mutex
	paths []string
}

func (r *recordingSaver) AutoSave(_ context.Context, path string) (checkpoint.Checkpoint, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, path)
	return checkpoint.Checkpoint{ID: "x"}, true
}

func (r *recordingSaver) Paths() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.paths...)
}

func startWatcher(t *testing.T, saver AutoSaver, enabled func() bool, ignore ...string) string {
	t.Helper()
	root, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, os.Mkdir(filepath.Join(root, ".git"), 0o755))

	w, err := New(root, saver, Options{
		Enabled:  enabled,
		Debounce: 20 * time.Millisecond,
		Ignore:   ignore,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Start(ctx) }()
	t.Cleanup(func() {
		cancel()
		assert.NoError(t, <-done)
	})
	// Give the watcher time to register the tree.
	time.Sleep(50 * time.Millisecond)
	return root
}

func TestWatcher_AutoSavesWrittenFiles(t *testing.T) {
	saver := &recordingSaver{}
	root := startWatcher(t, saver, nil)

	path := filepath.Join(root, "main.go")
	require.NoError(t, os.WriteFile(path, []byte("package main"), 0o644))

	assert.Eventually(t, func() bool {
		for _, p := range saver.Paths() {
			if p == path {
				return true
			}
		}
		return false
	}, 2*time.Second, 10*time.Millisecond)
}

func TestWatcher_DebouncesRepeatedWrites(t *testing.T) {
	saver := &recordingSaver{}
	root := startWatcher(t, saver, nil)

	path := filepath.Join(root, "notes.md")
	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(path, []byte{byte('a' + i)}, 0o644))
	}

	assert.Eventually(t, func() bool { return len(saver.Paths()) > 0 }, 2*time.Second, 10*time.Millisecond)
	time.Sleep(100 * time.Millisecond)
	assert.Len(t, saver.Paths(), 1)
}

func TestWatcher_IgnoresGitDirAndDisabled(t *testing.T) {
	saver := &recordingSaver{}
	var enabled atomic.Bool
	root := startWatcher(t, saver, enabled.Load)

	require.NoError(t, os.WriteFile(filepath.Join(root, "off.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".git", "index"), []byte("x"), 0o644))
	time.Sleep(150 * time.Millisecond)
	assert.Empty(t, saver.Paths())

	enabled.Store(true)
	on := filepath.Join(root, "on.txt")
	require.NoError(t, os.WriteFile(on, []byte("x"), 0o644))
	assert.Eventually(t, func() bool { return len(saver.Paths()) == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{on}, saver.Paths())
}

func TestWatcher_WatchesNewDirectories(t *testing.T) {
	saver := &recordingSaver{}
	root := startWatcher(t, saver, nil)

	dir := filepath.Join(root, "levels")
	require.NoError(t, os.Mkdir(dir, 0o755))
	path := filepath.Join(dir, "one.txt")

	assert.Eventually(t, func() bool {
		// Rewrite until the new directory's watch is in place.
		_ = os.WriteFile(path, []byte("1"), 0o644)
		for _, p := range saver.Paths() {
			if p == path {
				return true
			}
		}
		return false
	}, 2*time.Second, 50*time.Millisecond)
}

func TestWatcher_AlwaysIgnoresGitDir(t *testing.T) {
	saver := &recordingSaver{}
	root := startWatcher(t, saver, nil, "node_modules")

	require.NoError(t, os.WriteFile(filepath.Join(root, ".git", "index"), []byte("x"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(root, ".git", "objects"), 0o755))
	require.NoError(t, os.Mkdir(filepath.Join(root, "node_modules"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "node_modules", "dep.js"), []byte("x"), 0o644))

	visible := filepath.Join(root, "game.txt")
	require.NoError(t, os.WriteFile(visible, []byte("x"), 0o644))

	assert.Eventually(t, func() bool { return len(saver.Paths()) > 0 }, 2*time.Second, 10*time.Millisecond)
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, []string{visible}, saver.Paths())
}
