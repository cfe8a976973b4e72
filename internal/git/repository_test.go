package git

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/go-git/go-git/v5/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kurobon/gitsavegame/internal/checkpoint"
)

func newMemRepo(t *testing.T) (*Repository, billy.Filesystem) {
	t.Helper()
	fs := memfs.New()
	tick := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time {
		tick = tick.Add(time.Minute)
		return tick
	}
	r := NewRepository(memory.NewStorage(), fs,
		WithIdentity(Identity{Name: "Tester", Email: "tester@example.com"}),
		WithClock(clock),
	)
	return r, fs
}

func writeFile(t *testing.T, fs billy.Filesystem, name, content string) {
	t.Helper()
	require.NoError(t, util.WriteFile(fs, name, []byte(content), 0644))
}

func commitFile(t *testing.T, r *Repository, fs billy.Filesystem, name, content, label string) checkpoint.Checkpoint {
	t.Helper()
	ctx := context.Background()
	writeFile(t, fs, name, content)
	require.NoError(t, r.Stage(ctx, checkpoint.StageAll))
	cp, err := r.Commit(ctx, label)
	require.NoError(t, err)
	return cp
}

func TestRepository_Init(t *testing.T) {
	ctx := context.Background()
	r, _ := newMemRepo(t)

	ok, err := r.IsRepository(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	// Operations before init report a missing repository
	err = r.Stage(ctx, checkpoint.StageAll)
	assert.ErrorIs(t, err, checkpoint.ErrNotRepository)

	require.NoError(t, r.Init(ctx))
	ok, err = r.IsRepository(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRepository_LogOrderAndLimit(t *testing.T) {
	ctx := context.Background()
	r, fs := newMemRepo(t)
	require.NoError(t, r.Init(ctx))

	// Unborn HEAD has no checkpoints, and that is not an error
	cps, err := r.Log(ctx, 6)
	require.NoError(t, err)
	assert.Empty(t, cps)

	c1 := commitFile(t, r, fs, "file.txt", "1", "Save: one")
	c2 := commitFile(t, r, fs, "file.txt", "2", "Save: two")
	c3 := commitFile(t, r, fs, "file.txt", "3", "Save: three")

	cps, err = r.Log(ctx, 6)
	require.NoError(t, err)
	require.Len(t, cps, 3)
	assert.Equal(t, []string{c3.ID, c2.ID, c1.ID}, []string{cps[0].ID, cps[1].ID, cps[2].ID})
	assert.Equal(t, "Save: three", cps[0].Label)
	assert.True(t, cps[0].Timestamp.After(cps[2].Timestamp))

	cps, err = r.Log(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, cps, 2)
	assert.Equal(t, c3.ID, cps[0].ID)
}

func TestRepository_StageSinglePath(t *testing.T) {
	ctx := context.Background()
	r, fs := newMemRepo(t)
	require.NoError(t, r.Init(ctx))

	writeFile(t, fs, "a.txt", "a")
	writeFile(t, fs, "b.txt", "b")
	require.NoError(t, r.Stage(ctx, "a.txt"))
	_, err := r.Commit(ctx, "Auto-save: a.txt")
	require.NoError(t, err)

	// b.txt was never staged, so the tree is still dirty
	clean, err := r.IsClean(ctx)
	require.NoError(t, err)
	assert.False(t, clean)
}

func TestRepository_IsClean(t *testing.T) {
	ctx := context.Background()
	r, fs := newMemRepo(t)
	require.NoError(t, r.Init(ctx))
	commitFile(t, r, fs, "file.txt", "v1", "Save: v1")

	clean, err := r.IsClean(ctx)
	require.NoError(t, err)
	assert.True(t, clean)

	writeFile(t, fs, "file.txt", "v2")
	clean, err = r.IsClean(ctx)
	require.NoError(t, err)
	assert.False(t, clean)
}

func TestRepository_CommitNothingFails(t *testing.T) {
	ctx := context.Background()
	r, fs := newMemRepo(t)
	require.NoError(t, r.Init(ctx))
	commitFile(t, r, fs, "file.txt", "v1", "Save: v1")

	require.NoError(t, r.Stage(ctx, checkpoint.StageAll))
	_, err := r.Commit(ctx, "Quick Save: nothing")
	assert.Error(t, err)
}

func TestRepository_HardReset(t *testing.T) {
	ctx := context.Background()
	r, fs := newMemRepo(t)
	require.NoError(t, r.Init(ctx))

	c1 := commitFile(t, r, fs, "file.txt", "first", "Save: first")
	commitFile(t, r, fs, "file.txt", "second", "Save: second")
	writeFile(t, fs, "file.txt", "uncommitted")

	// Abbreviated hashes resolve too
	require.NoError(t, r.HardReset(ctx, c1.ID[:7]))

	content, err := util.ReadFile(fs, "file.txt")
	require.NoError(t, err)
	assert.Equal(t, "first", string(content))

	cps, err := r.Log(ctx, 6)
	require.NoError(t, err)
	require.Len(t, cps, 1)
	assert.Equal(t, c1.ID, cps[0].ID)

	assert.Error(t, r.HardReset(ctx, "0123456789012345678901234567890123456789"))
}

func TestRepository_HardResetRejectsRevisionExpressions(t *testing.T) {
	ctx := context.Background()
	r, fs := newMemRepo(t)
	require.NoError(t, r.Init(ctx))

	commitFile(t, r, fs, "file.txt", "first", "Save: first")
	commitFile(t, r, fs, "file.txt", "second", "Save: second")
	writeFile(t, fs, "file.txt", "uncommitted")

	for _, id := range []string{"HEAD", "HEAD~1", "master", "abc", "deadbeef^"} {
		t.Run(id, func(t *testing.T) {
			assert.ErrorIs(t, r.HardReset(ctx, id), checkpoint.ErrInvalidID)
		})
	}

	content, err := util.ReadFile(fs, "file.txt")
	require.NoError(t, err)
	assert.Equal(t, "uncommitted", string(content))
}

func TestRepository_CancelledContext(t *testing.T) {
	r, _ := newMemRepo(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, r.Init(ctx), context.Canceled)
	_, err := r.Log(ctx, 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOpenDir(t *testing.T) {
	ctx := context.Background()

	t.Run("missing directory", func(t *testing.T) {
		_, err := OpenDir(filepath.Join(t.TempDir(), "nope"))
		assert.ErrorIs(t, err, checkpoint.ErrNoWorkspace)

		_, err = OpenDir("")
		assert.ErrorIs(t, err, checkpoint.ErrNoWorkspace)
	})

	t.Run("absolute paths are staged relative to the root", func(t *testing.T) {
		dir := t.TempDir()
		r, err := OpenDir(dir)
		require.NoError(t, err)
		require.NoError(t, r.Init(ctx))

		_, err = os.Stat(filepath.Join(dir, ".git"))
		require.NoError(t, err)

		path := filepath.Join(dir, "notes.md")
		require.NoError(t, os.WriteFile(path, []byte("hello"), 0644))
		require.NoError(t, r.Stage(ctx, path))
		cp, err := r.Commit(ctx, "Auto-save: notes.md")
		require.NoError(t, err)

		clean, err := r.IsClean(ctx)
		require.NoError(t, err)
		assert.True(t, clean)

		// A fresh handle over the same directory sees the history
		again, err := OpenDir(dir)
		require.NoError(t, err)
		cps, err := again.Log(ctx, 1)
		require.NoError(t, err)
		require.Len(t, cps, 1)
		assert.Equal(t, cp.ID, cps[0].ID)

		outside := filepath.Join(filepath.Dir(dir), "elsewhere.txt")
		assert.Error(t, r.Stage(ctx, outside))
	})
}

func TestControllerOverGoGit(t *testing.T) {
	ctx := context.Background()
	r, fs := newMemRepo(t)
	c := checkpoint.NewController(r, checkpoint.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

	initialized, err := c.EnsureRepository(ctx)
	require.NoError(t, err)
	assert.True(t, initialized)

	// Empty history: all slots empty, not the failure list
	slots := c.ListSlots(ctx, 6)
	require.Len(t, slots, 6)
	assert.True(t, slots[0].Empty())

	writeFile(t, fs, "level.txt", "1")
	first, err := c.NamedSave(ctx, "level 1")
	require.NoError(t, err)
	writeFile(t, fs, "level.txt", "2")
	_, err = c.QuickSave(ctx)
	require.NoError(t, err)

	// Dirty tree, save first, then restore the first checkpoint
	writeFile(t, fs, "level.txt", "3")
	outcome, err := c.Restore(ctx, first.ID, checkpoint.StaticConfirmer{Choice: checkpoint.ChoiceSaveFirst, Label: "before restore"})
	require.NoError(t, err)
	assert.Equal(t, checkpoint.RestoreCompleted, outcome)

	slots = c.ListSlots(ctx, 6)
	require.Len(t, slots, 6)
	assert.Equal(t, first.ID, slots[0].ID())
	assert.Equal(t, "Save: level 1", slots[0].Checkpoint.Label)
	assert.True(t, slots[1].Empty())

	content, err := util.ReadFile(fs, "level.txt")
	require.NoError(t, err)
	assert.Equal(t, "1", string(content))
}
