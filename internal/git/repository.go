// Package git implements the checkpoint version-control capability on go-git.
package git

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/cache"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
	"github.com/go-git/go-git/v5/storage"
	"github.com/go-git/go-git/v5/storage/filesystem"

	"github.com/kurobon/gitsavegame/internal/checkpoint"
)

// Repository is a working directory under go-git version control.
type Repository struct {
	storer   storage.Storer
	worktree billy.Filesystem
	root     string // absolute on-disk root, "" for in-memory worktrees
	identity Identity
	now      func() time.Time

	mu   sync.Mutex
	repo *gogit.Repository
}

// Ensure Repository implements checkpoint.Repository
var _ checkpoint.Repository = (*Repository)(nil)

// Option configures a Repository.
type Option func(*Repository)

// WithIdentity sets the commit author.
func WithIdentity(id Identity) Option {
	return func(r *Repository) { r.identity = id }
}

// WithClock overrides the commit timestamp source.
func WithClock(now func() time.Time) Option {
	return func(r *Repository) { r.now = now }
}

// NewRepository wraps an arbitrary storer and worktree filesystem, e.g.
// memory.NewStorage() and memfs.New() in tests.
func NewRepository(s storage.Storer, worktree billy.Filesystem, opts ...Option) *Repository {
	r := &Repository{
		storer:   s,
		worktree: worktree,
		identity: DefaultIdentity(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// OpenDir uses dir on disk as the working directory, with metadata in dir/.git.
// The directory itself must already exist.
func OpenDir(dir string, opts ...Option) (*Repository, error) {
	if dir == "" {
		return nil, checkpoint.ErrNoWorkspace
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", checkpoint.ErrNoWorkspace, err)
	}
	fi, err := os.Stat(abs)
	if err != nil || !fi.IsDir() {
		return nil, fmt.Errorf("%w: %s", checkpoint.ErrNoWorkspace, abs)
	}

	wt := osfs.New(abs)
	dot, err := wt.Chroot(gogit.GitDirName)
	if err != nil {
		return nil, err
	}
	r := NewRepository(filesystem.NewStorage(dot, cache.NewObjectLRUDefault()), wt, opts...)
	r.root = abs
	return r, nil
}

// Root returns the absolute working directory, or "" for in-memory worktrees.
func (r *Repository) Root() string {
	return r.root
}

func (r *Repository) open() (*gogit.Repository, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.repo != nil {
		return r.repo, nil
	}
	repo, err := gogit.Open(r.storer, r.worktree)
	if err != nil {
		if errors.Is(err, gogit.ErrRepositoryNotExists) {
			return nil, checkpoint.ErrNotRepository
		}
		return nil, err
	}
	r.repo = repo
	return repo, nil
}

func (r *Repository) worktreeOf() (*gogit.Repository, *gogit.Worktree, error) {
	repo, err := r.open()
	if err != nil {
		return nil, nil, err
	}
	w, err := repo.Worktree()
	if err != nil {
		return nil, nil, err
	}
	return repo, w, nil
}

func (r *Repository) IsRepository(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	_, err := r.open()
	if errors.Is(err, checkpoint.ErrNotRepository) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *Repository) Init(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	repo, err := gogit.Init(r.storer, r.worktree)
	if err != nil {
		return err
	}
	r.repo = repo
	return nil
}

func (r *Repository) Stage(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, w, err := r.worktreeOf()
	if err != nil {
		return err
	}

	if path == checkpoint.StageAll {
		return w.AddWithOptions(&gogit.AddOptions{All: true})
	}

	rel, err := r.relative(path)
	if err != nil {
		return err
	}
	_, err = w.Add(rel)
	return err
}

// relative converts an absolute on-disk path into a worktree path.
func (r *Repository) relative(path string) (string, error) {
	if !filepath.IsAbs(path) || r.root == "" {
		return filepath.ToSlash(path), nil
	}
	rel, err := filepath.Rel(r.root, path)
	if err != nil {
		return "", err
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s is outside the working directory %s", path, r.root)
	}
	return filepath.ToSlash(rel), nil
}

func (r *Repository) Commit(ctx context.Context, label string) (checkpoint.Checkpoint, error) {
	if err := ctx.Err(); err != nil {
		return checkpoint.Checkpoint{}, err
	}
	repo, w, err := r.worktreeOf()
	if err != nil {
		return checkpoint.Checkpoint{}, err
	}

	hash, err := w.Commit(label, &gogit.CommitOptions{
		Author: r.identity.Signature(r.now()),
	})
	if err != nil {
		return checkpoint.Checkpoint{}, err
	}
	c, err := repo.CommitObject(hash)
	if err != nil {
		return checkpoint.Checkpoint{}, err
	}
	return toCheckpoint(c), nil
}

func (r *Repository) Log(ctx context.Context, maxCount int) ([]checkpoint.Checkpoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if maxCount <= 0 {
		return []checkpoint.Checkpoint{}, nil
	}
	repo, err := r.open()
	if err != nil {
		return nil, err
	}

	head, err := repo.Head()
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		// No commits yet
		return []checkpoint.Checkpoint{}, nil
	}
	if err != nil {
		return nil, err
	}

	cIter, err := repo.Log(&gogit.LogOptions{From: head.Hash()})
	if err != nil {
		return nil, err
	}
	defer cIter.Close()

	out := make([]checkpoint.Checkpoint, 0, maxCount)
	err = cIter.ForEach(func(c *object.Commit) error {
		out = append(out, toCheckpoint(c))
		if len(out) >= maxCount {
			return storer.ErrStop
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repository) IsClean(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	_, w, err := r.worktreeOf()
	if err != nil {
		return false, err
	}
	status, err := w.Status()
	if err != nil {
		return false, err
	}
	return status.IsClean(), nil
}

func (r *Repository) HardReset(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !checkpoint.IsCommitHash(id) {
		return fmt.Errorf("%q: %w", id, checkpoint.ErrInvalidID)
	}
	repo, w, err := r.worktreeOf()
	if err != nil {
		return err
	}

	target, err := repo.ResolveRevision(plumbing.Revision(id))
	if err != nil {
		return err
	}
	if _, err := repo.CommitObject(*target); err != nil {
		return fmt.Errorf("%s: %w", id, err)
	}
	return w.Reset(&gogit.ResetOptions{
		Commit: *target,
		Mode:   gogit.HardReset,
	})
}

func toCheckpoint(c *object.Commit) checkpoint.Checkpoint {
	return checkpoint.Checkpoint{
		ID:        c.Hash.String(),
		Label:     strings.TrimRight(c.Message, "\n"),
		Timestamp: c.Author.When,
	}
}
