package checkpoint

import "context"

// StageAll is the Stage path that selects the whole working tree.
const StageAll = "."

// Repository is the version-control capability the controller drives.
// Implementations pass engine errors through unmodified.
type Repository interface {
	IsRepository(ctx context.Context) (bool, error)
	Init(ctx context.Context) error
	Stage(ctx context.Context, path string) error
	Commit(ctx context.Context, label string) (Checkpoint, error)
	// Log returns up to maxCount checkpoints reachable from HEAD, most recent first.
	Log(ctx context.Context, maxCount int) ([]Checkpoint, error)
	IsClean(ctx context.Context) (bool, error)
	HardReset(ctx context.Context, id string) error
}
