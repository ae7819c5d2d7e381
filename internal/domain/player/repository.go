package player

import "context"

// Repository persists canonical players.
//
// Merge must execute repoint-then-delete atomically: every dependent row
// (class entries, match sides, match players) is repointed from each loser
// id to the survivor, unique collisions are dropped in favor of the kept
// row after their match sides have been repointed to it, and the loser rows
// are deleted, all in one transaction so no window with dangling references
// exists. Each loser's external id is recorded as an alias so
// GetByExternalID keeps resolving it to the survivor.
type Repository interface {
	ListVerified(ctx context.Context) ([]Player, error)
	ListUnverified(ctx context.Context) ([]Player, error)
	GetByExternalID(ctx context.Context, externalID string) (Player, bool, error)
	Create(ctx context.Context, p Player) (int64, error)
	Update(ctx context.Context, p Player) error
	Merge(ctx context.Context, survivorID int64, loserIDs []int64) error
	DeleteUnreferencedUnverified(ctx context.Context) (int64, error)
}
