package class

import "context"

// Repository persists canonical tournament classes.
//
// SetParent must be a guarded write: it links only when the stored parent is
// currently null, so re-running hierarchy resolution never reassigns an
// existing link.
type Repository interface {
	ListAll(ctx context.Context) ([]TournamentClass, error)
	GetByExternalID(ctx context.Context, externalID string) (TournamentClass, bool, error)
	Upsert(ctx context.Context, c TournamentClass) (int64, error)
	SetParent(ctx context.Context, classID, parentID int64) error
}
