package entry

import "context"

// Repository persists class entries. (class_id, player_id) is unique;
// Upsert updates seed/final position in place on conflict and never flips
// is_synthetic from false to true.
type Repository interface {
	ListByClass(ctx context.Context, classID int64) ([]Entry, error)
	GetByClassAndPlayer(ctx context.Context, classID, playerID int64) (Entry, bool, error)
	Upsert(ctx context.Context, e Entry) (int64, error)
	CountByClass(ctx context.Context, classID int64, includeSynthetic bool) (int64, error)
}
