package staging

import "context"

// Repository persists staging rows. UpsertBatch implements the change
// detector contract: per row it reports inserted, updated, or unchanged, and
// unchanged rows only get their last_seen_at bumped.
type Repository interface {
	UpsertBatch(ctx context.Context, rows []Row) ([]Outcome, error)
	ListPending(ctx context.Context, category Category) ([]Row, error)
	ListAll(ctx context.Context, category Category) ([]Row, error)
	MarkResolved(ctx context.Context, category Category, sourceKeys []string) error
}
