package match

import "context"

// Repository persists match bundles. ReplaceForClass swaps out a class's
// entire match set in one transaction, the unit of work for match
// normalization, and reports how many prior matches were removed.
type Repository interface {
	ReplaceForClass(ctx context.Context, classID int64, bundles []Bundle) (int64, error)
	ListByClass(ctx context.Context, classID int64) ([]Bundle, error)
}
