package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/btstats/ttwarehouse/internal/domain/entry"
	qb "github.com/btstats/ttwarehouse/internal/platform/querybuilder"
)

type EntryRepository struct {
	db *sqlx.DB
}

func NewEntryRepository(db *sqlx.DB) *EntryRepository {
	return &EntryRepository{db: db}
}

func (r *EntryRepository) ListByClass(ctx context.Context, classID int64) ([]entry.Entry, error) {
	query, args, err := qb.Select(entrySelectColumns...).From("class_entries").
		Where(qb.Eq("class_id", classID)).
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select entries by class query: %w", err)
	}

	var rows []entryTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select entries by class: %w", err)
	}

	out := make([]entry.Entry, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *EntryRepository) GetByClassAndPlayer(ctx context.Context, classID, playerID int64) (entry.Entry, bool, error) {
	query, args, err := qb.Select(entrySelectColumns...).From("class_entries").
		Where(
			qb.Eq("class_id", classID),
			qb.Eq("player_id", playerID),
		).
		ToSQL()
	if err != nil {
		return entry.Entry{}, false, fmt.Errorf("build select entry by class and player query: %w", err)
	}

	var row entryTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return entry.Entry{}, false, nil
		}
		return entry.Entry{}, false, fmt.Errorf("select entry by class and player: %w", err)
	}
	return row.toDomain(), true, nil
}

// Upsert inserts or refreshes an entry on its (class, player) key. A genuine
// registration supersedes a synthesized one, never the other way around.
func (r *EntryRepository) Upsert(ctx context.Context, e entry.Entry) (int64, error) {
	if err := e.Validate(); err != nil {
		return 0, err
	}

	insert := entryInsertModel{
		ClassID:       e.ClassID,
		PlayerID:      e.PlayerID,
		ClubID:        ptrToNullInt64(e.ClubID),
		Seed:          intPtrToNullInt32(e.Seed),
		FinalPosition: intPtrToNullInt32(e.FinalPosition),
		IsSynthetic:   e.IsSynthetic,
	}
	query, args, err := qb.InsertModel("class_entries", insert, `ON CONFLICT (class_id, player_id)
DO UPDATE SET
    club_id = EXCLUDED.club_id,
    seed = EXCLUDED.seed,
    final_position = EXCLUDED.final_position,
    is_synthetic = class_entries.is_synthetic AND EXCLUDED.is_synthetic
RETURNING id`)
	if err != nil {
		return 0, fmt.Errorf("build upsert entry query: %w", err)
	}

	var id int64
	if err := r.db.GetContext(ctx, &id, query, args...); err != nil {
		return 0, fmt.Errorf("upsert entry class=%d player=%d: %w", e.ClassID, e.PlayerID, err)
	}
	return id, nil
}

func (r *EntryRepository) CountByClass(ctx context.Context, classID int64, includeSynthetic bool) (int64, error) {
	builder := qb.Select("COUNT(*)").From("class_entries").
		Where(qb.Eq("class_id", classID))
	if !includeSynthetic {
		builder = builder.Where(qb.Eq("is_synthetic", false))
	}
	query, args, err := builder.ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build count entries by class query: %w", err)
	}

	var count int64
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("count entries by class: %w", err)
	}
	return count, nil
}
