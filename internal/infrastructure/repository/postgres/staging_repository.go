package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/btstats/ttwarehouse/internal/domain/staging"
	qb "github.com/btstats/ttwarehouse/internal/platform/querybuilder"
)

type StagingRepository struct {
	db *sqlx.DB
}

func NewStagingRepository(db *sqlx.DB) *StagingRepository {
	return &StagingRepository{db: db}
}

// UpsertBatch applies one ingestion batch in a single transaction. Existing
// hashes are read up front so each row's outcome is decided before any write.
func (r *StagingRepository) UpsertBatch(ctx context.Context, rows []staging.Row) ([]staging.Outcome, error) {
	if len(rows) == 0 {
		return []staging.Outcome{}, nil
	}

	table, ok := stagingTable(rows[0].Category)
	if !ok {
		return nil, fmt.Errorf("unknown staging category %q", rows[0].Category)
	}
	for _, row := range rows {
		if row.Category != rows[0].Category {
			return nil, fmt.Errorf("mixed staging categories in one batch: %q and %q", rows[0].Category, row.Category)
		}
	}

	keys := make([]string, 0, len(rows))
	for _, row := range rows {
		keys = append(keys, row.SourceKey)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx upsert staging batch: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query, args, err := qb.Select("source_key", "content_hash").From(table).
		Where(qb.In("source_key", stringSliceToAny(keys))).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select staging hashes query: %w", err)
	}

	var existing []struct {
		SourceKey   string `db:"source_key"`
		ContentHash string `db:"content_hash"`
	}
	if err := tx.SelectContext(ctx, &existing, query, args...); err != nil {
		return nil, fmt.Errorf("select staging hashes: %w", err)
	}
	hashes := make(map[string]string, len(existing))
	for _, e := range existing {
		hashes[e.SourceKey] = e.ContentHash
	}

	outcomes := make([]staging.Outcome, 0, len(rows))
	for _, row := range rows {
		oldHash, found := hashes[row.SourceKey]

		switch {
		case !found:
			insert := stagingInsertModel{
				SourceKey:    row.SourceKey,
				ContentHash:  row.ContentHash,
				Payload:      row.Payload,
				LastSeenAt:   row.LastSeenAt,
				NeedsResolve: true,
			}
			query, args, err := qb.InsertModel(table, insert, "")
			if err != nil {
				return nil, fmt.Errorf("build insert staging row query: %w", err)
			}
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return nil, fmt.Errorf("insert staging row key=%s: %w", row.SourceKey, err)
			}
			outcomes = append(outcomes, staging.OutcomeInserted)

		case oldHash == row.ContentHash:
			query, args, err := qb.Update(table).
				Set("last_seen_at", row.LastSeenAt).
				Where(qb.Eq("source_key", row.SourceKey)).
				ToSQL()
			if err != nil {
				return nil, fmt.Errorf("build touch staging row query: %w", err)
			}
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return nil, fmt.Errorf("touch staging row key=%s: %w", row.SourceKey, err)
			}
			outcomes = append(outcomes, staging.OutcomeUnchanged)

		default:
			query, args, err := qb.Update(table).
				Set("content_hash", row.ContentHash).
				Set("payload", row.Payload).
				Set("last_seen_at", row.LastSeenAt).
				Set("needs_resolve", true).
				Where(qb.Eq("source_key", row.SourceKey)).
				ToSQL()
			if err != nil {
				return nil, fmt.Errorf("build update staging row query: %w", err)
			}
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return nil, fmt.Errorf("update staging row key=%s: %w", row.SourceKey, err)
			}
			outcomes = append(outcomes, staging.OutcomeUpdated)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit upsert staging batch tx: %w", err)
	}
	return outcomes, nil
}

func (r *StagingRepository) ListPending(ctx context.Context, category staging.Category) ([]staging.Row, error) {
	return r.list(ctx, category, true)
}

func (r *StagingRepository) ListAll(ctx context.Context, category staging.Category) ([]staging.Row, error) {
	return r.list(ctx, category, false)
}

func (r *StagingRepository) list(ctx context.Context, category staging.Category, pendingOnly bool) ([]staging.Row, error) {
	table, ok := stagingTable(category)
	if !ok {
		return nil, fmt.Errorf("unknown staging category %q", category)
	}

	builder := qb.Select(stagingSelectColumns...).From(table).OrderBy("id")
	if pendingOnly {
		builder = builder.Where(qb.Eq("needs_resolve", true))
	}
	query, args, err := builder.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select staging rows query: %w", err)
	}

	var models []stagingTableModel
	if err := r.db.SelectContext(ctx, &models, query, args...); err != nil {
		return nil, fmt.Errorf("select staging rows: %w", err)
	}

	out := make([]staging.Row, 0, len(models))
	for _, m := range models {
		out = append(out, m.toDomain(category))
	}
	return out, nil
}

func (r *StagingRepository) MarkResolved(ctx context.Context, category staging.Category, sourceKeys []string) error {
	if len(sourceKeys) == 0 {
		return nil
	}
	table, ok := stagingTable(category)
	if !ok {
		return fmt.Errorf("unknown staging category %q", category)
	}

	query, args, err := qb.Update(table).
		Set("needs_resolve", false).
		Where(qb.In("source_key", stringSliceToAny(sourceKeys))).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build mark staging rows resolved query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("mark staging rows resolved: %w", err)
	}
	return nil
}
