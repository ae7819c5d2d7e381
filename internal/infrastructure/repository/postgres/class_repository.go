package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/btstats/ttwarehouse/internal/domain/class"
	qb "github.com/btstats/ttwarehouse/internal/platform/querybuilder"
)

type ClassRepository struct {
	db *sqlx.DB
}

func NewClassRepository(db *sqlx.DB) *ClassRepository {
	return &ClassRepository{db: db}
}

func (r *ClassRepository) ListAll(ctx context.Context) ([]class.TournamentClass, error) {
	query, args, err := qb.Select(classSelectColumns...).From("tournament_classes").
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select classes query: %w", err)
	}

	var rows []classTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select classes: %w", err)
	}

	out := make([]class.TournamentClass, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *ClassRepository) GetByExternalID(ctx context.Context, externalID string) (class.TournamentClass, bool, error) {
	query, args, err := qb.Select(classSelectColumns...).From("tournament_classes").
		Where(qb.Eq("external_id", externalID)).
		ToSQL()
	if err != nil {
		return class.TournamentClass{}, false, fmt.Errorf("build select class by external id query: %w", err)
	}

	var row classTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return class.TournamentClass{}, false, nil
		}
		return class.TournamentClass{}, false, fmt.Errorf("select class by external id: %w", err)
	}
	return row.toDomain(), true, nil
}

// Upsert inserts or refreshes a class by external id. The parent link is
// deliberately not part of the update set; hierarchy writes go through
// SetParent only.
func (r *ClassRepository) Upsert(ctx context.Context, c class.TournamentClass) (int64, error) {
	if err := c.Validate(); err != nil {
		return 0, err
	}

	insert := classInsertModel{
		TournamentIDExt: c.TournamentIDExt,
		ExternalID:      c.ExternalID,
		Shortname:       c.Shortname,
		Longname:        c.Longname,
		StartDate:       ptrToNullTime(c.StartDate),
		Gender:          nullableString(c.Gender),
	}
	query, args, err := qb.InsertModel("tournament_classes", insert, `ON CONFLICT (external_id)
DO UPDATE SET
    tournament_id_ext = EXCLUDED.tournament_id_ext,
    shortname = EXCLUDED.shortname,
    longname = EXCLUDED.longname,
    start_date = EXCLUDED.start_date,
    gender = EXCLUDED.gender
RETURNING id`)
	if err != nil {
		return 0, fmt.Errorf("build upsert class query: %w", err)
	}

	var id int64
	if err := r.db.GetContext(ctx, &id, query, args...); err != nil {
		return 0, fmt.Errorf("upsert class external_id=%s: %w", c.ExternalID, err)
	}
	return id, nil
}

// SetParent links a class to its parent only when no parent is set yet.
// Re-linking to the same parent is a no-op; anything else is rejected.
func (r *ClassRepository) SetParent(ctx context.Context, classID, parentID int64) error {
	query, args, err := qb.Update("tournament_classes").
		Set("parent_class_id", parentID).
		Where(
			qb.Eq("id", classID),
			qb.IsNull("parent_class_id"),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build set class parent query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("set class parent: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("set class parent rows affected: %w", err)
	}
	if affected > 0 {
		return nil
	}

	current, found, err := r.getParent(ctx, classID)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("class %d not found", classID)
	}
	if current != nil && *current == parentID {
		return nil
	}
	return fmt.Errorf("class %d already has a parent", classID)
}

func (r *ClassRepository) getParent(ctx context.Context, classID int64) (*int64, bool, error) {
	query, args, err := qb.Select("parent_class_id").From("tournament_classes").
		Where(qb.Eq("id", classID)).
		ToSQL()
	if err != nil {
		return nil, false, fmt.Errorf("build select class parent query: %w", err)
	}

	var parent sql.NullInt64
	if err := r.db.GetContext(ctx, &parent, query, args...); err != nil {
		if isNotFound(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("select class parent: %w", err)
	}
	return nullInt64ToPtr(parent), true, nil
}
