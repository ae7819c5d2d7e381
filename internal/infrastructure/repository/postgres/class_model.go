package postgres

import (
	"database/sql"
	"time"

	"github.com/btstats/ttwarehouse/internal/domain/class"
)

type classTableModel struct {
	ID              int64          `db:"id"`
	TournamentIDExt string         `db:"tournament_id_ext"`
	ExternalID      string         `db:"external_id"`
	Shortname       string         `db:"shortname"`
	Longname        string         `db:"longname"`
	StartDate       sql.NullTime   `db:"start_date"`
	Gender          sql.NullString `db:"gender"`
	ParentID        sql.NullInt64  `db:"parent_class_id"`
}

type classInsertModel struct {
	TournamentIDExt string         `db:"tournament_id_ext"`
	ExternalID      string         `db:"external_id"`
	Shortname       string         `db:"shortname"`
	Longname        string         `db:"longname"`
	StartDate       sql.NullTime   `db:"start_date"`
	Gender          sql.NullString `db:"gender"`
}

var classSelectColumns = []string{
	"id",
	"tournament_id_ext",
	"external_id",
	"shortname",
	"longname",
	"start_date",
	"gender",
	"parent_class_id",
}

func (m classTableModel) toDomain() class.TournamentClass {
	return class.TournamentClass{
		ID:              m.ID,
		TournamentIDExt: m.TournamentIDExt,
		ExternalID:      m.ExternalID,
		Shortname:       m.Shortname,
		Longname:        m.Longname,
		StartDate:       nullTimeToPtr(m.StartDate),
		Gender:          m.Gender.String,
		ParentID:        nullInt64ToPtr(m.ParentID),
	}
}

func nullTimeToPtr(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	value := v.Time
	return &value
}

func ptrToNullTime(v *time.Time) sql.NullTime {
	if v == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *v, Valid: true}
}
