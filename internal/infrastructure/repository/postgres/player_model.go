package postgres

import (
	"database/sql"

	"github.com/btstats/ttwarehouse/internal/domain/player"
)

type playerTableModel struct {
	ID          int64          `db:"id"`
	IsVerified  bool           `db:"is_verified"`
	ExternalID  sql.NullString `db:"external_id"`
	FullnameRaw string         `db:"fullname_raw"`
	FullnameKey string         `db:"fullname_key"`
	ClubID      sql.NullInt64  `db:"club_id"`
}

type playerInsertModel struct {
	IsVerified  bool           `db:"is_verified"`
	ExternalID  sql.NullString `db:"external_id"`
	FullnameRaw string         `db:"fullname_raw"`
	FullnameKey string         `db:"fullname_key"`
	ClubID      sql.NullInt64  `db:"club_id"`
}

var playerSelectColumns = []string{
	"id",
	"is_verified",
	"external_id",
	"fullname_raw",
	"fullname_key",
	"club_id",
}

func (m playerTableModel) toDomain() player.Player {
	return player.Player{
		ID:          m.ID,
		IsVerified:  m.IsVerified,
		ExternalID:  m.ExternalID.String,
		FullnameRaw: m.FullnameRaw,
		FullnameKey: m.FullnameKey,
		ClubID:      nullInt64ToPtr(m.ClubID),
	}
}

func nullInt64ToPtr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	value := v.Int64
	return &value
}

func ptrToNullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func nullableString(v string) sql.NullString {
	if v == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: v, Valid: true}
}
