package postgres

import (
	"database/sql"

	"github.com/btstats/ttwarehouse/internal/domain/entry"
)

type entryTableModel struct {
	ID            int64         `db:"id"`
	ClassID       int64         `db:"class_id"`
	PlayerID      int64         `db:"player_id"`
	ClubID        sql.NullInt64 `db:"club_id"`
	Seed          sql.NullInt32 `db:"seed"`
	FinalPosition sql.NullInt32 `db:"final_position"`
	IsSynthetic   bool          `db:"is_synthetic"`
}

type entryInsertModel struct {
	ClassID       int64         `db:"class_id"`
	PlayerID      int64         `db:"player_id"`
	ClubID        sql.NullInt64 `db:"club_id"`
	Seed          sql.NullInt32 `db:"seed"`
	FinalPosition sql.NullInt32 `db:"final_position"`
	IsSynthetic   bool          `db:"is_synthetic"`
}

var entrySelectColumns = []string{
	"id",
	"class_id",
	"player_id",
	"club_id",
	"seed",
	"final_position",
	"is_synthetic",
}

func (m entryTableModel) toDomain() entry.Entry {
	return entry.Entry{
		ID:            m.ID,
		ClassID:       m.ClassID,
		PlayerID:      m.PlayerID,
		ClubID:        nullInt64ToPtr(m.ClubID),
		Seed:          nullInt32ToIntPtr(m.Seed),
		FinalPosition: nullInt32ToIntPtr(m.FinalPosition),
		IsSynthetic:   m.IsSynthetic,
	}
}

func nullInt32ToIntPtr(v sql.NullInt32) *int {
	if !v.Valid {
		return nil
	}
	value := int(v.Int32)
	return &value
}

func intPtrToNullInt32(v *int) sql.NullInt32 {
	if v == nil {
		return sql.NullInt32{}
	}
	return sql.NullInt32{Int32: int32(*v), Valid: true}
}
