package postgres

import (
	"database/sql"

	"github.com/btstats/ttwarehouse/internal/domain/match"
)

type matchTableModel struct {
	ID           int64          `db:"id"`
	ClassID      int64          `db:"class_id"`
	ExternalID   string         `db:"external_id"`
	Stage        sql.NullString `db:"stage"`
	BestOf       sql.NullInt32  `db:"best_of"`
	Date         sql.NullTime   `db:"date"`
	WinnerSide   sql.NullInt32  `db:"winner_side"`
	WalkoverSide sql.NullInt32  `db:"walkover_side"`
}

type matchInsertModel struct {
	ClassID      int64          `db:"class_id"`
	ExternalID   string         `db:"external_id"`
	Stage        sql.NullString `db:"stage"`
	BestOf       sql.NullInt32  `db:"best_of"`
	Date         sql.NullTime   `db:"date"`
	WinnerSide   sql.NullInt32  `db:"winner_side"`
	WalkoverSide sql.NullInt32  `db:"walkover_side"`
}

type matchGameInsertModel struct {
	MatchID     int64 `db:"match_id"`
	GameNo      int   `db:"game_no"`
	PointsSide1 int   `db:"points_side1"`
	PointsSide2 int   `db:"points_side2"`
}

type matchGameTableModel struct {
	ID          int64 `db:"id"`
	MatchID     int64 `db:"match_id"`
	GameNo      int   `db:"game_no"`
	PointsSide1 int   `db:"points_side1"`
	PointsSide2 int   `db:"points_side2"`
}

type matchSideModel struct {
	MatchID int64 `db:"match_id"`
	SideNo  int   `db:"side_no"`
	EntryID int64 `db:"entry_id"`
}

type matchPlayerModel struct {
	MatchID     int64         `db:"match_id"`
	SideNo      int           `db:"side_no"`
	PlayerID    int64         `db:"player_id"`
	PlayerOrder int           `db:"player_order"`
	ClubID      sql.NullInt64 `db:"club_id"`
}

var matchSelectColumns = []string{
	"id",
	"class_id",
	"external_id",
	"stage",
	"best_of",
	"date",
	"winner_side",
	"walkover_side",
}

func (m matchTableModel) toDomain() match.Match {
	return match.Match{
		ID:           m.ID,
		ClassID:      m.ClassID,
		ExternalID:   m.ExternalID,
		Stage:        m.Stage.String,
		BestOf:       int(m.BestOf.Int32),
		Date:         nullTimeToPtr(m.Date),
		WinnerSide:   nullInt32ToIntPtr(m.WinnerSide),
		WalkoverSide: nullInt32ToIntPtr(m.WalkoverSide),
	}
}

func intToNullInt32(v int) sql.NullInt32 {
	if v == 0 {
		return sql.NullInt32{}
	}
	return sql.NullInt32{Int32: int32(v), Valid: true}
}
