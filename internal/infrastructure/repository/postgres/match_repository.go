package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/btstats/ttwarehouse/internal/domain/match"
	qb "github.com/btstats/ttwarehouse/internal/platform/querybuilder"
)

type MatchRepository struct {
	db *sqlx.DB
}

func NewMatchRepository(db *sqlx.DB) *MatchRepository {
	return &MatchRepository{db: db}
}

const deleteMatchChildren = `
DELETE FROM %s WHERE match_id IN (SELECT id FROM matches WHERE class_id = $1)`

// ReplaceForClass deletes a class's matches and their children, then inserts
// the rebuilt set, all in one transaction.
func (r *MatchRepository) ReplaceForClass(ctx context.Context, classID int64, bundles []match.Bundle) (int64, error) {
	for i := range bundles {
		b := bundles[i]
		b.Match.ClassID = classID
		if err := b.Validate(); err != nil {
			return 0, err
		}
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx replace class matches: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, child := range []string{"match_games", "match_sides", "match_players"} {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf(deleteMatchChildren, child), classID); err != nil {
			return 0, fmt.Errorf("delete %s for class %d: %w", child, classID, err)
		}
	}
	result, err := tx.ExecContext(ctx, "DELETE FROM matches WHERE class_id = $1", classID)
	if err != nil {
		return 0, fmt.Errorf("delete matches for class %d: %w", classID, err)
	}
	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete matches rows affected: %w", err)
	}

	for _, b := range bundles {
		insert := matchInsertModel{
			ClassID:      classID,
			ExternalID:   b.Match.ExternalID,
			Stage:        nullableString(b.Match.Stage),
			BestOf:       intToNullInt32(b.Match.BestOf),
			Date:         ptrToNullTime(b.Match.Date),
			WinnerSide:   intPtrToNullInt32(b.Match.WinnerSide),
			WalkoverSide: intPtrToNullInt32(b.Match.WalkoverSide),
		}
		query, args, err := qb.InsertModel("matches", insert, "RETURNING id")
		if err != nil {
			return 0, fmt.Errorf("build insert match query: %w", err)
		}
		var matchID int64
		if err := tx.GetContext(ctx, &matchID, query, args...); err != nil {
			return 0, fmt.Errorf("insert match external_id=%s: %w", b.Match.ExternalID, err)
		}

		for _, g := range b.Games {
			gameInsert := matchGameInsertModel{
				MatchID:     matchID,
				GameNo:      g.GameNo,
				PointsSide1: g.PointsSide1,
				PointsSide2: g.PointsSide2,
			}
			query, args, err := qb.InsertModel("match_games", gameInsert, "")
			if err != nil {
				return 0, fmt.Errorf("build insert match game query: %w", err)
			}
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return 0, fmt.Errorf("insert match game %d: %w", g.GameNo, err)
			}
		}

		for _, s := range b.Sides {
			sideInsert := matchSideModel{MatchID: matchID, SideNo: s.SideNo, EntryID: s.EntryID}
			query, args, err := qb.InsertModel("match_sides", sideInsert, "")
			if err != nil {
				return 0, fmt.Errorf("build insert match side query: %w", err)
			}
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return 0, fmt.Errorf("insert match side %d: %w", s.SideNo, err)
			}
		}

		for _, p := range b.Players {
			playerInsert := matchPlayerModel{
				MatchID:     matchID,
				SideNo:      p.SideNo,
				PlayerID:    p.PlayerID,
				PlayerOrder: p.PlayerOrder,
				ClubID:      ptrToNullInt64(p.ClubID),
			}
			query, args, err := qb.InsertModel("match_players", playerInsert, "")
			if err != nil {
				return 0, fmt.Errorf("build insert match player query: %w", err)
			}
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return 0, fmt.Errorf("insert match player %d: %w", p.PlayerID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit replace class matches tx: %w", err)
	}
	return removed, nil
}

func (r *MatchRepository) ListByClass(ctx context.Context, classID int64) ([]match.Bundle, error) {
	query, args, err := qb.Select(matchSelectColumns...).From("matches").
		Where(qb.Eq("class_id", classID)).
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select matches by class query: %w", err)
	}

	var matchRows []matchTableModel
	if err := r.db.SelectContext(ctx, &matchRows, query, args...); err != nil {
		return nil, fmt.Errorf("select matches by class: %w", err)
	}
	if len(matchRows) == 0 {
		return []match.Bundle{}, nil
	}

	matchIDs := make([]int64, 0, len(matchRows))
	for _, m := range matchRows {
		matchIDs = append(matchIDs, m.ID)
	}

	games, err := r.gamesByMatch(ctx, matchIDs)
	if err != nil {
		return nil, err
	}
	sides, err := r.sidesByMatch(ctx, matchIDs)
	if err != nil {
		return nil, err
	}
	players, err := r.playersByMatch(ctx, matchIDs)
	if err != nil {
		return nil, err
	}

	out := make([]match.Bundle, 0, len(matchRows))
	for _, m := range matchRows {
		out = append(out, match.Bundle{
			Match:   m.toDomain(),
			Games:   games[m.ID],
			Sides:   sides[m.ID],
			Players: players[m.ID],
		})
	}
	return out, nil
}

func (r *MatchRepository) gamesByMatch(ctx context.Context, matchIDs []int64) (map[int64][]match.Game, error) {
	query, args, err := qb.Select("id", "match_id", "game_no", "points_side1", "points_side2").
		From("match_games").
		Where(qb.In("match_id", int64SliceToAny(matchIDs))).
		OrderBy("match_id", "game_no").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select match games query: %w", err)
	}

	var rows []matchGameTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select match games: %w", err)
	}

	out := make(map[int64][]match.Game, len(matchIDs))
	for _, row := range rows {
		out[row.MatchID] = append(out[row.MatchID], match.Game{
			ID:          row.ID,
			MatchID:     row.MatchID,
			GameNo:      row.GameNo,
			PointsSide1: row.PointsSide1,
			PointsSide2: row.PointsSide2,
		})
	}
	return out, nil
}

func (r *MatchRepository) sidesByMatch(ctx context.Context, matchIDs []int64) (map[int64][]match.Side, error) {
	query, args, err := qb.Select("match_id", "side_no", "entry_id").
		From("match_sides").
		Where(qb.In("match_id", int64SliceToAny(matchIDs))).
		OrderBy("match_id", "side_no").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select match sides query: %w", err)
	}

	var rows []matchSideModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select match sides: %w", err)
	}

	out := make(map[int64][]match.Side, len(matchIDs))
	for _, row := range rows {
		out[row.MatchID] = append(out[row.MatchID], match.Side{
			MatchID: row.MatchID,
			SideNo:  row.SideNo,
			EntryID: row.EntryID,
		})
	}
	return out, nil
}

func (r *MatchRepository) playersByMatch(ctx context.Context, matchIDs []int64) (map[int64][]match.Player, error) {
	query, args, err := qb.Select("match_id", "side_no", "player_id", "player_order", "club_id").
		From("match_players").
		Where(qb.In("match_id", int64SliceToAny(matchIDs))).
		OrderBy("match_id", "side_no", "player_order").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select match players query: %w", err)
	}

	var rows []matchPlayerModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select match players: %w", err)
	}

	out := make(map[int64][]match.Player, len(matchIDs))
	for _, row := range rows {
		out[row.MatchID] = append(out[row.MatchID], match.Player{
			MatchID:     row.MatchID,
			SideNo:      row.SideNo,
			PlayerID:    row.PlayerID,
			PlayerOrder: row.PlayerOrder,
			ClubID:      nullInt64ToPtr(row.ClubID),
		})
	}
	return out, nil
}
