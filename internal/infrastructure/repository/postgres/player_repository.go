package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/btstats/ttwarehouse/internal/domain/player"
	qb "github.com/btstats/ttwarehouse/internal/platform/querybuilder"
)

type PlayerRepository struct {
	db *sqlx.DB
}

func NewPlayerRepository(db *sqlx.DB) *PlayerRepository {
	return &PlayerRepository{db: db}
}

func (r *PlayerRepository) ListVerified(ctx context.Context) ([]player.Player, error) {
	return r.listByVerified(ctx, true)
}

func (r *PlayerRepository) ListUnverified(ctx context.Context) ([]player.Player, error) {
	return r.listByVerified(ctx, false)
}

func (r *PlayerRepository) listByVerified(ctx context.Context, verified bool) ([]player.Player, error) {
	query, args, err := qb.Select(playerSelectColumns...).From("players").
		Where(qb.Eq("is_verified", verified)).
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select players query: %w", err)
	}

	var rows []playerTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select players: %w", err)
	}

	out := make([]player.Player, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *PlayerRepository) GetByExternalID(ctx context.Context, externalID string) (player.Player, bool, error) {
	query, args, err := qb.Select(playerSelectColumns...).From("players").
		Where(
			qb.Eq("is_verified", true),
			qb.Eq("external_id", externalID),
		).
		ToSQL()
	if err != nil {
		return player.Player{}, false, fmt.Errorf("build select player by external id query: %w", err)
	}

	var row playerTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return r.getByAlias(ctx, externalID)
		}
		return player.Player{}, false, fmt.Errorf("select player by external id: %w", err)
	}
	return row.toDomain(), true, nil
}

// getByAlias resolves an external id that was folded into another player by
// a merge. Merge keeps the alias table pointed at the current survivor, so a
// single hop suffices.
func (r *PlayerRepository) getByAlias(ctx context.Context, externalID string) (player.Player, bool, error) {
	query, args, err := qb.Select("player_id").From("player_aliases").
		Where(qb.Eq("external_id", externalID)).
		ToSQL()
	if err != nil {
		return player.Player{}, false, fmt.Errorf("build select player alias query: %w", err)
	}

	var playerID int64
	if err := r.db.GetContext(ctx, &playerID, query, args...); err != nil {
		if isNotFound(err) {
			return player.Player{}, false, nil
		}
		return player.Player{}, false, fmt.Errorf("select player alias: %w", err)
	}

	query, args, err = qb.Select(playerSelectColumns...).From("players").
		Where(qb.Eq("id", playerID)).
		ToSQL()
	if err != nil {
		return player.Player{}, false, fmt.Errorf("build select aliased player query: %w", err)
	}

	var row playerTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return player.Player{}, false, nil
		}
		return player.Player{}, false, fmt.Errorf("select aliased player: %w", err)
	}
	return row.toDomain(), true, nil
}

func (r *PlayerRepository) Create(ctx context.Context, p player.Player) (int64, error) {
	if err := p.Validate(); err != nil {
		return 0, err
	}

	insert := playerInsertModel{
		IsVerified:  p.IsVerified,
		ExternalID:  nullableString(p.ExternalID),
		FullnameRaw: p.FullnameRaw,
		FullnameKey: p.FullnameKey,
		ClubID:      ptrToNullInt64(p.ClubID),
	}
	query, args, err := qb.InsertModel("players", insert, "RETURNING id")
	if err != nil {
		return 0, fmt.Errorf("build insert player query: %w", err)
	}

	var id int64
	if err := r.db.GetContext(ctx, &id, query, args...); err != nil {
		return 0, fmt.Errorf("insert player: %w", err)
	}
	return id, nil
}

func (r *PlayerRepository) Update(ctx context.Context, p player.Player) error {
	if err := p.Validate(); err != nil {
		return err
	}

	query, args, err := qb.Update("players").
		Set("fullname_raw", p.FullnameRaw).
		Set("fullname_key", p.FullnameKey).
		Set("club_id", ptrToNullInt64(p.ClubID)).
		Where(qb.Eq("id", p.ID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update player query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update player: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update player rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("player %d not found", p.ID)
	}
	return nil
}

const mergeRepointSidesToSurvivorEntries = `
UPDATE match_sides ms
SET entry_id = survivor.id
FROM class_entries loser, class_entries survivor
WHERE ms.entry_id = loser.id
  AND loser.player_id = ANY($1)
  AND survivor.player_id = $2
  AND survivor.class_id = loser.class_id`

const mergeRepointSidesToKeptLoserEntries = `
UPDATE match_sides ms
SET entry_id = kept.id
FROM class_entries dup,
     LATERAL (
         SELECT min(e.id) AS id
         FROM class_entries e
         WHERE e.player_id = ANY($1)
           AND e.class_id = dup.class_id
     ) kept
WHERE ms.entry_id = dup.id
  AND dup.player_id = ANY($1)
  AND dup.id <> kept.id`

const mergeDropLoserDuplicateEntries = `
DELETE FROM class_entries a
USING class_entries b
WHERE a.player_id = ANY($1)
  AND b.player_id = ANY($1)
  AND a.class_id = b.class_id
  AND a.id > b.id`

const mergeDropCollidingEntries = `
DELETE FROM class_entries loser
USING class_entries survivor
WHERE loser.player_id = ANY($1)
  AND survivor.player_id = $2
  AND survivor.class_id = loser.class_id`

const mergeRecordAliases = `
INSERT INTO player_aliases (external_id, player_id)
SELECT p.external_id, $1
FROM players p
WHERE p.id = ANY($2)
  AND p.external_id IS NOT NULL
ON CONFLICT (external_id) DO UPDATE SET player_id = EXCLUDED.player_id`

// Merge repoints everything referencing the losers to the survivor and
// deletes the losers, all in one transaction. Loser entries that would
// collide with a survivor entry in the same class are dropped, but only
// after every match side referencing them has been repointed to the kept
// entry, so no side is ever left dangling. Each loser's external id is
// recorded in player_aliases so it keeps resolving to the survivor.
func (r *PlayerRepository) Merge(ctx context.Context, survivorID int64, loserIDs []int64) error {
	if len(loserIDs) == 0 {
		return nil
	}
	for _, id := range loserIDs {
		if id == survivorID {
			return fmt.Errorf("survivor %d listed among losers", survivorID)
		}
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx merge players: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query, args, err := qb.Select("id").From("players").
		Where(qb.Eq("id", survivorID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build select merge survivor query: %w", err)
	}
	var id int64
	if err := tx.GetContext(ctx, &id, query, args...); err != nil {
		if isNotFound(err) {
			return fmt.Errorf("survivor player %d not found", survivorID)
		}
		return fmt.Errorf("select merge survivor: %w", err)
	}

	losers := int64Array(loserIDs)
	if _, err := tx.ExecContext(ctx, mergeRepointSidesToSurvivorEntries, losers, survivorID); err != nil {
		return fmt.Errorf("repoint match sides to survivor entries: %w", err)
	}
	if _, err := tx.ExecContext(ctx, mergeRepointSidesToKeptLoserEntries, losers); err != nil {
		return fmt.Errorf("repoint match sides to kept loser entries: %w", err)
	}
	if _, err := tx.ExecContext(ctx, mergeDropLoserDuplicateEntries, losers); err != nil {
		return fmt.Errorf("drop duplicate loser entries: %w", err)
	}
	if _, err := tx.ExecContext(ctx, mergeDropCollidingEntries, losers, survivorID); err != nil {
		return fmt.Errorf("drop colliding loser entries: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE player_aliases SET player_id = $1 WHERE player_id = ANY($2)",
		survivorID, losers); err != nil {
		return fmt.Errorf("repoint loser aliases: %w", err)
	}
	if _, err := tx.ExecContext(ctx, mergeRecordAliases, survivorID, losers); err != nil {
		return fmt.Errorf("record merged player aliases: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE class_entries SET player_id = $1 WHERE player_id = ANY($2)",
		survivorID, losers); err != nil {
		return fmt.Errorf("repoint loser entries: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE match_players SET player_id = $1 WHERE player_id = ANY($2)",
		survivorID, losers); err != nil {
		return fmt.Errorf("repoint loser match players: %w", err)
	}

	result, err := tx.ExecContext(ctx, "DELETE FROM players WHERE id = ANY($1)", losers)
	if err != nil {
		return fmt.Errorf("delete merged players: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete merged players rows affected: %w", err)
	}
	if deleted != int64(len(loserIDs)) {
		return fmt.Errorf("expected to delete %d players, deleted %d", len(loserIDs), deleted)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit merge players tx: %w", err)
	}
	return nil
}

const deleteUnreferencedUnverifiedPlayers = `
DELETE FROM players p
WHERE p.is_verified = FALSE
  AND NOT EXISTS (SELECT 1 FROM class_entries e WHERE e.player_id = p.id)
  AND NOT EXISTS (SELECT 1 FROM match_players mp WHERE mp.player_id = p.id)`

func (r *PlayerRepository) DeleteUnreferencedUnverified(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, deleteUnreferencedUnverifiedPlayers)
	if err != nil {
		return 0, fmt.Errorf("delete unreferenced unverified players: %w", err)
	}
	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete unreferenced unverified players rows affected: %w", err)
	}
	return removed, nil
}
