package postgres

import (
	"time"

	"github.com/btstats/ttwarehouse/internal/domain/staging"
)

type stagingTableModel struct {
	ID           int64     `db:"id"`
	SourceKey    string    `db:"source_key"`
	ContentHash  string    `db:"content_hash"`
	Payload      []byte    `db:"payload"`
	LastSeenAt   time.Time `db:"last_seen_at"`
	NeedsResolve bool      `db:"needs_resolve"`
}

type stagingInsertModel struct {
	SourceKey    string    `db:"source_key"`
	ContentHash  string    `db:"content_hash"`
	Payload      []byte    `db:"payload"`
	LastSeenAt   time.Time `db:"last_seen_at"`
	NeedsResolve bool      `db:"needs_resolve"`
}

var stagingSelectColumns = []string{
	"id",
	"source_key",
	"content_hash",
	"payload",
	"last_seen_at",
	"needs_resolve",
}

// stagingTable maps a category to its staging table. Categories are a closed
// set, so an unknown one is a programming error surfaced by the callers.
func stagingTable(category staging.Category) (string, bool) {
	switch category {
	case staging.CategoryPlayerLicenses:
		return "raw_player_licenses", true
	case staging.CategoryClasses:
		return "raw_tournament_classes", true
	case staging.CategoryEntries:
		return "raw_class_entries", true
	case staging.CategoryMatches:
		return "raw_class_matches", true
	}
	return "", false
}

func (m stagingTableModel) toDomain(category staging.Category) staging.Row {
	return staging.Row{
		ID:           m.ID,
		Category:     category,
		SourceKey:    m.SourceKey,
		ContentHash:  m.ContentHash,
		Payload:      m.Payload,
		LastSeenAt:   m.LastSeenAt,
		NeedsResolve: m.NeedsResolve,
	}
}
