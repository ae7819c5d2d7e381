// Package staging models the raw-record side of the warehouse: one row per
// observed external entity per scrape, fingerprinted so re-ingestion of
// unchanged upstream data touches nothing but last_seen_at.
package staging

import (
	"fmt"
	"time"
)

// Category names one staging table. Each category carries exactly one typed
// payload shape.
type Category string

const (
	CategoryPlayerLicenses Category = "player_licenses"
	CategoryClasses        Category = "tournament_classes"
	CategoryEntries        Category = "class_entries"
	CategoryMatches        Category = "class_matches"
)

var AllCategories = []Category{
	CategoryPlayerLicenses,
	CategoryClasses,
	CategoryEntries,
	CategoryMatches,
}

func (c Category) Valid() bool {
	switch c {
	case CategoryPlayerLicenses, CategoryClasses, CategoryEntries, CategoryMatches:
		return true
	}
	return false
}

// Record is one scraped observation handed to ingestion. Payload must be the
// category's typed payload struct.
type Record struct {
	SourceKey string
	Payload   any
}

// Row is a persisted staging row. Payload holds the canonicalized JSON the
// content hash was computed over. NeedsResolve is set whenever the payload
// is inserted or updated and cleared once a resolver pass has consumed it.
type Row struct {
	ID           int64
	Category     Category
	SourceKey    string
	ContentHash  string
	Payload      []byte
	LastSeenAt   time.Time
	NeedsResolve bool
}

// Outcome classifies what an upsert did to a staging row.
type Outcome int

const (
	OutcomeInserted Outcome = iota
	OutcomeUpdated
	OutcomeUnchanged
)

func (o Outcome) String() string {
	switch o {
	case OutcomeInserted:
		return "inserted"
	case OutcomeUpdated:
		return "updated"
	case OutcomeUnchanged:
		return "unchanged"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// LicensePayload is one row of scraped license data. The license info string
// is parsed during player reconciliation, not here; staging only guarantees
// the scalar fields are present and sane.
type LicensePayload struct {
	SeasonLabel    string `json:"season_label" validate:"required"`
	PlayerIDExt    string `json:"player_id_ext" validate:"required"`
	Firstname      string `json:"firstname" validate:"required"`
	Lastname       string `json:"lastname" validate:"required"`
	YearBorn       int    `json:"year_born" validate:"omitempty,gte=1900,lte=2100"`
	Gender         string `json:"gender" validate:"omitempty,oneof=M F"`
	ClubName       string `json:"club_name"`
	ClubID         *int64 `json:"club_id" validate:"omitempty,gt=0"`
	LicenseInfoRaw string `json:"license_info_raw" validate:"required"`
}

// ClassPayload is one scraped tournament class.
type ClassPayload struct {
	TournamentIDExt string `json:"tournament_id_ext" validate:"required"`
	ClassIDExt      string `json:"class_id_ext" validate:"required"`
	Shortname       string `json:"shortname" validate:"required"`
	Longname        string `json:"longname"`
	StartDate       string `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	Gender          string `json:"gender" validate:"omitempty,oneof=M F X"`
}

// EntryPayload is one scraped class registration.
type EntryPayload struct {
	ClassIDExt    string `json:"class_id_ext" validate:"required"`
	Fullname      string `json:"fullname" validate:"required"`
	ClubName      string `json:"club_name"`
	ClubID        *int64 `json:"club_id" validate:"omitempty,gt=0"`
	Seed          *int   `json:"seed" validate:"omitempty,gt=0"`
	FinalPosition *int   `json:"final_position" validate:"omitempty,gt=0"`
}

// MatchPayload is one scraped match row, sides still unresolved names.
type MatchPayload struct {
	ClassIDExt  string `json:"class_id_ext" validate:"required"`
	MatchIDExt  string `json:"match_id_ext" validate:"required"`
	Stage       string `json:"stage"`
	Side1Name   string `json:"side1_name" validate:"required"`
	Side1Club   string `json:"side1_club"`
	Side1ClubID *int64 `json:"side1_club_id" validate:"omitempty,gt=0"`
	Side2Name   string `json:"side2_name" validate:"required"`
	Side2Club   string `json:"side2_club"`
	Side2ClubID *int64 `json:"side2_club_id" validate:"omitempty,gt=0"`
	ScoreTokens string `json:"score_tokens"`
	BestOf      int    `json:"best_of" validate:"omitempty,oneof=1 3 5 7 9"`
}

// PayloadFor returns a new zero payload of the category's type, for decoding
// staged JSON back into scalars.
func PayloadFor(c Category) (any, error) {
	switch c {
	case CategoryPlayerLicenses:
		return &LicensePayload{}, nil
	case CategoryClasses:
		return &ClassPayload{}, nil
	case CategoryEntries:
		return &EntryPayload{}, nil
	case CategoryMatches:
		return &MatchPayload{}, nil
	}
	return nil, fmt.Errorf("unknown staging category %q", string(c))
}
