// Package match models the canonical competition-result graph: a match, its
// games, its two sides, and the players on each side. Every match player
// must reference an entry in the match's class before anything commits.
package match

import (
	"fmt"
	"regexp"
	"time"
)

type Match struct {
	ID           int64
	ClassID      int64
	ExternalID   string
	Stage        string // bracket stage label as published, e.g. "Pool 1"
	BestOf       int
	Date         *time.Time
	WinnerSide   *int // 1 or 2
	WalkoverSide *int // forfeiting side, 1 or 2
}

func (m Match) Validate() error {
	if m.ClassID <= 0 {
		return fmt.Errorf("match class id is required")
	}
	if m.WinnerSide != nil && *m.WinnerSide != 1 && *m.WinnerSide != 2 {
		return fmt.Errorf("match winner side must be 1 or 2")
	}
	if m.WalkoverSide != nil && *m.WalkoverSide != 1 && *m.WalkoverSide != 2 {
		return fmt.Errorf("match walkover side must be 1 or 2")
	}
	return nil
}

type Game struct {
	ID          int64
	MatchID     int64
	GameNo      int
	PointsSide1 int
	PointsSide2 int
}

type Side struct {
	MatchID int64
	SideNo  int
	EntryID int64
}

type Player struct {
	MatchID     int64
	SideNo      int
	PlayerID    int64
	PlayerOrder int
	ClubID      *int64
}

// Bundle is everything belonging to one match, persisted in a single
// transaction.
type Bundle struct {
	Match   Match
	Games   []Game
	Sides   []Side
	Players []Player
}

func (b Bundle) Validate() error {
	if err := b.Match.Validate(); err != nil {
		return err
	}
	if len(b.Sides) != 2 {
		return fmt.Errorf("match requires exactly two sides, got %d", len(b.Sides))
	}
	for _, s := range b.Sides {
		if s.EntryID <= 0 {
			return fmt.Errorf("match side %d has no entry", s.SideNo)
		}
	}
	if len(b.Players) == 0 {
		return fmt.Errorf("match has no players")
	}
	return nil
}

var placeholderRe = regexp.MustCompile(`(?i)\b(vakant|wo)\b`)

// IsPlaceholderName reports whether a scraped side name is a vacancy or
// walkover marker rather than a real person.
func IsPlaceholderName(name string) bool {
	return placeholderRe.MatchString(name)
}
