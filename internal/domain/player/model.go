// Package player holds the canonical player identity model. A player is
// either verified (backed by an external license identifier) or an
// unverified placeholder created so entries and matches always have a valid
// foreign-key target.
package player

import (
	"fmt"
	"strconv"
)

type Player struct {
	ID          int64
	IsVerified  bool
	ExternalID  string // set only when verified; unique among verified players
	FullnameRaw string
	FullnameKey string // normalized matching key
	ClubID      *int64
}

func (p Player) Validate() error {
	if p.FullnameKey == "" {
		return fmt.Errorf("player fullname key is required")
	}
	if p.IsVerified && p.ExternalID == "" {
		return fmt.Errorf("verified player requires an external id")
	}
	if !p.IsVerified && p.ExternalID != "" {
		return fmt.Errorf("unverified player must not carry an external id")
	}
	return nil
}

// IdentityKey is the duplicate-detection key: two players sharing it at the
// same point in time are treated as the same real-world individual.
func (p Player) IdentityKey() string {
	return IdentityKey(p.FullnameKey, p.ClubID)
}

func IdentityKey(fullnameKey string, clubID *int64) string {
	if clubID == nil {
		return fullnameKey + "|"
	}
	return fullnameKey + "|" + strconv.FormatInt(*clubID, 10)
}
