// Package entry models class registrations. Synthetic entries are fabricated
// by sibling resolution to keep match references valid and are excluded from
// participation counts.
package entry

import "fmt"

type Entry struct {
	ID            int64
	ClassID       int64
	PlayerID      int64
	ClubID        *int64
	Seed          *int
	FinalPosition *int
	IsSynthetic   bool
}

func (e Entry) Validate() error {
	if e.ClassID <= 0 {
		return fmt.Errorf("entry class id is required")
	}
	if e.PlayerID <= 0 {
		return fmt.Errorf("entry player id is required")
	}
	return nil
}
