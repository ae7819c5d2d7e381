// Package class models tournament classes and their consolation hierarchy.
// Secondary brackets carry a suffix on the shortname ("P12~B" is the B
// bracket of "P12"); parent links form a forest of depth one.
package class

import (
	"fmt"
	"strings"
	"time"
)

// DefaultConsolationSuffixes are the recognized secondary-bracket markers.
var DefaultConsolationSuffixes = []string{"~B"}

type TournamentClass struct {
	ID              int64
	TournamentIDExt string // source tournament key; parent matching stays inside it
	ExternalID      string
	Shortname       string
	Longname        string
	StartDate       *time.Time
	Gender          string
	ParentID        *int64
}

func (c TournamentClass) Validate() error {
	if c.ExternalID == "" {
		return fmt.Errorf("class external id is required")
	}
	if c.TournamentIDExt == "" {
		return fmt.Errorf("class tournament id is required")
	}
	if strings.TrimSpace(c.Shortname) == "" {
		return fmt.Errorf("class shortname is required")
	}
	return nil
}

// SplitConsolation reports whether shortname carries a recognized secondary
// bracket suffix, returning the parent shortname when it does.
func SplitConsolation(shortname string, suffixes []string) (parent string, isChild bool) {
	trimmed := strings.TrimSpace(shortname)
	for _, suffix := range suffixes {
		if base, ok := strings.CutSuffix(trimmed, suffix); ok && base != "" {
			return base, true
		}
	}
	return "", false
}

// Forest is the in-memory view of parent/child links used while resolving.
// It enforces the write invariants: a parent pointer is never reassigned,
// a child cannot itself become a parent, and no cycles can form.
type Forest struct {
	nodes map[int64]*TournamentClass
}

func NewForest(classes []TournamentClass) *Forest {
	nodes := make(map[int64]*TournamentClass, len(classes))
	for i := range classes {
		c := classes[i]
		nodes[c.ID] = &c
	}
	return &Forest{nodes: nodes}
}

func (f *Forest) Get(id int64) (TournamentClass, bool) {
	node, ok := f.nodes[id]
	if !ok {
		return TournamentClass{}, false
	}
	return *node, true
}

// Link records childID -> parentID, rejecting writes that would violate the
// forest shape. Linking a child to its current parent is a no-op.
func (f *Forest) Link(childID, parentID int64) error {
	child, ok := f.nodes[childID]
	if !ok {
		return fmt.Errorf("unknown child class %d", childID)
	}
	parent, ok := f.nodes[parentID]
	if !ok {
		return fmt.Errorf("unknown parent class %d", parentID)
	}
	if childID == parentID {
		return fmt.Errorf("class %d cannot parent itself", childID)
	}
	if child.ParentID != nil {
		if *child.ParentID == parentID {
			return nil
		}
		return fmt.Errorf("class %d already linked to parent %d", childID, *child.ParentID)
	}
	if parent.ParentID != nil {
		return fmt.Errorf("parent class %d is itself a child of %d", parentID, *parent.ParentID)
	}
	for _, node := range f.nodes {
		if node.ParentID != nil && *node.ParentID == childID {
			return fmt.Errorf("class %d already parents other classes", childID)
		}
	}
	child.ParentID = &parentID
	return nil
}
