// Package memory implements every warehouse repository against in-process
// maps. It backs the resolver tests and the memory-backed run mode; the
// semantics mirror the postgres package, including merge atomicity under a
// single store-wide lock.
package memory

import (
	"sync"

	"github.com/btstats/ttwarehouse/internal/domain/class"
	"github.com/btstats/ttwarehouse/internal/domain/entry"
	"github.com/btstats/ttwarehouse/internal/domain/match"
	"github.com/btstats/ttwarehouse/internal/domain/player"
	"github.com/btstats/ttwarehouse/internal/domain/staging"
)

type Warehouse struct {
	mu sync.RWMutex

	stagingRows map[staging.Category]map[string]*staging.Row
	nextRowID   int64

	players      map[int64]player.Player
	aliases      map[string]int64 // merged-away external id -> survivor
	nextPlayerID int64

	classes     map[int64]class.TournamentClass
	classByExt  map[string]int64
	nextClassID int64

	entries     map[int64]entry.Entry
	nextEntryID int64

	matches      map[int64]match.Match
	games        map[int64][]match.Game
	sides        map[int64][]match.Side
	matchPlayers map[int64][]match.Player
	nextMatchID  int64
}

func NewWarehouse() *Warehouse {
	rows := make(map[staging.Category]map[string]*staging.Row, len(staging.AllCategories))
	for _, c := range staging.AllCategories {
		rows[c] = make(map[string]*staging.Row)
	}
	return &Warehouse{
		stagingRows:  rows,
		players:      make(map[int64]player.Player),
		aliases:      make(map[string]int64),
		classes:      make(map[int64]class.TournamentClass),
		classByExt:   make(map[string]int64),
		entries:      make(map[int64]entry.Entry),
		matches:      make(map[int64]match.Match),
		games:        make(map[int64][]match.Game),
		sides:        make(map[int64][]match.Side),
		matchPlayers: make(map[int64][]match.Player),
	}
}

// Staging, Players, Classes, Entries, Matches expose the repository views.
// They all share the warehouse lock.

func (w *Warehouse) Staging() staging.Repository { return (*stagingRepo)(w) }
func (w *Warehouse) Players() player.Repository  { return (*playerRepo)(w) }
func (w *Warehouse) Classes() class.Repository   { return (*classRepo)(w) }
func (w *Warehouse) Entries() entry.Repository   { return (*entryRepo)(w) }
func (w *Warehouse) Matches() match.Repository   { return (*matchRepo)(w) }
