package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/btstats/ttwarehouse/internal/domain/player"
)

type playerRepo Warehouse

func (r *playerRepo) ListVerified(_ context.Context) ([]player.Player, error) {
	return r.list(true), nil
}

func (r *playerRepo) ListUnverified(_ context.Context) ([]player.Player, error) {
	return r.list(false), nil
}

func (r *playerRepo) list(verified bool) []player.Player {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]player.Player, 0, len(r.players))
	for _, p := range r.players {
		if p.IsVerified == verified {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *playerRepo) GetByExternalID(_ context.Context, externalID string) (player.Player, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.players {
		if p.IsVerified && p.ExternalID == externalID {
			return p, true, nil
		}
	}
	// ids folded away by a merge keep resolving to the survivor
	if id, ok := r.aliases[externalID]; ok {
		if p, ok := r.players[id]; ok {
			return p, true, nil
		}
	}
	return player.Player{}, false, nil
}

func (r *playerRepo) Create(_ context.Context, p player.Player) (int64, error) {
	if err := p.Validate(); err != nil {
		return 0, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if p.IsVerified {
		for _, existing := range r.players {
			if existing.IsVerified && existing.ExternalID == p.ExternalID {
				return 0, fmt.Errorf("verified player with external id %s already exists", p.ExternalID)
			}
		}
	}

	r.nextPlayerID++
	p.ID = r.nextPlayerID
	r.players[p.ID] = p
	return p.ID, nil
}

func (r *playerRepo) Update(_ context.Context, p player.Player) error {
	if err := p.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.players[p.ID]; !ok {
		return fmt.Errorf("player %d not found", p.ID)
	}
	r.players[p.ID] = p
	return nil
}

// Merge repoints entries, match sides and match players from each loser to
// the survivor, then deletes the losers. A loser entry colliding with a kept
// entry in the same class is dropped only after every match side referencing
// it has been repointed to the kept entry, so no side dangles. Each loser's
// external id lands in the alias map. The warehouse lock makes this atomic.
func (r *playerRepo) Merge(_ context.Context, survivorID int64, loserIDs []int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.players[survivorID]; !ok {
		return fmt.Errorf("survivor player %d not found", survivorID)
	}

	losers := make(map[int64]struct{}, len(loserIDs))
	for _, id := range loserIDs {
		if id == survivorID {
			return fmt.Errorf("survivor %d listed among losers", survivorID)
		}
		if _, ok := r.players[id]; !ok {
			return fmt.Errorf("loser player %d not found", id)
		}
		losers[id] = struct{}{}
	}

	keptEntryByClass := make(map[int64]int64)
	for id, e := range r.entries {
		if e.PlayerID == survivorID {
			keptEntryByClass[e.ClassID] = id
		}
	}

	loserEntryIDs := make([]int64, 0)
	for id, e := range r.entries {
		if _, isLoser := losers[e.PlayerID]; isLoser {
			loserEntryIDs = append(loserEntryIDs, id)
		}
	}
	sort.Slice(loserEntryIDs, func(i, j int) bool { return loserEntryIDs[i] < loserEntryIDs[j] })

	for _, id := range loserEntryIDs {
		e := r.entries[id]
		if keptID, collides := keptEntryByClass[e.ClassID]; collides {
			r.repointSideEntries(id, keptID)
			delete(r.entries, id)
			continue
		}
		e.PlayerID = survivorID
		r.entries[id] = e
		keptEntryByClass[e.ClassID] = id
	}

	for matchID, players := range r.matchPlayers {
		for i := range players {
			if _, isLoser := losers[players[i].PlayerID]; isLoser {
				players[i].PlayerID = survivorID
			}
		}
		r.matchPlayers[matchID] = players
	}

	for ext, id := range r.aliases {
		if _, isLoser := losers[id]; isLoser {
			r.aliases[ext] = survivorID
		}
	}
	for id := range losers {
		if p := r.players[id]; p.IsVerified && p.ExternalID != "" {
			r.aliases[p.ExternalID] = survivorID
		}
		delete(r.players, id)
	}
	return nil
}

func (r *playerRepo) repointSideEntries(from, to int64) {
	for matchID, sides := range r.sides {
		for i := range sides {
			if sides[i].EntryID == from {
				sides[i].EntryID = to
			}
		}
		r.sides[matchID] = sides
	}
}

func (r *playerRepo) DeleteUnreferencedUnverified(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	referenced := make(map[int64]struct{})
	for _, e := range r.entries {
		referenced[e.PlayerID] = struct{}{}
	}
	for _, players := range r.matchPlayers {
		for _, mp := range players {
			referenced[mp.PlayerID] = struct{}{}
		}
	}

	var removed int64
	for id, p := range r.players {
		if p.IsVerified {
			continue
		}
		if _, ok := referenced[id]; ok {
			continue
		}
		delete(r.players, id)
		removed++
	}
	return removed, nil
}
