package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/btstats/ttwarehouse/internal/domain/match"
)

type matchRepo Warehouse

func (r *matchRepo) ReplaceForClass(_ context.Context, classID int64, bundles []match.Bundle) (int64, error) {
	for _, b := range bundles {
		b.Match.ClassID = classID
		if err := b.Validate(); err != nil {
			return 0, err
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, b := range bundles {
		for _, s := range b.Sides {
			if _, ok := r.entries[s.EntryID]; !ok {
				return 0, fmt.Errorf("match side %d references missing entry %d", s.SideNo, s.EntryID)
			}
		}
		for _, mp := range b.Players {
			if _, ok := r.players[mp.PlayerID]; !ok {
				return 0, fmt.Errorf("match player references missing player %d", mp.PlayerID)
			}
		}
	}

	var removed int64
	for id, m := range r.matches {
		if m.ClassID != classID {
			continue
		}
		delete(r.matches, id)
		delete(r.games, id)
		delete(r.sides, id)
		delete(r.matchPlayers, id)
		removed++
	}

	for _, b := range bundles {
		r.nextMatchID++
		id := r.nextMatchID
		m := b.Match
		m.ID = id
		m.ClassID = classID
		r.matches[id] = m

		games := make([]match.Game, len(b.Games))
		for i, g := range b.Games {
			g.MatchID = id
			games[i] = g
		}
		r.games[id] = games

		sides := make([]match.Side, len(b.Sides))
		for i, s := range b.Sides {
			s.MatchID = id
			sides[i] = s
		}
		r.sides[id] = sides

		players := make([]match.Player, len(b.Players))
		for i, mp := range b.Players {
			mp.MatchID = id
			players[i] = mp
		}
		r.matchPlayers[id] = players
	}

	return removed, nil
}

func (r *matchRepo) ListByClass(_ context.Context, classID int64) ([]match.Bundle, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]int64, 0)
	for id, m := range r.matches {
		if m.ClassID == classID {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]match.Bundle, 0, len(ids))
	for _, id := range ids {
		out = append(out, match.Bundle{
			Match:   r.matches[id],
			Games:   append([]match.Game(nil), r.games[id]...),
			Sides:   append([]match.Side(nil), r.sides[id]...),
			Players: append([]match.Player(nil), r.matchPlayers[id]...),
		})
	}
	return out, nil
}
