package usecase

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/btstats/ttwarehouse/internal/domain/player"
	"github.com/btstats/ttwarehouse/internal/platform/normalize"
)

func sanitizedFullname(firstname, lastname string) string {
	return normalize.Sanitize(strings.TrimSpace(firstname + " " + lastname))
}

func nameKey(name string) string {
	return normalize.Key(name)
}

func nameKeysOf(name string) []string {
	return normalize.NameKeys(name)
}

// playerDirectory is a pass-scoped snapshot of all canonical players,
// indexed under every token orientation of their name so flipped scraped
// names still resolve. Lookups walk a fixed strategy order; creation of an
// unverified placeholder is the explicit last resort.
type playerDirectory struct {
	repo            player.Repository
	byID            map[int64]player.Player
	verifiedByKey   map[string][]int64
	unverifiedByKey map[string][]int64
}

func loadPlayerDirectory(ctx context.Context, repo player.Repository) (*playerDirectory, error) {
	verified, err := repo.ListVerified(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list verified players")
	}
	unverified, err := repo.ListUnverified(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list unverified players")
	}

	d := &playerDirectory{
		repo:            repo,
		byID:            make(map[int64]player.Player, len(verified)+len(unverified)),
		verifiedByKey:   make(map[string][]int64),
		unverifiedByKey: make(map[string][]int64),
	}
	for _, p := range verified {
		d.index(p)
	}
	for _, p := range unverified {
		d.index(p)
	}
	return d, nil
}

func (d *playerDirectory) index(p player.Player) {
	d.byID[p.ID] = p
	target := d.unverifiedByKey
	if p.IsVerified {
		target = d.verifiedByKey
	}
	for _, key := range normalize.NameKeys(p.FullnameRaw) {
		target[key] = append(target[key], p.ID)
	}
}

func (d *playerDirectory) Get(id int64) (player.Player, bool) {
	p, ok := d.byID[id]
	return p, ok
}

// lookupStrategy is one step in the resolution order. Each strategy either
// identifies exactly one player or abstains.
type lookupStrategy struct {
	name string
	find func(d *playerDirectory, keys []string, clubID *int64) (player.Player, bool)
}

var lookupOrder = []lookupStrategy{
	{
		name: "verified name and club",
		find: func(d *playerDirectory, keys []string, clubID *int64) (player.Player, bool) {
			if clubID == nil {
				return player.Player{}, false
			}
			return uniqueCandidate(d, d.verifiedByKey, keys, clubID)
		},
	},
	{
		name: "verified unique name",
		find: func(d *playerDirectory, keys []string, _ *int64) (player.Player, bool) {
			return uniqueCandidate(d, d.verifiedByKey, keys, nil)
		},
	},
	{
		name: "unverified name and club",
		find: func(d *playerDirectory, keys []string, clubID *int64) (player.Player, bool) {
			return uniqueCandidate(d, d.unverifiedByKey, keys, clubID)
		},
	},
}

// uniqueCandidate collects candidates across all name keys, optionally
// filtered by club, and matches only when exactly one distinct player
// remains. clubFilter nil means no club filtering; filtering with a nil
// stored club only matches a nil filter.
func uniqueCandidate(d *playerDirectory, index map[string][]int64, keys []string, clubFilter *int64) (player.Player, bool) {
	var found player.Player
	count := 0
	seen := make(map[int64]struct{})
	for _, key := range keys {
		for _, id := range index[key] {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			p := d.byID[id]
			if clubFilter != nil && !equalClubID(p.ClubID, clubFilter) {
				continue
			}
			found = p
			count++
		}
	}
	if count != 1 {
		return player.Player{}, false
	}
	return found, true
}

// Resolve walks the strategy order for a raw scraped name. It never creates.
func (d *playerDirectory) Resolve(rawName string, clubID *int64) (player.Player, string, bool) {
	keys := normalize.NameKeys(rawName)
	if len(keys) == 0 {
		return player.Player{}, "", false
	}
	for _, strategy := range lookupOrder {
		if p, ok := strategy.find(d, keys, clubID); ok {
			return p, strategy.name, ok
		}
	}
	return player.Player{}, "", false
}

// ResolveOrCreate resolves a raw name, creating an unverified placeholder
// when every strategy abstains. The new player is indexed immediately so
// later records in the same pass reuse it.
func (d *playerDirectory) ResolveOrCreate(ctx context.Context, rawName string, clubID *int64) (player.Player, bool, error) {
	if p, _, ok := d.Resolve(rawName, clubID); ok {
		return p, false, nil
	}

	p := player.Player{
		IsVerified:  false,
		FullnameRaw: normalize.Sanitize(rawName),
		FullnameKey: nameKey(rawName),
		ClubID:      clubID,
	}
	id, err := d.repo.Create(ctx, p)
	if err != nil {
		return player.Player{}, false, errors.Wrapf(err, "create unverified player %q", rawName)
	}
	p.ID = id
	d.index(p)
	return p, true, nil
}
