package memory

import (
	"context"
	"sort"

	"github.com/btstats/ttwarehouse/internal/domain/entry"
)

type entryRepo Warehouse

func (r *entryRepo) ListByClass(_ context.Context, classID int64) ([]entry.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]entry.Entry, 0)
	for _, e := range r.entries {
		if e.ClassID == classID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *entryRepo) GetByClassAndPlayer(_ context.Context, classID, playerID int64) (entry.Entry, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, e := range r.entries {
		if e.ClassID == classID && e.PlayerID == playerID {
			return e, true, nil
		}
	}
	return entry.Entry{}, false, nil
}

func (r *entryRepo) Upsert(_ context.Context, e entry.Entry) (int64, error) {
	if err := e.Validate(); err != nil {
		return 0, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for id, existing := range r.entries {
		if existing.ClassID == e.ClassID && existing.PlayerID == e.PlayerID {
			e.ID = id
			// a genuine registration supersedes a synthesized one, never
			// the other way around
			e.IsSynthetic = existing.IsSynthetic && e.IsSynthetic
			r.entries[id] = e
			return id, nil
		}
	}

	r.nextEntryID++
	e.ID = r.nextEntryID
	r.entries[e.ID] = e
	return e.ID, nil
}

func (r *entryRepo) CountByClass(_ context.Context, classID int64, includeSynthetic bool) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var count int64
	for _, e := range r.entries {
		if e.ClassID != classID {
			continue
		}
		if e.IsSynthetic && !includeSynthetic {
			continue
		}
		count++
	}
	return count, nil
}
