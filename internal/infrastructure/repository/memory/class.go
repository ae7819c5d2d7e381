package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/btstats/ttwarehouse/internal/domain/class"
)

type classRepo Warehouse

func (r *classRepo) ListAll(_ context.Context) ([]class.TournamentClass, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]class.TournamentClass, 0, len(r.classes))
	for _, c := range r.classes {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *classRepo) GetByExternalID(_ context.Context, externalID string) (class.TournamentClass, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.classByExt[externalID]
	if !ok {
		return class.TournamentClass{}, false, nil
	}
	return r.classes[id], true, nil
}

func (r *classRepo) Upsert(_ context.Context, c class.TournamentClass) (int64, error) {
	if err := c.Validate(); err != nil {
		return 0, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if id, ok := r.classByExt[c.ExternalID]; ok {
		existing := r.classes[id]
		c.ID = id
		c.ParentID = existing.ParentID // parent links survive payload updates
		r.classes[id] = c
		return id, nil
	}

	r.nextClassID++
	c.ID = r.nextClassID
	r.classes[c.ID] = c
	r.classByExt[c.ExternalID] = c.ID
	return c.ID, nil
}

func (r *classRepo) SetParent(_ context.Context, classID, parentID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	child, ok := r.classes[classID]
	if !ok {
		return fmt.Errorf("class %d not found", classID)
	}
	if child.ParentID != nil {
		if *child.ParentID == parentID {
			return nil
		}
		return fmt.Errorf("class %d already has parent %d", classID, *child.ParentID)
	}
	if _, ok := r.classes[parentID]; !ok {
		return fmt.Errorf("parent class %d not found", parentID)
	}
	child.ParentID = &parentID
	r.classes[classID] = child
	return nil
}
