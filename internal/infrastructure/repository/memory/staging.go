package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/btstats/ttwarehouse/internal/domain/staging"
)

type stagingRepo Warehouse

func (r *stagingRepo) UpsertBatch(_ context.Context, rows []staging.Row) ([]staging.Outcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	outcomes := make([]staging.Outcome, 0, len(rows))
	for _, row := range rows {
		table, ok := r.stagingRows[row.Category]
		if !ok {
			return nil, fmt.Errorf("unknown staging category %q", row.Category)
		}

		existing, found := table[row.SourceKey]
		if !found {
			r.nextRowID++
			row.ID = r.nextRowID
			row.NeedsResolve = true
			stored := row
			table[row.SourceKey] = &stored
			outcomes = append(outcomes, staging.OutcomeInserted)
			continue
		}

		existing.LastSeenAt = row.LastSeenAt
		if existing.ContentHash == row.ContentHash {
			outcomes = append(outcomes, staging.OutcomeUnchanged)
			continue
		}
		existing.ContentHash = row.ContentHash
		existing.Payload = append([]byte(nil), row.Payload...)
		existing.NeedsResolve = true
		outcomes = append(outcomes, staging.OutcomeUpdated)
	}
	return outcomes, nil
}

func (r *stagingRepo) ListPending(_ context.Context, category staging.Category) ([]staging.Row, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	table, ok := r.stagingRows[category]
	if !ok {
		return nil, fmt.Errorf("unknown staging category %q", category)
	}

	out := make([]staging.Row, 0, len(table))
	for _, row := range table {
		if row.NeedsResolve {
			out = append(out, *row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *stagingRepo) ListAll(_ context.Context, category staging.Category) ([]staging.Row, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	table, ok := r.stagingRows[category]
	if !ok {
		return nil, fmt.Errorf("unknown staging category %q", category)
	}

	out := make([]staging.Row, 0, len(table))
	for _, row := range table {
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *stagingRepo) MarkResolved(_ context.Context, category staging.Category, sourceKeys []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	table, ok := r.stagingRows[category]
	if !ok {
		return fmt.Errorf("unknown staging category %q", category)
	}
	for _, key := range sourceKeys {
		if row, found := table[key]; found {
			row.NeedsResolve = false
		}
	}
	return nil
}
