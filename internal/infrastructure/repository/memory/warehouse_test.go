package memory

import (
	"context"
	"testing"
	"time"

	"github.com/btstats/ttwarehouse/internal/domain/class"
	"github.com/btstats/ttwarehouse/internal/domain/entry"
	"github.com/btstats/ttwarehouse/internal/domain/match"
	"github.com/btstats/ttwarehouse/internal/domain/player"
	"github.com/btstats/ttwarehouse/internal/domain/staging"
)

func mustUpsertClass(t *testing.T, repo class.Repository, tournamentExt, externalID, shortname string) int64 {
	t.Helper()
	id, err := repo.Upsert(context.Background(), class.TournamentClass{
		TournamentIDExt: tournamentExt,
		ExternalID:      externalID,
		Shortname:       shortname,
	})
	if err != nil {
		t.Fatalf("upsert class %s: %v", externalID, err)
	}
	return id
}

func TestStagingUpsertBatchChangeDetection(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewWarehouse().Staging()

	now := time.Now().UTC()
	row := staging.Row{
		Category:    staging.CategoryClasses,
		SourceKey:   "t1:c1",
		ContentHash: "hash-a",
		Payload:     []byte(`{"a":1}`),
		LastSeenAt:  now,
	}

	outcomes, err := repo.UpsertBatch(ctx, []staging.Row{row})
	if err != nil {
		t.Fatalf("UpsertBatch error: %v", err)
	}
	if outcomes[0] != staging.OutcomeInserted {
		t.Fatalf("first upsert = %s, want inserted", outcomes[0])
	}

	// same hash only bumps last_seen_at
	row.LastSeenAt = now.Add(time.Hour)
	outcomes, err = repo.UpsertBatch(ctx, []staging.Row{row})
	if err != nil {
		t.Fatalf("UpsertBatch error: %v", err)
	}
	if outcomes[0] != staging.OutcomeUnchanged {
		t.Fatalf("second upsert = %s, want unchanged", outcomes[0])
	}

	pending, err := repo.ListPending(ctx, staging.CategoryClasses)
	if err != nil {
		t.Fatalf("ListPending error: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("pending rows = %d, want 1", len(pending))
	}
	if !pending[0].LastSeenAt.Equal(now.Add(time.Hour)) {
		t.Fatalf("last seen not bumped: %v", pending[0].LastSeenAt)
	}

	if err := repo.MarkResolved(ctx, staging.CategoryClasses, []string{"t1:c1"}); err != nil {
		t.Fatalf("MarkResolved error: %v", err)
	}
	pending, _ = repo.ListPending(ctx, staging.CategoryClasses)
	if len(pending) != 0 {
		t.Fatalf("pending rows after resolve = %d, want 0", len(pending))
	}

	// changed hash updates the payload and re-flags the row
	row.ContentHash = "hash-b"
	row.Payload = []byte(`{"a":2}`)
	outcomes, err = repo.UpsertBatch(ctx, []staging.Row{row})
	if err != nil {
		t.Fatalf("UpsertBatch error: %v", err)
	}
	if outcomes[0] != staging.OutcomeUpdated {
		t.Fatalf("third upsert = %s, want updated", outcomes[0])
	}
	pending, _ = repo.ListPending(ctx, staging.CategoryClasses)
	if len(pending) != 1 || string(pending[0].Payload) != `{"a":2}` {
		t.Fatalf("updated row not pending with new payload: %+v", pending)
	}
}

func TestPlayerMergeRepointsAndDropsCollisions(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	w := NewWarehouse()
	players := w.Players()
	entries := w.Entries()
	classes := w.Classes()

	survivorID, err := players.Create(ctx, player.Player{
		IsVerified: true, ExternalID: "ext-1", FullnameRaw: "Nils Lennebratt", FullnameKey: "nils lennebratt",
	})
	if err != nil {
		t.Fatalf("create survivor: %v", err)
	}
	loserID, err := players.Create(ctx, player.Player{
		FullnameRaw: "Lennebratt Nils", FullnameKey: "lennebratt nils",
	})
	if err != nil {
		t.Fatalf("create loser: %v", err)
	}

	sharedClass := mustUpsertClass(t, classes, "t1", "c1", "P12")
	loserOnlyClass := mustUpsertClass(t, classes, "t1", "c2", "P14")

	if _, err := entries.Upsert(ctx, entry.Entry{ClassID: sharedClass, PlayerID: survivorID}); err != nil {
		t.Fatalf("survivor entry: %v", err)
	}
	if _, err := entries.Upsert(ctx, entry.Entry{ClassID: sharedClass, PlayerID: loserID}); err != nil {
		t.Fatalf("loser shared entry: %v", err)
	}
	if _, err := entries.Upsert(ctx, entry.Entry{ClassID: loserOnlyClass, PlayerID: loserID}); err != nil {
		t.Fatalf("loser only entry: %v", err)
	}

	if err := players.Merge(ctx, survivorID, []int64{loserID}); err != nil {
		t.Fatalf("Merge error: %v", err)
	}

	if _, found, _ := players.GetByExternalID(ctx, "ext-1"); !found {
		t.Fatal("survivor vanished")
	}
	unverified, _ := players.ListUnverified(ctx)
	if len(unverified) != 0 {
		t.Fatalf("loser still present: %+v", unverified)
	}

	shared, _ := entries.ListByClass(ctx, sharedClass)
	if len(shared) != 1 || shared[0].PlayerID != survivorID {
		t.Fatalf("colliding entry not dropped: %+v", shared)
	}
	moved, _ := entries.ListByClass(ctx, loserOnlyClass)
	if len(moved) != 1 || moved[0].PlayerID != survivorID {
		t.Fatalf("entry not repointed: %+v", moved)
	}
}

func TestPlayerMergeRepointsMatchSidesAndKeepsAlias(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	w := NewWarehouse()
	players := w.Players()
	entries := w.Entries()

	survivorID, err := players.Create(ctx, player.Player{
		IsVerified: true, ExternalID: "ext-1", FullnameRaw: "Nils Lennebratt", FullnameKey: "nils lennebratt",
	})
	if err != nil {
		t.Fatalf("create survivor: %v", err)
	}
	loserID, err := players.Create(ctx, player.Player{
		IsVerified: true, ExternalID: "ext-2", FullnameRaw: "Nils Lennebratt", FullnameKey: "nils lennebratt",
	})
	if err != nil {
		t.Fatalf("create loser: %v", err)
	}

	classID := mustUpsertClass(t, w.Classes(), "t1", "c1", "P12")
	survivorEntryID, err := entries.Upsert(ctx, entry.Entry{ClassID: classID, PlayerID: survivorID})
	if err != nil {
		t.Fatalf("survivor entry: %v", err)
	}
	loserEntryID, err := entries.Upsert(ctx, entry.Entry{ClassID: classID, PlayerID: loserID})
	if err != nil {
		t.Fatalf("loser entry: %v", err)
	}

	// the duplicates met each other before anyone noticed they were one person
	if _, err := w.Matches().ReplaceForClass(ctx, classID, []match.Bundle{{
		Match: match.Match{ExternalID: "m1", BestOf: 5},
		Sides: []match.Side{
			{SideNo: 1, EntryID: survivorEntryID},
			{SideNo: 2, EntryID: loserEntryID},
		},
		Players: []match.Player{
			{SideNo: 1, PlayerID: survivorID, PlayerOrder: 1},
			{SideNo: 2, PlayerID: loserID, PlayerOrder: 1},
		},
	}}); err != nil {
		t.Fatalf("ReplaceForClass error: %v", err)
	}

	if err := players.Merge(ctx, survivorID, []int64{loserID}); err != nil {
		t.Fatalf("Merge error: %v", err)
	}

	remaining, _ := entries.ListByClass(ctx, classID)
	if len(remaining) != 1 || remaining[0].ID != survivorEntryID {
		t.Fatalf("colliding entry handling: %+v", remaining)
	}

	bundles, err := w.Matches().ListByClass(ctx, classID)
	if err != nil || len(bundles) != 1 {
		t.Fatalf("ListByClass: %v, %d bundles", err, len(bundles))
	}
	for _, s := range bundles[0].Sides {
		if s.EntryID != survivorEntryID {
			t.Fatalf("side %d still references dropped entry: %+v", s.SideNo, s)
		}
	}
	for _, mp := range bundles[0].Players {
		if mp.PlayerID != survivorID {
			t.Fatalf("match player not repointed: %+v", mp)
		}
	}

	// the merged-away external id still resolves
	got, found, err := players.GetByExternalID(ctx, "ext-2")
	if err != nil || !found {
		t.Fatalf("merged-away id lookup: found=%t err=%v", found, err)
	}
	if got.ID != survivorID {
		t.Fatalf("merged-away id resolves to %d, want survivor %d", got.ID, survivorID)
	}
}

func TestEntryUpsertSyntheticNeverSupersedesGenuine(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	w := NewWarehouse()
	players := w.Players()
	entries := w.Entries()
	classes := w.Classes()

	playerID, err := players.Create(ctx, player.Player{FullnameRaw: "Åsa Öberg", FullnameKey: "åsa öberg"})
	if err != nil {
		t.Fatalf("create player: %v", err)
	}
	classID := mustUpsertClass(t, classes, "t1", "c1", "D14")

	if _, err := entries.Upsert(ctx, entry.Entry{ClassID: classID, PlayerID: playerID, IsSynthetic: false}); err != nil {
		t.Fatalf("genuine upsert: %v", err)
	}
	if _, err := entries.Upsert(ctx, entry.Entry{ClassID: classID, PlayerID: playerID, IsSynthetic: true}); err != nil {
		t.Fatalf("synthetic upsert: %v", err)
	}

	got, _ := entries.ListByClass(ctx, classID)
	if len(got) != 1 || got[0].IsSynthetic {
		t.Fatalf("genuine flag lost: %+v", got)
	}

	count, err := entries.CountByClass(ctx, classID, false)
	if err != nil || count != 1 {
		t.Fatalf("CountByClass = %d, %v", count, err)
	}
}
