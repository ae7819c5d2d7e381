package usecase

import (
	"context"
	"testing"

	"github.com/btstats/ttwarehouse/internal/domain/staging"
)

func TestEntryResolverMatchesVerifiedPlayerOnFlippedName(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	ctx := context.Background()

	env.ingest(t, staging.CategoryPlayerLicenses,
		licenseRecord("p1", "Nils", "Lennebratt", ptrInt64(10)),
	)
	if _, err := env.players.Resolve(ctx); err != nil {
		t.Fatalf("player pass: %v", err)
	}
	env.ingest(t, staging.CategoryClasses, classRecord("t1", "c1", "P12"))
	if _, err := env.classes.Resolve(ctx); err != nil {
		t.Fatalf("class pass: %v", err)
	}

	// entry lists publish "Lastname Firstname", licenses the other way around
	env.ingest(t, staging.CategoryEntries,
		entryRecord("c1", "Lennebratt Nils", ptrInt64(10)),
	)

	report, err := env.entries.Resolve(ctx)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if report.Upserted != 1 || report.PlayersCreated != 0 {
		t.Fatalf("report: %+v", report)
	}

	verified, _, _ := env.warehouse.Players().GetByExternalID(ctx, "p1")
	cls, _, _ := env.warehouse.Classes().GetByExternalID(ctx, "c1")
	entries, _ := env.warehouse.Entries().ListByClass(ctx, cls.ID)
	if len(entries) != 1 || entries[0].PlayerID != verified.ID {
		t.Fatalf("entry not bound to verified player: %+v", entries)
	}
	if entries[0].IsSynthetic {
		t.Fatal("genuine registration flagged synthetic")
	}
}

func TestEntryResolverCreatesUnverifiedForUnknownName(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	ctx := context.Background()

	env.ingest(t, staging.CategoryClasses, classRecord("t1", "c1", "P12"))
	if _, err := env.classes.Resolve(ctx); err != nil {
		t.Fatalf("class pass: %v", err)
	}
	env.ingest(t, staging.CategoryEntries,
		entryRecord("c1", "Okänd Person", ptrInt64(33)),
	)

	report, err := env.entries.Resolve(ctx)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if report.Upserted != 1 || report.PlayersCreated != 1 {
		t.Fatalf("report: %+v", report)
	}

	unverified, _ := env.warehouse.Players().ListUnverified(ctx)
	if len(unverified) != 1 {
		t.Fatalf("unverified players = %d, want 1", len(unverified))
	}
	if unverified[0].ClubID == nil || *unverified[0].ClubID != 33 {
		t.Fatalf("placeholder club not kept: %+v", unverified[0])
	}
}

func TestEntryResolverHoldsRowsUntilClassArrives(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	ctx := context.Background()

	env.ingest(t, staging.CategoryEntries,
		entryRecord("c9", "Nils Lennebratt", ptrInt64(10)),
	)

	report, err := env.entries.Resolve(ctx)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if report.Unresolved != 1 || report.Upserted != 0 {
		t.Fatalf("report: %+v", report)
	}

	pending, _ := env.warehouse.Staging().ListPending(ctx, staging.CategoryEntries)
	if len(pending) != 1 {
		t.Fatalf("row must stay pending, got %d", len(pending))
	}

	// the class shows up in a later scrape and the row drains
	env.ingest(t, staging.CategoryClasses, classRecord("t1", "c9", "H4"))
	if _, err := env.classes.Resolve(ctx); err != nil {
		t.Fatalf("class pass: %v", err)
	}

	report, err = env.entries.Resolve(ctx)
	if err != nil {
		t.Fatalf("second Resolve error: %v", err)
	}
	if report.Upserted != 1 {
		t.Fatalf("second pass report: %+v", report)
	}
	pending, _ = env.warehouse.Staging().ListPending(ctx, staging.CategoryEntries)
	if len(pending) != 0 {
		t.Fatalf("row still pending after class arrived: %d", len(pending))
	}
}
