package usecase

import (
	"context"
	"testing"

	"github.com/btstats/ttwarehouse/internal/domain/staging"
)

func TestPipelineRunsAllStagesInOrder(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	ctx := context.Background()

	// one scrape's worth of raw data across every category
	env.ingest(t, staging.CategoryPlayerLicenses,
		licenseRecord("p1", "Nils", "Lennebratt", ptrInt64(10)),
		licenseRecord("p2", "Harry", "Hamrén", ptrInt64(11)),
	)
	env.ingest(t, staging.CategoryClasses,
		classRecord("t1", "c1", "P12"),
		classRecord("t1", "c2", "P12~B"),
	)
	env.ingest(t, staging.CategoryEntries,
		entryRecord("c1", "Lennebratt Nils", ptrInt64(10)),
		entryRecord("c1", "Hamrén Harry", ptrInt64(11)),
	)
	env.ingest(t, staging.CategoryMatches,
		matchRecord("c1", "m1", "Lennebratt Nils", "Hamrén Harry", "8, -5, 9, 7", 5),
		matchRecord("c2", "m2", "Lennebratt Nils", "Hamrén Harry", "-4, -6, -3", 5),
	)

	report, err := env.pipeline.Run(ctx, AllStages())
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}

	if report.Players.Created != 2 {
		t.Fatalf("player stage: %+v", report.Players)
	}
	if report.Classes.Upserted != 2 || report.Classes.Linked != 1 {
		t.Fatalf("class stage: %+v", report.Classes)
	}
	if report.Entries.Upserted != 2 {
		t.Fatalf("entry stage: %+v", report.Entries)
	}
	if report.Matches.Matches != 2 || report.Matches.Synthesized != 2 {
		t.Fatalf("match stage: %+v", report.Matches)
	}
	if report.FinishedAt.Before(report.StartedAt) {
		t.Fatalf("timestamps: started %v finished %v", report.StartedAt, report.FinishedAt)
	}

	if bundles := classBundles(t, env, "c1"); len(bundles) != 1 {
		t.Fatalf("parent class matches = %d, want 1", len(bundles))
	}
	if bundles := classBundles(t, env, "c2"); len(bundles) != 1 {
		t.Fatalf("consolation matches = %d, want 1", len(bundles))
	}
}

func TestPipelineSecondRunIsIdle(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	ctx := context.Background()

	env.ingest(t, staging.CategoryPlayerLicenses,
		licenseRecord("p1", "Nils", "Lennebratt", ptrInt64(10)),
	)
	env.ingest(t, staging.CategoryClasses, classRecord("t1", "c1", "H5"))
	env.ingest(t, staging.CategoryEntries, entryRecord("c1", "Lennebratt Nils", ptrInt64(10)))

	if _, err := env.pipeline.Run(ctx, AllStages()); err != nil {
		t.Fatalf("first Run error: %v", err)
	}

	report, err := env.pipeline.Run(ctx, AllStages())
	if err != nil {
		t.Fatalf("second Run error: %v", err)
	}
	if report.Players.Pending != 0 || report.Classes.Pending != 0 ||
		report.Entries.Pending != 0 || report.Matches.Pending != 0 {
		t.Fatalf("second run did work: %+v", report)
	}
}

func TestPipelineRunsOnlySelectedStages(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	ctx := context.Background()

	env.ingest(t, staging.CategoryPlayerLicenses,
		licenseRecord("p1", "Nils", "Lennebratt", ptrInt64(10)),
	)
	env.ingest(t, staging.CategoryClasses, classRecord("t1", "c1", "H5"))

	report, err := env.pipeline.Run(ctx, Stages{Players: true})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if report.Players.Created != 1 {
		t.Fatalf("player stage: %+v", report.Players)
	}
	if report.Classes.Pending != 0 || report.Classes.Upserted != 0 {
		t.Fatalf("disabled stage ran: %+v", report.Classes)
	}

	pending, _ := env.warehouse.Staging().ListPending(ctx, staging.CategoryClasses)
	if len(pending) != 1 {
		t.Fatalf("class rows must stay pending when stage disabled: %d", len(pending))
	}
}
