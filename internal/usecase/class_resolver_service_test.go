package usecase

import (
	"context"
	"testing"

	"github.com/btstats/ttwarehouse/internal/domain/staging"
)

func TestClassResolverUpsertsAndLinksConsolations(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	ctx := context.Background()

	env.ingest(t, staging.CategoryClasses,
		classRecord("t1", "c1", "P12"),
		classRecord("t1", "c2", "P12~B"),
		classRecord("t1", "c3", "H3"),
	)

	report, err := env.classes.Resolve(ctx)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if report.Upserted != 3 || report.Linked != 1 || report.Failed != 0 {
		t.Fatalf("report: %+v", report)
	}

	parent, found, _ := env.warehouse.Classes().GetByExternalID(ctx, "c1")
	if !found {
		t.Fatal("parent class missing")
	}
	child, found, _ := env.warehouse.Classes().GetByExternalID(ctx, "c2")
	if !found {
		t.Fatal("consolation class missing")
	}
	if child.ParentID == nil || *child.ParentID != parent.ID {
		t.Fatalf("consolation not linked: %+v", child)
	}

	// a second pass has nothing pending and does not relink
	report, err = env.classes.Resolve(ctx)
	if err != nil {
		t.Fatalf("second Resolve error: %v", err)
	}
	if report.Pending != 0 || report.Linked != 0 {
		t.Fatalf("second pass report: %+v", report)
	}
}

func TestClassResolverLeavesOrphanConsolationUnlinked(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	ctx := context.Background()

	env.ingest(t, staging.CategoryClasses,
		classRecord("t1", "c1", "P13~B"),
	)

	report, err := env.classes.Resolve(ctx)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if report.Upserted != 1 || report.Unlinked != 1 || report.Linked != 0 {
		t.Fatalf("report: %+v", report)
	}

	c, _, _ := env.warehouse.Classes().GetByExternalID(ctx, "c1")
	if c.ParentID != nil {
		t.Fatalf("orphan consolation gained a parent: %+v", c)
	}
}

func TestClassResolverRefusesAmbiguousParents(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	ctx := context.Background()

	// two distinct classes share the base shortname
	env.ingest(t, staging.CategoryClasses,
		classRecord("t1", "c1", "P12"),
		classRecord("t1", "c2", "P12"),
		classRecord("t1", "c3", "P12~B"),
	)

	report, err := env.classes.Resolve(ctx)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if report.Ambiguous != 1 || report.Linked != 0 {
		t.Fatalf("report: %+v", report)
	}

	c, _, _ := env.warehouse.Classes().GetByExternalID(ctx, "c3")
	if c.ParentID != nil {
		t.Fatalf("ambiguous consolation must stay unlinked: %+v", c)
	}
}

func TestClassResolverSkipsWaitingLists(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	ctx := context.Background()

	env.ingest(t, staging.CategoryClasses,
		classRecord("t1", "c1", "P12"),
		classRecord("t1", "c2", "Reservlista P12"),
	)

	report, err := env.classes.Resolve(ctx)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if report.Upserted != 1 || report.Skipped != 1 {
		t.Fatalf("report: %+v", report)
	}

	if _, found, _ := env.warehouse.Classes().GetByExternalID(ctx, "c2"); found {
		t.Fatal("waiting list must not be stored as a class")
	}
}

func TestClassResolverParsesStartDate(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	ctx := context.Background()

	env.ingest(t, staging.CategoryClasses, staging.Record{
		SourceKey: "t1:c1",
		Payload: staging.ClassPayload{
			TournamentIDExt: "t1",
			ClassIDExt:      "c1",
			Shortname:       "D14",
			StartDate:       "2025-03-08",
		},
	})

	report, err := env.classes.Resolve(ctx)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if report.Upserted != 1 {
		t.Fatalf("report: %+v", report)
	}

	c, _, _ := env.warehouse.Classes().GetByExternalID(ctx, "c1")
	if c.StartDate == nil || c.StartDate.Format("2006-01-02") != "2025-03-08" {
		t.Fatalf("start date not parsed: %+v", c.StartDate)
	}
}
