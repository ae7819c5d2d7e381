package usecase

import (
	"context"
	"testing"

	"github.com/btstats/ttwarehouse/internal/domain/staging"
)

func TestStagingServiceIngestChangeDetection(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	ctx := context.Background()

	report := env.ingest(t, staging.CategoryPlayerLicenses,
		licenseRecord("p1", "Nils", "Lennebratt", ptrInt64(10)),
		licenseRecord("p2", "Harry", "Hamrén", ptrInt64(11)),
	)
	if report.Inserted != 2 || report.Updated != 0 || report.Unchanged != 0 {
		t.Fatalf("first ingest report: %+v", report)
	}

	// byte-identical re-ingest stages nothing new
	report = env.ingest(t, staging.CategoryPlayerLicenses,
		licenseRecord("p1", "Nils", "Lennebratt", ptrInt64(10)),
		licenseRecord("p2", "Harry", "Hamrén", ptrInt64(11)),
	)
	if report.Unchanged != 2 || report.Inserted != 0 || report.Updated != 0 {
		t.Fatalf("repeat ingest report: %+v", report)
	}

	// a changed field flips exactly that row to updated
	report = env.ingest(t, staging.CategoryPlayerLicenses,
		licenseRecord("p1", "Nils", "Lennebratt", ptrInt64(99)),
		licenseRecord("p2", "Harry", "Hamrén", ptrInt64(11)),
	)
	if report.Updated != 1 || report.Unchanged != 1 {
		t.Fatalf("changed ingest report: %+v", report)
	}

	pending, err := env.warehouse.Staging().ListPending(ctx, staging.CategoryPlayerLicenses)
	if err != nil {
		t.Fatalf("ListPending error: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("pending rows = %d, want 2", len(pending))
	}
}

func TestStagingServiceIngestLastDuplicateWins(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	ctx := context.Background()

	first := licenseRecord("p1", "Nils", "Lennebratt", ptrInt64(10))
	second := licenseRecord("p1", "Nils", "Lennebratt", ptrInt64(42))

	report := env.ingest(t, staging.CategoryPlayerLicenses, first, second)
	if report.Inserted != 1 || report.Skipped != 1 {
		t.Fatalf("duplicate ingest report: %+v", report)
	}

	rows, err := env.warehouse.Staging().ListAll(ctx, staging.CategoryPlayerLicenses)
	if err != nil {
		t.Fatalf("ListAll error: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("staged rows = %d, want 1", len(rows))
	}

	var payload staging.LicensePayload
	if err := decodePayload(rows[0].Payload, &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload.ClubID == nil || *payload.ClubID != 42 {
		t.Fatalf("expected last duplicate to win, got club %v", payload.ClubID)
	}
}

func TestStagingServiceIngestSkipsInvalidRecords(t *testing.T) {
	t.Parallel()

	env := newTestEnv()

	report := env.ingest(t, staging.CategoryPlayerLicenses,
		// missing lastname fails validation
		staging.Record{
			SourceKey: "24-25:bad",
			Payload: staging.LicensePayload{
				SeasonLabel:    "2024-2025",
				PlayerIDExt:    "bad",
				Firstname:      "Nils",
				LicenseInfoRaw: "A-licens Senior (2024.07.01)",
			},
		},
		// payload type does not match the category
		staging.Record{
			SourceKey: "24-25:wrong",
			Payload:   staging.ClassPayload{TournamentIDExt: "t1", ClassIDExt: "c1", Shortname: "P12"},
		},
		// no source key
		staging.Record{Payload: staging.LicensePayload{}},
		licenseRecord("ok", "Harry", "Hamrén", nil),
	)

	if report.Skipped != 3 || report.Inserted != 1 {
		t.Fatalf("report: %+v", report)
	}
}

func TestStagingServiceIngestRejectsUnknownCategory(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	_, err := env.staging.Ingest(context.Background(), staging.Category("nope"), []staging.Record{
		{SourceKey: "x", Payload: staging.LicensePayload{}},
	})
	if err == nil {
		t.Fatal("expected error for unknown category")
	}
}
