package usecase

import (
	"context"
	"testing"

	"github.com/bytedance/sonic"

	"github.com/btstats/ttwarehouse/internal/domain/class"
	"github.com/btstats/ttwarehouse/internal/domain/staging"
	"github.com/btstats/ttwarehouse/internal/infrastructure/repository/memory"
	"github.com/btstats/ttwarehouse/internal/platform/logging"
)

// testEnv wires every service onto one in-memory warehouse.
type testEnv struct {
	warehouse *memory.Warehouse
	staging   *StagingService
	players   *PlayerResolver
	classes   *ClassResolver
	entries   *EntryResolver
	matches   *MatchResolver
	pipeline  *Pipeline
}

func newTestEnv() *testEnv {
	w := memory.NewWarehouse()
	logger := logging.NewNop()

	players := NewPlayerResolver(w.Staging(), w.Players(), logger)
	classes := NewClassResolver(w.Staging(), w.Classes(), logger, nil)
	entries := NewEntryResolver(w.Staging(), w.Classes(), w.Entries(), w.Players(), logger)
	matches := NewMatchResolver(w.Staging(), w.Classes(), w.Entries(), w.Players(), w.Matches(), logger)

	return &testEnv{
		warehouse: w,
		staging:   NewStagingService(w.Staging(), logger, 2),
		players:   players,
		classes:   classes,
		entries:   entries,
		matches:   matches,
		pipeline:  NewPipeline(players, classes, entries, matches, logger),
	}
}

func (e *testEnv) ingest(t *testing.T, category staging.Category, records ...staging.Record) IngestReport {
	t.Helper()
	report, err := e.staging.Ingest(context.Background(), category, records)
	if err != nil {
		t.Fatalf("ingest %s: %v", category, err)
	}
	return report
}

func licenseRecord(extID, firstname, lastname string, clubID *int64) staging.Record {
	return staging.Record{
		SourceKey: "24-25:" + extID,
		Payload: staging.LicensePayload{
			SeasonLabel:    "2024-2025",
			PlayerIDExt:    extID,
			Firstname:      firstname,
			Lastname:       lastname,
			ClubID:         clubID,
			LicenseInfoRaw: "A-licens Senior (2024.07.01)",
		},
	}
}

func classRecord(tournamentExt, classExt, shortname string) staging.Record {
	return staging.Record{
		SourceKey: tournamentExt + ":" + classExt,
		Payload: staging.ClassPayload{
			TournamentIDExt: tournamentExt,
			ClassIDExt:      classExt,
			Shortname:       shortname,
		},
	}
}

func entryRecord(classExt, fullname string, clubID *int64) staging.Record {
	return staging.Record{
		SourceKey: classExt + ":" + fullname,
		Payload: staging.EntryPayload{
			ClassIDExt: classExt,
			Fullname:   fullname,
			ClubID:     clubID,
		},
	}
}

func matchRecord(classExt, matchExt, side1, side2, scoreTokens string, bestOf int) staging.Record {
	return staging.Record{
		SourceKey: classExt + ":" + matchExt,
		Payload: staging.MatchPayload{
			ClassIDExt:  classExt,
			MatchIDExt:  matchExt,
			Side1Name:   side1,
			Side2Name:   side2,
			ScoreTokens: scoreTokens,
			BestOf:      bestOf,
		},
	}
}

func classDomain(tournamentExt, classExt, shortname string) class.TournamentClass {
	return class.TournamentClass{
		TournamentIDExt: tournamentExt,
		ExternalID:      classExt,
		Shortname:       shortname,
	}
}

func decodePayload(data []byte, out any) error {
	return sonic.Unmarshal(data, out)
}

func ptrInt64(v int64) *int64 { return &v }
