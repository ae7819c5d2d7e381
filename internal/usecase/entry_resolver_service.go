package usecase

import (
	"context"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"

	"github.com/btstats/ttwarehouse/internal/domain/class"
	"github.com/btstats/ttwarehouse/internal/domain/entry"
	"github.com/btstats/ttwarehouse/internal/domain/player"
	"github.com/btstats/ttwarehouse/internal/domain/staging"
	"github.com/btstats/ttwarehouse/internal/platform/logging"
)

// EntryResolver turns staged registrations into canonical class entries,
// resolving each scraped name to a player through the directory's strategy
// order and creating unverified placeholders as a last resort.
type EntryResolver struct {
	stagingRepo staging.Repository
	classRepo   class.Repository
	entryRepo   entry.Repository
	playerRepo  player.Repository
	logger      *logging.Logger
}

func NewEntryResolver(
	stagingRepo staging.Repository,
	classRepo class.Repository,
	entryRepo entry.Repository,
	playerRepo player.Repository,
	logger *logging.Logger,
) *EntryResolver {
	if logger == nil {
		logger = logging.Default()
	}
	return &EntryResolver{
		stagingRepo: stagingRepo,
		classRepo:   classRepo,
		entryRepo:   entryRepo,
		playerRepo:  playerRepo,
		logger:      logger,
	}
}

// EntryReport tallies one entry normalization pass.
type EntryReport struct {
	Pending        int `json:"pending"`
	Upserted       int `json:"upserted"`
	PlayersCreated int `json:"players_created"`
	Unresolved     int `json:"unresolved"`
	Failed         int `json:"failed"`
}

// Resolve processes pending entry rows. Rows whose class is not yet known
// stay pending and are retried on the next pass; malformed rows are consumed
// and counted as failed.
func (r *EntryResolver) Resolve(ctx context.Context) (EntryReport, error) {
	ctx, span := startUsecaseSpan(ctx, "EntryResolver.Resolve")
	defer span.End()

	var report EntryReport

	rows, err := r.stagingRepo.ListPending(ctx, staging.CategoryEntries)
	if err != nil {
		return report, errors.Wrap(err, "list pending entry rows")
	}
	report.Pending = len(rows)
	if len(rows) == 0 {
		return report, nil
	}

	directory, err := loadPlayerDirectory(ctx, r.playerRepo)
	if err != nil {
		return report, err
	}

	classCache := make(map[string]*class.TournamentClass)
	consumed := make([]string, 0, len(rows))

	for _, row := range rows {
		var payload staging.EntryPayload
		if err := sonic.Unmarshal(row.Payload, &payload); err != nil {
			r.logger.WarnContext(ctx, "entry row payload undecodable",
				"source_key", row.SourceKey, "error", err)
			report.Failed++
			consumed = append(consumed, row.SourceKey)
			continue
		}

		cls, ok := classCache[payload.ClassIDExt]
		if !ok {
			found, exists, lookupErr := r.classRepo.GetByExternalID(ctx, payload.ClassIDExt)
			if lookupErr != nil {
				return report, errors.Wrapf(lookupErr, "lookup class %s", payload.ClassIDExt)
			}
			if exists {
				cls = &found
			}
			classCache[payload.ClassIDExt] = cls
		}
		if cls == nil {
			// class may arrive in a later scrape; keep the row pending
			report.Unresolved++
			continue
		}

		p, created, err := directory.ResolveOrCreate(ctx, payload.Fullname, payload.ClubID)
		if err != nil {
			r.logger.WarnContext(ctx, "entry player resolution failed",
				"source_key", row.SourceKey, "fullname", payload.Fullname, "error", err)
			report.Failed++
			consumed = append(consumed, row.SourceKey)
			continue
		}
		if created {
			report.PlayersCreated++
		}

		e := entry.Entry{
			ClassID:       cls.ID,
			PlayerID:      p.ID,
			ClubID:        payload.ClubID,
			Seed:          payload.Seed,
			FinalPosition: payload.FinalPosition,
			IsSynthetic:   false,
		}
		if _, err := r.entryRepo.Upsert(ctx, e); err != nil {
			r.logger.WarnContext(ctx, "entry upsert failed",
				"source_key", row.SourceKey, "class_id_ext", payload.ClassIDExt, "error", err)
			report.Failed++
			consumed = append(consumed, row.SourceKey)
			continue
		}
		report.Upserted++
		consumed = append(consumed, row.SourceKey)
	}

	if err := r.stagingRepo.MarkResolved(ctx, staging.CategoryEntries, consumed); err != nil {
		return report, errors.Wrap(err, "mark entry rows resolved")
	}

	r.logger.InfoContext(ctx, "entry normalization pass finished",
		"pending", report.Pending,
		"upserted", report.Upserted,
		"players_created", report.PlayersCreated,
		"unresolved", report.Unresolved,
		"failed", report.Failed)
	return report, nil
}
