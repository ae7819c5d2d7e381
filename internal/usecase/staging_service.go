package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/panjf2000/ants/v2"

	"github.com/btstats/ttwarehouse/internal/domain/staging"
	"github.com/btstats/ttwarehouse/internal/platform/logging"
)

// canonicalJSON fingerprints payloads. Map keys are sorted so the same
// logical payload always hashes the same.
var canonicalJSON = sonic.Config{SortMapKeys: true}.Froze()

const defaultHashWorkers = 8

// StagingService ingests scraped records into the staging store. It owns the
// content-hash side of change detection; the repository decides inserted,
// updated or unchanged from the hash it is handed.
type StagingService struct {
	repo        staging.Repository
	logger      *logging.Logger
	validate    *validator.Validate
	hashWorkers int
	now         func() time.Time
}

func NewStagingService(repo staging.Repository, logger *logging.Logger, hashWorkers int) *StagingService {
	if logger == nil {
		logger = logging.Default()
	}
	if hashWorkers <= 0 {
		hashWorkers = defaultHashWorkers
	}
	return &StagingService{
		repo:        repo,
		logger:      logger,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
		hashWorkers: hashWorkers,
		now:         time.Now,
	}
}

// IngestReport tallies one ingestion batch.
type IngestReport struct {
	Category  staging.Category `json:"category"`
	Received  int              `json:"received"`
	Inserted  int              `json:"inserted"`
	Updated   int              `json:"updated"`
	Unchanged int              `json:"unchanged"`
	Skipped   int              `json:"skipped"`
}

// Ingest validates, canonicalizes and fingerprints a batch of scraped
// records, then upserts them as one staging batch. Records failing payload
// validation are skipped and logged, never staged. When a batch repeats a
// source key the last occurrence wins.
func (s *StagingService) Ingest(ctx context.Context, category staging.Category, records []staging.Record) (IngestReport, error) {
	ctx, span := startUsecaseSpan(ctx, "StagingService.Ingest")
	defer span.End()

	report := IngestReport{Category: category, Received: len(records)}
	if !category.Valid() {
		return report, errors.Wrapf(ErrInvalidInput, "unknown staging category %q", category)
	}
	if len(records) == 0 {
		return report, nil
	}

	accepted := make([]staging.Record, 0, len(records))
	byKey := make(map[string]int, len(records))
	for _, rec := range records {
		if rec.SourceKey == "" {
			s.logger.WarnContext(ctx, "staging record without source key skipped", "category", category)
			report.Skipped++
			continue
		}
		if err := s.validatePayload(category, rec.Payload); err != nil {
			s.logger.WarnContext(ctx, "staging record failed validation",
				"category", category, "source_key", rec.SourceKey, "error", err)
			report.Skipped++
			continue
		}
		if idx, seen := byKey[rec.SourceKey]; seen {
			accepted[idx] = rec
			report.Skipped++
			continue
		}
		byKey[rec.SourceKey] = len(accepted)
		accepted = append(accepted, rec)
	}
	if len(accepted) == 0 {
		return report, nil
	}

	rows, err := s.fingerprint(ctx, category, accepted)
	if err != nil {
		return report, err
	}

	outcomes, err := s.repo.UpsertBatch(ctx, rows)
	if err != nil {
		return report, errors.Wrap(err, "upsert staging batch")
	}
	for _, outcome := range outcomes {
		switch outcome {
		case staging.OutcomeInserted:
			report.Inserted++
		case staging.OutcomeUpdated:
			report.Updated++
		case staging.OutcomeUnchanged:
			report.Unchanged++
		}
	}

	s.logger.InfoContext(ctx, "staging batch ingested",
		"category", category,
		"received", report.Received,
		"inserted", report.Inserted,
		"updated", report.Updated,
		"unchanged", report.Unchanged,
		"skipped", report.Skipped)
	return report, nil
}

func (s *StagingService) validatePayload(category staging.Category, payload any) error {
	if payload == nil {
		return errors.Wrap(ErrInvalidInput, "missing payload")
	}
	switch category {
	case staging.CategoryPlayerLicenses:
		if _, ok := payload.(staging.LicensePayload); !ok {
			return errors.Wrapf(ErrInvalidInput, "payload type %T does not match category %q", payload, category)
		}
	case staging.CategoryClasses:
		if _, ok := payload.(staging.ClassPayload); !ok {
			return errors.Wrapf(ErrInvalidInput, "payload type %T does not match category %q", payload, category)
		}
	case staging.CategoryEntries:
		if _, ok := payload.(staging.EntryPayload); !ok {
			return errors.Wrapf(ErrInvalidInput, "payload type %T does not match category %q", payload, category)
		}
	case staging.CategoryMatches:
		if _, ok := payload.(staging.MatchPayload); !ok {
			return errors.Wrapf(ErrInvalidInput, "payload type %T does not match category %q", payload, category)
		}
	}
	if err := s.validate.Struct(payload); err != nil {
		return errors.Wrap(err, "payload validation")
	}
	return nil
}

// fingerprint serializes each payload to canonical JSON and hashes it on a
// bounded worker pool. Row order follows record order.
func (s *StagingService) fingerprint(ctx context.Context, category staging.Category, records []staging.Record) ([]staging.Row, error) {
	workers := s.hashWorkers
	if workers > len(records) {
		workers = len(records)
	}
	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, errors.Wrap(err, "create hash pool")
	}
	defer pool.Release()

	now := s.now().UTC()
	rows := make([]staging.Row, len(records))
	errs := make([]error, len(records))

	var wg sync.WaitGroup
	for i := range records {
		i := i
		wg.Add(1)
		task := func() {
			defer wg.Done()
			rows[i], errs[i] = buildRow(category, records[i], now)
		}
		if submitErr := pool.Submit(task); submitErr != nil {
			task()
		}
	}
	wg.Wait()

	for i, rowErr := range errs {
		if rowErr != nil {
			return nil, errors.Wrapf(rowErr, "fingerprint record %q", records[i].SourceKey)
		}
	}
	return rows, nil
}

func buildRow(category staging.Category, rec staging.Record, now time.Time) (staging.Row, error) {
	payload, err := canonicalJSON.Marshal(rec.Payload)
	if err != nil {
		return staging.Row{}, errors.Wrap(err, "marshal payload")
	}
	sum := sha256.Sum256(payload)
	return staging.Row{
		Category:    category,
		SourceKey:   rec.SourceKey,
		ContentHash: hex.EncodeToString(sum[:]),
		Payload:     payload,
		LastSeenAt:  now,
	}, nil
}
