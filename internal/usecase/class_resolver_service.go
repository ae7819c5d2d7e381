package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"

	"github.com/btstats/ttwarehouse/internal/domain/class"
	"github.com/btstats/ttwarehouse/internal/domain/staging"
	"github.com/btstats/ttwarehouse/internal/platform/logging"
)

// reservlista classes are waiting lists, not playable brackets.
const waitingListMarker = "reservlista"

// ClassResolver upserts staged tournament classes and links consolation
// brackets to their parent class by shortname within the same tournament.
type ClassResolver struct {
	stagingRepo staging.Repository
	classRepo   class.Repository
	logger      *logging.Logger
	suffixes    []string
}

func NewClassResolver(stagingRepo staging.Repository, classRepo class.Repository, logger *logging.Logger, consolationSuffixes []string) *ClassResolver {
	if logger == nil {
		logger = logging.Default()
	}
	if len(consolationSuffixes) == 0 {
		consolationSuffixes = class.DefaultConsolationSuffixes
	}
	return &ClassResolver{
		stagingRepo: stagingRepo,
		classRepo:   classRepo,
		logger:      logger,
		suffixes:    consolationSuffixes,
	}
}

// ClassReport tallies one hierarchy resolution pass.
type ClassReport struct {
	Pending   int `json:"pending"`
	Upserted  int `json:"upserted"`
	Linked    int `json:"linked"`
	Unlinked  int `json:"unlinked"`
	Ambiguous int `json:"ambiguous"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
}

func (r *ClassResolver) Resolve(ctx context.Context) (ClassReport, error) {
	ctx, span := startUsecaseSpan(ctx, "ClassResolver.Resolve")
	defer span.End()

	var report ClassReport

	rows, err := r.stagingRepo.ListPending(ctx, staging.CategoryClasses)
	if err != nil {
		return report, errors.Wrap(err, "list pending class rows")
	}
	report.Pending = len(rows)

	consumed := make([]string, 0, len(rows))
	for _, row := range rows {
		consumed = append(consumed, row.SourceKey)

		var payload staging.ClassPayload
		if err := sonic.Unmarshal(row.Payload, &payload); err != nil {
			r.logger.WarnContext(ctx, "class row payload undecodable",
				"source_key", row.SourceKey, "error", err)
			report.Failed++
			continue
		}
		if isWaitingList(payload) {
			report.Skipped++
			continue
		}

		c := class.TournamentClass{
			TournamentIDExt: payload.TournamentIDExt,
			ExternalID:      payload.ClassIDExt,
			Shortname:       strings.TrimSpace(payload.Shortname),
			Longname:        strings.TrimSpace(payload.Longname),
			Gender:          payload.Gender,
		}
		if payload.StartDate != "" {
			t, parseErr := time.Parse("2006-01-02", payload.StartDate)
			if parseErr != nil {
				r.logger.WarnContext(ctx, "class start date unparseable",
					"class_id_ext", payload.ClassIDExt, "start_date", payload.StartDate, "error", parseErr)
				report.Failed++
				continue
			}
			c.StartDate = &t
		}

		if _, err := r.classRepo.Upsert(ctx, c); err != nil {
			r.logger.WarnContext(ctx, "class upsert failed",
				"class_id_ext", payload.ClassIDExt, "error", err)
			report.Failed++
			continue
		}
		report.Upserted++
	}

	if err := r.linkConsolations(ctx, &report); err != nil {
		return report, err
	}

	if err := r.stagingRepo.MarkResolved(ctx, staging.CategoryClasses, consumed); err != nil {
		return report, errors.Wrap(err, "mark class rows resolved")
	}

	r.logger.InfoContext(ctx, "class hierarchy pass finished",
		"pending", report.Pending,
		"upserted", report.Upserted,
		"linked", report.Linked,
		"unlinked", report.Unlinked,
		"ambiguous", report.Ambiguous,
		"skipped", report.Skipped,
		"failed", report.Failed)
	return report, nil
}

// linkConsolations walks every stored class and links suffix-marked ones to
// the unique class with the base shortname in the same tournament. Zero or
// multiple candidates never guess; the case is reported and the class stays
// unlinked.
func (r *ClassResolver) linkConsolations(ctx context.Context, report *ClassReport) error {
	all, err := r.classRepo.ListAll(ctx)
	if err != nil {
		return errors.Wrap(err, "list classes")
	}

	forest := class.NewForest(all)
	byTournament := make(map[string]map[string][]class.TournamentClass)
	for _, c := range all {
		shortnames, ok := byTournament[c.TournamentIDExt]
		if !ok {
			shortnames = make(map[string][]class.TournamentClass)
			byTournament[c.TournamentIDExt] = shortnames
		}
		shortnames[c.Shortname] = append(shortnames[c.Shortname], c)
	}

	for _, c := range all {
		base, isChild := class.SplitConsolation(c.Shortname, r.suffixes)
		if !isChild {
			continue
		}
		if c.ParentID != nil {
			continue
		}

		candidates := byTournament[c.TournamentIDExt][base]
		switch len(candidates) {
		case 0:
			report.Unlinked++
			r.logger.WarnContext(ctx, "consolation class has no parent candidate",
				"class_id_ext", c.ExternalID, "shortname", c.Shortname, "tournament_id_ext", c.TournamentIDExt)
		case 1:
			parent := candidates[0]
			if err := forest.Link(c.ID, parent.ID); err != nil {
				report.Failed++
				r.logger.WarnContext(ctx, "consolation link rejected",
					"class_id_ext", c.ExternalID, "parent_id_ext", parent.ExternalID, "error", err)
				continue
			}
			if err := r.classRepo.SetParent(ctx, c.ID, parent.ID); err != nil {
				report.Failed++
				r.logger.WarnContext(ctx, "consolation link persist failed",
					"class_id_ext", c.ExternalID, "parent_id_ext", parent.ExternalID, "error", err)
				continue
			}
			report.Linked++
		default:
			report.Ambiguous++
			r.logger.WarnContext(ctx, "consolation class has multiple parent candidates",
				"class_id_ext", c.ExternalID, "shortname", c.Shortname,
				"tournament_id_ext", c.TournamentIDExt, "candidates", len(candidates))
		}
	}
	return nil
}

func isWaitingList(payload staging.ClassPayload) bool {
	short := strings.ToLower(payload.Shortname)
	long := strings.ToLower(payload.Longname)
	return strings.Contains(short, waitingListMarker) || strings.Contains(long, waitingListMarker)
}
