package usecase

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/btstats/ttwarehouse/internal/platform/logging"
)

// Stages selects which resolver passes a pipeline run executes. Order is
// fixed regardless of selection: players, classes, entries, matches. Each
// later stage consumes what the earlier ones produced.
type Stages struct {
	Players bool
	Classes bool
	Entries bool
	Matches bool
}

// AllStages enables every pass.
func AllStages() Stages {
	return Stages{Players: true, Classes: true, Entries: true, Matches: true}
}

// RunReport aggregates the per-stage reports of one pipeline run. Stages
// that were disabled carry zero reports.
type RunReport struct {
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
	Players    PlayerReport `json:"players"`
	Classes    ClassReport  `json:"classes"`
	Entries    EntryReport  `json:"entries"`
	Matches    MatchReport  `json:"matches"`
}

// Pipeline runs the resolver passes in dependency order.
type Pipeline struct {
	players *PlayerResolver
	classes *ClassResolver
	entries *EntryResolver
	matches *MatchResolver
	logger  *logging.Logger
	now     func() time.Time
}

func NewPipeline(
	players *PlayerResolver,
	classes *ClassResolver,
	entries *EntryResolver,
	matches *MatchResolver,
	logger *logging.Logger,
) *Pipeline {
	if logger == nil {
		logger = logging.Default()
	}
	return &Pipeline{
		players: players,
		classes: classes,
		entries: entries,
		matches: matches,
		logger:  logger,
		now:     time.Now,
	}
}

// Run executes the selected stages. A stage error stops the run; the
// returned report covers the stages that completed.
func (p *Pipeline) Run(ctx context.Context, stages Stages) (RunReport, error) {
	ctx, span := startUsecaseSpan(ctx, "Pipeline.Run")
	defer span.End()

	report := RunReport{StartedAt: p.now().UTC()}

	if stages.Players {
		players, err := p.players.Resolve(ctx)
		report.Players = players
		if err != nil {
			report.FinishedAt = p.now().UTC()
			return report, errors.Wrap(err, "player stage")
		}
	}
	if stages.Classes {
		classes, err := p.classes.Resolve(ctx)
		report.Classes = classes
		if err != nil {
			report.FinishedAt = p.now().UTC()
			return report, errors.Wrap(err, "class stage")
		}
	}
	if stages.Entries {
		entries, err := p.entries.Resolve(ctx)
		report.Entries = entries
		if err != nil {
			report.FinishedAt = p.now().UTC()
			return report, errors.Wrap(err, "entry stage")
		}
	}
	if stages.Matches {
		matches, err := p.matches.Resolve(ctx)
		report.Matches = matches
		if err != nil {
			report.FinishedAt = p.now().UTC()
			return report, errors.Wrap(err, "match stage")
		}
	}

	report.FinishedAt = p.now().UTC()
	p.logger.InfoContext(ctx, "pipeline run finished",
		"duration", report.FinishedAt.Sub(report.StartedAt).String())
	return report, nil
}
