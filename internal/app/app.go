// Package app wires the resolver pipeline onto a Postgres-backed warehouse.
package app

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"

	"github.com/btstats/ttwarehouse/internal/config"
	"github.com/btstats/ttwarehouse/internal/infrastructure/repository/postgres"
	"github.com/btstats/ttwarehouse/internal/platform/logging"
	"github.com/btstats/ttwarehouse/internal/usecase"
)

type App struct {
	DB       *sqlx.DB
	Staging  *usecase.StagingService
	Pipeline *usecase.Pipeline
}

func New(cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}

	db, err := otelsqlx.Connect("postgres", normalizeDBURL(cfg.DBURL),
		otelsql.WithDBSystem("postgresql"),
		otelsql.WithDBName(dbNameFromURL(cfg.DBURL)),
		otelsql.WithQueryFormatter(formatDBQueryForTrace),
	)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	stagingRepo := postgres.NewStagingRepository(db)
	playerRepo := postgres.NewPlayerRepository(db)
	classRepo := postgres.NewClassRepository(db)
	entryRepo := postgres.NewEntryRepository(db)
	matchRepo := postgres.NewMatchRepository(db)

	stagingSvc := usecase.NewStagingService(stagingRepo, logger, cfg.IngestHashWorkers)
	playerResolver := usecase.NewPlayerResolver(stagingRepo, playerRepo, logger)
	classResolver := usecase.NewClassResolver(stagingRepo, classRepo, logger, cfg.ConsolationSuffixes)
	entryResolver := usecase.NewEntryResolver(stagingRepo, classRepo, entryRepo, playerRepo, logger)
	matchResolver := usecase.NewMatchResolver(stagingRepo, classRepo, entryRepo, playerRepo, matchRepo, logger)

	return &App{
		DB:       db,
		Staging:  stagingSvc,
		Pipeline: usecase.NewPipeline(playerResolver, classResolver, entryResolver, matchResolver, logger),
	}, nil
}

func (a *App) Close() error {
	if a.DB == nil {
		return nil
	}
	return a.DB.Close()
}

// StagesFromConfig maps the stage toggles onto a pipeline stage selection.
func StagesFromConfig(cfg config.Config) usecase.Stages {
	return usecase.Stages{
		Players: cfg.StagePlayers,
		Classes: cfg.StageClasses,
		Entries: cfg.StageEntries,
		Matches: cfg.StageMatches,
	}
}
