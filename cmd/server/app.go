package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/syh52/lexicon-srs/internal/config"
	"github.com/syh52/lexicon-srs/internal/domain"
	"github.com/syh52/lexicon-srs/internal/domain/srs"
	"github.com/syh52/lexicon-srs/internal/platform/logger"
	"github.com/syh52/lexicon-srs/internal/platform/mongo"
	"github.com/syh52/lexicon-srs/internal/platform/postgres"
	"github.com/syh52/lexicon-srs/internal/platform/sqlite"
	"github.com/syh52/lexicon-srs/internal/service/cards"
	"github.com/syh52/lexicon-srs/internal/service/optimizer"
	"github.com/syh52/lexicon-srs/internal/service/planner"
	"github.com/syh52/lexicon-srs/internal/service/progress"
	"github.com/syh52/lexicon-srs/internal/service/study"
	"github.com/syh52/lexicon-srs/internal/session"
	"github.com/syh52/lexicon-srs/internal/store"
	"github.com/syh52/lexicon-srs/internal/task"
)

// application holds the wired services and the resources they own.
// Everything is constructed once at startup and passed by reference;
// there is no global mutable state beyond the default logger.
type application struct {
	config *config.Config
	logger *slog.Logger

	studyService *study.Service
	reconciler   *task.Runner

	cleanups []func()
}

// newApplication builds the full dependency graph from configuration.
func newApplication(ctx context.Context, cfg *config.Config) (*application, error) {
	log := logger.Setup(cfg.Server.LogLevel)

	app := &application{config: cfg, logger: log}

	localDB, err := sqlite.Open(ctx, cfg.Local.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open local store: %w", err)
	}
	app.cleanups = append(app.cleanups, func() { _ = localDB.Close() })
	localStore := sqlite.NewStore(localDB, log)

	remoteDB, disconnect, err := mongo.Connect(ctx, cfg.Remote.URI, cfg.Remote.Database)
	if err != nil {
		app.cleanup()
		return nil, fmt.Errorf("failed to connect remote store: %w", err)
	}
	app.cleanups = append(app.cleanups, disconnect)
	remoteStore := mongo.NewStore(remoteDB, log)

	catalogDB, err := postgres.Open(ctx, cfg.Catalog.URL)
	if err != nil {
		app.cleanup()
		return nil, fmt.Errorf("failed to open catalog database: %w", err)
	}
	app.cleanups = append(app.cleanups, func() { _ = catalogDB.Close() })

	var catalog store.CatalogProvider = postgres.NewCatalogStore(catalogDB, log)
	if cfg.Catalog.CacheTTL > 0 {
		catalog = planner.NewCachedCatalog(catalog, cfg.Catalog.CacheTTL)
	}

	var progressOpts []progress.Option
	var cardOpts []cards.Option
	if cfg.Study.RemoteCallTimeout > 0 {
		progressOpts = append(progressOpts, progress.WithRemoteTimeout(cfg.Study.RemoteCallTimeout))
	}
	progressSvc := progress.NewService(localStore, remoteStore, store.SystemClock{}, log, progressOpts...)
	cardSvc := cards.NewService(localStore, remoteStore, log, cardOpts...)

	app.studyService = study.NewService(
		planner.NewGenerator(catalog, log),
		session.NewManager(),
		cardSvc,
		progressSvc,
		optimizer.NewAnalyzer(log),
		srs.NewService(nil),
		store.SystemClock{},
		log,
	)

	app.reconciler = task.NewRunner(progressSvc, cfg.Study.ReconcileInterval, log)

	return app, nil
}

// defaultTargets returns the configured study targets, falling back to
// the domain defaults when unset.
func (app *application) defaultTargets() domain.StudyTargets {
	targets := domain.StudyTargets{
		DailyNewCount:    app.config.Study.DailyNewCount,
		DailyReviewCount: app.config.Study.DailyReviewCount,
		DailyTotal:       app.config.Study.DailyTotal,
	}
	if targets.DailyTotal <= 0 {
		return domain.DefaultStudyTargets()
	}
	return targets
}

// cleanup releases owned resources in reverse acquisition order.
func (app *application) cleanup() {
	for i := len(app.cleanups) - 1; i >= 0; i-- {
		app.cleanups[i]()
	}
	app.cleanups = nil
}
