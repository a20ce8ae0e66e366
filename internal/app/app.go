package app

import (
	"context"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"

	"github.com/bluelinehq/chel-archive/external/eaclient"
	"github.com/bluelinehq/chel-archive/internal/config"
	"github.com/bluelinehq/chel-archive/internal/interfaces/httpapi"
	postgresrepo "github.com/bluelinehq/chel-archive/internal/infrastructure/repository/postgres"
	basecache "github.com/bluelinehq/chel-archive/internal/platform/cache"
	idgen "github.com/bluelinehq/chel-archive/internal/platform/id"
	"github.com/bluelinehq/chel-archive/internal/platform/logging"
	"github.com/bluelinehq/chel-archive/internal/platform/resilience"
	"github.com/bluelinehq/chel-archive/internal/usecase"
)

// App bundles the wired service graph. The HTTP router and the scheduler
// manager share one lifecycle: Restore before serving, Shutdown after the
// listener has drained.
type App struct {
	Scheduler *usecase.SchedulerService
	Matches   *usecase.MatchService
	Handler   *httpapi.Handler
	closeDB   func() error
}

func New(cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}

	db, err := otelsqlx.Open("postgres", normalizeDBURL(cfg.DBURL, cfg.DBDisablePreparedBinary),
		otelsql.WithDBSystem("postgresql"),
		otelsql.WithDBName(dbNameFromURL(cfg.DBURL)),
		otelsql.WithQueryFormatter(formatDBQueryForTrace),
	)
	if err != nil {
		return nil, fmt.Errorf("open postgres connection: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	ids := idgen.NewRandomGenerator()
	configRepo := postgresrepo.NewSchedulerConfigRepository(db, ids)
	runRepo := postgresrepo.NewSchedulerRunRepository(db, ids)
	matchRepo := postgresrepo.NewMatchRepository(db, ids)
	clubRepo := postgresrepo.NewClubRepository(db)
	seasonRepo := postgresrepo.NewSeasonRepository(db)
	playerRepo := postgresrepo.NewPlayerRepository(db)

	eaClient := eaclient.NewClient(eaclient.ClientConfig{
		BaseURL:    cfg.EABaseURL,
		Platform:   cfg.EAPlatform,
		MatchType:  cfg.EAMatchType,
		Timeout:    cfg.EATimeout,
		MaxRetries: cfg.EAMaxRetries,
		Logger:     logger,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.EACircuitEnabled,
			FailureThreshold: cfg.EACircuitFailureCount,
			OpenTimeout:      cfg.EACircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.EACircuitHalfOpenMax,
		},
	})

	ingestionSvc := usecase.NewIngestionService(matchRepo)
	fetchSvc := usecase.NewFetchService(
		runRepo,
		configRepo,
		clubRepo,
		eaClient,
		ingestionSvc,
		basecache.NewStore[string](cfg.ClubResolveCacheTTL),
		cfg.SchedulerClubWorkers,
		logger,
	)
	schedulerSvc := usecase.NewSchedulerService(
		configRepo,
		runRepo,
		seasonRepo,
		matchRepo,
		fetchSvc,
		cfg.SchedulerShutdownGrace,
		logger,
	)
	matchSvc := usecase.NewMatchService(matchRepo)
	playerSvc := usecase.NewPlayerService(playerRepo)

	return &App{
		Scheduler: schedulerSvc,
		Matches:   matchSvc,
		Handler:   httpapi.NewHandler(schedulerSvc, matchSvc, playerSvc, logger),
		closeDB:   db.Close,
	}, nil
}

func (a *App) Close() error {
	if a == nil || a.closeDB == nil {
		return nil
	}
	return a.closeDB()
}
