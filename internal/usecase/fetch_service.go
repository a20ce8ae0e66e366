package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/bluelinehq/chel-archive/external/eaclient"
	"github.com/bluelinehq/chel-archive/internal/domain/club"
	"github.com/bluelinehq/chel-archive/internal/domain/scheduler"
	"github.com/bluelinehq/chel-archive/internal/platform/cache"
	"github.com/bluelinehq/chel-archive/internal/platform/logging"
)

const (
	defaultClubWorkers  = 4
	maxRunErrorMessage  = 2000
	errorMessageDivider = "; "
)

type upstreamClient interface {
	SearchClub(ctx context.Context, clubName string) (string, error)
	FetchMatches(ctx context.Context, eaClubID string) ([]eaclient.Match, error)
}

// FetchService executes one scheduler tick: open a run, fan out over the
// season's clubs, pipe every upstream match through ingestion, close the run.
type FetchService struct {
	runs      scheduler.RunRepository
	configs   scheduler.ConfigRepository
	clubs     club.Repository
	upstream  upstreamClient
	ingestion *IngestionService
	clubIDs   *cache.Store[string]
	workers   int
	logger    *logging.Logger
}

func NewFetchService(
	runs scheduler.RunRepository,
	configs scheduler.ConfigRepository,
	clubs club.Repository,
	upstream upstreamClient,
	ingestion *IngestionService,
	clubIDs *cache.Store[string],
	workers int,
	logger *logging.Logger,
) *FetchService {
	if workers <= 0 {
		workers = defaultClubWorkers
	}
	if clubIDs == nil {
		clubIDs = cache.NewStore[string](24 * time.Hour)
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &FetchService{
		runs:      runs,
		configs:   configs,
		clubs:     clubs,
		upstream:  upstream,
		ingestion: ingestion,
		clubIDs:   clubIDs,
		workers:   workers,
		logger:    logger,
	}
}

// RunTick performs one fetch cycle for a season. It always closes the run it
// opened; errors inside one club or one match are collected into the run's
// error message rather than aborting the whole tick.
func (s *FetchService) RunTick(ctx context.Context, cfg scheduler.Config) (scheduler.Run, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.FetchService.RunTick")
	defer span.End()

	run, err := s.runs.Open(ctx, scheduler.Run{
		ConfigID: cfg.ID,
		SeasonID: cfg.SeasonID,
		Status:   scheduler.RunStatusRunning,
	})
	if err != nil {
		return scheduler.Run{}, fmt.Errorf("open run season_id=%s: %w", cfg.SeasonID, err)
	}

	var fetched, stored atomic.Int64
	var errMu sync.Mutex
	var tickErrors []string
	recordError := func(message string) {
		errMu.Lock()
		tickErrors = append(tickErrors, message)
		errMu.Unlock()
	}

	clubs, err := s.clubs.ListBySeason(ctx, cfg.SeasonID)
	if err != nil {
		recordError(fmt.Sprintf("list clubs: %v", err))
	}

	if len(clubs) > 0 {
		workerCount := s.workers
		if workerCount > len(clubs) {
			workerCount = len(clubs)
		}
		pool, poolErr := ants.NewPool(workerCount)
		if poolErr != nil {
			recordError(fmt.Sprintf("create club worker pool: %v", poolErr))
		} else {
			var workers sync.WaitGroup
			for _, item := range clubs {
				item := item
				workers.Add(1)
				if submitErr := pool.Submit(func() {
					defer workers.Done()
					s.fetchClub(ctx, cfg.SeasonID, item, &fetched, &stored, recordError)
				}); submitErr != nil {
					workers.Done()
					recordError(fmt.Sprintf("submit club fetch %s: %v", item.Name, submitErr))
				}
			}
			workers.Wait()
			pool.Release()
		}
	}

	if ctx.Err() != nil {
		recordError("tick canceled before completion")
	}

	run.MatchesFetched = int(fetched.Load())
	run.MatchesNew = int(stored.Load())
	run.Status = runStatusFromOutcome(run.MatchesFetched, run.MatchesNew, len(tickErrors))
	run.ErrorMessage = joinRunErrors(tickErrors)
	finishedAt := time.Now().UTC()
	run.FinishedAt = &finishedAt

	// Run closing uses a fresh context so a canceled tick still gets audited.
	closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if closeErr := s.runs.Close(closeCtx, run); closeErr != nil {
		s.logger.ErrorContext(ctx, "failed to close scheduler run",
			"run_id", run.ID, "season_id", cfg.SeasonID, "error", closeErr)
	}
	if lastRunErr := s.configs.SetLastRun(closeCtx, cfg.ID, finishedAt, run.Status); lastRunErr != nil {
		s.logger.WarnContext(ctx, "failed to record last run on config",
			"config_id", cfg.ID, "season_id", cfg.SeasonID, "error", lastRunErr)
	}

	s.logger.InfoContext(ctx, "scheduler tick finished",
		"season_id", cfg.SeasonID,
		"run_id", run.ID,
		"status", string(run.Status),
		"matches_fetched", run.MatchesFetched,
		"matches_new", run.MatchesNew)
	return run, nil
}

func (s *FetchService) fetchClub(
	ctx context.Context,
	seasonID string,
	item club.Club,
	fetched, stored *atomic.Int64,
	recordError func(string),
) {
	if ctx.Err() != nil {
		return
	}

	eaClubID, err := s.resolveClubID(ctx, item)
	if err != nil {
		recordError(fmt.Sprintf("resolve club %s: %v", item.Name, err))
		return
	}
	if eaClubID == "" {
		s.logger.WarnContext(ctx, "club has no upstream id, skipping",
			"season_id", seasonID, "club_id", item.ID, "club_name", item.Name)
		return
	}

	matches, err := s.upstream.FetchMatches(ctx, eaClubID)
	if err != nil {
		recordError(fmt.Sprintf("fetch matches club %s: %v", item.Name, err))
		return
	}

	// Every match the upstream returned counts as fetched; stored tracks
	// persistence separately so a failing persist still leaves a fetched trace.
	fetched.Add(int64(len(matches)))
	for _, upstream := range matches {
		if ctx.Err() != nil {
			return
		}
		isNew, ingestErr := s.ingestion.IngestMatch(ctx, IngestMatchInput{
			SeasonID: seasonID,
			ClubID:   item.ID,
			EAClubID: eaClubID,
			Upstream: upstream,
		})
		if ingestErr != nil {
			recordError(fmt.Sprintf("ingest match %s club %s: %v", upstream.MatchID, item.Name, ingestErr))
			continue
		}
		if isNew {
			stored.Add(1)
		}
	}
}

// resolveClubID prefers the persisted upstream id, then the in-process cache,
// then a live name search. A freshly learned id is written back to the club
// row best-effort.
func (s *FetchService) resolveClubID(ctx context.Context, item club.Club) (string, error) {
	if item.EAClubID != "" {
		return item.EAClubID, nil
	}
	name := strings.TrimSpace(item.Name)
	if name == "" {
		return "", nil
	}

	eaClubID, err := s.clubIDs.GetOrLoad(ctx, "club-name:"+name, func(ctx context.Context) (string, error) {
		return s.upstream.SearchClub(ctx, name)
	})
	if err != nil {
		return "", err
	}
	if eaClubID == "" {
		return "", nil
	}

	if writeErr := s.clubs.SetEAClubID(ctx, item.ID, eaClubID); writeErr != nil {
		s.logger.WarnContext(ctx, "failed to persist resolved club id",
			"club_id", item.ID, "ea_club_id", eaClubID, "error", writeErr)
	}
	return eaClubID, nil
}

func runStatusFromOutcome(fetched, stored, errCount int) scheduler.RunStatus {
	switch {
	case errCount == 0:
		return scheduler.RunStatusSuccess
	case fetched > 0 || stored > 0:
		return scheduler.RunStatusPartial
	default:
		return scheduler.RunStatusFailed
	}
}

func joinRunErrors(messages []string) string {
	if len(messages) == 0 {
		return ""
	}
	joined := strings.Join(messages, errorMessageDivider)
	if len(joined) > maxRunErrorMessage {
		joined = joined[:maxRunErrorMessage] + "..."
	}
	return joined
}
