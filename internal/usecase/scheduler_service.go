package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"

	"github.com/bluelinehq/chel-archive/internal/domain/match"
	"github.com/bluelinehq/chel-archive/internal/domain/scheduler"
	"github.com/bluelinehq/chel-archive/internal/domain/season"
	"github.com/bluelinehq/chel-archive/internal/platform/logging"
)

const (
	defaultShutdownGrace = 30 * time.Second
	defaultRunListLimit  = 20
	maxRunListLimit      = 100

	interruptedRunMessage = "interrupted by shutdown"
)

// SchedulerService is the process-wide manager of season polling jobs. It is
// the only writer of the worker registry; the configs table stays the
// authority and worker state is derived from it.
type SchedulerService struct {
	configs scheduler.ConfigRepository
	runs    scheduler.RunRepository
	seasons season.Repository
	matches match.Repository
	fetch   *FetchService
	logger  *logging.Logger
	grace   time.Duration

	mu      sync.Mutex
	workers map[string]*seasonWorker
	spawned conc.WaitGroup
}

type seasonWorker struct {
	seasonID string
	cancel   context.CancelFunc
	done     chan struct{}
}

func NewSchedulerService(
	configs scheduler.ConfigRepository,
	runs scheduler.RunRepository,
	seasons season.Repository,
	matches match.Repository,
	fetch *FetchService,
	grace time.Duration,
	logger *logging.Logger,
) *SchedulerService {
	if grace <= 0 {
		grace = defaultShutdownGrace
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &SchedulerService{
		configs: configs,
		runs:    runs,
		seasons: seasons,
		matches: matches,
		fetch:   fetch,
		logger:  logger,
		grace:   grace,
		workers: make(map[string]*seasonWorker),
	}
}

// SchedulerStatus is one config enriched with live and derived state for the
// operator surface.
type SchedulerStatus struct {
	Config       scheduler.Config
	SeasonName   string
	LeagueName   string
	IsRunning    bool
	TotalMatches int
	LastRun      *scheduler.Run
}

func (s *SchedulerService) Create(ctx context.Context, cfg scheduler.Config) (scheduler.Config, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SchedulerService.Create")
	defer span.End()

	cfg.SeasonID = strings.TrimSpace(cfg.SeasonID)
	applyConfigDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return scheduler.Config{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if _, err := s.seasons.GetByID(ctx, cfg.SeasonID); err != nil {
		return scheduler.Config{}, fmt.Errorf("load season %s: %w", cfg.SeasonID, err)
	}

	cfg.IsActive = false
	cfg.IsPaused = false
	if err := s.configs.Create(ctx, cfg); err != nil {
		return scheduler.Config{}, err
	}
	return s.configs.GetBySeason(ctx, cfg.SeasonID)
}

// Update replaces the polling policy. A live worker is torn down and
// recreated so the fresh timing takes effect immediately.
func (s *SchedulerService) Update(ctx context.Context, cfg scheduler.Config) (scheduler.Config, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SchedulerService.Update")
	defer span.End()

	cfg.SeasonID = strings.TrimSpace(cfg.SeasonID)
	if err := cfg.Validate(); err != nil {
		return scheduler.Config{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := s.configs.Update(ctx, cfg); err != nil {
		return scheduler.Config{}, err
	}

	updated, err := s.configs.GetBySeason(ctx, cfg.SeasonID)
	if err != nil {
		return scheduler.Config{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.workers[cfg.SeasonID]; exists {
		s.stopWorkerLocked(cfg.SeasonID)
		s.startWorkerLocked(cfg.SeasonID)
	}
	return updated, nil
}

func (s *SchedulerService) Delete(ctx context.Context, seasonID string) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.SchedulerService.Delete")
	defer span.End()

	s.mu.Lock()
	s.stopWorkerLocked(seasonID)
	s.mu.Unlock()

	return s.configs.Delete(ctx, seasonID)
}

func (s *SchedulerService) Start(ctx context.Context, seasonID string) (scheduler.Config, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SchedulerService.Start")
	defer span.End()

	cfg, err := s.configs.GetBySeason(ctx, seasonID)
	if err != nil {
		return scheduler.Config{}, err
	}
	if cfg.IsActive {
		return scheduler.Config{}, fmt.Errorf("%w: scheduler for season %s is already started", ErrConflict, seasonID)
	}

	cfg.IsActive = true
	cfg.IsPaused = false
	if err := s.configs.Update(ctx, cfg); err != nil {
		return scheduler.Config{}, err
	}

	s.mu.Lock()
	s.startWorkerLocked(seasonID)
	s.mu.Unlock()
	return s.configs.GetBySeason(ctx, seasonID)
}

func (s *SchedulerService) Pause(ctx context.Context, seasonID string) (scheduler.Config, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SchedulerService.Pause")
	defer span.End()

	cfg, err := s.configs.GetBySeason(ctx, seasonID)
	if err != nil {
		return scheduler.Config{}, err
	}
	if !cfg.IsActive || cfg.IsPaused {
		return scheduler.Config{}, fmt.Errorf("%w: scheduler for season %s is not running", ErrConflict, seasonID)
	}

	cfg.IsPaused = true
	if err := s.configs.Update(ctx, cfg); err != nil {
		return scheduler.Config{}, err
	}
	// The worker stays alive; the window gate rejects ticks while paused.
	s.reconcileWorker(ctx, seasonID, true)
	return s.configs.GetBySeason(ctx, seasonID)
}

func (s *SchedulerService) Resume(ctx context.Context, seasonID string) (scheduler.Config, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SchedulerService.Resume")
	defer span.End()

	cfg, err := s.configs.GetBySeason(ctx, seasonID)
	if err != nil {
		return scheduler.Config{}, err
	}
	if !cfg.IsActive || !cfg.IsPaused {
		return scheduler.Config{}, fmt.Errorf("%w: scheduler for season %s is not paused", ErrConflict, seasonID)
	}

	cfg.IsPaused = false
	if err := s.configs.Update(ctx, cfg); err != nil {
		return scheduler.Config{}, err
	}
	s.reconcileWorker(ctx, seasonID, true)
	return s.configs.GetBySeason(ctx, seasonID)
}

func (s *SchedulerService) Stop(ctx context.Context, seasonID string) (scheduler.Config, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SchedulerService.Stop")
	defer span.End()

	cfg, err := s.configs.GetBySeason(ctx, seasonID)
	if err != nil {
		return scheduler.Config{}, err
	}
	if !cfg.IsActive {
		return scheduler.Config{}, fmt.Errorf("%w: scheduler for season %s is not started", ErrConflict, seasonID)
	}

	cfg.IsActive = false
	cfg.IsPaused = false
	if err := s.configs.Update(ctx, cfg); err != nil {
		return scheduler.Config{}, err
	}

	s.mu.Lock()
	s.stopWorkerLocked(seasonID)
	s.mu.Unlock()
	return s.configs.GetBySeason(ctx, seasonID)
}

func (s *SchedulerService) Get(ctx context.Context, seasonID string) (SchedulerStatus, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SchedulerService.Get")
	defer span.End()

	cfg, err := s.configs.GetBySeason(ctx, seasonID)
	if err != nil {
		return SchedulerStatus{}, err
	}
	return s.enrich(ctx, cfg), nil
}

func (s *SchedulerService) List(ctx context.Context) ([]SchedulerStatus, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SchedulerService.List")
	defer span.End()

	cfgs, err := s.configs.List(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]SchedulerStatus, 0, len(cfgs))
	for _, cfg := range cfgs {
		out = append(out, s.enrich(ctx, cfg))
	}
	return out, nil
}

func (s *SchedulerService) Runs(ctx context.Context, seasonID string, limit int) ([]scheduler.Run, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SchedulerService.Runs")
	defer span.End()

	if _, err := s.configs.GetBySeason(ctx, seasonID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultRunListLimit
	}
	if limit > maxRunListLimit {
		limit = maxRunListLimit
	}
	return s.runs.ListBySeason(ctx, seasonID, limit)
}

// Restore closes runs left open by a previous crash and brings every active
// config back up in its persisted state: paused jobs get a worker too, the
// gate just keeps rejecting their ticks.
func (s *SchedulerService) Restore(ctx context.Context) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.SchedulerService.Restore")
	defer span.End()

	closed, err := s.runs.CloseInterrupted(ctx, interruptedRunMessage)
	if err != nil {
		return fmt.Errorf("close interrupted runs: %w", err)
	}
	if closed > 0 {
		s.logger.WarnContext(ctx, "closed lingering scheduler runs from previous process", "count", closed)
	}

	cfgs, err := s.configs.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("list active scheduler configs: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, cfg := range cfgs {
		s.startWorkerLocked(cfg.SeasonID)
		s.logger.InfoContext(ctx, "restored scheduler worker",
			"season_id", cfg.SeasonID, "paused", cfg.IsPaused)
	}
	return nil
}

// Shutdown cancels every worker and waits for in-flight ticks, bounded by the
// grace period.
func (s *SchedulerService) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	for seasonID, worker := range s.workers {
		worker.cancel()
		delete(s.workers, seasonID)
	}
	s.mu.Unlock()

	finished := make(chan struct{})
	go func() {
		defer close(finished)
		if recovered := s.spawned.WaitAndRecover(); recovered != nil {
			s.logger.Error("scheduler worker panicked during shutdown", "panic", recovered.Value)
		}
	}()

	select {
	case <-finished:
		return nil
	case <-time.After(s.grace):
		s.logger.WarnContext(ctx, "scheduler shutdown grace elapsed, abandoning workers", "grace", s.grace.String())
		return fmt.Errorf("scheduler shutdown timed out after %s", s.grace)
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *SchedulerService) enrich(ctx context.Context, cfg scheduler.Config) SchedulerStatus {
	out := SchedulerStatus{Config: cfg}

	s.mu.Lock()
	_, out.IsRunning = s.workers[cfg.SeasonID]
	s.mu.Unlock()

	if seasonRow, err := s.seasons.GetByID(ctx, cfg.SeasonID); err == nil {
		out.SeasonName = seasonRow.Name
		out.LeagueName = seasonRow.LeagueName
	} else {
		s.logger.WarnContext(ctx, "failed to load season for scheduler status",
			"season_id", cfg.SeasonID, "error", err)
	}
	if total, err := s.matches.CountBySeason(ctx, cfg.SeasonID); err == nil {
		out.TotalMatches = total
	} else {
		s.logger.WarnContext(ctx, "failed to count season matches",
			"season_id", cfg.SeasonID, "error", err)
	}
	if recent, err := s.runs.ListBySeason(ctx, cfg.SeasonID, 1); err == nil && len(recent) > 0 {
		out.LastRun = &recent[0]
	}
	return out
}

// reconcileWorker re-aligns worker presence with persisted flags after a
// lifecycle write. Persistence already succeeded at this point, so a registry
// mismatch is repaired rather than surfaced.
func (s *SchedulerService) reconcileWorker(ctx context.Context, seasonID string, wantWorker bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, exists := s.workers[seasonID]
	if exists == wantWorker {
		return
	}
	s.logger.WarnContext(ctx, "scheduler worker diverged from config, reconciling",
		"season_id", seasonID, "want_worker", wantWorker)
	if wantWorker {
		s.startWorkerLocked(seasonID)
		return
	}
	s.stopWorkerLocked(seasonID)
}

func (s *SchedulerService) startWorkerLocked(seasonID string) {
	if _, exists := s.workers[seasonID]; exists {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	worker := &seasonWorker{
		seasonID: seasonID,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	s.workers[seasonID] = worker
	s.spawned.Go(func() {
		defer close(worker.done)
		s.runWorker(ctx, seasonID)
	})
}

func (s *SchedulerService) stopWorkerLocked(seasonID string) {
	worker, exists := s.workers[seasonID]
	if !exists {
		return
	}
	delete(s.workers, seasonID)
	worker.cancel()
	<-worker.done
}

// runWorker is the per-season job loop. It re-reads the config every cycle so
// pause and deactivation written by the API take effect without a restart.
// Ticks are strictly serial within one season and fire on a fixed cadence; a
// tick that overruns its slot skips the missed slots instead of stacking them.
func (s *SchedulerService) runWorker(ctx context.Context, seasonID string) {
	logger := s.logger.With("season_id", seasonID)
	logger.Info("scheduler worker started")
	defer logger.Info("scheduler worker stopped")

	for {
		cycleStart := time.Now()

		cfg, err := s.configs.GetBySeason(ctx, seasonID)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if errors.Is(err, ErrNotFound) {
				logger.Warn("scheduler config disappeared, stopping worker")
				return
			}
			logger.Error("failed to load scheduler config, retrying", "error", err)
			if !sleepCtx(ctx, 5*time.Second) {
				return
			}
			continue
		}
		if !cfg.IsActive {
			return
		}

		if cfg.Admits(time.Now()) {
			var catcher panics.Catcher
			catcher.Try(func() {
				if _, tickErr := s.fetch.RunTick(ctx, cfg); tickErr != nil {
					logger.ErrorContext(ctx, "scheduler tick failed", "error", tickErr)
				}
			})
			if recovered := catcher.Recovered(); recovered != nil {
				logger.Error("scheduler tick panicked", "panic", recovered.Value)
			}
		}

		interval := cfg.Interval()
		if interval < time.Second {
			interval = time.Second
		}
		if !sleepCtx(ctx, nextTickDelay(time.Since(cycleStart), interval)) {
			return
		}
	}
}

// nextTickDelay keeps ticks on a fixed grid of interval boundaries. A cycle
// that ran past its slot waits only for the next boundary, skipping the slots
// it overlapped.
func nextTickDelay(elapsed, interval time.Duration) time.Duration {
	if elapsed < interval {
		return interval - elapsed
	}
	return interval - elapsed%interval
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func applyConfigDefaults(cfg *scheduler.Config) {
	if len(cfg.DaysOfWeek) == 0 {
		cfg.DaysOfWeek = []int{0, 1, 2, 3, 4, 5, 6}
	}
	if cfg.StartHour == 0 && cfg.EndHour == 0 {
		cfg.StartHour = 18
		cfg.EndHour = 23
	}
	if cfg.IntervalMinutes == 0 && cfg.IntervalSeconds == 0 {
		cfg.IntervalMinutes = 60
	}
}
