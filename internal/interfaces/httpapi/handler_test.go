package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/stretchr/testify/require"

	"github.com/bluelinehq/chel-archive/external/eaclient"
	"github.com/bluelinehq/chel-archive/internal/domain/club"
	"github.com/bluelinehq/chel-archive/internal/domain/match"
	"github.com/bluelinehq/chel-archive/internal/domain/player"
	"github.com/bluelinehq/chel-archive/internal/domain/scheduler"
	"github.com/bluelinehq/chel-archive/internal/domain/season"
	"github.com/bluelinehq/chel-archive/internal/platform/logging"
	"github.com/bluelinehq/chel-archive/internal/usecase"
)

const testAdminToken = "test-admin-token"

type memConfigRepo struct {
	mu    sync.Mutex
	items map[string]scheduler.Config
}

func newMemConfigRepo() *memConfigRepo {
	return &memConfigRepo{items: make(map[string]scheduler.Config)}
}

func (r *memConfigRepo) Create(_ context.Context, cfg scheduler.Config) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.items[cfg.SeasonID]; exists {
		return fmt.Errorf("%w: scheduler config for season %s", usecase.ErrConflict, cfg.SeasonID)
	}
	cfg.ID = "cfg-" + cfg.SeasonID
	cfg.CreatedAt = time.Now().UTC()
	cfg.UpdatedAt = cfg.CreatedAt
	r.items[cfg.SeasonID] = cfg
	return nil
}

func (r *memConfigRepo) Update(_ context.Context, cfg scheduler.Config) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, exists := r.items[cfg.SeasonID]
	if !exists {
		return fmt.Errorf("%w: scheduler config for season %s", usecase.ErrNotFound, cfg.SeasonID)
	}
	cfg.ID = current.ID
	cfg.CreatedAt = current.CreatedAt
	cfg.UpdatedAt = time.Now().UTC()
	r.items[cfg.SeasonID] = cfg
	return nil
}

func (r *memConfigRepo) Delete(_ context.Context, seasonID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.items[seasonID]; !exists {
		return fmt.Errorf("%w: scheduler config for season %s", usecase.ErrNotFound, seasonID)
	}
	delete(r.items, seasonID)
	return nil
}

func (r *memConfigRepo) GetBySeason(_ context.Context, seasonID string) (scheduler.Config, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cfg, exists := r.items[seasonID]
	if !exists {
		return scheduler.Config{}, fmt.Errorf("%w: scheduler config for season %s", usecase.ErrNotFound, seasonID)
	}
	return cfg, nil
}

func (r *memConfigRepo) List(_ context.Context) ([]scheduler.Config, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]scheduler.Config, 0, len(r.items))
	for _, cfg := range r.items {
		out = append(out, cfg)
	}
	return out, nil
}

func (r *memConfigRepo) ListActive(_ context.Context) ([]scheduler.Config, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]scheduler.Config, 0, len(r.items))
	for _, cfg := range r.items {
		if cfg.IsActive {
			out = append(out, cfg)
		}
	}
	return out, nil
}

func (r *memConfigRepo) SetLastRun(_ context.Context, configID string, at time.Time, status scheduler.RunStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for seasonID, cfg := range r.items {
		if cfg.ID == configID {
			cfg.LastRunAt = &at
			cfg.LastRunStatus = status
			r.items[seasonID] = cfg
		}
	}
	return nil
}

type memRunRepo struct {
	mu   sync.Mutex
	runs []scheduler.Run
}

func (r *memRunRepo) Open(_ context.Context, run scheduler.Run) (scheduler.Run, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	run.ID = fmt.Sprintf("run-%d", len(r.runs)+1)
	run.StartedAt = time.Now().UTC()
	run.Status = scheduler.RunStatusRunning
	r.runs = append(r.runs, run)
	return run, nil
}

func (r *memRunRepo) Close(_ context.Context, run scheduler.Run) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.runs {
		if r.runs[i].ID == run.ID {
			r.runs[i] = run
			return nil
		}
	}
	return fmt.Errorf("%w: scheduler run %s", usecase.ErrNotFound, run.ID)
}

func (r *memRunRepo) ListBySeason(_ context.Context, seasonID string, limit int) ([]scheduler.Run, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]scheduler.Run, 0)
	for i := len(r.runs) - 1; i >= 0 && len(out) < limit; i-- {
		if r.runs[i].SeasonID == seasonID {
			out = append(out, r.runs[i])
		}
	}
	return out, nil
}

func (r *memRunRepo) CloseInterrupted(_ context.Context, reason string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	closed := 0
	now := time.Now().UTC()
	for i := range r.runs {
		if r.runs[i].Status == scheduler.RunStatusRunning {
			r.runs[i].Status = scheduler.RunStatusFailed
			r.runs[i].ErrorMessage = reason
			r.runs[i].FinishedAt = &now
			closed++
		}
	}
	return closed, nil
}

type memSeasonRepo struct {
	items map[string]season.Season
}

func (r *memSeasonRepo) GetByID(_ context.Context, seasonID string) (season.Season, error) {
	item, exists := r.items[seasonID]
	if !exists {
		return season.Season{}, fmt.Errorf("%w: season %s", usecase.ErrNotFound, seasonID)
	}
	return item, nil
}

type memMatchRepo struct {
	items []match.Match
}

func (r *memMatchRepo) ListBySeason(_ context.Context, seasonID string, limit, offset int) ([]match.Match, error) {
	out := make([]match.Match, 0)
	for _, item := range r.items {
		if item.SeasonID != nil && *item.SeasonID == seasonID {
			out = append(out, item)
		}
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memMatchRepo) CountBySeason(_ context.Context, seasonID string) (int, error) {
	count := 0
	for _, item := range r.items {
		if item.SeasonID != nil && *item.SeasonID == seasonID {
			count++
		}
	}
	return count, nil
}

func (r *memMatchRepo) StoreMatch(_ context.Context, m match.Match, _ []player.MatchStats) (bool, error) {
	r.items = append(r.items, m)
	return true, nil
}

type memClubRepo struct{}

func (memClubRepo) ListBySeason(_ context.Context, _ string) ([]club.Club, error) { return nil, nil }
func (memClubRepo) SetEAClubID(_ context.Context, _, _ string) error              { return nil }

type stubUpstream struct{}

func (stubUpstream) SearchClub(_ context.Context, _ string) (string, error) { return "", nil }
func (stubUpstream) FetchMatches(_ context.Context, _ string) ([]eaclient.Match, error) {
	return nil, nil
}

type memPlayerRepo struct {
	players map[string]player.Player
	games   map[string]int
}

func (r *memPlayerRepo) GetByEAID(_ context.Context, eaPlayerID string) (player.Player, error) {
	item, exists := r.players[eaPlayerID]
	if !exists {
		return player.Player{}, fmt.Errorf("%w: player %s", usecase.ErrNotFound, eaPlayerID)
	}
	return item, nil
}

func (r *memPlayerRepo) CountMatches(_ context.Context, eaPlayerID string) (int, error) {
	return r.games[eaPlayerID], nil
}

type testEnv struct {
	router    http.Handler
	scheduler *usecase.SchedulerService
	configs   *memConfigRepo
	matches   *memMatchRepo
	players   *memPlayerRepo
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	configs := newMemConfigRepo()
	runs := &memRunRepo{}
	seasons := &memSeasonRepo{items: map[string]season.Season{
		"season-1": {ID: "season-1", LeagueID: "league-1", Name: "Season 2026", LeagueName: "Blue Line League"},
	}}
	matches := &memMatchRepo{}
	logger := logging.NewNop()

	ingestion := usecase.NewIngestionService(matches)
	fetch := usecase.NewFetchService(runs, configs, memClubRepo{}, stubUpstream{}, ingestion, nil, 1, logger)
	schedulerService := usecase.NewSchedulerService(configs, runs, seasons, matches, fetch, time.Second, logger)
	t.Cleanup(func() {
		_ = schedulerService.Shutdown(context.Background())
	})

	players := &memPlayerRepo{players: map[string]player.Player{}, games: map[string]int{}}
	handler := NewHandler(schedulerService, usecase.NewMatchService(matches), usecase.NewPlayerService(players), logger)
	router := NewRouter(handler, logger, nil, testAdminToken)

	return &testEnv{router: router, scheduler: schedulerService, configs: configs, matches: matches, players: players}
}

func (e *testEnv) do(t *testing.T, method, path, body string, admin bool) *httptest.ResponseRecorder {
	t.Helper()

	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if admin {
		req.Header.Set("X-Internal-Admin-Token", testAdminToken)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "2.0", body["apiVersion"])
	return body
}

func TestHandler_Healthz(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/healthz", "", false)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeEnvelope(t, rec)
	data := body["data"].(map[string]any)
	require.Equal(t, "ok", data["status"])
}

func TestHandler_GetScheduler_NotFound(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/v1/seasons/missing/scheduler", "", false)

	require.Equal(t, http.StatusNotFound, rec.Code)
	body := decodeEnvelope(t, rec)
	errObj := body["error"].(map[string]any)
	require.Equal(t, "NOT_FOUND", errObj["status"])
}

func TestHandler_CreateScheduler(t *testing.T) {
	env := newTestEnv(t)

	t.Run("rejected without admin token", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/v1/seasons/season-1/scheduler", "", false)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("empty body applies defaults", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/v1/seasons/season-1/scheduler", "", true)
		require.Equal(t, http.StatusCreated, rec.Code)

		body := decodeEnvelope(t, rec)
		data := body["data"].(map[string]any)
		require.Equal(t, "season-1", data["season_id"])
		require.Equal(t, float64(18), data["start_hour"])
		require.Equal(t, float64(23), data["end_hour"])
		require.Equal(t, float64(60), data["interval_minutes"])
		require.Len(t, data["days_of_week"], 7)
		require.Equal(t, false, data["is_active"])
	})

	t.Run("unknown season is rejected", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/v1/seasons/missing/scheduler", "", true)
		require.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("unknown body field is rejected", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/v1/seasons/season-1/scheduler", `{"bogus":1}`, true)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHandler_SchedulerLifecycle(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/v1/seasons/season-1/scheduler", `{"start_hour":0,"end_hour":24}`, true)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(t, http.MethodPost, "/v1/seasons/season-1/scheduler/pause", "", true)
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(t, http.MethodPost, "/v1/seasons/season-1/scheduler/start", "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeEnvelope(t, rec)["data"].(map[string]any)
	require.Equal(t, true, data["is_active"])

	rec = env.do(t, http.MethodPost, "/v1/seasons/season-1/scheduler/start", "", true)
	require.Equal(t, http.StatusConflict, rec.Code)
	errObj := decodeEnvelope(t, rec)["error"].(map[string]any)
	require.Equal(t, "FAILED_PRECONDITION", errObj["status"])

	rec = env.do(t, http.MethodPost, "/v1/seasons/season-1/scheduler/pause", "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	data = decodeEnvelope(t, rec)["data"].(map[string]any)
	require.Equal(t, true, data["is_paused"])

	rec = env.do(t, http.MethodPost, "/v1/seasons/season-1/scheduler/resume", "", true)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPost, "/v1/seasons/season-1/scheduler/stop", "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	data = decodeEnvelope(t, rec)["data"].(map[string]any)
	require.Equal(t, false, data["is_active"])

	rec = env.do(t, http.MethodDelete, "/v1/seasons/season-1/scheduler", "", true)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/v1/seasons/season-1/scheduler", "", false)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_UpdateScheduler_MergesPatch(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/v1/seasons/season-1/scheduler", "", true)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(t, http.MethodPatch, "/v1/seasons/season-1/scheduler", `{"interval_minutes":15,"interval_seconds":30}`, true)
	require.Equal(t, http.StatusOK, rec.Code)

	data := decodeEnvelope(t, rec)["data"].(map[string]any)
	require.Equal(t, float64(15), data["interval_minutes"])
	require.Equal(t, float64(30), data["interval_seconds"])
	// Untouched fields keep their previous values.
	require.Equal(t, float64(18), data["start_hour"])
	require.Equal(t, float64(23), data["end_hour"])
}

func TestHandler_ListSeasonMatches(t *testing.T) {
	env := newTestEnv(t)
	seasonID := "season-1"
	for i := 0; i < 3; i++ {
		env.matches.items = append(env.matches.items, match.Match{
			ID:          fmt.Sprintf("match-%d", i),
			EAMatchID:   fmt.Sprintf("9000%d", i),
			EATimestamp: int64(1700000000 + i),
			SeasonID:    &seasonID,
		})
	}

	rec := env.do(t, http.MethodGet, "/v1/seasons/season-1/matches?limit=2", "", false)
	require.Equal(t, http.StatusOK, rec.Code)

	data := decodeEnvelope(t, rec)["data"].(map[string]any)
	require.Equal(t, float64(3), data["total"])
	require.Len(t, data["items"], 2)
}

func TestHandler_ListSchedulers(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/v1/seasons/season-1/scheduler", "", true)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(t, http.MethodGet, "/v1/schedulers", "", false)
	require.Equal(t, http.StatusOK, rec.Code)

	items := decodeEnvelope(t, rec)["data"].([]any)
	require.Len(t, items, 1)
	first := items[0].(map[string]any)
	require.Equal(t, "Season 2026", first["season_name"])
	require.Equal(t, "Blue Line League", first["league_name"])
	require.Equal(t, false, first["is_running"])
}

func TestHandler_GetPlayer(t *testing.T) {
	env := newTestEnv(t)
	env.players.players["1003157800529"] = player.Player{
		ID:         "player-1",
		EAPlayerID: "1003157800529",
		Gamertag:   "snipes",
		CreatedAt:  time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC),
		UpdatedAt:  time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
	}
	env.players.games["1003157800529"] = 12

	rec := env.do(t, http.MethodGet, "/v1/players/1003157800529", "", false)
	require.Equal(t, http.StatusOK, rec.Code)

	data := decodeEnvelope(t, rec)["data"].(map[string]any)
	require.Equal(t, "1003157800529", data["ea_player_id"])
	require.Equal(t, "snipes", data["gamertag"])
	require.Equal(t, float64(12), data["games_played"])

	rec = env.do(t, http.MethodGet, "/v1/players/404404", "", false)
	require.Equal(t, http.StatusNotFound, rec.Code)
}
