package httpapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"

	"github.com/bluelinehq/chel-archive/internal/domain/match"
	"github.com/bluelinehq/chel-archive/internal/domain/scheduler"
	"github.com/bluelinehq/chel-archive/internal/platform/logging"
	"github.com/bluelinehq/chel-archive/internal/usecase"
)

type Handler struct {
	schedulerService *usecase.SchedulerService
	matchService     *usecase.MatchService
	playerService    *usecase.PlayerService
	logger           *logging.Logger
	validator        *validator.Validate
}

func NewHandler(
	schedulerService *usecase.SchedulerService,
	matchService *usecase.MatchService,
	playerService *usecase.PlayerService,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		schedulerService: schedulerService,
		matchService:     matchService,
		playerService:    playerService,
		logger:           logger,
		validator:        validator.New(),
	}
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

// decodeJSON fills payload from the request body. An empty body is reported
// as io.EOF so creation routes can fall back to defaults.
func decodeJSON(r *http.Request, payload any) error {
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(payload); err != nil {
		if errors.Is(err, io.EOF) {
			return io.EOF
		}
		return fmt.Errorf("%w: invalid request body: %v", usecase.ErrInvalidInput, err)
	}
	return nil
}

func queryInt(r *http.Request, key string, fallback int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", usecase.ErrInvalidInput, key)
	}
	return value, nil
}

type createSchedulerRequest struct {
	DaysOfWeek      []int `json:"days_of_week" validate:"omitempty,max=7,dive,gte=0,lte=6"`
	StartHour       int   `json:"start_hour" validate:"gte=0,lte=23"`
	EndHour         int   `json:"end_hour" validate:"gte=0,lte=24"`
	IntervalMinutes int   `json:"interval_minutes" validate:"gte=0"`
	IntervalSeconds int   `json:"interval_seconds" validate:"gte=0,lte=59"`
}

type updateSchedulerRequest struct {
	DaysOfWeek      *[]int `json:"days_of_week" validate:"omitempty,max=7,dive,gte=0,lte=6"`
	StartHour       *int   `json:"start_hour" validate:"omitempty,gte=0,lte=23"`
	EndHour         *int   `json:"end_hour" validate:"omitempty,gte=1,lte=24"`
	IntervalMinutes *int   `json:"interval_minutes" validate:"omitempty,gte=0"`
	IntervalSeconds *int   `json:"interval_seconds" validate:"omitempty,gte=0,lte=59"`
}

type schedulerConfigDTO struct {
	ID              string `json:"id"`
	SeasonID        string `json:"season_id"`
	IsActive        bool   `json:"is_active"`
	IsPaused        bool   `json:"is_paused"`
	DaysOfWeek      []int  `json:"days_of_week"`
	StartHour       int    `json:"start_hour"`
	EndHour         int    `json:"end_hour"`
	IntervalMinutes int    `json:"interval_minutes"`
	IntervalSeconds int    `json:"interval_seconds"`
	LastRunAtUTC    string `json:"last_run_at_utc,omitempty"`
	LastRunStatus   string `json:"last_run_status,omitempty"`
	CreatedAtUTC    string `json:"created_at_utc"`
	UpdatedAtUTC    string `json:"updated_at_utc"`
}

type schedulerStatusDTO struct {
	Config       schedulerConfigDTO `json:"config"`
	SeasonName   string             `json:"season_name,omitempty"`
	LeagueName   string             `json:"league_name,omitempty"`
	IsRunning    bool               `json:"is_running"`
	TotalMatches int                `json:"total_matches"`
	LastRun      *schedulerRunDTO   `json:"last_run,omitempty"`
}

type schedulerRunDTO struct {
	ID             string `json:"id"`
	ConfigID       string `json:"config_id"`
	SeasonID       string `json:"season_id"`
	StartedAtUTC   string `json:"started_at_utc"`
	FinishedAtUTC  string `json:"finished_at_utc,omitempty"`
	Status         string `json:"status"`
	MatchesFetched int    `json:"matches_fetched"`
	MatchesNew     int    `json:"matches_new"`
	ErrorMessage   string `json:"error_message,omitempty"`
}

type matchDTO struct {
	ID           string  `json:"id"`
	EAMatchID    string  `json:"ea_match_id"`
	EATimestamp  int64   `json:"ea_timestamp"`
	SeasonID     *string `json:"season_id,omitempty"`
	ClubID       *string `json:"club_id,omitempty"`
	HomeClubEAID string  `json:"home_club_ea_id,omitempty"`
	AwayClubEAID string  `json:"away_club_ea_id,omitempty"`
	HomeScore    *int    `json:"home_score,omitempty"`
	AwayScore    *int    `json:"away_score,omitempty"`
	IsHome       *bool   `json:"is_home,omitempty"`
	WinnerClubID *string `json:"winner_club_id,omitempty"`
	CreatedAtUTC string  `json:"created_at_utc"`
}

type matchListDTO struct {
	Items  []matchDTO `json:"items"`
	Total  int        `json:"total"`
	Limit  int        `json:"limit"`
	Offset int        `json:"offset"`
}

type playerDTO struct {
	ID           string `json:"id"`
	EAPlayerID   string `json:"ea_player_id"`
	Gamertag     string `json:"gamertag,omitempty"`
	GamesPlayed  int    `json:"games_played"`
	CreatedAtUTC string `json:"created_at_utc"`
	UpdatedAtUTC string `json:"updated_at_utc"`
}

func schedulerConfigToDTO(v scheduler.Config) schedulerConfigDTO {
	dto := schedulerConfigDTO{
		ID:              v.ID,
		SeasonID:        v.SeasonID,
		IsActive:        v.IsActive,
		IsPaused:        v.IsPaused,
		DaysOfWeek:      append([]int(nil), v.DaysOfWeek...),
		StartHour:       v.StartHour,
		EndHour:         v.EndHour,
		IntervalMinutes: v.IntervalMinutes,
		IntervalSeconds: v.IntervalSeconds,
		LastRunStatus:   string(v.LastRunStatus),
		CreatedAtUTC:    v.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAtUTC:    v.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if v.LastRunAt != nil && !v.LastRunAt.IsZero() {
		dto.LastRunAtUTC = v.LastRunAt.UTC().Format(time.RFC3339)
	}
	return dto
}

func schedulerStatusToDTO(v usecase.SchedulerStatus) schedulerStatusDTO {
	dto := schedulerStatusDTO{
		Config:       schedulerConfigToDTO(v.Config),
		SeasonName:   v.SeasonName,
		LeagueName:   v.LeagueName,
		IsRunning:    v.IsRunning,
		TotalMatches: v.TotalMatches,
	}
	if v.LastRun != nil {
		run := schedulerRunToDTO(*v.LastRun)
		dto.LastRun = &run
	}
	return dto
}

func schedulerRunToDTO(v scheduler.Run) schedulerRunDTO {
	dto := schedulerRunDTO{
		ID:             v.ID,
		ConfigID:       v.ConfigID,
		SeasonID:       v.SeasonID,
		StartedAtUTC:   v.StartedAt.UTC().Format(time.RFC3339),
		Status:         string(v.Status),
		MatchesFetched: v.MatchesFetched,
		MatchesNew:     v.MatchesNew,
		ErrorMessage:   v.ErrorMessage,
	}
	if v.FinishedAt != nil && !v.FinishedAt.IsZero() {
		dto.FinishedAtUTC = v.FinishedAt.UTC().Format(time.RFC3339)
	}
	return dto
}

func matchToDTO(v match.Match) matchDTO {
	return matchDTO{
		ID:           v.ID,
		EAMatchID:    v.EAMatchID,
		EATimestamp:  v.EATimestamp,
		SeasonID:     v.SeasonID,
		ClubID:       v.ClubID,
		HomeClubEAID: v.HomeClubEAID,
		AwayClubEAID: v.AwayClubEAID,
		HomeScore:    v.HomeScore,
		AwayScore:    v.AwayScore,
		IsHome:       v.IsHome,
		WinnerClubID: v.WinnerClubID,
		CreatedAtUTC: v.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) ListSchedulers(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListSchedulers")
	defer span.End()

	statuses, err := h.schedulerService.List(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	out := make([]schedulerStatusDTO, 0, len(statuses))
	for _, item := range statuses {
		out = append(out, schedulerStatusToDTO(item))
	}
	writeSuccess(ctx, w, http.StatusOK, out)
}

func (h *Handler) GetScheduler(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetScheduler")
	defer span.End()

	status, err := h.schedulerService.Get(ctx, r.PathValue("seasonID"))
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, schedulerStatusToDTO(status))
}

func (h *Handler) CreateScheduler(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CreateScheduler")
	defer span.End()

	// An empty body creates the config with default polling policy.
	var req createSchedulerRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	created, err := h.schedulerService.Create(ctx, scheduler.Config{
		SeasonID:        r.PathValue("seasonID"),
		DaysOfWeek:      req.DaysOfWeek,
		StartHour:       req.StartHour,
		EndHour:         req.EndHour,
		IntervalMinutes: req.IntervalMinutes,
		IntervalSeconds: req.IntervalSeconds,
	})
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusCreated, schedulerConfigToDTO(created))
}

func (h *Handler) UpdateScheduler(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.UpdateScheduler")
	defer span.End()

	var req updateSchedulerRequest
	if err := decodeJSON(r, &req); err != nil {
		if errors.Is(err, io.EOF) {
			err = fmt.Errorf("%w: request body is required", usecase.ErrInvalidInput)
		}
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	status, err := h.schedulerService.Get(ctx, r.PathValue("seasonID"))
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	cfg := status.Config
	if req.DaysOfWeek != nil {
		cfg.DaysOfWeek = append([]int(nil), (*req.DaysOfWeek)...)
	}
	if req.StartHour != nil {
		cfg.StartHour = *req.StartHour
	}
	if req.EndHour != nil {
		cfg.EndHour = *req.EndHour
	}
	if req.IntervalMinutes != nil {
		cfg.IntervalMinutes = *req.IntervalMinutes
	}
	if req.IntervalSeconds != nil {
		cfg.IntervalSeconds = *req.IntervalSeconds
	}

	updated, err := h.schedulerService.Update(ctx, cfg)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, schedulerConfigToDTO(updated))
}

func (h *Handler) DeleteScheduler(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.DeleteScheduler")
	defer span.End()

	if err := h.schedulerService.Delete(ctx, r.PathValue("seasonID")); err != nil {
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) StartScheduler(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.StartScheduler")
	defer span.End()

	cfg, err := h.schedulerService.Start(ctx, r.PathValue("seasonID"))
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, schedulerConfigToDTO(cfg))
}

func (h *Handler) StopScheduler(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.StopScheduler")
	defer span.End()

	cfg, err := h.schedulerService.Stop(ctx, r.PathValue("seasonID"))
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, schedulerConfigToDTO(cfg))
}

func (h *Handler) PauseScheduler(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.PauseScheduler")
	defer span.End()

	cfg, err := h.schedulerService.Pause(ctx, r.PathValue("seasonID"))
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, schedulerConfigToDTO(cfg))
}

func (h *Handler) ResumeScheduler(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ResumeScheduler")
	defer span.End()

	cfg, err := h.schedulerService.Resume(ctx, r.PathValue("seasonID"))
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, schedulerConfigToDTO(cfg))
}

func (h *Handler) ListSchedulerRuns(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListSchedulerRuns")
	defer span.End()

	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	runs, err := h.schedulerService.Runs(ctx, r.PathValue("seasonID"), limit)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	out := make([]schedulerRunDTO, 0, len(runs))
	for _, item := range runs {
		out = append(out, schedulerRunToDTO(item))
	}
	writeSuccess(ctx, w, http.StatusOK, out)
}

func (h *Handler) ListSeasonMatches(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListSeasonMatches")
	defer span.End()

	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	items, total, err := h.matchService.ListBySeason(ctx, r.PathValue("seasonID"), limit, offset)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	out := make([]matchDTO, 0, len(items))
	for _, item := range items {
		out = append(out, matchToDTO(item))
	}
	if limit <= 0 {
		limit = len(out)
	}
	writeSuccess(ctx, w, http.StatusOK, matchListDTO{
		Items:  out,
		Total:  total,
		Limit:  limit,
		Offset: offset,
	})
}

func (h *Handler) GetPlayer(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetPlayer")
	defer span.End()

	row, games, err := h.playerService.GetByEAID(ctx, r.PathValue("eaPlayerID"))
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, playerDTO{
		ID:           row.ID,
		EAPlayerID:   row.EAPlayerID,
		Gamertag:     row.Gamertag,
		GamesPlayed:  games,
		CreatedAtUTC: row.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAtUTC: row.UpdatedAt.UTC().Format(time.RFC3339),
	})
}
