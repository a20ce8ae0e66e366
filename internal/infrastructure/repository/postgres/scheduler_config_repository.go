package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/bluelinehq/chel-archive/internal/domain/scheduler"
	"github.com/bluelinehq/chel-archive/internal/platform/id"
	qb "github.com/bluelinehq/chel-archive/internal/platform/querybuilder"
	"github.com/bluelinehq/chel-archive/internal/usecase"
)

type SchedulerConfigRepository struct {
	db    *sqlx.DB
	idGen id.Generator
}

func NewSchedulerConfigRepository(db *sqlx.DB, idGen id.Generator) *SchedulerConfigRepository {
	if idGen == nil {
		idGen = id.NewRandomGenerator()
	}
	return &SchedulerConfigRepository{db: db, idGen: idGen}
}

func (r *SchedulerConfigRepository) Create(ctx context.Context, cfg scheduler.Config) error {
	days, err := encodeDays(cfg.DaysOfWeek)
	if err != nil {
		return fmt.Errorf("encode days_of_week: %w", err)
	}

	now := time.Now().UTC()
	model := schedulerConfigInsertModel{
		ID:              cfg.ID,
		SeasonID:        cfg.SeasonID,
		IsActive:        cfg.IsActive,
		IsPaused:        cfg.IsPaused,
		DaysOfWeek:      days,
		StartHour:       cfg.StartHour,
		EndHour:         cfg.EndHour,
		IntervalMinutes: cfg.IntervalMinutes,
		IntervalSeconds: cfg.IntervalSeconds,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if model.ID == "" {
		generated, idErr := r.idGen.NewID()
		if idErr != nil {
			return fmt.Errorf("generate config id: %w", idErr)
		}
		model.ID = generated
	}

	query, args, err := qb.InsertModel("scheduler_configs", model, "")
	if err != nil {
		return fmt.Errorf("build insert scheduler config query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: scheduler config already exists for season %s", usecase.ErrConflict, cfg.SeasonID)
		}
		return fmt.Errorf("insert scheduler config season_id=%s: %w", cfg.SeasonID, err)
	}
	return nil
}

func (r *SchedulerConfigRepository) Update(ctx context.Context, cfg scheduler.Config) error {
	days, err := encodeDays(cfg.DaysOfWeek)
	if err != nil {
		return fmt.Errorf("encode days_of_week: %w", err)
	}

	query, args, err := qb.Update("scheduler_configs").
		Set("is_active", cfg.IsActive).
		Set("is_paused", cfg.IsPaused).
		Set("days_of_week", days).
		Set("start_hour", cfg.StartHour).
		Set("end_hour", cfg.EndHour).
		Set("interval_minutes", cfg.IntervalMinutes).
		Set("interval_seconds", cfg.IntervalSeconds).
		Set("updated_at", time.Now().UTC()).
		Where(qb.Eq("season_id", cfg.SeasonID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update scheduler config query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update scheduler config season_id=%s: %w", cfg.SeasonID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update scheduler config rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: scheduler config for season %s", usecase.ErrNotFound, cfg.SeasonID)
	}
	return nil
}

func (r *SchedulerConfigRepository) Delete(ctx context.Context, seasonID string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM scheduler_configs WHERE season_id = $1", seasonID)
	if err != nil {
		return fmt.Errorf("delete scheduler config season_id=%s: %w", seasonID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete scheduler config rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: scheduler config for season %s", usecase.ErrNotFound, seasonID)
	}
	return nil
}

func (r *SchedulerConfigRepository) GetBySeason(ctx context.Context, seasonID string) (scheduler.Config, error) {
	query, args, err := qb.Select(schedulerConfigColumns...).
		From("scheduler_configs").
		Where(qb.Eq("season_id", seasonID)).
		ToSQL()
	if err != nil {
		return scheduler.Config{}, fmt.Errorf("build select scheduler config query: %w", err)
	}

	var row schedulerConfigRow
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return scheduler.Config{}, fmt.Errorf("%w: scheduler config for season %s", usecase.ErrNotFound, seasonID)
		}
		return scheduler.Config{}, fmt.Errorf("select scheduler config season_id=%s: %w", seasonID, err)
	}

	out, err := row.toDomain()
	if err != nil {
		return scheduler.Config{}, fmt.Errorf("decode scheduler config season_id=%s: %w", seasonID, err)
	}
	return out, nil
}

func (r *SchedulerConfigRepository) List(ctx context.Context) ([]scheduler.Config, error) {
	return r.list(ctx, nil)
}

func (r *SchedulerConfigRepository) ListActive(ctx context.Context) ([]scheduler.Config, error) {
	return r.list(ctx, []qb.Condition{qb.Eq("is_active", true)})
}

func (r *SchedulerConfigRepository) list(ctx context.Context, conditions []qb.Condition) ([]scheduler.Config, error) {
	builder := qb.Select(schedulerConfigColumns...).
		From("scheduler_configs").
		OrderBy("created_at ASC")
	if len(conditions) > 0 {
		builder = builder.Where(conditions...)
	}
	query, args, err := builder.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list scheduler configs query: %w", err)
	}

	var rows []schedulerConfigRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list scheduler configs: %w", err)
	}

	out := make([]scheduler.Config, 0, len(rows))
	for _, row := range rows {
		cfg, err := row.toDomain()
		if err != nil {
			return nil, fmt.Errorf("decode scheduler config id=%s: %w", row.ID, err)
		}
		out = append(out, cfg)
	}
	return out, nil
}

func (r *SchedulerConfigRepository) SetLastRun(ctx context.Context, configID string, at time.Time, status scheduler.RunStatus) error {
	query, args, err := qb.Update("scheduler_configs").
		Set("last_run_at", at.UTC()).
		Set("last_run_status", string(status)).
		Set("updated_at", time.Now().UTC()).
		Where(qb.Eq("id", configID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update last run query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update last run config_id=%s: %w", configID, err)
	}
	return nil
}
