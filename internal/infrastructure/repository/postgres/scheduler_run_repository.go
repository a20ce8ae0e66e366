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

type SchedulerRunRepository struct {
	db    *sqlx.DB
	idGen id.Generator
}

func NewSchedulerRunRepository(db *sqlx.DB, idGen id.Generator) *SchedulerRunRepository {
	if idGen == nil {
		idGen = id.NewRandomGenerator()
	}
	return &SchedulerRunRepository{db: db, idGen: idGen}
}

func (r *SchedulerRunRepository) Open(ctx context.Context, run scheduler.Run) (scheduler.Run, error) {
	model := schedulerRunInsertModel{
		ID:        run.ID,
		ConfigID:  run.ConfigID,
		SeasonID:  run.SeasonID,
		StartedAt: run.StartedAt.UTC(),
		Status:    string(scheduler.RunStatusRunning),
	}
	if model.ID == "" {
		generated, err := r.idGen.NewID()
		if err != nil {
			return scheduler.Run{}, fmt.Errorf("generate run id: %w", err)
		}
		model.ID = generated
	}
	if model.StartedAt.IsZero() {
		model.StartedAt = time.Now().UTC()
	}

	query, args, err := qb.InsertModel("scheduler_runs", model, "")
	if err != nil {
		return scheduler.Run{}, fmt.Errorf("build insert scheduler run query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return scheduler.Run{}, fmt.Errorf("insert scheduler run config_id=%s: %w", run.ConfigID, err)
	}

	run.ID = model.ID
	run.StartedAt = model.StartedAt
	run.Status = scheduler.RunStatusRunning
	return run, nil
}

func (r *SchedulerRunRepository) Close(ctx context.Context, run scheduler.Run) error {
	finishedAt := time.Now().UTC()
	if run.FinishedAt != nil {
		finishedAt = run.FinishedAt.UTC()
	}

	query, args, err := qb.Update("scheduler_runs").
		Set("finished_at", finishedAt).
		Set("status", string(run.Status)).
		Set("matches_fetched", run.MatchesFetched).
		Set("matches_new", run.MatchesNew).
		Set("error_message", optionalString(run.ErrorMessage)).
		Where(qb.Eq("id", run.ID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build close scheduler run query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("close scheduler run id=%s: %w", run.ID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("close scheduler run rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: scheduler run %s", usecase.ErrNotFound, run.ID)
	}
	return nil
}

func (r *SchedulerRunRepository) ListBySeason(ctx context.Context, seasonID string, limit int) ([]scheduler.Run, error) {
	if limit <= 0 {
		limit = 20
	}

	query, args, err := qb.Select(schedulerRunColumns...).
		From("scheduler_runs").
		Where(qb.Eq("season_id", seasonID)).
		OrderBy("started_at DESC").
		Limit(limit).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list scheduler runs query: %w", err)
	}

	var rows []schedulerRunRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list scheduler runs season_id=%s: %w", seasonID, err)
	}

	out := make([]scheduler.Run, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *SchedulerRunRepository) CloseInterrupted(ctx context.Context, reason string) (int, error) {
	query, args, err := qb.Update("scheduler_runs").
		Set("finished_at", time.Now().UTC()).
		Set("status", string(scheduler.RunStatusFailed)).
		Set("error_message", reason).
		Where(qb.Eq("status", string(scheduler.RunStatusRunning))).
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build close interrupted runs query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("close interrupted runs: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("close interrupted runs rows affected: %w", err)
	}
	return int(affected), nil
}
