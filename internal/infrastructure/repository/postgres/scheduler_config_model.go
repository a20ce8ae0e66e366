package postgres

import (
	"time"

	sonic "github.com/bytedance/sonic"

	"github.com/bluelinehq/chel-archive/internal/domain/scheduler"
)

type schedulerConfigRow struct {
	ID              string     `db:"id"`
	SeasonID        string     `db:"season_id"`
	IsActive        bool       `db:"is_active"`
	IsPaused        bool       `db:"is_paused"`
	DaysOfWeek      []byte     `db:"days_of_week"`
	StartHour       int        `db:"start_hour"`
	EndHour         int        `db:"end_hour"`
	IntervalMinutes int        `db:"interval_minutes"`
	IntervalSeconds int        `db:"interval_seconds"`
	LastRunAt       *time.Time `db:"last_run_at"`
	LastRunStatus   *string    `db:"last_run_status"`
	CreatedAt       time.Time  `db:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at"`
}

var schedulerConfigColumns = []string{
	"id", "season_id", "is_active", "is_paused", "days_of_week",
	"start_hour", "end_hour", "interval_minutes", "interval_seconds",
	"last_run_at", "last_run_status", "created_at", "updated_at",
}

func (r schedulerConfigRow) toDomain() (scheduler.Config, error) {
	days := []int{}
	if len(r.DaysOfWeek) > 0 {
		if err := sonic.Unmarshal(r.DaysOfWeek, &days); err != nil {
			return scheduler.Config{}, err
		}
	}

	out := scheduler.Config{
		ID:              r.ID,
		SeasonID:        r.SeasonID,
		IsActive:        r.IsActive,
		IsPaused:        r.IsPaused,
		DaysOfWeek:      days,
		StartHour:       r.StartHour,
		EndHour:         r.EndHour,
		IntervalMinutes: r.IntervalMinutes,
		IntervalSeconds: r.IntervalSeconds,
		LastRunAt:       r.LastRunAt,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
	if r.LastRunStatus != nil {
		out.LastRunStatus = scheduler.RunStatus(*r.LastRunStatus)
	}
	return out, nil
}

type schedulerConfigInsertModel struct {
	ID              string    `db:"id"`
	SeasonID        string    `db:"season_id"`
	IsActive        bool      `db:"is_active"`
	IsPaused        bool      `db:"is_paused"`
	DaysOfWeek      string    `db:"days_of_week"`
	StartHour       int       `db:"start_hour"`
	EndHour         int       `db:"end_hour"`
	IntervalMinutes int       `db:"interval_minutes"`
	IntervalSeconds int       `db:"interval_seconds"`
	CreatedAt       time.Time `db:"created_at"`
	UpdatedAt       time.Time `db:"updated_at"`
}

func encodeDays(days []int) (string, error) {
	if days == nil {
		days = []int{}
	}
	raw, err := sonic.Marshal(days)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
