package postgres

import (
	"time"

	"github.com/bluelinehq/chel-archive/internal/domain/scheduler"
)

type schedulerRunRow struct {
	ID             string     `db:"id"`
	ConfigID       string     `db:"scheduler_config_id"`
	SeasonID       string     `db:"season_id"`
	StartedAt      time.Time  `db:"started_at"`
	FinishedAt     *time.Time `db:"finished_at"`
	Status         string     `db:"status"`
	MatchesFetched int        `db:"matches_fetched"`
	MatchesNew     int        `db:"matches_new"`
	ErrorMessage   *string    `db:"error_message"`
}

var schedulerRunColumns = []string{
	"id", "scheduler_config_id", "season_id", "started_at", "finished_at",
	"status", "matches_fetched", "matches_new", "error_message",
}

func (r schedulerRunRow) toDomain() scheduler.Run {
	out := scheduler.Run{
		ID:             r.ID,
		ConfigID:       r.ConfigID,
		SeasonID:       r.SeasonID,
		StartedAt:      r.StartedAt,
		FinishedAt:     r.FinishedAt,
		Status:         scheduler.RunStatus(r.Status),
		MatchesFetched: r.MatchesFetched,
		MatchesNew:     r.MatchesNew,
	}
	if r.ErrorMessage != nil {
		out.ErrorMessage = *r.ErrorMessage
	}
	return out
}

type schedulerRunInsertModel struct {
	ID             string    `db:"id"`
	ConfigID       string    `db:"scheduler_config_id"`
	SeasonID       string    `db:"season_id"`
	StartedAt      time.Time `db:"started_at"`
	Status         string    `db:"status"`
	MatchesFetched int       `db:"matches_fetched"`
	MatchesNew     int       `db:"matches_new"`
}
