package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/bluelinehq/chel-archive/internal/domain/season"
	"github.com/bluelinehq/chel-archive/internal/usecase"
)

type seasonRow struct {
	ID         string     `db:"id"`
	LeagueID   string     `db:"league_id"`
	Name       string     `db:"name"`
	LeagueName string     `db:"league_name"`
	StartsAt   *time.Time `db:"starts_at"`
	EndsAt     *time.Time `db:"ends_at"`
}

func (r seasonRow) toDomain() season.Season {
	return season.Season{
		ID:         r.ID,
		LeagueID:   r.LeagueID,
		Name:       r.Name,
		LeagueName: r.LeagueName,
		StartsAt:   r.StartsAt,
		EndsAt:     r.EndsAt,
	}
}

type SeasonRepository struct {
	db *sqlx.DB
}

func NewSeasonRepository(db *sqlx.DB) *SeasonRepository {
	return &SeasonRepository{db: db}
}

func (r *SeasonRepository) GetByID(ctx context.Context, seasonID string) (season.Season, error) {
	const query = `
		SELECT s.id, s.league_id, s.name, l.name AS league_name, s.starts_at, s.ends_at
		FROM seasons s
		JOIN leagues l ON l.id = s.league_id
		WHERE s.id = $1`

	var row seasonRow
	if err := r.db.GetContext(ctx, &row, query, seasonID); err != nil {
		if isNotFound(err) {
			return season.Season{}, fmt.Errorf("%w: season %s", usecase.ErrNotFound, seasonID)
		}
		return season.Season{}, fmt.Errorf("select season id=%s: %w", seasonID, err)
	}
	return row.toDomain(), nil
}
