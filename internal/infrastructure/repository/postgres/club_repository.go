package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/bluelinehq/chel-archive/internal/domain/club"
	qb "github.com/bluelinehq/chel-archive/internal/platform/querybuilder"
	"github.com/bluelinehq/chel-archive/internal/usecase"
)

type clubRow struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	EAClubID  *string   `db:"ea_club_id"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r clubRow) toDomain() club.Club {
	out := club.Club{
		ID:        r.ID,
		Name:      r.Name,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if r.EAClubID != nil {
		out.EAClubID = *r.EAClubID
	}
	return out
}

type ClubRepository struct {
	db *sqlx.DB
}

func NewClubRepository(db *sqlx.DB) *ClubRepository {
	return &ClubRepository{db: db}
}

func (r *ClubRepository) ListBySeason(ctx context.Context, seasonID string) ([]club.Club, error) {
	const query = `
		SELECT c.id, c.name, c.ea_club_id, c.created_at, c.updated_at
		FROM clubs c
		JOIN season_clubs sc ON sc.club_id = c.id
		WHERE sc.season_id = $1
		ORDER BY c.name ASC`

	var rows []clubRow
	if err := r.db.SelectContext(ctx, &rows, query, seasonID); err != nil {
		return nil, fmt.Errorf("list clubs season_id=%s: %w", seasonID, err)
	}

	out := make([]club.Club, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *ClubRepository) SetEAClubID(ctx context.Context, clubID, eaClubID string) error {
	query, args, err := qb.Update("clubs").
		Set("ea_club_id", eaClubID).
		Set("updated_at", time.Now().UTC()).
		Where(qb.Eq("id", clubID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update club ea id query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update club ea id club_id=%s: %w", clubID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update club ea id rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: club %s", usecase.ErrNotFound, clubID)
	}
	return nil
}
