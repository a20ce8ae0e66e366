package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/bluelinehq/chel-archive/internal/domain/player"
	qb "github.com/bluelinehq/chel-archive/internal/platform/querybuilder"
	"github.com/bluelinehq/chel-archive/internal/usecase"
)

type PlayerRepository struct {
	db *sqlx.DB
}

func NewPlayerRepository(db *sqlx.DB) *PlayerRepository {
	return &PlayerRepository{db: db}
}

func (r *PlayerRepository) GetByEAID(ctx context.Context, eaPlayerID string) (player.Player, error) {
	query, args, err := qb.Select(playerColumns...).
		From("players").
		Where(qb.Eq("ea_player_id", eaPlayerID)).
		ToSQL()
	if err != nil {
		return player.Player{}, fmt.Errorf("build select player query: %w", err)
	}

	var row playerRow
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return player.Player{}, fmt.Errorf("%w: player %s", usecase.ErrNotFound, eaPlayerID)
		}
		return player.Player{}, fmt.Errorf("select player ea_player_id=%s: %w", eaPlayerID, err)
	}
	return row.toDomain(), nil
}

func (r *PlayerRepository) CountMatches(ctx context.Context, eaPlayerID string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM player_match_stats WHERE ea_player_id = $1", eaPlayerID); err != nil {
		return 0, fmt.Errorf("count player stat lines ea_player_id=%s: %w", eaPlayerID, err)
	}
	return count, nil
}
