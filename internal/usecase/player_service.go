package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/bluelinehq/chel-archive/internal/domain/player"
)

// PlayerService serves archived player identities to the API layer.
type PlayerService struct {
	players player.Repository
}

func NewPlayerService(players player.Repository) *PlayerService {
	return &PlayerService{players: players}
}

// GetByEAID returns the player plus the number of archived stat lines.
func (s *PlayerService) GetByEAID(ctx context.Context, eaPlayerID string) (player.Player, int, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PlayerService.GetByEAID")
	defer span.End()

	eaPlayerID = strings.TrimSpace(eaPlayerID)
	if eaPlayerID == "" {
		return player.Player{}, 0, fmt.Errorf("%w: ea player id is required", ErrInvalidInput)
	}

	row, err := s.players.GetByEAID(ctx, eaPlayerID)
	if err != nil {
		return player.Player{}, 0, err
	}
	games, err := s.players.CountMatches(ctx, eaPlayerID)
	if err != nil {
		return player.Player{}, 0, err
	}
	return row, games, nil
}
