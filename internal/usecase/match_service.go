package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/bluelinehq/chel-archive/internal/domain/match"
)

const (
	defaultMatchListLimit = 20
	maxMatchListLimit     = 100
)

// MatchService serves archived matches to the API layer, newest first.
type MatchService struct {
	matches match.Repository
}

func NewMatchService(matches match.Repository) *MatchService {
	return &MatchService{matches: matches}
}

func (s *MatchService) ListBySeason(ctx context.Context, seasonID string, limit, offset int) ([]match.Match, int, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.ListBySeason")
	defer span.End()

	seasonID = strings.TrimSpace(seasonID)
	if seasonID == "" {
		return nil, 0, fmt.Errorf("%w: season id is required", ErrInvalidInput)
	}
	if limit <= 0 {
		limit = defaultMatchListLimit
	}
	if limit > maxMatchListLimit {
		limit = maxMatchListLimit
	}
	if offset < 0 {
		offset = 0
	}

	items, err := s.matches.ListBySeason(ctx, seasonID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.matches.CountBySeason(ctx, seasonID)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}
