package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/bluelinehq/chel-archive/external/eaclient"
	"github.com/bluelinehq/chel-archive/internal/domain/match"
	"github.com/bluelinehq/chel-archive/internal/domain/player"
)

type matchStore interface {
	StoreMatch(ctx context.Context, m match.Match, stats []player.MatchStats) (bool, error)
}

// IngestionService turns one upstream match payload into archive rows. The
// store commits each match in its own transaction, so one bad match never
// takes a whole tick down with it.
type IngestionService struct {
	matches matchStore
}

func NewIngestionService(matches matchStore) *IngestionService {
	return &IngestionService{matches: matches}
}

type IngestMatchInput struct {
	SeasonID string
	ClubID   string
	EAClubID string
	Upstream eaclient.Match
}

// IngestMatch persists one match with its player stat lines. It reports
// stored=false when the dedup key already knows the match.
func (s *IngestionService) IngestMatch(ctx context.Context, input IngestMatchInput) (bool, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.IngestionService.IngestMatch")
	defer span.End()

	input.EAClubID = strings.TrimSpace(input.EAClubID)
	if input.EAClubID == "" {
		return false, fmt.Errorf("%w: ea club id is required", ErrInvalidInput)
	}
	if input.Upstream.MatchID == "" || input.Upstream.Timestamp <= 0 {
		return false, fmt.Errorf("%w: upstream match id and timestamp are required", ErrInvalidInput)
	}

	row, stats := mapUpstreamMatch(input.SeasonID, input.ClubID, input.EAClubID, input.Upstream)
	stored, err := s.matches.StoreMatch(ctx, row, stats)
	if err != nil {
		return false, fmt.Errorf("store match ea_match_id=%s: %w", row.EAMatchID, err)
	}
	return stored, nil
}
