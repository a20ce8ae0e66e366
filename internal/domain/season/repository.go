package season

import "context"

// Repository exposes season lookups.
type Repository interface {
	GetByID(ctx context.Context, seasonID string) (Season, error)
}
