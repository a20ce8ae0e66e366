package match

import "context"

// Repository exposes match read operations for the API layer.
type Repository interface {
	ListBySeason(ctx context.Context, seasonID string, limit, offset int) ([]Match, error)
	CountBySeason(ctx context.Context, seasonID string) (int, error)
}
