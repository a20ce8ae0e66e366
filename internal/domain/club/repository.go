package club

import "context"

// Repository exposes club lookups and the cached id resolution write-back.
type Repository interface {
	ListBySeason(ctx context.Context, seasonID string) ([]Club, error)
	SetEAClubID(ctx context.Context, clubID, eaClubID string) error
}
