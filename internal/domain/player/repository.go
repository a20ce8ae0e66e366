package player

import "context"

// Repository describes player read needs from use cases.
type Repository interface {
	GetByEAID(ctx context.Context, eaPlayerID string) (Player, error)
	// CountMatches returns how many archived stat lines exist for the player.
	CountMatches(ctx context.Context, eaPlayerID string) (int, error)
}
