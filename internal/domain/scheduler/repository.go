package scheduler

import (
	"context"
	"time"
)

// ConfigRepository persists per-season polling configs.
type ConfigRepository interface {
	Create(ctx context.Context, cfg Config) error
	Update(ctx context.Context, cfg Config) error
	Delete(ctx context.Context, seasonID string) error
	GetBySeason(ctx context.Context, seasonID string) (Config, error)
	List(ctx context.Context) ([]Config, error)
	ListActive(ctx context.Context) ([]Config, error)
	SetLastRun(ctx context.Context, configID string, at time.Time, status RunStatus) error
}

// RunRepository persists tick audit records.
type RunRepository interface {
	Open(ctx context.Context, run Run) (Run, error)
	Close(ctx context.Context, run Run) error
	ListBySeason(ctx context.Context, seasonID string, limit int) ([]Run, error)
	// CloseInterrupted finalizes runs still marked running, used at startup
	// after an unclean shutdown. Returns the number of runs closed.
	CloseInterrupted(ctx context.Context, reason string) (int, error)
}
