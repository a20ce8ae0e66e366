package scheduler

import (
	"fmt"
	"time"
)

type RunStatus string

const (
	RunStatusRunning RunStatus = "running"
	RunStatusSuccess RunStatus = "success"
	RunStatusFailed  RunStatus = "failed"
	RunStatusPartial RunStatus = "partial"
)

// Config holds the polling policy for one season. Weekday indices follow the
// upstream convention 0=Monday .. 6=Sunday.
type Config struct {
	ID              string
	SeasonID        string
	IsActive        bool
	IsPaused        bool
	DaysOfWeek      []int
	StartHour       int
	EndHour         int
	IntervalMinutes int
	IntervalSeconds int
	LastRunAt       *time.Time
	LastRunStatus   RunStatus
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Interval is the pause between two ticks of the same job.
func (c Config) Interval() time.Duration {
	return time.Duration(c.IntervalMinutes)*time.Minute + time.Duration(c.IntervalSeconds)*time.Second
}

func (c Config) Validate() error {
	if c.SeasonID == "" {
		return fmt.Errorf("season id is required")
	}
	if c.StartHour < 0 || c.StartHour > 23 {
		return fmt.Errorf("start_hour must be between 0 and 23")
	}
	if c.EndHour < 1 || c.EndHour > 24 {
		return fmt.Errorf("end_hour must be between 1 and 24")
	}
	if c.IntervalMinutes < 0 {
		return fmt.Errorf("interval_minutes must not be negative")
	}
	if c.IntervalSeconds < 0 || c.IntervalSeconds > 59 {
		return fmt.Errorf("interval_seconds must be between 0 and 59")
	}
	if c.Interval() < time.Second {
		return fmt.Errorf("total interval must be at least 1 second")
	}
	for _, day := range c.DaysOfWeek {
		if day < 0 || day > 6 {
			return fmt.Errorf("days_of_week entries must be between 0 and 6")
		}
	}
	return nil
}

// Run is the audit record for one tick. Immutable once finished.
type Run struct {
	ID             string
	ConfigID       string
	SeasonID       string
	StartedAt      time.Time
	FinishedAt     *time.Time
	Status         RunStatus
	MatchesFetched int
	MatchesNew     int
	ErrorMessage   string
}
