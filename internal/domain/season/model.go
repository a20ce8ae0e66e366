package season

import "time"

// Season is a bounded competitive period inside a league.
type Season struct {
	ID         string
	LeagueID   string
	Name       string
	LeagueName string
	StartsAt   *time.Time
	EndsAt     *time.Time
}
