package match

import "time"

// Match is one archived upstream match, stored from the perspective of the
// club whose job fetched it first. The (EAMatchID, EATimestamp) pair is
// globally unique; a later fetch of the same match from the opposing club's
// perspective is rejected by that constraint.
type Match struct {
	ID           string
	EAMatchID    string
	EATimestamp  int64
	SeasonID     *string
	ClubID       *string
	HomeClubEAID string
	AwayClubEAID string
	HomeScore    *int
	AwayScore    *int
	IsHome       *bool
	WinnerClubID *string
	RawPayload   map[string]any
	CreatedAt    time.Time
}
