package player

import "time"

// Player is an upstream account seen in at least one archived match. The
// gamertag is refreshed whenever a newer one is observed.
type Player struct {
	ID         string
	EAPlayerID string
	Gamertag   string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// MatchStats is one player's line for one match. Every stat field is a
// pointer: upstream values that are missing or fail numeric parse are kept
// as nulls rather than zeroes so absence stays distinguishable.
type MatchStats struct {
	ID         string
	PlayerID   string
	EAPlayerID string
	EAMatchID  string
	Gamertag   string

	EATimestamp *int64
	MatchID     *string
	StatClass   *int

	// Goaltending.
	GlBrkSavePct  *float64
	GlBrkSaves    *int
	GlBrkShots    *int
	GlDSaves      *int
	GlGA          *int
	GlGAA         *float64
	GlPenSavePct  *float64
	GlPenSaves    *int
	GlPenShots    *int
	GlPkClearZone *int
	GlPokeChecks  *int
	GlSavePct     *float64
	GlSaves       *int
	GlShots       *int
	GlSOPeriods   *int

	// Context.
	IsGuest            *int
	OpponentClubID     *string
	OpponentScore      *int
	OpponentTeamID     *string
	PlayerDNF          *int
	PlayerLevel        *int
	PNhlOnlineGameType *string
	Position           *string
	PosSorted          *int
	RatingDefense      *float64
	RatingOffense      *float64
	RatingTeamplay     *float64
	Score              *int

	// Skating.
	SkAssists        *int
	SkBS             *int
	SkDeflections    *int
	SkFOL            *int
	SkFOPct          *float64
	SkFOW            *int
	SkGiveaways      *int
	SkGoals          *int
	SkGWG            *int
	SkHits           *int
	SkInterceptions  *int
	SkPassAttempts   *int
	SkPasses         *int
	SkPassPct        *float64
	SkPenaltiesDrawn *int
	SkPIM            *int
	SkPkClearZone    *int
	SkPlusMin        *int
	SkPossession     *int
	SkPPG            *int
	SkSaucerPasses   *int
	SkSHG            *int
	SkShotAttempts   *int
	SkShotOnNetPct   *float64
	SkShotPct        *float64
	SkShots          *int
	SkTakeaways      *int

	TeamID         *string
	TeamSide       *int
	TOI            *int
	TOISeconds     *int
	ClientPlatform *string

	CreatedAt time.Time
}
