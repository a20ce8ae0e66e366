package postgres

import (
	"time"

	"github.com/bluelinehq/chel-archive/internal/domain/player"
)

type playerRow struct {
	ID         string    `db:"id"`
	EAPlayerID string    `db:"ea_player_id"`
	Gamertag   string    `db:"gamertag"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

var playerColumns = []string{"id", "ea_player_id", "gamertag", "created_at", "updated_at"}

func (r playerRow) toDomain() player.Player {
	return player.Player{
		ID:         r.ID,
		EAPlayerID: r.EAPlayerID,
		Gamertag:   r.Gamertag,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

// playerMatchStatsRow mirrors the upstream stat sheet column for column. The
// lowercased gl*/sk* names are kept as-is so rows stay greppable against raw
// upstream payloads.
type playerMatchStatsRow struct {
	ID         string `db:"id"`
	PlayerID   string `db:"player_id"`
	EAPlayerID string `db:"ea_player_id"`
	EAMatchID  string `db:"ea_match_id"`

	EATimestamp *int64  `db:"ea_timestamp"`
	MatchID     *string `db:"match_id"`
	StatClass   *int    `db:"stat_class"`

	GlBrkSavePct  *float64 `db:"glbrksavepct"`
	GlBrkSaves    *int     `db:"glbrksaves"`
	GlBrkShots    *int     `db:"glbrkshots"`
	GlDSaves      *int     `db:"gldsaves"`
	GlGA          *int     `db:"glga"`
	GlGAA         *float64 `db:"glgaa"`
	GlPenSavePct  *float64 `db:"glpensavepct"`
	GlPenSaves    *int     `db:"glpensaves"`
	GlPenShots    *int     `db:"glpenshots"`
	GlPkClearZone *int     `db:"glpkclearzone"`
	GlPokeChecks  *int     `db:"glpokechecks"`
	GlSavePct     *float64 `db:"glsavepct"`
	GlSaves       *int     `db:"glsaves"`
	GlShots       *int     `db:"glshots"`
	GlSOPeriods   *int     `db:"glsoperiods"`

	IsGuest            *int     `db:"is_guest"`
	OpponentClubID     *string  `db:"opponent_club_id"`
	OpponentScore      *int     `db:"opponent_score"`
	OpponentTeamID     *string  `db:"opponent_team_id"`
	PlayerDNF          *int     `db:"player_dnf"`
	PlayerLevel        *int     `db:"player_level"`
	PNhlOnlineGameType *string  `db:"p_nhl_online_game_type"`
	Position           *string  `db:"position"`
	PosSorted          *int     `db:"pos_sorted"`
	RatingDefense      *float64 `db:"rating_defense"`
	RatingOffense      *float64 `db:"rating_offense"`
	RatingTeamplay     *float64 `db:"rating_teamplay"`
	Score              *int     `db:"score"`

	SkAssists        *int     `db:"skassists"`
	SkBS             *int     `db:"skbs"`
	SkDeflections    *int     `db:"skdeflections"`
	SkFOL            *int     `db:"skfol"`
	SkFOPct          *float64 `db:"skfopct"`
	SkFOW            *int     `db:"skfow"`
	SkGiveaways      *int     `db:"skgiveaways"`
	SkGoals          *int     `db:"skgoals"`
	SkGWG            *int     `db:"skgwg"`
	SkHits           *int     `db:"skhits"`
	SkInterceptions  *int     `db:"skinterceptions"`
	SkPassAttempts   *int     `db:"skpassattempts"`
	SkPasses         *int     `db:"skpasses"`
	SkPassPct        *float64 `db:"skpasspct"`
	SkPenaltiesDrawn *int     `db:"skpenaltiesdrawn"`
	SkPIM            *int     `db:"skpim"`
	SkPkClearZone    *int     `db:"skpkclearzone"`
	SkPlusMin        *int     `db:"skplusmin"`
	SkPossession     *int     `db:"skpossession"`
	SkPPG            *int     `db:"skppg"`
	SkSaucerPasses   *int     `db:"sksaucerpasses"`
	SkSHG            *int     `db:"skshg"`
	SkShotAttempts   *int     `db:"skshotattempts"`
	SkShotOnNetPct   *float64 `db:"skshotonnetpct"`
	SkShotPct        *float64 `db:"skshotpct"`
	SkShots          *int     `db:"skshots"`
	SkTakeaways      *int     `db:"sktakeaways"`

	TeamID         *string `db:"team_id"`
	TeamSide       *int    `db:"team_side"`
	TOI            *int    `db:"toi"`
	TOISeconds     *int    `db:"toiseconds"`
	ClientPlatform *string `db:"client_platform"`

	CreatedAt time.Time `db:"created_at"`
}

func playerMatchStatsInsertModel(s *player.MatchStats) playerMatchStatsRow {
	return playerMatchStatsRow{
		ID:         s.ID,
		PlayerID:   s.PlayerID,
		EAPlayerID: s.EAPlayerID,
		EAMatchID:  s.EAMatchID,

		EATimestamp: s.EATimestamp,
		MatchID:     s.MatchID,
		StatClass:   s.StatClass,

		GlBrkSavePct:  s.GlBrkSavePct,
		GlBrkSaves:    s.GlBrkSaves,
		GlBrkShots:    s.GlBrkShots,
		GlDSaves:      s.GlDSaves,
		GlGA:          s.GlGA,
		GlGAA:         s.GlGAA,
		GlPenSavePct:  s.GlPenSavePct,
		GlPenSaves:    s.GlPenSaves,
		GlPenShots:    s.GlPenShots,
		GlPkClearZone: s.GlPkClearZone,
		GlPokeChecks:  s.GlPokeChecks,
		GlSavePct:     s.GlSavePct,
		GlSaves:       s.GlSaves,
		GlShots:       s.GlShots,
		GlSOPeriods:   s.GlSOPeriods,

		IsGuest:            s.IsGuest,
		OpponentClubID:     s.OpponentClubID,
		OpponentScore:      s.OpponentScore,
		OpponentTeamID:     s.OpponentTeamID,
		PlayerDNF:          s.PlayerDNF,
		PlayerLevel:        s.PlayerLevel,
		PNhlOnlineGameType: s.PNhlOnlineGameType,
		Position:           s.Position,
		PosSorted:          s.PosSorted,
		RatingDefense:      s.RatingDefense,
		RatingOffense:      s.RatingOffense,
		RatingTeamplay:     s.RatingTeamplay,
		Score:              s.Score,

		SkAssists:        s.SkAssists,
		SkBS:             s.SkBS,
		SkDeflections:    s.SkDeflections,
		SkFOL:            s.SkFOL,
		SkFOPct:          s.SkFOPct,
		SkFOW:            s.SkFOW,
		SkGiveaways:      s.SkGiveaways,
		SkGoals:          s.SkGoals,
		SkGWG:            s.SkGWG,
		SkHits:           s.SkHits,
		SkInterceptions:  s.SkInterceptions,
		SkPassAttempts:   s.SkPassAttempts,
		SkPasses:         s.SkPasses,
		SkPassPct:        s.SkPassPct,
		SkPenaltiesDrawn: s.SkPenaltiesDrawn,
		SkPIM:            s.SkPIM,
		SkPkClearZone:    s.SkPkClearZone,
		SkPlusMin:        s.SkPlusMin,
		SkPossession:     s.SkPossession,
		SkPPG:            s.SkPPG,
		SkSaucerPasses:   s.SkSaucerPasses,
		SkSHG:            s.SkSHG,
		SkShotAttempts:   s.SkShotAttempts,
		SkShotOnNetPct:   s.SkShotOnNetPct,
		SkShotPct:        s.SkShotPct,
		SkShots:          s.SkShots,
		SkTakeaways:      s.SkTakeaways,

		TeamID:         s.TeamID,
		TeamSide:       s.TeamSide,
		TOI:            s.TOI,
		TOISeconds:     s.TOISeconds,
		ClientPlatform: s.ClientPlatform,

		CreatedAt: time.Now().UTC(),
	}
}
