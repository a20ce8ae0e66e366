package usecase

import (
	"strconv"
	"strings"

	"github.com/bluelinehq/chel-archive/external/eaclient"
	"github.com/bluelinehq/chel-archive/internal/domain/match"
	"github.com/bluelinehq/chel-archive/internal/domain/player"
)

// mapUpstreamMatch flattens one upstream match into the archive row and its
// per-player stat lines, seen from the perspective of the fetching club.
// Upstream stat values arrive as strings; anything that fails numeric parse
// is kept as null instead of zero.
func mapUpstreamMatch(seasonID, clubID, eaClubID string, upstream eaclient.Match) (match.Match, []player.MatchStats) {
	out := match.Match{
		EAMatchID:   upstream.MatchID,
		EATimestamp: upstream.Timestamp,
		RawPayload:  upstream.Raw,
	}
	if seasonID != "" {
		out.SeasonID = &seasonID
	}
	if clubID != "" {
		out.ClubID = &clubID
	}

	ours := upstream.Clubs[eaClubID]
	var opponentEAID string
	for candidate := range upstream.Clubs {
		if candidate != eaClubID {
			opponentEAID = candidate
			break
		}
	}

	ourScore := statInt(ours, "goals", "score")
	opponentScore := statInt(ours, "opponentScore")
	if opponentScore == nil {
		opponentScore = statInt(upstream.Clubs[opponentEAID], "goals", "score")
	}

	// teamSide 0 means home in the upstream payload.
	if side := statInt(ours, "teamSide"); side != nil {
		isHome := *side == 0
		out.IsHome = &isHome
	}
	switch {
	case out.IsHome == nil || *out.IsHome:
		out.HomeClubEAID = eaClubID
		out.AwayClubEAID = opponentEAID
		out.HomeScore = ourScore
		out.AwayScore = opponentScore
	default:
		out.HomeClubEAID = opponentEAID
		out.AwayClubEAID = eaClubID
		out.HomeScore = opponentScore
		out.AwayScore = ourScore
	}

	// Winner attribution is only possible for the club we know internally;
	// an opponent win leaves it null.
	if clubID != "" && ourScore != nil && opponentScore != nil && *ourScore > *opponentScore {
		out.WinnerClubID = &clubID
	}

	stats := make([]player.MatchStats, 0)
	for rosterClubID, roster := range upstream.Players {
		for eaPlayerID, line := range roster {
			if eaPlayerID == "" || line == nil {
				continue
			}
			stats = append(stats, mapPlayerStatLine(upstream, rosterClubID, eaPlayerID, line))
		}
	}
	return out, stats
}

func mapPlayerStatLine(upstream eaclient.Match, rosterClubID, eaPlayerID string, line map[string]any) player.MatchStats {
	timestamp := upstream.Timestamp
	out := player.MatchStats{
		EAPlayerID:  eaPlayerID,
		EAMatchID:   upstream.MatchID,
		Gamertag:    statText(line, "playername", "playerName"),
		EATimestamp: &timestamp,
		StatClass:   statInt(line, "class"),

		GlBrkSavePct:  statFloat(line, "glbrksavepct"),
		GlBrkSaves:    statInt(line, "glbrksaves"),
		GlBrkShots:    statInt(line, "glbrkshots"),
		GlDSaves:      statInt(line, "gldsaves"),
		GlGA:          statInt(line, "glga"),
		GlGAA:         statFloat(line, "glgaa"),
		GlPenSavePct:  statFloat(line, "glpensavepct"),
		GlPenSaves:    statInt(line, "glpensaves"),
		GlPenShots:    statInt(line, "glpenshots"),
		GlPkClearZone: statInt(line, "glpkclearzone"),
		GlPokeChecks:  statInt(line, "glpokechecks"),
		GlSavePct:     statFloat(line, "glsavepct"),
		GlSaves:       statInt(line, "glsaves"),
		GlShots:       statInt(line, "glshots"),
		GlSOPeriods:   statInt(line, "glsoperiods"),

		IsGuest:            statInt(line, "isGuest"),
		OpponentClubID:     statStr(line, "opponentClubId"),
		OpponentScore:      statInt(line, "opponentScore"),
		OpponentTeamID:     statStr(line, "opponentTeamId"),
		PlayerDNF:          statInt(line, "player_dnf", "playerDnf"),
		PlayerLevel:        statInt(line, "playerLevel"),
		PNhlOnlineGameType: statStr(line, "pNhlOnlineGameType"),
		Position:           statStr(line, "position"),
		PosSorted:          statInt(line, "posSorted"),
		RatingDefense:      statFloat(line, "ratingDefense"),
		RatingOffense:      statFloat(line, "ratingOffense"),
		RatingTeamplay:     statFloat(line, "ratingTeamplay"),
		Score:              statInt(line, "score"),

		SkAssists:        statInt(line, "skassists"),
		SkBS:             statInt(line, "skbs"),
		SkDeflections:    statInt(line, "skdeflections"),
		SkFOL:            statInt(line, "skfol"),
		SkFOPct:          statFloat(line, "skfopct"),
		SkFOW:            statInt(line, "skfow"),
		SkGiveaways:      statInt(line, "skgiveaways"),
		SkGoals:          statInt(line, "skgoals"),
		SkGWG:            statInt(line, "skgwg"),
		SkHits:           statInt(line, "skhits"),
		SkInterceptions:  statInt(line, "skinterceptions"),
		SkPassAttempts:   statInt(line, "skpassattempts"),
		SkPasses:         statInt(line, "skpasses"),
		SkPassPct:        statFloat(line, "skpasspct"),
		SkPenaltiesDrawn: statInt(line, "skpenaltiesdrawn"),
		SkPIM:            statInt(line, "skpim"),
		SkPkClearZone:    statInt(line, "skpkclearzone"),
		SkPlusMin:        statInt(line, "skplusmin"),
		SkPossession:     statInt(line, "skpossession"),
		SkPPG:            statInt(line, "skppg"),
		SkSaucerPasses:   statInt(line, "sksaucerpasses"),
		SkSHG:            statInt(line, "skshg"),
		SkShotAttempts:   statInt(line, "skshotattempts"),
		SkShotOnNetPct:   statFloat(line, "skshotonnetpct"),
		SkShotPct:        statFloat(line, "skshotpct"),
		SkShots:          statInt(line, "skshots"),
		SkTakeaways:      statInt(line, "sktakeaways"),

		TeamID:         statStr(line, "teamId"),
		TeamSide:       statInt(line, "teamSide"),
		TOI:            statInt(line, "toi"),
		TOISeconds:     statInt(line, "toiseconds"),
		ClientPlatform: statStr(line, "clientPlatform"),
	}
	if out.TeamID == nil && rosterClubID != "" {
		out.TeamID = &rosterClubID
	}
	return out
}

func statText(src map[string]any, keys ...string) string {
	if value := statStr(src, keys...); value != nil {
		return *value
	}
	return ""
}

func statStr(src map[string]any, keys ...string) *string {
	for _, key := range keys {
		raw, ok := src[key]
		if !ok || raw == nil {
			continue
		}
		switch typed := raw.(type) {
		case string:
			value := strings.TrimSpace(typed)
			if value == "" {
				continue
			}
			return &value
		case float64:
			value := strconv.FormatFloat(typed, 'f', -1, 64)
			return &value
		}
	}
	return nil
}

func statInt(src map[string]any, keys ...string) *int {
	for _, key := range keys {
		raw, ok := src[key]
		if !ok || raw == nil {
			continue
		}
		switch typed := raw.(type) {
		case float64:
			value := int(typed)
			return &value
		case string:
			parsed, err := strconv.ParseFloat(strings.TrimSpace(typed), 64)
			if err != nil {
				continue
			}
			value := int(parsed)
			return &value
		}
	}
	return nil
}

func statFloat(src map[string]any, keys ...string) *float64 {
	for _, key := range keys {
		raw, ok := src[key]
		if !ok || raw == nil {
			continue
		}
		switch typed := raw.(type) {
		case float64:
			value := typed
			return &value
		case string:
			parsed, err := strconv.ParseFloat(strings.TrimSpace(typed), 64)
			if err != nil {
				continue
			}
			return &parsed
		}
	}
	return nil
}
