package usecase

import (
	"testing"

	"github.com/bluelinehq/chel-archive/external/eaclient"
)

func upstreamFixture() eaclient.Match {
	return eaclient.Match{
		MatchID:   "90001",
		Timestamp: 1767654000,
		Clubs: map[string]map[string]any{
			"111": {"goals": "4", "teamSide": "0", "opponentScore": "2"},
			"222": {"goals": "2", "teamSide": "1"},
		},
		Players: map[string]map[string]map[string]any{
			"111": {
				"555": {
					"playername": "snipes",
					"class":      "1",
					"position":   "center",
					"skgoals":    "2",
					"skassists":  "1",
					"skshots":    "7",
					"skfopct":    "55.5",
					"toi":        "60",
				},
			},
			"222": {
				"777": {
					"playername": "brickwall",
					"position":   "goalie",
					"glsaves":    "31",
					"glsavepct":  "0.939",
					"glga":       "2",
				},
			},
		},
		Raw: map[string]any{"matchId": "90001"},
	}
}

func TestMapUpstreamMatch_HomePerspective(t *testing.T) {
	row, stats := mapUpstreamMatch("season-1", "club-1", "111", upstreamFixture())

	if row.EAMatchID != "90001" || row.EATimestamp != 1767654000 {
		t.Fatalf("identity = %s/%d", row.EAMatchID, row.EATimestamp)
	}
	if row.SeasonID == nil || *row.SeasonID != "season-1" {
		t.Fatalf("season id = %v", row.SeasonID)
	}
	if row.ClubID == nil || *row.ClubID != "club-1" {
		t.Fatalf("club id = %v", row.ClubID)
	}
	if row.IsHome == nil || !*row.IsHome {
		t.Fatalf("is home = %v", row.IsHome)
	}
	if row.HomeClubEAID != "111" || row.AwayClubEAID != "222" {
		t.Fatalf("club sides = %s vs %s", row.HomeClubEAID, row.AwayClubEAID)
	}
	if row.HomeScore == nil || *row.HomeScore != 4 {
		t.Fatalf("home score = %v", row.HomeScore)
	}
	if row.AwayScore == nil || *row.AwayScore != 2 {
		t.Fatalf("away score = %v", row.AwayScore)
	}
	if row.WinnerClubID == nil || *row.WinnerClubID != "club-1" {
		t.Fatalf("winner = %v", row.WinnerClubID)
	}
	if len(row.RawPayload) == 0 {
		t.Fatal("expected raw payload to be preserved")
	}
	if len(stats) != 2 {
		t.Fatalf("expected 2 stat lines, got %d", len(stats))
	}
}

func TestMapUpstreamMatch_AwayPerspective(t *testing.T) {
	upstream := upstreamFixture()
	row, _ := mapUpstreamMatch("season-1", "club-2", "222", upstream)

	if row.IsHome == nil || *row.IsHome {
		t.Fatalf("is home = %v", row.IsHome)
	}
	if row.HomeClubEAID != "111" || row.AwayClubEAID != "222" {
		t.Fatalf("club sides = %s vs %s", row.HomeClubEAID, row.AwayClubEAID)
	}
	if row.HomeScore == nil || *row.HomeScore != 4 {
		t.Fatalf("home score = %v", row.HomeScore)
	}
	if row.AwayScore == nil || *row.AwayScore != 2 {
		t.Fatalf("away score = %v", row.AwayScore)
	}
	// The fetching club lost 2-4, so no winner is attributed.
	if row.WinnerClubID != nil {
		t.Fatalf("winner = %v", row.WinnerClubID)
	}
}

func TestMapUpstreamMatch_UnparsableScoresStayNull(t *testing.T) {
	upstream := eaclient.Match{
		MatchID:   "90002",
		Timestamp: 1767654000,
		Clubs: map[string]map[string]any{
			"111": {"goals": "not-a-number", "teamSide": "0"},
			"222": {},
		},
	}
	row, _ := mapUpstreamMatch("", "", "111", upstream)

	if row.HomeScore != nil {
		t.Fatalf("home score = %v, want null", row.HomeScore)
	}
	if row.AwayScore != nil {
		t.Fatalf("away score = %v, want null", row.AwayScore)
	}
	if row.WinnerClubID != nil {
		t.Fatalf("winner = %v, want null", row.WinnerClubID)
	}
	if row.SeasonID != nil || row.ClubID != nil {
		t.Fatal("expected unknown season and club to stay null")
	}
}

func TestMapUpstreamMatch_UnknownSideDefaultsToHome(t *testing.T) {
	upstream := eaclient.Match{
		MatchID:   "90003",
		Timestamp: 1767654000,
		Clubs: map[string]map[string]any{
			"111": {"goals": "1"},
			"222": {"goals": "3"},
		},
	}
	row, _ := mapUpstreamMatch("", "", "111", upstream)

	if row.IsHome != nil {
		t.Fatalf("is home = %v, want null", row.IsHome)
	}
	if row.HomeClubEAID != "111" || row.AwayClubEAID != "222" {
		t.Fatalf("club sides = %s vs %s", row.HomeClubEAID, row.AwayClubEAID)
	}
}

func TestMapUpstreamMatch_PlayerStatLines(t *testing.T) {
	_, stats := mapUpstreamMatch("season-1", "club-1", "111", upstreamFixture())

	skater, goalie := -1, -1
	for i := range stats {
		switch stats[i].EAPlayerID {
		case "555":
			skater = i
		case "777":
			goalie = i
		}
	}
	if skater < 0 || goalie < 0 {
		t.Fatalf("expected both rosters mapped, got %d lines", len(stats))
	}

	line := stats[skater]
	if line.Gamertag != "snipes" {
		t.Fatalf("gamertag = %q", line.Gamertag)
	}
	if line.EAMatchID != "90001" {
		t.Fatalf("ea match id = %q", line.EAMatchID)
	}
	if line.EATimestamp == nil || *line.EATimestamp != 1767654000 {
		t.Fatalf("timestamp = %v", line.EATimestamp)
	}
	if line.StatClass == nil || *line.StatClass != 1 {
		t.Fatalf("class = %v", line.StatClass)
	}
	if line.SkGoals == nil || *line.SkGoals != 2 {
		t.Fatalf("goals = %v", line.SkGoals)
	}
	if line.SkFOPct == nil || *line.SkFOPct != 55.5 {
		t.Fatalf("faceoff pct = %v", line.SkFOPct)
	}
	if line.TeamID == nil || *line.TeamID != "111" {
		t.Fatalf("team id fallback = %v", line.TeamID)
	}

	keeper := stats[goalie]
	if keeper.GlSaves == nil || *keeper.GlSaves != 31 {
		t.Fatalf("saves = %v", keeper.GlSaves)
	}
	if keeper.GlSavePct == nil || *keeper.GlSavePct != 0.939 {
		t.Fatalf("save pct = %v", keeper.GlSavePct)
	}
	if keeper.TeamID == nil || *keeper.TeamID != "222" {
		t.Fatalf("team id fallback = %v", keeper.TeamID)
	}
}

func TestMapUpstreamMatch_SkipsBlankPlayerIDs(t *testing.T) {
	upstream := eaclient.Match{
		MatchID:   "90004",
		Timestamp: 1767654000,
		Players: map[string]map[string]map[string]any{
			"111": {
				"":    {"playername": "ghost"},
				"555": {"playername": "snipes"},
			},
		},
	}
	_, stats := mapUpstreamMatch("", "", "111", upstream)
	if len(stats) != 1 || stats[0].EAPlayerID != "555" {
		t.Fatalf("stats = %+v", stats)
	}
}

func TestStatCoercion(t *testing.T) {
	src := map[string]any{
		"text":    "  center  ",
		"empty":   "   ",
		"numeric": float64(42),
		"intstr":  "17",
		"decimal": "3.75",
		"garbage": "n/a",
		"null":    nil,
	}

	t.Run("statStr", func(t *testing.T) {
		if got := statStr(src, "text"); got == nil || *got != "center" {
			t.Fatalf("text = %v", got)
		}
		if got := statStr(src, "numeric"); got == nil || *got != "42" {
			t.Fatalf("numeric = %v", got)
		}
		if got := statStr(src, "empty", "text"); got == nil || *got != "center" {
			t.Fatalf("empty fallthrough = %v", got)
		}
		if got := statStr(src, "missing", "null"); got != nil {
			t.Fatalf("missing = %v", got)
		}
	})

	t.Run("statInt", func(t *testing.T) {
		if got := statInt(src, "numeric"); got == nil || *got != 42 {
			t.Fatalf("numeric = %v", got)
		}
		if got := statInt(src, "intstr"); got == nil || *got != 17 {
			t.Fatalf("intstr = %v", got)
		}
		if got := statInt(src, "decimal"); got == nil || *got != 3 {
			t.Fatalf("decimal = %v", got)
		}
		if got := statInt(src, "garbage"); got != nil {
			t.Fatalf("garbage = %v", got)
		}
		if got := statInt(src, "garbage", "intstr"); got == nil || *got != 17 {
			t.Fatalf("garbage fallthrough = %v", got)
		}
	})

	t.Run("statFloat", func(t *testing.T) {
		if got := statFloat(src, "decimal"); got == nil || *got != 3.75 {
			t.Fatalf("decimal = %v", got)
		}
		if got := statFloat(src, "numeric"); got == nil || *got != 42 {
			t.Fatalf("numeric = %v", got)
		}
		if got := statFloat(src, "garbage"); got != nil {
			t.Fatalf("garbage = %v", got)
		}
	})
}
