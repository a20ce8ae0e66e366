package postgres

import (
	"time"

	sonic "github.com/bytedance/sonic"

	"github.com/bluelinehq/chel-archive/internal/domain/match"
)

type matchRow struct {
	ID           string    `db:"id"`
	EAMatchID    string    `db:"ea_match_id"`
	EATimestamp  int64     `db:"ea_timestamp"`
	SeasonID     *string   `db:"season_id"`
	ClubID       *string   `db:"club_id"`
	HomeClubEAID *string   `db:"home_club_ea_id"`
	AwayClubEAID *string   `db:"away_club_ea_id"`
	HomeScore    *int      `db:"home_score"`
	AwayScore    *int      `db:"away_score"`
	IsHome       *bool     `db:"is_home"`
	WinnerClubID *string   `db:"winner_club_id"`
	RawPayload   []byte    `db:"raw_json"`
	CreatedAt    time.Time `db:"created_at"`
}

var matchColumns = []string{
	"id", "ea_match_id", "ea_timestamp", "season_id", "club_id",
	"home_club_ea_id", "away_club_ea_id", "home_score", "away_score",
	"is_home", "winner_club_id", "raw_json", "created_at",
}

func (r matchRow) toDomain() (match.Match, error) {
	out := match.Match{
		ID:           r.ID,
		EAMatchID:    r.EAMatchID,
		EATimestamp:  r.EATimestamp,
		SeasonID:     r.SeasonID,
		ClubID:       r.ClubID,
		HomeScore:    r.HomeScore,
		AwayScore:    r.AwayScore,
		IsHome:       r.IsHome,
		WinnerClubID: r.WinnerClubID,
		CreatedAt:    r.CreatedAt,
	}
	if r.HomeClubEAID != nil {
		out.HomeClubEAID = *r.HomeClubEAID
	}
	if r.AwayClubEAID != nil {
		out.AwayClubEAID = *r.AwayClubEAID
	}
	if len(r.RawPayload) > 0 {
		raw := map[string]any{}
		if err := sonic.Unmarshal(r.RawPayload, &raw); err != nil {
			return match.Match{}, err
		}
		out.RawPayload = raw
	}
	return out, nil
}

type matchInsertModel struct {
	ID           string    `db:"id"`
	EAMatchID    string    `db:"ea_match_id"`
	EATimestamp  int64     `db:"ea_timestamp"`
	SeasonID     *string   `db:"season_id"`
	ClubID       *string   `db:"club_id"`
	HomeClubEAID *string   `db:"home_club_ea_id"`
	AwayClubEAID *string   `db:"away_club_ea_id"`
	HomeScore    *int      `db:"home_score"`
	AwayScore    *int      `db:"away_score"`
	IsHome       *bool     `db:"is_home"`
	WinnerClubID *string   `db:"winner_club_id"`
	RawPayload   string    `db:"raw_json"`
	CreatedAt    time.Time `db:"created_at"`
}

func encodeRawPayload(raw map[string]any) (string, error) {
	if len(raw) == 0 {
		return "{}", nil
	}
	encoded, err := sonic.Marshal(raw)
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}
