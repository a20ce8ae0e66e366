package eaclient

import (
	"sort"
	"strconv"
	"strings"
)

// Match is one upstream match object. Clubs and Players keep the upstream
// map shape (club id and player id keys are strings); Raw holds the full
// decoded payload for archival.
type Match struct {
	MatchID   string
	Timestamp int64
	Clubs     map[string]map[string]any
	Players   map[string]map[string]map[string]any
	Aggregate map[string]any
	Raw       map[string]any
}

func matchFromRaw(raw map[string]any) (Match, bool) {
	out := Match{
		MatchID:   getString(raw, "matchId"),
		Timestamp: getInt64(raw, "timestamp"),
		Clubs:     map[string]map[string]any{},
		Players:   map[string]map[string]map[string]any{},
		Aggregate: asMap(raw["aggregate"]),
		Raw:       raw,
	}
	if out.MatchID == "" || out.Timestamp <= 0 {
		return Match{}, false
	}

	for clubID, value := range asMap(raw["clubs"]) {
		if entry := asMap(value); entry != nil {
			out.Clubs[clubID] = entry
		}
	}
	for clubID, value := range asMap(raw["players"]) {
		roster := asMap(value)
		if roster == nil {
			continue
		}
		players := make(map[string]map[string]any, len(roster))
		for playerID, stats := range roster {
			if entry := asMap(stats); entry != nil {
				players[playerID] = entry
			}
		}
		out.Players[clubID] = players
	}

	return out, true
}

func firstClubID(entries map[string]any) string {
	keys := make([]string, 0, len(entries))
	for key := range entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		entry := asMap(entries[key])
		if entry == nil {
			continue
		}
		if id := getString(entry, "clubId"); id != "" {
			return id
		}
		return key
	}
	return ""
}

func asMap(value any) map[string]any {
	out, _ := value.(map[string]any)
	return out
}

func getString(src map[string]any, key string) string {
	if src == nil {
		return ""
	}
	switch typed := src[key].(type) {
	case string:
		return strings.TrimSpace(typed)
	case float64:
		return strconv.FormatInt(int64(typed), 10)
	default:
		return ""
	}
}

func getInt64(src map[string]any, key string) int64 {
	if src == nil {
		return 0
	}
	switch typed := src[key].(type) {
	case float64:
		return int64(typed)
	case int64:
		return typed
	case string:
		value, err := strconv.ParseInt(strings.TrimSpace(typed), 10, 64)
		if err != nil {
			return 0
		}
		return value
	default:
		return 0
	}
}
