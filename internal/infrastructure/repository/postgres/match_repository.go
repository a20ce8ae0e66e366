package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/bluelinehq/chel-archive/internal/domain/match"
	"github.com/bluelinehq/chel-archive/internal/domain/player"
	"github.com/bluelinehq/chel-archive/internal/platform/id"
	qb "github.com/bluelinehq/chel-archive/internal/platform/querybuilder"
)

type MatchRepository struct {
	db    *sqlx.DB
	idGen id.Generator
}

func NewMatchRepository(db *sqlx.DB, idGen id.Generator) *MatchRepository {
	if idGen == nil {
		idGen = id.NewRandomGenerator()
	}
	return &MatchRepository{db: db, idGen: idGen}
}

// StoreMatch writes one match and its player stat lines in a single
// transaction. The unique index on (ea_match_id, ea_timestamp) makes the
// write idempotent: a duplicate match commits as a no-op and returns
// stored=false, so a crash between fetch and commit can never double-ingest.
func (r *MatchRepository) StoreMatch(ctx context.Context, m match.Match, stats []player.MatchStats) (stored bool, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin store match tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stored, err = r.insertMatch(ctx, tx, &m)
	if err != nil {
		return false, err
	}
	if !stored {
		if err = tx.Commit(); err != nil {
			return false, fmt.Errorf("commit duplicate match tx: %w", err)
		}
		return false, nil
	}

	for i := range stats {
		if err = r.insertPlayerStats(ctx, tx, m.ID, &stats[i]); err != nil {
			return false, err
		}
	}

	if err = tx.Commit(); err != nil {
		return false, fmt.Errorf("commit store match tx: %w", err)
	}
	return true, nil
}

func (r *MatchRepository) insertMatch(ctx context.Context, tx *sqlx.Tx, m *match.Match) (bool, error) {
	if m.ID == "" {
		generated, err := r.idGen.NewID()
		if err != nil {
			return false, fmt.Errorf("generate match id: %w", err)
		}
		m.ID = generated
	}
	raw, err := encodeRawPayload(m.RawPayload)
	if err != nil {
		return false, fmt.Errorf("encode match raw payload ea_match_id=%s: %w", m.EAMatchID, err)
	}

	model := matchInsertModel{
		ID:           m.ID,
		EAMatchID:    m.EAMatchID,
		EATimestamp:  m.EATimestamp,
		SeasonID:     m.SeasonID,
		ClubID:       m.ClubID,
		HomeClubEAID: optionalString(m.HomeClubEAID),
		AwayClubEAID: optionalString(m.AwayClubEAID),
		HomeScore:    m.HomeScore,
		AwayScore:    m.AwayScore,
		IsHome:       m.IsHome,
		WinnerClubID: m.WinnerClubID,
		RawPayload:   raw,
		CreatedAt:    time.Now().UTC(),
	}

	query, args, err := qb.InsertModel("matches", model, "ON CONFLICT (ea_match_id, ea_timestamp) DO NOTHING")
	if err != nil {
		return false, fmt.Errorf("build insert match query: %w", err)
	}
	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("insert match ea_match_id=%s: %w", m.EAMatchID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert match rows affected: %w", err)
	}
	return affected > 0, nil
}

func (r *MatchRepository) insertPlayerStats(ctx context.Context, tx *sqlx.Tx, matchRowID string, stats *player.MatchStats) error {
	playerID, err := r.upsertPlayer(ctx, tx, stats.EAPlayerID, stats.Gamertag)
	if err != nil {
		return err
	}

	statsID, err := r.idGen.NewID()
	if err != nil {
		return fmt.Errorf("generate player stats id: %w", err)
	}
	stats.ID = statsID
	stats.PlayerID = playerID
	if stats.MatchID == nil {
		stats.MatchID = &matchRowID
	}

	model := playerMatchStatsInsertModel(stats)
	query, args, err := qb.InsertModel("player_match_stats", model, "ON CONFLICT (ea_player_id, ea_match_id) DO NOTHING")
	if err != nil {
		return fmt.Errorf("build insert player stats query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert player stats ea_player_id=%s ea_match_id=%s: %w", stats.EAPlayerID, stats.EAMatchID, err)
	}
	return nil
}

func (r *MatchRepository) upsertPlayer(ctx context.Context, tx *sqlx.Tx, eaPlayerID, gamertag string) (string, error) {
	generated, err := r.idGen.NewID()
	if err != nil {
		return "", fmt.Errorf("generate player id: %w", err)
	}

	const query = `
		INSERT INTO players (id, ea_player_id, gamertag, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
		ON CONFLICT (ea_player_id)
		DO UPDATE SET gamertag = EXCLUDED.gamertag, updated_at = EXCLUDED.updated_at
		RETURNING id`

	var playerID string
	if err := tx.GetContext(ctx, &playerID, query, generated, eaPlayerID, gamertag, time.Now().UTC()); err != nil {
		return "", fmt.Errorf("upsert player ea_player_id=%s: %w", eaPlayerID, err)
	}
	return playerID, nil
}

func (r *MatchRepository) ListBySeason(ctx context.Context, seasonID string, limit, offset int) ([]match.Match, error) {
	if limit <= 0 {
		limit = 20
	}

	query, args, err := qb.Select(matchColumns...).
		From("matches").
		Where(qb.Eq("season_id", seasonID)).
		OrderBy("ea_timestamp DESC").
		Limit(limit).
		Offset(offset).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list matches query: %w", err)
	}

	var rows []matchRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list matches season_id=%s: %w", seasonID, err)
	}

	out := make([]match.Match, 0, len(rows))
	for _, row := range rows {
		decoded, err := row.toDomain()
		if err != nil {
			return nil, fmt.Errorf("decode match id=%s: %w", row.ID, err)
		}
		out = append(out, decoded)
	}
	return out, nil
}

func (r *MatchRepository) CountBySeason(ctx context.Context, seasonID string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM matches WHERE season_id = $1", seasonID); err != nil {
		return 0, fmt.Errorf("count matches season_id=%s: %w", seasonID, err)
	}
	return count, nil
}
