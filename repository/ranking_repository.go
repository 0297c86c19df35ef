package repository

import (
	"context"
	"errors"
	"fmt"

	"arcade/database"
	"arcade/models"

	"github.com/jackc/pgx/v5"
)

// rankingQuery orders users for the leaderboard. Ties on every ranking key
// fall back to id, which follows creation order.
const rankingQuery = `
	WITH totals AS (
		SELECT user_id, SUM(score) AS total_score
		FROM score_events
		GROUP BY user_id
	), ranked AS (
		SELECT
			u.id,
			u.display_name,
			u.avatar_url,
			u.prestige,
			u.level,
			u.xp,
			u.total_games_played,
			COALESCE(t.total_score, 0)::BIGINT AS total_score,
			u.created_at
		FROM users u
		LEFT JOIN totals t ON t.user_id = u.id
	)
`

// RankingRepository reads leaderboard aggregates
type RankingRepository struct {
	db *database.DB
}

// NewRankingRepository creates a new ranking repository
func NewRankingRepository(db *database.DB) *RankingRepository {
	return &RankingRepository{db: db}
}

// ListForRanking returns up to limit rows in leaderboard order from one
// read-only snapshot. A non-positive limit returns every user.
func (r *RankingRepository) ListForRanking(ctx context.Context, limit int) ([]*models.RankingRow, error) {
	query := rankingQuery + `
		SELECT id, display_name, avatar_url, prestige, level, xp, total_games_played, total_score, created_at
		FROM ranked
		ORDER BY prestige DESC, level DESC, total_score DESC, id ASC
		LIMIT $1
	`

	// LIMIT NULL is LIMIT ALL
	var limitArg *int
	if limit > 0 {
		limitArg = &limit
	}

	var result []*models.RankingRow
	err := r.db.WithSnapshot(ctx, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, query, limitArg)
		if err != nil {
			return err
		}
		result, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (*models.RankingRow, error) {
			var rr models.RankingRow
			err := row.Scan(
				&rr.UserID,
				&rr.DisplayName,
				&rr.AvatarURL,
				&rr.Prestige,
				&rr.Level,
				&rr.XP,
				&rr.GamesPlayed,
				&rr.TotalScore,
				&rr.CreatedAt,
			)
			return &rr, err
		})
		return err
	})
	if err != nil {
		return nil, classify("list ranking rows", err)
	}
	return result, nil
}

// RankOf returns a user's leaderboard position, nil if the user is unknown
func (r *RankingRepository) RankOf(ctx context.Context, userID int64) (*models.LeaderboardEntry, error) {
	query := rankingQuery + `
		SELECT rank, id, display_name, avatar_url, prestige, level, xp, total_score, total_games_played
		FROM (
			SELECT ranked.*,
				ROW_NUMBER() OVER (ORDER BY prestige DESC, level DESC, total_score DESC, id ASC) AS rank
			FROM ranked
		) positioned
		WHERE id = $1
	`

	var e models.LeaderboardEntry
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&e.Rank,
		&e.UserID,
		&e.DisplayName,
		&e.AvatarURL,
		&e.Prestige,
		&e.Level,
		&e.XP,
		&e.TotalScore,
		&e.GamesPlayed,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, classify(fmt.Sprintf("get rank of user %d", userID), err)
	}
	return &e, nil
}
