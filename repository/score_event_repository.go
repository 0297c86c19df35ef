package repository

import (
	"context"
	"fmt"

	"arcade/database"
	"arcade/models"

	"github.com/jackc/pgx/v5"
)

// ScoreEventRepository implements the append-only score log
type ScoreEventRepository struct {
	q queryable
}

// NewScoreEventRepository creates a new score event repository
func NewScoreEventRepository(db *database.DB) *ScoreEventRepository {
	return &ScoreEventRepository{q: db.Pool}
}

func newScoreEventRepositoryWithTx(tx queryable) *ScoreEventRepository {
	return &ScoreEventRepository{q: tx}
}

// Append records a new score event
func (r *ScoreEventRepository) Append(ctx context.Context, userID int64, gameName string, score int64) (*models.ScoreEvent, error) {
	query := `
		INSERT INTO score_events (user_id, game_name, score)
		VALUES ($1, $2, $3)
		RETURNING id, user_id, game_name, score, created_at
	`

	var e models.ScoreEvent
	err := r.q.QueryRow(ctx, query, userID, gameName, score).Scan(
		&e.ID,
		&e.UserID,
		&e.GameName,
		&e.Score,
		&e.CreatedAt,
	)
	if err != nil {
		return nil, classify(fmt.Sprintf("append score event for user %d", userID), err)
	}
	return &e, nil
}

// Count returns how many of the user's score events match the predicate
func (r *ScoreEventRepository) Count(ctx context.Context, userID int64, predicate models.ScorePredicate) (int64, error) {
	query := `
		SELECT COUNT(*)
		FROM score_events
		WHERE user_id = $1
		  AND ($2::BIGINT IS NULL OR score >= $2)
	`

	var count int64
	if err := r.q.QueryRow(ctx, query, userID, predicate.MinScore).Scan(&count); err != nil {
		return 0, classify(fmt.Sprintf("count score events for user %d", userID), err)
	}
	return count, nil
}

// Sum returns the total of all the user's scores
func (r *ScoreEventRepository) Sum(ctx context.Context, userID int64) (int64, error) {
	query := `SELECT COALESCE(SUM(score), 0)::BIGINT FROM score_events WHERE user_id = $1`

	var total int64
	if err := r.q.QueryRow(ctx, query, userID).Scan(&total); err != nil {
		return 0, classify(fmt.Sprintf("sum scores for user %d", userID), err)
	}
	return total, nil
}

// Max returns the user's best score, nil when no score is recorded
func (r *ScoreEventRepository) Max(ctx context.Context, userID int64) (*int64, error) {
	query := `SELECT MAX(score) FROM score_events WHERE user_id = $1`

	var best *int64
	if err := r.q.QueryRow(ctx, query, userID).Scan(&best); err != nil {
		return nil, classify(fmt.Sprintf("get best score for user %d", userID), err)
	}
	return best, nil
}

// ListByUser returns the user's newest score events first
func (r *ScoreEventRepository) ListByUser(ctx context.Context, userID int64, limit int) ([]*models.ScoreEvent, error) {
	query := `
		SELECT id, user_id, game_name, score, created_at
		FROM score_events
		WHERE user_id = $1
		ORDER BY id DESC
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, classify(fmt.Sprintf("list score events for user %d", userID), err)
	}

	events, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[models.ScoreEvent])
	if err != nil {
		return nil, classify(fmt.Sprintf("scan score events for user %d", userID), err)
	}
	return events, nil
}
