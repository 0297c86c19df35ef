package repository

import (
	"context"
	"fmt"

	"arcade/database"
	"arcade/models"

	"github.com/jackc/pgx/v5"
)

// UnlockRepository stores one record per (user, achievement) pair
type UnlockRepository struct {
	q queryable
}

// NewUnlockRepository creates a new unlock repository
func NewUnlockRepository(db *database.DB) *UnlockRepository {
	return &UnlockRepository{q: db.Pool}
}

func newUnlockRepositoryWithTx(tx queryable) *UnlockRepository {
	return &UnlockRepository{q: tx}
}

// TryInsert inserts the unlock record. An existing record is reported as
// AlreadyExists instead of an error.
func (r *UnlockRepository) TryInsert(ctx context.Context, userID int64, achievementID string) (models.InsertResult, error) {
	query := `
		INSERT INTO unlock_records (user_id, achievement_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, achievement_id) DO NOTHING
	`

	tag, err := r.q.Exec(ctx, query, userID, achievementID)
	if err != nil {
		return 0, classify(fmt.Sprintf("insert unlock %s for user %d", achievementID, userID), err)
	}
	if tag.RowsAffected() == 0 {
		return models.AlreadyExists, nil
	}
	return models.Inserted, nil
}

// ListByUser returns the user's unlock records, oldest first
func (r *UnlockRepository) ListByUser(ctx context.Context, userID int64) ([]*models.UnlockRecord, error) {
	query := `
		SELECT user_id, achievement_id, unlocked_at
		FROM unlock_records
		WHERE user_id = $1
		ORDER BY unlocked_at, achievement_id
	`

	rows, err := r.q.Query(ctx, query, userID)
	if err != nil {
		return nil, classify(fmt.Sprintf("list unlocks for user %d", userID), err)
	}

	records, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[models.UnlockRecord])
	if err != nil {
		return nil, classify(fmt.Sprintf("scan unlocks for user %d", userID), err)
	}
	return records, nil
}
