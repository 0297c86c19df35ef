package repository

import (
	"context"
	"errors"
	"fmt"

	"arcade/database"
	"arcade/models"
	"arcade/service"

	"github.com/jackc/pgx/v5"
)

const userColumns = `id, display_name, avatar_url, level, xp, prestige, total_games_played, created_at, updated_at`

// UserRepository implements the UserRepository interface
type UserRepository struct {
	q queryable
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{q: db.Pool}
}

// newUserRepositoryWithTx creates a new user repository with a transaction
func newUserRepositoryWithTx(tx queryable) *UserRepository {
	return &UserRepository{q: tx}
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.getOne(ctx, "get user", query, id)
}

// GetByIDForUpdate retrieves a user and takes a row lock for the rest of the transaction
func (r *UserRepository) GetByIDForUpdate(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 FOR UPDATE`
	return r.getOne(ctx, "lock user", query, id)
}

// Create inserts a new user at level 1
func (r *UserRepository) Create(ctx context.Context, displayName, avatarURL string) (*models.User, error) {
	query := `
		INSERT INTO users (display_name, avatar_url)
		VALUES ($1, $2)
		RETURNING ` + userColumns

	user, err := scanUser(r.q.QueryRow(ctx, query, displayName, avatarURL))
	if err != nil {
		return nil, classify("create user", err)
	}
	return user, nil
}

// UpdateStats applies XP and games-played deltas and raises the level if
// LevelSet is higher than the stored level
func (r *UserRepository) UpdateStats(ctx context.Context, id int64, update models.StatsUpdate) (*models.User, error) {
	query := `
		UPDATE users
		SET xp = xp + $2,
			level = GREATEST(level, COALESCE($3::INTEGER, level)),
			total_games_played = total_games_played + $4
		WHERE id = $1
		RETURNING ` + userColumns

	user, err := scanUser(r.q.QueryRow(ctx, query, id, update.XPDelta, update.LevelSet, update.GamesPlayedIncrement))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to update stats for user %d: %w", id, service.ErrPersistenceConflict)
	}
	if err != nil {
		return nil, classify(fmt.Sprintf("update stats for user %d", id), err)
	}
	return user, nil
}

func (r *UserRepository) getOne(ctx context.Context, op, query string, id int64) (*models.User, error) {
	user, err := scanUser(r.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, classify(fmt.Sprintf("%s %d", op, id), err)
	}
	return user, nil
}

func scanUser(row pgx.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID,
		&user.DisplayName,
		&user.AvatarURL,
		&user.Level,
		&user.XP,
		&user.Prestige,
		&user.TotalGamesPlayed,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}
