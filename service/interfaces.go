package service

import (
	"context"

	"arcade/events"
	"arcade/models"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// GetByID retrieves a user by ID, returning nil if not found
	GetByID(ctx context.Context, id int64) (*models.User, error)

	// GetByIDForUpdate retrieves a user and locks the row until the
	// surrounding transaction ends. Returns nil if not found.
	GetByIDForUpdate(ctx context.Context, id int64) (*models.User, error)

	// Create registers a new user at level 1 with no XP
	Create(ctx context.Context, displayName, avatarURL string) (*models.User, error)

	// UpdateStats applies a partial stats update and returns the resulting row.
	// The level never decreases. Returns ErrPersistenceConflict if the row is gone.
	UpdateStats(ctx context.Context, id int64, update models.StatsUpdate) (*models.User, error)
}

// ScoreEventRepository defines the interface for the append-only score log
type ScoreEventRepository interface {
	// Append records a score event and returns it with its ID
	Append(ctx context.Context, userID int64, gameName string, score int64) (*models.ScoreEvent, error)

	// Count returns the number of the user's score events matching predicate
	Count(ctx context.Context, userID int64, predicate models.ScorePredicate) (int64, error)

	// Sum returns the sum of all the user's scores
	Sum(ctx context.Context, userID int64) (int64, error)

	// Max returns the user's best single score, or nil if none recorded
	Max(ctx context.Context, userID int64) (*int64, error)

	// ListByUser returns the user's most recent score events, newest first
	ListByUser(ctx context.Context, userID int64, limit int) ([]*models.ScoreEvent, error)
}

// UnlockRepository defines the interface for achievement unlock records
type UnlockRepository interface {
	// TryInsert creates the unlock record unless one already exists
	TryInsert(ctx context.Context, userID int64, achievementID string) (models.InsertResult, error)

	// ListByUser returns all unlock records for a user, oldest first
	ListByUser(ctx context.Context, userID int64) ([]*models.UnlockRecord, error)
}

// RankingRepository provides point-in-time leaderboard reads
type RankingRepository interface {
	// ListForRanking returns up to limit users in leaderboard order from a
	// single snapshot; limit <= 0 returns every user
	ListForRanking(ctx context.Context, limit int) ([]*models.RankingRow, error)

	// RankOf returns the 1-based leaderboard position and row for a user,
	// or nil if the user does not exist
	RankOf(ctx context.Context, userID int64) (*models.LeaderboardEntry, error)
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event)
}

// UnitOfWork defines the interface for transactional repository operations
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction and releases pending events
	Commit() error

	// Rollback rolls back the transaction; a no-op after Commit
	Rollback() error

	// Repository getters
	UserRepository() UserRepository
	ScoreEventRepository() ScoreEventRepository
	UnlockRepository() UnlockRepository

	// EventBus returns the transactional event bus for this unit of work
	EventBus() EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}

// ScoreService defines the score submission entry point
type ScoreService interface {
	// SubmitScore records a play and runs the full unlock cascade atomically
	SubmitScore(ctx context.Context, userID int64, gameName string, score int64) (*models.SubmitResult, error)
}

// AchievementService defines achievement operations
type AchievementService interface {
	// Evaluate runs the unlock cascade for a single trigger
	Evaluate(ctx context.Context, userID int64, trigger models.Trigger) (*models.EvaluationResult, error)

	// Reevaluate replays every trigger kind from the user's current stats
	Reevaluate(ctx context.Context, userID int64) (*models.EvaluationResult, error)

	// Catalog returns all achievement definitions in catalog order
	Catalog() []*models.AchievementDefinition
}

// LeaderboardService defines leaderboard queries
type LeaderboardService interface {
	// GetLeaderboard returns the top N users in rank order
	GetLeaderboard(ctx context.Context, topN int) ([]*models.LeaderboardEntry, error)

	// GetUserRank returns a single user's leaderboard position
	GetUserRank(ctx context.Context, userID int64) (*models.LeaderboardEntry, error)
}

// UserService defines user registration and profile reads
type UserService interface {
	// Register creates a new user
	Register(ctx context.Context, displayName, avatarURL string) (*models.User, error)

	// GetProfile returns a user with derived progression information
	GetProfile(ctx context.Context, userID int64) (*models.UserProfile, error)

	// GetAchievements returns the catalog annotated with the user's unlocks
	GetAchievements(ctx context.Context, userID int64) ([]*models.UserAchievement, error)

	// GetScoreHistory returns the user's most recent score events
	GetScoreHistory(ctx context.Context, userID int64, limit int) ([]*models.ScoreEvent, error)
}
