package testutil

import (
	"context"
	"testing"

	"arcade/database"
	"arcade/models"

	"github.com/stretchr/testify/require"
)

// CreateUser inserts a user with the given progression state
func CreateUser(t *testing.T, db *database.DB, name string, prestige, level int, xp int64) *models.User {
	t.Helper()

	var user models.User
	err := db.QueryRow(context.Background(), `
		INSERT INTO users (display_name, prestige, level, xp)
		VALUES ($1, $2, $3, $4)
		RETURNING id, display_name, avatar_url, level, xp, prestige, total_games_played, created_at, updated_at
	`, name, prestige, level, xp).Scan(
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
	require.NoError(t, err)
	return &user
}

// CreateScores appends raw score events for a user without touching stats
func CreateScores(t *testing.T, db *database.DB, userID int64, game string, scores ...int64) {
	t.Helper()

	for _, s := range scores {
		_, err := db.Exec(context.Background(),
			`INSERT INTO score_events (user_id, game_name, score) VALUES ($1, $2, $3)`,
			userID, game, s)
		require.NoError(t, err)
	}
}

// TestBreakpoints is a short level curve for integration tests
func TestBreakpoints() []int64 {
	return []int64{100, 300, 600, 1000}
}

// TestDefinitions is a small catalog covering every trigger kind
func TestDefinitions() []*models.AchievementDefinition {
	return []*models.AchievementDefinition{
		{ID: "first_game", Name: "First Game", XPReward: 50, Rule: models.UnlockRule{Kind: models.TriggerFirstGame, Threshold: 1}},
		{ID: "games_3", Name: "Regular", XPReward: 60, Rule: models.UnlockRule{Kind: models.TriggerGamesPlayed, Threshold: 3}},
		{ID: "score_500", Name: "High Scorer", XPReward: 100, Rule: models.UnlockRule{Kind: models.TriggerScoreThreshold, Threshold: 500}},
		{ID: "wins_2", Name: "Winner", XPReward: 40, Rule: models.UnlockRule{Kind: models.TriggerWinCount, Threshold: 2}},
		{ID: "level_2", Name: "Rising", XPReward: 25, Rule: models.UnlockRule{Kind: models.TriggerLevelReached, Threshold: 2}},
	}
}
