package models

import (
	"time"
)

// User represents a player and their cumulative progression
type User struct {
	ID               int64     `db:"id" json:"id"`
	DisplayName      string    `db:"display_name" json:"display_name"`
	AvatarURL        string    `db:"avatar_url" json:"avatar_url"`
	Level            int       `db:"level" json:"level"`
	XP               int64     `db:"xp" json:"xp"`
	Prestige         int       `db:"prestige" json:"prestige"`
	TotalGamesPlayed int64     `db:"total_games_played" json:"total_games_played"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// StatsUpdate describes a partial update of a user's progression counters.
// Nil LevelSet leaves the level untouched.
type StatsUpdate struct {
	XPDelta              int64
	LevelSet             *int
	GamesPlayedIncrement int64
}

// UpdatedStats is the user's progression after a recorded score
type UpdatedStats struct {
	UserID           int64 `json:"user_id"`
	ScoreEventID     int64 `json:"score_event_id"`
	Level            int   `json:"level"`
	XP               int64 `json:"xp"`
	Prestige         int   `json:"prestige"`
	TotalGamesPlayed int64 `json:"total_games_played"`
}

// StatsFromUser builds UpdatedStats from the current user row
func StatsFromUser(user *User, scoreEventID int64) *UpdatedStats {
	return &UpdatedStats{
		UserID:           user.ID,
		ScoreEventID:     scoreEventID,
		Level:            user.Level,
		XP:               user.XP,
		Prestige:         user.Prestige,
		TotalGamesPlayed: user.TotalGamesPlayed,
	}
}

// UserProfile is a user together with derived progression information
type UserProfile struct {
	User        *User `json:"user"`
	NextLevelXP int64 `json:"next_level_xp"` // 0 when the user is at the top level
	Unlocked    int   `json:"achievements_unlocked"`
	TotalScore  int64 `json:"total_score"`
	Wins        int64 `json:"wins"`
}
