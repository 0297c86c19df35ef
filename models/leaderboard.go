package models

import (
	"time"
)

// RankingRow is the per-user aggregate the leaderboard is ordered from
type RankingRow struct {
	UserID      int64
	DisplayName string
	AvatarURL   string
	Prestige    int
	Level       int
	XP          int64
	GamesPlayed int64
	TotalScore  int64
	CreatedAt   time.Time
}

// LeaderboardEntry is one ranked position on the leaderboard
type LeaderboardEntry struct {
	Rank        int    `json:"rank"`
	UserID      int64  `json:"user_id"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url"`
	Prestige    int    `json:"prestige"`
	Level       int    `json:"level"`
	XP          int64  `json:"xp"`
	TotalScore  int64  `json:"total_score"`
	GamesPlayed int64  `json:"games_played"`
}
