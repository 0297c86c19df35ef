package models

import (
	"time"
)

// ScoreEvent is an immutable record of one submitted game result
type ScoreEvent struct {
	ID        int64     `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	GameName  string    `db:"game_name" json:"game_name"`
	Score     int64     `db:"score" json:"score"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ScorePredicate selects a subset of a user's score events
type ScorePredicate struct {
	MinScore *int64 // inclusive lower bound, nil for no bound
}

// ScoreAny matches every score event
func ScoreAny() ScorePredicate {
	return ScorePredicate{}
}

// ScoreWin matches score events that count as a win (score > 0)
func ScoreWin() ScorePredicate {
	return ScoreAtLeast(1)
}

// ScoreAtLeast matches score events with score >= min
func ScoreAtLeast(min int64) ScorePredicate {
	return ScorePredicate{MinScore: &min}
}
