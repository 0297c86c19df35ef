package models

import (
	"fmt"
	"time"
)

// TriggerKind identifies the condition that caused an achievement evaluation
type TriggerKind string

const (
	TriggerFirstGame      TriggerKind = "first_game"
	TriggerGamesPlayed    TriggerKind = "games_played"
	TriggerLevelReached   TriggerKind = "level_reached"
	TriggerScoreThreshold TriggerKind = "score_threshold"
	TriggerWinCount       TriggerKind = "win_count"
)

// Valid reports whether k is a known trigger kind
func (k TriggerKind) Valid() bool {
	switch k {
	case TriggerFirstGame, TriggerGamesPlayed, TriggerLevelReached, TriggerScoreThreshold, TriggerWinCount:
		return true
	}
	return false
}

// Trigger is a tagged condition that causes achievement re-evaluation.
// Value carries the observed quantity: games played, level, score or win count.
type Trigger struct {
	Kind  TriggerKind `json:"kind"`
	Value int64       `json:"value"`
}

func (t Trigger) String() string {
	return fmt.Sprintf("%s(%d)", t.Kind, t.Value)
}

func FirstGame() Trigger                   { return Trigger{Kind: TriggerFirstGame, Value: 1} }
func GamesPlayedMilestone(n int64) Trigger { return Trigger{Kind: TriggerGamesPlayed, Value: n} }
func LevelReached(level int) Trigger       { return Trigger{Kind: TriggerLevelReached, Value: int64(level)} }
func ScoreThreshold(score int64) Trigger   { return Trigger{Kind: TriggerScoreThreshold, Value: score} }
func WinCountMilestone(n int64) Trigger    { return Trigger{Kind: TriggerWinCount, Value: n} }

// UnlockRule is the predicate part of an achievement definition: it matches
// triggers of Kind once the measured value has reached Threshold.
type UnlockRule struct {
	Kind      TriggerKind `json:"kind"`
	Threshold int64       `json:"threshold"`
}

// AchievementDefinition is an immutable catalog entry
type AchievementDefinition struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Icon        string     `json:"icon"`
	XPReward    int64      `json:"xp_reward"`
	Rule        UnlockRule `json:"rule"`
}

// ProgressSnapshot is the part of a user's current state unlock rules read
type ProgressSnapshot struct {
	GamesPlayed int64
	Level       int
}

// SnapshotOf captures the counters of user
func SnapshotOf(user *User) ProgressSnapshot {
	return ProgressSnapshot{GamesPlayed: user.TotalGamesPlayed, Level: user.Level}
}

// Qualifies reports whether the definition's rule is satisfied by the trigger
// and the user's current counters. Milestones qualify once reached or passed.
// Score and win triggers carry their measurement in the trigger value; games
// and level are read from the snapshot.
func (d *AchievementDefinition) Qualifies(trigger Trigger, snap ProgressSnapshot) bool {
	if trigger.Kind != d.Rule.Kind {
		return false
	}

	var measured int64
	switch d.Rule.Kind {
	case TriggerFirstGame, TriggerGamesPlayed:
		measured = snap.GamesPlayed
	case TriggerLevelReached:
		measured = int64(snap.Level)
	case TriggerWinCount, TriggerScoreThreshold:
		measured = trigger.Value
	default:
		return false
	}
	return measured >= d.Rule.Threshold
}

// UnlockRecord marks that a user has been granted an achievement
type UnlockRecord struct {
	UserID        int64     `db:"user_id" json:"user_id"`
	AchievementID string    `db:"achievement_id" json:"achievement_id"`
	UnlockedAt    time.Time `db:"unlocked_at" json:"unlocked_at"`
}

// InsertResult is the outcome of an idempotent unlock insert
type InsertResult int

const (
	Inserted InsertResult = iota
	AlreadyExists
)

func (r InsertResult) String() string {
	if r == Inserted {
		return "inserted"
	}
	return "already_exists"
}

// UserAchievement is a catalog entry annotated with a user's unlock status
type UserAchievement struct {
	Achievement *AchievementDefinition `json:"achievement"`
	Unlocked    bool                   `json:"unlocked"`
	UnlockedAt  *time.Time             `json:"unlocked_at,omitempty"`
}

// EvaluationResult lists what a single evaluation cascade changed
type EvaluationResult struct {
	User         *User                    `json:"user"`
	Unlocked     []*AchievementDefinition `json:"unlocked"`
	LevelsGained []int                    `json:"levels_gained"`
}

// SubmitResult is returned from a score submission
type SubmitResult struct {
	Stats        *UpdatedStats            `json:"stats"`
	Unlocked     []*AchievementDefinition `json:"unlocked"`
	LevelsGained []int                    `json:"levels_gained"`
}
