package service

import (
	"context"
	"fmt"
	"strings"

	"arcade/events"
	"arcade/models"

	log "github.com/sirupsen/logrus"
)

// ProgressionEngine turns score submissions and XP awards into updated user
// counters. It holds no state besides the level curve; every change goes
// through the unit of work it is handed.
type ProgressionEngine struct {
	curve *LevelCurve
}

// NewProgressionEngine creates a progression engine over curve
func NewProgressionEngine(curve *LevelCurve) *ProgressionEngine {
	return &ProgressionEngine{curve: curve}
}

// LevelFor returns the level for an XP total
func (e *ProgressionEngine) LevelFor(xp int64) int {
	return e.curve.LevelFor(xp)
}

// Curve returns the level curve in use
func (e *ProgressionEngine) Curve() *LevelCurve {
	return e.curve
}

// RecordScore appends a score event and counts the play. The user row is
// locked for the rest of the unit of work, which serializes concurrent
// submissions for the same user.
func (e *ProgressionEngine) RecordScore(ctx context.Context, uow UnitOfWork, userID int64, gameName string, score int64) (*models.UpdatedStats, error) {
	gameName = strings.TrimSpace(gameName)
	if gameName == "" {
		return nil, fmt.Errorf("%w: game name is required", ErrInvalidInput)
	}

	user, err := uow.UserRepository().GetByIDForUpdate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("%w: %d", ErrUnknownUser, userID)
	}

	event, err := uow.ScoreEventRepository().Append(ctx, userID, gameName, score)
	if err != nil {
		return nil, fmt.Errorf("failed to append score event: %w", err)
	}

	updated, err := uow.UserRepository().UpdateStats(ctx, userID, models.StatsUpdate{GamesPlayedIncrement: 1})
	if err != nil {
		return nil, fmt.Errorf("failed to update games played: %w", err)
	}

	uow.EventBus().Publish(events.ScoreRecordedEvent{
		UserID:       userID,
		ScoreEventID: event.ID,
		GameName:     gameName,
		Score:        score,
		GamesPlayed:  updated.TotalGamesPlayed,
	})

	return models.StatsFromUser(updated, event.ID), nil
}

// ApplyXP adds delta XP to user, recomputes the level and returns each level
// gained in ascending order. user is updated in place to the stored row.
// Level never decreases.
func (e *ProgressionEngine) ApplyXP(ctx context.Context, uow UnitOfWork, user *models.User, delta int64) ([]int, error) {
	if delta <= 0 {
		return nil, fmt.Errorf("%w: xp delta must be positive, got %d", ErrInvalidInput, delta)
	}

	oldLevel := user.Level
	newLevel := e.curve.LevelFor(user.XP + delta)

	update := models.StatsUpdate{XPDelta: delta}
	if newLevel > oldLevel {
		update.LevelSet = &newLevel
	}

	updated, err := uow.UserRepository().UpdateStats(ctx, user.ID, update)
	if err != nil {
		return nil, fmt.Errorf("failed to apply xp: %w", err)
	}

	var gained []int
	for level := oldLevel + 1; level <= updated.Level; level++ {
		gained = append(gained, level)
		uow.EventBus().Publish(events.LevelUpEvent{
			UserID:      user.ID,
			DisplayName: updated.DisplayName,
			OldLevel:    level - 1,
			NewLevel:    level,
			XP:          updated.XP,
		})
	}

	if len(gained) > 0 {
		log.WithFields(log.Fields{
			"userID":   user.ID,
			"oldLevel": oldLevel,
			"newLevel": updated.Level,
			"xp":       updated.XP,
		}).Info("User leveled up")
	}

	*user = *updated
	return gained, nil
}
