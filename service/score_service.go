package service

import (
	"context"
	"fmt"
	"time"

	"arcade/models"

	log "github.com/sirupsen/logrus"
)

type scoreService struct {
	uowFactory UnitOfWorkFactory
	engine     *ProgressionEngine
	evaluator  *AchievementEvaluator
	timeout    time.Duration
}

// NewScoreService creates a new score service. A positive timeout bounds the
// whole submission, including the unlock cascade.
func NewScoreService(uowFactory UnitOfWorkFactory, engine *ProgressionEngine, evaluator *AchievementEvaluator, timeout time.Duration) ScoreService {
	return &scoreService{
		uowFactory: uowFactory,
		engine:     engine,
		evaluator:  evaluator,
		timeout:    timeout,
	}
}

// SubmitScore records the play, derives triggers from it and evaluates them,
// all in one transaction. Either the score, the games-played increment and
// every triggered unlock are stored together, or none of them are.
func (s *scoreService) SubmitScore(ctx context.Context, userID int64, gameName string, score int64) (*models.SubmitResult, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	stats, err := s.engine.RecordScore(ctx, uow, userID, gameName, score)
	if err != nil {
		return nil, err
	}

	triggers := []models.Trigger{
		models.FirstGame(),
		models.GamesPlayedMilestone(stats.TotalGamesPlayed),
		models.ScoreThreshold(score),
	}
	if score > 0 {
		wins, err := uow.ScoreEventRepository().Count(ctx, userID, models.ScoreWin())
		if err != nil {
			return nil, fmt.Errorf("failed to count wins: %w", err)
		}
		triggers = append(triggers, models.WinCountMilestone(wins))
	}

	eval, err := s.evaluator.Evaluate(ctx, uow, userID, triggers...)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"userID":      userID,
		"game":        gameName,
		"score":       score,
		"gamesPlayed": eval.User.TotalGamesPlayed,
		"unlocked":    len(eval.Unlocked),
	}).Debug("Score submitted")

	return &models.SubmitResult{
		Stats:        models.StatsFromUser(eval.User, stats.ScoreEventID),
		Unlocked:     eval.Unlocked,
		LevelsGained: eval.LevelsGained,
	}, nil
}
