package service

import (
	"context"
	"fmt"
	"time"

	"arcade/models"
)

type achievementService struct {
	uowFactory UnitOfWorkFactory
	catalog    *Catalog
	evaluator  *AchievementEvaluator
	timeout    time.Duration
}

// NewAchievementService creates a new achievement service
func NewAchievementService(uowFactory UnitOfWorkFactory, catalog *Catalog, evaluator *AchievementEvaluator, timeout time.Duration) AchievementService {
	return &achievementService{
		uowFactory: uowFactory,
		catalog:    catalog,
		evaluator:  evaluator,
		timeout:    timeout,
	}
}

func (s *achievementService) Catalog() []*models.AchievementDefinition {
	return s.catalog.All()
}

// Evaluate runs a single externally supplied trigger. Trigger values that
// describe recorded history are checked against the database: a score
// trigger cannot exceed the user's best score and a win trigger uses the
// recorded win count.
func (s *achievementService) Evaluate(ctx context.Context, userID int64, trigger models.Trigger) (*models.EvaluationResult, error) {
	if !trigger.Kind.Valid() {
		return nil, fmt.Errorf("%w: unknown trigger kind %q", ErrInvalidInput, trigger.Kind)
	}

	return s.run(ctx, userID, func(ctx context.Context, uow UnitOfWork, user *models.User) ([]models.Trigger, error) {
		switch trigger.Kind {
		case models.TriggerScoreThreshold:
			best, err := uow.ScoreEventRepository().Max(ctx, userID)
			if err != nil {
				return nil, fmt.Errorf("failed to get best score: %w", err)
			}
			if best == nil {
				return nil, nil
			}
			if trigger.Value > *best {
				trigger.Value = *best
			}
		case models.TriggerWinCount:
			wins, err := uow.ScoreEventRepository().Count(ctx, userID, models.ScoreWin())
			if err != nil {
				return nil, fmt.Errorf("failed to count wins: %w", err)
			}
			trigger.Value = wins
		}
		return []models.Trigger{trigger}, nil
	})
}

// Reevaluate replays every trigger kind from the user's stored state. It is
// safe to call any number of times and recovers unlocks that a failed or
// interrupted submission never reached.
func (s *achievementService) Reevaluate(ctx context.Context, userID int64) (*models.EvaluationResult, error) {
	return s.run(ctx, userID, func(ctx context.Context, uow UnitOfWork, user *models.User) ([]models.Trigger, error) {
		triggers := []models.Trigger{models.LevelReached(user.Level)}
		if user.TotalGamesPlayed > 0 {
			triggers = append(triggers,
				models.FirstGame(),
				models.GamesPlayedMilestone(user.TotalGamesPlayed),
			)
		}

		wins, err := uow.ScoreEventRepository().Count(ctx, userID, models.ScoreWin())
		if err != nil {
			return nil, fmt.Errorf("failed to count wins: %w", err)
		}
		if wins > 0 {
			triggers = append(triggers, models.WinCountMilestone(wins))
		}

		best, err := uow.ScoreEventRepository().Max(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to get best score: %w", err)
		}
		if best != nil {
			triggers = append(triggers, models.ScoreThreshold(*best))
		}
		return triggers, nil
	})
}

type triggerSource func(ctx context.Context, uow UnitOfWork, user *models.User) ([]models.Trigger, error)

func (s *achievementService) run(ctx context.Context, userID int64, source triggerSource) (*models.EvaluationResult, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	// Same per-user lock as score submission
	user, err := uow.UserRepository().GetByIDForUpdate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("%w: %d", ErrUnknownUser, userID)
	}

	triggers, err := source(ctx, uow, user)
	if err != nil {
		return nil, err
	}
	if len(triggers) == 0 {
		return &models.EvaluationResult{User: user}, nil
	}

	result, err := s.evaluator.Evaluate(ctx, uow, userID, triggers...)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return result, nil
}
