package service

import (
	"context"
	"errors"
	"fmt"

	"arcade/events"
	"arcade/models"

	log "github.com/sirupsen/logrus"
)

// AchievementEvaluator grants achievements whose rules a trigger satisfies.
//
// Evaluation runs a FIFO queue of triggers to a fixed point. Every new unlock
// awards XP, and every level gained from that XP enqueues one LevelReached
// trigger. The loop terminates because each definition can be inserted at
// most once and levels only go up.
//
// The unlock table's uniqueness constraint is the arbiter of "at most once":
// an insert that finds an existing record is a no-op, never an error.
type AchievementEvaluator struct {
	catalog *Catalog
	engine  *ProgressionEngine
}

// NewAchievementEvaluator creates an evaluator over an immutable catalog
func NewAchievementEvaluator(catalog *Catalog, engine *ProgressionEngine) *AchievementEvaluator {
	return &AchievementEvaluator{
		catalog: catalog,
		engine:  engine,
	}
}

// Evaluate processes triggers for userID inside uow and returns the newly
// unlocked definitions. The caller is expected to hold the user's row lock.
func (e *AchievementEvaluator) Evaluate(ctx context.Context, uow UnitOfWork, userID int64, triggers ...models.Trigger) (*models.EvaluationResult, error) {
	user, err := uow.UserRepository().GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("%w: %d", ErrUnknownUser, userID)
	}

	records, err := uow.UnlockRepository().ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list unlock records: %w", err)
	}
	owned := make(map[string]struct{}, len(records))
	for _, r := range records {
		owned[r.AchievementID] = struct{}{}
	}

	result := &models.EvaluationResult{User: user}
	queue := append([]models.Trigger(nil), triggers...)

	for len(queue) > 0 {
		trigger := queue[0]
		queue = queue[1:]

		for _, def := range e.catalog.ForTrigger(trigger.Kind) {
			if _, ok := owned[def.ID]; ok {
				continue
			}
			if !def.Qualifies(trigger, models.SnapshotOf(user)) {
				continue
			}

			inserted, err := e.tryUnlock(ctx, uow, userID, def)
			if err != nil {
				return nil, err
			}
			owned[def.ID] = struct{}{}
			if !inserted {
				continue
			}

			result.Unlocked = append(result.Unlocked, def)
			uow.EventBus().Publish(events.AchievementUnlockedEvent{
				UserID:          userID,
				DisplayName:     user.DisplayName,
				AchievementID:   def.ID,
				AchievementName: def.Name,
				Icon:            def.Icon,
				XPReward:        def.XPReward,
			})

			gained, err := e.engine.ApplyXP(ctx, uow, user, def.XPReward)
			if err != nil {
				return nil, fmt.Errorf("failed to award xp for %s: %w", def.ID, err)
			}
			for _, level := range gained {
				result.LevelsGained = append(result.LevelsGained, level)
				queue = append(queue, models.LevelReached(level))
			}
		}
	}

	return result, nil
}

// tryUnlock inserts the unlock record, reporting whether this call created it
func (e *AchievementEvaluator) tryUnlock(ctx context.Context, uow UnitOfWork, userID int64, def *models.AchievementDefinition) (bool, error) {
	res, err := uow.UnlockRepository().TryInsert(ctx, userID, def.ID)
	if errors.Is(err, ErrPersistenceConflict) {
		log.WithFields(log.Fields{
			"userID":        userID,
			"achievementID": def.ID,
		}).Warn("Concurrent unlock detected, treating as already unlocked")
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to insert unlock record for %s: %w", def.ID, err)
	}
	if res == models.AlreadyExists {
		return false, nil
	}

	log.WithFields(log.Fields{
		"userID":        userID,
		"achievementID": def.ID,
		"xpReward":      def.XPReward,
	}).Info("Achievement unlocked")
	return true, nil
}
