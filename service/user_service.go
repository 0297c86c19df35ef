package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"arcade/events"
	"arcade/models"

	log "github.com/sirupsen/logrus"
)

const (
	maxDisplayNameLength = 32
	maxHistoryLimit      = 100
)

// userService implements the UserService interface
type userService struct {
	uowFactory UnitOfWorkFactory
	catalog    *Catalog
	curve      *LevelCurve
}

// NewUserService creates a new user service
func NewUserService(uowFactory UnitOfWorkFactory, catalog *Catalog, curve *LevelCurve) UserService {
	return &userService{
		uowFactory: uowFactory,
		catalog:    catalog,
		curve:      curve,
	}
}

// Register creates a new user at level 1
func (s *userService) Register(ctx context.Context, displayName, avatarURL string) (*models.User, error) {
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return nil, fmt.Errorf("%w: display name is required", ErrInvalidInput)
	}
	if utf8.RuneCountInString(displayName) > maxDisplayNameLength {
		return nil, fmt.Errorf("%w: display name must be at most %d characters", ErrInvalidInput, maxDisplayNameLength)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user, err := uow.UserRepository().Create(ctx, displayName, strings.TrimSpace(avatarURL))
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	uow.EventBus().Publish(events.UserCreatedEvent{
		UserID:      user.ID,
		DisplayName: user.DisplayName,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"userID":      user.ID,
		"displayName": user.DisplayName,
	}).Info("User registered")

	return user, nil
}

// GetProfile returns the user with next-level XP, unlock count and score totals
func (s *userService) GetProfile(ctx context.Context, userID int64) (*models.UserProfile, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user, err := s.getUser(ctx, uow, userID)
	if err != nil {
		return nil, err
	}

	records, err := uow.UnlockRepository().ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list unlock records: %w", err)
	}

	total, err := uow.ScoreEventRepository().Sum(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to sum scores: %w", err)
	}

	wins, err := uow.ScoreEventRepository().Count(ctx, userID, models.ScoreWin())
	if err != nil {
		return nil, fmt.Errorf("failed to count wins: %w", err)
	}

	return &models.UserProfile{
		User:        user,
		NextLevelXP: s.curve.NextLevelXP(user.Level),
		Unlocked:    len(records),
		TotalScore:  total,
		Wins:        wins,
	}, nil
}

// GetAchievements returns every catalog entry with the user's unlock status
func (s *userService) GetAchievements(ctx context.Context, userID int64) ([]*models.UserAchievement, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if _, err := s.getUser(ctx, uow, userID); err != nil {
		return nil, err
	}

	records, err := uow.UnlockRepository().ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list unlock records: %w", err)
	}

	unlocked := make(map[string]*models.UnlockRecord, len(records))
	for _, r := range records {
		if _, err := s.catalog.Get(r.AchievementID); err != nil {
			// Record for an achievement that was removed from the catalog
			log.WithFields(log.Fields{
				"userID":        userID,
				"achievementID": r.AchievementID,
			}).WithError(err).Warn("Ignoring unlock record for unknown achievement")
			continue
		}
		unlocked[r.AchievementID] = r
	}

	defs := s.catalog.All()
	result := make([]*models.UserAchievement, 0, len(defs))
	for _, d := range defs {
		ua := &models.UserAchievement{Achievement: d}
		if r, ok := unlocked[d.ID]; ok {
			at := r.UnlockedAt
			ua.Unlocked = true
			ua.UnlockedAt = &at
		}
		result = append(result, ua)
	}
	return result, nil
}

// GetScoreHistory returns up to limit recent score events, newest first
func (s *userService) GetScoreHistory(ctx context.Context, userID int64, limit int) ([]*models.ScoreEvent, error) {
	if limit <= 0 || limit > maxHistoryLimit {
		return nil, fmt.Errorf("%w: limit must be between 1 and %d", ErrInvalidInput, maxHistoryLimit)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if _, err := s.getUser(ctx, uow, userID); err != nil {
		return nil, err
	}

	scores, err := uow.ScoreEventRepository().ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list score events: %w", err)
	}
	return scores, nil
}

func (s *userService) getUser(ctx context.Context, uow UnitOfWork, userID int64) (*models.User, error) {
	user, err := uow.UserRepository().GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("%w: %d", ErrUnknownUser, userID)
	}
	return user, nil
}
