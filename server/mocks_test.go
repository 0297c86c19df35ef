package server

import (
	"context"
	"time"

	"arcade/models"

	"github.com/stretchr/testify/mock"
)

type mockUserService struct{ mock.Mock }

func (m *mockUserService) Register(ctx context.Context, displayName, avatarURL string) (*models.User, error) {
	args := m.Called(ctx, displayName, avatarURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *mockUserService) GetProfile(ctx context.Context, userID int64) (*models.UserProfile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserProfile), args.Error(1)
}

func (m *mockUserService) GetAchievements(ctx context.Context, userID int64) ([]*models.UserAchievement, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.UserAchievement), args.Error(1)
}

func (m *mockUserService) GetScoreHistory(ctx context.Context, userID int64, limit int) ([]*models.ScoreEvent, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ScoreEvent), args.Error(1)
}

type mockScoreService struct{ mock.Mock }

func (m *mockScoreService) SubmitScore(ctx context.Context, userID int64, gameName string, score int64) (*models.SubmitResult, error) {
	args := m.Called(ctx, userID, gameName, score)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SubmitResult), args.Error(1)
}

type mockAchievementService struct{ mock.Mock }

func (m *mockAchievementService) Evaluate(ctx context.Context, userID int64, trigger models.Trigger) (*models.EvaluationResult, error) {
	args := m.Called(ctx, userID, trigger)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.EvaluationResult), args.Error(1)
}

func (m *mockAchievementService) Reevaluate(ctx context.Context, userID int64) (*models.EvaluationResult, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.EvaluationResult), args.Error(1)
}

func (m *mockAchievementService) Catalog() []*models.AchievementDefinition {
	args := m.Called()
	return args.Get(0).([]*models.AchievementDefinition)
}

type mockLeaderboardService struct{ mock.Mock }

func (m *mockLeaderboardService) GetLeaderboard(ctx context.Context, topN int) ([]*models.LeaderboardEntry, error) {
	args := m.Called(ctx, topN)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.LeaderboardEntry), args.Error(1)
}

func (m *mockLeaderboardService) GetUserRank(ctx context.Context, userID int64) (*models.LeaderboardEntry, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LeaderboardEntry), args.Error(1)
}

type mockMetrics struct{ mock.Mock }

func (m *mockMetrics) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	m.Called(method, route, status)
}

func (m *mockMetrics) MeasureLeaderboard() func() {
	m.Called()
	return func() {}
}
