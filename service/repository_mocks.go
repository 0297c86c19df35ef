package service

import (
	"context"

	"arcade/events"
	"arcade/models"

	"github.com/stretchr/testify/mock"
)

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByIDForUpdate(ctx context.Context, id int64) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) Create(ctx context.Context, displayName, avatarURL string) (*models.User, error) {
	args := m.Called(ctx, displayName, avatarURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) UpdateStats(ctx context.Context, id int64, update models.StatsUpdate) (*models.User, error) {
	args := m.Called(ctx, id, update)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

// MockScoreEventRepository is a mock implementation of ScoreEventRepository
type MockScoreEventRepository struct {
	mock.Mock
}

func (m *MockScoreEventRepository) Append(ctx context.Context, userID int64, gameName string, score int64) (*models.ScoreEvent, error) {
	args := m.Called(ctx, userID, gameName, score)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ScoreEvent), args.Error(1)
}

func (m *MockScoreEventRepository) Count(ctx context.Context, userID int64, predicate models.ScorePredicate) (int64, error) {
	args := m.Called(ctx, userID, predicate)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockScoreEventRepository) Sum(ctx context.Context, userID int64) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockScoreEventRepository) Max(ctx context.Context, userID int64) (*int64, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*int64), args.Error(1)
}

func (m *MockScoreEventRepository) ListByUser(ctx context.Context, userID int64, limit int) ([]*models.ScoreEvent, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ScoreEvent), args.Error(1)
}

// MockUnlockRepository is a mock implementation of UnlockRepository
type MockUnlockRepository struct {
	mock.Mock
}

func (m *MockUnlockRepository) TryInsert(ctx context.Context, userID int64, achievementID string) (models.InsertResult, error) {
	args := m.Called(ctx, userID, achievementID)
	return args.Get(0).(models.InsertResult), args.Error(1)
}

func (m *MockUnlockRepository) ListByUser(ctx context.Context, userID int64) ([]*models.UnlockRecord, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.UnlockRecord), args.Error(1)
}

// MockRankingRepository is a mock implementation of RankingRepository
type MockRankingRepository struct {
	mock.Mock
}

func (m *MockRankingRepository) ListForRanking(ctx context.Context, limit int) ([]*models.RankingRow, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.RankingRow), args.Error(1)
}

func (m *MockRankingRepository) RankOf(ctx context.Context, userID int64) (*models.LeaderboardEntry, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LeaderboardEntry), args.Error(1)
}

// MockEventPublisher is a mock implementation of EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) {
	m.Called(event)
}

// MockUnitOfWork is a mock implementation of UnitOfWork. Repository getters
// return whatever SetRepositories installed; only the transaction methods
// are recorded as calls.
type MockUnitOfWork struct {
	mock.Mock
	userRepo   UserRepository
	scoreRepo  ScoreEventRepository
	unlockRepo UnlockRepository
	eventBus   EventPublisher
}

// SetRepositories installs the repositories and publisher the getters return
func (m *MockUnitOfWork) SetRepositories(userRepo UserRepository, scoreRepo ScoreEventRepository, unlockRepo UnlockRepository, eventBus EventPublisher) {
	m.userRepo = userRepo
	m.scoreRepo = scoreRepo
	m.unlockRepo = unlockRepo
	m.eventBus = eventBus
}

func (m *MockUnitOfWork) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUnitOfWork) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) UserRepository() UserRepository {
	return m.userRepo
}

func (m *MockUnitOfWork) ScoreEventRepository() ScoreEventRepository {
	return m.scoreRepo
}

func (m *MockUnitOfWork) UnlockRepository() UnlockRepository {
	return m.unlockRepo
}

func (m *MockUnitOfWork) EventBus() EventPublisher {
	return m.eventBus
}

// MockUnitOfWorkFactory is a mock implementation of UnitOfWorkFactory
type MockUnitOfWorkFactory struct {
	mock.Mock
}

func (m *MockUnitOfWorkFactory) Create() UnitOfWork {
	args := m.Called()
	return args.Get(0).(UnitOfWork)
}
