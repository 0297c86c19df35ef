package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"arcade/events"
	"arcade/repository"
	"arcade/repository/testutil"
	"arcade/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stack struct {
	scores       service.ScoreService
	achievements service.AchievementService
	leaderboard  *service.Leaderboard
	users        service.UserService
}

func newStack(t *testing.T, testDB *testutil.TestDatabase) *stack {
	t.Helper()

	curve, err := service.NewLevelCurve(testutil.TestBreakpoints())
	require.NoError(t, err)
	catalog, err := service.NewCatalog(testutil.TestDefinitions())
	require.NoError(t, err)

	engine := service.NewProgressionEngine(curve)
	evaluator := service.NewAchievementEvaluator(catalog, engine)
	uowFactory := repository.NewUnitOfWorkFactory(testDB.DB, events.NewBus())

	leaderboard, err := service.NewLeaderboard(repository.NewRankingRepository(testDB.DB), 8, 0)
	require.NoError(t, err)

	return &stack{
		scores:       service.NewScoreService(uowFactory, engine, evaluator, 5*time.Second),
		achievements: service.NewAchievementService(uowFactory, catalog, evaluator, 5*time.Second),
		leaderboard:  leaderboard,
		users:        service.NewUserService(uowFactory, catalog, curve),
	}
}

func TestIntegration_SubmitScoreCascade(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	s := newStack(t, testDB)
	ctx := context.Background()

	user, err := s.users.Register(ctx, "ivy", "")
	require.NoError(t, err)

	// first_game 50 + score_500 100 = 150 XP, level 2, then level_2 adds 25
	result, err := s.scores.SubmitScore(ctx, user.ID, "snake", 700)
	require.NoError(t, err)

	ids := make([]string, 0, len(result.Unlocked))
	for _, d := range result.Unlocked {
		ids = append(ids, d.ID)
	}
	assert.ElementsMatch(t, []string{"first_game", "score_500", "level_2"}, ids)
	assert.Equal(t, []int{2}, result.LevelsGained)
	assert.Equal(t, int64(175), result.Stats.XP)
	assert.Equal(t, 2, result.Stats.Level)
	assert.Equal(t, int64(1), result.Stats.TotalGamesPlayed)

	profile, err := s.users.GetProfile(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, profile.Unlocked)
	assert.Equal(t, int64(700), profile.TotalScore)
	assert.Equal(t, int64(300), profile.NextLevelXP)

	again, err := s.achievements.Reevaluate(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, again.Unlocked)
}

func TestIntegration_ConcurrentSubmissionsUnlockOnce(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	s := newStack(t, testDB)
	ctx := context.Background()

	user, err := s.users.Register(ctx, "jack", "")
	require.NoError(t, err)

	const submissions = 8
	var wg sync.WaitGroup
	for i := 0; i < submissions; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.scores.SubmitScore(ctx, user.ID, "snake", 10)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	list, err := s.users.GetAchievements(ctx, user.ID)
	require.NoError(t, err)

	unlocked := map[string]bool{}
	for _, ua := range list {
		if ua.Unlocked {
			unlocked[ua.Achievement.ID] = true
		}
	}
	assert.Equal(t, map[string]bool{
		"first_game": true,
		"games_3":    true,
		"wins_2":     true,
		"level_2":    true,
	}, unlocked)

	// 50 + 60 + 40 + 25, each awarded exactly once
	profile, err := s.users.GetProfile(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(175), profile.User.XP)
	assert.Equal(t, int64(submissions), profile.User.TotalGamesPlayed)
}

func TestIntegration_Leaderboard(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	s := newStack(t, testDB)
	ctx := context.Background()

	a := testutil.CreateUser(t, testDB.DB, "A", 0, 5, 0)
	b := testutil.CreateUser(t, testDB.DB, "B", 0, 5, 0)
	c := testutil.CreateUser(t, testDB.DB, "C", 1, 1, 0)
	testutil.CreateScores(t, testDB.DB, a.ID, "snake", 1000)
	testutil.CreateScores(t, testDB.DB, b.ID, "snake", 2000)

	board, err := s.leaderboard.GetLeaderboard(ctx, 10)
	require.NoError(t, err)
	require.Len(t, board, 3)
	assert.Equal(t, []int64{c.ID, b.ID, a.ID}, []int64{board[0].UserID, board[1].UserID, board[2].UserID})
	assert.Equal(t, []int{1, 2, 3}, []int{board[0].Rank, board[1].Rank, board[2].Rank})

	top, err := s.leaderboard.GetLeaderboard(ctx, 1)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, c.ID, top[0].UserID)

	entry, err := s.leaderboard.GetUserRank(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, entry.Rank)
}
