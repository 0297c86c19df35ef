package repository

import (
	"context"
	"testing"

	"arcade/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRankingRepository(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewRankingRepository(testDB.DB)
	ctx := context.Background()

	// A: prestige 0, level 5, score 1000
	// B: prestige 0, level 5, score 2000
	// C: prestige 1, level 1, score 0
	// D: same as A, created later
	a := testutil.CreateUser(t, testDB.DB, "A", 0, 5, 0)
	b := testutil.CreateUser(t, testDB.DB, "B", 0, 5, 0)
	c := testutil.CreateUser(t, testDB.DB, "C", 1, 1, 0)
	d := testutil.CreateUser(t, testDB.DB, "D", 0, 5, 0)
	testutil.CreateScores(t, testDB.DB, a.ID, "snake", 400, 600)
	testutil.CreateScores(t, testDB.DB, b.ID, "snake", 2000)
	testutil.CreateScores(t, testDB.DB, d.ID, "tetris", 1000)

	t.Run("ordered by prestige, level, total score then creation", func(t *testing.T) {
		rows, err := repo.ListForRanking(ctx, 0)
		require.NoError(t, err)
		require.Len(t, rows, 4)

		ids := []int64{rows[0].UserID, rows[1].UserID, rows[2].UserID, rows[3].UserID}
		assert.Equal(t, []int64{c.ID, b.ID, a.ID, d.ID}, ids)
		assert.Equal(t, int64(1000), rows[2].TotalScore)
		assert.Zero(t, rows[0].TotalScore)
	})

	t.Run("limit", func(t *testing.T) {
		rows, err := repo.ListForRanking(ctx, 2)
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, c.ID, rows[0].UserID)
	})

	t.Run("rank of user", func(t *testing.T) {
		entry, err := repo.RankOf(ctx, a.ID)
		require.NoError(t, err)
		require.NotNil(t, entry)
		assert.Equal(t, 3, entry.Rank)
		assert.Equal(t, "A", entry.DisplayName)
		assert.Equal(t, int64(1000), entry.TotalScore)

		missing, err := repo.RankOf(ctx, 99999)
		require.NoError(t, err)
		assert.Nil(t, missing)
	})
}
