package service

import (
	"testing"

	"arcade/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalog_Lookup(t *testing.T) {
	t.Parallel()

	catalog, err := NewCatalog([]*models.AchievementDefinition{
		def("first_game", models.TriggerFirstGame, 1, 100),
		def("level_5", models.TriggerLevelReached, 5, 250),
		def("level_10", models.TriggerLevelReached, 10, 500),
	})
	require.NoError(t, err)

	d, err := catalog.Get("level_5")
	require.NoError(t, err)
	assert.Equal(t, int64(250), d.XPReward)

	_, err = catalog.Get("missing")
	assert.ErrorIs(t, err, ErrUnknownAchievement)

	assert.Equal(t, []string{"level_5", "level_10"}, unlockedIDs(catalog.ForTrigger(models.TriggerLevelReached)))
	assert.Empty(t, catalog.ForTrigger(models.TriggerWinCount))
	assert.Equal(t, []string{"first_game", "level_5", "level_10"}, unlockedIDs(catalog.All()))
	assert.Equal(t, 3, catalog.Len())
}

func TestCatalog_IsImmutable(t *testing.T) {
	t.Parallel()

	source := def("first_game", models.TriggerFirstGame, 1, 100)
	catalog, err := NewCatalog([]*models.AchievementDefinition{source})
	require.NoError(t, err)

	source.XPReward = 1
	all := catalog.All()
	all[0] = nil

	d, err := catalog.Get("first_game")
	require.NoError(t, err)
	assert.Equal(t, int64(100), d.XPReward)
	assert.NotNil(t, catalog.All()[0])

	forKind := catalog.ForTrigger(models.TriggerFirstGame)
	require.Len(t, forKind, 1)
	forKind[0] = nil
	assert.NotNil(t, catalog.ForTrigger(models.TriggerFirstGame)[0])
}

func TestCatalog_Invalid(t *testing.T) {
	t.Parallel()

	tests := map[string][]*models.AchievementDefinition{
		"duplicate": {
			def("a", models.TriggerFirstGame, 1, 10),
			def("a", models.TriggerWinCount, 1, 10),
		},
		"empty id":     {def("", models.TriggerFirstGame, 1, 10)},
		"zero reward":  {def("a", models.TriggerFirstGame, 1, 0)},
		"unknown kind": {def("a", models.TriggerKind("streak"), 1, 10)},
	}

	for name, defs := range tests {
		_, err := NewCatalog(defs)
		assert.ErrorIs(t, err, ErrInvalidInput, name)
	}
}
