package service

import (
	"testing"

	"arcade/config"
	"arcade/models"

	"github.com/stretchr/testify/require"
)

// testEngine bundles the progression components over one catalog and curve
type testEngine struct {
	curve     *LevelCurve
	catalog   *Catalog
	engine    *ProgressionEngine
	evaluator *AchievementEvaluator
}

func newTestEngine(t *testing.T, breakpoints []int64, defs []*models.AchievementDefinition) *testEngine {
	t.Helper()

	curve, err := NewLevelCurve(breakpoints)
	require.NoError(t, err)
	catalog, err := NewCatalog(defs)
	require.NoError(t, err)

	engine := NewProgressionEngine(curve)
	return &testEngine{
		curve:     curve,
		catalog:   catalog,
		engine:    engine,
		evaluator: NewAchievementEvaluator(catalog, engine),
	}
}

// newDefaultEngine uses the shipped progression document
func newDefaultEngine(t *testing.T) *testEngine {
	t.Helper()

	cfg, err := config.LoadProgression("")
	require.NoError(t, err)
	return newTestEngine(t, cfg.Levels.Breakpoints, cfg.Definitions())
}

func def(id string, kind models.TriggerKind, threshold, reward int64) *models.AchievementDefinition {
	return &models.AchievementDefinition{
		ID:       id,
		Name:     id,
		XPReward: reward,
		Rule:     models.UnlockRule{Kind: kind, Threshold: threshold},
	}
}

func unlockedIDs(defs []*models.AchievementDefinition) []string {
	ids := make([]string, 0, len(defs))
	for _, d := range defs {
		ids = append(ids, d.ID)
	}
	return ids
}
