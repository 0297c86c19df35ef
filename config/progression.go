package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"

	"arcade/models"

	"github.com/pelletier/go-toml/v2"
)

//go:embed progression.toml
var defaultProgression []byte

// ProgressionConfig is the tunable part of the game: the level curve and the
// achievement catalog. It is loaded once at startup and never mutated.
type ProgressionConfig struct {
	Levels       LevelsConfig        `toml:"levels"`
	Achievements []AchievementConfig `toml:"achievements"`
}

type LevelsConfig struct {
	Breakpoints []int64 `toml:"breakpoints"`
}

type AchievementConfig struct {
	ID          string `toml:"id"`
	Name        string `toml:"name"`
	Description string `toml:"description"`
	Icon        string `toml:"icon"`
	XPReward    int64  `toml:"xp_reward"`
	Trigger     string `toml:"trigger"`
	Threshold   int64  `toml:"threshold"`
}

// LoadProgression reads the progression document from path, or the embedded
// default when path is empty.
func LoadProgression(path string) (*ProgressionConfig, error) {
	if path == "" {
		return ParseProgression(bytes.NewReader(defaultProgression))
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open progression config: %w", err)
	}
	defer file.Close()

	return ParseProgression(file)
}

// ParseProgression decodes and validates a progression document
func ParseProgression(r io.Reader) (*ProgressionConfig, error) {
	var cfg ProgressionConfig
	dec := toml.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode progression config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the level curve and catalog for internal consistency
func (c *ProgressionConfig) Validate() error {
	var prev int64
	for i, bp := range c.Levels.Breakpoints {
		if bp <= 0 {
			return fmt.Errorf("level breakpoint %d must be positive, got %d", i, bp)
		}
		if bp <= prev {
			return fmt.Errorf("level breakpoints must be strictly increasing: %d follows %d", bp, prev)
		}
		prev = bp
	}

	seen := make(map[string]struct{}, len(c.Achievements))
	for _, a := range c.Achievements {
		if a.ID == "" {
			return fmt.Errorf("achievement with empty id")
		}
		if _, dup := seen[a.ID]; dup {
			return fmt.Errorf("duplicate achievement id %q", a.ID)
		}
		seen[a.ID] = struct{}{}

		if a.XPReward <= 0 {
			return fmt.Errorf("achievement %q: xp_reward must be positive", a.ID)
		}
		if !models.TriggerKind(a.Trigger).Valid() {
			return fmt.Errorf("achievement %q: unknown trigger %q", a.ID, a.Trigger)
		}
		if a.Threshold < 1 {
			return fmt.Errorf("achievement %q: threshold must be at least 1", a.ID)
		}
	}
	return nil
}

// Definitions converts the configured catalog into achievement definitions
func (c *ProgressionConfig) Definitions() []*models.AchievementDefinition {
	defs := make([]*models.AchievementDefinition, 0, len(c.Achievements))
	for _, a := range c.Achievements {
		defs = append(defs, &models.AchievementDefinition{
			ID:          a.ID,
			Name:        a.Name,
			Description: a.Description,
			Icon:        a.Icon,
			XPReward:    a.XPReward,
			Rule: models.UnlockRule{
				Kind:      models.TriggerKind(a.Trigger),
				Threshold: a.Threshold,
			},
		})
	}
	return defs
}
