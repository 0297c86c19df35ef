package service

import (
	"fmt"

	"arcade/models"
)

// Catalog is the immutable set of achievement definitions, indexed by id and
// by trigger kind. It is built once at startup.
type Catalog struct {
	ordered []*models.AchievementDefinition
	byID    map[string]*models.AchievementDefinition
	byKind  map[models.TriggerKind][]*models.AchievementDefinition
}

// NewCatalog indexes defs, rejecting duplicates and unusable rules
func NewCatalog(defs []*models.AchievementDefinition) (*Catalog, error) {
	c := &Catalog{
		ordered: make([]*models.AchievementDefinition, 0, len(defs)),
		byID:    make(map[string]*models.AchievementDefinition, len(defs)),
		byKind:  make(map[models.TriggerKind][]*models.AchievementDefinition),
	}

	for _, d := range defs {
		if d.ID == "" {
			return nil, fmt.Errorf("%w: achievement with empty id", ErrInvalidInput)
		}
		if _, dup := c.byID[d.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate achievement %q", ErrInvalidInput, d.ID)
		}
		if d.XPReward <= 0 {
			return nil, fmt.Errorf("%w: achievement %q has non-positive xp reward", ErrInvalidInput, d.ID)
		}
		if !d.Rule.Kind.Valid() {
			return nil, fmt.Errorf("%w: achievement %q has unknown trigger %q", ErrInvalidInput, d.ID, d.Rule.Kind)
		}

		cp := *d
		c.ordered = append(c.ordered, &cp)
		c.byID[cp.ID] = &cp
		c.byKind[cp.Rule.Kind] = append(c.byKind[cp.Rule.Kind], &cp)
	}

	return c, nil
}

// Get returns the definition with the given id
func (c *Catalog) Get(id string) (*models.AchievementDefinition, error) {
	d, ok := c.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAchievement, id)
	}
	return d, nil
}

// ForTrigger returns the definitions whose rule listens to kind
func (c *Catalog) ForTrigger(kind models.TriggerKind) []*models.AchievementDefinition {
	defs := c.byKind[kind]
	out := make([]*models.AchievementDefinition, len(defs))
	copy(out, defs)
	return out
}

// All returns every definition in catalog order
func (c *Catalog) All() []*models.AchievementDefinition {
	out := make([]*models.AchievementDefinition, len(c.ordered))
	copy(out, c.ordered)
	return out
}

// Len returns the number of definitions
func (c *Catalog) Len() int {
	return len(c.ordered)
}
