package service

import (
	"fmt"
	"sort"
)

// LevelCurve maps accumulated XP to a level through fixed breakpoints.
// Breakpoint i is the XP at which level i+2 begins.
type LevelCurve struct {
	breakpoints []int64
}

// NewLevelCurve validates and copies breakpoints
func NewLevelCurve(breakpoints []int64) (*LevelCurve, error) {
	var prev int64
	for i, bp := range breakpoints {
		if bp <= 0 {
			return nil, fmt.Errorf("%w: breakpoint %d must be positive", ErrInvalidInput, i)
		}
		if bp <= prev {
			return nil, fmt.Errorf("%w: breakpoints must be strictly increasing", ErrInvalidInput)
		}
		prev = bp
	}

	cp := make([]int64, len(breakpoints))
	copy(cp, breakpoints)
	return &LevelCurve{breakpoints: cp}, nil
}

// LevelFor returns 1 plus the number of breakpoints at or below xp
func (c *LevelCurve) LevelFor(xp int64) int {
	return 1 + sort.Search(len(c.breakpoints), func(i int) bool {
		return c.breakpoints[i] > xp
	})
}

// NextLevelXP returns the XP at which the level after level begins, or 0 at
// the top of the curve
func (c *LevelCurve) NextLevelXP(level int) int64 {
	if level < 1 || level > len(c.breakpoints) {
		return 0
	}
	return c.breakpoints[level-1]
}

// MaxLevel is the highest level the curve can produce
func (c *LevelCurve) MaxLevel() int {
	return len(c.breakpoints) + 1
}
