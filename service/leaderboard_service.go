package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"arcade/models"

	lru "github.com/hashicorp/golang-lru"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// leaderboardQueryTimeout bounds a shared ranking query, which no longer
// follows any single caller's deadline
const leaderboardQueryTimeout = 10 * time.Second

// cachedBoard represents a cached leaderboard page
type cachedBoard struct {
	entries   []*models.LeaderboardEntry
	timestamp time.Time
}

// Leaderboard ranks users by (prestige, level, total score), all descending,
// with ties broken by registration order. Pages are cached per size for a
// short TTL; concurrent misses for the same size share one query.
type Leaderboard struct {
	repo  RankingRepository
	cache *lru.Cache
	ttl   time.Duration
	group singleflight.Group

	// generation counts invalidations. A query only fills the cache if no
	// invalidation happened while it ran.
	mu         sync.Mutex
	generation uint64
}

// NewLeaderboard creates a leaderboard service. ttl <= 0 disables caching.
func NewLeaderboard(repo RankingRepository, cacheSize int, ttl time.Duration) (*Leaderboard, error) {
	cache, err := lru.New(cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create leaderboard cache: %w", err)
	}
	return &Leaderboard{
		repo:  repo,
		cache: cache,
		ttl:   ttl,
	}, nil
}

// GetLeaderboard returns at most topN entries. Asking for more than the
// number of users returns all of them.
func (l *Leaderboard) GetLeaderboard(ctx context.Context, topN int) ([]*models.LeaderboardEntry, error) {
	if topN <= 0 {
		return nil, fmt.Errorf("%w: topN must be positive, got %d", ErrInvalidInput, topN)
	}

	if l.ttl > 0 {
		if cached, ok := l.cache.Get(topN); ok {
			if c, ok := cached.(cachedBoard); ok && time.Since(c.timestamp) < l.ttl {
				return c.entries, nil
			}
		}
	}

	generation := l.currentGeneration()
	key := strconv.Itoa(topN) + ":" + strconv.FormatUint(generation, 10)

	// The shared query outlives any one caller; each caller only waits on
	// its own context.
	ch := l.group.DoChan(key, func() (interface{}, error) {
		queryCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), leaderboardQueryTimeout)
		defer cancel()

		rows, err := l.repo.ListForRanking(queryCtx, topN)
		if err != nil {
			return nil, fmt.Errorf("failed to list users for ranking: %w", err)
		}

		entries := RankEntries(rows)
		if l.ttl > 0 {
			l.store(topN, generation, entries)
		}
		return entries, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]*models.LeaderboardEntry), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// store caches entries unless the board was invalidated after the query
// that produced them started
func (l *Leaderboard) store(topN int, generation uint64, entries []*models.LeaderboardEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.generation != generation {
		log.WithField("topN", topN).Debug("Discarding leaderboard page computed before invalidation")
		return
	}
	l.cache.Add(topN, cachedBoard{entries: entries, timestamp: time.Now()})
}

func (l *Leaderboard) currentGeneration() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.generation
}

// GetUserRank returns the user's position in the full ordering
func (l *Leaderboard) GetUserRank(ctx context.Context, userID int64) (*models.LeaderboardEntry, error) {
	entry, err := l.repo.RankOf(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user rank: %w", err)
	}
	if entry == nil {
		return nil, fmt.Errorf("%w: %d", ErrUnknownUser, userID)
	}
	return entry, nil
}

// Invalidate drops every cached page
func (l *Leaderboard) Invalidate() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.generation++
	if l.cache.Len() > 0 {
		log.Debug("Invalidating leaderboard cache")
	}
	l.cache.Purge()
}

// RankEntries orders rows and assigns 1-based ranks. The input is not
// modified.
func RankEntries(rows []*models.RankingRow) []*models.LeaderboardEntry {
	sorted := make([]*models.RankingRow, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		return ranksBefore(sorted[i], sorted[j])
	})

	entries := make([]*models.LeaderboardEntry, len(sorted))
	for i, r := range sorted {
		entries[i] = &models.LeaderboardEntry{
			Rank:        i + 1,
			UserID:      r.UserID,
			DisplayName: r.DisplayName,
			AvatarURL:   r.AvatarURL,
			Prestige:    r.Prestige,
			Level:       r.Level,
			XP:          r.XP,
			TotalScore:  r.TotalScore,
			GamesPlayed: r.GamesPlayed,
		}
	}
	return entries
}

// ranksBefore is the leaderboard order. IDs are assigned in creation order,
// so the final comparison is the registration tie-break.
func ranksBefore(a, b *models.RankingRow) bool {
	if a.Prestige != b.Prestige {
		return a.Prestige > b.Prestige
	}
	if a.Level != b.Level {
		return a.Level > b.Level
	}
	if a.TotalScore != b.TotalScore {
		return a.TotalScore > b.TotalScore
	}
	return a.UserID < b.UserID
}
