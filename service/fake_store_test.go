package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"arcade/events"
	"arcade/models"
)

// fakeStore is an in-memory persistence layer with the same observable
// contract as the Postgres repositories: row locks per user, unique unlock
// records and writes that are undone on rollback.
type fakeStore struct {
	mu        sync.Mutex
	nextUser  int64
	nextScore int64
	users     map[int64]*models.User
	scores    []*models.ScoreEvent
	unlocks   map[int64]map[string]time.Time
	rowLocks  map[int64]*sync.Mutex
	published []events.Event

	// failures injected by method name
	failures map[string]error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:    make(map[int64]*models.User),
		unlocks:  make(map[int64]map[string]time.Time),
		rowLocks: make(map[int64]*sync.Mutex),
		failures: make(map[string]error),
	}
}

func (s *fakeStore) addUser(name string) *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextUser++
	u := &models.User{ID: s.nextUser, DisplayName: name, Level: 1, CreatedAt: time.Now()}
	s.users[u.ID] = u
	s.rowLocks[u.ID] = &sync.Mutex{}
	cp := *u
	return &cp
}

func (s *fakeStore) user(id int64) *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *s.users[id]
	return &cp
}

func (s *fakeStore) setUser(u *models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *u
	s.users[u.ID] = &cp
}

func (s *fakeStore) unlockCount(userID int64, achievementID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.unlocks[userID][achievementID]; ok {
		return 1
	}
	return 0
}

func (s *fakeStore) unlockedIDs(userID int64) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []string
	for id := range s.unlocks[userID] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (s *fakeStore) scoreCount(userID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, e := range s.scores {
		if e.UserID == userID {
			n++
		}
	}
	return n
}

func (s *fakeStore) fail(method string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method] = err
}

func (s *fakeStore) failure(method string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failures[method]
}

func (s *fakeStore) publishedOfType(t events.EventType) []events.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []events.Event
	for _, e := range s.published {
		if e.Type() == t {
			out = append(out, e)
		}
	}
	return out
}

// Create implements UnitOfWorkFactory
func (s *fakeStore) Create() UnitOfWork {
	return &fakeUnitOfWork{store: s}
}

type fakeUnitOfWork struct {
	store   *fakeStore
	begun   bool
	undo    []func()
	held    map[int64]*sync.Mutex
	pending []events.Event
}

func (u *fakeUnitOfWork) Begin(ctx context.Context) error {
	if err := u.store.failure("Begin"); err != nil {
		return err
	}
	if u.begun {
		return fmt.Errorf("transaction already started")
	}
	u.begun = true
	return nil
}

func (u *fakeUnitOfWork) Commit() error {
	if !u.begun {
		return fmt.Errorf("no transaction to commit")
	}
	if err := u.store.failure("Commit"); err != nil {
		return err
	}
	u.store.mu.Lock()
	u.store.published = append(u.store.published, u.pending...)
	u.store.mu.Unlock()
	u.finish()
	return nil
}

func (u *fakeUnitOfWork) Rollback() error {
	if !u.begun {
		return nil
	}
	u.store.mu.Lock()
	for i := len(u.undo) - 1; i >= 0; i-- {
		u.undo[i]()
	}
	u.store.mu.Unlock()
	u.finish()
	return nil
}

func (u *fakeUnitOfWork) finish() {
	for _, m := range u.held {
		m.Unlock()
	}
	u.held = nil
	u.undo = nil
	u.pending = nil
	u.begun = false
}

func (u *fakeUnitOfWork) lock(id int64) {
	if _, ok := u.held[id]; ok {
		return
	}
	u.store.mu.Lock()
	m := u.store.rowLocks[id]
	u.store.mu.Unlock()
	if m == nil {
		return
	}
	m.Lock()
	if u.held == nil {
		u.held = make(map[int64]*sync.Mutex)
	}
	u.held[id] = m
}

func (u *fakeUnitOfWork) UserRepository() UserRepository             { return fakeUsers{u} }
func (u *fakeUnitOfWork) ScoreEventRepository() ScoreEventRepository { return fakeScores{u} }
func (u *fakeUnitOfWork) UnlockRepository() UnlockRepository         { return fakeUnlocks{u} }
func (u *fakeUnitOfWork) EventBus() EventPublisher                   { return u }

func (u *fakeUnitOfWork) Publish(e events.Event) {
	u.pending = append(u.pending, e)
}

type fakeUsers struct{ u *fakeUnitOfWork }

func (r fakeUsers) GetByID(ctx context.Context, id int64) (*models.User, error) {
	if err := r.u.store.failure("GetByID"); err != nil {
		return nil, err
	}
	r.u.store.mu.Lock()
	defer r.u.store.mu.Unlock()
	user, ok := r.u.store.users[id]
	if !ok {
		return nil, nil
	}
	cp := *user
	return &cp, nil
}

func (r fakeUsers) GetByIDForUpdate(ctx context.Context, id int64) (*models.User, error) {
	r.u.lock(id)
	return r.GetByID(ctx, id)
}

func (r fakeUsers) Create(ctx context.Context, displayName, avatarURL string) (*models.User, error) {
	user := r.u.store.addUser(displayName)
	user.AvatarURL = avatarURL
	r.u.store.setUser(user)
	r.u.undo = append(r.u.undo, func() { delete(r.u.store.users, user.ID) })
	return user, nil
}

func (r fakeUsers) UpdateStats(ctx context.Context, id int64, update models.StatsUpdate) (*models.User, error) {
	if err := r.u.store.failure("UpdateStats"); err != nil {
		return nil, err
	}
	r.u.store.mu.Lock()
	defer r.u.store.mu.Unlock()
	user, ok := r.u.store.users[id]
	if !ok {
		return nil, ErrPersistenceConflict
	}
	before := *user
	r.u.undo = append(r.u.undo, func() { *r.u.store.users[id] = before })

	user.XP += update.XPDelta
	user.TotalGamesPlayed += update.GamesPlayedIncrement
	if update.LevelSet != nil && *update.LevelSet > user.Level {
		user.Level = *update.LevelSet
	}
	cp := *user
	return &cp, nil
}

type fakeScores struct{ u *fakeUnitOfWork }

func (r fakeScores) Append(ctx context.Context, userID int64, gameName string, score int64) (*models.ScoreEvent, error) {
	if err := r.u.store.failure("Append"); err != nil {
		return nil, err
	}
	r.u.store.mu.Lock()
	defer r.u.store.mu.Unlock()
	r.u.store.nextScore++
	e := &models.ScoreEvent{ID: r.u.store.nextScore, UserID: userID, GameName: gameName, Score: score, CreatedAt: time.Now()}
	r.u.store.scores = append(r.u.store.scores, e)
	r.u.undo = append(r.u.undo, func() {
		for i, s := range r.u.store.scores {
			if s == e {
				r.u.store.scores = append(r.u.store.scores[:i], r.u.store.scores[i+1:]...)
				return
			}
		}
	})
	return e, nil
}

func (r fakeScores) matching(userID int64, p models.ScorePredicate) []*models.ScoreEvent {
	var out []*models.ScoreEvent
	for _, e := range r.u.store.scores {
		if e.UserID != userID {
			continue
		}
		if p.MinScore != nil && e.Score < *p.MinScore {
			continue
		}
		out = append(out, e)
	}
	return out
}

func (r fakeScores) Count(ctx context.Context, userID int64, p models.ScorePredicate) (int64, error) {
	r.u.store.mu.Lock()
	defer r.u.store.mu.Unlock()
	return int64(len(r.matching(userID, p))), nil
}

func (r fakeScores) Sum(ctx context.Context, userID int64) (int64, error) {
	r.u.store.mu.Lock()
	defer r.u.store.mu.Unlock()
	var total int64
	for _, e := range r.matching(userID, models.ScoreAny()) {
		total += e.Score
	}
	return total, nil
}

func (r fakeScores) Max(ctx context.Context, userID int64) (*int64, error) {
	r.u.store.mu.Lock()
	defer r.u.store.mu.Unlock()
	var best *int64
	for _, e := range r.matching(userID, models.ScoreAny()) {
		if best == nil || e.Score > *best {
			v := e.Score
			best = &v
		}
	}
	return best, nil
}

func (r fakeScores) ListByUser(ctx context.Context, userID int64, limit int) ([]*models.ScoreEvent, error) {
	r.u.store.mu.Lock()
	defer r.u.store.mu.Unlock()
	all := r.matching(userID, models.ScoreAny())
	var out []*models.ScoreEvent
	for i := len(all) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, all[i])
	}
	return out, nil
}

type fakeUnlocks struct{ u *fakeUnitOfWork }

func (r fakeUnlocks) TryInsert(ctx context.Context, userID int64, achievementID string) (models.InsertResult, error) {
	if err := r.u.store.failure("TryInsert"); err != nil {
		return 0, err
	}
	r.u.store.mu.Lock()
	defer r.u.store.mu.Unlock()
	if r.u.store.unlocks[userID] == nil {
		r.u.store.unlocks[userID] = make(map[string]time.Time)
	}
	if _, ok := r.u.store.unlocks[userID][achievementID]; ok {
		return models.AlreadyExists, nil
	}
	r.u.store.unlocks[userID][achievementID] = time.Now()
	r.u.undo = append(r.u.undo, func() { delete(r.u.store.unlocks[userID], achievementID) })
	return models.Inserted, nil
}

func (r fakeUnlocks) ListByUser(ctx context.Context, userID int64) ([]*models.UnlockRecord, error) {
	r.u.store.mu.Lock()
	defer r.u.store.mu.Unlock()
	var out []*models.UnlockRecord
	for id, at := range r.u.store.unlocks[userID] {
		out = append(out, &models.UnlockRecord{UserID: userID, AchievementID: id, UnlockedAt: at})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UnlockedAt.Before(out[j].UnlockedAt) })
	return out, nil
}
