// Package ledgertest provides an in-memory ledger.Store for tests. It keeps
// the additive-update semantics of the Postgres store: deltas staged in a
// transaction land on Commit on top of whatever the row holds then.
package ledgertest

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/guessgame/internal/common"
	"github.com/dmitrijs2005/guessgame/internal/server/ledger"
	"github.com/dmitrijs2005/guessgame/internal/server/models"
	"github.com/dmitrijs2005/guessgame/internal/server/repositories/guesses"
	"github.com/dmitrijs2005/guessgame/internal/server/repositories/users"
	"github.com/google/uuid"
)

type MemStore struct {
	mu      sync.Mutex
	users   map[string]*models.User
	journal []models.Guess

	// Injected failures. Set them before use.
	BeginErr   error
	LoadErr    error
	ApplyErr   error
	JournalErr error
	CommitErr  error
	ReadErr    error

	open      int
	commits   int
	rollbacks int
}

func NewMemStore(seed ...models.User) *MemStore {
	s := &MemStore{users: make(map[string]*models.User)}
	for _, u := range seed {
		s.Put(u)
	}
	return s
}

// Put inserts or replaces a user.
func (s *MemStore) Put(u models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	s.users[u.Username] = &u
}

// Get returns a copy of the stored user.
func (s *MemStore) Get(username string) (models.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[username]
	if !ok {
		return models.User{}, false
	}
	return *u, true
}

// Journal returns the committed guess entries in commit order.
func (s *MemStore) Journal() []models.Guess {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Guess(nil), s.journal...)
}

// OpenTx counts transactions begun and not yet finished.
func (s *MemStore) OpenTx() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}

func (s *MemStore) Commits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commits
}

func (s *MemStore) Rollbacks() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rollbacks
}

func (s *MemStore) Begin(ctx context.Context) (ledger.Tx, error) {
	if s.BeginErr != nil {
		return nil, s.BeginErr
	}
	s.mu.Lock()
	s.open++
	s.mu.Unlock()
	return &memTx{s: s, deltas: make(map[string][2]int)}, nil
}

func (s *MemStore) Users() users.Repository {
	return &memUsers{s: s}
}

type memTx struct {
	s        *MemStore
	deltas   map[string][2]int
	journal  []models.Guess
	finished bool
}

func (t *memTx) Users() users.Repository     { return &memUsers{s: t.s, tx: t} }
func (t *memTx) Guesses() guesses.Repository { return &memGuesses{tx: t} }

func (t *memTx) Commit() error {
	if t.finished {
		return sql.ErrTxDone
	}
	if t.s.CommitErr != nil {
		_ = t.Rollback()
		return t.s.CommitErr
	}

	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	t.finished = true
	t.s.open--
	for name, d := range t.deltas {
		u := t.s.users[name]
		u.Turns += d[0]
		u.Score += d[1]
	}
	t.s.journal = append(t.s.journal, t.journal...)
	t.s.commits++
	return nil
}

func (t *memTx) Rollback() error {
	if t.finished {
		return sql.ErrTxDone
	}
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	t.finished = true
	t.s.open--
	t.s.rollbacks++
	return nil
}

type memUsers struct {
	s  *MemStore
	tx *memTx
}

func (r *memUsers) Create(ctx context.Context, user *models.User) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[user.Username]; ok {
		return nil, fmt.Errorf("db error: %w", common.ErrorAlreadyExists)
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	user.CreatedAt = time.Now()
	u := *user
	r.s.users[user.Username] = &u
	return user, nil
}

func (r *memUsers) Exists(ctx context.Context, username string) (bool, error) {
	_, ok := r.s.Get(username)
	return ok, nil
}

func (r *memUsers) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	if r.s.ReadErr != nil {
		return nil, r.s.ReadErr
	}
	u, ok := r.s.Get(username)
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &u, nil
}

func (r *memUsers) GetByUsernameForUpdate(ctx context.Context, username string) (*models.User, error) {
	if r.s.LoadErr != nil {
		return nil, r.s.LoadErr
	}
	u, ok := r.s.Get(username)
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &u, nil
}

func (r *memUsers) ApplyDelta(ctx context.Context, username string, turns, score int) (int, int, error) {
	if r.s.ApplyErr != nil {
		return 0, 0, r.s.ApplyErr
	}
	u, ok := r.s.Get(username)
	if !ok {
		return 0, 0, common.ErrorNotFound
	}
	if r.tx == nil {
		r.s.mu.Lock()
		defer r.s.mu.Unlock()
		row := r.s.users[username]
		if row.Turns+turns < 0 {
			return 0, 0, fmt.Errorf("%w: turns guard rejected delta for %q", common.ErrPersistence, username)
		}
		row.Turns += turns
		row.Score += score
		return row.Turns, row.Score, nil
	}
	d := r.tx.deltas[username]
	if u.Turns+d[0]+turns < 0 {
		return 0, 0, fmt.Errorf("%w: turns guard rejected delta for %q", common.ErrPersistence, username)
	}
	d[0] += turns
	d[1] += score
	r.tx.deltas[username] = d
	return u.Turns + d[0], u.Score + d[1], nil
}

func (r *memUsers) AddTurns(ctx context.Context, username string, n int) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[username]
	if !ok {
		return 0, common.ErrorNotFound
	}
	u.Turns += n
	return u.Turns, nil
}

func (r *memUsers) TopByScore(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	if r.s.ReadErr != nil {
		return nil, r.s.ReadErr
	}
	r.s.mu.Lock()
	all := make([]models.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		all = append(all, *u)
	}
	r.s.mu.Unlock()

	sort.Slice(all, func(i, j int) bool {
		if all[i].Score != all[j].Score {
			return all[i].Score > all[j].Score
		}
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.Before(all[j].CreatedAt)
		}
		return all[i].ID < all[j].ID
	})

	if len(all) > limit {
		all = all[:limit]
	}
	out := make([]models.LeaderboardEntry, 0, len(all))
	for _, u := range all {
		out = append(out, models.LeaderboardEntry{Username: u.Username, Score: u.Score})
	}
	return out, nil
}

type memGuesses struct {
	tx *memTx
}

func (r *memGuesses) Create(ctx context.Context, g *models.Guess) (*models.Guess, error) {
	if r.tx.s.JournalErr != nil {
		return nil, r.tx.s.JournalErr
	}
	if g.RequestID != "" {
		if _, err := r.FindByRequestID(ctx, g.Username, g.RequestID); err == nil {
			return nil, fmt.Errorf("db error: %w", common.ErrorAlreadyExists)
		}
	}
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	g.CreatedAt = time.Now()
	r.tx.journal = append(r.tx.journal, *g)
	return g, nil
}

func (r *memGuesses) FindByRequestID(ctx context.Context, username, requestID string) (*models.Guess, error) {
	for _, g := range r.tx.journal {
		if g.Username == username && g.RequestID == requestID {
			g := g
			return &g, nil
		}
	}
	for _, g := range r.tx.s.Journal() {
		if g.Username == username && g.RequestID == requestID {
			g := g
			return &g, nil
		}
	}
	return nil, common.ErrorNotFound
}
