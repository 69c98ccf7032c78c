// Package ledger serializes read-modify-write cycles on a user's turns and
// score. Within one process a per-username lock table orders them; across
// processes the row lock taken by the held transaction does.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/guessgame/internal/common"
	"github.com/dmitrijs2005/guessgame/internal/server/models"
)

type Ledger struct {
	store       Store
	locks       *KeyLocks
	lockTimeout time.Duration
}

func New(store Store, lockTimeout time.Duration) *Ledger {
	return &Ledger{
		store:       store,
		locks:       NewKeyLocks(),
		lockTimeout: lockTimeout,
	}
}

// persistence wraps err as ErrPersistence unless it already is one.
func persistence(op string, err error) error {
	if errors.Is(err, common.ErrPersistence) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%w: %s: %w", common.ErrPersistence, op, err)
}

// LoadForUpdate takes exclusive hold of username's record. The caller must
// Commit or Release the returned Hold.
func (l *Ledger) LoadForUpdate(ctx context.Context, username string) (*Hold, error) {
	lockCtx, cancel := ctx, context.CancelFunc(func() {})
	if l.lockTimeout > 0 {
		lockCtx, cancel = context.WithTimeout(ctx, l.lockTimeout)
	}
	release, err := l.locks.Acquire(lockCtx, username)
	cancel()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: user %q busy for %s", common.ErrLockTimeout, username, l.lockTimeout)
	}

	tx, err := l.store.Begin(ctx)
	if err != nil {
		release()
		return nil, persistence("begin", err)
	}

	user, err := tx.Users().GetByUsernameForUpdate(ctx, username)
	if err != nil {
		_ = tx.Rollback()
		release()
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, persistence("load", err)
	}

	return &Hold{
		tx:       tx,
		release:  release,
		snapshot: *user,
		record:   user,
	}, nil
}

// LoadPlain reads a user without locking.
func (l *Ledger) LoadPlain(ctx context.Context, username string) (*models.User, error) {
	user, err := l.store.Users().GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, persistence("load", err)
	}
	return user, nil
}

// AddTurns increments turns in one atomic statement. It skips the in-process
// per-username lock; on Postgres it can still wait briefly for the row lock of
// an in-flight guess, and its increment lands on top of that guess's commit.
func (l *Ledger) AddTurns(ctx context.Context, username string, n int) (int, error) {
	if n <= 0 {
		return 0, fmt.Errorf("%w: turns to add must be positive", common.ErrorValidation)
	}
	turns, err := l.store.Users().AddTurns(ctx, username, n)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return 0, common.ErrorNotFound
		}
		return 0, persistence("add turns", err)
	}
	return turns, nil
}

// Top returns the leaderboard, highest score first.
func (l *Ledger) Top(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	entries, err := l.store.Users().TopByScore(ctx, limit)
	if err != nil {
		return nil, persistence("leaderboard", err)
	}
	return entries, nil
}

// Hold is an exclusive, transactional view of one user's record.
type Hold struct {
	tx        Tx
	release   func()
	snapshot  models.User
	record    *models.User
	committed bool
	done      bool
	once      sync.Once
}

// Record is the in-memory copy callers mutate before Commit.
func (h *Hold) Record() *models.User {
	return h.record
}

// FindGuess looks up a journaled guess by idempotency key inside the held
// transaction. It returns common.ErrorNotFound when none exists.
func (h *Hold) FindGuess(ctx context.Context, requestID string) (*models.Guess, error) {
	g, err := h.tx.Guesses().FindByRequestID(ctx, h.snapshot.Username, requestID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, persistence("find guess", err)
	}
	return g, nil
}

// Commit writes the change made to Record, appends entry to the journal when
// it is non-nil, and releases the hold. The hold is released on failure too.
func (h *Hold) Commit(ctx context.Context, entry *models.Guess) error {
	if h.done {
		return fmt.Errorf("%w: hold already released", common.ErrPersistence)
	}
	defer h.Release()

	dTurns := h.record.Turns - h.snapshot.Turns
	dScore := h.record.Score - h.snapshot.Score
	if h.record.Turns < 0 || dScore < 0 {
		return fmt.Errorf("%w: turns must stay non-negative and score may not decrease", common.ErrorValidation)
	}

	turns, score, err := h.tx.Users().ApplyDelta(ctx, h.snapshot.Username, dTurns, dScore)
	if err != nil {
		return persistence("apply delta", err)
	}
	h.record.Turns, h.record.Score = turns, score

	if entry != nil {
		entry.Username = h.snapshot.Username
		entry.TurnsAfter = turns
		entry.ScoreAfter = score
		if _, err := h.tx.Guesses().Create(ctx, entry); err != nil {
			return persistence("journal", err)
		}
	}

	if err := h.tx.Commit(); err != nil {
		return persistence("commit", err)
	}
	h.committed = true
	return nil
}

// Release rolls back an uncommitted hold and frees the username. It is a
// no-op after the first call.
func (h *Hold) Release() {
	h.once.Do(func() {
		h.done = true
		if !h.committed {
			_ = h.tx.Rollback()
		}
		h.release()
	})
}
