package ledger

import (
	"context"
	"sync"
)

// KeyLocks is a table of per-key mutexes whose waits can be bounded by a
// context. Entries are dropped once no goroutine holds or waits on them.
type KeyLocks struct {
	mu    sync.Mutex
	slots map[string]*slot
}

type slot struct {
	ch   chan struct{}
	refs int
}

func NewKeyLocks() *KeyLocks {
	return &KeyLocks{slots: make(map[string]*slot)}
}

// Acquire blocks until key is free or ctx is done. The returned release func
// is safe to call more than once.
func (k *KeyLocks) Acquire(ctx context.Context, key string) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	k.mu.Lock()
	s, ok := k.slots[key]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		k.slots[key] = s
	}
	s.refs++
	k.mu.Unlock()

	select {
	case s.ch <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-s.ch
				k.unref(key, s)
			})
		}, nil
	case <-ctx.Done():
		k.unref(key, s)
		return nil, ctx.Err()
	}
}

func (k *KeyLocks) unref(key string, s *slot) {
	k.mu.Lock()
	defer k.mu.Unlock()
	s.refs--
	if s.refs == 0 {
		delete(k.slots, key)
	}
}

// Len reports how many keys are currently held or awaited.
func (k *KeyLocks) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.slots)
}
