// Package lock serializes ledger postings per customer across processes.
package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"salesledger/internal/apperrors"
)

// Locker hands out exclusive, expiring holds on a key.
type Locker interface {
	// Acquire blocks until the key is held or the wait expires. The returned
	// release func must be called exactly once.
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// CustomerKey is the lock key for every posting that touches a customer's ledger.
func CustomerKey(customerID fmt.Stringer) string {
	return "customer-ledger:" + customerID.String()
}

// LocalLocker is an in-process keyed mutex. Used when Redis is not configured.
// A key's slot lives only while someone holds or waits on it.
type LocalLocker struct {
	mu    sync.Mutex
	slots map[string]*slot
	wait  time.Duration
}

type slot struct {
	ch   chan struct{}
	refs int
}

func NewLocalLocker(wait time.Duration) *LocalLocker {
	return &LocalLocker{slots: make(map[string]*slot), wait: wait}
}

func (l *LocalLocker) join(key string) *slot {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.slots[key]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		l.slots[key] = s
	}
	s.refs++
	return s
}

func (l *LocalLocker) leave(key string, s *slot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s.refs--
	if s.refs == 0 {
		delete(l.slots, key)
	}
}

func (l *LocalLocker) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.slots)
}

func (l *LocalLocker) Acquire(ctx context.Context, key string) (func(), error) {
	s := l.join(key)
	timer := time.NewTimer(l.wait)
	defer timer.Stop()

	select {
	case s.ch <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-s.ch
				l.leave(key, s)
			})
		}, nil
	case <-timer.C:
		l.leave(key, s)
		return nil, fmt.Errorf("%w: lock %s not obtained within %s", apperrors.ErrConcurrencyConflict, key, l.wait)
	case <-ctx.Done():
		l.leave(key, s)
		return nil, fmt.Errorf("%w: lock %s: %v", apperrors.ErrConcurrencyConflict, key, ctx.Err())
	}
}
