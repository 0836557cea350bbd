package lock

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/erp/tempcredit/internal/domain/tempcredit"
	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"
)

// MemoryGuard serializes submissions per customer and per shared pool within
// one process. It is meant for single-instance deployments and tests.
type MemoryGuard struct {
	wait time.Duration

	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	sem  *semaphore.Weighted
	refs int
}

// NewMemoryGuard creates a guard that waits at most wait for a customer
func NewMemoryGuard(wait time.Duration) *MemoryGuard {
	return &MemoryGuard{
		wait:  wait,
		locks: make(map[string]*keyLock),
	}
}

// WithCustomerLock implements tempcredit.CustomerGuard
func (g *MemoryGuard) WithCustomerLock(ctx context.Context, customerID uuid.UUID, fn func(ctx context.Context) error) error {
	return g.withKey(ctx, "customer:"+customerID.String(), fn)
}

// WithPoolLock implements tempcredit.CustomerGuard
func (g *MemoryGuard) WithPoolLock(ctx context.Context, pool string, fn func(ctx context.Context) error) error {
	return g.withKey(ctx, "pool:"+pool, fn)
}

func (g *MemoryGuard) withKey(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	l := g.acquireRef(key)
	defer g.releaseRef(key, l)

	waitCtx, cancel := context.WithTimeout(ctx, g.wait)
	err := l.sem.Acquire(waitCtx, 1)
	cancel()
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return tempcredit.ErrLockTimeout
		}
		return err
	}
	defer l.sem.Release(1)

	return fn(ctx)
}

// Len returns how many customers and pools currently have waiters or holders
func (g *MemoryGuard) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.locks)
}

func (g *MemoryGuard) acquireRef(key string) *keyLock {
	g.mu.Lock()
	defer g.mu.Unlock()
	l, ok := g.locks[key]
	if !ok {
		l = &keyLock{sem: semaphore.NewWeighted(1)}
		g.locks[key] = l
	}
	l.refs++
	return l
}

func (g *MemoryGuard) releaseRef(key string, l *keyLock) {
	g.mu.Lock()
	defer g.mu.Unlock()
	l.refs--
	if l.refs == 0 {
		delete(g.locks, key)
	}
}

var _ tempcredit.CustomerGuard = (*MemoryGuard)(nil)
