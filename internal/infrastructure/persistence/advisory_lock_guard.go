package persistence

import (
	"context"
	"errors"
	"hash/fnv"
	"strconv"
	"time"

	"github.com/erp/tempcredit/internal/domain/tempcredit"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// lockNotAvailable is the SQLSTATE postgres raises when lock_timeout expires
const lockNotAvailable = "55P03"

// AdvisoryLockGuard serializes submissions per customer, and per shared pool,
// with transaction scoped postgres advisory locks. The lock and every write made through the
// context passed to fn share one transaction, so the lock is held until the
// commit is visible to the next waiter.
type AdvisoryLockGuard struct {
	db   *gorm.DB
	wait time.Duration
}

// NewAdvisoryLockGuard creates a guard that waits at most wait for the lock
func NewAdvisoryLockGuard(db *gorm.DB, wait time.Duration) *AdvisoryLockGuard {
	return &AdvisoryLockGuard{db: db, wait: wait}
}

// WithCustomerLock implements tempcredit.CustomerGuard
func (g *AdvisoryLockGuard) WithCustomerLock(ctx context.Context, customerID uuid.UUID, fn func(ctx context.Context) error) error {
	return g.withKey(ctx, CustomerLockKey(customerID), fn)
}

// WithPoolLock implements tempcredit.CustomerGuard. Called inside
// WithCustomerLock it joins the customer lock's transaction, so both locks are
// released by the same commit.
func (g *AdvisoryLockGuard) WithPoolLock(ctx context.Context, pool string, fn func(ctx context.Context) error) error {
	return g.withKey(ctx, PoolLockKey(pool), fn)
}

func (g *AdvisoryLockGuard) withKey(ctx context.Context, key int64, fn func(ctx context.Context) error) error {
	if tx, ok := TxFromContext(ctx); ok {
		if err := g.lock(tx.WithContext(ctx), key); err != nil {
			return err
		}
		return fn(ctx)
	}
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := g.lock(tx, key); err != nil {
			return err
		}
		return fn(ContextWithTx(ctx, tx))
	})
}

func (g *AdvisoryLockGuard) lock(tx *gorm.DB, key int64) error {
	if err := tx.Exec("SELECT set_config('lock_timeout', ?, true)", strconv.FormatInt(g.wait.Milliseconds(), 10)).Error; err != nil {
		return err
	}
	if err := tx.Exec("SELECT pg_advisory_xact_lock(?)", key).Error; err != nil {
		if isLockNotAvailable(err) {
			return tempcredit.ErrLockTimeout
		}
		return err
	}
	return nil
}

// CustomerLockKey maps a customer onto the bigint advisory lock space
func CustomerLockKey(customerID uuid.UUID) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte("tempcredit:customer:"))
	_, _ = h.Write(customerID[:])
	return int64(h.Sum64())
}

// PoolLockKey maps a shared pool onto the bigint advisory lock space
func PoolLockKey(pool string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte("tempcredit:pool:"))
	_, _ = h.Write([]byte(pool))
	return int64(h.Sum64())
}

func isLockNotAvailable(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == lockNotAvailable
}

var _ tempcredit.CustomerGuard = (*AdvisoryLockGuard)(nil)
