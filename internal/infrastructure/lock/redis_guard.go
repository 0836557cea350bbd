package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avast/retry-go/v5"
	"github.com/erp/tempcredit/internal/domain/tempcredit"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const defaultKeyPrefix = "tempcredit:lock:"

// errLockHeld is returned by a single acquisition attempt while another holder owns the key
var errLockHeld = errors.New("lock held")

// releaseScript deletes the key only if it still carries our token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisGuard serializes submissions per customer and per shared pool across
// instances with one Redis key per customer or pool. The key expires after ttl so a crashed holder
// cannot block a customer forever; ttl must exceed the longest submission.
type RedisGuard struct {
	client    redis.UniversalClient
	wait      time.Duration
	ttl       time.Duration
	keyPrefix string
	logger    *zap.Logger
}

// RedisGuardOption configures a RedisGuard
type RedisGuardOption func(*RedisGuard)

// WithKeyPrefix overrides the Redis key prefix
func WithKeyPrefix(prefix string) RedisGuardOption {
	return func(g *RedisGuard) {
		g.keyPrefix = prefix
	}
}

// WithLogger sets the logger used for release failures
func WithLogger(logger *zap.Logger) RedisGuardOption {
	return func(g *RedisGuard) {
		g.logger = logger
	}
}

// NewRedisGuard creates a guard backed by client
func NewRedisGuard(client redis.UniversalClient, wait, ttl time.Duration, opts ...RedisGuardOption) *RedisGuard {
	g := &RedisGuard{
		client:    client,
		wait:      wait,
		ttl:       ttl,
		keyPrefix: defaultKeyPrefix,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// WithCustomerLock implements tempcredit.CustomerGuard
func (g *RedisGuard) WithCustomerLock(ctx context.Context, customerID uuid.UUID, fn func(ctx context.Context) error) error {
	return g.withKey(ctx, g.keyPrefix+"customer:"+customerID.String(), fn)
}

// WithPoolLock implements tempcredit.CustomerGuard
func (g *RedisGuard) WithPoolLock(ctx context.Context, pool string, fn func(ctx context.Context) error) error {
	return g.withKey(ctx, g.keyPrefix+"pool:"+pool, fn)
}

func (g *RedisGuard) withKey(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	token := uuid.NewString()

	if err := g.acquire(ctx, key, token); err != nil {
		return err
	}
	defer g.release(key, token)

	return fn(ctx)
}

func (g *RedisGuard) acquire(ctx context.Context, key, token string) error {
	waitCtx, cancel := context.WithTimeout(ctx, g.wait)
	defer cancel()

	r := retry.New(
		retry.Context(waitCtx),
		retry.Attempts(0),
		retry.Delay(10*time.Millisecond),
		retry.MaxDelay(200*time.Millisecond),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return errors.Is(err, errLockHeld)
		}),
		retry.DelayType(func(n uint, err error, config retry.DelayContext) time.Duration {
			return retry.BackOffDelay(n, err, config)
		}),
	)

	err := r.Do(func() error {
		ok, err := g.client.SetNX(waitCtx, key, token, g.ttl).Result()
		if err != nil {
			return err
		}
		if !ok {
			return errLockHeld
		}
		return nil
	})
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if errors.Is(err, errLockHeld) || errors.Is(err, context.DeadlineExceeded) {
		return tempcredit.ErrLockTimeout
	}
	return fmt.Errorf("acquire lock %s: %w", key, err)
}

// release runs on a fresh context so that a cancelled request still frees the key
func (g *RedisGuard) release(key, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := releaseScript.Run(ctx, g.client, []string{key}, token).Err(); err != nil {
		g.logger.Warn("Failed to release lock, it will expire",
			zap.String("key", key),
			zap.Error(err))
	}
}

var _ tempcredit.CustomerGuard = (*RedisGuard)(nil)
