package cache

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/erp/tempcredit/internal/domain/shared"
	"github.com/erp/tempcredit/internal/domain/tempcredit"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

const defaultSettingsKey = "tempcredit:settings"

// SettingsCache serves the temp-credit settings snapshot.
// L1: per-instance copy with a short TTL
// L2: optional Redis JSON document shared across instances
// Reads fall through to the repository; a missing row yields DefaultSettings.
type SettingsCache struct {
	repo      tempcredit.SettingsRepository
	client    redis.UniversalClient
	breaker   *gobreaker.CircuitBreaker
	publisher SettingsPublisher
	origin    string
	key       string
	ttl       time.Duration
	logger    *zap.Logger

	mu      sync.RWMutex
	value   tempcredit.Settings
	expires time.Time
	loaded  bool

	l1Hits  int64
	l2Hits  int64
	dbLoads int64
}

// SettingsCacheOption configures a SettingsCache
type SettingsCacheOption func(*SettingsCache)

// WithRedis enables the shared L2 tier
func WithRedis(client redis.UniversalClient) SettingsCacheOption {
	return func(c *SettingsCache) {
		c.client = client
	}
}

// WithPublisher broadcasts every Invalidate so peers drop their L1 copy
func WithPublisher(p SettingsPublisher) SettingsCacheOption {
	return func(c *SettingsCache) {
		c.publisher = p
	}
}

// WithSettingsLogger sets the logger
func WithSettingsLogger(logger *zap.Logger) SettingsCacheOption {
	return func(c *SettingsCache) {
		c.logger = logger
	}
}

// NewSettingsCache creates a cache over repo. A zero ttl disables L1.
func NewSettingsCache(repo tempcredit.SettingsRepository, ttl time.Duration, opts ...SettingsCacheOption) *SettingsCache {
	c := &SettingsCache{
		repo:   repo,
		origin: uuid.NewString(),
		key:    defaultSettingsKey,
		ttl:    ttl,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "settings-redis",
		MaxRequests: 1,
		Interval:    30 * time.Second,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Warn("Circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
	return c
}

// Get returns the current settings snapshot
func (c *SettingsCache) Get(ctx context.Context) (tempcredit.Settings, error) {
	if s, ok := c.getL1(); ok {
		atomic.AddInt64(&c.l1Hits, 1)
		return s, nil
	}

	if s, ok := c.getL2(ctx); ok {
		atomic.AddInt64(&c.l2Hits, 1)
		c.setL1(s)
		return s, nil
	}

	atomic.AddInt64(&c.dbLoads, 1)
	saved, err := c.repo.Get(ctx)
	var s tempcredit.Settings
	switch {
	case err == nil:
		s = *saved
	case errors.Is(err, shared.ErrNotFound):
		s = tempcredit.DefaultSettings()
	default:
		return tempcredit.Settings{}, err
	}

	c.setL1(s)
	c.setL2(ctx, s)
	return s, nil
}

// Invalidate drops both tiers and, with a publisher, tells the other
// instances to drop their L1 copy
func (c *SettingsCache) Invalidate(ctx context.Context) error {
	c.dropL1()

	if c.client != nil {
		_, err := c.breaker.Execute(func() (interface{}, error) {
			return nil, c.client.Del(ctx, c.key).Err()
		})
		if err != nil {
			c.logger.Warn("Failed to invalidate settings in redis", zap.Error(err))
			return err
		}
	}

	if c.publisher != nil {
		if err := c.publisher.Publish(ctx, SettingsUpdateMessage{Origin: c.origin}); err != nil {
			// peers fall back to their L1 TTL
			c.logger.Warn("Failed to broadcast settings invalidation", zap.Error(err))
		}
	}
	return nil
}

// HandleUpdate consumes invalidations broadcast by other instances
func (c *SettingsCache) HandleUpdate(msg SettingsUpdateMessage) {
	if msg.Origin == c.origin {
		return
	}
	c.dropL1()
	c.logger.Debug("Settings L1 dropped on peer update", zap.String("origin", msg.Origin))
}

func (c *SettingsCache) dropL1() {
	c.mu.Lock()
	c.loaded = false
	c.mu.Unlock()
}

// SettingsCacheStats reports hit counters
type SettingsCacheStats struct {
	L1Hits  int64
	L2Hits  int64
	DBLoads int64
}

// Stats returns the hit counters
func (c *SettingsCache) Stats() SettingsCacheStats {
	return SettingsCacheStats{
		L1Hits:  atomic.LoadInt64(&c.l1Hits),
		L2Hits:  atomic.LoadInt64(&c.l2Hits),
		DBLoads: atomic.LoadInt64(&c.dbLoads),
	}
}

func (c *SettingsCache) getL1() (tempcredit.Settings, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.loaded || time.Now().After(c.expires) {
		return tempcredit.Settings{}, false
	}
	return c.value, true
}

func (c *SettingsCache) setL1(s tempcredit.Settings) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	c.value = s
	c.expires = time.Now().Add(c.ttl)
	c.loaded = true
	c.mu.Unlock()
}

func (c *SettingsCache) getL2(ctx context.Context) (tempcredit.Settings, bool) {
	if c.client == nil {
		return tempcredit.Settings{}, false
	}
	res, err := c.breaker.Execute(func() (interface{}, error) {
		data, err := c.client.Get(ctx, c.key).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return data, err
	})
	if err != nil {
		c.logger.Debug("Settings L2 read skipped", zap.Error(err))
		return tempcredit.Settings{}, false
	}
	data, _ := res.([]byte)
	if data == nil {
		return tempcredit.Settings{}, false
	}
	var s tempcredit.Settings
	if err := json.Unmarshal(data, &s); err != nil {
		c.logger.Warn("Discarding malformed cached settings", zap.Error(err))
		return tempcredit.Settings{}, false
	}
	return s, true
}

func (c *SettingsCache) setL2(ctx context.Context, s tempcredit.Settings) {
	if c.client == nil {
		return
	}
	data, err := json.Marshal(s)
	if err != nil {
		return
	}
	ttl := c.ttl
	if ttl <= 0 {
		ttl = time.Minute
	}
	_, err = c.breaker.Execute(func() (interface{}, error) {
		return nil, c.client.Set(ctx, c.key, data, ttl).Err()
	})
	if err != nil {
		c.logger.Debug("Settings L2 write skipped", zap.Error(err))
	}
}
