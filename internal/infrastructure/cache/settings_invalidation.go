package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	defaultInvalidationChannel = "tempcredit:settings:invalidate"
	defaultCloseTimeout        = 5 * time.Second
)

// SettingsUpdateMessage announces a settings write to the other instances
type SettingsUpdateMessage struct {
	Origin    string `json:"origin"`
	Timestamp int64  `json:"timestamp"`
}

// SettingsPublisher broadcasts settings writes
type SettingsPublisher interface {
	Publish(ctx context.Context, msg SettingsUpdateMessage) error
}

// SettingsInvalidator fans settings writes out over Redis Pub/Sub so every
// instance drops its L1 copy instead of serving it until the TTL runs out
type SettingsInvalidator struct {
	client    redis.UniversalClient
	channel   string
	logger    *zap.Logger
	cancelFn  context.CancelFunc
	doneCh    chan struct{}
	doneOnce  sync.Once
	mu        sync.Mutex
	isRunning bool
}

// SettingsInvalidatorOption configures a SettingsInvalidator
type SettingsInvalidatorOption func(*SettingsInvalidator)

// WithInvalidationChannel sets the Pub/Sub channel name
func WithInvalidationChannel(channel string) SettingsInvalidatorOption {
	return func(i *SettingsInvalidator) {
		i.channel = channel
	}
}

// WithInvalidatorLogger sets the logger
func WithInvalidatorLogger(logger *zap.Logger) SettingsInvalidatorOption {
	return func(i *SettingsInvalidator) {
		i.logger = logger
	}
}

// NewSettingsInvalidator creates an invalidator on a shared client. The caller
// keeps ownership of the client.
func NewSettingsInvalidator(client redis.UniversalClient, opts ...SettingsInvalidatorOption) *SettingsInvalidator {
	i := &SettingsInvalidator{
		client:  client,
		channel: defaultInvalidationChannel,
		logger:  zap.NewNop(),
		doneCh:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Publish implements SettingsPublisher
func (i *SettingsInvalidator) Publish(ctx context.Context, msg SettingsUpdateMessage) error {
	if msg.Timestamp == 0 {
		msg.Timestamp = time.Now().UnixNano()
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	if err := i.client.Publish(ctx, i.channel, data).Err(); err != nil {
		i.logger.Error("Failed to publish settings invalidation",
			zap.String("channel", i.channel),
			zap.Error(err))
		return fmt.Errorf("failed to publish message: %w", err)
	}
	return nil
}

// Subscribe blocks delivering messages to callback until ctx is done or
// Close is called. Run it in its own goroutine.
func (i *SettingsInvalidator) Subscribe(ctx context.Context, callback func(msg SettingsUpdateMessage)) error {
	i.mu.Lock()
	if i.isRunning {
		i.mu.Unlock()
		return fmt.Errorf("subscription already running")
	}
	subCtx, cancel := context.WithCancel(ctx)
	i.isRunning = true
	i.cancelFn = cancel
	i.mu.Unlock()

	defer func() {
		i.mu.Lock()
		i.isRunning = false
		i.mu.Unlock()
		i.markDone()
	}()

	pubsub := i.client.Subscribe(subCtx, i.channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(subCtx); err != nil {
		return fmt.Errorf("failed to subscribe to channel: %w", err)
	}
	i.logger.Info("Subscribed to settings invalidation channel", zap.String("channel", i.channel))

	ch := pubsub.Channel()
	for {
		select {
		case <-subCtx.Done():
			i.logger.Info("Settings invalidation subscription stopped")
			return subCtx.Err()
		case msg, ok := <-ch:
			if !ok {
				i.logger.Warn("Settings invalidation channel closed")
				return nil
			}
			var update SettingsUpdateMessage
			if err := json.Unmarshal([]byte(msg.Payload), &update); err != nil {
				i.logger.Error("Failed to unmarshal settings invalidation",
					zap.String("payload", msg.Payload),
					zap.Error(err))
				continue
			}
			callback(update)
		}
	}
}

func (i *SettingsInvalidator) markDone() {
	i.doneOnce.Do(func() {
		close(i.doneCh)
	})
}

// Close stops a running subscription
func (i *SettingsInvalidator) Close() error {
	i.mu.Lock()
	cancelFn := i.cancelFn
	i.mu.Unlock()

	if cancelFn == nil {
		return nil
	}
	cancelFn()
	select {
	case <-i.doneCh:
	case <-time.After(defaultCloseTimeout):
		i.logger.Warn("Timeout waiting for subscription to stop")
	}
	return nil
}

var _ SettingsPublisher = (*SettingsInvalidator)(nil)
