package changefeed

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisBroker fans events out across instances using Redis pub/sub.
// Channel names are the topic with a configurable prefix.
type RedisBroker struct {
	rdb    *redis.Client
	prefix string
	log    *zap.Logger

	mu     sync.Mutex
	closed bool
}

// NewRedisBroker wraps an existing client. The caller owns the client and
// closes it on shutdown.
func NewRedisBroker(rdb *redis.Client, prefix string, logger *zap.Logger) *RedisBroker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisBroker{rdb: rdb, prefix: prefix, log: logger}
}

func (b *RedisBroker) channel(topic string) string { return b.prefix + topic }

func (b *RedisBroker) Publish(ctx context.Context, ev Event) error {
	if b.isClosed() {
		return ErrClosed
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, b.channel(ev.Topic), payload).Err()
}

func (b *RedisBroker) Subscribe(ctx context.Context, topics ...string) (*Subscription, error) {
	if b.isClosed() {
		return nil, ErrClosed
	}
	channels := make([]string, len(topics))
	for i, t := range topics {
		channels[i] = b.channel(t)
	}

	ps := b.rdb.Subscribe(ctx, channels...)
	// Receive blocks until the subscription is confirmed so that events
	// published right after Subscribe returns are not lost.
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, err
	}

	out := make(chan Event, subscriberBuffer)
	done := make(chan struct{})
	var once sync.Once
	stop := func() { once.Do(func() { close(done) }) }

	go func() {
		defer close(out)
		defer ps.Close()
		in := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case <-done:
				return
			case msg, ok := <-in:
				if !ok {
					return
				}
				var ev Event
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					b.log.Warn("changefeed: dropping malformed event",
						zap.String("channel", msg.Channel), zap.Error(err))
					continue
				}
				select {
				case out <- ev:
				default:
				}
			}
		}
	}()

	return &Subscription{C: out, close: stop}, nil
}

func (b *RedisBroker) isClosed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

// Close stops accepting new publishes and subscriptions. Existing
// subscriptions end when their context is cancelled.
func (b *RedisBroker) Close() error {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
	return nil
}
