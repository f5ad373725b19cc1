package live

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisBroker implements Broker on Redis pub/sub. Payloads carry no data,
// the message itself is the signal.
type RedisBroker struct {
	rdb *redis.Client
}

func NewRedisBroker(rdb *redis.Client) *RedisBroker {
	return &RedisBroker{rdb: rdb}
}

func (b *RedisBroker) Publish(ctx context.Context, channel string) error {
	if err := b.rdb.Publish(ctx, channel, "1").Err(); err != nil {
		return fmt.Errorf("publish %s: %w", channel, err)
	}
	return nil
}

func (b *RedisBroker) Subscribe(ctx context.Context, channel string) (Subscription, error) {
	pubsub := b.rdb.Subscribe(ctx, channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribe %s: %w", channel, err)
	}

	sub := &redisSubscription{pubsub: pubsub, ch: make(chan struct{}, 1)}
	go sub.forward()
	return sub, nil
}

type redisSubscription struct {
	pubsub *redis.PubSub
	ch     chan struct{}
}

// forward coalesces bursts: a signal already pending means the watcher will
// re-read anyway, so further messages are dropped rather than queued.
func (s *redisSubscription) forward() {
	defer close(s.ch)
	for range s.pubsub.Channel() {
		select {
		case s.ch <- struct{}{}:
		default:
		}
	}
}

func (s *redisSubscription) C() <-chan struct{} { return s.ch }

func (s *redisSubscription) Close() error { return s.pubsub.Close() }
