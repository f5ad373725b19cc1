// Package live fans change notifications out to watchers of a record
// collection. Notifications are wake-up signals only; subscribers re-read
// the collection to get the current state.
package live

import "context"

// Subscription delivers change signals for one channel. The signal channel
// is closed when the subscription ends.
type Subscription interface {
	C() <-chan struct{}
	Close() error
}

// Broker publishes and subscribes to per-scope change channels.
type Broker interface {
	Publish(ctx context.Context, channel string) error
	Subscribe(ctx context.Context, channel string) (Subscription, error)
}
