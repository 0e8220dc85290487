// Package redis implements the direct-size broker capability over Redis
// list-based queues (Celery layout: one list per queue, keyed by the queue
// name).
//
// Usage:
//
//	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	ch, err := broker.Detect(redisbroker.New(client))
package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/workscale/backlog/broker"
)

// Compile-time capability check.
var _ broker.QueueSizer = (*Channel)(nil)

// Option configures the Channel.
type Option func(*Channel)

// WithKeyPrefix prepends a namespace to every queue key.
func WithKeyPrefix(prefix string) Option {
	return func(c *Channel) { c.prefix = prefix }
}

// Channel reads queue sizes with LLEN. A missing key reads as zero, so a
// queue that has not been used yet never fails.
type Channel struct {
	client redis.UniversalClient
	prefix string
}

// New creates a Channel over an existing Redis client. The client's
// lifecycle stays with the caller.
func New(client redis.UniversalClient, opts ...Option) *Channel {
	c := &Channel{client: client}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// QueueSize returns the length of the queue's backing list.
func (c *Channel) QueueSize(ctx context.Context, queue string) (int64, error) {
	n, err := c.client.LLen(ctx, c.prefix+queue).Result()
	if err != nil {
		return 0, fmt.Errorf("backlog/redis: llen %q: %w", queue, err)
	}
	return n, nil
}
