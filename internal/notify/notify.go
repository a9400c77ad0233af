// Package notify provides the outbound notification queue and message formatting.
// Delivery is handled by an external queue consumer; a successful enqueue is
// all the core ever observes.
package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// EmailQueueKey is the Redis list the external email consumer reads from.
const EmailQueueKey = "elevaite:email:queue"

// Message is one outbound email, correlated back to a user.
type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
	UserID  int64  `json:"user_id"`
}

// Queue is the interface for enqueueing outbound messages.
type Queue interface {
	Enqueue(ctx context.Context, msg Message) error
}

// RedisQueue implements Queue backed by a Redis list.
type RedisQueue struct {
	rdb *redis.Client
	key string
}

// NewRedisQueue creates a RedisQueue pushing to the default email queue key.
func NewRedisQueue(rdb *redis.Client) *RedisQueue {
	return &RedisQueue{rdb: rdb, key: EmailQueueKey}
}

// Enqueue pushes a message onto the queue. It does not wait for delivery.
func (q *RedisQueue) Enqueue(ctx context.Context, msg Message) error {
	raw, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	if err := q.rdb.LPush(ctx, q.key, raw).Err(); err != nil {
		return fmt.Errorf("enqueue message: %w", err)
	}
	return nil
}
