// Package presence tracks which users currently hold a relay connection.
// The redis record is advisory only; the in-process Connection Registry is
// the source of truth for delivery.
package presence

import (
	"context"
	"time"

	"university-chat/backend/pkg/logger"
	"university-chat/backend/pkg/resilience"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "presence:"

// Tracker records online/offline status in redis with a TTL so abandoned
// entries expire on their own. All operations are best-effort: a failing
// redis never affects message delivery.
type Tracker struct {
	client  *redis.Client
	ttl     time.Duration
	breaker *resilience.CircuitBreaker
	log     *logger.Logger
}

// NewTracker creates a presence tracker backed by the given redis client
func NewTracker(client *redis.Client, ttl time.Duration, log *logger.Logger) *Tracker {
	if ttl <= 0 {
		ttl = 90 * time.Second
	}
	return &Tracker{
		client:  client,
		ttl:     ttl,
		breaker: resilience.New(resilience.DefaultConfig("presence-redis"), log),
		log:     log,
	}
}

// MarkOnline records that a user holds a live connection
func (t *Tracker) MarkOnline(ctx context.Context, identity string) {
	if t == nil || t.client == nil {
		return
	}
	err := t.breaker.Execute(func() error {
		return t.client.Set(ctx, keyPrefix+identity, time.Now().UTC().Format(time.RFC3339), t.ttl).Err()
	})
	if err != nil {
		t.log.Debug("presence mark online failed", "identity", identity, "error", err.Error())
	}
}

// Refresh extends the TTL for a user that is still connected
func (t *Tracker) Refresh(ctx context.Context, identity string) {
	if t == nil || t.client == nil {
		return
	}
	err := t.breaker.Execute(func() error {
		return t.client.Expire(ctx, keyPrefix+identity, t.ttl).Err()
	})
	if err != nil {
		t.log.Debug("presence refresh failed", "identity", identity, "error", err.Error())
	}
}

// MarkOffline clears the presence record for a user
func (t *Tracker) MarkOffline(ctx context.Context, identity string) {
	if t == nil || t.client == nil {
		return
	}
	err := t.breaker.Execute(func() error {
		return t.client.Del(ctx, keyPrefix+identity).Err()
	})
	if err != nil {
		t.log.Debug("presence mark offline failed", "identity", identity, "error", err.Error())
	}
}

// IsOnline reports whether a presence record exists for the user. Errors are
// reported as offline.
func (t *Tracker) IsOnline(ctx context.Context, identity string) bool {
	if t == nil || t.client == nil {
		return false
	}
	var count int64
	err := t.breaker.Execute(func() error {
		var execErr error
		count, execErr = t.client.Exists(ctx, keyPrefix+identity).Result()
		return execErr
	})
	return err == nil && count > 0
}

// Ping checks the redis connection for health reporting
func (t *Tracker) Ping(ctx context.Context) error {
	if t == nil || t.client == nil {
		return nil
	}
	return t.client.Ping(ctx).Err()
}

// NewRedisClient builds a redis client from address and credentials
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}
