// Package replay remembers which TOTP time steps each principal has already
// used, so a code observed in transit cannot be presented a second time.
package replay

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultTTL outlives the widest accepted window (five 30 second steps).
const DefaultTTL = 5 * time.Minute

var ErrUnavailable = errors.New("replay: guard unavailable")

// RedisGuard claims steps with SETNX so concurrent presenters of the same
// code race on a single key.
type RedisGuard struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisGuard returns a guard keeping claims for ttl (DefaultTTL when
// ttl <= 0).
func NewRedisGuard(client *redis.Client, ttl time.Duration) *RedisGuard {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisGuard{client: client, prefix: "totp:step:", ttl: ttl}
}

func (g *RedisGuard) key(principalID string, step uint64) string {
	return g.prefix + principalID + ":" + strconv.FormatUint(step, 10)
}

// Claim records step for principalID. It reports false when the step was
// already claimed.
func (g *RedisGuard) Claim(ctx context.Context, principalID string, step uint64) (bool, error) {
	ok, err := g.client.SetNX(ctx, g.key(principalID, step), 1, g.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return ok, nil
}

// Ping checks the redis connection.
func (g *RedisGuard) Ping(ctx context.Context) error {
	if err := g.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}
