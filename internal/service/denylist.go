package service

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const denylistPrefix = "denylist:"

// RedisDenylist stores revoked access-token ids in Redis with a TTL equal
// to the token's remaining lifetime. A nil client disables the denylist:
// nothing is recorded and every token is reported as not revoked.
type RedisDenylist struct {
	rdb *redis.Client
}

func NewRedisDenylist(rdb *redis.Client) *RedisDenylist { return &RedisDenylist{rdb: rdb} }

// Revoke denylists jti until the given instant. Already expired tokens are
// not recorded.
func (d *RedisDenylist) Revoke(ctx context.Context, jti string, until time.Time) error {
	if d.rdb == nil || jti == "" {
		return nil
	}
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	return d.rdb.Set(ctx, denylistPrefix+jti, 1, ttl).Err()
}

// IsRevoked reports whether jti has been denylisted.
func (d *RedisDenylist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if d.rdb == nil || jti == "" {
		return false, nil
	}
	n, err := d.rdb.Exists(ctx, denylistPrefix+jti).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
