package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "chat:history:"

// RedisCache stores each token's history as a capped Redis list so that
// several server instances see the same conversation.
type RedisCache struct {
	rdb redis.UniversalClient
	ttl time.Duration
}

// NewRedisCache keeps idle histories for ttl; zero disables expiry.
func NewRedisCache(rdb redis.UniversalClient, ttl time.Duration) *RedisCache {
	return &RedisCache{rdb: rdb, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]Entry, error) {
	raw, err := c.rdb.LRange(ctx, keyPrefix+key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("history lrange: %w", err)
	}
	return decode(raw)
}

func (c *RedisCache) Append(ctx context.Context, key string, user, assistant Entry) ([]Entry, error) {
	u, err := json.Marshal(user)
	if err != nil {
		return nil, err
	}
	a, err := json.Marshal(assistant)
	if err != nil {
		return nil, err
	}

	k := keyPrefix + key
	var lr *redis.StringSliceCmd
	_, err = c.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.RPush(ctx, k, u, a)
		p.LTrim(ctx, k, -MaxEntries, -1)
		if c.ttl > 0 {
			p.Expire(ctx, k, c.ttl)
		}
		lr = p.LRange(ctx, k, 0, -1)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("history append: %w", err)
	}
	return decode(lr.Val())
}

func decode(raw []string) ([]Entry, error) {
	out := make([]Entry, 0, len(raw))
	for _, s := range raw {
		var e Entry
		if err := json.Unmarshal([]byte(s), &e); err != nil {
			return nil, fmt.Errorf("history decode: %w", err)
		}
		out = append(out, e)
	}
	return out, nil
}
