package querycache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-faster/errors"
	"github.com/redis/go-redis/v9"
)

// RedisBackend keeps entries under "<namespace>:<scope>:<key>" so a scope clears with one SCAN.
type RedisBackend struct {
	client    redis.UniversalClient
	namespace string
	ttl       time.Duration
}

var _ Backend = (*RedisBackend)(nil)

func NewRedisBackend(client redis.UniversalClient, namespace string, ttl time.Duration) *RedisBackend {
	if namespace == "" {
		namespace = "qc"
	}
	return &RedisBackend{client: client, namespace: namespace, ttl: ttl}
}

func (b *RedisBackend) redisKey(scope Scope, key string) string {
	return b.namespace + ":" + string(scope) + ":" + key
}

func (b *RedisBackend) Get(ctx context.Context, scope Scope, key string) (Entry, bool, error) {
	raw, err := b.client.Get(ctx, b.redisKey(scope, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, errors.Wrap(err, "redis get")
	}
	var e Entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return Entry{}, false, errors.Wrap(err, "decode cache entry")
	}
	return e, true, nil
}

func (b *RedisBackend) Set(ctx context.Context, e Entry) error {
	raw, err := json.Marshal(e)
	if err != nil {
		return errors.Wrap(err, "encode cache entry")
	}
	if err := b.client.Set(ctx, b.redisKey(e.Scope, e.Key), raw, b.ttl).Err(); err != nil {
		return errors.Wrap(err, "redis set")
	}
	return nil
}

func (b *RedisBackend) Delete(ctx context.Context, scope Scope, key string) error {
	if err := b.client.Del(ctx, b.redisKey(scope, key)).Err(); err != nil {
		return errors.Wrap(err, "redis del")
	}
	return nil
}

func (b *RedisBackend) DeleteScope(ctx context.Context, scope Scope) (int, error) {
	pattern := b.namespace + ":" + string(scope) + ":*"
	var (
		cursor  uint64
		removed int
	)
	for {
		keys, next, err := b.client.Scan(ctx, cursor, pattern, 256).Result()
		if err != nil {
			return removed, errors.Wrap(err, "redis scan")
		}
		if len(keys) > 0 {
			n, err := b.client.Del(ctx, keys...).Result()
			if err != nil {
				return removed, errors.Wrap(err, "redis del")
			}
			removed += int(n)
		}
		cursor = next
		if cursor == 0 {
			return removed, nil
		}
	}
}
