package mirror

import (
	"context"
	"courier-service/internal/platform/obs"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis-backed WorkflowMirror.
//
// Every key is written with a TTL so abandoned sessions expire on their own,
// like session storage going away with its tab. A zero TTL keeps keys forever.
type RedisMirror struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisMirror(client *redis.Client, prefix string, ttl time.Duration) *RedisMirror {
	return &RedisMirror{client: client, prefix: prefix, ttl: ttl}
}

func (r *RedisMirror) key(k string) string { return r.prefix + k }

func (r *RedisMirror) Get(ctx context.Context, key string) (_ string, _ bool, err error) {
	defer obs.Time(ctx, "mirror.redis.Get")(&err)

	if r.client == nil {
		return "", false, errors.New("redis mirror: client is nil")
	}

	v, err := r.client.Get(ctx, r.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis mirror: get %q: %w", key, err)
	}
	return v, true, nil
}

func (r *RedisMirror) Set(ctx context.Context, key, value string) (err error) {
	defer obs.Time(ctx, "mirror.redis.Set")(&err)

	if r.client == nil {
		return errors.New("redis mirror: client is nil")
	}

	if err := r.client.Set(ctx, r.key(key), value, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis mirror: set %q: %w", key, err)
	}
	return nil
}

func (r *RedisMirror) Delete(ctx context.Context, keys ...string) (err error) {
	defer obs.Time(ctx, "mirror.redis.Delete")(&err)

	if r.client == nil {
		return errors.New("redis mirror: client is nil")
	}
	if len(keys) == 0 {
		return nil
	}

	full := make([]string, 0, len(keys))
	for _, k := range keys {
		full = append(full, r.key(k))
	}
	if err := r.client.Del(ctx, full...).Err(); err != nil {
		return fmt.Errorf("redis mirror: delete %d keys: %w", len(keys), err)
	}
	return nil
}
