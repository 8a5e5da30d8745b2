// services/run_guard.go
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RunGuard lets at most one pipeline run proceed at a time.
// ok is false when another run holds the slot; release must be called when ok is true.
type RunGuard interface {
	TryAcquire(ctx context.Context) (release func(), ok bool, err error)
}

// LocalRunGuard is a single-slot semaphore for one process.
type LocalRunGuard struct {
	slot chan struct{}
}

func NewLocalRunGuard() *LocalRunGuard {
	return &LocalRunGuard{slot: make(chan struct{}, 1)}
}

func (g *LocalRunGuard) TryAcquire(ctx context.Context) (func(), bool, error) {
	select {
	case g.slot <- struct{}{}:
		return func() { <-g.slot }, true, nil
	default:
		return nil, false, nil
	}
}

// releaseScript deletes the lock only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// RedisRunGuard shares the slot between replicas with SET NX PX.
// The TTL bounds how long a crashed holder can block later runs.
type RedisRunGuard struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

func NewRedisRunGuard(client *redis.Client, key string, ttl time.Duration) *RedisRunGuard {
	if key == "" {
		key = "lashapp-notifier:run"
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &RedisRunGuard{client: client, key: key, ttl: ttl}
}

// NewRedisClient parses a redis:// URL.
func NewRedisClient(redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	return redis.NewClient(opts), nil
}

func (g *RedisRunGuard) TryAcquire(ctx context.Context) (func(), bool, error) {
	token := uuid.NewString()
	ok, err := g.client.SetNX(ctx, g.key, token, g.ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("acquire run lock: %w", err)
	}
	if !ok {
		return nil, false, nil
	}

	release := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = releaseScript.Run(ctx, g.client, []string{g.key}, token).Err()
	}
	return release, true, nil
}
