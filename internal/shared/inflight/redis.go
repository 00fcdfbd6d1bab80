package inflight

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"socioscan-backend/internal/shared/telemetry"
)

const keyPrefix = "socioscan:inflight:"

// releaseScript deletes the key only if this holder still owns it.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// RedisGuard shares leases across API replicas.
type RedisGuard struct {
	Client *redis.Client
	TTL    time.Duration
}

// NewRedisGuard connects to redisURL and checks the connection.
func NewRedisGuard(ctx context.Context, redisURL string, ttl time.Duration) (*RedisGuard, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	client := redis.NewClient(opt)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", opt.Addr, err)
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisGuard{Client: client, TTL: ttl}, nil
}

func (g *RedisGuard) Acquire(ctx context.Context, key string) (func(), error) {
	redisKey := keyPrefix + key
	token := uuid.NewString()
	ok, err := g.Client.SetNX(ctx, redisKey, token, g.TTL).Result()
	if err != nil {
		return nil, fmt.Errorf("inflight acquire: %w", err)
	}
	if !ok {
		return nil, ErrBusy
	}
	return func() {
		// The request context may already be done; release on a fresh one.
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := releaseScript.Run(releaseCtx, g.Client, []string{redisKey}, token).Err(); err != nil {
			telemetry.Warn("inflight.release_failed", map[string]any{"key": key, "error": err.Error()})
		}
	}, nil
}

func (g *RedisGuard) Close() error {
	return g.Client.Close()
}

// Ping reports whether Redis is reachable.
func (g *RedisGuard) Ping(ctx context.Context) error {
	return g.Client.Ping(ctx).Err()
}
