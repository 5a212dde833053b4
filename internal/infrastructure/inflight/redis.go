package inflight

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/riskibarqy/fantasy-prediction/internal/platform/logging"
)

const (
	defaultTTL = 10 * time.Second
	keyPrefix  = "fantasy-prediction:submit:"
)

// Deletes the key only while it still holds our token, so an expired lock
// that was taken over by another replica is never released by us.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisGuard shares in-flight submission keys across API replicas with
// SET NX PX. The ttl bounds how long a crashed holder blocks the key.
type RedisGuard struct {
	client *redis.Client
	ttl    time.Duration
	logger *logging.Logger
}

func NewRedisGuard(client *redis.Client, ttl time.Duration, logger *logging.Logger) *RedisGuard {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &RedisGuard{client: client, ttl: ttl, logger: logger}
}

func (g *RedisGuard) Acquire(ctx context.Context, key string) (func(), bool, error) {
	token := uuid.NewString()
	redisKey := keyPrefix + key

	ok, err := g.client.SetNX(ctx, redisKey, token, g.ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("acquire submit lock %s: %w", key, err)
	}
	if !ok {
		return nil, false, nil
	}

	release := func() {
		// Release must run even when the request context is already done.
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()

		if err := releaseScript.Run(releaseCtx, g.client, []string{redisKey}, token).Err(); err != nil && err != redis.Nil {
			g.logger.WarnContext(ctx, "release submit lock failed", "key", key, "error", err)
		}
	}
	return release, true, nil
}
