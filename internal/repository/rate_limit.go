package repository

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"classroom_chat/pkg/logger"
)

type RateLimitRepository interface {
	// Allow учитывает запрос в окне фиксированной длины и сообщает, укладывается ли он в лимит.
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, int, error)
}

// Окно отсчитывается от первого запроса; счетчик без TTL получает его на любом шаге.
var incrWindow = redis.NewScript(`
local count = redis.call('INCR', KEYS[1])
if redis.call('PTTL', KEYS[1]) < 0 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
return count
`)

type rateLimitRepository struct {
	redis *redis.Client
	log   logger.Logger
}

func NewRateLimitRepository(redis *redis.Client, log logger.Logger) RateLimitRepository {
	return &rateLimitRepository{redis: redis, log: log}
}

func (r *rateLimitRepository) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, int, error) {
	count, err := incrWindow.Run(ctx, r.redis, []string{key}, window.Milliseconds()).Int64()
	if err != nil {
		r.log.Error("Failed to increment rate limit", "error", err, "key", key)
		return false, 0, err
	}

	remaining := limit - int(count)
	if remaining < 0 {
		remaining = 0
	}

	return int(count) <= limit, remaining, nil
}
