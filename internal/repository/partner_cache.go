package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"classroom_chat/internal/domain"
)

const PartnerCachePrefix = "chat:partners"

var ErrCacheMiss = errors.New("cache miss")

// Счетчик поколения живет дольше любого заполнения кэша
const partnerGenerationTTL = 24 * time.Hour

// PartnerCache хранит готовый список собеседников пользователя.
// Каждая инвалидация увеличивает поколение пользователя; запись, начатая в старом поколении, отбрасывается.
type PartnerCache interface {
	Get(ctx context.Context, userID int64) ([]*domain.ChatPartner, error)
	Generation(ctx context.Context, userID int64) (int64, error)
	// Set записывает список, только если поколение не менялось. false - запись отброшена.
	Set(ctx context.Context, userID, generation int64, partners []*domain.ChatPartner, ttl time.Duration) (bool, error)
	Invalidate(ctx context.Context, userIDs ...int64) error
}

// KEYS[1] - список, KEYS[2] - поколение; ARGV: поколение, данные, ttl в мс
var setIfGeneration = redis.NewScript(`
local gen = redis.call('GET', KEYS[2])
if not gen then gen = '0' end
if gen ~= ARGV[1] then return 0 end
if tonumber(ARGV[3]) > 0 then
	redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
else
	redis.call('SET', KEYS[1], ARGV[2])
end
return 1
`)

type redisPartnerCache struct {
	client *redis.Client
	prefix string
}

func NewRedisPartnerCache(client *redis.Client, prefix string) PartnerCache {
	return &redisPartnerCache{client: client, prefix: prefix}
}

func (c *redisPartnerCache) key(userID int64) string {
	return fmt.Sprintf("%s:%d", c.prefix, userID)
}

func (c *redisPartnerCache) generationKey(userID int64) string {
	return c.key(userID) + ":gen"
}

func (c *redisPartnerCache) Get(ctx context.Context, userID int64) ([]*domain.ChatPartner, error) {
	data, err := c.client.Get(ctx, c.key(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}

	var partners []*domain.ChatPartner
	if err := json.Unmarshal(data, &partners); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cache data: %w", err)
	}

	return partners, nil
}

func (c *redisPartnerCache) Generation(ctx context.Context, userID int64) (int64, error) {
	gen, err := c.client.Get(ctx, c.generationKey(userID)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get cache generation: %w", err)
	}
	return gen, nil
}

func (c *redisPartnerCache) Set(ctx context.Context, userID, generation int64, partners []*domain.ChatPartner, ttl time.Duration) (bool, error) {
	if partners == nil {
		partners = []*domain.ChatPartner{}
	}

	data, err := json.Marshal(partners)
	if err != nil {
		return false, fmt.Errorf("failed to marshal cache data: %w", err)
	}

	stored, err := setIfGeneration.Run(ctx, c.client,
		[]string{c.key(userID), c.generationKey(userID)},
		strconv.FormatInt(generation, 10), data, ttl.Milliseconds(),
	).Int()
	if err != nil {
		return false, fmt.Errorf("failed to set in redis: %w", err)
	}

	return stored == 1, nil
}

func (c *redisPartnerCache) Invalidate(ctx context.Context, userIDs ...int64) error {
	if len(userIDs) == 0 {
		return nil
	}

	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, id := range userIDs {
			pipe.Incr(ctx, c.generationKey(id))
			pipe.Expire(ctx, c.generationKey(id), partnerGenerationTTL)
			pipe.Del(ctx, c.key(id))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to invalidate in redis: %w", err)
	}

	return nil
}
