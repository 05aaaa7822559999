package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/ticketqueue/config"
	"github.com/Domenick1991/ticketqueue/internal/domain"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the lock only while it still belongs to the caller.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type RedisCache struct {
	client         *redis.Client
	ticketTypesTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig, ticketTypesTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:         redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		ticketTypesTTL: ticketTypesTTL,
	}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

func (c *RedisCache) GetTicketTypes(ctx context.Context, eventID int64) ([]domain.TicketType, error) {
	data, err := c.client.Get(ctx, ticketTypesKey(eventID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var types []domain.TicketType
	if err := json.Unmarshal(data, &types); err != nil {
		return nil, err
	}
	return types, nil
}

func (c *RedisCache) SetTicketTypes(ctx context.Context, eventID int64, types []domain.TicketType) error {
	payload, err := json.Marshal(types)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, ticketTypesKey(eventID), payload, c.ticketTypesTTL).Err()
}

// AcquireSweepLock returns the owner token to pass to ReleaseSweepLock, and
// false when another worker holds the lock.
func (c *RedisCache) AcquireSweepLock(ctx context.Context, ttl time.Duration) (string, bool, error) {
	owner := uuid.NewString()
	ok, err := c.client.SetNX(ctx, sweepLockKey(), owner, ttl).Result()
	if err != nil {
		return "", false, err
	}
	return owner, ok, nil
}

func (c *RedisCache) ReleaseSweepLock(ctx context.Context, owner string) error {
	return releaseScript.Run(ctx, c.client, []string{sweepLockKey()}, owner).Err()
}

func ticketTypesKey(eventID int64) string {
	return fmt.Sprintf("cache:event:%d:ticket_types", eventID)
}

func sweepLockKey() string {
	return "lock:sweeper"
}
