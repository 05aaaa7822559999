package cache

import (
	"context"
	"testing"
	"time"

	"github.com/Domenick1991/ticketqueue/config"
	"github.com/stretchr/testify/assert"
)

func TestKeys(t *testing.T) {
	assert.Equal(t, "cache:event:42:ticket_types", ticketTypesKey(42))
	assert.Equal(t, "lock:sweeper", sweepLockKey())
}

func TestNewRedisCache(t *testing.T) {
	c := NewRedisCache(config.RedisConfig{Addr: "localhost:6379", DB: 2}, 5*time.Second)
	defer c.Close()

	assert.NotNil(t, c.client)
	assert.Equal(t, 5*time.Second, c.ticketTypesTTL)
	assert.Equal(t, 2, c.client.Options().DB)
}

func TestRedisCache_Unreachable(t *testing.T) {
	c := NewRedisCache(config.RedisConfig{Addr: "127.0.0.1:1"}, time.Second)
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, ok, err := c.AcquireSweepLock(ctx, time.Second)
	assert.Error(t, err)
	assert.False(t, ok)

	types, err := c.GetTicketTypes(ctx, 1)
	assert.Error(t, err)
	assert.Nil(t, types)
}
