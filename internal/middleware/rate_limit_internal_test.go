package middleware

import (
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisStore_Limit(t *testing.T) {
	t.Parallel()

	logger := zerolog.Nop()
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	t.Cleanup(func() { _ = client.Close() })

	assert.EqualValues(t, 1, newRedisStore(client, &logger, 0.2).limit)
	assert.EqualValues(t, 5, newRedisStore(client, &logger, 4.5).limit)
}

func TestRedisStore_KeyUsesSecondWindow(t *testing.T) {
	t.Parallel()

	logger := zerolog.Nop()
	store := newRedisStore(redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"}), &logger, 10)
	store.now = func() time.Time { return time.Unix(1700000000, 0) }

	assert.Equal(t, "base-api:rate_limit:10.0.0.1:1700000000", store.key("10.0.0.1"))
}

func TestRedisStore_FailsOpen(t *testing.T) {
	t.Parallel()

	logger := zerolog.Nop()
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })

	allowed, err := newRedisStore(client, &logger, 1).Allow("10.0.0.1")
	require.NoError(t, err)
	assert.True(t, allowed)
}
