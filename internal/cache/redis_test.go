package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()

	s := miniredis.RunT(t)
	r, err := NewRedis("redis://" + s.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return r, s
}

type payload struct {
	Text string `json:"text"`
}

func TestRedisJSON(t *testing.T) {
	r, s := setupTestRedis(t)
	ctx := context.Background()

	var got payload
	found, err := r.GetJSON(ctx, "quote", &got)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, r.SetJSON(ctx, "quote", payload{Text: "hi"}, time.Minute))

	found, err = r.GetJSON(ctx, "quote", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "hi", got.Text)

	s.FastForward(2 * time.Minute)
	found, err = r.GetJSON(ctx, "quote", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedisIncrWindow(t *testing.T) {
	r, s := setupTestRedis(t)
	ctx := context.Background()

	for i := int64(1); i <= 3; i++ {
		n, ttl, err := r.Incr(ctx, "rl:1.2.3.4", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, i, n)
		assert.Greater(t, ttl, time.Duration(0))
	}

	s.FastForward(61 * time.Second)

	n, _, err := r.Incr(ctx, "rl:1.2.3.4", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestNewRedisBadURL(t *testing.T) {
	_, err := NewRedis("not a url")
	assert.Error(t, err)
}
