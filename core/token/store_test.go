package token

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewRedisStore(client), mr
}

func TestRedisStore(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore(t)

	const email = "jane@test.com"

	require.NoError(t, store.Save(ctx, email, "CODE1234", time.Minute))

	// A wrong guess leaves the code redeemable.
	assert.ErrorIs(t, store.Redeem(ctx, email, "WRONG123"), ErrNotFound)

	require.NoError(t, store.Redeem(ctx, email, "CODE1234"))

	// First use consumed it.
	assert.ErrorIs(t, store.Redeem(ctx, email, "CODE1234"), ErrNotFound)
}

func TestRedisStoreExpiry(t *testing.T) {
	ctx := context.Background()
	store, mr := newStore(t)

	const email = "jane@test.com"

	require.NoError(t, store.Save(ctx, email, "CODE1234", time.Minute))

	mr.FastForward(2 * time.Minute)

	assert.ErrorIs(t, store.Redeem(ctx, email, "CODE1234"), ErrNotFound)
}

func TestRedisStoreOverwrite(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore(t)

	const email = "jane@test.com"

	require.NoError(t, store.Save(ctx, email, "FIRST123", time.Minute))
	require.NoError(t, store.Save(ctx, email, "SECOND12", time.Minute))

	// A fresh request invalidates the earlier code.
	assert.ErrorIs(t, store.Redeem(ctx, email, "FIRST123"), ErrNotFound)
	assert.NoError(t, store.Redeem(ctx, email, "SECOND12"))
}
