package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lekhapadi/lekhapadi-backend/pkg/config"
)

func TestFixedWindowAllowCountsUntilLimit(t *testing.T) {
	ctx := context.Background()
	fake := newFakeCommands()
	client := &Client{cmds: fake}

	for want := int64(1); want <= 2; want++ {
		allowed, count, err := client.FixedWindowAllow(ctx, "signature_request", 2, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed)
		assert.Equal(t, want, count)
	}

	allowed, count, err := client.FixedWindowAllow(ctx, "signature_request", 2, time.Minute)
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Equal(t, int64(3), count)

	key := "lp:rate_limit:signature_request"
	assert.Equal(t, time.Minute, fake.ttl[key])
	assert.Equal(t, 1, fake.expirySets[key], "window must not slide on later hits")
}

func TestIncrWithTTLSkipsExpiryWithoutWindow(t *testing.T) {
	fake := newFakeCommands()
	client := &Client{cmds: fake}

	count, err := client.IncrWithTTL(context.Background(), "lp:counter", 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	assert.Empty(t, fake.ttl)
}

func TestIncrWithTTLReportsExpireFailure(t *testing.T) {
	fake := newFakeCommands()
	fake.expireErr = fmt.Errorf("READONLY")
	client := &Client{cmds: fake}

	count, err := client.IncrWithTTL(context.Background(), "lp:counter", time.Second)
	require.Error(t, err)
	assert.Equal(t, int64(1), count)
}

func TestIdempotencyClaimIsExclusive(t *testing.T) {
	ctx := context.Background()
	client := &Client{cmds: newFakeCommands()}

	key := client.IdempotencyKey("owner@example.com|POST|/api/v1/documents", "abc")
	claimed, err := client.SetNX(ctx, key, "first", time.Minute)
	require.NoError(t, err)
	require.True(t, claimed)

	claimed, err = client.SetNX(ctx, key, "second", time.Minute)
	require.NoError(t, err)
	assert.False(t, claimed)

	got, err := client.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "first", got)

	require.NoError(t, client.Del(ctx, key))
	_, err = client.Get(ctx, key)
	assert.ErrorIs(t, err, redis.Nil)
	assert.NoError(t, client.Del(ctx))
}

func TestKeysAreNamespaced(t *testing.T) {
	client := &Client{}
	assert.Equal(t, "lp:idempotency:scope:id", client.IdempotencyKey("scope", "id"))
	assert.Equal(t, "lp:idempotency:scope", client.IdempotencyKey("scope", " "))
	assert.Equal(t, "lp:rate_limit:scope", client.RateLimitKey("scope"))
}

func TestClientWithoutConnection(t *testing.T) {
	var nilClient *Client
	assert.ErrorIs(t, nilClient.Ping(context.Background()), errNotConnected)
	assert.NoError(t, nilClient.Close())

	client := &Client{}
	_, err := client.IncrWithTTL(context.Background(), "k", time.Second)
	assert.ErrorIs(t, err, errNotConnected)
	assert.NoError(t, client.Close())
}

func TestOptionsFromConfig(t *testing.T) {
	_, err := optionsFromConfig(config.RedisConfig{})
	require.Error(t, err)

	opts, err := optionsFromConfig(config.RedisConfig{URL: "redis://localhost:6379/2", PoolSize: 7, DB: 5})
	require.NoError(t, err)
	assert.Equal(t, 2, opts.DB, "db from the url wins")
	assert.Equal(t, 7, opts.PoolSize)

	opts, err = optionsFromConfig(config.RedisConfig{Address: "cache:6379", DB: 3, ReadTimeout: time.Second})
	require.NoError(t, err)
	assert.Equal(t, "cache:6379", opts.Addr)
	assert.Equal(t, 3, opts.DB)
	assert.Equal(t, time.Second, opts.ReadTimeout)
}

type fakeCommands struct {
	values     map[string]string
	counters   map[string]int64
	ttl        map[string]time.Duration
	expirySets map[string]int
	expireErr  error
}

func newFakeCommands() *fakeCommands {
	return &fakeCommands{
		values:     map[string]string{},
		counters:   map[string]int64{},
		ttl:        map[string]time.Duration{},
		expirySets: map[string]int{},
	}
}

func (f *fakeCommands) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (f *fakeCommands) Get(_ context.Context, key string) *redis.StringCmd {
	v, ok := f.values[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeCommands) SetNX(_ context.Context, key string, value any, _ time.Duration) *redis.BoolCmd {
	if _, ok := f.values[key]; ok {
		return redis.NewBoolResult(false, nil)
	}
	f.values[key] = fmt.Sprint(value)
	return redis.NewBoolResult(true, nil)
}

func (f *fakeCommands) Incr(_ context.Context, key string) *redis.IntCmd {
	f.counters[key]++
	return redis.NewIntResult(f.counters[key], nil)
}

func (f *fakeCommands) ExpireNX(_ context.Context, key string, ttl time.Duration) *redis.BoolCmd {
	if f.expireErr != nil {
		return redis.NewBoolResult(false, f.expireErr)
	}
	if _, ok := f.ttl[key]; ok {
		return redis.NewBoolResult(false, nil)
	}
	f.ttl[key] = ttl
	f.expirySets[key]++
	return redis.NewBoolResult(true, nil)
}

func (f *fakeCommands) Del(_ context.Context, keys ...string) *redis.IntCmd {
	var n int64
	for _, key := range keys {
		if _, ok := f.values[key]; ok {
			n++
		}
		delete(f.values, key)
	}
	return redis.NewIntResult(n, nil)
}
