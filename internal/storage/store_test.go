package storage

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type providerFactory func(t *testing.T) Provider

func memoryFactory(t *testing.T) Provider {
	return NewMemoryProvider()
}

func miniredisFactory(t *testing.T) Provider {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisProvider(client, time.Hour)
}

// exerciseProvider runs the behaviour every driver must share.
func exerciseProvider(t *testing.T, provider Provider) {
	c := context.Background()
	first := provider.Session(uuid.New())
	second := provider.Session(uuid.New())

	_, err := first.Get(c, KeyCart)
	assert.ErrorIs(t, err, ErrNotFound, "absent key should return ErrNotFound")

	require.NoError(t, first.Set(c, KeyCart, `[{"quantity":1}]`))
	value, err := first.Get(c, KeyCart)
	require.NoError(t, err)
	assert.Equal(t, `[{"quantity":1}]`, value)

	_, err = second.Get(c, KeyCart)
	assert.ErrorIs(t, err, ErrNotFound, "sessions should not share keys")

	require.NoError(t, first.Set(c, KeyCart, `[]`))
	value, err = first.Get(c, KeyCart)
	require.NoError(t, err)
	assert.Equal(t, `[]`, value, "set should overwrite")

	require.NoError(t, first.Remove(c, KeyCart))
	_, err = first.Get(c, KeyCart)
	assert.ErrorIs(t, err, ErrNotFound, "removed key should be absent")

	assert.NoError(t, first.Remove(c, KeySessionToken), "removing an absent key is not an error")
}

func TestProviders(t *testing.T) {
	tests := []struct {
		name    string
		factory providerFactory
	}{
		{name: "memory", factory: memoryFactory},
		{name: "redis", factory: miniredisFactory},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exerciseProvider(t, tt.factory(t))
		})
	}
}

func TestRedisProviderKeysAndTTL(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	sessionID := uuid.New()
	store := NewRedisProvider(client, time.Hour).Session(sessionID)
	require.NoError(t, store.Set(context.Background(), KeyCurrentUser, `{"id":1}`))

	key := "sneakerzone:session:" + sessionID.String() + ":" + KeyCurrentUser
	assert.True(t, mr.Exists(key))
	assert.Equal(t, time.Hour, mr.TTL(key))

	mr.FastForward(2 * time.Hour)
	_, err := store.Get(context.Background(), KeyCurrentUser)
	assert.ErrorIs(t, err, ErrNotFound, "expired entry should be absent")
}

func TestRedisProviderUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()
	mr.Close()

	store := NewRedisProvider(client, 0).Session(uuid.New())
	_, err := store.Get(context.Background(), KeyCart)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}
