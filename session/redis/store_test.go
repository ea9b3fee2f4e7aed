package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaborage/facility-client/config"
	"github.com/gaborage/facility-client/session"
)

const (
	testPrefix = "facility:"
	testToken  = "1|abcdef"
)

// setupTestRedis creates a miniredis server and store for testing.
func setupTestRedis(t *testing.T, ttl time.Duration) (*Store, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)

	store, err := NewStore(&Config{
		Host:   mr.Host(),
		Port:   mr.Server().Addr().Port,
		Prefix: testPrefix,
		TTL:    ttl,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return store, mr
}

func TestNewStore(t *testing.T) {
	t.Run("InvalidConfig", func(t *testing.T) {
		store, err := NewStore(&Config{Port: 6379})
		assert.Nil(t, store)

		var cfgErr *config.ConfigError
		require.True(t, errors.As(err, &cfgErr))
		assert.Equal(t, "session.redis.host", cfgErr.Field)
	})

	t.Run("ConnectionFailed", func(t *testing.T) {
		store, err := NewStore(&Config{
			Host:        "127.0.0.1",
			Port:        1,
			DialTimeout: 100 * time.Millisecond,
		})
		assert.Error(t, err)
		assert.Nil(t, store)
	})
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name  string
		cfg   Config
		field string
	}{
		{"port_zero", Config{Host: "h", Port: 0}, "session.redis.port"},
		{"port_too_large", Config{Host: "h", Port: 70000}, "session.redis.port"},
		{"database_out_of_range", Config{Host: "h", Port: 6379, Database: 16}, "session.redis.database"},
		{"negative_ttl", Config{Host: "h", Port: 6379, TTL: -time.Second}, "session.redis.ttl"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			var cfgErr *config.ConfigError
			require.True(t, errors.As(err, &cfgErr))
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}

	ok := Config{Host: "redis", Port: 6379}
	assert.NoError(t, ok.Validate())
	assert.Equal(t, "redis:6379", ok.Address())
}

func TestFromSessionConfig(t *testing.T) {
	cfg := FromSessionConfig(config.RedisStoreConfig{
		Host: "cache", Port: 6380, Database: 2, Password: "pw", Prefix: "p:",
	})
	assert.Equal(t, &Config{Host: "cache", Port: 6380, Database: 2, Password: "pw", Prefix: "p:"}, cfg)
}

func TestStoreGetSetDelete(t *testing.T) {
	store, mr := setupTestRedis(t, 0)
	ctx := context.Background()

	_, err := store.Get(ctx, "token")
	assert.ErrorIs(t, err, session.ErrNotFound)

	require.NoError(t, store.Set(ctx, "token", testToken))

	got, err := store.Get(ctx, "token")
	require.NoError(t, err)
	assert.Equal(t, testToken, got)

	// Keys are namespaced by the prefix
	raw, err := mr.Get(testPrefix + "token")
	require.NoError(t, err)
	assert.Equal(t, testToken, raw)
	assert.False(t, mr.Exists("token"))

	require.NoError(t, store.Delete(ctx, "token"))
	assert.False(t, mr.Exists(testPrefix+"token"))
	assert.NoError(t, store.Delete(ctx, "token"))
}

func TestStoreTTL(t *testing.T) {
	store, mr := setupTestRedis(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "token", testToken))
	assert.Equal(t, time.Hour, mr.TTL(testPrefix+"token"))

	mr.FastForward(2 * time.Hour)
	_, err := store.Get(ctx, "token")
	assert.ErrorIs(t, err, session.ErrNotFound)
}

func TestStoreWithManager(t *testing.T) {
	store, _ := setupTestRedis(t, 0)
	ctx := context.Background()
	m := session.NewManager(store, session.DefaultKeys())

	require.NoError(t, m.Save(ctx, testToken, map[string]any{"id": 3, "name": "Jon"}))

	token, err := m.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, testToken, token)

	require.NoError(t, m.Evict(ctx))
	token, err = m.Token(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestStoreClose(t *testing.T) {
	store, _ := setupTestRedis(t, 0)
	ctx := context.Background()

	require.NoError(t, store.Health(ctx))
	require.NoError(t, store.Close())
	assert.ErrorIs(t, store.Close(), ErrClosed)

	_, err := store.Get(ctx, "token")
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, store.Set(ctx, "token", "x"), ErrClosed)
	assert.ErrorIs(t, store.Delete(ctx, "token"), ErrClosed)
	assert.ErrorIs(t, store.Health(ctx), ErrClosed)
}

func TestStoreServerDown(t *testing.T) {
	store, mr := setupTestRedis(t, 0)
	mr.Close()

	_, err := store.Get(context.Background(), "token")
	require.Error(t, err)
	assert.NotErrorIs(t, err, session.ErrNotFound)
}
