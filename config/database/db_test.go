package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"annotastore/config"
	"annotastore/internal/identity"
	"annotastore/internal/store"
	"annotastore/internal/store/memory"
	"annotastore/internal/store/redisstore"
)

type note struct {
	Text string `json:"text"`
}

func fastRetries(t *testing.T) {
	attempts, delay := pingAttempts, pingDelay
	pingAttempts, pingDelay = 3, time.Millisecond
	t.Cleanup(func() { pingAttempts, pingDelay = attempts, delay })
}

func TestRetryPing(t *testing.T) {
	fastRetries(t)

	calls := 0
	err := retryPing(context.Background(), "flaky", func(context.Context) error {
		calls++
		if calls < 2 {
			return errors.New("not yet")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)

	calls = 0
	boom := errors.New("down")
	err = retryPing(context.Background(), "dead", func(context.Context) error {
		calls++
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 3, calls)
}

func TestRetryPingStopsOnCancel(t *testing.T) {
	fastRetries(t)
	pingDelay = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := retryPing(ctx, "dead", func(context.Context) error { return errors.New("down") })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestConnectMemory(t *testing.T) {
	b, err := Connect(context.Background(), &config.Config{Database: config.Database{Type: "memory"}})
	require.NoError(t, err)
	defer b.Close(context.Background())

	c := NewCollection[note](b, "notes")
	assert.IsType(t, &memory.Collection[note]{}, c)

	scope, err := identity.NewScope("org-1")
	require.NoError(t, err)
	_, err = c.Upsert(context.Background(), scope, store.Key{ID: "n1"}, note{Text: "hello"})
	require.NoError(t, err)

	got, ok, err := store.FetchOne(context.Background(), c, scope, "n1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "hello", got.Text)
}

func TestConnectRedis(t *testing.T) {
	s := miniredis.RunT(t)
	cfg := &config.Config{Database: config.Database{Type: "redis", ConnectionString: "redis://" + s.Addr()}}

	b, err := Connect(context.Background(), cfg)
	require.NoError(t, err)
	defer b.Close(context.Background())

	c := NewCollection[note](b, "notes")
	assert.IsType(t, &redisstore.Collection[note]{}, c)
}

func TestConnectRedisUnreachable(t *testing.T) {
	fastRetries(t)
	s := miniredis.RunT(t)
	addr := s.Addr()
	s.Close()

	_, err := Connect(context.Background(), &config.Config{Database: config.Database{Type: "redis", Host: addr}})
	assert.Error(t, err)
}

func TestConnectUnknownType(t *testing.T) {
	_, err := Connect(context.Background(), &config.Config{Database: config.Database{Type: "cassandra"}})
	assert.Error(t, err)
}
