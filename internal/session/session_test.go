package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := ConnectRedis(context.Background(), "redis://"+mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client), mr
}

func testStores(t *testing.T) map[string]Store {
	mem := NewMemoryStore()
	t.Cleanup(mem.Close)
	rs, _ := newRedisStore(t)
	return map[string]Store{"memory": mem, "redis": rs}
}

func TestStore_TakeIsSingleUse(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, store.Put(ctx, KindAuthCode, "code-1", "user-1", time.Minute))

			v, ok, err := store.Take(ctx, KindAuthCode, "code-1")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, "user-1", v)

			_, ok, err = store.Take(ctx, KindAuthCode, "code-1")
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestStore_KindsAreSeparate(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, store.Put(ctx, KindState, "abc", "github", time.Minute))

			_, ok, err := store.Take(ctx, KindAuthCode, "abc")
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestMemoryStore_Expiry(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()
	now := time.Now()
	store.now = func() time.Time { return now }

	ctx := context.Background()
	require.NoError(t, store.Put(ctx, KindState, "s1", "github", time.Minute))
	require.NoError(t, store.Put(ctx, KindState, "s2", "github", time.Minute))

	now = now.Add(2 * time.Minute)

	_, ok, err := store.Take(ctx, KindState, "s1")
	require.NoError(t, err)
	assert.False(t, ok)

	store.sweep()
	_, exists := store.entries.Load(KindState + ":s2")
	assert.False(t, exists)
}

func TestRedisStore_Expiry(t *testing.T) {
	store, mr := newRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, KindState, "s1", "gitlab", 10*time.Minute))
	assert.True(t, mr.Exists("oauth:state:s1"))

	mr.FastForward(11 * time.Minute)

	_, ok, err := store.Take(ctx, KindState, "s1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisStore_RejectsNonPositiveTTL(t *testing.T) {
	store, _ := newRedisStore(t)
	assert.Error(t, store.Put(context.Background(), KindState, "s", "v", 0))
}

func TestConnectRedis_Errors(t *testing.T) {
	_, err := ConnectRedis(context.Background(), "not a url")
	assert.Error(t, err)

	mr, err := miniredis.Run()
	require.NoError(t, err)
	addr := mr.Addr()
	mr.Close()
	_, err = ConnectRedis(context.Background(), "redis://"+addr)
	assert.Error(t, err)
}

var _ Store = (*RedisStore)(nil)
var _ Store = (*MemoryStore)(nil)
