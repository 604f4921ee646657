package history

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newMiniredisStore(t *testing.T, ttl time.Duration) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisStore(client, ttl, zaptest.NewLogger(t)), mr
}

func TestRedisStore_InProcess(t *testing.T) {
	store, _ := newMiniredisStore(t, time.Minute)
	exerciseStore(t, store, "chat-1")
}

func TestRedisStore_AppendKeepsLimit(t *testing.T) {
	ctx := context.Background()
	store, mr := newMiniredisStore(t, time.Minute)

	for i := 0; i < 10; i++ {
		require.NoError(t, store.Append(ctx, "chat", 3, human(fmt.Sprintf("q%d", i))))

		msgs, err := store.Get(ctx, "chat")
		require.NoError(t, err)
		assert.LessOrEqual(t, len(msgs), 3)
	}

	msgs, err := store.Get(ctx, "chat")
	require.NoError(t, err)
	assert.Equal(t, []Message{human("q7"), human("q8"), human("q9")}, msgs)

	list, err := mr.List(Key("chat"))
	require.NoError(t, err)
	assert.Len(t, list, 3)
}

func TestRedisStore_Expiry(t *testing.T) {
	ctx := context.Background()

	store, mr := newMiniredisStore(t, time.Hour)
	require.NoError(t, store.Append(ctx, "chat", 8, human("q")))
	assert.Equal(t, time.Hour, mr.TTL(Key("chat")))

	mr.FastForward(2 * time.Hour)
	msgs, err := store.Get(ctx, "chat")
	require.NoError(t, err)
	assert.Empty(t, msgs)

	noTTL, mr2 := newMiniredisStore(t, 0)
	require.NoError(t, noTTL.Append(ctx, "chat", 8, human("q")))
	assert.Zero(t, mr2.TTL(Key("chat")))
}

func TestRedisStore_SkipsMalformedEntries(t *testing.T) {
	ctx := context.Background()
	store, mr := newMiniredisStore(t, time.Minute)

	require.NoError(t, store.Append(ctx, "chat", 8, human("q1")))
	_, err := mr.Push(Key("chat"), "not json")
	require.NoError(t, err)
	require.NoError(t, store.Append(ctx, "chat", 8, assistant("a1")))

	msgs, err := store.Get(ctx, "chat")
	require.NoError(t, err)
	assert.Equal(t, []Message{human("q1"), assistant("a1")}, msgs)
}

func TestRedisStore_ServerDown(t *testing.T) {
	ctx := context.Background()
	store, mr := newMiniredisStore(t, time.Minute)
	mr.Close()

	_, err := store.Get(ctx, "chat")
	assert.Error(t, err)
	assert.Error(t, store.Append(ctx, "chat", 8, human("q")))
	assert.Error(t, store.Clear(ctx, "chat"))
}
