package biz

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestCache(t *testing.T) (*QueryCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewQueryCache(rdb, &QueryCacheConfig{TTL: time.Minute, KeyPrefix: "test:ask:"}), mr
}

func TestQueryCacheRoundTrip(t *testing.T) {
	c, mr := setupTestCache(t)
	ctx := context.Background()

	assert.Nil(t, c.Get(ctx, "what is a closure", 7, 3))

	c.Set(ctx, "what is a closure", 7, 3, &AskResponse{
		Answer:         "A closure captures variables.",
		Sources:        []Source{{Title: "JS Functions", URL: "https://x/?t=125"}},
		ConversationID: "01HXCONV",
	})

	got := c.Get(ctx, "what is a closure", 7, 3)
	require.NotNil(t, got)
	assert.Equal(t, "A closure captures variables.", got.Answer)
	assert.Equal(t, []Source{{Title: "JS Functions", URL: "https://x/?t=125"}}, got.Sources)
	assert.Empty(t, got.ConversationID, "conversation ids are never cached")

	// 参数不同即不同的键
	assert.Nil(t, c.Get(ctx, "what is a closure", 5, 3))
	assert.Nil(t, c.Get(ctx, "what is a closure", 7, 0))

	mr.FastForward(2 * time.Minute)
	assert.Nil(t, c.Get(ctx, "what is a closure", 7, 3))
}

func TestQueryCacheCorruptEntry(t *testing.T) {
	c, mr := setupTestCache(t)
	ctx := context.Background()

	key := c.cacheKey("q", 7, 3)
	require.NoError(t, mr.Set(key, "{not json"))

	assert.Nil(t, c.Get(ctx, "q", 7, 3))
	assert.False(t, mr.Exists(key), "corrupt entries are removed")
}

func TestQueryCacheUnavailable(t *testing.T) {
	c, mr := setupTestCache(t)
	mr.Close()

	ctx := context.Background()
	c.Set(ctx, "q", 7, 3, &AskResponse{Answer: "a"})
	assert.Nil(t, c.Get(ctx, "q", 7, 3))
}

func TestAskServedFromCache(t *testing.T) {
	c, _ := setupTestCache(t)
	f := newServiceFixture(t, nil)
	f.svc.deps.Cache = c
	f.seed(t)
	f.chat.answer = "Closures are covered in \"JS Functions\"."

	ctx := context.Background()
	first, err := f.svc.Ask(ctx, &AskRequest{Query: "what is a closure"})
	require.NoError(t, err)
	second, err := f.svc.Ask(ctx, &AskRequest{Query: "what is a closure"})
	require.NoError(t, err)

	assert.Equal(t, first.Answer, second.Answer)
	assert.Equal(t, first.Sources, second.Sources)
	assert.Len(t, f.chat.prompts, 1, "second answer comes from the cache")

	q := f.svc.Metrics().Stats()["queries"].(map[string]any)
	assert.Equal(t, uint64(1), q["cache_hits"])
}
