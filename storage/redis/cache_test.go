package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sumulas-rag/logic/filter"
	"sumulas-rag/logic/retrieval"
	"sumulas-rag/types"
)

func setupTestCache(t *testing.T, ttl time.Duration) (*QueryCache, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})
	return NewQueryCache(client, ttl), mr
}

func TestQueryCache_Miss(t *testing.T) {
	cache, _ := setupTestCache(t, time.Minute)

	q, ok, err := cache.Get(context.Background(), "súmula 70")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, q)
}

func TestQueryCache_SetGet(t *testing.T) {
	cache, _ := setupTestCache(t, time.Minute)
	ctx := context.Background()

	in := &retrieval.StructuredQuery{
		Query: "precedentes",
		Filter: filter.And(
			filter.Compare(types.FieldSummaryNumber, filter.OpEq, "70"),
			filter.Compare(types.FieldStatusYear, filter.OpLt, float64(2010)),
		),
		Limit: 3,
	}
	require.NoError(t, cache.Set(ctx, "q", in))

	out, ok, err := cache.Get(ctx, "q")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, in.Query, out.Query)
	assert.Equal(t, 3, out.Limit)
	assert.Equal(t, filter.DefaultFormatter().Format(in.Filter), filter.DefaultFormatter().Format(out.Filter))
}

func TestQueryCache_NoFilter(t *testing.T) {
	cache, _ := setupTestCache(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "q", &retrieval.StructuredQuery{Query: "licitação"}))
	out, ok, err := cache.Get(ctx, "q")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Nil(t, out.Filter)
	assert.Zero(t, out.Limit)
}

func TestQueryCache_TTL(t *testing.T) {
	cache, mr := setupTestCache(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "q", &retrieval.StructuredQuery{Query: "x"}))
	assert.Equal(t, time.Minute, mr.TTL(key("q")))

	mr.FastForward(2 * time.Minute)
	_, ok, err := cache.Get(ctx, "q")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestQueryCache_Corrupt(t *testing.T) {
	cache, mr := setupTestCache(t, time.Minute)
	require.NoError(t, mr.Set(key("q"), "{not json"))

	_, ok, err := cache.Get(context.Background(), "q")
	assert.Error(t, err)
	assert.False(t, ok)
}
