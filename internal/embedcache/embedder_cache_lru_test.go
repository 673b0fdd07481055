package embedcache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type countingEmbedder struct {
	calls int
}

func (c *countingEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	c.calls++
	return []float32{float32(len(text)), float32(len(taskType))}, nil
}

func (c *countingEmbedder) EmbedBatch(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for _, text := range texts {
		vec, err := c.Embed(ctx, text, taskType)
		if err != nil {
			return nil, err
		}
		out = append(out, vec)
	}
	return out, nil
}

func (c *countingEmbedder) ModelName() string { return "counting" }

func TestCacheHitSkipsProvider(t *testing.T) {
	ctx := context.Background()
	inner := &countingEmbedder{}
	cached := WrapLruCacheToEmbedder(inner, 10, time.Minute)

	first, err := cached.Embed(ctx, "same text", "RETRIEVAL_QUERY")
	require.NoError(t, err)
	second, err := cached.Embed(ctx, "same text", "RETRIEVAL_QUERY")
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, 1, inner.calls)
}

func TestTaskTypeIsPartOfTheKey(t *testing.T) {
	ctx := context.Background()
	inner := &countingEmbedder{}
	cached := WrapLruCacheToEmbedder(inner, 10, time.Minute)

	_, err := cached.Embed(ctx, "same text", "RETRIEVAL_QUERY")
	require.NoError(t, err)
	_, err = cached.Embed(ctx, "same text", "RETRIEVAL_DOCUMENT")
	require.NoError(t, err)
	require.Equal(t, 2, inner.calls)
}

func TestCachedVectorIsIsolated(t *testing.T) {
	ctx := context.Background()
	cached := WrapLruCacheToEmbedder(&countingEmbedder{}, 10, time.Minute)

	vec, err := cached.Embed(ctx, "text", "RETRIEVAL_QUERY")
	require.NoError(t, err)
	vec[0] = 999

	again, err := cached.Embed(ctx, "text", "RETRIEVAL_QUERY")
	require.NoError(t, err)
	require.NotEqual(t, float32(999), again[0], "callers must not be able to poison the cache")
}

func TestDisabledCachePassesThrough(t *testing.T) {
	inner := &countingEmbedder{}
	require.Same(t, inner, WrapLruCacheToEmbedder(inner, 0, time.Minute))
	require.Same(t, inner, WrapLruCacheToEmbedder(inner, 10, 0))
}
