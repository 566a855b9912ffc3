package embed

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashEmbedder_Deterministic(t *testing.T) {
	t.Parallel()

	h := newHashEmbedder(32)
	v1, err := h.Embed(context.Background(), "hello", ModeQuery)
	require.NoError(t, err)
	v2, err := h.Embed(context.Background(), "hello", ModeQuery)
	require.NoError(t, err)
	assert.Equal(t, v1, v2)
	assert.Len(t, v1, 32)
	for _, f := range v1 {
		assert.GreaterOrEqual(t, f, float32(-1))
		assert.LessOrEqual(t, f, float32(1))
	}
}

func TestHashEmbedder_DifferentTextsDiffer(t *testing.T) {
	t.Parallel()

	h := newHashEmbedder(16)
	v1, _ := h.Embed(context.Background(), "alpha", ModeQuery)
	v2, _ := h.Embed(context.Background(), "beta", ModeQuery)
	assert.NotEqual(t, v1, v2)
}

func TestLadderEmbedder_FallsBackOnPerItemFailure(t *testing.T) {
	t.Parallel()

	mock := NewMock(8)
	mock.SetEmbedError(errors.New("boom"))
	ladder := withHashFallback(mock, 8)

	out, err := ladder.EmbedBatch(context.Background(), []string{"a", "b"}, ModePassage)
	require.NoError(t, err)
	require.Len(t, out, 2)
	for _, v := range out {
		assert.Len(t, v, 8)
	}
}

func TestFactory_MockMethod(t *testing.T) {
	t.Parallel()

	e, err := New(Config{PreferredMethod: "mock", Dimension: 24})
	require.NoError(t, err)
	assert.Equal(t, 24, e.Dimension())

	v, err := e.Embed(context.Background(), "x", ModeQuery)
	require.NoError(t, err)
	assert.Len(t, v, 24)
}

func TestFactory_UnsupportedMethod(t *testing.T) {
	t.Parallel()

	_, err := New(Config{PreferredMethod: "quantum"})
	assert.Error(t, err)
}

func TestFactory_NoEndpointOrBinaryFallsBackToHash(t *testing.T) {
	t.Parallel()

	e, err := New(Config{Dimension: 16})
	require.NoError(t, err)
	assert.Equal(t, MethodHash, e.Status().Method)
}

func TestCachedEmbedder_ReturnsCachedValue(t *testing.T) {
	t.Parallel()

	mock := NewMock(8)
	cached := withQueryCache(mock)

	v1, err := cached.Embed(context.Background(), "repeat", ModeQuery)
	require.NoError(t, err)

	mock.SetEmbedError(errors.New("should not be called again"))
	v2, err := cached.Embed(context.Background(), "repeat", ModeQuery)
	require.NoError(t, err)
	assert.Equal(t, v1, v2)
}

func TestEmbedWithProgress_ReportsBatches(t *testing.T) {
	t.Parallel()

	mock := NewMock(4)
	progressCh := make(chan BatchProgress, 10)
	texts := []string{"a", "b", "c", "d", "e"}

	out, err := EmbedWithProgress(context.Background(), mock, texts, ModePassage, 2, progressCh)
	close(progressCh)
	require.NoError(t, err)
	require.Len(t, out, 5)

	var last BatchProgress
	count := 0
	for p := range progressCh {
		count++
		last = p
	}
	assert.Equal(t, 3, count)
	assert.Equal(t, 5, last.ProcessedChunks)
	assert.Equal(t, 5, last.TotalChunks)
}
