package mock

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockEmbedder_Deterministic(t *testing.T) {
	m := NewMockEmbedder()
	ctx := context.Background()

	a, err := m.EmbedText(ctx, "java developer")
	require.NoError(t, err)
	b, err := m.EmbedText(ctx, "java developer")
	require.NoError(t, err)
	c, err := m.EmbedText(ctx, "sales manager")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, DefaultDimension)
	assert.Equal(t, 3, m.CallCount())
	assert.Equal(t, []string{"java developer", "java developer", "sales manager"}, m.Texts())

	var sum float64
	for _, v := range a {
		sum += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, sum, 1e-5)
}

func TestMockEmbedder_Dimension(t *testing.T) {
	m := &MockEmbedder{Dimension: 8}
	vecs, err := m.EmbedTexts(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	require.Len(t, vecs, 2)
	assert.Len(t, vecs[0], 8)
	assert.Equal(t, 1, m.CallCount())
}

func TestMockEmbedder_Injection(t *testing.T) {
	boom := errors.New("boom")
	m := NewMockEmbedder()
	m.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return nil, boom
	}

	_, err := m.EmbedText(context.Background(), "x")
	assert.ErrorIs(t, err, boom)

	_, err = m.EmbedTexts(context.Background(), []string{"x"})
	assert.ErrorIs(t, err, boom)

	m.Reset()
	assert.Equal(t, 0, m.CallCount())
	assert.Empty(t, m.Texts())
	_, err = m.EmbedText(context.Background(), "x")
	assert.NoError(t, err)
}

func TestMockEmbedder_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewMockEmbedder().EmbedText(ctx, "x")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTableEmbedder(t *testing.T) {
	m := NewTableEmbedder(map[string][]float32{"known": {1, 0}})
	m.Dimension = 2

	v, err := m.EmbedText(context.Background(), "known")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0}, v)

	v[0] = 5
	again, err := m.EmbedText(context.Background(), "known")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0}, again)

	unknown, err := m.EmbedText(context.Background(), "other")
	require.NoError(t, err)
	assert.Equal(t, DeterministicVector("other", 2), unknown)
}

func TestMockEmbedder_ConcurrentCalls(t *testing.T) {
	m := NewMockEmbedder()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = m.EmbedText(context.Background(), "q")
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, m.CallCount())
}

func TestMockProvider(t *testing.T) {
	p := NewMockProvider()
	require.NotNil(t, p.Embedder())

	mp := p.(*MockProvider)
	assert.Same(t, mp.GetMockEmbedder(), p.Embedder())
	require.NoError(t, p.Close())
	assert.True(t, mp.Closed())
}
