package builder

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/recommendit/ai/mock"
	"github.com/poiesic/recommendit/core"
	"github.com/poiesic/recommendit/index"
)

func rawRecords(n int) []*core.CatalogRecord {
	out := make([]*core.CatalogRecord, n)
	for i := range out {
		out[i] = &core.CatalogRecord{
			Name:            fmt.Sprintf("Assessment %d", i),
			URL:             fmt.Sprintf("https://example.com/a%d", i),
			Description:     "Measures things.",
			DurationMinutes: 10 + i,
			TestTypes:       []string{"Ability & Aptitude"},
		}
	}
	return out
}

func fastConfig() *Config {
	return &Config{
		BatchSize:      3,
		ReportInterval: 1,
		MaxRetries:     3,
		RetryDelay:     time.Millisecond,
		Concurrency:    4,
	}
}

func TestNewBuilder(t *testing.T) {
	t.Run("nil embedder", func(t *testing.T) {
		_, err := NewBuilder(nil, nil, nil)
		assert.Equal(t, ErrEmbedderRequired, err)
	})

	t.Run("defaults applied", func(t *testing.T) {
		b, err := NewBuilder(mock.NewMockEmbedder(), &Config{}, nil, WithLogger(nil))
		require.NoError(t, err)
		defer b.Release()
		assert.Equal(t, 100, b.config.BatchSize)
		assert.Equal(t, 1, b.config.MaxRetries)
		assert.Equal(t, 1, b.config.Concurrency)
	})
}

func TestBuilder_Run(t *testing.T) {
	embedder := &mock.MockEmbedder{Dimension: 16}
	var progress bytes.Buffer
	b, err := NewBuilder(embedder, fastConfig(), &progress)
	require.NoError(t, err)
	defer b.Release()

	in := rawRecords(10)
	out, err := b.Run(context.Background(), in)
	require.NoError(t, err)
	require.Len(t, out, 10)

	// 10 records in batches of 3
	assert.Equal(t, 4, embedder.CallCount())

	for i, r := range out {
		assert.Equal(t, in[i].URL, r.URL, "order preserved")
		assert.Equal(t, core.IDFromContent(r.URL), r.ID)
		require.Len(t, r.Vector, 16)
		assert.InDelta(t, 1.0, index.Dot(r.Vector, r.Vector), 1e-5)

		// the vector is the embedding of the composed record text
		want, ok := index.Normalize(mock.DeterministicVector(core.EmbeddingText(in[i]), 16))
		require.True(t, ok)
		assert.InDeltaSlice(t, want, r.Vector, 1e-6)

		assert.Nil(t, in[i].Vector, "input is not modified")
	}

	assert.Contains(t, progress.String(), "Embedding 10 of 10 records")
	assert.Contains(t, progress.String(), "10/10 (100.0%)")
	assert.Contains(t, progress.String(), "Embedding complete")
}

func TestBuilder_SkipEmbedded(t *testing.T) {
	embedder := &mock.MockEmbedder{Dimension: 2}
	cfg := fastConfig()
	cfg.SkipEmbedded = true
	b, err := NewBuilder(embedder, cfg, nil)
	require.NoError(t, err)
	defer b.Release()

	in := rawRecords(4)
	in[0].Vector = []float32{1, 0}
	in[1].Vector = []float32{0, 1}

	out, err := b.Run(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0}, out[0].Vector)
	assert.Equal(t, []float32{0, 1}, out[1].Vector)
	assert.Len(t, out[3].Vector, 2)
	assert.Len(t, embedder.Texts(), 2)
}

func TestBuilder_RetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	embedder := &mock.MockEmbedder{Dimension: 4}
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		if calls.Add(1) == 1 {
			return nil, core.NewProviderError(errors.New("429 too many requests"))
		}
		out := make([][]float32, len(texts))
		for i, text := range texts {
			out[i] = mock.DeterministicVector(text, 4)
		}
		return out, nil
	}

	cfg := fastConfig()
	cfg.BatchSize = 10
	cfg.Concurrency = 1
	b, err := NewBuilder(embedder, cfg, nil)
	require.NoError(t, err)
	defer b.Release()

	out, err := b.Run(context.Background(), rawRecords(5))
	require.NoError(t, err)
	assert.Len(t, out, 5)
	assert.Equal(t, int32(2), calls.Load())
}

func TestBuilder_DoesNotRetryPermanentFailures(t *testing.T) {
	var calls atomic.Int32
	embedder := &mock.MockEmbedder{Dimension: 4}
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		calls.Add(1)
		return nil, context.Canceled
	}

	cfg := fastConfig()
	cfg.BatchSize = 10
	cfg.Concurrency = 1
	cfg.MaxRetries = 5
	b, err := NewBuilder(embedder, cfg, nil)
	require.NoError(t, err)
	defer b.Release()

	_, err = b.Run(context.Background(), rawRecords(5))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(1), calls.Load())
}

func TestBuilder_Failures(t *testing.T) {
	tests := []struct {
		name    string
		embed   func(ctx context.Context, texts []string) ([][]float32, error)
		wantErr error
	}{
		{
			name: "persistent provider failure",
			embed: func(ctx context.Context, texts []string) ([][]float32, error) {
				return nil, core.NewProviderError(errors.New("down"))
			},
			wantErr: core.ErrEmbeddingProvider,
		},
		{
			name: "count mismatch",
			embed: func(ctx context.Context, texts []string) ([][]float32, error) {
				return [][]float32{{1, 0}}, nil
			},
			wantErr: ErrEmbeddingCount,
		},
		{
			name: "zero vector",
			embed: func(ctx context.Context, texts []string) ([][]float32, error) {
				out := make([][]float32, len(texts))
				for i := range out {
					out[i] = []float32{0, 0}
				}
				return out, nil
			},
			wantErr: index.ErrZeroVector,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			embedder := mock.NewMockEmbedder()
			embedder.EmbedTextsFunc = tt.embed
			b, err := NewBuilder(embedder, fastConfig(), nil)
			require.NoError(t, err)
			defer b.Release()

			_, err = b.Run(context.Background(), rawRecords(7))
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestBuilder_InvalidInput(t *testing.T) {
	b, err := NewBuilder(mock.NewMockEmbedder(), fastConfig(), nil)
	require.NoError(t, err)
	defer b.Release()

	_, err = b.Run(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoRecords)

	in := rawRecords(2)
	in[1].Name = ""
	_, err = b.Run(context.Background(), in)
	assert.ErrorIs(t, err, core.ErrCatalogLoad)
	assert.ErrorIs(t, err, core.ErrEmptyName)
}

func TestBuilder_Cancelled(t *testing.T) {
	b, err := NewBuilder(mock.NewMockEmbedder(), fastConfig(), nil)
	require.NoError(t, err)
	defer b.Release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = b.Run(ctx, rawRecords(5))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBuilder_RateLimited(t *testing.T) {
	cfg := fastConfig()
	cfg.BatchSize = 1
	cfg.RequestsPerSecond = 50
	b, err := NewBuilder(&mock.MockEmbedder{Dimension: 2}, cfg, nil)
	require.NoError(t, err)
	defer b.Release()

	start := time.Now()
	_, err = b.Run(context.Background(), rawRecords(6))
	require.NoError(t, err)
	// burst of one then 20ms per token
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
}
