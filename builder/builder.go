// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package builder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"golang.org/x/time/rate"

	"github.com/poiesic/recommendit/ai"
	"github.com/poiesic/recommendit/catalog"
	"github.com/poiesic/recommendit/core"
)

var (
	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrEmbeddingCount indicates the provider returned the wrong number of vectors.
	ErrEmbeddingCount = errors.New("embedding count mismatch")

	// ErrNoRecords indicates an empty input catalog.
	ErrNoRecords = errors.New("no records to build")
)

// Config holds configuration for a catalog build.
type Config struct {
	// BatchSize is the number of records embedded per provider request
	BatchSize int

	// ReportInterval is how often to report progress (number of records)
	ReportInterval int

	// MaxRetries is the maximum number of attempts per batch
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration

	// Concurrency is the number of batches in flight
	Concurrency int

	// RequestsPerSecond throttles provider requests; 0 disables throttling
	RequestsPerSecond float64

	// SkipEmbedded keeps vectors already present on input records
	SkipEmbedded bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	concurrency := runtime.NumCPU() / 2
	if concurrency < 1 {
		concurrency = 1
	}
	return &Config{
		BatchSize:         100,
		ReportInterval:    100,
		MaxRetries:        3,
		RetryDelay:        1 * time.Second,
		Concurrency:       concurrency,
		RequestsPerSecond: 5,
	}
}

// Option configures a Builder.
type Option func(*Builder) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(b *Builder) error {
		if logger == nil {
			logger = slog.Default()
		}
		b.logger = logger.With("component", "builder")
		return nil
	}
}

// Builder orchestrates embedding of a whole catalog.
type Builder struct {
	config    *Config
	progress  io.Writer
	pool      *ants.Pool
	processor *batchProcessor
	logger    *slog.Logger
}

// NewBuilder creates a new builder.
// progress: where to write progress output (typically os.Stderr)
func NewBuilder(embedder ai.Embedder, config *Config, progress io.Writer, opts ...Option) (*Builder, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if config == nil {
		config = DefaultConfig()
	}
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultConfig().BatchSize
	}
	if config.ReportInterval <= 0 {
		config.ReportInterval = config.BatchSize
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = 1
	}
	if config.Concurrency < 1 {
		config.Concurrency = 1
	}
	if progress == nil {
		progress = io.Discard
	}

	limit := rate.Inf
	if config.RequestsPerSecond > 0 {
		limit = rate.Limit(config.RequestsPerSecond)
	}

	pool, err := ants.NewPool(config.Concurrency)
	if err != nil {
		return nil, err
	}

	b := &Builder{
		config:   config,
		progress: progress,
		pool:     pool,
		processor: &batchProcessor{
			embedder:       embedder,
			limiter:        rate.NewLimiter(limit, 1),
			maxRetries:     config.MaxRetries,
			retryBaseDelay: config.RetryDelay,
		},
		logger: slog.Default().With("component", "builder"),
	}

	for _, opt := range opts {
		if optErr := opt(b); optErr != nil {
			b.Release()
			return nil, optErr
		}
	}

	return b, nil
}

// Release releases the worker pool. The builder should not be used after.
func (b *Builder) Release() {
	if b.pool != nil {
		b.pool.Release()
	}
}

// Run embeds records and returns copies carrying normalized vectors, in
// input order. The input is not modified. The first failing batch cancels
// the remaining work and its error is returned.
func (b *Builder) Run(ctx context.Context, records []*core.CatalogRecord) ([]*core.CatalogRecord, error) {
	if len(records) == 0 {
		return nil, ErrNoRecords
	}

	out := make([]*core.CatalogRecord, len(records))
	var pending []*core.CatalogRecord
	for i, r := range records {
		if err := core.ValidateRecord(r); err != nil {
			return nil, &core.CatalogLoadError{Row: i, Err: err}
		}
		out[i] = r.Clone()
		if out[i].ID == 0 {
			out[i].ID = core.IDFromContent(out[i].URL)
		}
		if b.config.SkipEmbedded && len(out[i].Vector) > 0 {
			continue
		}
		out[i].Vector = nil
		pending = append(pending, out[i])
	}

	fmt.Fprintf(b.progress, "Embedding %d of %d records (batch size: %d, workers: %d)\n",
		len(pending), len(records), b.config.BatchSize, b.config.Concurrency)

	tracker := NewProgressTracker(b.progress, len(pending), b.config.ReportInterval)
	tracker.Start()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)
	fail := func(err error) {
		errOnce.Do(func() {
			firstErr = err
			cancel()
		})
	}

	for start := 0; start < len(pending); start += b.config.BatchSize {
		end := min(start+b.config.BatchSize, len(pending))
		batch := pending[start:end]

		wg.Add(1)
		submitErr := b.pool.Submit(func() {
			defer wg.Done()
			if ctx.Err() != nil {
				return
			}
			if err := b.processor.process(ctx, batch); err != nil {
				b.logger.Error("batch failed", "first", batch[0].URL, "size", len(batch), "err", err)
				fail(fmt.Errorf("failed to process batch: %w", err))
				return
			}
			tracker.Increment(len(batch))
		})
		if submitErr != nil {
			wg.Done()
			fail(submitErr)
			break
		}
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := checkDimensions(out); err != nil {
		return nil, err
	}

	tracker.Finish()

	elapsed := tracker.Elapsed()
	fmt.Fprintf(b.progress, "Embedding complete. Processed %d records in %v\n",
		len(pending), elapsed.Round(time.Millisecond))
	b.logger.Info("catalog embedded", "records", len(out), "embedded", len(pending), "elapsed", elapsed)

	return out, nil
}

func checkDimensions(records []*core.CatalogRecord) error {
	dim := len(records[0].Vector)
	for i, r := range records {
		if len(r.Vector) == 0 || len(r.Vector) != dim {
			return &core.CatalogLoadError{
				Row:    i,
				Column: catalog.ColumnEmbedding,
				Err:    fmt.Errorf("embedding length %d, want %d", len(r.Vector), dim),
			}
		}
	}
	return nil
}
