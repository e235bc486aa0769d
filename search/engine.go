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

package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/poiesic/recommendit/ai"
	"github.com/poiesic/recommendit/catalog"
	"github.com/poiesic/recommendit/core"
	"github.com/poiesic/recommendit/index"
)

const tracerName = "github.com/poiesic/recommendit/search"

var errEmptyEmbedding = errors.New("empty embedding")

// Engine answers recommendation queries against one catalog snapshot.
// It holds no mutable state and is safe for concurrent use.
type Engine struct {
	catalog      *catalog.Catalog
	index        *index.Index
	embedder     ai.Embedder
	defaults     Params
	embedTimeout time.Duration
	logger       *slog.Logger
	tracer       trace.Tracer
}

// Option configures an Engine.
type Option func(*Engine) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) error {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger.With("component", "search")
		return nil
	}
}

// WithEmbedTimeout bounds the embedding call of each query.
// Zero leaves only the caller's context in effect.
func WithEmbedTimeout(d time.Duration) Option {
	return func(e *Engine) error {
		if d < 0 {
			return fmt.Errorf("%w: embed timeout must not be negative", ErrInvalidParams)
		}
		e.embedTimeout = d
		return nil
	}
}

// WithDefaultParams sets the parameters reported by Defaults.
func WithDefaultParams(p Params) Option {
	return func(e *Engine) error {
		if err := p.Validate(); err != nil {
			return err
		}
		e.defaults = p
		return nil
	}
}

// NewEngine creates an engine over cat and idx. Row i of the catalog must
// be the record whose embedding sits at row i of the index.
func NewEngine(cat *catalog.Catalog, idx *index.Index, embedder ai.Embedder, opts ...Option) (*Engine, error) {
	if cat == nil {
		return nil, ErrCatalogRequired
	}
	if idx == nil {
		return nil, ErrIndexRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if cat.RowCount() != idx.Len() {
		return nil, fmt.Errorf("%w: catalog has %d rows, index has %d", ErrMisaligned, cat.RowCount(), idx.Len())
	}
	if cat.Dimension() != idx.Dimension() {
		return nil, fmt.Errorf("%w: catalog dimension %d, index dimension %d", ErrMisaligned, cat.Dimension(), idx.Dimension())
	}

	e := &Engine{
		catalog:  cat,
		index:    idx,
		embedder: embedder,
		defaults: DefaultParams(),
		logger:   slog.Default().With("component", "search"),
		tracer:   otel.Tracer(tracerName),
	}

	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}

	return e, nil
}

// Catalog returns the snapshot the engine searches.
func (e *Engine) Catalog() *catalog.Catalog { return e.catalog }

// Defaults returns the engine's default retrieval parameters.
func (e *Engine) Defaults() Params { return e.defaults }

// Recommend returns up to params.MaxResults catalog records whose
// similarity to query is at least params.ScoreThreshold, best first.
//
// Errors:
//   - ErrEmptyQuery or ErrInvalidParams for bad input
//   - *core.ProviderError when the query cannot be embedded
//   - *core.NoMatchError when nothing clears the threshold
func (e *Engine) Recommend(ctx context.Context, query string, params Params) ([]core.RetrievalResult, error) {
	return e.RecommendWithMonitor(ctx, query, params, nil)
}

// RecommendWithMonitor is Recommend with pipeline callbacks.
func (e *Engine) RecommendWithMonitor(ctx context.Context, query string, params Params, monitor Monitor) (results []core.RetrievalResult, err error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	ctx, span := e.tracer.Start(ctx, "search.Recommend")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.SetAttributes(attribute.Int("results", len(results)))
		span.End()
		monitor.Finish(results, err)
	}()

	monitor.Start(query, params)

	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	span.SetAttributes(
		attribute.Float64("threshold", float64(params.ScoreThreshold)),
		attribute.Int("max_results", params.MaxResults),
		attribute.Int("pool", params.pool()),
	)

	// 1. Embed the query
	started := time.Now()
	vec, err := e.embed(ctx, query)
	if err != nil {
		e.logger.Error("error generating embedding for query", "length", len(query), "err", err)
		return nil, err
	}
	monitor.AfterEmbedding(len(vec), time.Since(started))

	// 2. Check and normalize; a bad vector is never replaced
	if len(vec) != e.index.Dimension() {
		return nil, core.NewProviderError(fmt.Errorf("%w: got %d, want %d", index.ErrDimensionMismatch, len(vec), e.index.Dimension()))
	}
	unit, ok := index.Normalize(vec)
	if !ok {
		return nil, core.NewProviderError(index.ErrZeroVector)
	}

	// 3. Exact nearest neighbour search
	_, searchSpan := e.tracer.Start(ctx, "search.index")
	hits, err := e.index.Search(unit, params.pool())
	searchSpan.End()
	if err != nil {
		e.logger.Error("error searching index", "err", err)
		return nil, err
	}
	monitor.AfterIndexSearch(hits)

	// 4. Threshold; hits are already ordered so the kept set is a prefix
	kept := 0
	for kept < len(hits) && hits[kept].Score >= params.ScoreThreshold {
		kept++
	}
	monitor.AfterThresholdFilter(kept, len(hits)-kept)

	if kept == 0 {
		var best float32
		if len(hits) > 0 {
			best = hits[0].Score
		}
		e.logger.Debug("no candidates above threshold", "threshold", params.ScoreThreshold, "best", best)
		return nil, &core.NoMatchError{
			Threshold:  params.ScoreThreshold,
			BestScore:  best,
			Candidates: len(hits),
		}
	}

	// 5. Truncate
	if kept > params.MaxResults {
		kept = params.MaxResults
	}

	// 6. Join rows to records
	results = make([]core.RetrievalResult, 0, kept)
	for _, hit := range hits[:kept] {
		rec := e.catalog.Get(hit.Row)
		if rec == nil {
			return nil, fmt.Errorf("%w: index row %d has no record", ErrMisaligned, hit.Row)
		}
		results = append(results, core.RetrievalResult{
			Record: rec,
			Row:    hit.Row,
			Score:  RoundScore(hit.Score),
		})
	}

	e.logger.Debug("recommendation complete", "candidates", len(hits), "results", len(results))
	return results, nil
}

func (e *Engine) embed(ctx context.Context, query string) ([]float32, error) {
	ctx, span := e.tracer.Start(ctx, "search.embed")
	defer span.End()

	if e.embedTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.embedTimeout)
		defer cancel()
	}

	vec, err := e.embedder.EmbedText(ctx, query)
	if err != nil {
		return nil, core.NewProviderError(err)
	}
	if len(vec) == 0 {
		return nil, core.NewProviderError(errEmptyEmbedding)
	}
	return vec, nil
}

// RoundScore rounds a similarity to four decimal places.
func RoundScore(s float32) float32 {
	return float32(math.Round(float64(s)*1e4) / 1e4)
}
