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

// Package recommendit wires the catalog, vector index and retrieval engine
// into a single service with an explicit startup lifecycle.
package recommendit

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/poiesic/recommendit/ai"
	"github.com/poiesic/recommendit/catalog"
	"github.com/poiesic/recommendit/core"
	"github.com/poiesic/recommendit/index"
	"github.com/poiesic/recommendit/search"
)

var (
	// ErrSourceRequired indicates NewService was given no catalog source.
	ErrSourceRequired = errors.New("catalog source is required")

	// ErrProviderRequired indicates NewService was given no AI provider.
	ErrProviderRequired = errors.New("ai provider is required")
)

// Snapshot describes the catalog currently being served.
type Snapshot struct {
	Records   int
	Dimension int
	LoadedAt  time.Time
}

type state struct {
	engine   *search.Engine
	snapshot Snapshot
}

// Service serves recommendations from an immutable catalog snapshot.
// Reload builds a fresh snapshot and swaps it in; requests in flight
// keep using the snapshot they started with.
type Service struct {
	source   catalog.Source
	provider ai.AIProvider
	opts     []search.Option
	current  atomic.Pointer[state]
	reloadMu sync.Mutex
	logger   *slog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*serviceOptions)

type serviceOptions struct {
	logger     *slog.Logger
	engineOpts []search.Option
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(o *serviceOptions) {
		if logger == nil {
			logger = slog.Default()
		}
		o.logger = logger
	}
}

// WithEngineOptions passes options to every engine the service builds.
func WithEngineOptions(opts ...search.Option) ServiceOption {
	return func(o *serviceOptions) {
		o.engineOpts = append(o.engineOpts, opts...)
	}
}

// NewService loads the catalog from source, builds the index and engine,
// and returns a service ready to answer requests. Any catalog problem is
// returned as a *core.CatalogLoadError and no service is created.
// The service takes ownership of provider.
func NewService(ctx context.Context, source catalog.Source, provider ai.AIProvider, opts ...ServiceOption) (*Service, error) {
	if source == nil {
		return nil, ErrSourceRequired
	}
	if provider == nil {
		return nil, ErrProviderRequired
	}

	options := &serviceOptions{
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}

	s := &Service{
		source:   source,
		provider: provider,
		opts:     append([]search.Option{search.WithLogger(options.logger)}, options.engineOpts...),
		logger:   options.logger.With("component", "service"),
	}

	st, err := s.build(ctx)
	if err != nil {
		return nil, err
	}
	s.current.Store(st)
	s.logger.Info("catalog loaded", "records", st.snapshot.Records, "dimension", st.snapshot.Dimension)
	return s, nil
}

func (s *Service) build(ctx context.Context) (*state, error) {
	cat, err := catalog.Load(ctx, s.source)
	if err != nil {
		return nil, err
	}
	idx, err := index.Build(cat.Vectors())
	if err != nil {
		return nil, core.NewCatalogLoadError(err)
	}
	engine, err := search.NewEngine(cat, idx, s.provider.Embedder(), s.opts...)
	if err != nil {
		return nil, err
	}
	return &state{
		engine: engine,
		snapshot: Snapshot{
			Records:   cat.RowCount(),
			Dimension: cat.Dimension(),
			LoadedAt:  time.Now().UTC(),
		},
	}, nil
}

// Reload rebuilds the snapshot from the source and swaps it in.
// On failure the current snapshot keeps serving.
func (s *Service) Reload(ctx context.Context) (Snapshot, error) {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	st, err := s.build(ctx)
	if err != nil {
		s.logger.Error("reload failed, keeping current snapshot", "err", err)
		return s.Snapshot(), err
	}
	s.current.Store(st)
	s.logger.Info("catalog reloaded", "records", st.snapshot.Records, "dimension", st.snapshot.Dimension)
	return st.snapshot, nil
}

// Engine returns the engine for the current snapshot.
func (s *Service) Engine() *search.Engine {
	return s.current.Load().engine
}

// Snapshot describes the current snapshot.
func (s *Service) Snapshot() Snapshot {
	return s.current.Load().snapshot
}

// Defaults returns the default retrieval parameters.
func (s *Service) Defaults() search.Params {
	return s.Engine().Defaults()
}

// Recommend runs the retrieval pipeline against the current snapshot.
func (s *Service) Recommend(ctx context.Context, query string, params search.Params) ([]core.RetrievalResult, error) {
	return s.Engine().Recommend(ctx, query, params)
}

// RecommendWithMonitor is Recommend with pipeline hooks.
func (s *Service) RecommendWithMonitor(ctx context.Context, query string, params search.Params, monitor search.Monitor) ([]core.RetrievalResult, error) {
	return s.Engine().RecommendWithMonitor(ctx, query, params, monitor)
}

// Lookup returns the record with the given ID from the current snapshot.
func (s *Service) Lookup(id core.ID) (*core.CatalogRecord, bool) {
	rec, _, ok := s.Engine().Catalog().Lookup(id)
	return rec, ok
}

// Close releases the AI provider.
func (s *Service) Close() error {
	if err := s.provider.Close(); err != nil {
		s.logger.Error("error closing AI provider", "err", err)
		return err
	}
	return nil
}
