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

package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/poiesic/recommendit"
	"github.com/poiesic/recommendit/ai"
	"github.com/poiesic/recommendit/ai/mock"
	"github.com/poiesic/recommendit/ai/openai"
	"github.com/poiesic/recommendit/catalog"
	"github.com/poiesic/recommendit/config"
	"github.com/poiesic/recommendit/search"
	"github.com/poiesic/recommendit/storage/badger"
)

func catalogFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "catalog",
			Usage: "Path to finalized catalog CSV (with embeddings)",
		},
		&cli.StringFlag{
			Name:  "snapshot",
			Usage: "Path to BadgerDB snapshot directory; wins over --catalog",
		},
		&cli.StringFlag{
			Name:  "provider",
			Usage: "Embedding provider (openai, mock)",
		},
	}
}

func retrieveFlags() []cli.Flag {
	return []cli.Flag{
		&cli.Float64Flag{
			Name:  "threshold",
			Usage: "Minimum similarity score for a result",
		},
		&cli.IntFlag{
			Name:    "max-results",
			Aliases: []string{"k"},
			Usage:   "Maximum number of results",
		},
		&cli.IntFlag{
			Name:  "pool",
			Usage: "Number of nearest neighbours considered before filtering",
		},
	}
}

// loadConfig reads the config file and applies any command-line overrides.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}

	if c.IsSet("catalog") {
		cfg.Catalog.Path = c.String("catalog")
	}
	if c.IsSet("snapshot") {
		cfg.Catalog.Snapshot = c.String("snapshot")
	}
	if c.IsSet("provider") {
		cfg.Embedding.Provider = c.String("provider")
	}
	if c.IsSet("threshold") {
		cfg.Retrieve.ScoreThreshold = float32(c.Float64("threshold"))
	}
	if c.IsSet("max-results") {
		cfg.Retrieve.MaxResults = c.Int("max-results")
	}
	if c.IsSet("pool") {
		cfg.Retrieve.CandidatePool = c.Int("pool")
	}
	if c.IsSet("log-level") {
		cfg.Logging.Level = c.String("log-level")
	}
	return cfg, nil
}

// newProvider creates the configured embedding provider. A missing
// credential is a startup error.
func newProvider(cfg *config.Config) (ai.AIProvider, error) {
	switch cfg.Embedding.Provider {
	case "mock":
		embedder := mock.NewMockEmbedder()
		embedder.Dimension = cfg.Embedding.Dimension
		return mock.NewMockProviderWithEmbedder(embedder), nil
	case "openai":
		provider, err := openai.NewProvider(cfg.AIConfig())
		if err != nil {
			return nil, fmt.Errorf("invalid embedding configuration (set %s): %w", cfg.Embedding.APIKeyEnv, err)
		}
		return provider, nil
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrInvalidProvider, cfg.Embedding.Provider)
	}
}

// openSource returns the catalog source named by the config and a func
// that releases it.
func openSource(cfg *config.Config) (catalog.Source, func() error, error) {
	if cfg.Catalog.Snapshot != "" {
		repo, err := badger.NewRepository(cfg.Catalog.Snapshot, false)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open snapshot: %w", err)
		}
		return repo, repo.Close, nil
	}
	return catalog.FileSource{Path: cfg.Catalog.Path}, func() error { return nil }, nil
}

// newService loads the catalog and returns a ready service and its cleanup.
func newService(ctx context.Context, cfg *config.Config) (*recommendit.Service, func(), error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	provider, err := newProvider(cfg)
	if err != nil {
		return nil, nil, err
	}

	source, closeSource, err := openSource(cfg)
	if err != nil {
		provider.Close()
		return nil, nil, err
	}

	svc, err := recommendit.NewService(ctx, source, provider,
		recommendit.WithEngineOptions(
			search.WithDefaultParams(cfg.Params()),
			search.WithEmbedTimeout(cfg.Retrieve.EmbedTimeout),
		))
	if err != nil {
		closeSource()
		provider.Close()
		return nil, nil, err
	}

	cleanup := func() {
		svc.Close()
		closeSource()
	}
	return svc, cleanup, nil
}
