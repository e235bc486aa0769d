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
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/poiesic/recommendit/builder"
	"github.com/poiesic/recommendit/catalog"
	"github.com/poiesic/recommendit/core"
	"github.com/poiesic/recommendit/storage/badger"
)

func buildCommand() *cli.Command {
	return &cli.Command{
		Name:   "build",
		Usage:  "Embed a raw catalog CSV and write a finalized catalog",
		Action: buildAction,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "input",
				Aliases:  []string{"i"},
				Usage:    "Raw catalog CSV",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Finalized catalog CSV to write",
			},
			&cli.StringFlag{
				Name:  "snapshot",
				Usage: "BadgerDB snapshot directory to write",
			},
			&cli.StringFlag{
				Name:  "provider",
				Usage: "Embedding provider (openai, mock)",
			},
			&cli.BoolFlag{
				Name:  "skip-embedded",
				Usage: "Keep embeddings already present in the input",
			},
			&cli.IntFlag{
				Name:  "batch-size",
				Usage: "Number of records embedded per request",
			},
			&cli.IntFlag{
				Name:  "concurrency",
				Usage: "Number of batches in flight",
			},
			&cli.Float64Flag{
				Name:  "requests-per-second",
				Usage: "Throttle provider requests (0 = unlimited)",
			},
			&cli.IntFlag{
				Name:  "max-retries",
				Usage: "Maximum attempts per batch",
			},
			&cli.DurationFlag{
				Name:  "retry-delay",
				Usage: "Base delay for exponential backoff",
			},
		},
	}
}

func buildAction(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	output := c.String("output")
	snapshot := c.String("snapshot")
	if output == "" && snapshot == "" {
		return fmt.Errorf("at least one of --output or --snapshot is required")
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if c.IsSet("batch-size") {
		cfg.Build.BatchSize = c.Int("batch-size")
	}
	if c.IsSet("concurrency") {
		cfg.Build.Concurrency = c.Int("concurrency")
	}
	if c.IsSet("requests-per-second") {
		cfg.Build.RequestsPerSecond = c.Float64("requests-per-second")
	}
	if c.IsSet("max-retries") {
		cfg.Build.MaxRetries = c.Int("max-retries")
	}
	if c.IsSet("retry-delay") {
		cfg.Build.RetryDelay = c.Duration("retry-delay")
	}
	if cfg.Build.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if cfg.Build.MaxRetries <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	readOpt := catalog.WithoutEmbeddings()
	if c.Bool("skip-embedded") {
		readOpt = catalog.WithPartialEmbeddings()
	}
	records, err := readCatalogFile(c.String("input"), readOpt)
	if err != nil {
		return err
	}

	provider, err := newProvider(cfg)
	if err != nil {
		return err
	}
	defer provider.Close()

	buildConfig := cfg.BuilderConfig()
	buildConfig.SkipEmbedded = c.Bool("skip-embedded")

	b, err := builder.NewBuilder(provider.Embedder(), buildConfig, os.Stderr)
	if err != nil {
		return fmt.Errorf("failed to create builder: %w", err)
	}
	defer b.Release()

	fmt.Fprintf(os.Stderr, "Input: %s (%d records)\n", c.String("input"), len(records))
	fmt.Fprintf(os.Stderr, "Embedding host: %s\n", cfg.Embedding.Host)
	fmt.Fprintf(os.Stderr, "Embedding model: %s\n", cfg.Embedding.Model)
	fmt.Fprintln(os.Stderr)

	built, err := b.Run(ctx, records)
	if err != nil {
		return fmt.Errorf("build failed: %w", err)
	}

	if output != "" {
		if err := writeCatalogFile(output, built); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Wrote %s\n", output)
	}
	if snapshot != "" {
		if err := saveSnapshot(ctx, snapshot, built, cfg.Embedding.Model); err != nil {
			return err
		}
	}
	return nil
}

func readCatalogFile(path string, opts ...catalog.ReadOption) ([]*core.CatalogRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return catalog.ReadCSV(f, opts...)
}

// writeCatalogFile writes through a temp file so a failed write never
// leaves a truncated catalog behind.
func writeCatalogFile(path string, records []*core.CatalogRecord) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".catalog-*.csv")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := catalog.WriteCSV(tmp, records, true); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func saveSnapshot(ctx context.Context, dir string, records []*core.CatalogRecord, model string) error {
	repo, err := badger.NewRepository(dir, false)
	if err != nil {
		return fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer repo.Close()

	started := time.Now()
	info, err := repo.SaveSnapshot(ctx, records, model)
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Saved snapshot %s: %d records, %d dimensions in %v\n",
		dir, info.Count, info.Dimension, time.Since(started).Round(time.Millisecond))
	return nil
}
