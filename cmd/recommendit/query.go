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
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/poiesic/recommendit/core"
	"github.com/poiesic/recommendit/retry"
	"github.com/poiesic/recommendit/search"
)

func queryCommand() *cli.Command {
	flags := append(catalogFlags(), retrieveFlags()...)
	flags = append(flags,
		&cli.BoolFlag{
			Name:  "explain",
			Usage: "Print pipeline steps to stderr",
		},
		&cli.IntFlag{
			Name:  "retries",
			Usage: "Attempts for transient embedding failures",
			Value: 1,
		},
		&cli.DurationFlag{
			Name:  "retry-delay",
			Usage: "Base delay for exponential backoff",
			Value: 500 * time.Millisecond,
		},
		&cli.StringFlag{
			Name:  "format",
			Usage: "Output format (text, api, catalog)",
			Value: "text",
		},
	)
	return &cli.Command{
		Name:      "query",
		Usage:     "Recommend assessments for a description",
		ArgsUsage: "<description>",
		Action:    queryAction,
		Flags:     flags,
	}
}

func queryAction(c *cli.Context) error {
	query := strings.Join(c.Args().Slice(), " ")
	if strings.TrimSpace(query) == "" {
		return fmt.Errorf("a description is required")
	}
	format := strings.ToLower(c.String("format"))
	if format != "text" {
		if _, err := search.ShapeByName(format); err != nil {
			return err
		}
	}

	ctx := context.Background()
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	svc, cleanup, err := newService(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to start: %w", err)
	}
	defer cleanup()

	var monitor search.Monitor
	if c.Bool("explain") {
		monitor = search.NewTextMonitor(os.Stderr)
	}

	var results []core.RetrievalResult
	err = retry.WithBackoffIf(ctx, func() error {
		var err error
		results, err = svc.RecommendWithMonitor(ctx, query, svc.Defaults(), monitor)
		return err
	}, c.Int("retries"), c.Duration("retry-delay"), retry.Transient)

	var noMatch *core.NoMatchError
	if errors.As(err, &noMatch) {
		fmt.Fprintf(os.Stderr, "No assessments scored at least %.2f (best %.4f).\n", noMatch.Threshold, noMatch.BestScore)
		return nil
	}
	if err != nil {
		return err
	}

	if format == "text" {
		return printResults(os.Stdout, results)
	}
	shaper, _ := search.ShapeByName(format)
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(shaper.Shape(results))
}

func printResults(w io.Writer, results []core.RetrievalResult) error {
	for i, r := range results {
		rec := r.Record
		fmt.Fprintf(w, "%d. %s (%.4f)\n", i+1, rec.Name, r.Score)
		fmt.Fprintf(w, "   %s\n", rec.URL)
		fmt.Fprintf(w, "   Remote Testing: %s\n", rec.RemoteSupport)
		fmt.Fprintf(w, "   Adaptive Support: %s\n", rec.AdaptiveSupport)
		fmt.Fprintf(w, "   Duration: %s\n", core.FormatDuration(rec.DurationMinutes))
		if _, err := fmt.Fprintf(w, "   Test Type: %s\n", strings.Join(rec.TestTypes, ", ")); err != nil {
			return err
		}
	}
	return nil
}
