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

	"github.com/urfave/cli/v2"

	"github.com/poiesic/recommendit/storage/badger"
)

func importCommand() *cli.Command {
	return &cli.Command{
		Name:   "import",
		Usage:  "Load a finalized catalog CSV into a BadgerDB snapshot",
		Action: importAction,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "input",
				Aliases:  []string{"i"},
				Usage:    "Finalized catalog CSV (with embeddings)",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "snapshot",
				Usage:    "BadgerDB snapshot directory",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "model",
				Usage: "Embedding model recorded in the snapshot metadata",
			},
		},
	}
}

func importAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	model := cfg.Embedding.Model
	if c.IsSet("model") {
		model = c.String("model")
	}

	records, err := readCatalogFile(c.String("input"))
	if err != nil {
		return err
	}
	return saveSnapshot(context.Background(), c.String("snapshot"), records, model)
}

func infoCommand() *cli.Command {
	return &cli.Command{
		Name:   "info",
		Usage:  "Describe a BadgerDB snapshot",
		Action: infoAction,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "snapshot",
				Usage:    "BadgerDB snapshot directory",
				Required: true,
			},
		},
	}
}

func infoAction(c *cli.Context) error {
	repo, err := badger.NewRepository(c.String("snapshot"), false)
	if err != nil {
		return fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer repo.Close()

	info, err := repo.Info(context.Background())
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "Records:   %d\n", info.Count)
	fmt.Fprintf(os.Stdout, "Dimension: %d\n", info.Dimension)
	fmt.Fprintf(os.Stdout, "Model:     %s\n", info.Model)
	fmt.Fprintf(os.Stdout, "Created:   %s\n", info.CreatedAt.Format("2006-01-02 15:04:05 MST"))
	return nil
}
