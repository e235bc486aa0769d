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
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/poiesic/recommendit/server"
)

func serveCommand() *cli.Command {
	flags := append(catalogFlags(), retrieveFlags()...)
	flags = append(flags,
		&cli.StringFlag{
			Name:  "addr",
			Usage: "Address to listen on",
		},
	)
	return &cli.Command{
		Name:   "serve",
		Usage:  "Serve recommendations over HTTP",
		Action: serveAction,
		Flags:  flags,
	}
}

func serveAction(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if c.IsSet("addr") {
		cfg.Server.Addr = c.String("addr")
	}

	svc, cleanup, err := newService(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to start: %w", err)
	}
	defer cleanup()

	srv, err := server.New(svc, &server.Config{
		Addr:              cfg.Server.Addr,
		AllowedOrigins:    cfg.Server.AllowedOrigins,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		RequestsPerSecond: cfg.Server.RequestsPerSecond,
		Burst:             cfg.Server.Burst,
		DefaultShape:      cfg.Retrieve.Shape,
		AdminToken:        cfg.AdminToken(),
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Catalog: %d records, %d dimensions\n", svc.Snapshot().Records, svc.Snapshot().Dimension)
	if cfg.AdminToken() == "" {
		slog.Info("admin routes disabled", "token_env", cfg.Server.AdminTokenEnv)
	}
	return srv.ListenAndServe(ctx)
}
