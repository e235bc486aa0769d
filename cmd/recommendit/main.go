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
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "recommendit",
		Usage: "Recommend assessments for a job or requirement description",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML configuration file",
				Value:   "recommendit.yaml",
				EnvVars: []string{"RECOMMENDIT_CONFIG"},
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "Dotenv file to load before reading the environment",
				Value: ".env",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error); overrides logging.level",
			},
			&cli.BoolFlag{
				Name:  "trace",
				Usage: "Print OpenTelemetry spans to stderr; overrides logging.tracing",
			},
		},
		Before: setup,
		After:  shutdownTracing,
		Commands: []*cli.Command{
			serveCommand(),
			queryCommand(),
			buildCommand(),
			importCommand(),
			infoCommand(),
		},
	}
}

func setup(c *cli.Context) error {
	// A missing .env is normal in production
	if err := godotenv.Load(c.String("env-file")); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("loading %s: %w", c.String("env-file"), err)
	}
	if err := setupLogger(c); err != nil {
		return err
	}
	return setupTracing(c, c.App.ErrWriter)
}

func setupLogger(c *cli.Context) error {
	levelStr := c.String("log-level")
	if levelStr == "" {
		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}
		levelStr = cfg.Logging.Level
	}
	levelStr = strings.ToLower(levelStr)

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
