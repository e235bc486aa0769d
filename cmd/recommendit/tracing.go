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
	"io"
	"log/slog"

	"github.com/urfave/cli/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

const tracerShutdownKey = "tracer-shutdown"

// setupTracing installs a TracerProvider that prints finished spans to w
// when tracing is enabled by flag or by logging.tracing. Without it the
// otel API stays a no-op.
func setupTracing(c *cli.Context, w io.Writer) error {
	enabled := c.Bool("trace")
	if !c.IsSet("trace") {
		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}
		enabled = cfg.Logging.Tracing
	}
	if !enabled {
		return nil
	}

	exporter, err := stdouttrace.New(stdouttrace.WithWriter(w))
	if err != nil {
		return fmt.Errorf("creating trace exporter: %w", err)
	}
	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
	otel.SetTracerProvider(tp)
	slog.Debug("tracing enabled")

	if c.App.Metadata == nil {
		c.App.Metadata = map[string]any{}
	}
	c.App.Metadata[tracerShutdownKey] = tp.Shutdown
	return nil
}

// shutdownTracing flushes pending spans.
func shutdownTracing(c *cli.Context) error {
	shutdown, ok := c.App.Metadata[tracerShutdownKey].(func(context.Context) error)
	if !ok {
		return nil
	}
	delete(c.App.Metadata, tracerShutdownKey)
	return shutdown(context.Background())
}
