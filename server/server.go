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

package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"

	"github.com/poiesic/recommendit"
	"github.com/poiesic/recommendit/core"
	"github.com/poiesic/recommendit/search"
)

// Service is what the REST adapter needs from the recommendation service.
type Service interface {
	Recommend(ctx context.Context, query string, params search.Params) ([]core.RetrievalResult, error)
	Defaults() search.Params
	Lookup(id core.ID) (*core.CatalogRecord, bool)
	Snapshot() recommendit.Snapshot
	Reload(ctx context.Context) (recommendit.Snapshot, error)
}

var _ Service = (*recommendit.Service)(nil)

// Config holds HTTP server settings.
type Config struct {
	Addr              string
	AllowedOrigins    []string
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	RequestsPerSecond float64 // 0 = unlimited
	Burst             int
	DefaultShape      string
	// AdminToken enables the admin routes when non-empty. Requests must
	// carry it as a bearer token.
	AdminToken string
}

// DefaultConfig returns a Config listening on :8000.
func DefaultConfig() *Config {
	return &Config{
		Addr:           ":8000",
		AllowedOrigins: []string{"*"},
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   60 * time.Second,
		DefaultShape:   search.DefaultShape,
	}
}

// Option configures a Server.
type Option func(*Server) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger.With("component", "server")
		return nil
	}
}

// Server is the REST front-end for a Service.
type Server struct {
	svc      Service
	config   *Config
	validate *validator.Validate
	limiter  *rate.Limiter
	handler  http.Handler
	logger   *slog.Logger
}

// New creates a Server. A nil config uses DefaultConfig.
func New(svc Service, config *Config, opts ...Option) (*Server, error) {
	if svc == nil {
		return nil, errors.New("service is required")
	}
	if config == nil {
		config = DefaultConfig()
	}
	if _, err := search.ShapeByName(config.DefaultShape); err != nil {
		return nil, err
	}

	s := &Server{
		svc:      svc,
		config:   config,
		validate: newValidator(),
		logger:   slog.Default().With("component", "server"),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	if config.RequestsPerSecond > 0 {
		burst := config.Burst
		if burst <= 0 {
			burst = int(config.RequestsPerSecond) + 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(config.RequestsPerSecond), burst)
	}
	s.handler = s.routes()
	return s, nil
}

// Handler returns the instrumented HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.config.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/", s.handleRoot)
	r.Get("/healthz", s.handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(s.rateLimit)
		r.Get("/recommend", s.handleLegacyRecommend)

		r.Route("/api/v1", func(r chi.Router) {
			r.Post("/recommend", s.handleRecommend)
			r.Get("/assessments/{id}", s.handleGetAssessment)
			if s.config.AdminToken != "" {
				r.With(s.requireAdmin).Post("/admin/reload", s.handleReload)
			}
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		_ = WriteError(w, http.StatusNotFound, "The requested resource was not found", nil)
	})

	return otelhttp.NewHandler(r, "recommendit",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}))
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter != nil && !s.limiter.Allow() {
			_ = WriteError(w, http.StatusTooManyRequests, "Rate limit exceeded", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.config.Addr,
		Handler:      s.handler,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.config.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
