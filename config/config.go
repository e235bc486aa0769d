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

// Package config loads recommendit settings from a YAML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/poiesic/recommendit/ai"
	"github.com/poiesic/recommendit/builder"
	"github.com/poiesic/recommendit/search"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file read when no path is given.
const DefaultPath = "recommendit.yaml"

var (
	// ErrNoCatalog indicates neither a CSV path nor a snapshot was configured.
	ErrNoCatalog = errors.New("config: catalog.path or catalog.snapshot is required")

	// ErrInvalidLogLevel indicates an unknown logging.level.
	ErrInvalidLogLevel = errors.New("config: invalid log level")

	// ErrInvalidProvider indicates an unknown embedding.provider.
	ErrInvalidProvider = errors.New("config: invalid embedding provider")
)

// Config holds all configuration for recommendit.
type Config struct {
	Catalog   CatalogConfig   `yaml:"catalog"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Retrieve  RetrieveConfig  `yaml:"retrieve"`
	Server    ServerConfig    `yaml:"server"`
	Build     BuildConfig     `yaml:"build"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// CatalogConfig says where the catalog snapshot lives.
type CatalogConfig struct {
	Path     string `yaml:"path"`     // finalized CSV with embeddings
	Snapshot string `yaml:"snapshot"` // badger directory; wins over Path when set
}

// EmbeddingConfig holds embedding provider configuration.
type EmbeddingConfig struct {
	Provider  string        `yaml:"provider"` // "openai" or "mock"
	Host      string        `yaml:"host"`
	Model     string        `yaml:"model"`
	APIKeyEnv string        `yaml:"api_key_env"` // Environment variable for API key
	Dimension int           `yaml:"dimension"`
	Timeout   time.Duration `yaml:"timeout"`
	BatchSize int           `yaml:"batch_size"`
}

// RetrieveConfig holds retrieval defaults.
type RetrieveConfig struct {
	ScoreThreshold float32       `yaml:"score_threshold"`
	MaxResults     int           `yaml:"max_results"`
	CandidatePool  int           `yaml:"candidate_pool"`
	Shape          string        `yaml:"shape"`
	EmbedTimeout   time.Duration `yaml:"embed_timeout"`
}

// ServerConfig holds REST server configuration.
type ServerConfig struct {
	Addr              string        `yaml:"addr"`
	AllowedOrigins    []string      `yaml:"allowed_origins"`
	ReadTimeout       time.Duration `yaml:"read_timeout"`
	WriteTimeout      time.Duration `yaml:"write_timeout"`
	RequestsPerSecond float64       `yaml:"requests_per_second"` // 0 = unlimited
	Burst             int           `yaml:"burst"`
	// AdminTokenEnv names the environment variable holding the admin
	// bearer token. Admin routes are disabled while it is unset.
	AdminTokenEnv string `yaml:"admin_token_env"`
}

// BuildConfig holds offline catalog build configuration.
type BuildConfig struct {
	BatchSize         int           `yaml:"batch_size"`
	ReportInterval    int           `yaml:"report_interval"`
	MaxRetries        int           `yaml:"max_retries"`
	RetryDelay        time.Duration `yaml:"retry_delay"`
	Concurrency       int           `yaml:"concurrency"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
	// Tracing prints OpenTelemetry spans to stderr.
	Tracing bool `yaml:"tracing"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	aiDefaults := ai.DefaultConfig()
	buildDefaults := builder.DefaultConfig()
	params := search.DefaultParams()

	return &Config{
		Catalog: CatalogConfig{
			Path: "shl_catalog_with_embeddings.csv",
		},
		Embedding: EmbeddingConfig{
			Provider:  "openai",
			Host:      aiDefaults.Host,
			Model:     aiDefaults.Model,
			APIKeyEnv: "OPENAI_API_KEY",
			Dimension: aiDefaults.Dimension,
			Timeout:   aiDefaults.Timeout,
			BatchSize: aiDefaults.BatchSize,
		},
		Retrieve: RetrieveConfig{
			ScoreThreshold: params.ScoreThreshold,
			MaxResults:     params.MaxResults,
			CandidatePool:  params.CandidatePool,
			Shape:          "api",
			EmbedTimeout:   aiDefaults.Timeout,
		},
		Server: ServerConfig{
			Addr:           ":8000",
			AllowedOrigins: []string{"*"},
			ReadTimeout:    15 * time.Second,
			WriteTimeout:   60 * time.Second,
			AdminTokenEnv:  "RECOMMENDIT_ADMIN_TOKEN",
		},
		Build: BuildConfig{
			BatchSize:         buildDefaults.BatchSize,
			ReportInterval:    buildDefaults.ReportInterval,
			MaxRetries:        buildDefaults.MaxRetries,
			RetryDelay:        buildDefaults.RetryDelay,
			Concurrency:       buildDefaults.Concurrency,
			RequestsPerSecond: buildDefaults.RequestsPerSecond,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file.
// A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks the settings that every command depends on.
func (c *Config) Validate() error {
	if c.Catalog.Path == "" && c.Catalog.Snapshot == "" {
		return ErrNoCatalog
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.Logging.Level)
	}
	switch c.Embedding.Provider {
	case "openai", "mock":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidProvider, c.Embedding.Provider)
	}
	if _, err := search.ShapeByName(c.Retrieve.Shape); err != nil {
		return err
	}
	return c.Params().Validate()
}

// Params returns the retrieval defaults as search parameters.
func (c *Config) Params() search.Params {
	return search.Params{
		ScoreThreshold: c.Retrieve.ScoreThreshold,
		MaxResults:     c.Retrieve.MaxResults,
		CandidatePool:  c.Retrieve.CandidatePool,
	}
}

// APIKey reads the provider credential from the configured environment variable.
func (c *Config) APIKey() string {
	if c.Embedding.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(c.Embedding.APIKeyEnv)
}

// AdminToken returns the admin bearer token from the environment, or ""
// when admin routes are disabled.
func (c *Config) AdminToken() string {
	if c.Server.AdminTokenEnv == "" {
		return ""
	}
	return os.Getenv(c.Server.AdminTokenEnv)
}

// AIConfig returns the embedding provider configuration, with the API key
// taken from the environment. The result is not validated.
func (c *Config) AIConfig() *ai.Config {
	return ai.NewConfig(
		ai.WithHost(c.Embedding.Host),
		ai.WithModel(c.Embedding.Model),
		ai.WithAPIKey(c.APIKey()),
		ai.WithDimension(c.Embedding.Dimension),
		ai.WithTimeout(c.Embedding.Timeout),
		ai.WithBatchSize(c.Embedding.BatchSize),
	)
}

// BuilderConfig returns the offline build configuration.
func (c *Config) BuilderConfig() *builder.Config {
	return &builder.Config{
		BatchSize:         c.Build.BatchSize,
		ReportInterval:    c.Build.ReportInterval,
		MaxRetries:        c.Build.MaxRetries,
		RetryDelay:        c.Build.RetryDelay,
		Concurrency:       c.Build.Concurrency,
		RequestsPerSecond: c.Build.RequestsPerSecond,
	}
}
