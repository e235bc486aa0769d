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

package ai

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrMissingAPIKey indicates no credential was configured for the provider.
	ErrMissingAPIKey = errors.New("ai config: APIKey is required")

	// ErrMissingHost indicates the provider base URL is empty.
	ErrMissingHost = errors.New("ai config: Host is required")

	// ErrMissingModel indicates no embedding model was configured.
	ErrMissingModel = errors.New("ai config: Model is required")
)

// Config holds configuration for the embedding provider.
type Config struct {
	// Host is the base URL for the OpenAI-compatible embedding API.
	// Example: "https://api.openai.com/v1"
	Host string

	// Model is the embedding model identifier.
	// Example: "text-embedding-3-small"
	Model string

	// APIKey is the bearer credential sent to the provider. Required.
	APIKey string

	// Dimension is the expected embedding length. Responses of any other
	// length are rejected. Zero disables the check.
	Dimension int

	// Timeout bounds a single HTTP call to the provider. Zero means no limit
	// beyond the caller's context.
	Timeout time.Duration

	// BatchSize caps how many texts are sent in one request by EmbedTexts.
	BatchSize int
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithHost sets the provider base URL.
func WithHost(host string) ConfigOption {
	return func(c *Config) {
		c.Host = host
	}
}

// WithModel sets the embedding model identifier.
func WithModel(model string) ConfigOption {
	return func(c *Config) {
		c.Model = model
	}
}

// WithAPIKey sets the provider credential.
func WithAPIKey(key string) ConfigOption {
	return func(c *Config) {
		c.APIKey = key
	}
}

// WithDimension sets the expected embedding length.
func WithDimension(dim int) ConfigOption {
	return func(c *Config) {
		c.Dimension = dim
	}
}

// WithTimeout sets the per-call HTTP timeout.
func WithTimeout(d time.Duration) ConfigOption {
	return func(c *Config) {
		c.Timeout = d
	}
}

// WithBatchSize sets the maximum number of texts per provider request.
func WithBatchSize(n int) ConfigOption {
	return func(c *Config) {
		c.BatchSize = n
	}
}

// DefaultConfig returns a Config for OpenAI's text-embedding-3-small.
// The APIKey is left empty and must be supplied.
func DefaultConfig() *Config {
	return &Config{
		Host:      "https://api.openai.com/v1",
		Model:     "text-embedding-3-small",
		Dimension: 1536,
		Timeout:   30 * time.Second,
		BatchSize: 100,
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
//
// Example:
//
//	cfg := ai.NewConfig(ai.WithAPIKey(os.Getenv("OPENAI_API_KEY")))
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures the configuration is in a canonical form.
// It adds the /v1 suffix to the host if missing, which is required
// by OpenAI-compatible APIs.
func (c *Config) Normalize() {
	c.APIKey = strings.TrimSpace(c.APIKey)
	if c.Host != "" && !strings.HasSuffix(c.Host, "/v1") {
		c.Host = strings.TrimSuffix(c.Host, "/")
		c.Host = c.Host + "/v1"
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 100
	}
}

// Validate checks that the configuration is valid and complete.
// It normalizes the configuration before validation.
func (c *Config) Validate() error {
	c.Normalize()

	if c.Host == "" {
		return ErrMissingHost
	}
	if c.Model == "" {
		return ErrMissingModel
	}
	if c.APIKey == "" {
		return ErrMissingAPIKey
	}
	if c.Dimension < 0 {
		return fmt.Errorf("ai config: Dimension must not be negative, got %d", c.Dimension)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("ai config: Timeout must not be negative, got %s", c.Timeout)
	}
	return nil
}
