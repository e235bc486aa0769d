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

package core

import (
	"errors"
	"fmt"
)

// Sentinels for the three failure kinds of the recommender.
var (
	// ErrCatalogLoad indicates the catalog snapshot could not be loaded.
	// It is fatal at startup.
	ErrCatalogLoad = errors.New("catalog load failed")

	// ErrEmbeddingProvider indicates the embedding provider failed or
	// returned an unusable vector. Callers may retry.
	ErrEmbeddingProvider = errors.New("embedding provider failed")

	// ErrNoMatch indicates no catalog record scored at or above the threshold.
	ErrNoMatch = errors.New("no matching assessments")
)

// Record validation errors
var (
	// ErrInvalidRecord indicates a CatalogRecord failed validation.
	ErrInvalidRecord = errors.New("invalid catalog record")

	// ErrEmptyName indicates the Name field is empty.
	ErrEmptyName = errors.New("name cannot be empty")

	// ErrEmptyURL indicates the URL field is empty.
	ErrEmptyURL = errors.New("url cannot be empty")

	// ErrEmptyDescription indicates the Description field is empty.
	ErrEmptyDescription = errors.New("description cannot be empty")

	// ErrNoTestTypes indicates the record has no test type tags.
	ErrNoTestTypes = errors.New("test types cannot be empty")

	// ErrNegativeDuration indicates DurationMinutes is below zero.
	ErrNegativeDuration = errors.New("duration cannot be negative")

	// ErrInvalidSupport indicates a Yes/No cell could not be parsed.
	ErrInvalidSupport = errors.New("invalid support value")

	// ErrInvalidID indicates a record ID string could not be parsed.
	ErrInvalidID = errors.New("invalid record id")
)

// CatalogLoadError describes why a catalog snapshot was rejected.
// Row is the zero-based data row, or -1 when the failure is not row specific.
type CatalogLoadError struct {
	Row    int
	Column string
	Err    error
}

func (e *CatalogLoadError) Error() string {
	switch {
	case e.Row >= 0 && e.Column != "":
		return fmt.Sprintf("%s: row %d, column %q: %v", ErrCatalogLoad, e.Row, e.Column, e.Err)
	case e.Row >= 0:
		return fmt.Sprintf("%s: row %d: %v", ErrCatalogLoad, e.Row, e.Err)
	default:
		return fmt.Sprintf("%s: %v", ErrCatalogLoad, e.Err)
	}
}

func (e *CatalogLoadError) Unwrap() error { return e.Err }

// Is matches ErrCatalogLoad.
func (e *CatalogLoadError) Is(target error) bool { return target == ErrCatalogLoad }

// NewCatalogLoadError builds a CatalogLoadError that is not tied to a row.
func NewCatalogLoadError(err error) *CatalogLoadError {
	return &CatalogLoadError{Row: -1, Err: err}
}

// ProviderError wraps a failure of the embedding provider.
type ProviderError struct {
	Err error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %v", ErrEmbeddingProvider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Is matches ErrEmbeddingProvider.
func (e *ProviderError) Is(target error) bool { return target == ErrEmbeddingProvider }

// NewProviderError wraps err as a ProviderError. A nil err yields nil.
func NewProviderError(err error) error {
	if err == nil {
		return nil
	}
	var pe *ProviderError
	if errors.As(err, &pe) {
		return err
	}
	return &ProviderError{Err: err}
}

// NoMatchError reports that every candidate fell below the score threshold.
// BestScore is the highest candidate score seen, or 0 when there were none.
type NoMatchError struct {
	Threshold  float32
	BestScore  float32
	Candidates int
}

func (e *NoMatchError) Error() string {
	return fmt.Sprintf("%s: best score %.4f below threshold %.4f (%d candidates)",
		ErrNoMatch, e.BestScore, e.Threshold, e.Candidates)
}

// Is matches ErrNoMatch.
func (e *NoMatchError) Is(target error) bool { return target == ErrNoMatch }
