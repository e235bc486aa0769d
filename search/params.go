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

package search

import (
	"fmt"
	"math"
)

// Default retrieval parameters.
const (
	DefaultScoreThreshold float32 = 0.5
	DefaultMaxResults             = 10
	DefaultCandidatePool          = 20
)

// Params controls a single retrieval.
type Params struct {
	// ScoreThreshold is the minimum cosine similarity a result must reach.
	ScoreThreshold float32

	// MaxResults caps the number of returned results. Must be positive.
	MaxResults int

	// CandidatePool is how many nearest rows are fetched before
	// thresholding. The effective pool is never smaller than MaxResults.
	CandidatePool int
}

// DefaultParams returns threshold 0.5, 10 results and a pool of 20.
func DefaultParams() Params {
	return Params{
		ScoreThreshold: DefaultScoreThreshold,
		MaxResults:     DefaultMaxResults,
		CandidatePool:  DefaultCandidatePool,
	}
}

// Validate checks the parameters are usable.
func (p Params) Validate() error {
	if p.MaxResults <= 0 {
		return fmt.Errorf("%w: max results must be positive, got %d", ErrInvalidParams, p.MaxResults)
	}
	if p.CandidatePool < 0 {
		return fmt.Errorf("%w: candidate pool must not be negative, got %d", ErrInvalidParams, p.CandidatePool)
	}
	if math.IsNaN(float64(p.ScoreThreshold)) || p.ScoreThreshold < -1 || p.ScoreThreshold > 1 {
		return fmt.Errorf("%w: score threshold must be within [-1, 1], got %v", ErrInvalidParams, p.ScoreThreshold)
	}
	return nil
}

// pool returns the number of candidates to fetch from the index.
func (p Params) pool() int {
	return max(p.CandidatePool, p.MaxResults)
}
