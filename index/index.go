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

package index

import (
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrEmpty indicates Build was called without vectors.
	ErrEmpty = errors.New("index has no vectors")

	// ErrDimensionMismatch indicates a vector does not match the index dimension.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrZeroVector indicates a vector cannot be normalized.
	ErrZeroVector = errors.New("vector has zero or non-finite magnitude")

	// ErrInvalidK indicates a non-positive result count was requested.
	ErrInvalidK = errors.New("k must be positive")
)

// Hit is one search result: the catalog row and its cosine similarity.
type Hit struct {
	Row   int
	Score float32
}

// Index is an immutable exact inner-product index.
type Index struct {
	dim  int
	rows int
	data []float32 // rows*dim, row-major, unit length per row
}

// Build normalizes and packs vectors into an Index. All vectors must share
// the dimension of the first one and have non-zero magnitude.
func Build(vectors [][]float32) (*Index, error) {
	if len(vectors) == 0 {
		return nil, ErrEmpty
	}

	dim := len(vectors[0])
	if dim == 0 {
		return nil, fmt.Errorf("%w: row 0 is empty", ErrDimensionMismatch)
	}

	data := make([]float32, 0, len(vectors)*dim)
	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("%w: row %d has %d, want %d", ErrDimensionMismatch, i, len(v), dim)
		}
		unit, ok := Normalize(v)
		if !ok {
			return nil, fmt.Errorf("%w: row %d", ErrZeroVector, i)
		}
		data = append(data, unit...)
	}

	return &Index{dim: dim, rows: len(vectors), data: data}, nil
}

// Len returns the number of indexed rows.
func (x *Index) Len() int { return x.rows }

// Dimension returns the vector dimension.
func (x *Index) Dimension() int { return x.dim }

// Row returns the normalized vector stored for row i.
// The slice aliases index memory and must not be modified.
func (x *Index) Row(i int) []float32 {
	if i < 0 || i >= x.rows {
		return nil
	}
	return x.data[i*x.dim : (i+1)*x.dim : (i+1)*x.dim]
}

// Search returns the k rows most similar to query, ordered by descending
// score with ties broken by ascending row. When k exceeds Len, all rows are
// returned. The query is normalized before scoring.
func (x *Index) Search(query []float32, k int) ([]Hit, error) {
	if k <= 0 {
		return nil, ErrInvalidK
	}
	if len(query) != x.dim {
		return nil, fmt.Errorf("%w: query has %d, want %d", ErrDimensionMismatch, len(query), x.dim)
	}
	q, ok := Normalize(query)
	if !ok {
		return nil, ErrZeroVector
	}

	hits := make([]Hit, x.rows)
	for i := 0; i < x.rows; i++ {
		hits[i] = Hit{Row: i, Score: Dot(q, x.data[i*x.dim:(i+1)*x.dim])}
	}

	sort.Slice(hits, func(a, b int) bool {
		if hits[a].Score != hits[b].Score {
			return hits[a].Score > hits[b].Score
		}
		return hits[a].Row < hits[b].Row
	})

	if k < len(hits) {
		hits = hits[:k]
	}
	return hits, nil
}
