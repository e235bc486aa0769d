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

package catalog

import (
	"errors"
	"fmt"

	"github.com/poiesic/recommendit/core"
)

var (
	// ErrEmptyCatalog indicates a snapshot without records.
	ErrEmptyCatalog = errors.New("catalog is empty")

	// ErrMissingVector indicates a record without an embedding.
	ErrMissingVector = errors.New("record has no embedding")

	// ErrDimensionMismatch indicates embeddings of differing lengths.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrDuplicateURL indicates two records share a URL.
	ErrDuplicateURL = errors.New("duplicate assessment url")
)

// Catalog is an immutable, row-ordered set of assessment records.
// It is safe for concurrent use.
type Catalog struct {
	records []*core.CatalogRecord
	byID    map[core.ID]int
	dim     int
}

// New validates records and freezes them into a Catalog. Records are
// copied; later changes to the input do not affect the Catalog.
//
// Every record must pass core.ValidateRecord, carry an embedding of the
// same length as the first record, and have a unique URL.
func New(records []*core.CatalogRecord) (*Catalog, error) {
	if len(records) == 0 {
		return nil, core.NewCatalogLoadError(ErrEmptyCatalog)
	}

	c := &Catalog{
		records: make([]*core.CatalogRecord, len(records)),
		byID:    make(map[core.ID]int, len(records)),
	}
	urls := make(map[string]int, len(records))

	for i, rec := range records {
		if err := core.ValidateRecord(rec); err != nil {
			return nil, &core.CatalogLoadError{Row: i, Err: err}
		}
		if len(rec.Vector) == 0 {
			return nil, &core.CatalogLoadError{Row: i, Column: ColumnEmbedding, Err: ErrMissingVector}
		}
		if i == 0 {
			c.dim = len(rec.Vector)
		} else if len(rec.Vector) != c.dim {
			return nil, &core.CatalogLoadError{
				Row:    i,
				Column: ColumnEmbedding,
				Err:    fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(rec.Vector), c.dim),
			}
		}
		if prev, dup := urls[rec.URL]; dup {
			return nil, &core.CatalogLoadError{
				Row:    i,
				Column: ColumnURL,
				Err:    fmt.Errorf("%w: %s (first seen at row %d)", ErrDuplicateURL, rec.URL, prev),
			}
		}
		urls[rec.URL] = i

		frozen := rec.Clone()
		if frozen.ID == 0 {
			frozen.ID = core.IDFromContent(frozen.URL)
		}
		c.records[i] = frozen
		c.byID[frozen.ID] = i
	}

	return c, nil
}

// RowCount returns the number of records.
func (c *Catalog) RowCount() int { return len(c.records) }

// Dimension returns the embedding length shared by all records.
func (c *Catalog) Dimension() int { return c.dim }

// Get returns the record at row i, or nil when i is out of range.
func (c *Catalog) Get(i int) *core.CatalogRecord {
	if i < 0 || i >= len(c.records) {
		return nil
	}
	return c.records[i]
}

// Lookup returns the record with the given ID and its row.
func (c *Catalog) Lookup(id core.ID) (*core.CatalogRecord, int, bool) {
	row, ok := c.byID[id]
	if !ok {
		return nil, -1, false
	}
	return c.records[row], row, true
}

// Vectors returns the embeddings in row order, ready for index.Build.
func (c *Catalog) Vectors() [][]float32 {
	out := make([][]float32, len(c.records))
	for i, r := range c.records {
		out[i] = r.Vector
	}
	return out
}

// Records returns the records in row order.
// The returned records are shared and must not be modified.
func (c *Catalog) Records() []*core.CatalogRecord {
	return append([]*core.CatalogRecord(nil), c.records...)
}
