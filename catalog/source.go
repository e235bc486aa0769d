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
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/poiesic/recommendit/core"
)

// Source produces the records of a catalog snapshot in row order.
type Source interface {
	LoadRecords(ctx context.Context) ([]*core.CatalogRecord, error)
}

// FileSource reads a finalized catalog CSV from disk.
type FileSource struct {
	Path string
}

// LoadRecords implements Source.
func (s FileSource) LoadRecords(ctx context.Context) ([]*core.CatalogRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, core.NewCatalogLoadError(err)
	}
	defer f.Close()
	return ReadCSV(f)
}

// Load reads records from src and freezes them into a Catalog. Every failure
// is reported as a *core.CatalogLoadError.
func Load(ctx context.Context, src Source) (*Catalog, error) {
	records, err := src.LoadRecords(ctx)
	if err != nil {
		if errors.Is(err, core.ErrCatalogLoad) {
			return nil, err
		}
		return nil, core.NewCatalogLoadError(fmt.Errorf("loading records: %w", err))
	}
	return New(records)
}
