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
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/poiesic/recommendit/core"
)

// Catalog table column names.
const (
	ColumnName        = "Assessment Name"
	ColumnURL         = "Assessment URL"
	ColumnRemote      = "Remote Testing Support"
	ColumnAdaptive    = "Adaptive/IRT Support"
	ColumnTime        = "Time"
	ColumnTestTypes   = "Test Type Keys"
	ColumnDescription = "Description"
	ColumnEmbedding   = "openai_embedding"
)

var baseColumns = []string{
	ColumnName,
	ColumnURL,
	ColumnRemote,
	ColumnAdaptive,
	ColumnTime,
	ColumnTestTypes,
	ColumnDescription,
}

var (
	// ErrMissingColumn indicates a required header is absent.
	ErrMissingColumn = errors.New("missing column")

	// ErrBadEmbedding indicates the embedding cell is not a numeric list.
	ErrBadEmbedding = errors.New("malformed embedding")
)

type readConfig struct {
	embeddings bool
	partial    bool
}

// ReadOption configures ReadCSV.
type ReadOption func(*readConfig)

// WithoutEmbeddings reads a raw catalog that has no embedding column yet.
// Any embedding column present is ignored.
func WithoutEmbeddings() ReadOption {
	return func(c *readConfig) {
		c.embeddings = false
	}
}

// WithPartialEmbeddings reads a catalog where some or all embedding cells
// may be empty, as left by an interrupted or incremental build. Records
// with an empty cell get a nil vector.
func WithPartialEmbeddings() ReadOption {
	return func(c *readConfig) {
		c.embeddings = true
		c.partial = true
	}
}

// ReadCSV parses a catalog table. Columns are located by header name and may
// appear in any order; unknown columns are ignored. Rows are returned in file
// order. Any malformed cell fails the whole read with a *core.CatalogLoadError.
func ReadCSV(r io.Reader, opts ...ReadOption) ([]*core.CatalogRecord, error) {
	cfg := readConfig{embeddings: true}
	for _, opt := range opts {
		opt(&cfg)
	}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, core.NewCatalogLoadError(ErrEmptyCatalog)
		}
		return nil, core.NewCatalogLoadError(fmt.Errorf("reading header: %w", err))
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}

	required := baseColumns
	if cfg.embeddings && !cfg.partial {
		required = append(append([]string(nil), baseColumns...), ColumnEmbedding)
	}
	for _, name := range required {
		if _, ok := cols[name]; !ok {
			return nil, &core.CatalogLoadError{Row: -1, Column: name, Err: ErrMissingColumn}
		}
	}

	var records []*core.CatalogRecord
	for row := 0; ; row++ {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &core.CatalogLoadError{Row: row, Err: err}
		}

		rec, err := parseRow(fields, cols, row, cfg)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	if len(records) == 0 {
		return nil, core.NewCatalogLoadError(ErrEmptyCatalog)
	}
	return records, nil
}

func parseRow(fields []string, cols map[string]int, row int, cfg readConfig) (*core.CatalogRecord, error) {
	cell := func(name string) string {
		i, ok := cols[name]
		if !ok || i >= len(fields) {
			return ""
		}
		return strings.TrimSpace(fields[i])
	}
	fail := func(column string, err error) error {
		return &core.CatalogLoadError{Row: row, Column: column, Err: err}
	}

	rec := &core.CatalogRecord{
		Name:            cell(ColumnName),
		URL:             cell(ColumnURL),
		Description:     cell(ColumnDescription),
		DurationMinutes: core.ParseDuration(cell(ColumnTime)),
	}
	rec.ID = core.IDFromContent(rec.URL)

	var err error
	if rec.RemoteSupport, err = core.ParseSupport(cell(ColumnRemote)); err != nil {
		return nil, fail(ColumnRemote, err)
	}
	if rec.AdaptiveSupport, err = core.ParseSupport(cell(ColumnAdaptive)); err != nil {
		return nil, fail(ColumnAdaptive, err)
	}
	if rec.TestTypes, err = core.ParseTestTypes(cell(ColumnTestTypes)); err != nil {
		return nil, fail(ColumnTestTypes, err)
	}

	if cfg.embeddings && !(cfg.partial && cell(ColumnEmbedding) == "") {
		if rec.Vector, err = ParseEmbedding(cell(ColumnEmbedding)); err != nil {
			return nil, fail(ColumnEmbedding, err)
		}
	}

	if err := core.ValidateRecord(rec); err != nil {
		return nil, &core.CatalogLoadError{Row: row, Err: err}
	}
	return rec, nil
}

// ParseEmbedding decodes a serialized numeric list such as "[0.1, -0.2]".
func ParseEmbedding(s string) ([]float32, error) {
	if s == "" {
		return nil, fmt.Errorf("%w: empty cell", ErrBadEmbedding)
	}
	var vals []float64
	if err := json.Unmarshal([]byte(s), &vals); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadEmbedding, err)
	}
	if len(vals) == 0 {
		return nil, fmt.Errorf("%w: empty list", ErrBadEmbedding)
	}
	out := make([]float32, len(vals))
	for i, v := range vals {
		out[i] = float32(v)
	}
	return out, nil
}

// FormatEmbedding serializes a vector in the form ParseEmbedding reads.
func FormatEmbedding(v []float32) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, x := range v {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(strconv.FormatFloat(float64(x), 'g', -1, 32))
	}
	b.WriteByte(']')
	return b.String()
}

// WriteCSV writes records as a catalog table. The embedding column is written
// when withEmbeddings is true; records without a vector get an empty cell.
func WriteCSV(w io.Writer, records []*core.CatalogRecord, withEmbeddings bool) error {
	cw := csv.NewWriter(w)

	header := append([]string(nil), baseColumns...)
	if withEmbeddings {
		header = append(header, ColumnEmbedding)
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, r := range records {
		row := []string{
			r.Name,
			r.URL,
			r.RemoteSupport.String(),
			r.AdaptiveSupport.String(),
			core.FormatDuration(r.DurationMinutes),
			strings.Join(r.TestTypes, ", "),
			r.Description,
		}
		if withEmbeddings {
			if len(r.Vector) > 0 {
				row = append(row, FormatEmbedding(r.Vector))
			} else {
				row = append(row, "")
			}
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing row %d: %w", i, err)
		}
	}

	cw.Flush()
	return cw.Error()
}
