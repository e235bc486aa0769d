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
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/poiesic/recommendit/core"
)

// DescriptionLimit is the rune length at which the api shape truncates
// descriptions.
const DescriptionLimit = 300

// Shaper turns ranked results into presentation records.
// Shapers are stateless and safe for concurrent use.
type Shaper interface {
	Name() string
	Shape(results []core.RetrievalResult) any
}

// APIItem is one result in the api shape.
type APIItem struct {
	ID              string   `json:"id"`
	URL             string   `json:"url"`
	Name            string   `json:"name"`
	AdaptiveSupport string   `json:"adaptive_support"`
	Description     string   `json:"description"`
	Duration        int      `json:"duration"`
	RemoteSupport   string   `json:"remote_support"`
	TestType        []string `json:"test_type"`
	Score           float32  `json:"score"`
}

// CatalogItem is one result in the catalog shape, keyed by the catalog
// table's column names.
type CatalogItem struct {
	Name      string  `json:"Assessment Name"`
	URL       string  `json:"Assessment URL"`
	Remote    string  `json:"Remote Testing Support"`
	Adaptive  string  `json:"Adaptive/IRT Support"`
	Time      string  `json:"Time"`
	TestTypes string  `json:"Test Type Keys"`
	Score     float32 `json:"Score"`
}

type apiShaper struct{}

func (apiShaper) Name() string { return "api" }

func (apiShaper) Shape(results []core.RetrievalResult) any {
	items := make([]APIItem, 0, len(results))
	for _, r := range results {
		rec := r.Record
		items = append(items, APIItem{
			ID:              rec.ID.String(),
			URL:             rec.URL,
			Name:            rec.Name,
			AdaptiveSupport: rec.AdaptiveSupport.String(),
			Description:     truncate(rec.Description, DescriptionLimit),
			Duration:        rec.DurationMinutes,
			RemoteSupport:   rec.RemoteSupport.String(),
			TestType:        append([]string(nil), rec.TestTypes...),
			Score:           r.Score,
		})
	}
	return items
}

type catalogShaper struct{}

func (catalogShaper) Name() string { return "catalog" }

func (catalogShaper) Shape(results []core.RetrievalResult) any {
	items := make([]CatalogItem, 0, len(results))
	for _, r := range results {
		rec := r.Record
		items = append(items, CatalogItem{
			Name:      rec.Name,
			URL:       rec.URL,
			Remote:    rec.RemoteSupport.String(),
			Adaptive:  rec.AdaptiveSupport.String(),
			Time:      core.FormatDuration(rec.DurationMinutes),
			TestTypes: strings.Join(rec.TestTypes, ", "),
			Score:     r.Score,
		})
	}
	return items
}

var shapers = map[string]Shaper{
	"api":     apiShaper{},
	"catalog": catalogShaper{},
}

// DefaultShape is used when no shape is requested.
const DefaultShape = "api"

// ShapeByName returns the named shaper. An empty name selects DefaultShape.
func ShapeByName(name string) (Shaper, error) {
	if name == "" {
		name = DefaultShape
	}
	s, ok := shapers[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %q (known: %s)", ErrUnknownShape, name, strings.Join(ShapeNames(), ", "))
	}
	return s, nil
}

// ShapeNames lists the registered shapes in sorted order.
func ShapeNames() []string {
	names := make([]string, 0, len(shapers))
	for n := range shapers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// ShapeRecord renders a single catalog record in the api shape without a score.
func ShapeRecord(rec *core.CatalogRecord) APIItem {
	item := apiShaper{}.Shape([]core.RetrievalResult{{Record: rec}}).([]APIItem)[0]
	item.Description = rec.Description
	return item
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:limit])) + "..."
}
