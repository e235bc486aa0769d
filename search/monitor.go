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
	"io"
	"time"

	"github.com/poiesic/recommendit/core"
	"github.com/poiesic/recommendit/index"
)

// Monitor provides hooks to observe the retrieval pipeline.
// Implement this interface to track intermediate steps and results.
type Monitor interface {
	Start(query string, params Params)
	AfterEmbedding(dimension int, elapsed time.Duration)
	AfterIndexSearch(hits []index.Hit)
	AfterThresholdFilter(kept, dropped int)
	Finish(results []core.RetrievalResult, err error)
}

// noopMonitor is a no-op implementation of Monitor
type noopMonitor struct{}

var _ Monitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string, _ Params)                 {}
func (n *noopMonitor) AfterEmbedding(_ int, _ time.Duration)    {}
func (n *noopMonitor) AfterIndexSearch(_ []index.Hit)           {}
func (n *noopMonitor) AfterThresholdFilter(_, _ int)            {}
func (n *noopMonitor) Finish(_ []core.RetrievalResult, _ error) {}

// TextMonitor writes a human readable trace of each pipeline step.
// It is intended for one query at a time.
type TextMonitor struct {
	w     io.Writer
	query string
}

var _ Monitor = (*TextMonitor)(nil)

// NewTextMonitor returns a monitor that writes to w.
func NewTextMonitor(w io.Writer) *TextMonitor {
	return &TextMonitor{w: w}
}

func (m *TextMonitor) Start(query string, params Params) {
	m.query = query
	fmt.Fprintf(m.w, "query: %q\n", query)
	fmt.Fprintf(m.w, "  threshold=%.4f max_results=%d pool=%d\n", params.ScoreThreshold, params.MaxResults, params.pool())
}

func (m *TextMonitor) AfterEmbedding(dimension int, elapsed time.Duration) {
	fmt.Fprintf(m.w, "  embedded: %d dims in %s\n", dimension, elapsed.Round(time.Millisecond))
}

func (m *TextMonitor) AfterIndexSearch(hits []index.Hit) {
	fmt.Fprintf(m.w, "  candidates: %d\n", len(hits))
	for _, h := range hits {
		fmt.Fprintf(m.w, "    row %-5d score %.4f\n", h.Row, h.Score)
	}
}

func (m *TextMonitor) AfterThresholdFilter(kept, dropped int) {
	fmt.Fprintf(m.w, "  threshold: kept %d, dropped %d\n", kept, dropped)
}

func (m *TextMonitor) Finish(results []core.RetrievalResult, err error) {
	if err != nil {
		fmt.Fprintf(m.w, "  error: %v\n", err)
		return
	}
	for i, r := range results {
		fmt.Fprintf(m.w, "  %d. %s (%.4f)", i+1, r.Record.Name, r.Score)
		if terms := matchedTerms(core.EmbeddingText(r.Record), m.query); len(terms) > 0 {
			fmt.Fprintf(m.w, " terms=%v", terms)
		}
		fmt.Fprintln(m.w)
	}
}
