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

// Package search implements the recommendation pipeline.
//
// The Engine runs a fixed sequence for every query:
//   - embed the query text through an ai.Embedder
//   - check the vector dimension and L2-normalize it
//   - fetch the nearest catalog rows from the exact index
//   - drop rows scoring below the threshold and truncate to the result limit
//   - join rows to catalog records with scores rounded to four decimals
//
// An empty result is reported as a *core.NoMatchError rather than an empty
// slice. Results are deterministic for a fixed snapshot and query vector.
//
// Shapers turn results into presentation records for front ends.
package search
