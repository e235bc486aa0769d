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

// Package builder embeds a raw assessment catalog offline.
//
// A Builder takes records read from a catalog without embeddings, composes
// the embedding text for each (name, description, test types, duration and
// support flags), and fetches vectors from an ai.Embedder in batches. Batches
// run on an ants worker pool, are throttled by a token bucket limiter, and
// are retried with exponential backoff. Returned vectors are L2-normalized
// and row order is preserved.
//
// The output is written as a finalized catalog CSV or a badger snapshot by
// the caller.
package builder
