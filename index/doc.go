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

// Package index provides an exact inner-product vector index over
// L2-normalized embeddings.
//
// Row i of an Index corresponds to row i of the catalog it was built from.
// An Index is immutable after Build and safe for concurrent Search calls.
//
// Search is a brute-force O(n·d) scan. That is appropriate for catalogs of
// hundreds to low thousands of records; beyond that the index should be
// replaced by an approximate nearest neighbour structure.
package index
