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

// Package catalog holds the immutable catalog snapshot the recommender
// searches over.
//
// A Catalog binds row i to the embedding at row i of its vector index. It is
// built once from a Source (a CSV file or a badger snapshot) and never
// mutated; a refreshed catalog replaces the old one wholesale.
//
// Loading fails with a *core.CatalogLoadError when any row is malformed.
// There is no partial load.
package catalog
