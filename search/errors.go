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

import "errors"

var (
	// ErrCatalogRequired is returned when a catalog is not provided.
	ErrCatalogRequired = errors.New("catalog required")

	// ErrIndexRequired is returned when a vector index is not provided.
	ErrIndexRequired = errors.New("vector index required")

	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrMisaligned is returned when catalog rows and index rows disagree.
	ErrMisaligned = errors.New("catalog and index are not aligned")

	// ErrEmptyQuery is returned for blank query text.
	ErrEmptyQuery = errors.New("query cannot be empty")

	// ErrInvalidParams is returned for out-of-range retrieval parameters.
	ErrInvalidParams = errors.New("invalid retrieval parameters")

	// ErrUnknownShape is returned by ShapeByName for unregistered shapes.
	ErrUnknownShape = errors.New("unknown output shape")
)
