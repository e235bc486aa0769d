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

package core

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for catalog records.
// It is derived from the record URL so it stays stable across rebuilds.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// String renders the ID as fixed-width hex, the form used in URLs and logs.
func (id ID) String() string {
	return fmt.Sprintf("%016x", uint64(id))
}

// ParseID parses the hex form produced by ID.String.
func ParseID(s string) (ID, error) {
	v, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidID, s)
	}
	return ID(v), nil
}

// Support is a yes/no capability flag of an assessment.
type Support int

const (
	// SupportNo means the capability is not offered.
	SupportNo Support = iota
	// SupportYes means the capability is offered.
	SupportYes
)

// String returns "Yes" or "No".
func (s Support) String() string {
	if s == SupportYes {
		return "Yes"
	}
	return "No"
}

// Bool reports whether the capability is offered.
func (s Support) Bool() bool {
	return s == SupportYes
}

// ParseSupport parses a catalog Yes/No cell. An empty cell means No.
func ParseSupport(s string) (Support, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "y", "true":
		return SupportYes, nil
	case "no", "n", "false", "":
		return SupportNo, nil
	default:
		return SupportNo, fmt.Errorf("%w: %q", ErrInvalidSupport, s)
	}
}

// CatalogRecord is one assessment product in the catalog.
// Records are immutable once a catalog snapshot has been built.
type CatalogRecord struct {
	ID              ID
	Name            string
	URL             string
	Description     string
	DurationMinutes int // 0 when the catalog has no duration
	RemoteSupport   Support
	AdaptiveSupport Support
	TestTypes       []string // ordered, de-duplicated, never empty
	Vector          []float32
}

// Clone returns a deep copy of the record.
func (r *CatalogRecord) Clone() *CatalogRecord {
	if r == nil {
		return nil
	}
	c := *r
	c.TestTypes = append([]string(nil), r.TestTypes...)
	if r.Vector != nil {
		c.Vector = append([]float32(nil), r.Vector...)
	}
	return &c
}

// RetrievalResult pairs a catalog record with its similarity to a query.
type RetrievalResult struct {
	Record *CatalogRecord
	Row    int
	Score  float32
}
