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
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// TestTypeKeys maps the single-letter catalog codes to their full names.
var TestTypeKeys = map[string]string{
	"A": "Ability & Aptitude",
	"B": "Biodata & Situational Judgement",
	"C": "Competencies",
	"D": "Development & 360",
	"E": "Assessment Exercises",
	"K": "Knowledge & Skills",
	"P": "Personality & Behavior",
	"S": "Simulations",
}

var minutesPattern = regexp.MustCompile(`\d+`)

// ParseDuration extracts whole minutes from free text such as "35 min" or
// "Approximate Completion Time in minutes = 20". Absent or unparseable
// values ("", "N/A", "Untimed") yield 0.
func ParseDuration(s string) int {
	m := minutesPattern.FindString(s)
	if m == "" {
		return 0
	}
	n, err := strconv.Atoi(m)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// FormatDuration renders minutes the way the catalog table stores them.
func FormatDuration(minutes int) string {
	if minutes <= 0 {
		return "N/A"
	}
	return strconv.Itoa(minutes) + " min"
}

// ParseTestTypes splits a comma separated tag cell, expands single-letter
// codes through TestTypeKeys and removes duplicates while keeping order.
// Unknown codes are kept as written.
func ParseTestTypes(s string) ([]string, error) {
	var out []string
	seen := make(map[string]struct{})
	for _, part := range strings.Split(s, ",") {
		tag := strings.TrimSpace(part)
		if tag == "" {
			continue
		}
		if full, ok := TestTypeKeys[strings.ToUpper(tag)]; ok && len(tag) == 1 {
			tag = full
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	if len(out) == 0 {
		return nil, ErrNoTestTypes
	}
	return out, nil
}

// EmbeddingText composes the document text embedded for a record.
func EmbeddingText(r *CatalogRecord) string {
	var b strings.Builder
	b.WriteString(r.Name)
	b.WriteString(". ")
	b.WriteString(r.Description)
	b.WriteString(". Test Type: ")
	b.WriteString(strings.Join(r.TestTypes, ", "))
	b.WriteString(". Duration: ")
	b.WriteString(FormatDuration(r.DurationMinutes))
	b.WriteString(". Remote Testing: ")
	b.WriteString(r.RemoteSupport.String())
	b.WriteString(". Adaptive Support: ")
	b.WriteString(r.AdaptiveSupport.String())
	return b.String()
}

// ValidateRecord validates a CatalogRecord according to domain rules.
//
// Validation rules:
//   - Name, URL and Description must not be empty
//   - TestTypes must not be empty
//   - DurationMinutes must not be negative
//
// NOT validated:
//   - Vector (empty until the catalog is built; dimension is checked per snapshot)
func ValidateRecord(record *CatalogRecord) error {
	if record == nil {
		return fmt.Errorf("%w: record is nil", ErrInvalidRecord)
	}

	if strings.TrimSpace(record.Name) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, ErrEmptyName)
	}

	if strings.TrimSpace(record.URL) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, ErrEmptyURL)
	}

	if strings.TrimSpace(record.Description) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, ErrEmptyDescription)
	}

	if len(record.TestTypes) == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, ErrNoTestTypes)
	}

	if record.DurationMinutes < 0 {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, ErrNegativeDuration)
	}

	return nil
}
