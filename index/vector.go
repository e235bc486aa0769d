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

package index

import "math"

// Normalize returns v scaled to unit L2 length. The second result is false
// when v is empty, all zero, or contains NaN/Inf, in which case the
// returned slice is nil.
func Normalize(v []float32) ([]float32, bool) {
	if len(v) == 0 {
		return nil, false
	}

	// Accumulate in float64 to keep 1536-dim sums stable
	var magnitude float64
	for _, val := range v {
		magnitude += float64(val) * float64(val)
	}
	magnitude = math.Sqrt(magnitude)

	if magnitude == 0 || math.IsNaN(magnitude) || math.IsInf(magnitude, 0) {
		return nil, false
	}

	result := make([]float32, len(v))
	for i, val := range v {
		result[i] = float32(float64(val) / magnitude)
	}
	return result, true
}

// Dot calculates the dot product of two vectors of equal length.
func Dot(a, b []float32) float32 {
	var sum float64
	minLen := len(a)
	if len(b) < minLen {
		minLen = len(b)
	}
	for i := 0; i < minLen; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return float32(sum)
}
