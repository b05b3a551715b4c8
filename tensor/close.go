// Copyright 2025 Google LLC
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

package tensor

import (
	"math"

	"golang.org/x/exp/constraints"
)

// Close returns true if |x-y| <= atol + rtol*|y|.
func Close[T constraints.Float](x, y, rtol, atol T) bool {
	diff := math.Abs(float64(x - y))
	return diff <= float64(atol)+float64(rtol)*math.Abs(float64(y))
}

// AllClose returns true if both slices have the same length
// and all their elements are close.
func AllClose[T constraints.Float](x, y []T, rtol, atol T) bool {
	if len(x) != len(y) {
		return false
	}
	for i := range x {
		if !Close(x[i], y[i], rtol, atol) {
			return false
		}
	}
	return true
}
