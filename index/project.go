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

package index

import (
	"github.com/gx-org/einsum/base/einerr"
)

// Projection maps a list of labels onto a sub-list of these labels.
// The k-th element of a projection is the position in the super list
// of the k-th label of the sub-list.
type Projection []int

// NewProjection returns the projection of super onto sub.
// Every label of sub must be in super. A label may appear several times in sub.
func NewProjection(super, sub Labels) (Projection, error) {
	p := make(Projection, len(sub))
	for k, l := range sub {
		pos := super.Index(l)
		if pos < 0 {
			return nil, einerr.Structuralf("label %q of %s not found in %s", l, sub, super)
		}
		p[k] = pos
	}
	return p, nil
}

// Apply writes into dst the values of src at the positions of the projection.
// dst must have the same length as the projection.
func (p Projection) Apply(dst, src []int) {
	for k, pos := range p {
		dst[k] = src[pos]
	}
}

// IsIdentity returns true if applying the projection copies its source.
func (p Projection) IsIdentity(n int) bool {
	if len(p) != n {
		return false
	}
	for k, pos := range p {
		if k != pos {
			return false
		}
	}
	return true
}
