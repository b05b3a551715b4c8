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

// Packing is a reversible map between the values of a compound index
// over several axes and a single packed value.
type Packing interface {
	// Dims returns the dimensions of the compound index.
	Dims() []int

	// Size returns the number of packed values.
	Size() int

	// Pack returns the packed value of a compound value.
	// It returns false if the compound value has no packed representation.
	Pack(compound []int) (int, bool)

	// Unpack writes the compound value of a packed value into compound.
	Unpack(packed int, compound []int)
}

// RowMajor packs a compound index into its row-major offset.
type RowMajor struct {
	dims []int
}

var _ Packing = (*RowMajor)(nil)

// NewRowMajor returns a row-major packing given the dimensions of the compound index.
func NewRowMajor(dims ...int) (*RowMajor, error) {
	if err := CheckDims(dims); err != nil {
		return nil, err
	}
	return &RowMajor{dims: append([]int{}, dims...)}, nil
}

// Dims returns the dimensions of the compound index.
func (r *RowMajor) Dims() []int {
	return r.dims
}

// Size returns the number of packed values.
func (r *RowMajor) Size() int {
	return Size(r.dims)
}

// Pack returns the row-major offset of a compound value.
func (r *RowMajor) Pack(compound []int) (int, bool) {
	if len(compound) != len(r.dims) {
		return 0, false
	}
	for k, v := range compound {
		if v < 0 || v >= r.dims[k] {
			return 0, false
		}
	}
	return linear(r.dims, compound), true
}

// Unpack writes the compound value of a row-major offset into compound.
func (r *RowMajor) Unpack(packed int, compound []int) {
	for k := len(r.dims) - 1; k >= 0; k-- {
		compound[k] = packed % r.dims[k]
		packed /= r.dims[k]
	}
}

// CheckPacking verifies that unpacking then packing every packed value
// of a packing returns the same packed value.
func CheckPacking(p Packing) error {
	dims := p.Dims()
	compound := make([]int, len(dims))
	for packed := range p.Size() {
		p.Unpack(packed, compound)
		got, ok := p.Pack(compound)
		if !ok {
			return einerr.Rangef("packed value %d unpacks to %v which has no packed representation", packed, compound)
		}
		if got != packed {
			return einerr.Rangef("packed value %d unpacks to %v which packs to %d", packed, compound, got)
		}
	}
	return nil
}
