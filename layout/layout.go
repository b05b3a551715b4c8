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

// Package layout maps the components of structured square matrices
// (symmetric, antisymmetric, diagonal) onto packed storage.
//
// A layout only stores the independent components of a matrix. Forward maps
// a pair (row, column) to the packed offset of its component and to the factor
// applied to the stored value: 1 for a stored component, -1 for the mirror of
// an antisymmetric component, and 0 for a structural zero.
package layout

import (
	"github.com/gx-org/einsum/base/einerr"
	"github.com/gx-org/einsum/index"
	"github.com/gx-org/einsum/tensor"
)

// Layout of the components of a square matrix in packed storage.
type Layout[T tensor.Scalar] interface {
	index.Packing

	// Dim returns the number of rows (and columns) of the matrix.
	Dim() int

	// Forward returns the packed offset of the component at compound=(row, column)
	// and the factor applied to the stored value. A zero factor is a structural zero.
	Forward(compound []int) (packed int, factor T)

	// Weight returns the number of components of the matrix sharing the storage
	// of a packed component, that is the multiplicity of a stored value when
	// summing over all the components of the matrix.
	Weight(packed int) T
}

type base struct {
	n int
}

func newBase(n int) (base, error) {
	if n <= 0 {
		return base{}, einerr.Rangef("invalid matrix dimension %d: dimensions must be positive", n)
	}
	return base{n: n}, nil
}

// Dim returns the number of rows of the matrix.
func (b base) Dim() int {
	return b.n
}

// Dims returns the dimensions of the compound index (row, column).
func (b base) Dims() []int {
	return []int{b.n, b.n}
}

func (b base) inRange(compound []int) bool {
	return len(compound) == 2 &&
		compound[0] >= 0 && compound[0] < b.n &&
		compound[1] >= 0 && compound[1] < b.n
}

// upperOffset returns the packed offset of the first component of a row
// of an upper triangle starting at diagonal d (0 to include the diagonal, 1 otherwise).
func upperOffset(n, d, row int) int {
	// Sum of the lengths n-d, n-d-1, ... of the previous rows.
	return row*(n-d) - row*(row-1)/2
}

// unpackUpper returns the (row, column) of a packed offset in an upper triangle.
func unpackUpper(n, d, packed int, compound []int) {
	row := 0
	for row+1 < n && upperOffset(n, d, row+1) <= packed {
		row++
	}
	compound[0] = row
	compound[1] = row + d + packed - upperOffset(n, d, row)
}

// Check verifies that every packed component of a layout round-trips
// through its forward map.
func Check[T tensor.Scalar](l Layout[T]) error {
	if err := index.CheckPacking(l); err != nil {
		return err
	}
	compound := make([]int, 2)
	for packed := range l.Size() {
		l.Unpack(packed, compound)
		got, factor := l.Forward(compound)
		if factor != 1 || got != packed {
			return einerr.Rangef("packed component %d unpacks to %v which maps to %d with factor %v", packed, compound, got, factor)
		}
	}
	return nil
}
