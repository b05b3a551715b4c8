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

package layout

import (
	"github.com/gx-org/einsum/index"
	"github.com/gx-org/einsum/tensor"
)

// Symmetric stores the upper triangle of a symmetric matrix, diagonal included,
// row by row.
type Symmetric[T tensor.Scalar] struct {
	base
}

var _ Layout[float64] = (*Symmetric[float64])(nil)

// NewSymmetric returns the layout of a n×n symmetric matrix.
func NewSymmetric[T tensor.Scalar](n int) (*Symmetric[T], error) {
	b, err := newBase(n)
	if err != nil {
		return nil, err
	}
	return &Symmetric[T]{base: b}, nil
}

// Size returns the number of stored components: n(n+1)/2.
func (s *Symmetric[T]) Size() int {
	return s.n * (s.n + 1) / 2
}

// Forward returns the packed offset of (row, column).
// Components below the diagonal are read from their mirror.
func (s *Symmetric[T]) Forward(compound []int) (int, T) {
	row, col := compound[0], compound[1]
	if row > col {
		row, col = col, row
	}
	return upperOffset(s.n, 0, row) + col - row, 1
}

// Pack returns the packed offset of (row, column).
func (s *Symmetric[T]) Pack(compound []int) (int, bool) {
	if !s.inRange(compound) {
		return 0, false
	}
	packed, _ := s.Forward(compound)
	return packed, true
}

// Unpack writes the (row, column) of a packed component, with row <= column.
func (s *Symmetric[T]) Unpack(packed int, compound []int) {
	unpackUpper(s.n, 0, packed, compound)
}

// Weight returns 1 for diagonal components and 2 for the others.
func (s *Symmetric[T]) Weight(packed int) T {
	var compound [2]int
	s.Unpack(packed, compound[:])
	if compound[0] == compound[1] {
		return 1
	}
	return 2
}

// Antisymmetric stores the strict upper triangle of an antisymmetric matrix, row by row.
// The diagonal is a structural zero.
type Antisymmetric[T tensor.Scalar] struct {
	base
}

var _ Layout[float64] = (*Antisymmetric[float64])(nil)

// NewAntisymmetric returns the layout of a n×n antisymmetric matrix.
// A 1×1 antisymmetric matrix is zero: its layout stores no component.
func NewAntisymmetric[T tensor.Scalar](n int) (*Antisymmetric[T], error) {
	b, err := newBase(n)
	if err != nil {
		return nil, err
	}
	return &Antisymmetric[T]{base: b}, nil
}

// Size returns the number of stored components: n(n-1)/2.
func (a *Antisymmetric[T]) Size() int {
	return a.n * (a.n - 1) / 2
}

// Forward returns the packed offset of (row, column).
// Components below the diagonal are the opposite of their mirror.
func (a *Antisymmetric[T]) Forward(compound []int) (int, T) {
	row, col := compound[0], compound[1]
	if row == col {
		return 0, 0
	}
	var factor T = 1
	if row > col {
		row, col = col, row
		factor = 0 - factor
	}
	return upperOffset(a.n, 1, row) + col - row - 1, factor
}

// Pack returns the packed offset of (row, column).
// Diagonal components have no packed offset.
func (a *Antisymmetric[T]) Pack(compound []int) (int, bool) {
	if !a.inRange(compound) {
		return 0, false
	}
	packed, factor := a.Forward(compound)
	return packed, factor != 0
}

// Unpack writes the (row, column) of a packed component, with row < column.
func (a *Antisymmetric[T]) Unpack(packed int, compound []int) {
	unpackUpper(a.n, 1, packed, compound)
}

// Weight returns 2: every stored component appears twice in the matrix.
func (a *Antisymmetric[T]) Weight(int) T {
	return 2
}

// Diagonal stores the diagonal of a diagonal matrix.
// Components outside of the diagonal are structural zeros.
type Diagonal[T tensor.Scalar] struct {
	base
}

var _ Layout[float64] = (*Diagonal[float64])(nil)

// NewDiagonal returns the layout of a n×n diagonal matrix.
func NewDiagonal[T tensor.Scalar](n int) (*Diagonal[T], error) {
	b, err := newBase(n)
	if err != nil {
		return nil, err
	}
	return &Diagonal[T]{base: b}, nil
}

// Size returns the number of stored components: n.
func (d *Diagonal[T]) Size() int {
	return d.n
}

// Forward returns the packed offset of (row, column).
func (d *Diagonal[T]) Forward(compound []int) (int, T) {
	if compound[0] != compound[1] {
		return 0, 0
	}
	return compound[0], 1
}

// Pack returns the packed offset of (row, column).
func (d *Diagonal[T]) Pack(compound []int) (int, bool) {
	if !d.inRange(compound) {
		return 0, false
	}
	packed, factor := d.Forward(compound)
	return packed, factor != 0
}

// Unpack writes the (row, column) of a packed component.
func (d *Diagonal[T]) Unpack(packed int, compound []int) {
	compound[0], compound[1] = packed, packed
}

// Weight returns 1.
func (d *Diagonal[T]) Weight(int) T {
	return 1
}

var _ index.Packing = (*Diagonal[float32])(nil)
