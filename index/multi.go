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
	"iter"
	"slices"

	"github.com/gx-org/einsum/base/einerr"
	"github.com/gx-org/einsum/base/stringseq"
)

// inlineAxes is the number of axes stored without allocating a separate buffer.
const inlineAxes = 4

// Multi is a multi-index: one point in the Cartesian product of the
// ranges [0, Dimension) of a list of axes.
//
// Multi-indices are enumerated in lexicographic order with the last axis
// moving fastest. Every component but the first one is always within its
// range. The first component equals its dimension once the enumeration has
// finished.
type Multi struct {
	dims []int
	vals []int
	// done marks the end of the enumeration of a multi-index without axes.
	done bool
	buf  [2 * inlineAxes]int
}

func newMulti(n int) *Multi {
	m := &Multi{}
	if n <= inlineAxes {
		m.dims = m.buf[:n:n]
		m.vals = m.buf[inlineAxes : inlineAxes+n : inlineAxes+n]
		return m
	}
	m.dims = make([]int, n)
	m.vals = make([]int, n)
	return m
}

// CheckDims returns an error if a dimension is not strictly positive.
func CheckDims(dims []int) error {
	for axis, dim := range dims {
		if dim <= 0 {
			return einerr.Rangef("invalid dimension %d for axis %d in %v: dimensions must be positive", dim, axis, dims)
		}
	}
	return nil
}

// Size returns the number of states of a multi-index given its dimensions.
// A multi-index without axes has one state.
func Size(dims []int) int {
	size := 1
	for _, dim := range dims {
		size *= dim
	}
	return size
}

// NewMulti returns a multi-index set to zero.
func NewMulti(dims ...int) (*Multi, error) {
	if err := CheckDims(dims); err != nil {
		return nil, err
	}
	m := newMulti(len(dims))
	copy(m.dims, dims)
	return m, nil
}

// Len returns the number of axes.
func (m *Multi) Len() int {
	return len(m.dims)
}

// Dims returns the dimension of each axis.
// The returned slice must not be modified.
func (m *Multi) Dims() []int {
	return m.dims
}

// Values returns the current value of each axis.
// The returned slice is owned by the multi-index and must not be modified.
func (m *Multi) Values() []int {
	return m.vals
}

// AtEnd returns true once all the values have been enumerated.
func (m *Multi) AtEnd() bool {
	if len(m.vals) == 0 {
		return m.done
	}
	return m.vals[0] >= m.dims[0]
}

// Increment moves the multi-index to the next value.
// The last component is incremented first. When a component reaches its
// dimension, it is reset to zero and the previous component is incremented.
// If the first component overflows, it is left equal to its dimension and
// the multi-index is at its end. Incrementing at the end does nothing.
func (m *Multi) Increment() {
	if len(m.vals) == 0 {
		m.done = true
		return
	}
	if m.AtEnd() {
		return
	}
	if !Advance(m.dims, m.vals) {
		m.vals[0] = m.dims[0]
	}
}

// Advance moves vals to the next value in enumeration order given the
// dimension of each axis, the last axis moving fastest. After the last value,
// Advance resets all the values to zero and returns false.
// It does not allocate.
func Advance(dims, vals []int) bool {
	for k := len(vals) - 1; k >= 0; k-- {
		vals[k]++
		if vals[k] < dims[k] {
			return true
		}
		vals[k] = 0
	}
	return false
}

// Reset sets all components to zero.
func (m *Multi) Reset() {
	clear(m.vals)
	m.done = false
}

// Linear returns the position of the multi-index in the enumeration order,
// that is the row-major offset of the component it addresses.
// It returns the number of states when the multi-index is at its end.
func (m *Multi) Linear() int {
	return linear(m.dims, m.vals)
}

func linear(dims, vals []int) int {
	var v int
	for k, d := range dims {
		v = v*d + vals[k]
	}
	return v
}

// At returns the value of an axis.
func (m *Multi) At(axis int) (int, error) {
	if axis < 0 || axis >= len(m.vals) {
		return 0, einerr.Rangef("axis %d out of range [0,%d)", axis, len(m.vals))
	}
	if m.AtEnd() {
		return 0, einerr.Rangef("cannot access axis %d: multi-index %s at end", axis, m.String())
	}
	return m.vals[axis], nil
}

// Set the value of an axis.
func (m *Multi) Set(axis, val int) error {
	if axis < 0 || axis >= len(m.vals) {
		return einerr.Rangef("axis %d out of range [0,%d)", axis, len(m.vals))
	}
	if val < 0 || val >= m.dims[axis] {
		return einerr.Rangef("value %d out of range [0,%d) for axis %d", val, m.dims[axis], axis)
	}
	m.vals[axis] = val
	return nil
}

// SetValues sets the leading components of the multi-index.
func (m *Multi) SetValues(vals []int) error {
	if len(vals) > len(m.vals) {
		return einerr.Rangef("cannot set %d values on a multi-index with %d axes", len(vals), len(m.vals))
	}
	for axis, val := range vals {
		if err := m.Set(axis, val); err != nil {
			return err
		}
	}
	m.done = false
	return nil
}

// All resets the multi-index and returns an iterator moving it over all its values.
// The iterator yields m itself: callers must copy the values they retain.
func (m *Multi) All() iter.Seq[*Multi] {
	return func(yield func(*Multi) bool) {
		for m.Reset(); !m.AtEnd(); m.Increment() {
			if !yield(m) {
				return
			}
		}
	}
}

// String representation of the multi-index.
func (m *Multi) String() string {
	s := stringseq.Enclose("[", slices.Values(m.vals), " ", "]") + "/" +
		stringseq.Enclose("[", slices.Values(m.dims), " ", "]")
	if m.AtEnd() {
		s += "(end)"
	}
	return s
}
