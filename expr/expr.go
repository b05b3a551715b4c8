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

// Package expr builds and evaluates tensor expressions written in
// Einstein notation.
//
// Labels are attached to the axes of tensors to build leaves. Leaves are
// combined into expressions: a label used once in an expression is a free
// label and becomes an axis of the result, a label used twice is summed over.
// For example, the matrix product result(i,k) = a(i,j) * b(j,k) is written:
//
//	ab, err := expr.Contract(aij, bjk)
//	...
//	err = expr.Assign(resultik, ab)
//
// All the label bookkeeping is checked when expressions are built: building
// an expression either fails with a structural error or returns an expression
// which evaluates without failure.
//
// Expressions never own the tensors they reference. They are immutable and
// can be evaluated concurrently.
package expr

import (
	"slices"

	"github.com/gx-org/einsum/base/einerr"
	"github.com/gx-org/einsum/index"
	"github.com/gx-org/einsum/tensor"
)

// Node is an indexed expression.
type Node[T tensor.Scalar] interface {
	// Free returns the labels of the axes of the expression.
	Free() index.Labels

	// Used returns all the labels used by the expression,
	// including the labels summed over or bundled in sub-expressions.
	Used() index.Labels

	// Dims returns the dimension of each free label.
	Dims() []int

	// Evaluate the component of the expression at a multi-index over the free labels.
	Evaluate(*index.Multi) (T, error)

	// References returns true if the expression reads the memory identified by a handle.
	References(*tensor.Handle) bool

	// String representation of the expression.
	String() string

	// eval returns the component given the value of each free label.
	// The values are always in range. scratch holds at least sig().scratch
	// integers owned by the node for the duration of the call.
	eval(free, scratch []int) T

	sig() *signature
}

// signature of a node: its labels and their dimensions.
type signature struct {
	free index.Labels
	used index.Labels
	dims []int
	// Number of integers used to evaluate a component, sub-expressions included.
	scratch int
}

// Free returns the labels of the axes of the expression.
func (s *signature) Free() index.Labels {
	return s.free
}

// Used returns all the labels used by the expression.
func (s *signature) Used() index.Labels {
	return s.used
}

// Dims returns the dimension of each free label.
func (s *signature) Dims() []int {
	return s.dims
}

func (s *signature) sig() *signature {
	return s
}

// dimOf returns the dimension of a free label, or 0 if the label is not free.
func (s *signature) dimOf(l index.Label) int {
	i := s.free.Index(l)
	if i < 0 {
		return 0
	}
	return s.dims[i]
}

// dimsOf returns the dimensions of labels looked up in the free labels of a list of signatures.
func dimsOf(labels index.Labels, sigs ...*signature) []int {
	dims := make([]int, len(labels))
	for i, l := range labels {
		for _, s := range sigs {
			if d := s.dimOf(l); d > 0 {
				dims[i] = d
				break
			}
		}
	}
	return dims
}

// newScratch returns the buffer used to evaluate the components of a node.
// It is allocated once per evaluation of a tensor, not per component.
func newScratch[T tensor.Scalar](n Node[T]) []int {
	return make([]int, n.sig().scratch)
}

func evaluate[T tensor.Scalar](n Node[T], v *index.Multi) (T, error) {
	var zero T
	if !slices.Equal(v.Dims(), n.Dims()) {
		return zero, einerr.Rangef("cannot evaluate %s with free labels %s and dimensions %v at multi-index %s", n.String(), n.Free(), n.Dims(), v.String())
	}
	if v.AtEnd() {
		return zero, einerr.Rangef("cannot evaluate %s at multi-index %s: multi-index at end", n.String(), v.String())
	}
	return n.eval(v.Values(), newScratch(n)), nil
}

// offset returns the row-major offset of vals.
func offset(dims, vals []int) int {
	var off int
	for k, d := range dims {
		off = off*d + vals[k]
	}
	return off
}

// sumOver copies the values of the free labels at the beginning of total,
// then calls f for every value of the summed labels stored in the rest of
// total and returns the sum. The rightmost summed label moves fastest.
func sumOver[T tensor.Scalar](free, total, totalDims []int, f func(total []int) T) T {
	copy(total, free)
	summed, dims := total[len(free):], totalDims[len(free):]
	clear(summed)
	var acc T
	for {
		acc += f(total)
		if !index.Advance(dims, summed) {
			return acc
		}
	}
}

// checkSharedDims returns an error if a label present in both nodes
// has different dimensions.
func checkSharedDims(app *einerr.Appender, x, y *signature) {
	for _, l := range x.free.Intersect(y.free) {
		if dx, dy := x.dimOf(l), y.dimOf(l); dx != dy {
			app.Structuralf("label %q has dimension %d in %s but dimension %d in %s", l, dx, x.free, dy, y.free)
		}
	}
}
