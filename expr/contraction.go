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

package expr

import (
	"fmt"

	"github.com/gx-org/einsum/base/einerr"
	"github.com/gx-org/einsum/index"
	"github.com/gx-org/einsum/tensor"
)

// Contraction multiplies two expressions and sums over the labels they share.
type Contraction[T tensor.Scalar] struct {
	signature
	left, right Node[T]

	summed    index.Labels
	totalDims []int
	// Projections from the free labels followed by the summed labels to the operands.
	toLeft, toRight index.Projection
}

var _ Node[float32] = (*Contraction[float32])(nil)

// checkConsumed returns an error if a label used by both operands
// is not free in both of them. Such a label has already been summed over
// or bundled in one of the operands.
func checkConsumed(app *einerr.Appender, x, y *signature) {
	for _, l := range x.used.Intersect(y.used) {
		if !x.free.Contains(l) || !y.free.Contains(l) {
			app.Structuralf("label %q used in %s and %s is not free in both: index used more than twice", l, x.free, y.free)
		}
	}
}

// Contract returns the product of two expressions.
// Labels free in both expressions are summed over.
// Labels free in only one expression are the free labels of the result,
// in the order of their first occurrence.
func Contract[T tensor.Scalar](left, right Node[T]) (*Contraction[T], error) {
	free, summed, err := index.Classify(left.Free(), right.Free())
	if err != nil {
		return nil, err
	}
	ls, rs := left.sig(), right.sig()
	var app einerr.Appender
	checkConsumed(&app, ls, rs)
	checkSharedDims(&app, ls, rs)
	if !app.Empty() {
		return nil, app.Err()
	}
	total := index.Concat(free, summed)
	toLeft, err := index.NewProjection(total, left.Free())
	if err != nil {
		return nil, err
	}
	toRight, err := index.NewProjection(total, right.Free())
	if err != nil {
		return nil, err
	}
	totalDims := dimsOf(total, ls, rs)
	scratch := len(toLeft) + len(toRight) + max(ls.scratch, rs.scratch)
	if len(summed) > 0 {
		scratch += len(total)
	}
	return &Contraction[T]{
		signature: signature{
			free:    free,
			used:    index.Union(left.Used(), right.Used()),
			dims:    totalDims[:len(free):len(free)],
			scratch: scratch,
		},
		left:      left,
		right:     right,
		summed:    summed,
		totalDims: totalDims,
		toLeft:    toLeft,
		toRight:   toRight,
	}, nil
}

// Summed returns the labels summed over by the contraction.
func (n *Contraction[T]) Summed() index.Labels {
	return n.summed
}

// Evaluate the component of the expression at a multi-index over the free labels.
func (n *Contraction[T]) Evaluate(v *index.Multi) (T, error) {
	return evaluate[T](n, v)
}

func (n *Contraction[T]) eval(free, scratch []int) T {
	nl, nr := len(n.toLeft), len(n.toRight)
	lv, rv, rest := scratch[:nl], scratch[nl:nl+nr], scratch[nl+nr:]
	if len(n.summed) == 0 {
		// Outer product: the free values are the total values.
		n.toLeft.Apply(lv, free)
		n.toRight.Apply(rv, free)
		return n.left.eval(lv, rest) * n.right.eval(rv, rest)
	}
	total, rest := rest[:len(n.totalDims)], rest[len(n.totalDims):]
	return sumOver(free, total, n.totalDims, func(total []int) T {
		n.toLeft.Apply(lv, total)
		n.toRight.Apply(rv, total)
		return n.left.eval(lv, rest) * n.right.eval(rv, rest)
	})
}

// References returns true if one of the operands reads the memory identified by h.
func (n *Contraction[T]) References(h *tensor.Handle) bool {
	return n.left.References(h) || n.right.References(h)
}

// String representation of the contraction.
func (n *Contraction[T]) String() string {
	return fmt.Sprintf("(%s * %s)", n.left.String(), n.right.String())
}
