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
	"github.com/gx-org/einsum/layout"
	"github.com/gx-org/einsum/tensor"
)

// Weighted multiplies the components of an expression by the weight, in a
// layout, of the value of a packed label. Summing a weighted expression over
// the packed label sums over all the components of the unpacked matrix.
type Weighted[T tensor.Scalar] struct {
	signature
	op     Node[T]
	layout layout.Layout[T]
	packed index.Label
	pos    int
}

var _ Node[float32] = (*Weighted[float32])(nil)

// Weight returns op multiplied by the weight of the values of its free label packed
// in the layout l. For example, given the packed storage s of a symmetric matrix S,
// the square of the Frobenius norm of S is Weight(l, s(p), p) * s(p).
func Weight[T tensor.Scalar](l layout.Layout[T], op Node[T], packed index.Label) (*Weighted[T], error) {
	if err := checkNotEmpty(l); err != nil {
		return nil, err
	}
	pos := op.Free().Index(packed)
	if pos < 0 {
		return nil, einerr.Structuralf("cannot weight %s: %q is not a free label", op.String(), packed)
	}
	if dim := op.Dims()[pos]; dim != l.Size() {
		return nil, einerr.Structuralf("label %q has dimension %d but the layout stores %d components", packed, dim, l.Size())
	}
	return &Weighted[T]{
		signature: *op.sig(),
		op:        op,
		layout:    l,
		packed:    packed,
		pos:       pos,
	}, nil
}

// Evaluate the component of the expression at a multi-index over the free labels.
func (n *Weighted[T]) Evaluate(v *index.Multi) (T, error) {
	return evaluate[T](n, v)
}

func (n *Weighted[T]) eval(free, scratch []int) T {
	return n.layout.Weight(free[n.pos]) * n.op.eval(free, scratch)
}

// References returns true if the operand reads the memory identified by h.
func (n *Weighted[T]) References(h *tensor.Handle) bool {
	return n.op.References(h)
}

// String representation of the weighted expression.
func (n *Weighted[T]) String() string {
	return fmt.Sprintf("weight[%s](%s)", n.packed, n.op.String())
}
