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
	"go/token"

	"github.com/gx-org/einsum/base/einerr"
	"github.com/gx-org/einsum/index"
	"github.com/gx-org/einsum/tensor"
)

// Sum adds or subtracts two expressions with the same free labels.
type Sum[T tensor.Scalar] struct {
	signature
	op          token.Token
	left, right Node[T]
	toRight     index.Projection
	// Both operands have their free labels in the same order.
	sameOrder bool
}

var _ Node[float32] = (*Sum[float32])(nil)

func newSum[T tensor.Scalar](op token.Token, left, right Node[T]) (*Sum[T], error) {
	if err := index.SameFree(left.Free(), right.Free()); err != nil {
		return nil, err
	}
	ls, rs := left.sig(), right.sig()
	var app einerr.Appender
	checkSharedDims(&app, ls, rs)
	if !app.Empty() {
		return nil, app.Err()
	}
	toRight, err := index.NewProjection(left.Free(), right.Free())
	if err != nil {
		return nil, err
	}
	sameOrder := toRight.IsIdentity(len(left.Free()))
	scratch := max(ls.scratch, rs.scratch)
	if !sameOrder {
		scratch += len(toRight)
	}
	return &Sum[T]{
		signature: signature{
			free:    left.Free(),
			used:    index.Union(left.Used(), right.Used()),
			dims:    left.Dims(),
			scratch: scratch,
		},
		op:        op,
		left:      left,
		right:     right,
		toRight:   toRight,
		sameOrder: sameOrder,
	}, nil
}

// Add returns the sum of two expressions.
// Both expressions must have the same free labels, each used once.
// The free labels of the result are in the order of the left expression.
func Add[T tensor.Scalar](left, right Node[T]) (*Sum[T], error) {
	return newSum(token.ADD, left, right)
}

// Subtract returns the difference of two expressions.
// Both expressions must have the same free labels, each used once.
func Subtract[T tensor.Scalar](left, right Node[T]) (*Sum[T], error) {
	return newSum(token.SUB, left, right)
}

// Evaluate the component of the expression at a multi-index over the free labels.
func (n *Sum[T]) Evaluate(v *index.Multi) (T, error) {
	return evaluate[T](n, v)
}

func (n *Sum[T]) eval(free, scratch []int) T {
	rv, rest := free, scratch
	if !n.sameOrder {
		rv, rest = scratch[:len(n.toRight)], scratch[len(n.toRight):]
		n.toRight.Apply(rv, free)
	}
	x, y := n.left.eval(free, rest), n.right.eval(rv, rest)
	if n.op == token.SUB {
		return x - y
	}
	return x + y
}

// References returns true if one of the operands reads the memory identified by h.
func (n *Sum[T]) References(h *tensor.Handle) bool {
	return n.left.References(h) || n.right.References(h)
}

// String representation of the sum.
func (n *Sum[T]) String() string {
	return fmt.Sprintf("(%s %s %s)", n.left.String(), n.op, n.right.String())
}

// Scaled multiplies or divides an expression by a scalar.
type Scaled[T tensor.Scalar] struct {
	signature
	op Node[T]
	by token.Token
	s  T
}

var _ Node[float32] = (*Scaled[float32])(nil)

// Scale returns op multiplied (token.MUL) or divided (token.QUO) by a scalar.
func Scale[T tensor.Scalar](op Node[T], s T, by token.Token) (*Scaled[T], error) {
	switch by {
	case token.MUL:
	case token.QUO:
		if s == 0 {
			return nil, einerr.Rangef("cannot divide %s by zero", op.String())
		}
	default:
		return nil, einerr.Structuralf("operator %s not supported to scale an expression", by)
	}
	return &Scaled[T]{
		signature: *op.sig(),
		op:        op,
		by:        by,
		s:         s,
	}, nil
}

// Negate returns the opposite of an expression.
// Unsigned components wrap around.
func Negate[T tensor.Scalar](op Node[T]) (*Scaled[T], error) {
	var minusOne T
	minusOne--
	return Scale(op, minusOne, token.MUL)
}

// Evaluate the component of the expression at a multi-index over the free labels.
func (n *Scaled[T]) Evaluate(v *index.Multi) (T, error) {
	return evaluate[T](n, v)
}

func (n *Scaled[T]) eval(free, scratch []int) T {
	x := n.op.eval(free, scratch)
	if n.by == token.QUO {
		return x / n.s
	}
	return x * n.s
}

// References returns true if the operand reads the memory identified by h.
func (n *Scaled[T]) References(h *tensor.Handle) bool {
	return n.op.References(h)
}

// String representation of the scaled expression.
func (n *Scaled[T]) String() string {
	return fmt.Sprintf("(%s %s %v)", n.op.String(), n.by, n.s)
}
