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

// invalid is returned by a builder in place of an expression which could not be built.
type invalid[T tensor.Scalar] struct {
	signature
	err error
}

func (n *invalid[T]) Evaluate(*index.Multi) (T, error) {
	var zero T
	return zero, n.err
}

func (n *invalid[T]) eval(_, _ []int) T {
	var zero T
	return zero
}

func (n *invalid[T]) References(*tensor.Handle) bool {
	return false
}

func (n *invalid[T]) String() string {
	return fmt.Sprintf("invalid(%v)", n.err)
}

// Builder builds expressions and accumulates the errors.
//
// When an expression cannot be built, the builder records the error and
// returns a placeholder. Expressions built from a placeholder are placeholders
// without additional error. Check Err once the statement has been built.
type Builder[T tensor.Scalar] struct {
	errs einerr.Appender
}

// NewBuilder returns a new expression builder.
func NewBuilder[T tensor.Scalar]() *Builder[T] {
	return &Builder[T]{}
}

// Err returns the errors accumulated by the builder, or nil if all the expressions are valid.
func (b *Builder[T]) Err() error {
	return b.errs.Err()
}

func isInvalid[T tensor.Scalar](nodes ...Node[T]) *invalid[T] {
	for _, n := range nodes {
		if inv, ok := n.(*invalid[T]); ok {
			return inv
		}
	}
	return nil
}

func build[T tensor.Scalar, N Node[T]](b *Builder[T], n N, err error) Node[T] {
	if err != nil {
		b.errs.Append(err)
		return &invalid[T]{err: err}
	}
	return n
}

// Leaf attaches labels to the axes of a tensor.
func (b *Builder[T]) Leaf(s tensor.Storage[T], labels ...index.Label) Node[T] {
	n, err := NewLeaf(s, labels...)
	return build(b, n, err)
}

// Mul returns the contraction of x and y.
func (b *Builder[T]) Mul(x, y Node[T]) Node[T] {
	if inv := isInvalid(x, y); inv != nil {
		return inv
	}
	n, err := Contract(x, y)
	return build(b, n, err)
}

// Add returns x + y.
func (b *Builder[T]) Add(x, y Node[T]) Node[T] {
	if inv := isInvalid(x, y); inv != nil {
		return inv
	}
	n, err := Add(x, y)
	return build(b, n, err)
}

// Sub returns x - y.
func (b *Builder[T]) Sub(x, y Node[T]) Node[T] {
	if inv := isInvalid(x, y); inv != nil {
		return inv
	}
	n, err := Subtract(x, y)
	return build(b, n, err)
}

func (b *Builder[T]) scale(x Node[T], s T, by token.Token) Node[T] {
	if inv := isInvalid(x); inv != nil {
		return inv
	}
	n, err := Scale(x, s, by)
	return build(b, n, err)
}

// Scale returns x * s.
func (b *Builder[T]) Scale(x Node[T], s T) Node[T] {
	return b.scale(x, s, token.MUL)
}

// Div returns x / s.
func (b *Builder[T]) Div(x Node[T], s T) Node[T] {
	return b.scale(x, s, token.QUO)
}

// Bundle replaces the labels of x by a single label result.
func (b *Builder[T]) Bundle(x Node[T], labels index.Labels, result index.Label, dim int, unbundle UnbundleFunc) Node[T] {
	if inv := isInvalid(x); inv != nil {
		return inv
	}
	n, err := Bundle(x, labels, result, dim, unbundle)
	return build(b, n, err)
}

// Split replaces the label of x by several labels.
func (b *Builder[T]) Split(x Node[T], label index.Label, into index.Labels, dims []int, forward SplitFunc[T]) Node[T] {
	if inv := isInvalid(x); inv != nil {
		return inv
	}
	n, err := NewSplit(x, label, into, dims, forward)
	return build(b, n, err)
}

// Assign evaluates src into dst. dst must be a leaf built by the builder.
// Errors are accumulated by the builder and also returned.
func (b *Builder[T]) Assign(dst, src Node[T], opts ...AssignOption) error {
	if inv := isInvalid(dst, src); inv != nil {
		return inv.err
	}
	leaf, ok := dst.(*Leaf[T])
	if !ok {
		err := einerr.Structuralf("cannot assign to %s: not a leaf", dst.String())
		b.errs.Append(err)
		return err
	}
	if err := Assign(leaf, src, opts...); err != nil {
		b.errs.Append(err)
		return err
	}
	return nil
}
