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
	"github.com/gx-org/einsum/base/einerr"
	"github.com/gx-org/einsum/index"
	"github.com/gx-org/einsum/tensor"
)

// Materialize evaluates all the components of an expression into a new dense tensor.
// The axes of the tensor are the free labels of the expression, in order.
func Materialize[T tensor.Scalar](n Node[T]) (*tensor.Dense[T], error) {
	dims := n.Dims()
	out, err := tensor.New[T](dims...)
	if err != nil {
		return nil, err
	}
	m, err := index.NewMulti(dims...)
	if err != nil {
		return nil, err
	}
	scratch := newScratch(n)
	for v := range m.All() {
		out.SetComponent(v.Linear(), n.eval(v.Values(), scratch))
	}
	return out, nil
}

// RowMajorBuffer evaluates all the components of an expression into a contiguous
// row-major buffer. It returns the buffer and the dimension of each free label.
func RowMajorBuffer[T tensor.Scalar](n Node[T]) ([]T, []int, error) {
	out, err := Materialize(n)
	if err != nil {
		return nil, nil, err
	}
	return out.Values(), out.Dims(), nil
}

// Value evaluates an expression without free labels, for example an inner product.
func Value[T tensor.Scalar](n Node[T]) (T, error) {
	if len(n.Free()) > 0 {
		var zero T
		return zero, einerr.Structuralf("cannot reduce %s to a value: free labels %s", n.String(), n.Free())
	}
	return n.eval(nil, newScratch(n)), nil
}
