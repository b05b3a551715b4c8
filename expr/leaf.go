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

// Leaf attaches a label to every axis of a tensor.
//
// A label attached to two axes of the same tensor is summed over,
// for example the trace of a matrix m is m(i,i).
type Leaf[T tensor.Scalar] struct {
	signature
	storage  tensor.Storage[T]
	labels   index.Labels
	axesDims []int

	// Labels summed over when a label is attached to two axes.
	summed index.Labels
	// Dimensions of the free labels followed by the summed labels.
	totalDims []int
	// Projection from the free labels followed by the summed labels to the axes of the tensor.
	toAxes index.Projection
}

var _ Node[float32] = (*Leaf[float32])(nil)

// NewLeaf returns a new leaf attaching labels to the axes of a tensor.
// The tensor is referenced, not copied.
func NewLeaf[T tensor.Scalar](storage tensor.Storage[T], labels ...index.Label) (*Leaf[T], error) {
	dims := tensor.Dims(storage)
	if len(labels) != len(dims) {
		return nil, einerr.Structuralf("%d labels %s attached to a tensor with %d axes %v", len(labels), index.Labels(labels), len(dims), dims)
	}
	if err := index.CheckDims(dims); err != nil {
		return nil, err
	}
	free, summed, err := index.Classify(labels, nil)
	if err != nil {
		return nil, err
	}
	var app einerr.Appender
	for axis, l := range labels {
		if first := index.Labels(labels).Index(l); dims[first] != dims[axis] {
			app.Structuralf("label %q attached to axes %d and %d with different dimensions %d and %d", l, first, axis, dims[first], dims[axis])
		}
	}
	if !app.Empty() {
		return nil, app.Err()
	}
	total := index.Concat(free, summed)
	toAxes, err := index.NewProjection(total, labels)
	if err != nil {
		return nil, err
	}
	totalDims := make([]int, len(total))
	for i, l := range total {
		totalDims[i] = dims[index.Labels(labels).Index(l)]
	}
	var scratch int
	if len(summed) > 0 {
		scratch = len(total) + len(labels)
	}
	return &Leaf[T]{
		signature: signature{
			free:    free,
			used:    index.Union(labels),
			dims:    totalDims[:len(free):len(free)],
			scratch: scratch,
		},
		storage:   storage,
		labels:    append(index.Labels{}, labels...),
		axesDims:  append([]int{}, dims...),
		summed:    summed,
		totalDims: totalDims,
		toAxes:    toAxes,
	}, nil
}

// Storage returns the tensor referenced by the leaf.
func (n *Leaf[T]) Storage() tensor.Storage[T] {
	return n.storage
}

// Labels returns the labels attached to the axes of the tensor.
func (n *Leaf[T]) Labels() index.Labels {
	return n.labels
}

// Evaluate the component of the expression at a multi-index over the free labels.
func (n *Leaf[T]) Evaluate(v *index.Multi) (T, error) {
	return evaluate[T](n, v)
}

func (n *Leaf[T]) eval(free, scratch []int) T {
	if len(n.summed) == 0 {
		return n.storage.Component(offset(n.axesDims, free))
	}
	total := scratch[:len(n.totalDims)]
	axes := scratch[len(n.totalDims) : len(n.totalDims)+len(n.toAxes)]
	return sumOver(free, total, n.totalDims, func(total []int) T {
		n.toAxes.Apply(axes, total)
		return n.storage.Component(offset(n.axesDims, axes))
	})
}

// References returns true if the tensor of the leaf is stored in the memory identified by h.
func (n *Leaf[T]) References(h *tensor.Handle) bool {
	return n.storage.Handle() == h
}

// String representation of the leaf.
func (n *Leaf[T]) String() string {
	return fmt.Sprintf("%s%s", n.storage.Handle(), n.labels)
}
