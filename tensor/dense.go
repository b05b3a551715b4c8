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

package tensor

import (
	"fmt"

	"github.com/gx-org/backend/dtype"
	"github.com/gx-org/backend/shape"
	"github.com/gx-org/einsum/base/einerr"
	"github.com/gx-org/einsum/index"
)

// Dense is a tensor storing all its components in row-major order.
type Dense[T Scalar] struct {
	shape  shape.Shape
	handle *Handle
	values []T
}

var _ Mutable[float32] = (*Dense[float32])(nil)

func newShape[T Scalar](dims []int) shape.Shape {
	return shape.Shape{
		DType:       dtype.Generic[T](),
		AxisLengths: append([]int{}, dims...),
	}
}

// New returns a new tensor with all components set to zero.
func New[T Scalar](dims ...int) (*Dense[T], error) {
	if err := index.CheckDims(dims); err != nil {
		return nil, err
	}
	return &Dense[T]{
		shape:  newShape[T](dims),
		handle: NewHandle(),
		values: make([]T, index.Size(dims)),
	}, nil
}

// FromValues returns a tensor storing the given row-major values.
// The tensor takes ownership of the slice.
func FromValues[T Scalar](values []T, dims ...int) (*Dense[T], error) {
	if err := index.CheckDims(dims); err != nil {
		return nil, err
	}
	if size := index.Size(dims); len(values) != size {
		return nil, einerr.Rangef("mismatch between the number of values (=%d) and the number of components (=%d) of a %v tensor", len(values), size, dims)
	}
	return &Dense[T]{
		shape:  newShape[T](dims),
		handle: NewHandle(),
		values: values,
	}, nil
}

// MustFromValues returns a tensor storing the given row-major values.
// It panics if the number of values does not match the dimensions.
func MustFromValues[T Scalar](values []T, dims ...int) *Dense[T] {
	d, err := FromValues(values, dims...)
	if err != nil {
		panic(err)
	}
	return d
}

// Vector returns a tensor with one axis storing the given values.
func Vector[T Scalar](values ...T) *Dense[T] {
	return MustFromValues(values, len(values))
}

// Shape of the tensor.
func (d *Dense[T]) Shape() *shape.Shape {
	return &d.shape
}

// Dims returns the dimension of each axis.
func (d *Dense[T]) Dims() []int {
	return d.shape.AxisLengths
}

// Size returns the number of components.
func (d *Dense[T]) Size() int {
	return len(d.values)
}

// Handle returns the identity of the memory storing the components.
func (d *Dense[T]) Handle() *Handle {
	return d.handle
}

// Component returns the component at a row-major offset.
func (d *Dense[T]) Component(linear int) T {
	return d.values[linear]
}

// SetComponent sets the component at a row-major offset.
func (d *Dense[T]) SetComponent(linear int, val T) {
	d.values[linear] = val
}

// Values returns the row-major values of the tensor.
// The slice is shared with the tensor.
func (d *Dense[T]) Values() []T {
	return d.values
}

func (d *Dense[T]) offset(idx []int) (int, error) {
	dims := d.Dims()
	if len(idx) != len(dims) {
		return 0, einerr.Rangef("%d indices given to address a %v tensor", len(idx), dims)
	}
	var offset int
	for axis, i := range idx {
		if i < 0 || i >= dims[axis] {
			return 0, einerr.Rangef("index %d out of range [0,%d) for axis %d", i, dims[axis], axis)
		}
		offset = offset*dims[axis] + i
	}
	return offset, nil
}

// At returns the component at a given index.
func (d *Dense[T]) At(idx ...int) (T, error) {
	offset, err := d.offset(idx)
	if err != nil {
		var zero T
		return zero, err
	}
	return d.values[offset], nil
}

// Set the component at a given index.
func (d *Dense[T]) Set(val T, idx ...int) error {
	offset, err := d.offset(idx)
	if err != nil {
		return err
	}
	d.values[offset] = val
	return nil
}

// Reshape returns a view on the tensor with different dimensions.
// The view shares its components and its handle with d.
func (d *Dense[T]) Reshape(dims ...int) (*Dense[T], error) {
	if err := index.CheckDims(dims); err != nil {
		return nil, err
	}
	if size := index.Size(dims); size != len(d.values) {
		return nil, einerr.Rangef("cannot reshape a %v tensor with %d components to %v", d.Dims(), len(d.values), dims)
	}
	return &Dense[T]{
		shape:  newShape[T](dims),
		handle: d.handle,
		values: d.values,
	}, nil
}

// Clone returns a copy of the tensor with its own storage.
func (d *Dense[T]) Clone() *Dense[T] {
	return &Dense[T]{
		shape:  newShape[T](d.Dims()),
		handle: NewHandle(),
		values: append([]T{}, d.values...),
	}
}

// String representation of the tensor.
func (d *Dense[T]) String() string {
	return fmt.Sprintf("%s%s", typeString(d.shape.DType, d.Dims()), FormatValues(d.values, d.Dims()))
}
