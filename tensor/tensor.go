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

// Package tensor defines the storage of tensors read and written by indexed expressions.
package tensor

import (
	"fmt"
	"sync/atomic"

	"github.com/gx-org/backend/dtype"
	"github.com/gx-org/backend/shape"
)

type (
	// Scalar is the set of types of tensor components.
	Scalar interface {
		dtype.Float | dtype.IntegerType
	}

	// Storage is the read access to the components of a tensor.
	Storage[T Scalar] interface {
		// Shape returns the data type and the dimension of each axis of the tensor.
		Shape() *shape.Shape

		// Component returns the component at a row-major offset.
		Component(linear int) T

		// Handle returns the identity of the memory storing the components.
		// Two storages sharing memory must return the same handle.
		Handle() *Handle
	}

	// Mutable is a storage whose components can be written.
	Mutable[T Scalar] interface {
		Storage[T]

		// SetComponent sets the component at a row-major offset.
		SetComponent(linear int, val T)
	}
)

// Handle identifies the memory storing the components of tensors.
// Handles are compared by pointer.
type Handle struct {
	id uint64
}

var lastHandleID atomic.Uint64

// NewHandle returns a new unique handle.
func NewHandle() *Handle {
	return &Handle{id: lastHandleID.Add(1)}
}

// String representation of the handle.
func (h *Handle) String() string {
	if h == nil {
		return "#nil"
	}
	return fmt.Sprintf("#%d", h.id)
}

// Dims returns the dimensions of a storage.
func Dims[T Scalar](s Storage[T]) []int {
	return s.Shape().AxisLengths
}
