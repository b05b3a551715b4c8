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

type (
	assignOptions struct {
		throughTemporary bool
	}

	// AssignOption configures an assignment.
	AssignOption func(*assignOptions)
)

// ThroughTemporary evaluates the source of an assignment reading its
// destination into a temporary tensor before copying it into the destination,
// instead of failing with an aliasing error.
func ThroughTemporary() AssignOption {
	return func(opts *assignOptions) {
		opts.throughTemporary = true
	}
}

// isSelfAssignment returns true if src is the destination itself with the same labels.
func isSelfAssignment[T tensor.Scalar](dst *Leaf[T], src Node[T]) bool {
	leaf, ok := src.(*Leaf[T])
	if !ok {
		return false
	}
	return leaf.storage.Handle() == dst.storage.Handle() && leaf.labels.Equal(dst.labels)
}

func checkAssign[T tensor.Scalar](dst *Leaf[T], src Node[T]) (tensor.Mutable[T], error) {
	mutable, ok := dst.storage.(tensor.Mutable[T])
	if !ok {
		return nil, einerr.Structuralf("cannot assign to %s: %T is read-only", dst.String(), dst.storage)
	}
	if err := index.SameFree(dst.labels, src.Free()); err != nil {
		return nil, err
	}
	var app einerr.Appender
	checkSharedDims(&app, dst.sig(), src.sig())
	if !app.Empty() {
		return nil, app.Err()
	}
	return mutable, nil
}

// Assign evaluates every component of src and writes it into the tensor of dst.
//
// The free labels of src must be the labels of dst, each used once, with the
// same dimensions. If src reads the memory of dst, the assignment fails with
// an aliasing error, unless src is dst itself with its labels in the same order
// in which case the assignment does nothing.
func Assign[T tensor.Scalar](dst *Leaf[T], src Node[T], opts ...AssignOption) error {
	var options assignOptions
	for _, opt := range opts {
		opt(&options)
	}
	mutable, err := checkAssign(dst, src)
	if err != nil {
		return err
	}
	if src.References(dst.storage.Handle()) {
		if isSelfAssignment(dst, src) {
			return nil
		}
		if !options.throughTemporary {
			return einerr.Aliasingf("cannot assign %s to %s: the expression reads the tensor it writes", src.String(), dst.String())
		}
		tmp, err := Materialize(src)
		if err != nil {
			return err
		}
		if src, err = NewLeaf[T](tmp, src.Free()...); err != nil {
			return err
		}
	}
	toSrc, err := index.NewProjection(dst.Free(), src.Free())
	if err != nil {
		return err
	}
	m, err := index.NewMulti(dst.Dims()...)
	if err != nil {
		return err
	}
	scratch := newScratch(src)
	if toSrc.IsIdentity(len(src.Free())) {
		for v := range m.All() {
			mutable.SetComponent(v.Linear(), src.eval(v.Values(), scratch))
		}
		return nil
	}
	vals := make([]int, len(toSrc))
	for v := range m.All() {
		toSrc.Apply(vals, v.Values())
		mutable.SetComponent(v.Linear(), src.eval(vals, scratch))
	}
	return nil
}
