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
	"github.com/pkg/errors"
)

type (
	// UnbundleFunc writes into compound the values of the bundled labels
	// given the value of the label bundling them.
	UnbundleFunc func(packed int, compound []int)

	// SplitFunc returns the value of a split label given the values of the labels
	// replacing it, and a factor applied to the component. A zero factor is a
	// structural zero: the component is zero without being read.
	SplitFunc[T tensor.Scalar] func(compound []int) (packed int, factor T)
)

// Bundled replaces several free labels of an expression by a single label.
type Bundled[T tensor.Scalar] struct {
	signature
	op       Node[T]
	labels   index.Labels
	result   index.Label
	unbundle UnbundleFunc

	// For each free label of op: its position in the free labels of the
	// bundle if non-negative, or -(k+1) for the k-th bundled label.
	fromFree []int
}

var _ Node[float32] = (*Bundled[float32])(nil)

// checkFresh appends an error for every label already used by an expression.
func checkFresh(app *einerr.Appender, used index.Labels, labels ...index.Label) {
	for _, l := range labels {
		if used.Contains(l) {
			app.Structuralf("label %q already used in %s", l, used)
		}
	}
}

// Bundle replaces the free labels of op listed in labels by the label result
// taking dim values. Evaluating the bundle at a value of result evaluates op
// at the values returned by unbundle for the bundled labels.
// The bundled labels are consumed: they cannot be used again in an enclosing expression.
func Bundle[T tensor.Scalar](op Node[T], labels index.Labels, result index.Label, dim int, unbundle UnbundleFunc) (*Bundled[T], error) {
	var app einerr.Appender
	app.Push(func(err error) error {
		return errors.WithMessagef(err, "cannot bundle %s into %q", labels, result)
	})
	if len(labels) == 0 {
		app.Structuralf("no label to bundle")
	}
	app.Append(index.Unique(labels))
	for _, l := range labels {
		if !op.Free().Contains(l) {
			app.Structuralf("%q is not a free label of %s", l, op.String())
		}
	}
	checkFresh(&app, op.Used(), result)
	if dim <= 0 {
		app.Append(einerr.Rangef("invalid dimension %d: dimensions must be positive", dim))
	}
	app.Pop()
	if !app.Empty() {
		return nil, app.Err()
	}
	rest := op.Free().Without(labels)
	free := index.Concat(rest, index.Labels{result})
	fromFree := make([]int, len(op.Free()))
	for i, l := range op.Free() {
		if k := labels.Index(l); k >= 0 {
			fromFree[i] = -(k + 1)
		} else {
			fromFree[i] = rest.Index(l)
		}
	}
	labelDims := dimsOf(labels, op.sig())
	compound := make([]int, len(labels))
	for packed := range dim {
		unbundle(packed, compound)
		for k, v := range compound {
			if v < 0 || v >= labelDims[k] {
				return nil, einerr.Rangef("value %d of label %q unbundles to %d for label %q out of range [0,%d)", packed, result, v, labels[k], labelDims[k])
			}
		}
	}
	return &Bundled[T]{
		signature: signature{
			free:    free,
			used:    index.Union(op.Used(), index.Labels{result}),
			dims:    append(dimsOf(rest, op.sig()), dim),
			scratch: len(labels) + len(fromFree) + op.sig().scratch,
		},
		op:       op,
		labels:   append(index.Labels{}, labels...),
		result:   result,
		unbundle: unbundle,
		fromFree: fromFree,
	}, nil
}

// BundleWith bundles labels of op into result using a packing.
// The dimensions of the packing must match the dimensions of the bundled labels.
func BundleWith[T tensor.Scalar](op Node[T], labels index.Labels, result index.Label, p index.Packing) (*Bundled[T], error) {
	if err := checkPackingDims(op, labels, p); err != nil {
		return nil, err
	}
	return Bundle(op, labels, result, p.Size(), p.Unpack)
}

func checkPackingDims[T tensor.Scalar](op Node[T], labels index.Labels, p index.Packing) error {
	want := p.Dims()
	if len(want) != len(labels) {
		return einerr.Structuralf("packing of %d axes %v used for %d labels %s", len(want), want, len(labels), labels)
	}
	for k, d := range dimsOf(labels, op.sig()) {
		if d != 0 && d != want[k] {
			return einerr.Structuralf("label %q has dimension %d but the packing expects %d", labels[k], d, want[k])
		}
	}
	return nil
}

// Evaluate the component of the expression at a multi-index over the free labels.
func (n *Bundled[T]) Evaluate(v *index.Multi) (T, error) {
	return evaluate[T](n, v)
}

func (n *Bundled[T]) eval(free, scratch []int) T {
	nc, nv := len(n.labels), len(n.fromFree)
	compound, vals, rest := scratch[:nc], scratch[nc:nc+nv], scratch[nc+nv:]
	n.unbundle(free[len(free)-1], compound)
	for i, pos := range n.fromFree {
		if pos >= 0 {
			vals[i] = free[pos]
		} else {
			vals[i] = compound[-pos-1]
		}
	}
	return n.op.eval(vals, rest)
}

// References returns true if the operand reads the memory identified by h.
func (n *Bundled[T]) References(h *tensor.Handle) bool {
	return n.op.References(h)
}

// String representation of the bundle.
func (n *Bundled[T]) String() string {
	return fmt.Sprintf("bundle[%s->%s](%s)", n.labels, n.result, n.op.String())
}

// Split replaces a free label of an expression by several labels.
type Split[T tensor.Scalar] struct {
	signature
	op      Node[T]
	label   index.Label
	into    index.Labels
	pos     int
	forward SplitFunc[T]
}

var _ Node[float32] = (*Split[float32])(nil)

// NewSplit replaces the free label of op by the labels into, taking dims values.
// Evaluating the split at values of into evaluates op at the value returned by forward
// for label, multiplied by the factor returned by forward.
func NewSplit[T tensor.Scalar](op Node[T], label index.Label, into index.Labels, dims []int, forward SplitFunc[T]) (*Split[T], error) {
	var app einerr.Appender
	app.Push(func(err error) error {
		return errors.WithMessagef(err, "cannot split %q into %s", label, into)
	})
	pos := op.Free().Index(label)
	if pos < 0 {
		app.Structuralf("%q is not a free label of %s", label, op.String())
	}
	if len(into) == 0 {
		app.Structuralf("no label to split into")
	}
	if len(into) != len(dims) {
		app.Structuralf("%d dimensions %v given for %d labels", len(dims), dims, len(into))
	}
	app.Append(index.Unique(into))
	checkFresh(&app, op.Used(), into...)
	app.Append(index.CheckDims(dims))
	app.Pop()
	if !app.Empty() {
		return nil, app.Err()
	}
	labelDim := op.Dims()[pos]
	compound, err := index.NewMulti(dims...)
	if err != nil {
		return nil, err
	}
	for c := range compound.All() {
		packed, factor := forward(c.Values())
		if factor != 0 && (packed < 0 || packed >= labelDim) {
			return nil, einerr.Rangef("%v split from label %q maps to %d out of range [0,%d)", c.Values(), label, packed, labelDim)
		}
	}
	free := index.Concat(op.Free()[:pos], into, op.Free()[pos+1:])
	splitDims := make([]int, 0, len(free))
	splitDims = append(splitDims, op.Dims()[:pos]...)
	splitDims = append(splitDims, dims...)
	splitDims = append(splitDims, op.Dims()[pos+1:]...)
	return &Split[T]{
		signature: signature{
			free:    free,
			used:    index.Union(op.Used(), into),
			dims:    splitDims,
			scratch: len(op.Free()) + op.sig().scratch,
		},
		op:      op,
		label:   label,
		into:    append(index.Labels{}, into...),
		pos:     pos,
		forward: forward,
	}, nil
}

// SplitWith splits label of op into several labels using a packing.
// Compound values without a packed representation are structural zeros.
func SplitWith[T tensor.Scalar](op Node[T], label index.Label, into index.Labels, p index.Packing) (*Split[T], error) {
	return NewSplit(op, label, into, p.Dims(), func(compound []int) (int, T) {
		packed, ok := p.Pack(compound)
		if !ok {
			return 0, 0
		}
		return packed, 1
	})
}

// Evaluate the component of the expression at a multi-index over the free labels.
func (n *Split[T]) Evaluate(v *index.Multi) (T, error) {
	return evaluate[T](n, v)
}

func (n *Split[T]) eval(free, scratch []int) T {
	end := n.pos + len(n.into)
	packed, factor := n.forward(free[n.pos:end])
	if factor == 0 {
		return 0
	}
	nv := len(free) - len(n.into) + 1
	vals, rest := scratch[:nv], scratch[nv:]
	copy(vals, free[:n.pos])
	vals[n.pos] = packed
	copy(vals[n.pos+1:], free[end:])
	return factor * n.op.eval(vals, rest)
}

// References returns true if the operand reads the memory identified by h.
func (n *Split[T]) References(h *tensor.Handle) bool {
	return n.op.References(h)
}

// String representation of the split.
func (n *Split[T]) String() string {
	return fmt.Sprintf("split[%s->%s](%s)", n.label, n.into, n.op.String())
}

// Unpack presents a matrix stored in a packed layout as an expression with the
// labels (row, col). The labels packed and then row, col must not be used elsewhere
// in the same statement.
//
// Layouts storing no component, such as the layout of a 1×1 antisymmetric
// matrix, cannot be unpacked: the matrix is zero.
func Unpack[T tensor.Scalar](l layout.Layout[T], storage tensor.Storage[T], packed, row, col index.Label) (*Split[T], error) {
	if err := checkNotEmpty(l); err != nil {
		return nil, err
	}
	if dims := tensor.Dims(storage); len(dims) != 1 || dims[0] != l.Size() {
		return nil, einerr.Structuralf("storage with dimensions %v does not match a layout storing %d components", dims, l.Size())
	}
	leaf, err := NewLeaf(storage, packed)
	if err != nil {
		return nil, err
	}
	return NewSplit[T](leaf, packed, index.Labels{row, col}, l.Dims(), l.Forward)
}

// Pack bundles the labels (row, col) of a matrix expression into the label packed
// addressing the components stored by a layout. Assigning the result to a leaf
// over packed storage writes the independent components of the matrix.
// Layouts storing no component cannot be packed.
func Pack[T tensor.Scalar](l layout.Layout[T], op Node[T], row, col, packed index.Label) (*Bundled[T], error) {
	if err := checkNotEmpty(l); err != nil {
		return nil, err
	}
	return BundleWith(op, index.Labels{row, col}, packed, l)
}

func checkNotEmpty[T tensor.Scalar](l layout.Layout[T]) error {
	if l.Size() == 0 {
		return einerr.Rangef("layout %T of a %dx%d matrix stores no component", l, l.Dim(), l.Dim())
	}
	return nil
}
