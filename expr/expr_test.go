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

package expr_test

import (
	"fmt"
	"go/token"
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/gx-org/einsum/base/einerr"
	"github.com/gx-org/einsum/expr"
	"github.com/gx-org/einsum/index"
	"github.com/gx-org/einsum/tensor"
)

// counting counts the number of components read from a tensor.
type counting struct {
	*tensor.Dense[float64]
	reads int
}

func (c *counting) Component(linear int) float64 {
	c.reads++
	return c.Dense.Component(linear)
}

func leaf(t *testing.T, s tensor.Storage[float64], labels ...string) *expr.Leaf[float64] {
	t.Helper()
	l, err := expr.NewLeaf(s, index.L(labels...)...)
	if err != nil {
		t.Fatal(err)
	}
	return l
}

func contract(t *testing.T, x, y expr.Node[float64]) *expr.Contraction[float64] {
	t.Helper()
	c, err := expr.Contract(x, y)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func materialize(t *testing.T, n expr.Node[float64]) *tensor.Dense[float64] {
	t.Helper()
	d, err := expr.Materialize(n)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func random(r *rand.Rand, dims ...int) *tensor.Dense[float64] {
	vals := make([]float64, index.Size(dims))
	for i := range vals {
		vals[i] = r.Float64()*2 - 1
	}
	return tensor.MustFromValues(vals, dims...)
}

var approx = cmpopts.EquateApprox(0, 1e-12)

func TestInnerProduct(t *testing.T) {
	u := tensor.Vector(-0.1, 2.0, 8.0)
	v := tensor.Vector(4.1, 5.2, 6.3)
	uv := contract(t, leaf(t, u, "k"), leaf(t, v, "k"))
	if len(uv.Free()) != 0 {
		t.Errorf("got free labels %s but want none", uv.Free())
	}
	if want := index.L("k"); !cmp.Equal(uv.Summed(), want) {
		t.Errorf("got summed labels %s but want %s", uv.Summed(), want)
	}
	got, err := expr.Value[float64](uv)
	if err != nil {
		t.Fatal(err)
	}
	if want := -0.1*4.1 + 2.0*5.2 + 8.0*6.3; !cmp.Equal(got, want, approx) {
		t.Errorf("got %v but want %v", got, want)
	}
}

func TestOuterProduct(t *testing.T) {
	u := &counting{Dense: tensor.Vector(1.0, 2, 3)}
	v := &counting{Dense: tensor.Vector(4.0, 5, 6)}
	uv := contract(t, leaf(t, u, "a"), leaf(t, v, "b"))
	if want := index.L("a", "b"); !cmp.Equal(uv.Free(), want) {
		t.Errorf("got free labels %s but want %s", uv.Free(), want)
	}
	m, err := index.NewMulti(uv.Dims()...)
	if err != nil {
		t.Fatal(err)
	}
	if err := m.SetValues([]int{2, 1}); err != nil {
		t.Fatal(err)
	}
	got, err := uv.Evaluate(m)
	if err != nil {
		t.Fatal(err)
	}
	if got != 15 {
		t.Errorf("component (2,1): got %v but want 15", got)
	}
	if u.reads != 1 || v.reads != 1 {
		t.Errorf("got %d and %d reads but want each operand read once", u.reads, v.reads)
	}
	d := materialize(t, uv)
	want := []float64{4, 5, 6, 8, 10, 12, 12, 15, 18}
	if !cmp.Equal(d.Values(), want) {
		t.Errorf("incorrect outer product:\n%s", cmp.Diff(d.Values(), want))
	}
	if wantDims := []int{3, 3}; !cmp.Equal(d.Dims(), wantDims) {
		t.Errorf("got dims %v but want %v", d.Dims(), wantDims)
	}
}

func TestMatrixProduct(t *testing.T) {
	a := tensor.MustFromValues([]float64{1, 2, 3, 4, 5, 6}, 2, 3)
	b := tensor.MustFromValues([]float64{1, 0, 0, 1, 1, 1}, 3, 2)
	ab := contract(t, leaf(t, a, "i", "j"), leaf(t, b, "j", "k"))
	got := materialize(t, ab)
	want := []float64{4, 5, 10, 11}
	if !cmp.Equal(got.Values(), want) {
		t.Errorf("incorrect product:\n%s", cmp.Diff(got.Values(), want))
	}
	if got, want := ab.String(), fmt.Sprintf("(%s(i,j) * %s(j,k))", a.Handle(), b.Handle()); got != want {
		t.Errorf("got string %q but want %q", got, want)
	}
}

func TestAssociativity(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	u, v, w := random(r, 3, 4), random(r, 4, 5), random(r, 5, 2)
	left := contract(t, contract(t, leaf(t, u, "i", "j"), leaf(t, v, "j", "k")), leaf(t, w, "k", "l"))
	right := contract(t, leaf(t, u, "i", "j"), contract(t, leaf(t, v, "j", "k"), leaf(t, w, "k", "l")))
	if want := index.L("i", "l"); !cmp.Equal(left.Free(), want) || !cmp.Equal(right.Free(), want) {
		t.Fatalf("got free labels %s and %s but want %s", left.Free(), right.Free(), want)
	}
	got, want := materialize(t, left), materialize(t, right)
	if !cmp.Equal(got.Values(), want.Values(), approx) {
		t.Errorf("(UV)W != U(VW):\n%s", cmp.Diff(got.Values(), want.Values(), approx))
	}
}

func TestTrace(t *testing.T) {
	m := tensor.MustFromValues([]float64{1, 2, 3, 4, 5, 6, 7, 8, 9}, 3, 3)
	tr := leaf(t, m, "i", "i")
	if len(tr.Free()) != 0 {
		t.Errorf("got free labels %s but want none", tr.Free())
	}
	got, err := expr.Value[float64](tr)
	if err != nil {
		t.Fatal(err)
	}
	if got != 15 {
		t.Errorf("got trace %v but want 15", got)
	}
	// Diagonal of a batch of matrices.
	batch := tensor.MustFromValues([]float64{1, 2, 3, 4, 5, 6, 7, 8}, 2, 2, 2)
	diag := materialize(t, leaf(t, batch, "b", "i", "i"))
	if want := []float64{5, 13}; !cmp.Equal(diag.Values(), want) {
		t.Errorf("got traces %v but want %v", diag.Values(), want)
	}
}

func TestStructuralErrors(t *testing.T) {
	a := tensor.MustFromValues(make([]float64, 12), 3, 4)
	b := tensor.MustFromValues(make([]float64, 20), 4, 5)
	cube := tensor.MustFromValues(make([]float64, 8), 2, 2, 2)
	x := tensor.Vector(1.0, 2, 3)
	y := tensor.Vector(1.0, 2, 3, 4)
	tests := []struct {
		name  string
		build func() error
	}{
		{
			name: "wrong label count",
			build: func() error {
				_, err := expr.NewLeaf[float64](a, index.L("i")...)
				return err
			},
		},
		{
			name: "label used three times",
			build: func() error {
				_, err := expr.NewLeaf[float64](cube, index.L("i", "i", "i")...)
				return err
			},
		},
		{
			name: "trace of a rectangular matrix",
			build: func() error {
				_, err := expr.NewLeaf[float64](a, index.L("i", "i")...)
				return err
			},
		},
		{
			name: "dimension mismatch",
			build: func() error {
				_, err := expr.Contract[float64](leaf(t, a, "i", "j"), leaf(t, x, "j"))
				return err
			},
		},
		{
			name: "summed label used again",
			build: func() error {
				ab := contract(t, leaf(t, a, "i", "j"), leaf(t, b, "j", "k"))
				_, err := expr.Contract[float64](ab, leaf(t, y, "j"))
				return err
			},
		},
		{
			name: "sum of different free labels",
			build: func() error {
				_, err := expr.Add[float64](leaf(t, x, "i"), leaf(t, x, "j"))
				return err
			},
		},
		{
			name: "reduce free labels to a value",
			build: func() error {
				_, err := expr.Value[float64](leaf(t, x, "i"))
				return err
			},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := test.build()
			if !einerr.IsStructural(err) {
				t.Errorf("got error %v but want a structural error", err)
			}
		})
	}
}

func TestEvaluateRangeErrors(t *testing.T) {
	x := leaf(t, tensor.Vector(1.0, 2, 3), "i")
	wrong, err := index.NewMulti(4)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := x.Evaluate(wrong); !einerr.IsRange(err) {
		t.Errorf("wrong dimensions: got error %v but want a range error", err)
	}
	end, err := index.NewMulti(3)
	if err != nil {
		t.Fatal(err)
	}
	for !end.AtEnd() {
		end.Increment()
	}
	if _, err := x.Evaluate(end); !einerr.IsRange(err) {
		t.Errorf("multi-index at end: got error %v but want a range error", err)
	}
}

func TestScale(t *testing.T) {
	x := leaf(t, tensor.Vector(1.0, -2, 4), "i")
	double, err := expr.Scale[float64](x, 2, token.MUL)
	if err != nil {
		t.Fatal(err)
	}
	half, err := expr.Scale[float64](double, 4, token.QUO)
	if err != nil {
		t.Fatal(err)
	}
	neg, err := expr.Negate[float64](half)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := materialize(t, neg).Values(), []float64{-0.5, 1, -2}; !cmp.Equal(got, want) {
		t.Errorf("got %v but want %v", got, want)
	}
	if _, err := expr.Scale[float64](x, 0, token.QUO); !einerr.IsRange(err) {
		t.Errorf("division by zero: got error %v but want a range error", err)
	}
	if _, err := expr.Scale[float64](x, 1, token.ADD); !einerr.IsStructural(err) {
		t.Errorf("unsupported operator: got error %v but want a structural error", err)
	}
}

func TestSubtract(t *testing.T) {
	a := tensor.MustFromValues([]float64{1, 2, 3, 4}, 2, 2)
	// a(i,j) - a(j,i) is antisymmetric.
	diff, err := expr.Subtract[float64](leaf(t, a, "i", "j"), leaf(t, a, "j", "i"))
	if err != nil {
		t.Fatal(err)
	}
	if want := []float64{0, -1, 1, 0}; !cmp.Equal(materialize(t, diff).Values(), want) {
		t.Errorf("got %v but want %v", materialize(t, diff).Values(), want)
	}
}

func TestDimsDoNotAliasSummedDims(t *testing.T) {
	a := tensor.MustFromValues([]float64{1, 2, 3, 4, 5, 6, 7, 8}, 2, 2, 2)
	b := tensor.MustFromValues([]float64{1, 2, 3, 4, 5, 6}, 2, 3)
	tr := leaf(t, a, "b", "i", "i")
	ab := contract(t, leaf(t, b, "j", "k"), leaf(t, b, "j", "l"))
	for _, n := range []expr.Node[float64]{tr, ab} {
		want := materialize(t, n).Values()
		dims := n.Dims()
		if cap(dims) != len(dims) {
			t.Errorf("%s: dimensions %v have capacity %d", n.String(), dims, cap(dims))
		}
		_ = append(dims, 100)
		if got := materialize(t, n).Values(); !cmp.Equal(got, want) {
			t.Errorf("%s: appending to the dimensions changed the values from %v to %v", n.String(), want, got)
		}
	}
}
