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
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/gx-org/einsum/base/einerr"
	"github.com/gx-org/einsum/expr"
	"github.com/gx-org/einsum/index"
	"github.com/gx-org/einsum/layout"
	"github.com/gx-org/einsum/tensor"
	"go.uber.org/multierr"
)

func TestBundleRoundTrip(t *testing.T) {
	a := tensor.MustFromValues([]float64{1, 2, 3, 4, 5, 6}, 2, 3)
	rm, err := index.NewRowMajor(2, 3)
	if err != nil {
		t.Fatal(err)
	}
	bundled, err := expr.BundleWith[float64](leaf(t, a, "i", "j"), index.L("i", "j"), "p", rm)
	if err != nil {
		t.Fatal(err)
	}
	if want := index.L("p"); !cmp.Equal(bundled.Free(), want) {
		t.Errorf("got free labels %s but want %s", bundled.Free(), want)
	}
	if got := materialize(t, bundled); !cmp.Equal(got.Values(), a.Values()) {
		t.Errorf("got bundled values %v but want %v", got.Values(), a.Values())
	}
	split, err := expr.SplitWith[float64](bundled, "p", index.L("a", "b"), rm)
	if err != nil {
		t.Fatal(err)
	}
	if want := index.L("a", "b"); !cmp.Equal(split.Free(), want) {
		t.Errorf("got free labels %s but want %s", split.Free(), want)
	}
	if want := []int{2, 3}; !cmp.Equal(split.Dims(), want) {
		t.Errorf("got dims %v but want %v", split.Dims(), want)
	}
	if got := materialize(t, split); !cmp.Equal(got.Values(), a.Values()) {
		t.Errorf("got split values %v but want %v", got.Values(), a.Values())
	}
	compound := make([]int, 2)
	for packed := range rm.Size() {
		rm.Unpack(packed, compound)
		if got, ok := rm.Pack(compound); !ok || got != packed {
			t.Errorf("value %d unbundles to %v which bundles to %d", packed, compound, got)
		}
	}
}

func TestBundleKeepsOtherLabels(t *testing.T) {
	// Diagonals of a batch of 2x2 matrices: d(b,p) = m(b,p,p).
	m := tensor.MustFromValues([]float64{1, 2, 3, 4, 5, 6, 7, 8}, 2, 2, 2)
	diag, err := expr.Bundle[float64](leaf(t, m, "b", "i", "j"), index.L("i", "j"), "p", 2, func(packed int, compound []int) {
		compound[0], compound[1] = packed, packed
	})
	if err != nil {
		t.Fatal(err)
	}
	if want := index.L("b", "p"); !cmp.Equal(diag.Free(), want) {
		t.Errorf("got free labels %s but want %s", diag.Free(), want)
	}
	if want := []float64{1, 4, 5, 8}; !cmp.Equal(materialize(t, diag).Values(), want) {
		t.Errorf("got %v but want %v", materialize(t, diag).Values(), want)
	}
	// Bundled labels are consumed.
	x := tensor.Vector(1.0, 1)
	if _, err := expr.Contract[float64](diag, leaf(t, x, "i")); !einerr.IsStructural(err) {
		t.Errorf("reuse of a bundled label: got error %v but want a structural error", err)
	}
}

func TestBundleErrors(t *testing.T) {
	a := tensor.MustFromValues([]float64{1, 2, 3, 4, 5, 6}, 2, 3)
	first := func(packed int, compound []int) {
		compound[0] = packed
	}
	rm, err := index.NewRowMajor(3, 2)
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name    string
		build   func() error
		isRange bool
	}{
		{
			name: "label not free",
			build: func() error {
				_, err := expr.Bundle[float64](leaf(t, a, "i", "j"), index.L("k"), "p", 1, first)
				return err
			},
		},
		{
			name: "no label",
			build: func() error {
				_, err := expr.Bundle[float64](leaf(t, a, "i", "j"), nil, "p", 1, first)
				return err
			},
		},
		{
			name: "result already used",
			build: func() error {
				_, err := expr.Bundle[float64](leaf(t, a, "i", "j"), index.L("i"), "j", 2, first)
				return err
			},
		},
		{
			name: "packing dimensions",
			build: func() error {
				_, err := expr.BundleWith[float64](leaf(t, a, "i", "j"), index.L("i", "j"), "p", rm)
				return err
			},
		},
		{
			name: "split into a used label",
			build: func() error {
				_, err := expr.SplitWith[float64](leaf(t, tensor.Vector(1.0, 2, 3, 4, 5, 6), "p"), "p", index.L("p", "b"), rm)
				return err
			},
		},
		{
			name: "split a label which is not free",
			build: func() error {
				_, err := expr.SplitWith[float64](leaf(t, a, "i", "j"), "p", index.L("a", "b"), rm)
				return err
			},
		},
		{
			name: "zero dimension",
			build: func() error {
				_, err := expr.Bundle[float64](leaf(t, a, "i", "j"), index.L("i"), "p", 0, first)
				return err
			},
			isRange: true,
		},
		{
			name: "unbundled value out of range",
			build: func() error {
				_, err := expr.Bundle[float64](leaf(t, a, "i", "j"), index.L("i"), "p", 3, first)
				return err
			},
			isRange: true,
		},
		{
			name: "split value out of range",
			build: func() error {
				_, err := expr.NewSplit[float64](leaf(t, tensor.Vector(1.0, 2), "p"), "p", index.L("a"), []int{3}, func(compound []int) (int, float64) {
					return compound[0], 1
				})
				return err
			},
			isRange: true,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := test.build()
			if test.isRange {
				if !einerr.IsRange(err) {
					t.Errorf("got error %v but want a range error", err)
				}
				return
			}
			if !einerr.IsStructural(err) {
				t.Errorf("got error %v but want a structural error", err)
			}
		})
	}
}

func TestPackedSymmetric(t *testing.T) {
	sym, err := layout.NewSymmetric[float64](3)
	if err != nil {
		t.Fatal(err)
	}
	packed := tensor.Vector(1.0, 2, 3, 4, 5, 6)
	s, err := expr.Unpack[float64](sym, packed, "p", "i", "j")
	if err != nil {
		t.Fatal(err)
	}
	full := materialize(t, s)
	want := []float64{
		1, 2, 3,
		2, 4, 5,
		3, 5, 6,
	}
	if !cmp.Equal(full.Values(), want) {
		t.Errorf("incorrect unpacked matrix:\n%s", cmp.Diff(full.Values(), want))
	}
	// Matrix-vector product reading the packed storage.
	x := tensor.Vector(1.0, 0, 1)
	sx := materialize(t, contract(t, s, leaf(t, x, "j")))
	if want := []float64{4, 7, 9}; !cmp.Equal(sx.Values(), want) {
		t.Errorf("got S*x = %v but want %v", sx.Values(), want)
	}
	// Pack the full matrix back.
	repacked, err := tensor.New[float64](sym.Size())
	if err != nil {
		t.Fatal(err)
	}
	pk, err := expr.Pack[float64](sym, leaf(t, full, "i", "j"), "i", "j", "p")
	if err != nil {
		t.Fatal(err)
	}
	if err := expr.Assign[float64](leaf(t, repacked, "p"), pk); err != nil {
		t.Fatal(err)
	}
	if !cmp.Equal(repacked.Values(), packed.Values()) {
		t.Errorf("got packed values %v but want %v", repacked.Values(), packed.Values())
	}
	if _, err := expr.Unpack[float64](sym, tensor.Vector(1.0, 2, 3), "p", "i", "j"); !einerr.IsStructural(err) {
		t.Errorf("storage too small: got error %v but want a structural error", err)
	}
}

func TestPackedAntisymmetric(t *testing.T) {
	anti, err := layout.NewAntisymmetric[float64](3)
	if err != nil {
		t.Fatal(err)
	}
	counted := &counting{Dense: tensor.Vector(1.0, 2, 3)}
	s, err := expr.Unpack[float64](anti, counted, "p", "i", "j")
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{
		0, 1, 2,
		-1, 0, 3,
		-2, -3, 0,
	}
	if got := materialize(t, s); !cmp.Equal(got.Values(), want) {
		t.Errorf("incorrect unpacked matrix:\n%s", cmp.Diff(got.Values(), want))
	}
	// The diagonal is never read.
	if counted.reads != 6 {
		t.Errorf("got %d reads but want 6", counted.reads)
	}
}

func TestFrobeniusNormOfPackedStorage(t *testing.T) {
	sym, err := layout.NewSymmetric[float64](3)
	if err != nil {
		t.Fatal(err)
	}
	anti, err := layout.NewAntisymmetric[float64](3)
	if err != nil {
		t.Fatal(err)
	}
	for _, test := range []struct {
		layout layout.Layout[float64]
		packed *tensor.Dense[float64]
	}{
		{layout: sym, packed: tensor.Vector(1.0, 2, 3, 4, 5, 6)},
		{layout: anti, packed: tensor.Vector(1.0, 2, 3)},
	} {
		s := leaf(t, test.packed, "p")
		w, err := expr.Weight(test.layout, expr.Node[float64](s), "p")
		if err != nil {
			t.Fatal(err)
		}
		got, err := expr.Value[float64](contract(t, w, s))
		if err != nil {
			t.Fatal(err)
		}
		full := materialize(t, unpack(t, test.layout, test.packed))
		want, err := expr.Value[float64](contract(t, leaf(t, full, "i", "j"), leaf(t, full, "i", "j")))
		if err != nil {
			t.Fatal(err)
		}
		if got != want {
			t.Errorf("%T: got squared norm %v from packed storage but %v from the full matrix", test.layout, got, want)
		}
	}
	if _, err := expr.Weight(sym, expr.Node[float64](leaf(t, tensor.Vector(1.0, 2, 3), "p")), "p"); !einerr.IsStructural(err) {
		t.Errorf("storage too small: got error %v but want a structural error", err)
	}
	if _, err := expr.Weight(sym, expr.Node[float64](leaf(t, tensor.Vector(1.0, 2, 3, 4, 5, 6), "p")), "q"); !einerr.IsStructural(err) {
		t.Errorf("unknown label: got error %v but want a structural error", err)
	}
}

func unpack(t *testing.T, l layout.Layout[float64], packed *tensor.Dense[float64]) *expr.Split[float64] {
	t.Helper()
	s, err := expr.Unpack(l, tensor.Storage[float64](packed), "p", "i", "j")
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestEmptyLayout(t *testing.T) {
	anti, err := layout.NewAntisymmetric[float64](1)
	if err != nil {
		t.Fatal(err)
	}
	if got := anti.Size(); got != 0 {
		t.Fatalf("got size %d but want 0", got)
	}
	m := tensor.MustFromValues([]float64{0}, 1, 1)
	if _, err := expr.Pack(anti, expr.Node[float64](leaf(t, m, "i", "j")), "i", "j", "p"); !einerr.IsRange(err) {
		t.Errorf("Pack: got error %v but want a range error", err)
	}
	if _, err := expr.Unpack(anti, tensor.Storage[float64](tensor.Vector(0.0)), "p", "i", "j"); !einerr.IsRange(err) {
		t.Errorf("Unpack: got error %v but want a range error", err)
	}
}

func TestBundleErrorContext(t *testing.T) {
	a := tensor.MustFromValues([]float64{1, 2, 3, 4, 5, 6}, 2, 3)
	_, err := expr.Bundle[float64](leaf(t, a, "i", "j"), index.L("k", "i"), "j", 3, func(int, []int) {})
	if got := len(multierr.Errors(err)); got != 2 {
		t.Errorf("got %d errors but want 2: %v", got, err)
	}
	for _, err := range multierr.Errors(err) {
		if want := `cannot bundle (k,i) into "j": `; !strings.HasPrefix(err.Error(), want) {
			t.Errorf("error %q does not start with %q", err.Error(), want)
		}
	}
	_, err = expr.NewSplit[float64](leaf(t, a, "i", "j"), "j", index.L("i"), []int{3}, nil)
	if want := `cannot split "j" into (i): `; err == nil || !strings.HasPrefix(err.Error(), want) {
		t.Errorf("got error %v but want it to start with %q", err, want)
	}
}
