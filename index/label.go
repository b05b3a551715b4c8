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

// Package index implements the index bookkeeping of Einstein-notation expressions:
// labels attached to tensor axes, multi-indices enumerating the components of
// multi-dimensional arrays, the classification of labels into free and summed
// labels, and projections from one list of labels onto another.
package index

import (
	"slices"

	"github.com/gx-org/einsum/base/ordered"
	"github.com/gx-org/einsum/base/stringseq"
	"golang.org/x/exp/maps"
)

type (
	// Label is a symbol attached to one axis of a tensor within an expression.
	// Labels are only compared for equality.
	Label string

	// Labels is an ordered list of labels.
	Labels []Label
)

// L returns a list of labels given their names.
func L(names ...string) Labels {
	ls := make(Labels, len(names))
	for i, name := range names {
		ls[i] = Label(name)
	}
	return ls
}

// Concat returns a new list concatenating all the lists.
func Concat(lists ...Labels) Labels {
	var n int
	for _, ls := range lists {
		n += len(ls)
	}
	r := make(Labels, 0, n)
	for _, ls := range lists {
		r = append(r, ls...)
	}
	return r
}

// Union returns the distinct labels of all the lists in order of first occurrence.
func Union(lists ...Labels) Labels {
	counts := ordered.NewMultiset[Label]()
	for _, ls := range lists {
		counts.Add(ls...)
	}
	r := make(Labels, 0, counts.Size())
	for l := range counts.Iter() {
		r = append(r, l)
	}
	return r
}

// Index returns the position of the first occurrence of a label, or -1 if absent.
func (ls Labels) Index(l Label) int {
	for i, li := range ls {
		if li == l {
			return i
		}
	}
	return -1
}

// Contains returns true if the list includes the label.
func (ls Labels) Contains(l Label) bool {
	return ls.Index(l) >= 0
}

// Without returns the labels of ls not present in rm, keeping the order of ls.
func (ls Labels) Without(rm Labels) Labels {
	r := make(Labels, 0, len(ls))
	for _, l := range ls {
		if !rm.Contains(l) {
			r = append(r, l)
		}
	}
	return r
}

// Intersect returns the labels of ls also present in other, keeping the order of ls.
func (ls Labels) Intersect(other Labels) Labels {
	var r Labels
	for _, l := range ls {
		if other.Contains(l) {
			r = append(r, l)
		}
	}
	return r
}

func (ls Labels) set() map[Label]bool {
	s := make(map[Label]bool, len(ls))
	for _, l := range ls {
		s[l] = true
	}
	return s
}

// SameSet returns true if both lists contain the same labels,
// regardless of their order or multiplicity.
func (ls Labels) SameSet(other Labels) bool {
	return maps.Equal(ls.set(), other.set())
}

// Equal returns true if both lists contain the same labels in the same order.
func (ls Labels) Equal(other Labels) bool {
	if len(ls) != len(other) {
		return false
	}
	for i, l := range ls {
		if other[i] != l {
			return false
		}
	}
	return true
}

// String representation of the labels.
func (ls Labels) String() string {
	return stringseq.Enclose("(", slices.Values(ls), ",", ")")
}
