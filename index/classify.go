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

package index

import (
	"github.com/gx-org/einsum/base/einerr"
	"github.com/gx-org/einsum/base/ordered"
)

// Classify partitions the labels of two operands into free and summed labels.
//
// The labels of a and b are concatenated and counted. Labels occurring once
// are free, labels occurring twice are summed. Both lists keep the order of
// the first occurrence of their labels. A label occurring more than twice is
// a structural error.
func Classify(a, b Labels) (free, summed Labels, err error) {
	counts := ordered.NewMultiset(a...)
	counts.Add(b...)
	var app einerr.Appender
	for l, n := range counts.Iter() {
		if n > 2 {
			app.Structuralf("index %q used %d times in %s%s: index used more than twice", l, n, a, b)
		}
	}
	if err := app.Err(); err != nil {
		return nil, nil, err
	}
	return counts.WithCount(1), counts.WithCount(2), nil
}

// Unique returns a structural error if a label is used more than once.
func Unique(ls Labels) error {
	_, summed, err := Classify(ls, nil)
	if err != nil {
		return err
	}
	if len(summed) > 0 {
		return einerr.Structuralf("labels %s repeated in %s", summed, ls)
	}
	return nil
}

// SameFree returns a structural error if two lists of free labels
// do not contain the same labels or if one of them includes duplicates.
func SameFree(a, b Labels) error {
	var app einerr.Appender
	app.Append(Unique(a))
	app.Append(Unique(b))
	if !app.Empty() {
		return app.Err()
	}
	if !a.SameSet(b) {
		return einerr.Structuralf("free labels %s and %s differ", a, b)
	}
	return nil
}
