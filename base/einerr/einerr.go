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

// Package einerr defines the errors reported when building and evaluating
// indexed tensor expressions.
//
// Errors fall in three families, each identified by a sentinel:
// ErrStructural for label bookkeeping problems detected when an expression is
// built, ErrRange for component indices outside of their dimension, and
// ErrAliasing for assignments reading the storage they write.
// Use errors.Is to test for a family.
package einerr

import (
	"github.com/pkg/errors"
)

var (
	// ErrStructural is the cause of errors depending only on the shape of an expression,
	// for example a label used more than twice or mismatching free labels.
	ErrStructural = errors.New("structural error")

	// ErrRange is the cause of errors due to a component index outside of its dimension.
	ErrRange = errors.New("range error")

	// ErrAliasing is the cause of errors due to an assignment reading the storage it writes.
	ErrAliasing = errors.New("aliasing error")
)

// Structuralf returns a new structural error.
func Structuralf(format string, a ...any) error {
	return errors.Wrapf(ErrStructural, format, a...)
}

// Rangef returns a new range error.
func Rangef(format string, a ...any) error {
	return errors.Wrapf(ErrRange, format, a...)
}

// Aliasingf returns a new aliasing error.
func Aliasingf(format string, a ...any) error {
	return errors.Wrapf(ErrAliasing, format, a...)
}

// IsStructural returns true if err, or one of the errors it combines, is a structural error.
func IsStructural(err error) bool {
	return errors.Is(err, ErrStructural)
}

// IsRange returns true if err, or one of the errors it combines, is a range error.
func IsRange(err error) bool {
	return errors.Is(err, ErrRange)
}

// IsAliasing returns true if err, or one of the errors it combines, is an aliasing error.
func IsAliasing(err error) bool {
	return errors.Is(err, ErrAliasing)
}
