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

package einerr

import (
	"fmt"

	"go.uber.org/multierr"
)

type (
	// Appender accumulates errors.
	// The zero value is an empty appender ready to use.
	Appender struct {
		stack []func(error) error
		errs  error
	}
)

// Push a context function. All errors appended until the next call to Pop
// are wrapped by f.
func (app *Appender) Push(f func(error) error) {
	app.stack = append(app.stack, f)
}

// Pop the last context function.
func (app *Appender) Pop() {
	app.stack = app.stack[:len(app.stack)-1]
}

// Append an error. Nil errors are ignored.
// Always returns false so that callers can return the result
// of the call in a failing branch.
func (app *Appender) Append(err error) bool {
	if err == nil {
		return false
	}
	for i := len(app.stack) - 1; i >= 0; i-- {
		err = app.stack[i](err)
	}
	app.errs = multierr.Append(app.errs, err)
	return false
}

// Structuralf appends a new structural error.
func (app *Appender) Structuralf(format string, a ...any) bool {
	return app.Append(Structuralf(format, a...))
}

// Errors returns the list of errors appended so far.
func (app *Appender) Errors() []error {
	return multierr.Errors(app.errs)
}

// Empty returns true if no error has been appended.
func (app *Appender) Empty() bool {
	return app.errs == nil
}

// Err returns all errors combined in a single error, or nil if none has been appended.
func (app *Appender) Err() error {
	return app.errs
}

// String representation of the errors.
func (app *Appender) String() string {
	if app.errs == nil {
		return "no error"
	}
	return fmt.Sprintf("%d error(s): %v", len(app.Errors()), app.errs)
}
