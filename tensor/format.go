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
	"strings"

	"github.com/gx-org/backend/dtype"
	"github.com/gx-org/einsum/index"
)

const tab = "\t"

func toValue[T Scalar](x T) string {
	var fmtstr string
	switch any(x).(type) {
	case float32:
		fmtstr = "%.6f"
	case float64:
		fmtstr = "%.10f"
	default:
		return fmt.Sprint(x)
	}
	s := fmt.Sprintf(fmtstr, x)
	if strings.ContainsRune(s, '.') {
		s = strings.TrimRight(s, "0")
		s = strings.TrimSuffix(s, ".")
	}
	return s
}

func typeString(dt dtype.DataType, dims []int) string {
	var s strings.Builder
	for _, d := range dims {
		fmt.Fprintf(&s, "[%d]", d)
	}
	s.WriteString(dt.String())
	return s.String()
}

func formatRec[T Scalar](w *strings.Builder, indent string, values []T, dims []int) {
	if len(dims) == 1 {
		vals := make([]string, len(values))
		for i, v := range values {
			vals[i] = toValue(v)
		}
		w.WriteString("{" + strings.Join(vals, ", ") + "}")
		return
	}
	stride := index.Size(dims[1:])
	w.WriteString("{\n")
	for i := range dims[0] {
		w.WriteString(indent + tab)
		formatRec(w, indent+tab, values[i*stride:(i+1)*stride], dims[1:])
		w.WriteString(",\n")
	}
	w.WriteString(indent + "}")
}

// FormatValues returns a string representation of row-major values
// given the dimensions of their axes.
func FormatValues[T Scalar](values []T, dims []int) string {
	if size := index.Size(dims); size != len(values) {
		return fmt.Sprintf("len(values)=%d does not match axes %v=%d", len(values), dims, size)
	}
	if len(dims) == 0 {
		return "(" + toValue(values[0]) + ")"
	}
	var w strings.Builder
	formatRec(&w, "", values, dims)
	return w.String()
}
