// Package stringseq writes sequences of values as strings.
package stringseq

import (
	"fmt"
	"iter"
	"strings"
)

// Append writes the elements of seq to b, separated by sep.
// Elements are formatted with fmt.Fprint.
func Append[T any](b *strings.Builder, seq iter.Seq[T], sep string) {
	first := true
	for item := range seq {
		if !first {
			b.WriteString(sep)
		}
		first = false
		fmt.Fprint(b, item)
	}
}

// Enclose returns the elements of seq separated by sep, between left and right.
func Enclose[T any](left string, seq iter.Seq[T], sep, right string) string {
	var b strings.Builder
	b.WriteString(left)
	Append(&b, seq, sep)
	b.WriteString(right)
	return b.String()
}
