// Package view renders CPU snapshots for humans.
//
// Both views implement emulator.Observer. A write failure is kept, and
// later updates are dropped; it is reported by Err.
package view

import (
	"fmt"
	"io"
	"iter"
	"strconv"
	"strings"

	"github.com/ezrec/mipsim/translate"
)

var f = translate.From

// writer tracks the first write error of a view.
type writer struct {
	err error
}

// printf writes a translated line to output, unless a write has failed.
// Integer arguments are printed without locale digit grouping, so
// formats use %v for them.
func (w *writer) printf(output io.Writer, format string, args ...any) {
	if w.err != nil {
		return
	}

	for n, arg := range args {
		if value, ok := arg.(int); ok {
			args[n] = strconv.Itoa(value)
		}
	}

	_, w.err = io.WriteString(output, f(format, args...)+"\n")
}

// Err returns the first write error, if any.
func (w *writer) Err() error {
	return w.err
}

// Loaded reports the instruction count of a freshly loaded image.
func Loaded(output io.Writer, count int) error {
	var w writer
	w.printf(output, "Total instructions: %v", count)
	return w.Err()
}

// counts formats an enumerated counter set as 'name=count' pairs.
func counts[K fmt.Stringer](seq iter.Seq2[K, int]) string {
	var pairs []string
	for key, count := range seq {
		pairs = append(pairs, fmt.Sprintf("%v=%d", key, count))
	}

	return strings.Join(pairs, " ")
}
