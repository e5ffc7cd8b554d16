// Package diag prints colour-hinted diagnostics to the terminal. It is an
// external collaborator per spec.md §1: the compiler and machine packages
// return structured errors, and diag is the thing that turns those into the
// red status line the interpreter this was ported from prints before
// returning 0 regardless of outcome.
package diag

import (
	"fmt"
	"io"
)

const (
	red   = "\033[1;31m"
	reset = "\033[0m"
)

// Hint writes msg to w in red, terminated with a newline.
func Hint(w io.Writer, msg string) {
	fmt.Fprintf(w, "%s%s%s\n", red, msg, reset)
}

// CompileError prints the "Compile Error." hint.
func CompileError(w io.Writer) { Hint(w, "Compile Error.") }

// RuntimeError prints the "Runtime Error." hint.
func RuntimeError(w io.Writer) { Hint(w, "Runtime Error.") }
