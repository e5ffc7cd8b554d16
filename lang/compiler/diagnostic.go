package compiler

import "fmt"

// Diagnostic is a single compile-time error, tied to the source line it was
// raised at. Compilation continues after the first one (see errorAt) so a
// single Compile call can surface several.
type Diagnostic struct {
	Line    int
	Where   string
	Message string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("[line %d] Error%s: %s", d.Line, d.Where, d.Message)
}
