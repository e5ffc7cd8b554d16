package machine

import (
	"fmt"
	"strings"

	"github.com/mna/fen/lang/compiler"
)

// CompileError wraps the diagnostics produced when Interpret fails to
// compile its source. Compilation keeps going after the first error, so
// there may be more than one.
type CompileError struct {
	Diagnostics []compiler.Diagnostic
}

func (e *CompileError) Error() string {
	var b strings.Builder
	for i, d := range e.Diagnostics {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(d.String())
	}
	return b.String()
}

// RuntimeError is raised by the dispatch loop: an operand-type mismatch, an
// arity mismatch, calling a non-callable, assigning to an undefined global,
// or stack/frame overflow. It carries the source line of the instruction
// that failed, mirroring the line-prefixed diagnostic the interpreter this
// was ported from prints before unwinding.
type RuntimeError struct {
	Line    int
	Message string
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("%s\n[line %d] in script", e.Message, e.Line)
}

func (vm *VM) runtimeError(format string, args ...any) error {
	line := 0
	if vm.frameCount > 0 {
		frame := &vm.frames[vm.frameCount-1]
		if frame.ip > 0 && frame.ip <= len(frame.closure.Function.Chunk.Lines) {
			line = frame.closure.Function.Chunk.Lines[frame.ip-1]
		}
	}
	return &RuntimeError{Line: line, Message: fmt.Sprintf(format, args...)}
}
