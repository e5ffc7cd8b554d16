// Package disasm prints a human-readable listing of a compiled function's
// bytecode, mirroring debug.c from the interpreter this was ported from:
// one line per instruction, showing its offset, mnemonic, and any inline
// operand or resolved constant.
//
// It is an external collaborator per spec.md §1 (the debug printer), wired
// up behind the `--disassemble` CLI flag rather than exercised by the
// core compile/execute pipeline.
package disasm

import (
	"fmt"
	"io"

	"github.com/mna/fen/lang/compiler"
	"github.com/mna/fen/lang/types"
)

// Function writes a full listing of fn's bytecode to w.
func Function(w io.Writer, fn *types.Function) {
	name := "script"
	if fn.Name != "" {
		name = fn.Name
	}
	fmt.Fprintf(w, "********** %s **********\n", name)
	code := fn.Chunk.Code
	for offset := 0; offset < len(code); {
		offset = Instruction(w, fn, offset)
	}
	fmt.Fprintln(w, "****************************")
}

// Instruction writes one disassembled instruction at offset and returns the
// offset of the next instruction.
func Instruction(w io.Writer, fn *types.Function, offset int) int {
	fmt.Fprintf(w, "%04d ", offset)
	if offset > 0 && fn.Chunk.Lines[offset] == fn.Chunk.Lines[offset-1] {
		fmt.Fprint(w, "   | ")
	} else {
		fmt.Fprintf(w, "%4d ", fn.Chunk.Lines[offset])
	}

	code := fn.Chunk.Code
	op := compiler.Opcode(code[offset])
	switch op {
	case compiler.OpConstant, compiler.OpDefineGlobal, compiler.OpGetGlobal, compiler.OpSetGlobal:
		return constantInstruction(w, opName(op), fn, offset)
	case compiler.OpGetLocal, compiler.OpSetLocal, compiler.OpGetUpvalue, compiler.OpSetUpvalue, compiler.OpCall:
		return byteInstruction(w, opName(op), code, offset)
	case compiler.OpJump, compiler.OpJumpIfFalse:
		return jumpInstruction(w, opName(op), code, offset, 1)
	case compiler.OpBackJump:
		return jumpInstruction(w, opName(op), code, offset, -1)
	case compiler.OpClosure:
		return closureInstruction(w, fn, offset)
	default:
		fmt.Fprintln(w, opName(op))
		return offset + 1
	}
}

func constantInstruction(w io.Writer, name string, fn *types.Function, offset int) int {
	idx := fn.Chunk.Code[offset+1]
	v := fn.Chunk.Constants[idx]
	fmt.Fprintf(w, "%-16s %4d '%s'\n", name, idx, v.String())
	return offset + 2
}

func byteInstruction(w io.Writer, name string, code []byte, offset int) int {
	slot := code[offset+1]
	fmt.Fprintf(w, "%-16s %4d\n", name, slot)
	return offset + 2
}

func jumpInstruction(w io.Writer, name string, code []byte, offset int, sign int) int {
	jump := int(code[offset+1])<<8 | int(code[offset+2])
	target := offset + 3 + sign*jump
	fmt.Fprintf(w, "%-16s %4d -> %d\n", name, offset, target)
	return offset + 3
}

func closureInstruction(w io.Writer, fn *types.Function, offset int) int {
	idx := fn.Chunk.Code[offset+1]
	inner := fn.Chunk.Constants[idx].(*types.Function)
	fmt.Fprintf(w, "%-16s %4d %s\n", "OP_CLOSURE", idx, inner.String())
	next := offset + 2
	for i := 0; i < inner.UpvalueCount; i++ {
		isLocal := fn.Chunk.Code[next]
		index := fn.Chunk.Code[next+1]
		kind := "upvalue"
		if isLocal == 1 {
			kind = "local"
		}
		fmt.Fprintf(w, "%04d      |                     %s %d\n", next, kind, index)
		next += 2
	}
	return next
}

func opName(op compiler.Opcode) string {
	switch op {
	case compiler.OpConstant:
		return "OP_CONSTANT"
	case compiler.OpNil:
		return "OP_NIL"
	case compiler.OpTrue:
		return "OP_TRUE"
	case compiler.OpFalse:
		return "OP_FALSE"
	case compiler.OpPop:
		return "OP_POP"
	case compiler.OpGetLocal:
		return "OP_GET_LOCAL"
	case compiler.OpSetLocal:
		return "OP_SET_LOCAL"
	case compiler.OpGetGlobal:
		return "OP_GET_GLOBAL"
	case compiler.OpDefineGlobal:
		return "OP_DEFINE_GLOBAL"
	case compiler.OpSetGlobal:
		return "OP_SET_GLOBAL"
	case compiler.OpGetUpvalue:
		return "OP_GET_UPVALUE"
	case compiler.OpSetUpvalue:
		return "OP_SET_UPVALUE"
	case compiler.OpEqual:
		return "OP_EQUAL"
	case compiler.OpGreater:
		return "OP_GREATER"
	case compiler.OpLess:
		return "OP_LESS"
	case compiler.OpAdd:
		return "OP_ADD"
	case compiler.OpSubtract:
		return "OP_SUBTRACT"
	case compiler.OpMultiply:
		return "OP_MULTIPLY"
	case compiler.OpDivide:
		return "OP_DIVIDE"
	case compiler.OpNot:
		return "OP_NOT"
	case compiler.OpNegate:
		return "OP_NEGATE"
	case compiler.OpPrint:
		return "OP_PRINT"
	case compiler.OpJump:
		return "OP_JUMP"
	case compiler.OpJumpIfFalse:
		return "OP_JUMP_IF_FALSE"
	case compiler.OpBackJump:
		return "OP_BACK_JUMP"
	case compiler.OpCall:
		return "OP_CALL"
	case compiler.OpClosure:
		return "OP_CLOSURE"
	case compiler.OpCloseUpvalue:
		return "OP_CLOSE_UPVALUE"
	case compiler.OpReturn:
		return "OP_RETURN"
	default:
		return "OP_UNKNOWN"
	}
}
