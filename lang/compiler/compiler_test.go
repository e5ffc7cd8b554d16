package compiler_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mna/fen/lang/compiler"
	"github.com/mna/fen/lang/types"
)

func mustCompile(t *testing.T, src string) *types.Function {
	t.Helper()
	var in types.Interner
	fn, errs := compiler.Compile(src, &in)
	require.Empty(t, errs)
	require.NotNil(t, fn)
	return fn
}

func TestCompileEndsInNilReturn(t *testing.T) {
	fn := mustCompile(t, `print 1 + 2;`)
	code := fn.Chunk.Code
	require.True(t, len(code) >= 2)
	assert.Equal(t, byte(compiler.OpNil), code[len(code)-2])
	assert.Equal(t, byte(compiler.OpReturn), code[len(code)-1])
}

func TestRedeclareLocalAtSameDepthIsError(t *testing.T) {
	var in types.Interner
	_, errs := compiler.Compile(`{ var x = 1; var x = 2; }`, &in)
	require.NotEmpty(t, errs)
}

func TestRedeclareLocalAtDeeperDepthIsFine(t *testing.T) {
	var in types.Interner
	_, errs := compiler.Compile(`{ var x = 1; { var x = 2; } }`, &in)
	require.Empty(t, errs)
}

func TestSelfReferencingInitializerIsError(t *testing.T) {
	var in types.Interner
	_, errs := compiler.Compile(`{ var x = x; }`, &in)
	require.NotEmpty(t, errs)
}

func TestJumpOperandsLandOnOpcodeBoundaries(t *testing.T) {
	fn := mustCompile(t, `
		var x = 0;
		if (x < 3) { print x; } elif (x < 5) { print x; } else { print x; }
		while (x < 3) { x = x + 1; }
	`)
	walkAndCheckJumps(t, fn.Chunk.Code)
}

// walkAndCheckJumps disassembles code far enough to validate that every
// jump target lands at the start of an instruction, never mid-operand.
func walkAndCheckJumps(t *testing.T, code []byte) {
	t.Helper()
	boundaries := make(map[int]bool)
	for ip := 0; ip < len(code); {
		boundaries[ip] = true
		ip += instructionSize(compiler.Opcode(code[ip]))
	}

	for ip := 0; ip < len(code); {
		op := compiler.Opcode(code[ip])
		switch op {
		case compiler.OpJump, compiler.OpJumpIfFalse:
			offset := int(code[ip+1])<<8 | int(code[ip+2])
			target := ip + 3 + offset
			assert.True(t, boundaries[target], "jump target %d not on instruction boundary", target)
		case compiler.OpBackJump:
			offset := int(code[ip+1])<<8 | int(code[ip+2])
			target := ip + 3 - offset
			assert.True(t, boundaries[target], "back-jump target %d not on instruction boundary", target)
		}
		ip += instructionSize(op)
	}
}

func instructionSize(op compiler.Opcode) int {
	switch op {
	case compiler.OpConstant, compiler.OpGetLocal, compiler.OpSetLocal,
		compiler.OpGetGlobal, compiler.OpDefineGlobal, compiler.OpSetGlobal,
		compiler.OpGetUpvalue, compiler.OpSetUpvalue, compiler.OpCall:
		return 2
	case compiler.OpJump, compiler.OpJumpIfFalse, compiler.OpBackJump:
		return 3
	case compiler.OpClosure:
		// variable width; callers that need exact sizing read the constant's
		// upvalue count, tests here never emit closures through this helper.
		return 2
	default:
		return 1
	}
}

func TestUpvalueDeduplication(t *testing.T) {
	fn := mustCompile(t, `
		def outer() {
			var x = 1;
			def inner() {
				return x + x;
			}
			return inner;
		}
	`)
	// outer's constant pool holds inner's Function; inspect its upvalue count.
	var innerFn *types.Function
	for _, c := range fn.Chunk.Constants {
		if f, ok := c.(*types.Function); ok && f.Name == "outer" {
			for _, oc := range f.Chunk.Constants {
				if inner, ok := oc.(*types.Function); ok && inner.Name == "inner" {
					innerFn = inner
				}
			}
		}
	}
	require.NotNil(t, innerFn)
	assert.Equal(t, 1, innerFn.UpvalueCount)
}

func TestArityCountedFromParameters(t *testing.T) {
	fn := mustCompile(t, `def add(a, b) { return a + b; }`)
	var addFn *types.Function
	for _, c := range fn.Chunk.Constants {
		if f, ok := c.(*types.Function); ok && f.Name == "add" {
			addFn = f
		}
	}
	require.NotNil(t, addFn)
	assert.Equal(t, 2, addFn.Arity)
}

func TestReturnAtTopLevelCompiles(t *testing.T) {
	fn := mustCompile(t, `print 1; return; print 2;`)
	code := fn.Chunk.Code
	// the explicit top-level return emits its own OP_NIL/OP_RETURN pair
	// ahead of the implicit trailing one compiled for every function.
	var returns int
	for _, b := range code {
		if compiler.Opcode(b) == compiler.OpReturn {
			returns++
		}
	}
	assert.Equal(t, 2, returns)
}

func TestCompileErrorsReportLineNumbers(t *testing.T) {
	var in types.Interner
	_, errs := compiler.Compile("var x = 1\nvar y = 2;", &in)
	require.NotEmpty(t, errs)
	assert.Equal(t, 2, errs[0].Line)
}
