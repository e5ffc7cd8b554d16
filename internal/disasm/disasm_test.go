package disasm_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mna/fen/lang/compiler"
	"github.com/mna/fen/lang/types"
	"github.com/mna/fen/internal/disasm"
)

func TestFunctionListsEveryInstruction(t *testing.T) {
	var in types.Interner
	fn, errs := compiler.Compile(`var x = 1 + 2; print x;`, &in)
	require.Empty(t, errs)

	var out bytes.Buffer
	disasm.Function(&out, fn)

	s := out.String()
	assert.Contains(t, s, "********** script **********")
	assert.Contains(t, s, "OP_CONSTANT")
	assert.Contains(t, s, "OP_ADD")
	assert.Contains(t, s, "OP_PRINT")
	assert.Contains(t, s, "OP_RETURN")
}

func TestClosureInstructionListsUpvalues(t *testing.T) {
	var in types.Interner
	fn, errs := compiler.Compile(`
		def outer() {
			var n = 1;
			def inner() { return n; }
			return inner;
		}
	`, &in)
	require.Empty(t, errs)

	var outerFn *types.Function
	for _, c := range fn.Chunk.Constants {
		if f, ok := c.(*types.Function); ok && f.Name == "outer" {
			outerFn = f
		}
	}
	require.NotNil(t, outerFn)

	var out bytes.Buffer
	disasm.Function(&out, outerFn)
	assert.Contains(t, out.String(), "OP_CLOSURE")
	assert.Contains(t, out.String(), "local 1")
}
