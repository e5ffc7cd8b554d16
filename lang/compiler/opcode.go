package compiler

// Opcode is a single fen bytecode instruction. Operand bytes, where present,
// immediately follow the opcode byte in the chunk.
type Opcode uint8

// "x OP y" is a stack picture: value(s) popped, then value(s) pushed.
// "(1)"/"(2)" marks an opcode's inline operand width in bytes.
const (
	OpConstant Opcode = iota // - OP_CONSTANT(1) v        push constants[operand]
	OpNil                    // - OP_NIL -                push nil
	OpTrue                   // - OP_TRUE -               push true
	OpFalse                  // - OP_FALSE -              push false
	OpPop                    // x OP_POP -                -

	OpGetLocal     // - OP_GET_LOCAL(1)    v  push frame-local slot
	OpSetLocal     // v OP_SET_LOCAL(1)    v  write frame-local slot, leave v
	OpGetGlobal    // - OP_GET_GLOBAL(1)   v  push globals[constants[operand]]
	OpDefineGlobal // v OP_DEFINE_GLOBAL(1) - define globals[constants[operand]] = v
	OpSetGlobal    // v OP_SET_GLOBAL(1)   v  globals[constants[operand]] = v, leave v
	OpGetUpvalue   // - OP_GET_UPVALUE(1)  v  push *upvalues[operand]
	OpSetUpvalue   // v OP_SET_UPVALUE(1)  v  *upvalues[operand] = v, leave v

	OpEqual   // a b OP_EQUAL    bool
	OpGreater // a b OP_GREATER  bool
	OpLess    // a b OP_LESS     bool
	OpAdd     // a b OP_ADD      a+b
	OpSubtract
	OpMultiply
	OpDivide
	OpNot    // x OP_NOT    bool
	OpNegate // x OP_NEGATE -x

	OpPrint // x OP_PRINT -

	OpJump         // - OP_JUMP(2) -          unconditional relative forward jump
	OpJumpIfFalse  // x OP_JUMP_IF_FALSE(2) x peeks, does not pop
	OpBackJump     // - OP_BACK_JUMP(2) -     unconditional relative backward jump

	OpCall // callee arg1..argN OP_CALL(1=argc) result

	OpClosure      // - OP_CLOSURE(1+2*upvalue_count) closure
	OpCloseUpvalue // x OP_CLOSE_UPVALUE -

	OpReturn // v OP_RETURN -  (halts outermost frame, else pops frame)
)
