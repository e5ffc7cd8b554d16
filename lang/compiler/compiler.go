// Package compiler implements fen's single-pass bytecode compiler: a Pratt
// expression parser that resolves lexical scope (locals, upvalues, globals)
// and emits bytecode directly into a function's chunk as it goes, with no
// intermediate syntax tree.
//
// This is grounded on compiler.c from the interpreter this package was
// ported from, adapted to explicit Go types in place of the source's
// file-scope parser/compiler globals (see the design notes this repository
// carries forward: a CompileCtx-shaped value threaded through parsing rather
// than package-level state, so nothing here prevents two independent
// compiles from running in the same process, even though fen only ever
// drives one at a time).
package compiler

import (
	"github.com/mna/fen/lang/scanner"
	"github.com/mna/fen/lang/token"
	"github.com/mna/fen/lang/types"
)

const (
	maxLocals    = 256
	maxUpvalues  = 256
	maxArity     = 255
	maxConstants = 256
)

type funcKind uint8

const (
	kindScript funcKind = iota
	kindFunction
)

// local is a compile-time record of one local-variable slot. depth is -1
// between the point the name is declared and the point its initializer
// finishes, so `var x = x;` cannot resolve the RHS `x` to itself.
type local struct {
	name       string
	depth      int
	isCaptured bool
}

type upvalueDesc struct {
	index   uint8
	isLocal bool
}

// funcCompiler is the compile-time state for one function body: its own
// locals, upvalue descriptors, scope depth and the Function it is building.
// funcCompilers form a stack through enclosing, one per function nested in
// source order.
type funcCompiler struct {
	enclosing *funcCompiler

	function *types.Function
	kind     funcKind

	locals     []local
	upvalues   []upvalueDesc
	scopeDepth int
}

type parserState struct {
	previous  token.Token
	current   token.Token
	hadError  bool
	panicMode bool
}

// Compiler drives one compile: it owns the scanner, the parser's lookahead
// state, the stack of in-progress function compilers, and the string
// interner shared with the virtual machine that will later run the result.
type Compiler struct {
	scanner  scanner.Scanner
	parser   parserState
	current  *funcCompiler
	interner *types.Interner
	errors   []Diagnostic
}

// Compile compiles source into a top-level Function ready to be wrapped in
// a Closure and run. On any compile error it returns nil and the
// diagnostics collected; compilation keeps going after the first error so
// multiple diagnostics can be reported in one pass.
func Compile(source string, interner *types.Interner) (*types.Function, []Diagnostic) {
	c := &Compiler{interner: interner}
	c.scanner.Init(source)
	c.pushFuncCompiler(kindScript, "")

	c.advance()
	for !c.match(token.EOF) {
		c.declaration()
	}

	fn := c.endCompiler()
	if c.parser.hadError {
		return nil, c.errors
	}
	return fn, nil
}

func (c *Compiler) pushFuncCompiler(kind funcKind, name string) {
	fc := &funcCompiler{
		enclosing: c.current,
		function:  &types.Function{Name: name, Kind: toValueKind(kind)},
		kind:      kind,
	}
	// Slot 0 is reserved for the running closure (top level) or the callee
	// itself (user functions), so it can never be resolved as a named local.
	fc.locals = append(fc.locals, local{name: "", depth: 0})
	c.current = fc
}

func toValueKind(k funcKind) types.FuncKind {
	if k == kindScript {
		return types.FuncScript
	}
	return types.FuncUser
}

// endCompiler emits the implicit trailing return, pops the current
// funcCompiler and returns the Function it built.
func (c *Compiler) endCompiler() *types.Function {
	c.emitReturn()
	fn := c.current.function
	fn.UpvalueCount = len(c.current.upvalues)
	c.current = c.current.enclosing
	return fn
}

func (c *Compiler) beginScope() { c.current.scopeDepth++ }

func (c *Compiler) endScope() {
	c.current.scopeDepth--
	fc := c.current
	for len(fc.locals) > 0 && fc.locals[len(fc.locals)-1].depth > fc.scopeDepth {
		last := fc.locals[len(fc.locals)-1]
		if last.isCaptured {
			c.emitOp(OpCloseUpvalue)
		} else {
			c.emitOp(OpPop)
		}
		fc.locals = fc.locals[:len(fc.locals)-1]
	}
}

// --- token stream -----------------------------------------------------

func (c *Compiler) advance() {
	c.parser.previous = c.parser.current
	for {
		c.parser.current = c.scanner.Scan()
		if c.parser.current.Kind != token.ILLEGAL {
			return
		}
		c.errorAtCurrent(c.parser.current.Lexeme)
	}
}

func (c *Compiler) check(k token.Kind) bool { return c.parser.current.Kind == k }

func (c *Compiler) match(k token.Kind) bool {
	if !c.check(k) {
		return false
	}
	c.advance()
	return true
}

func (c *Compiler) consume(k token.Kind, msg string) {
	if c.parser.current.Kind == k {
		c.advance()
		return
	}
	c.errorAtCurrent(msg)
}

func (c *Compiler) errorAtCurrent(msg string) { c.errorAt(c.parser.current, msg) }
func (c *Compiler) error(msg string)          { c.errorAt(c.parser.previous, msg) }

func (c *Compiler) errorAt(tok token.Token, msg string) {
	if c.parser.panicMode {
		return
	}
	c.parser.panicMode = true
	c.parser.hadError = true

	where := " at '" + tok.Lexeme + "'"
	if tok.Kind == token.EOF {
		where = " at end"
	} else if tok.Kind == token.ILLEGAL {
		where = ""
	}
	c.errors = append(c.errors, Diagnostic{Line: tok.Line, Where: where, Message: msg})
}

// --- declarations & statements -----------------------------------------

func (c *Compiler) declaration() {
	switch {
	case c.match(token.VAR):
		c.varDeclaration()
	case c.match(token.DEF):
		c.funDeclaration()
	default:
		c.statement()
	}
	if c.parser.panicMode {
		c.synchronize()
	}
}

// synchronize discards tokens after a parse error until it finds a likely
// statement boundary, so one error does not cascade into dozens of
// follow-on diagnostics.
func (c *Compiler) synchronize() {
	c.parser.panicMode = false
	for !c.check(token.EOF) {
		if c.parser.previous.Kind == token.SEMI {
			return
		}
		switch c.parser.current.Kind {
		case token.DEF, token.VAR, token.IF, token.WHILE, token.PRINT, token.RETURN:
			return
		}
		c.advance()
	}
}

func (c *Compiler) varDeclaration() {
	global := c.parseVariable("Expect variable name.")
	if c.match(token.EQ) {
		c.expression()
	} else {
		c.emitOp(OpNil)
	}
	c.consume(token.SEMI, "Expect ';' after variable declaration.")
	c.defineVariable(global)
}

func (c *Compiler) funDeclaration() {
	global := c.parseVariable("Expect function name.")
	c.markInitialized()
	c.function(c.parser.previous.Lexeme, kindFunction)
	c.defineVariable(global)
}

// function compiles the `(params) { body }` of a def, then emits
// OP_CLOSURE into the ENCLOSING function's chunk, followed by one
// <is-local, index> byte pair per upvalue the nested function captured.
func (c *Compiler) function(name string, kind funcKind) {
	c.pushFuncCompiler(kind, name)
	fc := c.current
	c.beginScope()

	c.consume(token.LPAREN, "Expect '(' after function name.")
	if !c.check(token.RPAREN) {
		for {
			fc.function.Arity++
			if fc.function.Arity > maxArity {
				c.errorAtCurrent("Can't have more than 255 parameters.")
			}
			param := c.parseVariable("Expect parameter name.")
			c.defineVariable(param)
			if !c.match(token.COMMA) {
				break
			}
		}
	}
	c.consume(token.RPAREN, "Expect ')' after parameters.")
	c.consume(token.LBRACE, "Expect '{' before function body.")
	c.block()

	fn := c.endCompiler()

	constIdx := c.makeConstant(fn)
	c.emitOpByte(OpClosure, constIdx)
	for _, uv := range fc.upvalues {
		if uv.isLocal {
			c.emitByte(1)
		} else {
			c.emitByte(0)
		}
		c.emitByte(uv.index)
	}
}

func (c *Compiler) block() {
	for !c.check(token.RBRACE) && !c.check(token.EOF) {
		c.declaration()
	}
	c.consume(token.RBRACE, "Expect '}' after block.")
}

func (c *Compiler) statement() {
	switch {
	case c.match(token.PRINT):
		c.printStatement()
	case c.match(token.IF):
		c.ifStatement()
	case c.match(token.WHILE):
		c.whileStatement()
	case c.match(token.RETURN):
		c.returnStatement()
	case c.match(token.LBRACE):
		c.beginScope()
		c.block()
		c.endScope()
	default:
		c.expressionStatement()
	}
}

func (c *Compiler) printStatement() {
	c.expression()
	c.consume(token.SEMI, "Expect ';' after value.")
	c.emitOp(OpPrint)
}

func (c *Compiler) expressionStatement() {
	c.expression()
	c.consume(token.SEMI, "Expect ';' after expression.")
	c.emitOp(OpPop)
}

func (c *Compiler) returnStatement() {
	if c.match(token.SEMI) {
		c.emitReturn()
		return
	}
	c.expression()
	c.consume(token.SEMI, "Expect ';' after return value.")
	c.emitOp(OpReturn)
}

// ifClause compiles "(" expr ")" statement for one if/elif arm: it pops the
// condition on both the taken and not-taken paths (OP_JUMP_IF_FALSE only
// peeks) and returns the unpatched exit jump that should land after the
// whole if/elif/else chain.
func (c *Compiler) ifClause() int {
	c.consume(token.LPAREN, "Expect '(' before condition.")
	c.expression()
	c.consume(token.RPAREN, "Expect ')' after condition.")

	thenJump := c.emitJump(OpJumpIfFalse)
	c.emitOp(OpPop)
	c.statement()

	exitJump := c.emitJump(OpJump)
	c.patchJump(thenJump)
	c.emitOp(OpPop)
	return exitJump
}

func (c *Compiler) ifStatement() {
	exitJumps := []int{c.ifClause()}
	for c.match(token.ELIF) {
		exitJumps = append(exitJumps, c.ifClause())
	}
	if c.match(token.ELSE) {
		c.statement()
	}
	for _, j := range exitJumps {
		c.patchJump(j)
	}
}

func (c *Compiler) whileStatement() {
	loopStart := len(c.chunk().Code)
	c.consume(token.LPAREN, "Expect '(' after 'while'.")
	c.expression()
	c.consume(token.RPAREN, "Expect ')' after condition.")

	exitJump := c.emitJump(OpJumpIfFalse)
	c.emitOp(OpPop)
	c.statement()
	c.emitBackJump(loopStart)

	c.patchJump(exitJump)
	c.emitOp(OpPop)
}

// --- variable declaration/resolution ------------------------------------

func (c *Compiler) parseVariable(msg string) byte {
	c.consume(token.IDENT, msg)
	name := c.parser.previous
	c.declareLocal(name)
	if c.current.scopeDepth > 0 {
		return 0
	}
	return c.makeConstant(c.interner.Intern(name.Lexeme))
}

func (c *Compiler) declareLocal(name token.Token) {
	if c.current.scopeDepth == 0 {
		return
	}
	for i := len(c.current.locals) - 1; i >= 0; i-- {
		l := c.current.locals[i]
		if l.depth != -1 && l.depth < c.current.scopeDepth {
			break
		}
		if l.name == name.Lexeme {
			c.error("Already a variable with this name in this scope.")
		}
	}
	c.addLocal(name.Lexeme)
}

func (c *Compiler) addLocal(name string) {
	if len(c.current.locals) >= maxLocals {
		c.error("Too many local variables in function.")
		return
	}
	c.current.locals = append(c.current.locals, local{name: name, depth: -1})
}

func (c *Compiler) markInitialized() {
	if c.current.scopeDepth == 0 {
		return
	}
	c.current.locals[len(c.current.locals)-1].depth = c.current.scopeDepth
}

func (c *Compiler) defineVariable(global byte) {
	if c.current.scopeDepth > 0 {
		c.markInitialized()
		return
	}
	c.emitOpByte(OpDefineGlobal, global)
}

type varKind uint8

const (
	varGlobal varKind = iota
	varLocal
	varUpvalue
)

func (c *Compiler) resolveVariable(fc *funcCompiler, name string) (int, varKind) {
	if idx := c.resolveLocal(fc, name); idx >= 0 {
		return idx, varLocal
	}
	if idx := c.resolveUpvalue(fc, name); idx >= 0 {
		return idx, varUpvalue
	}
	return -1, varGlobal
}

func (c *Compiler) resolveLocal(fc *funcCompiler, name string) int {
	for i := len(fc.locals) - 1; i >= 0; i-- {
		if fc.locals[i].name == name {
			if fc.locals[i].depth == -1 {
				c.error("Can't read local variable in its own initializer.")
			}
			return i
		}
	}
	return -1
}

// resolveUpvalue recurses into enclosing funcCompilers: a match in the
// immediate parent's locals marks that local captured and allocates an
// {index, is-local=true} descriptor here; a match further out chains
// {index of parent's upvalue, is-local=false} descriptors at each
// intermediate level.
func (c *Compiler) resolveUpvalue(fc *funcCompiler, name string) int {
	if fc.enclosing == nil {
		return -1
	}
	if l := c.resolveLocal(fc.enclosing, name); l >= 0 {
		fc.enclosing.locals[l].isCaptured = true
		return c.addUpvalue(fc, uint8(l), true)
	}
	if u := c.resolveUpvalue(fc.enclosing, name); u >= 0 {
		return c.addUpvalue(fc, uint8(u), false)
	}
	return -1
}

func (c *Compiler) addUpvalue(fc *funcCompiler, index uint8, isLocal bool) int {
	for i, uv := range fc.upvalues {
		if uv.index == index && uv.isLocal == isLocal {
			return i
		}
	}
	if len(fc.upvalues) >= maxUpvalues {
		c.error("Too many closure variables in function.")
		return 0
	}
	fc.upvalues = append(fc.upvalues, upvalueDesc{index: index, isLocal: isLocal})
	return len(fc.upvalues) - 1
}

// --- bytecode emission ---------------------------------------------------

func (c *Compiler) chunk() *types.Chunk { return &c.current.function.Chunk }

func (c *Compiler) emitByte(b byte) { c.chunk().Write(b, c.parser.previous.Line) }
func (c *Compiler) emitOp(op Opcode) { c.emitByte(byte(op)) }

func (c *Compiler) emitOpByte(op Opcode, operand byte) {
	c.emitOp(op)
	c.emitByte(operand)
}

// emitJump writes op followed by a two-byte placeholder, returning the
// offset of the placeholder for patchJump to fill in once the target is
// known.
func (c *Compiler) emitJump(op Opcode) int {
	c.emitOp(op)
	c.emitByte(0xff)
	c.emitByte(0xff)
	return len(c.chunk().Code) - 2
}

func (c *Compiler) patchJump(offset int) {
	jump := len(c.chunk().Code) - offset - 2
	if jump > 0xffff {
		c.error("Too much code to jump over.")
	}
	c.chunk().Code[offset] = byte((jump >> 8) & 0xff)
	c.chunk().Code[offset+1] = byte(jump & 0xff)
}

// emitBackJump emits OP_BACK_JUMP with a forward-computed offset back to
// loopStart; it is written immediately rather than patched later because
// the target (loopStart) is already known.
func (c *Compiler) emitBackJump(loopStart int) {
	c.emitOp(OpBackJump)
	offset := len(c.chunk().Code) - loopStart + 2
	if offset > 0xffff {
		c.error("Loop body too large.")
	}
	c.emitByte(byte((offset >> 8) & 0xff))
	c.emitByte(byte(offset & 0xff))
}

func (c *Compiler) emitConstant(v types.Value) { c.emitOpByte(OpConstant, c.makeConstant(v)) }

func (c *Compiler) makeConstant(v types.Value) byte {
	idx := c.chunk().AddConstant(v)
	if idx >= maxConstants {
		c.error("Too many constants in one chunk.")
		return 0
	}
	return byte(idx)
}

func (c *Compiler) emitReturn() {
	c.emitOp(OpNil)
	c.emitOp(OpReturn)
}
