package compiler

import (
	"strconv"

	"github.com/mna/fen/lang/token"
	"github.com/mna/fen/lang/types"
)

// precedence orders binding power from weakest to strongest.
type precedence uint8

const (
	precNone       precedence = iota
	precAssignment            // =
	precOr                    // or
	precAnd                   // and
	precEquality              // == !=
	precComparison            // < > <= >=
	precTerm                  // + -
	precFactor                // * /
	precUnary                 // ! -
	precCall                  // ()
	precPrimary
)

type parseFn func(c *Compiler, canAssign bool)

type parseRule struct {
	prefix     parseFn
	infix      parseFn
	precedence precedence
}

// getRule returns the parse rule for a token kind as a pure function of the
// kind, rather than an indexable table of function pointers keyed by the
// token enum: the source this was ported from does the latter, but Go has
// no use for emulating that indirection.
func getRule(kind token.Kind) parseRule {
	switch kind {
	case token.LPAREN:
		return parseRule{prefix: grouping, infix: call, precedence: precCall}
	case token.MINUS:
		return parseRule{prefix: unary, infix: binary, precedence: precTerm}
	case token.PLUS:
		return parseRule{infix: binary, precedence: precTerm}
	case token.SLASH, token.STAR:
		return parseRule{infix: binary, precedence: precFactor}
	case token.BANG:
		return parseRule{prefix: unary}
	case token.BANG_EQ, token.EQ_EQ:
		return parseRule{infix: binary, precedence: precEquality}
	case token.GT, token.GE, token.LT, token.LE:
		return parseRule{infix: binary, precedence: precComparison}
	case token.STRING:
		return parseRule{prefix: stringLiteral}
	case token.NUMBER:
		return parseRule{prefix: number}
	case token.IDENT:
		return parseRule{prefix: variable}
	case token.AND:
		return parseRule{infix: and_, precedence: precAnd}
	case token.OR:
		return parseRule{infix: or_, precedence: precOr}
	case token.FALSE, token.TRUE, token.NIL:
		return parseRule{prefix: literal}
	default:
		return parseRule{}
	}
}

func (c *Compiler) expression() { c.parsePrecedence(precAssignment) }

func (c *Compiler) parsePrecedence(prec precedence) {
	c.advance()
	rule := getRule(c.parser.previous.Kind)
	if rule.prefix == nil {
		c.error("Expect expression.")
		return
	}

	canAssign := prec <= precAssignment
	rule.prefix(c, canAssign)

	for prec <= getRule(c.parser.current.Kind).precedence {
		c.advance()
		infix := getRule(c.parser.previous.Kind).infix
		infix(c, canAssign)
	}

	// Assignment is only valid as the whole RHS of an expression; if
	// nothing above consumed the '=' (e.g. the target was a call result),
	// it is still sitting here unconsumed, which is the error.
	if canAssign && c.match(token.EQ) {
		c.error("Invalid assignment target.")
	}
}

func number(c *Compiler, _ bool) {
	v, err := strconv.ParseFloat(c.parser.previous.Lexeme, 64)
	if err != nil {
		c.error("Invalid number literal.")
		return
	}
	c.emitConstant(types.Number(v))
}

func literal(c *Compiler, _ bool) {
	switch c.parser.previous.Kind {
	case token.FALSE:
		c.emitOp(OpFalse)
	case token.TRUE:
		c.emitOp(OpTrue)
	case token.NIL:
		c.emitOp(OpNil)
	}
}

func stringLiteral(c *Compiler, _ bool) {
	c.emitConstant(c.interner.Intern(c.parser.previous.Lexeme))
}

func grouping(c *Compiler, _ bool) {
	c.expression()
	c.consume(token.RPAREN, "Expect ')' after expression.")
}

func unary(c *Compiler, _ bool) {
	opKind := c.parser.previous.Kind
	c.parsePrecedence(precUnary)
	switch opKind {
	case token.MINUS:
		c.emitOp(OpNegate)
	case token.BANG:
		c.emitOp(OpNot)
	}
}

// binary compiles the RHS at one precedence level above the operator's own,
// so `a + b + c` left-associates instead of recursing into the same level.
func binary(c *Compiler, _ bool) {
	opKind := c.parser.previous.Kind
	rule := getRule(opKind)
	c.parsePrecedence(rule.precedence + 1)

	switch opKind {
	case token.PLUS:
		c.emitOp(OpAdd)
	case token.MINUS:
		c.emitOp(OpSubtract)
	case token.STAR:
		c.emitOp(OpMultiply)
	case token.SLASH:
		c.emitOp(OpDivide)
	case token.EQ_EQ:
		c.emitOp(OpEqual)
	case token.BANG_EQ:
		c.emitOp(OpEqual)
		c.emitOp(OpNot)
	case token.GT:
		c.emitOp(OpGreater)
	case token.GE:
		// a >= b  ==  !(a < b); there is no dedicated opcode.
		c.emitOp(OpLess)
		c.emitOp(OpNot)
	case token.LT:
		c.emitOp(OpLess)
	case token.LE:
		// a <= b  ==  !(a > b)
		c.emitOp(OpGreater)
		c.emitOp(OpNot)
	}
}

func call(c *Compiler, _ bool) {
	argc := c.argumentList()
	c.emitOpByte(OpCall, argc)
}

func (c *Compiler) argumentList() byte {
	var argc int
	if !c.check(token.RPAREN) {
		for {
			c.expression()
			if argc == 255 {
				c.error("Can't have more than 255 arguments.")
			} else {
				argc++
			}
			if !c.match(token.COMMA) {
				break
			}
		}
	}
	c.consume(token.RPAREN, "Expect ')' after arguments.")
	return byte(argc)
}

func and_(c *Compiler, _ bool) {
	endJump := c.emitJump(OpJumpIfFalse)
	c.emitOp(OpPop)
	c.parsePrecedence(precAnd)
	c.patchJump(endJump)
}

func or_(c *Compiler, _ bool) {
	elseJump := c.emitJump(OpJumpIfFalse)
	endJump := c.emitJump(OpJump)
	c.patchJump(elseJump)
	c.emitOp(OpPop)
	c.parsePrecedence(precOr)
	c.patchJump(endJump)
}

func variable(c *Compiler, canAssign bool) {
	c.namedVariable(c.parser.previous, canAssign)
}

func (c *Compiler) namedVariable(tok token.Token, canAssign bool) {
	var getOp, setOp Opcode
	arg, kind := c.resolveVariable(c.current, tok.Lexeme)
	switch kind {
	case varLocal:
		getOp, setOp = OpGetLocal, OpSetLocal
	case varUpvalue:
		getOp, setOp = OpGetUpvalue, OpSetUpvalue
	default:
		getOp, setOp = OpGetGlobal, OpSetGlobal
		arg = int(c.makeConstant(c.interner.Intern(tok.Lexeme)))
	}

	if canAssign && c.match(token.EQ) {
		c.expression()
		c.emitOpByte(setOp, byte(arg))
	} else {
		c.emitOpByte(getOp, byte(arg))
	}
}
