package types

// Closure is the callable value fen actually invokes: a Function plus the
// upvalues it captured from enclosing scopes at the point it was created.
// Every `def` produces a fresh Closure each time its OP_CLOSURE executes,
// even though the underlying Function is compiled once.
type Closure struct {
	Function *Function
	Upvalues []*Upvalue
}

func (c *Closure) String() string { return c.Function.String() }
func (*Closure) Type() string     { return "function" }
func (*Closure) object()          {}
