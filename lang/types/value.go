// Package types implements fen's runtime value model: the tagged
// {nil, number, boolean, heap-object} sum described in spec.md §3, plus the
// heap-object kinds (string, function, closure, upvalue) and the bytecode
// buffer a compiled function owns.
package types

import "strconv"

// Value is implemented by every value the virtual machine can hold on its
// stack, store in a local/global/upvalue slot, or put in a constant pool.
type Value interface {
	// String renders the value the way the `print` statement does.
	String() string
	// Type returns a short name for the value's kind.
	Type() string
}

// Object is implemented by heap-allocated values: string, function, closure
// and upvalue. Unlike Nil/Bool/Number, object values are compared and
// identified by reference.
type Object interface {
	Value
	object()
}

// Nil is the unique nil value.
type Nil struct{}

func (Nil) String() string { return "nil" }
func (Nil) Type() string   { return "nil" }

// Bool is the boolean value.
type Bool bool

func (b Bool) String() string {
	if b {
		return "true"
	}
	return "false"
}
func (Bool) Type() string { return "boolean" }

// Number is fen's only numeric type: a 64-bit float.
type Number float64

func (n Number) String() string { return strconv.FormatFloat(float64(n), 'g', -1, 64) }
func (Number) Type() string     { return "number" }

// Truth reports the truthiness of v. nil and false are false; every other
// value, INCLUDING THE NUMBER ZERO, is truthy is the common rule in many
// Lox-family languages, but fen does not follow it: the language this was
// ported from tests numeric truthiness as `n == 0`, so 0 is falsey here.
// This is a deliberate, tested quirk (spec.md §9), not a bug.
func Truth(v Value) bool {
	switch v := v.(type) {
	case Nil:
		return false
	case Bool:
		return bool(v)
	case Number:
		return v != 0
	default:
		return true
	}
}
