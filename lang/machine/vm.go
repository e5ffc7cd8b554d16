// Package machine implements fen's stack-based virtual machine: the value
// stack, call-frame stack, open/closed upvalue chain, global table and
// dispatch loop that execute bytecode the compiler package produces.
//
// Grounded on vm.c from the interpreter this was ported from, with the
// object-teardown story re-architected per that source's own design notes:
// rather than an intrusive linked list of heap objects walked and freed by
// hand, the VM simply owns every object it allocates for the lifetime of
// one Interpret call, and releases them by going out of scope — Go's
// garbage collector plays the role of "free en masse at teardown" that the
// original got from a hand-rolled list.
package machine

import (
	"fmt"
	"io"

	"github.com/dolthub/swiss"

	"github.com/mna/fen/lang/compiler"
	"github.com/mna/fen/lang/types"
)

const (
	framesMax = 64
	stackMax  = framesMax * 255
)

type callFrame struct {
	closure *types.Closure
	ip      int
	base    int // stack slot holding local 0: the frame's own closure (the callee, for a call); arguments start at base+1
}

// VM is one interpreter instance. It is not safe for concurrent use:
// Interpret runs its dispatch loop to completion on the calling goroutine
// and touches no shared state outside itself.
type VM struct {
	stack    [stackMax]types.Value
	stackTop int

	frames     [framesMax]callFrame
	frameCount int

	globals  *swiss.Map[*types.String, types.Value]
	interner *types.Interner

	openUpvalues *types.Upvalue

	out io.Writer
}

// New creates a VM that prints `print` statement output to out.
func New(out io.Writer) *VM {
	return &VM{out: out, interner: &types.Interner{}, globals: swiss.NewMap[*types.String, types.Value](8)}
}

// Interner returns the string interner this VM shares with any source it
// compiles, so callers that need to build string values outside of
// Interpret can produce ones that compare equal to the VM's own.
func (vm *VM) Interner() *types.Interner { return vm.interner }

// Interpret compiles source and runs it to completion. It returns a
// *CompileError if compilation failed, a *RuntimeError if execution failed,
// or nil on success.
func (vm *VM) Interpret(source string) error {
	fn, diags := compiler.Compile(source, vm.interner)
	if fn == nil {
		return &CompileError{Diagnostics: diags}
	}

	closure := &types.Closure{Function: fn}
	vm.push(closure)
	if err := vm.callClosure(closure, 0); err != nil {
		return err
	}
	if err := vm.run(); err != nil {
		return err
	}
	vm.checkTornDown()
	return nil
}

// checkTornDown verifies that a successful run left the VM exactly as it
// started: no frames left open, no values left on the stack. A violation
// here means an opcode handler unbalanced push/pop or frame bookkeeping —
// a VM bug, never a user-triggerable condition, hence the panic instead of
// a returned error.
func (vm *VM) checkTornDown() {
	if vm.stackTop != 0 {
		panic(fmt.Sprintf("machine: %d values left on stack after successful run", vm.stackTop))
	}
	if vm.frameCount != 0 {
		panic(fmt.Sprintf("machine: %d frames left open after successful run", vm.frameCount))
	}
}

func (vm *VM) push(v types.Value) {
	vm.stack[vm.stackTop] = v
	vm.stackTop++
}

func (vm *VM) pop() types.Value {
	vm.stackTop--
	return vm.stack[vm.stackTop]
}

func (vm *VM) peek(distance int) types.Value {
	return vm.stack[vm.stackTop-1-distance]
}

func (vm *VM) callClosure(cl *types.Closure, argCount int) error {
	if argCount != cl.Function.Arity {
		return vm.runtimeError("Expected %d arguments but got %d.", cl.Function.Arity, argCount)
	}
	if vm.frameCount == framesMax {
		return vm.runtimeError("Stack overflow.")
	}
	frame := &vm.frames[vm.frameCount]
	frame.closure = cl
	frame.ip = 0
	frame.base = vm.stackTop - argCount - 1
	vm.frameCount++
	return nil
}

func (vm *VM) callValue(callee types.Value, argCount int) error {
	cl, ok := callee.(*types.Closure)
	if !ok {
		return vm.runtimeError("Can only call functions.")
	}
	return vm.callClosure(cl, argCount)
}

func (vm *VM) readByte(frame *callFrame) byte {
	b := frame.closure.Function.Chunk.Code[frame.ip]
	frame.ip++
	return b
}

func (vm *VM) readShort(frame *callFrame) int {
	hi := vm.readByte(frame)
	lo := vm.readByte(frame)
	return int(hi)<<8 | int(lo)
}

func (vm *VM) readConstant(frame *callFrame) types.Value {
	return frame.closure.Function.Chunk.Constants[vm.readByte(frame)]
}

// run is the dispatch loop. It halts on OP_RETURN from the outermost frame
// (success) or on the first runtime error.
func (vm *VM) run() error {
	for {
		frame := &vm.frames[vm.frameCount-1]
		switch op := compiler.Opcode(vm.readByte(frame)); op {
		case compiler.OpConstant:
			vm.push(vm.readConstant(frame))

		case compiler.OpNil:
			vm.push(types.Nil{})
		case compiler.OpTrue:
			vm.push(types.Bool(true))
		case compiler.OpFalse:
			vm.push(types.Bool(false))
		case compiler.OpPop:
			vm.pop()

		case compiler.OpGetLocal:
			slot := vm.readByte(frame)
			vm.push(vm.stack[frame.base+int(slot)])
		case compiler.OpSetLocal:
			slot := vm.readByte(frame)
			vm.stack[frame.base+int(slot)] = vm.peek(0)

		case compiler.OpGetGlobal:
			name := vm.readConstant(frame).(*types.String)
			v, ok := vm.globals.Get(name)
			if !ok {
				return vm.runtimeError("Undefined variable '%s'.", name.Chars())
			}
			vm.push(v)
		case compiler.OpDefineGlobal:
			name := vm.readConstant(frame).(*types.String)
			vm.globals.Put(name, vm.peek(0))
			vm.pop()
		case compiler.OpSetGlobal:
			name := vm.readConstant(frame).(*types.String)
			if _, ok := vm.globals.Get(name); !ok {
				return vm.runtimeError("Undefined variable '%s'.", name.Chars())
			}
			vm.globals.Put(name, vm.peek(0))

		case compiler.OpGetUpvalue:
			idx := vm.readByte(frame)
			vm.push(*frame.closure.Upvalues[idx].Location)
		case compiler.OpSetUpvalue:
			idx := vm.readByte(frame)
			*frame.closure.Upvalues[idx].Location = vm.peek(0)

		case compiler.OpEqual:
			b, a := vm.pop(), vm.pop()
			eq, err := valuesEqual(a, b)
			if err != nil {
				return vm.runtimeError("%s", err.Error())
			}
			vm.push(types.Bool(eq))
		case compiler.OpGreater:
			if err := vm.binaryNumberOp(func(a, b float64) float64 {
				if a > b {
					return 1
				}
				return 0
			}, true); err != nil {
				return err
			}
		case compiler.OpLess:
			if err := vm.binaryNumberOp(func(a, b float64) float64 {
				if a < b {
					return 1
				}
				return 0
			}, true); err != nil {
				return err
			}
		case compiler.OpAdd:
			if err := vm.add(); err != nil {
				return err
			}
		case compiler.OpSubtract:
			if err := vm.binaryNumberOp(func(a, b float64) float64 { return a - b }, false); err != nil {
				return err
			}
		case compiler.OpMultiply:
			if err := vm.binaryNumberOp(func(a, b float64) float64 { return a * b }, false); err != nil {
				return err
			}
		case compiler.OpDivide:
			if err := vm.binaryNumberOp(func(a, b float64) float64 { return a / b }, false); err != nil {
				return err
			}
		case compiler.OpNot:
			vm.push(types.Bool(!types.Truth(vm.pop())))
		case compiler.OpNegate:
			n, ok := vm.peek(0).(types.Number)
			if !ok {
				return vm.runtimeError("Operand must be a number.")
			}
			vm.pop()
			vm.push(-n)

		case compiler.OpPrint:
			fmt.Fprintln(vm.out, vm.pop().String())

		case compiler.OpJump:
			frame.ip += vm.readShort(frame)
		case compiler.OpJumpIfFalse:
			offset := vm.readShort(frame)
			if !types.Truth(vm.peek(0)) {
				frame.ip += offset
			}
		case compiler.OpBackJump:
			frame.ip -= vm.readShort(frame)

		case compiler.OpCall:
			argCount := int(vm.readByte(frame))
			if err := vm.callValue(vm.peek(argCount), argCount); err != nil {
				return err
			}

		case compiler.OpClosure:
			fn := vm.readConstant(frame).(*types.Function)
			cl := &types.Closure{Function: fn, Upvalues: make([]*types.Upvalue, fn.UpvalueCount)}
			for i := 0; i < fn.UpvalueCount; i++ {
				isLocal := vm.readByte(frame)
				index := vm.readByte(frame)
				if isLocal == 1 {
					cl.Upvalues[i] = vm.captureUpvalue(frame.base + int(index))
				} else {
					cl.Upvalues[i] = frame.closure.Upvalues[index]
				}
			}
			vm.push(cl)
		case compiler.OpCloseUpvalue:
			vm.closeUpvalues(vm.stackTop - 1)
			vm.pop()

		case compiler.OpReturn:
			result := vm.pop()
			vm.closeUpvalues(frame.base)
			vm.frameCount--
			if vm.frameCount == 0 {
				vm.stackTop = frame.base // discard the top-level closure and any locals left above it
				return nil
			}
			vm.stackTop = frame.base
			vm.push(result)

		default:
			return vm.runtimeError("Unknown opcode %d.", op)
		}
	}
}

func (vm *VM) add() error {
	b, a := vm.peek(0), vm.peek(1)
	switch av := a.(type) {
	case types.Number:
		bv, ok := b.(types.Number)
		if !ok {
			return vm.runtimeError("Operands must be two numbers or two strings.")
		}
		vm.pop()
		vm.pop()
		vm.push(av + bv)
	case *types.String:
		bv, ok := b.(*types.String)
		if !ok {
			return vm.runtimeError("Operands must be two numbers or two strings.")
		}
		vm.pop()
		vm.pop()
		vm.push(vm.interner.Intern(av.Chars() + bv.Chars()))
	default:
		return vm.runtimeError("Operands must be two numbers or two strings.")
	}
	return nil
}

// binaryNumberOp pops two numbers, applies f, and pushes the result — as a
// Bool when asBool is set (comparisons), otherwise as a Number (arithmetic).
func (vm *VM) binaryNumberOp(f func(a, b float64) float64, asBool bool) error {
	b, ok1 := vm.peek(0).(types.Number)
	a, ok2 := vm.peek(1).(types.Number)
	if !ok1 || !ok2 {
		return vm.runtimeError("Operands must be numbers.")
	}
	vm.pop()
	vm.pop()
	r := f(float64(a), float64(b))
	if asBool {
		vm.push(types.Bool(r != 0))
	} else {
		vm.push(types.Number(r))
	}
	return nil
}

func valuesEqual(a, b types.Value) (bool, error) {
	switch av := a.(type) {
	case types.Nil:
		if _, ok := b.(types.Nil); ok {
			return true, nil
		}
	case types.Bool:
		if bv, ok := b.(types.Bool); ok {
			return av == bv, nil
		}
	case types.Number:
		if bv, ok := b.(types.Number); ok {
			return av == bv, nil
		}
	case *types.String:
		// Strings are interned: pointer equality is content equality.
		if bv, ok := b.(*types.String); ok {
			return av == bv, nil
		}
	default:
		if av == b {
			return true, nil
		}
	}
	if fmt.Sprintf("%T", a) == fmt.Sprintf("%T", b) {
		return false, nil
	}
	return false, fmt.Errorf("types aren't the same")
}
