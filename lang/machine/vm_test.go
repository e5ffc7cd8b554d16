package machine_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mna/fen/lang/machine"
)

func run(t *testing.T, src string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	vm := machine.New(&out)
	err := vm.Interpret(src)
	return out.String(), err
}

func TestArithmeticPrecedence(t *testing.T) {
	out, err := run(t, `print 1 + 2 * 3;`)
	require.NoError(t, err)
	assert.Equal(t, "7\n", out)
}

func TestStringConcatenation(t *testing.T) {
	out, err := run(t, `var a = "foo"; var b = "bar"; print a + b;`)
	require.NoError(t, err)
	assert.Equal(t, "foobar\n", out)
}

func TestWhileLoop(t *testing.T) {
	out, err := run(t, `var x = 0; while (x < 3) { print x; x = x + 1; }`)
	require.NoError(t, err)
	assert.Equal(t, "0\n1\n2\n", out)
}

func TestIfElifElse(t *testing.T) {
	out, err := run(t, `if (nil) print "a"; elif (false) print "b"; else print "c";`)
	require.NoError(t, err)
	assert.Equal(t, "c\n", out)
}

func TestClosureCounter(t *testing.T) {
	out, err := run(t, `
		def makeCounter() {
			var n = 0;
			def incr() { n = n + 1; return n; }
			return incr;
		}
		var c = makeCounter();
		print c(); print c(); print c();
	`)
	require.NoError(t, err)
	assert.Equal(t, "1\n2\n3\n", out)
}

func TestCrossTypeEqualityIsRuntimeError(t *testing.T) {
	_, err := run(t, `print 1 == "1";`)
	require.Error(t, err)
	assert.IsType(t, &machine.RuntimeError{}, err)
}

func TestNumericZeroIsFalsey(t *testing.T) {
	out, err := run(t, `if (0) print "truthy"; else print "falsey";`)
	require.NoError(t, err)
	assert.Equal(t, "falsey\n", out)
}

func TestStringInterningSharesHeapObject(t *testing.T) {
	out, err := run(t, `print "ab" == "ab";`)
	require.NoError(t, err)
	assert.Equal(t, "true\n", out)
}

func TestTwoSeparateClosuresAliasSameCapturedVariable(t *testing.T) {
	out, err := run(t, `
		def makeTwo() {
			var n = 0;
			def incr() { n = n + 1; return n; }
			def read() { return n; }
			print incr();
			print read();
			print incr();
			print read();
		}
		makeTwo();
	`)
	require.NoError(t, err)
	assert.Equal(t, "1\n1\n2\n2\n", out)
}

func TestUndefinedGlobalAssignmentIsRuntimeError(t *testing.T) {
	_, err := run(t, `x = 1;`)
	require.Error(t, err)
	assert.IsType(t, &machine.RuntimeError{}, err)
}

func TestArityMismatchIsRuntimeError(t *testing.T) {
	_, err := run(t, `def f(a, b) { return a + b; } f(1);`)
	require.Error(t, err)
}

func TestCallingNonCallableIsRuntimeError(t *testing.T) {
	_, err := run(t, `var x = 1; x();`)
	require.Error(t, err)
}

func TestCompileErrorReturnsCompileErrorType(t *testing.T) {
	_, err := run(t, `var = 1;`)
	require.Error(t, err)
	assert.IsType(t, &machine.CompileError{}, err)
}

func TestPrintFormatsValues(t *testing.T) {
	out, err := run(t, `print 1; print true; print false; print nil; print 3.5;`)
	require.NoError(t, err)
	assert.Equal(t, "1\ntrue\nfalse\nnil\n3.5\n", out)
}

func TestRecursiveFunction(t *testing.T) {
	out, err := run(t, `
		def fact(n) {
			if (n < 2) { return 1; }
			return n * fact(n - 1);
		}
		print fact(5);
	`)
	require.NoError(t, err)
	assert.Equal(t, "120\n", out)
}

func TestAndOrShortCircuit(t *testing.T) {
	out, err := run(t, `
		print false and 1;
		print true or 2;
		print true and 3;
		print false or 4;
	`)
	require.NoError(t, err)
	assert.Equal(t, "false\ntrue\n3\n4\n", out)
}
