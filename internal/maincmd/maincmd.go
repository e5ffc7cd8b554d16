// Package maincmd wires fen's command-line entry point: argument parsing
// via github.com/mna/mainer, loading the source file, compiling and running
// it, and mapping the result to an exit code and a diagnostic.
//
// Adapted from the teacher's maincmd package: the multi-subcommand dispatch
// (parse/resolve/tokenize) that repository builds via reflection has no
// equivalent here — fen's CLI runs exactly one pipeline — but the
// mainer.Cmd shape (SetArgs/SetFlags/Validate/Main) and its usage-string
// conventions are kept.
package maincmd

import (
	"fmt"
	"os"

	"github.com/mna/mainer"

	"github.com/mna/fen/internal/diag"
	"github.com/mna/fen/internal/disasm"
	"github.com/mna/fen/internal/loader"
	"github.com/mna/fen/lang/compiler"
	"github.com/mna/fen/lang/machine"
	"github.com/mna/fen/lang/types"
)

const binName = "fen"

var (
	shortUsage = fmt.Sprintf(`
usage: %s <source-path>
Run '%[1]s --help' for details.
`, binName)

	longUsage = fmt.Sprintf(`usage: %s <source-path>
       %[1]s -h|--help
       %[1]s -v|--version

Compiles and runs a %[1]s source file on the bundled bytecode virtual
machine.

Valid flag options are:
       -h --help                 Show this help and exit.
       -v --version              Print version and exit.
       --disassemble             Print the compiled bytecode listing to
                                 stdout instead of running it.
`, binName)
)

// Cmd is fen's single command: load the named source file, compile it, and
// run it.
type Cmd struct {
	BuildVersion string
	BuildDate    string

	Help    bool `flag:"h,help"`
	Version bool `flag:"v,version"`

	Disassemble bool `flag:"disassemble"`

	args []string
}

func (c *Cmd) SetArgs(args []string)          { c.args = args }
func (c *Cmd) SetFlags(flags map[string]bool) {}

// Validate enforces the CLI's one hard argument-count rule: exactly one
// source path. The interpreter this was ported from returns exit code 1
// straight out of main for this case, before ever opening a file; every
// other failure (file not found, compile error, runtime error) is reported
// through a different channel.
func (c *Cmd) Validate() error {
	if c.Help || c.Version {
		return nil
	}
	if len(c.args) != 1 {
		return fmt.Errorf("expected exactly one source path, got %d", len(c.args))
	}
	return nil
}

// Main implements mainer.Cmd.
func (c *Cmd) Main(args []string, stdio mainer.Stdio) mainer.ExitCode {
	p := mainer.Parser{EnvVars: false, EnvPrefix: binName + "_"}
	if err := p.Parse(args, c); err != nil {
		fmt.Fprintf(stdio.Stderr, "invalid arguments: %s\n%s", err, shortUsage)
		return mainer.InvalidArgs
	}

	switch {
	case c.Help:
		fmt.Fprint(stdio.Stdout, longUsage)
		return mainer.Success
	case c.Version:
		fmt.Fprintf(stdio.Stdout, "%s %s %s\n", binName, c.BuildVersion, c.BuildDate)
		return mainer.Success
	}

	if err := c.Validate(); err != nil {
		fmt.Fprintf(stdio.Stderr, "%s\n%s", err, shortUsage)
		return mainer.InvalidArgs
	}

	return c.run(c.args[0], stdio)
}

// run loads and executes path, returning 74 if the file could not be loaded
// and 0 in every other case — including a failed compile or a failed run —
// matching the source's own always-return-0 CLI contract (see spec.md §6).
// A diagnostic is printed to stdout either way.
func (c *Cmd) run(path string, stdio mainer.Stdio) mainer.ExitCode {
	source, err := loader.Load(path)
	if err != nil {
		fmt.Fprintln(stdio.Stderr, err)
		if le, ok := err.(*loader.Error); ok {
			return mainer.ExitCode(le.Code)
		}
		return mainer.ExitCode(74)
	}

	if c.Disassemble {
		fn, diags := compiler.Compile(source, new(types.Interner))
		if fn == nil {
			for _, d := range diags {
				fmt.Fprintln(stdio.Stderr, d.String())
			}
			diag.CompileError(stdio.Stdout)
			return mainer.Success
		}
		disasm.Function(stdio.Stdout, fn)
		return mainer.Success
	}

	vm := machine.New(stdio.Stdout)
	if err := vm.Interpret(source); err != nil {
		switch e := err.(type) {
		case *machine.CompileError:
			for _, d := range e.Diagnostics {
				fmt.Fprintln(stdio.Stderr, d.String())
			}
			diag.CompileError(stdio.Stdout)
		case *machine.RuntimeError:
			fmt.Fprintln(stdio.Stderr, e.Error())
			diag.RuntimeError(stdio.Stdout)
		default:
			fmt.Fprintln(stdio.Stderr, err)
			diag.RuntimeError(stdio.Stdout)
		}
	}
	return mainer.Success
}

// Run is the package-level entry point cmd/fen calls.
func Run(version, buildDate string) int {
	c := &Cmd{BuildVersion: version, BuildDate: buildDate}
	return int(c.Main(os.Args, mainer.CurrentStdio()))
}
