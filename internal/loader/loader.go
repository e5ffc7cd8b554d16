// Package loader reads fen source files off disk. It is an external
// collaborator per spec.md §1: the compiler and machine packages never
// touch the filesystem themselves, only strings handed to them.
package loader

import (
	"fmt"
	"io"
	"os"
)

// Error is a file-loading failure. Code is the process exit code the
// interpreter this package was ported from used for every load failure
// (74, the sysexits.h EX_IOERR convention), kept distinct from the 0/1 exit
// codes the rest of the CLI uses.
type Error struct {
	Code    int
	Message string
}

func (e *Error) Error() string { return e.Message }

// Load reads the file at path and appends the NUL terminator fen's scanner
// treats as end-of-input, mirroring readFile from the source this was
// ported from: a distinct message for a file that can't be opened versus
// one that can be opened but not fully read.
func Load(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", &Error{Code: 74, Message: fmt.Sprintf("Could not open file %q.", path)}
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return "", &Error{Code: 74, Message: fmt.Sprintf("Could not read file %q.", path)}
	}
	return string(data) + "\x00", nil
}
