package maincmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mna/mainer"
)

func TestValidateRequiresExactlyOnePath(t *testing.T) {
	var c Cmd
	c.SetArgs(nil)
	assert.Error(t, c.Validate())

	c.SetArgs([]string{"a.fen", "b.fen"})
	assert.Error(t, c.Validate())

	c.SetArgs([]string{"a.fen"})
	assert.NoError(t, c.Validate())
}

func TestValidateSkippedForHelpAndVersion(t *testing.T) {
	c := Cmd{Help: true}
	c.SetArgs(nil)
	assert.NoError(t, c.Validate())

	c = Cmd{Version: true}
	c.SetArgs(nil)
	assert.NoError(t, c.Validate())
}

func stdio(stdout, stderr *bytes.Buffer) mainer.Stdio {
	return mainer.Stdio{Stdin: os.Stdin, Stdout: stdout, Stderr: stderr}
}

func TestRunPrintsProgramOutput(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prog.fen")
	require.NoError(t, os.WriteFile(path, []byte(`print 1 + 2;`), 0o644))

	var out, errOut bytes.Buffer
	c := &Cmd{}
	code := c.run(path, stdio(&out, &errOut))

	assert.Equal(t, mainer.Success, code)
	assert.Equal(t, "3\n", out.String())
	assert.Empty(t, errOut.String())
}

func TestRunOnMissingFileReturns74(t *testing.T) {
	var out, errOut bytes.Buffer
	c := &Cmd{}
	code := c.run(filepath.Join(t.TempDir(), "missing.fen"), stdio(&out, &errOut))

	assert.Equal(t, mainer.ExitCode(74), code)
	assert.NotEmpty(t, errOut.String())
}

func TestRunOnRuntimeErrorReturnsSuccessWithDiagnostic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.fen")
	require.NoError(t, os.WriteFile(path, []byte(`print 1 == "1";`), 0o644))

	var out, errOut bytes.Buffer
	c := &Cmd{}
	code := c.run(path, stdio(&out, &errOut))

	assert.Equal(t, mainer.Success, code)
	assert.Contains(t, out.String(), "Runtime Error.")
	assert.NotEmpty(t, errOut.String())
}

func TestRunWithDisassembleFlagPrintsListing(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prog.fen")
	require.NoError(t, os.WriteFile(path, []byte(`print 1;`), 0o644))

	var out, errOut bytes.Buffer
	c := &Cmd{Disassemble: true}
	code := c.run(path, stdio(&out, &errOut))

	assert.Equal(t, mainer.Success, code)
	assert.Contains(t, out.String(), "OP_CONSTANT")
}
