// Package grammar holds fen's grammar as an EBNF document, verified with
// golang.org/x/exp/ebnf: every production it references must be defined and
// reachable from Program. The check covers the grammar file alone; it does
// not compare it with the parser in lang/compiler.
package grammar

import (
	"os"
	"testing"

	"golang.org/x/exp/ebnf"
)

func TestGrammarIsWellFormed(t *testing.T) {
	f, err := os.Open("grammar.ebnf")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	g, err := ebnf.Parse("grammar.ebnf", f)
	if err != nil {
		t.Fatal(err)
	}
	if err := ebnf.Verify(g, "Program"); err != nil {
		t.Fatal(err)
	}
}
