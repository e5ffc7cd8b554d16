package main

import (
	"os"

	"github.com/mna/fen/internal/maincmd"
)

var (
	// placeholder values, replaced on build
	version   = "{v}" // must be N.N[.N]
	buildDate = "{d}" // must be YYYY-mm-DD
)

func main() {
	os.Exit(maincmd.Run(version, buildDate))
}
