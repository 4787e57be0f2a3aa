// Command jsrun is the engine's command-line front end: run a script or
// module file, evaluate a string, or drop into a REPL. Like esbuild's own
// cmd/esbuild, the real work lives in a library package (pkg/engine) --
// this binary is just argument parsing and exit-code plumbing.
package main

import (
	"os"

	"github.com/jsrun/jsengine/cmd/jsrun/cmd"
	"github.com/jsrun/jsengine/internal/exitcode"
)

func main() {
	err := cmd.Execute()
	os.Exit(exitcode.Get(err))
}
