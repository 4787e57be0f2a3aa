package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/jsrun/jsengine/internal/builtins"
	"github.com/jsrun/jsengine/internal/value"
	"github.com/jsrun/jsengine/pkg/engine"
)

func newReplCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "start an interactive read-eval-print loop",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			setupLogging()
			return runRepl()
		},
	}
}

// runRepl evaluates one line of input at a time against a single shared
// Engine -- each line is its own Script evaluated against the same global
// environment and event loop, so a `var`/`let`/`function` declared on one
// line is visible on the next, the way Node's REPL behaves.
func runRepl() error {
	eng := engine.New(engine.Options{Capabilities: capabilitiesFromFlags()})

	scanner := bufio.NewScanner(os.Stdin)
	fmt.Fprint(os.Stdout, "> ")
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			fmt.Fprint(os.Stdout, "> ")
			continue
		}

		result, err := eng.EvaluateScript(line, "<repl>")
		switch {
		case err != nil:
			fmt.Fprintln(os.Stderr, err)
		case result.Exception != nil:
			fmt.Fprintln(os.Stderr, "Uncaught "+describeException(result.Exception))
		case result.Value.Kind != value.KindUndefined:
			fmt.Fprintln(os.Stdout, builtins.Inspect(result.Value))
		}

		fmt.Fprint(os.Stdout, "> ")
	}
	fmt.Fprintln(os.Stdout)
	if err := scanner.Err(); err != nil && err != io.EOF {
		return err
	}
	return nil
}

func describeException(c *value.Completion) string {
	return builtins.Inspect(c.Value)
}
