// Package cmd is jsrun's command tree, built on cobra the way
// grafana-k6/cmd/root.go wires k6's: a root command carrying shared
// persistent flags plus a small set of subcommands, with logrus as the
// process-level logger. None of this package is imported by pkg/engine --
// engine-internal logging never touches logrus, only this host layer does.
package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/jsrun/jsengine/internal/config"
)

var log = logrus.New()

// globalFlags are persistent flags shared by every subcommand.
type globalFlags struct {
	verbose bool
	quiet   bool
}

var flags globalFlags

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "jsrun [file]",
		Short:         "jsrun runs ECMAScript source files, strings, or an interactive REPL",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.MaximumNArgs(1),
		RunE:          runRootCommand,
	}

	root.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "enable debug-level logging")
	root.PersistentFlags().BoolVarP(&flags.quiet, "quiet", "q", false, "suppress non-error logging")

	root.Flags().StringP("eval", "e", "", "evaluate the given source string instead of reading a file")
	root.Flags().Bool("module", false, "evaluate the entry point as a module (import/export) instead of a script")

	root.AddCommand(newRunCommand())
	root.AddCommand(newReplCommand())

	return root
}

// Execute builds the command tree and runs it against os.Args, returning any
// error for main to translate into a process exit code via internal/exitcode.
func Execute() error {
	root := newRootCommand()
	root.SetOut(os.Stdout)
	root.SetErr(os.Stderr)
	return root.Execute()
}

func setupLogging() {
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	switch {
	case flags.quiet:
		log.SetLevel(logrus.ErrorLevel)
	case flags.verbose:
		log.SetLevel(logrus.DebugLevel)
	default:
		log.SetLevel(logrus.InfoLevel)
	}
}

func runRootCommand(cmd *cobra.Command, args []string) error {
	setupLogging()

	evalSrc, _ := cmd.Flags().GetString("eval")
	asModule, _ := cmd.Flags().GetBool("module")

	switch {
	case evalSrc != "":
		return evalAndPrint(evalSrc, "<eval>", asModule)
	case len(args) == 1:
		return runFile(args[0], asModule)
	default:
		return runRepl()
	}
}

func capabilitiesFromFlags() config.Capabilities {
	// jsrun ships the stable baseline; proposal-stage surface is opt-in at
	// the pkg/engine.Options level for an embedding host, not from the CLI.
	return config.DefaultCapabilities()
}

func exitError(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}
