package cmd

import (
	"github.com/spf13/cobra"

	"github.com/jsrun/jsengine/internal/exitcode"
	"github.com/jsrun/jsengine/pkg/engine"
)

func newRunCommand() *cobra.Command {
	var asModule bool

	c := &cobra.Command{
		Use:   "run <file>",
		Short: "run a script or module file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			setupLogging()
			return runFile(args[0], asModule)
		},
	}
	c.Flags().BoolVar(&asModule, "module", false, "evaluate the entry point as a module (import/export) instead of a script")
	return c
}

func runFile(path string, asModule bool) error {
	eng := engine.New(engine.Options{Capabilities: capabilitiesFromFlags()})

	if asModule {
		log.WithField("file", path).Debug("evaluating as module")
		if err := eng.EvaluateModule(path); err != nil {
			return exitcode.Set(err, 1)
		}
		return nil
	}

	log.WithField("file", path).Debug("evaluating as script")
	result, err := eng.RunScriptFile(path)
	if err != nil {
		return exitcode.Set(err, 1)
	}
	if result.Exception != nil {
		return exitcode.Set(exitError("uncaught exception: %s", describeException(result.Exception)), 1)
	}
	return nil
}

func evalAndPrint(source, name string, asModule bool) error {
	eng := engine.New(engine.Options{Capabilities: capabilitiesFromFlags()})

	if asModule {
		return exitError("--module is not supported together with -e")
	}

	result, err := eng.EvaluateScript(source, name)
	if err != nil {
		return exitcode.Set(err, 1)
	}
	if result.Exception != nil {
		return exitcode.Set(exitError("uncaught exception: %s", describeException(result.Exception)), 1)
	}
	return nil
}
