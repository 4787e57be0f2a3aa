package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsrun/jsengine/internal/exitcode"
)

func TestEvalFlagRunsSourceString(t *testing.T) {
	root := newRootCommand()
	root.SetArgs([]string{"-e", "1 + 1"})
	err := root.Execute()
	require.NoError(t, err)
}

func TestEvalFlagSurfacesUncaughtException(t *testing.T) {
	root := newRootCommand()
	root.SetArgs([]string{"-e", "throw new Error('boom')"})
	err := root.Execute()
	require.Error(t, err)
	assert.Equal(t, 1, exitcode.Get(err))
}

func TestEvalFlagRejectsModuleFlag(t *testing.T) {
	root := newRootCommand()
	root.SetArgs([]string{"-e", "1", "--module"})
	err := root.Execute()
	require.Error(t, err)
}

func TestRunCommandMissingFileReturnsError(t *testing.T) {
	root := newRootCommand()
	root.SetArgs([]string{"run", "/nonexistent/does-not-exist.js"})
	err := root.Execute()
	require.Error(t, err)
	assert.Equal(t, 1, exitcode.Get(err))
}

func TestRootCommandRejectsMoreThanOnePositionalArg(t *testing.T) {
	root := newRootCommand()
	root.SetArgs([]string{"a.js", "b.js"})
	err := root.Execute()
	require.Error(t, err)
}
