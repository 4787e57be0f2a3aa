package module_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsrun/jsengine/internal/helpers"
	"github.com/jsrun/jsengine/pkg/engine"
)

func writeFile(t *testing.T, dir, name, contents string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestEvaluateModuleResolvesRelativeImports(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "lib.js", `export const answer = 42; export default "hi";`)
	entry := writeFile(t, dir, "main.js", `
		import greeting, { answer } from "./lib.js";
		globalThis.__result = greeting + ":" + answer;
	`)

	eng := engine.New(engine.Options{})
	err := eng.EvaluateModule(entry)
	require.NoError(t, err)

	result, err := eng.EvaluateScript(`globalThis.__result;`, "<check>")
	require.NoError(t, err)
	require.Nil(t, result.Exception)
	assert.Equal(t, "hi:42", helpers.UTF16ToString(result.Value.Str))
}

func TestEvaluateModuleSurfacesUncaughtException(t *testing.T) {
	dir := t.TempDir()
	entry := writeFile(t, dir, "main.js", `throw new Error("module failure");`)

	eng := engine.New(engine.Options{})
	err := eng.EvaluateModule(entry)
	require.Error(t, err)
}

func TestEvaluateModuleMissingFileIsAnError(t *testing.T) {
	eng := engine.New(engine.Options{})
	err := eng.EvaluateModule(filepath.Join(t.TempDir(), "does-not-exist.js"))
	require.Error(t, err)
}
