package engine_test

import (
	"bytes"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsrun/jsengine/internal/helpers"
	"github.com/jsrun/jsengine/internal/value"
	"github.com/jsrun/jsengine/pkg/engine"
)

func TestEvaluateScriptReturnsTrailingExpressionValue(t *testing.T) {
	eng := engine.New(engine.Options{})

	result, err := eng.EvaluateScript(`
		let x = 1;
		let y = 2;
		x + y;
	`, "<test>")
	require.NoError(t, err)
	require.Nil(t, result.Exception)
	assert.Equal(t, value.KindNumber, result.Value.Kind)
	assert.Equal(t, 3.0, result.Value.Num)
}

func TestEvaluateScriptDiscardsValueWhenLastStatementIsNotAnExpression(t *testing.T) {
	eng := engine.New(engine.Options{})

	result, err := eng.EvaluateScript(`let x = 41; x = x + 1;`, "<test>")
	require.NoError(t, err)
	require.Nil(t, result.Exception)
	assert.Equal(t, value.KindNumber, result.Value.Kind)
	assert.Equal(t, 42.0, result.Value.Num)
}

func TestEvaluateScriptSurfacesUncaughtException(t *testing.T) {
	eng := engine.New(engine.Options{})

	result, err := eng.EvaluateScript(`throw new TypeError("nope");`, "<test>")
	require.NoError(t, err)
	require.NotNil(t, result.Exception)
	assert.Equal(t, value.CompletionThrow, result.Exception.Kind)
}

func TestEvaluateScriptSyntaxErrorIsAGoError(t *testing.T) {
	eng := engine.New(engine.Options{})

	_, err := eng.EvaluateScript(`let = ;`, "<test>")
	require.Error(t, err)
}

func TestEvaluateScriptDrainsTimersAndMicrotasks(t *testing.T) {
	eng := engine.New(engine.Options{})

	result, err := eng.EvaluateScript(`
		globalThis.__order = [];
		setTimeout(() => { __order.push("timeout"); }, 0);
		Promise.resolve().then(() => { __order.push("microtask"); });
		__order.push("sync");
		__order;
	`, "<test>")
	require.NoError(t, err)
	require.Nil(t, result.Exception)

	arr := result.Value
	require.Equal(t, value.KindObject, arr.Kind)
	require.Equal(t, uint32(3), arr.Obj.ArrayLength)

	var got []string
	for i := uint32(0); i < arr.Obj.ArrayLength; i++ {
		d, ok := arr.Obj.GetOwnProperty(strconv.Itoa(int(i)))
		require.True(t, ok)
		got = append(got, helpers.UTF16ToString(d.Value.Str))
	}
	// Microtasks always drain before timers in a single event-loop pass.
	assert.Equal(t, []string{"sync", "microtask", "timeout"}, got)
}

func TestConsoleLogWritesToConfiguredWriter(t *testing.T) {
	var buf bytes.Buffer
	eng := engine.New(engine.Options{ConsoleWritesTo: &buf})

	_, err := eng.EvaluateScript(`console.log("hello", 1, true);`, "<test>")
	require.NoError(t, err)
	assert.Equal(t, "hello 1 true\n", buf.String())
}

func TestTwoEnginesAreIsolatedRealms(t *testing.T) {
	a := engine.New(engine.Options{})
	b := engine.New(engine.Options{})

	_, err := a.EvaluateScript(`globalThis.leaked = 1;`, "<a>")
	require.NoError(t, err)

	result, err := b.EvaluateScript(`typeof globalThis.leaked;`, "<b>")
	require.NoError(t, err)
	require.Nil(t, result.Exception)
	assert.Equal(t, "undefined", helpers.UTF16ToString(result.Value.Str))
}
