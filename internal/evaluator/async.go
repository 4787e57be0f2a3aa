package evaluator

import (
	"github.com/jsrun/jsengine/internal/helpers"
	"github.com/jsrun/jsengine/internal/js_ast"
	"github.com/jsrun/jsengine/internal/runtime"
	"github.com/jsrun/jsengine/internal/value"
)

func (it *Interpreter) evalAwait(d *js_ast.EAwait, env *runtime.Environment) (value.Value, *value.Completion) {
	v, c := it.evalExpr(d.Value, env)
	if c != nil {
		return value.Value{}, c
	}
	return it.awaitValue(v)
}

// evalDynamicImport implements spec's import() expression, returning a
// promise that the module loader settles once the requested module's link
// and evaluate phases complete.
func (it *Interpreter) evalDynamicImport(d *js_ast.EImportCall, env *runtime.Environment) (value.Value, *value.Completion) {
	specifierVal, c := it.evalExpr(d.Expr, env)
	if c != nil {
		return value.Value{}, c
	}
	specifier, c := it.toStringValue(specifierVal)
	if c != nil {
		return value.Value{}, c
	}
	promise := it.newPromiseObject()
	if it.ImportModule == nil {
		it.rejectPromise(promise, value.FromObject(it.Realm.NewError("TypeError", "dynamic import is not supported in this host")))
		return value.FromObject(promise), nil
	}
	spec := helpers.UTF16ToString(specifier)
	it.Loop.QueueMicrotask(func() {
		ns, err := it.ImportModule(spec)
		if err != nil {
			it.rejectPromise(promise, value.FromObject(it.Realm.NewError("Error", err.Error())))
			return
		}
		it.resolvePromise(promise, ns)
	})
	return value.FromObject(promise), nil
}
