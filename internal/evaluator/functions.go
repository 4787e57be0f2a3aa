package evaluator

import (
	"github.com/jsrun/jsengine/internal/js_ast"
	"github.com/jsrun/jsengine/internal/runtime"
	"github.com/jsrun/jsengine/internal/value"
)

// makeFunction builds a callable object from a function declaration or
// expression's Fn, closing over closureEnv (spec's OrdinaryFunctionCreate).
// Generator and async functions get their own Call strategy; everything
// else gets the ordinary ([[Call]], [[Construct]], .prototype) trio.
func (it *Interpreter) makeFunction(fn js_ast.Fn, closureEnv *runtime.Environment, name string) *value.Object {
	fnObj := value.NewObject(it.Realm.Intrinsic("Function.prototype"))
	fnObj.SetClass("Function")
	fnObj.Exotic = value.ExoticFunction
	fnObj.DefineOwnProperty("name", value.DataProperty(value.StringFromGo(name), false, false, true))
	fnObj.DefineOwnProperty("length", value.DataProperty(value.Number(float64(expectedArgCount(fn.Args, fn.HasRestArg))), false, false, true))

	switch {
	case fn.IsGenerator:
		fnObj.Call = it.makeGeneratorCall(fn, closureEnv, fnObj)
	case fn.IsAsync:
		fnObj.Call = it.makeAsyncCall(fn, closureEnv, fnObj)
	default:
		fnObj.Call = it.makeOrdinaryCall(fn, closureEnv, fnObj)
		fnObj.Construct = it.makeOrdinaryConstruct(fn, closureEnv, fnObj)
		proto := it.Realm.NewObject()
		proto.DefineOwnProperty("constructor", value.DataProperty(value.FromObject(fnObj), true, false, true))
		fnObj.DefineOwnProperty("prototype", value.DataProperty(value.FromObject(proto), true, false, false))
	}
	return fnObj
}

func (it *Interpreter) makeArrow(d *js_ast.EArrow, closureEnv *runtime.Environment) *value.Object {
	fnObj := value.NewObject(it.Realm.Intrinsic("Function.prototype"))
	fnObj.SetClass("Function")
	fnObj.Exotic = value.ExoticFunction
	fnObj.DefineOwnProperty("name", value.DataProperty(value.StringFromGo(""), false, false, true))
	fnObj.DefineOwnProperty("length", value.DataProperty(value.Number(float64(expectedArgCount(d.Args, false))), false, false, true))

	fnObj.Call = func(thisVal value.Value, args []value.Value) (value.Value, *value.Completion) {
		arrowEnv := runtime.NewDeclarativeEnvironment(closureEnv)
		if c := it.bindParams(d.Args, nil, false, arrowEnv, args); c != nil {
			return value.Value{}, c
		}
		if d.IsAsync {
			return it.runArrowBody(d, arrowEnv)
		}
		return it.runArrowBody(d, arrowEnv)
	}
	return fnObj
}

func (it *Interpreter) runArrowBody(d *js_ast.EArrow, env *runtime.Environment) (value.Value, *value.Completion) {
	it.hoistVarsAndFunctions(d.Body, env, true)
	it.hoistLexical(d.Body, env)
	for _, s := range d.Body {
		if c := it.execStmt(s, env); c != nil {
			if c.Kind == value.CompletionReturn {
				return c.Value, nil
			}
			if c.Kind == value.CompletionThrow {
				return value.Value{}, c
			}
			return value.Undefined(), nil
		}
	}
	return value.Undefined(), nil
}

func expectedArgCount(params []js_ast.Binding, hasRest bool) int {
	n := 0
	for i, p := range params {
		if hasRest && i == len(params)-1 {
			break
		}
		if p.DefaultOrNil.Data != nil {
			break
		}
		n++
	}
	return n
}

// bindParams implements spec's FunctionDeclarationInstantiation's parameter
// binding: each param gets a fresh mutable binding in env, initialized from
// the matching argument (or its default, or undefined), with the final
// param absorbing the rest of the arguments when hasRest is set.
func (it *Interpreter) bindParams(params []js_ast.Binding, defaults []js_ast.Expr, hasRest bool, env *runtime.Environment, args []value.Value) *value.Completion {
	for i, param := range params {
		for _, name := range bindingNames(param) {
			env.CreateMutableBinding(name, false)
		}
		if hasRest && i == len(params)-1 {
			var rest []value.Value
			if i < len(args) {
				rest = args[i:]
			}
			if c := it.bindPattern(param, it.newArray(rest), env, true); c != nil {
				return c
			}
			continue
		}
		var v value.Value
		if i < len(args) {
			v = args[i]
		} else {
			v = value.Undefined()
		}
		if v.IsUndefined() && i < len(defaults) && defaults[i].Data != nil {
			dv, c := it.evalExpr(defaults[i], env)
			if c != nil {
				return c
			}
			v = dv
		}
		if c := it.bindPattern(param, v, env, true); c != nil {
			return c
		}
	}
	return nil
}

// bindArgumentsObject creates the `arguments` exotic object for an ordinary
// (non-arrow) function call, unless a parameter already claimed that name.
func (it *Interpreter) bindArgumentsObject(fn js_ast.Fn, env *runtime.Environment, args []value.Value) {
	if env.HasBinding("arguments") {
		return
	}
	argsObj := it.Realm.NewObject()
	argsObj.SetClass("Arguments")
	argsObj.Exotic = value.ExoticArguments
	for i, a := range args {
		argsObj.DefineOwnProperty(uint32ToStringLocal(uint32(i)), value.DataProperty(a, true, true, true))
	}
	argsObj.DefineOwnProperty("length", value.DataProperty(value.Number(float64(len(args))), true, false, true))
	env.CreateMutableBinding("arguments", false)
	env.InitializeBinding("arguments", value.FromObject(argsObj))
}

func (it *Interpreter) runFunctionBody(fn js_ast.Fn, env *runtime.Environment) (value.Value, *value.Completion) {
	it.hoistVarsAndFunctions(fn.Body, env, true)
	it.hoistLexical(fn.Body, env)
	for _, s := range fn.Body {
		if c := it.execStmt(s, env); c != nil {
			if c.Kind == value.CompletionReturn {
				return c.Value, nil
			}
			if c.Kind == value.CompletionThrow {
				return value.Value{}, c
			}
			return value.Undefined(), nil
		}
	}
	return value.Undefined(), nil
}

func (it *Interpreter) makeOrdinaryCall(fn js_ast.Fn, closureEnv *runtime.Environment, fnObj *value.Object) value.CallFunc {
	return func(thisVal value.Value, args []value.Value) (value.Value, *value.Completion) {
		funcEnv := runtime.NewFunctionEnvironment(closureEnv, fnObj)
		funcEnv.HasThis = true
		funcEnv.ThisValue = thisVal
		funcEnv.HomeObject = fnObj.HomeObject
		if c := it.bindParams(fn.Args, fn.Defaults, fn.HasRestArg, funcEnv, args); c != nil {
			return value.Value{}, c
		}
		it.bindArgumentsObject(fn, funcEnv, args)
		return it.runFunctionBody(fn, funcEnv)
	}
}

func (it *Interpreter) makeOrdinaryConstruct(fn js_ast.Fn, closureEnv *runtime.Environment, fnObj *value.Object) value.ConstructFunc {
	return func(args []value.Value, newTarget *value.Object) (value.Value, *value.Completion) {
		protoVal, c := it.getProperty(value.FromObject(newTarget), "prototype")
		if c != nil {
			return value.Value{}, c
		}
		proto := protoVal.Obj
		if !protoVal.IsObject() {
			proto = it.Realm.Intrinsic("Object.prototype")
		}
		instance := value.NewObject(proto)

		funcEnv := runtime.NewFunctionEnvironment(closureEnv, fnObj)
		funcEnv.HasThis = true
		funcEnv.ThisValue = value.FromObject(instance)
		funcEnv.NewTarget = newTarget
		funcEnv.HomeObject = fnObj.HomeObject
		if c := it.bindParams(fn.Args, fn.Defaults, fn.HasRestArg, funcEnv, args); c != nil {
			return value.Value{}, c
		}
		it.bindArgumentsObject(fn, funcEnv, args)

		result, c := it.runFunctionBody(fn, funcEnv)
		if c != nil {
			return value.Value{}, c
		}
		if result.IsObject() {
			return result, nil
		}
		return value.FromObject(instance), nil
	}
}

func (it *Interpreter) makeAsyncCall(fn js_ast.Fn, closureEnv *runtime.Environment, fnObj *value.Object) value.CallFunc {
	return func(thisVal value.Value, args []value.Value) (value.Value, *value.Completion) {
		promise := it.newPromiseObject()
		funcEnv := runtime.NewFunctionEnvironment(closureEnv, fnObj)
		funcEnv.HasThis = true
		funcEnv.ThisValue = thisVal
		funcEnv.HomeObject = fnObj.HomeObject
		if c := it.bindParams(fn.Args, fn.Defaults, fn.HasRestArg, funcEnv, args); c != nil {
			it.rejectPromise(promise, c.Value)
			return value.FromObject(promise), nil
		}
		it.bindArgumentsObject(fn, funcEnv, args)
		result, c := it.runFunctionBody(fn, funcEnv)
		if c != nil {
			it.rejectPromise(promise, c.Value)
		} else {
			it.resolvePromise(promise, result)
		}
		return value.FromObject(promise), nil
	}
}
