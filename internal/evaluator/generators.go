package evaluator

import (
	"github.com/jsrun/jsengine/internal/js_ast"
	"github.com/jsrun/jsengine/internal/runtime"
	"github.com/jsrun/jsengine/internal/value"
)

// generatorState is the handshake channel pair between a generator's body
// goroutine and whatever calls .next()/.return()/.throw() on it. The two
// sides strictly ping-pong — exactly one side is ever runnable — so despite
// being literal goroutines this is cooperative coroutine scheduling, not
// concurrent access to shared state.
type generatorState struct {
	resumeCh chan resumeMsg
	yieldCh  chan yieldMsg
	done     bool
	started  bool
}

type resumeMsg struct {
	kind  string // "next", "return", "throw"
	value value.Value
}

type yieldMsg struct {
	kind       string // "yield", "return", "throw"
	value      value.Value
	completion *value.Completion
}

func (it *Interpreter) makeGeneratorCall(fn js_ast.Fn, closureEnv *runtime.Environment, fnObj *value.Object) value.CallFunc {
	return func(thisVal value.Value, args []value.Value) (value.Value, *value.Completion) {
		state := &generatorState{resumeCh: make(chan resumeMsg), yieldCh: make(chan yieldMsg)}
		genObj := value.NewObject(it.Realm.Intrinsic("Generator.prototype"))
		genObj.SetClass("Generator")
		it.attachGeneratorMethods(genObj, state)

		funcEnv := runtime.NewFunctionEnvironment(closureEnv, fnObj)
		funcEnv.HasThis = true
		funcEnv.ThisValue = thisVal
		funcEnv.HomeObject = fnObj.HomeObject
		if c := it.bindParams(fn.Args, fn.Defaults, fn.HasRestArg, funcEnv, args); c != nil {
			return value.Value{}, c
		}
		it.bindArgumentsObject(fn, funcEnv, args)
		funcEnv.YieldFunc = func(v value.Value, isDelegate bool) (value.Value, *value.Completion) {
			return it.doYield(state, v, isDelegate)
		}

		go func() {
			msg := <-state.resumeCh
			switch msg.kind {
			case "return":
				state.yieldCh <- yieldMsg{kind: "return", value: msg.value}
				return
			case "throw":
				state.yieldCh <- yieldMsg{kind: "throw", completion: value.Throw(msg.value)}
				return
			}
			result, c := it.runFunctionBody(fn, funcEnv)
			if c != nil {
				state.yieldCh <- yieldMsg{kind: "throw", completion: c}
				return
			}
			state.yieldCh <- yieldMsg{kind: "return", value: result}
		}()

		return value.FromObject(genObj), nil
	}
}

func (it *Interpreter) evalYield(d *js_ast.EYield, env *runtime.Environment) (value.Value, *value.Completion) {
	yieldFn := yieldFuncOf(env)
	if yieldFn == nil {
		return value.Value{}, it.Realm.ThrowSyntaxError("yield is only valid inside a generator")
	}
	v := value.Undefined()
	if d.ValueOrNil.Data != nil {
		var c *value.Completion
		v, c = it.evalExpr(d.ValueOrNil, env)
		if c != nil {
			return value.Value{}, c
		}
	}
	return yieldFn(v, d.IsStar)
}

func yieldFuncOf(env *runtime.Environment) func(value.Value, bool) (value.Value, *value.Completion) {
	for e := env; e != nil; e = e.Outer {
		if e.Kind == runtime.EnvFunction && e.YieldFunc != nil {
			return e.YieldFunc
		}
	}
	return nil
}

// doYield hands a value to whichever .next/.return/.throw call is waiting
// and blocks until the generator is resumed again. yield* delegation is
// simplified to eagerly materializing the inner iterable and re-yielding
// each item in turn — it does not forward .throw()/.return() into the inner
// iterator the way a fully spec-compliant delegation would.
func (it *Interpreter) doYield(state *generatorState, v value.Value, isDelegate bool) (value.Value, *value.Completion) {
	if isDelegate {
		items, c := it.iterableToSlice(v)
		if c != nil {
			return value.Value{}, c
		}
		last := value.Undefined()
		for _, item := range items {
			r, c := it.doYield(state, item, false)
			if c != nil {
				return value.Value{}, c
			}
			last = r
		}
		return last, nil
	}

	state.yieldCh <- yieldMsg{kind: "yield", value: v}
	msg := <-state.resumeCh
	switch msg.kind {
	case "return":
		return value.Value{}, value.Return(msg.value)
	case "throw":
		return value.Value{}, value.Throw(msg.value)
	default:
		return msg.value, nil
	}
}

func (it *Interpreter) attachGeneratorMethods(genObj *value.Object, state *generatorState) {
	genObj.DefineOwnProperty("next", value.DataProperty(it.nativeFunc(func(_ value.Value, args []value.Value) (value.Value, *value.Completion) {
		return it.sendToGenerator(state, "next", argOrUndefined(args, 0))
	}), true, false, true))
	genObj.DefineOwnProperty("return", value.DataProperty(it.nativeFunc(func(_ value.Value, args []value.Value) (value.Value, *value.Completion) {
		return it.sendToGenerator(state, "return", argOrUndefined(args, 0))
	}), true, false, true))
	genObj.DefineOwnProperty("throw", value.DataProperty(it.nativeFunc(func(_ value.Value, args []value.Value) (value.Value, *value.Completion) {
		return it.sendToGenerator(state, "throw", argOrUndefined(args, 0))
	}), true, false, true))
	if sym := it.Realm.WellKnownSymbols["iterator"]; sym != nil {
		genObj.DefineOwnPropertySymbol(sym, value.DataProperty(it.nativeFunc(func(thisVal value.Value, args []value.Value) (value.Value, *value.Completion) {
			return thisVal, nil
		}), true, false, true))
	}
}

func (it *Interpreter) sendToGenerator(state *generatorState, kind string, v value.Value) (value.Value, *value.Completion) {
	if state.done {
		if kind == "throw" {
			return value.Value{}, value.Throw(v)
		}
		return it.iterResult(value.Undefined(), true), nil
	}
	state.started = true
	state.resumeCh <- resumeMsg{kind: kind, value: v}
	msg := <-state.yieldCh
	switch msg.kind {
	case "yield":
		return it.iterResult(msg.value, false), nil
	case "return":
		state.done = true
		return it.iterResult(msg.value, true), nil
	default:
		state.done = true
		return value.Value{}, msg.completion
	}
}

func (it *Interpreter) iterResult(v value.Value, done bool) value.Value {
	obj := it.Realm.NewObject()
	obj.DefineOwnProperty("value", value.DataProperty(v, true, true, true))
	obj.DefineOwnProperty("done", value.DataProperty(value.Bool(done), true, true, true))
	return value.FromObject(obj)
}
