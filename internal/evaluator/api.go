package evaluator

import (
	"github.com/dlclark/regexp2"

	"github.com/jsrun/jsengine/internal/js_ast"
	"github.com/jsrun/jsengine/internal/runtime"
	"github.com/jsrun/jsengine/internal/value"
)

// This file is internal/evaluator's public API surface for internal/builtins
// (and any other future host package): thin exported aliases over the
// abstract operations every prototype method needs (property access, type
// conversion, calling, iteration, promise plumbing), so a built-in's native
// Go function body reads the same way a spec abstract-operation algorithm
// does instead of re-deriving ToString/ToNumber/GetProperty from scratch.

func (it *Interpreter) GetProperty(receiver value.Value, key string) (value.Value, *value.Completion) {
	return it.getProperty(receiver, key)
}

func (it *Interpreter) GetPropertySymbol(receiver value.Value, sym *value.Symbol) (value.Value, *value.Completion) {
	return it.getPropertySymbol(receiver, sym)
}

func (it *Interpreter) SetProperty(receiver value.Value, key string, v value.Value) *value.Completion {
	return it.setProperty(receiver, key, v)
}

func (it *Interpreter) HasProperty(obj *value.Object, key string) (bool, *value.Completion) {
	return it.hasProperty(obj, key)
}

func (it *Interpreter) ToStringValue(v value.Value) ([]uint16, *value.Completion) {
	return it.toStringValue(v)
}

func (it *Interpreter) ToNumberValue(v value.Value) (float64, *value.Completion) {
	return it.toNumberValue(v)
}

func (it *Interpreter) ToPrimitive(v value.Value, hint string) (value.Value, *value.Completion) {
	return it.toPrimitive(v, hint)
}

func (it *Interpreter) InstanceOf(left, right value.Value) (value.Value, *value.Completion) {
	return it.instanceOf(left, right)
}

func (it *Interpreter) LooseEquals(left, right value.Value) (bool, *value.Completion) {
	return it.looseEquals(left, right)
}

func (it *Interpreter) IterableToSlice(v value.Value) ([]value.Value, *value.Completion) {
	return it.iterableToSlice(v)
}

func (it *Interpreter) NewArray(items []value.Value) value.Value {
	return it.newArray(items)
}

func (it *Interpreter) RestObject(v value.Value, exclude []string) value.Value {
	return it.restObject(v, exclude)
}

func (it *Interpreter) NativeFunc(fn value.CallFunc) value.Value {
	return it.nativeFunc(fn)
}

func (it *Interpreter) NewPromiseObject() *value.Object {
	return it.newPromiseObject()
}

func (it *Interpreter) ResolvePromise(p *value.Object, resolution value.Value) {
	it.resolvePromise(p, resolution)
}

func (it *Interpreter) RejectPromise(p *value.Object, reason value.Value) {
	it.rejectPromise(p, reason)
}

func (it *Interpreter) PromiseThen(p *value.Object, onFulfilled, onRejected value.Value) *value.Object {
	return it.promiseThen(p, onFulfilled, onRejected)
}

func (it *Interpreter) PromiseResolveValue(v value.Value) *value.Object {
	return it.promiseResolveValue(v)
}

func (it *Interpreter) AwaitValue(v value.Value) (value.Value, *value.Completion) {
	return it.awaitValue(v)
}

func (it *Interpreter) MakeRegExp(pattern, flags string) value.Value {
	return it.makeRegExp(pattern, flags)
}

func (it *Interpreter) ExecRegExp(obj *value.Object, s string, fromIndex int) (*regexp2.Match, error) {
	return it.execRegExp(obj, s, fromIndex)
}

// CallFunction invokes a callable value with thisVal/args, surfacing a
// TypeError completion if v isn't callable — the shape every built-in that
// accepts a callback argument (Array.prototype.map, Promise.prototype.then,
// ...) needs.
func (it *Interpreter) CallFunction(v value.Value, thisVal value.Value, args []value.Value) (value.Value, *value.Completion) {
	if !v.IsCallable() {
		return value.Value{}, it.Realm.ThrowTypeError("value is not a function")
	}
	return v.Obj.Call(thisVal, args)
}

// ToObject implements the ToObject abstract operation (spec §4.4): wraps a
// primitive in the matching exotic wrapper object, or returns an object
// unchanged. Built-ins call this wherever a method is spec'd to coerce a
// possibly-primitive `this` before operating on it (Object.prototype.*,
// Array.prototype.* called with a non-array receiver, etc).
func (it *Interpreter) ToObject(v value.Value) (*value.Object, *value.Completion) {
	switch v.Kind {
	case value.KindUndefined, value.KindNull:
		return nil, it.Realm.ThrowTypeError("Cannot convert undefined or null to object")
	case value.KindObject:
		return v.Obj, nil
	case value.KindBoolean:
		obj := value.NewObject(it.Realm.Intrinsic("Boolean.prototype"))
		obj.SetClass("Boolean")
		obj.PrimitiveData = v
		return obj, nil
	case value.KindNumber:
		obj := value.NewObject(it.Realm.Intrinsic("Number.prototype"))
		obj.SetClass("Number")
		obj.PrimitiveData = v
		return obj, nil
	case value.KindString:
		obj := value.NewObject(it.Realm.Intrinsic("String.prototype"))
		obj.SetClass("String")
		obj.Exotic = value.ExoticStringWrapper
		obj.PrimitiveData = v
		obj.ArrayLength = uint32(len(v.Str))
		return obj, nil
	case value.KindSymbol:
		obj := value.NewObject(it.Realm.Intrinsic("Symbol.prototype"))
		obj.SetClass("Symbol")
		obj.PrimitiveData = v
		return obj, nil
	case value.KindBigInt:
		obj := value.NewObject(it.Realm.Intrinsic("BigInt.prototype"))
		obj.SetClass("BigInt")
		obj.PrimitiveData = v
		return obj, nil
	}
	return nil, it.Realm.ThrowTypeError("cannot convert to object")
}

// ToObjectValue is ToObject wrapped back up as a Value, for built-ins that
// return the coerced receiver directly (Object(), Object.prototype.valueOf).
func (it *Interpreter) ToObjectValue(v value.Value) (value.Value, *value.Completion) {
	obj, c := it.ToObject(v)
	if c != nil {
		return value.Value{}, c
	}
	return value.FromObject(obj), nil
}

// EvalExpr exposes the expression evaluator directly so a host (pkg/engine,
// whose result cmd/jsrun's REPL prints) can evaluate a script's trailing expression statement for its value
// the way a REPL's "last expression printed" convention needs — ordinary
// statement execution only surfaces abrupt completions, per execStmt's
// doc comment, so a normal completion's value has to be captured this way.
func (it *Interpreter) EvalExpr(e js_ast.Expr, env *runtime.Environment) (value.Value, *value.Completion) {
	return it.evalExpr(e, env)
}

// NewEnvironment exposes runtime.NewDeclarativeEnvironment so a builtin that
// needs a private scratch environment (e.g. to run a user callback with
// extra bookkeeping) doesn't need to import internal/runtime just for this
// one constructor — kept here instead since every other environment
// constructor already is runtime's own exported API.
func (it *Interpreter) NewEnvironment() *runtime.Environment {
	return runtime.NewDeclarativeEnvironment(it.Realm.GlobalEnv)
}
