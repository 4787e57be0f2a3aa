package evaluator

import (
	"github.com/jsrun/jsengine/internal/helpers"
	"github.com/jsrun/jsengine/internal/js_ast"
	"github.com/jsrun/jsengine/internal/runtime"
	"github.com/jsrun/jsengine/internal/value"
)

// evalCall implements spec's EvaluateCall: a member-expression callee is
// evaluated exactly once so its target's side effects (foo().bar()) never
// run twice, extracting the property directly instead of re-dispatching
// through evalDot/evalIndex on the same AST node.
func (it *Interpreter) evalCall(d *js_ast.ECall, env *runtime.Environment) (value.Value, *value.Completion) {
	if isSuperExpr(d.Target) {
		return it.evalSuperCall(d, env)
	}

	var thisVal value.Value
	var callee value.Value
	var c *value.Completion

	switch target := d.Target.Data.(type) {
	case *js_ast.EDot:
		if isSuperExpr(target.Target) {
			thisVal = env.ResolveThis()
			callee, c = it.evalSuperDot(target, env)
		} else {
			thisVal, c = it.evalExpr(target.Target, env)
			if c != nil {
				return value.Value{}, c
			}
			if target.Optional && thisVal.IsNullish() {
				return value.Undefined(), nil
			}
			if target.IsPrivate {
				if !thisVal.IsObject() || thisVal.Obj.PrivateFields == nil {
					return value.Value{}, it.Realm.ThrowTypeError("private field '#" + target.Name + "' not present")
				}
				pv, ok := thisVal.Obj.PrivateFields[target.Name]
				if !ok {
					return value.Value{}, it.Realm.ThrowTypeError("private field '#" + target.Name + "' not present")
				}
				callee = pv
			} else {
				callee, c = it.getProperty(thisVal, target.Name)
			}
		}
	case *js_ast.EIndex:
		thisVal, c = it.evalExpr(target.Target, env)
		if c != nil {
			return value.Value{}, c
		}
		if target.Optional && thisVal.IsNullish() {
			return value.Undefined(), nil
		}
		idx, c2 := it.evalExpr(target.Index, env)
		if c2 != nil {
			return value.Value{}, c2
		}
		if idx.Kind == value.KindSymbol {
			callee, c = it.getPropertySymbol(thisVal, idx.Sym)
		} else {
			key, c2 := it.toStringValue(idx)
			if c2 != nil {
				return value.Value{}, c2
			}
			callee, c = it.getProperty(thisVal, helpers.UTF16ToString(key))
		}
	default:
		thisVal = value.Undefined()
		callee, c = it.evalExpr(d.Target, env)
	}
	if c != nil {
		return value.Value{}, c
	}

	if d.IsOptionalCall && callee.IsNullish() {
		return value.Undefined(), nil
	}
	if !callee.IsCallable() {
		return value.Value{}, it.Realm.ThrowTypeError("value is not a function")
	}

	args, c := it.evalArgs(d.Args, env)
	if c != nil {
		return value.Value{}, c
	}
	return callee.Obj.Call(thisVal, args)
}

func (it *Interpreter) evalNew(d *js_ast.ENew, env *runtime.Environment) (value.Value, *value.Completion) {
	targetVal, c := it.evalExpr(d.Target, env)
	if c != nil {
		return value.Value{}, c
	}
	if !targetVal.IsObject() || targetVal.Obj.Construct == nil {
		return value.Value{}, it.Realm.ThrowTypeError("value is not a constructor")
	}
	args, c := it.evalArgs(d.Args, env)
	if c != nil {
		return value.Value{}, c
	}
	return targetVal.Obj.Construct(args, targetVal.Obj)
}

// evalSuperCall implements spec's SuperCall: dispatches to the parent
// constructor's InitInstance against the already-allocated `this`, then
// triggers this class's own instance field initialization (the moment
// fields initialize per spec is "when super() returns").
func (it *Interpreter) evalSuperCall(d *js_ast.ECall, env *runtime.Environment) (value.Value, *value.Completion) {
	superCtor, afterInit := superContextOf(env)
	if superCtor == nil {
		return value.Value{}, it.Realm.ThrowSyntaxError("'super' keyword is only valid inside a derived class constructor")
	}
	this := env.ResolveThis()
	if !this.IsObject() {
		return value.Value{}, it.Realm.ThrowTypeError("'this' is not an object in super() call")
	}
	args, c := it.evalArgs(d.Args, env)
	if c != nil {
		return value.Value{}, c
	}
	if superCtor.InitInstance != nil {
		if c := superCtor.InitInstance(this.Obj, args); c != nil {
			return value.Value{}, c
		}
	} else if superCtor.Call != nil {
		if _, c := superCtor.Call(this, args); c != nil {
			return value.Value{}, c
		}
	}
	if afterInit != nil {
		if c := afterInit(); c != nil {
			return value.Value{}, c
		}
	}
	return value.Undefined(), nil
}

func superContextOf(env *runtime.Environment) (*value.Object, func() *value.Completion) {
	for e := env; e != nil; e = e.Outer {
		if e.Kind == runtime.EnvFunction && e.SuperConstructor != nil {
			return e.SuperConstructor, e.AfterSuperInit
		}
	}
	return nil, nil
}

func (it *Interpreter) evalArgs(args []js_ast.Arg, env *runtime.Environment) ([]value.Value, *value.Completion) {
	var out []value.Value
	for _, a := range args {
		v, c := it.evalExpr(a.Value, env)
		if c != nil {
			return nil, c
		}
		if a.Spread {
			items, c := it.iterableToSlice(v)
			if c != nil {
				return nil, c
			}
			out = append(out, items...)
			continue
		}
		out = append(out, v)
	}
	return out, nil
}

func isSuperExpr(e js_ast.Expr) bool {
	_, ok := e.Data.(*js_ast.ESuper)
	return ok
}
