package evaluator

import (
	"github.com/jsrun/jsengine/internal/js_ast"
	"github.com/jsrun/jsengine/internal/runtime"
	"github.com/jsrun/jsengine/internal/value"
)

// destructuringBindingOf reports whether e is an array/object literal being
// reused as an assignment-destructuring target, per the cover grammar that
// lets "[a, b] = x" and "{a, b} = x" parse as ordinary literals first.
func destructuringBindingOf(e js_ast.Expr) (js_ast.Expr, bool) {
	switch e.Data.(type) {
	case *js_ast.EArray, *js_ast.EObject:
		return e, true
	}
	return js_ast.Expr{}, false
}

// bindPattern implements spec's BindingInitialization: it binds v against a
// declared Binding (let/const/var/function-parameter/catch-parameter).
// isLexical selects InitializeBinding (the binding was already created,
// possibly TDZ-uninitialized, by the caller's hoisting pass) versus the var
// case, where the binding may live in an outer function/global environment
// reached through SetMutableBinding.
func (it *Interpreter) bindPattern(b js_ast.Binding, v value.Value, env *runtime.Environment, isLexical bool) *value.Completion {
	if v.IsUndefined() && b.DefaultOrNil.Data != nil {
		dv, c := it.evalExpr(b.DefaultOrNil, env)
		if c != nil {
			return c
		}
		v = dv
	}

	switch b.Kind {
	case js_ast.BindingIdentifier:
		if isLexical {
			env.InitializeBinding(b.Name, v)
			return nil
		}
		target := env.Resolve(b.Name)
		if target == nil {
			env.CreateAndInitializeVar(b.Name, v)
			return nil
		}
		return target.SetMutableBinding(b.Name, v)

	case js_ast.BindingArray:
		items, c := it.iterableToSlice(v)
		if c != nil {
			return c
		}
		for i, item := range b.Items {
			if item.IsSpread {
				var rest []value.Value
				if i < len(items) {
					rest = items[i:]
				}
				if c := it.bindPattern(item.Binding, it.newArray(rest), env, isLexical); c != nil {
					return c
				}
				break
			}
			var iv value.Value
			if i < len(items) {
				iv = items[i]
			} else {
				iv = value.Undefined()
			}
			if iv.IsUndefined() && item.DefaultOrNil.Data != nil {
				dv, c := it.evalExpr(item.DefaultOrNil, env)
				if c != nil {
					return c
				}
				iv = dv
			}
			if c := it.bindPattern(item.Binding, iv, env, isLexical); c != nil {
				return c
			}
		}
		return nil

	case js_ast.BindingObject:
		var used []string
		for _, prop := range b.Props {
			if prop.IsSpread {
				rest := it.restObject(v, used)
				if c := it.bindPattern(prop.Value, rest, env, isLexical); c != nil {
					return c
				}
				continue
			}
			key, c := it.propertyKeyOf(prop.Key, prop.KeyIsComputed, env)
			if c != nil {
				return c
			}
			used = append(used, key)
			pv, c := it.getProperty(v, key)
			if c != nil {
				return c
			}
			if pv.IsUndefined() && prop.DefaultOrNil.Data != nil {
				dv, c := it.evalExpr(prop.DefaultOrNil, env)
				if c != nil {
					return c
				}
				pv = dv
			}
			if c := it.bindPattern(prop.Value, pv, env, isLexical); c != nil {
				return c
			}
		}
		return nil
	}
	return nil
}

// assignPattern implements spec's DestructuringAssignmentEvaluation: like
// bindPattern, but the leaves are arbitrary assignment targets (identifiers,
// member expressions) rather than fresh bindings, so it recurses through
// assignTo instead of environment creation.
func (it *Interpreter) assignPattern(pattern js_ast.Expr, v value.Value, env *runtime.Environment) *value.Completion {
	switch d := pattern.Data.(type) {
	case *js_ast.EArray:
		items, c := it.iterableToSlice(v)
		if c != nil {
			return c
		}
		for i, item := range d.Items {
			if _, ok := item.Data.(*js_ast.EMissing); ok {
				continue
			}
			if spread, ok := item.Data.(*js_ast.ESpread); ok {
				var rest []value.Value
				if i < len(items) {
					rest = items[i:]
				}
				if c := it.assignTarget(spread.Value, it.newArray(rest), env); c != nil {
					return c
				}
				break
			}
			target := item
			var defaultExpr js_ast.Expr
			if bin, ok := item.Data.(*js_ast.EBinary); ok && bin.Op == js_ast.BinOpAssign {
				target = bin.Left
				defaultExpr = bin.Right
			}
			var iv value.Value
			if i < len(items) {
				iv = items[i]
			} else {
				iv = value.Undefined()
			}
			if iv.IsUndefined() && defaultExpr.Data != nil {
				dv, c := it.evalExpr(defaultExpr, env)
				if c != nil {
					return c
				}
				iv = dv
			}
			if c := it.assignTarget(target, iv, env); c != nil {
				return c
			}
		}
		return nil

	case *js_ast.EObject:
		var used []string
		for _, prop := range d.Properties {
			if prop.Kind == js_ast.PropertySpread {
				rest := it.restObject(v, used)
				if c := it.assignTarget(prop.ValueOrNil, rest, env); c != nil {
					return c
				}
				continue
			}
			key, c := it.propertyKeyOf(prop.Key, prop.IsComputed, env)
			if c != nil {
				return c
			}
			used = append(used, key)
			pv, c := it.getProperty(v, key)
			if c != nil {
				return c
			}
			if pv.IsUndefined() && prop.InitOrNil.Data != nil {
				dv, c := it.evalExpr(prop.InitOrNil, env)
				if c != nil {
					return c
				}
				pv = dv
			}
			if c := it.assignTarget(prop.ValueOrNil, pv, env); c != nil {
				return c
			}
		}
		return nil
	}
	return it.Realm.ThrowSyntaxError("Invalid destructuring assignment target")
}

// assignTarget dispatches one destructuring leaf: either a nested pattern or
// a plain reference handled by assignTo.
func (it *Interpreter) assignTarget(target js_ast.Expr, v value.Value, env *runtime.Environment) *value.Completion {
	if pattern, ok := destructuringBindingOf(target); ok {
		return it.assignPattern(pattern, v, env)
	}
	return it.assignTo(target, v, env)
}

func (it *Interpreter) restObject(v value.Value, exclude []string) value.Value {
	obj := it.Realm.NewObject()
	if !v.IsObject() {
		return value.FromObject(obj)
	}
	excluded := make(map[string]bool, len(exclude))
	for _, k := range exclude {
		excluded[k] = true
	}
	for _, k := range v.Obj.OwnPropertyKeys() {
		if k.IsSymbol || excluded[k.Str] {
			continue
		}
		if desc, ok := v.Obj.GetOwnProperty(k.Str); ok && desc.Enumerable {
			val, _ := it.getProperty(v, k.Str)
			obj.DefineOwnProperty(k.Str, value.DataProperty(val, true, true, true))
		}
	}
	return value.FromObject(obj)
}

func (it *Interpreter) newArray(items []value.Value) value.Value {
	arr := value.NewObject(it.Realm.Intrinsic("Array.prototype"))
	arr.SetClass("Array")
	for i, v := range items {
		arr.DefineOwnProperty(uint32ToStringLocal(uint32(i)), value.DataProperty(v, true, true, true))
	}
	arr.ArrayLength = uint32(len(items))
	arr.DefineOwnProperty("length", value.DataProperty(value.Number(float64(len(items))), true, false, false))
	return value.FromObject(arr)
}
