package evaluator

import (
	"github.com/jsrun/jsengine/internal/helpers"
	"github.com/jsrun/jsengine/internal/js_ast"
	"github.com/jsrun/jsengine/internal/runtime"
	"github.com/jsrun/jsengine/internal/value"
)

// getProperty implements spec's Get(O, P) for string keys, including the
// ToObject coercion for primitive receivers (so "abc".length works without
// a wrapper object ever entering user-visible environments).
func (it *Interpreter) getProperty(receiver value.Value, key string) (value.Value, *value.Completion) {
	if receiver.Kind == value.KindString {
		return it.getStringProperty(receiver, key), nil
	}
	if !receiver.IsObject() {
		if receiver.IsNullish() {
			return value.Value{}, it.Realm.ThrowTypeError("Cannot read properties of " + value.TypeOf(receiver) + " (reading '" + key + "')")
		}
		return value.Undefined(), nil
	}
	if receiver.Obj.Class() == "Array" && key == "length" {
		return value.Number(float64(receiver.Obj.ArrayLength)), nil
	}
	if receiver.Obj.Exotic == value.ExoticProxy {
		return it.proxyGet(receiver.Obj, key, receiver)
	}
	for o := receiver.Obj; o != nil; o = o.Proto {
		if desc, ok := o.GetOwnProperty(key); ok {
			if desc.HasGetOrSet {
				if desc.Get == nil {
					return value.Undefined(), nil
				}
				return desc.Get.Call(receiver, nil)
			}
			return desc.Value, nil
		}
	}
	return value.Undefined(), nil
}

func (it *Interpreter) getStringProperty(s value.Value, key string) value.Value {
	if key == "length" {
		return value.Number(float64(len(s.Str)))
	}
	if idx, ok := arrayIndex(key); ok {
		if int(idx) < len(s.Str) {
			return value.StringFromUTF16(s.Str[idx : idx+1])
		}
		return value.Undefined()
	}
	proto := it.Realm.Intrinsic("String.prototype")
	if proto != nil {
		if desc, ok := proto.GetOwnProperty(key); ok {
			return desc.Value
		}
	}
	return value.Undefined()
}

func arrayIndex(s string) (uint32, bool) {
	if s == "" {
		return 0, false
	}
	var n uint64
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + uint64(c-'0')
	}
	return uint32(n), true
}

func (it *Interpreter) setProperty(receiver value.Value, key string, v value.Value) *value.Completion {
	if !receiver.IsObject() {
		return nil
	}
	obj := receiver.Obj
	if obj.Exotic == value.ExoticProxy {
		return it.proxySet(obj, key, v, receiver)
	}
	for o := obj; o != nil; o = o.Proto {
		if desc, ok := o.GetOwnProperty(key); ok && desc.HasGetOrSet {
			if desc.Set == nil {
				return nil
			}
			_, c := desc.Set.Call(receiver, []value.Value{v})
			return c
		}
	}
	if obj.Class() == "Array" {
		if idx, ok := arrayIndex(key); ok {
			if idx >= obj.ArrayLength {
				obj.ArrayLength = idx + 1
				obj.DefineOwnProperty("length", value.DataProperty(value.Number(float64(obj.ArrayLength)), true, false, false))
			}
		}
		if key == "length" {
			n, c := it.toNumberValue(v)
			if c != nil {
				return c
			}
			obj.ArrayLength = toUint32(n)
			obj.DefineOwnProperty("length", value.DataProperty(value.Number(n), true, false, false))
			return nil
		}
	}
	obj.DefineOwnProperty(key, value.DataProperty(v, true, true, true))
	return nil
}

func (it *Interpreter) evalDot(d *js_ast.EDot, env *runtime.Environment) (value.Value, *value.Completion) {
	if _, isSuper := d.Target.Data.(*js_ast.ESuper); isSuper {
		return it.evalSuperDot(d, env)
	}
	target, c := it.evalExpr(d.Target, env)
	if c != nil {
		return value.Value{}, c
	}
	if d.Optional && target.IsNullish() {
		return value.Undefined(), nil
	}
	if d.IsPrivate {
		if !target.IsObject() || target.Obj.PrivateFields == nil {
			return value.Value{}, it.Realm.ThrowTypeError("private field '#" + d.Name + "' not present")
		}
		if v, ok := target.Obj.PrivateFields[d.Name]; ok {
			return v, nil
		}
		return value.Value{}, it.Realm.ThrowTypeError("private field '#" + d.Name + "' not present")
	}
	return it.getProperty(target, d.Name)
}

func (it *Interpreter) evalSuperDot(d *js_ast.EDot, env *runtime.Environment) (value.Value, *value.Completion) {
	home := currentHomeObject(env)
	this := env.ResolveThis()
	if home == nil || home.Proto == nil {
		return value.Undefined(), nil
	}
	for o := home.Proto; o != nil; o = o.Proto {
		if desc, ok := o.GetOwnProperty(d.Name); ok {
			if desc.HasGetOrSet {
				if desc.Get == nil {
					return value.Undefined(), nil
				}
				return desc.Get.Call(this, nil)
			}
			return desc.Value, nil
		}
	}
	return value.Undefined(), nil
}

func currentHomeObject(env *runtime.Environment) *value.Object {
	for e := env; e != nil; e = e.Outer {
		if e.Kind == runtime.EnvFunction && e.HomeObject != nil {
			return e.HomeObject
		}
	}
	return nil
}

func (it *Interpreter) evalIndex(d *js_ast.EIndex, env *runtime.Environment) (value.Value, *value.Completion) {
	target, c := it.evalExpr(d.Target, env)
	if c != nil {
		return value.Value{}, c
	}
	if d.Optional && target.IsNullish() {
		return value.Undefined(), nil
	}
	idx, c := it.evalExpr(d.Index, env)
	if c != nil {
		return value.Value{}, c
	}
	if idx.Kind == value.KindSymbol {
		return it.getPropertySymbol(target, idx.Sym)
	}
	key, c := it.toStringValue(idx)
	if c != nil {
		return value.Value{}, c
	}
	return it.getProperty(target, helpers.UTF16ToString(key))
}

// assignTo writes v into the reference named by e (identifier, member
// expression, or private field) — the target side of "=" and compound
// assignment and of ++/--.
func (it *Interpreter) assignTo(e js_ast.Expr, v value.Value, env *runtime.Environment) *value.Completion {
	switch d := e.Data.(type) {
	case *js_ast.EIdentifier:
		target := env.Resolve(d.Name)
		if target == nil {
			return it.Realm.ThrowReferenceError(d.Name + " is not defined")
		}
		return target.SetMutableBinding(d.Name, v)

	case *js_ast.EDot:
		if _, isSuper := d.Target.Data.(*js_ast.ESuper); isSuper {
			this := env.ResolveThis()
			return it.setProperty(this, d.Name, v)
		}
		target, c := it.evalExpr(d.Target, env)
		if c != nil {
			return c
		}
		if d.IsPrivate {
			if !target.IsObject() {
				return it.Realm.ThrowTypeError("cannot set private field on non-object")
			}
			if target.Obj.PrivateFields == nil {
				target.Obj.PrivateFields = make(map[string]value.Value)
			}
			target.Obj.PrivateFields[d.Name] = v
			return nil
		}
		return it.setProperty(target, d.Name, v)

	case *js_ast.EIndex:
		target, c := it.evalExpr(d.Target, env)
		if c != nil {
			return c
		}
		idx, c := it.evalExpr(d.Index, env)
		if c != nil {
			return c
		}
		key, c := it.toStringValue(idx)
		if c != nil {
			return c
		}
		return it.setProperty(target, helpers.UTF16ToString(key), v)

	case *js_ast.EArray, *js_ast.EObject:
		if pattern, ok := destructuringBindingOf(e); ok {
			return it.assignPattern(pattern, v, env)
		}
	}
	return it.Realm.ThrowSyntaxError("Invalid left-hand side in assignment")
}
