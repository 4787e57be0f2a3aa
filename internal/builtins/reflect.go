package builtins

import "github.com/jsrun/jsengine/internal/value"

// installReflect wires the Reflect namespace: the same abstract operations
// Object.* exposes informally, but as free functions that never throw on a
// non-object "target is not extensible"-style failure the way the operator
// form does -- the spec's split between "reflective API" and "language
// operator".
func (h *host) installReflect() {
	r := h.realm.NewObject()
	r.SetClass("Reflect")

	h.staticMethod(r, "get", 3, func(_ value.Value, args []value.Value) (value.Value, *value.Completion) {
		target, c := thisObject(h, arg(args, 0))
		if c != nil {
			return value.Value{}, c
		}
		key, c := h.interp.ToStringValue(arg(args, 1))
		if c != nil {
			return value.Value{}, c
		}
		return h.interp.GetProperty(value.FromObject(target), s2(key))
	})
	h.staticMethod(r, "set", 4, func(_ value.Value, args []value.Value) (value.Value, *value.Completion) {
		target, c := thisObject(h, arg(args, 0))
		if c != nil {
			return value.Value{}, c
		}
		key, c := h.interp.ToStringValue(arg(args, 1))
		if c != nil {
			return value.Value{}, c
		}
		if c := h.interp.SetProperty(value.FromObject(target), s2(key), arg(args, 2)); c != nil {
			return value.Value{}, c
		}
		return value.Bool(true), nil
	})
	h.staticMethod(r, "has", 2, func(_ value.Value, args []value.Value) (value.Value, *value.Completion) {
		target, c := thisObject(h, arg(args, 0))
		if c != nil {
			return value.Value{}, c
		}
		key, c := h.interp.ToStringValue(arg(args, 1))
		if c != nil {
			return value.Value{}, c
		}
		has, c := h.interp.HasProperty(target, s2(key))
		if c != nil {
			return value.Value{}, c
		}
		return value.Bool(has), nil
	})
	h.staticMethod(r, "deleteProperty", 2, func(_ value.Value, args []value.Value) (value.Value, *value.Completion) {
		target, c := thisObject(h, arg(args, 0))
		if c != nil {
			return value.Value{}, c
		}
		key, c := h.interp.ToStringValue(arg(args, 1))
		if c != nil {
			return value.Value{}, c
		}
		if target.Exotic == value.ExoticProxy {
			return h.proxyDeleteProperty(target, s2(key))
		}
		return value.Bool(target.DeleteOwnProperty(s2(key))), nil
	})
	h.staticMethod(r, "ownKeys", 1, func(_ value.Value, args []value.Value) (value.Value, *value.Completion) {
		target, c := thisObject(h, arg(args, 0))
		if c != nil {
			return value.Value{}, c
		}
		keys := target.OwnPropertyKeys()
		if target.Exotic == value.ExoticProxy {
			keys, c = h.proxyOwnKeys(target)
			if c != nil {
				return value.Value{}, c
			}
		}
		var out []value.Value
		for _, k := range keys {
			if k.IsSymbol {
				out = append(out, value.FromSymbol(k.Sym))
			} else {
				out = append(out, value.StringFromGo(k.Str))
			}
		}
		return h.interp.NewArray(out), nil
	})
	h.staticMethod(r, "getPrototypeOf", 1, func(_ value.Value, args []value.Value) (value.Value, *value.Completion) {
		target, c := thisObject(h, arg(args, 0))
		if c != nil {
			return value.Value{}, c
		}
		proto := target.Proto
		if target.Exotic == value.ExoticProxy {
			proto, c = h.proxyGetPrototypeOf(target)
			if c != nil {
				return value.Value{}, c
			}
		}
		if proto == nil {
			return value.Null(), nil
		}
		return value.FromObject(proto), nil
	})
	h.staticMethod(r, "setPrototypeOf", 2, func(_ value.Value, args []value.Value) (value.Value, *value.Completion) {
		target, c := thisObject(h, arg(args, 0))
		if c != nil {
			return value.Value{}, c
		}
		p := arg(args, 1)
		if p.IsNull() {
			target.Proto = nil
		} else if p.IsObject() {
			target.Proto = p.Obj
		} else {
			return value.Bool(false), nil
		}
		return value.Bool(true), nil
	})
	h.staticMethod(r, "isExtensible", 1, func(_ value.Value, args []value.Value) (value.Value, *value.Completion) {
		target, c := thisObject(h, arg(args, 0))
		if c != nil {
			return value.Value{}, c
		}
		return value.Bool(target.Extensible), nil
	})
	h.staticMethod(r, "preventExtensions", 1, func(_ value.Value, args []value.Value) (value.Value, *value.Completion) {
		target, c := thisObject(h, arg(args, 0))
		if c != nil {
			return value.Value{}, c
		}
		target.Extensible = false
		return value.Bool(true), nil
	})
	h.staticMethod(r, "defineProperty", 3, func(_ value.Value, args []value.Value) (value.Value, *value.Completion) {
		target, c := thisObject(h, arg(args, 0))
		if c != nil {
			return value.Value{}, c
		}
		key, c := h.interp.ToStringValue(arg(args, 1))
		if c != nil {
			return value.Value{}, c
		}
		descVal := arg(args, 2)
		if descVal.Kind != value.KindObject {
			return value.Value{}, h.realm.ThrowTypeError("Property description must be an object")
		}
		desc, c := h.toPropertyDescriptor(descVal)
		if c != nil {
			return value.Value{}, c
		}
		if target.Exotic == value.ExoticProxy {
			return h.proxyDefineProperty(target, s2(key), desc)
		}
		target.DefineOwnProperty(s2(key), desc)
		return value.Bool(true), nil
	})
	h.staticMethod(r, "getOwnPropertyDescriptor", 2, func(_ value.Value, args []value.Value) (value.Value, *value.Completion) {
		target, c := thisObject(h, arg(args, 0))
		if c != nil {
			return value.Value{}, c
		}
		key, c := h.interp.ToStringValue(arg(args, 1))
		if c != nil {
			return value.Value{}, c
		}
		var desc value.PropertyDescriptor
		var ok bool
		if target.Exotic == value.ExoticProxy {
			desc, ok, c = h.proxyGetOwnPropertyDescriptor(target, s2(key))
			if c != nil {
				return value.Value{}, c
			}
		} else {
			desc, ok = target.GetOwnProperty(s2(key))
		}
		if !ok {
			return value.Undefined(), nil
		}
		return h.fromPropertyDescriptor(desc), nil
	})
	h.staticMethod(r, "apply", 3, func(_ value.Value, args []value.Value) (value.Value, *value.Completion) {
		target := arg(args, 0)
		if !target.IsCallable() {
			return value.Value{}, h.realm.ThrowTypeError("Reflect.apply target must be callable")
		}
		argList, c := h.arrayLikeToSlice(arg(args, 2))
		if c != nil {
			return value.Value{}, c
		}
		return h.interp.CallFunction(target, arg(args, 1), argList)
	})
	h.staticMethod(r, "construct", 2, func(_ value.Value, args []value.Value) (value.Value, *value.Completion) {
		target := arg(args, 0)
		if !target.IsObject() || target.Obj.Construct == nil {
			return value.Value{}, h.realm.ThrowTypeError("Reflect.construct target must be a constructor")
		}
		argList, c := h.arrayLikeToSlice(arg(args, 1))
		if c != nil {
			return value.Value{}, c
		}
		nt := target.Obj
		if len(args) > 2 && args[2].IsObject() {
			nt = args[2].Obj
		}
		return target.Obj.Construct(argList, nt)
	})

	if sym := h.realm.WellKnownSymbols["toStringTag"]; sym != nil {
		r.DefineOwnPropertySymbol(sym, value.DataProperty(value.StringFromGo("Reflect"), false, false, true))
	}

	h.realm.SetIntrinsic("Reflect", r)
}
