package builtins

import (
	"github.com/jsrun/jsengine/internal/helpers"
	"github.com/jsrun/jsengine/internal/value"
)

func (h *host) installObject() {
	proto := value.NewObject(nil)
	proto.SetClass("Object")
	h.realm.SetIntrinsic("Object.prototype", proto)
	// Function.prototype was allocated before Object.prototype existed; wire
	// its [[Prototype]] now that we can.
	h.realm.Intrinsic("Function.prototype").Proto = proto

	h.method(proto, "hasOwnProperty", 1, func(this value.Value, args []value.Value) (value.Value, *value.Completion) {
		obj, c := h.interp.ToObject(this)
		if c != nil {
			return value.Value{}, c
		}
		key, c := h.interp.ToStringValue(arg(args, 0))
		if c != nil {
			return value.Value{}, c
		}
		_, ok := obj.GetOwnProperty(helpers.UTF16ToString(key))
		return value.Bool(ok), nil
	})
	h.method(proto, "isPrototypeOf", 1, func(this value.Value, args []value.Value) (value.Value, *value.Completion) {
		other := arg(args, 0)
		if !other.IsObject() || !this.IsObject() {
			return value.Bool(false), nil
		}
		for p := other.Obj.Proto; p != nil; p = p.Proto {
			if p == this.Obj {
				return value.Bool(true), nil
			}
		}
		return value.Bool(false), nil
	})
	h.method(proto, "propertyIsEnumerable", 1, func(this value.Value, args []value.Value) (value.Value, *value.Completion) {
		obj, c := h.interp.ToObject(this)
		if c != nil {
			return value.Value{}, c
		}
		key, c := h.interp.ToStringValue(arg(args, 0))
		if c != nil {
			return value.Value{}, c
		}
		desc, ok := obj.GetOwnProperty(helpers.UTF16ToString(key))
		return value.Bool(ok && desc.Enumerable), nil
	})
	h.method(proto, "toString", 0, func(this value.Value, args []value.Value) (value.Value, *value.Completion) {
		if this.IsUndefined() {
			return value.StringFromGo("[object Undefined]"), nil
		}
		if this.IsNull() {
			return value.StringFromGo("[object Null]"), nil
		}
		obj, c := h.interp.ToObject(this)
		if c != nil {
			return value.Value{}, c
		}
		tag := obj.Class()
		if sym := h.realm.WellKnownSymbols["toStringTag"]; sym != nil {
			if v, c := h.interp.GetPropertySymbol(this, sym); c == nil && v.Kind == value.KindString {
				tag = helpers.UTF16ToString(v.Str)
			}
		}
		return value.StringFromGo("[object " + tag + "]"), nil
	})
	h.method(proto, "toLocaleString", 0, func(this value.Value, args []value.Value) (value.Value, *value.Completion) {
		return h.interp.CallFunction(mustGet(h, this, "toString"), this, nil)
	})
	h.method(proto, "valueOf", 0, func(this value.Value, args []value.Value) (value.Value, *value.Completion) {
		return h.interp.ToObjectValue(this)
	})
	h.getter(proto, "__proto__", func(this value.Value, args []value.Value) (value.Value, *value.Completion) {
		obj, c := h.interp.ToObject(this)
		if c != nil {
			return value.Value{}, c
		}
		if obj.Proto == nil {
			return value.Null(), nil
		}
		return value.FromObject(obj.Proto), nil
	})

	ctor := h.nativeFn("Object", 1, func(_ value.Value, args []value.Value) (value.Value, *value.Completion) {
		v := arg(args, 0)
		if v.IsNullish() {
			return value.FromObject(h.realm.NewObject()), nil
		}
		return h.interp.ToObjectValue(v)
	})
	ctor.Construct = func(args []value.Value, newTarget *value.Object) (value.Value, *value.Completion) {
		v := arg(args, 0)
		if v.IsNullish() {
			return value.FromObject(h.realm.NewObject()), nil
		}
		return h.interp.ToObjectValue(v)
	}
	ctor.DefineOwnProperty("prototype", value.DataProperty(value.FromObject(proto), false, false, false))
	proto.DefineOwnProperty("constructor", value.DataProperty(value.FromObject(ctor), true, false, true))

	h.staticMethod(ctor, "keys", 1, func(_ value.Value, args []value.Value) (value.Value, *value.Completion) {
		return h.enumerableOwnNames(arg(args, 0))
	})
	h.staticMethod(ctor, "values", 1, func(_ value.Value, args []value.Value) (value.Value, *value.Completion) {
		return h.enumerableOwnValues(arg(args, 0))
	})
	h.staticMethod(ctor, "entries", 1, func(_ value.Value, args []value.Value) (value.Value, *value.Completion) {
		return h.enumerableOwnEntries(arg(args, 0))
	})
	h.staticMethod(ctor, "assign", 2, func(_ value.Value, args []value.Value) (value.Value, *value.Completion) {
		target, c := h.interp.ToObject(arg(args, 0))
		if c != nil {
			return value.Value{}, c
		}
		for _, src := range rest(args, 1) {
			if src.IsNullish() {
				continue
			}
			srcObj, c := h.interp.ToObject(src)
			if c != nil {
				return value.Value{}, c
			}
			for _, key := range srcObj.OwnPropertyKeys() {
				if key.IsSymbol {
					desc, ok := srcObj.GetOwnPropertySymbol(key.Sym)
					if !ok || !desc.Enumerable {
						continue
					}
					v, c := h.interp.GetPropertySymbol(src, key.Sym)
					if c != nil {
						return value.Value{}, c
					}
					target.DefineOwnPropertySymbol(key.Sym, value.DataProperty(v, true, true, true))
					continue
				}
				desc, ok := srcObj.GetOwnProperty(key.Str)
				if !ok || !desc.Enumerable {
					continue
				}
				v, c := h.interp.GetProperty(src, key.Str)
				if c != nil {
					return value.Value{}, c
				}
				if c := h.interp.SetProperty(value.FromObject(target), key.Str, v); c != nil {
					return value.Value{}, c
				}
			}
		}
		return value.FromObject(target), nil
	})
	h.staticMethod(ctor, "freeze", 1, func(_ value.Value, args []value.Value) (value.Value, *value.Completion) {
		v := arg(args, 0)
		if v.IsObject() {
			obj := v.Obj
			obj.Extensible = false
			for _, key := range obj.OwnPropertyKeys() {
				if key.IsSymbol {
					desc, _ := obj.GetOwnPropertySymbol(key.Sym)
					desc.Configurable = false
					if desc.HasValue {
						desc.Writable = false
					}
					obj.DefineOwnPropertySymbol(key.Sym, desc)
					continue
				}
				desc, _ := obj.GetOwnProperty(key.Str)
				desc.Configurable = false
				if desc.HasValue {
					desc.Writable = false
				}
				obj.DefineOwnProperty(key.Str, desc)
			}
		}
		return v, nil
	})
	h.staticMethod(ctor, "isFrozen", 1, func(_ value.Value, args []value.Value) (value.Value, *value.Completion) {
		v := arg(args, 0)
		if !v.IsObject() {
			return value.Bool(true), nil
		}
		obj := v.Obj
		if obj.Extensible {
			return value.Bool(false), nil
		}
		for _, key := range obj.OwnPropertyKeys() {
			var desc value.PropertyDescriptor
			if key.IsSymbol {
				desc, _ = obj.GetOwnPropertySymbol(key.Sym)
			} else {
				desc, _ = obj.GetOwnProperty(key.Str)
			}
			if desc.Configurable || (desc.HasValue && desc.Writable) {
				return value.Bool(false), nil
			}
		}
		return value.Bool(true), nil
	})
	h.staticMethod(ctor, "seal", 1, func(_ value.Value, args []value.Value) (value.Value, *value.Completion) {
		v := arg(args, 0)
		if v.IsObject() {
			obj := v.Obj
			obj.Extensible = false
			for _, key := range obj.OwnPropertyKeys() {
				if key.IsSymbol {
					desc, _ := obj.GetOwnPropertySymbol(key.Sym)
					desc.Configurable = false
					obj.DefineOwnPropertySymbol(key.Sym, desc)
					continue
				}
				desc, _ := obj.GetOwnProperty(key.Str)
				desc.Configurable = false
				obj.DefineOwnProperty(key.Str, desc)
			}
		}
		return v, nil
	})
	h.staticMethod(ctor, "isSealed", 1, func(_ value.Value, args []value.Value) (value.Value, *value.Completion) {
		v := arg(args, 0)
		if !v.IsObject() {
			return value.Bool(true), nil
		}
		obj := v.Obj
		if obj.Extensible {
			return value.Bool(false), nil
		}
		for _, key := range obj.OwnPropertyKeys() {
			var desc value.PropertyDescriptor
			if key.IsSymbol {
				desc, _ = obj.GetOwnPropertySymbol(key.Sym)
			} else {
				desc, _ = obj.GetOwnProperty(key.Str)
			}
			if desc.Configurable {
				return value.Bool(false), nil
			}
		}
		return value.Bool(true), nil
	})
	h.staticMethod(ctor, "preventExtensions", 1, func(_ value.Value, args []value.Value) (value.Value, *value.Completion) {
		v := arg(args, 0)
		if v.IsObject() {
			v.Obj.Extensible = false
		}
		return v, nil
	})
	h.staticMethod(ctor, "isExtensible", 1, func(_ value.Value, args []value.Value) (value.Value, *value.Completion) {
		v := arg(args, 0)
		return value.Bool(v.IsObject() && v.Obj.Extensible), nil
	})
	h.staticMethod(ctor, "getPrototypeOf", 1, func(_ value.Value, args []value.Value) (value.Value, *value.Completion) {
		obj, c := h.interp.ToObject(arg(args, 0))
		if c != nil {
			return value.Value{}, c
		}
		if obj.Proto == nil {
			return value.Null(), nil
		}
		return value.FromObject(obj.Proto), nil
	})
	h.staticMethod(ctor, "setPrototypeOf", 2, func(_ value.Value, args []value.Value) (value.Value, *value.Completion) {
		v := arg(args, 0)
		if !v.IsObject() {
			return v, nil
		}
		p := arg(args, 1)
		if p.IsNull() {
			v.Obj.Proto = nil
		} else if p.IsObject() {
			v.Obj.Proto = p.Obj
		} else {
			return value.Value{}, h.realm.ThrowTypeError("Object prototype may only be an Object or null")
		}
		return v, nil
	})
	h.staticMethod(ctor, "create", 2, func(_ value.Value, args []value.Value) (value.Value, *value.Completion) {
		p := arg(args, 0)
		var proto *value.Object
		if p.IsObject() {
			proto = p.Obj
		} else if !p.IsNull() {
			return value.Value{}, h.realm.ThrowTypeError("Object prototype may only be an Object or null")
		}
		obj := value.NewObject(proto)
		if props := arg(args, 1); !props.IsUndefined() {
			if c := h.defineProperties(obj, props); c != nil {
				return value.Value{}, c
			}
		}
		return value.FromObject(obj), nil
	})
	h.staticMethod(ctor, "defineProperty", 3, func(_ value.Value, args []value.Value) (value.Value, *value.Completion) {
		target := arg(args, 0)
		if !target.IsObject() {
			return value.Value{}, h.realm.ThrowTypeError("Object.defineProperty called on non-object")
		}
		key, c := h.interp.ToStringValue(arg(args, 1))
		if c != nil {
			return value.Value{}, c
		}
		desc, c := h.toPropertyDescriptor(arg(args, 2))
		if c != nil {
			return value.Value{}, c
		}
		target.Obj.DefineOwnProperty(helpers.UTF16ToString(key), desc)
		return target, nil
	})
	h.staticMethod(ctor, "defineProperties", 2, func(_ value.Value, args []value.Value) (value.Value, *value.Completion) {
		target := arg(args, 0)
		if !target.IsObject() {
			return value.Value{}, h.realm.ThrowTypeError("Object.defineProperties called on non-object")
		}
		if c := h.defineProperties(target.Obj, arg(args, 1)); c != nil {
			return value.Value{}, c
		}
		return target, nil
	})
	h.staticMethod(ctor, "getOwnPropertyNames", 1, func(_ value.Value, args []value.Value) (value.Value, *value.Completion) {
		obj, c := h.interp.ToObject(arg(args, 0))
		if c != nil {
			return value.Value{}, c
		}
		var names []value.Value
		for _, key := range obj.OwnPropertyKeys() {
			if !key.IsSymbol {
				names = append(names, value.StringFromGo(key.Str))
			}
		}
		return h.interp.NewArray(names), nil
	})
	h.staticMethod(ctor, "getOwnPropertySymbols", 1, func(_ value.Value, args []value.Value) (value.Value, *value.Completion) {
		obj, c := h.interp.ToObject(arg(args, 0))
		if c != nil {
			return value.Value{}, c
		}
		var syms []value.Value
		for _, key := range obj.OwnPropertyKeys() {
			if key.IsSymbol {
				syms = append(syms, value.FromSymbol(key.Sym))
			}
		}
		return h.interp.NewArray(syms), nil
	})
	h.staticMethod(ctor, "getOwnPropertyDescriptor", 2, func(_ value.Value, args []value.Value) (value.Value, *value.Completion) {
		obj, c := h.interp.ToObject(arg(args, 0))
		if c != nil {
			return value.Value{}, c
		}
		key, c := h.interp.ToStringValue(arg(args, 1))
		if c != nil {
			return value.Value{}, c
		}
		desc, ok := obj.GetOwnProperty(helpers.UTF16ToString(key))
		if !ok {
			return value.Undefined(), nil
		}
		return h.fromPropertyDescriptor(desc), nil
	})
	h.staticMethod(ctor, "getOwnPropertyDescriptors", 1, func(_ value.Value, args []value.Value) (value.Value, *value.Completion) {
		obj, c := h.interp.ToObject(arg(args, 0))
		if c != nil {
			return value.Value{}, c
		}
		out := h.realm.NewObject()
		for _, key := range obj.OwnPropertyKeys() {
			if key.IsSymbol {
				desc, _ := obj.GetOwnPropertySymbol(key.Sym)
				out.DefineOwnPropertySymbol(key.Sym, value.DataProperty(h.fromPropertyDescriptor(desc), true, true, true))
				continue
			}
			desc, _ := obj.GetOwnProperty(key.Str)
			out.DefineOwnProperty(key.Str, value.DataProperty(h.fromPropertyDescriptor(desc), true, true, true))
		}
		return value.FromObject(out), nil
	})
	h.staticMethod(ctor, "fromEntries", 1, func(_ value.Value, args []value.Value) (value.Value, *value.Completion) {
		entries, c := h.interp.IterableToSlice(arg(args, 0))
		if c != nil {
			return value.Value{}, c
		}
		out := h.realm.NewObject()
		for _, entry := range entries {
			k, c := h.interp.GetProperty(entry, "0")
			if c != nil {
				return value.Value{}, c
			}
			v, c := h.interp.GetProperty(entry, "1")
			if c != nil {
				return value.Value{}, c
			}
			keyStr, c := h.interp.ToStringValue(k)
			if c != nil {
				return value.Value{}, c
			}
			out.DefineOwnProperty(helpers.UTF16ToString(keyStr), value.DataProperty(v, true, true, true))
		}
		return value.FromObject(out), nil
	})
	h.staticMethod(ctor, "is", 2, func(_ value.Value, args []value.Value) (value.Value, *value.Completion) {
		return value.Bool(value.SameValue(arg(args, 0), arg(args, 1))), nil
	})

	h.realm.SetIntrinsic("Object", ctor)
}

func mustGet(h *host, v value.Value, name string) value.Value {
	r, c := h.interp.GetProperty(v, name)
	if c != nil {
		return value.Undefined()
	}
	return r
}

func (h *host) enumerableOwnNames(v value.Value) (value.Value, *value.Completion) {
	obj, c := h.interp.ToObject(v)
	if c != nil {
		return value.Value{}, c
	}
	var out []value.Value
	for _, key := range obj.OwnPropertyKeys() {
		if key.IsSymbol {
			continue
		}
		if desc, ok := obj.GetOwnProperty(key.Str); ok && desc.Enumerable {
			out = append(out, value.StringFromGo(key.Str))
		}
	}
	return h.interp.NewArray(out), nil
}

func (h *host) enumerableOwnValues(v value.Value) (value.Value, *value.Completion) {
	obj, c := h.interp.ToObject(v)
	if c != nil {
		return value.Value{}, c
	}
	var out []value.Value
	for _, key := range obj.OwnPropertyKeys() {
		if key.IsSymbol {
			continue
		}
		if desc, ok := obj.GetOwnProperty(key.Str); ok && desc.Enumerable {
			val, c := h.interp.GetProperty(v, key.Str)
			if c != nil {
				return value.Value{}, c
			}
			out = append(out, val)
		}
	}
	return h.interp.NewArray(out), nil
}

func (h *host) enumerableOwnEntries(v value.Value) (value.Value, *value.Completion) {
	obj, c := h.interp.ToObject(v)
	if c != nil {
		return value.Value{}, c
	}
	var out []value.Value
	for _, key := range obj.OwnPropertyKeys() {
		if key.IsSymbol {
			continue
		}
		if desc, ok := obj.GetOwnProperty(key.Str); ok && desc.Enumerable {
			val, c := h.interp.GetProperty(v, key.Str)
			if c != nil {
				return value.Value{}, c
			}
			out = append(out, h.interp.NewArray([]value.Value{value.StringFromGo(key.Str), val}))
		}
	}
	return h.interp.NewArray(out), nil
}

// toPropertyDescriptor implements ToPropertyDescriptor: reads the
// value/writable/get/set/enumerable/configurable fields off an ordinary
// descriptor-shaped object, the form Object.defineProperty/create take.
func (h *host) toPropertyDescriptor(v value.Value) (value.PropertyDescriptor, *value.Completion) {
	if !v.IsObject() {
		return value.PropertyDescriptor{}, h.realm.ThrowTypeError("property description must be an object")
	}
	var desc value.PropertyDescriptor
	obj := v.Obj
	if d, ok := obj.GetOwnProperty("value"); ok {
		desc.HasValue = true
		desc.Value = d.Value
	}
	if d, ok := obj.GetOwnProperty("writable"); ok {
		desc.Writable = value.ToBoolean(d.Value)
	}
	if d, ok := obj.GetOwnProperty("enumerable"); ok {
		desc.Enumerable = value.ToBoolean(d.Value)
	}
	if d, ok := obj.GetOwnProperty("configurable"); ok {
		desc.Configurable = value.ToBoolean(d.Value)
	}
	if d, ok := obj.GetOwnProperty("get"); ok && !d.Value.IsUndefined() {
		if !d.Value.IsCallable() {
			return value.PropertyDescriptor{}, h.realm.ThrowTypeError("getter must be a function")
		}
		desc.HasGetOrSet = true
		desc.Get = d.Value.Obj
	}
	if d, ok := obj.GetOwnProperty("set"); ok && !d.Value.IsUndefined() {
		if !d.Value.IsCallable() {
			return value.PropertyDescriptor{}, h.realm.ThrowTypeError("setter must be a function")
		}
		desc.HasGetOrSet = true
		desc.Set = d.Value.Obj
	}
	return desc, nil
}

func (h *host) fromPropertyDescriptor(desc value.PropertyDescriptor) value.Value {
	out := h.realm.NewObject()
	if desc.HasGetOrSet {
		if desc.Get != nil {
			out.DefineOwnProperty("get", value.DataProperty(value.FromObject(desc.Get), true, true, true))
		} else {
			out.DefineOwnProperty("get", value.DataProperty(value.Undefined(), true, true, true))
		}
		if desc.Set != nil {
			out.DefineOwnProperty("set", value.DataProperty(value.FromObject(desc.Set), true, true, true))
		} else {
			out.DefineOwnProperty("set", value.DataProperty(value.Undefined(), true, true, true))
		}
	} else {
		out.DefineOwnProperty("value", value.DataProperty(desc.Value, true, true, true))
		out.DefineOwnProperty("writable", value.DataProperty(value.Bool(desc.Writable), true, true, true))
	}
	out.DefineOwnProperty("enumerable", value.DataProperty(value.Bool(desc.Enumerable), true, true, true))
	out.DefineOwnProperty("configurable", value.DataProperty(value.Bool(desc.Configurable), true, true, true))
	return value.FromObject(out)
}

func (h *host) defineProperties(obj *value.Object, props value.Value) *value.Completion {
	propsObj, c := h.interp.ToObject(props)
	if c != nil {
		return c
	}
	for _, key := range propsObj.OwnPropertyKeys() {
		if key.IsSymbol {
			desc, ok := propsObj.GetOwnPropertySymbol(key.Sym)
			if !ok || !desc.Enumerable {
				continue
			}
			descVal, c := h.interp.GetPropertySymbol(props, key.Sym)
			if c != nil {
				return c
			}
			d, c := h.toPropertyDescriptor(descVal)
			if c != nil {
				return c
			}
			obj.DefineOwnPropertySymbol(key.Sym, d)
			continue
		}
		desc, ok := propsObj.GetOwnProperty(key.Str)
		if !ok || !desc.Enumerable {
			continue
		}
		descVal, c := h.interp.GetProperty(props, key.Str)
		if c != nil {
			return c
		}
		d, c := h.toPropertyDescriptor(descVal)
		if c != nil {
			return c
		}
		obj.DefineOwnProperty(key.Str, d)
	}
	return nil
}
