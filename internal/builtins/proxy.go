package builtins

import "github.com/jsrun/jsengine/internal/value"

// installProxy wires the Proxy constructor. Element access for "get"/"set"/
// "has" traps is dispatched generically from internal/evaluator's
// getProperty/setProperty/hasProperty; the remaining traps
// ("deleteProperty", "ownKeys", "defineProperty", "getOwnPropertyDescriptor",
// "getPrototypeOf") are only reachable through the matching Reflect.* call
// against a Proxy, not through the corresponding language operators -- a
// deliberate scope limit, noted in DESIGN.md. Reflect.* dispatches them via
// the proxy* helpers below, each enforcing the matching 9.5.x invariant.
func (h *host) installProxy() {
	ctor := h.nativeFn("Proxy", 2, func(_ value.Value, args []value.Value) (value.Value, *value.Completion) {
		return value.Value{}, h.realm.ThrowTypeError("Constructor Proxy requires 'new'")
	})
	ctor.Construct = func(args []value.Value, newTarget *value.Object) (value.Value, *value.Completion) {
		target := arg(args, 0)
		handler := arg(args, 1)
		if target.Kind != value.KindObject || handler.Kind != value.KindObject {
			return value.Value{}, h.realm.ThrowTypeError("Cannot create proxy with a non-object as target or handler")
		}
		obj := value.NewObject(target.Obj.Proto)
		obj.SetClass(target.Obj.Class())
		obj.Exotic = value.ExoticProxy
		obj.ProxyTarget = target.Obj
		obj.ProxyHandler = handler.Obj
		if target.Obj.Call != nil {
			obj.Call = func(thisVal value.Value, cargs []value.Value) (value.Value, *value.Completion) {
				if trap, c := h.proxyMethod(obj, "apply"); c == nil && trap.IsCallable() {
					return h.interp.CallFunction(trap, value.FromObject(handler.Obj), []value.Value{target, thisVal, h.interp.NewArray(cargs)})
				}
				return h.interp.CallFunction(target, thisVal, cargs)
			}
		}
		if target.Obj.Construct != nil {
			obj.Construct = func(cargs []value.Value, nt *value.Object) (value.Value, *value.Completion) {
				if trap, c := h.proxyMethod(obj, "construct"); c == nil && trap.IsCallable() {
					return h.interp.CallFunction(trap, value.FromObject(handler.Obj), []value.Value{target, h.interp.NewArray(cargs), value.FromObject(nt)})
				}
				return target.Obj.Construct(cargs, nt)
			}
		}
		return value.FromObject(obj), nil
	}
	h.realm.SetIntrinsic("Proxy", ctor)
}

func (h *host) proxyMethod(proxy *value.Object, name string) (value.Value, *value.Completion) {
	return h.interp.GetProperty(value.FromObject(proxy.ProxyHandler), name)
}

// proxyDeleteProperty implements [[Delete]] for Proxy exotic objects (9.5.10):
// the "deleteProperty" trap if present, else forwarded to the target. A trap
// reporting success for a non-configurable own target property is lying.
func (h *host) proxyDeleteProperty(proxy *value.Object, key string) (value.Value, *value.Completion) {
	target := proxy.ProxyTarget
	trap, c := h.proxyMethod(proxy, "deleteProperty")
	if c != nil {
		return value.Value{}, c
	}
	if !trap.IsCallable() {
		return value.Bool(target.DeleteOwnProperty(key)), nil
	}
	result, c := h.interp.CallFunction(trap, value.FromObject(proxy.ProxyHandler), []value.Value{value.FromObject(target), value.StringFromGo(key)})
	if c != nil {
		return value.Value{}, c
	}
	if !value.ToBoolean(result) {
		return value.Bool(false), nil
	}
	if targetDesc, ok := target.GetOwnProperty(key); ok {
		if !targetDesc.Configurable {
			return value.Value{}, h.realm.ThrowTypeError("'deleteProperty' on proxy: property '" + key + "' is a non-configurable property but the trap reported it as deleted")
		}
		if !target.Extensible {
			return value.Value{}, h.realm.ThrowTypeError("'deleteProperty' on proxy: property '" + key + "' exists on a non-extensible target but the trap reported it as deleted")
		}
	}
	return value.Bool(true), nil
}

// proxyDefineProperty implements [[DefineOwnProperty]] for Proxy exotic
// objects (9.5.6): the "defineProperty" trap if present, else forwarded to
// the target. The invariant is stricter than an ordinary object's own
// validation -- a trap cannot report success for adding a non-extensible
// target's new property, for making a non-configurable property
// configurable, or for turning a non-configurable, writable data property
// non-writable.
func (h *host) proxyDefineProperty(proxy *value.Object, key string, desc value.PropertyDescriptor) (value.Value, *value.Completion) {
	target := proxy.ProxyTarget
	trap, c := h.proxyMethod(proxy, "defineProperty")
	if c != nil {
		return value.Value{}, c
	}
	if !trap.IsCallable() {
		target.DefineOwnProperty(key, desc)
		return value.Bool(true), nil
	}
	descObj := h.fromPropertyDescriptor(desc)
	result, c := h.interp.CallFunction(trap, value.FromObject(proxy.ProxyHandler), []value.Value{value.FromObject(target), value.StringFromGo(key), descObj})
	if c != nil {
		return value.Value{}, c
	}
	if !value.ToBoolean(result) {
		return value.Bool(false), nil
	}
	targetDesc, hasTarget := target.GetOwnProperty(key)
	if !hasTarget {
		if !target.Extensible {
			return value.Value{}, h.realm.ThrowTypeError("'defineProperty' on proxy: trap returned true for adding property '" + key + "' to a non-extensible target")
		}
	} else if !targetDesc.Configurable {
		if desc.Configurable {
			return value.Value{}, h.realm.ThrowTypeError("'defineProperty' on proxy: trap returned true for making non-configurable property '" + key + "' configurable")
		}
		if !targetDesc.HasGetOrSet && targetDesc.Writable && desc.HasValue && !desc.Writable {
			return value.Value{}, h.realm.ThrowTypeError("'defineProperty' on proxy: trap returned true for a non-configurable, writable property '" + key + "' when the descriptor reports non-writable")
		}
	}
	return value.Bool(true), nil
}

// proxyOwnKeys implements [[OwnPropertyKeys]] for Proxy exotic objects
// (9.5.11): the "ownKeys" trap if present, else forwarded to the target. The
// trap result must include every non-configurable own target key, and for a
// non-extensible target must match the target's own keys exactly.
func (h *host) proxyOwnKeys(proxy *value.Object) ([]value.PropertyKey, *value.Completion) {
	target := proxy.ProxyTarget
	trap, c := h.proxyMethod(proxy, "ownKeys")
	if c != nil {
		return nil, c
	}
	if !trap.IsCallable() {
		return target.OwnPropertyKeys(), nil
	}
	resultVal, c := h.interp.CallFunction(trap, value.FromObject(proxy.ProxyHandler), []value.Value{value.FromObject(target)})
	if c != nil {
		return nil, c
	}
	items, c := h.arrayLikeToSlice(resultVal)
	if c != nil {
		return nil, c
	}
	keys := make([]value.PropertyKey, 0, len(items))
	for _, v := range items {
		switch v.Kind {
		case value.KindString:
			keys = append(keys, value.StringKey(s2(v.Str)))
		case value.KindSymbol:
			keys = append(keys, value.SymbolKey(v.Sym))
		default:
			return nil, h.realm.ThrowTypeError("'ownKeys' on proxy: trap result must be an array of strings and symbols")
		}
	}
	targetKeys := target.OwnPropertyKeys()
	for _, tk := range targetKeys {
		var ok, configurable bool
		if tk.IsSymbol {
			d, found := target.GetOwnPropertySymbol(tk.Sym)
			ok, configurable = found, d.Configurable
		} else {
			d, found := target.GetOwnProperty(tk.Str)
			ok, configurable = found, d.Configurable
		}
		if ok && !configurable && !containsPropertyKey(keys, tk) {
			return nil, h.realm.ThrowTypeError("'ownKeys' on proxy: trap result did not include non-configurable key")
		}
	}
	if !target.Extensible {
		if len(keys) != len(targetKeys) {
			return nil, h.realm.ThrowTypeError("'ownKeys' on proxy: trap result must match the non-extensible target's own keys")
		}
		for _, tk := range targetKeys {
			if !containsPropertyKey(keys, tk) {
				return nil, h.realm.ThrowTypeError("'ownKeys' on proxy: trap result must match the non-extensible target's own keys")
			}
		}
	}
	return keys, nil
}

func containsPropertyKey(keys []value.PropertyKey, k value.PropertyKey) bool {
	for _, existing := range keys {
		if existing.IsSymbol == k.IsSymbol && existing.Sym == k.Sym && existing.Str == k.Str {
			return true
		}
	}
	return false
}

// proxyGetOwnPropertyDescriptor implements [[GetOwnPropertyDescriptor]] for
// Proxy exotic objects (9.5.5): the "getOwnPropertyDescriptor" trap if
// present, else forwarded to the target. A trap reporting "no property" for
// a non-configurable target property, or for any property of a
// non-extensible target, is lying.
func (h *host) proxyGetOwnPropertyDescriptor(proxy *value.Object, key string) (value.PropertyDescriptor, bool, *value.Completion) {
	target := proxy.ProxyTarget
	trap, c := h.proxyMethod(proxy, "getOwnPropertyDescriptor")
	if c != nil {
		return value.PropertyDescriptor{}, false, c
	}
	if !trap.IsCallable() {
		desc, ok := target.GetOwnProperty(key)
		return desc, ok, nil
	}
	resultVal, c := h.interp.CallFunction(trap, value.FromObject(proxy.ProxyHandler), []value.Value{value.FromObject(target), value.StringFromGo(key)})
	if c != nil {
		return value.PropertyDescriptor{}, false, c
	}
	targetDesc, hasTarget := target.GetOwnProperty(key)
	if resultVal.IsUndefined() {
		if hasTarget && (!targetDesc.Configurable || !target.Extensible) {
			return value.PropertyDescriptor{}, false, h.realm.ThrowTypeError("'getOwnPropertyDescriptor' on proxy: trap reported undefined for property '" + key + "' which must be reported")
		}
		return value.PropertyDescriptor{}, false, nil
	}
	if !resultVal.IsObject() {
		return value.PropertyDescriptor{}, false, h.realm.ThrowTypeError("'getOwnPropertyDescriptor' on proxy: trap result must be an object or undefined")
	}
	desc, c := h.toPropertyDescriptor(resultVal)
	if c != nil {
		return value.PropertyDescriptor{}, false, c
	}
	if !hasTarget && !target.Extensible {
		return value.PropertyDescriptor{}, false, h.realm.ThrowTypeError("'getOwnPropertyDescriptor' on proxy: trap reported a new property '" + key + "' on a non-extensible target")
	}
	if hasTarget && !targetDesc.Configurable {
		if desc.Configurable {
			return value.PropertyDescriptor{}, false, h.realm.ThrowTypeError("'getOwnPropertyDescriptor' on proxy: trap reported configurable for non-configurable property '" + key + "'")
		}
		if !targetDesc.HasGetOrSet && !targetDesc.Writable && desc.HasValue && desc.Writable {
			return value.PropertyDescriptor{}, false, h.realm.ThrowTypeError("'getOwnPropertyDescriptor' on proxy: trap reported writable for non-writable, non-configurable property '" + key + "'")
		}
	}
	return desc, true, nil
}

// proxyGetPrototypeOf implements [[GetPrototypeOf]] for Proxy exotic objects
// (9.5.1): the "getPrototypeOf" trap if present, else forwarded to the
// target. A non-extensible target's reported prototype must match exactly.
func (h *host) proxyGetPrototypeOf(proxy *value.Object) (*value.Object, *value.Completion) {
	target := proxy.ProxyTarget
	trap, c := h.proxyMethod(proxy, "getPrototypeOf")
	if c != nil {
		return nil, c
	}
	if !trap.IsCallable() {
		return target.Proto, nil
	}
	resultVal, c := h.interp.CallFunction(trap, value.FromObject(proxy.ProxyHandler), nil)
	if c != nil {
		return nil, c
	}
	var proto *value.Object
	if resultVal.IsObject() {
		proto = resultVal.Obj
	} else if !resultVal.IsNull() {
		return nil, h.realm.ThrowTypeError("'getPrototypeOf' on proxy: trap returned neither object nor null")
	}
	if !target.Extensible && proto != target.Proto {
		return nil, h.realm.ThrowTypeError("'getPrototypeOf' on proxy: trap result does not match the non-extensible target's prototype")
	}
	return proto, nil
}
