package builtins

import "github.com/jsrun/jsengine/internal/value"

func (h *host) installMapSet() {
	h.installMap()
	h.installSet()
	h.installWeakMap()
	h.installWeakSet()
	h.installWeakRef()
}

func thisMapData(h *host, this value.Value, class string) (*value.OrderedMap, *value.Completion) {
	if this.IsObject() && this.Obj.Class() == class && this.Obj.MapData != nil {
		return this.Obj.MapData, nil
	}
	return nil, h.realm.ThrowTypeError(class + ".prototype method called on incompatible receiver")
}

func (h *host) installMap() {
	proto := value.NewObject(h.realm.Intrinsic("Object.prototype"))
	proto.SetClass("Map")
	h.realm.SetIntrinsic("Map.prototype", proto)

	ctor := h.nativeFn("Map", 0, func(_ value.Value, args []value.Value) (value.Value, *value.Completion) {
		return value.Value{}, h.realm.ThrowTypeError("Constructor Map requires 'new'")
	})
	ctor.Construct = func(args []value.Value, newTarget *value.Object) (value.Value, *value.Completion) {
		obj := value.NewObject(proto)
		obj.SetClass("Map")
		obj.MapData = value.NewOrderedMap(false)
		if iterable := arg(args, 0); !iterable.IsUndefined() && !iterable.IsNull() {
			entries, c := h.interp.IterableToSlice(iterable)
			if c != nil {
				return value.Value{}, c
			}
			for _, e := range entries {
				k, c := h.interp.GetProperty(e, "0")
				if c != nil {
					return value.Value{}, c
				}
				v, c := h.interp.GetProperty(e, "1")
				if c != nil {
					return value.Value{}, c
				}
				obj.MapData.Set(k, v)
			}
		}
		return value.FromObject(obj), nil
	}
	ctor.DefineOwnProperty("prototype", value.DataProperty(value.FromObject(proto), false, false, false))
	proto.DefineOwnProperty("constructor", value.DataProperty(value.FromObject(ctor), true, false, true))

	h.method(proto, "get", 1, func(this value.Value, args []value.Value) (value.Value, *value.Completion) {
		m, c := thisMapData(h, this, "Map")
		if c != nil {
			return value.Value{}, c
		}
		if v, ok := m.Get(arg(args, 0)); ok {
			return v, nil
		}
		return value.Undefined(), nil
	})
	h.method(proto, "set", 2, func(this value.Value, args []value.Value) (value.Value, *value.Completion) {
		m, c := thisMapData(h, this, "Map")
		if c != nil {
			return value.Value{}, c
		}
		m.Set(arg(args, 0), arg(args, 1))
		return this, nil
	})
	h.method(proto, "has", 1, func(this value.Value, args []value.Value) (value.Value, *value.Completion) {
		m, c := thisMapData(h, this, "Map")
		if c != nil {
			return value.Value{}, c
		}
		_, ok := m.Get(arg(args, 0))
		return value.Bool(ok), nil
	})
	h.method(proto, "delete", 1, func(this value.Value, args []value.Value) (value.Value, *value.Completion) {
		m, c := thisMapData(h, this, "Map")
		if c != nil {
			return value.Value{}, c
		}
		return value.Bool(m.Delete(arg(args, 0))), nil
	})
	h.method(proto, "clear", 0, func(this value.Value, args []value.Value) (value.Value, *value.Completion) {
		m, c := thisMapData(h, this, "Map")
		if c != nil {
			return value.Value{}, c
		}
		m.Clear()
		return value.Undefined(), nil
	})
	h.method(proto, "forEach", 1, func(this value.Value, args []value.Value) (value.Value, *value.Completion) {
		m, c := thisMapData(h, this, "Map")
		if c != nil {
			return value.Value{}, c
		}
		fn := arg(args, 0)
		thisArg := arg(args, 1)
		keys, values, deleted := m.Entries()
		for i := range keys {
			if deleted[i] {
				continue
			}
			if _, c := h.interp.CallFunction(fn, thisArg, []value.Value{values[i], keys[i], this}); c != nil {
				return value.Value{}, c
			}
		}
		return value.Undefined(), nil
	})
	h.getter(proto, "size", func(this value.Value, args []value.Value) (value.Value, *value.Completion) {
		m, c := thisMapData(h, this, "Map")
		if c != nil {
			return value.Value{}, c
		}
		return value.Number(float64(m.Size())), nil
	})
	h.method(proto, "keys", 0, func(this value.Value, args []value.Value) (value.Value, *value.Completion) {
		m, c := thisMapData(h, this, "Map")
		if c != nil {
			return value.Value{}, c
		}
		keys, _, deleted := m.Entries()
		return h.mapEntryIterator(keys, deleted, "keys"), nil
	})
	h.method(proto, "values", 0, func(this value.Value, args []value.Value) (value.Value, *value.Completion) {
		m, c := thisMapData(h, this, "Map")
		if c != nil {
			return value.Value{}, c
		}
		_, values, deleted := m.Entries()
		return h.mapEntryIterator(values, deleted, "values"), nil
	})
	h.method(proto, "entries", 0, func(this value.Value, args []value.Value) (value.Value, *value.Completion) {
		m, c := thisMapData(h, this, "Map")
		if c != nil {
			return value.Value{}, c
		}
		keys, values, deleted := m.Entries()
		pairs := make([]value.Value, 0, len(keys))
		for i := range keys {
			if !deleted[i] {
				pairs = append(pairs, h.interp.NewArray([]value.Value{keys[i], values[i]}))
			}
		}
		return h.mapEntryIterator(pairs, nil, "entries"), nil
	})
	if sym := h.realm.WellKnownSymbols["iterator"]; sym != nil {
		entriesFn, _ := proto.GetOwnProperty("entries")
		proto.DefineOwnPropertySymbol(sym, entriesFn)
	}
	if sym := h.realm.WellKnownSymbols["toStringTag"]; sym != nil {
		proto.DefineOwnPropertySymbol(sym, value.DataProperty(value.StringFromGo("Map"), false, false, true))
	}

	h.realm.SetIntrinsic("Map", ctor)
}

// mapEntryIterator builds a one-shot iterator over a snapshot of live
// values, reusing array.go's iterator-result shape (newIteratorObject is
// defined there for Array.prototype's keys/values/entries).
func (h *host) mapEntryIterator(items []value.Value, deleted []bool, kind string) value.Value {
	live := items
	if deleted != nil {
		live = nil
		for i, v := range items {
			if !deleted[i] {
				live = append(live, v)
			}
		}
	}
	idx := 0
	return value.FromObject(h.newIteratorObject(func() (value.Value, bool) {
		if idx >= len(live) {
			return value.Value{}, false
		}
		v := live[idx]
		idx++
		return v, true
	}))
}

func (h *host) installSet() {
	proto := value.NewObject(h.realm.Intrinsic("Object.prototype"))
	proto.SetClass("Set")
	h.realm.SetIntrinsic("Set.prototype", proto)

	ctor := h.nativeFn("Set", 0, func(_ value.Value, args []value.Value) (value.Value, *value.Completion) {
		return value.Value{}, h.realm.ThrowTypeError("Constructor Set requires 'new'")
	})
	ctor.Construct = func(args []value.Value, newTarget *value.Object) (value.Value, *value.Completion) {
		obj := value.NewObject(proto)
		obj.SetClass("Set")
		obj.MapData = value.NewOrderedMap(false)
		if iterable := arg(args, 0); !iterable.IsUndefined() && !iterable.IsNull() {
			items, c := h.interp.IterableToSlice(iterable)
			if c != nil {
				return value.Value{}, c
			}
			for _, v := range items {
				obj.MapData.Set(v, v)
			}
		}
		return value.FromObject(obj), nil
	}
	ctor.DefineOwnProperty("prototype", value.DataProperty(value.FromObject(proto), false, false, false))
	proto.DefineOwnProperty("constructor", value.DataProperty(value.FromObject(ctor), true, false, true))

	h.method(proto, "add", 1, func(this value.Value, args []value.Value) (value.Value, *value.Completion) {
		m, c := thisMapData(h, this, "Set")
		if c != nil {
			return value.Value{}, c
		}
		v := arg(args, 0)
		m.Set(v, v)
		return this, nil
	})
	h.method(proto, "has", 1, func(this value.Value, args []value.Value) (value.Value, *value.Completion) {
		m, c := thisMapData(h, this, "Set")
		if c != nil {
			return value.Value{}, c
		}
		_, ok := m.Get(arg(args, 0))
		return value.Bool(ok), nil
	})
	h.method(proto, "delete", 1, func(this value.Value, args []value.Value) (value.Value, *value.Completion) {
		m, c := thisMapData(h, this, "Set")
		if c != nil {
			return value.Value{}, c
		}
		return value.Bool(m.Delete(arg(args, 0))), nil
	})
	h.method(proto, "clear", 0, func(this value.Value, args []value.Value) (value.Value, *value.Completion) {
		m, c := thisMapData(h, this, "Set")
		if c != nil {
			return value.Value{}, c
		}
		m.Clear()
		return value.Undefined(), nil
	})
	h.method(proto, "forEach", 1, func(this value.Value, args []value.Value) (value.Value, *value.Completion) {
		m, c := thisMapData(h, this, "Set")
		if c != nil {
			return value.Value{}, c
		}
		fn := arg(args, 0)
		thisArg := arg(args, 1)
		keys, _, deleted := m.Entries()
		for i := range keys {
			if deleted[i] {
				continue
			}
			if _, c := h.interp.CallFunction(fn, thisArg, []value.Value{keys[i], keys[i], this}); c != nil {
				return value.Value{}, c
			}
		}
		return value.Undefined(), nil
	})
	h.getter(proto, "size", func(this value.Value, args []value.Value) (value.Value, *value.Completion) {
		m, c := thisMapData(h, this, "Set")
		if c != nil {
			return value.Value{}, c
		}
		return value.Number(float64(m.Size())), nil
	})
	h.method(proto, "values", 0, func(this value.Value, args []value.Value) (value.Value, *value.Completion) {
		m, c := thisMapData(h, this, "Set")
		if c != nil {
			return value.Value{}, c
		}
		keys, _, deleted := m.Entries()
		return h.mapEntryIterator(keys, deleted, "values"), nil
	})
	keysFn, _ := proto.GetOwnProperty("values")
	proto.DefineOwnProperty("keys", keysFn)
	h.method(proto, "entries", 0, func(this value.Value, args []value.Value) (value.Value, *value.Completion) {
		m, c := thisMapData(h, this, "Set")
		if c != nil {
			return value.Value{}, c
		}
		keys, _, deleted := m.Entries()
		pairs := make([]value.Value, 0, len(keys))
		for i := range keys {
			if !deleted[i] {
				pairs = append(pairs, h.interp.NewArray([]value.Value{keys[i], keys[i]}))
			}
		}
		return h.mapEntryIterator(pairs, nil, "entries"), nil
	})
	if sym := h.realm.WellKnownSymbols["iterator"]; sym != nil {
		valuesFn, _ := proto.GetOwnProperty("values")
		proto.DefineOwnPropertySymbol(sym, valuesFn)
	}
	if sym := h.realm.WellKnownSymbols["toStringTag"]; sym != nil {
		proto.DefineOwnPropertySymbol(sym, value.DataProperty(value.StringFromGo("Set"), false, false, true))
	}

	h.realm.SetIntrinsic("Set", ctor)
}

func (h *host) installWeakMap() {
	proto := value.NewObject(h.realm.Intrinsic("Object.prototype"))
	proto.SetClass("WeakMap")
	h.realm.SetIntrinsic("WeakMap.prototype", proto)

	ctor := h.nativeFn("WeakMap", 0, func(_ value.Value, args []value.Value) (value.Value, *value.Completion) {
		return value.Value{}, h.realm.ThrowTypeError("Constructor WeakMap requires 'new'")
	})
	ctor.Construct = func(args []value.Value, newTarget *value.Object) (value.Value, *value.Completion) {
		obj := value.NewObject(proto)
		obj.SetClass("WeakMap")
		obj.MapData = value.NewOrderedMap(true)
		if iterable := arg(args, 0); !iterable.IsUndefined() && !iterable.IsNull() {
			entries, c := h.interp.IterableToSlice(iterable)
			if c != nil {
				return value.Value{}, c
			}
			for _, e := range entries {
				k, c := h.interp.GetProperty(e, "0")
				if c != nil {
					return value.Value{}, c
				}
				v, c := h.interp.GetProperty(e, "1")
				if c != nil {
					return value.Value{}, c
				}
				if k.Kind != value.KindObject {
					return value.Value{}, h.realm.ThrowTypeError("Invalid value used as weak map key")
				}
				obj.MapData.Set(k, v)
			}
		}
		return value.FromObject(obj), nil
	}
	ctor.DefineOwnProperty("prototype", value.DataProperty(value.FromObject(proto), false, false, false))
	proto.DefineOwnProperty("constructor", value.DataProperty(value.FromObject(ctor), true, false, true))

	h.method(proto, "get", 1, func(this value.Value, args []value.Value) (value.Value, *value.Completion) {
		m, c := thisMapData(h, this, "WeakMap")
		if c != nil {
			return value.Value{}, c
		}
		if v, ok := m.Get(arg(args, 0)); ok {
			return v, nil
		}
		return value.Undefined(), nil
	})
	h.method(proto, "set", 2, func(this value.Value, args []value.Value) (value.Value, *value.Completion) {
		m, c := thisMapData(h, this, "WeakMap")
		if c != nil {
			return value.Value{}, c
		}
		k := arg(args, 0)
		if k.Kind != value.KindObject {
			return value.Value{}, h.realm.ThrowTypeError("Invalid value used as weak map key")
		}
		m.Set(k, arg(args, 1))
		return this, nil
	})
	h.method(proto, "has", 1, func(this value.Value, args []value.Value) (value.Value, *value.Completion) {
		m, c := thisMapData(h, this, "WeakMap")
		if c != nil {
			return value.Value{}, c
		}
		_, ok := m.Get(arg(args, 0))
		return value.Bool(ok), nil
	})
	h.method(proto, "delete", 1, func(this value.Value, args []value.Value) (value.Value, *value.Completion) {
		m, c := thisMapData(h, this, "WeakMap")
		if c != nil {
			return value.Value{}, c
		}
		return value.Bool(m.Delete(arg(args, 0))), nil
	})
	if sym := h.realm.WellKnownSymbols["toStringTag"]; sym != nil {
		proto.DefineOwnPropertySymbol(sym, value.DataProperty(value.StringFromGo("WeakMap"), false, false, true))
	}

	h.realm.SetIntrinsic("WeakMap", ctor)
}

func (h *host) installWeakSet() {
	proto := value.NewObject(h.realm.Intrinsic("Object.prototype"))
	proto.SetClass("WeakSet")
	h.realm.SetIntrinsic("WeakSet.prototype", proto)

	ctor := h.nativeFn("WeakSet", 0, func(_ value.Value, args []value.Value) (value.Value, *value.Completion) {
		return value.Value{}, h.realm.ThrowTypeError("Constructor WeakSet requires 'new'")
	})
	ctor.Construct = func(args []value.Value, newTarget *value.Object) (value.Value, *value.Completion) {
		obj := value.NewObject(proto)
		obj.SetClass("WeakSet")
		obj.MapData = value.NewOrderedMap(true)
		if iterable := arg(args, 0); !iterable.IsUndefined() && !iterable.IsNull() {
			items, c := h.interp.IterableToSlice(iterable)
			if c != nil {
				return value.Value{}, c
			}
			for _, v := range items {
				if v.Kind != value.KindObject {
					return value.Value{}, h.realm.ThrowTypeError("Invalid value used in weak set")
				}
				obj.MapData.Set(v, v)
			}
		}
		return value.FromObject(obj), nil
	}
	ctor.DefineOwnProperty("prototype", value.DataProperty(value.FromObject(proto), false, false, false))
	proto.DefineOwnProperty("constructor", value.DataProperty(value.FromObject(ctor), true, false, true))

	h.method(proto, "add", 1, func(this value.Value, args []value.Value) (value.Value, *value.Completion) {
		m, c := thisMapData(h, this, "WeakSet")
		if c != nil {
			return value.Value{}, c
		}
		v := arg(args, 0)
		if v.Kind != value.KindObject {
			return value.Value{}, h.realm.ThrowTypeError("Invalid value used in weak set")
		}
		m.Set(v, v)
		return this, nil
	})
	h.method(proto, "has", 1, func(this value.Value, args []value.Value) (value.Value, *value.Completion) {
		m, c := thisMapData(h, this, "WeakSet")
		if c != nil {
			return value.Value{}, c
		}
		_, ok := m.Get(arg(args, 0))
		return value.Bool(ok), nil
	})
	h.method(proto, "delete", 1, func(this value.Value, args []value.Value) (value.Value, *value.Completion) {
		m, c := thisMapData(h, this, "WeakSet")
		if c != nil {
			return value.Value{}, c
		}
		return value.Bool(m.Delete(arg(args, 0))), nil
	})
	if sym := h.realm.WellKnownSymbols["toStringTag"]; sym != nil {
		proto.DefineOwnPropertySymbol(sym, value.DataProperty(value.StringFromGo("WeakSet"), false, false, true))
	}

	h.realm.SetIntrinsic("WeakSet", ctor)
}

func (h *host) installWeakRef() {
	proto := value.NewObject(h.realm.Intrinsic("Object.prototype"))
	proto.SetClass("WeakRef")
	h.realm.SetIntrinsic("WeakRef.prototype", proto)

	ctor := h.nativeFn("WeakRef", 1, func(_ value.Value, args []value.Value) (value.Value, *value.Completion) {
		return value.Value{}, h.realm.ThrowTypeError("Constructor WeakRef requires 'new'")
	})
	ctor.Construct = func(args []value.Value, newTarget *value.Object) (value.Value, *value.Completion) {
		target := arg(args, 0)
		if target.Kind != value.KindObject {
			return value.Value{}, h.realm.ThrowTypeError("WeakRef target must be an object")
		}
		obj := value.NewObject(proto)
		obj.SetClass("WeakRef")
		obj.WeakTarget = target.Obj
		return value.FromObject(obj), nil
	}
	ctor.DefineOwnProperty("prototype", value.DataProperty(value.FromObject(proto), false, false, false))
	proto.DefineOwnProperty("constructor", value.DataProperty(value.FromObject(ctor), true, false, true))

	h.method(proto, "deref", 0, func(this value.Value, args []value.Value) (value.Value, *value.Completion) {
		obj, c := thisObject(h, this)
		if c != nil {
			return value.Value{}, c
		}
		if obj.WeakTarget == nil {
			return value.Undefined(), nil
		}
		return value.FromObject(obj.WeakTarget), nil
	})
	if sym := h.realm.WellKnownSymbols["toStringTag"]; sym != nil {
		proto.DefineOwnPropertySymbol(sym, value.DataProperty(value.StringFromGo("WeakRef"), false, false, true))
	}

	h.realm.SetIntrinsic("WeakRef", ctor)

	h.installFinalizationRegistry()
}

func (h *host) installFinalizationRegistry() {
	proto := value.NewObject(h.realm.Intrinsic("Object.prototype"))
	proto.SetClass("FinalizationRegistry")
	h.realm.SetIntrinsic("FinalizationRegistry.prototype", proto)

	ctor := h.nativeFn("FinalizationRegistry", 1, func(_ value.Value, args []value.Value) (value.Value, *value.Completion) {
		return value.Value{}, h.realm.ThrowTypeError("Constructor FinalizationRegistry requires 'new'")
	})
	ctor.Construct = func(args []value.Value, newTarget *value.Object) (value.Value, *value.Completion) {
		cb := arg(args, 0)
		if !cb.IsCallable() {
			return value.Value{}, h.realm.ThrowTypeError("FinalizationRegistry callback must be a function")
		}
		obj := value.NewObject(proto)
		obj.SetClass("FinalizationRegistry")
		return value.FromObject(obj), nil
	}
	ctor.DefineOwnProperty("prototype", value.DataProperty(value.FromObject(proto), false, false, false))
	proto.DefineOwnProperty("constructor", value.DataProperty(value.FromObject(ctor), true, false, true))

	// This engine has no garbage collector observable from JS (Go's GC never
	// runs held-reference finalization deterministically enough to expose),
	// so register/unregister are accepted but the callback never fires --
	// documented non-goal, not a bug.
	h.method(proto, "register", 2, func(this value.Value, args []value.Value) (value.Value, *value.Completion) {
		if _, c := thisObject(h, this); c != nil {
			return value.Value{}, c
		}
		return value.Undefined(), nil
	})
	h.method(proto, "unregister", 1, func(this value.Value, args []value.Value) (value.Value, *value.Completion) {
		if _, c := thisObject(h, this); c != nil {
			return value.Value{}, c
		}
		return value.Bool(false), nil
	})

	h.realm.SetIntrinsic("FinalizationRegistry", ctor)
}
