package builtins

import "github.com/jsrun/jsengine/internal/value"

func (h *host) installSymbol() {
	proto := value.NewObject(h.realm.Intrinsic("Object.prototype"))
	proto.SetClass("Symbol")
	h.realm.SetIntrinsic("Symbol.prototype", proto)

	ctor := h.nativeFn("Symbol", 0, func(_ value.Value, args []value.Value) (value.Value, *value.Completion) {
		sym := &value.Symbol{}
		if d := arg(args, 0); !d.IsUndefined() {
			s, c := h.interp.ToStringValue(d)
			if c != nil {
				return value.Value{}, c
			}
			sym.Description = s2(s)
			sym.HasDesc = true
		}
		return value.FromSymbol(sym), nil
	})
	ctor.Construct = func(args []value.Value, newTarget *value.Object) (value.Value, *value.Completion) {
		return value.Value{}, h.realm.ThrowTypeError("Symbol is not a constructor")
	}
	ctor.DefineOwnProperty("prototype", value.DataProperty(value.FromObject(proto), false, false, false))
	proto.DefineOwnProperty("constructor", value.DataProperty(value.FromObject(ctor), true, false, true))

	for name, sym := range h.realm.WellKnownSymbols {
		ctor.DefineOwnProperty(name, value.DataProperty(value.FromSymbol(sym), false, false, false))
	}

	h.staticMethod(ctor, "for", 1, func(_ value.Value, args []value.Value) (value.Value, *value.Completion) {
		s, c := h.interp.ToStringValue(arg(args, 0))
		if c != nil {
			return value.Value{}, c
		}
		key := s2(s)
		if sym, ok := h.realm.SymbolRegistry[key]; ok {
			return value.FromSymbol(sym), nil
		}
		sym := &value.Symbol{Description: key, HasDesc: true}
		h.realm.SymbolRegistry[key] = sym
		return value.FromSymbol(sym), nil
	})
	h.staticMethod(ctor, "keyFor", 1, func(_ value.Value, args []value.Value) (value.Value, *value.Completion) {
		v := arg(args, 0)
		if v.Kind != value.KindSymbol {
			return value.Value{}, h.realm.ThrowTypeError("Symbol.keyFor argument must be a symbol")
		}
		for key, sym := range h.realm.SymbolRegistry {
			if sym == v.Sym {
				return value.StringFromGo(key), nil
			}
		}
		return value.Undefined(), nil
	})

	h.method(proto, "toString", 0, func(this value.Value, args []value.Value) (value.Value, *value.Completion) {
		sym, c := thisSymbolValue(h, this)
		if c != nil {
			return value.Value{}, c
		}
		return value.StringFromGo(describeSymbol(sym)), nil
	})
	h.method(proto, "valueOf", 0, func(this value.Value, args []value.Value) (value.Value, *value.Completion) {
		sym, c := thisSymbolValue(h, this)
		if c != nil {
			return value.Value{}, c
		}
		return value.FromSymbol(sym), nil
	})
	h.getter(proto, "description", func(this value.Value, args []value.Value) (value.Value, *value.Completion) {
		sym, c := thisSymbolValue(h, this)
		if c != nil {
			return value.Value{}, c
		}
		if !sym.HasDesc {
			return value.Undefined(), nil
		}
		return value.StringFromGo(sym.Description), nil
	})

	h.realm.SetIntrinsic("Symbol", ctor)
}

func thisSymbolValue(h *host, this value.Value) (*value.Symbol, *value.Completion) {
	switch this.Kind {
	case value.KindSymbol:
		return this.Sym, nil
	case value.KindObject:
		if this.Obj.Class() == "Symbol" {
			return this.Obj.PrimitiveData.Sym, nil
		}
	}
	return nil, h.realm.ThrowTypeError("Symbol.prototype method called on incompatible receiver")
}
