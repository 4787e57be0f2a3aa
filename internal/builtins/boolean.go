package builtins

import "github.com/jsrun/jsengine/internal/value"

func (h *host) installBoolean() {
	proto := value.NewObject(h.realm.Intrinsic("Object.prototype"))
	proto.SetClass("Boolean")
	proto.PrimitiveData = value.Bool(false)
	h.realm.SetIntrinsic("Boolean.prototype", proto)

	ctor := h.nativeFn("Boolean", 1, func(_ value.Value, args []value.Value) (value.Value, *value.Completion) {
		return value.Bool(value.ToBoolean(arg(args, 0))), nil
	})
	ctor.Construct = func(args []value.Value, newTarget *value.Object) (value.Value, *value.Completion) {
		obj := value.NewObject(proto)
		obj.SetClass("Boolean")
		obj.PrimitiveData = value.Bool(value.ToBoolean(arg(args, 0)))
		return value.FromObject(obj), nil
	}
	ctor.DefineOwnProperty("prototype", value.DataProperty(value.FromObject(proto), false, false, false))
	proto.DefineOwnProperty("constructor", value.DataProperty(value.FromObject(ctor), true, false, true))

	h.method(proto, "toString", 0, func(this value.Value, args []value.Value) (value.Value, *value.Completion) {
		b, c := thisBooleanValue(h, this)
		if c != nil {
			return value.Value{}, c
		}
		if b {
			return value.StringFromGo("true"), nil
		}
		return value.StringFromGo("false"), nil
	})
	h.method(proto, "valueOf", 0, func(this value.Value, args []value.Value) (value.Value, *value.Completion) {
		b, c := thisBooleanValue(h, this)
		if c != nil {
			return value.Value{}, c
		}
		return value.Bool(b), nil
	})

	h.realm.SetIntrinsic("Boolean", ctor)
}

func thisBooleanValue(h *host, this value.Value) (bool, *value.Completion) {
	switch this.Kind {
	case value.KindBoolean:
		return this.Bool, nil
	case value.KindObject:
		if this.Obj.Class() == "Boolean" {
			return this.Obj.PrimitiveData.Bool, nil
		}
	}
	return false, h.realm.ThrowTypeError("Boolean.prototype method called on incompatible receiver")
}
