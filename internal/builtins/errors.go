package builtins

import (
	"github.com/jsrun/jsengine/internal/helpers"
	"github.com/jsrun/jsengine/internal/value"
)

var errorKinds = []string{"TypeError", "RangeError", "ReferenceError", "SyntaxError", "EvalError", "URIError"}

// installErrors wires Error and its native subtypes. Each subtype's
// prototype chains to Error.prototype, and each subtype constructor chains
// to Error itself, matching the %Error.prototype% / %NativeError% layout
// Realm.NewError already assumes (Intrinsic(kind + ".prototype")).
func (h *host) installErrors() {
	errorProto := value.NewObject(h.realm.Intrinsic("Object.prototype"))
	errorProto.SetClass("Error")
	errorProto.DefineOwnProperty("name", value.DataProperty(value.StringFromGo("Error"), true, false, true))
	errorProto.DefineOwnProperty("message", value.DataProperty(value.StringFromGo(""), true, false, true))
	h.method(errorProto, "toString", 0, func(this value.Value, args []value.Value) (value.Value, *value.Completion) {
		if _, c := thisObject(h, this); c != nil {
			return value.Value{}, c
		}
		name := "Error"
		message := ""
		if n, c2 := h.interp.GetProperty(this, "name"); c2 == nil && !n.IsUndefined() {
			if s, c3 := h.interp.ToStringValue(n); c3 == nil {
				name = helpers.UTF16ToString(s)
			}
		}
		if m, c2 := h.interp.GetProperty(this, "message"); c2 == nil && !m.IsUndefined() {
			if s, c3 := h.interp.ToStringValue(m); c3 == nil {
				message = helpers.UTF16ToString(s)
			}
		}
		if name == "" {
			return value.StringFromGo(message), nil
		}
		if message == "" {
			return value.StringFromGo(name), nil
		}
		return value.StringFromGo(name + ": " + message), nil
	})
	h.realm.SetIntrinsic("Error.prototype", errorProto)

	errorCtor := h.errorConstructor("Error", errorProto)
	h.realm.SetIntrinsic("Error", errorCtor)

	for _, kind := range errorKinds {
		proto := value.NewObject(errorProto)
		proto.SetClass("Error")
		proto.DefineOwnProperty("name", value.DataProperty(value.StringFromGo(kind), true, false, true))
		proto.DefineOwnProperty("message", value.DataProperty(value.StringFromGo(""), true, false, true))
		h.realm.SetIntrinsic(kind+".prototype", proto)
		ctor := h.errorConstructor(kind, proto)
		ctor.Proto = errorCtor
		h.realm.SetIntrinsic(kind, ctor)
	}

	aggProto := value.NewObject(errorProto)
	aggProto.SetClass("Error")
	aggProto.DefineOwnProperty("name", value.DataProperty(value.StringFromGo("AggregateError"), true, false, true))
	aggProto.DefineOwnProperty("message", value.DataProperty(value.StringFromGo(""), true, false, true))
	h.realm.SetIntrinsic("AggregateError.prototype", aggProto)
	aggCtor := h.nativeFn("AggregateError", 2, func(_ value.Value, args []value.Value) (value.Value, *value.Completion) {
		return h.constructAggregateError(args)
	})
	aggCtor.Construct = func(args []value.Value, newTarget *value.Object) (value.Value, *value.Completion) {
		return h.constructAggregateError(args)
	}
	aggCtor.Proto = errorCtor
	aggCtor.DefineOwnProperty("prototype", value.DataProperty(value.FromObject(aggProto), false, false, false))
	aggProto.DefineOwnProperty("constructor", value.DataProperty(value.FromObject(aggCtor), true, false, true))
	h.realm.SetIntrinsic("AggregateError", aggCtor)
}

func (h *host) constructAggregateError(args []value.Value) (value.Value, *value.Completion) {
	errorsList, c := h.interp.IterableToSlice(arg(args, 0))
	if c != nil {
		return value.Value{}, c
	}
	obj := value.NewObject(h.realm.Intrinsic("AggregateError.prototype"))
	obj.SetClass("Error")
	if msg := arg(args, 1); !msg.IsUndefined() {
		s, c := h.interp.ToStringValue(msg)
		if c != nil {
			return value.Value{}, c
		}
		obj.DefineOwnProperty("message", value.DataProperty(value.StringFromUTF16(s), true, false, true))
	}
	obj.DefineOwnProperty("errors", value.DataProperty(h.interp.NewArray(errorsList), true, false, true))
	return value.FromObject(obj), nil
}

func (h *host) errorConstructor(kind string, proto *value.Object) *value.Object {
	build := func(args []value.Value) (value.Value, *value.Completion) {
		obj := value.NewObject(proto)
		obj.SetClass("Error")
		if msg := arg(args, 0); !msg.IsUndefined() {
			s, c := h.interp.ToStringValue(msg)
			if c != nil {
				return value.Value{}, c
			}
			obj.DefineOwnProperty("message", value.DataProperty(value.StringFromUTF16(s), true, false, true))
		}
		if opts := arg(args, 1); opts.IsObject() {
			if cause, c := h.interp.GetProperty(opts, "cause"); c == nil {
				if _, ok := opts.Obj.GetOwnProperty("cause"); ok {
					obj.DefineOwnProperty("cause", value.DataProperty(cause, true, false, true))
				}
			}
		}
		obj.DefineOwnProperty("stack", value.DataProperty(value.StringFromGo(kind+" at <anonymous>"), true, false, true))
		return value.FromObject(obj), nil
	}
	ctor := h.nativeFn(kind, 1, func(_ value.Value, args []value.Value) (value.Value, *value.Completion) {
		return build(args)
	})
	ctor.Construct = func(args []value.Value, newTarget *value.Object) (value.Value, *value.Completion) {
		return build(args)
	}
	ctor.DefineOwnProperty("prototype", value.DataProperty(value.FromObject(proto), false, false, false))
	proto.DefineOwnProperty("constructor", value.DataProperty(value.FromObject(ctor), true, false, true))
	return ctor
}
