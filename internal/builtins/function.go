package builtins

import (
	"github.com/jsrun/jsengine/internal/helpers"
	"github.com/jsrun/jsengine/internal/value"
)

// installFunction sets up Function.prototype and the Function constructor
// first, since every other constructor built afterward needs
// Intrinsic("Function.prototype") to hang its own Call object's [[Prototype]]
// off of.
func (h *host) installFunction() {
	proto := value.NewObject(nil) // wired to Object.prototype once installObject runs
	proto.SetClass("Function")
	proto.Call = func(value.Value, []value.Value) (value.Value, *value.Completion) { return value.Undefined(), nil }
	h.realm.SetIntrinsic("Function.prototype", proto)

	h.method(proto, "call", 1, func(this value.Value, args []value.Value) (value.Value, *value.Completion) {
		if !this.IsCallable() {
			return value.Value{}, h.realm.ThrowTypeError("Function.prototype.call called on non-callable")
		}
		return this.Obj.Call(arg(args, 0), rest(args, 1))
	})
	h.method(proto, "apply", 2, func(this value.Value, args []value.Value) (value.Value, *value.Completion) {
		if !this.IsCallable() {
			return value.Value{}, h.realm.ThrowTypeError("Function.prototype.apply called on non-callable")
		}
		argArray := arg(args, 1)
		var callArgs []value.Value
		if !argArray.IsNullish() {
			slice, c := h.arrayLikeToSlice(argArray)
			if c != nil {
				return value.Value{}, c
			}
			callArgs = slice
		}
		return this.Obj.Call(arg(args, 0), callArgs)
	})
	h.method(proto, "bind", 1, func(this value.Value, args []value.Value) (value.Value, *value.Completion) {
		if !this.IsCallable() {
			return value.Value{}, h.realm.ThrowTypeError("Function.prototype.bind called on non-callable")
		}
		target := this.Obj
		boundThis := arg(args, 0)
		boundArgs := append([]value.Value{}, rest(args, 1)...)
		bound := value.NewObject(h.realm.Intrinsic("Function.prototype"))
		bound.SetClass("Function")
		bound.Exotic = value.ExoticBoundFunction
		bound.BoundTarget = target
		bound.BoundThis = boundThis
		bound.BoundArgs = boundArgs
		bound.Call = func(_ value.Value, callArgs []value.Value) (value.Value, *value.Completion) {
			return target.Call(boundThis, append(append([]value.Value{}, boundArgs...), callArgs...))
		}
		if target.Construct != nil {
			bound.Construct = func(callArgs []value.Value, newTarget *value.Object) (value.Value, *value.Completion) {
				return target.Construct(append(append([]value.Value{}, boundArgs...), callArgs...), newTarget)
			}
		}
		name := "bound "
		if n, ok := target.GetOwnProperty("name"); ok && n.HasValue && n.Value.Kind == value.KindString {
			name += helpers.UTF16ToString(n.Value.Str)
		}
		bound.DefineOwnProperty("name", value.DataProperty(value.StringFromGo(name), false, false, true))
		return value.FromObject(bound), nil
	})
	h.method(proto, "toString", 0, func(this value.Value, args []value.Value) (value.Value, *value.Completion) {
		name := "anonymous"
		if this.IsObject() {
			if n, ok := this.Obj.GetOwnProperty("name"); ok && n.HasValue && n.Value.Kind == value.KindString {
				name = helpers.UTF16ToString(n.Value.Str)
			}
		}
		return value.StringFromGo("function " + name + "() { [native code] }"), nil
	})
	h.getter(proto, "length", func(this value.Value, args []value.Value) (value.Value, *value.Completion) {
		if this.IsObject() {
			if n, ok := this.Obj.GetOwnProperty("length"); ok && n.HasValue {
				return n.Value, nil
			}
		}
		return value.Number(0), nil
	})

	ctor := h.nativeFn("Function", 1, func(_ value.Value, args []value.Value) (value.Value, *value.Completion) {
		return value.Value{}, h.realm.ThrowTypeError("Function constructor from source text is not supported")
	})
	ctor.Construct = func(args []value.Value, newTarget *value.Object) (value.Value, *value.Completion) {
		return value.Value{}, h.realm.ThrowTypeError("Function constructor from source text is not supported")
	}
	ctor.DefineOwnProperty("prototype", value.DataProperty(value.FromObject(proto), false, false, false))
	proto.DefineOwnProperty("constructor", value.DataProperty(value.FromObject(ctor), true, false, true))
	h.realm.SetIntrinsic("Function", ctor)
}

func rest(args []value.Value, from int) []value.Value {
	if from >= len(args) {
		return nil
	}
	return args[from:]
}
