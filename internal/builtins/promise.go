package builtins

import "github.com/jsrun/jsengine/internal/value"

func (h *host) installPromise() {
	proto := value.NewObject(h.realm.Intrinsic("Object.prototype"))
	proto.SetClass("Promise")
	h.realm.SetIntrinsic("Promise.prototype", proto)

	ctor := h.nativeFn("Promise", 1, func(_ value.Value, args []value.Value) (value.Value, *value.Completion) {
		return value.Value{}, h.realm.ThrowTypeError("Promise constructor cannot be invoked without 'new'")
	})
	ctor.Construct = func(args []value.Value, newTarget *value.Object) (value.Value, *value.Completion) {
		executor := arg(args, 0)
		if !executor.IsCallable() {
			return value.Value{}, h.realm.ThrowTypeError("Promise resolver is not a function")
		}
		p := h.interp.NewPromiseObject()
		resolveFn := h.nativeFn("", 1, func(_ value.Value, rargs []value.Value) (value.Value, *value.Completion) {
			h.interp.ResolvePromise(p, arg(rargs, 0))
			return value.Undefined(), nil
		})
		rejectFn := h.nativeFn("", 1, func(_ value.Value, rargs []value.Value) (value.Value, *value.Completion) {
			h.interp.RejectPromise(p, arg(rargs, 0))
			return value.Undefined(), nil
		})
		_, c := h.interp.CallFunction(executor, value.Undefined(), []value.Value{value.FromObject(resolveFn), value.FromObject(rejectFn)})
		if c != nil {
			h.interp.RejectPromise(p, c.Value)
		}
		return value.FromObject(p), nil
	}
	ctor.DefineOwnProperty("prototype", value.DataProperty(value.FromObject(proto), false, false, false))
	proto.DefineOwnProperty("constructor", value.DataProperty(value.FromObject(ctor), true, false, true))

	h.method(proto, "then", 2, func(this value.Value, args []value.Value) (value.Value, *value.Completion) {
		obj, c := thisPromise(h, this)
		if c != nil {
			return value.Value{}, c
		}
		result := h.interp.PromiseThen(obj, arg(args, 0), arg(args, 1))
		return value.FromObject(result), nil
	})
	h.method(proto, "catch", 1, func(this value.Value, args []value.Value) (value.Value, *value.Completion) {
		then, c := h.interp.GetProperty(this, "then")
		if c != nil {
			return value.Value{}, c
		}
		return h.interp.CallFunction(then, this, []value.Value{value.Undefined(), arg(args, 0)})
	})
	h.method(proto, "finally", 1, func(this value.Value, args []value.Value) (value.Value, *value.Completion) {
		onFinally := arg(args, 0)
		then, c := h.interp.GetProperty(this, "then")
		if c != nil {
			return value.Value{}, c
		}
		if !onFinally.IsCallable() {
			return h.interp.CallFunction(then, this, []value.Value{onFinally, onFinally})
		}
		wrapFulfill := h.nativeFn("", 1, func(_ value.Value, fargs []value.Value) (value.Value, *value.Completion) {
			v := arg(fargs, 0)
			_, c := h.interp.CallFunction(onFinally, value.Undefined(), nil)
			if c != nil {
				return value.Value{}, c
			}
			return v, nil
		})
		wrapReject := h.nativeFn("", 1, func(_ value.Value, fargs []value.Value) (value.Value, *value.Completion) {
			reason := arg(fargs, 0)
			_, c := h.interp.CallFunction(onFinally, value.Undefined(), nil)
			if c != nil {
				return value.Value{}, c
			}
			return value.Value{}, value.Throw(reason)
		})
		return h.interp.CallFunction(then, this, []value.Value{value.FromObject(wrapFulfill), value.FromObject(wrapReject)})
	})

	h.staticMethod(ctor, "resolve", 1, func(_ value.Value, args []value.Value) (value.Value, *value.Completion) {
		v := arg(args, 0)
		if v.IsObject() && v.Obj.Exotic == value.ExoticPromise {
			return v, nil
		}
		return value.FromObject(h.interp.PromiseResolveValue(v)), nil
	})
	h.staticMethod(ctor, "reject", 1, func(_ value.Value, args []value.Value) (value.Value, *value.Completion) {
		p := h.interp.NewPromiseObject()
		h.interp.RejectPromise(p, arg(args, 0))
		return value.FromObject(p), nil
	})
	h.staticMethod(ctor, "all", 1, func(_ value.Value, args []value.Value) (value.Value, *value.Completion) {
		return h.promiseCombinator(arg(args, 0), combineAll)
	})
	h.staticMethod(ctor, "allSettled", 1, func(_ value.Value, args []value.Value) (value.Value, *value.Completion) {
		return h.promiseCombinator(arg(args, 0), combineAllSettled)
	})
	h.staticMethod(ctor, "race", 1, func(_ value.Value, args []value.Value) (value.Value, *value.Completion) {
		return h.promiseCombinator(arg(args, 0), combineRace)
	})
	h.staticMethod(ctor, "any", 1, func(_ value.Value, args []value.Value) (value.Value, *value.Completion) {
		return h.promiseCombinator(arg(args, 0), combineAny)
	})
	if h.caps.PromiseTry {
		h.staticMethod(ctor, "try", 1, func(_ value.Value, args []value.Value) (value.Value, *value.Completion) {
			fn := arg(args, 0)
			p := h.interp.NewPromiseObject()
			r, c := h.interp.CallFunction(fn, value.Undefined(), rest(args, 1))
			if c != nil {
				h.interp.RejectPromise(p, c.Value)
			} else {
				h.interp.ResolvePromise(p, r)
			}
			return value.FromObject(p), nil
		})
	}
	if h.caps.PromiseWithResolvers {
		h.staticMethod(ctor, "withResolvers", 0, func(_ value.Value, args []value.Value) (value.Value, *value.Completion) {
			p := h.interp.NewPromiseObject()
			resolveFn := h.nativeFn("", 1, func(_ value.Value, rargs []value.Value) (value.Value, *value.Completion) {
				h.interp.ResolvePromise(p, arg(rargs, 0))
				return value.Undefined(), nil
			})
			rejectFn := h.nativeFn("", 1, func(_ value.Value, rargs []value.Value) (value.Value, *value.Completion) {
				h.interp.RejectPromise(p, arg(rargs, 0))
				return value.Undefined(), nil
			})
			obj := h.realm.NewObject()
			obj.DefineOwnProperty("promise", value.DataProperty(value.FromObject(p), true, true, true))
			obj.DefineOwnProperty("resolve", value.DataProperty(value.FromObject(resolveFn), true, true, true))
			obj.DefineOwnProperty("reject", value.DataProperty(value.FromObject(rejectFn), true, true, true))
			return value.FromObject(obj), nil
		})
	}

	if sym := h.realm.WellKnownSymbols["toStringTag"]; sym != nil {
		proto.DefineOwnPropertySymbol(sym, value.DataProperty(value.StringFromGo("Promise"), false, false, true))
	}

	h.realm.SetIntrinsic("Promise", ctor)
}

func thisPromise(h *host, this value.Value) (*value.Object, *value.Completion) {
	if this.IsObject() && this.Obj.Exotic == value.ExoticPromise {
		return this.Obj, nil
	}
	return nil, h.realm.ThrowTypeError("Promise.prototype method called on non-Promise receiver")
}

type combinatorKind int

const (
	combineAll combinatorKind = iota
	combineAllSettled
	combineRace
	combineAny
)

// promiseCombinator drives Promise.all/allSettled/race/any off one shared
// counter-and-results-array loop, the way Array.prototype's find/findIndex
// pair share arrayFind: the four combinators differ only in what happens on
// each element's settlement and on the overall-completion check.
func (h *host) promiseCombinator(iterable value.Value, kind combinatorKind) (value.Value, *value.Completion) {
	resultPromise := h.interp.NewPromiseObject()
	items, c := h.interp.IterableToSlice(iterable)
	if c != nil {
		h.interp.RejectPromise(resultPromise, c.Value)
		return value.FromObject(resultPromise), nil
	}
	if len(items) == 0 {
		switch kind {
		case combineAll, combineAllSettled:
			h.interp.ResolvePromise(resultPromise, h.interp.NewArray(nil))
		case combineRace:
			// stays pending forever, matching the spec
		case combineAny:
			h.interp.RejectPromise(resultPromise, value.FromObject(h.realm.NewError("AggregateError", "All promises were rejected")))
		}
		return value.FromObject(resultPromise), nil
	}

	results := make([]value.Value, len(items))
	errors := make([]value.Value, len(items))
	remaining := len(items)
	settled := false

	for i, item := range items {
		i := i
		p := h.interp.PromiseResolveValue(item)
		onFulfilled := h.nativeFn("", 1, func(_ value.Value, args []value.Value) (value.Value, *value.Completion) {
			v := arg(args, 0)
			switch kind {
			case combineAll:
				results[i] = v
				remaining--
				if remaining == 0 && !settled {
					settled = true
					h.interp.ResolvePromise(resultPromise, h.interp.NewArray(results))
				}
			case combineAllSettled:
				o := h.realm.NewObject()
				o.DefineOwnProperty("status", value.DataProperty(value.StringFromGo("fulfilled"), true, true, true))
				o.DefineOwnProperty("value", value.DataProperty(v, true, true, true))
				results[i] = value.FromObject(o)
				remaining--
				if remaining == 0 && !settled {
					settled = true
					h.interp.ResolvePromise(resultPromise, h.interp.NewArray(results))
				}
			case combineRace:
				if !settled {
					settled = true
					h.interp.ResolvePromise(resultPromise, v)
				}
			case combineAny:
				if !settled {
					settled = true
					h.interp.ResolvePromise(resultPromise, v)
				}
			}
			return value.Undefined(), nil
		})
		onRejected := h.nativeFn("", 1, func(_ value.Value, args []value.Value) (value.Value, *value.Completion) {
			reason := arg(args, 0)
			switch kind {
			case combineAll:
				if !settled {
					settled = true
					h.interp.RejectPromise(resultPromise, reason)
				}
			case combineAllSettled:
				o := h.realm.NewObject()
				o.DefineOwnProperty("status", value.DataProperty(value.StringFromGo("rejected"), true, true, true))
				o.DefineOwnProperty("reason", value.DataProperty(reason, true, true, true))
				results[i] = value.FromObject(o)
				remaining--
				if remaining == 0 && !settled {
					settled = true
					h.interp.ResolvePromise(resultPromise, h.interp.NewArray(results))
				}
			case combineRace:
				if !settled {
					settled = true
					h.interp.RejectPromise(resultPromise, reason)
				}
			case combineAny:
				errors[i] = reason
				remaining--
				if remaining == 0 && !settled {
					settled = true
					agg := h.realm.NewError("AggregateError", "All promises were rejected")
					agg.DefineOwnProperty("errors", value.DataProperty(h.interp.NewArray(errors), true, false, true))
					h.interp.RejectPromise(resultPromise, value.FromObject(agg))
				}
			}
			return value.Undefined(), nil
		})
		h.interp.PromiseThen(p, value.FromObject(onFulfilled), value.FromObject(onRejected))
	}
	return value.FromObject(resultPromise), nil
}
