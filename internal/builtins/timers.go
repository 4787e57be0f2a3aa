package builtins

import (
	"time"

	"github.com/jsrun/jsengine/internal/value"
)

// installTimers wires setTimeout/setInterval/clearTimeout/clearInterval/
// queueMicrotask onto the global object, delegating the actual scheduling to
// internal/eventloop.Loop -- the callback closes over the JS function and
// extra arguments the way a real host environment's timer queue does.
func (h *host) installTimers() {
	global := h.realm.GlobalObject

	defineGlobal := func(name string, length int, fn value.CallFunc) {
		global.DefineOwnProperty(name, value.DataProperty(value.FromObject(h.nativeFn(name, length, fn)), true, false, true))
	}

	schedule := func(repeats bool) value.CallFunc {
		return func(_ value.Value, args []value.Value) (value.Value, *value.Completion) {
			callback := arg(args, 0)
			if !callback.IsCallable() {
				return value.Value{}, h.realm.ThrowTypeError("callback is not a function")
			}
			delayMs := 0.0
			if len(args) > 1 {
				n, c := h.interp.ToNumberValue(args[1])
				if c != nil {
					return value.Value{}, c
				}
				delayMs = n
			}
			if delayMs < 0 {
				delayMs = 0
			}
			extra := append([]value.Value(nil), args[minInt(2, len(args)):]...)
			id := h.loop.SetTimer(time.Duration(delayMs*float64(time.Millisecond)), repeats, func() {
				h.interp.CallFunction(callback, value.Undefined(), extra)
			})
			return value.Number(float64(id)), nil
		}
	}

	defineGlobal("setTimeout", 1, schedule(false))
	defineGlobal("setInterval", 1, schedule(true))

	clear := func(_ value.Value, args []value.Value) (value.Value, *value.Completion) {
		n, c := h.interp.ToNumberValue(arg(args, 0))
		if c != nil {
			return value.Value{}, c
		}
		h.loop.ClearTimer(uint32(n))
		return value.Undefined(), nil
	}
	defineGlobal("clearTimeout", 1, clear)
	defineGlobal("clearInterval", 1, clear)

	defineGlobal("queueMicrotask", 1, func(_ value.Value, args []value.Value) (value.Value, *value.Completion) {
		callback := arg(args, 0)
		if !callback.IsCallable() {
			return value.Value{}, h.realm.ThrowTypeError("callback is not a function")
		}
		h.loop.QueueMicrotask(func() {
			h.interp.CallFunction(callback, value.Undefined(), nil)
		})
		return value.Undefined(), nil
	})

	defineGlobal("setImmediate", 1, func(_ value.Value, args []value.Value) (value.Value, *value.Completion) {
		callback := arg(args, 0)
		if !callback.IsCallable() {
			return value.Value{}, h.realm.ThrowTypeError("callback is not a function")
		}
		extra := append([]value.Value(nil), args[minInt(1, len(args)):]...)
		id := h.loop.SetTimer(0, false, func() {
			h.interp.CallFunction(callback, value.Undefined(), extra)
		})
		return value.Number(float64(id)), nil
	})
	defineGlobal("clearImmediate", 1, clear)
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
