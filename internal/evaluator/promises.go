package evaluator

import "github.com/jsrun/jsengine/internal/value"

// newPromiseObject allocates a pending promise (spec's CreatePendingPromise /
// part of NewPromiseCapability), used both by `new Promise(executor)` and
// internally by await/async-function machinery before the full Promise
// global is wired up in internal/builtins.
func (it *Interpreter) newPromiseObject() *value.Object {
	p := value.NewObject(it.Realm.Intrinsic("Promise.prototype"))
	p.SetClass("Promise")
	p.Exotic = value.ExoticPromise
	p.Promise = &value.PromiseState{State: "pending"}
	return p
}

// resolvePromise implements spec's ResolvePromise: a thenable is adopted
// (its settlement now drives this promise's), anything else fulfills
// directly.
func (it *Interpreter) resolvePromise(p *value.Object, resolution value.Value) {
	state := p.Promise
	if state.AlreadyResolved {
		return
	}
	state.AlreadyResolved = true

	if resolution.Obj == p {
		it.rejectPromise(p, value.FromObject(it.Realm.NewError("TypeError", "Chaining cycle detected for promise")))
		return
	}
	if resolution.IsObject() {
		thenVal, c := it.getProperty(resolution, "then")
		if c != nil {
			it.fulfillOrReject(p, false, c.Value)
			return
		}
		if thenVal.IsCallable() {
			it.Loop.QueueMicrotask(func() {
				_, c := thenVal.Obj.Call(resolution, []value.Value{
					it.nativeFunc(func(_ value.Value, args []value.Value) (value.Value, *value.Completion) {
						it.resolvePromise(p, argOrUndefined(args, 0))
						return value.Undefined(), nil
					}),
					it.nativeFunc(func(_ value.Value, args []value.Value) (value.Value, *value.Completion) {
						it.rejectPromiseNow(p, argOrUndefined(args, 0))
						return value.Undefined(), nil
					}),
				})
				if c != nil {
					it.rejectPromiseNow(p, c.Value)
				}
			})
			return
		}
	}
	it.fulfillPromiseNow(p, resolution)
}

func (it *Interpreter) fulfillOrReject(p *value.Object, fulfill bool, v value.Value) {
	if fulfill {
		it.fulfillPromiseNow(p, v)
	} else {
		it.rejectPromiseNow(p, v)
	}
}

func (it *Interpreter) rejectPromise(p *value.Object, reason value.Value) {
	if p.Promise.AlreadyResolved {
		return
	}
	p.Promise.AlreadyResolved = true
	it.rejectPromiseNow(p, reason)
}

func (it *Interpreter) fulfillPromiseNow(p *value.Object, v value.Value) {
	state := p.Promise
	reactions := state.FulfillReactions
	state.State = "fulfilled"
	state.Result = v
	state.FulfillReactions = nil
	state.RejectReactions = nil
	it.triggerReactions(reactions, v)
}

func (it *Interpreter) rejectPromiseNow(p *value.Object, reason value.Value) {
	state := p.Promise
	reactions := state.RejectReactions
	state.State = "rejected"
	state.Result = reason
	state.FulfillReactions = nil
	state.RejectReactions = nil
	it.triggerReactions(reactions, reason)
}

func (it *Interpreter) triggerReactions(reactions []*value.PromiseReaction, v value.Value) {
	for _, r := range reactions {
		r := r
		it.Loop.QueueMicrotask(func() { it.runReaction(r, v) })
	}
}

func (it *Interpreter) runReaction(r *value.PromiseReaction, v value.Value) {
	var result value.Value
	var completion *value.Completion
	switch r.HandlerKind {
	case "Identity":
		result = v
	case "Thrower":
		completion = value.Throw(v)
	default:
		result, completion = r.Handler.Obj.Call(value.Undefined(), []value.Value{v})
	}
	if r.Capability == nil {
		return
	}
	if completion != nil {
		it.rejectPromise(r.Capability.Promise, completion.Value)
		return
	}
	it.resolvePromise(r.Capability.Promise, result)
}

// promiseThen implements PerformPromiseThen, returning the derived promise.
func (it *Interpreter) promiseThen(p *value.Object, onFulfilled, onRejected value.Value) *value.Object {
	derived := it.newPromiseObject()
	cap := &value.PromiseCapability{Promise: derived}

	fulfillReaction := &value.PromiseReaction{Capability: cap, Handler: onFulfilled, HandlerKind: "Identity"}
	if onFulfilled.IsCallable() {
		fulfillReaction.HandlerKind = ""
	}
	rejectReaction := &value.PromiseReaction{Capability: cap, Handler: onRejected, HandlerKind: "Thrower"}
	if onRejected.IsCallable() {
		rejectReaction.HandlerKind = ""
	}

	state := p.Promise
	switch state.State {
	case "pending":
		state.FulfillReactions = append(state.FulfillReactions, fulfillReaction)
		state.RejectReactions = append(state.RejectReactions, rejectReaction)
	case "fulfilled":
		it.triggerReactions([]*value.PromiseReaction{fulfillReaction}, state.Result)
	case "rejected":
		it.triggerReactions([]*value.PromiseReaction{rejectReaction}, state.Result)
	}
	state.IsHandled = true
	return derived
}

// nativeFunc wraps a Go closure as a callable object with no [[Construct]],
// the shape every internal native helper (resolve/reject functions, etc.)
// and eventually every internal/builtins export uses.
func (it *Interpreter) nativeFunc(fn value.CallFunc) value.Value {
	obj := value.NewObject(it.Realm.Intrinsic("Function.prototype"))
	obj.SetClass("Function")
	obj.Exotic = value.ExoticFunction
	obj.Call = fn
	return value.FromObject(obj)
}

func argOrUndefined(args []value.Value, i int) value.Value {
	if i < len(args) {
		return args[i]
	}
	return value.Undefined()
}

// awaitValue implements spec's Await: wrap v as a promise if it isn't one,
// then — since this engine drives async function bodies synchronously
// rather than suspending a real continuation — pump the microtask queue and
// due timers until it settles. This is a deliberate simplification: it gives
// correct results for the overwhelming majority of sequential-await
// programs at the cost of not interleaving an awaiting function's remaining
// work with unrelated macrotasks the way a true suspend/resume would.
func (it *Interpreter) awaitValue(v value.Value) (value.Value, *value.Completion) {
	p := it.promiseResolveValue(v)
	for p.Promise.State == "pending" {
		it.Loop.DrainMicrotasks()
		if p.Promise.State != "pending" {
			break
		}
		if !it.Loop.RunOnce() {
			break
		}
	}
	if p.Promise.State == "rejected" {
		return value.Value{}, value.Throw(p.Promise.Result)
	}
	if p.Promise.State == "fulfilled" {
		return p.Promise.Result, nil
	}
	return value.Undefined(), nil
}

// promiseResolveValue implements spec's PromiseResolve: return v unchanged
// if it's already a promise from this realm, otherwise wrap it.
func (it *Interpreter) promiseResolveValue(v value.Value) *value.Object {
	if v.IsObject() && v.Obj.Exotic == value.ExoticPromise && v.Obj.Promise != nil {
		return v.Obj
	}
	p := it.newPromiseObject()
	it.resolvePromise(p, v)
	return p
}
