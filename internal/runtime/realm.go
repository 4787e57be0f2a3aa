package runtime

import "github.com/jsrun/jsengine/internal/value"

// Realm bundles one complete set of intrinsics, the global object/
// environment, and the symbol registry spec §9 asks for. It is constructed
// explicitly (never a package-level singleton) so a host embedding the
// engine can run multiple isolated realms in one process, the way a
// browser's multiple same-process frames or a conformance harness's
// `$262.createRealm` do.
type Realm struct {
	GlobalObject *value.Object
	GlobalEnv    *Environment

	Intrinsics map[string]*value.Object

	// SymbolRegistry backs Symbol.for/Symbol.keyFor — a single process-wide
	// table per realm, per spec.
	SymbolRegistry map[string]*value.Symbol

	WellKnownSymbols map[string]*value.Symbol

	// WeakRefs/FinalizationRegistries recorded by RegisterWeakRef and
	// RegisterFinalizationRegistry. Nothing reads these lists; no collector
	// notifies them.
	liveWeakRefs              []*value.Object
	liveFinalizationRegistries []*value.Object
}

func NewRealm() *Realm {
	r := &Realm{
		Intrinsics:       make(map[string]*value.Object),
		SymbolRegistry:   make(map[string]*value.Symbol),
		WellKnownSymbols: make(map[string]*value.Symbol),
	}
	for _, name := range []string{
		"iterator", "asyncIterator", "toStringTag", "toPrimitive",
		"hasInstance", "isConcatSpreadable", "species", "unscopables",
		"match", "matchAll", "replace", "search", "split",
	} {
		r.WellKnownSymbols[name] = &value.Symbol{Description: "Symbol." + name, HasDesc: true, WellKnown: name}
	}
	return r
}

func (r *Realm) Intrinsic(name string) *value.Object { return r.Intrinsics[name] }

func (r *Realm) SetIntrinsic(name string, obj *value.Object) { r.Intrinsics[name] = obj }

func (r *Realm) RegisterWeakRef(obj *value.Object) {
	r.liveWeakRefs = append(r.liveWeakRefs, obj)
}

func (r *Realm) RegisterFinalizationRegistry(obj *value.Object) {
	r.liveFinalizationRegistries = append(r.liveFinalizationRegistries, obj)
}

// NewObject allocates a plain object whose [[Prototype]] is this realm's
// Object.prototype intrinsic, the realm-aware equivalent of spec's
// OrdinaryObjectCreate(%Object.prototype%).
func (r *Realm) NewObject() *value.Object {
	return value.NewObject(r.Intrinsic("Object.prototype"))
}

func (r *Realm) NewError(kind string, message string) *value.Object {
	proto := r.Intrinsic(kind + ".prototype")
	if proto == nil {
		proto = r.Intrinsic("Error.prototype")
	}
	obj := value.NewObject(proto)
	obj.SetClass("Error")
	obj.DefineOwnProperty("message", value.DataProperty(value.StringFromGo(message), true, false, true))
	obj.DefineOwnProperty("stack", value.DataProperty(value.StringFromGo(kind+": "+message), true, false, true))
	return obj
}

func (r *Realm) ThrowTypeError(message string) *value.Completion {
	return value.Throw(value.FromObject(r.NewError("TypeError", message)))
}

func (r *Realm) ThrowRangeError(message string) *value.Completion {
	return value.Throw(value.FromObject(r.NewError("RangeError", message)))
}

func (r *Realm) ThrowReferenceError(message string) *value.Completion {
	return value.Throw(value.FromObject(r.NewError("ReferenceError", message)))
}

func (r *Realm) ThrowSyntaxError(message string) *value.Completion {
	return value.Throw(value.FromObject(r.NewError("SyntaxError", message)))
}
