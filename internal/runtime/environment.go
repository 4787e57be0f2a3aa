// Package runtime implements environment records and the Realm (spec §4.4,
// §9): the lexical-scope chain the evaluator resolves identifiers against,
// and the per-realm intrinsics/symbol-registry bundle. Realm is deliberately
// not a singleton — NewRealm is a public constructor so a host can create
// multiple independent realms ($262.createRealm-style), the way a server
// process might isolate one realm per request.
package runtime

import "github.com/jsrun/jsengine/internal/value"

// bindingState tracks TDZ for let/const/class bindings: a binding exists in
// its environment's map from the moment the block is entered, but reading
// or writing it before InitializeBinding runs is a ReferenceError.
type bindingState uint8

const (
	bindingUninitialized bindingState = iota
	bindingInitialized
)

type binding struct {
	value     value.Value
	state     bindingState
	mutable   bool
	deletable bool
}

// EnvKind mirrors spec §4.4's environment record kinds.
type EnvKind uint8

const (
	EnvDeclarative EnvKind = iota
	EnvFunction
	EnvObject
	EnvGlobal
	EnvModule
)

// Environment is an environment record. Declarative/function/module records
// use bindings; object records (the one spec.md asks for — `with`, which
// this engine rejects at parse time, and the global object record) delegate
// to a backing Object instead, but global environments here always use the
// declarative map since `with` is the only other caller of object records
// and it is unreachable in strict-mode-only code.
type Environment struct {
	Kind   EnvKind
	Outer  *Environment
	Bindings map[string]*binding

	// Function environment record slots.
	ThisValue    value.Value
	HasThis      bool
	NewTarget    *value.Object
	FunctionObj  *value.Object
	HomeObject   *value.Object

	// Global/module environment slots.
	GlobalObject *value.Object
	ModuleRecord interface{} // *module.Record; typed as interface{} to avoid an import cycle

	// YieldFunc is set on a generator function's call environment; evalYield
	// walks outward to the nearest environment carrying one and calls it to
	// hand a value to the generator's caller and block for resumption.
	YieldFunc func(v value.Value, isDelegate bool) (value.Value, *value.Completion)

	// SuperConstructor/AfterSuperInit are set on a derived class constructor's
	// call environment: a bare super(...) call dispatches to SuperConstructor
	// and then runs AfterSuperInit to initialize this class's own instance
	// fields, mirroring spec's field-initialization-on-super-return timing.
	SuperConstructor *value.Object
	AfterSuperInit   func() *value.Completion
}

func NewDeclarativeEnvironment(outer *Environment) *Environment {
	return &Environment{Kind: EnvDeclarative, Outer: outer, Bindings: make(map[string]*binding)}
}

func NewFunctionEnvironment(outer *Environment, fn *value.Object) *Environment {
	return &Environment{Kind: EnvFunction, Outer: outer, Bindings: make(map[string]*binding), FunctionObj: fn}
}

func NewGlobalEnvironment(globalObj *value.Object) *Environment {
	return &Environment{Kind: EnvGlobal, Bindings: make(map[string]*binding), GlobalObject: globalObj, HasThis: true, ThisValue: value.FromObject(globalObj)}
}

func NewModuleEnvironment(outer *Environment) *Environment {
	return &Environment{Kind: EnvModule, Outer: outer, Bindings: make(map[string]*binding), HasThis: true, ThisValue: value.Undefined()}
}

// CreateMutableBinding implements spec's CreateMutableBinding, leaving the
// binding uninitialized (TDZ) until InitializeBinding runs — used for
// let/class/function-parameter declarations as they're hoisted.
func (e *Environment) CreateMutableBinding(name string, deletable bool) {
	e.Bindings[name] = &binding{mutable: true, deletable: deletable, state: bindingUninitialized}
}

// CreateImmutableBinding implements spec's CreateImmutableBinding, used for
// const and for the TDZ-protected class-name binding.
func (e *Environment) CreateImmutableBinding(name string) {
	e.Bindings[name] = &binding{mutable: false, state: bindingUninitialized}
}

// CreateAndInitializeVar is the shortcut spec's var-hoisting and function
// declaration instantiation use: var bindings start initialized to
// undefined, never go through TDZ.
func (e *Environment) CreateAndInitializeVar(name string, v value.Value) {
	if b, ok := e.Bindings[name]; ok {
		b.value = v
		b.state = bindingInitialized
		return
	}
	e.Bindings[name] = &binding{mutable: true, deletable: false, state: bindingInitialized, value: v}
}

func (e *Environment) InitializeBinding(name string, v value.Value) {
	b := e.Bindings[name]
	b.value = v
	b.state = bindingInitialized
}

func (e *Environment) HasBinding(name string) bool {
	_, ok := e.Bindings[name]
	return ok
}

// GetBindingValue implements spec's GetBindingValue, surfacing the TDZ
// ReferenceError the evaluator is required to throw for `let x = x`-shaped
// reads.
func (e *Environment) GetBindingValue(name string) (value.Value, *value.Completion) {
	b, ok := e.Bindings[name]
	if !ok {
		return value.Value{}, value.Throw(value.StringFromGo(name + " is not defined"))
	}
	if b.state == bindingUninitialized {
		return value.Value{}, value.Throw(value.StringFromGo("Cannot access '" + name + "' before initialization"))
	}
	return b.value, nil
}

func (e *Environment) SetMutableBinding(name string, v value.Value) *value.Completion {
	b, ok := e.Bindings[name]
	if !ok {
		return value.Throw(value.StringFromGo(name + " is not defined"))
	}
	if b.state == bindingUninitialized {
		return value.Throw(value.StringFromGo("Cannot access '" + name + "' before initialization"))
	}
	if !b.mutable {
		return value.Throw(value.StringFromGo("Assignment to constant variable."))
	}
	b.value = v
	return nil
}

func (e *Environment) DeleteBinding(name string) bool {
	b, ok := e.Bindings[name]
	if !ok {
		return true
	}
	if !b.deletable {
		return false
	}
	delete(e.Bindings, name)
	return true
}

// Resolve walks the outer chain looking for a binding, returning the
// environment that owns it (spec's GetIdentifierReference / ResolveBinding).
func (e *Environment) Resolve(name string) *Environment {
	for env := e; env != nil; env = env.Outer {
		if env.HasBinding(name) {
			return env
		}
	}
	return nil
}

// ResolveThis implements spec's ResolveThisBinding, walking outward to the
// nearest environment that carries a `this` value (function or global).
func (e *Environment) ResolveThis() value.Value {
	for env := e; env != nil; env = env.Outer {
		if env.HasThis {
			return env.ThisValue
		}
	}
	return value.Undefined()
}

// BindImportedBinding implements spec's module indirect bindings: name in e
// aliases the very same *binding slot fromName owns in from, so a write on
// either side (the exporting module's top-level assignment, or an `export
// let` re-assignment) is visible through both environments without any
// per-access indirection. Reports whether fromName existed in from.
func (e *Environment) BindImportedBinding(name string, from *Environment, fromName string) bool {
	b, ok := from.Bindings[fromName]
	if !ok {
		return false
	}
	e.Bindings[name] = b
	return true
}
