// Package value implements the ECMAScript value and object model (spec §3,
// §4.3): primitives, ordinary and exotic objects, property descriptors, and
// the abstract operations the evaluator and built-ins are defined in terms
// of. There is no class hierarchy here — Value is a tagged union (a Kind
// byte plus the field that kind uses), the same shape js_ast uses for its
// node types, per the "no inheritance hierarchy" design note.
package value

import (
	"math"
	"sort"

	"github.com/dlclark/regexp2"

	"github.com/jsrun/jsengine/internal/helpers"
)

type Kind uint8

const (
	KindUndefined Kind = iota
	KindNull
	KindBoolean
	KindNumber
	KindString
	KindSymbol
	KindBigInt
	KindObject
)

// Value is a JS language value. Only the field matching Kind is valid.
type Value struct {
	Kind   Kind
	Bool   bool
	Num    float64
	Str    []uint16
	Sym    *Symbol
	BigInt *BigInt
	Obj    *Object
}

func Undefined() Value             { return Value{Kind: KindUndefined} }
func Null() Value                  { return Value{Kind: KindNull} }
func Bool(b bool) Value            { return Value{Kind: KindBoolean, Bool: b} }
func Number(n float64) Value       { return Value{Kind: KindNumber, Num: n} }
func StringFromUTF16(s []uint16) Value { return Value{Kind: KindString, Str: s} }
func StringFromGo(s string) Value  { return Value{Kind: KindString, Str: helpers.StringToUTF16(s)} }
func FromObject(o *Object) Value   { return Value{Kind: KindObject, Obj: o} }
func FromSymbol(s *Symbol) Value   { return Value{Kind: KindSymbol, Sym: s} }
func FromBigInt(b *BigInt) Value   { return Value{Kind: KindBigInt, BigInt: b} }

func (v Value) IsUndefined() bool { return v.Kind == KindUndefined }
func (v Value) IsNull() bool      { return v.Kind == KindNull }
func (v Value) IsNullish() bool   { return v.Kind == KindUndefined || v.Kind == KindNull }
func (v Value) IsObject() bool    { return v.Kind == KindObject }
func (v Value) IsCallable() bool  { return v.Kind == KindObject && v.Obj != nil && v.Obj.Call != nil }

// Symbol is a unique, possibly-described token; WellKnown identifies the
// handful of intrinsic symbols (Symbol.iterator, etc) so property lookups
// can special-case them without pointer-comparing package-level vars across
// realms.
type Symbol struct {
	Description string
	HasDesc     bool
	WellKnown   string
}

// BigInt stores an arbitrary-precision signed integer as decimal digits in
// Go's math/big, wrapped so package value never leaks *big.Int directly to
// callers that only import "value".
type BigInt struct {
	Digits string // normalized decimal, optionally "-" prefixed
}

// PropertyKey is either a UTF-16 string or a Symbol, per spec's ToPropertyKey.
type PropertyKey struct {
	IsSymbol bool
	Str      string // normalized UTF-8 for use as a Go map key
	Sym      *Symbol
}

func StringKey(s string) PropertyKey  { return PropertyKey{Str: s} }
func SymbolKey(s *Symbol) PropertyKey { return PropertyKey{IsSymbol: true, Sym: s} }

// PropertyDescriptor is the spec's unified data/accessor descriptor. A zero
// value with HasValue set represents a non-configurable, non-writable,
// non-enumerable data property unless the flags say otherwise — callers
// always set the flag fields explicitly rather than relying on zero values.
type PropertyDescriptor struct {
	Value        Value
	HasValue     bool
	Get          *Object
	Set          *Object
	HasGetOrSet  bool
	Writable     bool
	Enumerable   bool
	Configurable bool
}

func DataProperty(v Value, writable, enumerable, configurable bool) PropertyDescriptor {
	return PropertyDescriptor{Value: v, HasValue: true, Writable: writable, Enumerable: enumerable, Configurable: configurable}
}

// property is the internal storage slot: descriptor plus insertion index,
// since ordinary [[OwnPropertyKeys]] order is integer keys ascending, then
// string keys by creation order, then symbol keys by creation order.
type property struct {
	desc  PropertyDescriptor
	order int
}

// ExoticKind distinguishes the internal-slot bundle an Object carries beyond
// its ordinary property table, mirroring spec §4.3's exotic object kinds.
type ExoticKind uint8

const (
	ExoticNone ExoticKind = iota
	ExoticArray
	ExoticFunction
	ExoticBoundFunction
	ExoticProxy
	ExoticArguments
	ExoticStringWrapper
	ExoticArrayBuffer
	ExoticTypedArray
	ExoticDate
	ExoticRegExp
	ExoticMap
	ExoticSet
	ExoticWeakMap
	ExoticWeakSet
	ExoticWeakRef
	ExoticFinalizationRegistry
	ExoticPromise
	ExoticGenerator
	ExoticModuleNamespace
)

// CallFunc is the native signature every callable object implements,
// whether it backs a user function (evaluator-driven), a bound function, or
// a built-in. thisVal is already resolved per spec's OrdinaryCallBindThis.
type CallFunc func(thisVal Value, args []Value) (Value, *Completion)

// ConstructFunc is set on exotic function objects that are constructible;
// newTarget lets derived-class super() calls thread through the correct
// [[Prototype]] to allocate against.
type ConstructFunc func(args []Value, newTarget *Object) (Value, *Completion)

// Object is every non-primitive value: ordinary objects and every exotic
// kind share this struct, switched on Exotic — the same "one struct, a kind
// tag, and kind-specific fields" shape as js_ast nodes and Value itself.
type Object struct {
	class     string
	Proto     *Object
	Extensible bool
	Exotic    ExoticKind

	props    map[string]*property
	symProps map[*Symbol]*property
	keyOrder []PropertyKey
	nextOrder int

	// Function/callable slots.
	Call         CallFunc
	Construct    ConstructFunc
	HomeObject   *Object // for super property lookups
	BoundThis    Value
	BoundArgs    []Value
	BoundTarget  *Object

	// InitInstance runs a class constructor's field initializers and body
	// against an already-allocated instance, letting a derived class's
	// super(...) call thread the same instance down through its whole
	// prototype chain instead of each level allocating its own object.
	InitInstance func(this *Object, args []Value) *Completion

	// Array / TypedArray / ArrayBuffer slots.
	ArrayLength   uint32
	BufferData    []byte
	BufferLength  int
	TypedArrayKind string
	TypedArrayBuffer *Object
	TypedArrayOffset int
	TypedArrayLen    int

	// Date slot.
	DateValue float64 // milliseconds since epoch, or NaN

	// RegExp slot. Compiled lazily by internal/evaluator's makeRegExp and
	// cached here so repeated exec()/test() calls don't recompile.
	RegexSource    string
	RegexFlags     string
	RegexLastIndex float64
	RegexCompiled  *regexp2.Regexp

	// Map/Set slots — insertion-ordered for spec-correct iteration.
	MapData *OrderedMap

	// Promise slot.
	Promise *PromiseState

	// Proxy slot.
	ProxyTarget  *Object
	ProxyHandler *Object

	// WeakRef/FinalizationRegistry slot.
	WeakTarget *Object

	// Private fields, keyed by the private name without its "#", per class
	// instance. Never visible to ordinary property enumeration/proxies.
	PrivateFields map[string]Value

	// PrimitiveData backs wrapper/Boolean/Number/BigInt/Symbol objects and
	// module namespace bookkeeping.
	PrimitiveData Value

	// refs/marked are not read or written anywhere; the engine has no
	// cycle collector and relies on Go's garbage collector.
	refs   int
	marked bool
}

func NewObject(proto *Object) *Object {
	return &Object{
		class:      "Object",
		Proto:      proto,
		Extensible: true,
		props:      make(map[string]*property),
	}
}

func (o *Object) Class() string { return o.class }
func (o *Object) SetClass(c string) { o.class = c }

// GetOwnProperty implements OrdinaryGetOwnProperty for the string-keyed case
// used by the vast majority of callers; symbol-keyed lookups use
// GetOwnPropertySymbol.
func (o *Object) GetOwnProperty(key string) (PropertyDescriptor, bool) {
	if p, ok := o.props[key]; ok {
		return p.desc, true
	}
	return PropertyDescriptor{}, false
}

func (o *Object) GetOwnPropertySymbol(sym *Symbol) (PropertyDescriptor, bool) {
	if o.symProps == nil {
		return PropertyDescriptor{}, false
	}
	if p, ok := o.symProps[sym]; ok {
		return p.desc, true
	}
	return PropertyDescriptor{}, false
}

// DefineOwnProperty implements the ordinary [[DefineOwnProperty]] essential
// internal method (spec's OrdinaryDefineOwnProperty), without the full
// validation-against-existing-descriptor state machine — callers that need
// strict validateAndApplyPropertyDescriptor semantics (Object.defineProperty)
// do that check before calling this.
func (o *Object) DefineOwnProperty(key string, desc PropertyDescriptor) {
	if p, ok := o.props[key]; ok {
		p.desc = desc
		return
	}
	o.props[key] = &property{desc: desc, order: o.nextOrder}
	o.nextOrder++
	o.keyOrder = append(o.keyOrder, StringKey(key))
}

func (o *Object) DefineOwnPropertySymbol(sym *Symbol, desc PropertyDescriptor) {
	if o.symProps == nil {
		o.symProps = make(map[*Symbol]*property)
	}
	if p, ok := o.symProps[sym]; ok {
		p.desc = desc
		return
	}
	o.symProps[sym] = &property{desc: desc, order: o.nextOrder}
	o.nextOrder++
	o.keyOrder = append(o.keyOrder, SymbolKey(sym))
}

func (o *Object) DeleteOwnProperty(key string) bool {
	p, ok := o.props[key]
	if !ok {
		return true
	}
	if !p.desc.Configurable {
		return false
	}
	delete(o.props, key)
	o.removeFromOrder(StringKey(key))
	return true
}

func (o *Object) removeFromOrder(key PropertyKey) {
	for i, k := range o.keyOrder {
		if k.IsSymbol == key.IsSymbol && k.Str == key.Str && k.Sym == key.Sym {
			o.keyOrder = append(o.keyOrder[:i], o.keyOrder[i+1:]...)
			return
		}
	}
}

// OwnPropertyKeys implements [[OwnPropertyKeys]]'s ordering: array-index
// string keys in ascending numeric order, then remaining string keys in
// creation order, then symbol keys in creation order.
func (o *Object) OwnPropertyKeys() []PropertyKey {
	var indices []uint32
	var strKeys []PropertyKey
	var symKeys []PropertyKey
	for _, k := range o.keyOrder {
		if k.IsSymbol {
			symKeys = append(symKeys, k)
			continue
		}
		if n, ok := arrayIndexOf(k.Str); ok {
			indices = append(indices, n)
			continue
		}
		strKeys = append(strKeys, k)
	}
	sort.Slice(indices, func(i, j int) bool { return indices[i] < indices[j] })

	out := make([]PropertyKey, 0, len(indices)+len(strKeys)+len(symKeys))
	for _, n := range indices {
		out = append(out, StringKey(uint32ToString(n)))
	}
	out = append(out, strKeys...)
	out = append(out, symKeys...)
	return out
}

func arrayIndexOf(s string) (uint32, bool) {
	if s == "" || (s[0] == '0' && len(s) > 1) {
		return 0, false
	}
	var n uint64
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + uint64(c-'0')
		if n > math.MaxUint32-1 {
			return 0, false
		}
	}
	return uint32(n), true
}

func uint32ToString(n uint32) string {
	if n == 0 {
		return "0"
	}
	var buf [10]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}

// OrderedMap backs Map/Set: insertion-ordered key/value pairs compared with
// SameValueZero, with deleted slots left as tombstones so live iterators
// don't skip entries inserted mid-iteration (spec's Map/Set iteration
// requirement).
type OrderedMap struct {
	keys     []Value
	values   []Value
	deleted  []bool
	index    map[mapKey]int
	isWeak   bool
}

type mapKey struct {
	kind Kind
	num  float64
	str  string
	ptr  interface{}
}

func NewOrderedMap(isWeak bool) *OrderedMap {
	return &OrderedMap{index: make(map[mapKey]int), isWeak: isWeak}
}

func keyFor(v Value) mapKey {
	switch v.Kind {
	case KindNumber:
		n := v.Num
		if n == 0 {
			n = 0 // normalize -0 to 0 for SameValueZero map semantics
		}
		return mapKey{kind: v.Kind, num: n}
	case KindString:
		return mapKey{kind: v.Kind, str: string(v.Str)}
	case KindBoolean:
		return mapKey{kind: v.Kind, num: boolToFloat(v.Bool)}
	case KindUndefined, KindNull:
		return mapKey{kind: v.Kind}
	case KindObject:
		return mapKey{kind: v.Kind, ptr: v.Obj}
	case KindSymbol:
		return mapKey{kind: v.Kind, ptr: v.Sym}
	case KindBigInt:
		return mapKey{kind: v.Kind, str: v.BigInt.Digits}
	}
	return mapKey{}
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func (m *OrderedMap) Get(k Value) (Value, bool) {
	if i, ok := m.index[keyFor(k)]; ok && !m.deleted[i] {
		return m.values[i], true
	}
	return Value{}, false
}

func (m *OrderedMap) Set(k, v Value) {
	key := keyFor(k)
	if i, ok := m.index[key]; ok && !m.deleted[i] {
		m.values[i] = v
		return
	}
	m.index[key] = len(m.keys)
	m.keys = append(m.keys, k)
	m.values = append(m.values, v)
	m.deleted = append(m.deleted, false)
}

func (m *OrderedMap) Delete(k Value) bool {
	key := keyFor(k)
	i, ok := m.index[key]
	if !ok || m.deleted[i] {
		return false
	}
	m.deleted[i] = true
	delete(m.index, key)
	return true
}

func (m *OrderedMap) Size() int {
	n := 0
	for _, d := range m.deleted {
		if !d {
			n++
		}
	}
	return n
}

func (m *OrderedMap) Clear() {
	for i := range m.deleted {
		m.deleted[i] = true
	}
	m.index = make(map[mapKey]int)
}

// Entries returns the live entries in insertion order, safe to call while
// additional Set calls happen (it snapshots the slice header, not a copy;
// ForEach-style callers re-check m.deleted per index as they walk).
func (m *OrderedMap) Entries() (keys, values []Value, deleted []bool) {
	return m.keys, m.values, m.deleted
}

// PromiseState is the internal [[PromiseState]]/[[PromiseResult]]/reaction
// list bundle (spec §4.6, §9).
type PromiseState struct {
	State        string // "pending", "fulfilled", "rejected"
	Result       Value
	FulfillReactions []*PromiseReaction
	RejectReactions  []*PromiseReaction
	AlreadyResolved  bool
	IsHandled        bool
}

type PromiseReaction struct {
	Capability *PromiseCapability
	Handler    Value // a callable, or the zero Value for "Identity"/"Thrower"
	HandlerKind string // "Identity", "Thrower", or "" for a real handler
}

type PromiseCapability struct {
	Promise *Object
	Resolve *Object
	Reject  *Object
}
