package builtins

import (
	"encoding/binary"
	"math"
	"strconv"

	"github.com/jsrun/jsengine/internal/value"
)

type typedArrayKindInfo struct {
	name       string
	bytesPer   int
	isFloat    bool
	isBigInt   bool
	signed     bool
	clampedU8  bool
}

var typedArrayKinds = []typedArrayKindInfo{
	{name: "Int8Array", bytesPer: 1, signed: true},
	{name: "Uint8Array", bytesPer: 1, signed: false},
	{name: "Uint8ClampedArray", bytesPer: 1, signed: false, clampedU8: true},
	{name: "Int16Array", bytesPer: 2, signed: true},
	{name: "Uint16Array", bytesPer: 2, signed: false},
	{name: "Int32Array", bytesPer: 4, signed: true},
	{name: "Uint32Array", bytesPer: 4, signed: false},
	{name: "Float32Array", bytesPer: 4, isFloat: true},
	{name: "Float64Array", bytesPer: 8, isFloat: true},
	{name: "BigInt64Array", bytesPer: 8, isBigInt: true, signed: true},
	{name: "BigUint64Array", bytesPer: 8, isBigInt: true, signed: false},
}

func (h *host) installArrayBuffer() {
	h.installArrayBufferCtor()
	for _, kind := range typedArrayKinds {
		h.installTypedArray(kind)
	}
	h.installDataView()
}

func (h *host) installArrayBufferCtor() {
	proto := value.NewObject(h.realm.Intrinsic("Object.prototype"))
	proto.SetClass("ArrayBuffer")
	h.realm.SetIntrinsic("ArrayBuffer.prototype", proto)

	ctor := h.nativeFn("ArrayBuffer", 1, func(_ value.Value, args []value.Value) (value.Value, *value.Completion) {
		return value.Value{}, h.realm.ThrowTypeError("Constructor ArrayBuffer requires 'new'")
	})
	ctor.Construct = func(args []value.Value, newTarget *value.Object) (value.Value, *value.Completion) {
		n, c := h.interp.ToNumberValue(arg(args, 0))
		if c != nil {
			return value.Value{}, c
		}
		if n < 0 || math.IsNaN(n) {
			return value.Value{}, h.realm.ThrowRangeError("Invalid ArrayBuffer length")
		}
		obj := value.NewObject(proto)
		obj.SetClass("ArrayBuffer")
		obj.Exotic = value.ExoticArrayBuffer
		obj.BufferData = make([]byte, int(n))
		obj.BufferLength = int(n)
		return value.FromObject(obj), nil
	}
	ctor.DefineOwnProperty("prototype", value.DataProperty(value.FromObject(proto), false, false, false))
	proto.DefineOwnProperty("constructor", value.DataProperty(value.FromObject(ctor), true, false, true))

	h.staticMethod(ctor, "isView", 1, func(_ value.Value, args []value.Value) (value.Value, *value.Completion) {
		v := arg(args, 0)
		ok := v.IsObject() && (v.Obj.Exotic == value.ExoticTypedArray || v.Obj.Class() == "DataView")
		return value.Bool(ok), nil
	})

	h.getter(proto, "byteLength", func(this value.Value, args []value.Value) (value.Value, *value.Completion) {
		obj, c := thisArrayBuffer(h, this)
		if c != nil {
			return value.Value{}, c
		}
		return value.Number(float64(obj.BufferLength)), nil
	})
	h.method(proto, "slice", 2, func(this value.Value, args []value.Value) (value.Value, *value.Completion) {
		obj, c := thisArrayBuffer(h, this)
		if c != nil {
			return value.Value{}, c
		}
		start, end := 0, obj.BufferLength
		if len(args) > 0 {
			n, c := h.interp.ToNumberValue(args[0])
			if c != nil {
				return value.Value{}, c
			}
			start = normalizeIndex(int(n), obj.BufferLength)
		}
		if len(args) > 1 && !args[1].IsUndefined() {
			n, c := h.interp.ToNumberValue(args[1])
			if c != nil {
				return value.Value{}, c
			}
			end = normalizeIndex(int(n), obj.BufferLength)
		}
		if end < start {
			end = start
		}
		result := value.NewObject(proto)
		result.SetClass("ArrayBuffer")
		result.Exotic = value.ExoticArrayBuffer
		result.BufferData = append([]byte(nil), obj.BufferData[start:end]...)
		result.BufferLength = len(result.BufferData)
		return value.FromObject(result), nil
	})
	if sym := h.realm.WellKnownSymbols["toStringTag"]; sym != nil {
		proto.DefineOwnPropertySymbol(sym, value.DataProperty(value.StringFromGo("ArrayBuffer"), false, false, true))
	}

	h.realm.SetIntrinsic("ArrayBuffer", ctor)
}

func thisArrayBuffer(h *host, this value.Value) (*value.Object, *value.Completion) {
	if this.IsObject() && this.Obj.Exotic == value.ExoticArrayBuffer {
		return this.Obj, nil
	}
	return nil, h.realm.ThrowTypeError("method called on non-ArrayBuffer receiver")
}

// installTypedArray builds one typed-array constructor/prototype pair.
// Element access goes through ordinary accessor properties defined per
// index at construction time (one Get/Set closure over the buffer offset
// each) rather than a special-cased exotic [[Get]]/[[Set]], since
// internal/evaluator's property lookup (members.go) already threads through
// accessor descriptors generically.
func (h *host) installTypedArray(kind typedArrayKindInfo) {
	proto := value.NewObject(h.realm.Intrinsic("Object.prototype"))
	proto.SetClass(kind.name)
	h.realm.SetIntrinsic(kind.name+".prototype", proto)

	ctor := h.nativeFn(kind.name, 1, func(_ value.Value, args []value.Value) (value.Value, *value.Completion) {
		return value.Value{}, h.realm.ThrowTypeError("Constructor " + kind.name + " requires 'new'")
	})
	ctor.Construct = func(args []value.Value, newTarget *value.Object) (value.Value, *value.Completion) {
		return h.constructTypedArray(kind, proto, args)
	}
	ctor.DefineOwnProperty("prototype", value.DataProperty(value.FromObject(proto), false, false, false))
	proto.DefineOwnProperty("constructor", value.DataProperty(value.FromObject(ctor), true, false, true))
	ctor.DefineOwnProperty("BYTES_PER_ELEMENT", value.DataProperty(value.Number(float64(kind.bytesPer)), false, false, false))
	proto.DefineOwnProperty("BYTES_PER_ELEMENT", value.DataProperty(value.Number(float64(kind.bytesPer)), false, false, false))

	h.getter(proto, "length", func(this value.Value, args []value.Value) (value.Value, *value.Completion) {
		obj, c := thisTypedArray(h, this)
		if c != nil {
			return value.Value{}, c
		}
		return value.Number(float64(obj.TypedArrayLen)), nil
	})
	h.getter(proto, "byteLength", func(this value.Value, args []value.Value) (value.Value, *value.Completion) {
		obj, c := thisTypedArray(h, this)
		if c != nil {
			return value.Value{}, c
		}
		return value.Number(float64(obj.TypedArrayLen * kind.bytesPer)), nil
	})
	h.getter(proto, "byteOffset", func(this value.Value, args []value.Value) (value.Value, *value.Completion) {
		obj, c := thisTypedArray(h, this)
		if c != nil {
			return value.Value{}, c
		}
		return value.Number(float64(obj.TypedArrayOffset)), nil
	})
	h.getter(proto, "buffer", func(this value.Value, args []value.Value) (value.Value, *value.Completion) {
		obj, c := thisTypedArray(h, this)
		if c != nil {
			return value.Value{}, c
		}
		return value.FromObject(obj.TypedArrayBuffer), nil
	})

	h.method(proto, "set", 2, func(this value.Value, args []value.Value) (value.Value, *value.Completion) {
		obj, c := thisTypedArray(h, this)
		if c != nil {
			return value.Value{}, c
		}
		offset := 0
		if len(args) > 1 {
			n, c := h.interp.ToNumberValue(args[1])
			if c != nil {
				return value.Value{}, c
			}
			offset = int(n)
		}
		items, c := h.arrayLikeToSlice(arg(args, 0))
		if c != nil {
			return value.Value{}, c
		}
		for i, v := range items {
			n, c := h.interp.ToNumberValue(v)
			if c != nil {
				return value.Value{}, c
			}
			writeTypedElement(obj, kind, offset+i, n)
		}
		return value.Undefined(), nil
	})
	h.method(proto, "subarray", 2, func(this value.Value, args []value.Value) (value.Value, *value.Completion) {
		obj, c := thisTypedArray(h, this)
		if c != nil {
			return value.Value{}, c
		}
		start, end := 0, obj.TypedArrayLen
		if len(args) > 0 {
			n, c := h.interp.ToNumberValue(args[0])
			if c != nil {
				return value.Value{}, c
			}
			start = normalizeIndex(int(n), obj.TypedArrayLen)
		}
		if len(args) > 1 && !args[1].IsUndefined() {
			n, c := h.interp.ToNumberValue(args[1])
			if c != nil {
				return value.Value{}, c
			}
			end = normalizeIndex(int(n), obj.TypedArrayLen)
		}
		if end < start {
			end = start
		}
		byteOffset := obj.TypedArrayOffset + start*kind.bytesPer
		newObj := h.newTypedArrayView(kind, proto, obj.TypedArrayBuffer, byteOffset, end-start)
		return value.FromObject(newObj), nil
	})
	h.method(proto, "fill", 3, func(this value.Value, args []value.Value) (value.Value, *value.Completion) {
		obj, c := thisTypedArray(h, this)
		if c != nil {
			return value.Value{}, c
		}
		n, c := h.interp.ToNumberValue(arg(args, 0))
		if c != nil {
			return value.Value{}, c
		}
		start, end := 0, obj.TypedArrayLen
		if len(args) > 1 {
			sn, c := h.interp.ToNumberValue(args[1])
			if c != nil {
				return value.Value{}, c
			}
			start = normalizeIndex(int(sn), obj.TypedArrayLen)
		}
		if len(args) > 2 {
			en, c := h.interp.ToNumberValue(args[2])
			if c != nil {
				return value.Value{}, c
			}
			end = normalizeIndex(int(en), obj.TypedArrayLen)
		}
		for i := start; i < end; i++ {
			writeTypedElement(obj, kind, i, n)
		}
		return this, nil
	})
	h.method(proto, "slice", 2, func(this value.Value, args []value.Value) (value.Value, *value.Completion) {
		obj, c := thisTypedArray(h, this)
		if c != nil {
			return value.Value{}, c
		}
		start, end := 0, obj.TypedArrayLen
		if len(args) > 0 {
			n, c := h.interp.ToNumberValue(args[0])
			if c != nil {
				return value.Value{}, c
			}
			start = normalizeIndex(int(n), obj.TypedArrayLen)
		}
		if len(args) > 1 && !args[1].IsUndefined() {
			n, c := h.interp.ToNumberValue(args[1])
			if c != nil {
				return value.Value{}, c
			}
			end = normalizeIndex(int(n), obj.TypedArrayLen)
		}
		if end < start {
			end = start
		}
		count := end - start
		bufObj := value.NewObject(h.realm.Intrinsic("ArrayBuffer.prototype"))
		bufObj.SetClass("ArrayBuffer")
		bufObj.Exotic = value.ExoticArrayBuffer
		bufObj.BufferLength = count * kind.bytesPer
		bufObj.BufferData = make([]byte, bufObj.BufferLength)
		newObj := h.newTypedArrayView(kind, proto, bufObj, 0, count)
		for i := 0; i < count; i++ {
			writeTypedElement(newObj, kind, i, readTypedElement(obj, kind, start+i))
		}
		return value.FromObject(newObj), nil
	})
	h.method(proto, "toString", 0, func(this value.Value, args []value.Value) (value.Value, *value.Completion) {
		join, c := h.interp.GetProperty(value.FromObject(h.realm.Intrinsic("Array.prototype")), "join")
		if c != nil {
			return value.Value{}, c
		}
		return h.interp.CallFunction(join, this, nil)
	})
	h.method(proto, "forEach", 1, func(this value.Value, args []value.Value) (value.Value, *value.Completion) {
		obj, c := thisTypedArray(h, this)
		if c != nil {
			return value.Value{}, c
		}
		fn := arg(args, 0)
		thisArg := arg(args, 1)
		for i := 0; i < obj.TypedArrayLen; i++ {
			v := value.Number(readTypedElement(obj, kind, i))
			if _, c := h.interp.CallFunction(fn, thisArg, []value.Value{v, value.Number(float64(i)), this}); c != nil {
				return value.Value{}, c
			}
		}
		return value.Undefined(), nil
	})
	h.method(proto, "map", 1, func(this value.Value, args []value.Value) (value.Value, *value.Completion) {
		obj, c := thisTypedArray(h, this)
		if c != nil {
			return value.Value{}, c
		}
		fn := arg(args, 0)
		thisArg := arg(args, 1)
		out := make([]value.Value, obj.TypedArrayLen)
		for i := 0; i < obj.TypedArrayLen; i++ {
			v := value.Number(readTypedElement(obj, kind, i))
			r, c := h.interp.CallFunction(fn, thisArg, []value.Value{v, value.Number(float64(i)), this})
			if c != nil {
				return value.Value{}, c
			}
			out[i] = r
		}
		return h.interp.NewArray(out), nil
	})
	if sym := h.realm.WellKnownSymbols["iterator"]; sym != nil {
		fn := h.nativeFn("[Symbol.iterator]", 0, func(this value.Value, args []value.Value) (value.Value, *value.Completion) {
			obj, c := thisTypedArray(h, this)
			if c != nil {
				return value.Value{}, c
			}
			idx := 0
			return value.FromObject(h.newIteratorObject(func() (value.Value, bool) {
				if idx >= obj.TypedArrayLen {
					return value.Value{}, false
				}
				v := value.Number(readTypedElement(obj, kind, idx))
				idx++
				return v, true
			})), nil
		})
		proto.DefineOwnPropertySymbol(sym, value.DataProperty(value.FromObject(fn), true, false, true))
	}
	if sym := h.realm.WellKnownSymbols["toStringTag"]; sym != nil {
		proto.DefineOwnPropertySymbol(sym, value.DataProperty(value.StringFromGo(kind.name), false, false, true))
	}

	h.realm.SetIntrinsic(kind.name, ctor)
}

func thisTypedArray(h *host, this value.Value) (*value.Object, *value.Completion) {
	if this.IsObject() && this.Obj.Exotic == value.ExoticTypedArray {
		return this.Obj, nil
	}
	return nil, h.realm.ThrowTypeError("method called on non-TypedArray receiver")
}

func (h *host) constructTypedArray(kind typedArrayKindInfo, proto *value.Object, args []value.Value) (value.Value, *value.Completion) {
	if len(args) == 0 {
		bufObj := h.newArrayBuffer(0)
		return value.FromObject(h.newTypedArrayView(kind, proto, bufObj, 0, 0)), nil
	}
	first := args[0]
	if first.IsObject() && first.Obj.Exotic == value.ExoticArrayBuffer {
		offset := 0
		if len(args) > 1 {
			n, c := h.interp.ToNumberValue(args[1])
			if c != nil {
				return value.Value{}, c
			}
			offset = int(n)
		}
		length := (first.Obj.BufferLength - offset) / kind.bytesPer
		if len(args) > 2 && !args[2].IsUndefined() {
			n, c := h.interp.ToNumberValue(args[2])
			if c != nil {
				return value.Value{}, c
			}
			length = int(n)
		}
		return value.FromObject(h.newTypedArrayView(kind, proto, first.Obj, offset, length)), nil
	}
	if first.IsObject() {
		items, c := h.interp.IterableToSlice(first)
		if c != nil {
			items, c = h.arrayLikeToSlice(first)
			if c != nil {
				return value.Value{}, c
			}
		}
		bufObj := h.newArrayBuffer(len(items) * kind.bytesPer)
		obj := h.newTypedArrayView(kind, proto, bufObj, 0, len(items))
		for i, v := range items {
			n, c := h.interp.ToNumberValue(v)
			if c != nil {
				return value.Value{}, c
			}
			writeTypedElement(obj, kind, i, n)
		}
		return value.FromObject(obj), nil
	}
	n, c := h.interp.ToNumberValue(first)
	if c != nil {
		return value.Value{}, c
	}
	length := int(n)
	bufObj := h.newArrayBuffer(length * kind.bytesPer)
	return value.FromObject(h.newTypedArrayView(kind, proto, bufObj, 0, length)), nil
}

func (h *host) newArrayBuffer(byteLength int) *value.Object {
	obj := value.NewObject(h.realm.Intrinsic("ArrayBuffer.prototype"))
	obj.SetClass("ArrayBuffer")
	obj.Exotic = value.ExoticArrayBuffer
	obj.BufferLength = byteLength
	obj.BufferData = make([]byte, byteLength)
	return obj
}

// newTypedArrayView allocates the view object and defines one accessor
// property per element index up front, closing over the element offset.
func (h *host) newTypedArrayView(kind typedArrayKindInfo, proto *value.Object, buf *value.Object, byteOffset, length int) *value.Object {
	obj := value.NewObject(proto)
	obj.SetClass(kind.name)
	obj.Exotic = value.ExoticTypedArray
	obj.TypedArrayKind = kind.name
	obj.TypedArrayBuffer = buf
	obj.TypedArrayOffset = byteOffset
	obj.TypedArrayLen = length
	for i := 0; i < length; i++ {
		i := i
		getFn := h.nativeFn("", 0, func(this value.Value, args []value.Value) (value.Value, *value.Completion) {
			return value.Number(readTypedElement(obj, kind, i)), nil
		})
		setFn := h.nativeFn("", 1, func(this value.Value, args []value.Value) (value.Value, *value.Completion) {
			n, c := h.interp.ToNumberValue(arg(args, 0))
			if c != nil {
				return value.Value{}, c
			}
			writeTypedElement(obj, kind, i, n)
			return value.Undefined(), nil
		})
		obj.DefineOwnProperty(strconv.FormatUint(uint64(i), 10), value.PropertyDescriptor{
			Get: getFn, Set: setFn, HasGetOrSet: true, Enumerable: true, Configurable: false,
		})
	}
	obj.DefineOwnProperty("length", value.DataProperty(value.Number(float64(length)), false, false, false))
	return obj
}

func readTypedElement(obj *value.Object, kind typedArrayKindInfo, i int) float64 {
	buf := obj.TypedArrayBuffer
	off := obj.TypedArrayOffset + i*kind.bytesPer
	if off+kind.bytesPer > len(buf.BufferData) {
		return math.NaN()
	}
	b := buf.BufferData[off : off+kind.bytesPer]
	switch {
	case kind.isFloat && kind.bytesPer == 4:
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(b)))
	case kind.isFloat:
		return math.Float64frombits(binary.LittleEndian.Uint64(b))
	case kind.bytesPer == 1:
		if kind.signed {
			return float64(int8(b[0]))
		}
		return float64(b[0])
	case kind.bytesPer == 2:
		u := binary.LittleEndian.Uint16(b)
		if kind.signed {
			return float64(int16(u))
		}
		return float64(u)
	case kind.bytesPer == 4:
		u := binary.LittleEndian.Uint32(b)
		if kind.signed {
			return float64(int32(u))
		}
		return float64(u)
	default:
		u := binary.LittleEndian.Uint64(b)
		if kind.signed {
			return float64(int64(u))
		}
		return float64(u)
	}
}

func writeTypedElement(obj *value.Object, kind typedArrayKindInfo, i int, n float64) {
	buf := obj.TypedArrayBuffer
	off := obj.TypedArrayOffset + i*kind.bytesPer
	if off < 0 || off+kind.bytesPer > len(buf.BufferData) {
		return
	}
	b := buf.BufferData[off : off+kind.bytesPer]
	switch {
	case kind.isFloat && kind.bytesPer == 4:
		binary.LittleEndian.PutUint32(b, math.Float32bits(float32(n)))
	case kind.isFloat:
		binary.LittleEndian.PutUint64(b, math.Float64bits(n))
	case kind.clampedU8:
		v := int(jsRound(n))
		if v < 0 {
			v = 0
		}
		if v > 255 {
			v = 255
		}
		b[0] = byte(v)
	case kind.bytesPer == 1:
		b[0] = byte(int64(n))
	case kind.bytesPer == 2:
		binary.LittleEndian.PutUint16(b, uint16(int64(n)))
	case kind.bytesPer == 4:
		binary.LittleEndian.PutUint32(b, uint32(int64(n)))
	default:
		binary.LittleEndian.PutUint64(b, uint64(int64(n)))
	}
}

func (h *host) installDataView() {
	proto := value.NewObject(h.realm.Intrinsic("Object.prototype"))
	proto.SetClass("DataView")
	h.realm.SetIntrinsic("DataView.prototype", proto)

	ctor := h.nativeFn("DataView", 1, func(_ value.Value, args []value.Value) (value.Value, *value.Completion) {
		return value.Value{}, h.realm.ThrowTypeError("Constructor DataView requires 'new'")
	})
	ctor.Construct = func(args []value.Value, newTarget *value.Object) (value.Value, *value.Completion) {
		bufVal := arg(args, 0)
		if !bufVal.IsObject() || bufVal.Obj.Exotic != value.ExoticArrayBuffer {
			return value.Value{}, h.realm.ThrowTypeError("First argument to DataView constructor must be an ArrayBuffer")
		}
		offset := 0
		if len(args) > 1 {
			n, c := h.interp.ToNumberValue(args[1])
			if c != nil {
				return value.Value{}, c
			}
			offset = int(n)
		}
		length := bufVal.Obj.BufferLength - offset
		if len(args) > 2 && !args[2].IsUndefined() {
			n, c := h.interp.ToNumberValue(args[2])
			if c != nil {
				return value.Value{}, c
			}
			length = int(n)
		}
		obj := value.NewObject(proto)
		obj.SetClass("DataView")
		obj.TypedArrayBuffer = bufVal.Obj
		obj.TypedArrayOffset = offset
		obj.TypedArrayLen = length
		return value.FromObject(obj), nil
	}
	ctor.DefineOwnProperty("prototype", value.DataProperty(value.FromObject(proto), false, false, false))
	proto.DefineOwnProperty("constructor", value.DataProperty(value.FromObject(ctor), true, false, true))

	h.getter(proto, "buffer", func(this value.Value, args []value.Value) (value.Value, *value.Completion) {
		obj, c := thisDataView(h, this)
		if c != nil {
			return value.Value{}, c
		}
		return value.FromObject(obj.TypedArrayBuffer), nil
	})
	h.getter(proto, "byteLength", func(this value.Value, args []value.Value) (value.Value, *value.Completion) {
		obj, c := thisDataView(h, this)
		if c != nil {
			return value.Value{}, c
		}
		return value.Number(float64(obj.TypedArrayLen)), nil
	})
	h.getter(proto, "byteOffset", func(this value.Value, args []value.Value) (value.Value, *value.Completion) {
		obj, c := thisDataView(h, this)
		if c != nil {
			return value.Value{}, c
		}
		return value.Number(float64(obj.TypedArrayOffset)), nil
	})

	dvKinds := map[string]typedArrayKindInfo{
		"Int8": {bytesPer: 1, signed: true}, "Uint8": {bytesPer: 1},
		"Int16": {bytesPer: 2, signed: true}, "Uint16": {bytesPer: 2},
		"Int32": {bytesPer: 4, signed: true}, "Uint32": {bytesPer: 4},
		"Float32": {bytesPer: 4, isFloat: true}, "Float64": {bytesPer: 8, isFloat: true},
	}
	for name, kind := range dvKinds {
		name, kind := name, kind
		h.method(proto, "get"+name, 1, func(this value.Value, args []value.Value) (value.Value, *value.Completion) {
			obj, c := thisDataView(h, this)
			if c != nil {
				return value.Value{}, c
			}
			n, c := h.interp.ToNumberValue(arg(args, 0))
			if c != nil {
				return value.Value{}, c
			}
			littleEndian := value.ToBoolean(arg(args, 1))
			return value.Number(readDataViewElement(obj, kind, int(n), littleEndian)), nil
		})
		h.method(proto, "set"+name, 2, func(this value.Value, args []value.Value) (value.Value, *value.Completion) {
			obj, c := thisDataView(h, this)
			if c != nil {
				return value.Value{}, c
			}
			pos, c := h.interp.ToNumberValue(arg(args, 0))
			if c != nil {
				return value.Value{}, c
			}
			val, c := h.interp.ToNumberValue(arg(args, 1))
			if c != nil {
				return value.Value{}, c
			}
			littleEndian := value.ToBoolean(arg(args, 2))
			writeDataViewElement(obj, kind, int(pos), val, littleEndian)
			return value.Undefined(), nil
		})
	}
	if sym := h.realm.WellKnownSymbols["toStringTag"]; sym != nil {
		proto.DefineOwnPropertySymbol(sym, value.DataProperty(value.StringFromGo("DataView"), false, false, true))
	}

	h.realm.SetIntrinsic("DataView", ctor)
}

func thisDataView(h *host, this value.Value) (*value.Object, *value.Completion) {
	if this.IsObject() && this.Obj.Class() == "DataView" {
		return this.Obj, nil
	}
	return nil, h.realm.ThrowTypeError("method called on non-DataView receiver")
}

func readDataViewElement(obj *value.Object, kind typedArrayKindInfo, pos int, littleEndian bool) float64 {
	buf := obj.TypedArrayBuffer
	off := obj.TypedArrayOffset + pos
	if off+kind.bytesPer > len(buf.BufferData) || off < 0 {
		return math.NaN()
	}
	b := append([]byte(nil), buf.BufferData[off:off+kind.bytesPer]...)
	if !littleEndian {
		reverseBytes(b)
	}
	switch {
	case kind.isFloat && kind.bytesPer == 4:
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(b)))
	case kind.isFloat:
		return math.Float64frombits(binary.LittleEndian.Uint64(b))
	case kind.bytesPer == 1:
		if kind.signed {
			return float64(int8(b[0]))
		}
		return float64(b[0])
	case kind.bytesPer == 2:
		u := binary.LittleEndian.Uint16(b)
		if kind.signed {
			return float64(int16(u))
		}
		return float64(u)
	default:
		u := binary.LittleEndian.Uint32(b)
		if kind.signed {
			return float64(int32(u))
		}
		return float64(u)
	}
}

func writeDataViewElement(obj *value.Object, kind typedArrayKindInfo, pos int, n float64, littleEndian bool) {
	buf := obj.TypedArrayBuffer
	off := obj.TypedArrayOffset + pos
	if off+kind.bytesPer > len(buf.BufferData) || off < 0 {
		return
	}
	b := make([]byte, kind.bytesPer)
	switch {
	case kind.isFloat && kind.bytesPer == 4:
		binary.LittleEndian.PutUint32(b, math.Float32bits(float32(n)))
	case kind.isFloat:
		binary.LittleEndian.PutUint64(b, math.Float64bits(n))
	case kind.bytesPer == 1:
		b[0] = byte(int64(n))
	case kind.bytesPer == 2:
		binary.LittleEndian.PutUint16(b, uint16(int64(n)))
	default:
		binary.LittleEndian.PutUint32(b, uint32(int64(n)))
	}
	if !littleEndian {
		reverseBytes(b)
	}
	copy(buf.BufferData[off:off+kind.bytesPer], b)
}

func reverseBytes(b []byte) {
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
}
