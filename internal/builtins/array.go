package builtins

import (
	"strconv"

	"github.com/jsrun/jsengine/internal/helpers"
	"github.com/jsrun/jsengine/internal/value"
)

// newArrayObject allocates an empty exotic array of length n, the same
// shape internal/evaluator's newArray builds for array literals, since
// Array.prototype methods hand-construct their own result arrays instead of
// going through that evaluator-private helper.
func (h *host) newArrayObject(n uint32) *value.Object {
	arr := value.NewObject(h.realm.Intrinsic("Array.prototype"))
	arr.SetClass("Array")
	arr.Exotic = value.ExoticArray
	arr.ArrayLength = n
	arr.DefineOwnProperty("length", value.DataProperty(value.Number(float64(n)), true, false, false))
	return arr
}

func (h *host) arraySet(arr *value.Object, i uint32, v value.Value) {
	arr.DefineOwnProperty(strconv.FormatUint(uint64(i), 10), value.DataProperty(v, true, true, true))
}

// arrayLength reads .length off a receiver that is either a real exotic
// array or an array-like object (spec's LengthOfArrayLike), so every method
// below works against both.
func (h *host) arrayLength(this value.Value) (uint32, *value.Completion) {
	if this.IsObject() && this.Obj.Exotic == value.ExoticArray {
		return this.Obj.ArrayLength, nil
	}
	lenVal, c := h.interp.GetProperty(this, "length")
	if c != nil {
		return 0, c
	}
	n, c := h.interp.ToNumberValue(lenVal)
	if c != nil {
		return 0, c
	}
	if n < 0 || n != n {
		return 0, nil
	}
	return uint32(n), nil
}

func (h *host) elementAt(this value.Value, i uint32) (value.Value, *value.Completion) {
	return h.interp.GetProperty(this, strconv.FormatUint(uint64(i), 10))
}

func normalizeIndex(i int, length int) int {
	if i < 0 {
		i += length
		if i < 0 {
			i = 0
		}
	} else if i > length {
		i = length
	}
	return i
}

func intArg(h *host, args []value.Value, i int, def float64) (float64, *value.Completion) {
	v := arg(args, i)
	if v.IsUndefined() {
		return def, nil
	}
	return h.interp.ToNumberValue(v)
}

func (h *host) installArray() {
	proto := h.newArrayObject(0)
	proto.DefineOwnProperty("length", value.DataProperty(value.Number(0), true, false, false))
	h.realm.SetIntrinsic("Array.prototype", proto)

	ctor := h.nativeFn("Array", 1, func(_ value.Value, args []value.Value) (value.Value, *value.Completion) {
		return h.constructArray(args)
	})
	ctor.Construct = func(args []value.Value, newTarget *value.Object) (value.Value, *value.Completion) {
		return h.constructArray(args)
	}
	ctor.DefineOwnProperty("prototype", value.DataProperty(value.FromObject(proto), false, false, false))
	proto.DefineOwnProperty("constructor", value.DataProperty(value.FromObject(ctor), true, false, true))

	h.staticMethod(ctor, "isArray", 1, func(_ value.Value, args []value.Value) (value.Value, *value.Completion) {
		v := arg(args, 0)
		return value.Bool(v.IsObject() && v.Obj.Exotic == value.ExoticArray), nil
	})
	h.staticMethod(ctor, "of", 0, func(_ value.Value, args []value.Value) (value.Value, *value.Completion) {
		return h.interp.NewArray(args), nil
	})
	h.staticMethod(ctor, "from", 1, func(_ value.Value, args []value.Value) (value.Value, *value.Completion) {
		src := arg(args, 0)
		mapFn := arg(args, 1)
		var items []value.Value
		if src.IsObject() {
			if sym := h.realm.WellKnownSymbols["iterator"]; sym != nil {
				if v, _ := h.interp.GetPropertySymbol(src, sym); v.IsCallable() {
					slice, c := h.interp.IterableToSlice(src)
					if c != nil {
						return value.Value{}, c
					}
					items = slice
				}
			}
		}
		if items == nil {
			slice, c := h.arrayLikeToSlice(src)
			if c != nil {
				return value.Value{}, c
			}
			items = slice
		}
		if mapFn.IsCallable() {
			mapped := make([]value.Value, len(items))
			for i, v := range items {
				r, c := h.interp.CallFunction(mapFn, value.Undefined(), []value.Value{v, value.Number(float64(i))})
				if c != nil {
					return value.Value{}, c
				}
				mapped[i] = r
			}
			items = mapped
		}
		return h.interp.NewArray(items), nil
	})

	h.method(proto, "push", 1, func(this value.Value, args []value.Value) (value.Value, *value.Completion) {
		length, c := h.arrayLength(this)
		if c != nil {
			return value.Value{}, c
		}
		for _, v := range args {
			if c := h.interp.SetProperty(this, strconv.FormatUint(uint64(length), 10), v); c != nil {
				return value.Value{}, c
			}
			length++
		}
		if c := h.interp.SetProperty(this, "length", value.Number(float64(length))); c != nil {
			return value.Value{}, c
		}
		return value.Number(float64(length)), nil
	})
	h.method(proto, "pop", 0, func(this value.Value, args []value.Value) (value.Value, *value.Completion) {
		length, c := h.arrayLength(this)
		if c != nil {
			return value.Value{}, c
		}
		if length == 0 {
			h.interp.SetProperty(this, "length", value.Number(0))
			return value.Undefined(), nil
		}
		last := length - 1
		v, c := h.elementAt(this, last)
		if c != nil {
			return value.Value{}, c
		}
		if this.IsObject() {
			this.Obj.DeleteOwnProperty(strconv.FormatUint(uint64(last), 10))
		}
		h.interp.SetProperty(this, "length", value.Number(float64(last)))
		return v, nil
	})
	h.method(proto, "shift", 0, func(this value.Value, args []value.Value) (value.Value, *value.Completion) {
		length, c := h.arrayLength(this)
		if c != nil {
			return value.Value{}, c
		}
		if length == 0 {
			h.interp.SetProperty(this, "length", value.Number(0))
			return value.Undefined(), nil
		}
		first, c := h.elementAt(this, 0)
		if c != nil {
			return value.Value{}, c
		}
		for i := uint32(1); i < length; i++ {
			v, c := h.elementAt(this, i)
			if c != nil {
				return value.Value{}, c
			}
			if c := h.interp.SetProperty(this, strconv.FormatUint(uint64(i-1), 10), v); c != nil {
				return value.Value{}, c
			}
		}
		if this.IsObject() {
			this.Obj.DeleteOwnProperty(strconv.FormatUint(uint64(length-1), 10))
		}
		h.interp.SetProperty(this, "length", value.Number(float64(length-1)))
		return first, nil
	})
	h.method(proto, "unshift", 1, func(this value.Value, args []value.Value) (value.Value, *value.Completion) {
		length, c := h.arrayLength(this)
		if c != nil {
			return value.Value{}, c
		}
		n := uint32(len(args))
		for i := length; i > 0; i-- {
			v, c := h.elementAt(this, i-1)
			if c != nil {
				return value.Value{}, c
			}
			if c := h.interp.SetProperty(this, strconv.FormatUint(uint64(i-1+n), 10), v); c != nil {
				return value.Value{}, c
			}
		}
		for i, v := range args {
			if c := h.interp.SetProperty(this, strconv.FormatUint(uint64(i), 10), v); c != nil {
				return value.Value{}, c
			}
		}
		h.interp.SetProperty(this, "length", value.Number(float64(length+n)))
		return value.Number(float64(length + n)), nil
	})
	h.method(proto, "slice", 2, func(this value.Value, args []value.Value) (value.Value, *value.Completion) {
		length, c := h.arrayLength(this)
		if c != nil {
			return value.Value{}, c
		}
		startN, c := intArg(h, args, 0, 0)
		if c != nil {
			return value.Value{}, c
		}
		endN, c := intArg(h, args, 1, float64(length))
		if c != nil {
			return value.Value{}, c
		}
		start := normalizeIndex(int(startN), int(length))
		end := normalizeIndex(int(endN), int(length))
		var out []value.Value
		for i := start; i < end; i++ {
			v, c := h.elementAt(this, uint32(i))
			if c != nil {
				return value.Value{}, c
			}
			out = append(out, v)
		}
		return h.interp.NewArray(out), nil
	})
	h.method(proto, "splice", 2, func(this value.Value, args []value.Value) (value.Value, *value.Completion) {
		length, c := h.arrayLength(this)
		if c != nil {
			return value.Value{}, c
		}
		startN, c := intArg(h, args, 0, 0)
		if c != nil {
			return value.Value{}, c
		}
		start := normalizeIndex(int(startN), int(length))
		deleteCount := int(length) - start
		if len(args) >= 2 {
			dc, c := h.interp.ToNumberValue(arg(args, 1))
			if c != nil {
				return value.Value{}, c
			}
			if int(dc) < 0 {
				deleteCount = 0
			} else if int(dc) < deleteCount {
				deleteCount = int(dc)
			}
		}
		items := rest(args, 2)

		var removed []value.Value
		for i := 0; i < deleteCount; i++ {
			v, c := h.elementAt(this, uint32(start+i))
			if c != nil {
				return value.Value{}, c
			}
			removed = append(removed, v)
		}

		tail := make([]value.Value, 0, int(length)-start-deleteCount)
		for i := start + deleteCount; i < int(length); i++ {
			v, c := h.elementAt(this, uint32(i))
			if c != nil {
				return value.Value{}, c
			}
			tail = append(tail, v)
		}

		idx := start
		for _, v := range items {
			if c := h.interp.SetProperty(this, strconv.Itoa(idx), v); c != nil {
				return value.Value{}, c
			}
			idx++
		}
		for _, v := range tail {
			if c := h.interp.SetProperty(this, strconv.Itoa(idx), v); c != nil {
				return value.Value{}, c
			}
			idx++
		}
		newLength := idx
		for i := newLength; i < int(length); i++ {
			if this.IsObject() {
				this.Obj.DeleteOwnProperty(strconv.Itoa(i))
			}
		}
		h.interp.SetProperty(this, "length", value.Number(float64(newLength)))
		return h.interp.NewArray(removed), nil
	})
	h.method(proto, "concat", 1, func(this value.Value, args []value.Value) (value.Value, *value.Completion) {
		var out []value.Value
		all := append([]value.Value{this}, args...)
		for _, v := range all {
			if v.IsObject() && v.Obj.Exotic == value.ExoticArray {
				length := v.Obj.ArrayLength
				for i := uint32(0); i < length; i++ {
					elem, c := h.elementAt(v, i)
					if c != nil {
						return value.Value{}, c
					}
					out = append(out, elem)
				}
			} else {
				out = append(out, v)
			}
		}
		return h.interp.NewArray(out), nil
	})
	h.method(proto, "join", 1, func(this value.Value, args []value.Value) (value.Value, *value.Completion) {
		length, c := h.arrayLength(this)
		if c != nil {
			return value.Value{}, c
		}
		sep := ","
		if s := arg(args, 0); !s.IsUndefined() {
			str, c := h.interp.ToStringValue(s)
			if c != nil {
				return value.Value{}, c
			}
			sep = string(helpers.UTF16ToString(str))
		}
		var sb []byte
		for i := uint32(0); i < length; i++ {
			if i > 0 {
				sb = append(sb, sep...)
			}
			v, c := h.elementAt(this, i)
			if c != nil {
				return value.Value{}, c
			}
			if v.IsNullish() {
				continue
			}
			s, c := h.interp.ToStringValue(v)
			if c != nil {
				return value.Value{}, c
			}
			sb = append(sb, helpers.UTF16ToString(s)...)
		}
		return value.StringFromGo(string(sb)), nil
	})
	h.method(proto, "reverse", 0, func(this value.Value, args []value.Value) (value.Value, *value.Completion) {
		length, c := h.arrayLength(this)
		if c != nil {
			return value.Value{}, c
		}
		for i := uint32(0); i < length/2; i++ {
			j := length - 1 - i
			vi, c := h.elementAt(this, i)
			if c != nil {
				return value.Value{}, c
			}
			vj, c := h.elementAt(this, j)
			if c != nil {
				return value.Value{}, c
			}
			h.interp.SetProperty(this, strconv.FormatUint(uint64(i), 10), vj)
			h.interp.SetProperty(this, strconv.FormatUint(uint64(j), 10), vi)
		}
		return this, nil
	})
	h.method(proto, "indexOf", 1, func(this value.Value, args []value.Value) (value.Value, *value.Completion) {
		length, c := h.arrayLength(this)
		if c != nil {
			return value.Value{}, c
		}
		target := arg(args, 0)
		start := 0
		if n, c := intArg(h, args, 1, 0); c == nil {
			start = normalizeIndex(int(n), int(length))
		}
		for i := start; i < int(length); i++ {
			v, c := h.elementAt(this, uint32(i))
			if c != nil {
				return value.Value{}, c
			}
			if value.IsStrictlyEqual(v, target) {
				return value.Number(float64(i)), nil
			}
		}
		return value.Number(-1), nil
	})
	h.method(proto, "lastIndexOf", 1, func(this value.Value, args []value.Value) (value.Value, *value.Completion) {
		length, c := h.arrayLength(this)
		if c != nil {
			return value.Value{}, c
		}
		target := arg(args, 0)
		for i := int(length) - 1; i >= 0; i-- {
			v, c := h.elementAt(this, uint32(i))
			if c != nil {
				return value.Value{}, c
			}
			if value.IsStrictlyEqual(v, target) {
				return value.Number(float64(i)), nil
			}
		}
		return value.Number(-1), nil
	})
	h.method(proto, "includes", 1, func(this value.Value, args []value.Value) (value.Value, *value.Completion) {
		length, c := h.arrayLength(this)
		if c != nil {
			return value.Value{}, c
		}
		target := arg(args, 0)
		for i := uint32(0); i < length; i++ {
			v, c := h.elementAt(this, i)
			if c != nil {
				return value.Value{}, c
			}
			if value.SameValueZero(v, target) {
				return value.Bool(true), nil
			}
		}
		return value.Bool(false), nil
	})
	h.method(proto, "find", 1, func(this value.Value, args []value.Value) (value.Value, *value.Completion) {
		v, _, c := h.arrayFind(this, args, false)
		return v, c
	})
	h.method(proto, "findIndex", 1, func(this value.Value, args []value.Value) (value.Value, *value.Completion) {
		_, i, c := h.arrayFind(this, args, false)
		if c != nil {
			return value.Value{}, c
		}
		return value.Number(float64(i)), nil
	})
	h.method(proto, "findLast", 1, func(this value.Value, args []value.Value) (value.Value, *value.Completion) {
		v, _, c := h.arrayFind(this, args, true)
		return v, c
	})
	h.method(proto, "findLastIndex", 1, func(this value.Value, args []value.Value) (value.Value, *value.Completion) {
		_, i, c := h.arrayFind(this, args, true)
		if c != nil {
			return value.Value{}, c
		}
		return value.Number(float64(i)), nil
	})
	h.method(proto, "forEach", 1, func(this value.Value, args []value.Value) (value.Value, *value.Completion) {
		_, c := h.arrayIterate(this, args, func(value.Value, int) (bool, bool) { return false, false })
		return value.Undefined(), c
	})
	h.method(proto, "map", 1, func(this value.Value, args []value.Value) (value.Value, *value.Completion) {
		length, c := h.arrayLength(this)
		if c != nil {
			return value.Value{}, c
		}
		cb := arg(args, 0)
		if !cb.IsCallable() {
			return value.Value{}, h.realm.ThrowTypeError("Array.prototype.map callback is not a function")
		}
		thisArg := arg(args, 1)
		out := make([]value.Value, length)
		for i := uint32(0); i < length; i++ {
			v, c := h.elementAt(this, i)
			if c != nil {
				return value.Value{}, c
			}
			r, c := h.interp.CallFunction(cb, thisArg, []value.Value{v, value.Number(float64(i)), this})
			if c != nil {
				return value.Value{}, c
			}
			out[i] = r
		}
		return h.interp.NewArray(out), nil
	})
	h.method(proto, "filter", 1, func(this value.Value, args []value.Value) (value.Value, *value.Completion) {
		length, c := h.arrayLength(this)
		if c != nil {
			return value.Value{}, c
		}
		cb := arg(args, 0)
		if !cb.IsCallable() {
			return value.Value{}, h.realm.ThrowTypeError("Array.prototype.filter callback is not a function")
		}
		thisArg := arg(args, 1)
		var out []value.Value
		for i := uint32(0); i < length; i++ {
			v, c := h.elementAt(this, i)
			if c != nil {
				return value.Value{}, c
			}
			r, c := h.interp.CallFunction(cb, thisArg, []value.Value{v, value.Number(float64(i)), this})
			if c != nil {
				return value.Value{}, c
			}
			if value.ToBoolean(r) {
				out = append(out, v)
			}
		}
		return h.interp.NewArray(out), nil
	})
	h.method(proto, "some", 1, func(this value.Value, args []value.Value) (value.Value, *value.Completion) {
		found, c := h.arrayIterate(this, args, func(r value.Value, _ int) (bool, bool) {
			return value.ToBoolean(r), false
		})
		return value.Bool(found), c
	})
	h.method(proto, "every", 1, func(this value.Value, args []value.Value) (value.Value, *value.Completion) {
		length, c := h.arrayLength(this)
		if c != nil {
			return value.Value{}, c
		}
		cb := arg(args, 0)
		if !cb.IsCallable() {
			return value.Value{}, h.realm.ThrowTypeError("Array.prototype.every callback is not a function")
		}
		thisArg := arg(args, 1)
		for i := uint32(0); i < length; i++ {
			v, c := h.elementAt(this, i)
			if c != nil {
				return value.Value{}, c
			}
			r, c := h.interp.CallFunction(cb, thisArg, []value.Value{v, value.Number(float64(i)), this})
			if c != nil {
				return value.Value{}, c
			}
			if !value.ToBoolean(r) {
				return value.Bool(false), nil
			}
		}
		return value.Bool(true), nil
	})
	h.method(proto, "reduce", 1, func(this value.Value, args []value.Value) (value.Value, *value.Completion) {
		return h.arrayReduce(this, args, false)
	})
	h.method(proto, "reduceRight", 1, func(this value.Value, args []value.Value) (value.Value, *value.Completion) {
		return h.arrayReduce(this, args, true)
	})
	h.method(proto, "flat", 0, func(this value.Value, args []value.Value) (value.Value, *value.Completion) {
		depth := 1.0
		if d, c := intArg(h, args, 0, 1); c == nil {
			depth = d
		}
		out, c := h.flattenInto(this, depth)
		if c != nil {
			return value.Value{}, c
		}
		return h.interp.NewArray(out), nil
	})
	h.method(proto, "flatMap", 1, func(this value.Value, args []value.Value) (value.Value, *value.Completion) {
		length, c := h.arrayLength(this)
		if c != nil {
			return value.Value{}, c
		}
		cb := arg(args, 0)
		if !cb.IsCallable() {
			return value.Value{}, h.realm.ThrowTypeError("Array.prototype.flatMap callback is not a function")
		}
		thisArg := arg(args, 1)
		var out []value.Value
		for i := uint32(0); i < length; i++ {
			v, c := h.elementAt(this, i)
			if c != nil {
				return value.Value{}, c
			}
			r, c := h.interp.CallFunction(cb, thisArg, []value.Value{v, value.Number(float64(i)), this})
			if c != nil {
				return value.Value{}, c
			}
			if r.IsObject() && r.Obj.Exotic == value.ExoticArray {
				sub, c := h.flattenInto(r, 0)
				if c != nil {
					return value.Value{}, c
				}
				out = append(out, sub...)
			} else {
				out = append(out, r)
			}
		}
		return h.interp.NewArray(out), nil
	})
	h.method(proto, "fill", 1, func(this value.Value, args []value.Value) (value.Value, *value.Completion) {
		length, c := h.arrayLength(this)
		if c != nil {
			return value.Value{}, c
		}
		v := arg(args, 0)
		startN, c := intArg(h, args, 1, 0)
		if c != nil {
			return value.Value{}, c
		}
		endN, c := intArg(h, args, 2, float64(length))
		if c != nil {
			return value.Value{}, c
		}
		start := normalizeIndex(int(startN), int(length))
		end := normalizeIndex(int(endN), int(length))
		for i := start; i < end; i++ {
			if c := h.interp.SetProperty(this, strconv.Itoa(i), v); c != nil {
				return value.Value{}, c
			}
		}
		return this, nil
	})
	h.method(proto, "at", 1, func(this value.Value, args []value.Value) (value.Value, *value.Completion) {
		length, c := h.arrayLength(this)
		if c != nil {
			return value.Value{}, c
		}
		n, c := intArg(h, args, 0, 0)
		if c != nil {
			return value.Value{}, c
		}
		i := int(n)
		if i < 0 {
			i += int(length)
		}
		if i < 0 || i >= int(length) {
			return value.Undefined(), nil
		}
		return h.elementAt(this, uint32(i))
	})
	h.method(proto, "sort", 1, func(this value.Value, args []value.Value) (value.Value, *value.Completion) {
		return h.arraySort(this, arg(args, 0))
	})
	h.method(proto, "toSorted", 1, func(this value.Value, args []value.Value) (value.Value, *value.Completion) {
		length, c := h.arrayLength(this)
		if c != nil {
			return value.Value{}, c
		}
		items := make([]value.Value, length)
		for i := uint32(0); i < length; i++ {
			v, c := h.elementAt(this, i)
			if c != nil {
				return value.Value{}, c
			}
			items[i] = v
		}
		copyArr := h.interp.NewArray(items)
		return h.arraySort(copyArr, arg(args, 0))
	})
	h.method(proto, "toReversed", 0, func(this value.Value, args []value.Value) (value.Value, *value.Completion) {
		length, c := h.arrayLength(this)
		if c != nil {
			return value.Value{}, c
		}
		items := make([]value.Value, length)
		for i := uint32(0); i < length; i++ {
			v, c := h.elementAt(this, length-1-i)
			if c != nil {
				return value.Value{}, c
			}
			items[i] = v
		}
		return h.interp.NewArray(items), nil
	})
	h.method(proto, "with", 2, func(this value.Value, args []value.Value) (value.Value, *value.Completion) {
		length, c := h.arrayLength(this)
		if c != nil {
			return value.Value{}, c
		}
		n, c := intArg(h, args, 0, 0)
		if c != nil {
			return value.Value{}, c
		}
		idx := int(n)
		if idx < 0 {
			idx += int(length)
		}
		if idx < 0 || idx >= int(length) {
			return value.Value{}, h.realm.ThrowRangeError("Invalid index")
		}
		items := make([]value.Value, length)
		for i := uint32(0); i < length; i++ {
			if int(i) == idx {
				items[i] = arg(args, 1)
				continue
			}
			v, c := h.elementAt(this, i)
			if c != nil {
				return value.Value{}, c
			}
			items[i] = v
		}
		return h.interp.NewArray(items), nil
	})
	h.method(proto, "toSpliced", 2, func(this value.Value, args []value.Value) (value.Value, *value.Completion) {
		length, c := h.arrayLength(this)
		if c != nil {
			return value.Value{}, c
		}
		startN, c := intArg(h, args, 0, 0)
		if c != nil {
			return value.Value{}, c
		}
		start := normalizeIndex(int(startN), int(length))
		deleteCount := int(length) - start
		if len(args) >= 2 {
			dc, c := h.interp.ToNumberValue(arg(args, 1))
			if c != nil {
				return value.Value{}, c
			}
			switch {
			case dc != dc || dc < 0:
				deleteCount = 0
			case int(dc) < deleteCount:
				deleteCount = int(dc)
			}
		}
		inserted := rest(args, 2)
		var out []value.Value
		for i := 0; i < start; i++ {
			v, c := h.elementAt(this, uint32(i))
			if c != nil {
				return value.Value{}, c
			}
			out = append(out, v)
		}
		out = append(out, inserted...)
		for i := start + deleteCount; i < int(length); i++ {
			v, c := h.elementAt(this, uint32(i))
			if c != nil {
				return value.Value{}, c
			}
			out = append(out, v)
		}
		return h.interp.NewArray(out), nil
	})
	h.method(proto, "toString", 0, func(this value.Value, args []value.Value) (value.Value, *value.Completion) {
		return h.interp.CallFunction(mustGet(h, this, "join"), this, nil)
	})
	h.getter(proto, "length", func(this value.Value, args []value.Value) (value.Value, *value.Completion) {
		if this.IsObject() {
			return value.Number(float64(this.Obj.ArrayLength)), nil
		}
		return value.Number(0), nil
	})

	h.installArrayIterators(proto)
	h.realm.SetIntrinsic("Array", ctor)
}

func (h *host) constructArray(args []value.Value) (value.Value, *value.Completion) {
	if len(args) == 1 && args[0].Kind == value.KindNumber {
		n := args[0].Num
		if n < 0 || n != float64(uint32(n)) {
			return value.Value{}, h.realm.ThrowRangeError("Invalid array length")
		}
		return value.FromObject(h.newArrayObject(uint32(n))), nil
	}
	return h.interp.NewArray(args), nil
}

func (h *host) arrayIterate(this value.Value, args []value.Value, stop func(value.Value, int) (bool, bool)) (bool, *value.Completion) {
	length, c := h.arrayLength(this)
	if c != nil {
		return false, c
	}
	cb := arg(args, 0)
	if !cb.IsCallable() {
		return false, h.realm.ThrowTypeError("callback is not a function")
	}
	thisArg := arg(args, 1)
	for i := uint32(0); i < length; i++ {
		v, c := h.elementAt(this, i)
		if c != nil {
			return false, c
		}
		r, c := h.interp.CallFunction(cb, thisArg, []value.Value{v, value.Number(float64(i)), this})
		if c != nil {
			return false, c
		}
		if done, _ := stop(r, int(i)); done {
			return true, nil
		}
	}
	return false, nil
}

func (h *host) arrayFind(this value.Value, args []value.Value, fromEnd bool) (value.Value, int, *value.Completion) {
	length, c := h.arrayLength(this)
	if c != nil {
		return value.Value{}, -1, c
	}
	cb := arg(args, 0)
	if !cb.IsCallable() {
		return value.Value{}, -1, h.realm.ThrowTypeError("callback is not a function")
	}
	thisArg := arg(args, 1)
	indices := make([]int, length)
	for i := range indices {
		indices[i] = i
	}
	if fromEnd {
		for i, j := 0, len(indices)-1; i < j; i, j = i+1, j-1 {
			indices[i], indices[j] = indices[j], indices[i]
		}
	}
	for _, i := range indices {
		v, c := h.elementAt(this, uint32(i))
		if c != nil {
			return value.Value{}, -1, c
		}
		r, c := h.interp.CallFunction(cb, thisArg, []value.Value{v, value.Number(float64(i)), this})
		if c != nil {
			return value.Value{}, -1, c
		}
		if value.ToBoolean(r) {
			return v, i, nil
		}
	}
	return value.Undefined(), -1, nil
}

func (h *host) arrayReduce(this value.Value, args []value.Value, fromRight bool) (value.Value, *value.Completion) {
	length, c := h.arrayLength(this)
	if c != nil {
		return value.Value{}, c
	}
	cb := arg(args, 0)
	if !cb.IsCallable() {
		return value.Value{}, h.realm.ThrowTypeError("reduce callback is not a function")
	}
	indices := make([]int, length)
	for i := range indices {
		indices[i] = i
	}
	if fromRight {
		for i, j := 0, len(indices)-1; i < j; i, j = i+1, j-1 {
			indices[i], indices[j] = indices[j], indices[i]
		}
	}
	var acc value.Value
	start := 0
	if len(args) >= 2 {
		acc = args[1]
	} else {
		if len(indices) == 0 {
			return value.Value{}, h.realm.ThrowTypeError("Reduce of empty array with no initial value")
		}
		v, c := h.elementAt(this, uint32(indices[0]))
		if c != nil {
			return value.Value{}, c
		}
		acc = v
		start = 1
	}
	for _, i := range indices[start:] {
		v, c := h.elementAt(this, uint32(i))
		if c != nil {
			return value.Value{}, c
		}
		r, c := h.interp.CallFunction(cb, value.Undefined(), []value.Value{acc, v, value.Number(float64(i)), this})
		if c != nil {
			return value.Value{}, c
		}
		acc = r
	}
	return acc, nil
}

func (h *host) flattenInto(this value.Value, depth float64) ([]value.Value, *value.Completion) {
	length, c := h.arrayLength(this)
	if c != nil {
		return nil, c
	}
	var out []value.Value
	for i := uint32(0); i < length; i++ {
		v, c := h.elementAt(this, i)
		if c != nil {
			return nil, c
		}
		if depth > 0 && v.IsObject() && v.Obj.Exotic == value.ExoticArray {
			sub, c := h.flattenInto(v, depth-1)
			if c != nil {
				return nil, c
			}
			out = append(out, sub...)
		} else {
			out = append(out, v)
		}
	}
	return out, nil
}

func (h *host) arraySort(this value.Value, cmp value.Value) (value.Value, *value.Completion) {
	length, c := h.arrayLength(this)
	if c != nil {
		return value.Value{}, c
	}
	items := make([]value.Value, length)
	for i := uint32(0); i < length; i++ {
		v, c := h.elementAt(this, i)
		if c != nil {
			return value.Value{}, c
		}
		items[i] = v
	}
	var sortErr *value.Completion
	less := func(a, b value.Value) bool {
		if a.IsUndefined() {
			return false
		}
		if b.IsUndefined() {
			return true
		}
		if cmp.IsCallable() {
			r, c := h.interp.CallFunction(cmp, value.Undefined(), []value.Value{a, b})
			if c != nil {
				if sortErr == nil {
					sortErr = c
				}
				return false
			}
			n, c := h.interp.ToNumberValue(r)
			if c != nil {
				if sortErr == nil {
					sortErr = c
				}
				return false
			}
			return n < 0
		}
		sa, c := h.interp.ToStringValue(a)
		if c != nil {
			if sortErr == nil {
				sortErr = c
			}
			return false
		}
		sb, c := h.interp.ToStringValue(b)
		if c != nil {
			if sortErr == nil {
				sortErr = c
			}
			return false
		}
		return helpers.UTF16ToString(sa) < helpers.UTF16ToString(sb)
	}
	insertionSort(items, less)
	if sortErr != nil {
		return value.Value{}, sortErr
	}
	for i, v := range items {
		h.interp.SetProperty(this, strconv.Itoa(i), v)
	}
	return this, nil
}

// makeIteratorResult builds the {value, done} object the iterator protocol
// (spec's IteratorResult) requires every next() call to return.
func (h *host) makeIteratorResult(v value.Value, done bool) value.Value {
	obj := h.realm.NewObject()
	obj.DefineOwnProperty("value", value.DataProperty(v, true, true, true))
	obj.DefineOwnProperty("done", value.DataProperty(value.Bool(done), true, true, true))
	return value.FromObject(obj)
}

// newIteratorObject wraps a Go closure producing successive values as a
// native iterator object: a plain object whose own "next" method calls next
// once per invocation, and whose Symbol.iterator returns itself — the same
// shape a generator's consumer sees, but driven by a Go index instead of a
// goroutine handshake.
func (h *host) newIteratorObject(next func() (value.Value, bool)) *value.Object {
	obj := h.realm.NewObject()
	obj.SetClass("Array Iterator")
	h.method(obj, "next", 0, func(value.Value, []value.Value) (value.Value, *value.Completion) {
		v, ok := next()
		if !ok {
			return h.makeIteratorResult(value.Undefined(), true), nil
		}
		return h.makeIteratorResult(v, false), nil
	})
	if sym := h.realm.WellKnownSymbols["iterator"]; sym != nil {
		self := obj
		obj.DefineOwnPropertySymbol(sym, value.DataProperty(value.FromObject(h.nativeFn("[Symbol.iterator]", 0, func(this value.Value, _ []value.Value) (value.Value, *value.Completion) {
			return value.FromObject(self), nil
		})), true, false, true))
	}
	return obj
}

// installArrayIterators wires values()/keys()/entries() plus
// Array.prototype[Symbol.iterator] (an alias of values()), each capturing a
// fresh index so multiple concurrent iterators over the same array don't
// interfere.
func (h *host) installArrayIterators(proto *value.Object) {
	makeIter := func(kind int) value.CallFunc {
		return func(this value.Value, _ []value.Value) (value.Value, *value.Completion) {
			i := uint32(0)
			return value.FromObject(h.newIteratorObject(func() (value.Value, bool) {
				length, c := h.arrayLength(this)
				if c != nil || i >= length {
					return value.Value{}, false
				}
				idx := i
				i++
				switch kind {
				case 0:
					return value.Number(float64(idx)), true
				case 1:
					v, c := h.elementAt(this, idx)
					if c != nil {
						return value.Value{}, false
					}
					return v, true
				default:
					v, c := h.elementAt(this, idx)
					if c != nil {
						return value.Value{}, false
					}
					return h.interp.NewArray([]value.Value{value.Number(float64(idx)), v}), true
				}
			})), nil
		}
	}
	h.method(proto, "keys", 0, makeIter(0))
	h.method(proto, "values", 0, makeIter(1))
	h.method(proto, "entries", 0, makeIter(2))
	if sym := h.realm.WellKnownSymbols["iterator"]; sym != nil {
		proto.DefineOwnPropertySymbol(sym, value.DataProperty(value.FromObject(h.nativeFn("[Symbol.iterator]", 0, makeIter(1))), true, false, true))
	}
}

func insertionSort(items []value.Value, less func(a, b value.Value) bool) {
	for i := 1; i < len(items); i++ {
		for j := i; j > 0 && less(items[j], items[j-1]); j-- {
			items[j], items[j-1] = items[j-1], items[j]
		}
	}
}

