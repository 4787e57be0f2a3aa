package builtins

import (
	"strings"

	"github.com/jsrun/jsengine/internal/helpers"
	"github.com/jsrun/jsengine/internal/value"
)

func thisStringValue(h *host, this value.Value) ([]uint16, *value.Completion) {
	switch this.Kind {
	case value.KindString:
		return this.Str, nil
	case value.KindObject:
		if this.Obj.Exotic == value.ExoticStringWrapper {
			return this.Obj.PrimitiveData.Str, nil
		}
	}
	return nil, h.realm.ThrowTypeError("String.prototype method called on incompatible receiver")
}

func (h *host) installString() {
	proto := value.NewObject(h.realm.Intrinsic("Object.prototype"))
	proto.SetClass("String")
	proto.Exotic = value.ExoticStringWrapper
	proto.PrimitiveData = value.StringFromGo("")
	h.realm.SetIntrinsic("String.prototype", proto)

	ctor := h.nativeFn("String", 1, func(_ value.Value, args []value.Value) (value.Value, *value.Completion) {
		if len(args) == 0 {
			return value.StringFromGo(""), nil
		}
		if s, ok := args[0].Kind, args[0]; s == value.KindSymbol {
			return value.StringFromGo(describeSymbol(ok.Sym)), nil
		}
		v, c := h.interp.ToStringValue(args[0])
		if c != nil {
			return value.Value{}, c
		}
		return value.StringFromUTF16(v), nil
	})
	ctor.Construct = func(args []value.Value, newTarget *value.Object) (value.Value, *value.Completion) {
		s := ""
		if len(args) > 0 {
			v, c := h.interp.ToStringValue(args[0])
			if c != nil {
				return value.Value{}, c
			}
			s = helpers.UTF16ToString(v)
		}
		obj := value.NewObject(proto)
		obj.SetClass("String")
		obj.Exotic = value.ExoticStringWrapper
		obj.PrimitiveData = value.StringFromGo(s)
		obj.ArrayLength = uint32(len(helpers.StringToUTF16(s)))
		return value.FromObject(obj), nil
	}
	ctor.DefineOwnProperty("prototype", value.DataProperty(value.FromObject(proto), false, false, false))
	proto.DefineOwnProperty("constructor", value.DataProperty(value.FromObject(ctor), true, false, true))

	h.staticMethod(ctor, "fromCharCode", 1, func(_ value.Value, args []value.Value) (value.Value, *value.Completion) {
		out := make([]uint16, len(args))
		for i, a := range args {
			n, c := h.interp.ToNumberValue(a)
			if c != nil {
				return value.Value{}, c
			}
			out[i] = uint16(int64(n))
		}
		return value.StringFromUTF16(out), nil
	})
	h.staticMethod(ctor, "raw", 1, func(_ value.Value, args []value.Value) (value.Value, *value.Completion) {
		cooked := arg(args, 0)
		raw, c := h.interp.GetProperty(cooked, "raw")
		if c != nil {
			return value.Value{}, c
		}
		length, c := h.arrayLength(raw)
		if c != nil {
			return value.Value{}, c
		}
		subs := rest(args, 1)
		var sb []uint16
		for i := uint32(0); i < length; i++ {
			seg, c := h.elementAt(raw, i)
			if c != nil {
				return value.Value{}, c
			}
			s, c := h.interp.ToStringValue(seg)
			if c != nil {
				return value.Value{}, c
			}
			sb = append(sb, s...)
			if int(i) < len(subs) {
				s, c := h.interp.ToStringValue(subs[i])
				if c != nil {
					return value.Value{}, c
				}
				sb = append(sb, s...)
			}
		}
		return value.StringFromUTF16(sb), nil
	})

	strMethod := func(name string, length int, fn func(s string, args []value.Value) (value.Value, *value.Completion)) {
		h.method(proto, name, length, func(this value.Value, args []value.Value) (value.Value, *value.Completion) {
			utf16, c := thisStringValue(h, this)
			if c != nil {
				return value.Value{}, c
			}
			return fn(helpers.UTF16ToString(utf16), args)
		})
	}

	strMethod("toString", 0, func(s string, args []value.Value) (value.Value, *value.Completion) {
		return value.StringFromGo(s), nil
	})
	strMethod("valueOf", 0, func(s string, args []value.Value) (value.Value, *value.Completion) {
		return value.StringFromGo(s), nil
	})
	strMethod("charAt", 1, func(s string, args []value.Value) (value.Value, *value.Completion) {
		u16 := helpers.StringToUTF16(s)
		n, c := intArg(h, args, 0, 0)
		if c != nil {
			return value.Value{}, c
		}
		i := int(n)
		if i < 0 || i >= len(u16) {
			return value.StringFromGo(""), nil
		}
		return value.StringFromUTF16(u16[i : i+1]), nil
	})
	strMethod("charCodeAt", 1, func(s string, args []value.Value) (value.Value, *value.Completion) {
		u16 := helpers.StringToUTF16(s)
		n, c := intArg(h, args, 0, 0)
		if c != nil {
			return value.Value{}, c
		}
		i := int(n)
		if i < 0 || i >= len(u16) {
			return value.Number(nan()), nil
		}
		return value.Number(float64(u16[i])), nil
	})
	strMethod("codePointAt", 1, func(s string, args []value.Value) (value.Value, *value.Completion) {
		u16 := helpers.StringToUTF16(s)
		n, c := intArg(h, args, 0, 0)
		if c != nil {
			return value.Value{}, c
		}
		i := int(n)
		if i < 0 || i >= len(u16) {
			return value.Undefined(), nil
		}
		r1 := rune(u16[i])
		if r1 >= 0xD800 && r1 <= 0xDBFF && i+1 < len(u16) {
			if r2 := rune(u16[i+1]); r2 >= 0xDC00 && r2 <= 0xDFFF {
				return value.Number(float64((r1-0xD800)<<10 | (r2 - 0xDC00) + 0x10000)), nil
			}
		}
		return value.Number(float64(u16[i])), nil
	})
	strMethod("at", 1, func(s string, args []value.Value) (value.Value, *value.Completion) {
		u16 := helpers.StringToUTF16(s)
		n, c := intArg(h, args, 0, 0)
		if c != nil {
			return value.Value{}, c
		}
		i := int(n)
		if i < 0 {
			i += len(u16)
		}
		if i < 0 || i >= len(u16) {
			return value.Undefined(), nil
		}
		return value.StringFromUTF16(u16[i : i+1]), nil
	})
	strMethod("indexOf", 1, func(s string, args []value.Value) (value.Value, *value.Completion) {
		search, c := h.interp.ToStringValue(arg(args, 0))
		if c != nil {
			return value.Value{}, c
		}
		return value.Number(float64(strings.Index(s, helpers.UTF16ToString(search)))), nil
	})
	strMethod("lastIndexOf", 1, func(s string, args []value.Value) (value.Value, *value.Completion) {
		search, c := h.interp.ToStringValue(arg(args, 0))
		if c != nil {
			return value.Value{}, c
		}
		return value.Number(float64(strings.LastIndex(s, helpers.UTF16ToString(search)))), nil
	})
	strMethod("includes", 1, func(s string, args []value.Value) (value.Value, *value.Completion) {
		search, c := h.interp.ToStringValue(arg(args, 0))
		if c != nil {
			return value.Value{}, c
		}
		return value.Bool(strings.Contains(s, helpers.UTF16ToString(search))), nil
	})
	strMethod("startsWith", 1, func(s string, args []value.Value) (value.Value, *value.Completion) {
		search, c := h.interp.ToStringValue(arg(args, 0))
		if c != nil {
			return value.Value{}, c
		}
		return value.Bool(strings.HasPrefix(s, helpers.UTF16ToString(search))), nil
	})
	strMethod("endsWith", 1, func(s string, args []value.Value) (value.Value, *value.Completion) {
		search, c := h.interp.ToStringValue(arg(args, 0))
		if c != nil {
			return value.Value{}, c
		}
		return value.Bool(strings.HasSuffix(s, helpers.UTF16ToString(search))), nil
	})
	strMethod("slice", 2, func(s string, args []value.Value) (value.Value, *value.Completion) {
		u16 := helpers.StringToUTF16(s)
		startN, c := intArg(h, args, 0, 0)
		if c != nil {
			return value.Value{}, c
		}
		endN, c := intArg(h, args, 1, float64(len(u16)))
		if c != nil {
			return value.Value{}, c
		}
		start := normalizeIndex(int(startN), len(u16))
		end := normalizeIndex(int(endN), len(u16))
		if start >= end {
			return value.StringFromGo(""), nil
		}
		return value.StringFromUTF16(u16[start:end]), nil
	})
	strMethod("substring", 2, func(s string, args []value.Value) (value.Value, *value.Completion) {
		u16 := helpers.StringToUTF16(s)
		startN, c := intArg(h, args, 0, 0)
		if c != nil {
			return value.Value{}, c
		}
		endN, c := intArg(h, args, 1, float64(len(u16)))
		if c != nil {
			return value.Value{}, c
		}
		start := clamp(int(startN), 0, len(u16))
		end := clamp(int(endN), 0, len(u16))
		if start > end {
			start, end = end, start
		}
		return value.StringFromUTF16(u16[start:end]), nil
	})
	strMethod("substr", 2, func(s string, args []value.Value) (value.Value, *value.Completion) {
		u16 := helpers.StringToUTF16(s)
		startN, c := intArg(h, args, 0, 0)
		if c != nil {
			return value.Value{}, c
		}
		start := int(startN)
		if start < 0 {
			start += len(u16)
			if start < 0 {
				start = 0
			}
		}
		lengthN, c := intArg(h, args, 1, float64(len(u16)-start))
		if c != nil {
			return value.Value{}, c
		}
		end := clamp(start+int(lengthN), start, len(u16))
		start = clamp(start, 0, len(u16))
		if start >= end {
			return value.StringFromGo(""), nil
		}
		return value.StringFromUTF16(u16[start:end]), nil
	})
	strMethod("toUpperCase", 0, func(s string, args []value.Value) (value.Value, *value.Completion) {
		return value.StringFromGo(strings.ToUpper(s)), nil
	})
	strMethod("toLowerCase", 0, func(s string, args []value.Value) (value.Value, *value.Completion) {
		return value.StringFromGo(strings.ToLower(s)), nil
	})
	strMethod("toLocaleUpperCase", 0, func(s string, args []value.Value) (value.Value, *value.Completion) {
		return value.StringFromGo(strings.ToUpper(s)), nil
	})
	strMethod("toLocaleLowerCase", 0, func(s string, args []value.Value) (value.Value, *value.Completion) {
		return value.StringFromGo(strings.ToLower(s)), nil
	})
	strMethod("trim", 0, func(s string, args []value.Value) (value.Value, *value.Completion) {
		return value.StringFromGo(strings.TrimSpace(s)), nil
	})
	strMethod("trimStart", 0, func(s string, args []value.Value) (value.Value, *value.Completion) {
		return value.StringFromGo(strings.TrimLeft(s, " \t\n\r\v\f ﻿")), nil
	})
	strMethod("trimEnd", 0, func(s string, args []value.Value) (value.Value, *value.Completion) {
		return value.StringFromGo(strings.TrimRight(s, " \t\n\r\v\f ﻿")), nil
	})
	strMethod("padStart", 2, func(s string, args []value.Value) (value.Value, *value.Completion) {
		return h.stringPad(s, args, true)
	})
	strMethod("padEnd", 2, func(s string, args []value.Value) (value.Value, *value.Completion) {
		return h.stringPad(s, args, false)
	})
	strMethod("repeat", 1, func(s string, args []value.Value) (value.Value, *value.Completion) {
		n, c := h.interp.ToNumberValue(arg(args, 0))
		if c != nil {
			return value.Value{}, c
		}
		if n < 0 {
			return value.Value{}, h.realm.ThrowRangeError("Invalid count value")
		}
		return value.StringFromGo(strings.Repeat(s, int(n))), nil
	})
	strMethod("concat", 1, func(s string, args []value.Value) (value.Value, *value.Completion) {
		sb := s
		for _, a := range args {
			v, c := h.interp.ToStringValue(a)
			if c != nil {
				return value.Value{}, c
			}
			sb += helpers.UTF16ToString(v)
		}
		return value.StringFromGo(sb), nil
	})
	strMethod("split", 2, func(s string, args []value.Value) (value.Value, *value.Completion) {
		return h.stringSplit(s, args)
	})
	strMethod("replace", 2, func(s string, args []value.Value) (value.Value, *value.Completion) {
		return h.stringReplace(s, args, false)
	})
	strMethod("replaceAll", 2, func(s string, args []value.Value) (value.Value, *value.Completion) {
		return h.stringReplace(s, args, true)
	})
	strMethod("match", 1, func(s string, args []value.Value) (value.Value, *value.Completion) {
		return h.stringMatch(s, arg(args, 0), false)
	})
	strMethod("matchAll", 1, func(s string, args []value.Value) (value.Value, *value.Completion) {
		return h.stringMatch(s, arg(args, 0), true)
	})
	strMethod("search", 1, func(s string, args []value.Value) (value.Value, *value.Completion) {
		return h.stringSearch(s, arg(args, 0))
	})
	strMethod("normalize", 0, func(s string, args []value.Value) (value.Value, *value.Completion) {
		return value.StringFromGo(s), nil
	})
	strMethod("localeCompare", 1, func(s string, args []value.Value) (value.Value, *value.Completion) {
		other, c := h.interp.ToStringValue(arg(args, 0))
		if c != nil {
			return value.Value{}, c
		}
		return value.Number(float64(strings.Compare(s, helpers.UTF16ToString(other)))), nil
	})
	h.getter(proto, "length", func(this value.Value, args []value.Value) (value.Value, *value.Completion) {
		s, c := thisStringValue(h, this)
		if c != nil {
			return value.Value{}, c
		}
		return value.Number(float64(len(s))), nil
	})

	if sym := h.realm.WellKnownSymbols["iterator"]; sym != nil {
		proto.DefineOwnPropertySymbol(sym, value.DataProperty(value.FromObject(h.nativeFn("[Symbol.iterator]", 0, func(this value.Value, _ []value.Value) (value.Value, *value.Completion) {
			u16, c := thisStringValue(h, this)
			if c != nil {
				return value.Value{}, c
			}
			i := 0
			return value.FromObject(h.newIteratorObject(func() (value.Value, bool) {
				if i >= len(u16) {
					return value.Value{}, false
				}
				width := 1
				r1 := rune(u16[i])
				if r1 >= 0xD800 && r1 <= 0xDBFF && i+1 < len(u16) {
					if r2 := rune(u16[i+1]); r2 >= 0xDC00 && r2 <= 0xDFFF {
						width = 2
					}
				}
				chunk := u16[i : i+width]
				i += width
				return value.StringFromUTF16(chunk), true
			})), nil
		})), true, false, true))
	}

	h.realm.SetIntrinsic("String", ctor)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func (h *host) stringPad(s string, args []value.Value, start bool) (value.Value, *value.Completion) {
	u16 := helpers.StringToUTF16(s)
	target, c := h.interp.ToNumberValue(arg(args, 0))
	if c != nil {
		return value.Value{}, c
	}
	if int(target) <= len(u16) {
		return value.StringFromGo(s), nil
	}
	pad := []uint16{' '}
	if p := arg(args, 1); !p.IsUndefined() {
		s, c := h.interp.ToStringValue(p)
		if c != nil {
			return value.Value{}, c
		}
		if len(s) == 0 {
			return value.StringFromGo(s2(s)), nil
		}
		pad = s
	}
	need := int(target) - len(u16)
	var fill []uint16
	for len(fill) < need {
		fill = append(fill, pad...)
	}
	fill = fill[:need]
	if start {
		return value.StringFromUTF16(append(fill, u16...)), nil
	}
	return value.StringFromUTF16(append(u16, fill...)), nil
}

func s2(u16 []uint16) string { return helpers.UTF16ToString(u16) }

func describeSymbol(s *value.Symbol) string {
	if s == nil {
		return "Symbol()"
	}
	if s.HasDesc {
		return "Symbol(" + s.Description + ")"
	}
	return "Symbol()"
}
