package builtins

import (
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/jsrun/jsengine/internal/value"
)

// installGlobalFunctions wires the free functions spec §4.9 puts directly on
// the global object rather than behind a namespace (parseInt, isNaN, the
// URI encode/decode family).
func (h *host) installGlobalFunctions() {
	global := h.realm.GlobalObject

	defineGlobal := func(name string, length int, fn value.CallFunc) {
		global.DefineOwnProperty(name, value.DataProperty(value.FromObject(h.nativeFn(name, length, fn)), true, false, true))
	}

	defineGlobal("parseInt", 2, func(_ value.Value, args []value.Value) (value.Value, *value.Completion) {
		return h.parseIntValue(args)
	})
	defineGlobal("parseFloat", 1, func(_ value.Value, args []value.Value) (value.Value, *value.Completion) {
		return h.parseFloatValue(arg(args, 0))
	})
	defineGlobal("isNaN", 1, func(_ value.Value, args []value.Value) (value.Value, *value.Completion) {
		n, c := h.interp.ToNumberValue(arg(args, 0))
		if c != nil {
			return value.Value{}, c
		}
		return value.Bool(math.IsNaN(n)), nil
	})
	defineGlobal("isFinite", 1, func(_ value.Value, args []value.Value) (value.Value, *value.Completion) {
		n, c := h.interp.ToNumberValue(arg(args, 0))
		if c != nil {
			return value.Value{}, c
		}
		return value.Bool(!math.IsNaN(n) && !math.IsInf(n, 0)), nil
	})

	defineGlobal("encodeURI", 1, h.uriEncoder(uriReservedEncodeURI))
	defineGlobal("encodeURIComponent", 1, h.uriEncoder(uriReservedEncodeURIComponent))
	defineGlobal("decodeURI", 1, h.uriDecoder(uriReservedDecodeURI))
	defineGlobal("decodeURIComponent", 1, h.uriDecoder(""))
	defineGlobal("escape", 1, h.legacyEscape())
	defineGlobal("unescape", 1, h.legacyUnescape())

	defineGlobal("structuredClone", 1, func(_ value.Value, args []value.Value) (value.Value, *value.Completion) {
		return h.structuredClone(arg(args, 0), make(map[*value.Object]*value.Object))
	})
}

// uriReservedEncodeURI/Component list the ASCII characters left unescaped by
// each of encodeURI/encodeURIComponent, per spec's encodeURI/encodeURIComponent
// "unescapedSet" tables.
const (
	uriUnreserved                  = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_.!~*'()"
	uriReservedEncodeURI           = uriUnreserved + ";/?:@&=+$,#"
	uriReservedEncodeURIComponent  = uriUnreserved
	uriReservedDecodeURI           = ";/?:@&=+$,#"
)

func (h *host) uriEncoder(keep string) value.CallFunc {
	return func(_ value.Value, args []value.Value) (value.Value, *value.Completion) {
		s, c := h.interp.ToStringValue(arg(args, 0))
		if c != nil {
			return value.Value{}, c
		}
		str := s2(s)
		var sb strings.Builder
		for _, b := range []byte(str) {
			if strings.IndexByte(keep, b) >= 0 {
				sb.WriteByte(b)
			} else {
				sb.WriteString("%")
				sb.WriteString(strings.ToUpper(hexByte(b)))
			}
		}
		return value.StringFromGo(sb.String()), nil
	}
}

func (h *host) uriDecoder(keepEscaped string) value.CallFunc {
	return func(_ value.Value, args []value.Value) (value.Value, *value.Completion) {
		s, c := h.interp.ToStringValue(arg(args, 0))
		if c != nil {
			return value.Value{}, c
		}
		decoded, err := url.QueryUnescape(strings.ReplaceAll(s2(s), "+", "%2B"))
		if err != nil {
			return value.Value{}, value.Throw(value.FromObject(h.realm.NewError("URIError", "URI malformed")))
		}
		return value.StringFromGo(decoded), nil
	}
}

func hexByte(b byte) string {
	const digits = "0123456789abcdef"
	return string([]byte{digits[b>>4], digits[b&0xf]})
}

func (h *host) legacyEscape() value.CallFunc {
	return func(_ value.Value, args []value.Value) (value.Value, *value.Completion) {
		s, c := h.interp.ToStringValue(arg(args, 0))
		if c != nil {
			return value.Value{}, c
		}
		const keep = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789@*_+-./"
		var sb strings.Builder
		for _, u := range s {
			if u < 256 && strings.IndexByte(keep, byte(u)) >= 0 {
				sb.WriteByte(byte(u))
			} else if u < 256 {
				sb.WriteString("%")
				sb.WriteString(strings.ToUpper(hexByte(byte(u))))
			} else {
				sb.WriteString("%u")
				sb.WriteString(strings.ToUpper(hexPad4(uint16(u))))
			}
		}
		return value.StringFromGo(sb.String()), nil
	}
}

func hexPad4(n uint16) string {
	const digits = "0123456789abcdef"
	return string([]byte{digits[(n>>12)&0xf], digits[(n>>8)&0xf], digits[(n>>4)&0xf], digits[n&0xf]})
}

func (h *host) legacyUnescape() value.CallFunc {
	return func(_ value.Value, args []value.Value) (value.Value, *value.Completion) {
		s, c := h.interp.ToStringValue(arg(args, 0))
		if c != nil {
			return value.Value{}, c
		}
		str := s2(s)
		var sb strings.Builder
		for i := 0; i < len(str); i++ {
			if str[i] == '%' && i+5 < len(str) && str[i+1] == 'u' {
				if n, err := parseHex4(str[i+2 : i+6]); err == nil {
					sb.WriteRune(rune(n))
					i += 5
					continue
				}
			}
			if str[i] == '%' && i+2 < len(str) {
				if n, err := parseHex2(str[i+1 : i+3]); err == nil {
					sb.WriteByte(byte(n))
					i += 2
					continue
				}
			}
			sb.WriteByte(str[i])
		}
		return value.StringFromGo(sb.String()), nil
	}
}

func parseHex4(s string) (uint64, error) { return parseHexN(s, 16) }
func parseHex2(s string) (uint64, error) { return parseHexN(s, 8) }

func parseHexN(s string, bits int) (uint64, error) {
	var n uint64
	for _, c := range s {
		var d uint64
		switch {
		case c >= '0' && c <= '9':
			d = uint64(c - '0')
		case c >= 'a' && c <= 'f':
			d = uint64(c-'a') + 10
		case c >= 'A' && c <= 'F':
			d = uint64(c-'A') + 10
		default:
			return 0, errHexParse
		}
		n = n*16 + d
	}
	return n, nil
}

type hexErr string

func (e hexErr) Error() string { return string(e) }

var errHexParse = hexErr("invalid hex digit")

// structuredClone implements a minimal structured-clone algorithm: deep
// copies arrays, Map and Date objects, and the enumerable string-keyed
// properties of any other object into a plain object, throwing a TypeError
// on callables. Set has no case of its own and comes back as a plain object;
// primitives, symbols included, are returned as they are.
func (h *host) structuredClone(v value.Value, seen map[*value.Object]*value.Object) (value.Value, *value.Completion) {
	if v.Kind != value.KindObject {
		return v, nil
	}
	obj := v.Obj
	if obj.Call != nil {
		return value.Value{}, value.Throw(value.FromObject(h.realm.NewError("TypeError", "could not be cloned")))
	}
	if clone, ok := seen[obj]; ok {
		return value.FromObject(clone), nil
	}
	switch obj.Class() {
	case "Array":
		out := h.interp.NewArray(nil).Obj
		seen[obj] = out
		for i := uint32(0); i < obj.ArrayLength; i++ {
			elem, _ := h.interp.GetProperty(v, strconvItoa(i))
			cv, c := h.structuredClone(elem, seen)
			if c != nil {
				return value.Value{}, c
			}
			out.DefineOwnProperty(strconvItoa(i), value.DataProperty(cv, true, true, true))
		}
		out.ArrayLength = obj.ArrayLength
		return value.FromObject(out), nil
	case "Date":
		out := value.NewObject(h.realm.Intrinsic("Date.prototype"))
		out.SetClass("Date")
		out.Exotic = value.ExoticDate
		out.DateValue = obj.DateValue
		return value.FromObject(out), nil
	case "Map":
		out := value.NewObject(h.realm.Intrinsic("Map.prototype"))
		out.SetClass("Map")
		out.MapData = value.NewOrderedMap(false)
		seen[obj] = out
		if obj.MapData != nil {
			keys, vals, deleted := obj.MapData.Entries()
			for i := range keys {
				if deleted[i] {
					continue
				}
				ck, c := h.structuredClone(keys[i], seen)
				if c != nil {
					return value.Value{}, c
				}
				cv, c := h.structuredClone(vals[i], seen)
				if c != nil {
					return value.Value{}, c
				}
				out.MapData.Set(ck, cv)
			}
		}
		return value.FromObject(out), nil
	default:
		out := h.realm.NewObject()
		seen[obj] = out
		for _, key := range obj.OwnPropertyKeys() {
			if key.IsSymbol {
				continue
			}
			d, ok := obj.GetOwnProperty(key.Str)
			if !ok || !d.Enumerable {
				continue
			}
			cv, c := h.structuredClone(d.Value, seen)
			if c != nil {
				return value.Value{}, c
			}
			out.DefineOwnProperty(key.Str, value.DataProperty(cv, true, true, true))
		}
		return value.FromObject(out), nil
	}
}

func strconvItoa(i uint32) string {
	return strconv.FormatUint(uint64(i), 10)
}
