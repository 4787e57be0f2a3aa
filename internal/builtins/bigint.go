package builtins

import (
	"math/big"
	"strings"

	"github.com/jsrun/jsengine/internal/value"
)

// installBigInt wires the BigInt global and its prototype. Arithmetic
// (+, -, *, /, %, **, bitwise ops, shifts) on BigInt operands is dispatched
// by internal/evaluator's applyBinary using math/big directly against
// value.BigInt.Digits; this file covers construction, ToBigInt conversion,
// and BigInt.prototype/asIntN/asUintN.
func (h *host) installBigInt() {
	proto := value.NewObject(h.realm.Intrinsic("Object.prototype"))
	proto.SetClass("BigInt")
	h.realm.SetIntrinsic("BigInt.prototype", proto)

	ctor := h.nativeFn("BigInt", 1, func(_ value.Value, args []value.Value) (value.Value, *value.Completion) {
		return h.toBigInt(arg(args, 0))
	})
	ctor.DefineOwnProperty("prototype", value.DataProperty(value.FromObject(proto), false, false, false))
	proto.DefineOwnProperty("constructor", value.DataProperty(value.FromObject(ctor), true, false, true))

	h.staticMethod(ctor, "asIntN", 2, func(_ value.Value, args []value.Value) (value.Value, *value.Completion) {
		return h.bigIntAsN(args, true)
	})
	h.staticMethod(ctor, "asUintN", 2, func(_ value.Value, args []value.Value) (value.Value, *value.Completion) {
		return h.bigIntAsN(args, false)
	})

	h.method(proto, "toString", 0, func(this value.Value, args []value.Value) (value.Value, *value.Completion) {
		b, c := thisBigInt(h, this)
		if c != nil {
			return value.Value{}, c
		}
		radix := 10
		if len(args) > 0 && !args[0].IsUndefined() {
			n, c := h.interp.ToNumberValue(args[0])
			if c != nil {
				return value.Value{}, c
			}
			radix = int(n)
		}
		return value.StringFromGo(b.Text(radix)), nil
	})
	h.method(proto, "valueOf", 0, func(this value.Value, args []value.Value) (value.Value, *value.Completion) {
		_, c := thisBigInt(h, this)
		if c != nil {
			return value.Value{}, c
		}
		return this, nil
	})
	h.method(proto, "toLocaleString", 0, func(this value.Value, args []value.Value) (value.Value, *value.Completion) {
		b, c := thisBigInt(h, this)
		if c != nil {
			return value.Value{}, c
		}
		return value.StringFromGo(b.String()), nil
	})

	h.realm.SetIntrinsic("BigInt", ctor)
}

func thisBigInt(h *host, this value.Value) (*big.Int, *value.Completion) {
	var digits string
	switch this.Kind {
	case value.KindBigInt:
		digits = this.BigInt.Digits
	case value.KindObject:
		if this.Obj.Class() == "BigInt" && this.Obj.PrimitiveData.Kind == value.KindBigInt {
			digits = this.Obj.PrimitiveData.BigInt.Digits
		} else {
			return nil, h.realm.ThrowTypeError("BigInt.prototype method called on incompatible receiver")
		}
	default:
		return nil, h.realm.ThrowTypeError("BigInt.prototype method called on incompatible receiver")
	}
	b, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		b = big.NewInt(0)
	}
	return b, nil
}

// toBigInt implements spec's ToBigInt: numbers must be integral and within
// int64 range (NaN and fractions throw RangeError), strings are parsed as decimal/hex/octal/binary integer literals, booleans
// become 0/1, and anything else (undefined, null, symbols, floats) throws.
func (h *host) toBigInt(v value.Value) (value.Value, *value.Completion) {
	switch v.Kind {
	case value.KindBigInt:
		return v, nil
	case value.KindBoolean:
		if v.Bool {
			return value.FromBigInt(&value.BigInt{Digits: "1"}), nil
		}
		return value.FromBigInt(&value.BigInt{Digits: "0"}), nil
	case value.KindNumber:
		if v.Num != v.Num || v.Num != float64(int64(v.Num)) {
			return value.Value{}, h.realm.ThrowRangeError("The number is not a safe integer")
		}
		return value.FromBigInt(&value.BigInt{Digits: big.NewInt(int64(v.Num)).String()}), nil
	case value.KindString:
		s := strings.TrimSpace(s2(v.Str))
		if s == "" {
			s = "0"
		}
		base := 10
		switch {
		case strings.HasPrefix(s, "0x"), strings.HasPrefix(s, "0X"):
			base, s = 16, s[2:]
		case strings.HasPrefix(s, "0o"), strings.HasPrefix(s, "0O"):
			base, s = 8, s[2:]
		case strings.HasPrefix(s, "0b"), strings.HasPrefix(s, "0B"):
			base, s = 2, s[2:]
		}
		b, ok := new(big.Int).SetString(s, base)
		if !ok {
			return value.Value{}, h.realm.ThrowSyntaxError("Cannot convert " + s2(v.Str) + " to a BigInt")
		}
		return value.FromBigInt(&value.BigInt{Digits: b.String()}), nil
	case value.KindObject:
		prim, c := h.interp.ToPrimitive(v, "number")
		if c != nil {
			return value.Value{}, c
		}
		if prim.Kind == value.KindObject {
			return value.Value{}, h.realm.ThrowTypeError("Cannot convert object to a BigInt")
		}
		return h.toBigInt(prim)
	}
	return value.Value{}, h.realm.ThrowTypeError("Cannot convert " + value.TypeOf(v) + " to a BigInt")
}

func (h *host) bigIntAsN(args []value.Value, signed bool) (value.Value, *value.Completion) {
	bitsVal, c := h.interp.ToNumberValue(arg(args, 0))
	if c != nil {
		return value.Value{}, c
	}
	bits := uint(bitsVal)
	bv, c := h.toBigInt(arg(args, 1))
	if c != nil {
		return value.Value{}, c
	}
	n, _ := new(big.Int).SetString(bv.BigInt.Digits, 10)
	mod := new(big.Int).Lsh(big.NewInt(1), bits)
	result := new(big.Int).Mod(n, mod)
	if result.Sign() < 0 {
		result.Add(result, mod)
	}
	if signed && bits > 0 {
		half := new(big.Int).Lsh(big.NewInt(1), bits-1)
		if result.Cmp(half) >= 0 {
			result.Sub(result, mod)
		}
	}
	return value.FromBigInt(&value.BigInt{Digits: result.String()}), nil
}
