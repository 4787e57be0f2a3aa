package value

import (
	"math"
	"strconv"
	"strings"

	"github.com/jsrun/jsengine/internal/helpers"
)

// ToBoolean implements spec's ToBoolean — no observable side effects, so it
// never returns a Completion.
func ToBoolean(v Value) bool {
	switch v.Kind {
	case KindUndefined, KindNull:
		return false
	case KindBoolean:
		return v.Bool
	case KindNumber:
		return v.Num != 0 && !math.IsNaN(v.Num)
	case KindString:
		return len(v.Str) > 0
	case KindBigInt:
		return v.BigInt.Digits != "0"
	case KindSymbol:
		return true
	case KindObject:
		return true
	}
	return false
}

// TypeOf implements the "typeof" unary operator's string result.
func TypeOf(v Value) string {
	switch v.Kind {
	case KindUndefined:
		return "undefined"
	case KindNull:
		return "object"
	case KindBoolean:
		return "boolean"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindSymbol:
		return "symbol"
	case KindBigInt:
		return "bigint"
	case KindObject:
		if v.Obj != nil && v.Obj.Call != nil {
			return "function"
		}
		return "object"
	}
	return "undefined"
}

// ToNumber implements spec's ToNumber for primitives; object inputs must
// already have been reduced via ToPrimitive by the caller (the evaluator),
// since that step can run user code (valueOf/toString) and therefore needs
// a Completion-aware caller.
func ToNumber(v Value) (float64, *Completion) {
	switch v.Kind {
	case KindUndefined:
		return math.NaN(), nil
	case KindNull:
		return 0, nil
	case KindBoolean:
		if v.Bool {
			return 1, nil
		}
		return 0, nil
	case KindNumber:
		return v.Num, nil
	case KindString:
		return stringToNumber(helpers.UTF16ToString(v.Str)), nil
	case KindBigInt:
		return 0, Throw(StringFromGo("Cannot convert a BigInt value to a number"))
	case KindSymbol:
		return 0, Throw(StringFromGo("Cannot convert a Symbol value to a number"))
	}
	return math.NaN(), nil
}

func stringToNumber(s string) float64 {
	t := strings.TrimSpace(s)
	if t == "" {
		return 0
	}
	if t == "Infinity" || t == "+Infinity" {
		return math.Inf(1)
	}
	if t == "-Infinity" {
		return math.Inf(-1)
	}
	if strings.HasPrefix(t, "0x") || strings.HasPrefix(t, "0X") {
		n, err := strconv.ParseUint(t[2:], 16, 64)
		if err != nil {
			return math.NaN()
		}
		return float64(n)
	}
	if strings.HasPrefix(t, "0o") || strings.HasPrefix(t, "0O") {
		n, err := strconv.ParseUint(t[2:], 8, 64)
		if err != nil {
			return math.NaN()
		}
		return float64(n)
	}
	if strings.HasPrefix(t, "0b") || strings.HasPrefix(t, "0B") {
		n, err := strconv.ParseUint(t[2:], 2, 64)
		if err != nil {
			return math.NaN()
		}
		return float64(n)
	}
	n, err := strconv.ParseFloat(t, 64)
	if err != nil {
		return math.NaN()
	}
	return n
}

// ToStringUTF16 implements ToString for primitives (object inputs again
// need ToPrimitive in the evaluator first).
func ToStringUTF16(v Value) ([]uint16, *Completion) {
	switch v.Kind {
	case KindUndefined:
		return helpers.StringToUTF16("undefined"), nil
	case KindNull:
		return helpers.StringToUTF16("null"), nil
	case KindBoolean:
		if v.Bool {
			return helpers.StringToUTF16("true"), nil
		}
		return helpers.StringToUTF16("false"), nil
	case KindNumber:
		return helpers.StringToUTF16(NumberToString(v.Num)), nil
	case KindString:
		return v.Str, nil
	case KindBigInt:
		return helpers.StringToUTF16(v.BigInt.Digits), nil
	case KindSymbol:
		return nil, Throw(StringFromGo("Cannot convert a Symbol value to a string"))
	}
	return nil, nil
}

// NumberToString implements spec's Number::toString for radix 10, including
// the special values; it defers to Go's float formatting for the general
// case, which agrees with the spec's shortest-round-trip rule.
func NumberToString(n float64) string {
	if math.IsNaN(n) {
		return "NaN"
	}
	if n == 0 {
		return "0"
	}
	if math.IsInf(n, 1) {
		return "Infinity"
	}
	if math.IsInf(n, -1) {
		return "-Infinity"
	}
	if abs := math.Abs(n); abs >= 1e-6 && abs < 1e21 {
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
	return strings.Replace(strconv.FormatFloat(n, 'e', -1, 64), "e-0", "e-", 1)
}

// SameValue implements spec's SameValue (distinguishes +0/-0, identifies NaN
// with itself).
func SameValue(a, b Value) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindUndefined, KindNull:
		return true
	case KindBoolean:
		return a.Bool == b.Bool
	case KindNumber:
		if math.IsNaN(a.Num) && math.IsNaN(b.Num) {
			return true
		}
		if a.Num == 0 && b.Num == 0 {
			return math.Signbit(a.Num) == math.Signbit(b.Num)
		}
		return a.Num == b.Num
	case KindString:
		return helpers.UTF16EqualsUTF16(a.Str, b.Str)
	case KindSymbol:
		return a.Sym == b.Sym
	case KindBigInt:
		return a.BigInt.Digits == b.BigInt.Digits
	case KindObject:
		return a.Obj == b.Obj
	}
	return false
}

// SameValueZero implements spec's SameValueZero (SameValue but +0 equals -0),
// used by Map/Set/includes/indexOf-family operations.
func SameValueZero(a, b Value) bool {
	if a.Kind == KindNumber && b.Kind == KindNumber {
		if math.IsNaN(a.Num) && math.IsNaN(b.Num) {
			return true
		}
		return a.Num == b.Num
	}
	return SameValue(a, b)
}

// IsStrictlyEqual implements the "===" operator (spec's IsStrictlyEqual).
func IsStrictlyEqual(a, b Value) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindUndefined, KindNull:
		return true
	case KindNumber:
		return a.Num == b.Num
	case KindString:
		return helpers.UTF16EqualsUTF16(a.Str, b.Str)
	case KindBoolean:
		return a.Bool == b.Bool
	case KindSymbol:
		return a.Sym == b.Sym
	case KindBigInt:
		return a.BigInt.Digits == b.BigInt.Digits
	case KindObject:
		return a.Obj == b.Obj
	}
	return false
}
