package builtins

import (
	"math"
	"strconv"
	"strings"

	"github.com/jsrun/jsengine/internal/value"
)

func thisNumberValue(h *host, this value.Value) (float64, *value.Completion) {
	switch this.Kind {
	case value.KindNumber:
		return this.Num, nil
	case value.KindObject:
		if this.Obj.Class() == "Number" {
			return this.Obj.PrimitiveData.Num, nil
		}
	}
	return 0, h.realm.ThrowTypeError("Number.prototype method called on incompatible receiver")
}

func (h *host) installNumber() {
	proto := value.NewObject(h.realm.Intrinsic("Object.prototype"))
	proto.SetClass("Number")
	proto.PrimitiveData = value.Number(0)
	h.realm.SetIntrinsic("Number.prototype", proto)

	ctor := h.nativeFn("Number", 1, func(_ value.Value, args []value.Value) (value.Value, *value.Completion) {
		if len(args) == 0 {
			return value.Number(0), nil
		}
		n, c := h.interp.ToNumberValue(args[0])
		if c != nil {
			return value.Value{}, c
		}
		return value.Number(n), nil
	})
	ctor.Construct = func(args []value.Value, newTarget *value.Object) (value.Value, *value.Completion) {
		n := 0.0
		if len(args) > 0 {
			v, c := h.interp.ToNumberValue(args[0])
			if c != nil {
				return value.Value{}, c
			}
			n = v
		}
		obj := value.NewObject(proto)
		obj.SetClass("Number")
		obj.PrimitiveData = value.Number(n)
		return value.FromObject(obj), nil
	}
	ctor.DefineOwnProperty("prototype", value.DataProperty(value.FromObject(proto), false, false, false))
	proto.DefineOwnProperty("constructor", value.DataProperty(value.FromObject(ctor), true, false, true))

	consts := map[string]float64{
		"MAX_SAFE_INTEGER": 9007199254740991,
		"MIN_SAFE_INTEGER": -9007199254740991,
		"MAX_VALUE":        math.MaxFloat64,
		"MIN_VALUE":        5e-324,
		"EPSILON":          2.220446049250313e-16,
		"POSITIVE_INFINITY": math.Inf(1),
		"NEGATIVE_INFINITY": math.Inf(-1),
		"NaN":              math.NaN(),
	}
	for name, n := range consts {
		ctor.DefineOwnProperty(name, value.DataProperty(value.Number(n), false, false, false))
	}

	h.staticMethod(ctor, "isInteger", 1, func(_ value.Value, args []value.Value) (value.Value, *value.Completion) {
		v := arg(args, 0)
		return value.Bool(v.Kind == value.KindNumber && !math.IsInf(v.Num, 0) && !math.IsNaN(v.Num) && v.Num == math.Trunc(v.Num)), nil
	})
	h.staticMethod(ctor, "isSafeInteger", 1, func(_ value.Value, args []value.Value) (value.Value, *value.Completion) {
		v := arg(args, 0)
		if v.Kind != value.KindNumber || math.IsInf(v.Num, 0) || math.IsNaN(v.Num) || v.Num != math.Trunc(v.Num) {
			return value.Bool(false), nil
		}
		return value.Bool(v.Num >= -9007199254740991 && v.Num <= 9007199254740991), nil
	})
	h.staticMethod(ctor, "isFinite", 1, func(_ value.Value, args []value.Value) (value.Value, *value.Completion) {
		v := arg(args, 0)
		return value.Bool(v.Kind == value.KindNumber && !math.IsInf(v.Num, 0) && !math.IsNaN(v.Num)), nil
	})
	h.staticMethod(ctor, "isNaN", 1, func(_ value.Value, args []value.Value) (value.Value, *value.Completion) {
		v := arg(args, 0)
		return value.Bool(v.Kind == value.KindNumber && math.IsNaN(v.Num)), nil
	})
	h.staticMethod(ctor, "parseFloat", 1, func(_ value.Value, args []value.Value) (value.Value, *value.Completion) {
		return h.parseFloatValue(arg(args, 0))
	})
	h.staticMethod(ctor, "parseInt", 2, func(_ value.Value, args []value.Value) (value.Value, *value.Completion) {
		return h.parseIntValue(args)
	})

	h.method(proto, "toString", 1, func(this value.Value, args []value.Value) (value.Value, *value.Completion) {
		n, c := thisNumberValue(h, this)
		if c != nil {
			return value.Value{}, c
		}
		radix := 10
		if r := arg(args, 0); !r.IsUndefined() {
			rn, c := h.interp.ToNumberValue(r)
			if c != nil {
				return value.Value{}, c
			}
			radix = int(rn)
		}
		if radix == 10 {
			return value.StringFromGo(value.NumberToString(n)), nil
		}
		if math.IsNaN(n) {
			return value.StringFromGo("NaN"), nil
		}
		return value.StringFromGo(strconv.FormatInt(int64(n), radix)), nil
	})
	h.method(proto, "valueOf", 0, func(this value.Value, args []value.Value) (value.Value, *value.Completion) {
		n, c := thisNumberValue(h, this)
		if c != nil {
			return value.Value{}, c
		}
		return value.Number(n), nil
	})
	h.method(proto, "toFixed", 1, func(this value.Value, args []value.Value) (value.Value, *value.Completion) {
		n, c := thisNumberValue(h, this)
		if c != nil {
			return value.Value{}, c
		}
		digits := 0
		if d, c := intArg(h, args, 0, 0); c == nil {
			digits = int(d)
		}
		if math.IsNaN(n) {
			return value.StringFromGo("NaN"), nil
		}
		return value.StringFromGo(strconv.FormatFloat(n, 'f', digits, 64)), nil
	})
	h.method(proto, "toPrecision", 1, func(this value.Value, args []value.Value) (value.Value, *value.Completion) {
		n, c := thisNumberValue(h, this)
		if c != nil {
			return value.Value{}, c
		}
		p := arg(args, 0)
		if p.IsUndefined() {
			return value.StringFromGo(value.NumberToString(n)), nil
		}
		prec, c := h.interp.ToNumberValue(p)
		if c != nil {
			return value.Value{}, c
		}
		return value.StringFromGo(strconv.FormatFloat(n, 'g', int(prec), 64)), nil
	})
	h.method(proto, "toExponential", 1, func(this value.Value, args []value.Value) (value.Value, *value.Completion) {
		n, c := thisNumberValue(h, this)
		if c != nil {
			return value.Value{}, c
		}
		digits := -1
		if d := arg(args, 0); !d.IsUndefined() {
			dn, c := h.interp.ToNumberValue(d)
			if c != nil {
				return value.Value{}, c
			}
			digits = int(dn)
		}
		s := strconv.FormatFloat(n, 'e', digits, 64)
		return value.StringFromGo(normalizeExponential(s)), nil
	})
	h.method(proto, "toLocaleString", 0, func(this value.Value, args []value.Value) (value.Value, *value.Completion) {
		n, c := thisNumberValue(h, this)
		if c != nil {
			return value.Value{}, c
		}
		return value.StringFromGo(value.NumberToString(n)), nil
	})

	h.realm.SetIntrinsic("Number", ctor)
}

// normalizeExponential rewrites Go's "e+05"-style exponent to JS's "e+5".
func normalizeExponential(s string) string {
	i := strings.IndexByte(s, 'e')
	if i < 0 {
		return s
	}
	mantissa, exp := s[:i], s[i+1:]
	sign := "+"
	if len(exp) > 0 && (exp[0] == '+' || exp[0] == '-') {
		if exp[0] == '-' {
			sign = "-"
		}
		exp = exp[1:]
	}
	exp = strings.TrimLeft(exp, "0")
	if exp == "" {
		exp = "0"
	}
	return mantissa + "e" + sign + exp
}

func (h *host) parseFloatValue(v value.Value) (value.Value, *value.Completion) {
	s, c := h.interp.ToStringValue(v)
	if c != nil {
		return value.Value{}, c
	}
	str := strings.TrimLeft(string(toGoStr(s)), " \t\n\r\v\f")
	end := 0
	sawDigit := false
	sawDot := false
	sawExp := false
	if end < len(str) && (str[end] == '+' || str[end] == '-') {
		end++
	}
	start := end
	for end < len(str) {
		c := str[end]
		if c >= '0' && c <= '9' {
			sawDigit = true
			end++
		} else if c == '.' && !sawDot && !sawExp {
			sawDot = true
			end++
		} else if (c == 'e' || c == 'E') && sawDigit && !sawExp {
			sawExp = true
			end++
			if end < len(str) && (str[end] == '+' || str[end] == '-') {
				end++
			}
		} else {
			break
		}
	}
	_ = start
	if strings.HasPrefix(str, "Infinity") || strings.HasPrefix(str, "+Infinity") {
		return value.Number(math.Inf(1)), nil
	}
	if strings.HasPrefix(str, "-Infinity") {
		return value.Number(math.Inf(-1)), nil
	}
	if !sawDigit {
		return value.Number(math.NaN()), nil
	}
	n, err := strconv.ParseFloat(str[:end], 64)
	if err != nil {
		return value.Number(math.NaN()), nil
	}
	return value.Number(n), nil
}

func (h *host) parseIntValue(args []value.Value) (value.Value, *value.Completion) {
	s, c := h.interp.ToStringValue(arg(args, 0))
	if c != nil {
		return value.Value{}, c
	}
	str := strings.TrimLeft(string(toGoStr(s)), " \t\n\r\v\f")
	radix := 0
	if r := arg(args, 1); !r.IsUndefined() {
		rn, c := h.interp.ToNumberValue(r)
		if c != nil {
			return value.Value{}, c
		}
		radix = int(rn)
	}
	neg := false
	if len(str) > 0 && (str[0] == '+' || str[0] == '-') {
		neg = str[0] == '-'
		str = str[1:]
	}
	if radix == 16 || radix == 0 {
		if strings.HasPrefix(str, "0x") || strings.HasPrefix(str, "0X") {
			str = str[2:]
			radix = 16
		}
	}
	if radix == 0 {
		radix = 10
	}
	end := 0
	for end < len(str) && digitValue(str[end]) < radix {
		end++
	}
	if end == 0 {
		return value.Number(math.NaN()), nil
	}
	n, err := strconv.ParseInt(str[:end], radix, 64)
	if err != nil {
		n64, errF := strconv.ParseFloat(str[:end], 64)
		if errF != nil {
			return value.Number(math.NaN()), nil
		}
		if neg {
			n64 = -n64
		}
		return value.Number(n64), nil
	}
	f := float64(n)
	if neg {
		f = -f
	}
	return value.Number(f), nil
}

func digitValue(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'z':
		return int(c-'a') + 10
	case c >= 'A' && c <= 'Z':
		return int(c-'A') + 10
	}
	return 99
}

func toGoStr(s []uint16) string { return s2(s) }
