package builtins

import (
	"math"

	"github.com/jsrun/jsengine/internal/value"
)

func (h *host) installMath() {
	m := h.realm.NewObject()
	m.SetClass("Math")

	consts := map[string]float64{
		"E":       math.E,
		"LN2":     math.Ln2,
		"LN10":    math.Log(10),
		"LOG2E":   1 / math.Ln2,
		"LOG10E":  1 / math.Log(10),
		"PI":      math.Pi,
		"SQRT1_2": math.Sqrt(0.5),
		"SQRT2":   math.Sqrt2,
	}
	for name, n := range consts {
		m.DefineOwnProperty(name, value.DataProperty(value.Number(n), false, false, false))
	}

	unary := map[string]func(float64) float64{
		"abs": math.Abs, "floor": math.Floor, "ceil": math.Ceil, "round": jsRound,
		"trunc": math.Trunc, "sqrt": math.Sqrt, "cbrt": math.Cbrt, "sign": jsSign,
		"sin": math.Sin, "cos": math.Cos, "tan": math.Tan,
		"asin": math.Asin, "acos": math.Acos, "atan": math.Atan,
		"sinh": math.Sinh, "cosh": math.Cosh, "tanh": math.Tanh,
		"asinh": math.Asinh, "acosh": math.Acosh, "atanh": math.Atanh,
		"exp": math.Exp, "log": math.Log, "log2": math.Log2, "log10": math.Log10,
		"log1p": math.Log1p, "expm1": math.Expm1,
	}
	for name, fn := range unary {
		fn := fn
		h.staticMethod(m, name, 1, func(_ value.Value, args []value.Value) (value.Value, *value.Completion) {
			n, c := h.interp.ToNumberValue(arg(args, 0))
			if c != nil {
				return value.Value{}, c
			}
			return value.Number(fn(n)), nil
		})
	}

	h.staticMethod(m, "pow", 2, func(_ value.Value, args []value.Value) (value.Value, *value.Completion) {
		base, c := h.interp.ToNumberValue(arg(args, 0))
		if c != nil {
			return value.Value{}, c
		}
		exp, c := h.interp.ToNumberValue(arg(args, 1))
		if c != nil {
			return value.Value{}, c
		}
		return value.Number(math.Pow(base, exp)), nil
	})
	h.staticMethod(m, "atan2", 2, func(_ value.Value, args []value.Value) (value.Value, *value.Completion) {
		y, c := h.interp.ToNumberValue(arg(args, 0))
		if c != nil {
			return value.Value{}, c
		}
		x, c := h.interp.ToNumberValue(arg(args, 1))
		if c != nil {
			return value.Value{}, c
		}
		return value.Number(math.Atan2(y, x)), nil
	})
	h.staticMethod(m, "hypot", 2, func(_ value.Value, args []value.Value) (value.Value, *value.Completion) {
		sum := 0.0
		for _, a := range args {
			n, c := h.interp.ToNumberValue(a)
			if c != nil {
				return value.Value{}, c
			}
			sum += n * n
		}
		return value.Number(math.Sqrt(sum)), nil
	})
	h.staticMethod(m, "max", 2, func(_ value.Value, args []value.Value) (value.Value, *value.Completion) {
		return h.mathExtreme(args, true)
	})
	h.staticMethod(m, "min", 2, func(_ value.Value, args []value.Value) (value.Value, *value.Completion) {
		return h.mathExtreme(args, false)
	})
	h.staticMethod(m, "random", 0, func(_ value.Value, args []value.Value) (value.Value, *value.Completion) {
		return value.Number(h.random()), nil
	})
	h.staticMethod(m, "imul", 2, func(_ value.Value, args []value.Value) (value.Value, *value.Completion) {
		a, c := h.interp.ToNumberValue(arg(args, 0))
		if c != nil {
			return value.Value{}, c
		}
		b, c := h.interp.ToNumberValue(arg(args, 1))
		if c != nil {
			return value.Value{}, c
		}
		return value.Number(float64(int32(int32(a) * int32(b)))), nil
	})
	h.staticMethod(m, "clz32", 1, func(_ value.Value, args []value.Value) (value.Value, *value.Completion) {
		n, c := h.interp.ToNumberValue(arg(args, 0))
		if c != nil {
			return value.Value{}, c
		}
		u := uint32(int64(n))
		count := 0
		for i := 31; i >= 0; i-- {
			if u&(1<<uint(i)) != 0 {
				break
			}
			count++
		}
		return value.Number(float64(count)), nil
	})
	h.staticMethod(m, "fround", 1, func(_ value.Value, args []value.Value) (value.Value, *value.Completion) {
		n, c := h.interp.ToNumberValue(arg(args, 0))
		if c != nil {
			return value.Value{}, c
		}
		return value.Number(float64(float32(n))), nil
	})

	if sym := h.realm.WellKnownSymbols["toStringTag"]; sym != nil {
		m.DefineOwnPropertySymbol(sym, value.DataProperty(value.StringFromGo("Math"), false, false, true))
	}

	h.realm.SetIntrinsic("Math", m)
}

func jsRound(n float64) float64 {
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return n
	}
	return math.Floor(n + 0.5)
}

func jsSign(n float64) float64 {
	switch {
	case n > 0:
		return 1
	case n < 0:
		return -1
	default:
		return n
	}
}

func (h *host) mathExtreme(args []value.Value, max bool) (value.Value, *value.Completion) {
	if len(args) == 0 {
		if max {
			return value.Number(math.Inf(-1)), nil
		}
		return value.Number(math.Inf(1)), nil
	}
	best := 0.0
	if max {
		best = math.Inf(-1)
	} else {
		best = math.Inf(1)
	}
	for _, a := range args {
		n, c := h.interp.ToNumberValue(a)
		if c != nil {
			return value.Value{}, c
		}
		if math.IsNaN(n) {
			return value.Number(math.NaN()), nil
		}
		if (max && n > best) || (!max && n < best) {
			best = n
		}
	}
	return value.Number(best), nil
}
