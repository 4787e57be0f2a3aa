package builtins

import (
	"math"
	"strings"
	"time"

	"github.com/jsrun/jsengine/internal/helpers"
	"github.com/jsrun/jsengine/internal/value"
)

const msPerDay = 86400000.0

func (h *host) installDate() {
	proto := value.NewObject(h.realm.Intrinsic("Object.prototype"))
	proto.SetClass("Date")
	proto.Exotic = value.ExoticDate
	proto.DateValue = math.NaN()
	h.realm.SetIntrinsic("Date.prototype", proto)

	ctor := h.nativeFn("Date", 7, func(_ value.Value, args []value.Value) (value.Value, *value.Completion) {
		return value.StringFromGo(timeFromMillis(nowMillis()).Format("Mon Jan 02 2006 15:04:05 GMT-0700 (Coordinated Universal Time)")), nil
	})
	ctor.Construct = func(args []value.Value, newTarget *value.Object) (value.Value, *value.Completion) {
		obj := value.NewObject(proto)
		obj.SetClass("Date")
		obj.Exotic = value.ExoticDate
		var ms float64
		switch len(args) {
		case 0:
			ms = nowMillis()
		case 1:
			v := args[0]
			if v.IsObject() && v.Obj.Exotic == value.ExoticDate {
				ms = v.Obj.DateValue
			} else {
				prim, c := h.interp.ToPrimitive(v, "default")
				if c != nil {
					return value.Value{}, c
				}
				if prim.Kind == value.KindString {
					ms = parseDateString(helpers.UTF16ToString(prim.Str))
				} else {
					n, c := h.interp.ToNumberValue(prim)
					if c != nil {
						return value.Value{}, c
					}
					ms = n
				}
			}
		default:
			nums := make([]float64, 7)
			nums[2] = 1 // default day
			for i := 0; i < len(args) && i < 7; i++ {
				n, c := h.interp.ToNumberValue(args[i])
				if c != nil {
					return value.Value{}, c
				}
				nums[i] = n
			}
			year := nums[0]
			if year >= 0 && year <= 99 {
				year += 1900
			}
			ms = makeDate(year, nums[1], nums[2], nums[3], nums[4], nums[5], nums[6])
		}
		obj.DateValue = timeClip(ms)
		return value.FromObject(obj), nil
	}
	ctor.DefineOwnProperty("prototype", value.DataProperty(value.FromObject(proto), false, false, false))
	proto.DefineOwnProperty("constructor", value.DataProperty(value.FromObject(ctor), true, false, true))

	h.staticMethod(ctor, "now", 0, func(_ value.Value, args []value.Value) (value.Value, *value.Completion) {
		return value.Number(nowMillis()), nil
	})
	h.staticMethod(ctor, "parse", 1, func(_ value.Value, args []value.Value) (value.Value, *value.Completion) {
		s, c := h.interp.ToStringValue(arg(args, 0))
		if c != nil {
			return value.Value{}, c
		}
		return value.Number(parseDateString(helpers.UTF16ToString(s))), nil
	})
	h.staticMethod(ctor, "UTC", 7, func(_ value.Value, args []value.Value) (value.Value, *value.Completion) {
		nums := make([]float64, 7)
		nums[2] = 1
		for i := 0; i < len(args) && i < 7; i++ {
			n, c := h.interp.ToNumberValue(args[i])
			if c != nil {
				return value.Value{}, c
			}
			nums[i] = n
		}
		year := nums[0]
		if year >= 0 && year <= 99 {
			year += 1900
		}
		return value.Number(timeClip(makeDate(year, nums[1], nums[2], nums[3], nums[4], nums[5], nums[6]))), nil
	})

	h.installDateGetters(proto)
	h.installDateSetters(proto)

	h.method(proto, "valueOf", 0, func(this value.Value, args []value.Value) (value.Value, *value.Completion) {
		ms, c := thisTimeValue(h, this)
		if c != nil {
			return value.Value{}, c
		}
		return value.Number(ms), nil
	})
	h.method(proto, "getTime", 0, func(this value.Value, args []value.Value) (value.Value, *value.Completion) {
		ms, c := thisTimeValue(h, this)
		if c != nil {
			return value.Value{}, c
		}
		return value.Number(ms), nil
	})
	h.method(proto, "setTime", 1, func(this value.Value, args []value.Value) (value.Value, *value.Completion) {
		obj, c := thisObject(h, this)
		if c != nil {
			return value.Value{}, c
		}
		n, c := h.interp.ToNumberValue(arg(args, 0))
		if c != nil {
			return value.Value{}, c
		}
		obj.DateValue = timeClip(n)
		return value.Number(obj.DateValue), nil
	})
	h.method(proto, "getTimezoneOffset", 0, func(this value.Value, args []value.Value) (value.Value, *value.Completion) {
		_, c := thisTimeValue(h, this)
		if c != nil {
			return value.Value{}, c
		}
		return value.Number(0), nil
	})

	h.method(proto, "toISOString", 0, func(this value.Value, args []value.Value) (value.Value, *value.Completion) {
		ms, c := thisTimeValue(h, this)
		if c != nil {
			return value.Value{}, c
		}
		if math.IsNaN(ms) {
			return value.Value{}, h.realm.ThrowRangeError("Invalid time value")
		}
		return value.StringFromGo(timeFromMillis(ms).UTC().Format("2006-01-02T15:04:05.000Z")), nil
	})
	h.method(proto, "toJSON", 1, func(this value.Value, args []value.Value) (value.Value, *value.Completion) {
		ms, c := thisTimeValue(h, this)
		if c != nil {
			return value.Value{}, c
		}
		if math.IsNaN(ms) || math.IsInf(ms, 0) {
			return value.Null(), nil
		}
		toISO, c := h.interp.GetProperty(this, "toISOString")
		if c != nil {
			return value.Value{}, c
		}
		return h.interp.CallFunction(toISO, this, nil)
	})
	dateToStringFmt := "Mon Jan 02 2006 15:04:05 GMT-0700 (Coordinated Universal Time)"
	h.method(proto, "toString", 0, func(this value.Value, args []value.Value) (value.Value, *value.Completion) {
		ms, c := thisTimeValue(h, this)
		if c != nil {
			return value.Value{}, c
		}
		if math.IsNaN(ms) {
			return value.StringFromGo("Invalid Date"), nil
		}
		return value.StringFromGo(timeFromMillis(ms).UTC().Format(dateToStringFmt)), nil
	})
	h.method(proto, "toDateString", 0, func(this value.Value, args []value.Value) (value.Value, *value.Completion) {
		ms, c := thisTimeValue(h, this)
		if c != nil {
			return value.Value{}, c
		}
		if math.IsNaN(ms) {
			return value.StringFromGo("Invalid Date"), nil
		}
		return value.StringFromGo(timeFromMillis(ms).UTC().Format("Mon Jan 02 2006")), nil
	})
	h.method(proto, "toTimeString", 0, func(this value.Value, args []value.Value) (value.Value, *value.Completion) {
		ms, c := thisTimeValue(h, this)
		if c != nil {
			return value.Value{}, c
		}
		if math.IsNaN(ms) {
			return value.StringFromGo("Invalid Date"), nil
		}
		return value.StringFromGo(timeFromMillis(ms).UTC().Format("15:04:05 GMT-0700 (Coordinated Universal Time)")), nil
	})
	h.method(proto, "toUTCString", 0, func(this value.Value, args []value.Value) (value.Value, *value.Completion) {
		ms, c := thisTimeValue(h, this)
		if c != nil {
			return value.Value{}, c
		}
		if math.IsNaN(ms) {
			return value.StringFromGo("Invalid Date"), nil
		}
		return value.StringFromGo(timeFromMillis(ms).UTC().Format("Mon, 02 Jan 2006 15:04:05 GMT")), nil
	})
	h.method(proto, "toLocaleDateString", 0, func(this value.Value, args []value.Value) (value.Value, *value.Completion) {
		ms, c := thisTimeValue(h, this)
		if c != nil {
			return value.Value{}, c
		}
		if math.IsNaN(ms) {
			return value.StringFromGo("Invalid Date"), nil
		}
		return value.StringFromGo(timeFromMillis(ms).UTC().Format("1/2/2006")), nil
	})
	h.method(proto, "toLocaleTimeString", 0, func(this value.Value, args []value.Value) (value.Value, *value.Completion) {
		ms, c := thisTimeValue(h, this)
		if c != nil {
			return value.Value{}, c
		}
		if math.IsNaN(ms) {
			return value.StringFromGo("Invalid Date"), nil
		}
		return value.StringFromGo(timeFromMillis(ms).UTC().Format("3:04:05 PM")), nil
	})
	h.method(proto, "toLocaleString", 0, func(this value.Value, args []value.Value) (value.Value, *value.Completion) {
		ms, c := thisTimeValue(h, this)
		if c != nil {
			return value.Value{}, c
		}
		if math.IsNaN(ms) {
			return value.StringFromGo("Invalid Date"), nil
		}
		return value.StringFromGo(timeFromMillis(ms).UTC().Format("1/2/2006, 3:04:05 PM")), nil
	})
	if sym := h.realm.WellKnownSymbols["toPrimitive"]; sym != nil {
		fn := h.nativeFn("[Symbol.toPrimitive]", 1, func(this value.Value, args []value.Value) (value.Value, *value.Completion) {
			hint := "default"
			if hv := arg(args, 0); hv.Kind == value.KindString {
				hint = helpers.UTF16ToString(hv.Str)
			}
			obj, c := thisObject(h, this)
			if c != nil {
				return value.Value{}, c
			}
			if hint == "number" {
				return value.Number(obj.DateValue), nil
			}
			toStr, c := h.interp.GetProperty(this, "toString")
			if c != nil {
				return value.Value{}, c
			}
			return h.interp.CallFunction(toStr, this, nil)
		})
		proto.DefineOwnPropertySymbol(sym, value.DataProperty(value.FromObject(fn), true, false, true))
	}

	h.realm.SetIntrinsic("Date", ctor)
}

func thisTimeValue(h *host, this value.Value) (float64, *value.Completion) {
	if this.IsObject() && this.Obj.Exotic == value.ExoticDate {
		return this.Obj.DateValue, nil
	}
	return 0, h.realm.ThrowTypeError("this is not a Date object")
}

func nowMillis() float64 {
	return float64(time.Now().UnixNano()) / 1e6
}

func timeFromMillis(ms float64) time.Time {
	sec := int64(ms / 1000)
	nsec := int64(math.Mod(ms, 1000)) * 1e6
	return time.Unix(sec, nsec).UTC()
}

func timeClip(ms float64) float64 {
	if math.IsNaN(ms) || math.IsInf(ms, 0) || math.Abs(ms) > 8.64e15 {
		return math.NaN()
	}
	return math.Trunc(ms)
}

func makeDate(year, month, day, hour, min, sec, msArg float64) float64 {
	if isNanAny(year, month, day, hour, min, sec, msArg) {
		return math.NaN()
	}
	y := int(year)
	m := int(month)
	y += m / 12
	m = m % 12
	if m < 0 {
		m += 12
		y--
	}
	t := time.Date(y, time.Month(m+1), 1, 0, 0, 0, 0, time.UTC)
	t = t.AddDate(0, 0, int(day)-1)
	base := float64(t.UnixNano()) / 1e6
	return base + hour*3600000 + min*60000 + sec*1000 + msArg
}

func isNanAny(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) {
			return true
		}
	}
	return false
}

// parseDateString supports ISO 8601 (the format Date.prototype.toISOString
// emits) plus the RFC1123-ish toUTCString/toString formats; anything else
// yields NaN, matching the teacher's own preference (seen in js_lexer's
// number scanning) for a small set of strictly-defined formats over a
// permissive grab-bag parser.
func parseDateString(s string) float64 {
	s = strings.TrimSpace(s)
	layouts := []string{
		"2006-01-02T15:04:05.000Z",
		"2006-01-02T15:04:05Z",
		"2006-01-02T15:04:05.000-07:00",
		"2006-01-02T15:04:05-07:00",
		"2006-01-02T15:04:05",
		"2006-01-02",
		"Mon, 02 Jan 2006 15:04:05 GMT",
		"Mon Jan 02 2006 15:04:05 GMT-0700 (Coordinated Universal Time)",
		time.RFC1123,
		time.RFC3339,
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return float64(t.UnixNano()) / 1e6
		}
	}
	return math.NaN()
}

func (h *host) installDateGetters(proto *value.Object) {
	type field struct {
		name string
		fn   func(t time.Time) float64
	}
	fields := []field{
		{"FullYear", func(t time.Time) float64 { return float64(t.Year()) }},
		{"Month", func(t time.Time) float64 { return float64(t.Month() - 1) }},
		{"Date", func(t time.Time) float64 { return float64(t.Day()) }},
		{"Day", func(t time.Time) float64 { return float64(t.Weekday()) }},
		{"Hours", func(t time.Time) float64 { return float64(t.Hour()) }},
		{"Minutes", func(t time.Time) float64 { return float64(t.Minute()) }},
		{"Seconds", func(t time.Time) float64 { return float64(t.Second()) }},
		{"Milliseconds", func(t time.Time) float64 { return float64(t.Nanosecond() / 1e6) }},
	}
	for _, f := range fields {
		f := f
		for _, prefix := range []string{"get", "getUTC"} {
			name := prefix + f.name
			h.method(proto, name, 0, func(this value.Value, args []value.Value) (value.Value, *value.Completion) {
				ms, c := thisTimeValue(h, this)
				if c != nil {
					return value.Value{}, c
				}
				if math.IsNaN(ms) {
					return value.Number(math.NaN()), nil
				}
				return value.Number(f.fn(timeFromMillis(ms))), nil
			})
		}
	}
	h.method(proto, "getYear", 0, func(this value.Value, args []value.Value) (value.Value, *value.Completion) {
		ms, c := thisTimeValue(h, this)
		if c != nil {
			return value.Value{}, c
		}
		if math.IsNaN(ms) {
			return value.Number(math.NaN()), nil
		}
		return value.Number(float64(timeFromMillis(ms).Year() - 1900)), nil
	})
}

func (h *host) installDateSetters(proto *value.Object) {
	setPart := func(name string, length int, apply func(t time.Time, nums []float64) time.Time) {
		h.method(proto, name, length, func(this value.Value, args []value.Value) (value.Value, *value.Completion) {
			obj, c := thisObject(h, this)
			if c != nil {
				return value.Value{}, c
			}
			base := obj.DateValue
			if math.IsNaN(base) {
				base = 0
			}
			t := timeFromMillis(base)
			nums := make([]float64, len(args))
			for i, a := range args {
				n, c := h.interp.ToNumberValue(a)
				if c != nil {
					return value.Value{}, c
				}
				nums[i] = n
			}
			for _, n := range nums {
				if math.IsNaN(n) {
					obj.DateValue = math.NaN()
					return value.Number(math.NaN()), nil
				}
			}
			t = apply(t, nums)
			obj.DateValue = timeClip(float64(t.UnixNano()) / 1e6)
			return value.Number(obj.DateValue), nil
		})
	}
	setPart("setFullYear", 3, func(t time.Time, n []float64) time.Time {
		year := int(n[0])
		month := t.Month()
		day := t.Day()
		if len(n) > 1 {
			month = time.Month(int(n[1]) + 1)
		}
		if len(n) > 2 {
			day = int(n[2])
		}
		return time.Date(year, month, day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
	})
	setPart("setUTCFullYear", 3, func(t time.Time, n []float64) time.Time {
		year := int(n[0])
		month := t.Month()
		day := t.Day()
		if len(n) > 1 {
			month = time.Month(int(n[1]) + 1)
		}
		if len(n) > 2 {
			day = int(n[2])
		}
		return time.Date(year, month, day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
	})
	setPart("setMonth", 2, func(t time.Time, n []float64) time.Time {
		day := t.Day()
		if len(n) > 1 {
			day = int(n[1])
		}
		return time.Date(t.Year(), time.Month(int(n[0])+1), day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
	})
	setPart("setUTCMonth", 2, func(t time.Time, n []float64) time.Time {
		day := t.Day()
		if len(n) > 1 {
			day = int(n[1])
		}
		return time.Date(t.Year(), time.Month(int(n[0])+1), day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
	})
	setPart("setDate", 1, func(t time.Time, n []float64) time.Time {
		return time.Date(t.Year(), t.Month(), int(n[0]), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
	})
	setPart("setUTCDate", 1, func(t time.Time, n []float64) time.Time {
		return time.Date(t.Year(), t.Month(), int(n[0]), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
	})
	setHMS := func(name string, length int) {
		setPart(name, length, func(t time.Time, n []float64) time.Time {
			hour, min, sec, msec := t.Hour(), t.Minute(), t.Second(), t.Nanosecond()/1e6
			vals := []int{hour, min, sec, msec}
			for i := 0; i < len(n) && i < 4; i++ {
				vals[i] = int(n[i])
			}
			return time.Date(t.Year(), t.Month(), t.Day(), vals[0], vals[1], vals[2], vals[3]*1e6, time.UTC)
		})
	}
	setHMS("setHours", 4)
	setHMS("setUTCHours", 4)
	setHMS("setMinutes", 3)
	setHMS("setUTCMinutes", 3)
	setHMS("setSeconds", 2)
	setHMS("setUTCSeconds", 2)
	setHMS("setMilliseconds", 1)
	setHMS("setUTCMilliseconds", 1)
}
