package builtins

import (
	"strings"

	"github.com/dlclark/regexp2"

	"github.com/jsrun/jsengine/internal/helpers"
	"github.com/jsrun/jsengine/internal/value"
)

func (h *host) installRegExp() {
	proto := value.NewObject(h.realm.Intrinsic("Object.prototype"))
	proto.SetClass("RegExp")
	h.realm.SetIntrinsic("RegExp.prototype", proto)

	ctor := h.nativeFn("RegExp", 2, func(_ value.Value, args []value.Value) (value.Value, *value.Completion) {
		return h.constructRegExp(args)
	})
	ctor.Construct = func(args []value.Value, newTarget *value.Object) (value.Value, *value.Completion) {
		return h.constructRegExp(args)
	}
	ctor.DefineOwnProperty("prototype", value.DataProperty(value.FromObject(proto), false, false, false))
	proto.DefineOwnProperty("constructor", value.DataProperty(value.FromObject(ctor), true, false, true))

	h.method(proto, "exec", 1, func(this value.Value, args []value.Value) (value.Value, *value.Completion) {
		obj, c := thisObject(h, this)
		if c != nil {
			return value.Value{}, c
		}
		s, c := h.interp.ToStringValue(arg(args, 0))
		if c != nil {
			return value.Value{}, c
		}
		return h.regexpExec(obj, helpers.UTF16ToString(s))
	})
	h.method(proto, "test", 1, func(this value.Value, args []value.Value) (value.Value, *value.Completion) {
		obj, c := thisObject(h, this)
		if c != nil {
			return value.Value{}, c
		}
		s, c := h.interp.ToStringValue(arg(args, 0))
		if c != nil {
			return value.Value{}, c
		}
		result, c := h.regexpExec(obj, helpers.UTF16ToString(s))
		if c != nil {
			return value.Value{}, c
		}
		return value.Bool(!result.IsNull()), nil
	})
	h.method(proto, "toString", 0, func(this value.Value, args []value.Value) (value.Value, *value.Completion) {
		obj, c := thisObject(h, this)
		if c != nil {
			return value.Value{}, c
		}
		return value.StringFromGo("/" + obj.RegexSource + "/" + obj.RegexFlags), nil
	})

	h.realm.SetIntrinsic("RegExp", ctor)
}

func (h *host) constructRegExp(args []value.Value) (value.Value, *value.Completion) {
	pattern := ""
	flags := ""
	first := arg(args, 0)
	if first.IsObject() && first.Obj.Exotic == value.ExoticRegExp {
		pattern = first.Obj.RegexSource
		flags = first.Obj.RegexFlags
	} else if !first.IsUndefined() {
		s, c := h.interp.ToStringValue(first)
		if c != nil {
			return value.Value{}, c
		}
		pattern = helpers.UTF16ToString(s)
	}
	if f := arg(args, 1); !f.IsUndefined() {
		s, c := h.interp.ToStringValue(f)
		if c != nil {
			return value.Value{}, c
		}
		flags = helpers.UTF16ToString(s)
	}
	return h.interp.MakeRegExp(pattern, flags), nil
}

// regexpExec runs RegExpExec (global/sticky lastIndex bookkeeping included)
// returning either null or a match result array with index/input/groups.
func (h *host) regexpExec(obj *value.Object, s string) (value.Value, *value.Completion) {
	global := strings.Contains(obj.RegexFlags, "g")
	sticky := strings.Contains(obj.RegexFlags, "y")
	from := 0
	if global || sticky {
		from = int(obj.RegexLastIndex)
	}
	if from > len(s) {
		obj.RegexLastIndex = 0
		return value.Null(), nil
	}
	match, err := h.interp.ExecRegExp(obj, s, from)
	if err != nil || match == nil {
		if global || sticky {
			obj.RegexLastIndex = 0
		}
		return value.Null(), nil
	}
	if sticky && match.Index != from {
		obj.RegexLastIndex = 0
		return value.Null(), nil
	}
	if global || sticky {
		end := match.Index + match.Length
		if match.Length == 0 {
			end++
		}
		obj.RegexLastIndex = float64(end)
	}
	return h.matchToArray(match, s), nil
}

func (h *host) matchToArray(match *regexp2.Match, s string) value.Value {
	groups := match.Groups()
	items := make([]value.Value, 0, len(groups))
	var namedGroups *value.Object
	for i, g := range groups {
		if i == 0 {
			items = append(items, value.StringFromGo(g.String()))
			continue
		}
		if len(g.Captures) == 0 {
			items = append(items, value.Undefined())
		} else {
			items = append(items, value.StringFromGo(g.String()))
		}
		if g.Name != "" && g.Name != itoaCompat(i) {
			if namedGroups == nil {
				namedGroups = h.realm.NewObject()
			}
			if len(g.Captures) == 0 {
				namedGroups.DefineOwnProperty(g.Name, value.DataProperty(value.Undefined(), true, true, true))
			} else {
				namedGroups.DefineOwnProperty(g.Name, value.DataProperty(value.StringFromGo(g.String()), true, true, true))
			}
		}
	}
	arr := h.interp.NewArray(items)
	arr.Obj.DefineOwnProperty("index", value.DataProperty(value.Number(float64(match.Index)), true, true, true))
	arr.Obj.DefineOwnProperty("input", value.DataProperty(value.StringFromGo(s), true, true, true))
	if namedGroups != nil {
		arr.Obj.DefineOwnProperty("groups", value.DataProperty(value.FromObject(namedGroups), true, true, true))
	} else {
		arr.Obj.DefineOwnProperty("groups", value.DataProperty(value.Undefined(), true, true, true))
	}
	return arr
}

func itoaCompat(i int) string {
	if i == 0 {
		return "0"
	}
	neg := i < 0
	if neg {
		i = -i
	}
	var buf [20]byte
	p := len(buf)
	for i > 0 {
		p--
		buf[p] = byte('0' + i%10)
		i /= 10
	}
	if neg {
		p--
		buf[p] = '-'
	}
	return string(buf[p:])
}

func (h *host) toRegExp(v value.Value) (*value.Object, *value.Completion) {
	if v.IsObject() && v.Obj.Exotic == value.ExoticRegExp {
		return v.Obj, nil
	}
	s, c := h.interp.ToStringValue(v)
	if c != nil {
		return nil, c
	}
	re := h.interp.MakeRegExp(escapeRegExpLiteral(helpers.UTF16ToString(s)), "")
	return re.Obj, nil
}

// escapeRegExpLiteral quotes every regex metacharacter so a plain string
// argument to String.prototype.matchAll/search behaves like a literal
// substring search once compiled as a pattern.
func escapeRegExpLiteral(s string) string {
	var sb strings.Builder
	for _, r := range s {
		switch r {
		case '.', '*', '+', '?', '(', ')', '[', ']', '{', '}', '^', '$', '|', '\\', '/':
			sb.WriteByte('\\')
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// stringMatch implements String.prototype.match/matchAll: delegates to a
// RegExp's internal exec loop, building either a single match array or (for
// matchAll) an iterator over every match the way the global-flag loop does.
func (h *host) stringMatch(s string, pattern value.Value, all bool) (value.Value, *value.Completion) {
	var re *value.Object
	var c *value.Completion
	if pattern.IsObject() && pattern.Obj.Exotic == value.ExoticRegExp {
		re = pattern.Obj
	} else if !all {
		flags := ""
		if !pattern.IsUndefined() {
			ps, c := h.interp.ToStringValue(pattern)
			if c != nil {
				return value.Value{}, c
			}
			re = h.interp.MakeRegExp(helpers.UTF16ToString(ps), flags).Obj
		} else {
			re = h.interp.MakeRegExp("", "").Obj
		}
	} else {
		re, c = h.toRegExp(pattern)
		if c != nil {
			return value.Value{}, c
		}
	}
	if all {
		if !strings.Contains(re.RegexFlags, "g") {
			return value.Value{}, h.realm.ThrowTypeError("matchAll must be called with a global RegExp")
		}
		clone := h.interp.MakeRegExp(re.RegexSource, re.RegexFlags).Obj
		var results []value.Value
		for {
			r, c := h.regexpExec(clone, s)
			if c != nil {
				return value.Value{}, c
			}
			if r.IsNull() {
				break
			}
			results = append(results, r)
		}
		i := 0
		return value.FromObject(h.newIteratorObject(func() (value.Value, bool) {
			if i >= len(results) {
				return value.Value{}, false
			}
			v := results[i]
			i++
			return v, true
		})), nil
	}
	if !strings.Contains(re.RegexFlags, "g") {
		return h.regexpExec(re, s)
	}
	re.RegexLastIndex = 0
	var out []value.Value
	for {
		r, c := h.regexpExec(re, s)
		if c != nil {
			return value.Value{}, c
		}
		if r.IsNull() {
			break
		}
		v, _ := h.interp.GetProperty(r, "0")
		out = append(out, v)
	}
	if out == nil {
		return value.Null(), nil
	}
	return h.interp.NewArray(out), nil
}

func (h *host) stringSearch(s string, pattern value.Value) (value.Value, *value.Completion) {
	re, c := h.toRegExp(pattern)
	if c != nil {
		return value.Value{}, c
	}
	match, err := h.interp.ExecRegExp(re, s, 0)
	if err != nil || match == nil {
		return value.Number(-1), nil
	}
	return value.Number(float64(match.Index)), nil
}

func (h *host) stringSplit(s string, args []value.Value) (value.Value, *value.Completion) {
	sep := arg(args, 0)
	limit := -1
	if l := arg(args, 1); !l.IsUndefined() {
		n, c := h.interp.ToNumberValue(l)
		if c != nil {
			return value.Value{}, c
		}
		limit = int(n)
	}
	if sep.IsUndefined() {
		return h.interp.NewArray([]value.Value{value.StringFromGo(s)}), nil
	}
	if sep.IsObject() && sep.Obj.Exotic == value.ExoticRegExp {
		var parts []string
		last := 0
		clone := h.interp.MakeRegExp(sep.Obj.RegexSource, sep.Obj.RegexFlags+"g").Obj
		for {
			match, err := h.interp.ExecRegExp(clone, s, last)
			if err != nil || match == nil || match.Index >= len(s) {
				break
			}
			if match.Length == 0 && match.Index == last {
				if match.Index >= len(s) {
					break
				}
			}
			parts = append(parts, s[last:match.Index])
			last = match.Index + match.Length
			if match.Length == 0 {
				last++
			}
		}
		parts = append(parts, s[min(last, len(s)):])
		out := make([]value.Value, 0, len(parts))
		for _, p := range parts {
			out = append(out, value.StringFromGo(p))
			if limit >= 0 && len(out) >= limit {
				break
			}
		}
		return h.interp.NewArray(out), nil
	}
	sepStr, c := h.interp.ToStringValue(sep)
	if c != nil {
		return value.Value{}, c
	}
	sepGo := helpers.UTF16ToString(sepStr)
	var parts []string
	if sepGo == "" {
		for _, r := range s {
			parts = append(parts, string(r))
		}
	} else {
		parts = strings.Split(s, sepGo)
	}
	out := make([]value.Value, 0, len(parts))
	for _, p := range parts {
		out = append(out, value.StringFromGo(p))
		if limit >= 0 && len(out) >= limit {
			break
		}
	}
	return h.interp.NewArray(out), nil
}

// stringReplace implements replace/replaceAll: the search value may be a
// literal substring or a RegExp, and the replacement may be a literal
// string or a callback. A RegExp search substitutes $$, $&, $` and $' in a
// string replacement, a substring search only $$ and $&; group references
// ($1..., $<name>) are not substituted.
func (h *host) stringReplace(s string, args []value.Value, all bool) (value.Value, *value.Completion) {
	search := arg(args, 0)
	replacement := arg(args, 1)
	if search.IsObject() && search.Obj.Exotic == value.ExoticRegExp {
		global := all || strings.Contains(search.Obj.RegexFlags, "g")
		if all && !strings.Contains(search.Obj.RegexFlags, "g") {
			return value.Value{}, h.realm.ThrowTypeError("replaceAll must be called with a global RegExp")
		}
		flags := search.Obj.RegexFlags
		clone := h.interp.MakeRegExp(search.Obj.RegexSource, flags).Obj
		var sb strings.Builder
		last := 0
		for {
			match, err := h.interp.ExecRegExp(clone, s, last)
			if err != nil || match == nil {
				break
			}
			sb.WriteString(s[last:match.Index])
			rep, c := h.computeReplacement(replacement, match, s)
			if c != nil {
				return value.Value{}, c
			}
			sb.WriteString(rep)
			next := match.Index + match.Length
			if match.Length == 0 {
				if match.Index < len(s) {
					sb.WriteByte(s[match.Index])
				}
				next++
			}
			last = next
			if !global || last > len(s) {
				break
			}
		}
		if last <= len(s) {
			sb.WriteString(s[last:])
		}
		return value.StringFromGo(sb.String()), nil
	}

	searchStr, c := h.interp.ToStringValue(search)
	if c != nil {
		return value.Value{}, c
	}
	needle := helpers.UTF16ToString(searchStr)
	if replacement.IsCallable() {
		replaceFn := func(idx int) (string, *value.Completion) {
			r, c := h.interp.CallFunction(replacement, value.Undefined(), []value.Value{value.StringFromGo(needle), value.Number(float64(idx)), value.StringFromGo(s)})
			if c != nil {
				return "", c
			}
			rs, c := h.interp.ToStringValue(r)
			if c != nil {
				return "", c
			}
			return helpers.UTF16ToString(rs), nil
		}
		return h.literalReplace(s, needle, replaceFn, all)
	}
	repStr, c := h.interp.ToStringValue(replacement)
	if c != nil {
		return value.Value{}, c
	}
	rep := helpers.UTF16ToString(repStr)
	replaceFn := func(idx int) (string, *value.Completion) {
		return strings.ReplaceAll(strings.ReplaceAll(rep, "$$", "$"), "$&", needle), nil
	}
	return h.literalReplace(s, needle, replaceFn, all)
}

func (h *host) literalReplace(s, needle string, replaceFn func(idx int) (string, *value.Completion), all bool) (value.Value, *value.Completion) {
	if needle == "" {
		if !all {
			rep, c := replaceFn(0)
			if c != nil {
				return value.Value{}, c
			}
			return value.StringFromGo(rep + s), nil
		}
	}
	var sb strings.Builder
	rest := s
	offset := 0
	for {
		idx := strings.Index(rest, needle)
		if idx < 0 {
			break
		}
		sb.WriteString(rest[:idx])
		rep, c := replaceFn(offset + idx)
		if c != nil {
			return value.Value{}, c
		}
		sb.WriteString(rep)
		advance := idx + len(needle)
		if needle == "" {
			advance = idx + 1
			if idx < len(rest) {
				sb.WriteByte(rest[idx])
			}
		}
		rest = rest[advance:]
		offset += advance
		if !all {
			break
		}
	}
	sb.WriteString(rest)
	return value.StringFromGo(sb.String()), nil
}

func (h *host) computeReplacement(replacement value.Value, match *regexp2.Match, s string) (string, *value.Completion) {
	groups := match.Groups()
	if replacement.IsCallable() {
		callArgs := []value.Value{value.StringFromGo(match.String())}
		for _, g := range groups[1:] {
			if len(g.Captures) == 0 {
				callArgs = append(callArgs, value.Undefined())
			} else {
				callArgs = append(callArgs, value.StringFromGo(g.String()))
			}
		}
		callArgs = append(callArgs, value.Number(float64(match.Index)), value.StringFromGo(s))
		r, c := h.interp.CallFunction(replacement, value.Undefined(), callArgs)
		if c != nil {
			return "", c
		}
		rs, c := h.interp.ToStringValue(r)
		if c != nil {
			return "", c
		}
		return helpers.UTF16ToString(rs), nil
	}
	repStr, c := h.interp.ToStringValue(replacement)
	if c != nil {
		return "", c
	}
	rep := helpers.UTF16ToString(repStr)
	var sb strings.Builder
	for i := 0; i < len(rep); i++ {
		if rep[i] == '$' && i+1 < len(rep) {
			switch rep[i+1] {
			case '$':
				sb.WriteByte('$')
				i++
				continue
			case '&':
				sb.WriteString(match.String())
				i++
				continue
			case '`':
				sb.WriteString(s[:match.Index])
				i++
				continue
			case '\'':
				sb.WriteString(s[match.Index+match.Length:])
				i++
				continue
			}
		}
		sb.WriteByte(rep[i])
	}
	return sb.String(), nil
}
