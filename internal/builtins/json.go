package builtins

import (
	"strconv"
	"strings"
	"unicode/utf16"

	"github.com/jsrun/jsengine/internal/helpers"
	"github.com/jsrun/jsengine/internal/value"
)

func (h *host) installJSON() {
	j := h.realm.NewObject()
	j.SetClass("JSON")

	h.staticMethod(j, "stringify", 3, func(_ value.Value, args []value.Value) (value.Value, *value.Completion) {
		indent := ""
		if sp := arg(args, 2); !sp.IsUndefined() {
			switch sp.Kind {
			case value.KindNumber:
				n := int(sp.Num)
				if n > 10 {
					n = 10
				}
				if n > 0 {
					indent = strings.Repeat(" ", n)
				}
			case value.KindString:
				s := helpers.UTF16ToString(sp.Str)
				if len(s) > 10 {
					s = s[:10]
				}
				indent = s
			}
		}
		var sb strings.Builder
		ok, c := h.jsonStringify(&sb, arg(args, 0), indent, "")
		if c != nil {
			return value.Value{}, c
		}
		if !ok {
			return value.Undefined(), nil
		}
		return value.StringFromGo(sb.String()), nil
	})
	h.staticMethod(j, "parse", 2, func(_ value.Value, args []value.Value) (value.Value, *value.Completion) {
		s, c := h.interp.ToStringValue(arg(args, 0))
		if c != nil {
			return value.Value{}, c
		}
		p := &jsonParser{h: h, s: helpers.UTF16ToString(s)}
		v, err := p.parseValue()
		if err != nil {
			return value.Value{}, h.realm.ThrowSyntaxError(err.Error())
		}
		p.skipWS()
		if p.pos != len(p.s) {
			return value.Value{}, h.realm.ThrowSyntaxError("Unexpected token in JSON")
		}
		return v, nil
	})

	if sym := h.realm.WellKnownSymbols["toStringTag"]; sym != nil {
		j.DefineOwnPropertySymbol(sym, value.DataProperty(value.StringFromGo("JSON"), false, false, true))
	}
	h.realm.SetIntrinsic("JSON", j)
}

// jsonStringify implements the SerializeJSONProperty algorithm, returning
// false when v serializes to "no representation" (undefined, a function,
// or a symbol at the top level / inside a non-array container).
func (h *host) jsonStringify(sb *strings.Builder, v value.Value, indent, curIndent string) (bool, *value.Completion) {
	if v.IsObject() {
		if toJSON, c := h.interp.GetProperty(v, "toJSON"); c == nil && toJSON.IsCallable() {
			r, c := h.interp.CallFunction(toJSON, v, nil)
			if c != nil {
				return false, c
			}
			v = r
		}
	}
	switch v.Kind {
	case value.KindUndefined:
		return false, nil
	case value.KindNull:
		sb.WriteString("null")
		return true, nil
	case value.KindBoolean:
		if v.Bool {
			sb.WriteString("true")
		} else {
			sb.WriteString("false")
		}
		return true, nil
	case value.KindNumber:
		if v.Num != v.Num || v.Num > 1.7976931348623157e+308 || v.Num < -1.7976931348623157e+308 {
			sb.WriteString("null")
		} else {
			sb.WriteString(value.NumberToString(v.Num))
		}
		return true, nil
	case value.KindString:
		writeJSONStringUTF16(sb, v.Str)
		return true, nil
	case value.KindSymbol, value.KindBigInt:
		return false, nil
	case value.KindObject:
		if v.Obj.Call != nil {
			return false, nil
		}
		return h.jsonStringifyObject(sb, v, indent, curIndent)
	}
	return false, nil
}

func (h *host) jsonStringifyObject(sb *strings.Builder, v value.Value, indent, curIndent string) (bool, *value.Completion) {
	obj := v.Obj
	nextIndent := curIndent + indent
	nl, sep := "", ""
	if indent != "" {
		nl = "\n"
		sep = " "
	}
	if obj.Exotic == value.ExoticArray {
		length := obj.ArrayLength
		if length == 0 {
			sb.WriteString("[]")
			return true, nil
		}
		sb.WriteString("[")
		for i := uint32(0); i < length; i++ {
			if i > 0 {
				sb.WriteString(",")
			}
			sb.WriteString(nl + nextIndent)
			elem, c := h.elementAt(v, i)
			if c != nil {
				return false, c
			}
			ok, c := h.jsonStringify(sb, elem, indent, nextIndent)
			if c != nil {
				return false, c
			}
			if !ok {
				sb.WriteString("null")
			}
		}
		sb.WriteString(nl + curIndent + "]")
		return true, nil
	}
	if obj.Class() == "Number" {
		return h.jsonStringify(sb, obj.PrimitiveData, indent, curIndent)
	}
	if obj.Class() == "String" {
		return h.jsonStringify(sb, obj.PrimitiveData, indent, curIndent)
	}
	if obj.Class() == "Boolean" {
		return h.jsonStringify(sb, obj.PrimitiveData, indent, curIndent)
	}

	var entries []string
	for _, key := range obj.OwnPropertyKeys() {
		if key.IsSymbol {
			continue
		}
		desc, ok := obj.GetOwnProperty(key.Str)
		if !ok || !desc.Enumerable {
			continue
		}
		propVal, c := h.interp.GetProperty(v, key.Str)
		if c != nil {
			return false, c
		}
		var entrySb strings.Builder
		ok2, c := h.jsonStringify(&entrySb, propVal, indent, nextIndent)
		if c != nil {
			return false, c
		}
		if !ok2 {
			continue
		}
		var keySb strings.Builder
		writeJSONString(&keySb, key.Str)
		entries = append(entries, keySb.String()+":"+sep+entrySb.String())
	}
	if len(entries) == 0 {
		sb.WriteString("{}")
		return true, nil
	}
	sb.WriteString("{")
	for i, e := range entries {
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString(nl + nextIndent + e)
	}
	sb.WriteString(nl + curIndent + "}")
	return true, nil
}

func writeJSONString(sb *strings.Builder, s string) {
	sb.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		case '\b':
			sb.WriteString(`\b`)
		case '\f':
			sb.WriteString(`\f`)
		default:
			if r < 0x20 {
				sb.WriteString(`\u`)
				sb.WriteString(strconv.FormatInt(int64(r), 16))
			} else {
				sb.WriteRune(r)
			}
		}
	}
	sb.WriteByte('"')
}

// writeJSONStringUTF16 quotes a string value's raw UTF-16 code units
// directly rather than going through a Go string, so a lone surrogate
// (0xD800-0xDFFF with no matching partner) is escaped as \uXXXX instead of
// being corrupted into U+FFFD by Go's standard-UTF-8 range decoder.
func writeJSONStringUTF16(sb *strings.Builder, units []uint16) {
	sb.WriteByte('"')
	n := len(units)
	for i := 0; i < n; i++ {
		c := units[i]
		switch c {
		case '"':
			sb.WriteString(`\"`)
			continue
		case '\\':
			sb.WriteString(`\\`)
			continue
		case '\n':
			sb.WriteString(`\n`)
			continue
		case '\r':
			sb.WriteString(`\r`)
			continue
		case '\t':
			sb.WriteString(`\t`)
			continue
		case '\b':
			sb.WriteString(`\b`)
			continue
		case '\f':
			sb.WriteString(`\f`)
			continue
		}
		if c < 0x20 {
			sb.WriteString(jsonUnicodeEscape(c))
			continue
		}
		r := rune(c)
		if utf16.IsSurrogate(r) {
			if i+1 < n {
				if combined := utf16.DecodeRune(r, rune(units[i+1])); combined != 0xFFFD {
					sb.WriteRune(combined)
					i++
					continue
				}
			}
			sb.WriteString(jsonUnicodeEscape(c))
			continue
		}
		sb.WriteRune(r)
	}
	sb.WriteByte('"')
}

func jsonUnicodeEscape(c uint16) string {
	const hex = "0123456789abcdef"
	return string([]byte{'\\', 'u', hex[c>>12], hex[(c>>8)&0xF], hex[(c>>4)&0xF], hex[c&0xF]})
}

// jsonParser is a minimal recursive-descent JSON parser, built the way
// internal/js_parser is (hand-rolled, position-tracked) rather than pulling
// in a generic JSON package — JSON.parse needs JS Values out the other end,
// not Go structs.
type jsonParser struct {
	h   *host
	s   string
	pos int
}

func (p *jsonParser) skipWS() {
	for p.pos < len(p.s) {
		switch p.s[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

func (p *jsonParser) parseValue() (value.Value, error) {
	p.skipWS()
	if p.pos >= len(p.s) {
		return value.Value{}, errUnexpectedEnd
	}
	switch c := p.s[p.pos]; {
	case c == '{':
		return p.parseObject()
	case c == '[':
		return p.parseArray()
	case c == '"':
		s, err := p.parseString()
		if err != nil {
			return value.Value{}, err
		}
		return value.StringFromGo(s), nil
	case c == 't':
		return p.parseLiteral("true", value.Bool(true))
	case c == 'f':
		return p.parseLiteral("false", value.Bool(false))
	case c == 'n':
		return p.parseLiteral("null", value.Null())
	default:
		return p.parseNumber()
	}
}

var errUnexpectedEnd = jsonErr("Unexpected end of JSON input")

type jsonErr string

func (e jsonErr) Error() string { return string(e) }

func (p *jsonParser) parseLiteral(lit string, v value.Value) (value.Value, error) {
	if p.pos+len(lit) > len(p.s) || p.s[p.pos:p.pos+len(lit)] != lit {
		return value.Value{}, jsonErr("Unexpected token in JSON")
	}
	p.pos += len(lit)
	return v, nil
}

func (p *jsonParser) parseNumber() (value.Value, error) {
	start := p.pos
	if p.pos < len(p.s) && p.s[p.pos] == '-' {
		p.pos++
	}
	for p.pos < len(p.s) && p.s[p.pos] >= '0' && p.s[p.pos] <= '9' {
		p.pos++
	}
	if p.pos < len(p.s) && p.s[p.pos] == '.' {
		p.pos++
		for p.pos < len(p.s) && p.s[p.pos] >= '0' && p.s[p.pos] <= '9' {
			p.pos++
		}
	}
	if p.pos < len(p.s) && (p.s[p.pos] == 'e' || p.s[p.pos] == 'E') {
		p.pos++
		if p.pos < len(p.s) && (p.s[p.pos] == '+' || p.s[p.pos] == '-') {
			p.pos++
		}
		for p.pos < len(p.s) && p.s[p.pos] >= '0' && p.s[p.pos] <= '9' {
			p.pos++
		}
	}
	if p.pos == start {
		return value.Value{}, jsonErr("Unexpected token in JSON")
	}
	n, err := strconv.ParseFloat(p.s[start:p.pos], 64)
	if err != nil {
		return value.Value{}, jsonErr("Invalid number in JSON")
	}
	return value.Number(n), nil
}

func (p *jsonParser) parseString() (string, error) {
	p.pos++ // opening quote
	var sb strings.Builder
	for p.pos < len(p.s) {
		c := p.s[p.pos]
		if c == '"' {
			p.pos++
			return sb.String(), nil
		}
		if c == '\\' {
			p.pos++
			if p.pos >= len(p.s) {
				break
			}
			switch p.s[p.pos] {
			case '"':
				sb.WriteByte('"')
			case '\\':
				sb.WriteByte('\\')
			case '/':
				sb.WriteByte('/')
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case 'r':
				sb.WriteByte('\r')
			case 'b':
				sb.WriteByte('\b')
			case 'f':
				sb.WriteByte('\f')
			case 'u':
				if p.pos+4 >= len(p.s) {
					return "", jsonErr("Invalid unicode escape in JSON")
				}
				n, err := strconv.ParseUint(p.s[p.pos+1:p.pos+5], 16, 32)
				if err != nil {
					return "", jsonErr("Invalid unicode escape in JSON")
				}
				r := rune(n)
				if utf16.IsSurrogate(r) && p.pos+10 < len(p.s) && p.s[p.pos+5] == '\\' && p.s[p.pos+6] == 'u' {
					n2, err := strconv.ParseUint(p.s[p.pos+7:p.pos+11], 16, 32)
					if err == nil {
						combined := utf16.DecodeRune(r, rune(n2))
						if combined != 0xFFFD {
							sb.WriteRune(combined)
							p.pos += 10
							p.pos++
							continue
						}
					}
				}
				sb.WriteRune(r)
				p.pos += 4
			}
			p.pos++
			continue
		}
		sb.WriteByte(c)
		p.pos++
	}
	return "", jsonErr("Unterminated string in JSON")
}

func (p *jsonParser) parseArray() (value.Value, error) {
	p.pos++ // '['
	var items []value.Value
	p.skipWS()
	if p.pos < len(p.s) && p.s[p.pos] == ']' {
		p.pos++
		return p.h.interp.NewArray(items), nil
	}
	for {
		v, err := p.parseValue()
		if err != nil {
			return value.Value{}, err
		}
		items = append(items, v)
		p.skipWS()
		if p.pos >= len(p.s) {
			return value.Value{}, errUnexpectedEnd
		}
		if p.s[p.pos] == ',' {
			p.pos++
			continue
		}
		if p.s[p.pos] == ']' {
			p.pos++
			break
		}
		return value.Value{}, jsonErr("Unexpected token in JSON array")
	}
	return p.h.interp.NewArray(items), nil
}

func (p *jsonParser) parseObject() (value.Value, error) {
	p.pos++ // '{'
	obj := p.h.realm.NewObject()
	p.skipWS()
	if p.pos < len(p.s) && p.s[p.pos] == '}' {
		p.pos++
		return value.FromObject(obj), nil
	}
	for {
		p.skipWS()
		if p.pos >= len(p.s) || p.s[p.pos] != '"' {
			return value.Value{}, jsonErr("Expected string key in JSON object")
		}
		key, err := p.parseString()
		if err != nil {
			return value.Value{}, err
		}
		p.skipWS()
		if p.pos >= len(p.s) || p.s[p.pos] != ':' {
			return value.Value{}, jsonErr("Expected ':' in JSON object")
		}
		p.pos++
		v, err := p.parseValue()
		if err != nil {
			return value.Value{}, err
		}
		obj.DefineOwnProperty(key, value.DataProperty(v, true, true, true))
		p.skipWS()
		if p.pos >= len(p.s) {
			return value.Value{}, errUnexpectedEnd
		}
		if p.s[p.pos] == ',' {
			p.pos++
			continue
		}
		if p.s[p.pos] == '}' {
			p.pos++
			break
		}
		return value.Value{}, jsonErr("Unexpected token in JSON object")
	}
	return value.FromObject(obj), nil
}
