package builtins

import (
	"fmt"
	"strings"

	"github.com/jsrun/jsengine/internal/value"
)

// installConsole wires a console namespace that formats each argument with
// inspectValue and writes a space-joined line to h.stdout, the way Node's
// console does for the non-%-format-string call shape this engine supports.
func (h *host) installConsole() {
	c := h.realm.NewObject()
	c.SetClass("console")

	logFn := func(prefix string) value.CallFunc {
		return func(_ value.Value, args []value.Value) (value.Value, *value.Completion) {
			parts := make([]string, len(args))
			for i, a := range args {
				parts[i] = h.inspectValue(a, make(map[*value.Object]bool), 0)
			}
			line := strings.Join(parts, " ")
			if prefix != "" {
				line = prefix + line
			}
			fmt.Fprintln(h.stdout, line)
			return value.Undefined(), nil
		}
	}

	for _, name := range []string{"log", "info", "debug"} {
		h.method(c, name, 0, logFn(""))
	}
	h.method(c, "warn", 0, logFn(""))
	h.method(c, "error", 0, logFn(""))
	h.method(c, "trace", 0, logFn("Trace: "))
	h.method(c, "assert", 0, func(_ value.Value, args []value.Value) (value.Value, *value.Completion) {
		if len(args) > 0 && value.ToBoolean(args[0]) {
			return value.Undefined(), nil
		}
		rest := args
		if len(rest) > 0 {
			rest = rest[1:]
		}
		parts := make([]string, 0, len(rest))
		for _, a := range rest {
			parts = append(parts, h.inspectValue(a, make(map[*value.Object]bool), 0))
		}
		fmt.Fprintln(h.stdout, "Assertion failed:"+prefixIfAny(parts))
		return value.Undefined(), nil
	})
	h.method(c, "group", 0, logFn(""))
	h.method(c, "groupEnd", 0, func(_ value.Value, args []value.Value) (value.Value, *value.Completion) {
		return value.Undefined(), nil
	})
	h.method(c, "table", 0, logFn(""))
	h.method(c, "dir", 0, logFn(""))

	h.realm.SetIntrinsic("console", c)
}

// Inspect renders v the way console.log would, for a host (cmd/jsrun's
// REPL) that wants the same formatting without going through a console.*
// call — it needs no host state, only the value being printed.
func Inspect(v value.Value) string {
	h := &host{}
	return h.inspectValue(v, make(map[*value.Object]bool), 0)
}

func prefixIfAny(parts []string) string {
	if len(parts) == 0 {
		return ""
	}
	return " " + strings.Join(parts, " ")
}

// inspectValue renders v the way Node's util.inspect does for console
// output: quoted strings, bracketed arrays/objects, and cycle detection via
// seen (keyed by the underlying *value.Object so cross-referenced objects
// in the same call don't recurse forever).
func (h *host) inspectValue(v value.Value, seen map[*value.Object]bool, depth int) string {
	switch v.Kind {
	case value.KindUndefined:
		return "undefined"
	case value.KindNull:
		return "null"
	case value.KindBoolean:
		if v.Bool {
			return "true"
		}
		return "false"
	case value.KindNumber:
		if v.Num == 0 && 1/v.Num < 0 {
			return "-0"
		}
		return value.NumberToString(v.Num)
	case value.KindBigInt:
		return v.BigInt.Digits + "n"
	case value.KindString:
		if depth == 0 {
			return s2(v.Str)
		}
		return "'" + s2(v.Str) + "'"
	case value.KindSymbol:
		desc := ""
		if v.Sym.HasDesc {
			desc = v.Sym.Description
		}
		return "Symbol(" + desc + ")"
	case value.KindObject:
		return h.inspectObject(v.Obj, seen, depth)
	}
	return "<?>"
}

func (h *host) inspectObject(obj *value.Object, seen map[*value.Object]bool, depth int) string {
	if seen[obj] {
		return "[Circular]"
	}
	if depth > 6 {
		return "[Object]"
	}
	seen[obj] = true
	defer delete(seen, obj)

	if obj.Call != nil {
		name := ""
		if d, ok := obj.GetOwnProperty("name"); ok {
			name = s2(d.Value.Str)
		}
		if obj.Construct != nil {
			return "[class " + name + "]"
		}
		return "[Function: " + name + "]"
	}

	switch obj.Class() {
	case "Array":
		var parts []string
		for i := uint32(0); i < obj.ArrayLength; i++ {
			d, ok := obj.GetOwnProperty(fmt.Sprintf("%d", i))
			if !ok {
				parts = append(parts, "<1 empty item>")
				continue
			}
			parts = append(parts, h.inspectValue(d.Value, seen, depth+1))
		}
		return "[ " + strings.Join(parts, ", ") + " ]"
	case "Error":
		if d, ok := obj.GetOwnProperty("stack"); ok && d.Value.Kind == value.KindString {
			return s2(d.Value.Str)
		}
	case "Map":
		if obj.MapData != nil {
			keys, vals, deleted := obj.MapData.Entries()
			var parts []string
			for i := range keys {
				if deleted[i] {
					continue
				}
				parts = append(parts, h.inspectValue(keys[i], seen, depth+1)+" => "+h.inspectValue(vals[i], seen, depth+1))
			}
			return fmt.Sprintf("Map(%d) { %s }", obj.MapData.Size(), strings.Join(parts, ", "))
		}
	case "Set":
		if obj.MapData != nil {
			keys, _, deleted := obj.MapData.Entries()
			var parts []string
			for i := range keys {
				if deleted[i] {
					continue
				}
				parts = append(parts, h.inspectValue(keys[i], seen, depth+1))
			}
			return fmt.Sprintf("Set(%d) { %s }", obj.MapData.Size(), strings.Join(parts, ", "))
		}
	}

	var parts []string
	for _, key := range obj.OwnPropertyKeys() {
		if key.IsSymbol {
			continue
		}
		d, ok := obj.GetOwnProperty(key.Str)
		if !ok || !d.Enumerable {
			continue
		}
		var vs string
		if d.HasGetOrSet {
			vs = "[Getter/Setter]"
		} else {
			vs = h.inspectValue(d.Value, seen, depth+1)
		}
		parts = append(parts, key.Str+": "+vs)
	}
	prefix := ""
	if cls := obj.Class(); cls != "" && cls != "Object" {
		prefix = cls + " "
	}
	if len(parts) == 0 {
		return prefix + "{}"
	}
	return prefix + "{ " + strings.Join(parts, ", ") + " }"
}
