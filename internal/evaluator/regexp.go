package evaluator

import (
	"strings"

	"github.com/dlclark/regexp2"

	"github.com/jsrun/jsengine/internal/value"
)

// makeRegExp builds a RegExp object, compiling pattern/flags eagerly with
// regexp2 (which, unlike Go's RE2-based regexp package, supports the
// backreferences and lookaround JS regex literals rely on).
func (it *Interpreter) makeRegExp(pattern, flags string) value.Value {
	obj := value.NewObject(it.Realm.Intrinsic("RegExp.prototype"))
	obj.SetClass("RegExp")
	obj.Exotic = value.ExoticRegExp
	obj.RegexSource = pattern
	obj.RegexFlags = flags
	obj.RegexLastIndex = 0

	opts := regexp2.None
	if strings.Contains(flags, "i") {
		opts |= regexp2.IgnoreCase
	}
	if strings.Contains(flags, "s") {
		opts |= regexp2.Singleline
	}
	if strings.Contains(flags, "m") {
		opts |= regexp2.Multiline
	}
	if strings.Contains(flags, "x") {
		opts |= regexp2.IgnorePatternWhitespace
	}
	re, err := regexp2.Compile(pattern, opts)
	if err == nil {
		obj.RegexCompiled = re
	}

	obj.DefineOwnProperty("lastIndex", value.DataProperty(value.Number(0), true, false, false))
	obj.DefineOwnProperty("source", value.DataProperty(value.StringFromGo(pattern), false, false, false))
	obj.DefineOwnProperty("flags", value.DataProperty(value.StringFromGo(flags), false, false, false))
	obj.DefineOwnProperty("global", value.DataProperty(value.Bool(strings.Contains(flags, "g")), false, false, false))
	obj.DefineOwnProperty("ignoreCase", value.DataProperty(value.Bool(strings.Contains(flags, "i")), false, false, false))
	obj.DefineOwnProperty("multiline", value.DataProperty(value.Bool(strings.Contains(flags, "m")), false, false, false))
	obj.DefineOwnProperty("sticky", value.DataProperty(value.Bool(strings.Contains(flags, "y")), false, false, false))
	obj.DefineOwnProperty("unicode", value.DataProperty(value.Bool(strings.Contains(flags, "u")), false, false, false))
	obj.DefineOwnProperty("dotAll", value.DataProperty(value.Bool(strings.Contains(flags, "s")), false, false, false))

	return value.FromObject(obj)
}

// execRegExp runs a compiled RegExp against s starting at fromIndex,
// implementing the position-tracking half of RegExpExec that
// internal/builtins' String.prototype.match/replace/split and
// RegExp.prototype.exec/test share.
func (it *Interpreter) execRegExp(obj *value.Object, s string, fromIndex int) (*regexp2.Match, error) {
	if obj.RegexCompiled == nil {
		return nil, nil
	}
	if fromIndex <= 0 {
		return obj.RegexCompiled.FindStringMatch(s)
	}
	return obj.RegexCompiled.FindStringMatchStartingAt(s, fromIndex)
}
