// Package builtins populates a Realm's global object (spec §4.8): one file
// per global, matching internal/evaluator's "one file per expression/
// statement concern" layout. Install is the teacher's own
// config.Plugin-registration shape (a single ordered bootstrap function
// wiring independently-defined pieces together) applied to intrinsics
// instead of bundler plugins.
package builtins

import (
	"io"
	"math"
	"math/rand"
	"os"
	"strconv"
	"time"

	"github.com/jsrun/jsengine/internal/config"
	"github.com/jsrun/jsengine/internal/eventloop"
	"github.com/jsrun/jsengine/internal/evaluator"
	"github.com/jsrun/jsengine/internal/runtime"
	"github.com/jsrun/jsengine/internal/value"
)

// host bundles everything a builtin registration function needs: the realm
// to stash intrinsics on, the interpreter for abstract operations and
// native-function wrapping, the event loop for timers/microtasks, the
// capability flags gating proposal-stage surface, and where console output
// goes.
type host struct {
	realm  *runtime.Realm
	interp *evaluator.Interpreter
	loop   *eventloop.Loop
	caps   config.Capabilities
	rng    *rand.Rand
	stdout io.Writer
}

func (h *host) random() float64 { return h.rng.Float64() }

// Install builds the global object and environment for realm: every
// intrinsic prototype/constructor, then the free global functions/values,
// attached as own properties of the global object, and returns the global
// environment built over that object. Call once per
// Realm, before evaluating any script or module against it.
func Install(realm *runtime.Realm, interp *evaluator.Interpreter, loop *eventloop.Loop, opts config.RealmOptions) *runtime.Environment {
	var w io.Writer = os.Stdout
	if ww, ok := opts.ConsoleWritesTo.(io.Writer); ok && ww != nil {
		w = ww
	}
	h := &host{realm: realm, interp: interp, loop: loop, caps: opts.Capabilities, rng: rand.New(rand.NewSource(time.Now().UnixNano())), stdout: w}

	global := value.NewObject(nil)
	global.SetClass("global")
	realm.GlobalObject = global

	h.installFunction()
	h.installObject()
	h.installArray()
	h.installErrors()
	h.installString()
	h.installNumber()
	h.installBigInt()
	h.installBoolean()
	h.installSymbol()
	h.installMath()
	h.installJSON()
	h.installRegExp()
	h.installDate()
	h.installPromise()
	h.installMapSet()
	h.installArrayBuffer()
	h.installProxy()
	h.installReflect()
	h.installConsole()
	h.installGlobalFunctions()
	h.installTimers()

	for name, obj := range realm.Intrinsics {
		if isConstructorIntrinsicName(name) {
			global.DefineOwnProperty(name, value.DataProperty(value.FromObject(obj), true, false, true))
		}
	}
	global.DefineOwnProperty("undefined", value.DataProperty(value.Undefined(), false, false, false))
	global.DefineOwnProperty("NaN", value.DataProperty(value.Number(math.NaN()), false, false, false))
	global.DefineOwnProperty("Infinity", value.DataProperty(value.Number(math.Inf(1)), false, false, false))

	env := runtime.NewGlobalEnvironment(global)
	env.CreateAndInitializeVar("globalThis", value.FromObject(global))
	realm.GlobalEnv = env
	return env
}

// isConstructorIntrinsicName filters Install's sweep over Intrinsics down to
// the names that are themselves global bindings (constructors and
// namespace objects like Math/JSON/Reflect) rather than internal
// ".prototype" entries, which only ever appear as a constructor's own
// "prototype" property.
func isConstructorIntrinsicName(name string) bool {
	for _, c := range name {
		if c == '.' {
			return false
		}
	}
	return true
}

func (h *host) nativeFn(name string, length int, fn value.CallFunc) *value.Object {
	v := h.interp.NativeFunc(fn)
	v.Obj.DefineOwnProperty("name", value.DataProperty(value.StringFromGo(name), false, false, true))
	v.Obj.DefineOwnProperty("length", value.DataProperty(value.Number(float64(length)), false, false, true))
	return v.Obj
}

func (h *host) method(target *value.Object, name string, length int, fn value.CallFunc) {
	target.DefineOwnProperty(name, value.DataProperty(value.FromObject(h.nativeFn(name, length, fn)), true, false, true))
}

func (h *host) staticMethod(target *value.Object, name string, length int, fn value.CallFunc) {
	h.method(target, name, length, fn)
}

func (h *host) getter(target *value.Object, name string, fn value.CallFunc) {
	existing, _ := target.GetOwnProperty(name)
	existing.HasValue = false
	existing.HasGetOrSet = true
	existing.Get = h.nativeFn("get "+name, 0, fn)
	existing.Enumerable = false
	existing.Configurable = true
	target.DefineOwnProperty(name, existing)
}

func nan() float64 { return math.NaN() }

func arg(args []value.Value, i int) value.Value {
	if i < len(args) {
		return args[i]
	}
	return value.Undefined()
}

func thisObject(h *host, thisVal value.Value) (*value.Object, *value.Completion) {
	if !thisVal.IsObject() {
		return nil, h.realm.ThrowTypeError("this is not an object")
	}
	return thisVal.Obj, nil
}

// arrayLikeToSlice reads a "length" property plus integer-indexed properties
// off v (spec's CreateListFromArrayLike), the shape Function.prototype.apply
// and Reflect.apply's second argument both need without requiring a real
// iterator.
func (h *host) arrayLikeToSlice(v value.Value) ([]value.Value, *value.Completion) {
	if !v.IsObject() {
		return nil, h.realm.ThrowTypeError("CreateListFromArrayLike called on non-object")
	}
	lenVal, c := h.interp.GetProperty(v, "length")
	if c != nil {
		return nil, c
	}
	n, c := h.interp.ToNumberValue(lenVal)
	if c != nil {
		return nil, c
	}
	length := int(n)
	if length < 0 {
		length = 0
	}
	out := make([]value.Value, length)
	for i := 0; i < length; i++ {
		elem, c := h.interp.GetProperty(v, strconv.Itoa(i))
		if c != nil {
			return nil, c
		}
		out[i] = elem
	}
	return out, nil
}
