package builtins_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsrun/jsengine/internal/builtins"
	"github.com/jsrun/jsengine/internal/helpers"
	"github.com/jsrun/jsengine/internal/value"
	"github.com/jsrun/jsengine/pkg/engine"
)

// eval is a small helper shared by this file's test cases: run src as a
// script against a fresh Engine and fail the test on any Go-level error or
// uncaught exception.
func eval(t *testing.T, src string) value.Value {
	t.Helper()
	eng := engine.New(engine.Options{})
	result, err := eng.EvaluateScript(src, "<test>")
	require.NoError(t, err)
	if result.Exception != nil {
		t.Fatalf("uncaught exception: %s", builtins.Inspect(result.Exception.Value))
	}
	return result.Value
}

func evalString(t *testing.T, src string) string {
	t.Helper()
	v := eval(t, src)
	require.Equal(t, value.KindString, v.Kind)
	return helpers.UTF16ToString(v.Str)
}

func TestBigIntConstructionAndToString(t *testing.T) {
	eng := engine.New(engine.Options{})

	result, err := eng.EvaluateScript(`BigInt(9007199254740993).toString();`, "<test>")
	require.NoError(t, err)
	require.Nil(t, result.Exception)
	assert.Equal(t, "9007199254740992", helpers.UTF16ToString(result.Value.Str))
}

func TestBigIntArithmetic(t *testing.T) {
	v := evalString(t, `
		const a = 10n, b = 3n;
		[
			(a + b).toString(),
			(a - b).toString(),
			(a * b).toString(),
			(a / b).toString(),
			(a % b).toString(),
			(b ** 3n).toString(),
			(1n << 4n).toString(),
		].join(",");
	`)
	assert.Equal(t, "13,7,30,3,1,27,16", v)
}

func TestBigIntArithmeticRejectsMixedNumberOperand(t *testing.T) {
	v := eval(t, `
		let threw = false;
		try { 1n + 1; } catch (e) { threw = e instanceof TypeError; }
		threw;
	`)
	assert.True(t, v.Bool)
}

func TestBigIntRejectsUnsafeFloat(t *testing.T) {
	eng := engine.New(engine.Options{})

	result, err := eng.EvaluateScript(`
		let threw = false;
		try { BigInt(1.5); } catch (e) { threw = e instanceof RangeError; }
		threw;
	`, "<test>")
	require.NoError(t, err)
	require.Nil(t, result.Exception)
	assert.True(t, result.Value.Bool)
}

func TestBigIntAsUintN(t *testing.T) {
	eng := engine.New(engine.Options{})

	result, err := eng.EvaluateScript(`BigInt.asUintN(8, BigInt(-1)).toString();`, "<test>")
	require.NoError(t, err)
	require.Nil(t, result.Exception)
	assert.Equal(t, "255", helpers.UTF16ToString(result.Value.Str))
}

func TestProxyGetSetHasTraps(t *testing.T) {
	v := evalString(t, `
		let log = [];
		const target = { a: 1 };
		const p = new Proxy(target, {
			get(t, key) { log.push("get:" + key); return t[key]; },
			set(t, key, value) { log.push("set:" + key); t[key] = value; return true; },
			has(t, key) { log.push("has:" + key); return key in t; },
		});
		p.b = 2;
		void p.a;
		void ("a" in p);
		log.join(",");
	`)
	assert.Equal(t, "set:b,get:a,has:a", v)
}

func TestProxyApplyAndConstructTraps(t *testing.T) {
	v := evalString(t, `
		function target(x) { return x * 2; }
		let calledWith;
		const p = new Proxy(target, {
			apply(t, thisArg, args) { calledWith = args[0]; return t(...args) + 1; },
		});
		String(p(20)) + ":" + calledWith;
	`)
	assert.Equal(t, "41:20", v)
}

func TestProxyTrapsOnlyCoverGetSetHasApplyConstruct(t *testing.T) {
	// The `delete` operator on a Proxy acts on the Proxy object's own (empty)
	// property store -- it neither reaches the target nor dispatches the
	// deleteProperty trap; only Reflect.deleteProperty dispatches it (see the
	// Reflect test below).
	v := eval(t, `
		const target = { a: 1 };
		let trapCalled = false;
		const p = new Proxy(target, {
			deleteProperty(t, key) { trapCalled = true; return delete t[key]; },
		});
		delete p.a;
		trapCalled;
	`)
	assert.False(t, v.Bool)
}

func TestReflectGetSetHasOnPlainObject(t *testing.T) {
	v := evalString(t, `
		const o = { a: 1 };
		Reflect.set(o, "b", 2);
		String(Reflect.get(o, "b")) + ":" + String(Reflect.has(o, "a"));
	`)
	assert.Equal(t, "2:true", v)
}

func TestReflectApplyAndConstruct(t *testing.T) {
	v := eval(t, `
		function Point(x, y) { this.x = x; this.y = y; }
		function sum(a, b) { return a + b; }
		const p = Reflect.construct(Point, [1, 2]);
		const s = Reflect.apply(sum, null, [3, 4]);
		[p.x, p.y, s];
	`)
	require.Equal(t, value.KindObject, v.Kind)
	require.Equal(t, uint32(3), v.Obj.ArrayLength)
}

func TestJSONStringifyFormatsNestedValues(t *testing.T) {
	eng := engine.New(engine.Options{})
	result, err := eng.EvaluateScript(`
		JSON.stringify({ arr: [1, 2, 3], nested: { x: 1 } });
	`, "<test>")
	require.NoError(t, err)
	require.Nil(t, result.Exception)
	assert.Equal(t, `{"arr":[1,2,3],"nested":{"x":1}}`, helpers.UTF16ToString(result.Value.Str))
}

func TestStructuredCloneDeepCopies(t *testing.T) {
	v := eval(t, `
		const original = { a: [1, 2, { b: 3 }] };
		const clone = structuredClone(original);
		clone.a[2].b = 99;
		[clone.a[2].b, original.a[2].b];
	`)
	require.Equal(t, value.KindObject, v.Kind)
	first, ok := v.Obj.GetOwnProperty("0")
	require.True(t, ok)
	second, ok := v.Obj.GetOwnProperty("1")
	require.True(t, ok)
	assert.Equal(t, 99.0, first.Value.Num)
	assert.Equal(t, 3.0, second.Value.Num)
}

func TestStructuredCloneRejectsFunctions(t *testing.T) {
	eng := engine.New(engine.Options{})
	result, err := eng.EvaluateScript(`structuredClone(function () {});`, "<test>")
	require.NoError(t, err)
	require.NotNil(t, result.Exception)
}

func TestEncodeDecodeURIComponentRoundTrip(t *testing.T) {
	v := evalString(t, `decodeURIComponent(encodeURIComponent("a b/c?d=1"));`)
	assert.Equal(t, "a b/c?d=1", v)
}

func TestGlobalParseIntAndIsNaN(t *testing.T) {
	v := eval(t, `[parseInt("42px"), isNaN("not a number"), isFinite(1 / 0)];`)
	require.Equal(t, value.KindObject, v.Kind)
	d0, _ := v.Obj.GetOwnProperty("0")
	d1, _ := v.Obj.GetOwnProperty("1")
	d2, _ := v.Obj.GetOwnProperty("2")
	assert.Equal(t, 42.0, d0.Value.Num)
	assert.True(t, d1.Value.Bool)
	assert.False(t, d2.Value.Bool)
}

func TestReflectDefinePropertyDispatchesProxyTrap(t *testing.T) {
	v := evalString(t, `
		let received;
		const target = {};
		const p = new Proxy(target, {
			defineProperty(t, key, desc) { received = key; return Reflect.defineProperty(t, key, desc); },
		});
		Reflect.defineProperty(p, "a", { value: 1, writable: true, enumerable: true, configurable: true });
		received + ":" + target.a;
	`)
	assert.Equal(t, "a:1", v)
}

func TestReflectDefinePropertyRejectsInvariantViolation(t *testing.T) {
	v := eval(t, `
		const target = {};
		Object.defineProperty(target, "a", { value: 1, writable: true, enumerable: true, configurable: false });
		const p = new Proxy(target, {
			defineProperty() { return true; },
		});
		let threw = false;
		try {
			Reflect.defineProperty(p, "a", { value: 1, writable: false, enumerable: true, configurable: false });
		} catch (e) {
			threw = e instanceof TypeError;
		}
		threw;
	`)
	assert.True(t, v.Bool)
}

func TestReflectDeletePropertyDispatchesProxyTrap(t *testing.T) {
	v := eval(t, `
		let trapCalled = false;
		const target = { a: 1 };
		const p = new Proxy(target, {
			deleteProperty(t, key) { trapCalled = true; return delete t[key]; },
		});
		Reflect.deleteProperty(p, "a");
		[trapCalled, "a" in target];
	`)
	require.Equal(t, value.KindObject, v.Kind)
	trapCalled, _ := v.Obj.GetOwnProperty("0")
	stillThere, _ := v.Obj.GetOwnProperty("1")
	assert.True(t, trapCalled.Value.Bool)
	assert.False(t, stillThere.Value.Bool)
}

func TestReflectOwnKeysDispatchesProxyTrapAndValidatesResult(t *testing.T) {
	v := eval(t, `
		const target = {};
		Object.defineProperty(target, "a", { value: 1, enumerable: true, configurable: false });
		const p = new Proxy(target, {
			ownKeys() { return []; },
		});
		let threw = false;
		try { Reflect.ownKeys(p); } catch (e) { threw = e instanceof TypeError; }
		threw;
	`)
	assert.True(t, v.Bool)
}

func TestReflectGetPrototypeOfDispatchesProxyTrap(t *testing.T) {
	v := eval(t, `
		const proto = { x: 1 };
		const p = new Proxy({}, {
			getPrototypeOf() { return proto; },
		});
		Reflect.getPrototypeOf(p) === proto;
	`)
	assert.True(t, v.Bool)
}

func TestJSONStringifyEscapesLoneSurrogate(t *testing.T) {
	v := evalString(t, `JSON.stringify("\uD800");`)
	assert.Equal(t, `"\ud800"`, v)
}

func TestArrayToSortedDoesNotMutateOriginal(t *testing.T) {
	v := eval(t, `
		const original = [3, 1, 2];
		const sorted = original.toSorted();
		[sorted, original];
	`)
	require.Equal(t, value.KindObject, v.Kind)
	sortedVal, _ := v.Obj.GetOwnProperty("0")
	originalVal, _ := v.Obj.GetOwnProperty("1")
	require.Equal(t, uint32(3), sortedVal.Value.Obj.ArrayLength)
	s0, _ := sortedVal.Value.Obj.GetOwnProperty("0")
	s1, _ := sortedVal.Value.Obj.GetOwnProperty("1")
	s2, _ := sortedVal.Value.Obj.GetOwnProperty("2")
	assert.Equal(t, []float64{1, 2, 3}, []float64{s0.Value.Num, s1.Value.Num, s2.Value.Num})
	o0, _ := originalVal.Value.Obj.GetOwnProperty("0")
	o1, _ := originalVal.Value.Obj.GetOwnProperty("1")
	o2, _ := originalVal.Value.Obj.GetOwnProperty("2")
	assert.Equal(t, []float64{3, 1, 2}, []float64{o0.Value.Num, o1.Value.Num, o2.Value.Num})
}

func TestArrayToReversedAndWith(t *testing.T) {
	v := evalString(t, `
		const a = [1, 2, 3];
		a.toReversed().join(",") + "|" + a.with(1, 9).join(",") + "|" + a.join(",");
	`)
	assert.Equal(t, "3,2,1|1,9,3|1,2,3", v)
}

func TestArrayToSpliced(t *testing.T) {
	v := evalString(t, `
		const a = [1, 2, 3, 4];
		a.toSpliced(1, 2, "x", "y").join(",") + "|" + a.join(",");
	`)
	assert.Equal(t, "1,x,y,4|1,2,3,4", v)
}

func TestTimersScheduleAndClear(t *testing.T) {
	v := eval(t, `
		globalThis.fired = false;
		const id = setTimeout(() => { fired = true; }, 0);
		clearTimeout(id);
		fired;
	`)
	assert.False(t, v.Bool)
}
