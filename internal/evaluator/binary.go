package evaluator

import (
	"math"
	"math/big"

	"github.com/jsrun/jsengine/internal/helpers"
	"github.com/jsrun/jsengine/internal/js_ast"
	"github.com/jsrun/jsengine/internal/runtime"
	"github.com/jsrun/jsengine/internal/value"
)

func (it *Interpreter) evalBinary(d *js_ast.EBinary, env *runtime.Environment) (value.Value, *value.Completion) {
	if d.Op.IsAssign() {
		return it.evalAssign(d, env)
	}

	switch d.Op {
	case js_ast.BinOpLogicalAnd:
		left, c := it.evalExpr(d.Left, env)
		if c != nil {
			return value.Value{}, c
		}
		if !value.ToBoolean(left) {
			return left, nil
		}
		return it.evalExpr(d.Right, env)

	case js_ast.BinOpLogicalOr:
		left, c := it.evalExpr(d.Left, env)
		if c != nil {
			return value.Value{}, c
		}
		if value.ToBoolean(left) {
			return left, nil
		}
		return it.evalExpr(d.Right, env)

	case js_ast.BinOpNullishCoalescing:
		left, c := it.evalExpr(d.Left, env)
		if c != nil {
			return value.Value{}, c
		}
		if !left.IsNullish() {
			return left, nil
		}
		return it.evalExpr(d.Right, env)

	case js_ast.BinOpComma:
		if _, c := it.evalExpr(d.Left, env); c != nil {
			return value.Value{}, c
		}
		return it.evalExpr(d.Right, env)

	case js_ast.BinOpIn:
		left, c := it.evalExpr(d.Left, env)
		if c != nil {
			return value.Value{}, c
		}
		right, c := it.evalExpr(d.Right, env)
		if c != nil {
			return value.Value{}, c
		}
		if !right.IsObject() {
			return value.Value{}, it.Realm.ThrowTypeError("Cannot use 'in' operator on a non-object")
		}
		key, c := it.toStringValue(left)
		if c != nil {
			return value.Value{}, c
		}
		has, c := it.hasProperty(right.Obj, helpers.UTF16ToString(key))
		if c != nil {
			return value.Value{}, c
		}
		return value.Bool(has), nil

	case js_ast.BinOpInstanceof:
		left, c := it.evalExpr(d.Left, env)
		if c != nil {
			return value.Value{}, c
		}
		right, c := it.evalExpr(d.Right, env)
		if c != nil {
			return value.Value{}, c
		}
		return it.instanceOf(left, right)
	}

	left, c := it.evalExpr(d.Left, env)
	if c != nil {
		return value.Value{}, c
	}
	right, c := it.evalExpr(d.Right, env)
	if c != nil {
		return value.Value{}, c
	}
	return it.applyBinary(d.Op, left, right)
}

// hasProperty implements spec's HasProperty(O, P), including the Proxy
// exotic [[HasProperty]] invariant (9.5.7): a trap that reports "absent"
// for a non-configurable own target property, or for any own property of a
// non-extensible target, is lying and must cause a TypeError rather than
// silently hide the property.
func (it *Interpreter) hasProperty(obj *value.Object, key string) (bool, *value.Completion) {
	if obj.Exotic == value.ExoticProxy {
		target := obj.ProxyTarget
		if trap, ok := it.proxyTrap(obj, "has"); ok {
			r, c := trap.Call(value.FromObject(obj.ProxyHandler), []value.Value{value.FromObject(target), value.StringFromGo(key)})
			if c != nil {
				return false, c
			}
			result := value.ToBoolean(r)
			if !result {
				if targetDesc, ok := target.GetOwnProperty(key); ok {
					if !targetDesc.Configurable {
						return false, it.Realm.ThrowTypeError("'has' on proxy: trap returned falsish for property '" + key + "' which exists in the non-configurable target")
					}
					if !target.Extensible {
						return false, it.Realm.ThrowTypeError("'has' on proxy: trap returned falsish for property '" + key + "' but the proxy target is not extensible")
					}
				}
			}
			return result, nil
		}
		obj = target
	}
	for o := obj; o != nil; o = o.Proto {
		if _, ok := o.GetOwnProperty(key); ok {
			return true, nil
		}
	}
	return false, nil
}

// proxyTrap looks up handler[trapName] on a Proxy object, spec's
// GetMethod(handler, trapName): present+callable means "use the trap",
// absent/undefined means "forward to target" (spec's default behavior).
func (it *Interpreter) proxyTrap(obj *value.Object, trapName string) (*value.Object, bool) {
	if obj.ProxyHandler == nil {
		return nil, false
	}
	v, _ := it.getProperty(value.FromObject(obj.ProxyHandler), trapName)
	if v.IsCallable() {
		return v.Obj, true
	}
	return nil, false
}

// proxyGet implements spec's [[Get]] for Proxy exotic objects: the "get"
// trap if the handler defines one, else forwarded straight to the target
// (spec's "no trap" fallback), matching the Reflect functions in
// internal/builtins/reflect.go which
// implement the same fallback for explicit Reflect.get calls. The trap
// result is checked against the Proxy invariant (9.5.8): it must agree with
// a non-configurable, non-writable own target property's value, and must be
// undefined for a non-configurable accessor property with no getter.
func (it *Interpreter) proxyGet(obj *value.Object, key string, receiver value.Value) (value.Value, *value.Completion) {
	target := obj.ProxyTarget
	if trap, ok := it.proxyTrap(obj, "get"); ok {
		result, c := trap.Call(value.FromObject(obj.ProxyHandler), []value.Value{value.FromObject(target), value.StringFromGo(key), receiver})
		if c != nil {
			return value.Value{}, c
		}
		if targetDesc, ok := target.GetOwnProperty(key); ok && !targetDesc.Configurable {
			if !targetDesc.HasGetOrSet && !targetDesc.Writable && !value.SameValue(result, targetDesc.Value) {
				return value.Value{}, it.Realm.ThrowTypeError("'get' on proxy: property '" + key + "' is a non-configurable, non-writable own property with a different value")
			}
			if targetDesc.HasGetOrSet && targetDesc.Get == nil && !result.IsUndefined() {
				return value.Value{}, it.Realm.ThrowTypeError("'get' on proxy: property '" + key + "' is a non-configurable property with an undefined getter but the trap did not return undefined")
			}
		}
		return result, nil
	}
	return it.getProperty(value.FromObject(target), key)
}

// proxySet implements spec's [[Set]] for Proxy exotic objects, with the
// matching 9.5.9 invariant check on a trap that reports success.
func (it *Interpreter) proxySet(obj *value.Object, key string, v value.Value, receiver value.Value) *value.Completion {
	target := obj.ProxyTarget
	if trap, ok := it.proxyTrap(obj, "set"); ok {
		result, c := trap.Call(value.FromObject(obj.ProxyHandler), []value.Value{value.FromObject(target), value.StringFromGo(key), v, receiver})
		if c != nil {
			return c
		}
		if !value.ToBoolean(result) {
			return nil
		}
		if targetDesc, ok := target.GetOwnProperty(key); ok && !targetDesc.Configurable {
			if !targetDesc.HasGetOrSet && !targetDesc.Writable && !value.SameValue(v, targetDesc.Value) {
				return it.Realm.ThrowTypeError("'set' on proxy: property '" + key + "' is a non-configurable, non-writable own property with a different value")
			}
			if targetDesc.HasGetOrSet && targetDesc.Set == nil {
				return it.Realm.ThrowTypeError("'set' on proxy: property '" + key + "' is a non-configurable property with an undefined setter")
			}
		}
		return nil
	}
	return it.setProperty(value.FromObject(target), key, v)
}

func (it *Interpreter) instanceOf(left, right value.Value) (value.Value, *value.Completion) {
	if !right.IsCallable() {
		return value.Value{}, it.Realm.ThrowTypeError("Right-hand side of 'instanceof' is not callable")
	}
	if !left.IsObject() {
		return value.Bool(false), nil
	}
	protoVal, c := it.getProperty(right, "prototype")
	if c != nil {
		return value.Value{}, c
	}
	if !protoVal.IsObject() {
		return value.Value{}, it.Realm.ThrowTypeError("Function has non-object prototype")
	}
	for o := left.Obj.Proto; o != nil; o = o.Proto {
		if o == protoVal.Obj {
			return value.Bool(true), nil
		}
	}
	return value.Bool(false), nil
}

func (it *Interpreter) applyBinary(op js_ast.OpCode, left, right value.Value) (value.Value, *value.Completion) {
	switch op {
	case js_ast.BinOpAdd:
		lp, c := it.toPrimitive(left, "")
		if c != nil {
			return value.Value{}, c
		}
		rp, c := it.toPrimitive(right, "")
		if c != nil {
			return value.Value{}, c
		}
		if lp.Kind == value.KindString || rp.Kind == value.KindString {
			ls, c := it.toStringValue(lp)
			if c != nil {
				return value.Value{}, c
			}
			rs, c := it.toStringValue(rp)
			if c != nil {
				return value.Value{}, c
			}
			return value.StringFromUTF16(append(append([]uint16{}, ls...), rs...)), nil
		}
		if lp.Kind == value.KindBigInt || rp.Kind == value.KindBigInt {
			lb, rb, c := it.bigIntOperands(lp, rp)
			if c != nil {
				return value.Value{}, c
			}
			return bigIntResult(new(big.Int).Add(lb, rb)), nil
		}
		ln, c := it.toNumberValue(lp)
		if c != nil {
			return value.Value{}, c
		}
		rn, c := it.toNumberValue(rp)
		if c != nil {
			return value.Value{}, c
		}
		return value.Number(ln + rn), nil

	case js_ast.BinOpSub, js_ast.BinOpMul, js_ast.BinOpDiv, js_ast.BinOpMod, js_ast.BinOpPow:
		if left.Kind == value.KindBigInt || right.Kind == value.KindBigInt {
			lb, rb, c := it.bigIntOperands(left, right)
			if c != nil {
				return value.Value{}, c
			}
			switch op {
			case js_ast.BinOpSub:
				return bigIntResult(new(big.Int).Sub(lb, rb)), nil
			case js_ast.BinOpMul:
				return bigIntResult(new(big.Int).Mul(lb, rb)), nil
			case js_ast.BinOpDiv:
				if rb.Sign() == 0 {
					return value.Value{}, it.Realm.ThrowRangeError("Division by zero")
				}
				return bigIntResult(new(big.Int).Quo(lb, rb)), nil
			case js_ast.BinOpMod:
				if rb.Sign() == 0 {
					return value.Value{}, it.Realm.ThrowRangeError("Division by zero")
				}
				return bigIntResult(new(big.Int).Rem(lb, rb)), nil
			case js_ast.BinOpPow:
				if rb.Sign() < 0 {
					return value.Value{}, it.Realm.ThrowRangeError("Exponent must be non-negative")
				}
				return bigIntResult(new(big.Int).Exp(lb, rb, nil)), nil
			}
		}
		ln, c := it.toNumberValue(left)
		if c != nil {
			return value.Value{}, c
		}
		rn, c := it.toNumberValue(right)
		if c != nil {
			return value.Value{}, c
		}
		switch op {
		case js_ast.BinOpSub:
			return value.Number(ln - rn), nil
		case js_ast.BinOpMul:
			return value.Number(ln * rn), nil
		case js_ast.BinOpDiv:
			return value.Number(ln / rn), nil
		case js_ast.BinOpMod:
			return value.Number(math.Mod(ln, rn)), nil
		case js_ast.BinOpPow:
			return value.Number(math.Pow(ln, rn)), nil
		}

	case js_ast.BinOpShl, js_ast.BinOpShr, js_ast.BinOpUShr, js_ast.BinOpBitwiseAnd, js_ast.BinOpBitwiseOr, js_ast.BinOpBitwiseXor:
		if left.Kind == value.KindBigInt || right.Kind == value.KindBigInt {
			if op == js_ast.BinOpUShr {
				return value.Value{}, it.Realm.ThrowTypeError("BigInts have no unsigned right shift, use >> instead")
			}
			lb, rb, c := it.bigIntOperands(left, right)
			if c != nil {
				return value.Value{}, c
			}
			switch op {
			case js_ast.BinOpShl:
				return bigIntShift(lb, rb, true), nil
			case js_ast.BinOpShr:
				return bigIntShift(lb, rb, false), nil
			case js_ast.BinOpBitwiseAnd:
				return bigIntResult(new(big.Int).And(lb, rb)), nil
			case js_ast.BinOpBitwiseOr:
				return bigIntResult(new(big.Int).Or(lb, rb)), nil
			case js_ast.BinOpBitwiseXor:
				return bigIntResult(new(big.Int).Xor(lb, rb)), nil
			}
		}
		ln, c := it.toNumberValue(left)
		if c != nil {
			return value.Value{}, c
		}
		rn, c := it.toNumberValue(right)
		if c != nil {
			return value.Value{}, c
		}
		l32, r32 := toInt32(ln), toUint32(rn)%32
		switch op {
		case js_ast.BinOpShl:
			return value.Number(float64(l32 << r32)), nil
		case js_ast.BinOpShr:
			return value.Number(float64(l32 >> r32)), nil
		case js_ast.BinOpUShr:
			return value.Number(float64(toUint32(ln) >> r32)), nil
		case js_ast.BinOpBitwiseAnd:
			return value.Number(float64(toInt32(ln) & toInt32(rn))), nil
		case js_ast.BinOpBitwiseOr:
			return value.Number(float64(toInt32(ln) | toInt32(rn))), nil
		case js_ast.BinOpBitwiseXor:
			return value.Number(float64(toInt32(ln) ^ toInt32(rn))), nil
		}

	case js_ast.BinOpLt, js_ast.BinOpLe, js_ast.BinOpGt, js_ast.BinOpGe:
		return it.compareRelational(op, left, right)

	case js_ast.BinOpStrictEq:
		return value.Bool(value.IsStrictlyEqual(left, right)), nil
	case js_ast.BinOpStrictNe:
		return value.Bool(!value.IsStrictlyEqual(left, right)), nil
	case js_ast.BinOpLooseEq:
		eq, c := it.looseEquals(left, right)
		if c != nil {
			return value.Value{}, c
		}
		return value.Bool(eq), nil
	case js_ast.BinOpLooseNe:
		eq, c := it.looseEquals(left, right)
		if c != nil {
			return value.Value{}, c
		}
		return value.Bool(!eq), nil
	}
	return value.Undefined(), nil
}

// bigIntOperands implements spec's numeric-binary-operator BigInt coercion:
// both operands must already be BigInts (arithmetic never silently mixes a
// Number in, unlike Add's string-concatenation path) -- a Number operand is a
// TypeError, matching native BigInt semantics.
func (it *Interpreter) bigIntOperands(left, right value.Value) (*big.Int, *big.Int, *value.Completion) {
	if left.Kind != value.KindBigInt || right.Kind != value.KindBigInt {
		return nil, nil, it.Realm.ThrowTypeError("Cannot mix BigInt and other types, use explicit conversions")
	}
	lb, ok := new(big.Int).SetString(left.BigInt.Digits, 10)
	if !ok {
		lb = big.NewInt(0)
	}
	rb, ok := new(big.Int).SetString(right.BigInt.Digits, 10)
	if !ok {
		rb = big.NewInt(0)
	}
	return lb, rb, nil
}

func bigIntResult(n *big.Int) value.Value {
	return value.FromBigInt(&value.BigInt{Digits: n.String()})
}

func bigIntShift(l, r *big.Int, left bool) value.Value {
	shift := r
	if !left {
		shift = new(big.Int).Neg(r)
	}
	if shift.Sign() >= 0 {
		return bigIntResult(new(big.Int).Lsh(l, uint(shift.Uint64())))
	}
	return bigIntResult(new(big.Int).Rsh(l, uint(new(big.Int).Neg(shift).Uint64())))
}

func (it *Interpreter) compareRelational(op js_ast.OpCode, left, right value.Value) (value.Value, *value.Completion) {
	lp, c := it.toPrimitive(left, "number")
	if c != nil {
		return value.Value{}, c
	}
	rp, c := it.toPrimitive(right, "number")
	if c != nil {
		return value.Value{}, c
	}
	if lp.Kind == value.KindString && rp.Kind == value.KindString {
		ls, rs := helpers.UTF16ToString(lp.Str), helpers.UTF16ToString(rp.Str)
		switch op {
		case js_ast.BinOpLt:
			return value.Bool(ls < rs), nil
		case js_ast.BinOpLe:
			return value.Bool(ls <= rs), nil
		case js_ast.BinOpGt:
			return value.Bool(ls > rs), nil
		default:
			return value.Bool(ls >= rs), nil
		}
	}
	ln, c := it.toNumberValue(lp)
	if c != nil {
		return value.Value{}, c
	}
	rn, c := it.toNumberValue(rp)
	if c != nil {
		return value.Value{}, c
	}
	if math.IsNaN(ln) || math.IsNaN(rn) {
		return value.Bool(false), nil
	}
	switch op {
	case js_ast.BinOpLt:
		return value.Bool(ln < rn), nil
	case js_ast.BinOpLe:
		return value.Bool(ln <= rn), nil
	case js_ast.BinOpGt:
		return value.Bool(ln > rn), nil
	default:
		return value.Bool(ln >= rn), nil
	}
}

func (it *Interpreter) looseEquals(left, right value.Value) (bool, *value.Completion) {
	if left.Kind == right.Kind {
		return value.IsStrictlyEqual(left, right), nil
	}
	if left.IsNullish() && right.IsNullish() {
		return true, nil
	}
	if left.IsNullish() || right.IsNullish() {
		return false, nil
	}
	if left.Kind == value.KindNumber && right.Kind == value.KindString {
		rn, c := it.toNumberValue(right)
		if c != nil {
			return false, c
		}
		return left.Num == rn, nil
	}
	if left.Kind == value.KindString && right.Kind == value.KindNumber {
		ln, c := it.toNumberValue(left)
		if c != nil {
			return false, c
		}
		return ln == right.Num, nil
	}
	if left.Kind == value.KindBoolean {
		ln, _ := value.ToNumber(left)
		return it.looseEquals(value.Number(ln), right)
	}
	if right.Kind == value.KindBoolean {
		rn, _ := value.ToNumber(right)
		return it.looseEquals(left, value.Number(rn))
	}
	if (left.Kind == value.KindNumber || left.Kind == value.KindString || left.Kind == value.KindSymbol || left.Kind == value.KindBigInt) && right.Kind == value.KindObject {
		rp, c := it.toPrimitive(right, "")
		if c != nil {
			return false, c
		}
		return it.looseEquals(left, rp)
	}
	if left.Kind == value.KindObject && (right.Kind == value.KindNumber || right.Kind == value.KindString || right.Kind == value.KindSymbol || right.Kind == value.KindBigInt) {
		lp, c := it.toPrimitive(left, "")
		if c != nil {
			return false, c
		}
		return it.looseEquals(lp, right)
	}
	return false, nil
}

// evalAssign handles "=" and compound assignment operators, including
// destructuring targets for plain "=".
func (it *Interpreter) evalAssign(d *js_ast.EBinary, env *runtime.Environment) (value.Value, *value.Completion) {
	if d.Op == js_ast.BinOpAssign {
		if pattern, ok := destructuringBindingOf(d.Left); ok {
			v, c := it.evalExpr(d.Right, env)
			if c != nil {
				return value.Value{}, c
			}
			if c := it.assignPattern(pattern, v, env); c != nil {
				return value.Value{}, c
			}
			return v, nil
		}
		v, c := it.evalExpr(d.Right, env)
		if c != nil {
			return value.Value{}, c
		}
		if c := it.assignTo(d.Left, v, env); c != nil {
			return value.Value{}, c
		}
		return v, nil
	}

	// Logical assignment operators short-circuit and must not evaluate /
	// re-read the left side twice.
	if d.Op == js_ast.BinOpLogicalAndAssign || d.Op == js_ast.BinOpLogicalOrAssign || d.Op == js_ast.BinOpNullishCoalescingAssign {
		left, c := it.evalExpr(d.Left, env)
		if c != nil {
			return value.Value{}, c
		}
		switch d.Op {
		case js_ast.BinOpLogicalAndAssign:
			if !value.ToBoolean(left) {
				return left, nil
			}
		case js_ast.BinOpLogicalOrAssign:
			if value.ToBoolean(left) {
				return left, nil
			}
		case js_ast.BinOpNullishCoalescingAssign:
			if !left.IsNullish() {
				return left, nil
			}
		}
		right, c := it.evalExpr(d.Right, env)
		if c != nil {
			return value.Value{}, c
		}
		if c := it.assignTo(d.Left, right, env); c != nil {
			return value.Value{}, c
		}
		return right, nil
	}

	left, c := it.evalExpr(d.Left, env)
	if c != nil {
		return value.Value{}, c
	}
	right, c := it.evalExpr(d.Right, env)
	if c != nil {
		return value.Value{}, c
	}
	result, c := it.applyBinary(compoundToBinaryOp(d.Op), left, right)
	if c != nil {
		return value.Value{}, c
	}
	if c := it.assignTo(d.Left, result, env); c != nil {
		return value.Value{}, c
	}
	return result, nil
}

func compoundToBinaryOp(op js_ast.OpCode) js_ast.OpCode {
	switch op {
	case js_ast.BinOpAddAssign:
		return js_ast.BinOpAdd
	case js_ast.BinOpSubAssign:
		return js_ast.BinOpSub
	case js_ast.BinOpMulAssign:
		return js_ast.BinOpMul
	case js_ast.BinOpDivAssign:
		return js_ast.BinOpDiv
	case js_ast.BinOpModAssign:
		return js_ast.BinOpMod
	case js_ast.BinOpPowAssign:
		return js_ast.BinOpPow
	case js_ast.BinOpShlAssign:
		return js_ast.BinOpShl
	case js_ast.BinOpShrAssign:
		return js_ast.BinOpShr
	case js_ast.BinOpUShrAssign:
		return js_ast.BinOpUShr
	case js_ast.BinOpBitwiseAndAssign:
		return js_ast.BinOpBitwiseAnd
	case js_ast.BinOpBitwiseOrAssign:
		return js_ast.BinOpBitwiseOr
	case js_ast.BinOpBitwiseXorAssign:
		return js_ast.BinOpBitwiseXor
	}
	return js_ast.BinOpAdd
}
