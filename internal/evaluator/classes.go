package evaluator

import (
	"github.com/jsrun/jsengine/internal/helpers"
	"github.com/jsrun/jsengine/internal/js_ast"
	"github.com/jsrun/jsengine/internal/runtime"
	"github.com/jsrun/jsengine/internal/value"
)

// fieldSpec is a resolved instance field: the key is computed once, at
// class-definition time, the way spec's ClassFieldDefinitionEvaluation
// requires — not re-evaluated for every instance.
type fieldSpec struct {
	key       string
	isPrivate bool
	valueExpr js_ast.Expr
}

// privateMethodEntry is a shared (built once) private method or accessor
// function, copied by reference into every instance's PrivateFields map.
type privateMethodEntry struct {
	name string
	fn   value.Value
}

// evalClass builds a class's constructor object and prototype. A derived
// class's constructor threads super() through InitInstance (see
// evalSuperCall) rather than re-allocating an instance per hierarchy level,
// so identity of `this` is preserved across the whole chain.
func (it *Interpreter) evalClass(class js_ast.Class, env *runtime.Environment) (value.Value, *value.Completion) {
	name := ""
	if class.Name != nil {
		name = *class.Name
	}

	var parentProto *value.Object
	var parentCtorObj *value.Object
	isDerived := class.ExtendsOrNil.Data != nil
	if isDerived {
		parentVal, c := it.evalExpr(class.ExtendsOrNil, env)
		if c != nil {
			return value.Value{}, c
		}
		switch {
		case parentVal.Kind == value.KindNull:
			parentProto = nil
			parentCtorObj = nil
		case parentVal.IsObject() && (parentVal.Obj.Construct != nil || parentVal.Obj.InitInstance != nil):
			parentCtorObj = parentVal.Obj
			protoVal, c := it.getProperty(parentVal, "prototype")
			if c != nil {
				return value.Value{}, c
			}
			if protoVal.IsObject() {
				parentProto = protoVal.Obj
			}
		default:
			return value.Value{}, it.Realm.ThrowTypeError("Class extends value is not a constructor")
		}
	} else {
		parentProto = it.Realm.Intrinsic("Object.prototype")
	}

	protoObj := value.NewObject(parentProto)

	ctorProto := it.Realm.Intrinsic("Function.prototype")
	if isDerived && parentCtorObj != nil {
		ctorProto = parentCtorObj
	}
	ctorObj := value.NewObject(ctorProto)
	ctorObj.SetClass("Function")
	ctorObj.Exotic = value.ExoticFunction
	ctorObj.DefineOwnProperty("name", value.DataProperty(value.StringFromGo(name), false, false, true))
	ctorObj.DefineOwnProperty("prototype", value.DataProperty(value.FromObject(protoObj), false, false, false))
	protoObj.DefineOwnProperty("constructor", value.DataProperty(value.FromObject(ctorObj), true, false, true))

	classEnv := runtime.NewDeclarativeEnvironment(env)
	if class.Name != nil {
		classEnv.CreateImmutableBinding(*class.Name)
		classEnv.InitializeBinding(*class.Name, value.FromObject(ctorObj))
	}

	var ctorFn *js_ast.Fn
	var fields []fieldSpec
	var privateMethods []privateMethodEntry
	var staticMembers []js_ast.ClassMember

	for _, m := range class.Members {
		if m.IsStatic {
			staticMembers = append(staticMembers, m)
			continue
		}
		switch m.Kind {
		case js_ast.ClassMemberMethod:
			if !m.IsPrivate && !m.KeyIsComputed && isNamedKey(m.Key, "constructor") {
				fnCopy := m.Fn
				ctorFn = &fnCopy
				continue
			}
			key, c := it.propertyKeyOf(m.Key, m.KeyIsComputed, classEnv)
			if c != nil {
				return value.Value{}, c
			}
			fnObj := it.makeFunction(m.Fn, classEnv, key)
			fnObj.HomeObject = protoObj
			if m.IsPrivate {
				privateMethods = append(privateMethods, privateMethodEntry{name: key, fn: value.FromObject(fnObj)})
			} else {
				protoObj.DefineOwnProperty(key, value.DataProperty(value.FromObject(fnObj), true, false, true))
			}
		case js_ast.ClassMemberGetter, js_ast.ClassMemberSetter:
			key, c := it.propertyKeyOf(m.Key, m.KeyIsComputed, classEnv)
			if c != nil {
				return value.Value{}, c
			}
			fnObj := it.makeFunction(m.Fn, classEnv, key)
			fnObj.HomeObject = protoObj
			if m.IsPrivate {
				// Private accessors share the plain private-name lookup path
				// (members.go) with private fields/methods: no automatic
				// getter/setter invocation on `this.#x`, only on `this.#x()`.
				privateMethods = append(privateMethods, privateMethodEntry{name: key, fn: value.FromObject(fnObj)})
			} else {
				it.installClassAccessor(protoObj, key, m.Kind == js_ast.ClassMemberGetter, fnObj)
			}
		case js_ast.ClassMemberField:
			key, c := it.propertyKeyOf(m.Key, m.KeyIsComputed, classEnv)
			if c != nil {
				return value.Value{}, c
			}
			fields = append(fields, fieldSpec{key: key, isPrivate: m.IsPrivate, valueExpr: m.ValueOrNil})
		}
	}

	ctorObj.Call = func(value.Value, []value.Value) (value.Value, *value.Completion) {
		return value.Value{}, it.Realm.ThrowTypeError("Class constructor " + name + " cannot be invoked without 'new'")
	}

	ctorObj.InitInstance = func(this *value.Object, args []value.Value) *value.Completion {
		if ctorFn == nil {
			if isDerived && parentCtorObj != nil {
				if parentCtorObj.InitInstance != nil {
					if c := parentCtorObj.InitInstance(this, args); c != nil {
						return c
					}
				} else if parentCtorObj.Call != nil {
					if _, c := parentCtorObj.Call(value.FromObject(this), args); c != nil {
						return c
					}
				}
			}
			return it.initInstanceFields(this, fields, privateMethods, protoObj, classEnv)
		}
		funcEnv := runtime.NewFunctionEnvironment(classEnv, ctorObj)
		funcEnv.HasThis = true
		funcEnv.ThisValue = value.FromObject(this)
		funcEnv.HomeObject = protoObj
		if isDerived {
			funcEnv.SuperConstructor = parentCtorObj
			funcEnv.AfterSuperInit = func() *value.Completion {
				return it.initInstanceFields(this, fields, privateMethods, protoObj, classEnv)
			}
		} else if c := it.initInstanceFields(this, fields, privateMethods, protoObj, classEnv); c != nil {
			return c
		}
		if c := it.bindParams(ctorFn.Args, ctorFn.Defaults, ctorFn.HasRestArg, funcEnv, args); c != nil {
			return c
		}
		it.bindArgumentsObject(*ctorFn, funcEnv, args)
		_, c := it.runFunctionBody(*ctorFn, funcEnv)
		return c
	}

	ctorObj.Construct = func(args []value.Value, newTarget *value.Object) (value.Value, *value.Completion) {
		protoVal, c := it.getProperty(value.FromObject(newTarget), "prototype")
		if c != nil {
			return value.Value{}, c
		}
		proto := protoVal.Obj
		if !protoVal.IsObject() {
			proto = it.Realm.Intrinsic("Object.prototype")
		}
		instance := value.NewObject(proto)
		if c := ctorObj.InitInstance(instance, args); c != nil {
			return value.Value{}, c
		}
		return value.FromObject(instance), nil
	}

	// Static members are installed after the constructor/prototype pair
	// fully exists, so `this` and `super` inside them resolve correctly.
	staticEnv := runtime.NewFunctionEnvironment(classEnv, ctorObj)
	staticEnv.HasThis = true
	staticEnv.ThisValue = value.FromObject(ctorObj)
	staticEnv.HomeObject = ctorObj
	for _, m := range staticMembers {
		if c := it.installStaticMember(m, ctorObj, classEnv, staticEnv); c != nil {
			return value.Value{}, c
		}
	}

	return value.FromObject(ctorObj), nil
}

func (it *Interpreter) installStaticMember(m js_ast.ClassMember, ctorObj *value.Object, classEnv, staticEnv *runtime.Environment) *value.Completion {
	switch m.Kind {
	case js_ast.ClassMemberStaticBlock:
		it.hoistVarsAndFunctions(m.StaticBlock, staticEnv, true)
		it.hoistLexical(m.StaticBlock, staticEnv)
		for _, s := range m.StaticBlock {
			if c := it.execStmt(s, staticEnv); c != nil && c.Kind == value.CompletionThrow {
				return c
			}
		}
	case js_ast.ClassMemberMethod:
		key, c := it.propertyKeyOf(m.Key, m.KeyIsComputed, classEnv)
		if c != nil {
			return c
		}
		fnObj := it.makeFunction(m.Fn, classEnv, key)
		fnObj.HomeObject = ctorObj
		if m.IsPrivate {
			setPrivate(ctorObj, key, value.FromObject(fnObj))
		} else {
			ctorObj.DefineOwnProperty(key, value.DataProperty(value.FromObject(fnObj), true, false, true))
		}
	case js_ast.ClassMemberGetter, js_ast.ClassMemberSetter:
		key, c := it.propertyKeyOf(m.Key, m.KeyIsComputed, classEnv)
		if c != nil {
			return c
		}
		fnObj := it.makeFunction(m.Fn, classEnv, key)
		fnObj.HomeObject = ctorObj
		if m.IsPrivate {
			setPrivate(ctorObj, key, value.FromObject(fnObj))
		} else {
			it.installClassAccessor(ctorObj, key, m.Kind == js_ast.ClassMemberGetter, fnObj)
		}
	case js_ast.ClassMemberField:
		key, c := it.propertyKeyOf(m.Key, m.KeyIsComputed, classEnv)
		if c != nil {
			return c
		}
		v := value.Undefined()
		if m.ValueOrNil.Data != nil {
			v, c = it.evalExpr(m.ValueOrNil, staticEnv)
			if c != nil {
				return c
			}
		}
		if m.IsPrivate {
			setPrivate(ctorObj, key, v)
		} else {
			ctorObj.DefineOwnProperty(key, value.DataProperty(v, true, true, true))
		}
	}
	return nil
}

func (it *Interpreter) initInstanceFields(this *value.Object, fields []fieldSpec, privateMethods []privateMethodEntry, protoObj *value.Object, classEnv *runtime.Environment) *value.Completion {
	for _, pm := range privateMethods {
		setPrivate(this, pm.name, pm.fn)
	}
	for _, f := range fields {
		fieldEnv := runtime.NewFunctionEnvironment(classEnv, nil)
		fieldEnv.HasThis = true
		fieldEnv.ThisValue = value.FromObject(this)
		fieldEnv.HomeObject = protoObj
		v := value.Undefined()
		if f.valueExpr.Data != nil {
			var c *value.Completion
			v, c = it.evalExpr(f.valueExpr, fieldEnv)
			if c != nil {
				return c
			}
		}
		if f.isPrivate {
			setPrivate(this, f.key, v)
		} else {
			this.DefineOwnProperty(f.key, value.DataProperty(v, true, true, true))
		}
	}
	return nil
}

func (it *Interpreter) installClassAccessor(target *value.Object, key string, isGetter bool, fn *value.Object) {
	existing, _ := target.GetOwnProperty(key)
	if isGetter {
		existing.Get = fn
	} else {
		existing.Set = fn
	}
	existing.HasGetOrSet = true
	existing.Enumerable = false
	existing.Configurable = true
	target.DefineOwnProperty(key, existing)
}

func setPrivate(o *value.Object, key string, v value.Value) {
	if o.PrivateFields == nil {
		o.PrivateFields = make(map[string]value.Value)
	}
	o.PrivateFields[key] = v
}

func isNamedKey(key js_ast.Expr, name string) bool {
	s, ok := key.Data.(*js_ast.EString)
	return ok && helpers.UTF16ToString(s.Value) == name
}
