package evaluator

import (
	"github.com/jsrun/jsengine/internal/js_ast"
	"github.com/jsrun/jsengine/internal/runtime"
	"github.com/jsrun/jsengine/internal/value"
)

// execStmt evaluates one statement, returning a non-nil *value.Completion
// only for an abrupt completion (throw/return/break/continue); normal
// completion is nil, matching how the rest of the engine treats "nothing
// unusual happened" as Go's zero value for errors.
func (it *Interpreter) execStmt(s js_ast.Stmt, env *runtime.Environment) *value.Completion {
	switch d := s.Data.(type) {
	case *js_ast.SEmpty, *js_ast.SDebugger:
		return nil

	case *js_ast.SExpr:
		_, c := it.evalExpr(d.Value, env)
		return c

	case *js_ast.SLocal:
		for _, decl := range d.Decls {
			var v value.Value
			if decl.ValueOrNil.Data != nil {
				var c *value.Completion
				v, c = it.evalExpr(decl.ValueOrNil, env)
				if c != nil {
					return c
				}
			} else {
				v = value.Undefined()
			}
			if c := it.bindPattern(decl.Binding, v, env, d.Kind != js_ast.LocalVar); c != nil {
				return c
			}
		}
		return nil

	case *js_ast.SBlock:
		blockEnv := runtime.NewDeclarativeEnvironment(env)
		it.hoistLexical(d.Stmts, blockEnv)
		it.hoistVarsAndFunctionsInBlock(d.Stmts, blockEnv)
		for _, inner := range d.Stmts {
			if c := it.execStmt(inner, blockEnv); c != nil {
				return c
			}
		}
		return nil

	case *js_ast.SIf:
		test, c := it.evalExpr(d.Test, env)
		if c != nil {
			return c
		}
		if value.ToBoolean(test) {
			return it.execStmt(d.Yes, env)
		}
		if d.NoOrNil.Data != nil {
			return it.execStmt(d.NoOrNil, env)
		}
		return nil

	case *js_ast.SWhile:
		for {
			test, c := it.evalExpr(d.Test, env)
			if c != nil {
				return c
			}
			if !value.ToBoolean(test) {
				return nil
			}
			if c := it.execStmt(d.Body, env); c != nil {
				if brk, ok := loopControl(c); ok {
					if brk {
						return nil
					}
					continue
				}
				return c
			}
		}

	case *js_ast.SDoWhile:
		for {
			if c := it.execStmt(d.Body, env); c != nil {
				if brk, ok := loopControl(c); ok {
					if brk {
						return nil
					}
				} else {
					return c
				}
			}
			test, c := it.evalExpr(d.Test, env)
			if c != nil {
				return c
			}
			if !value.ToBoolean(test) {
				return nil
			}
		}

	case *js_ast.SFor:
		return it.execFor(d, env)

	case *js_ast.SForInOf:
		return it.execForInOf(d, env)

	case *js_ast.SReturn:
		if d.ValueOrNil.Data == nil {
			return value.Return(value.Undefined())
		}
		v, c := it.evalExpr(d.ValueOrNil, env)
		if c != nil {
			return c
		}
		return value.Return(v)

	case *js_ast.SBreak:
		label := ""
		if d.Label != nil {
			label = *d.Label
		}
		return value.Break(label)

	case *js_ast.SContinue:
		label := ""
		if d.Label != nil {
			label = *d.Label
		}
		return value.Continue(label)

	case *js_ast.SThrow:
		v, c := it.evalExpr(d.Value, env)
		if c != nil {
			return c
		}
		return value.Throw(v)

	case *js_ast.STry:
		return it.execTry(d, env)

	case *js_ast.SSwitch:
		return it.execSwitch(d, env)

	case *js_ast.SLabel:
		c := it.execStmt(d.Stmt, env)
		if c != nil && (c.Kind == value.CompletionBreak || c.Kind == value.CompletionContinue) && c.Label == d.Name {
			return nil
		}
		return c

	case *js_ast.SFunction:
		// Hoisting already bound this at block/global entry; nothing to do
		// at the statement's textual position.
		return nil

	case *js_ast.SClass:
		classVal, c := it.evalClass(d.Class, env)
		if c != nil {
			return c
		}
		if d.Class.Name != nil {
			env.InitializeBinding(*d.Class.Name, classVal)
		}
		return nil

	case *js_ast.SExportDefault:
		return it.execStmt(d.Value, env)
	case *js_ast.SExportClause, *js_ast.SExportFrom, *js_ast.SExportStar, *js_ast.SImport:
		// Resolved by internal/module during linking; no runtime effect here.
		return nil
	}
	return nil
}

// loopControl interprets a completion inside a loop body: (true, true) means
// "break this loop", (false, true) means "continue this loop", and
// (_, false) means "propagate, not ours to handle" (a labeled break/continue
// targeting an outer loop, or a return/throw).
func loopControl(c *value.Completion) (isBreak bool, handled bool) {
	if c.Label != "" {
		return false, false
	}
	switch c.Kind {
	case value.CompletionBreak:
		return true, true
	case value.CompletionContinue:
		return false, true
	}
	return false, false
}

func (it *Interpreter) hoistVarsAndFunctionsInBlock(stmts []js_ast.Stmt, env *runtime.Environment) {
	for _, s := range stmts {
		if fn, ok := s.Data.(*js_ast.SFunction); ok {
			fnVal := it.makeFunction(fn.Fn, env, "")
			name := ""
			if fn.Fn.Name != nil {
				name = *fn.Fn.Name
			}
			env.CreateMutableBinding(name, false)
			env.InitializeBinding(name, value.FromObject(fnVal))
		}
	}
}

func (it *Interpreter) execFor(d *js_ast.SFor, env *runtime.Environment) *value.Completion {
	forEnv := runtime.NewDeclarativeEnvironment(env)
	if d.InitOrNil.Data != nil {
		if local, ok := d.InitOrNil.Data.(*js_ast.SLocal); ok && local.Kind != js_ast.LocalVar {
			it.hoistLexical([]js_ast.Stmt{d.InitOrNil}, forEnv)
		}
		if c := it.execStmt(d.InitOrNil, forEnv); c != nil {
			return c
		}
	}
	for {
		if d.TestOrNil.Data != nil {
			test, c := it.evalExpr(d.TestOrNil, forEnv)
			if c != nil {
				return c
			}
			if !value.ToBoolean(test) {
				return nil
			}
		}
		if c := it.execStmt(d.Body, forEnv); c != nil {
			if brk, ok := loopControl(c); ok {
				if brk {
					return nil
				}
			} else {
				return c
			}
		}
		if d.UpdateOrNil.Data != nil {
			if _, c := it.evalExpr(d.UpdateOrNil, forEnv); c != nil {
				return c
			}
		}
	}
}

func (it *Interpreter) execForInOf(d *js_ast.SForInOf, env *runtime.Environment) *value.Completion {
	rhs, c := it.evalExpr(d.Value, env)
	if c != nil {
		return c
	}

	assign := func(v value.Value, iterEnv *runtime.Environment) *value.Completion {
		local, isLocal := d.Init.Data.(*js_ast.SLocal)
		if isLocal {
			if local.Kind != js_ast.LocalVar {
				it.hoistLexical([]js_ast.Stmt{d.Init}, iterEnv)
			}
			return it.bindPattern(local.Decls[0].Binding, v, iterEnv, local.Kind != js_ast.LocalVar)
		}
		exprStmt := d.Init.Data.(*js_ast.SExpr)
		return it.assignTo(exprStmt.Value, v, iterEnv)
	}

	if d.Kind == js_ast.ForIn {
		if !rhs.IsObject() {
			return nil
		}
		keys := enumerableStringKeys(rhs.Obj)
		for _, k := range keys {
			iterEnv := runtime.NewDeclarativeEnvironment(env)
			if c := assign(value.StringFromGo(k), iterEnv); c != nil {
				return c
			}
			if c := it.execStmt(d.Body, iterEnv); c != nil {
				if brk, ok := loopControl(c); ok {
					if brk {
						return nil
					}
					continue
				}
				return c
			}
		}
		return nil
	}

	items, c := it.iterableToSlice(rhs)
	if c != nil {
		return c
	}
	for _, item := range items {
		iterEnv := runtime.NewDeclarativeEnvironment(env)
		if c := assign(item, iterEnv); c != nil {
			return c
		}
		if c := it.execStmt(d.Body, iterEnv); c != nil {
			if brk, ok := loopControl(c); ok {
				if brk {
					return nil
				}
				continue
			}
			return c
		}
	}
	return nil
}

func enumerableStringKeys(obj *value.Object) []string {
	seen := map[string]bool{}
	var out []string
	for o := obj; o != nil; o = o.Proto {
		for _, k := range o.OwnPropertyKeys() {
			if k.IsSymbol || seen[k.Str] {
				continue
			}
			seen[k.Str] = true
			if desc, ok := o.GetOwnProperty(k.Str); ok && desc.Enumerable {
				out = append(out, k.Str)
			}
		}
	}
	return out
}

func (it *Interpreter) execTry(d *js_ast.STry, env *runtime.Environment) *value.Completion {
	runBody := func() *value.Completion {
		bodyEnv := runtime.NewDeclarativeEnvironment(env)
		it.hoistLexical(d.Body, bodyEnv)
		it.hoistVarsAndFunctionsInBlock(d.Body, bodyEnv)
		for _, s := range d.Body {
			if c := it.execStmt(s, bodyEnv); c != nil {
				return c
			}
		}
		return nil
	}

	result := runBody()

	if result != nil && result.Kind == value.CompletionThrow && d.CatchOrNil != nil {
		catchEnv := runtime.NewDeclarativeEnvironment(env)
		if d.CatchOrNil.BindingOrNil != nil {
			it.hoistLexical([]js_ast.Stmt{{Data: &js_ast.SLocal{Kind: js_ast.LocalLet, Decls: []js_ast.Decl{{Binding: *d.CatchOrNil.BindingOrNil}}}}}, catchEnv)
			if c := it.bindPattern(*d.CatchOrNil.BindingOrNil, result.Value, catchEnv, true); c != nil {
				result = c
			} else {
				result = nil
			}
		} else {
			result = nil
		}
		if result == nil {
			it.hoistVarsAndFunctionsInBlock(d.CatchOrNil.Body, catchEnv)
			for _, s := range d.CatchOrNil.Body {
				if c := it.execStmt(s, catchEnv); c != nil {
					result = c
					break
				}
			}
		}
	}

	if d.FinallyOrNil != nil {
		finallyEnv := runtime.NewDeclarativeEnvironment(env)
		it.hoistLexical(d.FinallyOrNil, finallyEnv)
		it.hoistVarsAndFunctionsInBlock(d.FinallyOrNil, finallyEnv)
		for _, s := range d.FinallyOrNil {
			if c := it.execStmt(s, finallyEnv); c != nil {
				// A completion from `finally` overrides whatever try/catch produced.
				return c
			}
		}
	}

	return result
}

func (it *Interpreter) execSwitch(d *js_ast.SSwitch, env *runtime.Environment) *value.Completion {
	test, c := it.evalExpr(d.Test, env)
	if c != nil {
		return c
	}

	switchEnv := runtime.NewDeclarativeEnvironment(env)
	for _, cs := range d.Cases {
		it.hoistLexical(cs.Body, switchEnv)
	}

	matched := -1
	for i, cs := range d.Cases {
		if cs.ValueOrNil.Data == nil {
			continue
		}
		v, c := it.evalExpr(cs.ValueOrNil, switchEnv)
		if c != nil {
			return c
		}
		if value.IsStrictlyEqual(test, v) {
			matched = i
			break
		}
	}
	if matched == -1 {
		for i, cs := range d.Cases {
			if cs.ValueOrNil.Data == nil {
				matched = i
				break
			}
		}
	}
	if matched == -1 {
		return nil
	}
	for i := matched; i < len(d.Cases); i++ {
		for _, s := range d.Cases[i].Body {
			if c := it.execStmt(s, switchEnv); c != nil {
				if c.Kind == value.CompletionBreak && c.Label == "" {
					return nil
				}
				return c
			}
		}
	}
	return nil
}
