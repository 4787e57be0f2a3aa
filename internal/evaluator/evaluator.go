// Package evaluator tree-walks internal/js_ast over internal/value and
// internal/runtime, producing completion records (spec §4.5). Control flow
// (break/continue/return/throw) propagates as *value.Completion the way
// esbuild's own passes propagate *logger.Msg — a single typed "abrupt
// signal" threaded back up the call stack instead of panicking.
package evaluator

import (
	"github.com/jsrun/jsengine/internal/eventloop"
	"github.com/jsrun/jsengine/internal/js_ast"
	"github.com/jsrun/jsengine/internal/runtime"
	"github.com/jsrun/jsengine/internal/value"
)

// Interpreter owns one Realm and one event loop; it is the unit of
// evaluation a module or script runs against.
type Interpreter struct {
	Realm *runtime.Realm
	Loop  *eventloop.Loop

	// ImportModule is wired in by the host (internal/module) to resolve,
	// link, and evaluate a specifier for a dynamic import() expression,
	// returning its module namespace object. Dynamic import rejects with a
	// TypeError if no loader has been wired in.
	ImportModule func(specifier string) (value.Value, error)
}

func NewInterpreter(realm *runtime.Realm, loop *eventloop.Loop) *Interpreter {
	return &Interpreter{Realm: realm, Loop: loop}
}

// EvalProgram runs a top-level statement list (a Script or a Module body
// after linking) against env, draining the microtask queue's synchronous
// portion is left to the caller (internal/eventloop.Loop.Run after this
// returns), matching spec's RunJobs structure.
func (it *Interpreter) EvalProgram(stmts []js_ast.Stmt, env *runtime.Environment) *value.Completion {
	it.Hoist(stmts, env)
	return it.RunStatements(stmts, env)
}

// Hoist runs the var/function/TDZ setup half of GlobalDeclarationInstantiation
// without executing any statement bodies. internal/module calls this
// directly (instead of EvalProgram) so a module's own bindings exist —
// available for cross-module indirect-binding aliasing — before that
// module's Evaluate phase runs its statements.
func (it *Interpreter) Hoist(stmts []js_ast.Stmt, env *runtime.Environment) {
	it.hoist(stmts, env)
}

// RunStatements executes an already-hoisted statement list in order,
// stopping at the first abrupt completion (module Evaluate phase).
func (it *Interpreter) RunStatements(stmts []js_ast.Stmt, env *runtime.Environment) *value.Completion {
	for _, s := range stmts {
		if c := it.execStmt(s, env); c != nil {
			return c
		}
	}
	return nil
}

// hoist implements spec's GlobalDeclarationInstantiation / FunctionDeclar-
// ationInstantiation var/function hoisting: var bindings are created
// (initialized to undefined) and function declarations are created and
// initialized before the body runs, while let/const/class only get their
// TDZ-uninitialized slot reserved here.
func (it *Interpreter) hoist(stmts []js_ast.Stmt, env *runtime.Environment) {
	it.hoistVarsAndFunctions(stmts, env, true)
	it.hoistLexical(stmts, env)
}

func (it *Interpreter) hoistLexical(stmts []js_ast.Stmt, env *runtime.Environment) {
	for _, s := range stmts {
		switch d := s.Data.(type) {
		case *js_ast.SLocal:
			if d.Kind == js_ast.LocalVar {
				continue
			}
			for _, decl := range d.Decls {
				for _, name := range bindingNames(decl.Binding) {
					if d.Kind == js_ast.LocalConst {
						env.CreateImmutableBinding(name)
					} else {
						env.CreateMutableBinding(name, false)
					}
				}
			}
		case *js_ast.SClass:
			if d.Class.Name != nil {
				env.CreateMutableBinding(*d.Class.Name, false)
			}
		}
	}
}

func (it *Interpreter) hoistVarsAndFunctions(stmts []js_ast.Stmt, env *runtime.Environment, topLevel bool) {
	for _, s := range stmts {
		it.hoistStmtVars(s, env)
	}
	if !topLevel {
		return
	}
	for _, s := range stmts {
		if fn, ok := s.Data.(*js_ast.SFunction); ok {
			fnVal := it.makeFunction(fn.Fn, env, "")
			name := ""
			if fn.Fn.Name != nil {
				name = *fn.Fn.Name
			}
			env.CreateAndInitializeVar(name, value.FromObject(fnVal))
		}
	}
}

// hoistStmtVars recurses into nested statements (blocks, if, loops) to find
// var declarations and function declarations, per spec's VarScopedDeclarations.
func (it *Interpreter) hoistStmtVars(s js_ast.Stmt, env *runtime.Environment) {
	switch d := s.Data.(type) {
	case *js_ast.SLocal:
		if d.Kind == js_ast.LocalVar {
			for _, decl := range d.Decls {
				for _, name := range bindingNames(decl.Binding) {
					env.CreateAndInitializeVar(name, value.Undefined())
				}
			}
		}
	case *js_ast.SBlock:
		for _, inner := range d.Stmts {
			it.hoistStmtVars(inner, env)
		}
	case *js_ast.SIf:
		it.hoistStmtVars(d.Yes, env)
		if d.NoOrNil.Data != nil {
			it.hoistStmtVars(d.NoOrNil, env)
		}
	case *js_ast.SFor:
		if d.InitOrNil.Data != nil {
			it.hoistStmtVars(d.InitOrNil, env)
		}
		it.hoistStmtVars(d.Body, env)
	case *js_ast.SForInOf:
		it.hoistStmtVars(d.Init, env)
		it.hoistStmtVars(d.Body, env)
	case *js_ast.SWhile:
		it.hoistStmtVars(d.Body, env)
	case *js_ast.SDoWhile:
		it.hoistStmtVars(d.Body, env)
	case *js_ast.STry:
		for _, inner := range d.Body {
			it.hoistStmtVars(inner, env)
		}
		if d.CatchOrNil != nil {
			for _, inner := range d.CatchOrNil.Body {
				it.hoistStmtVars(inner, env)
			}
		}
		for _, inner := range d.FinallyOrNil {
			it.hoistStmtVars(inner, env)
		}
	case *js_ast.SSwitch:
		for _, c := range d.Cases {
			for _, inner := range c.Body {
				it.hoistStmtVars(inner, env)
			}
		}
	case *js_ast.SLabel:
		it.hoistStmtVars(d.Stmt, env)
	case *js_ast.SFunction:
		// top-level function declarations are handled by hoistVarsAndFunctions;
		// nested ones (inside blocks) are block-scoped in spec's Annex B sense,
		// which this engine doesn't implement — they behave as plain lexical
		// bindings of the enclosing block instead.
	}
}

func bindingNames(b js_ast.Binding) []string {
	switch b.Kind {
	case js_ast.BindingIdentifier:
		return []string{b.Name}
	case js_ast.BindingArray:
		var names []string
		for _, item := range b.Items {
			names = append(names, bindingNames(item.Binding)...)
		}
		return names
	case js_ast.BindingObject:
		var names []string
		for _, p := range b.Props {
			names = append(names, bindingNames(p.Value)...)
		}
		return names
	}
	return nil
}
