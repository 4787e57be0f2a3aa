package module

import (
	"github.com/jsrun/jsengine/internal/js_ast"
	"github.com/jsrun/jsengine/internal/logger"
)

// rewriteDefaultExports replaces each top-level `export default <x>` with an
// assignment into defaultBindingName, so the existing hoist/exec machinery
// (which has no notion of an exported value — internal/evaluator's execStmt
// treats SImport, SExportClause, SExportFrom and SExportStar as no-ops and
// runs only the inner statement of an SExportDefault) observes the same runtime
// effect a real default export has: a value reachable under a well-known
// binding name. Named function/class defaults additionally keep their own
// plain declaration so the name is usable from the rest of the module body,
// exactly like a real `export default function foo(){}` does.
func rewriteDefaultExports(stmts []js_ast.Stmt) []js_ast.Stmt {
	out := make([]js_ast.Stmt, 0, len(stmts))
	for _, s := range stmts {
		def, ok := s.Data.(*js_ast.SExportDefault)
		if !ok {
			out = append(out, s)
			continue
		}
		switch inner := def.Value.Data.(type) {
		case *js_ast.SFunction:
			if inner.Fn.Name != nil {
				out = append(out, js_ast.Stmt{Loc: def.Value.Loc, Data: &js_ast.SFunction{Fn: inner.Fn}})
				out = append(out, assignDefaultStmt(s.Loc, identifierExpr(s.Loc, *inner.Fn.Name)))
			} else {
				out = append(out, assignDefaultStmt(s.Loc, js_ast.Expr{Loc: def.Value.Loc, Data: &js_ast.EFunction{Fn: inner.Fn}}))
			}
		case *js_ast.SClass:
			if inner.Class.Name != nil {
				out = append(out, js_ast.Stmt{Loc: def.Value.Loc, Data: &js_ast.SClass{Class: inner.Class}})
				out = append(out, assignDefaultStmt(s.Loc, identifierExpr(s.Loc, *inner.Class.Name)))
			} else {
				out = append(out, assignDefaultStmt(s.Loc, js_ast.Expr{Loc: def.Value.Loc, Data: &js_ast.EClass{Class: inner.Class}}))
			}
		case *js_ast.SExpr:
			out = append(out, assignDefaultStmt(s.Loc, inner.Value))
		}
	}
	return out
}

func identifierExpr(loc logger.Loc, name string) js_ast.Expr {
	return js_ast.Expr{Loc: loc, Data: &js_ast.EIdentifier{Name: name}}
}

func assignDefaultStmt(loc logger.Loc, rhs js_ast.Expr) js_ast.Stmt {
	return js_ast.Stmt{Loc: loc, Data: &js_ast.SExpr{Value: js_ast.Expr{Loc: loc, Data: &js_ast.EBinary{
		Op:    js_ast.BinOpAssign,
		Left:  identifierExpr(loc, defaultBindingName),
		Right: rhs,
	}}}}
}

// bindingNames lists every identifier a binding pattern introduces — a copy
// of internal/evaluator's unexported helper of the same name and shape,
// needed here too since hoisting lives on the other side of the package
// boundary.
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

// scanExports walks a module's original (pre-rewrite) top-level statements,
// recording every name it exports directly (as opposed to re-exporting from
// another module, which Loader.Link records separately as it resolves each
// dependency).
func scanExports(stmts []js_ast.Stmt, rec *Record) {
	for _, s := range stmts {
		switch d := s.Data.(type) {
		case *js_ast.SLocal:
			if !d.IsExport {
				continue
			}
			for _, decl := range d.Decls {
				for _, name := range bindingNames(decl.Binding) {
					rec.Exports[name] = name
				}
			}
		case *js_ast.SFunction:
			if d.IsExport && d.Fn.Name != nil {
				rec.Exports[*d.Fn.Name] = *d.Fn.Name
			}
		case *js_ast.SClass:
			if d.IsExport && d.Class.Name != nil {
				rec.Exports[*d.Class.Name] = *d.Class.Name
			}
		case *js_ast.SExportDefault:
			rec.Exports["default"] = defaultBindingName
			rec.HasDefault = true
		case *js_ast.SExportClause:
			for _, item := range d.Items {
				rec.Exports[item.Alias] = item.Name
			}
		}
	}
}
