// Package js_parser implements a recursive-descent, precedence-climbing
// parser over internal/js_lexer tokens, producing internal/js_ast trees
// (spec §4.2). It follows esbuild's internal/js_parser shape (a single
// Parser struct driving the lexer one token ahead, cover-grammar deferral
// for arrow parameters, and a precedence table mapping js_lexer.T operator
// tokens to js_ast.L levels) trimmed
// to parse-for-evaluation: no lowering passes, no tree-shaking metadata.
package js_parser

import (
	"github.com/jsrun/jsengine/internal/js_ast"
	"github.com/jsrun/jsengine/internal/js_lexer"
	"github.com/jsrun/jsengine/internal/logger"
)

type fnOrArrowCtx struct {
	isAsync     bool
	isGenerator bool
	allowSuper  bool
	allowNewTarget bool
}

// Parser holds all state used while producing an AST from one source file.
// The grammar is always strict mode (spec: strict-mode-only engine), so the
// parser never tracks a "use strict" directive switch the way esbuild does.
type Parser struct {
	log    logger.Log
	source logger.Source
	lexer  js_lexer.Lexer

	scope *js_ast.Scope
	fnCtx []fnOrArrowCtx

	allowIn  bool
	isModule bool
}

// ParseOptions controls how the top-level source is treated; spec.md's
// module loader (spec §4.7) sets IsModule for files it imports, while
// pkg/engine parses its top-level script source with IsModule false.
type ParseOptions struct {
	IsModule bool
}

func Parse(log logger.Log, source logger.Source, options ParseOptions) (result js_ast.AST, ok bool) {
	p := &Parser{
		log:      log,
		source:   source,
		lexer:    js_lexer.NewLexer(log, source),
		allowIn:  true,
		isModule: options.IsModule,
	}
	p.scope = js_ast.NewScope(js_ast.ScopeEntry, nil)
	p.fnCtx = append(p.fnCtx, fnOrArrowCtx{})

	ok = true
	func() {
		defer func() {
			if r := recover(); r != nil {
				if _, isLexerPanic := r.(js_lexer.LexerPanic); isLexerPanic {
					ok = false
					return
				}
				panic(r)
			}
		}()
		stmts := p.parseStmtsUntil(js_lexer.TEndOfFile)
		p.lexer.Expect(js_lexer.TEndOfFile, "end of input")
		result = js_ast.AST{
			Source:      source,
			Stmts:       stmts,
			ModuleScope: p.scope,
			IsModule:    p.isModule,
		}
	}()
	return result, ok
}

func (p *Parser) loc() logger.Loc { return p.lexer.Token.Range.Loc }

func (p *Parser) at(kind js_lexer.T) bool { return p.lexer.Token.Kind == kind }

func (p *Parser) advance() { p.lexer.Next() }

func (p *Parser) expect(kind js_lexer.T, what string) {
	p.lexer.Expect(kind, what)
}

func (p *Parser) unexpected() {
	p.lexer.Expected("a different token")
}

// ---- Statements ----

func (p *Parser) parseStmtsUntil(end js_lexer.T) []js_ast.Stmt {
	var stmts []js_ast.Stmt
	for !p.at(end) && !p.at(js_lexer.TEndOfFile) {
		stmts = append(stmts, p.parseStmt())
	}
	return stmts
}

func (p *Parser) parseStmt() js_ast.Stmt {
	loc := p.loc()

	switch p.lexer.Token.Kind {
	case js_lexer.TSemicolon:
		p.advance()
		return js_ast.Stmt{Loc: loc, Data: &js_ast.SEmpty{}}

	case js_lexer.TOpenBrace:
		return p.parseBlock()

	case js_lexer.TVar, js_lexer.TConst:
		kind := js_ast.LocalVar
		if p.at(js_lexer.TConst) {
			kind = js_ast.LocalConst
		}
		p.advance()
		decls := p.parseDecls(kind)
		p.semicolon()
		return js_ast.Stmt{Loc: loc, Data: &js_ast.SLocal{Kind: kind, Decls: decls}}

	case js_lexer.TLet:
		if p.isLetDeclarationStart() {
			p.advance()
			decls := p.parseDecls(js_ast.LocalLet)
			p.semicolon()
			return js_ast.Stmt{Loc: loc, Data: &js_ast.SLocal{Kind: js_ast.LocalLet, Decls: decls}}
		}
		return p.parseExprStmt()

	case js_lexer.TIf:
		return p.parseIf()

	case js_lexer.TFor:
		return p.parseFor()

	case js_lexer.TWhile:
		p.advance()
		p.expect(js_lexer.TOpenParen, "(")
		test := p.parseExpr(js_ast.LLowest)
		p.expect(js_lexer.TCloseParen, ")")
		body := p.parseStmt()
		return js_ast.Stmt{Loc: loc, Data: &js_ast.SWhile{Test: test, Body: body}}

	case js_lexer.TDo:
		p.advance()
		body := p.parseStmt()
		p.expect(js_lexer.TWhile, "while")
		p.expect(js_lexer.TOpenParen, "(")
		test := p.parseExpr(js_ast.LLowest)
		p.expect(js_lexer.TCloseParen, ")")
		if p.at(js_lexer.TSemicolon) {
			p.advance()
		}
		return js_ast.Stmt{Loc: loc, Data: &js_ast.SDoWhile{Body: body, Test: test}}

	case js_lexer.TReturn:
		p.advance()
		var value js_ast.Expr
		if !p.at(js_lexer.TSemicolon) && !p.at(js_lexer.TCloseBrace) && !p.at(js_lexer.TEndOfFile) && !p.lexer.Token.HasNewlineBefore {
			value = p.parseExpr(js_ast.LLowest)
		}
		p.semicolon()
		return js_ast.Stmt{Loc: loc, Data: &js_ast.SReturn{ValueOrNil: value}}

	case js_lexer.TBreak:
		p.advance()
		label := p.parseOptionalLabel()
		p.semicolon()
		return js_ast.Stmt{Loc: loc, Data: &js_ast.SBreak{Label: label}}

	case js_lexer.TContinue:
		p.advance()
		label := p.parseOptionalLabel()
		p.semicolon()
		return js_ast.Stmt{Loc: loc, Data: &js_ast.SContinue{Label: label}}

	case js_lexer.TThrow:
		p.advance()
		if p.lexer.Token.HasNewlineBefore {
			p.lexer.SyntaxError()
		}
		value := p.parseExpr(js_ast.LLowest)
		p.semicolon()
		return js_ast.Stmt{Loc: loc, Data: &js_ast.SThrow{Value: value}}

	case js_lexer.TTry:
		return p.parseTry()

	case js_lexer.TSwitch:
		return p.parseSwitch()

	case js_lexer.TFunction:
		p.advance()
		fn := p.parseFn(false)
		return js_ast.Stmt{Loc: loc, Data: &js_ast.SFunction{Fn: fn}}

	case js_lexer.TAsync:
		if p.isAsyncFunctionStart() {
			p.advance()
			p.advance()
			fn := p.parseFn(true)
			return js_ast.Stmt{Loc: loc, Data: &js_ast.SFunction{Fn: fn}}
		}
		return p.parseExprStmt()

	case js_lexer.TClass:
		p.advance()
		class := p.parseClass()
		return js_ast.Stmt{Loc: loc, Data: &js_ast.SClass{Class: class}}

	case js_lexer.TDebugger:
		p.advance()
		p.semicolon()
		return js_ast.Stmt{Loc: loc, Data: &js_ast.SDebugger{}}

	case js_lexer.TImport:
		return p.parseImport()

	case js_lexer.TExport:
		return p.parseExport()

	case js_lexer.TWith:
		// strict mode forbids "with" unconditionally.
		p.log.AddError(&p.source, loc, "\"with\" statements are not allowed (strict mode only)")
		panic(js_lexer.LexerPanic{})

	default:
		// Labeled statement: Identifier ":" Stmt
		if p.at(js_lexer.TIdentifier) {
			name := p.lexer.Identifier()
			save := p.lexer
			p.advance()
			if p.at(js_lexer.TColon) {
				p.advance()
				body := p.parseStmt()
				return js_ast.Stmt{Loc: loc, Data: &js_ast.SLabel{Name: name, Stmt: body}}
			}
			p.lexer = save
		}
		return p.parseExprStmt()
	}
}

func (p *Parser) isLetDeclarationStart() bool {
	save := p.lexer
	p.advance()
	isDecl := p.at(js_lexer.TIdentifier) || p.at(js_lexer.TOpenBrace) || p.at(js_lexer.TOpenBracket)
	p.lexer = save
	return isDecl
}

func (p *Parser) isAsyncFunctionStart() bool {
	save := p.lexer
	p.advance()
	isFn := p.at(js_lexer.TFunction) && !p.lexer.Token.HasNewlineBefore
	p.lexer = save
	return isFn
}

func (p *Parser) parseOptionalLabel() *string {
	if p.at(js_lexer.TIdentifier) && !p.lexer.Token.HasNewlineBefore {
		name := p.lexer.Identifier()
		p.advance()
		return &name
	}
	return nil
}

func (p *Parser) semicolon() {
	if p.at(js_lexer.TSemicolon) {
		p.advance()
		return
	}
	// ASI: allowed before "}", at EOF, or after a newline.
	if p.at(js_lexer.TCloseBrace) || p.at(js_lexer.TEndOfFile) || p.lexer.Token.HasNewlineBefore {
		return
	}
	p.lexer.Expected("\";\"")
}

func (p *Parser) parseBlock() js_ast.Stmt {
	loc := p.loc()
	p.expect(js_lexer.TOpenBrace, "{")
	parent := p.scope
	p.scope = js_ast.NewScope(js_ast.ScopeBlock, parent)
	stmts := p.parseStmtsUntil(js_lexer.TCloseBrace)
	p.scope = parent
	p.expect(js_lexer.TCloseBrace, "}")
	return js_ast.Stmt{Loc: loc, Data: &js_ast.SBlock{Stmts: stmts}}
}

func (p *Parser) parseExprStmt() js_ast.Stmt {
	loc := p.loc()
	value := p.parseExpr(js_ast.LLowest)
	p.semicolon()
	return js_ast.Stmt{Loc: loc, Data: &js_ast.SExpr{Value: value}}
}

func (p *Parser) parseDecls(kind js_ast.LocalKind) []js_ast.Decl {
	var decls []js_ast.Decl
	for {
		binding := p.parseBinding()
		var value js_ast.Expr
		if p.at(js_lexer.TEquals) {
			p.advance()
			value = p.parseExpr(js_ast.LAssign)
		} else if kind == js_ast.LocalConst {
			p.lexer.Expected("\"=\" (const declarations require an initializer)")
		}
		decls = append(decls, js_ast.Decl{Binding: binding, ValueOrNil: value})
		if !p.at(js_lexer.TComma) {
			break
		}
		p.advance()
	}
	return decls
}

func (p *Parser) parseIf() js_ast.Stmt {
	loc := p.loc()
	p.advance()
	p.expect(js_lexer.TOpenParen, "(")
	test := p.parseExpr(js_ast.LLowest)
	p.expect(js_lexer.TCloseParen, ")")
	yes := p.parseStmt()
	var no js_ast.Stmt
	if p.at(js_lexer.TElse) {
		p.advance()
		no = p.parseStmt()
	}
	return js_ast.Stmt{Loc: loc, Data: &js_ast.SIf{Test: test, Yes: yes, NoOrNil: no}}
}

func (p *Parser) parseFor() js_ast.Stmt {
	loc := p.loc()
	p.advance()
	isAwait := false
	if p.at(js_lexer.TAwait) {
		isAwait = true
		p.advance()
	}
	p.expect(js_lexer.TOpenParen, "(")

	parent := p.scope
	p.scope = js_ast.NewScope(js_ast.ScopeBlock, parent)
	defer func() { p.scope = parent }()

	var init js_ast.Stmt
	initLoc := p.loc()

	if p.at(js_lexer.TSemicolon) {
		// no init
	} else if p.at(js_lexer.TVar) || p.at(js_lexer.TConst) || (p.at(js_lexer.TLet) && p.isLetDeclarationStart()) {
		kind := js_ast.LocalVar
		switch p.lexer.Token.Kind {
		case js_lexer.TConst:
			kind = js_ast.LocalConst
		case js_lexer.TLet:
			kind = js_ast.LocalLet
		}
		p.advance()
		binding := p.parseBinding()

		if p.at(js_lexer.TIn) || p.isOfContextualKeyword() {
			forKind := js_ast.ForIn
			if !p.at(js_lexer.TIn) {
				forKind = js_ast.ForOf
			}
			p.advance()
			value := p.parseExpr(js_ast.LAssign)
			p.expect(js_lexer.TCloseParen, ")")
			body := p.parseStmt()
			if isAwait {
				forKind = js_ast.ForAwaitOf
			}
			initStmt := js_ast.Stmt{Loc: initLoc, Data: &js_ast.SLocal{Kind: kind, Decls: []js_ast.Decl{{Binding: binding}}}}
			return js_ast.Stmt{Loc: loc, Data: &js_ast.SForInOf{Kind: forKind, Init: initStmt, Value: value, Body: body}}
		}

		var value js_ast.Expr
		if p.at(js_lexer.TEquals) {
			p.advance()
			value = p.parseExpr(js_ast.LAssign)
		}
		decls := []js_ast.Decl{{Binding: binding, ValueOrNil: value}}
		for p.at(js_lexer.TComma) {
			p.advance()
			b := p.parseBinding()
			var v js_ast.Expr
			if p.at(js_lexer.TEquals) {
				p.advance()
				v = p.parseExpr(js_ast.LAssign)
			}
			decls = append(decls, js_ast.Decl{Binding: b, ValueOrNil: v})
		}
		init = js_ast.Stmt{Loc: initLoc, Data: &js_ast.SLocal{Kind: kind, Decls: decls}}
	} else {
		p.allowIn = false
		value := p.parseExpr(js_ast.LLowest)
		p.allowIn = true

		if p.at(js_lexer.TIn) || p.isOfContextualKeyword() {
			forKind := js_ast.ForIn
			if !p.at(js_lexer.TIn) {
				forKind = js_ast.ForOf
			}
			p.advance()
			rhs := p.parseExpr(js_ast.LAssign)
			p.expect(js_lexer.TCloseParen, ")")
			body := p.parseStmt()
			if isAwait {
				forKind = js_ast.ForAwaitOf
			}
			initStmt := js_ast.Stmt{Loc: initLoc, Data: &js_ast.SExpr{Value: value}}
			return js_ast.Stmt{Loc: loc, Data: &js_ast.SForInOf{Kind: forKind, Init: initStmt, Value: rhs, Body: body}}
		}
		init = js_ast.Stmt{Loc: initLoc, Data: &js_ast.SExpr{Value: value}}
	}

	p.expect(js_lexer.TSemicolon, ";")
	var test js_ast.Expr
	if !p.at(js_lexer.TSemicolon) {
		test = p.parseExpr(js_ast.LLowest)
	}
	p.expect(js_lexer.TSemicolon, ";")
	var update js_ast.Expr
	if !p.at(js_lexer.TCloseParen) {
		update = p.parseExpr(js_ast.LLowest)
	}
	p.expect(js_lexer.TCloseParen, ")")
	body := p.parseStmt()
	return js_ast.Stmt{Loc: loc, Data: &js_ast.SFor{InitOrNil: init, TestOrNil: test, UpdateOrNil: update, Body: body}}
}

func (p *Parser) isOfContextualKeyword() bool {
	return p.at(js_lexer.TOf)
}

func (p *Parser) isContextual(text string) bool {
	return p.lexer.IsContextualKeyword(text)
}

func (p *Parser) expectContextual(text string) {
	if !p.isContextual(text) {
		p.lexer.Expected("\"" + text + "\"")
	}
	p.advance()
}

func (p *Parser) parseTry() js_ast.Stmt {
	loc := p.loc()
	p.advance()
	p.expect(js_lexer.TOpenBrace, "{")
	parent := p.scope
	p.scope = js_ast.NewScope(js_ast.ScopeBlock, parent)
	body := p.parseStmtsUntil(js_lexer.TCloseBrace)
	p.scope = parent
	p.expect(js_lexer.TCloseBrace, "}")

	var catch *js_ast.Catch
	if p.at(js_lexer.TCatch) {
		p.advance()
		var binding *js_ast.Binding
		if p.at(js_lexer.TOpenParen) {
			p.advance()
			b := p.parseBinding()
			binding = &b
			p.expect(js_lexer.TCloseParen, ")")
		}
		p.expect(js_lexer.TOpenBrace, "{")
		catchParent := p.scope
		p.scope = js_ast.NewScope(js_ast.ScopeBlock, catchParent)
		cbody := p.parseStmtsUntil(js_lexer.TCloseBrace)
		p.scope = catchParent
		p.expect(js_lexer.TCloseBrace, "}")
		catch = &js_ast.Catch{BindingOrNil: binding, Body: cbody}
	}

	var finally []js_ast.Stmt
	if p.at(js_lexer.TFinally) {
		p.advance()
		p.expect(js_lexer.TOpenBrace, "{")
		finParent := p.scope
		p.scope = js_ast.NewScope(js_ast.ScopeBlock, finParent)
		finally = p.parseStmtsUntil(js_lexer.TCloseBrace)
		p.scope = finParent
		p.expect(js_lexer.TCloseBrace, "}")
	}

	if catch == nil && finally == nil {
		p.lexer.Expected("\"catch\" or \"finally\"")
	}

	return js_ast.Stmt{Loc: loc, Data: &js_ast.STry{Body: body, CatchOrNil: catch, FinallyOrNil: finally}}
}

func (p *Parser) parseSwitch() js_ast.Stmt {
	loc := p.loc()
	p.advance()
	p.expect(js_lexer.TOpenParen, "(")
	test := p.parseExpr(js_ast.LLowest)
	p.expect(js_lexer.TCloseParen, ")")
	p.expect(js_lexer.TOpenBrace, "{")

	parent := p.scope
	p.scope = js_ast.NewScope(js_ast.ScopeBlock, parent)
	defer func() { p.scope = parent }()

	var cases []js_ast.Case
	sawDefault := false
	for !p.at(js_lexer.TCloseBrace) {
		var value js_ast.Expr
		if p.at(js_lexer.TDefault) {
			if sawDefault {
				p.lexer.SyntaxError()
			}
			sawDefault = true
			p.advance()
		} else {
			p.expect(js_lexer.TCase, "\"case\"")
			value = p.parseExpr(js_ast.LLowest)
		}
		p.expect(js_lexer.TColon, ":")
		var body []js_ast.Stmt
		for !p.at(js_lexer.TCase) && !p.at(js_lexer.TDefault) && !p.at(js_lexer.TCloseBrace) {
			body = append(body, p.parseStmt())
		}
		cases = append(cases, js_ast.Case{ValueOrNil: value, Body: body})
	}
	p.expect(js_lexer.TCloseBrace, "}")
	return js_ast.Stmt{Loc: loc, Data: &js_ast.SSwitch{Test: test, Cases: cases}}
}

func (p *Parser) parseImport() js_ast.Stmt {
	loc := p.loc()
	p.advance()
	var clause js_ast.ImportClause

	if p.at(js_lexer.TStringLiteral) {
		path := string(js_lexer.Utf16ToStringHelper(p.lexer.StringLiteralUTF16()))
		p.advance()
		p.semicolon()
		return js_ast.Stmt{Loc: loc, Data: &js_ast.SImport{Clause: clause, Path: path}}
	}

	if p.at(js_lexer.TIdentifier) {
		name := p.lexer.Identifier()
		clause.DefaultName = &name
		p.advance()
		if p.at(js_lexer.TComma) {
			p.advance()
		}
	}

	if p.at(js_lexer.TAsterisk) {
		p.advance()
		p.expectContextual("as")
		alias := p.lexer.Identifier()
		clause.StarAlias = &alias
		p.advance()
	} else if p.at(js_lexer.TOpenBrace) {
		p.advance()
		for !p.at(js_lexer.TCloseBrace) {
			name := p.lexer.Identifier()
			p.advance()
			alias := name
			if p.isContextual("as") {
				p.advance()
				alias = p.lexer.Identifier()
				p.advance()
			}
			clause.NamedImports = append(clause.NamedImports, js_ast.ExportClauseItem{Name: name, Alias: alias})
			if p.at(js_lexer.TComma) {
				p.advance()
			}
		}
		p.expect(js_lexer.TCloseBrace, "}")
	}

	p.expectContextual("from")
	path := string(js_lexer.Utf16ToStringHelper(p.lexer.StringLiteralUTF16()))
	p.expect(js_lexer.TStringLiteral, "a string")
	p.semicolon()
	return js_ast.Stmt{Loc: loc, Data: &js_ast.SImport{Clause: clause, Path: path}}
}

func (p *Parser) parseExport() js_ast.Stmt {
	loc := p.loc()
	p.advance()

	switch p.lexer.Token.Kind {
	case js_lexer.TDefault:
		p.advance()
		var inner js_ast.Stmt
		switch {
		case p.at(js_lexer.TFunction):
			p.advance()
			fn := p.parseFn(false)
			inner = js_ast.Stmt{Loc: loc, Data: &js_ast.SFunction{Fn: fn}}
		case p.at(js_lexer.TClass):
			p.advance()
			class := p.parseClass()
			inner = js_ast.Stmt{Loc: loc, Data: &js_ast.SClass{Class: class}}
		default:
			value := p.parseExpr(js_ast.LAssign)
			p.semicolon()
			inner = js_ast.Stmt{Loc: loc, Data: &js_ast.SExpr{Value: value}}
		}
		return js_ast.Stmt{Loc: loc, Data: &js_ast.SExportDefault{Value: inner}}

	case js_lexer.TAsterisk:
		p.advance()
		var alias *string
		if p.isContextual("as") {
			p.advance()
			a := p.lexer.Identifier()
			alias = &a
			p.advance()
		}
		p.expectContextual("from")
		path := string(js_lexer.Utf16ToStringHelper(p.lexer.StringLiteralUTF16()))
		p.expect(js_lexer.TStringLiteral, "a string")
		p.semicolon()
		return js_ast.Stmt{Loc: loc, Data: &js_ast.SExportStar{Alias: alias, Path: path}}

	case js_lexer.TOpenBrace:
		p.advance()
		var items []js_ast.ExportClauseItem
		for !p.at(js_lexer.TCloseBrace) {
			name := p.lexer.Identifier()
			p.advance()
			alias := name
			if p.isContextual("as") {
				p.advance()
				alias = p.lexer.Identifier()
				p.advance()
			}
			items = append(items, js_ast.ExportClauseItem{Name: name, Alias: alias})
			if p.at(js_lexer.TComma) {
				p.advance()
			}
		}
		p.expect(js_lexer.TCloseBrace, "}")
		if p.isContextual("from") {
			p.advance()
			path := string(js_lexer.Utf16ToStringHelper(p.lexer.StringLiteralUTF16()))
			p.expect(js_lexer.TStringLiteral, "a string")
			p.semicolon()
			return js_ast.Stmt{Loc: loc, Data: &js_ast.SExportFrom{Items: items, Path: path}}
		}
		p.semicolon()
		return js_ast.Stmt{Loc: loc, Data: &js_ast.SExportClause{Items: items}}

	case js_lexer.TFunction:
		p.advance()
		fn := p.parseFn(false)
		return js_ast.Stmt{Loc: loc, Data: &js_ast.SFunction{Fn: fn, IsExport: true}}

	case js_lexer.TClass:
		p.advance()
		class := p.parseClass()
		return js_ast.Stmt{Loc: loc, Data: &js_ast.SClass{Class: class, IsExport: true}}

	case js_lexer.TVar, js_lexer.TConst, js_lexer.TLet:
		kind := js_ast.LocalVar
		switch p.lexer.Token.Kind {
		case js_lexer.TConst:
			kind = js_ast.LocalConst
		case js_lexer.TLet:
			kind = js_ast.LocalLet
		}
		p.advance()
		decls := p.parseDecls(kind)
		p.semicolon()
		return js_ast.Stmt{Loc: loc, Data: &js_ast.SLocal{Kind: kind, Decls: decls, IsExport: true}}
	}

	p.unexpected()
	return js_ast.Stmt{}
}

// ---- Bindings (destructuring patterns) ----

func (p *Parser) parseBinding() js_ast.Binding {
	loc := p.loc()
	switch p.lexer.Token.Kind {
	case js_lexer.TOpenBracket:
		p.advance()
		var items []js_ast.ArrayBindingItem
		for !p.at(js_lexer.TCloseBracket) {
			if p.at(js_lexer.TComma) {
				p.advance()
				continue
			}
			if p.at(js_lexer.TDotDotDot) {
				p.advance()
				b := p.parseBinding()
				items = append(items, js_ast.ArrayBindingItem{Binding: b, IsSpread: true})
			} else {
				b := p.parseBinding()
				var def js_ast.Expr
				if p.at(js_lexer.TEquals) {
					p.advance()
					def = p.parseExpr(js_ast.LAssign)
				}
				items = append(items, js_ast.ArrayBindingItem{Binding: b, DefaultOrNil: def})
			}
			if p.at(js_lexer.TComma) {
				p.advance()
			}
		}
		p.expect(js_lexer.TCloseBracket, "]")
		return js_ast.Binding{Loc: loc, Kind: js_ast.BindingArray, Items: items}

	case js_lexer.TOpenBrace:
		p.advance()
		var props []js_ast.ObjectBindingProp
		for !p.at(js_lexer.TCloseBrace) {
			if p.at(js_lexer.TDotDotDot) {
				p.advance()
				b := p.parseBinding()
				props = append(props, js_ast.ObjectBindingProp{Value: b, IsSpread: true})
				if p.at(js_lexer.TComma) {
					p.advance()
				}
				continue
			}
			computed := false
			var key js_ast.Expr
			if p.at(js_lexer.TOpenBracket) {
				computed = true
				p.advance()
				key = p.parseExpr(js_ast.LAssign)
				p.expect(js_lexer.TCloseBracket, "]")
			} else {
				name := p.propertyKeyName()
				key = js_ast.Expr{Loc: p.loc(), Data: &js_ast.EString{Value: js_lexer.StringToUtf16Helper(name)}}
				p.advance()
			}
			var value js_ast.Binding
			if p.at(js_lexer.TColon) {
				p.advance()
				value = p.parseBinding()
			} else if s, ok := key.Data.(*js_ast.EString); ok {
				value = js_ast.Binding{Loc: key.Loc, Kind: js_ast.BindingIdentifier, Name: js_lexer.Utf16ToStringHelper(s.Value)}
			}
			var def js_ast.Expr
			if p.at(js_lexer.TEquals) {
				p.advance()
				def = p.parseExpr(js_ast.LAssign)
			}
			props = append(props, js_ast.ObjectBindingProp{KeyIsComputed: computed, Key: key, Value: value, DefaultOrNil: def})
			if p.at(js_lexer.TComma) {
				p.advance()
			}
		}
		p.expect(js_lexer.TCloseBrace, "}")
		return js_ast.Binding{Loc: loc, Kind: js_ast.BindingObject, Props: props}

	default:
		name := p.bindingIdentifierName()
		p.advance()
		return js_ast.Binding{Loc: loc, Kind: js_ast.BindingIdentifier, Name: name}
	}
}

// bindingIdentifierName accepts an identifier or one of the contextual
// keywords usable as a binding name; "await" is rejected inside an async
// function or arrow and "yield" inside a generator (the innermost function
// context decides).
func (p *Parser) bindingIdentifierName() string {
	ctx := p.fnCtx[len(p.fnCtx)-1]
	if (ctx.isAsync && p.at(js_lexer.TAwait)) || (ctx.isGenerator && p.at(js_lexer.TYield)) {
		p.lexer.Expected("an identifier")
	}
	switch p.lexer.Token.Kind {
	case js_lexer.TIdentifier, js_lexer.TAsync, js_lexer.TGet, js_lexer.TSet,
		js_lexer.TLet, js_lexer.TOf, js_lexer.TStatic, js_lexer.TYield, js_lexer.TAwait:
		return p.lexer.Identifier()
	}
	p.lexer.Expected("an identifier")
	return ""
}

func (p *Parser) propertyKeyName() string {
	switch p.lexer.Token.Kind {
	case js_lexer.TIdentifier, js_lexer.TAsync, js_lexer.TGet, js_lexer.TSet,
		js_lexer.TLet, js_lexer.TOf, js_lexer.TStatic, js_lexer.TYield, js_lexer.TAwait:
		return p.lexer.Identifier()
	}
	if name, ok := js_lexer.KeywordText(p.lexer.Token.Kind); ok {
		return name
	}
	p.lexer.Expected("a property name")
	return ""
}

// ---- Functions and classes ----

func (p *Parser) parseFn(isAsync bool) js_ast.Fn {
	isGenerator := false
	if p.at(js_lexer.TAsterisk) {
		isGenerator = true
		p.advance()
	}
	var name *string
	if p.at(js_lexer.TIdentifier) {
		n := p.lexer.Identifier()
		name = &n
		p.advance()
	}
	p.fnCtx = append(p.fnCtx, fnOrArrowCtx{isAsync: isAsync, isGenerator: isGenerator})
	args, defaults, hasRest := p.parseFnArgs()
	body := p.parseFnBody()
	p.fnCtx = p.fnCtx[:len(p.fnCtx)-1]
	return js_ast.Fn{Name: name, Args: args, Defaults: defaults, Body: body, IsGenerator: isGenerator, IsAsync: isAsync, HasRestArg: hasRest}
}

func (p *Parser) parseFnArgs() (args []js_ast.Binding, defaults []js_ast.Expr, hasRest bool) {
	p.expect(js_lexer.TOpenParen, "(")
	for !p.at(js_lexer.TCloseParen) {
		if p.at(js_lexer.TDotDotDot) {
			p.advance()
			hasRest = true
			args = append(args, p.parseBinding())
			defaults = append(defaults, js_ast.Expr{})
			break
		}
		b := p.parseBinding()
		var def js_ast.Expr
		if p.at(js_lexer.TEquals) {
			p.advance()
			def = p.parseExpr(js_ast.LAssign)
		}
		args = append(args, b)
		defaults = append(defaults, def)
		if p.at(js_lexer.TComma) {
			p.advance()
		}
	}
	p.expect(js_lexer.TCloseParen, ")")
	return
}

func (p *Parser) parseFnBody() []js_ast.Stmt {
	p.expect(js_lexer.TOpenBrace, "{")
	parent := p.scope
	p.scope = js_ast.NewScope(js_ast.ScopeFunctionBody, parent)
	stmts := p.parseStmtsUntil(js_lexer.TCloseBrace)
	p.scope = parent
	p.expect(js_lexer.TCloseBrace, "}")
	return stmts
}

func (p *Parser) parseClass() js_ast.Class {
	var name *string
	if p.at(js_lexer.TIdentifier) {
		n := p.lexer.Identifier()
		name = &n
		p.advance()
	}
	var extends js_ast.Expr
	if p.at(js_lexer.TExtends) {
		p.advance()
		extends = p.parseSuffix(p.parsePrefix(js_ast.LNew), js_ast.LNew)
	}
	p.expect(js_lexer.TOpenBrace, "{")

	parent := p.scope
	p.scope = js_ast.NewScope(js_ast.ScopeClassBody, parent)

	var members []js_ast.ClassMember
	for !p.at(js_lexer.TCloseBrace) {
		if p.at(js_lexer.TSemicolon) {
			p.advance()
			continue
		}
		members = append(members, p.parseClassMember())
	}
	p.scope = parent
	p.expect(js_lexer.TCloseBrace, "}")
	return js_ast.Class{Name: name, ExtendsOrNil: extends, Members: members}
}

func (p *Parser) parseClassMember() js_ast.ClassMember {
	isStatic := false
	if p.at(js_lexer.TStatic) {
		save := p.lexer
		p.advance()
		if p.at(js_lexer.TOpenParen) || p.at(js_lexer.TEquals) || p.at(js_lexer.TSemicolon) {
			p.lexer = save
		} else {
			isStatic = true
			if p.at(js_lexer.TOpenBrace) {
				body := p.parseFnBody()
				return js_ast.ClassMember{Kind: js_ast.ClassMemberStaticBlock, IsStatic: true, StaticBlock: body}
			}
		}
	}

	isAsync := false
	isGenerator := false
	kind := js_ast.ClassMemberMethod

	if p.at(js_lexer.TAsterisk) {
		isGenerator = true
		p.advance()
	} else if p.at(js_lexer.TAsync) {
		save := p.lexer
		p.advance()
		if p.at(js_lexer.TOpenParen) || p.at(js_lexer.TEquals) || p.at(js_lexer.TSemicolon) || p.lexer.Token.HasNewlineBefore {
			p.lexer = save
		} else {
			isAsync = true
			if p.at(js_lexer.TAsterisk) {
				isGenerator = true
				p.advance()
			}
		}
	} else if p.at(js_lexer.TGet) || p.at(js_lexer.TSet) {
		save := p.lexer
		wantsGet := p.at(js_lexer.TGet)
		p.advance()
		if p.at(js_lexer.TOpenParen) || p.at(js_lexer.TEquals) || p.at(js_lexer.TSemicolon) {
			p.lexer = save
		} else if wantsGet {
			kind = js_ast.ClassMemberGetter
		} else {
			kind = js_ast.ClassMemberSetter
		}
	}

	isPrivate := false
	var key js_ast.Expr
	computed := false
	if p.at(js_lexer.TPrivateIdentifier) {
		isPrivate = true
		name := p.lexer.Identifier()
		key = js_ast.Expr{Loc: p.loc(), Data: &js_ast.EString{Value: js_lexer.StringToUtf16Helper(name)}}
		p.advance()
	} else if p.at(js_lexer.TOpenBracket) {
		computed = true
		p.advance()
		key = p.parseExpr(js_ast.LAssign)
		p.expect(js_lexer.TCloseBracket, "]")
	} else if p.at(js_lexer.TStringLiteral) || p.at(js_lexer.TNumericLiteral) {
		key = p.parsePrefix(js_ast.LLowest)
	} else {
		name := p.propertyKeyName()
		key = js_ast.Expr{Loc: p.loc(), Data: &js_ast.EString{Value: js_lexer.StringToUtf16Helper(name)}}
		p.advance()
	}

	if p.at(js_lexer.TOpenParen) {
		p.fnCtx = append(p.fnCtx, fnOrArrowCtx{isAsync: isAsync, isGenerator: isGenerator})
		args, defaults, hasRest := p.parseFnArgs()
		body := p.parseFnBody()
		p.fnCtx = p.fnCtx[:len(p.fnCtx)-1]
		fn := js_ast.Fn{Args: args, Defaults: defaults, Body: body, IsGenerator: isGenerator, IsAsync: isAsync, HasRestArg: hasRest}
		return js_ast.ClassMember{Kind: kind, Key: key, KeyIsComputed: computed, IsPrivate: isPrivate, IsStatic: isStatic, Fn: fn}
	}

	var value js_ast.Expr
	if p.at(js_lexer.TEquals) {
		p.advance()
		value = p.parseExpr(js_ast.LAssign)
	}
	p.semicolon()
	return js_ast.ClassMember{Kind: js_ast.ClassMemberField, Key: key, KeyIsComputed: computed, IsPrivate: isPrivate, IsStatic: isStatic, ValueOrNil: value}
}

// ---- Expressions ----

var binaryPrecedence = map[js_lexer.T]js_ast.L{
	js_lexer.TBarBar:               js_ast.LLogicalOr,
	js_lexer.TQuestionQuestion:     js_ast.LNullishCoalescing,
	js_lexer.TAmpersandAmpersand:   js_ast.LLogicalAnd,
	js_lexer.TBar:                  js_ast.LBitwiseOr,
	js_lexer.TCaret:                js_ast.LBitwiseXor,
	js_lexer.TAmpersand:            js_ast.LBitwiseAnd,
	js_lexer.TEqualsEquals:         js_ast.LEquals,
	js_lexer.TExclamationEquals:    js_ast.LEquals,
	js_lexer.TEqualsEqualsEquals:   js_ast.LEquals,
	js_lexer.TExclamationEqualsEquals: js_ast.LEquals,
	js_lexer.TLessThan:             js_ast.LCompare,
	js_lexer.TLessThanEquals:       js_ast.LCompare,
	js_lexer.TGreaterThan:          js_ast.LCompare,
	js_lexer.TGreaterThanEquals:    js_ast.LCompare,
	js_lexer.TIn:                   js_ast.LCompare,
	js_lexer.TInstanceof:           js_ast.LCompare,
	js_lexer.TLessThanLessThan:     js_ast.LShift,
	js_lexer.TGreaterThanGreaterThan: js_ast.LShift,
	js_lexer.TGreaterThanGreaterThanGreaterThan: js_ast.LShift,
	js_lexer.TPlus:                 js_ast.LAdd,
	js_lexer.TMinus:                js_ast.LAdd,
	js_lexer.TAsterisk:             js_ast.LMultiply,
	js_lexer.TSlash:                js_ast.LMultiply,
	js_lexer.TPercent:              js_ast.LMultiply,
	js_lexer.TAsteriskAsterisk:     js_ast.LExponentiation,
}

var binaryOpCode = map[js_lexer.T]js_ast.OpCode{
	js_lexer.TBarBar:               js_ast.BinOpLogicalOr,
	js_lexer.TQuestionQuestion:     js_ast.BinOpNullishCoalescing,
	js_lexer.TAmpersandAmpersand:   js_ast.BinOpLogicalAnd,
	js_lexer.TBar:                  js_ast.BinOpBitwiseOr,
	js_lexer.TCaret:                js_ast.BinOpBitwiseXor,
	js_lexer.TAmpersand:            js_ast.BinOpBitwiseAnd,
	js_lexer.TEqualsEquals:         js_ast.BinOpLooseEq,
	js_lexer.TExclamationEquals:    js_ast.BinOpLooseNe,
	js_lexer.TEqualsEqualsEquals:   js_ast.BinOpStrictEq,
	js_lexer.TExclamationEqualsEquals: js_ast.BinOpStrictNe,
	js_lexer.TLessThan:             js_ast.BinOpLt,
	js_lexer.TLessThanEquals:       js_ast.BinOpLe,
	js_lexer.TGreaterThan:          js_ast.BinOpGt,
	js_lexer.TGreaterThanEquals:    js_ast.BinOpGe,
	js_lexer.TIn:                   js_ast.BinOpIn,
	js_lexer.TInstanceof:           js_ast.BinOpInstanceof,
	js_lexer.TLessThanLessThan:     js_ast.BinOpShl,
	js_lexer.TGreaterThanGreaterThan: js_ast.BinOpShr,
	js_lexer.TGreaterThanGreaterThanGreaterThan: js_ast.BinOpUShr,
	js_lexer.TPlus:                 js_ast.BinOpAdd,
	js_lexer.TMinus:                js_ast.BinOpSub,
	js_lexer.TAsterisk:             js_ast.BinOpMul,
	js_lexer.TSlash:                js_ast.BinOpDiv,
	js_lexer.TPercent:              js_ast.BinOpMod,
	js_lexer.TAsteriskAsterisk:     js_ast.BinOpPow,
}

var assignOpCode = map[js_lexer.T]js_ast.OpCode{
	js_lexer.TEquals:                        js_ast.BinOpAssign,
	js_lexer.TPlusEquals:                    js_ast.BinOpAddAssign,
	js_lexer.TMinusEquals:                   js_ast.BinOpSubAssign,
	js_lexer.TAsteriskEquals:                js_ast.BinOpMulAssign,
	js_lexer.TSlashEquals:                   js_ast.BinOpDivAssign,
	js_lexer.TPercentEquals:                 js_ast.BinOpModAssign,
	js_lexer.TAsteriskAsteriskEquals:        js_ast.BinOpPowAssign,
	js_lexer.TLessThanLessThanEquals:        js_ast.BinOpShlAssign,
	js_lexer.TGreaterThanGreaterThanEquals:  js_ast.BinOpShrAssign,
	js_lexer.TGreaterThanGreaterThanGreaterThanEquals: js_ast.BinOpUShrAssign,
	js_lexer.TAmpersandEquals:               js_ast.BinOpBitwiseAndAssign,
	js_lexer.TBarEquals:                     js_ast.BinOpBitwiseOrAssign,
	js_lexer.TCaretEquals:                   js_ast.BinOpBitwiseXorAssign,
	js_lexer.TAmpersandAmpersandEquals:      js_ast.BinOpLogicalAndAssign,
	js_lexer.TBarBarEquals:                  js_ast.BinOpLogicalOrAssign,
	js_lexer.TQuestionQuestionEquals:        js_ast.BinOpNullishCoalescingAssign,
}

func (p *Parser) parseExpr(level js_ast.L) js_ast.Expr {
	expr := p.parsePrefix(level)
	expr = p.parseSuffix(expr, level)

	if level <= js_ast.LComma {
		for p.at(js_lexer.TComma) {
			p.advance()
			right := p.parseExpr(js_ast.LAssign)
			expr = js_ast.Expr{Loc: expr.Loc, Data: &js_ast.EBinary{Op: js_ast.BinOpComma, Left: expr, Right: right}}
		}
	}
	return expr
}

func (p *Parser) parsePrefix(level js_ast.L) js_ast.Expr {
	loc := p.loc()

	switch p.lexer.Token.Kind {
	case js_lexer.TNumericLiteral:
		v := p.lexer.Token.Number
		p.advance()
		return js_ast.Expr{Loc: loc, Data: &js_ast.ENumber{Value: v}}

	case js_lexer.TBigIntLiteral:
		v := p.lexer.Token.BigIntValue
		p.advance()
		return js_ast.Expr{Loc: loc, Data: &js_ast.EBigInt{Value: v}}

	case js_lexer.TStringLiteral:
		v := p.lexer.StringLiteralUTF16()
		p.advance()
		return js_ast.Expr{Loc: loc, Data: &js_ast.EString{Value: v}}

	case js_lexer.TNoSubstitutionTemplateLiteral, js_lexer.TTemplateHead:
		return p.parseTemplate(js_ast.Expr{})

	case js_lexer.TRegexLiteral:
		pattern, flags := splitRegexLiteral(p.lexer.RawText())
		p.advance()
		return js_ast.Expr{Loc: loc, Data: &js_ast.ERegExp{Pattern: pattern, Flags: flags}}

	case js_lexer.TSlash, js_lexer.TSlashEquals:
		p.lexer.RescanCurrentTokenAsRegex()
		pattern, flags := splitRegexLiteral(p.lexer.RawText())
		p.advance()
		return js_ast.Expr{Loc: loc, Data: &js_ast.ERegExp{Pattern: pattern, Flags: flags}}

	case js_lexer.TTrue:
		p.advance()
		return js_ast.Expr{Loc: loc, Data: &js_ast.EBoolean{Value: true}}

	case js_lexer.TFalse:
		p.advance()
		return js_ast.Expr{Loc: loc, Data: &js_ast.EBoolean{Value: false}}

	case js_lexer.TNull:
		p.advance()
		return js_ast.Expr{Loc: loc, Data: &js_ast.ENull{}}

	case js_lexer.TThis:
		p.advance()
		return js_ast.Expr{Loc: loc, Data: &js_ast.EThis{}}

	case js_lexer.TSuper:
		p.advance()
		return js_ast.Expr{Loc: loc, Data: &js_ast.ESuper{}}

	case js_lexer.TOpenParen:
		return p.parseParenOrArrow(level)

	case js_lexer.TOpenBracket:
		return p.parseArray()

	case js_lexer.TOpenBrace:
		return p.parseObject()

	case js_lexer.TFunction:
		p.advance()
		fn := p.parseFn(false)
		return js_ast.Expr{Loc: loc, Data: &js_ast.EFunction{Fn: fn}}

	case js_lexer.TClass:
		p.advance()
		class := p.parseClass()
		return js_ast.Expr{Loc: loc, Data: &js_ast.EClass{Class: class}}

	case js_lexer.TNew:
		p.advance()
		if p.at(js_lexer.TDot) {
			p.advance()
			if !p.lexer.IsContextualKeyword("target") {
				p.lexer.Expected("\"target\"")
			}
			p.advance()
			return js_ast.Expr{Loc: loc, Data: &js_ast.ENewTarget{}}
		}
		target := p.parsePrefix(js_ast.LMember)
		target = p.parseSuffixNoCall(target)
		var args []js_ast.Arg
		if p.at(js_lexer.TOpenParen) {
			args = p.parseCallArgs()
		}
		return js_ast.Expr{Loc: loc, Data: &js_ast.ENew{Target: target, Args: args}}

	case js_lexer.TImport:
		p.advance()
		if p.at(js_lexer.TDot) {
			p.advance()
			if !p.lexer.IsContextualKeyword("meta") {
				p.lexer.Expected("\"meta\"")
			}
			p.advance()
			return js_ast.Expr{Loc: loc, Data: &js_ast.EImportMeta{}}
		}
		p.expect(js_lexer.TOpenParen, "(")
		arg := p.parseExpr(js_ast.LAssign)
		p.expect(js_lexer.TCloseParen, ")")
		return js_ast.Expr{Loc: loc, Data: &js_ast.EImportCall{Expr: arg}}

	case js_lexer.TTypeof:
		p.advance()
		return js_ast.Expr{Loc: loc, Data: &js_ast.EUnary{Op: js_ast.UnOpTypeof, Value: p.parsePrefix(js_ast.LPrefix)}}

	case js_lexer.TVoid:
		p.advance()
		return js_ast.Expr{Loc: loc, Data: &js_ast.EUnary{Op: js_ast.UnOpVoid, Value: p.parsePrefix(js_ast.LPrefix)}}

	case js_lexer.TDelete:
		p.advance()
		return js_ast.Expr{Loc: loc, Data: &js_ast.EUnary{Op: js_ast.UnOpDelete, Value: p.parsePrefix(js_ast.LPrefix)}}

	case js_lexer.TPlus:
		p.advance()
		return js_ast.Expr{Loc: loc, Data: &js_ast.EUnary{Op: js_ast.UnOpPos, Value: p.parsePrefix(js_ast.LPrefix)}}

	case js_lexer.TMinus:
		p.advance()
		return js_ast.Expr{Loc: loc, Data: &js_ast.EUnary{Op: js_ast.UnOpNeg, Value: p.parsePrefix(js_ast.LPrefix)}}

	case js_lexer.TTilde:
		p.advance()
		return js_ast.Expr{Loc: loc, Data: &js_ast.EUnary{Op: js_ast.UnOpCpl, Value: p.parsePrefix(js_ast.LPrefix)}}

	case js_lexer.TExclamation:
		p.advance()
		return js_ast.Expr{Loc: loc, Data: &js_ast.EUnary{Op: js_ast.UnOpNot, Value: p.parsePrefix(js_ast.LPrefix)}}

	case js_lexer.TPlusPlus:
		p.advance()
		return js_ast.Expr{Loc: loc, Data: &js_ast.EUnary{Op: js_ast.UnOpPreInc, Value: p.parsePrefix(js_ast.LPrefix)}}

	case js_lexer.TMinusMinus:
		p.advance()
		return js_ast.Expr{Loc: loc, Data: &js_ast.EUnary{Op: js_ast.UnOpPreDec, Value: p.parsePrefix(js_ast.LPrefix)}}

	case js_lexer.TYield:
		p.advance()
		isStar := false
		if p.at(js_lexer.TAsterisk) {
			isStar = true
			p.advance()
		}
		var value js_ast.Expr
		if !p.lexer.Token.HasNewlineBefore && !p.at(js_lexer.TSemicolon) && !p.at(js_lexer.TCloseParen) &&
			!p.at(js_lexer.TCloseBracket) && !p.at(js_lexer.TCloseBrace) && !p.at(js_lexer.TColon) && !p.at(js_lexer.TComma) && !p.at(js_lexer.TEndOfFile) {
			value = p.parseExpr(js_ast.LYield)
		}
		return js_ast.Expr{Loc: loc, Data: &js_ast.EYield{ValueOrNil: value, IsStar: isStar}}

	case js_lexer.TAwait:
		p.advance()
		return js_ast.Expr{Loc: loc, Data: &js_ast.EAwait{Value: p.parsePrefix(js_ast.LPrefix)}}

	case js_lexer.TAsync:
		return p.parseAsyncExpr(level)

	case js_lexer.TPrivateIdentifier:
		name := p.lexer.Identifier()
		p.advance()
		return js_ast.Expr{Loc: loc, Data: &js_ast.EPrivateIdentifier{Name: name}}

	case js_lexer.TIdentifier, js_lexer.TGet, js_lexer.TSet, js_lexer.TLet, js_lexer.TOf, js_lexer.TStatic:
		name := p.lexer.Identifier()
		p.advance()
		if p.at(js_lexer.TEqualsGreaterThan) {
			return p.parseArrowFromSingleIdent(loc, name, false)
		}
		return js_ast.Expr{Loc: loc, Data: &js_ast.EIdentifier{Name: name}}

	default:
		p.lexer.Expected("an expression")
		return js_ast.Expr{}
	}
}

func (p *Parser) parseAsyncExpr(level js_ast.L) js_ast.Expr {
	loc := p.loc()
	save := p.lexer
	p.advance() // "async"

	if !p.lexer.Token.HasNewlineBefore {
		if p.at(js_lexer.TFunction) {
			p.advance()
			fn := p.parseFn(true)
			return js_ast.Expr{Loc: loc, Data: &js_ast.EFunction{Fn: fn}}
		}
		if p.at(js_lexer.TIdentifier) {
			name := p.lexer.Identifier()
			p.advance()
			if p.at(js_lexer.TEqualsGreaterThan) && !p.lexer.Token.HasNewlineBefore {
				return p.parseArrowFromSingleIdent(loc, name, true)
			}
			p.lexer = save
		} else if p.at(js_lexer.TOpenParen) {
			if arrow, ok := p.tryParseArrow(loc, true); ok {
				return arrow
			}
			p.lexer = save
		}
	}

	p.lexer = save
	p.advance()
	return js_ast.Expr{Loc: loc, Data: &js_ast.EIdentifier{Name: "async"}}
}

func (p *Parser) parseArrowFromSingleIdent(loc logger.Loc, name string, isAsync bool) js_ast.Expr {
	p.expect(js_lexer.TEqualsGreaterThan, "\"=>\"")
	binding := js_ast.Binding{Loc: loc, Kind: js_ast.BindingIdentifier, Name: name}
	return p.finishArrow(loc, []js_ast.Binding{binding}, isAsync)
}

func (p *Parser) parseParenOrArrow(level js_ast.L) js_ast.Expr {
	loc := p.loc()
	if arrow, ok := p.tryParseArrow(loc, false); ok {
		return arrow
	}

	p.expect(js_lexer.TOpenParen, "(")
	expr := p.parseExpr(js_ast.LLowest)
	p.expect(js_lexer.TCloseParen, ")")
	return expr
}

// tryParseArrow attempts the "(" ParamList ")" "=>" cover grammar: it
// snapshots the lexer, tries to parse a parenthesized binding list, and
// backs out (restoring the snapshot) if what follows isn't "=>" or the
// params aren't a valid binding list — the deferred-reinterpretation
// technique spec §4.2 calls for instead of unbounded lookahead.
func (p *Parser) tryParseArrow(loc logger.Loc, isAsync bool) (js_ast.Expr, bool) {
	save := p.lexer
	savedScope := p.scope

	ok := func() (ok bool) {
		defer func() {
			if r := recover(); r != nil {
				if _, isLexerPanic := r.(js_lexer.LexerPanic); isLexerPanic {
					ok = false
					return
				}
				panic(r)
			}
		}()
		p.expect(js_lexer.TOpenParen, "(")
		for !p.at(js_lexer.TCloseParen) {
			if p.at(js_lexer.TDotDotDot) {
				p.advance()
			}
			p.parseBinding()
			if p.at(js_lexer.TEquals) {
				p.advance()
				p.parseExpr(js_ast.LAssign)
			}
			if p.at(js_lexer.TComma) {
				p.advance()
			} else {
				break
			}
		}
		if !p.at(js_lexer.TCloseParen) {
			return false
		}
		p.advance()
		return p.at(js_lexer.TEqualsGreaterThan) && !p.lexer.Token.HasNewlineBefore
	}()

	if !ok {
		p.lexer = save
		p.scope = savedScope
		return js_ast.Expr{}, false
	}

	p.lexer = save
	p.scope = savedScope
	p.expect(js_lexer.TOpenParen, "(")
	args, _, _ := p.parseFnArgsBody()
	p.expect(js_lexer.TEqualsGreaterThan, "\"=>\"")
	return p.finishArrow(loc, args, isAsync), true
}

// parseFnArgsBody parses just the binding list inside already-consumed "(".
func (p *Parser) parseFnArgsBody() (args []js_ast.Binding, defaults []js_ast.Expr, hasRest bool) {
	for !p.at(js_lexer.TCloseParen) {
		if p.at(js_lexer.TDotDotDot) {
			p.advance()
			hasRest = true
			args = append(args, p.parseBinding())
			defaults = append(defaults, js_ast.Expr{})
			break
		}
		b := p.parseBinding()
		var def js_ast.Expr
		if p.at(js_lexer.TEquals) {
			p.advance()
			def = p.parseExpr(js_ast.LAssign)
		}
		args = append(args, b)
		defaults = append(defaults, def)
		if p.at(js_lexer.TComma) {
			p.advance()
		}
	}
	p.expect(js_lexer.TCloseParen, ")")
	return
}

func (p *Parser) finishArrow(loc logger.Loc, args []js_ast.Binding, isAsync bool) js_ast.Expr {
	p.fnCtx = append(p.fnCtx, fnOrArrowCtx{isAsync: isAsync})
	defer func() { p.fnCtx = p.fnCtx[:len(p.fnCtx)-1] }()

	if p.at(js_lexer.TOpenBrace) {
		body := p.parseFnBody()
		return js_ast.Expr{Loc: loc, Data: &js_ast.EArrow{Args: args, Body: body, IsAsync: isAsync}}
	}
	exprLoc := p.loc()
	value := p.parseExpr(js_ast.LAssign)
	body := []js_ast.Stmt{{Loc: exprLoc, Data: &js_ast.SReturn{ValueOrNil: value}}}
	return js_ast.Expr{Loc: loc, Data: &js_ast.EArrow{Args: args, Body: body, PreferExpr: true, IsAsync: isAsync}}
}

func (p *Parser) parseTemplate(tag js_ast.Expr) js_ast.Expr {
	loc := p.loc()
	head := p.lexer.StringLiteralUTF16()
	isTail := p.at(js_lexer.TNoSubstitutionTemplateLiteral)
	p.advance()
	tmpl := &js_ast.ETemplate{TagOrNil: tag, Head: head}
	for !isTail {
		value := p.parseExpr(js_ast.LLowest)
		p.lexer.NextTemplatePart()
		chunk := p.lexer.StringLiteralUTF16()
		isTail = p.at(js_lexer.TTemplateTail)
		tmpl.Parts = append(tmpl.Parts, js_ast.ETemplatePart{Value: value, Tail: chunk})
		p.advance()
	}
	return js_ast.Expr{Loc: loc, Data: tmpl}
}

func (p *Parser) parseArray() js_ast.Expr {
	loc := p.loc()
	p.advance()
	var items []js_ast.Expr
	for !p.at(js_lexer.TCloseBracket) {
		if p.at(js_lexer.TComma) {
			items = append(items, js_ast.Expr{Loc: p.loc(), Data: &js_ast.EMissing{}})
			p.advance()
			continue
		}
		if p.at(js_lexer.TDotDotDot) {
			itemLoc := p.loc()
			p.advance()
			value := p.parseExpr(js_ast.LAssign)
			items = append(items, js_ast.Expr{Loc: itemLoc, Data: &js_ast.ESpread{Value: value}})
		} else {
			items = append(items, p.parseExpr(js_ast.LAssign))
		}
		if p.at(js_lexer.TComma) {
			p.advance()
		}
	}
	p.expect(js_lexer.TCloseBracket, "]")
	return js_ast.Expr{Loc: loc, Data: &js_ast.EArray{Items: items}}
}

func (p *Parser) parseObject() js_ast.Expr {
	loc := p.loc()
	p.advance()
	var props []js_ast.Property
	for !p.at(js_lexer.TCloseBrace) {
		props = append(props, p.parseProperty())
		if p.at(js_lexer.TComma) {
			p.advance()
		}
	}
	p.expect(js_lexer.TCloseBrace, "}")
	return js_ast.Expr{Loc: loc, Data: &js_ast.EObject{Properties: props}}
}

func (p *Parser) parseProperty() js_ast.Property {
	if p.at(js_lexer.TDotDotDot) {
		p.advance()
		value := p.parseExpr(js_ast.LAssign)
		return js_ast.Property{Kind: js_ast.PropertySpread, ValueOrNil: value}
	}

	isAsync, isGenerator := false, false
	kind := js_ast.PropertyField

	if p.at(js_lexer.TAsterisk) {
		isGenerator = true
		p.advance()
	} else if p.at(js_lexer.TAsync) {
		save := p.lexer
		p.advance()
		if p.at(js_lexer.TColon) || p.at(js_lexer.TComma) || p.at(js_lexer.TCloseBrace) || p.at(js_lexer.TOpenParen) || p.lexer.Token.HasNewlineBefore {
			p.lexer = save
		} else {
			isAsync = true
			if p.at(js_lexer.TAsterisk) {
				isGenerator = true
				p.advance()
			}
		}
	} else if p.at(js_lexer.TGet) || p.at(js_lexer.TSet) {
		save := p.lexer
		wantsGet := p.at(js_lexer.TGet)
		p.advance()
		if p.at(js_lexer.TColon) || p.at(js_lexer.TComma) || p.at(js_lexer.TCloseBrace) || p.at(js_lexer.TOpenParen) {
			p.lexer = save
		} else if wantsGet {
			kind = js_ast.PropertyGetter
		} else {
			kind = js_ast.PropertySetter
		}
	}

	computed := false
	var key js_ast.Expr
	if p.at(js_lexer.TOpenBracket) {
		computed = true
		p.advance()
		key = p.parseExpr(js_ast.LAssign)
		p.expect(js_lexer.TCloseBracket, "]")
	} else if p.at(js_lexer.TStringLiteral) || p.at(js_lexer.TNumericLiteral) {
		key = p.parsePrefix(js_ast.LLowest)
	} else {
		loc := p.loc()
		name := p.propertyKeyName()
		key = js_ast.Expr{Loc: loc, Data: &js_ast.EString{Value: js_lexer.StringToUtf16Helper(name)}}
		p.advance()
	}

	if p.at(js_lexer.TOpenParen) || kind == js_ast.PropertyGetter || kind == js_ast.PropertySetter {
		p.fnCtx = append(p.fnCtx, fnOrArrowCtx{isAsync: isAsync, isGenerator: isGenerator})
		args, defaults, hasRest := p.parseFnArgs()
		body := p.parseFnBody()
		p.fnCtx = p.fnCtx[:len(p.fnCtx)-1]
		fn := js_ast.Fn{Args: args, Defaults: defaults, Body: body, IsGenerator: isGenerator, IsAsync: isAsync, HasRestArg: hasRest}
		if kind == js_ast.PropertyField {
			kind = js_ast.PropertyMethod
		}
		value := js_ast.Expr{Loc: key.Loc, Data: &js_ast.EFunction{Fn: fn}}
		return js_ast.Property{Kind: kind, Key: key, ValueOrNil: value, IsComputed: computed, IsMethod: true}
	}

	if p.at(js_lexer.TColon) {
		p.advance()
		value := p.parseExpr(js_ast.LAssign)
		return js_ast.Property{Kind: js_ast.PropertyField, Key: key, ValueOrNil: value, IsComputed: computed}
	}

	// Shorthand: { x } or { x = default } (the latter only valid in binding position)
	var init js_ast.Expr
	if p.at(js_lexer.TEquals) {
		p.advance()
		init = p.parseExpr(js_ast.LAssign)
	}
	name := ""
	if s, ok := key.Data.(*js_ast.EString); ok {
		name = js_lexer.Utf16ToStringHelper(s.Value)
	}
	value := js_ast.Expr{Loc: key.Loc, Data: &js_ast.EIdentifier{Name: name}}
	return js_ast.Property{Kind: js_ast.PropertyField, Key: key, ValueOrNil: value, InitOrNil: init, IsComputed: computed}
}

func (p *Parser) parseCallArgs() []js_ast.Arg {
	p.expect(js_lexer.TOpenParen, "(")
	var args []js_ast.Arg
	for !p.at(js_lexer.TCloseParen) {
		spread := false
		if p.at(js_lexer.TDotDotDot) {
			spread = true
			p.advance()
		}
		args = append(args, js_ast.Arg{Spread: spread, Value: p.parseExpr(js_ast.LAssign)})
		if p.at(js_lexer.TComma) {
			p.advance()
		}
	}
	p.expect(js_lexer.TCloseParen, ")")
	return args
}

// parseSuffixNoCall parses member-access suffixes but stops before a call,
// used for "new Target(...)" where Target must not itself swallow the call.
func (p *Parser) parseSuffixNoCall(left js_ast.Expr) js_ast.Expr {
	for {
		switch p.lexer.Token.Kind {
		case js_lexer.TDot:
			p.advance()
			name := p.propertyKeyName()
			loc := p.loc()
			p.advance()
			left = js_ast.Expr{Loc: left.Loc, Data: &js_ast.EDot{Target: left, Name: name}}
			_ = loc
		case js_lexer.TOpenBracket:
			p.advance()
			index := p.parseExpr(js_ast.LLowest)
			p.expect(js_lexer.TCloseBracket, "]")
			left = js_ast.Expr{Loc: left.Loc, Data: &js_ast.EIndex{Target: left, Index: index}}
		default:
			return left
		}
	}
}

func (p *Parser) parseSuffix(left js_ast.Expr, level js_ast.L) js_ast.Expr {
	for {
		if p.lexer.Token.HasNewlineBefore && (p.at(js_lexer.TPlusPlus) || p.at(js_lexer.TMinusMinus)) {
			return left
		}

		switch p.lexer.Token.Kind {
		case js_lexer.TDot:
			if level >= js_ast.LMember {
				return left
			}
			p.advance()
			if p.at(js_lexer.TPrivateIdentifier) {
				name := p.lexer.Identifier()
				p.advance()
				left = js_ast.Expr{Loc: left.Loc, Data: &js_ast.EDot{Target: left, Name: name, IsPrivate: true}}
				continue
			}
			name := p.propertyKeyName()
			p.advance()
			left = js_ast.Expr{Loc: left.Loc, Data: &js_ast.EDot{Target: left, Name: name}}

		case js_lexer.TQuestionDot:
			if level >= js_ast.LMember {
				return left
			}
			p.advance()
			switch p.lexer.Token.Kind {
			case js_lexer.TOpenParen:
				args := p.parseCallArgs()
				left = js_ast.Expr{Loc: left.Loc, Data: &js_ast.ECall{Target: left, Args: args, IsOptionalCall: true, IsOptionalChain: true}}
			case js_lexer.TOpenBracket:
				p.advance()
				index := p.parseExpr(js_ast.LLowest)
				p.expect(js_lexer.TCloseBracket, "]")
				left = js_ast.Expr{Loc: left.Loc, Data: &js_ast.EIndex{Target: left, Index: index, Optional: true}}
			default:
				name := p.propertyKeyName()
				p.advance()
				left = js_ast.Expr{Loc: left.Loc, Data: &js_ast.EDot{Target: left, Name: name, Optional: true}}
			}

		case js_lexer.TOpenBracket:
			if level >= js_ast.LMember {
				return left
			}
			p.advance()
			index := p.parseExpr(js_ast.LLowest)
			p.expect(js_lexer.TCloseBracket, "]")
			left = js_ast.Expr{Loc: left.Loc, Data: &js_ast.EIndex{Target: left, Index: index}}

		case js_lexer.TOpenParen:
			if level >= js_ast.LCall {
				return left
			}
			args := p.parseCallArgs()
			left = js_ast.Expr{Loc: left.Loc, Data: &js_ast.ECall{Target: left, Args: args}}

		case js_lexer.TNoSubstitutionTemplateLiteral, js_lexer.TTemplateHead:
			left = p.parseTemplate(left)

		case js_lexer.TPlusPlus:
			if level >= js_ast.LPostfix {
				return left
			}
			p.advance()
			left = js_ast.Expr{Loc: left.Loc, Data: &js_ast.EUnary{Op: js_ast.UnOpPostInc, Value: left}}

		case js_lexer.TMinusMinus:
			if level >= js_ast.LPostfix {
				return left
			}
			p.advance()
			left = js_ast.Expr{Loc: left.Loc, Data: &js_ast.EUnary{Op: js_ast.UnOpPostDec, Value: left}}

		case js_lexer.TQuestion:
			if level >= js_ast.LConditional {
				return left
			}
			p.advance()
			yes := p.parseExpr(js_ast.LAssign)
			p.expect(js_lexer.TColon, ":")
			no := p.parseExpr(js_ast.LAssign)
			left = js_ast.Expr{Loc: left.Loc, Data: &js_ast.EIf{Test: left, Yes: yes, No: no}}

		case js_lexer.TEquals:
			if level > js_ast.LAssign {
				return left
			}
			p.advance()
			right := p.parseExpr(js_ast.LAssign)
			left = js_ast.Expr{Loc: left.Loc, Data: &js_ast.EBinary{Op: js_ast.BinOpAssign, Left: left, Right: right}}

		default:
			if op, ok := assignOpCode[p.lexer.Token.Kind]; ok && op != js_ast.BinOpAssign {
				if level > js_ast.LAssign {
					return left
				}
				p.advance()
				right := p.parseExpr(js_ast.LAssign)
				left = js_ast.Expr{Loc: left.Loc, Data: &js_ast.EBinary{Op: op, Left: left, Right: right}}
				continue
			}

			if p.at(js_lexer.TIn) && !p.allowIn {
				return left
			}

			if prec, ok := binaryPrecedence[p.lexer.Token.Kind]; ok {
				if prec <= level {
					return left
				}
				op := binaryOpCode[p.lexer.Token.Kind]
				opTok := p.lexer.Token.Kind
				p.advance()
				nextLevel := prec
				if opTok != js_lexer.TAsteriskAsterisk {
					nextLevel = prec + 1
				}
				right := p.parseExpr(nextLevel)
				left = js_ast.Expr{Loc: left.Loc, Data: &js_ast.EBinary{Op: op, Left: left, Right: right}}
				continue
			}

			return left
		}
	}
}

// splitRegexLiteral splits the raw "/pattern/flags" source text of a regex
// literal token at its closing slash.
func splitRegexLiteral(raw string) (pattern string, flags string) {
	for i := len(raw) - 1; i > 0; i-- {
		if raw[i-1] != '\\' && raw[i] == '/' {
			return raw[1:i], raw[i+1:]
		}
	}
	return raw, ""
}

