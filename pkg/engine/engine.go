// Package engine is the library entry point this repo's CLI (cmd/jsrun) and
// any embedding host builds against, the equivalent of esbuild's pkg/api:
// a small surface over internal/* wiring a Realm, an Interpreter, a module
// Loader, and an event loop together so a caller never has to construct
// those pieces itself.
package engine

import (
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/jsrun/jsengine/internal/builtins"
	"github.com/jsrun/jsengine/internal/config"
	"github.com/jsrun/jsengine/internal/eventloop"
	"github.com/jsrun/jsengine/internal/evaluator"
	"github.com/jsrun/jsengine/internal/js_ast"
	"github.com/jsrun/jsengine/internal/js_parser"
	"github.com/jsrun/jsengine/internal/logger"
	"github.com/jsrun/jsengine/internal/module"
	"github.com/jsrun/jsengine/internal/runtime"
	"github.com/jsrun/jsengine/internal/value"
)

// Engine bundles one realm's worth of state: a fresh Engine is one
// completely isolated global environment, matching spec §9's
// one-Realm-per-embedding expectation.
type Engine struct {
	Realm  *runtime.Realm
	Interp *evaluator.Interpreter
	Loop   *eventloop.Loop
	Loader *module.Loader
	Env    *runtime.Environment

	log      logger.Log
	nextFile uint32
}

// Options configures a new Engine. The zero value is a usable default
// (stdout console, no extra capabilities).
type Options struct {
	ConsoleWritesTo io.Writer
	Capabilities    config.Capabilities
}

// New constructs an Engine: a Realm with every built-in installed, an
// Interpreter and event loop bound to it, and a module Loader wired for
// dynamic import().
func New(opts Options) *Engine {
	realm := runtime.NewRealm()
	loop := eventloop.NewLoop()
	interp := evaluator.NewInterpreter(realm, loop)

	realmOpts := config.RealmOptions{Capabilities: opts.Capabilities}
	if opts.ConsoleWritesTo != nil {
		realmOpts.ConsoleWritesTo = opts.ConsoleWritesTo
	}
	env := builtins.Install(realm, interp, loop, realmOpts)

	log := logger.NewDeferLog()
	loader := module.NewLoader(realm, interp, log)

	return &Engine{Realm: realm, Interp: interp, Loop: loop, Loader: loader, Env: env, log: log}
}

// Result is what EvaluateScript/EvaluateFile return: the value the top-level
// program completed with (its last expression statement's value, the REPL
// convention) plus any uncaught exception.
type Result struct {
	Value     value.Value
	Exception *value.Completion
}

// EvaluateScript parses and runs source as a Script (not a Module — no
// import/export, `this` at top level is the global object) in
// this Engine's realm, then drains the event loop so queued timers/
// microtases from the script's own Promise/setTimeout calls run to
// completion before returning.
func (e *Engine) EvaluateScript(source, filename string) (Result, error) {
	stmts, err := e.parse(source, filename)
	if err != nil {
		return Result{}, err
	}
	return e.run(stmts), nil
}

// EvaluateModule loads filename as a module entry point end to end (resolve,
// link, evaluate relative imports against its own directory), the shape
// `jsrun run <file> --module` needs. internal/module only resolves
// filesystem paths (spec §4.7's relative-only resolution), so unlike
// EvaluateScript this has no source-string form.
func (e *Engine) EvaluateModule(filename string) error {
	if _, err := e.Loader.LoadEntry(filename); err != nil {
		return err
	}
	e.Loop.Run()
	return nil
}

// RunScriptFile loads filename as a plain Script (no module semantics).
func (e *Engine) RunScriptFile(filename string) (Result, error) {
	contents, err := os.ReadFile(filename)
	if err != nil {
		return Result{}, errors.Wrapf(err, "reading script %q", filename)
	}
	return e.EvaluateScript(string(contents), filename)
}

func (e *Engine) parse(source, filename string) ([]js_ast.Stmt, error) {
	e.nextFile++
	src := logger.Source{
		Index:      e.nextFile,
		KeyPath:    logger.Path{Text: filename},
		PrettyPath: filename,
		Contents:   source,
	}
	ast, ok := js_parser.Parse(e.log, src, js_parser.ParseOptions{IsModule: false})
	if !ok {
		return nil, fmt.Errorf("syntax error parsing %q: %s", filename, formatParseErrors(e.log))
	}
	return ast.Stmts, nil
}

// run executes stmts as a hoisted top-level program, capturing the trailing
// expression statement's value for REPL-style display -- ordinary statement
// completion discards its value (internal/evaluator's execStmt only ever
// returns non-nil for an abrupt completion), so the last statement is
// special-cased here when it is a bare expression.
func (e *Engine) run(stmts []js_ast.Stmt) Result {
	e.Interp.Hoist(stmts, e.Env)

	body := stmts
	var trailing *js_ast.SExpr
	if n := len(stmts); n > 0 {
		if se, ok := stmts[n-1].Data.(*js_ast.SExpr); ok {
			trailing = se
			body = stmts[:n-1]
		}
	}

	if c := e.Interp.RunStatements(body, e.Env); c != nil {
		e.Loop.Run()
		return Result{Exception: c}
	}

	var result value.Value
	if trailing != nil {
		v, c := e.Interp.EvalExpr(trailing.Value, e.Env)
		if c != nil {
			e.Loop.Run()
			return Result{Exception: c}
		}
		result = v
	}

	e.Loop.Run()
	return Result{Value: result}
}

func formatParseErrors(log logger.Log) string {
	msgs := log.Done()
	if len(msgs) == 0 {
		return "unknown error"
	}
	return msgs[0].Data.Text
}
