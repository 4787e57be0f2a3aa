package module

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/jsrun/jsengine/internal/evaluator"
	"github.com/jsrun/jsengine/internal/helpers"
	"github.com/jsrun/jsengine/internal/js_ast"
	"github.com/jsrun/jsengine/internal/js_parser"
	"github.com/jsrun/jsengine/internal/logger"
	"github.com/jsrun/jsengine/internal/runtime"
	"github.com/jsrun/jsengine/internal/value"
)

// Loader owns the module record cache for one Interpreter/Realm pair and
// drives the two-phase link/evaluate cycle spec §4.7 describes. One Loader
// is created per engine instance (pkg/engine wires it up), mirroring
// esbuild's one-bundle-per-build cache lifetime.
type Loader struct {
	Realm *runtime.Realm
	Interp *evaluator.Interpreter
	Log   logger.Log

	records    map[string]*Record
	nextIndex  uint32
}

func NewLoader(realm *runtime.Realm, interp *evaluator.Interpreter, log logger.Log) *Loader {
	l := &Loader{Realm: realm, Interp: interp, Log: log, records: make(map[string]*Record)}
	interp.ImportModule = l.ImportModule
	return l
}

// LoadEntry resolves, links, and evaluates the module at path (an entry
// point, so it need not be relative — it's resolved against the current
// working directory instead of an importing file).
func (l *Loader) LoadEntry(path string) (*Record, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrapf(err, "resolving entry module %q", path)
	}
	rec, err := l.Link(abs)
	if err != nil {
		return nil, err
	}
	if c := l.Evaluate(rec); c != nil {
		return rec, fmt.Errorf("uncaught exception in %s: %s", rec.Path, describeCompletion(c))
	}
	return rec, nil
}

// ImportModule backs both the evaluator's dynamic import() expression and
// any host-level "import a module by specifier" call; specifier is resolved
// against the current working directory the same way an entry point is,
// since a dynamic import has no statically-known importing file once it
// reaches here as a bare string.
func (l *Loader) ImportModule(specifier string) (value.Value, error) {
	rec, err := l.LoadEntry(specifier)
	if err != nil {
		return value.Value{}, err
	}
	return value.FromObject(l.namespaceFor(rec)), nil
}

// Link resolves path to a Record, parsing and hoisting it (but not running
// its body) and recursively linking every module it statically imports or
// re-exports from. Re-linking an already-linked or currently-linking path
// (the latter meaning a circular import) just returns the cached Record —
// its bindings exist (from its own Hoist call) even before its body runs,
// which is exactly what indirect-binding aliasing needs.
func (l *Loader) Link(path string) (*Record, error) {
	if rec, ok := l.records[path]; ok {
		return rec, nil
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading module %q", path)
	}

	idx := l.nextIndex
	l.nextIndex++
	source := logger.Source{
		Index:      idx,
		KeyPath:    logger.Path{Text: path},
		PrettyPath: path,
		Contents:   string(contents),
	}
	ast, ok := js_parser.Parse(l.Log, source, js_parser.ParseOptions{IsModule: true})
	if !ok {
		return nil, fmt.Errorf("syntax error parsing module %q", path)
	}

	env := runtime.NewModuleEnvironment(l.Realm.GlobalEnv)
	rec := newRecord(path, ast, env)
	l.records[path] = rec

	// `import.meta`'s stabilized surrogate (spec §4.7): the module's own
	// path, readable by the module body. Nothing else reads it: import()
	// resolves its specifier against the working directory (ImportModule),
	// and `import.meta` itself evaluates to undefined.
	env.CreateAndInitializeVar("__filepath", value.StringFromGo(path))

	// The default-export slot always exists, even for modules that never
	// declare one — harmless, and lets `import x from "./dep"` bind without
	// a special case (Link below still rejects it if dep.HasDefault is false).
	env.CreateMutableBinding(defaultBindingName, false)
	env.InitializeBinding(defaultBindingName, value.Undefined())

	scanExports(ast.Stmts, rec)
	rec.Stmts = rewriteDefaultExports(ast.Stmts)
	l.Interp.Hoist(rec.Stmts, env)

	for _, s := range ast.Stmts {
		switch d := s.Data.(type) {
		case *js_ast.SImport:
			dep, depPath, err := l.linkDependency(path, d.Path)
			if err != nil {
				return nil, err
			}
			rec.Dependencies = append(rec.Dependencies, depPath)
			if err := l.bindImportClause(env, dep, d.Clause); err != nil {
				return nil, err
			}

		case *js_ast.SExportFrom:
			dep, depPath, err := l.linkDependency(path, d.Path)
			if err != nil {
				return nil, err
			}
			rec.Dependencies = append(rec.Dependencies, depPath)
			for _, item := range d.Items {
				rec.ReexportsFrom = append(rec.ReexportsFrom, reexport{Dep: dep, ItemName: item.Name, ItemAlias: item.Alias})
			}

		case *js_ast.SExportStar:
			dep, depPath, err := l.linkDependency(path, d.Path)
			if err != nil {
				return nil, err
			}
			rec.Dependencies = append(rec.Dependencies, depPath)
			rec.StarReexports = append(rec.StarReexports, dep)
			if d.Alias != nil {
				ns := l.namespaceFor(dep)
				env.CreateImmutableBinding(*d.Alias)
				env.InitializeBinding(*d.Alias, value.FromObject(ns))
			}
		}
	}

	rec.Status = statusLinked
	return rec, nil
}

func (l *Loader) linkDependency(fromPath, specifier string) (*Record, string, error) {
	depPath, err := resolveSpecifier(fromPath, specifier)
	if err != nil {
		return nil, "", err
	}
	dep, err := l.Link(depPath)
	if err != nil {
		return nil, "", err
	}
	return dep, depPath, nil
}

func (l *Loader) bindImportClause(env *runtime.Environment, dep *Record, clause js_ast.ImportClause) error {
	if clause.DefaultName != nil {
		if !dep.HasDefault {
			return fmt.Errorf("module %q has no default export", dep.Path)
		}
		env.BindImportedBinding(*clause.DefaultName, dep.Env, defaultBindingName)
	}
	if clause.StarAlias != nil {
		ns := l.namespaceFor(dep)
		env.CreateImmutableBinding(*clause.StarAlias)
		env.InitializeBinding(*clause.StarAlias, value.FromObject(ns))
	}
	for _, item := range clause.NamedImports {
		srcEnv, localName, ok := resolveExportBinding(dep, item.Name)
		if !ok {
			return fmt.Errorf("module %q has no export named %q", dep.Path, item.Name)
		}
		env.BindImportedBinding(item.Alias, srcEnv, localName)
	}
	return nil
}

// Evaluate runs rec's body if it hasn't already, first evaluating every
// dependency (post-order, matching spec's InnerModuleEvaluation). Evaluated
// is set before recursing so a circular import sees this module as already
// "done" rather than looping forever — the dependency cycle's second leg
// observes whatever bindings the first leg had initialized by that point,
// the same best-effort circular semantics CommonJS's require() gives.
func (l *Loader) Evaluate(rec *Record) *value.Completion {
	if rec.Evaluated {
		return nil
	}
	rec.Evaluated = true
	for _, depPath := range rec.Dependencies {
		dep := l.records[depPath]
		if c := l.Evaluate(dep); c != nil {
			return c
		}
	}
	return l.Interp.RunStatements(rec.Stmts, rec.Env)
}

// namespaceFor builds (once) the module namespace object `import * as ns`
// and dynamic import() resolve to: a non-extensible object whose own
// properties are accessors reading live through to the exporting
// environment's binding, per spec's immutable-but-live namespace semantics.
func (l *Loader) namespaceFor(rec *Record) *value.Object {
	if rec.Namespace != nil {
		return rec.Namespace
	}
	ns := value.NewObject(nil)
	ns.SetClass("Module")
	ns.Exotic = value.ExoticModuleNamespace
	ns.Extensible = false

	names := map[string]bool{}
	collectExportNames(rec, names, map[*Record]bool{}, true)
	for name := range names {
		name := name
		getter := l.nativeFunc(func(value.Value, []value.Value) (value.Value, *value.Completion) {
			srcEnv, localName, ok := resolveExportBinding(rec, name)
			if !ok {
				return value.Undefined(), nil
			}
			return srcEnv.GetBindingValue(localName)
		})
		ns.DefineOwnProperty(name, value.PropertyDescriptor{Get: getter, HasGetOrSet: true, Enumerable: true, Configurable: false})
	}
	if sym := l.Realm.WellKnownSymbols["toStringTag"]; sym != nil {
		ns.DefineOwnPropertySymbol(sym, value.DataProperty(value.StringFromGo("Module"), false, false, false))
	}
	rec.Namespace = ns
	return ns
}

func (l *Loader) nativeFunc(fn value.CallFunc) *value.Object {
	obj := value.NewObject(l.Realm.Intrinsic("Function.prototype"))
	obj.SetClass("Function")
	obj.Exotic = value.ExoticFunction
	obj.Call = fn
	return obj
}

// resolveSpecifier implements the relative-only resolution spec §4.7 asks
// for: specifiers starting with "./" or "../" resolve against the importing
// file's directory, trying the literal path, then ".js"/".mjs", then
// "/index.js" — no node_modules, no package.json "exports" map, both out of
// scope for an embedded interpreter with no package manager underneath it.
func resolveSpecifier(fromPath, specifier string) (string, error) {
	if len(specifier) < 2 || (specifier[:2] != "./" && (len(specifier) < 3 || specifier[:3] != "../")) {
		return "", fmt.Errorf("module specifier %q must be relative (start with \"./\" or \"../\")", specifier)
	}
	base := filepath.Join(filepath.Dir(fromPath), specifier)
	for _, candidate := range []string{base, base + ".js", base + ".mjs", filepath.Join(base, "index.js")} {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("cannot resolve module %q from %q", specifier, fromPath)
}

// describeCompletion formats an uncaught throw completion for the CLI/host
// boundary — best-effort, since the value model has no generic ToString
// exposed outside internal/evaluator.
func describeCompletion(c *value.Completion) string {
	v := c.Value
	if v.Kind == value.KindObject && v.Obj != nil {
		name := "Error"
		message := ""
		if d, ok := v.Obj.GetOwnProperty("name"); ok && d.HasValue && d.Value.Kind == value.KindString {
			name = helpers.UTF16ToString(d.Value.Str)
		}
		if d, ok := v.Obj.GetOwnProperty("message"); ok && d.HasValue && d.Value.Kind == value.KindString {
			message = helpers.UTF16ToString(d.Value.Str)
		}
		if message != "" {
			return name + ": " + message
		}
		return name
	}
	switch v.Kind {
	case value.KindString:
		return helpers.UTF16ToString(v.Str)
	case value.KindNumber:
		return fmt.Sprintf("%v", v.Num)
	case value.KindBoolean:
		return fmt.Sprintf("%v", v.Bool)
	case value.KindUndefined:
		return "undefined"
	case value.KindNull:
		return "null"
	default:
		return "(unknown error value)"
	}
}
