// Package module implements the relative-path module loader: resolution
// (adapted from esbuild's internal/resolver, trimmed to the bare relative-
// specifier subset an embedded interpreter needs — no node_modules, no
// package.json "exports" map), a module record cache (adapted from esbuild's
// internal/cache), and the two-phase link/evaluate cycle spec §4.7 describes.
package module

import (
	"github.com/jsrun/jsengine/internal/js_ast"
	"github.com/jsrun/jsengine/internal/runtime"
	"github.com/jsrun/jsengine/internal/value"
)

// defaultBindingName is the synthetic module-scoped binding `export default`
// assigns into — never reachable from user source, so it can't collide with
// a real identifier.
const defaultBindingName = "*default*"

type status uint8

const (
	statusLinking status = iota
	statusLinked
)

// reexport is one entry of an `export { a as b } from "./dep"` clause:
// ItemName is the name exported by dep, ItemAlias is the name this module
// re-exports it under.
type reexport struct {
	Dep       *Record
	ItemName  string
	ItemAlias string
}

// Record is one resolved, parsed module. Re-importing the same resolved
// path returns the same Record — Loader.records is the cache.
type Record struct {
	Path   string // resolved absolute path, also the cache key
	AST    js_ast.AST
	Stmts  []js_ast.Stmt // AST.Stmts with `export default` rewritten to an assignment
	Env    *runtime.Environment
	Status status

	// Exports maps an exported name to the local binding name in Env that
	// holds it ("default" maps to defaultBindingName; most others map to
	// themselves).
	Exports map[string]string

	// ReexportsFrom holds `export { a as b } from "./dep"` entries: the
	// exported name "b" resolves through Dep rather than through Env.
	ReexportsFrom []reexport

	// StarReexports holds the dependencies of `export * from "./dep"`
	// (and `export * as ns from "./dep"`, which additionally binds a
	// namespace import — see Loader.Link).
	StarReexports []*Record

	// Dependencies lists every resolved path this module statically
	// imports or re-exports from, in source order, for the Evaluate
	// phase's post-order walk.
	Dependencies []string

	HasDefault bool
	Namespace  *value.Object
	Evaluated  bool
}

func newRecord(path string, ast js_ast.AST, env *runtime.Environment) *Record {
	return &Record{
		Path:    path,
		AST:     ast,
		Env:     env,
		Status:  statusLinking,
		Exports: make(map[string]string),
	}
}

// collectExportNames gathers every name Record.Namespace should expose:
// own exports, re-exported names, and (non-transitively-default) star
// re-exports. visited guards against export-star cycles.
func collectExportNames(rec *Record, names map[string]bool, visited map[*Record]bool, includeDefault bool) {
	if visited[rec] {
		return
	}
	visited[rec] = true
	for name := range rec.Exports {
		if name == "default" && !includeDefault {
			continue
		}
		names[name] = true
	}
	for _, re := range rec.ReexportsFrom {
		if re.ItemAlias == "default" && !includeDefault {
			continue
		}
		names[re.ItemAlias] = true
	}
	for _, dep := range rec.StarReexports {
		collectExportNames(dep, names, visited, false)
	}
}

// resolveExportBinding implements spec's ResolveExport: follow re-export
// chains (direct, named-from, and star) until a name bottoms out at an
// environment and local binding name actually holding a value.
func resolveExportBinding(rec *Record, name string) (*runtime.Environment, string, bool) {
	return resolveExportBindingVisited(rec, name, map[*Record]bool{})
}

func resolveExportBindingVisited(rec *Record, name string, visited map[*Record]bool) (*runtime.Environment, string, bool) {
	if visited[rec] {
		return nil, "", false
	}
	visited[rec] = true
	if local, ok := rec.Exports[name]; ok {
		return rec.Env, local, true
	}
	for _, re := range rec.ReexportsFrom {
		if re.ItemAlias == name {
			return resolveExportBindingVisited(re.Dep, re.ItemName, visited)
		}
	}
	for _, dep := range rec.StarReexports {
		if env, local, ok := resolveExportBindingVisited(dep, name, visited); ok {
			return env, local, true
		}
	}
	return nil, "", false
}
