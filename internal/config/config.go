// Package config holds the engine's option structs. RealmOptions is passed
// by value to builtins.Install; EngineOptions is not read by any other
// package.
package config

import "time"

// Capabilities is an explicit opt-in list for proposal-shaped built-ins,
// answering spec's Open Question about which stage-3-and-below features to
// include. Only PromiseTry and PromiseWithResolvers are read (by the Promise
// builtins); the other fields gate nothing.
type Capabilities struct {
	PromiseTry             bool
	PromiseWithResolvers   bool
	ArrayGrouping          bool
	IteratorHelpers        bool
	SetMethods             bool
	ExplicitResourceManagement bool
}

// DefaultCapabilities enables nothing extra: the engine's baseline is the
// stable, shipped-everywhere subset of the language.
func DefaultCapabilities() Capabilities {
	return Capabilities{}
}

// RealmOptions configures the intrinsics a new Realm is constructed with.
type RealmOptions struct {
	// ConsoleWritesTo, if set, is where console.log et al. write; a host
	// embedding the engine as a library can redirect it away from stdout.
	ConsoleWritesTo interface{} // io.Writer; typed as interface{} to avoid importing "io" into every caller

	Capabilities Capabilities
}

// EngineOptions is a top-level configuration bundle. No constructor in the
// engine (js_parser.Parse, the evaluator, internal/eventloop.Loop) takes it.
type EngineOptions struct {
	// IsModule treats the top-level source as a Module Record (import/export
	// allowed, top-level `this` is undefined) rather than a Script.
	IsModule bool

	Realm RealmOptions

	// TimerInlineThreshold mirrors internal/eventloop.Loop.InlineThreshold
	// (the wait at or below which the loop sleeps instead of using a
	// time.Timer); nothing copies it into a Loop.
	TimerInlineThreshold time.Duration

	// ModuleBasePath anchors relative import specifiers for internal/module.
	ModuleBasePath string
}

func DefaultEngineOptions() EngineOptions {
	return EngineOptions{
		Realm:                RealmOptions{Capabilities: DefaultCapabilities()},
		TimerInlineThreshold: 4 * time.Millisecond,
	}
}
