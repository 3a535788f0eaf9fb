// Copyright 2024 CUE Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package lang

import (
	"flitter.dev/flitter/internal/errors"
	"flitter.dev/flitter/internal/value"
)

// NameEntry is one binding in an Env. Exactly one of the fields below
// is meaningful at a time; Dynamic with none of the others set means
// "known to exist, but its value is not known until runtime" (spec.md
// §4.3 Name rule, "explicitly marked dynamic (value is None)").
type NameEntry struct {
	HasVector bool
	Vector    value.Vector

	Alias string // non-empty: this name is a rename of another name

	Func *Function // non-nil: this name is an inlinable function

	Dynamic bool
}

// Env is a lexical scope: a parent-linked, read-only chain of binding
// maps. Extending an Env never mutates the parent, which is what lets
// the simplifier and evaluator share structure across recursive calls
// (design note in spec.md §9 "structural sharing... preferred over
// deep copying").
type Env struct {
	parent   *Env
	bindings map[string]NameEntry
}

// NewEnv creates the (empty) root environment.
func NewEnv() *Env { return &Env{} }

// Extend returns a child Env with bindings layered over e.
func (e *Env) Extend(bindings map[string]NameEntry) *Env {
	return &Env{parent: e, bindings: bindings}
}

// Lookup walks the chain from e outward.
func (e *Env) Lookup(name string) (NameEntry, bool) {
	for env := e; env != nil; env = env.parent {
		if b, ok := env.bindings[name]; ok {
			return b, true
		}
	}
	return NameEntry{}, false
}

// callSite identifies one Call expression for the purposes of bounding
// recursive-function inlining (spec.md §4.3, §9).
type callSite struct {
	fn   *Function
	expr Expr
}

// Context is threaded through both the simplifier and the evaluator
// (spec.md §4.2). Names is swapped per lexical scope (plain field
// assignment, since Context is passed by value); Errors/Logs/Pragmas/
// State/calls are shared mutable state reached through pointers, so
// that a diagnostic recorded deep in a recursive call is visible to
// the caller.
type Context struct {
	Names *Env

	errs *errorSink
	logs *errorSink

	Pragmas map[string]value.Vector

	State *value.StateDict // nil if no state is available (e.g. simplifying without re-specialization)

	// Graph accumulates evaluated Nodes; only meaningful during
	// evaluation (C4), not simplification (C3).
	Graph *value.Node

	calls *callCounters

	// maxInlineDepth is the fixed per-call-site limit that
	// simplifyCall compares bumpCallCount's counter against to cap
	// recursive-function re-specialization (spec.md §9).
	maxInlineDepth int
}

type errorSink struct{ errs errors.Error }

func (s *errorSink) add(e errors.Error) { s.errs = errors.Append(s.errs, e) }

type callCounters struct{ m map[callSite]int }

// NewContext creates a fresh Context with the given static/dynamic
// names environment and an optional StateDict (nil is valid: Lookup
// then always misses).
func NewContext(names *Env, state *value.StateDict) *Context {
	return &Context{
		Names:          names,
		errs:           &errorSink{},
		logs:           &errorSink{},
		Pragmas:        map[string]value.Vector{},
		State:          state,
		calls:          &callCounters{m: map[callSite]int{}},
		maxInlineDepth: 8,
	}
}

// WithNames returns a shallow copy of ctx scoped to a new Env; the
// shared accumulators (errors, logs, pragmas, calls) are unchanged.
func (ctx *Context) WithNames(names *Env) *Context {
	cp := *ctx
	cp.Names = names
	return &cp
}

// AddError records a simplifier/evaluator diagnostic (spec.md §7:
// these never propagate as panics).
func (ctx *Context) AddError(e errors.Error) { ctx.errs.add(e) }

// AddErrorf is a convenience wrapper around AddError.
func (ctx *Context) AddErrorf(format string, args ...interface{}) {
	ctx.errs.add(errors.Newf(errors.Pos{}, format, args...))
}

// AddLog records a `debug`/`!log` message.
func (ctx *Context) AddLog(format string, args ...interface{}) {
	ctx.logs.add(errors.Newf(errors.Pos{}, format, args...))
}

// Errors returns all errors recorded on ctx (and any Context derived
// from it via WithNames).
func (ctx *Context) Errors() errors.Error { return ctx.errs.errs }

// Logs returns all debug logs recorded on ctx.
func (ctx *Context) Logs() errors.Error { return ctx.logs.errs }

// bumpCallCount reports how many times site has been specialized so far,
// and increments the counter for next time.
func (ctx *Context) bumpCallCount(site callSite) int {
	n := ctx.calls.m[site]
	ctx.calls.m[site] = n + 1
	return n
}

// appendChild adds n to the evaluation graph accumulator. Graph may be
// nil for expressions evaluated outside of a Top (e.g. in tests); in
// that case the child is silently dropped, matching "non-top-level"
// evaluation having no graph to append to.
func (ctx *Context) appendChild(n *value.Node) {
	if ctx.Graph == nil {
		return
	}
	ctx.Graph = ctx.Graph.Append(n)
}
