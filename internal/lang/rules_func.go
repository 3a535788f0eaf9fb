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
	"sort"

	"golang.org/x/exp/maps"

	"flitter.dev/flitter/internal/value"
)

// freeVars computes the free variables of e: names referenced that
// are not in bound. Used by the Function rule to compute captures
// (spec.md §4.3 "Function").
func freeVars(e Expr, bound map[string]bool, out map[string]bool) {
	if e == nil {
		return
	}
	switch x := e.(type) {
	case *Literal:
	case *Name:
		if !bound[x.Name] {
			out[x.Name] = true
		}
	case *Lookup:
		freeVars(x.Key, bound, out)
	case *Search:
		freeVars(x.Query, bound, out)
	case *Unary:
		freeVars(x.Expr, bound, out)
	case *Binary:
		freeVars(x.Left, bound, out)
		freeVars(x.Right, bound, out)
	case *Range:
		freeVars(x.Start, bound, out)
		freeVars(x.Stop, bound, out)
		freeVars(x.Step, bound, out)
	case *Slice:
		freeVars(x.Expr, bound, out)
		freeVars(x.Index, bound, out)
	case *Sequence:
		for _, it := range x.Items {
			freeVars(it, bound, out)
		}
	case *NodeExpr:
		freeVars(x.Kind, bound, out)
	case *Tag:
		freeVars(x.Expr, bound, out)
	case *Attributes:
		freeVars(x.Expr, bound, out)
		for _, b := range x.Bindings {
			freeVars(b.Expr, bound, out)
		}
	case *Append:
		freeVars(x.Parent, bound, out)
		freeVars(x.Children, bound, out)
	case *Let:
		for _, pb := range x.Bindings {
			freeVars(pb.Expr, bound, out)
		}
	case *InlineLet:
		inner := extendBound(bound, x.Bindings)
		freeVars(x.Body, inner, out)
		for _, pb := range x.Bindings {
			freeVars(pb.Expr, bound, out)
		}
	case *For:
		inner := extendBoundNames(bound, x.Names)
		freeVars(x.Source, bound, out)
		freeVars(x.Body, inner, out)
	case *IfElse:
		for _, c := range x.Conditions {
			freeVars(c.Test, bound, out)
			freeVars(c.Then, bound, out)
		}
		freeVars(x.Else, bound, out)
	case *Call:
		freeVars(x.Fn, bound, out)
		for _, a := range x.Args {
			freeVars(a, bound, out)
		}
		for _, k := range x.KwArgs {
			freeVars(k.Expr, bound, out)
		}
	case *Function:
		inner := extendBoundNames(bound, paramNames(x.Params))
		if x.Name != "" {
			inner = extendBoundNames(inner, []string{x.Name})
		}
		freeVars(x.Body, inner, out)
		for _, p := range x.Params {
			freeVars(p.Default, bound, out)
		}
	case *Pragma:
		freeVars(x.Expr, bound, out)
	case *Import:
	case *StoreGlobal:
		for _, pb := range x.Bindings {
			freeVars(pb.Expr, bound, out)
		}
	case *Top:
		for _, it := range x.Items {
			freeVars(it, bound, out)
		}
	}
}

func paramNames(params []Param) []string {
	out := make([]string, len(params))
	for i, p := range params {
		out[i] = p.Name
	}
	return out
}

func extendBoundNames(bound map[string]bool, names []string) map[string]bool {
	out := make(map[string]bool, len(bound)+len(names))
	for k := range bound {
		out[k] = true
	}
	for _, n := range names {
		out[n] = true
	}
	return out
}

func extendBound(bound map[string]bool, bindings []PolyBinding) map[string]bool {
	out := make(map[string]bool, len(bound))
	for k := range bound {
		out[k] = true
	}
	for _, pb := range bindings {
		for _, n := range pb.Names {
			out[n] = true
		}
	}
	return out
}

// simplifyFunction implements the Function rule: simplify defaults and
// body with parameters marked dynamic, compute free variables, and
// install the function into names either as an inlining candidate
// (empty captures) or as dynamic (has captures), so that a later
// Name(f) does or doesn't fold to the function value.
func simplifyFunction(f *Function, ctx *Context) Expr {
	dynamic := map[string]NameEntry{}
	for _, p := range f.Params {
		dynamic[p.Name] = NameEntry{Dynamic: true}
	}
	bodyCtx := ctx.WithNames(ctx.Names.Extend(dynamic))

	params := make([]Param, len(f.Params))
	for i, p := range f.Params {
		def := p.Default
		if def != nil {
			def = Simplify(def, ctx)
		}
		params[i] = Param{Name: p.Name, Default: def}
	}
	body := Simplify(f.Body, bodyCtx)

	bound := map[string]bool{}
	for _, p := range params {
		bound[p.Name] = true
	}
	free := map[string]bool{}
	freeVars(body, bound, free)

	recursive := false
	if f.Name != "" {
		if _, ok := free[f.Name]; ok {
			delete(free, f.Name)
			recursive = true
		}
	}
	// Captures must be in a stable order since they end up in fn.Captures
	// and therefore affect exprEqual's fixed-point check; maps.Keys plus a
	// sort gets that deterministically instead of depending on Go's
	// randomized map iteration.
	captures := maps.Keys(free)
	sort.Strings(captures)

	fn := &Function{Name: f.Name, Params: params, Body: body, Captures: captures, Recursive: recursive, Env: ctx.Names}

	if f.Name != "" {
		if len(captures) == 0 {
			ctx.Names = ctx.Names.Extend(map[string]NameEntry{f.Name: {Func: fn}})
		} else {
			ctx.Names = ctx.Names.Extend(map[string]NameEntry{f.Name: {Dynamic: true}})
		}
	}
	return fn
}

// simplifyCall implements the Call rule: invoke a literal builtin when
// every argument is literal; otherwise inline an inlineable user
// Function, bounded against recursive divergence by ctx.maxInlineDepth.
func simplifyCall(c *Call, ctx *Context) Expr {
	fn := Simplify(c.Fn, ctx)
	args := make([]Expr, len(c.Args))
	allArgsLiteral := true
	for i, a := range c.Args {
		args[i] = Simplify(a, ctx)
		if _, ok := IsLiteral(args[i]); !ok {
			allArgsLiteral = false
		}
	}
	kwargs := make([]KwArg, len(c.KwArgs))
	for i, k := range c.KwArgs {
		kwargs[i] = KwArg{Name: k.Name, Expr: Simplify(k.Expr, ctx)}
		if _, ok := IsLiteral(kwargs[i].Expr); !ok {
			allArgsLiteral = false
		}
	}

	if b, ok := IsBuiltinLiteral(fn); ok && b.Pure && allArgsLiteral && len(kwargs) == 0 {
		if b.MaxArgs >= 0 && len(args) > b.MaxArgs {
			ctx.AddErrorf("too many arguments to %q", b.Name)
			return Null()
		}
		if len(args) < b.MinArgs {
			ctx.AddErrorf("too few arguments to %q", b.Name)
			return Null()
		}
		vecArgs := make([]value.Vector, len(args))
		for i, a := range args {
			vecArgs[i], _ = IsLiteral(a)
		}
		return &Literal{Value: b.Fn(vecArgs)}
	}

	userFn := resolveInlineFunction(fn, ctx)
	if userFn != nil && (!userFn.Recursive || allArgsLiteral) {
		site := callSite{fn: userFn, expr: c}
		if userFn.Recursive {
			if ctx.bumpCallCount(site) >= ctx.maxInlineDepth {
				return &Call{Fn: fn, Args: args, KwArgs: kwargs}
			}
		}
		bindings := bindCallArgs(userFn, args, kwargs)
		return &InlineLet{Body: userFn.Body, Bindings: bindings}
	}

	return &Call{Fn: fn, Args: args, KwArgs: kwargs}
}

// resolveInlineFunction reports whether fn denotes an inlinable user
// function: either the Function value itself, or a bare Name left
// behind by simplifyName because names[n].Func != nil.
func resolveInlineFunction(fn Expr, ctx *Context) *Function {
	if f, ok := fn.(*Function); ok {
		return f
	}
	if n, ok := fn.(*Name); ok {
		if entry, found := ctx.Names.Lookup(n.Name); found && entry.Func != nil {
			return entry.Func
		}
	}
	return nil
}

func bindCallArgs(fn *Function, args []Expr, kwargs []KwArg) []PolyBinding {
	byName := map[string]Expr{}
	for _, k := range kwargs {
		byName[k.Name] = k.Expr
	}
	bindings := make([]PolyBinding, len(fn.Params))
	for i, p := range fn.Params {
		var e Expr
		switch {
		case i < len(args):
			e = args[i]
		case byName[p.Name] != nil:
			e = byName[p.Name]
		case p.Default != nil:
			e = p.Default
		default:
			e = Null()
		}
		bindings[i] = PolyBinding{Names: []string{p.Name}, Expr: e}
	}
	return bindings
}
