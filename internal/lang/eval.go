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

// This file is C4, the tree-walk evaluator: grounded on cue/eval.go's
// shape (a single recursive `evaluate` dispatched by type switch over
// a closed expression family, threading one Context throughout) and
// cue/binop.go's split of arithmetic into its own dispatch table,
// mirrored here by rules_arith.go's applyBinary/applyUnary which both
// the simplifier and this evaluator call. Most of the tree arriving
// here has already been folded to literals by Simplify; the evaluator
// exists for whatever the simplifier legitimately left dynamic: a
// Lookup whose key only becomes literal once state is replayed inside
// a frame, a Call through a captured Function, a For over a runtime
// vector, and so on.
package lang

import (
	"flitter.dev/flitter/internal/value"
)

// result is the value of evaluating one expression: either a Vector,
// or (for the node-construction family) a sequence of Nodes. Exactly
// one of the two is meaningful, selected by isNodes.
type result struct {
	vec     value.Vector
	nodes   []*value.Node
	isNodes bool
}

func vecResult(v value.Vector) result { return result{vec: v} }
func nodeResult(ns []*value.Node) result {
	return result{nodes: ns, isNodes: true}
}

// asVector coerces a result down to a Vector (a node-valued result
// coerces to null, since Nodes have no vector representation).
func (r result) asVector() value.Vector {
	if r.isNodes {
		return value.Null()
	}
	return r.vec
}

func (r result) asNodes() []*value.Node {
	if r.isNodes {
		return r.nodes
	}
	return nil
}

// EvalTop evaluates a simplified Top into ctx.Graph (spec.md §4.2):
// StoreGlobal children write into ctx.State; node-producing children
// append to ctx.Graph's children. ctx.Graph must already hold the
// frame's root Node before calling EvalTop.
func EvalTop(t *Top, ctx *Context) {
	for _, item := range t.Items {
		switch x := item.(type) {
		case *StoreGlobal:
			evalStoreGlobal(x, ctx)
		default:
			r := Evaluate(item, ctx)
			for _, n := range r.asNodes() {
				ctx.appendChild(n)
			}
		}
	}
}

func evalStoreGlobal(s *StoreGlobal, ctx *Context) {
	if ctx.State == nil {
		return
	}
	for _, pb := range s.Bindings {
		v := Evaluate(pb.Expr, ctx).asVector()
		n := v.Len()
		for i, name := range pb.Names {
			var slice value.Vector
			if n > 0 {
				slice = v.At(i % n)
			}
			ctx.State.Set(value.SymbolOf(name), slice)
		}
	}
}

// Evaluate is the general dispatcher (spec.md §4.2 "evaluate(ctx) ->
// Vector"), extended to also produce Nodes for the node-construction
// family.
func Evaluate(e Expr, ctx *Context) result {
	switch x := e.(type) {
	case *Literal:
		if x.Node != nil {
			return nodeResult([]*value.Node{x.Node})
		}
		return vecResult(x.Value)
	case *Name:
		return vecResult(evalName(x, ctx))
	case *Lookup:
		key := Evaluate(x.Key, ctx).asVector()
		if ctx.State == nil {
			return vecResult(value.Null())
		}
		v, _ := ctx.State.Get(key)
		return vecResult(v)
	case *Search:
		return vecResult(evalSearch(x, ctx))
	case *Unary:
		return vecResult(applyUnary(x.Op, Evaluate(x.Expr, ctx).asVector()))
	case *Binary:
		return vecResult(applyBinary(x.Op, Evaluate(x.Left, ctx).asVector(), Evaluate(x.Right, ctx).asVector()))
	case *Range:
		start, sok := Evaluate(x.Start, ctx).asVector().Float64()
		stop, tok := Evaluate(x.Stop, ctx).asVector().Float64()
		step, pok := Evaluate(x.Step, ctx).asVector().Float64()
		if !sok || !tok || !pok {
			return vecResult(value.Null())
		}
		return vecResult(value.Range(start, stop, step))
	case *Slice:
		target := Evaluate(x.Expr, ctx).asVector()
		index := Evaluate(x.Index, ctx).asVector()
		if index.Len() != 1 {
			return vecResult(value.Null())
		}
		f, ok := index.Float64()
		if !ok {
			return vecResult(value.Null())
		}
		return vecResult(target.At(int(f)))
	case *Sequence:
		return evalSequence(x, ctx)
	case *NodeExpr:
		return evalNodeExpr(x, ctx)
	case *Tag:
		return evalTag(x, ctx)
	case *Attributes:
		return evalAttributes(x, ctx)
	case *Append:
		return evalAppend(x, ctx)
	case *Let:
		evalLetInto(ctx, x.Bindings)
		return vecResult(value.Null())
	case *InlineLet:
		inner := ctx.WithNames(ctx.Names)
		evalLetInto(inner, x.Bindings)
		return Evaluate(x.Body, inner)
	case *For:
		return evalFor(x, ctx)
	case *IfElse:
		return evalIfElse(x, ctx)
	case *Call:
		return evalCall(x, ctx)
	case *Function:
		return vecResult(value.Null()) // a Function literal has no vector form; callers use IsLiteral(Func) via names
	case *Pragma:
		if x.Name == "log" {
			ctx.AddLog("%s", Evaluate(x.Expr, ctx).asVector())
		}
		return Evaluate(x.Expr, ctx)
	case *Import:
		return vecResult(value.Null())
	case *StoreGlobal:
		evalStoreGlobal(x, ctx)
		return vecResult(value.Null())
	case *Top:
		EvalTop(x, ctx)
		return vecResult(value.Null())
	}
	return vecResult(value.Null())
}

func evalName(n *Name, ctx *Context) value.Vector {
	entry, ok := ctx.Names.Lookup(n.Name)
	if !ok {
		if v, isConst := constantBuiltinValue(n.Name); isConst {
			return v
		}
		ctx.AddErrorf("unbound name %q", n.Name)
		return value.Null()
	}
	if entry.HasVector {
		return entry.Vector
	}
	if entry.Alias != "" {
		return evalName(&Name{Name: entry.Alias}, ctx)
	}
	ctx.AddErrorf("name %q has no value at evaluation time", n.Name)
	return value.Null()
}

func evalSearch(s *Search, ctx *Context) value.Vector {
	if ctx.Graph == nil {
		return value.Null()
	}
	q := Evaluate(s.Query, ctx).asVector()
	if !q.IsSymbolic() || q.Len() == 0 {
		return value.Null()
	}
	found := ctx.Graph.Select(q.SymbolsSlice()[0], q.SymbolsSlice()[1:]...)
	if len(found) == 0 {
		return value.Null()
	}
	return value.SymbolOf(found[0].Kind().String())
}

func evalSequence(s *Sequence, ctx *Context) result {
	var vecs []value.Vector
	var nodes []*value.Node
	sawNodes := false
	for _, it := range s.Items {
		r := Evaluate(it, ctx)
		if r.isNodes {
			sawNodes = true
			nodes = append(nodes, r.nodes...)
			continue
		}
		vecs = append(vecs, r.vec)
	}
	if sawNodes {
		return nodeResult(nodes)
	}
	return vecResult(value.ConcatAll(vecs...))
}

func evalNodeExpr(x *NodeExpr, ctx *Context) result {
	kind := Evaluate(x.Kind, ctx).asVector()
	if !kind.IsSymbolic() || kind.Len() != 1 {
		return vecResult(value.Null())
	}
	n := value.NewNode(kind.SymbolsSlice()[0])
	for _, t := range x.Tags {
		n = n.Tagged(value.Intern(t))
	}
	return nodeResult([]*value.Node{n})
}

func evalTag(t *Tag, ctx *Context) result {
	r := Evaluate(t.Expr, ctx)
	tag := value.Intern(t.Tag)
	out := make([]*value.Node, 0, len(r.asNodes()))
	for _, n := range r.asNodes() {
		out = append(out, n.Tagged(tag))
	}
	return nodeResult(out)
}

func evalAttributes(a *Attributes, ctx *Context) result {
	r := Evaluate(a.Expr, ctx)
	set := make(map[value.Symbol]value.Vector, len(a.Bindings))
	for _, b := range a.Bindings {
		set[value.Intern(b.Name)] = Evaluate(b.Expr, ctx).asVector()
	}
	out := make([]*value.Node, 0, len(r.asNodes()))
	for _, n := range r.asNodes() {
		out = append(out, n.WithAttributes(set))
	}
	return nodeResult(out)
}

func evalAppend(a *Append, ctx *Context) result {
	parents := Evaluate(a.Parent, ctx).asNodes()
	children := Evaluate(a.Children, ctx).asNodes()
	out := make([]*value.Node, len(parents))
	for i, p := range parents {
		out[i] = p.Append(children...)
	}
	return nodeResult(out)
}

// evalLetInto binds pb.Names to their evaluated values directly into
// ctx.Names, implementing the runtime analogue of the Let/InlineLet
// binding rule for whatever the simplifier left dynamic.
func evalLetInto(ctx *Context, bindings []PolyBinding) {
	env := ctx.Names
	for _, pb := range bindings {
		v := Evaluate(pb.Expr, ctx.WithNames(env)).asVector()
		next := map[string]NameEntry{}
		n := v.Len()
		for i, name := range pb.Names {
			var slice value.Vector
			if n > 0 {
				slice = v.At(i % n)
			}
			next[name] = NameEntry{HasVector: true, Vector: slice}
		}
		env = env.Extend(next)
	}
	ctx.Names = env
}

func evalFor(f *For, ctx *Context) result {
	source := Evaluate(f.Source, ctx).asVector()
	n := source.Len()
	var vecs []value.Vector
	var nodes []*value.Node
	sawNodes := false
	for i := 0; i < n; i++ {
		inner := ctx.WithNames(ctx.Names)
		evalLetInto(inner, []PolyBinding{{Names: f.Names, Expr: &Literal{Value: source.At(i)}}})
		r := Evaluate(f.Body, inner)
		if r.isNodes {
			sawNodes = true
			nodes = append(nodes, r.nodes...)
		} else {
			vecs = append(vecs, r.vec)
		}
	}
	if sawNodes {
		return nodeResult(nodes)
	}
	return vecResult(value.ConcatAll(vecs...))
}

func evalIfElse(ie *IfElse, ctx *Context) result {
	for _, c := range ie.Conditions {
		if Evaluate(c.Test, ctx).asVector().IsTruthy() {
			return Evaluate(c.Then, ctx)
		}
	}
	if ie.Else != nil {
		return Evaluate(ie.Else, ctx)
	}
	return vecResult(value.Null())
}

func evalCall(c *Call, ctx *Context) result {
	fnExpr := c.Fn
	if n, ok := fnExpr.(*Name); ok {
		entry, found := ctx.Names.Lookup(n.Name)
		if found && entry.Func != nil {
			return evalUserCall(entry.Func, c, ctx)
		}
	}
	if fn, ok := fnExpr.(*Function); ok {
		return evalUserCall(fn, c, ctx)
	}

	if b, ok := IsBuiltinLiteral(fnExpr); ok {
		return vecResult(evalBuiltinCall(b, c, ctx))
	}
	if n, ok := fnExpr.(*Name); ok {
		if v, isConst := constantBuiltinValue(n.Name); isConst {
			return vecResult(v)
		}
		if b := lookupBuiltin(n.Name); b != nil {
			return vecResult(evalBuiltinCall(b, c, ctx))
		}
	}
	ctx.AddErrorf("call target is not callable")
	return vecResult(value.Null())
}

func evalBuiltinCall(b *Builtin, c *Call, ctx *Context) value.Vector {
	args := make([]value.Vector, len(c.Args))
	for i, a := range c.Args {
		args[i] = Evaluate(a, ctx).asVector()
	}
	if b.Name == "debug" {
		ctx.AddLog("%s", value.ConcatAll(args...))
		if len(args) == 0 {
			return value.Null()
		}
		return args[len(args)-1]
	}
	if b.MaxArgs >= 0 && len(args) > b.MaxArgs {
		ctx.AddErrorf("too many arguments to %q", b.Name)
		return value.Null()
	}
	if len(args) < b.MinArgs {
		ctx.AddErrorf("too few arguments to %q", b.Name)
		return value.Null()
	}
	return b.Fn(args)
}

func evalUserCall(fn *Function, c *Call, ctx *Context) result {
	args := make([]Expr, len(c.Args))
	for i, a := range c.Args {
		args[i] = &Literal{Value: Evaluate(a, ctx).asVector()}
	}
	kwargs := make([]KwArg, len(c.KwArgs))
	for i, k := range c.KwArgs {
		kwargs[i] = KwArg{Name: k.Name, Expr: &Literal{Value: Evaluate(k.Expr, ctx).asVector()}}
	}
	bindings := bindCallArgs(fn, args, kwargs)

	base := fn.Env
	if base == nil {
		base = ctx.Names
	}
	callCtx := ctx.WithNames(base)
	if fn.Name != "" {
		callCtx.Names = callCtx.Names.Extend(map[string]NameEntry{fn.Name: {Func: fn}})
	}
	evalLetInto(callCtx, bindings)
	return Evaluate(fn.Body, callCtx)
}
