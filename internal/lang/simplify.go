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

// This file is the fixed-point driver for C3, grounded on
// cue/rewrite.go's rewrite(ctx, v, fn) shape: each call either folds to
// something structurally different (descend again) or returns
// something equal to its input (stop). cue/rewrite.go drives a single
// rewriteFunc to a fixed point by construction (it recurses into
// children whenever the top-level call didn't already produce a
// terminal value); here the termination check is explicit because our
// rules, unlike CUE's, can each independently reach a local fixed point
// before the whole tree has.
package lang

import "flitter.dev/flitter/internal/value"

const maxSimplifyPasses = 16

// Simplify rewrites e to a fixed point under ctx (spec.md §4.3): a pass
// that returns an expression structurally identical to its input halts
// the loop. ctx accumulates the errors and logs produced along the way
// regardless of how many passes run.
func Simplify(e Expr, ctx *Context) Expr {
	cur := e
	for i := 0; i < maxSimplifyPasses; i++ {
		next := simplifyOnce(cur, ctx)
		if exprEqual(next, cur) {
			return next
		}
		cur = next
	}
	return cur
}

// simplifyOnce applies one rewrite pass: the dispatcher required by
// spec.md §4.2 ("Each expression must support simplify(ctx) ->
// Expression"). It is a type switch rather than a method per type so
// that the rule tables in rules_arith.go/rules_bind.go/etc. can stay grouped by
// concern instead of by Go receiver.
func simplifyOnce(e Expr, ctx *Context) Expr {
	switch x := e.(type) {
	case *Literal:
		return x
	case *Name:
		return simplifyName(x, ctx)
	case *Lookup:
		return simplifyLookup(x, ctx)
	case *Search:
		return &Search{Query: Simplify(x.Query, ctx)}
	case *Unary:
		return simplifyUnary(x, ctx)
	case *Binary:
		return simplifyBinary(x, ctx)
	case *Range:
		return simplifyRange(x, ctx)
	case *Slice:
		return simplifySlice(x, ctx)
	case *Sequence:
		return simplifySequence(x, ctx)
	case *NodeExpr:
		return simplifyNodeExpr(x, ctx)
	case *Tag:
		return simplifyTag(x, ctx)
	case *Attributes:
		return simplifyAttributes(x, ctx)
	case *Append:
		return simplifyAppend(x, ctx)
	case *Let:
		return simplifyLet(x, ctx)
	case *InlineLet:
		return simplifyInlineLet(x, ctx)
	case *For:
		return simplifyFor(x, ctx)
	case *IfElse:
		return simplifyIfElse(x, ctx)
	case *Call:
		return simplifyCall(x, ctx)
	case *Function:
		return simplifyFunction(x, ctx)
	case *Pragma:
		ctx.Pragmas[x.Name] = literalOrNull(Simplify(x.Expr, ctx))
		return &Pragma{Name: x.Name, Expr: Simplify(x.Expr, ctx)}
	case *Import:
		return simplifyImport(x, ctx)
	case *StoreGlobal:
		return simplifyStoreGlobal(x, ctx)
	case *Top:
		return simplifyTop(x, ctx)
	default:
		return e
	}
}

func literalOrNull(e Expr) value.Vector {
	if v, ok := IsLiteral(e); ok {
		return v
	}
	return value.Null()
}
