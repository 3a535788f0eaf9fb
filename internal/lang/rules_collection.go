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

import "flitter.dev/flitter/internal/value"

// simplifyLookup implements the Lookup rule (spec.md §4.3): resolve
// against ctx.State when the key is already literal and present,
// otherwise leave the lookup for evaluation time.
func simplifyLookup(l *Lookup, ctx *Context) Expr {
	key := Simplify(l.Key, ctx)
	if kv, ok := IsLiteral(key); ok && ctx.State != nil {
		if v, found := ctx.State.Get(kv); found {
			return &Literal{Value: v}
		}
	}
	return &Lookup{Key: key}
}

// simplifyRange implements the Range rule: fold when all three
// components are literal, else recurse into the children.
func simplifyRange(r *Range, ctx *Context) Expr {
	start := Simplify(r.Start, ctx)
	stop := Simplify(r.Stop, ctx)
	step := Simplify(r.Step, ctx)
	sv, sok := IsLiteral(start)
	tv, tok := IsLiteral(stop)
	pv, pok := IsLiteral(step)
	if sok && tok && pok {
		sf, ok1 := sv.Float64()
		tf, ok2 := tv.Float64()
		pf, ok3 := pv.Float64()
		if ok1 && ok2 && ok3 {
			return &Literal{Value: value.Range(sf, tf, pf)}
		}
		return Null()
	}
	return &Range{Start: start, Stop: stop, Step: step}
}

// simplifySlice implements the Slice rule: fold when the target and
// index are both literal.
func simplifySlice(s *Slice, ctx *Context) Expr {
	target := Simplify(s.Expr, ctx)
	index := Simplify(s.Index, ctx)
	tv, tok := IsLiteral(target)
	iv, iok := IsLiteral(index)
	if tok && iok {
		if iv.Len() == 1 {
			if f, ok := iv.Float64(); ok {
				return &Literal{Value: tv.At(int(f))}
			}
		}
		return Null()
	}
	return &Slice{Expr: target, Index: index}
}

// simplifySequence implements the Sequence rule: simplify every item,
// flatten nested Sequences, concatenate runs of literal vectors, drop
// null literals, and collapse a singleton to its item.
func simplifySequence(s *Sequence, ctx *Context) Expr {
	var flat []Expr
	var flatten func(items []Expr)
	flatten = func(items []Expr) {
		for _, it := range items {
			simplified := Simplify(it, ctx)
			if nested, ok := simplified.(*Sequence); ok {
				flatten(nested.Items)
				continue
			}
			flat = append(flat, simplified)
		}
	}
	flatten(s.Items)

	var out []Expr
	for _, it := range flat {
		if v, ok := IsLiteral(it); ok {
			if v.IsNull() {
				continue
			}
			if len(out) > 0 {
				if prevV, ok := IsLiteral(out[len(out)-1]); ok {
					out[len(out)-1] = &Literal{Value: value.Concat(prevV, v)}
					continue
				}
			}
			out = append(out, &Literal{Value: v})
			continue
		}
		out = append(out, it)
	}

	if len(out) == 0 {
		return Null()
	}
	if len(out) == 1 {
		return out[0]
	}
	return &Sequence{Items: out}
}
