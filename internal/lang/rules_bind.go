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

// bindingResult is the outcome of processing one Let/InlineLet's
// bindings: the extended Env to simplify the body/remainder under,
// and whatever bindings could not be folded away (the residual).
type bindingResult struct {
	env      *Env
	residual []PolyBinding
}

// processBindings implements the shared left-to-right binding logic
// of the Let and InlineLet rules (spec.md §4.3): literal right-hand
// sides unpack positionally into the environment; a rename to a
// dynamic name is recorded as an alias; anything else becomes a
// residual binding. renameTargets tracks, for every name currently
// aliased by an as-yet-unmaterialized rename, the alias source name,
// so that rebinding an aliased name can restore the rename explicitly
// in the residual (the "let x=y in let y=..." scenario).
func processBindings(env *Env, bindings []PolyBinding, ctx *Context) bindingResult {
	renameTargets := map[string]string{} // target name -> source name that renamed to it

	var residual []PolyBinding
	for _, pb := range bindings {
		rhs := Simplify(pb.Expr, ctx.WithNames(env))

		// Restore any rename that this binding shadows, and stop the
		// source name aliasing the rebound name, so the remainder sees
		// the pre-shadowing value.
		if source, shadowed := firstShadowed(pb.Names, renameTargets); shadowed {
			residual = append(residual, PolyBinding{Names: []string{source}, Expr: &Name{Name: pb.Names[0]}})
			delete(renameTargets, pb.Names[0])
			env = env.Extend(map[string]NameEntry{source: {Dynamic: true}})
		}

		if v, ok := IsLiteral(rhs); ok {
			next := map[string]NameEntry{}
			n := v.Len()
			for i, name := range pb.Names {
				if n == 0 {
					next[name] = NameEntry{HasVector: true, Vector: value.Null()}
					continue
				}
				next[name] = NameEntry{HasVector: true, Vector: v.At(i % n)}
			}
			env = env.Extend(next)
			continue
		}

		// A named function installs as an inlining candidate (no
		// captures) or a dynamic entry (has captures) directly, mirroring
		// simplifyFunction's own self-reference install -- that one lands
		// on ctx.WithNames(env)'s copy, not on env itself, so it never
		// reaches the rest of this Let's scope without repeating it here.
		if fn, ok := rhs.(*Function); ok && len(pb.Names) == 1 {
			name := pb.Names[0]
			if len(fn.Captures) == 0 {
				env = env.Extend(map[string]NameEntry{name: {Func: fn}})
				continue
			}
			env = env.Extend(map[string]NameEntry{name: {Dynamic: true}})
			residual = append(residual, PolyBinding{Names: pb.Names, Expr: fn})
			continue
		}

		if rn, ok := rhs.(*Name); ok && len(pb.Names) == 1 {
			if entry, found := env.Lookup(rn.Name); found && entry.Dynamic {
				env = env.Extend(map[string]NameEntry{pb.Names[0]: {Alias: rn.Name}})
				renameTargets[rn.Name] = pb.Names[0]
				continue
			}
		}

		// Residual: mark these names dynamic for the remainder.
		next := map[string]NameEntry{}
		for _, name := range pb.Names {
			next[name] = NameEntry{Dynamic: true}
		}
		env = env.Extend(next)
		residual = append(residual, PolyBinding{Names: pb.Names, Expr: rhs})
	}

	return bindingResult{env: env, residual: residual}
}

func firstShadowed(names []string, renameTargets map[string]string) (string, bool) {
	for _, n := range names {
		if source, ok := renameTargets[n]; ok {
			return source, true
		}
	}
	return "", false
}

// simplifyLet implements the top-level Let rule: same binding logic
// as InlineLet, but the residual contributes names to the enclosing
// scope via ctx.Names rather than wrapping a nested body. A fully
// literal Let (no residual) updates ctx.Names in place and erases to
// nothing; simplifyTop turns that into a trailing StoreGlobal.
func simplifyLet(l *Let, ctx *Context) Expr {
	result := processBindings(ctx.Names, l.Bindings, ctx)
	ctx.Names = result.env
	if len(result.residual) == 0 {
		return Null()
	}
	return &Let{Bindings: result.residual}
}

// simplifyInlineLet implements the InlineLet rule.
func simplifyInlineLet(il *InlineLet, ctx *Context) Expr {
	result := processBindings(ctx.Names, il.Bindings, ctx)
	body := Simplify(il.Body, ctx.WithNames(result.env))
	if len(result.residual) == 0 {
		return body
	}
	return &InlineLet{Body: body, Bindings: result.residual}
}

// simplifyFor implements the For rule: unroll over a literal source,
// otherwise recurse with the loop names marked dynamic.
func simplifyFor(f *For, ctx *Context) Expr {
	source := Simplify(f.Source, ctx)
	if v, ok := IsLiteral(source); ok {
		n := v.Len()
		if n == 0 {
			return Null()
		}
		items := make([]Expr, n)
		for i := 0; i < n; i++ {
			bindings := []PolyBinding{{Names: f.Names, Expr: &Literal{Value: v.At(i)}}}
			items[i] = &InlineLet{Body: f.Body, Bindings: bindings}
		}
		return simplifySequence(&Sequence{Items: items}, ctx)
	}
	dynamic := map[string]NameEntry{}
	for _, name := range f.Names {
		dynamic[name] = NameEntry{Dynamic: true}
	}
	body := Simplify(f.Body, ctx.WithNames(ctx.Names.Extend(dynamic)))
	return &For{Names: f.Names, Source: source, Body: body}
}
