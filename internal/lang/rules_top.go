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

// simplifyImport implements the Import rule: installs each named name
// as dynamic in ctx.Names for the remainder of the enclosing scope.
func simplifyImport(i *Import, ctx *Context) Expr {
	dynamic := map[string]NameEntry{}
	for _, name := range i.Names {
		dynamic[name] = NameEntry{Dynamic: true}
	}
	ctx.Names = ctx.Names.Extend(dynamic)
	return i
}

// simplifyStoreGlobal recurses into its bindings' expressions; it
// carries already-simplified state contributions through to
// evaluation, where they are written to ctx.State.
func simplifyStoreGlobal(s *StoreGlobal, ctx *Context) Expr {
	out := make([]PolyBinding, len(s.Bindings))
	for i, pb := range s.Bindings {
		out[i] = PolyBinding{Names: pb.Names, Expr: Simplify(pb.Expr, ctx)}
	}
	return &StoreGlobal{Bindings: out}
}

// simplifyTop implements the Top rule: simplify each child left to
// right (so that a Let's bindings are visible to subsequent
// children), dropping null literals, and collecting the bindings a
// fully-literal top-level Let erased into a trailing StoreGlobal.
func simplifyTop(t *Top, ctx *Context) Expr {
	var items []Expr
	var globals []PolyBinding
	for _, it := range t.Items {
		if let, ok := it.(*Let); ok {
			simplified := simplifyLet(let, ctx)
			if v, ok := IsLiteral(simplified); ok && v.IsNull() {
				for _, pb := range let.Bindings {
					for _, name := range pb.Names {
						if entry, found := ctx.Names.Lookup(name); found && entry.HasVector {
							globals = append(globals, PolyBinding{Names: []string{name}, Expr: &Literal{Value: entry.Vector}})
						}
					}
				}
				continue
			}
			items = append(items, simplified)
			continue
		}
		simplified := Simplify(it, ctx)
		if v, ok := IsLiteral(simplified); ok && v.IsNull() {
			continue
		}
		items = append(items, simplified)
	}
	if len(globals) > 0 {
		items = append(items, &StoreGlobal{Bindings: globals})
	}
	return &Top{Items: items}
}
