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

// simplifyName implements the Name(n) rule (spec.md §4.3): resolve
// against ctx.Names, folding to a literal, an alias chase, or a bare
// Name left behind for dynamic/function references.
func simplifyName(n *Name, ctx *Context) Expr {
	entry, ok := ctx.Names.Lookup(n.Name)
	if !ok {
		if v, isConst := constantBuiltinValue(n.Name); isConst {
			return &Literal{Value: v}
		}
		if fn := lookupBuiltin(n.Name); fn != nil {
			return &Literal{Builtin: fn}
		}
		ctx.AddErrorf("unbound name %q", n.Name)
		return Null()
	}
	switch {
	case entry.HasVector:
		return &Literal{Value: entry.Vector}
	case entry.Alias != "":
		return simplifyName(&Name{Name: entry.Alias}, ctx)
	case entry.Func != nil:
		// Leave the bare Name so that Call can detect an inlining
		// candidate (spec.md §4.3 Name rule).
		return n
	case entry.Dynamic:
		return n
	default:
		return n
	}
}
