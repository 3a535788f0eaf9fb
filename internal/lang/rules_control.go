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

// simplifyIfElse implements the IfElse rule (spec.md §4.3): walk the
// condition chain in source order; a literal-true condition ends the
// chain and becomes the result (preceding chain kept, the rest
// dropped); a literal-false condition is removed outright. An empty
// remaining chain simplifies to the else (or null).
func simplifyIfElse(ie *IfElse, ctx *Context) Expr {
	var kept []IfCondition
	for _, c := range ie.Conditions {
		test := Simplify(c.Test, ctx)
		then := Simplify(c.Then, ctx)
		if v, ok := IsLiteral(test); ok {
			if v.IsTruthy() {
				// This arm always fires once reached: the remainder of
				// the chain is unreachable, and this Then becomes the
				// guaranteed fallback.
				if len(kept) == 0 {
					return then
				}
				return &IfElse{Conditions: kept, Else: then}
			}
			continue // literal false: this arm never fires, drop it
		}
		kept = append(kept, IfCondition{Test: test, Then: then})
	}
	var elseExpr Expr
	if ie.Else != nil {
		elseExpr = Simplify(ie.Else, ctx)
	}
	if len(kept) == 0 {
		if elseExpr == nil {
			return Null()
		}
		return elseExpr
	}
	return &IfElse{Conditions: kept, Else: elseExpr}
}
