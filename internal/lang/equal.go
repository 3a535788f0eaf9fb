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

// ExprEqual is the exported form of exprEqual, used outside this
// package to detect that a freshly reloaded program is unchanged from
// the one already running (spec.md §4.7 step 1 "Reload").
func ExprEqual(a, b Expr) bool { return exprEqual(a, b) }

// exprEqual is deep structural equality, used by the fixed-point driver
// to detect that a pass made no further progress (spec.md §4.3
// "Simplification is fixed-point: a pass that returns an expression
// structurally identical to its input halts").
func exprEqual(a, b Expr) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch x := a.(type) {
	case *Literal:
		y, ok := b.(*Literal)
		if !ok {
			return false
		}
		if x.Builtin != nil || y.Builtin != nil {
			return x.Builtin == y.Builtin
		}
		if x.Node != nil || y.Node != nil {
			return value.NodeEqual(x.Node, y.Node)
		}
		return value.Equal(x.Value, y.Value)
	case *Name:
		y, ok := b.(*Name)
		return ok && x.Name == y.Name
	case *Lookup:
		y, ok := b.(*Lookup)
		return ok && exprEqual(x.Key, y.Key)
	case *Search:
		y, ok := b.(*Search)
		return ok && exprEqual(x.Query, y.Query)
	case *Unary:
		y, ok := b.(*Unary)
		return ok && x.Op == y.Op && exprEqual(x.Expr, y.Expr)
	case *Binary:
		y, ok := b.(*Binary)
		return ok && x.Op == y.Op && exprEqual(x.Left, y.Left) && exprEqual(x.Right, y.Right)
	case *Range:
		y, ok := b.(*Range)
		return ok && exprEqual(x.Start, y.Start) && exprEqual(x.Stop, y.Stop) && exprEqual(x.Step, y.Step)
	case *Slice:
		y, ok := b.(*Slice)
		return ok && exprEqual(x.Expr, y.Expr) && exprEqual(x.Index, y.Index)
	case *Sequence:
		y, ok := b.(*Sequence)
		return ok && exprSliceEqual(x.Items, y.Items)
	case *NodeExpr:
		y, ok := b.(*NodeExpr)
		return ok && exprEqual(x.Kind, y.Kind) && stringsEqual(x.Tags, y.Tags)
	case *Tag:
		y, ok := b.(*Tag)
		return ok && exprEqual(x.Expr, y.Expr) && x.Tag == y.Tag
	case *Attributes:
		y, ok := b.(*Attributes)
		if !ok || !exprEqual(x.Expr, y.Expr) || len(x.Bindings) != len(y.Bindings) {
			return false
		}
		for i := range x.Bindings {
			if x.Bindings[i].Name != y.Bindings[i].Name || !exprEqual(x.Bindings[i].Expr, y.Bindings[i].Expr) {
				return false
			}
		}
		return true
	case *Append:
		y, ok := b.(*Append)
		return ok && exprEqual(x.Parent, y.Parent) && exprEqual(x.Children, y.Children)
	case *Let:
		y, ok := b.(*Let)
		return ok && polyBindingsEqual(x.Bindings, y.Bindings)
	case *InlineLet:
		y, ok := b.(*InlineLet)
		return ok && exprEqual(x.Body, y.Body) && polyBindingsEqual(x.Bindings, y.Bindings)
	case *For:
		y, ok := b.(*For)
		return ok && stringsEqual(x.Names, y.Names) && exprEqual(x.Source, y.Source) && exprEqual(x.Body, y.Body)
	case *IfElse:
		y, ok := b.(*IfElse)
		if !ok || len(x.Conditions) != len(y.Conditions) {
			return false
		}
		for i := range x.Conditions {
			if !exprEqual(x.Conditions[i].Test, y.Conditions[i].Test) || !exprEqual(x.Conditions[i].Then, y.Conditions[i].Then) {
				return false
			}
		}
		return exprEqual(x.Else, y.Else)
	case *Call:
		y, ok := b.(*Call)
		if !ok || !exprEqual(x.Fn, y.Fn) || !exprSliceEqual(x.Args, y.Args) || len(x.KwArgs) != len(y.KwArgs) {
			return false
		}
		for i := range x.KwArgs {
			if x.KwArgs[i].Name != y.KwArgs[i].Name || !exprEqual(x.KwArgs[i].Expr, y.KwArgs[i].Expr) {
				return false
			}
		}
		return true
	case *Function:
		y, ok := b.(*Function)
		if !ok || x.Name != y.Name || len(x.Params) != len(y.Params) || !exprEqual(x.Body, y.Body) {
			return false
		}
		for i := range x.Params {
			if x.Params[i].Name != y.Params[i].Name || !exprEqual(x.Params[i].Default, y.Params[i].Default) {
				return false
			}
		}
		return true
	case *Pragma:
		y, ok := b.(*Pragma)
		return ok && x.Name == y.Name && exprEqual(x.Expr, y.Expr)
	case *Import:
		y, ok := b.(*Import)
		return ok && x.Path == y.Path && stringsEqual(x.Names, y.Names)
	case *StoreGlobal:
		y, ok := b.(*StoreGlobal)
		return ok && polyBindingsEqual(x.Bindings, y.Bindings)
	case *Top:
		y, ok := b.(*Top)
		return ok && exprSliceEqual(x.Items, y.Items)
	default:
		return false
	}
}

func exprSliceEqual(a, b []Expr) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !exprEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}

func stringsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func polyBindingsEqual(a, b []PolyBinding) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !stringsEqual(a[i].Names, b[i].Names) || !exprEqual(a[i].Expr, b[i].Expr) {
			return false
		}
	}
	return true
}
