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

package lang_test

import (
	"testing"

	"github.com/go-quicktest/qt"

	"flitter.dev/flitter/internal/lang"
	"flitter.dev/flitter/internal/value"
)

func lit(n float64) lang.Expr { return &lang.Literal{Value: value.Number(n)} }

func simplified(e lang.Expr) lang.Expr {
	ctx := lang.NewContext(lang.NewEnv(), nil)
	return lang.Simplify(e, ctx)
}

func TestConstantFolding(t *testing.T) {
	got := simplified(&lang.Binary{Op: lang.OpAdd, Left: lit(2), Right: lit(3)})
	v, ok := lang.IsLiteral(got)
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.DeepEquals(v.NumbersSlice(), []float64{5}))
}

// x + 0 must simplify to Positive(x) over the (unevaluated) name x, not
// a literal, since x is marked dynamic in the simplifier's Context.
func TestAddZeroIdentity(t *testing.T) {
	names := map[string]lang.NameEntry{"x": {Dynamic: true}}
	ctx := lang.NewContext(lang.NewEnv().Extend(names), nil)
	got := lang.Simplify(&lang.Binary{Op: lang.OpAdd, Left: &lang.Name{Name: "x"}, Right: lit(0)}, ctx)
	u, ok := got.(*lang.Unary)
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.Equals(u.Op, lang.OpPositive))
	n, ok := u.Expr.(*lang.Name)
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.Equals(n.Name, "x"))
}

func TestIfElseLiteralTrueCollapsesChain(t *testing.T) {
	ie := &lang.IfElse{
		Conditions: []lang.IfCondition{
			{Test: &lang.Literal{Value: value.Bool(false)}, Then: lit(1)},
			{Test: &lang.Literal{Value: value.Bool(true)}, Then: lit(2)},
			{Test: &lang.Name{Name: "unreachable"}, Then: lit(3)},
		},
		Else: lit(4),
	}
	got := simplified(ie)
	v, ok := lang.IsLiteral(got)
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.DeepEquals(v.NumbersSlice(), []float64{2}))
}

func TestLetFoldsGlobalsInTop(t *testing.T) {
	top := &lang.Top{Items: []lang.Expr{
		&lang.Let{Bindings: []lang.PolyBinding{{Names: []string{"a"}, Expr: lit(1)}}},
	}}
	ctx := lang.NewContext(lang.NewEnv(), nil)
	got := lang.Simplify(top, ctx)
	resultTop, ok := got.(*lang.Top)
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.HasLen(resultTop.Items, 1))
	sg, ok := resultTop.Items[0].(*lang.StoreGlobal)
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.HasLen(sg.Bindings, 1))
	qt.Assert(t, qt.Equals(sg.Bindings[0].Names[0], "a"))
	v, ok := lang.IsLiteral(sg.Bindings[0].Expr)
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.DeepEquals(v.NumbersSlice(), []float64{1}))
}

// let y = x in let x = y + 1 in ...: y is recorded as an alias of x
// while x is still untouched, but the second binding rebinds x itself,
// so the alias must be materialized into an explicit "y = x" residual
// binding before x's new value takes over (spec.md §4.3's "let x=y in
// let y=..." shadow scenario, with the roles of x and y swapped here).
func TestLetRenameChainShadowRestoration(t *testing.T) {
	l := &lang.Let{Bindings: []lang.PolyBinding{
		{Names: []string{"y"}, Expr: &lang.Name{Name: "x"}},
		{Names: []string{"x"}, Expr: &lang.Binary{Op: lang.OpAdd, Left: &lang.Name{Name: "y"}, Right: lit(1)}},
	}}
	names := map[string]lang.NameEntry{"x": {Dynamic: true}}
	ctx := lang.NewContext(lang.NewEnv().Extend(names), nil)
	got := lang.Simplify(l, ctx)
	residual, ok := got.(*lang.Let)
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.HasLen(residual.Bindings, 2))
	qt.Assert(t, qt.DeepEquals(residual.Bindings[0].Names, []string{"y"}))
	restored, ok := residual.Bindings[0].Expr.(*lang.Name)
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.Equals(restored.Name, "x"))
	qt.Assert(t, qt.DeepEquals(residual.Bindings[1].Names, []string{"x"}))
}

func TestCallInlinesPureBuiltin(t *testing.T) {
	call := &lang.Call{Fn: &lang.Name{Name: "sqrt"}, Args: []lang.Expr{lit(9)}}
	got := simplified(call)
	v, ok := lang.IsLiteral(got)
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.DeepEquals(v.NumbersSlice(), []float64{3}))
}

func TestCallInlinesNonRecursiveFunction(t *testing.T) {
	fn := &lang.Function{
		Name:   "double",
		Params: []lang.Param{{Name: "n"}},
		Body:   &lang.Binary{Op: lang.OpMultiply, Left: &lang.Name{Name: "n"}, Right: lit(2)},
	}
	top := &lang.Top{Items: []lang.Expr{
		&lang.Let{Bindings: []lang.PolyBinding{{Names: []string{"double"}, Expr: fn}}},
		&lang.Call{Fn: &lang.Name{Name: "double"}, Args: []lang.Expr{lit(21)}},
	}}
	ctx := lang.NewContext(lang.NewEnv(), nil)
	got := lang.Simplify(top, ctx)
	resultTop, ok := got.(*lang.Top)
	qt.Assert(t, qt.IsTrue(ok))
	last := resultTop.Items[len(resultTop.Items)-1]
	v, ok := lang.IsLiteral(last)
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.DeepEquals(v.NumbersSlice(), []float64{42}))
}

func TestSimplifyIsIdempotentOnFixedPoint(t *testing.T) {
	e := &lang.Binary{Op: lang.OpAdd, Left: lit(2), Right: lit(3)}
	once := simplified(e)
	twice := simplified(once)
	qt.Assert(t, qt.IsTrue(lang.ExprEqual(once, twice)))
}
