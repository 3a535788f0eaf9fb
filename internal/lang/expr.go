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

// Package lang implements C2, C3, and C4 of the core spec in one
// package, the way cuelang.org/go keeps its legacy expression
// representation (cue/ast.go), its rewriter (cue/rewrite.go), and its
// tree-walk evaluator (cue/eval.go, cue/binop.go) together under a
// single `package cue` rather than splitting them by Go package
// boundary. Expr is a closed algebraic family (design note in
// spec.md §9): one interface, one struct per variant, dispatch by
// type switch in simplify.go and eval.go.
package lang

import "flitter.dev/flitter/internal/value"

// Expr is the sum type of the immutable expression tree. Every
// constructor below returns an Expr with its children already fixed;
// there is no way to mutate one in place, so structural sharing across
// simplifier passes is always safe (spec.md §3 "no expression observes
// mutation").
type Expr interface {
	exprNode()
}

// Binding is a single name/expression pair, as used by Let/InlineLet.
type Binding struct {
	Name string
	Expr Expr
}

// PolyBinding unpacks the right-hand side vector positionally across
// Names, wrapping if the vector is shorter (spec.md §3).
type PolyBinding struct {
	Names []string
	Expr  Expr
}

// ---- Leaves ----

// Literal is a fully-evaluated value: almost always a Vector, but
// sometimes a reference to one of the builtin functions of §6 (sqrt,
// noise, ...), which are first-class but have no Vector
// representation, or a fully-folded scene-graph Node produced by
// NodeExpr/Tag/Attributes/Append (§4.3) once its shape is entirely
// literal. Exactly one of Builtin/Node is non-nil, or neither and
// Value holds an ordinary vector literal.
type Literal struct {
	Value   value.Vector
	Builtin *Builtin
	Node    *value.Node
}

type Name struct{ Name string }

type Lookup struct{ Key Expr }

// Search stands in for the language's `?query` node-search
// expressions; resolving one requires walking ctx.Graph, which only
// the evaluator has access to, so it is never folded by the
// simplifier.
type Search struct{ Query Expr }

// ---- Arithmetic ----

type UnaryOp int

const (
	OpPositive UnaryOp = iota
	OpNegative
	OpCeil
	OpFloor
	OpFract
	OpNot
)

type Unary struct {
	Op   UnaryOp
	Expr Expr
}

type BinaryOp int

const (
	OpAdd BinaryOp = iota
	OpSubtract
	OpMultiply
	OpDivide
	OpFloorDivide
	OpModulo
	OpPower
	OpAnd
	OpOr
	OpXor
	OpEqualTo
	OpNotEqualTo
	OpLessThan
	OpGreaterThan
	OpLessThanOrEqualTo
	OpGreaterThanOrEqualTo
)

type Binary struct {
	Op          BinaryOp
	Left, Right Expr
}

// ---- Collection ----

type Range struct{ Start, Stop, Step Expr }

type Slice struct {
	Expr  Expr
	Index Expr
}

type Sequence struct{ Items []Expr }

// ---- Node construction ----

type NodeExpr struct {
	Kind Expr
	Tags []string
}

type Tag struct {
	Expr Expr
	Tag  string
}

type AttrBinding struct {
	Name string
	Expr Expr
}

type Attributes struct {
	Expr     Expr
	Bindings []AttrBinding
}

type Append struct {
	Parent   Expr
	Children Expr
}

// ---- Binding & control ----

type Let struct{ Bindings []PolyBinding }

type InlineLet struct {
	Body     Expr
	Bindings []PolyBinding
}

type For struct {
	Names  []string
	Source Expr
	Body   Expr
}

type IfCondition struct {
	Test Expr
	Then Expr
}

type IfElse struct {
	Conditions []IfCondition
	Else       Expr // nil means implicit Literal(null)
}

type KwArg struct {
	Name string
	Expr Expr
}

type Call struct {
	Fn     Expr
	Args   []Expr
	KwArgs []KwArg
}

type Param struct {
	Name    string
	Default Expr // nil if no default
}

type Function struct {
	Name      string
	Params    []Param
	Body      Expr
	Captures  []string // free variables once simplified; nil until computed
	Recursive bool
	// Env is the lexical environment the function closes over at the
	// point of its Function literal, used by the evaluator to build a
	// callable value. Nil for a Function that has not been evaluated.
	Env *Env
}

// ---- Top level ----

type Pragma struct {
	Name string
	Expr Expr
}

type Import struct {
	Names []string
	Path  string
}

type StoreGlobal struct{ Bindings []PolyBinding }

type Top struct{ Items []Expr }

func (*Literal) exprNode()     {}
func (*Name) exprNode()        {}
func (*Lookup) exprNode()      {}
func (*Search) exprNode()      {}
func (*Unary) exprNode()       {}
func (*Binary) exprNode()      {}
func (*Range) exprNode()       {}
func (*Slice) exprNode()       {}
func (*Sequence) exprNode()    {}
func (*NodeExpr) exprNode()    {}
func (*Tag) exprNode()         {}
func (*Attributes) exprNode()  {}
func (*Append) exprNode()      {}
func (*Let) exprNode()         {}
func (*InlineLet) exprNode()   {}
func (*For) exprNode()         {}
func (*IfCondition) exprNode() {}
func (*IfElse) exprNode()      {}
func (*Call) exprNode()        {}
func (*Function) exprNode()    {}
func (*Pragma) exprNode()      {}
func (*Import) exprNode()      {}
func (*StoreGlobal) exprNode() {}
func (*Top) exprNode()         {}

// Null is shorthand for a null literal, used throughout the simplifier
// for the identity/error-substitution result.
func Null() Expr { return &Literal{Value: value.Null()} }

// IsLiteral reports whether e is a fully folded vector literal (not a
// builtin-function or Node literal) and returns its value.
func IsLiteral(e Expr) (value.Vector, bool) {
	if l, ok := e.(*Literal); ok && l.Builtin == nil && l.Node == nil {
		return l.Value, true
	}
	return value.Vector{}, false
}

// IsBuiltinLiteral reports whether e denotes a resolved builtin
// function (spec.md §4.3 Name rule, "a builtin function value").
func IsBuiltinLiteral(e Expr) (*Builtin, bool) {
	if l, ok := e.(*Literal); ok && l.Builtin != nil {
		return l.Builtin, true
	}
	return nil, false
}

// IsNodeLiteral reports whether e denotes a single fully-folded
// scene-graph Node (spec.md §4.3 Tag/Attributes/Append rule).
func IsNodeLiteral(e Expr) (*value.Node, bool) {
	if l, ok := e.(*Literal); ok && l.Node != nil {
		return l.Node, true
	}
	return nil, false
}

// NodeLiteral wraps a folded Node as an Expr.
func NodeLiteral(n *value.Node) Expr { return &Literal{Node: n} }
