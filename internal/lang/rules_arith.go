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

// simplifyUnary implements the "Unary numeric" rule (spec.md §4.3):
// fold literal arguments, otherwise apply the three identities that
// collapse a run of sign/identity unaries.
func simplifyUnary(u *Unary, ctx *Context) Expr {
	x := Simplify(u.Expr, ctx)
	if v, ok := IsLiteral(x); ok {
		return &Literal{Value: applyUnary(u.Op, v)}
	}
	if inner, ok := x.(*Unary); ok {
		switch {
		case u.Op == OpPositive && inner.Op == OpPositive:
			return &Unary{Op: OpPositive, Expr: inner.Expr}
		case u.Op == OpPositive && inner.Op == OpNegative:
			return &Unary{Op: OpNegative, Expr: inner.Expr}
		case u.Op == OpNegative && inner.Op == OpNegative:
			return &Unary{Op: OpPositive, Expr: inner.Expr}
		}
	}
	return &Unary{Op: u.Op, Expr: x}
}

func applyUnary(op UnaryOp, v value.Vector) value.Vector {
	switch op {
	case OpPositive:
		return value.Positive(v)
	case OpNegative:
		return value.Negative(v)
	case OpCeil:
		return value.Ceil(v)
	case OpFloor:
		return value.Floor(v)
	case OpFract:
		return value.Fract(v)
	case OpNot:
		return value.Not(v)
	}
	return value.Null()
}

// simplifyBinary implements "Binary arithmetic" and "Logic" (spec.md
// §4.3): fold pure literals, else apply the algebraic identities that
// don't require both sides to be literal.
func simplifyBinary(bin *Binary, ctx *Context) Expr {
	left := Simplify(bin.Left, ctx)
	right := Simplify(bin.Right, ctx)

	lv, lok := IsLiteral(left)
	rv, rok := IsLiteral(right)

	switch bin.Op {
	case OpAnd:
		if lok {
			if !lv.IsTruthy() {
				return &Literal{Value: value.False}
			}
			return right
		}
		return &Binary{Op: OpAnd, Left: left, Right: right}
	case OpOr:
		if lok {
			if lv.IsTruthy() {
				return &Literal{Value: value.True}
			}
			return right
		}
		return &Binary{Op: OpOr, Left: left, Right: right}
	case OpXor:
		if lok && !lv.IsTruthy() {
			return right
		}
		if rok && !rv.IsTruthy() {
			return left
		}
		if lok && rok {
			return &Literal{Value: value.Xor(lv, rv)}
		}
		return &Binary{Op: OpXor, Left: left, Right: right}
	}

	if lok && rok {
		return &Literal{Value: applyBinary(bin.Op, lv, rv)}
	}

	switch bin.Op {
	case OpAdd:
		if lok && lv.IsNumeric() && allZero(lv) {
			return &Unary{Op: OpPositive, Expr: right}
		}
		if rok && rv.IsNumeric() && allZero(rv) {
			return &Unary{Op: OpPositive, Expr: left}
		}
		if rn, ok := right.(*Unary); ok && rn.Op == OpNegative {
			return &Binary{Op: OpSubtract, Left: left, Right: rn.Expr}
		}
		if ln, ok := left.(*Unary); ok && ln.Op == OpNegative {
			return &Binary{Op: OpSubtract, Left: right, Right: ln.Expr}
		}
	case OpSubtract:
		if rok && rv.IsNumeric() && allZero(rv) {
			return &Unary{Op: OpPositive, Expr: left}
		}
		if lok && lv.IsNumeric() && allZero(lv) {
			return &Unary{Op: OpNegative, Expr: right}
		}
		if rn, ok := right.(*Unary); ok && rn.Op == OpNegative {
			return &Binary{Op: OpAdd, Left: left, Right: rn.Expr}
		}
	case OpMultiply:
		if lok && isScalarLiteral(lv, 1) {
			return &Unary{Op: OpPositive, Expr: right}
		}
		if rok && isScalarLiteral(rv, 1) {
			return &Unary{Op: OpPositive, Expr: left}
		}
		if lok && isScalarLiteral(lv, -1) {
			return &Unary{Op: OpNegative, Expr: right}
		}
		if rok && isScalarLiteral(rv, -1) {
			return &Unary{Op: OpNegative, Expr: left}
		}
		if rn, ok := right.(*Unary); ok && rn.Op == OpNegative && lok {
			neg := value.Negative(lv)
			return &Binary{Op: OpMultiply, Left: &Literal{Value: neg}, Right: rn.Expr}
		}
	case OpDivide:
		if rok && isScalarLiteral(rv, 1) {
			return &Unary{Op: OpPositive, Expr: left}
		}
	case OpFloorDivide:
		if rok && isScalarLiteral(rv, 1) {
			return &Unary{Op: OpFloor, Expr: left}
		}
	case OpModulo:
		if rok && isScalarLiteral(rv, 1) {
			return &Unary{Op: OpFract, Expr: left}
		}
	case OpPower:
		if rok && isScalarLiteral(rv, 1) {
			return &Unary{Op: OpPositive, Expr: left}
		}
	}

	return &Binary{Op: bin.Op, Left: left, Right: right}
}

func allZero(v value.Vector) bool {
	for _, n := range v.NumbersSlice() {
		if n != 0 {
			return false
		}
	}
	return v.Len() > 0
}

func isScalarLiteral(v value.Vector, n float64) bool {
	f, ok := v.Float64()
	return ok && v.Len() == 1 && f == n
}

func applyBinary(op BinaryOp, a, b value.Vector) value.Vector {
	switch op {
	case OpAdd:
		return value.Add(a, b)
	case OpSubtract:
		return value.Subtract(a, b)
	case OpMultiply:
		return value.Multiply(a, b)
	case OpDivide:
		return value.Divide(a, b)
	case OpFloorDivide:
		return value.FloorDivide(a, b)
	case OpModulo:
		return value.Modulo(a, b)
	case OpPower:
		return value.Power(a, b)
	case OpAnd:
		return value.And(a, b)
	case OpOr:
		return value.Or(a, b)
	case OpXor:
		return value.Xor(a, b)
	case OpEqualTo:
		return value.EqualTo(a, b)
	case OpNotEqualTo:
		return value.NotEqualTo(a, b)
	case OpLessThan:
		return value.LessThan(a, b)
	case OpGreaterThan:
		return value.GreaterThan(a, b)
	case OpLessThanOrEqualTo:
		return value.LessThanOrEqualTo(a, b)
	case OpGreaterThanOrEqualTo:
		return value.GreaterThanOrEqualTo(a, b)
	}
	return value.Null()
}
