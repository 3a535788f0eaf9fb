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

package value

import "math"

// broadcast applies op elementwise over a and b, cycling the shorter
// operand (spec.md §3 "length max-broadcast (short operand cycles)").
// A non-numeric operand yields the null vector: null propagates
// through arithmetic (§4.1).
func broadcast(a, b Vector, op func(x, y float64) float64) Vector {
	if !a.IsNumeric() || !b.IsNumeric() {
		return Null()
	}
	n := len(a.nums)
	if len(b.nums) > n {
		n = len(b.nums)
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = op(a.nums[i%len(a.nums)], b.nums[i%len(b.nums)])
	}
	return Numbers(out...)
}

func unary(a Vector, op func(x float64) float64) Vector {
	if !a.IsNumeric() {
		return Null()
	}
	out := make([]float64, len(a.nums))
	for i, x := range a.nums {
		out[i] = op(x)
	}
	return Numbers(out...)
}

func Add(a, b Vector) Vector      { return broadcast(a, b, func(x, y float64) float64 { return x + y }) }
func Subtract(a, b Vector) Vector { return broadcast(a, b, func(x, y float64) float64 { return x - y }) }
func Multiply(a, b Vector) Vector { return broadcast(a, b, func(x, y float64) float64 { return x * y }) }
func Divide(a, b Vector) Vector   { return broadcast(a, b, func(x, y float64) float64 { return x / y }) }

func FloorDivide(a, b Vector) Vector {
	return broadcast(a, b, func(x, y float64) float64 { return math.Floor(x / y) })
}

func Modulo(a, b Vector) Vector {
	return broadcast(a, b, func(x, y float64) float64 {
		m := math.Mod(x, y)
		if m != 0 && (m < 0) != (y < 0) {
			m += y
		}
		return m
	})
}

func Power(a, b Vector) Vector { return broadcast(a, b, math.Pow) }

func Positive(a Vector) Vector { return unary(a, func(x float64) float64 { return x }) }
func Negative(a Vector) Vector { return unary(a, func(x float64) float64 { return -x }) }
func Ceil(a Vector) Vector     { return unary(a, math.Ceil) }
func Floor(a Vector) Vector    { return unary(a, math.Floor) }
func Fract(a Vector) Vector    { return unary(a, func(x float64) float64 { return x - math.Floor(x) }) }

// compare applies a numeric relation elementwise, broadcasting like
// arithmetic, and packs the booleans into a numeric 0/1 vector so that
// comparisons themselves broadcast and null-propagate consistently
// with the rest of the vector algebra (§8 "Vector algebra" invariant).
func compare(a, b Vector, rel func(x, y float64) bool) Vector {
	if !a.IsNumeric() || !b.IsNumeric() {
		return Null()
	}
	n := len(a.nums)
	if len(b.nums) > n {
		n = len(b.nums)
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		if rel(a.nums[i%len(a.nums)], b.nums[i%len(b.nums)]) {
			out[i] = 1
		}
	}
	return Numbers(out...)
}

func LessThan(a, b Vector) Vector { return compare(a, b, func(x, y float64) bool { return x < y }) }
func GreaterThan(a, b Vector) Vector {
	return compare(a, b, func(x, y float64) bool { return x > y })
}
func LessThanOrEqualTo(a, b Vector) Vector {
	return compare(a, b, func(x, y float64) bool { return x <= y })
}
func GreaterThanOrEqualTo(a, b Vector) Vector {
	return compare(a, b, func(x, y float64) bool { return x >= y })
}

// EqualTo and NotEqualTo compare whole vectors (deep equality), not
// elementwise: two vectors are a single equal-or-not, including across
// kinds and lengths, matching the concrete scenario in spec.md §8
// ("EqualTo(Literal(5), Literal(5)) -> Literal(true)").
func EqualTo(a, b Vector) Vector    { return Bool(Equal(a, b)) }
func NotEqualTo(a, b Vector) Vector { return Bool(!Equal(a, b)) }

// Logic: null is false; the operators never broadcast since a whole
// vector carries a single truth value (§4.1 "logical operators treat
// null as false").
func Not(a Vector) Vector { return Bool(!a.IsTruthy()) }
func And(a, b Vector) Vector {
	if !a.IsTruthy() {
		return False
	}
	return Bool(b.IsTruthy())
}
func Or(a, b Vector) Vector {
	if a.IsTruthy() {
		return True
	}
	return Bool(b.IsTruthy())
}
func Xor(a, b Vector) Vector { return Bool(a.IsTruthy() != b.IsTruthy()) }
