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

import "fmt"

// CoerceError is raised by Coerce for a Go type with no vector
// representation (spec.md §4.1 "unknown types raise a typed error").
type CoerceError struct {
	Type interface{}
}

func (e *CoerceError) Error() string {
	return fmt.Sprintf("cannot coerce %T to a vector", e.Type)
}

// Coerce accepts scalars, iterables of scalars, strings, and Vectors
// themselves (for which it is the identity, per the testable property
// in spec.md §8). Strings coerce to a symbol vector of length 1 holding
// the whole string, matching the language's double-quoted string
// literals being represented as interned text.
func Coerce(x interface{}) (Vector, error) {
	switch v := x.(type) {
	case Vector:
		return v, nil
	case nil:
		return Null(), nil
	case float64:
		return Number(v), nil
	case int:
		return Number(float64(v)), nil
	case int64:
		return Number(float64(v)), nil
	case bool:
		return Bool(v), nil
	case string:
		return SymbolOf(v), nil
	case Symbol:
		return Symbols(v), nil
	case []float64:
		return Numbers(v...), nil
	case []Symbol:
		return Symbols(v...), nil
	case []interface{}:
		out := Null()
		for _, e := range v {
			ev, err := Coerce(e)
			if err != nil {
				return Null(), err
			}
			if !out.IsNull() && !ev.IsNull() && out.Kind() != ev.Kind() {
				return Null(), &CoerceError{Type: x}
			}
			out = Concat(out, ev)
		}
		return out, nil
	default:
		return Null(), &CoerceError{Type: x}
	}
}
