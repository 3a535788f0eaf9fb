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

import "testing"

func TestNullPropagation(t *testing.T) {
	n := Number(5)
	ops := []struct {
		name string
		f    func(a, b Vector) Vector
	}{
		{"Add", Add}, {"Subtract", Subtract}, {"Multiply", Multiply},
		{"Divide", Divide}, {"FloorDivide", FloorDivide}, {"Modulo", Modulo},
		{"Power", Power},
	}
	for _, op := range ops {
		if !op.f(n, Null()).IsNull() {
			t.Errorf("%s(5, null) should be null", op.name)
		}
		if !op.f(Null(), n).IsNull() {
			t.Errorf("%s(null, 5) should be null", op.name)
		}
	}
}

func TestBroadcastLength(t *testing.T) {
	a := Numbers(1, 2, 3, 4)
	b := Numbers(10, 20)
	got := Add(a, b)
	want := Numbers(11, 22, 13, 24)
	if !Equal(got, want) {
		t.Errorf("Add(%v,%v) = %v, want %v", a, b, got, want)
	}
}

func TestCoerceIdentity(t *testing.T) {
	v := Numbers(1, 2, 3)
	got, err := Coerce(v)
	if err != nil {
		t.Fatal(err)
	}
	if !Equal(got, v) {
		t.Errorf("Coerce(vector) changed the value: got %v want %v", got, v)
	}
}

func TestEqualToWholeVector(t *testing.T) {
	if !EqualTo(Numbers(5), Numbers(5)).IsTruthy() {
		t.Error("5 == 5 should be true")
	}
	if EqualTo(Numbers(5), Numbers(4)).IsTruthy() {
		t.Error("5 == 4 should be false")
	}
}

func TestLogicNullIsFalse(t *testing.T) {
	if And(Null(), True).IsTruthy() {
		t.Error("And(null, true) should be false")
	}
	if !Or(Null(), True).IsTruthy() {
		t.Error("Or(null, true) should be true")
	}
}

func TestStateDictDirty(t *testing.T) {
	s := NewStateDict()
	if s.Dirty() {
		t.Fatal("fresh StateDict should not be dirty")
	}
	s.Set(SymbolOf("foo"), Number(5))
	if !s.Dirty() {
		t.Error("inserting a new key should mark dirty")
	}
	s.ClearDirty()
	s.Set(SymbolOf("foo"), Number(5))
	if s.Dirty() {
		t.Error("re-setting the same value should not mark dirty")
	}
	s.Set(SymbolOf("foo"), Number(6))
	if !s.Dirty() {
		t.Error("changing an existing value should mark dirty")
	}
}

func TestNodeSelect(t *testing.T) {
	tag := Intern("red")
	kind := Intern("circle")
	root := NewNode(Intern("group"))
	c1 := NewNode(kind).Tagged(tag)
	c2 := NewNode(kind)
	root = root.Append(c1, c2)
	got := root.Select(kind, tag)
	if len(got) != 1 {
		t.Fatalf("Select(circle, red) = %d nodes, want 1", len(got))
	}
}
