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

import "sort"

// A Node is a tagged scene-graph element: a kind, a set of tags, an
// attribute map, and ordered children. Nodes are immutable; every
// mutator below returns a new Node sharing the parts it did not touch
// (spec.md §3 "Nodes are immutable; updates produce new nodes").
type Node struct {
	kind     Symbol
	tags     map[Symbol]struct{}
	attrs    map[Symbol]Vector
	children []*Node
}

// NewNode creates a childless, tagless, attributeless Node of the
// given kind.
func NewNode(kind Symbol) *Node {
	return &Node{kind: kind}
}

func (n *Node) Kind() Symbol { return n.kind }

// Tagged returns a copy of n with tag added to its tag set.
func (n *Node) Tagged(tag Symbol) *Node {
	out := n.shallowCopy()
	out.tags = copyTagSet(n.tags)
	if out.tags == nil {
		out.tags = make(map[Symbol]struct{}, 1)
	}
	out.tags[tag] = struct{}{}
	return out
}

// HasTag reports whether tag is in n's tag set.
func (n *Node) HasTag(tag Symbol) bool {
	_, ok := n.tags[tag]
	return ok
}

// Tags returns the tag set as a sorted slice, for deterministic
// iteration in tests and diagnostics.
func (n *Node) Tags() []Symbol {
	out := make([]Symbol, 0, len(n.tags))
	for t := range n.tags {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

// WithAttributes returns a copy of n with each binding merged into its
// attribute map, later bindings in the same call overriding earlier
// ones (the simplifier further merges adjacent Attributes operations,
// see internal/lang).
func (n *Node) WithAttributes(bindings map[Symbol]Vector) *Node {
	out := n.shallowCopy()
	out.attrs = make(map[Symbol]Vector, len(n.attrs)+len(bindings))
	for k, v := range n.attrs {
		out.attrs[k] = v
	}
	for k, v := range bindings {
		out.attrs[k] = v
	}
	return out
}

// Attribute looks up a single attribute; the zero Vector (null) is
// returned on a miss, consistent with Lookup's miss behaviour.
func (n *Node) Attribute(name Symbol) Vector {
	return n.attrs[name]
}

// Attributes returns the attribute map. Callers must not mutate it.
func (n *Node) Attributes() map[Symbol]Vector { return n.attrs }

// Append returns a copy of n with children appended after its existing
// children.
func (n *Node) Append(children ...*Node) *Node {
	out := n.shallowCopy()
	out.children = append(append([]*Node(nil), n.children...), children...)
	return out
}

// Children returns n's direct children in order. Callers must not
// mutate the returned slice.
func (n *Node) Children() []*Node { return n.children }

// Select implements the "kind.tag.…" query from spec.md §3: it walks
// the subtree rooted at n (inclusive) and returns every node whose kind
// matches kind and which carries every tag in tags.
func (n *Node) Select(kind Symbol, tags ...Symbol) []*Node {
	var out []*Node
	var walk func(*Node)
	walk = func(x *Node) {
		if x.kind == kind && hasAllTags(x, tags) {
			out = append(out, x)
		}
		for _, c := range x.children {
			walk(c)
		}
	}
	walk(n)
	return out
}

func hasAllTags(n *Node, tags []Symbol) bool {
	for _, t := range tags {
		if !n.HasTag(t) {
			return false
		}
	}
	return true
}

// ChildrenOfKind returns n's direct children with the given kind (the
// "direct child kind" query from spec.md §3).
func (n *Node) ChildrenOfKind(kind Symbol) []*Node {
	var out []*Node
	for _, c := range n.children {
		if c.kind == kind {
			out = append(out, c)
		}
	}
	return out
}

func (n *Node) shallowCopy() *Node {
	return &Node{
		kind:     n.kind,
		tags:     n.tags,
		attrs:    n.attrs,
		children: n.children,
	}
}

func copyTagSet(tags map[Symbol]struct{}) map[Symbol]struct{} {
	if tags == nil {
		return nil
	}
	out := make(map[Symbol]struct{}, len(tags))
	for t := range tags {
		out[t] = struct{}{}
	}
	return out
}

// NodeEqual does a deep structural comparison of two Nodes, used by the
// simplifier's literal-Node folding and by tests.
func NodeEqual(a, b *Node) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	if a.kind != b.kind || len(a.tags) != len(b.tags) || len(a.attrs) != len(b.attrs) || len(a.children) != len(b.children) {
		return false
	}
	for t := range a.tags {
		if !b.HasTag(t) {
			return false
		}
	}
	for k, v := range a.attrs {
		bv, ok := b.attrs[k]
		if !ok || !Equal(v, bv) {
			return false
		}
	}
	for i := range a.children {
		if !NodeEqual(a.children[i], b.children[i]) {
			return false
		}
	}
	return true
}
