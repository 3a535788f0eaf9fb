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

// simplifyNodeExpr implements the leaf of node construction: a
// NodeExpr folds to a literal Node once its kind symbol is literal
// (spec.md §4.3 "Tag / Attributes / Append").
func simplifyNodeExpr(x *NodeExpr, ctx *Context) Expr {
	kind := Simplify(x.Kind, ctx)
	kv, ok := IsLiteral(kind)
	if !ok || !kv.IsSymbolic() || kv.Len() != 1 {
		return &NodeExpr{Kind: kind, Tags: x.Tags}
	}
	n := value.NewNode(kv.SymbolsSlice()[0])
	for _, t := range x.Tags {
		n = n.Tagged(value.Intern(t))
	}
	return NodeLiteral(n)
}

// simplifyTag implements the Tag half of the rule: fold when the
// target is already a literal Node.
func simplifyTag(t *Tag, ctx *Context) Expr {
	target := Simplify(t.Expr, ctx)
	if n, ok := IsNodeLiteral(target); ok {
		return NodeLiteral(n.Tagged(value.Intern(t.Tag)))
	}
	return &Tag{Expr: target, Tag: t.Tag}
}

// simplifyAttributes implements the Attributes half of the rule: fold
// when the target is a literal Node and every binding value is
// literal; merge with an adjacent Attributes on the same target.
func simplifyAttributes(a *Attributes, ctx *Context) Expr {
	target := Simplify(a.Expr, ctx)

	bindings := make([]AttrBinding, len(a.Bindings))
	allLiteral := true
	for i, b := range a.Bindings {
		e := Simplify(b.Expr, ctx)
		bindings[i] = AttrBinding{Name: b.Name, Expr: e}
		if _, ok := IsLiteral(e); !ok {
			allLiteral = false
		}
	}

	// Adjacent Attributes operations merge their bindings (innermost
	// first, so later bindings on the same name win, matching
	// Node.WithAttributes' override order).
	if inner, ok := target.(*Attributes); ok {
		merged := append(append([]AttrBinding(nil), inner.Bindings...), bindings...)
		return simplifyAttributes(&Attributes{Expr: inner.Expr, Bindings: merged}, ctx)
	}

	if n, ok := IsNodeLiteral(target); ok && allLiteral {
		set := make(map[value.Symbol]value.Vector, len(bindings))
		for _, b := range bindings {
			v, _ := IsLiteral(b.Expr)
			set[value.Intern(b.Name)] = v
		}
		return NodeLiteral(n.WithAttributes(set))
	}

	return &Attributes{Expr: target, Bindings: bindings}
}

// simplifyAppend implements the Append half of the rule: fold when
// both parent and children resolve to literal Nodes; move an append
// inward through an intervening Attributes on a literal root; split a
// literal-leading Sequence of children so its first element folds
// directly into the parent.
func simplifyAppend(a *Append, ctx *Context) Expr {
	parent := Simplify(a.Parent, ctx)
	children := Simplify(a.Children, ctx)

	// Append of a literal child through an intervening Attributes of a
	// literal root moves the append inward to the root.
	if attrs, ok := parent.(*Attributes); ok {
		if _, ok := IsNodeLiteral(attrs.Expr); ok {
			return simplifyAttributes(&Attributes{
				Expr:     simplifyAppend(&Append{Parent: attrs.Expr, Children: children}, ctx),
				Bindings: attrs.Bindings,
			}, ctx)
		}
	}

	parentNode, parentOK := IsNodeLiteral(parent)

	if seq, ok := children.(*Sequence); ok && parentOK && len(seq.Items) > 0 {
		if leadNode, ok := IsNodeLiteral(seq.Items[0]); ok {
			parentNode = parentNode.Append(leadNode)
			rest := seq.Items[1:]
			if len(rest) == 0 {
				return NodeLiteral(parentNode)
			}
			return simplifyAppend(&Append{Parent: NodeLiteral(parentNode), Children: simplifySequence(&Sequence{Items: rest}, ctx)}, ctx)
		}
	}

	childNodes, allNodes := literalNodeList(children)
	if parentOK && allNodes {
		return NodeLiteral(parentNode.Append(childNodes...))
	}

	return &Append{Parent: parent, Children: children}
}

// literalNodeList collects e as a flat slice of literal Nodes: either
// a single Node literal or a Sequence whose every item is one.
func literalNodeList(e Expr) ([]*value.Node, bool) {
	if n, ok := IsNodeLiteral(e); ok {
		return []*value.Node{n}, true
	}
	if v, ok := IsLiteral(e); ok && v.IsNull() {
		return nil, true
	}
	if seq, ok := e.(*Sequence); ok {
		var out []*value.Node
		for _, it := range seq.Items {
			n, ok := IsNodeLiteral(it)
			if !ok {
				return nil, false
			}
			out = append(out, n)
		}
		return out, true
	}
	return nil, false
}
