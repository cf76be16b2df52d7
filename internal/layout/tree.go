// Package layout defines the labeled tree the SQL formatter produces and the
// engine that renders such a tree under a line-width budget.
//
// A tree is either a [Leaf], an atomic token that is never split, or a
// [*Group], an ordered non-empty list of positioned children. Each [Child]
// carries a pre-label and a post-label that stick to the rendering of its
// subtree. Labels are how separators and keywords such as ",", "AS x" or ")"
// stay glued to their anchor.
//
// Trees are built with a [Builder]. A group that degenerates to one child
// which should keep its parent's indent level is built with [SingleChild]
// instead, so it can never acquire siblings.
package layout

import (
	"strconv"
	"strings"

	"sqlpp/internal/assert"
)

// Tree is a layout tree. The only implementations are [Leaf] and [*Group].
type Tree interface {
	isTree()
}

func (Leaf) isTree()   {}
func (*Group) isTree() {}

// Leaf is an atomic token.
type Leaf string

// Child is a subtree positioned inside a group.
type Child struct {
	Pre  string
	Post string
	Tree Tree
}

// Group is an ordered, non-empty sequence of children.
type Group struct {
	Children []Child
	single   bool
}

// Single reports whether the group was built with SingleChild. Its only child
// is rendered at the indent level of the group itself.
func (g *Group) Single() bool { return g.single }

// SingleChild returns a group with exactly one child that renders at the
// same indent level as the group.
func SingleChild(pre, post string, t Tree) Tree {
	assert.That(t != nil, "layout: single child without subtree")
	return &Group{Children: []Child{{Pre: pre, Post: post, Tree: t}}, single: true}
}

// Builder accumulates the children of a group.
type Builder struct {
	children []Child
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Leaf appends an unlabeled leaf child.
func (b *Builder) Leaf(text string) *Builder {
	b.children = append(b.children, Child{Tree: Leaf(text)})
	return b
}

// Child appends t with the given labels.
func (b *Builder) Child(pre, post string, t Tree) *Builder {
	assert.That(t != nil, "layout: child %q without subtree", pre)
	b.children = append(b.children, Child{Pre: pre, Post: post, Tree: t})
	return b
}

// AppendChildrenOf splices the top-level children of t into the builder as if
// they had been added here directly. A non-empty pre is prepended to the
// pre-label of the first spliced child. A leaf is spliced as one child.
func (b *Builder) AppendChildrenOf(t Tree, pre string) *Builder {
	switch t := t.(type) {
	case Leaf:
		b.children = append(b.children, Child{Pre: pre, Tree: t})
	case *Group:
		for i, c := range t.Children {
			if i == 0 {
				c.Pre = joinLabels(pre, c.Pre)
			}
			b.children = append(b.children, c)
		}
	default:
		assert.That(false, "layout: cannot splice %T", t)
	}
	return b
}

// Len returns the number of children added so far.
func (b *Builder) Len() int {
	return len(b.children)
}

// Build returns the group. It panics if no child was added.
func (b *Builder) Build() Tree {
	assert.That(len(b.children) > 0, "layout: empty group")
	children := make([]Child, len(b.children))
	copy(children, b.children)
	return &Group{Children: children}
}

func joinLabels(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	default:
		return a + " " + b
	}
}

// Tokens returns the non-empty labels and leaves of t in rendering order.
func Tokens(t Tree) []string {
	var out []string
	var walk func(Tree)
	walk = func(t Tree) {
		switch t := t.(type) {
		case Leaf:
			if t != "" {
				out = append(out, string(t))
			}
		case *Group:
			for _, c := range t.Children {
				if c.Pre != "" {
					out = append(out, c.Pre)
				}
				walk(c.Tree)
				if c.Post != "" {
					out = append(out, c.Post)
				}
			}
		}
	}
	walk(t)
	return out
}

// Dump renders t as an s-expression for debugging and test failures.
// Labels are shown as quoted strings around the child, single groups are
// prefixed with "!".
func Dump(t Tree) string {
	var sb strings.Builder
	dump(&sb, t)
	return sb.String()
}

func dump(sb *strings.Builder, t Tree) {
	switch t := t.(type) {
	case Leaf:
		sb.WriteString(string(t))
	case *Group:
		if t.single {
			sb.WriteByte('!')
		}
		sb.WriteByte('(')
		for i, c := range t.Children {
			if i > 0 {
				sb.WriteByte(' ')
			}
			if c.Pre != "" {
				sb.WriteString(strconv.Quote(c.Pre))
				sb.WriteByte(' ')
			}
			dump(sb, c.Tree)
			if c.Post != "" {
				sb.WriteByte(' ')
				sb.WriteString(strconv.Quote(c.Post))
			}
		}
		sb.WriteByte(')')
	}
}
