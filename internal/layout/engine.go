package layout

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// MaxDepth bounds the nesting depth of a tree accepted by Render.
const MaxDepth = 2048

// ErrTooDeep is returned by Render for trees nested deeper than MaxDepth.
var ErrTooDeep = errors.New("layout tree is nested too deeply")

// Render lays out t within lineWidth columns, indenting each nesting level
// by indentWidth spaces.
//
// Every node is first rendered straight: its leaves and labels on the current
// line, separated by single spaces. If that exceeds lineWidth the partial
// output is discarded and the node is rendered indented: each child after
// the first starts on a new line at the node's indent level and its subtree
// is rendered recursively one level deeper. A single-child group keeps its
// parent's level.
//
// In indented mode labels are appended without a width check, so a post-label
// such as " AS x" may push a line past lineWidth. Leaves longer than lineWidth
// overflow as well.
func Render(t Tree, lineWidth, indentWidth int) (string, error) {
	if lineWidth <= 0 {
		return "", fmt.Errorf("line width must be positive, got %d", lineWidth)
	}
	if indentWidth < 0 {
		return "", fmt.Errorf("indent width must not be negative, got %d", indentWidth)
	}
	if t == nil {
		return "", errors.New("nil layout tree")
	}
	if depth(t) > MaxDepth {
		return "", ErrTooDeep
	}

	r := &renderer{width: lineWidth, indent: indentWidth}
	r.format(t, 0)
	return string(r.buf), nil
}

// renderer holds the output and the position on the current line. textStart
// is the byte offset after the line's indentation and col counts the runes
// written since the line began.
type renderer struct {
	width  int
	indent int

	buf       []byte
	textStart int
	col       int
}

type mark struct {
	n   int
	col int
}

func (r *renderer) mark() mark {
	return mark{n: len(r.buf), col: r.col}
}

// reset truncates the output to m. Straight rendering never starts a new
// line, so textStart is still valid afterwards.
func (r *renderer) reset(m mark) {
	r.buf = r.buf[:m.n]
	r.col = m.col
}

func (r *renderer) format(t Tree, level int) {
	m := r.mark()
	if r.straight(t) {
		return
	}
	r.reset(m)
	r.indented(t, level)
}

// straight renders t on the current line. It returns false as soon as the
// line would exceed the width; the caller discards the partial output.
func (r *renderer) straight(t Tree) bool {
	switch t := t.(type) {
	case Leaf:
		return r.fit(string(t), true)
	case *Group:
		for _, c := range t.Children {
			if !r.fit(c.Pre, true) || !r.straight(c.Tree) || !r.fit(c.Post, false) {
				return false
			}
		}
		return true
	}
	return false
}

func (r *renderer) indented(t Tree, level int) {
	switch t := t.(type) {
	case Leaf:
		r.write(string(t), true)
	case *Group:
		if t.single {
			c := t.Children[0]
			r.write(c.Pre, true)
			r.format(c.Tree, level)
			r.write(c.Post, false)
			return
		}
		for i, c := range t.Children {
			if i > 0 {
				r.newLine(level)
			}
			r.write(c.Pre, true)
			r.format(c.Tree, level+1)
			r.write(c.Post, false)
		}
	}
}

func (r *renderer) needSpace(space bool) bool {
	return space && len(r.buf) > r.textStart
}

func (r *renderer) fit(text string, space bool) bool {
	if text == "" {
		return true
	}
	n := utf8.RuneCountInString(text)
	if r.needSpace(space) {
		n++
	}
	if r.col+n > r.width {
		return false
	}
	r.write(text, space)
	return true
}

func (r *renderer) write(text string, space bool) {
	if text == "" {
		return
	}
	if r.needSpace(space) {
		r.buf = append(r.buf, ' ')
		r.col++
	}
	r.buf = append(r.buf, text...)
	r.col += utf8.RuneCountInString(text)
}

func (r *renderer) newLine(level int) {
	pad := level * r.indent
	r.buf = append(r.buf, '\n')
	r.buf = append(r.buf, strings.Repeat(" ", pad)...)
	r.textStart = len(r.buf)
	r.col = pad
}

// depth returns the nesting depth of t without recursing.
func depth(t Tree) int {
	type entry struct {
		t Tree
		d int
	}
	deepest := 0
	stack := []entry{{t, 1}}
	for len(stack) > 0 {
		e := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if e.d > deepest {
			deepest = e.d
		}
		if g, ok := e.t.(*Group); ok {
			for _, c := range g.Children {
				stack = append(stack, entry{c.Tree, e.d + 1})
			}
		}
	}
	return deepest
}
