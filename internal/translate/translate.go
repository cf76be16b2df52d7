// Package translate turns a parsed SQL statement into a layout tree.
//
// Translation is a pure function of the AST: it knows nothing about line
// widths. Every construct it has a rule for maps to a fixed tree shape, and
// any other construct fails the whole translation with a
// *domain.UnsupportedConstructError naming it. No partial tree is returned.
package translate

import (
	"strings"

	"sqlpp/internal/domain"
	"sqlpp/internal/layout"
	"sqlpp/internal/sqlparse"
)

// maxDepth bounds statement and expression nesting during translation.
// Parsed input never gets close; hand-built statements might.
const maxDepth = 1000

// Options control rendering choices that do not depend on the AST.
type Options struct {
	AliasStyle domain.AliasStyle
}

// Statement translates stmt into a layout tree.
func Statement(stmt sqlparse.Stmt, opts Options) (layout.Tree, error) {
	if stmt == nil {
		return nil, domain.ErrValidation("statement is required")
	}
	t := &translator{opts: opts}
	tree := t.statement(stmt)
	if t.err != nil {
		return nil, t.err
	}
	return tree, nil
}

// translator carries the options and the first failure. Once err is set
// the remaining rules still build placeholder trees but the result is
// discarded.
type translator struct {
	opts  Options
	err   error
	depth int
}

func (t *translator) fail(format string, args ...interface{}) layout.Tree {
	if t.err == nil {
		t.err = domain.ErrUnsupported(format, args...)
	}
	return layout.Leaf("")
}

func (t *translator) enter() bool {
	if t.depth >= maxDepth {
		if t.err == nil {
			t.err = domain.ErrParse(0, 0, "statement is too large (nesting depth exceeded)")
		}
		return false
	}
	t.depth++
	return true
}

func (t *translator) leave() {
	t.depth--
}

func (t *translator) statement(stmt sqlparse.Stmt) layout.Tree {
	switch s := stmt.(type) {
	case *sqlparse.SelectStmt:
		return t.query(s)
	case *sqlparse.InsertStmt:
		return t.insert(s)
	case *sqlparse.UpdateStmt:
		return t.update(s)
	case *sqlparse.DeleteStmt:
		return t.delete(s)
	default:
		return t.fail("%T", stmt)
	}
}

// === SELECT ===

// query lays out WITH and the clauses of a SELECT as top-level children,
// one per present clause.
func (t *translator) query(s *sqlparse.SelectStmt) layout.Tree {
	if s == nil || s.Body == nil || s.Body.Left == nil {
		return t.fail("empty query")
	}
	if !t.enter() {
		return layout.Leaf("")
	}
	defer t.leave()

	if s.Body.Op != sqlparse.SetOpNone {
		return t.fail("%s", s.Body.Op)
	}

	b := layout.NewBuilder()
	if s.With != nil {
		keyword := "WITH"
		if s.With.Recursive {
			keyword = "WITH RECURSIVE"
		}
		if len(s.With.CTEs) == 0 {
			return t.fail("empty WITH")
		}
		ctes := make([]layout.Tree, 0, len(s.With.CTEs))
		for _, cte := range s.With.CTEs {
			ctes = append(ctes, t.cte(cte))
		}
		b.Child(keyword, "", list(ctes, "", ",", ""))
	}
	if !t.selectCore(b, s.Body.Left) {
		return layout.Leaf("")
	}
	return b.Build()
}

func (t *translator) cte(cte *sqlparse.CTE) layout.Tree {
	name := cte.Name
	if len(cte.Columns) > 0 {
		name += " (" + strings.Join(cte.Columns, ", ") + ")"
	}
	return layout.SingleChild(name+" AS (", " )", t.query(cte.Select))
}

// selectCore adds one child per present clause. It reports false, with
// nothing added, for a clause that has no layout rule.
func (t *translator) selectCore(b *layout.Builder, sc *sqlparse.SelectCore) bool {
	switch {
	case sc.Windows != nil:
		t.fail("WINDOW clause")
		return false
	case sc.Offset != nil:
		t.fail("OFFSET")
		return false
	case sc.Fetch != nil:
		t.fail("FETCH FIRST")
		return false
	}

	keyword := "SELECT"
	if sc.Distinct {
		keyword = "SELECT DISTINCT"
	}
	items := make([]layout.Tree, 0, len(sc.Columns))
	for _, item := range sc.Columns {
		items = append(items, t.selectItem(item))
	}
	b.Child("", "", clause(keyword, items))

	if sc.From != nil {
		b.Child("FROM", "", t.from(sc.From))
	}
	if sc.Where != nil {
		b.Child("WHERE", "", t.expr(sc.Where))
	}
	if len(sc.GroupBy) > 0 {
		keys := make([]layout.Tree, 0, len(sc.GroupBy))
		for _, e := range sc.GroupBy {
			keys = append(keys, t.expr(e))
		}
		b.Child("", "", clause("GROUP BY", keys))
	}
	if sc.Having != nil {
		b.Child("HAVING", "", t.expr(sc.Having))
	}
	if len(sc.OrderBy) > 0 {
		b.Child("", "", clause("ORDER BY", t.orderItems(sc.OrderBy)))
	}
	if sc.Limit != nil {
		b.Child("LIMIT", "", t.expr(sc.Limit))
	}
	return true
}

// clause lays out a keyword followed by a list whose separators lead the
// following item, so an indented clause puts the keyword on a line of its own.
func clause(keyword string, items []layout.Tree) layout.Tree {
	b := layout.NewBuilder().Leaf(keyword)
	for i, item := range items {
		pre := ","
		if i == 0 {
			pre = ""
		}
		b.Child(pre, "", item)
	}
	return b.Build()
}

func (t *translator) selectItem(item sqlparse.SelectItem) layout.Tree {
	return t.aliased(t.expr(item.Expr), item.Alias)
}

// aliased glues the alias to tree as a post-label.
func (t *translator) aliased(tree layout.Tree, alias string) layout.Tree {
	if alias == "" {
		return tree
	}
	if t.opts.AliasStyle == domain.AliasStyleBare {
		return layout.SingleChild("", " "+alias, tree)
	}
	return layout.SingleChild("", " AS "+alias, tree)
}

func (t *translator) orderItems(items []sqlparse.OrderByItem) []layout.Tree {
	out := make([]layout.Tree, 0, len(items))
	for _, item := range items {
		var post string
		switch {
		case item.Desc:
			post = " DESC"
		case item.Asc:
			post = " ASC"
		}
		if item.NullsFirst != nil {
			if *item.NullsFirst {
				post += " NULLS FIRST"
			} else {
				post += " NULLS LAST"
			}
		}
		tree := t.expr(item.Expr)
		if post != "" {
			tree = layout.SingleChild("", post, tree)
		}
		out = append(out, tree)
	}
	return out
}

// === FROM and joins ===

// from flattens the join chain into one sibling list: the first relation
// unlabeled, every joined relation labeled with its join keyword.
func (t *translator) from(f *sqlparse.FromClause) layout.Tree {
	first := t.relation(f.Source)
	if len(f.Joins) == 0 {
		return first
	}

	b := layout.NewBuilder().Child("", "", first)
	for _, j := range f.Joins {
		if j.Natural {
			return t.fail("NATURAL JOIN")
		}
		right := t.relation(j.Right)
		switch j.Type {
		case sqlparse.JoinComma:
			b.Child(",", "", right)
			continue
		case sqlparse.JoinCross:
			b.Child("CROSS JOIN", "", right)
			continue
		}

		keyword := string(j.Type) + " JOIN"
		criteria := t.joinCriteria(j)
		if criteria == nil {
			b.Child(keyword, "", right)
			continue
		}
		b.Child(keyword, "", layout.NewBuilder().
			Child("", "", right).
			Child("", "", criteria).
			Build())
	}
	return b.Build()
}

func (t *translator) joinCriteria(j *sqlparse.Join) layout.Tree {
	switch {
	case j.Condition != nil:
		return layout.SingleChild("ON", "", t.expr(j.Condition))
	case len(j.Using) > 0:
		cols := make([]layout.Tree, 0, len(j.Using))
		for _, c := range j.Using {
			cols = append(cols, layout.Leaf(c))
		}
		return layout.SingleChild("USING", "", list(cols, "(", ",", " )"))
	}
	return nil
}

func (t *translator) relation(ref sqlparse.TableRef) layout.Tree {
	switch r := ref.(type) {
	case *sqlparse.TableName:
		return t.aliased(layout.Leaf(r.QualifiedName()), r.Alias)
	case *sqlparse.DerivedTable:
		return t.aliased(layout.SingleChild("(", " )", t.query(r.Select)), r.Alias)
	case *sqlparse.FuncTable:
		return t.aliased(t.funcCall(r.Func), r.Alias)
	case *sqlparse.LateralTable:
		return t.fail("LATERAL")
	default:
		return t.fail("%T", ref)
	}
}

// === INSERT, UPDATE, DELETE ===

func (t *translator) insert(s *sqlparse.InsertStmt) layout.Tree {
	if len(s.Returning) > 0 {
		return t.fail("RETURNING")
	}

	b := layout.NewBuilder()
	head := "INSERT INTO " + s.Table.QualifiedName()
	if len(s.Columns) == 0 {
		b.Leaf(head)
	} else {
		cols := make([]layout.Tree, 0, len(s.Columns))
		for _, c := range s.Columns {
			cols = append(cols, layout.Leaf(c))
		}
		b.Child(head+" (", ")", list(cols, "", ",", ""))
	}

	switch {
	case s.Query != nil:
		b.Child("", "", t.query(s.Query))
	case len(s.Values) > 0:
		rows := make([]layout.Tree, 0, len(s.Values))
		for _, row := range s.Values {
			if len(row) == 0 {
				rows = append(rows, layout.Leaf("()"))
				continue
			}
			rows = append(rows, list(t.exprs(row), "(", ",", ")"))
		}
		b.Child("VALUES", "", list(rows, "", ",", ""))
	default:
		return t.fail("INSERT without VALUES or query")
	}
	return b.Build()
}

func (t *translator) update(s *sqlparse.UpdateStmt) layout.Tree {
	if len(s.Returning) > 0 {
		return t.fail("RETURNING")
	}

	if len(s.Sets) == 0 {
		return t.fail("UPDATE without SET")
	}

	head := "UPDATE " + s.Table.QualifiedName()
	if s.Table.Alias != "" {
		head += " " + s.Table.Alias
	}
	b := layout.NewBuilder().Leaf(head)

	sets := make([]layout.Tree, 0, len(s.Sets))
	for _, set := range s.Sets {
		sets = append(sets, layout.NewBuilder().
			Child("", "", layout.Leaf(set.Column)).
			Child("=", "", t.expr(set.Value)).
			Build())
	}
	b.Child("SET", "", list(sets, "", ",", ""))

	if s.From != nil {
		b.Child("FROM", "", t.from(s.From))
	}
	if s.Where != nil {
		b.Child("WHERE", "", t.expr(s.Where))
	}
	return b.Build()
}

func (t *translator) delete(s *sqlparse.DeleteStmt) layout.Tree {
	switch {
	case s.Using != nil:
		return t.fail("DELETE ... USING")
	case len(s.Returning) > 0:
		return t.fail("RETURNING")
	}

	head := "DELETE FROM " + s.Table.QualifiedName()
	if s.Table.Alias != "" {
		head += " " + s.Table.Alias
	}
	b := layout.NewBuilder().Leaf(head)
	if s.Where != nil {
		b.Child("WHERE", "", t.expr(s.Where))
	}
	return b.Build()
}

// list lays out an n-ary form. The first item is labeled opening, later
// items are labeled joiner and the last one carries closing. One item
// collapses to a single child so it never takes an indent level of its own.
// list returns nil for no items.
func list(items []layout.Tree, opening, joiner, closing string) layout.Tree {
	switch len(items) {
	case 0:
		return nil
	case 1:
		return layout.SingleChild(opening, closing, items[0])
	}
	b := layout.NewBuilder()
	for i, item := range items {
		pre, post := joiner, ""
		if i == 0 {
			pre = opening
		}
		if i == len(items)-1 {
			post = closing
		}
		b.Child(pre, post, item)
	}
	return b.Build()
}
