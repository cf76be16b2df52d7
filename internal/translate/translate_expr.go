package translate

import (
	"strings"

	"sqlpp/internal/layout"
	"sqlpp/internal/sqlparse"
)

// atomic is the binding strength of expressions that never need parentheses.
const atomic = sqlparse.PrecedencePostfix + 1

func (t *translator) expr(e sqlparse.Expr) layout.Tree {
	if e == nil {
		return t.fail("missing expression")
	}
	if !t.enter() {
		return layout.Leaf("")
	}
	defer t.leave()

	switch e := e.(type) {
	case *sqlparse.ColumnRef:
		return layout.Leaf(strings.Join(e.Parts, "."))
	case *sqlparse.Literal:
		return layout.Leaf(e.Value)
	case *sqlparse.Param:
		return layout.Leaf(e.Text)
	case *sqlparse.StarExpr:
		if e.Table != "" {
			return layout.Leaf(e.Table + ".*")
		}
		return layout.Leaf("*")

	case *sqlparse.BinaryExpr:
		return t.binary(e)
	case *sqlparse.UnaryExpr:
		return t.unary(e)
	case *sqlparse.ParenExpr:
		return layout.SingleChild("(", ")", t.expr(e.Expr))

	case *sqlparse.BetweenExpr:
		keyword := "BETWEEN"
		if e.Not {
			keyword = "NOT BETWEEN"
		}
		b := layout.NewBuilder()
		t.operand(b, e.Expr, "", sqlparse.TOKEN_BETWEEN, sqlparse.PrecedenceComparison, false)
		t.operand(b, e.Low, keyword, sqlparse.TOKEN_BETWEEN, sqlparse.PrecedenceAddition, false)
		t.operand(b, e.High, "AND", sqlparse.TOKEN_BETWEEN, sqlparse.PrecedenceAddition, false)
		return b.Build()

	case *sqlparse.InExpr:
		return t.in(e)

	case *sqlparse.LikeExpr:
		keyword := "LIKE"
		if e.ILike {
			keyword = "ILIKE"
		}
		if e.Not {
			keyword = "NOT " + keyword
		}
		b := layout.NewBuilder()
		t.operand(b, e.Expr, "", sqlparse.TOKEN_LIKE, sqlparse.PrecedenceComparison, false)
		t.operand(b, e.Pattern, keyword, sqlparse.TOKEN_LIKE, sqlparse.PrecedenceAddition, false)
		if e.Escape != nil {
			t.operand(b, e.Escape, "ESCAPE", sqlparse.TOKEN_LIKE, sqlparse.PrecedenceAddition, false)
		}
		return b.Build()

	case *sqlparse.IsNullExpr:
		post := " IS NULL"
		if e.Not {
			post = " IS NOT NULL"
		}
		return layout.SingleChild("", post, t.wrapped(e.Expr, sqlparse.PrecedenceComparison))

	case *sqlparse.ExistsExpr:
		opening := "EXISTS ("
		if e.Not {
			opening = "NOT EXISTS ("
		}
		return layout.SingleChild(opening, " )", t.query(e.Select))
	case *sqlparse.SubqueryExpr:
		return layout.SingleChild("(", " )", t.query(e.Select))

	case *sqlparse.CaseExpr:
		return t.caseExpr(e)
	case *sqlparse.FuncCall:
		return t.funcCall(e)

	case *sqlparse.CastExpr:
		opening := "CAST("
		if e.TryCast {
			opening = "TRY_CAST("
		}
		return layout.SingleChild(opening, " AS "+e.TypeName+")", t.expr(e.Expr))
	case *sqlparse.TypeCastExpr:
		return layout.SingleChild("", "::"+e.TypeName, t.wrapped(e.Expr, sqlparse.PrecedencePostfix))

	case *sqlparse.ArrayExpr:
		if len(e.Elements) == 0 {
			return layout.Leaf("ARRAY[]")
		}
		return list(t.exprs(e.Elements), "ARRAY[", ",", "]")

	case *sqlparse.IsBoolExpr:
		return t.fail("IS %s", boolTest(e))
	case *sqlparse.IntervalExpr:
		return t.fail("INTERVAL")
	case *sqlparse.IndexExpr:
		return t.fail("array subscript")
	case *sqlparse.GroupingExpr:
		return t.fail("%s", e.Type)
	default:
		return t.fail("%T", e)
	}
}

func (t *translator) exprs(es []sqlparse.Expr) []layout.Tree {
	out := make([]layout.Tree, 0, len(es))
	for _, e := range es {
		out = append(out, t.expr(e))
	}
	return out
}

func boolTest(e *sqlparse.IsBoolExpr) string {
	s := "FALSE"
	if e.Value {
		s = "TRUE"
	}
	if e.Not {
		return "NOT " + s
	}
	return s
}

// === Operators ===

// binary flattens a chain of operators of one family into a single sibling
// list: the first operand unlabeled, every later operand labeled with its
// operator.
func (t *translator) binary(e *sqlparse.BinaryExpr) layout.Tree {
	prec := binaryPrecedence(e.Op)
	b := layout.NewBuilder()
	t.operand(b, e.Left, "", e.Op, prec, false)
	t.operand(b, e.Right, e.Op.String(), e.Op, prec, true)
	return b.Build()
}

// operand appends one operand of op to b, labeled pre. An operand of the
// same family is spliced in place. A parenthesized operand, or one binding
// looser than prec, is wrapped with "(" glued to pre and ")" after it.
// A right operand binding exactly as tight as prec is wrapped as well.
func (t *translator) operand(b *layout.Builder, e sqlparse.Expr, pre string, op sqlparse.TokenType, prec int, right bool) {
	if p, ok := e.(*sqlparse.ParenExpr); ok {
		b.Child(labels(pre, "("), ")", t.expr(p.Expr))
		return
	}
	if bin, ok := e.(*sqlparse.BinaryExpr); ok && splices(op, bin.Op, right) {
		if !t.enter() {
			b.Child(pre, "", layout.Leaf(""))
			return
		}
		b.AppendChildrenOf(t.binary(bin), pre)
		t.leave()
		return
	}
	if p := precedence(e); p < prec || (right && p == prec) {
		b.Child(labels(pre, "("), ")", t.expr(e))
		return
	}
	b.Child(pre, "", t.expr(e))
}

// wrapped returns the tree of e, parenthesized if e binds looser than prec.
func (t *translator) wrapped(e sqlparse.Expr, prec int) layout.Tree {
	if _, ok := e.(*sqlparse.ParenExpr); !ok && precedence(e) < prec {
		return layout.SingleChild("(", ")", t.expr(e))
	}
	return t.expr(e)
}

func (t *translator) unary(e *sqlparse.UnaryExpr) layout.Tree {
	if e.Op == sqlparse.TOKEN_NOT {
		if p, ok := e.Expr.(*sqlparse.ParenExpr); ok {
			return layout.SingleChild("NOT (", ")", t.expr(p.Expr))
		}
		if precedence(e.Expr) < sqlparse.PrecedenceNot {
			return layout.SingleChild("NOT (", ")", t.expr(e.Expr))
		}
		return layout.SingleChild("NOT", "", t.expr(e.Expr))
	}

	sign := e.Op.String()
	inner := t.wrapped(e.Expr, sqlparse.PrecedenceUnary)
	// "-1" stays one token; "- -1" must not become a comment.
	if leaf, ok := inner.(layout.Leaf); ok && !strings.HasPrefix(string(leaf), "-") && !strings.HasPrefix(string(leaf), "+") {
		return layout.Leaf(sign + string(leaf))
	}
	return layout.SingleChild(sign, "", inner)
}

// splices reports whether a child operator folds into the operand list of
// its parent. AND and OR chains fold on both sides. Arithmetic folds its
// left operand when both operators share a family.
func splices(parent, child sqlparse.TokenType, right bool) bool {
	switch parent {
	case sqlparse.TOKEN_AND, sqlparse.TOKEN_OR:
		return child == parent
	case sqlparse.TOKEN_PLUS, sqlparse.TOKEN_MINUS,
		sqlparse.TOKEN_STAR, sqlparse.TOKEN_SLASH, sqlparse.TOKEN_MOD,
		sqlparse.TOKEN_DPIPE:
		return !right && family(parent) == family(child)
	}
	return false
}

func family(op sqlparse.TokenType) sqlparse.TokenType {
	switch op {
	case sqlparse.TOKEN_MINUS:
		return sqlparse.TOKEN_PLUS
	case sqlparse.TOKEN_SLASH, sqlparse.TOKEN_MOD:
		return sqlparse.TOKEN_STAR
	}
	return op
}

func binaryPrecedence(op sqlparse.TokenType) int {
	switch op {
	case sqlparse.TOKEN_OR:
		return sqlparse.PrecedenceOr
	case sqlparse.TOKEN_AND:
		return sqlparse.PrecedenceAnd
	case sqlparse.TOKEN_PLUS, sqlparse.TOKEN_MINUS, sqlparse.TOKEN_DPIPE:
		return sqlparse.PrecedenceAddition
	case sqlparse.TOKEN_STAR, sqlparse.TOKEN_SLASH, sqlparse.TOKEN_MOD:
		return sqlparse.PrecedenceMultiply
	default:
		return sqlparse.PrecedenceComparison
	}
}

func precedence(e sqlparse.Expr) int {
	switch e := e.(type) {
	case *sqlparse.BinaryExpr:
		return binaryPrecedence(e.Op)
	case *sqlparse.UnaryExpr:
		if e.Op == sqlparse.TOKEN_NOT {
			return sqlparse.PrecedenceNot
		}
		return sqlparse.PrecedenceUnary
	case *sqlparse.BetweenExpr, *sqlparse.InExpr, *sqlparse.LikeExpr,
		*sqlparse.IsNullExpr, *sqlparse.IsBoolExpr:
		return sqlparse.PrecedenceComparison
	case *sqlparse.TypeCastExpr, *sqlparse.IndexExpr:
		return sqlparse.PrecedencePostfix
	default:
		return atomic
	}
}

func labels(a, b string) string {
	if a == "" {
		return b
	}
	return a + " " + b
}

// === Predicates and compound expressions ===

func (t *translator) in(e *sqlparse.InExpr) layout.Tree {
	keyword := "IN"
	if e.Not {
		keyword = "NOT IN"
	}
	b := layout.NewBuilder()
	t.operand(b, e.Expr, "", sqlparse.TOKEN_IN, sqlparse.PrecedenceComparison, false)
	switch {
	case e.Query != nil:
		b.Child(keyword+" (", " )", t.query(e.Query))
	case len(e.Values) > 0:
		b.Child(keyword, "", list(t.exprs(e.Values), "(", ",", " )"))
	default:
		return t.fail("empty IN list")
	}
	return b.Build()
}

// caseExpr lays out searched CASE as "CASE WHEN" / "WHEN" children and
// simple CASE with the operand labeled "CASE". Each WHEN is a two-child
// group with the result labeled "THEN". Both forms end with an END leaf.
func (t *translator) caseExpr(e *sqlparse.CaseExpr) layout.Tree {
	if len(e.Whens) == 0 {
		return t.fail("CASE without WHEN")
	}

	b := layout.NewBuilder()
	first := "CASE WHEN"
	if e.Operand != nil {
		b.Child("CASE", "", t.expr(e.Operand))
		first = "WHEN"
	}
	for i, w := range e.Whens {
		pre := "WHEN"
		if i == 0 {
			pre = first
		}
		b.Child(pre, "", layout.NewBuilder().
			Child("", "", t.expr(w.Condition)).
			Child("THEN", "", t.expr(w.Result)).
			Build())
	}
	if e.Else != nil {
		b.Child("ELSE", "", t.expr(e.Else))
	}
	return b.Leaf("END").Build()
}

// funcCall glues the name and opening parenthesis to the first argument.
// A window clause adds an "OVER(" child after the call.
func (t *translator) funcCall(fn *sqlparse.FuncCall) layout.Tree {
	switch {
	case fn.Filter != nil:
		return t.fail("FILTER clause")
	case len(fn.OrderBy) > 0:
		return t.fail("ORDER BY in aggregate %s", fn.Name)
	case fn.Window != nil && fn.Window.Name != "":
		return t.fail("named window %s", fn.Window.Name)
	}

	opening := fn.Name + "("
	if fn.Distinct {
		opening += "DISTINCT"
	}

	var call layout.Tree
	switch {
	case fn.Star:
		call = layout.Leaf(fn.Name + "(*)")
	case len(fn.Args) == 0:
		call = layout.Leaf(fn.Name + "()")
	case fn.Window == nil:
		return list(t.exprs(fn.Args), opening, ",", ")")
	default:
		call = layout.SingleChild(opening, ")", list(t.exprs(fn.Args), "", ",", ""))
	}
	if fn.Window == nil {
		return call
	}

	b := layout.NewBuilder().Child("", "", call)
	if window := t.window(fn.Window); window != nil {
		b.Child("OVER(", ")", window)
	} else {
		b.Leaf("OVER()")
	}
	return b.Build()
}

// window returns nil for an empty window specification.
func (t *translator) window(w *sqlparse.WindowSpec) layout.Tree {
	b := layout.NewBuilder()
	if len(w.PartitionBy) > 0 {
		b.Child("PARTITION BY", "", list(t.exprs(w.PartitionBy), "", ",", ""))
	}
	if len(w.OrderBy) > 0 {
		b.Child("ORDER BY", "", list(t.orderItems(w.OrderBy), "", ",", ""))
	}
	if w.Frame != nil {
		frame := t.frameBound(w.Frame.Start)
		if w.Frame.End != nil {
			frame = layout.NewBuilder().
				Child("BETWEEN", "", frame).
				Child("AND", "", t.frameBound(w.Frame.End)).
				Build()
		}
		b.Child(string(w.Frame.Type), "", frame)
	}
	if b.Len() == 0 {
		return nil
	}
	return b.Build()
}

func (t *translator) frameBound(fb *sqlparse.FrameBound) layout.Tree {
	if fb == nil {
		return t.fail("missing frame bound")
	}
	switch fb.Type {
	case sqlparse.FrameExprPreceding, sqlparse.FrameExprFollowing:
		return layout.SingleChild("", " "+string(fb.Type), t.expr(fb.Offset))
	default:
		return layout.Leaf(string(fb.Type))
	}
}
