package sqlparse

import "strings"

// === Expression Nodes ===

// ColumnRef is a possibly qualified column reference. Each part keeps its
// source spelling, quotes included.
type ColumnRef struct {
	Parts []string
}

func (*ColumnRef) node()     {}
func (*ColumnRef) exprNode() {}

// Name returns the dot-joined reference.
func (c *ColumnRef) Name() string {
	return strings.Join(c.Parts, ".")
}

// Literal represents a literal value (number, string, bool, null). Value is
// the source text; strings keep their quotes.
type Literal struct {
	Type  LiteralType
	Value string
}

func (*Literal) node()     {}
func (*Literal) exprNode() {}

// LiteralType represents the type of a literal.
type LiteralType int

// LiteralNumber and friends classify literal values.
const (
	LiteralNumber LiteralType = iota
	LiteralString
	LiteralBool
	LiteralNull
)

// Param is a bind parameter placeholder: ?, $1 or :name.
type Param struct {
	Text string
}

func (*Param) node()     {}
func (*Param) exprNode() {}

// BinaryExpr represents a binary expression (left op right).
type BinaryExpr struct {
	Left  Expr
	Op    TokenType
	Right Expr
}

func (*BinaryExpr) node()     {}
func (*BinaryExpr) exprNode() {}

// UnaryExpr represents a unary expression (NOT x, -x, +x).
type UnaryExpr struct {
	Op   TokenType
	Expr Expr
}

func (*UnaryExpr) node()     {}
func (*UnaryExpr) exprNode() {}

// ParenExpr represents a parenthesized expression.
type ParenExpr struct {
	Expr Expr
}

func (*ParenExpr) node()     {}
func (*ParenExpr) exprNode() {}

// FuncCall represents a function call.
type FuncCall struct {
	Name     string        // possibly qualified, source spelling
	Distinct bool          // COUNT(DISTINCT ...)
	Args     []Expr        // arguments
	Star     bool          // COUNT(*)
	OrderBy  []OrderByItem // array_agg(x ORDER BY y)
	Filter   Expr          // FILTER (WHERE ...) clause
	Window   *WindowSpec   // OVER clause
}

func (*FuncCall) node()     {}
func (*FuncCall) exprNode() {}

// WindowSpec represents a window specification (OVER clause).
type WindowSpec struct {
	Name        string // named window reference
	PartitionBy []Expr
	OrderBy     []OrderByItem
	Frame       *FrameSpec
}

// FrameSpec represents a window frame specification. End is nil unless the
// frame was written with BETWEEN.
type FrameSpec struct {
	Type  FrameType
	Start *FrameBound
	End   *FrameBound
}

// FrameType represents the type of window frame.
type FrameType string

// FrameRows and friends are the frame units.
const (
	FrameRows   FrameType = "ROWS"
	FrameRange  FrameType = "RANGE"
	FrameGroups FrameType = "GROUPS"
)

// FrameBound represents a window frame bound.
type FrameBound struct {
	Type   FrameBoundType
	Offset Expr // for N PRECEDING/FOLLOWING
}

// FrameBoundType represents the type of frame bound.
type FrameBoundType string

// FrameUnboundedPreceding and friends are the frame bound kinds.
const (
	FrameUnboundedPreceding FrameBoundType = "UNBOUNDED PRECEDING"
	FrameUnboundedFollowing FrameBoundType = "UNBOUNDED FOLLOWING"
	FrameCurrentRow         FrameBoundType = "CURRENT ROW"
	FrameExprPreceding      FrameBoundType = "PRECEDING"
	FrameExprFollowing      FrameBoundType = "FOLLOWING"
)

// CaseExpr represents a CASE expression.
type CaseExpr struct {
	Operand Expr // CASE operand WHEN... (optional, nil for searched CASE)
	Whens   []WhenClause
	Else    Expr
}

func (*CaseExpr) node()     {}
func (*CaseExpr) exprNode() {}

// WhenClause represents a WHEN clause in a CASE expression.
type WhenClause struct {
	Condition Expr
	Result    Expr
}

// CastExpr represents a CAST(expr AS type) or TRY_CAST(expr AS type) expression.
type CastExpr struct {
	Expr     Expr
	TypeName string
	TryCast  bool // true for TRY_CAST
}

func (*CastExpr) node()     {}
func (*CastExpr) exprNode() {}

// TypeCastExpr represents a postfix cast (expr::type).
type TypeCastExpr struct {
	Expr     Expr
	TypeName string
}

func (*TypeCastExpr) node()     {}
func (*TypeCastExpr) exprNode() {}

// InExpr represents an IN expression.
type InExpr struct {
	Expr   Expr
	Not    bool
	Values []Expr      // IN (1, 2, 3)
	Query  *SelectStmt // IN (SELECT ...)
}

func (*InExpr) node()     {}
func (*InExpr) exprNode() {}

// BetweenExpr represents a BETWEEN expression.
type BetweenExpr struct {
	Expr Expr
	Not  bool
	Low  Expr
	High Expr
}

func (*BetweenExpr) node()     {}
func (*BetweenExpr) exprNode() {}

// IsNullExpr represents IS [NOT] NULL.
type IsNullExpr struct {
	Expr Expr
	Not  bool
}

func (*IsNullExpr) node()     {}
func (*IsNullExpr) exprNode() {}

// IsBoolExpr represents IS [NOT] TRUE/FALSE.
type IsBoolExpr struct {
	Expr  Expr
	Not   bool
	Value bool // true for IS TRUE, false for IS FALSE
}

func (*IsBoolExpr) node()     {}
func (*IsBoolExpr) exprNode() {}

// LikeExpr represents a LIKE or ILIKE expression.
type LikeExpr struct {
	Expr    Expr
	Not     bool
	Pattern Expr
	Escape  Expr // optional ESCAPE character
	ILike   bool // true for ILIKE, false for LIKE
}

func (*LikeExpr) node()     {}
func (*LikeExpr) exprNode() {}

// ExistsExpr represents [NOT] EXISTS (subquery).
type ExistsExpr struct {
	Not    bool
	Select *SelectStmt
}

func (*ExistsExpr) node()     {}
func (*ExistsExpr) exprNode() {}

// SubqueryExpr represents a scalar subquery used as an expression.
type SubqueryExpr struct {
	Select *SelectStmt
}

func (*SubqueryExpr) node()     {}
func (*SubqueryExpr) exprNode() {}

// StarExpr represents a * or table.* expression.
type StarExpr struct {
	Table string // optional table qualifier
}

func (*StarExpr) node()     {}
func (*StarExpr) exprNode() {}

// ArrayExpr represents an ARRAY[...] constructor.
type ArrayExpr struct {
	Elements []Expr
}

func (*ArrayExpr) node()     {}
func (*ArrayExpr) exprNode() {}

// IndexExpr represents array subscripting: arr[i].
type IndexExpr struct {
	Expr  Expr
	Index Expr
}

func (*IndexExpr) node()     {}
func (*IndexExpr) exprNode() {}

// IntervalExpr represents INTERVAL 'value' unit.
type IntervalExpr struct {
	Value Expr
	Unit  string // DAY, HOUR, etc.
}

func (*IntervalExpr) node()     {}
func (*IntervalExpr) exprNode() {}

// GroupingExpr represents GROUPING SETS, CUBE or ROLLUP in GROUP BY.
type GroupingExpr struct {
	Type GroupingType
	Sets [][]Expr
}

func (*GroupingExpr) node()     {}
func (*GroupingExpr) exprNode() {}

// GroupingType represents the kind of a grouping element.
type GroupingType string

// GroupingSets and friends are the grouping element kinds.
const (
	GroupingSets   GroupingType = "GROUPING SETS"
	GroupingCube   GroupingType = "CUBE"
	GroupingRollup GroupingType = "ROLLUP"
)
