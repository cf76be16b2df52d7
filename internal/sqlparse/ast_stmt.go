package sqlparse

// === Statement Nodes ===

// SelectStmt represents a complete SELECT statement with optional WITH clause.
type SelectStmt struct {
	With *WithClause
	Body *SelectBody
}

func (*SelectStmt) node()     {}
func (*SelectStmt) stmtNode() {}

// WithClause represents a WITH clause with CTEs.
type WithClause struct {
	Recursive bool
	CTEs      []*CTE
}

// CTE represents a Common Table Expression.
type CTE struct {
	Name    string
	Columns []string
	Select  *SelectStmt
}

// SelectBody represents the body of a SELECT with possible set operations.
type SelectBody struct {
	Left  *SelectCore
	Op    SetOpType   // UNION, INTERSECT, EXCEPT, or empty
	Right *SelectBody // for chained set operations
}

// SetOpType represents the type of set operation.
type SetOpType string

// SetOpNone and friends classify set operations (UNION, INTERSECT, EXCEPT).
const (
	SetOpNone         SetOpType = ""
	SetOpUnion        SetOpType = "UNION"
	SetOpUnionAll     SetOpType = "UNION ALL"
	SetOpIntersect    SetOpType = "INTERSECT"
	SetOpIntersectAll SetOpType = "INTERSECT ALL"
	SetOpExcept       SetOpType = "EXCEPT"
	SetOpExceptAll    SetOpType = "EXCEPT ALL"
)

// SelectCore represents the core SELECT clause with all optional clauses.
type SelectCore struct {
	Distinct bool
	Columns  []SelectItem
	From     *FromClause
	Where    Expr
	GroupBy  []Expr
	Having   Expr
	Windows  []WindowDef
	OrderBy  []OrderByItem
	Limit    Expr
	Offset   Expr
	Fetch    *FetchClause
}

// FetchClause represents FETCH FIRST/NEXT n ROWS ONLY.
type FetchClause struct {
	Count Expr
}

// WindowDef represents a named window definition.
type WindowDef struct {
	Name string
	Spec *WindowSpec
}

// SelectItem represents an item in the SELECT list. A bare * or t.* is a
// *StarExpr.
type SelectItem struct {
	Expr  Expr
	Alias string
}

// FromClause represents the FROM clause.
type FromClause struct {
	Source TableRef
	Joins  []*Join
}

// Join represents a JOIN clause.
type Join struct {
	Type      JoinType
	Natural   bool
	Right     TableRef
	Condition Expr     // ON clause
	Using     []string // USING (col1, col2)
}

// JoinType represents the type of join.
type JoinType string

// JoinInner and friends classify SQL JOIN types. A bare JOIN is JoinInner and
// OUTER is implied by LEFT, RIGHT and FULL.
const (
	JoinInner JoinType = "INNER"
	JoinLeft  JoinType = "LEFT"
	JoinRight JoinType = "RIGHT"
	JoinFull  JoinType = "FULL"
	JoinCross JoinType = "CROSS"
	JoinComma JoinType = ","
)

// OrderByItem represents an item in ORDER BY clause.
type OrderByItem struct {
	Expr       Expr
	Asc        bool  // ASC written explicitly
	Desc       bool  // DESC
	NullsFirst *bool // nil = default, true = NULLS FIRST, false = NULLS LAST
}

// === DML Statement Nodes ===

// InsertStmt represents an INSERT statement.
type InsertStmt struct {
	Table     *TableName
	Columns   []string
	Values    [][]Expr    // VALUES rows
	Query     *SelectStmt // INSERT ... SELECT
	Returning []SelectItem
}

func (*InsertStmt) node()     {}
func (*InsertStmt) stmtNode() {}

// SetClause represents column = value in UPDATE.
type SetClause struct {
	Column string
	Value  Expr
}

// UpdateStmt represents an UPDATE statement.
type UpdateStmt struct {
	Table     *TableName
	Sets      []SetClause
	From      *FromClause // UPDATE ... FROM
	Where     Expr
	Returning []SelectItem
}

func (*UpdateStmt) node()     {}
func (*UpdateStmt) stmtNode() {}

// DeleteStmt represents a DELETE statement.
type DeleteStmt struct {
	Table     *TableName
	Using     *FromClause // USING clause
	Where     Expr
	Returning []SelectItem
}

func (*DeleteStmt) node()     {}
func (*DeleteStmt) stmtNode() {}
