package translate

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sqlpp/internal/domain"
	"sqlpp/internal/layout"
	"sqlpp/internal/sqlparse"
)

func translateSQL(t *testing.T, sql string, opts Options) (layout.Tree, error) {
	t.Helper()
	stmt, err := sqlparse.Parse(sql)
	require.NoError(t, err, "parse %q", sql)
	return Statement(stmt, opts)
}

func dump(t *testing.T, sql string) string {
	t.Helper()
	tree, err := translateSQL(t, sql, Options{})
	require.NoError(t, err)
	return layout.Dump(tree)
}

func TestStatement_Shapes(t *testing.T) {
	tests := []struct {
		name string
		sql  string
		want string
	}{
		{
			name: "select where",
			sql:  "SELECT * FROM TBL WHERE A=B",
			want: `((SELECT *) "FROM" TBL "WHERE" (A "=" B))`,
		},
		{
			name: "select list leading commas",
			sql:  "SELECT A, B, C FROM T",
			want: `((SELECT A "," B "," C) "FROM" T)`,
		},
		{
			name: "distinct",
			sql:  "SELECT DISTINCT A FROM T",
			want: `((SELECT DISTINCT A) "FROM" T)`,
		},
		{
			name: "join chain",
			sql:  "SELECT * FROM T1 JOIN T2 ON A = B LEFT OUTER JOIN T3 USING (X)",
			want: `((SELECT *) "FROM" (T1 "INNER JOIN" (T2 !("ON" (A "=" B))) "LEFT JOIN" (T3 !("USING" !("(" X " )")))))`,
		},
		{
			name: "comma and cross join",
			sql:  "SELECT * FROM T1, T2 CROSS JOIN T3",
			want: `((SELECT *) "FROM" (T1 "," T2 "CROSS JOIN" T3))`,
		},
		{
			name: "and chain flattened",
			sql:  "SELECT * FROM T WHERE A = B AND C = D AND E = F",
			want: `((SELECT *) "FROM" T "WHERE" ((A "=" B) "AND" (C "=" D) "AND" (E "=" F)))`,
		},
		{
			name: "or inside and is wrapped",
			sql:  "SELECT 1 FROM T WHERE (A = B OR C = D) AND E = F",
			want: `((SELECT 1) "FROM" T "WHERE" ("(" ((A "=" B) "OR" (C "=" D)) ")" "AND" (E "=" F)))`,
		},
		{
			name: "arithmetic family flattened",
			sql:  "SELECT A + B - C",
			want: `((SELECT (A "+" B "-" C)))`,
		},
		{
			name: "parenthesized right operand",
			sql:  "SELECT A - (B + C)",
			want: `((SELECT (A "- (" (B "+" C) ")")))`,
		},
		{
			name: "mixed precedence nests",
			sql:  "SELECT A + B * C",
			want: `((SELECT (A "+" (B "*" C))))`,
		},
		{
			name: "aliases",
			sql:  "SELECT A AS X FROM TBL T",
			want: `((SELECT !(A " AS X")) "FROM" !(TBL " AS T"))`,
		},
		{
			name: "group by having order by limit",
			sql:  "SELECT A FROM T GROUP BY A, B HAVING COUNT(*) > 1 ORDER BY A DESC NULLS LAST, B LIMIT 10",
			want: `((SELECT A) "FROM" T (GROUP BY A "," B) "HAVING" (COUNT(*) ">" 1) (ORDER BY !(A " DESC NULLS LAST") "," B) "LIMIT" 10)`,
		},
		{
			name: "in list",
			sql:  "SELECT * FROM T WHERE A NOT IN (1, 2)",
			want: `((SELECT *) "FROM" T "WHERE" (A "NOT IN" ("(" 1 "," 2 " )")))`,
		},
		{
			name: "in list of one",
			sql:  "SELECT * FROM T WHERE A IN (1)",
			want: `((SELECT *) "FROM" T "WHERE" (A "IN" !("(" 1 " )")))`,
		},
		{
			name: "in subquery",
			sql:  "SELECT * FROM T WHERE A IN (SELECT B FROM U)",
			want: `((SELECT *) "FROM" T "WHERE" (A "IN (" ((SELECT B) "FROM" U) " )"))`,
		},
		{
			name: "between",
			sql:  "SELECT * FROM T WHERE A BETWEEN 1 AND 2",
			want: `((SELECT *) "FROM" T "WHERE" (A "BETWEEN" 1 "AND" 2))`,
		},
		{
			name: "like escape",
			sql:  "SELECT * FROM T WHERE COL LIKE '%' ESCAPE 'e'",
			want: `((SELECT *) "FROM" T "WHERE" (COL "LIKE" '%' "ESCAPE" 'e'))`,
		},
		{
			name: "is not null",
			sql:  "SELECT * FROM T WHERE A IS NOT NULL",
			want: `((SELECT *) "FROM" T "WHERE" !(A " IS NOT NULL"))`,
		},
		{
			name: "not",
			sql:  "SELECT * FROM T WHERE NOT (A = 1 OR B = 2)",
			want: `((SELECT *) "FROM" T "WHERE" !("NOT (" ((A "=" 1) "OR" (B "=" 2)) ")"))`,
		},
		{
			name: "exists",
			sql:  "SELECT * FROM T WHERE NOT EXISTS (SELECT 1)",
			want: `((SELECT *) "FROM" T "WHERE" !("NOT EXISTS (" ((SELECT 1)) " )"))`,
		},
		{
			name: "searched case",
			sql:  "SELECT CASE WHEN A = B THEN 1 ELSE 2 END",
			want: `((SELECT ("CASE WHEN" ((A "=" B) "THEN" 1) "ELSE" 2 END)))`,
		},
		{
			name: "simple case",
			sql:  "SELECT CASE A WHEN B THEN 1 WHEN C THEN 2 END",
			want: `((SELECT ("CASE" A "WHEN" (B "THEN" 1) "WHEN" (C "THEN" 2) END)))`,
		},
		{
			name: "function call",
			sql:  "SELECT FUNC(A, B), F(X), NOW(), COUNT(DISTINCT Y)",
			want: `((SELECT ("FUNC(" A "," B ")") "," !("F(" X ")") "," NOW() "," !("COUNT(DISTINCT" Y ")")))`,
		},
		{
			name: "window function",
			sql:  "SELECT LEAD(A, 1) OVER (PARTITION BY X ORDER BY Z DESC)",
			want: `((SELECT (!("LEAD(" (A "," 1) ")") "OVER(" ("PARTITION BY" !(X) "ORDER BY" !(!(Z " DESC"))) ")")))`,
		},
		{
			name: "empty window",
			sql:  "SELECT ROW_NUMBER() OVER ()",
			want: `((SELECT (ROW_NUMBER() OVER())))`,
		},
		{
			name: "window frame",
			sql:  "SELECT SUM(A) OVER (ORDER BY B ROWS BETWEEN 2 PRECEDING AND CURRENT ROW)",
			want: `((SELECT (!("SUM(" !(A) ")") "OVER(" ("ORDER BY" !(B) "ROWS" ("BETWEEN" !(2 " PRECEDING") "AND" CURRENT ROW)) ")")))`,
		},
		{
			name: "casts",
			sql:  "SELECT CAST(A AS INT), B::varchar(10)",
			want: `((SELECT !("CAST(" A " AS INT)") "," !(B "::varchar(10)")))`,
		},
		{
			name: "array and params",
			sql:  "SELECT ARRAY[1, ?], -X, - -1",
			want: `((SELECT ("ARRAY[" 1 "," ? "]") "," -X "," !("-" -1)))`,
		},
		{
			name: "scalar subquery",
			sql:  "SELECT (SELECT 1) AS X",
			want: `((SELECT !(!("(" ((SELECT 1)) " )") " AS X")))`,
		},
		{
			name: "derived table",
			sql:  "SELECT * FROM (SELECT 1) D",
			want: `((SELECT *) "FROM" !(!("(" ((SELECT 1)) " )") " AS D"))`,
		},
		{
			name: "with",
			sql:  "WITH R (N) AS (SELECT 1), S AS (SELECT 2) SELECT * FROM R",
			want: `("WITH" (!("R (N) AS (" ((SELECT 1)) " )") "," !("S AS (" ((SELECT 2)) " )")) (SELECT *) "FROM" R)`,
		},
		{
			name: "insert values",
			sql:  "INSERT INTO TBL (A, B) VALUES (1, 2), (3, 4)",
			want: `("INSERT INTO TBL (" (A "," B) ")" "VALUES" (("(" 1 "," 2 ")") "," ("(" 3 "," 4 ")")))`,
		},
		{
			name: "insert select",
			sql:  "INSERT INTO TBL SELECT * FROM U",
			want: `(INSERT INTO TBL ((SELECT *) "FROM" U))`,
		},
		{
			name: "update",
			sql:  "UPDATE T SET A = 1, B = ? WHERE ID = ?",
			want: `(UPDATE T "SET" ((A "=" 1) "," (B "=" ?)) "WHERE" (ID "=" ?))`,
		},
		{
			name: "delete",
			sql:  "DELETE FROM T WHERE A = 1",
			want: `(DELETE FROM T "WHERE" (A "=" 1))`,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, dump(t, tc.sql))
		})
	}
}

func TestStatement_BareAliasStyle(t *testing.T) {
	tree, err := translateSQL(t, "SELECT A AS X FROM TBL AS T", Options{AliasStyle: domain.AliasStyleBare})
	require.NoError(t, err)
	assert.Equal(t, `((SELECT !(A " X")) "FROM" !(TBL " T"))`, layout.Dump(tree))
}

func TestStatement_Unsupported(t *testing.T) {
	tests := []struct {
		sql       string
		construct string
	}{
		{"SELECT A, B FROM T GROUP BY GROUPING SETS ((A, B), A)", "GROUPING SETS"},
		{"SELECT A FROM T GROUP BY CUBE (A)", "CUBE"},
		{"SELECT * FROM T1 NATURAL JOIN T2", "NATURAL JOIN"},
		{"SELECT A FROM T UNION ALL SELECT B FROM U", "UNION ALL"},
		{"SELECT A FROM T LIMIT 1 OFFSET 2", "OFFSET"},
		{"SELECT A FROM T ORDER BY A OFFSET 5", "OFFSET"},
		{"SELECT A FROM T FETCH FIRST 1 ROWS ONLY", "FETCH FIRST"},
		{"SELECT * FROM T WHERE A IS TRUE", "IS TRUE"},
		{"SELECT INTERVAL '1' DAY", "INTERVAL"},
		{"SELECT A[1]", "array subscript"},
		{"SELECT COUNT(*) FILTER (WHERE A > 1)", "FILTER clause"},
		{"SELECT ARRAY_AGG(A ORDER BY B)", "ORDER BY in aggregate ARRAY_AGG"},
		{"SELECT RANK() OVER W FROM T WINDOW W AS (ORDER BY A)", "WINDOW clause"},
		{"SELECT * FROM T, LATERAL (SELECT 1) L", "LATERAL"},
		{"SELECT * FROM (SELECT A FROM T OFFSET 1) D", "OFFSET"},
		{"SELECT * FROM T WHERE A IN (SELECT B FROM U FETCH FIRST 1 ROWS ONLY)", "FETCH FIRST"},
		{"DELETE FROM T WHERE A = 1 RETURNING *", "RETURNING"},
	}

	for _, tc := range tests {
		t.Run(tc.sql, func(t *testing.T) {
			tree, err := translateSQL(t, tc.sql, Options{})
			require.Error(t, err)
			assert.Nil(t, tree)

			var ue *domain.UnsupportedConstructError
			require.True(t, errors.As(err, &ue), "got %T", err)
			assert.Equal(t, tc.construct, ue.Construct)
		})
	}
}

func TestStatement_FirstErrorWins(t *testing.T) {
	_, err := translateSQL(t, "SELECT INTERVAL '1' DAY, A[1]", Options{})
	require.Error(t, err)
	assert.Equal(t, "unsupported construct: INTERVAL", err.Error())
}

func TestStatement_Nil(t *testing.T) {
	_, err := Statement(nil, Options{})
	require.Error(t, err)
	var ve *domain.ValidationError
	assert.True(t, errors.As(err, &ve))
}

func TestStatement_DepthLimit(t *testing.T) {
	var e sqlparse.Expr = &sqlparse.ColumnRef{Parts: []string{"A"}}
	for range 2 * maxDepth {
		e = &sqlparse.ParenExpr{Expr: e}
	}
	stmt := &sqlparse.SelectStmt{Body: &sqlparse.SelectBody{
		Left: &sqlparse.SelectCore{Columns: []sqlparse.SelectItem{{Expr: e}}},
	}}

	_, err := Statement(stmt, Options{})
	require.Error(t, err)
	var pe *domain.ParseError
	require.True(t, errors.As(err, &pe))
	assert.Contains(t, pe.Message, "nesting depth exceeded")
}

func TestStatement_DepthLimitInOperatorChain(t *testing.T) {
	pair := &sqlparse.BinaryExpr{
		Left:  &sqlparse.ColumnRef{Parts: []string{"A"}},
		Op:    sqlparse.TOKEN_AND,
		Right: &sqlparse.ColumnRef{Parts: []string{"B"}},
	}
	var e sqlparse.Expr = pair
	for range 2 * maxDepth {
		e = &sqlparse.BinaryExpr{Left: e, Op: sqlparse.TOKEN_AND, Right: pair}
	}
	stmt := &sqlparse.SelectStmt{Body: &sqlparse.SelectBody{
		Left: &sqlparse.SelectCore{Columns: []sqlparse.SelectItem{{Expr: e}}},
	}}

	var err error
	require.NotPanics(t, func() { _, err = Statement(stmt, Options{}) })
	var pe *domain.ParseError
	require.ErrorAs(t, err, &pe)
	assert.Contains(t, pe.Message, "nesting depth exceeded")
}

func TestStatement_HandBuiltOperandsAreWrapped(t *testing.T) {
	// A - (B - C) without an explicit ParenExpr node.
	a := &sqlparse.ColumnRef{Parts: []string{"A"}}
	b := &sqlparse.ColumnRef{Parts: []string{"B"}}
	c := &sqlparse.ColumnRef{Parts: []string{"C"}}
	expr := &sqlparse.BinaryExpr{
		Left:  a,
		Op:    sqlparse.TOKEN_MINUS,
		Right: &sqlparse.BinaryExpr{Left: b, Op: sqlparse.TOKEN_MINUS, Right: c},
	}
	stmt := &sqlparse.SelectStmt{Body: &sqlparse.SelectBody{
		Left: &sqlparse.SelectCore{Columns: []sqlparse.SelectItem{{Expr: expr}}},
	}}

	tree, err := Statement(stmt, Options{})
	require.NoError(t, err)
	assert.Equal(t, `((SELECT (A "- (" (B "-" C) ")")))`, layout.Dump(tree))
}

// Every leaf and label the translator produces must reach the output in
// order, whatever the width.
func TestStatement_NoTokenIsLost(t *testing.T) {
	sql := "SELECT A, CASE WHEN B = 1 THEN 'x' ELSE 'y' END AS C, FUNC(D, E) " +
		"FROM T1 INNER JOIN T2 ON T1.ID = T2.ID " +
		"WHERE A IN (1, 2, 3) AND B::int > 0 ORDER BY A"
	tree, err := translateSQL(t, sql, Options{})
	require.NoError(t, err)

	squash := func(s string) string { return strings.Join(strings.Fields(s), "") }
	want := squash(strings.Join(layout.Tokens(tree), ""))

	for _, width := range []int{1, 10, 20, 40, 80, 200} {
		out, err := layout.Render(tree, width, 2)
		require.NoError(t, err)
		assert.Equal(t, want, squash(out), "width %d", width)
	}
}
