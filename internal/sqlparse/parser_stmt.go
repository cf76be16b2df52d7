package sqlparse

import (
	"fmt"
	"strings"
)

// Statement parsing: SELECT, INSERT, UPDATE, DELETE.

// parseSelectStatement parses a complete SELECT statement (WITH ... SELECT ...).
func (p *Parser) parseSelectStatement() *SelectStmt {
	stmt := &SelectStmt{}
	if !p.enter() {
		return stmt
	}
	defer p.leave()

	if p.check(TOKEN_WITH) {
		stmt.With = p.parseWithClause()
	}

	stmt.Body = p.parseSelectBody()
	return stmt
}

// parseWithClause parses a WITH clause with CTEs.
func (p *Parser) parseWithClause() *WithClause {
	p.expect(TOKEN_WITH)
	with := &WithClause{}

	if p.matchSoftKeyword("RECURSIVE") {
		with.Recursive = true
	}

	for {
		cte := p.parseCTE()
		with.CTEs = append(with.CTEs, cte)
		if len(p.errors) > 0 || !p.match(TOKEN_COMMA) {
			break
		}
	}

	return with
}

// parseCTE parses a single CTE.
func (p *Parser) parseCTE() *CTE {
	cte := &CTE{}

	if !p.check(TOKEN_IDENT) {
		p.addError(fmt.Sprintf("unexpected %s, expected CTE name", describe(p.token)))
		return cte
	}
	cte.Name = p.token.Literal
	p.nextToken()

	// Optional column list: cte(col1, col2, ...)
	if p.match(TOKEN_LPAREN) {
		cte.Columns = p.parseIdentList()
		p.expect(TOKEN_RPAREN)
	}

	p.expect(TOKEN_AS)
	p.expect(TOKEN_LPAREN)
	cte.Select = p.parseSelectStatement()
	p.expect(TOKEN_RPAREN)

	return cte
}

// parseSelectBody parses a SELECT body with possible set operations.
func (p *Parser) parseSelectBody() *SelectBody {
	body := &SelectBody{}
	body.Left = p.parseSelectCore()

	switch p.token.Type {
	case TOKEN_UNION:
		p.nextToken()
		if p.match(TOKEN_ALL) {
			body.Op = SetOpUnionAll
		} else {
			p.match(TOKEN_DISTINCT)
			body.Op = SetOpUnion
		}
	case TOKEN_INTERSECT:
		p.nextToken()
		body.Op = SetOpIntersect
		if p.match(TOKEN_ALL) {
			body.Op = SetOpIntersectAll
		}
	case TOKEN_EXCEPT:
		p.nextToken()
		body.Op = SetOpExcept
		if p.match(TOKEN_ALL) {
			body.Op = SetOpExceptAll
		}
	default:
		return body
	}

	if len(p.errors) == 0 {
		body.Right = p.parseSelectBody()
	}
	return body
}

// parseSelectCore parses a single SELECT clause with all optional clauses.
func (p *Parser) parseSelectCore() *SelectCore {
	p.expect(TOKEN_SELECT)
	sc := &SelectCore{}

	if p.match(TOKEN_DISTINCT) {
		sc.Distinct = true
	} else {
		p.match(TOKEN_ALL)
	}

	sc.Columns = p.parseSelectList()

	if p.match(TOKEN_FROM) {
		sc.From = p.parseFromClause()
	}

	p.parseSelectClauses(sc)

	return sc
}

// parseSelectClauses parses the optional clauses following FROM.
func (p *Parser) parseSelectClauses(sc *SelectCore) {
	// WHERE
	if p.match(TOKEN_WHERE) {
		sc.Where = p.parseExpression()
	}

	// GROUP BY
	if p.check(TOKEN_GROUP) {
		p.nextToken()
		p.expect(TOKEN_BY)
		sc.GroupBy = p.parseGroupByList()
	}

	// HAVING
	if p.match(TOKEN_HAVING) {
		sc.Having = p.parseExpression()
	}

	// WINDOW
	if p.match(TOKEN_WINDOW) {
		sc.Windows = p.parseWindowDefs()
	}

	// ORDER BY
	if p.check(TOKEN_ORDER) {
		p.nextToken()
		p.expect(TOKEN_BY)
		sc.OrderBy = p.parseOrderByList()
	}

	// LIMIT
	if p.match(TOKEN_LIMIT) {
		sc.Limit = p.parseExpression()
	}

	// OFFSET
	if p.match(TOKEN_OFFSET) {
		sc.Offset = p.parseExpression()
		if !p.matchSoftKeyword("ROWS") {
			p.matchSoftKeyword("ROW")
		}
	}

	// FETCH FIRST/NEXT
	if p.check(TOKEN_FETCH) {
		sc.Fetch = p.parseFetchClause()
	}
}

// parseWindowDefs parses named window definitions.
func (p *Parser) parseWindowDefs() []WindowDef {
	var defs []WindowDef
	for {
		def := WindowDef{Spec: &WindowSpec{}}
		if !p.check(TOKEN_IDENT) {
			p.addError(fmt.Sprintf("unexpected %s, expected window name", describe(p.token)))
			return defs
		}
		def.Name = p.token.Literal
		p.nextToken()
		p.expect(TOKEN_AS)
		p.expect(TOKEN_LPAREN)
		p.parseWindowBody(def.Spec)
		p.expect(TOKEN_RPAREN)
		defs = append(defs, def)
		if !p.match(TOKEN_COMMA) {
			break
		}
	}
	return defs
}

// parseFetchClause parses FETCH FIRST/NEXT n ROWS ONLY.
func (p *Parser) parseFetchClause() *FetchClause {
	p.expect(TOKEN_FETCH)
	fetch := &FetchClause{}

	if !p.matchSoftKeyword("FIRST") {
		p.expectSoftKeyword("NEXT")
	}

	if !p.checkSoftKeyword("ROWS") && !p.checkSoftKeyword("ROW") {
		fetch.Count = p.parseExpression()
	}

	if !p.matchSoftKeyword("ROWS") {
		p.expectSoftKeyword("ROW")
	}
	p.expectSoftKeyword("ONLY")

	return fetch
}

// parseSelectList parses the list of SELECT items.
func (p *Parser) parseSelectList() []SelectItem {
	var items []SelectItem
	for {
		item := p.parseSelectItem()
		items = append(items, item)
		if len(p.errors) > 0 || !p.match(TOKEN_COMMA) {
			break
		}
	}
	return items
}

// parseSelectItem parses a single SELECT item.
func (p *Parser) parseSelectItem() SelectItem {
	item := SelectItem{}
	item.Expr = p.parseExpression()
	if _, ok := item.Expr.(*StarExpr); ok {
		return item
	}
	item.Alias = p.parseAlias()
	return item
}

// parseAlias parses an optional [AS] alias.
func (p *Parser) parseAlias() string {
	if p.match(TOKEN_AS) {
		if p.check(TOKEN_IDENT) || p.check(TOKEN_STRING) {
			alias := p.token.Literal
			p.nextToken()
			return alias
		}
		p.addError(fmt.Sprintf("unexpected %s, expected alias after AS", describe(p.token)))
		return ""
	}
	if p.check(TOKEN_IDENT) {
		alias := p.token.Literal
		p.nextToken()
		return alias
	}
	return ""
}

// parseIdentList parses a comma-separated list of identifiers.
func (p *Parser) parseIdentList() []string {
	var names []string
	for {
		if !p.check(TOKEN_IDENT) {
			p.addError(fmt.Sprintf("unexpected %s, expected column name", describe(p.token)))
			return names
		}
		names = append(names, p.token.Literal)
		p.nextToken()
		if !p.match(TOKEN_COMMA) {
			break
		}
	}
	return names
}

// parseGroupByList parses GROUP BY items including grouping elements.
func (p *Parser) parseGroupByList() []Expr {
	var exprs []Expr
	for {
		switch {
		case p.checkSoftKeyword("GROUPING") && p.checkPeek(TOKEN_IDENT) && strings.EqualFold(p.peek.Literal, "SETS"):
			p.nextToken()
			p.expectSoftKeyword("SETS")
			exprs = append(exprs, p.parseGroupingSets(GroupingSets))
		case p.checkSoftKeyword("CUBE") && p.checkPeek(TOKEN_LPAREN):
			p.nextToken()
			exprs = append(exprs, p.parseGroupingSets(GroupingCube))
		case p.checkSoftKeyword("ROLLUP") && p.checkPeek(TOKEN_LPAREN):
			p.nextToken()
			exprs = append(exprs, p.parseGroupingSets(GroupingRollup))
		default:
			if expr := p.parseExpression(); expr != nil {
				exprs = append(exprs, expr)
			}
		}
		if len(p.errors) > 0 || !p.match(TOKEN_COMMA) {
			break
		}
	}
	return exprs
}

// parseGroupingSets parses the parenthesized sets of a grouping element.
func (p *Parser) parseGroupingSets(typ GroupingType) Expr {
	ge := &GroupingExpr{Type: typ}
	p.expect(TOKEN_LPAREN)
	for {
		if p.match(TOKEN_LPAREN) {
			var set []Expr
			if !p.check(TOKEN_RPAREN) {
				set = p.parseExpressionList()
			}
			p.expect(TOKEN_RPAREN)
			ge.Sets = append(ge.Sets, set)
		} else {
			ge.Sets = append(ge.Sets, []Expr{p.parseExpression()})
		}
		if len(p.errors) > 0 || !p.match(TOKEN_COMMA) {
			break
		}
	}
	p.expect(TOKEN_RPAREN)
	return ge
}

// === INSERT Statement ===

func (p *Parser) parseInsertStatement() *InsertStmt {
	p.expect(TOKEN_INSERT)
	p.expect(TOKEN_INTO)

	stmt := &InsertStmt{}
	stmt.Table = p.parseTableNameRef(false)

	// Optional column list
	if p.check(TOKEN_LPAREN) && !p.checkPeek(TOKEN_SELECT) && !p.checkPeek(TOKEN_WITH) {
		p.nextToken()
		stmt.Columns = p.parseIdentList()
		p.expect(TOKEN_RPAREN)
	}

	// VALUES or SELECT
	switch {
	case p.match(TOKEN_VALUES):
		for {
			p.expect(TOKEN_LPAREN)
			row := p.parseExpressionList()
			stmt.Values = append(stmt.Values, row)
			p.expect(TOKEN_RPAREN)
			if len(p.errors) > 0 || !p.match(TOKEN_COMMA) {
				break
			}
		}
	case p.check(TOKEN_SELECT) || p.check(TOKEN_WITH):
		stmt.Query = p.parseSelectStatement()
	case p.check(TOKEN_LPAREN):
		p.nextToken() // consume (
		stmt.Query = p.parseSelectStatement()
		p.expect(TOKEN_RPAREN)
	default:
		p.addError(fmt.Sprintf("unexpected %s, expected VALUES or SELECT", describe(p.token)))
	}

	// RETURNING
	if p.match(TOKEN_RETURNING) {
		stmt.Returning = p.parseSelectList()
	}

	return stmt
}

// === UPDATE Statement ===

func (p *Parser) parseUpdateStatement() *UpdateStmt {
	p.expect(TOKEN_UPDATE)

	stmt := &UpdateStmt{}
	stmt.Table = p.parseTableNameRef(true)

	p.expect(TOKEN_SET)
	for {
		set := SetClause{}
		if !p.check(TOKEN_IDENT) {
			p.addError(fmt.Sprintf("unexpected %s, expected column name", describe(p.token)))
			return stmt
		}
		set.Column = p.token.Literal
		p.nextToken()
		p.expect(TOKEN_EQ)
		set.Value = p.parseExpression()
		stmt.Sets = append(stmt.Sets, set)
		if len(p.errors) > 0 || !p.match(TOKEN_COMMA) {
			break
		}
	}

	// FROM clause (PostgreSQL extension)
	if p.match(TOKEN_FROM) {
		stmt.From = p.parseFromClause()
	}

	// WHERE
	if p.match(TOKEN_WHERE) {
		stmt.Where = p.parseExpression()
	}

	// RETURNING
	if p.match(TOKEN_RETURNING) {
		stmt.Returning = p.parseSelectList()
	}

	return stmt
}

// === DELETE Statement ===

func (p *Parser) parseDeleteStatement() *DeleteStmt {
	p.expect(TOKEN_DELETE)
	p.expect(TOKEN_FROM)

	stmt := &DeleteStmt{}
	stmt.Table = p.parseTableNameRef(true)

	// USING clause
	if p.match(TOKEN_USING) {
		stmt.Using = p.parseFromClause()
	}

	// WHERE
	if p.match(TOKEN_WHERE) {
		stmt.Where = p.parseExpression()
	}

	// RETURNING
	if p.match(TOKEN_RETURNING) {
		stmt.Returning = p.parseSelectList()
	}

	return stmt
}

// parseTableNameRef parses a table name reference for INSERT/UPDATE/DELETE
// targets. DML targets other than INSERT may carry an alias.
func (p *Parser) parseTableNameRef(allowAlias bool) *TableName {
	table := &TableName{}

	if !p.check(TOKEN_IDENT) {
		p.addError(fmt.Sprintf("unexpected %s, expected table name", describe(p.token)))
		return table
	}

	parts := []string{p.token.Literal}
	p.nextToken()

	for p.match(TOKEN_DOT) {
		if !p.check(TOKEN_IDENT) {
			p.addError(fmt.Sprintf("unexpected %s after '.'", describe(p.token)))
			return table
		}
		parts = append(parts, p.token.Literal)
		p.nextToken()
	}

	switch len(parts) {
	case 1:
		table.Name = parts[0]
	case 2:
		table.Schema = parts[0]
		table.Name = parts[1]
	case 3:
		table.Catalog = parts[0]
		table.Schema = parts[1]
		table.Name = parts[2]
	default:
		p.addError(fmt.Sprintf("table name %s has too many parts", strings.Join(parts, ".")))
		return table
	}

	if allowAlias {
		table.Alias = p.parseAlias()
	}

	return table
}
