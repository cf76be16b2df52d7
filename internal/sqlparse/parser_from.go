package sqlparse

import (
	"fmt"
	"strings"
)

// FROM clause parsing: table references, derived tables, function tables
// and JOINs.

// parseFromClause parses the FROM clause.
func (p *Parser) parseFromClause() *FromClause {
	from := &FromClause{}
	from.Source = p.parseTableRef()

	// Parse JOINs
	for len(p.errors) == 0 {
		join := p.parseJoin()
		if join == nil {
			break
		}
		from.Joins = append(from.Joins, join)
	}

	return from
}

// parseTableRef parses a table reference in FROM.
func (p *Parser) parseTableRef() TableRef {
	// LATERAL subquery
	if p.match(TOKEN_LATERAL) {
		lateral := &LateralTable{}
		p.expect(TOKEN_LPAREN)
		lateral.Select = p.parseSelectStatement()
		p.expect(TOKEN_RPAREN)
		lateral.Alias = p.parseAlias()
		return lateral
	}

	// Derived table (subquery)
	if p.check(TOKEN_LPAREN) {
		derived := &DerivedTable{}
		p.nextToken()
		derived.Select = p.parseSelectStatement()
		p.expect(TOKEN_RPAREN)
		derived.Alias = p.parseAlias()
		return derived
	}

	// Table name or function call
	return p.parseTableNameOrFunc()
}

// parseTableNameOrFunc parses a table name or table-valued function.
func (p *Parser) parseTableNameOrFunc() TableRef {
	if !p.check(TOKEN_IDENT) {
		p.addError(fmt.Sprintf("unexpected %s, expected table name", describe(p.token)))
		return &TableName{}
	}

	// Parse potentially qualified name: catalog.schema.table or schema.func(...)
	parts := []string{p.token.Literal}
	p.nextToken()

	for p.match(TOKEN_DOT) {
		if !p.check(TOKEN_IDENT) {
			p.addError(fmt.Sprintf("unexpected %s after '.'", describe(p.token)))
			return &TableName{}
		}
		parts = append(parts, p.token.Literal)
		p.nextToken()
	}

	// Check if it's a function call (table-valued function)
	if p.check(TOKEN_LPAREN) {
		fn, ok := p.parseFuncCall(strings.Join(parts, ".")).(*FuncCall)
		if !ok {
			p.addError("expected function call")
			return &TableName{}
		}
		ft := &FuncTable{Func: fn}
		ft.Alias = p.parseAlias()
		return ft
	}

	// Build TableName
	table := &TableName{}
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

	table.Alias = p.parseAlias()
	return table
}

// parseJoin parses a JOIN clause. It returns nil when the current token does
// not start one.
func (p *Parser) parseJoin() *Join {
	join := &Join{}

	// Comma join
	if p.match(TOKEN_COMMA) {
		join.Type = JoinComma
		join.Right = p.parseTableRef()
		return join
	}

	if !p.isJoinKeyword(p.token) {
		return nil
	}

	// NATURAL modifier
	if p.match(TOKEN_NATURAL) {
		join.Natural = true
	}

	// Determine join type
	switch p.token.Type {
	case TOKEN_INNER:
		join.Type = JoinInner
		p.nextToken()
	case TOKEN_LEFT:
		join.Type = JoinLeft
		p.nextToken()
		p.match(TOKEN_OUTER)
	case TOKEN_RIGHT:
		join.Type = JoinRight
		p.nextToken()
		p.match(TOKEN_OUTER)
	case TOKEN_FULL:
		join.Type = JoinFull
		p.nextToken()
		p.match(TOKEN_OUTER)
	case TOKEN_CROSS:
		join.Type = JoinCross
		p.nextToken()
	default:
		join.Type = JoinInner
	}

	if !p.expect(TOKEN_JOIN) {
		return nil
	}

	join.Right = p.parseTableRef()
	p.parseJoinCondition(join)
	return join
}

// parseJoinCondition parses the ON or USING criterion of a join.
func (p *Parser) parseJoinCondition(join *Join) {
	switch {
	case join.Natural, join.Type == JoinCross:
		// No condition
	case p.match(TOKEN_ON):
		join.Condition = p.parseExpression()
	case p.match(TOKEN_USING):
		p.expect(TOKEN_LPAREN)
		join.Using = p.parseIdentList()
		p.expect(TOKEN_RPAREN)
	}
}
