package sqlparse

import (
	"fmt"
	"strings"
)

// Primary expression parsing: literals, column refs, function calls, CASE,
// CAST, ARRAY, INTERVAL and EXISTS.

// parsePrimary parses a primary expression.
func (p *Parser) parsePrimary() Expr {
	switch p.token.Type {
	case TOKEN_NUMBER:
		lit := &Literal{Type: LiteralNumber, Value: p.token.Literal}
		p.nextToken()
		return lit

	case TOKEN_STRING:
		lit := &Literal{Type: LiteralString, Value: p.token.Literal}
		p.nextToken()
		return lit

	case TOKEN_TRUE, TOKEN_FALSE:
		lit := &Literal{Type: LiteralBool, Value: strings.ToUpper(p.token.Literal)}
		p.nextToken()
		return lit

	case TOKEN_NULL:
		p.nextToken()
		return &Literal{Type: LiteralNull, Value: "NULL"}

	case TOKEN_PARAM:
		param := &Param{Text: p.token.Literal}
		p.nextToken()
		return param

	case TOKEN_CASE:
		return p.parseCaseExpr()

	case TOKEN_CAST, TOKEN_TRY_CAST:
		return p.parseCastExpr()

	case TOKEN_EXISTS:
		return p.parseExistsExpr(false)

	case TOKEN_INTERVAL:
		return p.parseIntervalExpr()

	case TOKEN_IDENT:
		if p.checkSoftKeyword("ARRAY") && p.checkPeek(TOKEN_LBRACKET) {
			return p.parseArrayExpr()
		}
		return p.parseIdentifierExpr()

	case TOKEN_LPAREN:
		return p.parseParenExpr()

	case TOKEN_STAR:
		p.nextToken()
		return &StarExpr{}

	case TOKEN_LEFT, TOKEN_RIGHT:
		// LEFT(s, n) and RIGHT(s, n) are string functions.
		if p.checkPeek(TOKEN_LPAREN) {
			return p.parseIdentifierExpr()
		}
	}

	if p.check(TOKEN_ILLEGAL) {
		p.addError("")
	} else {
		p.addError(fmt.Sprintf("unexpected %s in expression", describe(p.token)))
	}
	return nil
}

// parseIdentifierExpr parses an identifier (column ref or function call).
func (p *Parser) parseIdentifierExpr() Expr {
	parts := []string{p.token.Literal}
	p.nextToken()

	for p.check(TOKEN_DOT) {
		p.nextToken()
		// table.*
		if p.check(TOKEN_STAR) {
			p.nextToken()
			return &StarExpr{Table: strings.Join(parts, ".")}
		}
		if !p.check(TOKEN_IDENT) && !p.isKeyword(p.token) {
			p.addError(fmt.Sprintf("unexpected %s after '.'", describe(p.token)))
			return nil
		}
		parts = append(parts, p.token.Literal)
		p.nextToken()
	}

	// Function call: name(...) or schema.name(...)
	if p.check(TOKEN_LPAREN) {
		return p.parseFuncCall(strings.Join(parts, "."))
	}

	return &ColumnRef{Parts: parts}
}

// parseFuncCall parses a function call: name([DISTINCT] args [ORDER BY ...]) [FILTER ...] [OVER ...]
func (p *Parser) parseFuncCall(name string) Expr {
	fn := &FuncCall{Name: name}

	p.expect(TOKEN_LPAREN)

	// COUNT(*)
	if p.check(TOKEN_STAR) && p.checkPeek(TOKEN_RPAREN) {
		fn.Star = true
		p.nextToken()
	} else if !p.check(TOKEN_RPAREN) {
		if p.match(TOKEN_DISTINCT) {
			fn.Distinct = true
		} else {
			p.match(TOKEN_ALL)
		}

		fn.Args = p.parseExpressionList()

		// ORDER BY within aggregate (e.g., array_agg(x ORDER BY y))
		if p.check(TOKEN_ORDER) {
			p.nextToken() // consume ORDER
			p.expect(TOKEN_BY)
			fn.OrderBy = p.parseOrderByList()
		}
	}

	p.expect(TOKEN_RPAREN)

	// FILTER clause
	if p.checkSoftKeyword("FILTER") && p.checkPeek(TOKEN_LPAREN) {
		p.nextToken()
		p.expect(TOKEN_LPAREN)
		p.expect(TOKEN_WHERE)
		fn.Filter = p.parseExpression()
		p.expect(TOKEN_RPAREN)
	}

	// OVER clause (window function)
	if p.match(TOKEN_OVER) {
		fn.Window = p.parseWindowSpec()
	}

	return fn
}

// parseWindowSpec parses a window specification.
func (p *Parser) parseWindowSpec() *WindowSpec {
	spec := &WindowSpec{}

	// Named window reference
	if p.check(TOKEN_IDENT) {
		spec.Name = p.token.Literal
		p.nextToken()
		return spec
	}

	p.expect(TOKEN_LPAREN)
	p.parseWindowBody(spec)
	p.expect(TOKEN_RPAREN)
	return spec
}

// parseWindowBody parses the contents of a window specification up to the
// closing parenthesis.
func (p *Parser) parseWindowBody(spec *WindowSpec) {
	if p.match(TOKEN_PARTITION) {
		p.expect(TOKEN_BY)
		spec.PartitionBy = p.parseExpressionList()
	}

	if p.check(TOKEN_ORDER) {
		p.nextToken()
		p.expect(TOKEN_BY)
		spec.OrderBy = p.parseOrderByList()
	}

	if p.checkSoftKeyword("ROWS") || p.checkSoftKeyword("RANGE") || p.checkSoftKeyword("GROUPS") {
		spec.Frame = p.parseFrameSpec()
	}
}

// parseFrameSpec parses a window frame specification.
func (p *Parser) parseFrameSpec() *FrameSpec {
	frame := &FrameSpec{}

	switch {
	case p.matchSoftKeyword("ROWS"):
		frame.Type = FrameRows
	case p.matchSoftKeyword("RANGE"):
		frame.Type = FrameRange
	case p.matchSoftKeyword("GROUPS"):
		frame.Type = FrameGroups
	}

	if p.match(TOKEN_BETWEEN) {
		frame.Start = p.parseFrameBound()
		p.expect(TOKEN_AND)
		frame.End = p.parseFrameBound()
	} else {
		frame.Start = p.parseFrameBound()
	}

	return frame
}

// parseFrameBound parses a frame bound.
func (p *Parser) parseFrameBound() *FrameBound {
	bound := &FrameBound{}

	switch {
	case p.matchSoftKeyword("UNBOUNDED"):
		switch {
		case p.matchSoftKeyword("PRECEDING"):
			bound.Type = FrameUnboundedPreceding
		case p.matchSoftKeyword("FOLLOWING"):
			bound.Type = FrameUnboundedFollowing
		default:
			p.expectSoftKeyword("PRECEDING")
		}
	case p.matchSoftKeyword("CURRENT"):
		p.expectSoftKeyword("ROW")
		bound.Type = FrameCurrentRow
	default:
		bound.Offset = p.parseExpressionWithPrecedence(PrecedenceAddition)
		switch {
		case p.matchSoftKeyword("PRECEDING"):
			bound.Type = FrameExprPreceding
		case p.matchSoftKeyword("FOLLOWING"):
			bound.Type = FrameExprFollowing
		default:
			p.expectSoftKeyword("PRECEDING")
		}
	}

	return bound
}

// parseCaseExpr parses a CASE expression.
func (p *Parser) parseCaseExpr() Expr {
	p.expect(TOKEN_CASE)
	caseExpr := &CaseExpr{}

	if !p.check(TOKEN_WHEN) {
		caseExpr.Operand = p.parseExpression()
	}

	for p.match(TOKEN_WHEN) {
		when := WhenClause{}
		when.Condition = p.parseExpression()
		p.expect(TOKEN_THEN)
		when.Result = p.parseExpression()
		caseExpr.Whens = append(caseExpr.Whens, when)
	}
	if len(caseExpr.Whens) == 0 {
		p.expect(TOKEN_WHEN)
	}

	if p.match(TOKEN_ELSE) {
		caseExpr.Else = p.parseExpression()
	}

	p.expect(TOKEN_END)
	return caseExpr
}

// parseCastExpr parses CAST(expr AS type) and TRY_CAST(expr AS type).
func (p *Parser) parseCastExpr() Expr {
	cast := &CastExpr{TryCast: p.check(TOKEN_TRY_CAST)}
	p.nextToken() // consume CAST / TRY_CAST
	p.expect(TOKEN_LPAREN)

	cast.Expr = p.parseExpression()
	p.expect(TOKEN_AS)
	cast.TypeName = p.parseTypeName()

	p.expect(TOKEN_RPAREN)
	return cast
}

// parseTypeName parses a type name with optional parameters. The name keeps
// its source spelling; parameters are normalized to "(a, b)".
func (p *Parser) parseTypeName() string {
	if !p.check(TOKEN_IDENT) {
		p.addError(fmt.Sprintf("unexpected %s, expected type name", describe(p.token)))
		return ""
	}
	words := []string{p.token.Literal}
	first := strings.ToUpper(p.token.Literal)
	p.nextToken()

	// Compound type names: DOUBLE PRECISION, CHARACTER VARYING,
	// TIMESTAMP WITH TIME ZONE.
	switch {
	case first == "DOUBLE" && p.checkSoftKeyword("PRECISION"),
		(first == "CHARACTER" || first == "CHAR") && p.checkSoftKeyword("VARYING"):
		words = append(words, p.token.Literal)
		p.nextToken()
	case (first == "TIMESTAMP" || first == "TIME") &&
		(p.check(TOKEN_WITH) || p.checkSoftKeyword("WITHOUT")) &&
		strings.EqualFold(p.peek.Literal, "TIME") && strings.EqualFold(p.peek2.Literal, "ZONE"):
		for range 3 {
			words = append(words, p.token.Literal)
			p.nextToken()
		}
	}

	typeName := strings.Join(words, " ")

	// Type parameters like VARCHAR(255) or DECIMAL(10, 2)
	if p.match(TOKEN_LPAREN) {
		var params []string
		for {
			if !p.check(TOKEN_NUMBER) && !p.check(TOKEN_IDENT) {
				p.addError(fmt.Sprintf("unexpected %s in type parameters", describe(p.token)))
				return typeName
			}
			params = append(params, p.token.Literal)
			p.nextToken()
			if !p.match(TOKEN_COMMA) {
				break
			}
		}
		p.expect(TOKEN_RPAREN)
		typeName += "(" + strings.Join(params, ", ") + ")"
	}

	// Handle array type: INTEGER[]
	for p.check(TOKEN_LBRACKET) && p.checkPeek(TOKEN_RBRACKET) {
		typeName += "[]"
		p.nextToken() // [
		p.nextToken() // ]
	}

	return typeName
}

// parseExistsExpr parses [NOT] EXISTS (subquery).
func (p *Parser) parseExistsExpr(not bool) Expr {
	p.nextToken() // consume EXISTS
	p.expect(TOKEN_LPAREN)
	exists := &ExistsExpr{Not: not, Select: p.parseSelectStatement()}
	p.expect(TOKEN_RPAREN)
	return exists
}

// parseParenExpr parses a parenthesized expression or subquery.
func (p *Parser) parseParenExpr() Expr {
	p.expect(TOKEN_LPAREN)

	// Check if this is a subquery
	if p.check(TOKEN_SELECT) || p.check(TOKEN_WITH) {
		subquery := &SubqueryExpr{Select: p.parseSelectStatement()}
		p.expect(TOKEN_RPAREN)
		return subquery
	}

	expr := p.parseExpression()
	p.expect(TOKEN_RPAREN)
	return &ParenExpr{Expr: expr}
}

// parseOrderByList parses a list of ORDER BY items.
func (p *Parser) parseOrderByList() []OrderByItem {
	var items []OrderByItem
	for {
		item := p.parseOrderByItem()
		items = append(items, item)
		if !p.match(TOKEN_COMMA) {
			break
		}
	}
	return items
}

// parseOrderByItem parses a single ORDER BY item.
func (p *Parser) parseOrderByItem() OrderByItem {
	item := OrderByItem{}
	item.Expr = p.parseExpression()

	if p.match(TOKEN_ASC) {
		item.Asc = true
	} else if p.match(TOKEN_DESC) {
		item.Desc = true
	}

	if p.matchSoftKeyword("NULLS") {
		switch {
		case p.matchSoftKeyword("FIRST"):
			b := true
			item.NullsFirst = &b
		case p.matchSoftKeyword("LAST"):
			b := false
			item.NullsFirst = &b
		default:
			p.expectSoftKeyword("FIRST")
		}
	}

	return item
}

// parseArrayExpr parses ARRAY[expr, expr, ...].
func (p *Parser) parseArrayExpr() Expr {
	p.nextToken() // consume ARRAY
	p.nextToken() // consume [
	arr := &ArrayExpr{}

	if !p.check(TOKEN_RBRACKET) {
		arr.Elements = p.parseExpressionList()
	}

	p.expect(TOKEN_RBRACKET)
	return arr
}

// parseIntervalExpr parses INTERVAL 'value' [unit].
func (p *Parser) parseIntervalExpr() Expr {
	p.nextToken() // consume INTERVAL

	iv := &IntervalExpr{}
	iv.Value = p.parsePrimary()

	if p.check(TOKEN_IDENT) {
		upper := strings.ToUpper(p.token.Literal)
		switch upper {
		case "YEAR", "YEARS", "MONTH", "MONTHS", "DAY", "DAYS",
			"HOUR", "HOURS", "MINUTE", "MINUTES", "SECOND", "SECONDS",
			"WEEK", "WEEKS", "MILLISECOND", "MILLISECONDS",
			"MICROSECOND", "MICROSECONDS":
			iv.Unit = upper
			p.nextToken()
		}
	}

	return iv
}
