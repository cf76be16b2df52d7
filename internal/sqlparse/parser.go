package sqlparse

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"sqlpp/internal/domain"
)

// maxDepth bounds expression and subquery nesting so pathological input
// fails with a parse error instead of exhausting the stack downstream.
const maxDepth = 400

// Parser parses SQL into an AST.
type Parser struct {
	lexer  *Lexer
	input  string // original input for error positions
	token  Token  // current token
	peek   Token  // lookahead token
	peek2  Token  // second lookahead token
	depth  int
	errors []error
}

// NewParser creates a new parser for the given SQL input.
func NewParser(sql string) *Parser {
	p := &Parser{
		lexer: NewLexer(sql),
		input: sql,
	}
	// Initialize three-token lookahead
	p.nextToken()
	p.nextToken()
	p.nextToken()
	return p
}

// Parse parses the SQL and returns the top-level statement. A single
// trailing semicolon is accepted. Errors are *domain.ParseError.
func Parse(sql string) (Stmt, error) {
	if strings.TrimSpace(sql) == "" {
		return nil, domain.ErrParse(0, 0, "empty SQL")
	}
	if err := checkUTF8(sql); err != nil {
		return nil, err
	}

	p := NewParser(sql)
	stmt := p.parseTopLevel()
	if len(p.errors) > 0 {
		return nil, p.errors[0]
	}

	p.match(TOKEN_SEMICOLON)
	if p.check(TOKEN_ILLEGAL) {
		p.addError("")
		return nil, p.errors[0]
	}
	if !p.check(TOKEN_EOF) {
		line, col := p.position(p.token.Pos)
		return nil, domain.ErrParse(line, col, "multi-statement queries are not allowed")
	}

	return stmt, nil
}

// ParseExpr parses a standalone expression from SQL text.
func ParseExpr(sql string) (Expr, error) {
	if strings.TrimSpace(sql) == "" {
		return nil, domain.ErrParse(0, 0, "empty expression")
	}
	if err := checkUTF8(sql); err != nil {
		return nil, err
	}

	p := NewParser(sql)
	expr := p.parseExpression()
	if len(p.errors) > 0 {
		return nil, p.errors[0]
	}

	// Ensure we consumed all tokens
	if !p.check(TOKEN_EOF) {
		line, col := p.position(p.token.Pos)
		return nil, domain.ErrParse(line, col, "unexpected token after expression: %s", p.token.Literal)
	}

	return expr, nil
}

// parseTopLevel dispatches to the appropriate statement parser based on the first token.
func (p *Parser) parseTopLevel() Stmt {
	switch p.token.Type {
	case TOKEN_SELECT, TOKEN_WITH:
		return p.parseSelectStatement()

	case TOKEN_INSERT:
		return p.parseInsertStatement()

	case TOKEN_UPDATE:
		return p.parseUpdateStatement()

	case TOKEN_DELETE:
		return p.parseDeleteStatement()

	default:
		p.addError(fmt.Sprintf("unexpected %s at start of statement", describe(p.token)))
		return nil
	}
}

// === Token Helpers ===

// nextToken advances to the next token.
func (p *Parser) nextToken() {
	p.token = p.peek
	p.peek = p.peek2
	p.peek2 = p.lexer.NextToken()
}

// check returns true if the current token is of the given type.
func (p *Parser) check(t TokenType) bool {
	return p.token.Type == t
}

// checkPeek returns true if the peek token is of the given type.
func (p *Parser) checkPeek(t TokenType) bool {
	return p.peek.Type == t
}

// match consumes the current token if it matches and returns true.
func (p *Parser) match(t TokenType) bool {
	if p.check(t) {
		p.nextToken()
		return true
	}
	return false
}

// checkSoftKeyword reports whether the current token is an unquoted
// identifier spelling the given soft keyword (case-insensitive).
func (p *Parser) checkSoftKeyword(keyword string) bool {
	return p.check(TOKEN_IDENT) && strings.EqualFold(p.token.Literal, keyword)
}

// matchSoftKeyword consumes the current token if it's an identifier matching
// the given soft keyword (case-insensitive).
func (p *Parser) matchSoftKeyword(keyword string) bool {
	if p.checkSoftKeyword(keyword) {
		p.nextToken()
		return true
	}
	return false
}

// expect consumes the current token if it matches, otherwise adds an error.
func (p *Parser) expect(t TokenType) bool {
	if p.check(t) {
		p.nextToken()
		return true
	}
	p.addError(fmt.Sprintf("unexpected %s, expected %s", describe(p.token), t))
	return false
}

// expectSoftKeyword is expect for identifiers acting as keywords.
func (p *Parser) expectSoftKeyword(keyword string) bool {
	if p.matchSoftKeyword(keyword) {
		return true
	}
	p.addError(fmt.Sprintf("unexpected %s, expected %s", describe(p.token), keyword))
	return false
}

// addError records a parse error at the current token. Only the first
// error is reported, later ones are usually follow-on noise.
func (p *Parser) addError(msg string) {
	line, col := p.position(p.token.Pos)
	if p.check(TOKEN_ILLEGAL) {
		msg = illegalMessage(p.token)
	}
	p.errors = append(p.errors, domain.ErrParse(line, col, "%s", msg))
}

// enter increments the nesting depth, recording an error when it exceeds
// maxDepth. Every successful enter must be paired with leave.
func (p *Parser) enter() bool {
	if p.depth >= maxDepth {
		if len(p.errors) == 0 {
			p.addError("statement is too large (nesting depth exceeded)")
		}
		return false
	}
	p.depth++
	return true
}

func (p *Parser) leave() {
	p.depth--
}

func (p *Parser) position(offset int) (line, col int) {
	return position(p.input, offset)
}

// position converts a byte offset in input to a 1-based line and rune column.
func position(input string, offset int) (line, col int) {
	if offset > len(input) {
		offset = len(input)
	}
	before := input[:offset]
	line = strings.Count(before, "\n") + 1
	lineStart := strings.LastIndexByte(before, '\n') + 1
	col = utf8.RuneCountInString(before[lineStart:]) + 1
	return line, col
}

// checkUTF8 rejects input that is not valid UTF-8, naming the first bad
// byte and its offset.
func checkUTF8(sql string) error {
	for i := 0; i < len(sql); {
		r, size := utf8.DecodeRuneInString(sql[i:])
		if r == utf8.RuneError && size == 1 {
			line, col := position(sql, i)
			return domain.ErrParse(line, col, "invalid UTF-8 byte 0x%02x at offset %d", sql[i], i)
		}
		i += size
	}
	return nil
}

func describe(tok Token) string {
	switch tok.Type {
	case TOKEN_EOF:
		return "end of input"
	case TOKEN_IDENT, TOKEN_NUMBER, TOKEN_STRING, TOKEN_PARAM:
		return fmt.Sprintf("%s %s", strings.ToLower(tok.Type.String()), tok.Literal)
	default:
		return fmt.Sprintf("token %s", tok.Literal)
	}
}

func illegalMessage(tok Token) string {
	switch {
	case strings.HasPrefix(tok.Literal, "'"):
		return "unterminated string literal"
	case strings.HasPrefix(tok.Literal, `"`), strings.HasPrefix(tok.Literal, "`"):
		return "unterminated quoted identifier"
	default:
		return fmt.Sprintf("unexpected character %q", tok.Literal)
	}
}

// === Keyword Classification ===

// isKeyword returns true if the token is a reserved keyword that cannot be used as an alias.
func (p *Parser) isKeyword(tok Token) bool {
	return tok.Type.IsKeyword()
}

// isJoinKeyword returns true if token is a JOIN-related keyword.
func (p *Parser) isJoinKeyword(tok Token) bool {
	switch tok.Type {
	case TOKEN_JOIN, TOKEN_NATURAL, TOKEN_INNER, TOKEN_LEFT, TOKEN_RIGHT,
		TOKEN_FULL, TOKEN_CROSS:
		return true
	}
	return false
}
