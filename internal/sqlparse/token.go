// Package sqlparse provides a SQL lexer, parser, and AST for the statements
// the formatter lays out: SELECT (with WITH), INSERT, UPDATE, and DELETE.
//
// The AST keeps identifiers and literals exactly as they were written,
// quotes and case included, so a statement can be re-rendered without
// changing its meaning. Parse failures are reported as *domain.ParseError
// carrying the 1-based line and column of the offending token.
package sqlparse

import (
	"fmt"
	"sort"
	"strings"
)

// TokenType represents the type of a lexical token.
type TokenType int

// TOKEN_EOF and friends enumerate all token types produced by the lexer.
const (
	TOKEN_EOF     TokenType = iota // end of input
	TOKEN_ILLEGAL                  // unexpected character or unterminated literal

	TOKEN_IDENT  // identifier, possibly quoted
	TOKEN_NUMBER // 123, 45.67, 1e10
	TOKEN_STRING // 'hello'
	TOKEN_PARAM  // ?, $1, :name

	TOKEN_PLUS      // +
	TOKEN_MINUS     // -
	TOKEN_STAR      // *
	TOKEN_SLASH     // /
	TOKEN_MOD       // %
	TOKEN_DPIPE     // ||
	TOKEN_EQ        // =
	TOKEN_NE        // != or <>
	TOKEN_LT        // <
	TOKEN_GT        // >
	TOKEN_LE        // <=
	TOKEN_GE        // >=
	TOKEN_DOT       // .
	TOKEN_COMMA     // ,
	TOKEN_SEMICOLON // ;
	TOKEN_LPAREN    // (
	TOKEN_RPAREN    // )
	TOKEN_LBRACKET  // [
	TOKEN_RBRACKET  // ]
	TOKEN_DCOLON    // ::

	// TOKEN_ALL and below are reserved SQL keywords (alphabetical).
	TOKEN_ALL
	TOKEN_AND
	TOKEN_AS
	TOKEN_ASC
	TOKEN_BETWEEN
	TOKEN_BY
	TOKEN_CASE
	TOKEN_CAST
	TOKEN_CROSS
	TOKEN_DELETE
	TOKEN_DESC
	TOKEN_DISTINCT
	TOKEN_ELSE
	TOKEN_END
	TOKEN_EXCEPT
	TOKEN_EXISTS
	TOKEN_FALSE
	TOKEN_FETCH
	TOKEN_FROM
	TOKEN_FULL
	TOKEN_GROUP
	TOKEN_HAVING
	TOKEN_ILIKE
	TOKEN_IN
	TOKEN_INNER
	TOKEN_INSERT
	TOKEN_INTERSECT
	TOKEN_INTERVAL
	TOKEN_INTO
	TOKEN_IS
	TOKEN_JOIN
	TOKEN_LATERAL
	TOKEN_LEFT
	TOKEN_LIKE
	TOKEN_LIMIT
	TOKEN_NATURAL
	TOKEN_NOT
	TOKEN_NULL
	TOKEN_OFFSET
	TOKEN_ON
	TOKEN_OR
	TOKEN_ORDER
	TOKEN_OUTER
	TOKEN_OVER
	TOKEN_PARTITION
	TOKEN_RETURNING
	TOKEN_RIGHT
	TOKEN_SELECT
	TOKEN_SET
	TOKEN_THEN
	TOKEN_TRUE
	TOKEN_TRY_CAST
	TOKEN_UNION
	TOKEN_UPDATE
	TOKEN_USING
	TOKEN_VALUES
	TOKEN_WHEN
	TOKEN_WHERE
	TOKEN_WINDOW
	TOKEN_WITH
)

// String returns a human-readable representation of the token type.
func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TOKEN(%d)", t)
}

// tokenNames maps token types to their string representations.
var tokenNames = map[TokenType]string{
	TOKEN_EOF:     "EOF",
	TOKEN_ILLEGAL: "ILLEGAL",
	TOKEN_IDENT:   "IDENT",
	TOKEN_NUMBER:  "NUMBER",
	TOKEN_STRING:  "STRING",
	TOKEN_PARAM:   "PARAM",

	TOKEN_PLUS:      "+",
	TOKEN_MINUS:     "-",
	TOKEN_STAR:      "*",
	TOKEN_SLASH:     "/",
	TOKEN_MOD:       "%",
	TOKEN_DPIPE:     "||",
	TOKEN_EQ:        "=",
	TOKEN_NE:        "<>",
	TOKEN_LT:        "<",
	TOKEN_GT:        ">",
	TOKEN_LE:        "<=",
	TOKEN_GE:        ">=",
	TOKEN_DOT:       ".",
	TOKEN_COMMA:     ",",
	TOKEN_SEMICOLON: ";",
	TOKEN_LPAREN:    "(",
	TOKEN_RPAREN:    ")",
	TOKEN_LBRACKET:  "[",
	TOKEN_RBRACKET:  "]",
	TOKEN_DCOLON:    "::",

	TOKEN_ALL:       "ALL",
	TOKEN_AND:       "AND",
	TOKEN_AS:        "AS",
	TOKEN_ASC:       "ASC",
	TOKEN_BETWEEN:   "BETWEEN",
	TOKEN_BY:        "BY",
	TOKEN_CASE:      "CASE",
	TOKEN_CAST:      "CAST",
	TOKEN_CROSS:     "CROSS",
	TOKEN_DELETE:    "DELETE",
	TOKEN_DESC:      "DESC",
	TOKEN_DISTINCT:  "DISTINCT",
	TOKEN_ELSE:      "ELSE",
	TOKEN_END:       "END",
	TOKEN_EXCEPT:    "EXCEPT",
	TOKEN_EXISTS:    "EXISTS",
	TOKEN_FALSE:     "FALSE",
	TOKEN_FETCH:     "FETCH",
	TOKEN_FROM:      "FROM",
	TOKEN_FULL:      "FULL",
	TOKEN_GROUP:     "GROUP",
	TOKEN_HAVING:    "HAVING",
	TOKEN_ILIKE:     "ILIKE",
	TOKEN_IN:        "IN",
	TOKEN_INNER:     "INNER",
	TOKEN_INSERT:    "INSERT",
	TOKEN_INTERSECT: "INTERSECT",
	TOKEN_INTERVAL:  "INTERVAL",
	TOKEN_INTO:      "INTO",
	TOKEN_IS:        "IS",
	TOKEN_JOIN:      "JOIN",
	TOKEN_LATERAL:   "LATERAL",
	TOKEN_LEFT:      "LEFT",
	TOKEN_LIKE:      "LIKE",
	TOKEN_LIMIT:     "LIMIT",
	TOKEN_NATURAL:   "NATURAL",
	TOKEN_NOT:       "NOT",
	TOKEN_NULL:      "NULL",
	TOKEN_OFFSET:    "OFFSET",
	TOKEN_ON:        "ON",
	TOKEN_OR:        "OR",
	TOKEN_ORDER:     "ORDER",
	TOKEN_OUTER:     "OUTER",
	TOKEN_OVER:      "OVER",
	TOKEN_PARTITION: "PARTITION",
	TOKEN_RETURNING: "RETURNING",
	TOKEN_RIGHT:     "RIGHT",
	TOKEN_SELECT:    "SELECT",
	TOKEN_SET:       "SET",
	TOKEN_THEN:      "THEN",
	TOKEN_TRUE:      "TRUE",
	TOKEN_TRY_CAST:  "TRY_CAST",
	TOKEN_UNION:     "UNION",
	TOKEN_UPDATE:    "UPDATE",
	TOKEN_USING:     "USING",
	TOKEN_VALUES:    "VALUES",
	TOKEN_WHEN:      "WHEN",
	TOKEN_WHERE:     "WHERE",
	TOKEN_WINDOW:    "WINDOW",
	TOKEN_WITH:      "WITH",
}

// keywords maps lowercase keyword strings to their token types.
var keywords = map[string]TokenType{
	"all":       TOKEN_ALL,
	"and":       TOKEN_AND,
	"as":        TOKEN_AS,
	"asc":       TOKEN_ASC,
	"between":   TOKEN_BETWEEN,
	"by":        TOKEN_BY,
	"case":      TOKEN_CASE,
	"cast":      TOKEN_CAST,
	"cross":     TOKEN_CROSS,
	"delete":    TOKEN_DELETE,
	"desc":      TOKEN_DESC,
	"distinct":  TOKEN_DISTINCT,
	"else":      TOKEN_ELSE,
	"end":       TOKEN_END,
	"except":    TOKEN_EXCEPT,
	"exists":    TOKEN_EXISTS,
	"false":     TOKEN_FALSE,
	"fetch":     TOKEN_FETCH,
	"from":      TOKEN_FROM,
	"full":      TOKEN_FULL,
	"group":     TOKEN_GROUP,
	"having":    TOKEN_HAVING,
	"ilike":     TOKEN_ILIKE,
	"in":        TOKEN_IN,
	"inner":     TOKEN_INNER,
	"insert":    TOKEN_INSERT,
	"intersect": TOKEN_INTERSECT,
	"interval":  TOKEN_INTERVAL,
	"into":      TOKEN_INTO,
	"is":        TOKEN_IS,
	"join":      TOKEN_JOIN,
	"lateral":   TOKEN_LATERAL,
	"left":      TOKEN_LEFT,
	"like":      TOKEN_LIKE,
	"limit":     TOKEN_LIMIT,
	"natural":   TOKEN_NATURAL,
	"not":       TOKEN_NOT,
	"null":      TOKEN_NULL,
	"offset":    TOKEN_OFFSET,
	"on":        TOKEN_ON,
	"or":        TOKEN_OR,
	"order":     TOKEN_ORDER,
	"outer":     TOKEN_OUTER,
	"over":      TOKEN_OVER,
	"partition": TOKEN_PARTITION,
	"returning": TOKEN_RETURNING,
	"right":     TOKEN_RIGHT,
	"select":    TOKEN_SELECT,
	"set":       TOKEN_SET,
	"then":      TOKEN_THEN,
	"true":      TOKEN_TRUE,
	"try_cast":  TOKEN_TRY_CAST,
	"union":     TOKEN_UNION,
	"update":    TOKEN_UPDATE,
	"using":     TOKEN_USING,
	"values":    TOKEN_VALUES,
	"when":      TOKEN_WHEN,
	"where":     TOKEN_WHERE,
	"window":    TOKEN_WINDOW,
	"with":      TOKEN_WITH,
}

// Keywords returns the reserved words in upper case, sorted.
func Keywords() []string {
	out := make([]string, 0, len(keywords))
	for k := range keywords {
		out = append(out, strings.ToUpper(k))
	}
	sort.Strings(out)
	return out
}

// lookupKeyword returns the token type for the given lowercase identifier.
// Returns TOKEN_IDENT if it's not a keyword.
func lookupKeyword(ident string) TokenType {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return TOKEN_IDENT
}

// Token represents a lexical token. Literal is the exact source text and
// Pos its byte offset in the input.
type Token struct {
	Type    TokenType
	Literal string
	Pos     int
}

// IsKeyword reports whether t is a reserved keyword.
func (t TokenType) IsKeyword() bool {
	return t >= TOKEN_ALL && t <= TOKEN_WITH
}

// Precedence constants for operator precedence parsing (Pratt parser).
const (
	PrecedenceNone       = 0
	PrecedenceOr         = 1
	PrecedenceAnd        = 2
	PrecedenceNot        = 3
	PrecedenceComparison = 4 // =, <>, <, >, <=, >=, LIKE, ILIKE, IN, BETWEEN, IS
	PrecedenceAddition   = 5 // +, -, ||
	PrecedenceMultiply   = 6 // *, /, %
	PrecedenceUnary      = 7 // -, + (prefix)
	PrecedencePostfix    = 8 // ::, []
)
