package sqlparse

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Lexer tokenizes SQL input. Token literals are slices of the input, so
// quoted identifiers and strings keep their quotes and escapes.
type Lexer struct {
	input   string
	pos     int  // current position in input
	readPos int  // reading position (after current char)
	ch      byte // current char under examination
}

// NewLexer creates a new Lexer for the given input.
func NewLexer(input string) *Lexer {
	l := &Lexer{input: input}
	l.readChar()
	return l
}

// readChar advances to the next character.
func (l *Lexer) readChar() {
	if l.readPos >= len(l.input) {
		l.ch = 0 // NUL = EOF
	} else {
		l.ch = l.input[l.readPos]
	}
	l.pos = l.readPos
	l.readPos++
}

// peekChar returns the next character without advancing.
func (l *Lexer) peekChar() byte {
	if l.readPos >= len(l.input) {
		return 0
	}
	return l.input[l.readPos]
}

func (l *Lexer) atEOF() bool {
	return l.pos >= len(l.input)
}

// NextToken returns the next token from the input.
func (l *Lexer) NextToken() Token {
	l.skipWhitespaceAndComments()

	start := l.pos
	tok := Token{Pos: start}

	if l.atEOF() {
		tok.Type = TOKEN_EOF
		return tok
	}

	switch l.ch {
	case '+':
		tok.Type = TOKEN_PLUS
	case '-':
		tok.Type = TOKEN_MINUS
	case '*':
		tok.Type = TOKEN_STAR
	case '/':
		tok.Type = TOKEN_SLASH
	case '%':
		tok.Type = TOKEN_MOD
	case '=':
		tok.Type = TOKEN_EQ
		if l.peekChar() == '=' {
			l.readChar()
		}
	case '<':
		switch l.peekChar() {
		case '=':
			l.readChar()
			tok.Type = TOKEN_LE
		case '>':
			l.readChar()
			tok.Type = TOKEN_NE
		default:
			tok.Type = TOKEN_LT
		}
	case '>':
		if l.peekChar() == '=' {
			l.readChar()
			tok.Type = TOKEN_GE
		} else {
			tok.Type = TOKEN_GT
		}
	case '!':
		if l.peekChar() == '=' {
			l.readChar()
			tok.Type = TOKEN_NE
		} else {
			tok.Type = TOKEN_ILLEGAL
		}
	case '|':
		if l.peekChar() == '|' {
			l.readChar()
			tok.Type = TOKEN_DPIPE
		} else {
			tok.Type = TOKEN_ILLEGAL
		}
	case '.':
		if isDigit(l.peekChar()) {
			tok.Type = TOKEN_NUMBER
			tok.Literal = l.readNumber()
			return tok
		}
		tok.Type = TOKEN_DOT
	case ',':
		tok.Type = TOKEN_COMMA
	case ';':
		tok.Type = TOKEN_SEMICOLON
	case '(':
		tok.Type = TOKEN_LPAREN
	case ')':
		tok.Type = TOKEN_RPAREN
	case '[':
		tok.Type = TOKEN_LBRACKET
	case ']':
		tok.Type = TOKEN_RBRACKET
	case ':':
		switch {
		case l.peekChar() == ':':
			l.readChar()
			tok.Type = TOKEN_DCOLON
		case isIdentStart(l.peekChar()):
			l.readChar()
			l.readIdentifier()
			tok.Type = TOKEN_PARAM
			tok.Literal = l.input[start:l.pos]
			return tok
		default:
			tok.Type = TOKEN_ILLEGAL
		}
	case '?':
		tok.Type = TOKEN_PARAM
	case '$':
		l.readChar()
		for isIdentPart(l.ch) {
			l.readChar()
		}
		if l.pos == start+1 {
			tok.Type = TOKEN_ILLEGAL
		} else {
			tok.Type = TOKEN_PARAM
		}
		tok.Literal = l.input[start:l.pos]
		return tok
	case '\'':
		tok.Type = TOKEN_STRING
		if !l.readQuoted('\'') {
			tok.Type = TOKEN_ILLEGAL
		}
		tok.Literal = l.input[start:l.pos]
		return tok
	case '"', '`':
		tok.Type = TOKEN_IDENT
		if !l.readQuoted(l.ch) {
			tok.Type = TOKEN_ILLEGAL
		}
		tok.Literal = l.input[start:l.pos]
		return tok
	default:
		switch {
		case isIdentStart(l.ch):
			literal := l.readIdentifier()
			tok.Literal = literal
			tok.Type = lookupKeyword(strings.ToLower(literal))
			return tok
		case isDigit(l.ch):
			tok.Type = TOKEN_NUMBER
			tok.Literal = l.readNumber()
			return tok
		default:
			tok.Type = TOKEN_ILLEGAL
		}
	}

	l.readChar()
	tok.Literal = l.input[start:l.pos]
	return tok
}

// skipWhitespaceAndComments skips whitespace and SQL comments. An
// unterminated block comment runs to the end of input.
func (l *Lexer) skipWhitespaceAndComments() {
	for {
		for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' || l.ch == '\f' {
			l.readChar()
		}
		// Line comment (-- ...)
		if l.ch == '-' && l.peekChar() == '-' {
			for l.ch != '\n' && !l.atEOF() {
				l.readChar()
			}
			continue
		}
		// Block comment (/* ... */)
		if l.ch == '/' && l.peekChar() == '*' {
			l.readChar() // skip /
			l.readChar() // skip *
			for !l.atEOF() {
				if l.ch == '*' && l.peekChar() == '/' {
					l.readChar() // skip *
					l.readChar() // skip /
					break
				}
				l.readChar()
			}
			continue
		}
		break
	}
}

// readQuoted consumes a literal delimited by quote, treating a doubled quote
// as an escaped one. It returns false if the input ends first.
func (l *Lexer) readQuoted(quote byte) bool {
	l.readChar() // skip opening quote
	for !l.atEOF() {
		if l.ch == quote {
			if l.peekChar() == quote {
				l.readChar()
				l.readChar()
				continue
			}
			l.readChar() // skip closing quote
			return true
		}
		l.readChar()
	}
	return false
}

// readIdentifier reads an unquoted identifier.
func (l *Lexer) readIdentifier() string {
	start := l.pos
	for isIdentPart(l.ch) {
		l.readChar()
	}
	return l.input[start:l.pos]
}

// readNumber reads a numeric literal (integer, decimal, or scientific).
func (l *Lexer) readNumber() string {
	start := l.pos
	for isDigit(l.ch) {
		l.readChar()
	}
	if l.ch == '.' && isDigit(l.peekChar()) {
		l.readChar() // skip .
		for isDigit(l.ch) {
			l.readChar()
		}
	}
	if (l.ch == 'e' || l.ch == 'E') && (isDigit(l.peekChar()) || l.peekChar() == '+' || l.peekChar() == '-') {
		l.readChar()
		if l.ch == '+' || l.ch == '-' {
			l.readChar()
		}
		for isDigit(l.ch) {
			l.readChar()
		}
	}
	return l.input[start:l.pos]
}

// isIdentStart accepts any non-ASCII byte so identifiers in other scripts
// lex as a single token.
func isIdentStart(ch byte) bool {
	return ch == '_' || ch >= utf8.RuneSelf || unicode.IsLetter(rune(ch))
}

func isIdentPart(ch byte) bool {
	return isIdentStart(ch) || isDigit(ch) || ch == '$'
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}
