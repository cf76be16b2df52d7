package sqlparse

import (
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLexer_Punctuation(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantType TokenType
		wantLit  string
	}{
		{"plus", "+", TOKEN_PLUS, "+"},
		{"minus", "-", TOKEN_MINUS, "-"},
		{"star", "*", TOKEN_STAR, "*"},
		{"slash", "/", TOKEN_SLASH, "/"},
		{"mod", "%", TOKEN_MOD, "%"},
		{"eq", "=", TOKEN_EQ, "="},
		{"eq_double", "==", TOKEN_EQ, "=="},
		{"ne_bang", "!=", TOKEN_NE, "!="},
		{"ne_diamond", "<>", TOKEN_NE, "<>"},
		{"lt", "<", TOKEN_LT, "<"},
		{"gt", ">", TOKEN_GT, ">"},
		{"le", "<=", TOKEN_LE, "<="},
		{"ge", ">=", TOKEN_GE, ">="},
		{"dot", ".", TOKEN_DOT, "."},
		{"comma", ",", TOKEN_COMMA, ","},
		{"semicolon", ";", TOKEN_SEMICOLON, ";"},
		{"lparen", "(", TOKEN_LPAREN, "("},
		{"rparen", ")", TOKEN_RPAREN, ")"},
		{"lbracket", "[", TOKEN_LBRACKET, "["},
		{"rbracket", "]", TOKEN_RBRACKET, "]"},
		{"dcolon", "::", TOKEN_DCOLON, "::"},
		{"dpipe", "||", TOKEN_DPIPE, "||"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			l := NewLexer(tc.input)
			tok := l.NextToken()
			assert.Equal(t, tc.wantType, tok.Type, "token type")
			assert.Equal(t, tc.wantLit, tok.Literal, "token literal")
			assert.Equal(t, TOKEN_EOF, l.NextToken().Type)
		})
	}
}

func TestLexer_Numbers(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantLit string
	}{
		{"integer", "42", "42"},
		{"decimal", "3.14", "3.14"},
		{"leading dot", ".5", ".5"},
		{"exponent", "1e10", "1e10"},
		{"signed exponent", "2.5E-3", "2.5E-3"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tok := NewLexer(tc.input).NextToken()
			assert.Equal(t, TOKEN_NUMBER, tok.Type)
			assert.Equal(t, tc.wantLit, tok.Literal)
		})
	}
}

func TestLexer_LiteralsKeepSourceText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantType TokenType
		wantLit  string
	}{
		{"string", "'hello'", TOKEN_STRING, "'hello'"},
		{"string with escaped quote", "'it''s'", TOKEN_STRING, "'it''s'"},
		{"quoted ident", `"My Col"`, TOKEN_IDENT, `"My Col"`},
		{"quoted ident with escape", `"a""b"`, TOKEN_IDENT, `"a""b"`},
		{"backquoted ident", "`tbl`", TOKEN_IDENT, "`tbl`"},
		{"mixed case ident", "MyTable", TOKEN_IDENT, "MyTable"},
		{"non-ascii ident", "größe", TOKEN_IDENT, "größe"},
		{"keyword keeps case", "select", TOKEN_SELECT, "select"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tok := NewLexer(tc.input).NextToken()
			assert.Equal(t, tc.wantType, tok.Type)
			assert.Equal(t, tc.wantLit, tok.Literal)
		})
	}
}

func TestLexer_Params(t *testing.T) {
	tests := []struct {
		input   string
		wantLit string
	}{
		{"?", "?"},
		{"$1", "$1"},
		{"$name", "$name"},
		{":name", ":name"},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			tok := NewLexer(tc.input).NextToken()
			assert.Equal(t, TOKEN_PARAM, tok.Type)
			assert.Equal(t, tc.wantLit, tok.Literal)
		})
	}
}

func TestLexer_Illegal(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantLit string
	}{
		{"unterminated string", "'abc", "'abc"},
		{"unterminated quoted ident", `"abc`, `"abc`},
		{"lone bang", "!", "!"},
		{"lone pipe", "|", "|"},
		{"lone dollar", "$", "$"},
		{"hash", "#", "#"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tok := NewLexer(tc.input).NextToken()
			assert.Equal(t, TOKEN_ILLEGAL, tok.Type)
			assert.Equal(t, tc.wantLit, tok.Literal)
		})
	}
}

func TestLexer_SkipsComments(t *testing.T) {
	l := NewLexer("SELECT -- trailing\n a /* block\n comment */ FROM t /* open")

	var types []TokenType
	for {
		tok := l.NextToken()
		types = append(types, tok.Type)
		if tok.Type == TOKEN_EOF {
			break
		}
	}
	assert.Equal(t, []TokenType{TOKEN_SELECT, TOKEN_IDENT, TOKEN_FROM, TOKEN_IDENT, TOKEN_EOF}, types)
}

func TestLexer_Positions(t *testing.T) {
	l := NewLexer("SELECT a,\n  b")

	var pos []int
	for tok := l.NextToken(); tok.Type != TOKEN_EOF; tok = l.NextToken() {
		pos = append(pos, tok.Pos)
	}
	require.Len(t, pos, 4)
	assert.Equal(t, []int{0, 7, 8, 12}, pos)
}

func TestLookupKeyword(t *testing.T) {
	assert.Equal(t, TOKEN_SELECT, lookupKeyword("select"))
	assert.Equal(t, TOKEN_IDENT, lookupKeyword("grouping"))
	assert.True(t, TOKEN_WITH.IsKeyword())
	assert.False(t, TOKEN_IDENT.IsKeyword())
	assert.Equal(t, "SELECT", TOKEN_SELECT.String())
}

func TestKeywords_SortedUpperCase(t *testing.T) {
	kw := Keywords()
	require.NotEmpty(t, kw)
	assert.True(t, sort.StringsAreSorted(kw))
	assert.Contains(t, kw, "SELECT")
	assert.Contains(t, kw, "TRY_CAST")
	for _, k := range kw {
		assert.Equal(t, strings.ToUpper(k), k)
	}
}
