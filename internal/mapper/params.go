package mapper

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"sqlpp/internal/sqlparse"
)

// bindParam matches a MyBatis bind parameter such as #{id} or
// #{name,jdbcType=VARCHAR}.
var bindParam = regexp.MustCompile(`#\{[^}]*\}`)

// maskParams replaces every bind parameter in sql with a named placeholder
// of the same width, such as :___ for #{id}, so the formatter breaks lines
// where the restored text needs them. A bind parameter directly followed by
// an identifier character is masked as ? instead, since a named placeholder
// would absorb what follows.
//
// It returns the masked text and the original spelling of every
// placeholder token in it, in order. Placeholders already present keep
// their own spelling. A bind parameter that does not end up as a
// placeholder token, because it sits inside a literal or a comment, is an
// error: restoring it after formatting would not be possible.
func maskParams(sql string) (string, []string, error) {
	var b strings.Builder
	masked := make(map[int]string)
	last := 0
	for _, m := range bindParam.FindAllStringIndex(sql, -1) {
		b.WriteString(sql[last:m[0]])
		masked[b.Len()] = sql[m[0]:m[1]]
		b.WriteString(placeholder(sql[m[0]:m[1]], sql[m[1]:]))
		last = m[1]
	}
	b.WriteString(sql[last:])
	out := b.String()

	var params []string
	l := sqlparse.NewLexer(out)
	for tok := l.NextToken(); tok.Type != sqlparse.TOKEN_EOF; tok = l.NextToken() {
		if tok.Type == sqlparse.TOKEN_ILLEGAL {
			break
		}
		if tok.Type != sqlparse.TOKEN_PARAM {
			continue
		}
		text := tok.Literal
		if orig, ok := masked[tok.Pos]; ok {
			text = orig
			delete(masked, tok.Pos)
		}
		params = append(params, text)
	}
	if len(masked) > 0 {
		return "", nil, fmt.Errorf("%d bind parameter(s) inside a literal or comment", len(masked))
	}
	return out, params, nil
}

// unmaskParams puts params back in place of the placeholder tokens of
// formatted, in order.
func unmaskParams(formatted string, params []string) (string, error) {
	var b strings.Builder
	last, i := 0, 0
	l := sqlparse.NewLexer(formatted)
	for tok := l.NextToken(); tok.Type != sqlparse.TOKEN_EOF; tok = l.NextToken() {
		if tok.Type != sqlparse.TOKEN_PARAM {
			continue
		}
		if i == len(params) {
			return "", fmt.Errorf("formatted statement has more placeholders than the %d masked", len(params))
		}
		b.WriteString(formatted[last:tok.Pos])
		b.WriteString(params[i])
		last = tok.Pos + len(tok.Literal)
		i++
	}
	if i != len(params) {
		return "", fmt.Errorf("formatted statement has %d placeholders, expected %d", i, len(params))
	}
	b.WriteString(formatted[last:])
	return b.String(), nil
}

// placeholder returns the mask for param given the text that follows it.
func placeholder(param, rest string) string {
	if r, _ := utf8.DecodeRuneInString(rest); rest != "" && isIdentRune(r) {
		return "?"
	}
	return ":" + strings.Repeat("_", utf8.RuneCountInString(param)-1)
}

func isIdentRune(r rune) bool {
	return r == '_' || r == '$' || r >= utf8.RuneSelf || unicode.IsLetter(r) || unicode.IsDigit(r)
}
