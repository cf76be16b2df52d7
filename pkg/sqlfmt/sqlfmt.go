// Package sqlfmt formats SQL statements to fit a line width.
//
// A statement is parsed, translated into a layout tree, and rendered: each
// part of the tree is kept on one line when it fits and broken into one
// indented line per element when it does not. The result is deterministic
// and formatting its own output returns it unchanged.
//
//	out, err := sqlfmt.Format(80, 2, "select a, b from t where a = 1")
//
// Failures are one of *ParseError, *UnsupportedConstructError or
// *ValidationError. No partially formatted text is ever returned.
package sqlfmt

import (
	"errors"

	"sqlpp/internal/domain"
	"sqlpp/internal/layout"
	"sqlpp/internal/sqlparse"
	"sqlpp/internal/translate"
)

// Defaults used by the command line and the HTTP service.
const (
	DefaultLineWidth   = 80
	DefaultIndentWidth = 2
)

type (
	// ParseError reports input that is not a statement the parser accepts.
	ParseError = domain.ParseError
	// UnsupportedConstructError reports a statement using a construct that
	// has no layout rule.
	UnsupportedConstructError = domain.UnsupportedConstructError
	// ValidationError reports invalid options.
	ValidationError = domain.ValidationError

	// Statement is a parsed SQL statement.
	Statement = sqlparse.Stmt

	// AliasStyle selects whether aliases are written with AS.
	AliasStyle = domain.AliasStyle
)

// Alias styles.
const (
	AliasStyleAS   = domain.AliasStyleAS
	AliasStyleBare = domain.AliasStyleBare
)

// Options control a formatting call.
type Options struct {
	LineWidth   int
	IndentWidth int
	AliasStyle  AliasStyle
}

// DefaultOptions returns the options used when none are given.
func DefaultOptions() Options {
	return Options{
		LineWidth:   DefaultLineWidth,
		IndentWidth: DefaultIndentWidth,
		AliasStyle:  AliasStyleAS,
	}
}

// Validate checks the widths and the alias style.
func (o Options) Validate() error {
	if o.LineWidth <= 0 {
		return domain.ErrValidation("line width must be positive, got %d", o.LineWidth)
	}
	if o.IndentWidth < 0 {
		return domain.ErrValidation("indent width must not be negative, got %d", o.IndentWidth)
	}
	if _, err := domain.ParseAliasStyle(string(o.AliasStyle)); err != nil {
		return err
	}
	return nil
}

// Format parses sql and renders it within lineWidth columns, indenting each
// nesting level by indentWidth spaces.
func Format(lineWidth, indentWidth int, sql string) (string, error) {
	return FormatWithOptions(sql, Options{LineWidth: lineWidth, IndentWidth: indentWidth})
}

// FormatWithOptions parses sql and renders it with opts.
func FormatWithOptions(sql string, opts Options) (string, error) {
	if err := opts.Validate(); err != nil {
		return "", err
	}
	stmt, err := Parse(sql)
	if err != nil {
		return "", err
	}
	return render(stmt, opts)
}

// FormatStatement renders an already parsed statement.
func FormatStatement(lineWidth, indentWidth int, stmt Statement) (string, error) {
	opts := Options{LineWidth: lineWidth, IndentWidth: indentWidth}
	if err := opts.Validate(); err != nil {
		return "", err
	}
	return render(stmt, opts)
}

// Parse parses a single SQL statement. A trailing semicolon is accepted.
func Parse(sql string) (Statement, error) {
	return sqlparse.Parse(sql)
}

func render(stmt Statement, opts Options) (string, error) {
	style, err := domain.ParseAliasStyle(string(opts.AliasStyle))
	if err != nil {
		return "", err
	}
	tree, err := translate.Statement(stmt, translate.Options{AliasStyle: style})
	if err != nil {
		return "", err
	}
	out, err := layout.Render(tree, opts.LineWidth, opts.IndentWidth)
	if errors.Is(err, layout.ErrTooDeep) {
		return "", domain.ErrParse(0, 0, "statement is too large (nesting depth exceeded)")
	}
	if err != nil {
		return "", err
	}
	return out, nil
}
