package domain

import "strings"

// AliasStyle selects how relation aliases are rendered.
type AliasStyle string

// AliasStyleAS renders "FROM t AS x"; AliasStyleBare renders "FROM t x".
const (
	AliasStyleAS   AliasStyle = "as"
	AliasStyleBare AliasStyle = "bare"
)

// ParseAliasStyle maps a case-insensitive name to an AliasStyle. The empty
// string selects AliasStyleAS.
func ParseAliasStyle(s string) (AliasStyle, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(AliasStyleAS):
		return AliasStyleAS, nil
	case string(AliasStyleBare):
		return AliasStyleBare, nil
	default:
		return "", ErrValidation("alias_style must be 'as' or 'bare', got %q", s)
	}
}

// FormatRequest is one formatting call as received by the HTTP service and the CLI.
type FormatRequest struct {
	SQL         string     `json:"sql"`
	LineWidth   int        `json:"line_width"`
	IndentWidth int        `json:"indent_width"`
	AliasStyle  AliasStyle `json:"alias_style,omitempty"`
}

// Validate checks the request fields.
func (r *FormatRequest) Validate() error {
	if strings.TrimSpace(r.SQL) == "" {
		return ErrValidation("sql is required")
	}
	if r.LineWidth <= 0 {
		return ErrValidation("line_width must be positive, got %d", r.LineWidth)
	}
	if r.IndentWidth < 0 {
		return ErrValidation("indent_width must not be negative, got %d", r.IndentWidth)
	}
	if _, err := ParseAliasStyle(string(r.AliasStyle)); err != nil {
		return err
	}
	return nil
}

// FormatResponse is the result of a successful formatting call.
type FormatResponse struct {
	Formatted string `json:"formatted"`
}

// MapperRequest asks for the statements of a mapper document to be formatted.
type MapperRequest struct {
	XML         string     `json:"xml"`
	LineWidth   int        `json:"line_width"`
	IndentWidth int        `json:"indent_width"`
	AliasStyle  AliasStyle `json:"alias_style,omitempty"`
}

// Validate checks the request fields.
func (r *MapperRequest) Validate() error {
	if strings.TrimSpace(r.XML) == "" {
		return ErrValidation("xml is required")
	}
	f := FormatRequest{SQL: r.XML, LineWidth: r.LineWidth, IndentWidth: r.IndentWidth, AliasStyle: r.AliasStyle}
	return f.Validate()
}

// MapperResponse is the rewritten document and what happened to its statements.
type MapperResponse struct {
	XML        string `json:"xml"`
	Changed    bool   `json:"changed"`
	Statements int    `json:"statements"`
	Formatted  int    `json:"formatted"`
	Dynamic    int    `json:"dynamic"`
	Failed     int    `json:"failed"`
}
