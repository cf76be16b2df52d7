package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseError_Message(t *testing.T) {
	err := ErrParse(2, 7, "unexpected token %s", "FROM")
	assert.Equal(t, "parse error at line 2, column 7: unexpected token FROM", err.Error())

	noPos := &ParseError{Message: "empty SQL"}
	assert.Equal(t, "parse error: empty SQL", noPos.Error())
}

func TestUnsupportedConstructError_Message(t *testing.T) {
	err := ErrUnsupported("GROUPING SETS")
	assert.Equal(t, "unsupported construct: GROUPING SETS", err.Error())
}

func TestErrors_As(t *testing.T) {
	wrapped := fmt.Errorf("format: %w", ErrUnsupported("NATURAL JOIN"))

	var unsupported *UnsupportedConstructError
	require.True(t, errors.As(wrapped, &unsupported))
	assert.Equal(t, "NATURAL JOIN", unsupported.Construct)

	var parseErr *ParseError
	assert.False(t, errors.As(wrapped, &parseErr))
}

func TestFormatRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     FormatRequest
		wantErr string
	}{
		{
			name: "valid request",
			req:  FormatRequest{SQL: "SELECT 1", LineWidth: 80, IndentWidth: 2},
		},
		{
			name: "zero indent is allowed",
			req:  FormatRequest{SQL: "SELECT 1", LineWidth: 80},
		},
		{
			name:    "empty sql",
			req:     FormatRequest{SQL: "  ", LineWidth: 80, IndentWidth: 2},
			wantErr: "sql is required",
		},
		{
			name:    "zero width",
			req:     FormatRequest{SQL: "SELECT 1", IndentWidth: 2},
			wantErr: "line_width must be positive",
		},
		{
			name:    "negative indent",
			req:     FormatRequest{SQL: "SELECT 1", LineWidth: 80, IndentWidth: -1},
			wantErr: "indent_width must not be negative",
		},
		{
			name:    "unknown alias style",
			req:     FormatRequest{SQL: "SELECT 1", LineWidth: 80, AliasStyle: "quoted"},
			wantErr: "alias_style must be",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			var validation *ValidationError
			require.ErrorAs(t, err, &validation)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParseAliasStyle(t *testing.T) {
	style, err := ParseAliasStyle("")
	require.NoError(t, err)
	assert.Equal(t, AliasStyleAS, style)

	style, err = ParseAliasStyle("BARE")
	require.NoError(t, err)
	assert.Equal(t, AliasStyleBare, style)

	_, err = ParseAliasStyle("none")
	require.Error(t, err)
}

func TestMapperRequest_Validate(t *testing.T) {
	req := MapperRequest{XML: "<mapper/>", LineWidth: 80, IndentWidth: 2}
	require.NoError(t, req.Validate())

	req.XML = "\n"
	assert.ErrorContains(t, req.Validate(), "xml is required")

	req = MapperRequest{XML: "<mapper/>", LineWidth: -3}
	assert.ErrorContains(t, req.Validate(), "line_width must be positive")
}
