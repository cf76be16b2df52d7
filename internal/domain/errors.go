// Package domain defines the error types shared by the formatter, its
// front ends, and the HTTP service.
package domain

import "fmt"

// ParseError indicates that the input text is not a statement the parser
// accepts, or that it exceeded a structural limit while being parsed.
// Line and Column are 1-based; both are zero when no position is known.
type ParseError struct {
	Line    int
	Column  int
	Message string
}

func (e *ParseError) Error() string {
	if e.Line == 0 {
		return "parse error: " + e.Message
	}
	return fmt.Sprintf("parse error at line %d, column %d: %s", e.Line, e.Column, e.Message)
}

// UnsupportedConstructError indicates a statement that parses but uses a
// construct the formatter has no layout rule for.
type UnsupportedConstructError struct {
	Construct string
}

func (e *UnsupportedConstructError) Error() string {
	return "unsupported construct: " + e.Construct
}

// ValidationError indicates invalid caller-supplied options or input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// ErrParse creates a ParseError at the given position with a formatted message.
func ErrParse(line, column int, format string, args ...interface{}) *ParseError {
	return &ParseError{Line: line, Column: column, Message: fmt.Sprintf(format, args...)}
}

// ErrUnsupported creates an UnsupportedConstructError naming the construct.
func ErrUnsupported(format string, args ...interface{}) *UnsupportedConstructError {
	return &UnsupportedConstructError{Construct: fmt.Sprintf(format, args...)}
}

// ErrValidation creates a ValidationError with a formatted message.
func ErrValidation(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}
