package load

import (
	"errors"
	"strconv"
	"strings"
)

// ErrParse indicates a malformed schema file.
var ErrParse = errors.New("chrono: schema parse failed")

// ParseError reports a malformed schema file. Line is zero when the
// location cannot be determined.
type ParseError struct {
	File    string
	Line    int
	Element string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	var b strings.Builder
	b.WriteString("chrono: parse error")
	if e.File != "" {
		b.WriteString(" in ")
		b.WriteString(e.File)
		if e.Line > 0 {
			b.WriteString(":")
			b.WriteString(strconv.Itoa(e.Line))
		}
	}
	if e.Element != "" {
		b.WriteString(" <")
		b.WriteString(e.Element)
		b.WriteString(">")
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *ParseError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches ErrParse.
func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}

// NewParseError creates a new ParseError.
func NewParseError(file string, line int, element, message string, cause error) *ParseError {
	return &ParseError{
		File:    file,
		Line:    line,
		Element: element,
		Message: message,
		Cause:   cause,
	}
}

// IsParseError reports whether the error is a ParseError.
func IsParseError(err error) bool {
	var e *ParseError
	return errors.As(err, &e)
}
