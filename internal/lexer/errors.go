package lexer

import (
	"fmt"

	"github.com/logica-lang/logica/internal/heritage"
)

// ParsingError is §7's ParsingError: it points at the offending
// substring of the original source.
type ParsingError struct {
	Message string
	At      heritage.Span
}

func (e *ParsingError) Error() string {
	return fmt.Sprintf("parsing error: %s\n%s", e.Message, e.At)
}

func newParsingError(s Source, start, stop int, message string) *ParsingError {
	return &ParsingError{Message: message, At: s.Span.Sub(start, stop)}
}

// NewParsingError builds a ParsingError pointing at s[start:stop]. Exported
// for use by packages built on top of the lexer (e.g. internal/parser) that
// need to report syntax errors against the same Source they were handed.
func NewParsingError(s Source, start, stop int, message string) *ParsingError {
	return newParsingError(s, start, stop, message)
}
