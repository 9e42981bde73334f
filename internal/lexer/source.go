// Package lexer implements Logica's bracket-aware, state-tracking scanner
// (§4.1). Logica does not tokenize in the conventional sense: the
// parser operates directly on heritage-tracked substrings, splitting them
// at depth zero on a chosen separator. This package provides that
// primitive plus the handful of state-aware string helpers built on it.
package lexer

import "github.com/logica-lang/logica/internal/heritage"

// Source is a string value that remembers the heritage.Span it came
// from, analogous to a HeritageAwareString.
type Source struct {
	Text string
	Span heritage.Span
}

// NewSource wraps a buffer's full text as a Source.
func NewSource(buf *heritage.Buffer) Source {
	return Source{Text: buf.Text, Span: heritage.NewSpan(buf)}
}

// Slice returns the substring [start, stop) with heritage preserved.
func (s Source) Slice(start, stop int) Source {
	if start < 0 {
		start = 0
	}
	if stop > len(s.Text) {
		stop = len(s.Text)
	}
	if stop < start {
		stop = start
	}
	return Source{Text: s.Text[start:stop], Span: s.Span.Sub(start, stop)}
}

// Len returns the number of bytes in the source text.
func (s Source) Len() int { return len(s.Text) }

// String implements fmt.Stringer for convenience in tests and diagnostics.
func (s Source) String() string { return s.Text }
