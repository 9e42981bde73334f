// Package heritage provides source-location tracking for compiler
// diagnostics. A Buffer holds the original program text once; a Span is a
// cheap [start, stop) view into it that every later compiler pass can carry
// along without copying the underlying bytes.
package heritage

import "fmt"

// Buffer is an immutable source text shared by every Span derived from it.
type Buffer struct {
	// FileName is used only for diagnostics; it may be empty for inline text.
	FileName string
	Text     string
}

// NewBuffer wraps program text for heritage tracking.
func NewBuffer(fileName, text string) *Buffer {
	return &Buffer{FileName: fileName, Text: text}
}

// Span is a view on a Buffer's text between [Start, Stop).
//
// Invariant: 0 <= Start <= Stop <= len(Buffer.Text).
type Span struct {
	Buffer *Buffer
	Start  int
	Stop   int
}

// NewSpan builds a Span over the whole of a buffer's text.
func NewSpan(buf *Buffer) Span {
	return Span{Buffer: buf, Start: 0, Stop: len(buf.Text)}
}

// Text returns the substring this span points at.
func (s Span) Text() string {
	if s.Buffer == nil {
		return ""
	}
	return s.Buffer.Text[s.Start:s.Stop]
}

// Sub returns a new Span for the range [start, stop) of this span's own
// text, translated back into the shared buffer's coordinates.
func (s Span) Sub(start, stop int) Span {
	return Span{Buffer: s.Buffer, Start: s.Start + start, Stop: s.Start + stop}
}

// Valid reports whether the span's bounds are well-formed against its buffer.
func (s Span) Valid() bool {
	if s.Buffer == nil {
		return s.Start == 0 && s.Stop == 0
	}
	return 0 <= s.Start && s.Start <= s.Stop && s.Stop <= len(s.Buffer.Text)
}

// LineCol converts the span's start offset into a 1-based (line, column)
// pair for error messages.
func (s Span) LineCol() (line, col int) {
	if s.Buffer == nil {
		return 1, 1
	}
	line, col = 1, 1
	for i := 0; i < s.Start && i < len(s.Buffer.Text); i++ {
		if s.Buffer.Text[i] == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return line, col
}

// String renders "file:line:col: <snippet>" for use in error messages.
func (s Span) String() string {
	line, col := s.LineCol()
	name := "<input>"
	if s.Buffer != nil && s.Buffer.FileName != "" {
		name = s.Buffer.FileName
	}
	return fmt.Sprintf("%s:%d:%d: %s", name, line, col, snippet(s.Text()))
}

func snippet(s string) string {
	const maxLen = 60
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
