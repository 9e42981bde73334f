package lexer

import (
	"strings"
	"unicode"
)

// RemoveComments strips `#...EOL` and `/*...*/` regions, preserving
// everything else (including the text inside strings and backtick
// identifiers, which Traverse never treats as comment-worthy).
func RemoveComments(s Source) (Source, error) {
	var b strings.Builder
	b.Grow(len(s.Text))
	var err error
	Traverse(s.Text, func(e Event) bool {
		switch e.Status {
		case StatusUnmatched:
			err = newParsingError(s, e.Index, e.Index+1, "parenthesis matches nothing")
			return false
		case StatusEOLInString:
			err = newParsingError(s, e.Index, e.Index, "end of line in string")
			return false
		}
		b.WriteByte(s.Text[e.Index])
		return true
	})
	if err != nil {
		return Source{}, err
	}
	return Source{Text: b.String(), Span: s.Span}, nil
}

// IsWhole reports whether every bracket in s matches (s is "whole"),
// via a depth-0-at-EOF scan.
func IsWhole(s string) bool {
	ok := true
	Traverse(s, func(e Event) bool {
		if e.Status != StatusOK {
			ok = false
			return false
		}
		return true
	})
	return ok
}

// StripSpaces trims leading/trailing ASCII whitespace without touching
// heritage bounds beyond the trim itself.
func StripSpaces(s Source) Source {
	left, right := 0, len(s.Text)
	for left < right && unicode.IsSpace(rune(s.Text[left])) {
		left++
	}
	for right > left && unicode.IsSpace(rune(s.Text[right-1])) {
		right--
	}
	return s.Slice(left, right)
}

// Strip removes surrounding whitespace, then surrounding matched
// parentheses, repeating to a fixed point (§4.1).
func Strip(s Source) Source {
	for {
		s = StripSpaces(s)
		if len(s.Text) >= 2 && s.Text[0] == '(' && s.Text[len(s.Text)-1] == ')' &&
			IsWhole(s.Text[1:len(s.Text)-1]) {
			s = s.Slice(1, len(s.Text)-1)
		} else {
			return s
		}
	}
}

// SplitRaw splits s on separator only where the scan is at depth zero,
// handling the `|` vs `||` ambiguity: a `|` adjacent to another `|` is
// never treated as a split point.
func SplitRaw(s Source, separator string) ([]Source, error) {
	var parts []Source
	sepLen := len(separator)
	text := s.Text
	partStart := 0
	var err error

	skipUntil := -1
	Traverse(text, func(e Event) bool {
		if e.Index < skipUntil {
			return true
		}
		switch e.Status {
		case StatusUnmatched:
			err = newParsingError(s, e.Index, e.Index+1, "parenthesis matches nothing")
			return false
		case StatusEOLInString:
			return true
		}
		idx := e.Index
		if e.AtZero && idx+sepLen <= len(text) && text[idx:idx+sepLen] == separator {
			barAdjacent := (idx+sepLen < len(text) && text[idx+sepLen] == '|') ||
				(idx > 0 && text[idx-1] == '|')
			if separator != "|" || !barAdjacent {
				parts = append(parts, s.Slice(partStart, idx))
				skipUntil = idx + sepLen
				partStart = idx + sepLen
			}
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	parts = append(parts, s.Slice(partStart, len(text)))
	return parts, nil
}

// Split splits s on separator at depth zero and strips each resulting part.
func Split(s Source, separator string) ([]Source, error) {
	raw, err := SplitRaw(s, separator)
	if err != nil {
		return nil, err
	}
	out := make([]Source, len(raw))
	for i, p := range raw {
		out[i] = Strip(p)
	}
	return out, nil
}

// SplitOnWhitespace splits s on runs of space, tab, and newline, discarding
// empty chunks, without splitting inside strings/brackets.
func SplitOnWhitespace(s Source) ([]Source, error) {
	chunks := []Source{s}
	for _, sep := range []string{" ", "\n", "\t"} {
		var next []Source
		for _, c := range chunks {
			parts, err := Split(c, sep)
			if err != nil {
				return nil, err
			}
			next = append(next, parts...)
		}
		chunks = next
	}
	var out []Source
	for _, c := range chunks {
		if c.Text != "" {
			out = append(out, c)
		}
	}
	return out, nil
}

// SplitInOneOrTwo splits s by separator, which must produce exactly one or
// two parts. ok reports whether the separator was found: when it was not,
// single holds the original (stripped) s; when it was, left/right hold the
// two halves.
func SplitInOneOrTwo(s Source, separator string) (single Source, left Source, right Source, found bool, err error) {
	parts, err := Split(s, separator)
	if err != nil {
		return Source{}, Source{}, Source{}, false, err
	}
	switch len(parts) {
	case 1:
		return parts[0], Source{}, Source{}, false, nil
	case 2:
		return Source{}, parts[0], parts[1], true, nil
	default:
		return Source{}, Source{}, Source{}, false, newParsingError(s, 0, len(s.Text),
			"string should have been split by "+separator+" in one or two pieces")
	}
}

// SplitInTwo splits s by separator and requires exactly two parts.
func SplitInTwo(s Source, separator string) (Source, Source, error) {
	parts, err := Split(s, separator)
	if err != nil {
		return Source{}, Source{}, err
	}
	if len(parts) != 2 {
		return Source{}, Source{}, newParsingError(s, 0, len(s.Text),
			"expected string to be split by "+separator+" in two")
	}
	return parts[0], parts[1], nil
}
