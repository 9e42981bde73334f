package parser

import "github.com/logica-lang/logica/internal/lexer"

func errAt(s lexer.Source, message string) error {
	return lexer.NewParsingError(s, 0, len(s.Text), message)
}

func errRange(s lexer.Source, start, stop int, message string) error {
	return lexer.NewParsingError(s, start, stop, message)
}
