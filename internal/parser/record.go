package parser

import (
	"github.com/logica-lang/logica/internal/ast"
	"github.com/logica-lang/logica/internal/lexer"
)

// ParseRecordExpr matches a `{...}` record literal used as an expression.
func ParseRecordExpr(s lexer.Source) (*ast.RecordExpr, error) {
	t := s.Text
	if len(t) < 2 || t[0] != '{' || t[len(t)-1] != '}' {
		return nil, nil
	}
	inside := s.Slice(1, len(t)-1)
	if !lexer.IsWhole(inside.Text) {
		return nil, nil
	}
	rec, err := ParseRecordInternals(inside, true)
	if err != nil {
		return nil, err
	}
	return &ast.RecordExpr{Record: rec, Source: s.Span}, nil
}

// ParseRecordInternals parses the comma-separated field list inside a
// record literal or a predicate call's parentheses (§4.2, "Records").
func ParseRecordInternals(s lexer.Source, isRecordLiteral bool) (*ast.Record, error) {
	s = lexer.Strip(s)
	colonDash, err := lexer.Split(s, ":-")
	if err != nil {
		return nil, err
	}
	if len(colonDash) > 1 {
		return nil, errAt(s, "unexpected :- in record internals; "+
			"if you apply a function to a combine statement, "+
			"place it in an auxiliary variable first")
	}
	if s.Text == "" {
		return &ast.Record{}, nil
	}
	if !lexer.IsWhole(s.Text) {
		return &ast.Record{}, nil
	}

	fieldValues, err := lexer.Split(s, ",")
	if err != nil {
		return nil, err
	}
	record := &ast.Record{}
	hadRestOf := false
	positionalOK := true
	var observedFields []string

	for idx, fv := range fieldValues {
		if hadRestOf {
			return nil, errAt(fv, "field ..<rest_of> must go last")
		}
		if len(fv.Text) >= 2 && fv.Text[:2] == ".." {
			if isRecordLiteral {
				return nil, errAt(fv, "field ..<rest_of> in record literals is not currently supported")
			}
			rest := fv.Slice(2, len(fv.Text))
			expr, err := ParseExpression(rest)
			if err != nil {
				return nil, err
			}
			record.Fields = append(record.Fields, ast.FieldValue{
				Field: ast.Field{Name: "*"},
				Expr:  expr,
			})
			record.HasRest = true
			hadRestOf = true
			positionalOK = false
			continue
		}

		_, colonField, colonValue, hasColon, err := lexer.SplitInOneOrTwo(fv, ":")
		if err != nil {
			return nil, err
		}
		if hasColon {
			positionalOK = false
			field := colonField
			value := colonValue
			observedField := field.Text
			if value.Text == "" {
				value = field
				if field.Text != "" && isUpper(field.Text[0]) {
					return nil, errAt(field, "record fields may not start with a "+
						"capital letter, as it is reserved for predicate literals; "+
						"backtick the field name if you need it capitalized, "+
						"e.g. Q(`A`: 1)")
				}
				if field.Text != "" && field.Text[0] == '`' {
					return nil, errAt(field, "backticks in variable names are "+
						"disallowed; give an explicit variable for the value "+
						"of the column")
				}
			}
			expr, err := ParseExpression(value)
			if err != nil {
				return nil, err
			}
			record.Fields = append(record.Fields, ast.FieldValue{
				Field: ast.NamedField(field.Text),
				Expr:  expr,
			})
			observedFields = append(observedFields, observedField)
			continue
		}

		_, qField, qValue, hasQuestion, err := lexer.SplitInOneOrTwo(fv, "?")
		if err != nil {
			return nil, err
		}
		if hasQuestion {
			positionalOK = false
			if qField.Text == "" {
				return nil, errAt(fv, "aggregated fields have to be named")
			}
			operator, expr, err := lexer.SplitInTwo(qValue, "=")
			if err != nil {
				return nil, err
			}
			operator = lexer.Strip(operator)
			argExpr, err := ParseExpression(expr)
			if err != nil {
				return nil, err
			}
			record.Fields = append(record.Fields, ast.FieldValue{
				Field: ast.NamedField(qField.Text),
				Agg:   &ast.Aggregation{Op: operator.Text, Arg: argExpr},
			})
			observedFields = append(observedFields, qField.Text)
			continue
		}

		if !positionalOK {
			return nil, errAt(fv, "positional argument can not go after non-positional arguments")
		}
		expr, err := ParseExpression(fv)
		if err != nil {
			return nil, err
		}
		record.Fields = append(record.Fields, ast.FieldValue{
			Field: ast.PositionalField(idx),
			Expr:  expr,
		})
		observedFields = append(observedFields, colFieldName(idx))
	}
	_ = observedFields
	return record, nil
}

func colFieldName(idx int) string {
	return "col" + itoa(idx)
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	var buf [20]byte
	pos := len(buf)
	for i > 0 {
		pos--
		buf[pos] = byte('0' + i%10)
		i /= 10
	}
	return string(buf[pos:])
}
