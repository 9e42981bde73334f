package structure

import (
	"strconv"
	"strings"

	"github.com/logica-lang/logica/internal/ast"
	"github.com/logica-lang/logica/internal/dialect"
	"github.com/logica-lang/logica/internal/translate"
)

// TableResolver turns one Tables entry (an allocated alias standing for
// a predicate name) into the SQL that belongs in a FROM clause: a bare
// table name, a WITH-table reference, or a parenthesized subquery,
// grounded on universe.py's SubqueryTranslator.TranslateTable.
type TableResolver interface {
	TranslateTable(predicate string, externalVocabulary map[string]string) (string, error)
}

// SubqueryEncoder is everything AsSql needs from the enclosing program:
// the ability to resolve a FROM-clause table and, via the embedded
// translate.SubqueryTranslator, to render a nested `combine` rule.
// internal/universe's SubqueryTranslator implements both.
type SubqueryEncoder interface {
	TableResolver
	translate.SubqueryTranslator
}

func indent2(s string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = "  " + l
	}
	return strings.Join(lines, "\n")
}

// AsSql renders this structure as a SQL SELECT statement, grounded on
// RuleStructure.AsSql. encoder may be nil only when this structure has
// no tables, unnestings, or constraints to resolve (a pure-function
// body); any use of a FROM clause without one is a caller bug, not a
// recoverable compile error.
func (s *RuleStructure) AsSql(encoder SubqueryEncoder, d *dialect.Dialect, customUDFs, flagValues map[string]string) (string, error) {
	if len(s.Select) == 0 {
		return "", errorf("tables with no columns are not allowed in StandardSQL, so they are not allowed in Logica")
	}

	tr := translate.New(s.VarsVocabulary(), encoder, d, customUDFs, flagValues)

	var fields []string
	for _, f := range s.Select {
		sql, err := tr.Convert(f.Expr)
		if err != nil {
			return "", err
		}
		fields = append(fields, sql+" AS "+f.Field.String())
	}
	r := "SELECT\n" + indentJoin(fields)

	needsFrom := len(s.Tables) > 0 || len(s.Unnestings) > 0 || len(s.Constraints) > 0 || s.DistinctDenoted
	if !needsFrom {
		return r, nil
	}

	r += "\nFROM\n"
	var tables []string
	for _, t := range s.Tables {
		sql, err := encoder.TranslateTable(t.Predicate, s.ExternalVocabulary)
		if err != nil {
			return "", err
		}
		if sql == "" {
			return "", errorf("rule uses table %s, which is not defined. External tables "+
				"can not be used in testrun mode. This error may come from injected sub-rules", t.Predicate)
		}
		if sql != t.Alias {
			tables = append(tables, sql+" AS "+t.Alias)
		} else {
			tables = append(tables, sql)
		}
	}

	if err := s.SortUnnestings(); err != nil {
		return "", err
	}
	for _, u := range s.Unnestings {
		list, err := tr.Convert(u.List)
		if err != nil {
			return "", err
		}
		elem, err := tr.Convert(u.Element)
		if err != nil {
			return "", err
		}
		tables = append(tables, sprintfUnnest(d.UnnestPhrase(), list, elem))
	}
	if len(tables) == 0 {
		tables = append(tables, `(SELECT "singleton" as s) as unused_singleton`)
	}
	r += indent2(strings.Join(tables, ", "))

	if len(s.Constraints) > 0 {
		r += "\nWHERE\n"
		var constraints []string
		for _, c := range s.Constraints {
			sql, err := tr.Convert(&ast.Call{Predicate: c.Name, Args: c.Args, Source: c.Source})
			if err != nil {
				return "", err
			}
			constraints = append(constraints, indent2(sql))
		}
		r += strings.Join(constraints, " AND\n")
	}

	if len(s.DistinctVars) > 0 {
		distinctSet := make(map[string]struct{}, len(s.DistinctVars))
		for _, v := range s.DistinctVars {
			distinctSet[v] = struct{}{}
		}
		var ordered []string
		for _, f := range s.Select {
			if _, ok := distinctSet[f.Field.String()]; ok {
				ordered = append(ordered, f.Field.String())
			}
		}
		r += "\nGROUP BY "
		switch d.GroupBySpecBy() {
		case "name":
			r += strings.Join(ordered, ", ")
		case "index":
			var selected []string
			for _, f := range s.Select {
				selected = append(selected, f.Field.String())
			}
			var idx []string
			for _, v := range ordered {
				idx = append(idx, itoaIndexOf(selected, v))
			}
			r += strings.Join(idx, ", ")
		default:
			return "", errorf("broken dialect %s, group by spec: %s", d.Name(), d.GroupBySpecBy())
		}
	}

	return r, nil
}

func indentJoin(fields []string) string {
	for i, f := range fields {
		fields[i] = "  " + f
	}
	return strings.Join(fields, ",\n")
}

func sprintfUnnest(phrase, list, elem string) string {
	out := strings.Replace(phrase, "{0}", list, 1)
	out = strings.Replace(out, "{1}", elem, 1)
	return out
}

func itoaIndexOf(haystack []string, needle string) string {
	for i, v := range haystack {
		if v == needle {
			return strconv.Itoa(i + 1)
		}
	}
	return "-1"
}
