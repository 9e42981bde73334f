package parser

import (
	"strings"

	"github.com/logica-lang/logica/internal/ast"
	"github.com/logica-lang/logica/internal/lexer"
)

// SplitImport splits an `import a.b.C [as D]` statement's argument into its
// package path, predicate name, and optional alias (§4.2).
func SplitImport(s lexer.Source) (path []string, predicate string, alias string, err error) {
	parts, err := lexer.Split(s, " as ")
	if err != nil {
		return nil, "", "", err
	}
	if len(parts) > 2 {
		return nil, "", "", errAt(s, "too many 'as' in import statement")
	}
	importPath := parts[0].Text
	if len(parts) == 2 {
		alias = parts[1].Text
	}
	segments := strings.Split(importPath, ".")
	if len(segments) == 0 || segments[len(segments)-1] == "" || !isUpper(segments[len(segments)-1][0]) {
		return nil, "", "", errAt(s, "one import per predicate please; "+
			"the last path segment must name a predicate")
	}
	return segments[:len(segments)-1], segments[len(segments)-1], alias, nil
}

// ParseFile parses one source file's rules and import statements (spec
// §4.2). It does not resolve imports against the filesystem (that is
// internal/importer's job, §4.10) and does not run the desugaring
// passes (internal/desugar, §4.3) — callers compose those themselves
// so each pipeline stage stays independently testable.
func ParseFile(text, fileName string) (*ast.File, error) {
	cleaned, err := lexer.RemoveComments(freshSource(text))
	if err != nil {
		return nil, err
	}
	statements, err := lexer.Split(cleaned, ";")
	if err != nil {
		return nil, err
	}

	file := &ast.File{FileName: fileName}
	for _, stmt := range statements {
		if stmt.Text == "" {
			continue
		}
		if strings.HasPrefix(stmt.Text, "import ") {
			importArg := stmt.Slice(len("import "), len(stmt.Text))
			path, predicate, alias, err := SplitImport(importArg)
			if err != nil {
				return nil, err
			}
			file.Imports = append(file.Imports, &ast.Import{
				Path: path, Predicate: predicate, As: alias, Source: stmt.Span,
			})
			file.ImportedPredicates = append(file.ImportedPredicates, predicate)
			continue
		}

		annotationAndRule, err := ParseFunctionRule(stmt)
		if err != nil {
			return nil, err
		}
		if annotationAndRule != nil {
			file.Rules = append(file.Rules, annotationAndRule[0], annotationAndRule[1])
			continue
		}

		rule, err := ParseFunctorRule(stmt)
		if err != nil {
			return nil, err
		}
		if rule == nil {
			rule, err = ParseRule(stmt)
			if err != nil {
				return nil, err
			}
		}
		if rule != nil {
			file.Rules = append(file.Rules, rule)
		}
	}
	return file, nil
}

// DefinedPredicatesRules groups rules by the predicate their head defines.
func DefinedPredicatesRules(rules []*ast.Rule) map[string][]*ast.Rule {
	result := map[string][]*ast.Rule{}
	for _, r := range rules {
		name := r.Head.Name
		result[name] = append(result[name], r)
	}
	return result
}

// MadePredicatesRules maps each functor-made predicate name to its
// `@Make` rule.
func MadePredicatesRules(rules []*ast.Rule) map[string]*ast.Rule {
	result := map[string]*ast.Rule{}
	for _, r := range rules {
		if r.Head.Name != "@Make" {
			continue
		}
		lit, ok := r.Head.Args.Fields[0].Expr.(*ast.PredicateLiteral)
		if !ok {
			continue
		}
		result[lit.Name] = r
	}
	return result
}

// DefinedPredicates returns the set of predicate names defined by rules.
func DefinedPredicates(rules []*ast.Rule) map[string]bool {
	out := map[string]bool{}
	for name := range DefinedPredicatesRules(rules) {
		out[name] = true
	}
	return out
}

// MadePredicates returns the set of predicate names produced by `@Make`.
func MadePredicates(rules []*ast.Rule) map[string]bool {
	out := map[string]bool{}
	for name := range MadePredicatesRules(rules) {
		out[name] = true
	}
	return out
}
