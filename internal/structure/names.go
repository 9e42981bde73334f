// Package structure extracts a RuleStructure — the SELECT/FROM/WHERE
// shape of a single Logica rule — from its parsed, desugared, and
// functor-expanded AST (§4.5 "Rule structurer"), grounded on
// rule_translate.py's RuleStructure, NamesAllocator, and
// ExtractRuleStructure.
package structure

import "fmt"

// Error is a user-facing compile error raised while structuring a rule,
// the Go analogue of rule_translate.py's RuleCompileException.
type Error struct {
	Message string
}

func (e *Error) Error() string { return e.Message }

func errorf(format string, args ...interface{}) error {
	return &Error{Message: fmt.Sprintf(format, args...)}
}

// NamesAllocator hands out unique table aliases and auxiliary variable
// names within one rule's structuring, and knows which function/UDF
// names are already defined so InlinePredicateValues can tell a
// function call from a predicate call, grounded on
// rule_translate.py's NamesAllocator.
type NamesAllocator struct {
	auxVarNum int
	tableNum  int
	allocated map[string]struct{}

	customUDFs map[string]struct{}
	// IsBuiltinFunction reports whether name is a built-in (portable or
	// dialect) SQL function the translator knows how to render.
	// NewNamesAllocator leaves it nil; internal/universe sets it from
	// internal/translate. While it is nil, FunctionExists falls back to
	// the custom UDF set alone.
	IsBuiltinFunction func(name string) bool
}

// NewNamesAllocator constructs an allocator. customUDFs names predicates
// defined via @CompileAsUdf in the program being compiled.
func NewNamesAllocator(customUDFs map[string]struct{}) *NamesAllocator {
	return &NamesAllocator{
		allocated:  map[string]struct{}{},
		customUDFs: customUDFs,
	}
}

// AllocateVar returns a fresh internal variable name. hint is accepted
// for parity with the original signature but, like it, unused: variable
// names are plain sequence numbers so they can never collide with a
// user-written name.
func (a *NamesAllocator) AllocateVar(hint string) string {
	v := fmt.Sprintf("x_%d", a.auxVarNum)
	a.auxVarNum++
	return v
}

var tableAliasAllowed = func() [256]bool {
	var allowed [256]bool
	for c := 'a'; c <= 'z'; c++ {
		allowed[c] = true
	}
	for c := 'A'; c <= 'Z'; c++ {
		allowed[c] = true
	}
	for c := '0'; c <= '9'; c++ {
		allowed[c] = true
	}
	allowed['_'] = true
	allowed['.'] = true
	allowed['/'] = true
	return allowed
}()

// AllocateTable returns a fresh table alias, preferring a sanitized
// version of hintForUser (the predicate name being called) when it is
// short enough and not already in use, falling back to "t_<N>"
// otherwise, grounded on NamesAllocator.AllocateTable.
func (a *NamesAllocator) AllocateTable(hintForUser string) string {
	suffix := ""
	if hintForUser != "" && len(hintForUser) < 100 {
		buf := make([]byte, 0, len(hintForUser))
		for i := 0; i < len(hintForUser); i++ {
			c := hintForUser[i]
			if !tableAliasAllowed[c] {
				continue
			}
			if c == '.' || c == '/' {
				buf = append(buf, '_')
			} else {
				buf = append(buf, c)
			}
		}
		suffix = string(buf)
	}

	var t string
	if suffix != "" {
		if _, taken := a.allocated[suffix]; !taken {
			t = suffix
		}
	}
	if t == "" {
		if suffix != "" {
			suffix = "_" + suffix
		}
		t = fmt.Sprintf("t_%d%s", a.tableNum, suffix)
		a.tableNum++
	}
	a.allocated[t] = struct{}{}
	return t
}

// FunctionExists reports whether name is a known function (builtin or
// custom UDF), used to decide whether a value-position call should be
// inlined as a predicate call (InlinePredicateValues).
func (a *NamesAllocator) FunctionExists(name string) bool {
	if a.IsBuiltinFunction != nil && a.IsBuiltinFunction(name) {
		return true
	}
	_, ok := a.customUDFs[name]
	return ok
}

// LogicaFieldToSqlField renders a field name the way SQL output should
// see it: positional fields become "col<N>", named fields pass through
// unchanged, grounded on LogicaFieldToSqlField.
func LogicaFieldToSqlField(field int, isPositional bool, name string) string {
	if isPositional {
		return fmt.Sprintf("col%d", field)
	}
	return name
}

// ExceptExpression builds and recognizes the synthetic "all columns
// except these" field value produced for a record's `..rest` marker,
// grounded on rule_translate.py's ExceptExpression.
type ExceptExpression struct{}

// Build returns the SQL fragment for "all of tableName's columns except
// exceptFields".
func (ExceptExpression) Build(tableName string, exceptFields []string) string {
	joined := ""
	for i, f := range exceptFields {
		if i > 0 {
			joined += ","
		}
		joined += f
	}
	return fmt.Sprintf("(SELECT AS STRUCT %s.* EXCEPT (%s))", tableName, joined)
}

// Recognize reports whether fieldName is the output of Build.
func (ExceptExpression) Recognize(fieldName string) bool {
	const prefix = "(SELECT AS STRUCT"
	return len(fieldName) >= len(prefix) && fieldName[:len(prefix)] == prefix
}
