// Package translate renders a single Logica expression into the SQL
// text of one dialect (§4.6 "Expression translator"), grounded on
// compiler/expr_translate.py's QL class.
package translate

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/logica-lang/logica/internal/ast"
	"github.com/logica-lang/logica/internal/dialect"
)

// Error is a user-facing compile error raised while translating an
// expression, the Go analogue of the original's RuleCompileException
// (raised here via the caller-supplied exceptionMaker).
type Error struct{ Message string }

func (e *Error) Error() string { return e.Message }

func errorf(format string, args ...interface{}) error {
	return &Error{Message: fmt.Sprintf(format, args...)}
}

// SubqueryTranslator renders a `combine` expression's inner rule as a
// parenthesized subquery; owned by internal/universe, which knows how to
// turn a whole rule into a SELECT. Kept as an interface so this package
// doesn't need to depend on the rule-to-query pipeline.
type SubqueryTranslator interface {
	TranslateCombine(rule *ast.Rule, vocabulary map[string]string) (string, error)
}

// IsBuiltInFunction reports whether name is a function this package
// knows how to render for dialect d — either one of the portable
// templates or one of d's own overrides — used by
// structure.NamesAllocator to tell a function call from a predicate
// call while inlining a value-position call.
func IsBuiltInFunction(d *dialect.Dialect, name string) bool {
	if _, ok := portableBuiltInFunctions[name]; ok {
		return true
	}
	if d == nil {
		return false
	}
	_, ok := d.BuiltInFunctions()[name]
	return ok
}

// portableBuiltInFunctions are the function templates shared by every
// dialect before a dialect's own overrides are applied, grounded on
// QL.BUILT_IN_FUNCTIONS. A template with a single "%s" verb takes its
// arguments joined with ", "; one using "{0}", "{1}", ... addresses each
// argument independently, exactly like the original's Function method
// picking between '%' and .format.
var portableBuiltInFunctions = map[string]string{
	"ToFloat64": "CAST(%s AS FLOAT64)",
	"ToInt64":   "CAST(%s AS INT64)",
	"ToUInt64":  "CAST(%s AS UINT64)",
	"ToString":  "CAST(%s AS STRING)",

	"Aggregate": "%s",
	"Agg+":      "SUM(%s)",
	"Agg++":     "ARRAY_CONCAT_AGG(%s)",

	"ArgMax":  "ARRAY_AGG({0}.arg order by {0}.value desc limit 1)[OFFSET(0)]",
	"ArgMaxK": "ARRAY_AGG({0} order by {0}.value desc limit {1})",
	"ArgMin":  "ARRAY_AGG({0}.arg order by {0}.value limit 1)[OFFSET(0)]",
	"ArgMinK": "ARRAY_AGG({0} order by {0}.value limit {1})",
	"Array":   "ARRAY_AGG({0}.value order by {0}.arg)",
	"Container": "%s",
	"Count":     "APPROX_COUNT_DISTINCT(%s)",
	"ExactCount": "COUNT(DISTINCT %s)",
	"List":      "ARRAY_AGG(%s)",
	"Median":    "APPROX_QUANTILES(%s, 2)[OFFSET(1)]",
	"SomeValue": "ARRAY_AGG(%s IGNORE NULLS LIMIT 1)[OFFSET(0)]",

	"!":              "NOT %s",
	"-":              "- %s",
	"Concat":         "ARRAY_CONCAT({0}, {1})",
	"Constraint":     "%s",
	"DateAddDay":     "DATE_ADD({0}, INTERVAL {1} DAY)",
	"DateDiffDay":    "DATE_DIFF({0}, {1}, DAY)",
	"Element":        "{0}[OFFSET({1})]",
	"Enumerate": "ARRAY(SELECT STRUCT(" +
		"ROW_NUMBER() OVER () AS n, x AS element) " +
		"FROM UNNEST(%s) as x)",
	"IsNull":         "(%s IS NULL)",
	"Join":           "ARRAY_TO_STRING(%s)",
	"Like":           "({0} LIKE {1})",
	"Range":          "GENERATE_ARRAY(0, %s - 1)",
	"RangeOf":        "GENERATE_ARRAY(0, ARRAY_LENGTH(%s) - 1)",
	"Set":            "ARRAY_AGG(DISTINCT %s)",
	"Size":           "ARRAY_LENGTH(%s)",
	"Sort":           "ARRAY(SELECT x FROM UNNEST(%s) as x ORDER BY x)",
	"TimestampAddDays": "TIMESTAMP_ADD({0}, INTERVAL {1} DAY)",
	"Unique":         "ARRAY(SELECT DISTINCT x FROM UNNEST(%s) as x ORDER BY x)",
}

// portableBuiltInInfixOperators mirrors QL.BUILT_IN_INFIX_OPERATORS.
var portableBuiltInInfixOperators = map[string]string{
	"==": "%s = %s",
	"<=": "%s <= %s",
	"<":  "%s < %s",
	">=": "%s >= %s",
	">":  "%s > %s",
	"->": "STRUCT(%s AS arg, %s as value)",
	"/":  "(%s) / (%s)",
	"+":  "(%s) + (%s)",
	"-":  "(%s) - (%s)",
	"*":  "(%s) * (%s)",
	"^":  "POW(%s, %s)",
	"!=": "%s != %s",
	"++": "CONCAT(%s, %s)",
	"In": "%s IN UNNEST(%s)",
	"||": "%s OR %s",
	"&&": "%s AND %s",
	"%":  "MOD(%s, %s)",
}

// arityTwoFunctions lists built-ins that take exactly two arguments;
// every other portable/dialect function defaults to exactly one,
// grounded on QL.BuiltInFunctionArityRange.
var arityTwoFunctions = map[string]struct{}{
	"Like": {}, "TimestampAddDays": {}, "Element": {}, "Concat": {},
	"DateAddDay": {}, "DateDiffDay": {}, "ArgMaxK": {}, "ArgMinK": {}, "Join": {},
}

// noParenInfix are infix operators whose rendered result is never
// additionally wrapped in parentheses, grounded on the original's
// "if ydg_op not in (...)" check in ConvertToSql.
var noParenInfix = map[string]struct{}{"++": {}, "++?": {}, "In": {}, "==": {}}

// Translator converts expressions for one rule's vocabulary into one
// dialect's SQL, grounded on expr_translate.py's QL.
type Translator struct {
	vocabulary       map[string]string
	subquery         SubqueryTranslator
	dialect          *dialect.Dialect
	customUDFs       map[string]string
	flagValues       map[string]string
	builtInFunctions map[string]string
	infixOperators   map[string]string
}

// New constructs a Translator. vocabulary maps a Logica variable name to
// the SQL expression it resolves to (RuleStructure.VarsVocabulary).
// customUDFs maps a predicate name compiled via @CompileAsUdf to its SQL
// template (named placeholders, e.g. "{x} + {y}"). flagValues holds the
// program's resolved flag values, for FlagValue(...) calls.
func New(vocabulary map[string]string, subquery SubqueryTranslator, d *dialect.Dialect, customUDFs, flagValues map[string]string) *Translator {
	functions := make(map[string]string, len(portableBuiltInFunctions))
	for k, v := range portableBuiltInFunctions {
		functions[k] = v
	}
	for k, v := range d.BuiltInFunctions() {
		functions[k] = v
	}
	infix := make(map[string]string, len(portableBuiltInInfixOperators))
	for k, v := range portableBuiltInInfixOperators {
		infix[k] = v
	}
	for k, v := range d.InfixOperators() {
		infix[k] = v
	}
	return &Translator{
		vocabulary:       vocabulary,
		subquery:         subquery,
		dialect:          d,
		customUDFs:       customUDFs,
		flagValues:       flagValues,
		builtInFunctions: functions,
		infixOperators:   infix,
	}
}

// recordArg is one field of a record already translated to SQL text, in
// declaration order.
type recordArg struct {
	field ast.Field
	sql   string
}

func (t *Translator) convertRecord(r *ast.Record) ([]recordArg, error) {
	if r == nil {
		return nil, nil
	}
	out := make([]recordArg, 0, len(r.Fields))
	for _, fv := range r.Fields {
		expr := fv.Expr
		if fv.Agg != nil {
			expr = fv.Agg.Arg
		}
		sql, err := t.Convert(expr)
		if err != nil {
			return nil, err
		}
		out = append(out, recordArg{field: fv.Field, sql: sql})
	}
	return out, nil
}

func positionalValues(args []recordArg) []string {
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = a.sql
	}
	return out
}

// formatTemplate mirrors QL.Function: a template containing "%s" joins
// every value with ", " and substitutes once; otherwise each "{N}" is
// replaced independently (N may repeat).
func formatTemplate(tmpl string, values []string) string {
	if strings.Contains(tmpl, "%s") {
		return fmt.Sprintf(tmpl, strings.Join(values, ", "))
	}
	out := tmpl
	for i, v := range values {
		out = strings.ReplaceAll(out, "{"+strconv.Itoa(i)+"}", v)
	}
	return out
}

// formatNamedTemplate renders a custom UDF's SQL template, whose
// placeholders are the UDF's own parameter names (e.g. "{x} + {y}"),
// grounded on the custom_udfs branch of ConvertToSql. A positional
// argument's placeholder is "col<N>", matching LogicaFieldToSqlField.
func formatNamedTemplate(tmpl string, args []recordArg) (string, error) {
	out := tmpl
	for _, a := range args {
		key := a.field.String()
		if a.field.Positional {
			key = fmt.Sprintf("col%d", a.field.Index)
		}
		placeholder := "{" + key + "}"
		if !strings.Contains(out, placeholder) {
			return "", errorf("function call is inconsistent with its signature %s", tmpl)
		}
		out = strings.ReplaceAll(out, placeholder, a.sql)
	}
	return out, nil
}

func (t *Translator) infixArgs(args []recordArg) (left, right string, ok bool) {
	var l, r string
	var haveL, haveR bool
	for _, a := range args {
		if a.field.Positional || a.field.Name == "left" {
			l, haveL = a.sql, true
		}
		if !a.field.Positional && a.field.Name == "right" {
			r, haveR = a.sql, true
		}
	}
	return l, r, haveL && haveR
}

func quoteString(dialectName, value string) string {
	if dialectName == "PostgreSQL" {
		return "'" + strings.ReplaceAll(value, "'", "''") + "'"
	}
	b, _ := json.Marshal(value)
	return string(b)
}

// Convert renders e as a SQL expression, grounded on QL.ConvertToSql.
func (t *Translator) Convert(e ast.Expr) (string, error) {
	switch v := e.(type) {
	case *ast.Variable:
		if sql, ok := t.vocabulary[v.Name]; ok {
			return sql, nil
		}
		return "", errorf("found no interpretation for %s", v.Name)

	case *ast.NumberLiteral:
		return v.Text, nil

	case *ast.StringLiteral:
		return quoteString(t.dialect.Name(), v.Value), nil

	case *ast.BoolLiteral:
		if v.Value {
			return "TRUE", nil
		}
		return "FALSE", nil

	case *ast.NullLiteral:
		return "NULL", nil

	case *ast.ListLiteral:
		parts := make([]string, len(v.Elements))
		for i, el := range v.Elements {
			sql, err := t.Convert(el)
			if err != nil {
				return "", err
			}
			parts[i] = sql
		}
		return fmt.Sprintf(t.dialect.ArrayPhrase(), strings.Join(parts, ", ")), nil

	case *ast.PredicateLiteral:
		return t.dialect.PredicateLiteral(v.Name), nil

	case *ast.Subscript:
		if rec, ok := v.Record.(*ast.RecordExpr); ok {
			if fv, found := rec.Record.Get(v.Field); found {
				expr := fv.Expr
				if fv.Agg != nil {
					expr = fv.Agg.Arg
				}
				return t.Convert(expr)
			}
		}
		record, err := t.Convert(v.Record)
		if err != nil {
			return "", err
		}
		return t.dialect.Subscript(record, v.Field, false), nil

	case *ast.RecordExpr:
		args, err := t.convertRecord(v.Record)
		if err != nil {
			return "", err
		}
		parts := make([]string, len(args))
		for i, a := range args {
			parts[i] = fmt.Sprintf("%s AS %s", a.sql, a.field.String())
		}
		return fmt.Sprintf("STRUCT(%s)", strings.Join(parts, ", ")), nil

	case *ast.Combine:
		if t.subquery == nil {
			return "", errorf("combine expressions are not supported in this context")
		}
		sql, err := t.subquery.TranslateCombine(v.Rule, t.vocabulary)
		if err != nil {
			return "", err
		}
		return "(" + sql + ")", nil

	case *ast.Implication:
		var clauses []string
		for _, b := range v.Branches {
			cond, err := t.Convert(b.Cond)
			if err != nil {
				return "", err
			}
			then, err := t.Convert(b.Then)
			if err != nil {
				return "", err
			}
			clauses = append(clauses, fmt.Sprintf("WHEN %s THEN %s", cond, then))
		}
		otherwise, err := t.Convert(v.Else)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("CASE %s ELSE %s END", strings.Join(clauses, " "), otherwise), nil

	case *ast.Call:
		return t.convertCall(v)

	default:
		return "", errorf("unsupported expression %T", e)
	}
}

func (t *Translator) convertCall(call *ast.Call) (string, error) {
	switch call.Predicate {
	case "SqlExpr":
		return t.convertSqlExpr(call)
	case "Cast":
		return t.convertCast(call)
	case "FlagValue":
		return t.convertFlagValue(call)
	}

	args, err := t.convertRecord(call.Args)
	if err != nil {
		return "", err
	}

	if tmpl, ok := t.builtInFunctions[call.Predicate]; ok {
		if tmpl == "" {
			return "", errorf("function %s is not supported by %s dialect", call.Predicate, t.dialect.Name())
		}
		if call.Predicate != "-" || len(args) != 2 {
			arityOK := len(args) == 1
			if _, two := arityTwoFunctions[call.Predicate]; two {
				arityOK = len(args) == 2
			}
			if !arityOK {
				return "", errorf("built-in function %s takes a different number of arguments than %d given",
					call.Predicate, len(args))
			}
		}
		return formatTemplate(tmpl, positionalValues(args)), nil
	}

	if tmpl, ok := t.customUDFs[call.Predicate]; ok {
		return formatNamedTemplate(tmpl, args)
	}

	if tmpl, ok := t.infixOperators[call.Predicate]; ok {
		left, right, ok := t.infixArgs(args)
		if !ok {
			return "", errorf("operator %s requires left and right arguments", call.Predicate)
		}
		result := fmt.Sprintf(tmpl, left, right)
		if _, noParen := noParenInfix[call.Predicate]; !noParen {
			result = "(" + result + ")"
		}
		return result, nil
	}

	return "", errorf("unsupported supposedly built-in function: %s", call.Predicate)
}

func (t *Translator) convertCast(call *ast.Call) (string, error) {
	args, err := t.convertRecord(call.Args)
	if err != nil {
		return "", err
	}
	if len(args) != 2 {
		return "", errorf("Cast must have 2 arguments and the second argument must be a string literal")
	}
	lit, ok := call.Args.Fields[1].Expr.(*ast.StringLiteral)
	if !ok {
		return "", errorf("Cast must have 2 arguments and the second argument must be a string literal")
	}
	return fmt.Sprintf("CAST(%s AS %s)", args[0].sql, lit.Value), nil
}

func (t *Translator) convertFlagValue(call *ast.Call) (string, error) {
	if call.Args == nil || len(call.Args.Fields) != 1 {
		return "", errorf("FlagValue argument must be a string literal")
	}
	lit, ok := call.Args.Fields[0].Expr.(*ast.StringLiteral)
	if !ok {
		return "", errorf("FlagValue argument must be a string literal")
	}
	value, ok := t.flagValues[lit.Value]
	if !ok {
		return "", errorf("unspecified flag: %s", lit.Value)
	}
	return quoteString(t.dialect.Name(), value), nil
}

// convertSqlExpr renders `SqlExpr("template {a}", {a: expr, ...})` by
// treating the second argument's record fields as named placeholders,
// grounded on QL.GenericSqlExpression.
func (t *Translator) convertSqlExpr(call *ast.Call) (string, error) {
	if call.Args == nil || len(call.Args.Fields) != 2 {
		return "", errorf("SqlExpr must have 2 positional arguments")
	}
	lit, ok := call.Args.Fields[0].Expr.(*ast.StringLiteral)
	if !ok {
		return "", errorf("SqlExpr must have first argument be string")
	}
	rec, ok := call.Args.Fields[1].Expr.(*ast.RecordExpr)
	if !ok {
		return "", errorf("second argument of SqlExpr must be record literal")
	}
	args, err := t.convertRecord(rec.Record)
	if err != nil {
		return "", err
	}
	template := lit.Value
	for _, a := range args {
		key := a.field.String()
		if a.field.Positional {
			key = fmt.Sprintf("col%d", a.field.Index)
		}
		template = strings.ReplaceAll(template, "{"+key+"}", a.sql)
	}
	return template, nil
}
