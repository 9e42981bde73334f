// Package universe assembles a whole Logica program out of structured
// rules: it resolves predicate annotations, decides how each predicate
// is compiled (inlined, WITH-table, UDF, TVF, or a grounded physical
// table), runs the fixed-point predicate-injection pass, and stitches
// the result into one SQL script (§4.8 "Program assembler"),
// grounded on the original compiler's compiler/universe.py.
package universe

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/go-viper/mapstructure/v2"

	"github.com/logica-lang/logica/internal/ast"
	"github.com/logica-lang/logica/internal/dialect"
)

// Error reports a problem interpreting a program-level construct —
// an annotation, a flag, an injection cycle — the Go analogue of
// universe.py's RuleCompileException/AnnotationError.
type Error struct {
	Message  string
	RuleText string
}

func (e *Error) Error() string {
	if e.RuleText == "" {
		return e.Message
	}
	return e.Message + "\n\n" + e.RuleText
}

func errorf(ruleText, format string, args ...interface{}) error {
	return &Error{Message: fmt.Sprintf(format, args...), RuleText: ruleText}
}

// annotatingPredicates lists every head name Logica treats as an
// annotation rather than an ordinary predicate definition.
var annotatingPredicates = []string{
	"@Limit", "@OrderBy", "@Ground", "@Flag", "@DefineFlag",
	"@NoInject", "@Make", "@CompileAsTvf", "@With", "@NoWith",
	"@CompileAsUdf", "@ResetFlagValue", "@Dataset", "@AttachDatabase",
	"@Engine",
}

var isAnnotatingPredicate = func() map[string]bool {
	m := make(map[string]bool, len(annotatingPredicates))
	for _, p := range annotatingPredicates {
		m[p] = true
	}
	return m
}()

// annotationValue is one annotation rule's arguments, keyed by the
// field they were bound to (the subject, field "0", is split off
// before this is stored). Values are string, int, bool, []interface{}
// or map[string]interface{}, built straight from the literal AST
// rather than through a SQL dialect, since an annotation's arguments
// are never anything but literals in practice.
type annotationValue struct {
	fields   map[string]interface{}
	ruleText string
}

// annotationSet is an insertion-ordered subject -> annotationValue
// map, the Go analogue of an OrderedDict of annotations for one
// annotating predicate.
type annotationSet struct {
	order  []string
	byName map[string]annotationValue
}

func newAnnotationSet() *annotationSet {
	return &annotationSet{byName: map[string]annotationValue{}}
}

func (s *annotationSet) set(subject string, v annotationValue) {
	if _, ok := s.byName[subject]; !ok {
		s.order = append(s.order, subject)
	}
	s.byName[subject] = v
}

func (s *annotationSet) get(subject string) (annotationValue, bool) {
	v, ok := s.byName[subject]
	return v, ok
}

func (s *annotationSet) len() int { return len(s.order) }

// Ground describes a @Ground annotation: the predicate is backed by a
// physical table rather than computed inline, grounded on
// universe.py's Ground namedtuple.
type Ground struct {
	TableName string
	Overwrite bool
}

// Annotations parses and answers questions about every annotation rule
// in a program, grounded on universe.py's Annotations class.
type Annotations struct {
	annotations map[string]*annotationSet
	userFlags   map[string]string
	flagValues  map[string]string
}

// NewAnnotations extracts every annotation from rules and validates
// them against userFlags (command-line/API flag overrides), grounded
// on Annotations.__init__.
//
// Unlike the original, this does one extraction pass, not two: the
// original re-extracts every annotation a second time once flag
// values are known, solely so that an annotation argument written as
// FlagValue(...) can be resolved through its SQL expression
// translator. In practice annotation arguments are always literals —
// the "${flag}" substitution they carry is plain string text,
// resolved later by the flag-injection pass, not a function call — so
// a single literal-AST extraction captures everything the second pass
// would have added.
func NewAnnotations(rules []*ast.Rule, userFlags map[string]string) (*Annotations, error) {
	extracted, err := ExtractAnnotations(rules)
	if err != nil {
		return nil, err
	}
	flagValues, err := buildFlagValues(extracted, userFlags)
	if err != nil {
		return nil, err
	}
	a := &Annotations{annotations: extracted, userFlags: userFlags, flagValues: flagValues}
	if err := a.CheckAnnotatedObjects(rules); err != nil {
		return nil, err
	}
	return a, nil
}

// FlagValues returns the resolved flag name -> value map (defaults
// overridden by @ResetFlagValue, overridden in turn by userFlags).
func (a *Annotations) FlagValues() map[string]string {
	return a.flagValues
}

// ExtractAnnotations groups every annotation rule in rules by
// annotation name and subject predicate, grounded on
// Annotations.ExtractAnnotations.
func ExtractAnnotations(rules []*ast.Rule) (map[string]*annotationSet, error) {
	result := make(map[string]*annotationSet, len(annotatingPredicates))
	for _, p := range annotatingPredicates {
		result[p] = newAnnotationSet()
	}

	for _, rule := range rules {
		name := rule.Head.Name
		ruleText := rule.FullText.Text()
		if len(name) > 0 && name[0] == '@' && !isAnnotatingPredicate[name] {
			return nil, errorf(ruleText, "only %s special predicates are allowed",
				joinButLast(annotatingPredicates))
		}
		if !isAnnotatingPredicate[name] {
			continue
		}

		fields := map[string]interface{}{}
		var subject string
		haveSubject := false
		if rule.Head.Args != nil {
			for _, fv := range rule.Head.Args.Fields {
				if fv.Agg != nil {
					return nil, errorf(ruleText, "annotation %s can not use an aggregation", name)
				}
				val, err := literalValue(fv.Expr, name, ruleText)
				if err != nil {
					return nil, err
				}
				key := fv.Field.String()
				if key == "0" {
					s, ok := val.(string)
					if !ok {
						return nil, errorf(ruleText, "annotation %s subject must be a predicate name", name)
					}
					subject = s
					haveSubject = true
					continue
				}
				fields[key] = val
			}
		}
		if !haveSubject {
			return nil, errorf(ruleText, "annotation %s must name the predicate it applies to", name)
		}

		if name == "@OrderBy" || name == "@Limit" || name == "@NoInject" {
			list, ok := positionalValues(fields)
			if !ok {
				return nil, errorf(ruleText, "@OrderBy and @Limit may only have positional arguments")
			}
			if name == "@Limit" && len(list) != 1 {
				return nil, errorf(ruleText,
					"annotation @Limit must have exactly two arguments: predicate and limit")
			}
		}

		if existing, ok := result[name].get(subject); ok {
			return nil, errorf(ruleText, "%s annotates %s more than once: %s, %s",
				name, subject, existing.ruleText, ruleText)
		}
		result[name].set(subject, annotationValue{fields: fields, ruleText: ruleText})
	}
	return result, nil
}

func joinButLast(items []string) string {
	if len(items) == 0 {
		return ""
	}
	if len(items) == 1 {
		return items[0]
	}
	return strings.Join(items[:len(items)-1], ", ") + " and " + items[len(items)-1]
}

// literalValue converts one annotation argument expression into a
// plain Go value. Predicate literals and strings both collapse to
// Go strings, mirroring how the original unwraps a {'predicate_name':
// ...} dict wherever a bare name is expected.
func literalValue(e ast.Expr, annotationName, ruleText string) (interface{}, error) {
	switch v := e.(type) {
	case *ast.StringLiteral:
		return v.Value, nil
	case *ast.NumberLiteral:
		if n, err := strconv.Atoi(v.Text); err == nil {
			return n, nil
		}
		f, err := strconv.ParseFloat(v.Text, 64)
		if err != nil {
			return nil, errorf(ruleText, "could not understand numeric argument of annotation %s", annotationName)
		}
		return f, nil
	case *ast.BoolLiteral:
		return v.Value, nil
	case *ast.NullLiteral:
		return nil, nil
	case *ast.PredicateLiteral:
		return v.Name, nil
	case *ast.ListLiteral:
		out := make([]interface{}, len(v.Elements))
		for i, el := range v.Elements {
			val, err := literalValue(el, annotationName, ruleText)
			if err != nil {
				return nil, err
			}
			out[i] = val
		}
		return out, nil
	case *ast.RecordExpr:
		out := map[string]interface{}{}
		for _, fv := range v.Record.Fields {
			if fv.Agg != nil {
				return nil, errorf(ruleText, "annotation %s can not use an aggregation", annotationName)
			}
			val, err := literalValue(fv.Expr, annotationName, ruleText)
			if err != nil {
				return nil, err
			}
			out[fv.Field.String()] = val
		}
		return out, nil
	case *ast.Variable:
		if annotationName == "@Make" {
			return nil, errorf(ruleText, "incorrect syntax for functor call. Functor call to be made as\n"+
				"  R := F(A: V, ...)\n"+
				"or\n"+
				"  @Make(R, F, {A: V, ...})\n"+
				"where R, F, A's and V's are all predicate names")
		}
		return nil, errorf(ruleText, "annotation may not use variables, but this one uses variable %s", v.Name)
	default:
		return nil, errorf(ruleText, "could not understand arguments of annotation %s", annotationName)
	}
}

// positionalValues returns fields as an ordered slice if and only if
// its keys are exactly "1".."N" with no named fields left over,
// grounded on universe.py's FieldValuesAsList.
func positionalValues(fields map[string]interface{}) ([]interface{}, bool) {
	var out []interface{}
	for i := 1; ; i++ {
		v, ok := fields[strconv.Itoa(i)]
		if !ok {
			break
		}
		out = append(out, v)
	}
	if len(out) != len(fields) {
		return nil, false
	}
	return out, true
}

func stringField(av annotationValue, key, fallback string) string {
	v, ok := av.fields[key]
	if !ok {
		return fallback
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func buildFlagValues(extracted map[string]*annotationSet, userFlags map[string]string) (map[string]string, error) {
	defaults := map[string]string{}
	for _, flag := range extracted["@DefineFlag"].order {
		av, _ := extracted["@DefineFlag"].get(flag)
		defaults[flag] = stringField(av, "1", "${"+flag+"}")
	}
	programmatic := map[string]string{}
	for _, flag := range extracted["@ResetFlagValue"].order {
		av, _ := extracted["@ResetFlagValue"].get(flag)
		programmatic[flag] = stringField(av, "1", "${"+flag+"}")
	}

	var undefined []string
	for flag := range userFlags {
		if _, ok := defaults[flag]; !ok {
			undefined = append(undefined, flag)
		}
	}
	if len(undefined) > 0 {
		sort.Strings(undefined)
		return nil, errorf("", "undefined flags used: %s", strings.Join(undefined, ", "))
	}

	values := map[string]string{}
	for k, v := range defaults {
		values[k] = v
	}
	for k, v := range programmatic {
		values[k] = v
	}
	for k, v := range userFlags {
		values[k] = v
	}
	return values, nil
}

// NoInject reports whether predicate is marked @NoInject.
func (a *Annotations) NoInject(predicate string) bool {
	_, ok := a.annotations["@NoInject"].get(predicate)
	return ok
}

// OkInjection reports whether predicate is free to be inlined into
// its callers. An annotation that pins down the predicate's own
// compiled shape — a row limit, an ordering, a grounded table, an
// explicit WITH-table, or an explicit no-inject — forecloses that.
func (a *Annotations) OkInjection(predicate string) (bool, error) {
	orderBy, err := a.OrderBy(predicate)
	if err != nil {
		return false, err
	}
	if len(orderBy) > 0 {
		return false, nil
	}
	if _, ok, err := a.LimitOf(predicate); err != nil {
		return false, err
	} else if ok {
		return false, nil
	}
	ground, err := a.Ground(predicate)
	if err != nil {
		return false, err
	}
	if ground != nil {
		return false, nil
	}
	if a.NoInject(predicate) || a.ForceWith(predicate) {
		return false, nil
	}
	return true, nil
}

// AttachedDatabases returns every @AttachDatabase annotation as
// alias -> file path.
func (a *Annotations) AttachedDatabases() (map[string]string, error) {
	result := map[string]string{}
	set := a.annotations["@AttachDatabase"]
	for _, alias := range set.order {
		av, _ := set.get(alias)
		v, ok := av.fields["1"]
		if !ok {
			return nil, errorf(av.ruleText, "@AttachDatabase must have a single argument")
		}
		path, ok := v.(string)
		if !ok {
			return nil, errorf(av.ruleText, "@AttachDatabase argument must be a file path")
		}
		result[alias] = path
	}
	return result, nil
}

// AttachDatabaseStatements renders every @AttachDatabase annotation as
// SQL, for the query preamble.
func (a *Annotations) AttachDatabaseStatements() (string, error) {
	dbs, err := a.AttachedDatabases()
	if err != nil {
		return "", err
	}
	var aliases []string
	for _, alias := range a.annotations["@AttachDatabase"].order {
		if _, ok := dbs[alias]; ok {
			aliases = append(aliases, alias)
		}
	}
	var stmts []string
	for _, alias := range aliases {
		stmts = append(stmts, fmt.Sprintf("ATTACH DATABASE '%s' AS %s;", dbs[alias], alias))
	}
	return strings.Join(stmts, "\n"), nil
}

// CompileAsUdf reports whether predicate is marked @CompileAsUdf, and
// rejects a predicate marked both UDF and TVF.
func (a *Annotations) CompileAsUdf(predicate string) (bool, error) {
	_, result := a.annotations["@CompileAsUdf"].get(predicate)
	if result {
		sig, err := a.TvfSignature(predicate)
		if err != nil {
			return false, err
		}
		if sig != "" {
			return false, errorf("", "a predicate can not be UDF and TVF at the same time %s", predicate)
		}
	}
	return result, nil
}

// CompileAsUdfPredicates returns every predicate marked @CompileAsUdf,
// in annotation order.
func (a *Annotations) CompileAsUdfPredicates() []string {
	return append([]string{}, a.annotations["@CompileAsUdf"].order...)
}

// TvfSignature returns the CREATE TEMP TABLE FUNCTION signature for a
// predicate marked @CompileAsTvf, or "" if it isn't one.
func (a *Annotations) TvfSignature(predicate string) (string, error) {
	av, ok := a.annotations["@CompileAsTvf"].get(predicate)
	if !ok {
		return "", nil
	}
	v, ok := av.fields["1"]
	if !ok {
		return "", errorf(av.ruleText, "@CompileAsTvf must name its table arguments")
	}
	list, ok := v.([]interface{})
	if !ok {
		return "", errorf(av.ruleText, "@CompileAsTvf arguments must be a list of predicate names")
	}
	var sig []string
	for _, x := range list {
		name, ok := x.(string)
		if !ok {
			return "", errorf(av.ruleText, "@CompileAsTvf arguments must be predicate names")
		}
		sig = append(sig, name+" ANY TABLE")
	}
	return fmt.Sprintf("CREATE TEMP TABLE FUNCTION %s(%s) AS ", predicate, strings.Join(sig, ", ")), nil
}

// LimitOf returns the row limit annotated on predicate, if any.
func (a *Annotations) LimitOf(predicate string) (int, bool, error) {
	av, ok := a.annotations["@Limit"].get(predicate)
	if !ok {
		return 0, false, nil
	}
	list, ok := positionalValues(av.fields)
	if !ok || len(list) != 1 {
		return 0, false, errorf(av.ruleText, "bad limit specification for predicate %s", predicate)
	}
	n, ok := list[0].(int)
	if !ok {
		return 0, false, errorf(av.ruleText, "bad limit specification for predicate %s", predicate)
	}
	return n, true, nil
}

// OrderBy returns the ordered list of field names (with "DESC"
// markers where descending) annotated on predicate, if any.
func (a *Annotations) OrderBy(predicate string) ([]string, error) {
	av, ok := a.annotations["@OrderBy"].get(predicate)
	if !ok {
		return nil, nil
	}
	list, ok := positionalValues(av.fields)
	if !ok {
		return nil, errorf(av.ruleText, "@OrderBy and @Limit may only have positional arguments")
	}
	out := make([]string, len(list))
	for i, v := range list {
		s, ok := v.(string)
		if !ok {
			return nil, errorf(av.ruleText, "@OrderBy arguments must be field names")
		}
		out[i] = s
	}
	return out, nil
}

// Dataset returns the single @Dataset annotation's value, or
// "logica_test" if none was given.
func (a *Annotations) Dataset() (string, error) {
	return a.ExtractSingleton("@Dataset", "logica_test")
}

// Engine returns the single @Engine annotation's value, validated
// against the known dialects, or "bigquery" if none was given.
func (a *Annotations) Engine() (string, error) {
	engine, err := a.ExtractSingleton("@Engine", "bigquery")
	if err != nil {
		return "", err
	}
	if _, derr := dialect.Get(engine); derr != nil {
		av, _ := a.annotations["@Engine"].get(engine)
		return "", errorf(av.ruleText, "unrecognized engine: %s", engine)
	}
	return engine, nil
}

// ExtractSingleton requires that annotationName was used on at most
// one subject and returns that subject, or defaultValue if it was
// never used.
func (a *Annotations) ExtractSingleton(annotationName, defaultValue string) (string, error) {
	set := a.annotations[annotationName]
	if set.len() == 0 {
		return defaultValue, nil
	}
	if set.len() > 1 {
		first, _ := set.get(set.order[0])
		return "", errorf(first.ruleText, "single %s must be provided. Provided: %s",
			annotationName, strings.Join(set.order, ", "))
	}
	return set.order[0], nil
}

// Ground returns the physical-table annotation for predicate, or nil
// if it is not @Ground-annotated.
func (a *Annotations) Ground(predicate string) (*Ground, error) {
	av, ok := a.annotations["@Ground"].get(predicate)
	if !ok {
		return nil, nil
	}
	var tableName string
	if v, ok := av.fields["1"]; ok {
		s, ok := v.(string)
		if !ok {
			return nil, errorf(av.ruleText, "@Ground table name must be a string")
		}
		tableName = s
	} else {
		dataset, err := a.Dataset()
		if err != nil {
			return nil, err
		}
		tableName = dataset + "." + predicate
	}
	options := groundOptions{Overwrite: true}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "mapstructure",
		Result:  &options,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(av.fields); err != nil {
		return nil, errorf(av.ruleText, "@Ground overwrite must be a boolean")
	}
	return &Ground{TableName: tableName, Overwrite: options.Overwrite}, nil
}

// groundOptions is the named-argument portion of a @Ground annotation's
// field map (its positional table-name argument, keyed "1", is handled
// separately and left unmatched by mapstructure's decode).
type groundOptions struct {
	Overwrite bool `mapstructure:"overwrite"`
}

// ForceWith reports whether predicate is explicitly marked @With.
func (a *Annotations) ForceWith(predicate string) bool {
	_, ok := a.annotations["@With"].get(predicate)
	return ok
}

// ForceNoWith reports whether predicate is explicitly marked @NoWith.
func (a *Annotations) ForceNoWith(predicate string) bool {
	_, ok := a.annotations["@NoWith"].get(predicate)
	return ok
}

// With reports whether predicate should be compiled to a WITH-table,
// absent earlier inlining.
func (a *Annotations) With(predicate string) (bool, error) {
	isWith := a.ForceWith(predicate)
	isNoWith := a.ForceNoWith(predicate)
	if isWith && isNoWith {
		return false, errorf("", "predicate %s is annotated both with @With and @NoWith", predicate)
	}
	if isWith {
		return true, nil
	}
	ground, err := a.Ground(predicate)
	if err != nil {
		return false, err
	}
	if isNoWith || ground != nil {
		return false, nil
	}
	return true, nil
}

// LimitClause renders predicate's @Limit annotation as a trailing SQL
// clause, or "" if none applies.
func (a *Annotations) LimitClause(predicate string) (string, error) {
	limit, ok, err := a.LimitOf(predicate)
	if err != nil {
		return "", err
	}
	if !ok || limit == 0 {
		return "", nil
	}
	return fmt.Sprintf(" LIMIT %d", limit), nil
}

// OrderByClause renders predicate's @OrderBy annotation as a trailing
// SQL clause, or "" if none applies.
func (a *Annotations) OrderByClause(predicate string) (string, error) {
	orderBy, err := a.OrderBy(predicate)
	if err != nil {
		return "", err
	}
	if len(orderBy) == 0 {
		return "", nil
	}
	var parts []string
	for i := 0; i < len(orderBy)-1; i++ {
		if orderBy[i+1] != "DESC" {
			parts = append(parts, orderBy[i]+",")
		} else {
			parts = append(parts, orderBy[i])
		}
	}
	parts = append(parts, orderBy[len(orderBy)-1])
	return " ORDER BY " + strings.Join(parts, " "), nil
}

// CheckAnnotatedObjects verifies that every predicate-targeting
// annotation names a predicate that actually exists.
func (a *Annotations) CheckAnnotatedObjects(rules []*ast.Rule) error {
	allPredicates := map[string]struct{}{}
	for _, r := range rules {
		allPredicates[r.Head.Name] = struct{}{}
	}
	for _, s := range a.annotations["@Ground"].order {
		allPredicates[s] = struct{}{}
	}
	for _, s := range a.annotations["@Make"].order {
		allPredicates[s] = struct{}{}
	}

	restricted := map[string]bool{
		"@Limit": true, "@OrderBy": true, "@NoInject": true, "@CompileAsTvf": true,
		"@With": true, "@NoWith": true, "@CompileAsUdf": true,
	}
	for name, set := range a.annotations {
		if !restricted[name] {
			continue
		}
		for _, predicate := range set.order {
			if _, ok := allPredicates[predicate]; !ok {
				av, _ := set.get(predicate)
				return errorf(av.ruleText,
					"annotation %s must be applied to an existing predicate, but it was applied "+
						"to a non-existing predicate %s", name, predicate)
			}
		}
	}
	return nil
}

// Preamble renders the query preamble implied by the program's
// annotations: attached-database statements and, for PostgreSQL, the
// test-environment setup Logica relies on.
func (a *Annotations) Preamble() (string, error) {
	var preamble strings.Builder
	stmts, err := a.AttachDatabaseStatements()
	if err != nil {
		return "", err
	}
	if stmts != "" {
		preamble.WriteString(stmts)
		preamble.WriteString("\n\n")
	}
	engine, err := a.Engine()
	if err != nil {
		return "", err
	}
	if engine == "psql" {
		preamble.WriteString("-- Initializing PostgreSQL environment.\n" +
			"set client_min_messages to warning;\n" +
			"drop type if exists logica_arrow;\n" +
			"create type logica_arrow as (arg decimal, value decimal);\n" +
			"create schema if not exists logica_test;\n\n")
	}
	return preamble.String(), nil
}
