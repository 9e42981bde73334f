package universe

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/logica-lang/logica/internal/ast"
	"github.com/logica-lang/logica/internal/dialect"
	"github.com/logica-lang/logica/internal/functor"
	"github.com/logica-lang/logica/internal/structure"
	"github.com/logica-lang/logica/internal/translate"
)

// maxFlagSubstitutions bounds the fixed-point ${flag} substitution loop
// in useFlagsAsParameters; a program whose flags refer to each other in
// a cycle would otherwise never converge.
const maxFlagSubstitutions = 100

var dollarParamPattern = regexp.MustCompile(`[$][{](.*?)[}]`)

// ExtractDollarParamsFromString returns every ${name} placeholder found
// in s, skipping the date-format placeholders (${YYYY...}, ${MM},
// ${DD}) the command-line runner substitutes on its own, grounded on
// LogicaProgram.ExtractDollarParamsFromString.
func ExtractDollarParamsFromString(s string) map[string]struct{} {
	out := map[string]struct{}{}
	for _, m := range dollarParamPattern.FindAllStringSubmatch(s, -1) {
		p := m[1]
		if strings.HasPrefix(p, "YYYY") || p == "MM" || p == "DD" {
			continue
		}
		out[p] = struct{}{}
	}
	return out
}

func extractDollarParams(rules []*ast.Rule) map[string]struct{} {
	out := map[string]struct{}{}
	for _, r := range rules {
		for p := range ExtractDollarParamsFromString(r.FullText.Text()) {
			out[p] = struct{}{}
		}
	}
	return out
}

// Program is a whole parsed Logica program, ready to compile any of its
// predicates to SQL, grounded on universe.py's LogicaProgram.
type Program struct {
	rulesOf           map[string][]*ast.Rule
	definedPredicates map[string]struct{}

	tableAliases map[string]string

	annotations *Annotations
	functors    *functor.Functors

	customUDFs           map[string]string
	customUDFDefinitions map[string]string

	dialect *dialect.Dialect

	// exec holds the side effects (DEFINE/EXPORT statements, WITH-table
	// bookkeeping) of the compile currently in progress. It is replaced
	// wholesale by initializeExecution at the start of every top-level
	// FormattedPredicateSql/buildUdfs call, mirroring the original's
	// single mutable self.execution attribute.
	exec *executionState
}

// NewProgram parses annotations, expands @Make functors, resolves the
// program's SQL dialect, and builds every @CompileAsUdf definition,
// grounded on LogicaProgram.__init__.
func NewProgram(rules []*ast.Rule, tableAliases, userFlags map[string]string) (*Program, error) {
	annotations, err := NewAnnotations(rules, userFlags)
	if err != nil {
		return nil, err
	}

	dollarParams := extractDollarParams(rules)
	var undefined []string
	for name := range dollarParams {
		if _, ok := annotations.FlagValues()[name]; !ok {
			undefined = append(undefined, name)
		}
	}
	if len(undefined) > 0 {
		sort.Strings(undefined)
		return nil, errorf("", "parameters %s are undefined", strings.Join(undefined, ", "))
	}

	extended, functors, err := runMakes(rules)
	if err != nil {
		return nil, err
	}

	// @Make may have grown more rules (and more annotations on them):
	// recompute now that extended is final.
	annotations, err = NewAnnotations(extended, userFlags)
	if err != nil {
		return nil, err
	}

	p := &Program{
		rulesOf:              map[string][]*ast.Rule{},
		definedPredicates:    map[string]struct{}{},
		tableAliases:         tableAliases,
		annotations:          annotations,
		functors:             functors,
		customUDFs:           map[string]string{},
		customUDFDefinitions: map[string]string{},
	}
	for _, r := range extended {
		name := r.Head.Name
		p.rulesOf[name] = append(p.rulesOf[name], r)
		p.definedPredicates[name] = struct{}{}
	}

	engine, err := annotations.Engine()
	if err != nil {
		return nil, err
	}
	d, err := dialect.Get(engine)
	if err != nil {
		return nil, err
	}
	p.dialect = d

	if err := p.buildUdfs(); err != nil {
		return nil, err
	}
	return p, nil
}

// runMakes expands every @Make rule into the predicates it stamps out,
// grounded on LogicaProgram.RunMakes.
func runMakes(rules []*ast.Rule) ([]*ast.Rule, *functor.Functors, error) {
	f := functor.New(rules)
	var makeRules []*ast.Rule
	for _, r := range rules {
		if r.Head.Name == "@Make" {
			makeRules = append(makeRules, r)
		}
	}
	if len(makeRules) == 0 {
		return rules, f, nil
	}
	if err := f.MakeAll(makeRules); err != nil {
		return nil, nil, err
	}
	return f.Rules(), f, nil
}

// Engine returns the dialect name this program resolved from its
// @Engine annotation (or "bigquery" if the program names none), so a
// caller driving execution knows which pkg/runner backend to open.
func (p *Program) Engine() (string, error) {
	return p.annotations.Engine()
}

// newNamesAllocator builds a fresh NamesAllocator aware of this
// program's custom UDFs and dialect, grounded on
// LogicaProgram.NewNamesAllocator.
func (p *Program) newNamesAllocator() *structure.NamesAllocator {
	names := make(map[string]struct{}, len(p.customUDFs))
	for name := range p.customUDFs {
		names[name] = struct{}{}
	}
	alloc := structure.NewNamesAllocator(names)
	d := p.dialect
	alloc.IsBuiltinFunction = func(name string) bool {
		return translate.IsBuiltInFunction(d, name)
	}
	return alloc
}

// buildUdfs compiles every @CompileAsUdf predicate into a CREATE TEMP
// FUNCTION statement, populating customUDFs/customUDFDefinitions,
// grounded on LogicaProgram.BuildUdfs. It compiles twice: UDFs may call
// each other, so the first pass seeds every name with a DUMMY()
// placeholder application before any of them is compiled for real.
func (p *Program) buildUdfs() error {
	if err := p.initializeExecution("@FunctionsCheck"); err != nil {
		return err
	}
	p.exec.compilingUDF = true

	names := p.annotations.CompileAsUdfPredicates()
	for _, name := range names {
		p.customUDFs[name] = "DUMMY()"
	}
	for pass := 0; pass < 2; pass++ {
		for _, name := range names {
			application, sql, err := p.functionSql(name, nil, true)
			if err != nil {
				return err
			}
			p.customUDFs[name] = application
			p.customUDFDefinitions[name] = sql
		}
	}
	return nil
}

// predicateSql compiles every rule defining name into one SQL
// expression, unioning them when there is more than one, grounded on
// LogicaProgram.PredicateSql.
func (p *Program) predicateSql(name string, allocator *structure.NamesAllocator, externalVocabulary map[string]string) (string, error) {
	rules := p.rulesOf[name]
	switch len(rules) {
	case 0:
		return "", errorf(`        ¯\_(ツ)_/¯`, "no rules are defining %s, but compilation was requested", name)
	case 1:
		sql, err := p.singleRuleSql(rules[0], allocator, externalVocabulary)
		if err != nil {
			return "", err
		}
		orderBy, err := p.annotations.OrderByClause(name)
		if err != nil {
			return "", err
		}
		limit, err := p.annotations.LimitClause(name)
		if err != nil {
			return "", err
		}
		return sql + orderBy + limit, nil
	default:
		var parts []string
		for _, rule := range rules {
			if rule.DistinctDenoted {
				return "", errorf(rule.FullText.Text(),
					"for distinct denoted predicates multiple rules are not currently supported; "+
						"consider taking a union of bodies manually, if that was what you intended")
			}
			sql, err := p.singleRuleSql(rule, allocator, externalVocabulary)
			if err != nil {
				return "", err
			}
			parts = append(parts, indent2(sql))
		}
		orderBy, err := p.annotations.OrderByClause(name)
		if err != nil {
			return "", err
		}
		limit, err := p.annotations.LimitClause(name)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("SELECT * FROM (\n%s\n) AS UNUSED_TABLE_NAME%s%s",
			strings.Join(parts, " UNION ALL\n"), orderBy, limit), nil
	}
}

// singleRuleSql compiles one rule to a SQL SELECT statement: structure
// extraction, internal-variable elimination, predicate injection,
// final elimination, and rendering, grounded on
// LogicaProgram.SingleRuleSql.
func (p *Program) singleRuleSql(rule *ast.Rule, allocator *structure.NamesAllocator, externalVocabulary map[string]string) (string, error) {
	if allocator == nil {
		allocator = p.newNamesAllocator()
	}
	s, err := structure.ExtractRuleStructure(rule, allocator, externalVocabulary)
	if err != nil {
		return "", err
	}
	if err := s.ElliminateInternalVariables(false); err != nil {
		return "", err
	}
	if err := p.runInjections(s, allocator); err != nil {
		return "", err
	}
	if err := s.ElliminateInternalVariables(true); err != nil {
		return "", err
	}
	s.UnificationsToConstraints()
	return s.AsSql(p.makeSubqueryTranslator(allocator), p.dialect, p.customUDFs, p.annotations.FlagValues())
}

// runInjections supplies RuleStructure.RunInjections with the policy
// half of predicate inlining: a predicate inlines when it has exactly
// one non-distinct-denoted rule and its annotations don't pin its own
// compiled shape down (Annotations.OkInjection), grounded on the
// lookup inline in LogicaProgram.RunInjections.
func (p *Program) runInjections(s *structure.RuleStructure, allocator *structure.NamesAllocator) error {
	lookup := func(predicate string) (*structure.RuleStructure, bool, error) {
		rules := p.rulesOf[predicate]
		if len(rules) != 1 || rules[0].DistinctDenoted {
			return nil, false, nil
		}
		ok, err := p.annotations.OkInjection(predicate)
		if err != nil {
			return nil, false, err
		}
		if !ok {
			return nil, false, nil
		}
		rs, err := structure.ExtractRuleStructure(rules[0], allocator, nil)
		if err != nil {
			return nil, false, err
		}
		return rs, true, nil
	}
	return s.RunInjections(lookup)
}

// functionSql compiles name's single rule into a CREATE TEMP FUNCTION
// statement, asserting the rule is isomorphic to a pure function: a
// "logica_value" field holding the return expression, every other
// field a bare argument variable (positional, like plain "x", or named
// but not renamed, like "x: x"), and no tables, unnestings, or
// constraints left after compilation. In internalMode it also returns
// the application template ("name({arg}, ...)") used to render calls
// to this UDF elsewhere, grounded on LogicaProgram.FunctionSql.
func (p *Program) functionSql(name string, allocator *structure.NamesAllocator, internalMode bool) (application, sql string, err error) {
	if allocator == nil {
		allocator = p.newNamesAllocator()
	}
	rules := p.rulesOf[name]
	if len(rules) == 0 {
		return "", "", errorf(`        ¯\_(ツ)_/¯`, "no rules are defining %s, but compilation was requested", name)
	}
	if len(rules) > 1 {
		var texts []string
		for _, r := range rules {
			texts = append(texts, r.FullText.Text())
		}
		return "", "", errorf(strings.Join(texts, "\n\n"),
			"predicate %s is defined by more than 1 rule and can not be compiled into a function", name)
	}
	rule := rules[0]

	s, err := structure.ExtractRuleStructure(rule, allocator, nil)
	if err != nil {
		return "", "", err
	}

	// udfVariables are the placeholder keys a call site fills in
	// (LogicaFieldToSqlField's "colN" for an argument the caller never
	// named, the variable's own name otherwise); variables are the
	// CREATE TEMP FUNCTION parameter names, which must be plain variable
	// names regardless of how the defining rule wrote the argument,
	// grounded on LogicaProgram.TurnPositionalIntoNamed.
	var variables []string
	var udfVariables []string
	var valueExpr ast.Expr
	haveValue := false
	vocabulary := map[string]string{}
	for _, f := range s.Select {
		if !f.Field.Positional && f.Field.Name == ast.LogicaValueField {
			valueExpr = f.Expr
			haveValue = true
			continue
		}
		if f.Field.Positional {
			udfVariables = append(udfVariables, fmt.Sprintf("col%d", f.Field.Index))
		} else {
			udfVariables = append(udfVariables, f.Field.Name)
		}
		v, ok := f.Expr.(*ast.Variable)
		if !ok {
			return "", "", errorf(rule.FullText.Text(),
				"predicate %s must have all arguments named for compilation as a function", name)
		}
		if !f.Field.Positional && f.Field.Name != v.Name {
			return "", "", errorf(rule.FullText.Text(),
				"predicate %s must not rename arguments for compilation as a function", name)
		}
		variables = append(variables, v.Name)
		vocabulary[v.Name] = v.Name
	}
	if !haveValue {
		return "", "", errorf(rule.FullText.Text(),
			"predicate %s does not have a value, but compilation as function was requested", name)
	}

	s.ExternalVocabulary = vocabulary
	if err := p.runInjections(s, allocator); err != nil {
		return "", "", err
	}
	if err := s.ElliminateInternalVariables(true); err != nil {
		return "", "", err
	}
	s.UnificationsToConstraints()

	rendered, err := s.AsSql(p.makeSubqueryTranslator(allocator), p.dialect, p.customUDFs, p.annotations.FlagValues())
	if err != nil {
		return "", "", err
	}
	if len(s.Constraints) > 0 || len(s.Unnestings) > 0 || len(s.Tables) > 0 {
		return "", "", errorf(rule.FullText.Text(),
			"predicate %s is not a simple function, but compilation as function was requested. Full SQL:\n%s",
			name, rendered)
	}

	tr := translate.New(vocabulary, p.makeSubqueryTranslator(allocator), p.dialect, p.customUDFs, p.annotations.FlagValues())
	valueSql, err := tr.Convert(valueExpr)
	if err != nil {
		return "", "", err
	}

	var sig []string
	for _, v := range variables {
		sig = append(sig, v+" ANY TYPE")
	}
	sql = formatSql(fmt.Sprintf("CREATE TEMP FUNCTION %s(%s) AS (%s)", name, strings.Join(sig, ", "), valueSql))

	if internalMode {
		var appArgs []string
		for _, v := range udfVariables {
			appArgs = append(appArgs, "{"+v+"}")
		}
		application = fmt.Sprintf("%s(%s)", name, strings.Join(appArgs, ", "))
	}
	return application, sql, nil
}

// initializeExecution resets the side-effect bookkeeping for a fresh
// top-level compile, grounded on LogicaProgram.InitializeExecution.
func (p *Program) initializeExecution(mainPredicate string) error {
	preamble, err := p.annotations.Preamble()
	if err != nil {
		return err
	}
	e := newExecutionState()
	e.push(mainPredicate)
	e.preamble = preamble
	p.exec = e
	return nil
}

// CompileResult is everything FormattedPredicateSql produces for one
// top-level predicate: its SQL, plus the accumulated DEFINE/EXPORT
// statements its @Ground'ed dependencies need, grounded on the fields
// of universe.py's Logica class that FormattedPredicateSql populates.
type CompileResult struct {
	SQL               string
	Defines           []string
	ExportStatements  []string
	DefinesAndExports []string
	TableToExportMap  map[string]string
	DependencyEdges   [][2]string
}

// FormattedPredicateSql is the top-level entry point: it compiles name
// (as a UDF or as an ordinary predicate, per its annotations), wraps
// the result in its WITH clauses, preamble, UDF definitions, and TVF
// signature, and resolves every ${flag} placeholder to a fixed point,
// grounded on LogicaProgram.FormattedPredicateSql.
func (p *Program) FormattedPredicateSql(name string) (*CompileResult, error) {
	if err := p.initializeExecution(name); err != nil {
		return nil, err
	}

	isUdf, err := p.annotations.CompileAsUdf(name)
	if err != nil {
		return nil, err
	}

	var sql string
	if isUdf {
		p.exec.compilingUDF = true
		_, sql, err = p.functionSql(name, nil, false)
	} else {
		sql, err = p.predicateSql(name, nil, nil)
	}
	if err != nil {
		return nil, err
	}

	if len(p.exec.workflowStack) != 1 || p.exec.workflowStack[0] != name {
		return nil, errorf("", "internal error: unexpected workflow stack %v", p.exec.workflowStack)
	}

	withSignature, err := p.generateWithClauses(name)
	if err != nil {
		return nil, err
	}
	if withSignature != "" {
		sql = withSignature + "\n" + sql
	}
	p.exec.tableToExportMap[name] = sql

	defines := p.exec.preamble
	usedPredicates := p.functors.ArgsOf(name)
	if udfDefs := p.exec.neededUdfDefinitions(usedPredicates, p.customUDFDefinitions); len(udfDefs) > 0 {
		defines += strings.Join(udfDefs, "\n\n") + "\n\n"
	}
	if len(p.exec.definesAndExports) > 0 {
		defines += strings.Join(p.exec.definesAndExports, "\n\n") + "\n\n"
	}

	sql, err = p.useFlagsAsParameters(sql)
	if err != nil {
		return nil, err
	}

	tvfSignature, err := p.annotations.TvfSignature(name)
	if err != nil {
		return nil, err
	}
	if tvfSignature != "" {
		sql = tvfSignature + "\n" + sql
	}

	formattedSql := p.exec.flagsComment + defines + formatSql(sql)

	for k, v := range p.exec.tableToExportMap {
		p.exec.tableToExportMap[k], err = p.useFlagsAsParameters(v)
		if err != nil {
			return nil, err
		}
	}
	for i, d := range p.exec.defines {
		p.exec.defines[i], err = p.useFlagsAsParameters(d)
		if err != nil {
			return nil, err
		}
	}
	p.exec.flagsComment, err = p.useFlagsAsParameters(p.exec.flagsComment)
	if err != nil {
		return nil, err
	}
	formattedSql, err = p.useFlagsAsParameters(formattedSql)
	if err != nil {
		return nil, err
	}

	return &CompileResult{
		SQL:               formattedSql,
		Defines:           p.exec.defines,
		ExportStatements:  p.exec.exportStatements,
		DefinesAndExports: p.exec.definesAndExports,
		TableToExportMap:  p.exec.tableToExportMap,
		DependencyEdges:   p.exec.dependencyEdges,
	}, nil
}

// useFlagsAsParameters substitutes every ${flag} placeholder to a
// fixed point, so a flag value that itself contains another flag's
// placeholder still resolves, grounded on
// LogicaProgram.UseFlagsAsParameters.
func (p *Program) useFlagsAsParameters(sql string) (string, error) {
	prev := ""
	subs := 0
	for sql != prev {
		subs++
		prev = sql
		if subs > maxFlagSubstitutions {
			return "", errorf("", "you seem to have recursive flags. It is disallowed")
		}
		for flag, value := range p.annotations.FlagValues() {
			sql = strings.ReplaceAll(sql, "${"+flag+"}", value)
		}
	}
	return sql, nil
}

// generateWithClauses renders the "WITH t AS (...), ..." prefix for
// predicate's @With'ed dependencies, in the order they were first
// referenced, grounded on LogicaProgram.GenerateWithClauses.
func (p *Program) generateWithClauses(predicate string) (string, error) {
	deps := p.exec.tableToWithDeps[predicate]
	if len(deps) == 0 {
		return "", nil
	}
	var bodies []string
	for _, dep := range deps {
		tableName := p.exec.tableToDefinedTable[dep]
		bodies = append(bodies, fmt.Sprintf("%s AS (%s)", tableName, p.exec.tableToWithSql[tableName]))
	}
	return "WITH " + strings.Join(bodies, ",\n"), nil
}
