package structure

import (
	"fmt"
	"sort"
	"strings"

	"github.com/logica-lang/logica/internal/ast"
)

// comparisonPredicates are conjuncts that compile to a WHERE predicate
// rather than a joined table, grounded on ExtractPredicateStructure.
var comparisonPredicates = map[string]struct{}{
	"<": {}, "<=": {}, ">": {}, ">=": {}, "!=": {}, "&&": {}, "||": {},
	"!": {}, "IsNull": {}, "Like": {}, "Constraint": {},
}

// HeadToSelect converts a rule's head into an ordered select list,
// reporting which field names were aggregations, grounded on
// HeadToSelect. It must run after desugar.AggregationsAsExpressions, so
// an aggregated field's Agg.Arg already holds the Agg<Op>(...) call.
func HeadToSelect(head *ast.PredicateCall) ([]SelectField, []string, error) {
	var sel []SelectField
	var aggregated []string
	if head.Args == nil {
		return sel, aggregated, nil
	}
	for _, fv := range head.Args.Fields {
		if fv.Agg != nil {
			sel = append(sel, SelectField{Field: fv.Field, Expr: fv.Agg.Arg})
			aggregated = append(aggregated, fv.Field.String())
			continue
		}
		if fv.Expr == nil {
			return nil, nil, errorf("bad select value for field %s", fv.Field.String())
		}
		sel = append(sel, SelectField{Field: fv.Field, Expr: fv.Expr})
	}
	return sel, aggregated, nil
}

// ExtractPredicateStructure updates s with one predicate-call conjunct:
// a comparison/logical builtin becomes a constraint, anything else
// allocates a fresh table alias and a unification per argument field,
// grounded on ExtractPredicateStructure. A record's `..rest` marker is
// not expanded here (see DESIGN.md): the predicate's own remaining
// fields aren't visible at this stage without a program-wide schema
// lookup. A call using `..rest` binds its explicitly named fields, and
// its rest variable (field "*") is bound to the whole row, i.e. the
// table alias, not to the remaining fields alone.
func ExtractPredicateStructure(call *ast.PredicateCall, s *RuleStructure) {
	if _, isComparison := comparisonPredicates[call.Name]; isComparison {
		s.Constraints = append(s.Constraints, call)
		return
	}

	tableName := s.Allocator.AllocateTable(call.Name)
	s.addTable(tableName, call.Name)
	if call.Args == nil {
		return
	}
	for _, fv := range call.Args.Fields {
		tableVar := LogicaFieldToSqlField(fv.Field.Index, fv.Field.Positional, fv.Field.Name)
		varName := s.Allocator.AllocateVar(fmt.Sprintf("%s_%s", tableName, tableVar))
		s.bindVar(tableName, tableVar, varName)
		var expr ast.Expr
		if fv.Agg != nil {
			expr = fv.Agg.Arg
		} else {
			expr = fv.Expr
		}
		s.VarsUnification = append(s.VarsUnification, Unification{
			Left:  &ast.Variable{Name: varName},
			Right: expr,
		})
	}
}

// ExtractInclusionStructure updates s with an `element in list` conjunct:
// a `Container(...)` list becomes an IN constraint, anything else
// becomes an UNNEST plus a ValueOfUnnested unification, grounded on
// ExtractInclusionStructure.
func ExtractInclusionStructure(inclusion *ast.InclusionConjunct, s *RuleStructure) {
	if call, ok := inclusion.List.(*ast.Call); ok && call.Predicate == "Container" {
		s.Constraints = append(s.Constraints, binaryCall("In", inclusion.Element, inclusion.List))
		return
	}
	varName := s.Allocator.AllocateVar("unnest")
	s.bindVar("", varName, varName)
	s.Unnestings = append(s.Unnestings, Unnesting{
		Element: &ast.Variable{Name: varName},
		List:    inclusion.List,
	})
	s.VarsUnification = append(s.VarsUnification, Unification{
		Left: inclusion.Element,
		Right: &ast.Call{
			Predicate: "ValueOfUnnested",
			Args: &ast.Record{Fields: []ast.FieldValue{{
				Field: ast.PositionalField(0),
				Expr:  &ast.Variable{Name: varName},
			}}},
		},
	})
}

// ExtractConjunctiveStructure updates s with every conjunct of a rule's
// body, grounded on ExtractConjunctiveStructure. Conjuncts are expected
// to already be in the post-desugar shape (no disjunctions).
func ExtractConjunctiveStructure(conjuncts []ast.Conjunct, s *RuleStructure) error {
	for _, c := range conjuncts {
		switch v := c.(type) {
		case *ast.PredicateConjunct:
			ExtractPredicateStructure(v.Call, s)
		case *ast.UnificationConjunct:
			if isVariableExpr(v.LHS) || isVariableExpr(v.RHS) {
				s.VarsUnification = append(s.VarsUnification, Unification{Left: v.LHS, Right: v.RHS})
			} else if !exprDeepEqual(v.LHS, v.RHS) {
				s.Constraints = append(s.Constraints, binaryCall("==", v.LHS, v.RHS))
			}
		case *ast.InclusionConjunct:
			ExtractInclusionStructure(v, s)
		default:
			return errorf("unsupported conjunct: %T", c)
		}
	}
	return nil
}

func isVariableExpr(e ast.Expr) bool {
	_, ok := e.(*ast.Variable)
	return ok
}

// inlineValuesInExpr replaces a value-position predicate call (one whose
// name is not a known function) with a fresh variable, appending a
// PredicateConjunct that computes it into extra, grounded on
// InlinePredicateValuesRecursively. It never descends into a Combine's
// own sub-rule, matching the original's 'combine' taboo.
func inlineValuesInExpr(e ast.Expr, allocator *NamesAllocator, extra *[]ast.Conjunct) ast.Expr {
	if e == nil {
		return nil
	}
	switch v := e.(type) {
	case *ast.ListLiteral:
		for i, el := range v.Elements {
			v.Elements[i] = inlineValuesInExpr(el, allocator, extra)
		}
		return v
	case *ast.Subscript:
		v.Record = inlineValuesInExpr(v.Record, allocator, extra)
		return v
	case *ast.RecordExpr:
		inlineValuesInRecord(v.Record, allocator, extra)
		return v
	case *ast.Combine:
		return v
	case *ast.Implication:
		for i := range v.Branches {
			v.Branches[i].Cond = inlineValuesInExpr(v.Branches[i].Cond, allocator, extra)
			v.Branches[i].Then = inlineValuesInExpr(v.Branches[i].Then, allocator, extra)
		}
		if v.Else != nil {
			v.Else = inlineValuesInExpr(v.Else, allocator, extra)
		}
		return v
	case *ast.Call:
		inlineValuesInRecord(v.Args, allocator, extra)
		if allocator.FunctionExists(v.Predicate) {
			return v
		}
		auxVar := allocator.AllocateVar("inline")
		fields := append([]ast.FieldValue{}, v.Args.Fields...)
		fields = append(fields, ast.FieldValue{
			Field: ast.NamedField(ast.LogicaValueField),
			Expr:  &ast.Variable{Name: auxVar},
		})
		newCall := &ast.PredicateCall{Name: v.Predicate, Args: &ast.Record{Fields: fields, HasRest: v.Args.HasRest}}
		*extra = append(*extra, &ast.PredicateConjunct{Call: newCall})
		return &ast.Variable{Name: auxVar}
	default:
		return v
	}
}

func inlineValuesInRecord(r *ast.Record, allocator *NamesAllocator, extra *[]ast.Conjunct) {
	if r == nil {
		return
	}
	for i := range r.Fields {
		fv := &r.Fields[i]
		if fv.Expr != nil {
			fv.Expr = inlineValuesInExpr(fv.Expr, allocator, extra)
		}
		if fv.Agg != nil && fv.Agg.Arg != nil {
			fv.Agg.Arg = inlineValuesInExpr(fv.Agg.Arg, allocator, extra)
		}
	}
}

func inlineValuesInConjunction(c *ast.Conjunction, allocator *NamesAllocator, extra *[]ast.Conjunct) {
	for _, conj := range c.Conjuncts {
		inlineValuesInConjunct(conj, allocator, extra)
	}
}

func inlineValuesInConjunct(c ast.Conjunct, allocator *NamesAllocator, extra *[]ast.Conjunct) {
	switch v := c.(type) {
	case *ast.PredicateConjunct:
		inlineValuesInRecord(v.Call.Args, allocator, extra)
	case *ast.UnificationConjunct:
		v.LHS = inlineValuesInExpr(v.LHS, allocator, extra)
		v.RHS = inlineValuesInExpr(v.RHS, allocator, extra)
	case *ast.InclusionConjunct:
		v.Element = inlineValuesInExpr(v.Element, allocator, extra)
		v.List = inlineValuesInExpr(v.List, allocator, extra)
	case *ast.DisjunctionConjunct:
		for i := range v.Disjuncts {
			inlineValuesInConjunction(&v.Disjuncts[i], allocator, extra)
		}
	case *ast.Conjunction:
		inlineValuesInConjunction(v, allocator, extra)
	}
}

// InlinePredicateValues mutates rule in place so every value-position
// predicate call becomes a body conjunct plus a fresh variable,
// grounded on InlinePredicateValues.
func InlinePredicateValues(rule *ast.Rule, allocator *NamesAllocator) {
	var extra []ast.Conjunct
	if rule.Head != nil {
		inlineValuesInRecord(rule.Head.Args, allocator, &extra)
	}
	if rule.Body != nil {
		inlineValuesInConjunction(rule.Body, allocator, &extra)
	}
	if len(extra) == 0 {
		return
	}
	if rule.Body == nil {
		rule.Body = &ast.Conjunction{}
	}
	rule.Body.Conjuncts = append(rule.Body.Conjuncts, extra...)
}

// combineTree mirrors GetTreeOfCombines' node: the variables directly
// mentioned at this rule's own level (not diving into a nested
// combine), plus one subtree per combine found anywhere within it.
type combineTree struct {
	rule      *ast.Rule
	variables map[string]struct{}
	subtrees  []*combineTree
}

func buildCombineTree(r *ast.Rule) *combineTree {
	t := &combineTree{rule: r, variables: map[string]struct{}{}}
	if r.Head != nil {
		scanForCombinesRecord(r.Head.Args, t)
	}
	if r.Body != nil {
		scanForCombinesConjunction(r.Body, t)
	}
	return t
}

func scanForCombines(e ast.Expr, t *combineTree) {
	if e == nil {
		return
	}
	switch v := e.(type) {
	case *ast.Variable:
		t.variables[v.Name] = struct{}{}
	case *ast.ListLiteral:
		for _, el := range v.Elements {
			scanForCombines(el, t)
		}
	case *ast.Call:
		scanForCombinesRecord(v.Args, t)
	case *ast.Subscript:
		scanForCombines(v.Record, t)
	case *ast.RecordExpr:
		scanForCombinesRecord(v.Record, t)
	case *ast.Combine:
		if v.Rule != nil {
			t.subtrees = append(t.subtrees, buildCombineTree(v.Rule))
		}
	case *ast.Implication:
		for _, b := range v.Branches {
			scanForCombines(b.Cond, t)
			scanForCombines(b.Then, t)
		}
		scanForCombines(v.Else, t)
	}
}

func scanForCombinesRecord(r *ast.Record, t *combineTree) {
	if r == nil {
		return
	}
	for _, fv := range r.Fields {
		if fv.Expr != nil {
			scanForCombines(fv.Expr, t)
		}
		if fv.Agg != nil && fv.Agg.Arg != nil {
			scanForCombines(fv.Agg.Arg, t)
		}
	}
}

func scanForCombinesConjunction(c *ast.Conjunction, t *combineTree) {
	for _, conj := range c.Conjuncts {
		scanForCombinesConjunct(conj, t)
	}
}

func scanForCombinesConjunct(c ast.Conjunct, t *combineTree) {
	switch v := c.(type) {
	case *ast.PredicateConjunct:
		scanForCombinesRecord(v.Call.Args, t)
	case *ast.UnificationConjunct:
		scanForCombines(v.LHS, t)
		scanForCombines(v.RHS, t)
	case *ast.InclusionConjunct:
		scanForCombines(v.Element, t)
		scanForCombines(v.List, t)
	case *ast.DisjunctionConjunct:
		for i := range v.Disjuncts {
			scanForCombinesConjunction(&v.Disjuncts[i], t)
		}
	case *ast.Conjunction:
		scanForCombinesConjunction(v, t)
	}
}

func unionSets(a, b map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{}, len(a)+len(b))
	for k := range a {
		out[k] = struct{}{}
	}
	for k := range b {
		out[k] = struct{}{}
	}
	return out
}

// DisambiguateCombineVariables renames every variable first introduced
// inside a combine sub-expression to `<name> # disambiguated with
// <fresh>`, so that substituting it during variable elimination can
// never collide with a same-named variable from an unrelated combine or
// the enclosing rule, grounded on DisambiguateCombineVariables.
func DisambiguateCombineVariables(rule *ast.Rule, allocator *NamesAllocator) {
	tree := buildCombineTree(rule)
	for _, sub := range tree.subtrees {
		disambiguateSubtree(sub, tree.variables, allocator)
	}
}

func disambiguateSubtree(t *combineTree, outer map[string]struct{}, allocator *NamesAllocator) {
	introduced := map[string]struct{}{}
	for v := range t.variables {
		if _, ok := outer[v]; !ok {
			introduced[v] = struct{}{}
		}
	}
	all := unionSets(t.variables, outer)
	for v := range introduced {
		if strings.Contains(v, " # disambiguated with") {
			continue
		}
		newName := fmt.Sprintf("%s # disambiguated with %s", v, allocator.AllocateVar("combine_dis"))
		replaceVariableInRule(t.rule, v, &ast.Variable{Name: newName})
	}
	for _, s := range t.subtrees {
		disambiguateSubtree(s, all, allocator)
	}
}

// ExtractRuleStructure builds a RuleStructure from a single rule,
// grounded on ExtractRuleStructure: it clones the rule so later passes
// never mutate the caller's AST, disambiguates combine variables
// (unless this rule is itself a combine's own body, whose variables
// were already disambiguated by its parent), inlines value-position
// predicate calls, extracts the head as a select list, seeds one
// unification per select variable (so injected predicates can't
// collide with the caller's own variable names), then walks the body.
func ExtractRuleStructure(rule *ast.Rule, allocator *NamesAllocator, externalVocabulary map[string]string) (*RuleStructure, error) {
	clone := ast.CloneRule(rule)
	if clone.Head.Name != "Combine" {
		DisambiguateCombineVariables(clone, allocator)
	}
	s := NewRuleStructure(allocator, externalVocabulary)
	InlinePredicateValues(clone, allocator)
	s.FullRuleText = clone.FullText
	s.ThisPredicateName = clone.Head.Name

	sel, aggregated, err := HeadToSelect(clone.Head)
	if err != nil {
		return nil, err
	}
	s.Select = sel
	for _, f := range s.Select {
		if _, ok := f.Expr.(*ast.Variable); ok {
			hint := fmt.Sprintf("extract_%s_%s", s.ThisPredicateName, f.Field.String())
			s.VarsUnification = append(s.VarsUnification, Unification{
				Left:  f.Expr,
				Right: &ast.Variable{Name: allocator.AllocateVar(hint)},
			})
		}
	}

	if clone.Body != nil {
		if err := ExtractConjunctiveStructure(clone.Body.Conjuncts, s); err != nil {
			return nil, err
		}
	}

	s.DistinctDenoted = clone.DistinctDenoted
	if len(aggregated) > 0 && !s.DistinctDenoted {
		return nil, errorf("aggregating predicate must be distinct denoted")
	}
	if s.DistinctDenoted {
		aggSet := make(map[string]struct{}, len(aggregated))
		for _, a := range aggregated {
			aggSet[a] = struct{}{}
		}
		distinct := map[string]struct{}{}
		for _, f := range s.Select {
			name := f.Field.String()
			if _, ok := aggSet[name]; !ok {
				distinct[name] = struct{}{}
			}
		}
		names := make([]string, 0, len(distinct))
		for n := range distinct {
			names = append(names, n)
		}
		sort.Strings(names)
		s.DistinctVars = names
	}
	return s, nil
}
