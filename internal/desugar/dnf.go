// Package desugar implements the rewrite passes §4.3 calls for
// between parsing and rule structuring: disjunctive-normal-form expansion,
// multi-body-aggregation synthesis, and turning concise aggregations into
// plain call expressions.
package desugar

import (
	"github.com/logica-lang/logica/internal/ast"
)

// dnf is a disjunctive normal form: a list of conjunct-lists, each of
// which is one disjunct.
type dnf [][]ast.Conjunct

func conjunctionOfDNFs(ds []dnf) dnf {
	if len(ds) == 1 {
		return ds[0]
	}
	first, rest := ds[0], conjunctionOfDNFs(ds[1:])
	var result dnf
	for _, a := range first {
		for _, b := range rest {
			combined := make([]ast.Conjunct, 0, len(a)+len(b))
			combined = append(combined, a...)
			combined = append(combined, b...)
			result = append(result, combined)
		}
	}
	return result
}

func conjunctsToDNF(conjuncts []ast.Conjunct) dnf {
	ds := make([]dnf, len(conjuncts))
	for i, c := range conjuncts {
		ds[i] = propositionToDNF(c)
	}
	return conjunctionOfDNFs(ds)
}

func disjunctsToDNF(disjuncts []ast.Conjunction) dnf {
	var result dnf
	for _, d := range disjuncts {
		result = append(result, conjunctsToDNF(d.Conjuncts)...)
	}
	return result
}

func propositionToDNF(c ast.Conjunct) dnf {
	switch v := c.(type) {
	case *ast.Conjunction:
		return conjunctsToDNF(v.Conjuncts)
	case *ast.DisjunctionConjunct:
		return disjunctsToDNF(v.Disjuncts)
	default:
		return dnf{{c}}
	}
}

// RuleToRules eliminates disjunction in a rule's body via DNF rewrite,
// returning one rule per disjunct (§4.3.1). Each returned rule is a deep
// clone of rule, not just of its Body's conjunct slice: disjuncts can
// share a sibling conjunct verbatim (conjunctionOfDNFs appends the same
// conjunct pointers into every combined disjunct), and that conjunct may
// embed a Combine sub-rule. Without a deep clone, a later pass rewriting
// one disjunct's Combine in place (AggregationsAsExpressions, say) would
// mutate every sibling disjunct's copy of the same shared node, mirroring
// parser_py/parse.py's RuleToRules doing copy.deepcopy(rule) per disjunct.
func RuleToRules(rule *ast.Rule) []*ast.Rule {
	if rule.Body == nil {
		return []*ast.Rule{rule}
	}
	d := conjunctsToDNF(rule.Body.Conjuncts)
	result := make([]*ast.Rule, 0, len(d))
	for _, conjuncts := range d {
		clone := ast.CloneRule(rule)
		body := make([]ast.Conjunct, len(conjuncts))
		for i, c := range conjuncts {
			body[i] = ast.CloneConjunct(c)
		}
		clone.Body.Conjuncts = body
		result = append(result, clone)
	}
	return result
}

// DisjunctiveNormalForm rewrites every rule in rules, replacing
// disjunctions in rule bodies with one rule per disjunct.
func DisjunctiveNormalForm(rules []*ast.Rule) []*ast.Rule {
	var result []*ast.Rule
	for _, r := range rules {
		result = append(result, RuleToRules(r)...)
	}
	return result
}
