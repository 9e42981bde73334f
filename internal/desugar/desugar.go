package desugar

import "github.com/logica-lang/logica/internal/ast"

// Rewrite runs the three desugaring passes in the order the original
// pipeline runs them (§4.3): disjunctive-normal-form expansion,
// multi-body-aggregation synthesis, then converting the remaining
// concise aggregations into plain call expressions.
func Rewrite(rules []*ast.Rule) ([]*ast.Rule, error) {
	rules = DisjunctiveNormalForm(rules)
	rules, err := MultiBodyAggregation(rules)
	if err != nil {
		return nil, err
	}
	rules = AggregationsAsExpressions(rules)
	return rules, nil
}
