package desugar

import (
	"fmt"
	"reflect"

	"github.com/logica-lang/logica/internal/ast"
)

// multiBodyAuxSuffix is appended to the auxiliary predicate name
// synthesized for each multi-body-aggregating predicate (§4.3.2).
const multiBodyAuxSuffix = "_MultBodyAggAux"

func definedPredicatesRules(rules []*ast.Rule) map[string][]*ast.Rule {
	result := map[string][]*ast.Rule{}
	for _, r := range rules {
		result[r.Head.Name] = append(result[r.Head.Name], r)
	}
	return result
}

// splitAggregation rewrites one rule of a multi-body-aggregating predicate
// into its "Aux" body rule, returning that rule plus the field-value list
// the final aggregating rule's head should carry for this predicate.
func splitAggregation(rule *ast.Rule) (*ast.Rule, []ast.FieldValue, error) {
	if !rule.DistinctDenoted {
		return nil, nil, fmt.Errorf(
			"inconsistency in distinct denoting for predicate %q", rule.Head.Name)
	}
	clone := *rule
	head := *rule.Head
	clone.Head = &head
	head.Name = rule.Head.Name + multiBodyAuxSuffix

	var transformed, aggregation []ast.FieldValue
	for _, fv := range rule.Head.Args.Fields {
		if fv.Agg != nil {
			aggregation = append(aggregation, ast.FieldValue{
				Field: fv.Field,
				Agg:   &ast.Aggregation{Op: fv.Agg.Op, Arg: &ast.Variable{Name: fv.Field.String()}},
			})
			transformed = append(transformed, ast.FieldValue{
				Field: fv.Field,
				Expr:  fv.Agg.Arg,
			})
		} else {
			aggregation = append(aggregation, ast.FieldValue{
				Field: fv.Field,
				Expr:  &ast.Variable{Name: fv.Field.String()},
			})
			transformed = append(transformed, fv)
		}
	}
	head.Args = &ast.Record{Fields: transformed}
	clone.DistinctDenoted = false
	return &clone, aggregation, nil
}

// MultiBodyAggregation rewrites predicates with multiple aggregating
// bodies into one auxiliary predicate with one rule per body plus a single aggregating
// rule over the auxiliary, so downstream passes only ever see one body
// per aggregating predicate (§4.3.2).
func MultiBodyAggregation(rules []*ast.Rule) ([]*ast.Rule, error) {
	byName := definedPredicatesRules(rules)
	multiBody := map[string]bool{}
	for name, rs := range byName {
		if len(rs) > 1 && rs[0].DistinctDenoted {
			multiBody[name] = true
		}
	}
	if len(multiBody) == 0 {
		return rules, nil
	}

	aggFieldValues := map[string][]ast.FieldValue{}
	fullText := map[string]ast.Rule{}
	var newRules []*ast.Rule
	for _, rule := range rules {
		name := rule.Head.Name
		fullText[name] = *rule
		if !multiBody[name] {
			newRules = append(newRules, rule)
			continue
		}
		aux, agg, err := splitAggregation(rule)
		if err != nil {
			return nil, err
		}
		if existing, ok := aggFieldValues[name]; ok {
			if !reflect.DeepEqual(aggSignature(existing), aggSignature(agg)) {
				return nil, fmt.Errorf(
					"multi-body aggregation requires identical head signatures: "+
						"body %q disagrees with an earlier body of %q", rule.FullText.Text(), name)
			}
		} else {
			aggFieldValues[name] = agg
		}
		newRules = append(newRules, aux)
	}

	for name := range multiBody {
		agg := aggFieldValues[name]
		passFields := make([]ast.FieldValue, len(agg))
		for i, fv := range agg {
			passFields[i] = ast.FieldValue{Field: fv.Field, Expr: &ast.Variable{Name: fv.Field.String()}}
		}
		original := fullText[name]
		aggregatingRule := &ast.Rule{
			Head: &ast.PredicateCall{
				Name: name,
				Args: &ast.Record{Fields: agg},
			},
			Body: &ast.Conjunction{Conjuncts: []ast.Conjunct{&ast.PredicateConjunct{
				Call: &ast.PredicateCall{
					Name: name + multiBodyAuxSuffix,
					Args: &ast.Record{Fields: passFields},
				},
			}}},
			DistinctDenoted: true,
			FullText:        original.FullText,
		}
		newRules = append(newRules, aggregatingRule)
	}
	return newRules, nil
}

// fieldSignature is one field's contribution to an aggregating head's
// signature: its name plus, for an aggregated field, the operator it
// aggregates with. Two bodies of the same predicate must agree on both,
// not just the field names, mirroring parser_py/parse.py's comparison of
// the full aggregation field-value map rather than just its keys.
type fieldSignature struct {
	Name string
	Op   string
}

// aggSignature builds the comparable per-field signature for one body's
// aggregation field-value list, as produced by splitAggregation.
func aggSignature(fvs []ast.FieldValue) []fieldSignature {
	out := make([]fieldSignature, len(fvs))
	for i, fv := range fvs {
		sig := fieldSignature{Name: fv.Field.String()}
		if fv.Agg != nil {
			sig.Op = fv.Agg.Op
		}
		out[i] = sig
	}
	return out
}
