package dialect

import "github.com/logica-lang/logica/internal/ast"

// magicallyEntangleCombineRule resolves the aggregation-scope ambiguity
// that arises when a `combine` expression aggregates over a variable
// unnested from a list inside its own body. It wraps the aggregation's
// argument in a call to MagicalEntangle(arg, var) and adds `var in [0]`
// to the rule's body, so engines whose query planner would otherwise
// aggregate across the wrong scope are forced to keep the dependency
// (§4.7/§9; original_source/compiler/dialects.py's
// DecorateCombineRule).
func magicallyEntangleCombineRule(rule *ast.Rule, varName string) *ast.Rule {
	if rule.Head == nil || rule.Head.Args == nil || len(rule.Head.Args.Fields) == 0 {
		return rule
	}
	field0 := rule.Head.Args.Fields[0]
	aggExpr := field0.Expr
	if field0.Agg != nil {
		aggExpr = field0.Agg.Arg
	}
	call, ok := aggExpr.(*ast.Call)
	if !ok || call.Args == nil || len(call.Args.Fields) == 0 {
		return rule
	}
	originalArg := call.Args.Fields[0].Expr

	entangled := &ast.Call{
		Predicate: "MagicalEntangle",
		Args: &ast.Record{Fields: []ast.FieldValue{
			{Field: ast.PositionalField(0), Expr: originalArg},
			{Field: ast.PositionalField(1), Expr: &ast.Variable{Name: varName}},
		}},
	}
	newCall := &ast.Call{
		Predicate: call.Predicate,
		Args: &ast.Record{Fields: []ast.FieldValue{
			{Field: ast.PositionalField(0), Expr: entangled},
		}},
	}

	newRule := *rule
	newHead := *rule.Head
	newArgs := *rule.Head.Args
	newFields := append([]ast.FieldValue{}, newArgs.Fields...)
	newFields[0] = ast.FieldValue{Field: field0.Field, Expr: newCall}
	if field0.Agg != nil {
		newFields[0] = ast.FieldValue{Field: field0.Field, Agg: &ast.Aggregation{Op: field0.Agg.Op, Arg: newCall}}
	}
	newArgs.Fields = newFields
	newHead.Args = &newArgs
	newRule.Head = &newHead

	var body ast.Conjunction
	if rule.Body != nil {
		body = *rule.Body
	}
	inclusion := &ast.InclusionConjunct{
		Element: &ast.Variable{Name: varName},
		List:    &ast.ListLiteral{Elements: []ast.Expr{&ast.NumberLiteral{Text: "0"}}},
	}
	body.Conjuncts = append(append([]ast.Conjunct{}, body.Conjuncts...), inclusion)
	newRule.Body = &body
	return &newRule
}
