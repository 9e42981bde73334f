package desugar

import "github.com/logica-lang/logica/internal/ast"

func aggregationOperator(raw string) string {
	switch raw {
	case "+":
		return "Agg+"
	case "++":
		return "Agg++"
	default:
		return raw
	}
}

// AggregationsAsExpressions rewrites every remaining `field? Op= expr`
// aggregation field's argument into a call of the aggregation operator
// as a function (§4.3.3, e.g. `+` becomes a call to `Agg+`). The
// Agg marker itself is kept, with Arg now holding that call, rather
// than being collapsed into a plain Expr field: the rule structurer
// (§4.5) still needs to tell an aggregated head field apart from a
// plain one, the same way HeadToSelect in the original reads
// `field_value.value.aggregation.expression` without ever removing the
// surrounding `aggregation` key.
func AggregationsAsExpressions(rules []*ast.Rule) []*ast.Rule {
	for _, r := range rules {
		rewriteRule(r)
	}
	return rules
}

func rewriteRule(r *ast.Rule) {
	if r.Head != nil {
		rewriteRecord(r.Head.Args)
	}
	if r.Body != nil {
		rewriteConjunction(r.Body)
	}
}

func rewriteRecord(rec *ast.Record) {
	if rec == nil {
		return
	}
	for i := range rec.Fields {
		fv := &rec.Fields[i]
		if fv.Agg != nil {
			rewriteExpr(fv.Agg.Arg)
			fv.Agg.Arg = &ast.Call{
				Predicate: aggregationOperator(fv.Agg.Op),
				Args: &ast.Record{Fields: []ast.FieldValue{{
					Field: ast.PositionalField(0),
					Expr:  fv.Agg.Arg,
				}}},
			}
			continue
		}
		rewriteExpr(fv.Expr)
	}
}

func rewriteConjunction(c *ast.Conjunction) {
	for _, conj := range c.Conjuncts {
		rewriteConjunct(conj)
	}
}

func rewriteConjunct(c ast.Conjunct) {
	switch v := c.(type) {
	case *ast.PredicateConjunct:
		rewriteRecord(v.Call.Args)
	case *ast.UnificationConjunct:
		rewriteExpr(v.LHS)
		rewriteExpr(v.RHS)
	case *ast.InclusionConjunct:
		rewriteExpr(v.Element)
		rewriteExpr(v.List)
	case *ast.Conjunction:
		rewriteConjunction(v)
	case *ast.DisjunctionConjunct:
		for i := range v.Disjuncts {
			rewriteConjunction(&v.Disjuncts[i])
		}
	}
}

func rewriteExpr(e ast.Expr) {
	switch v := e.(type) {
	case *ast.ListLiteral:
		for _, el := range v.Elements {
			rewriteExpr(el)
		}
	case *ast.Call:
		rewriteRecord(v.Args)
	case *ast.Subscript:
		rewriteExpr(v.Record)
	case *ast.RecordExpr:
		rewriteRecord(v.Record)
	case *ast.Combine:
		if v.Rule != nil {
			rewriteRule(v.Rule)
		}
	case *ast.Implication:
		for _, b := range v.Branches {
			rewriteExpr(b.Cond)
			rewriteExpr(b.Then)
		}
		rewriteExpr(v.Else)
	}
}
