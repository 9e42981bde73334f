package ast

// CollectPredicateNames walks rule and returns every predicate name it
// references — in its head, its body, and any nested Combine sub-rule —
// grounded on the original's generic `Walk(x, ExtractPredicateName)` used
// by functors.py's BuildDirectArgsOfPredicate. This is functors.py's
// notion of "direct argument": any predicate symbol occurring anywhere
// inside the rule, whether as a call or as a first-class predicate-name
// value.
func CollectPredicateNames(rule *Rule) map[string]struct{} {
	names := map[string]struct{}{}
	if rule.Head != nil {
		collectCall(rule.Head, names)
	}
	if rule.Body != nil {
		collectConjunction(rule.Body, names)
	}
	return names
}

// CollectArgPredicateNames is CollectPredicateNames restricted to a rule's
// body and the arguments of its head — it does not count the head's own
// predicate name, mirroring functors.py's BuildDirectArgsOfPredicate,
// which walks `rule['head']['record']` rather than the head dict itself
// so a predicate is not trivially recorded as its own direct argument.
func CollectArgPredicateNames(rule *Rule) map[string]struct{} {
	names := map[string]struct{}{}
	if rule.Head != nil && rule.Head.Args != nil {
		collectRecord(rule.Head.Args, names)
	}
	if rule.Body != nil {
		collectConjunction(rule.Body, names)
	}
	return names
}

func collectCall(c *PredicateCall, names map[string]struct{}) {
	names[c.Name] = struct{}{}
	if c.Args != nil {
		collectRecord(c.Args, names)
	}
}

func collectRecord(r *Record, names map[string]struct{}) {
	for _, fv := range r.Fields {
		if fv.Expr != nil {
			collectExpr(fv.Expr, names)
		}
		if fv.Agg != nil && fv.Agg.Arg != nil {
			collectExpr(fv.Agg.Arg, names)
		}
	}
}

func collectConjunction(c *Conjunction, names map[string]struct{}) {
	for _, conj := range c.Conjuncts {
		collectConjunct(conj, names)
	}
}

func collectConjunct(c Conjunct, names map[string]struct{}) {
	switch v := c.(type) {
	case *PredicateConjunct:
		collectCall(v.Call, names)
	case *UnificationConjunct:
		collectExpr(v.LHS, names)
		collectExpr(v.RHS, names)
	case *InclusionConjunct:
		collectExpr(v.Element, names)
		collectExpr(v.List, names)
	case *DisjunctionConjunct:
		for i := range v.Disjuncts {
			collectConjunction(&v.Disjuncts[i], names)
		}
	case *Conjunction:
		collectConjunction(v, names)
	}
}

func collectExpr(e Expr, names map[string]struct{}) {
	switch v := e.(type) {
	case *PredicateLiteral:
		names[v.Name] = struct{}{}
	case *ListLiteral:
		for _, el := range v.Elements {
			collectExpr(el, names)
		}
	case *Call:
		names[v.Predicate] = struct{}{}
		if v.Args != nil {
			collectRecord(v.Args, names)
		}
	case *Subscript:
		collectExpr(v.Record, names)
	case *RecordExpr:
		if v.Record != nil {
			collectRecord(v.Record, names)
		}
	case *Combine:
		if v.Rule != nil {
			if v.Rule.Head != nil {
				collectCall(v.Rule.Head, names)
			}
			if v.Rule.Body != nil {
				collectConjunction(v.Rule.Body, names)
			}
		}
	case *Implication:
		for _, b := range v.Branches {
			collectExpr(b.Cond, names)
			collectExpr(b.Then, names)
		}
		if v.Else != nil {
			collectExpr(v.Else, names)
		}
	}
}
