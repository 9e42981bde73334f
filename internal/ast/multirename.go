package ast

// RenamePredicatesInRules applies mapping to every predicate-name-bearing
// node across rules in one simultaneous pass: a name is looked up in
// mapping at most once, so a chain like {"A": "B", "B": "C"} renames A to
// B (not through to C) exactly as functors.py's CallFunctor substitution
// does with its single Walk(rules, ReplacePredicate) call.
func RenamePredicatesInRules(rules []*Rule, mapping map[string]string) {
	for _, r := range rules {
		if r.Head != nil {
			mapRenameCall(r.Head, mapping)
		}
		if r.Body != nil {
			mapRenameConjunction(r.Body, mapping)
		}
	}
}

func mapRenameCall(c *PredicateCall, mapping map[string]string) {
	if newName, ok := mapping[c.Name]; ok {
		c.Name = newName
	}
	if c.Args != nil {
		mapRenameRecord(c.Args, mapping)
	}
}

func mapRenameRecord(r *Record, mapping map[string]string) {
	for i := range r.Fields {
		fv := &r.Fields[i]
		if !fv.Field.Positional {
			if newName, ok := mapping[fv.Field.Name]; ok {
				fv.Field.Name = newName
			}
		}
		if fv.Expr != nil {
			mapRenameExpr(fv.Expr, mapping)
		}
		if fv.Agg != nil && fv.Agg.Arg != nil {
			mapRenameExpr(fv.Agg.Arg, mapping)
		}
	}
}

func mapRenameConjunction(c *Conjunction, mapping map[string]string) {
	for _, conj := range c.Conjuncts {
		mapRenameConjunct(conj, mapping)
	}
}

func mapRenameConjunct(c Conjunct, mapping map[string]string) {
	switch v := c.(type) {
	case *PredicateConjunct:
		mapRenameCall(v.Call, mapping)
	case *UnificationConjunct:
		mapRenameExpr(v.LHS, mapping)
		mapRenameExpr(v.RHS, mapping)
	case *InclusionConjunct:
		mapRenameExpr(v.Element, mapping)
		mapRenameExpr(v.List, mapping)
	case *DisjunctionConjunct:
		for i := range v.Disjuncts {
			mapRenameConjunction(&v.Disjuncts[i], mapping)
		}
	case *Conjunction:
		mapRenameConjunction(v, mapping)
	}
}

func mapRenameExpr(e Expr, mapping map[string]string) {
	switch v := e.(type) {
	case *PredicateLiteral:
		if newName, ok := mapping[v.Name]; ok {
			v.Name = newName
		}
	case *ListLiteral:
		for _, el := range v.Elements {
			mapRenameExpr(el, mapping)
		}
	case *Call:
		if newName, ok := mapping[v.Predicate]; ok {
			v.Predicate = newName
		}
		if v.Args != nil {
			mapRenameRecord(v.Args, mapping)
		}
	case *Subscript:
		mapRenameExpr(v.Record, mapping)
	case *RecordExpr:
		if v.Record != nil {
			mapRenameRecord(v.Record, mapping)
		}
	case *Combine:
		if v.Rule != nil {
			if v.Rule.Head != nil {
				mapRenameCall(v.Rule.Head, mapping)
			}
			if v.Rule.Body != nil {
				mapRenameConjunction(v.Rule.Body, mapping)
			}
		}
	case *Implication:
		for _, b := range v.Branches {
			mapRenameExpr(b.Cond, mapping)
			mapRenameExpr(b.Then, mapping)
		}
		if v.Else != nil {
			mapRenameExpr(v.Else, mapping)
		}
	}
}
