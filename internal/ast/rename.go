package ast

// RenamePredicate walks rule in place, renaming every occurrence of
// oldName as a predicate name (in a call, a predicate literal, or a
// record field — functors treat field names as predicate names too) to
// newName. It returns the number of renames performed, following the
// same walk as parser_py/parse.py's RenamePredicate, specialized to a
// typed tree instead of a generic dict walk.
func RenamePredicate(rule *Rule, oldName, newName string) int {
	count := 0
	if rule.Head != nil {
		count += renameCall(rule.Head, oldName, newName)
	}
	if rule.Body != nil {
		count += renameConjunction(rule.Body, oldName, newName)
	}
	return count
}

// RenamePredicateInRules applies RenamePredicate to every rule and returns
// the total rename count.
func RenamePredicateInRules(rules []*Rule, oldName, newName string) int {
	count := 0
	for _, r := range rules {
		count += RenamePredicate(r, oldName, newName)
	}
	return count
}

func renameCall(c *PredicateCall, oldName, newName string) int {
	count := 0
	if c.Name == oldName {
		c.Name = newName
		count++
	}
	if c.Args != nil {
		count += renameRecord(c.Args, oldName, newName)
	}
	return count
}

func renameRecord(r *Record, oldName, newName string) int {
	count := 0
	for i := range r.Fields {
		fv := &r.Fields[i]
		if !fv.Field.Positional && fv.Field.Name == oldName {
			fv.Field.Name = newName
			count++
		}
		if fv.Expr != nil {
			count += renameExpr(fv.Expr, oldName, newName)
		}
		if fv.Agg != nil && fv.Agg.Arg != nil {
			count += renameExpr(fv.Agg.Arg, oldName, newName)
		}
	}
	return count
}

func renameConjunction(c *Conjunction, oldName, newName string) int {
	count := 0
	for _, conj := range c.Conjuncts {
		count += renameConjunct(conj, oldName, newName)
	}
	return count
}

func renameConjunct(c Conjunct, oldName, newName string) int {
	switch v := c.(type) {
	case *PredicateConjunct:
		return renameCall(v.Call, oldName, newName)
	case *UnificationConjunct:
		return renameExpr(v.LHS, oldName, newName) + renameExpr(v.RHS, oldName, newName)
	case *InclusionConjunct:
		return renameExpr(v.Element, oldName, newName) + renameExpr(v.List, oldName, newName)
	case *DisjunctionConjunct:
		count := 0
		for i := range v.Disjuncts {
			count += renameConjunction(&v.Disjuncts[i], oldName, newName)
		}
		return count
	case *Conjunction:
		return renameConjunction(v, oldName, newName)
	}
	return 0
}

func renameExpr(e Expr, oldName, newName string) int {
	switch v := e.(type) {
	case *PredicateLiteral:
		if v.Name == oldName {
			v.Name = newName
			return 1
		}
	case *ListLiteral:
		count := 0
		for _, el := range v.Elements {
			count += renameExpr(el, oldName, newName)
		}
		return count
	case *Call:
		count := 0
		if v.Predicate == oldName {
			v.Predicate = newName
			count++
		}
		if v.Args != nil {
			count += renameRecord(v.Args, oldName, newName)
		}
		return count
	case *Subscript:
		return renameExpr(v.Record, oldName, newName)
	case *RecordExpr:
		if v.Record != nil {
			return renameRecord(v.Record, oldName, newName)
		}
	case *Combine:
		if v.Rule != nil {
			return RenamePredicate(v.Rule, oldName, newName)
		}
	case *Implication:
		count := 0
		for _, b := range v.Branches {
			count += renameExpr(b.Cond, oldName, newName)
			count += renameExpr(b.Then, oldName, newName)
		}
		if v.Else != nil {
			count += renameExpr(v.Else, oldName, newName)
		}
		return count
	}
	return 0
}
