package ast

// CloneRule deep-copies rule so a caller can rename predicates or
// otherwise mutate the copy without affecting the original — the Go
// equivalent of the original's liberal use of copy.deepcopy in
// functors.py, where every rule handed to a new functor instantiation is
// copied before renaming.
func CloneRule(r *Rule) *Rule {
	if r == nil {
		return nil
	}
	clone := &Rule{
		DistinctDenoted: r.DistinctDenoted,
		FullText:        r.FullText,
	}
	if r.Head != nil {
		clone.Head = cloneCall(r.Head)
	}
	if r.Body != nil {
		clone.Body = cloneConjunction(r.Body)
	}
	return clone
}

// CloneRules deep-copies every rule in rules.
func CloneRules(rules []*Rule) []*Rule {
	out := make([]*Rule, len(rules))
	for i, r := range rules {
		out[i] = CloneRule(r)
	}
	return out
}

func cloneCall(c *PredicateCall) *PredicateCall {
	if c == nil {
		return nil
	}
	return &PredicateCall{Name: c.Name, Args: cloneRecord(c.Args), Source: c.Source}
}

func cloneRecord(r *Record) *Record {
	if r == nil {
		return nil
	}
	fields := make([]FieldValue, len(r.Fields))
	for i, fv := range r.Fields {
		nfv := FieldValue{Field: fv.Field}
		if fv.Expr != nil {
			nfv.Expr = cloneExpr(fv.Expr)
		}
		if fv.Agg != nil {
			nfv.Agg = &Aggregation{Op: fv.Agg.Op}
			if fv.Agg.Arg != nil {
				nfv.Agg.Arg = cloneExpr(fv.Agg.Arg)
			}
		}
		fields[i] = nfv
	}
	return &Record{Fields: fields, HasRest: r.HasRest}
}

func cloneConjunction(c *Conjunction) *Conjunction {
	if c == nil {
		return nil
	}
	conjuncts := make([]Conjunct, len(c.Conjuncts))
	for i, conj := range c.Conjuncts {
		conjuncts[i] = cloneConjunct(conj)
	}
	return &Conjunction{Conjuncts: conjuncts, Source: c.Source}
}

// CloneConjunct deep-copies a single conjunct, following the same rules
// as CloneRule's body cloning.
func CloneConjunct(c Conjunct) Conjunct {
	return cloneConjunct(c)
}

func cloneConjunct(c Conjunct) Conjunct {
	switch v := c.(type) {
	case *PredicateConjunct:
		return &PredicateConjunct{Call: cloneCall(v.Call), Source: v.Source}
	case *UnificationConjunct:
		return &UnificationConjunct{LHS: cloneExpr(v.LHS), RHS: cloneExpr(v.RHS), Source: v.Source}
	case *InclusionConjunct:
		return &InclusionConjunct{Element: cloneExpr(v.Element), List: cloneExpr(v.List), Source: v.Source}
	case *DisjunctionConjunct:
		disjuncts := make([]Conjunction, len(v.Disjuncts))
		for i := range v.Disjuncts {
			disjuncts[i] = *cloneConjunction(&v.Disjuncts[i])
		}
		return &DisjunctionConjunct{Disjuncts: disjuncts, Source: v.Source}
	case *Conjunction:
		return cloneConjunction(v)
	}
	return c
}

func cloneExpr(e Expr) Expr {
	switch v := e.(type) {
	case *NumberLiteral:
		cp := *v
		return &cp
	case *StringLiteral:
		cp := *v
		return &cp
	case *BoolLiteral:
		cp := *v
		return &cp
	case *NullLiteral:
		cp := *v
		return &cp
	case *ListLiteral:
		elems := make([]Expr, len(v.Elements))
		for i, el := range v.Elements {
			elems[i] = cloneExpr(el)
		}
		return &ListLiteral{Elements: elems, Source: v.Source}
	case *PredicateLiteral:
		cp := *v
		return &cp
	case *Variable:
		cp := *v
		return &cp
	case *Call:
		return &Call{Predicate: v.Predicate, Args: cloneRecord(v.Args), Source: v.Source}
	case *Subscript:
		return &Subscript{Record: cloneExpr(v.Record), Field: v.Field, Source: v.Source}
	case *RecordExpr:
		return &RecordExpr{Record: cloneRecord(v.Record), Source: v.Source}
	case *Combine:
		return &Combine{Rule: CloneRule(v.Rule), Source: v.Source}
	case *Implication:
		branches := make([]IfThen, len(v.Branches))
		for i, b := range v.Branches {
			branches[i] = IfThen{Cond: cloneExpr(b.Cond), Then: cloneExpr(b.Then)}
		}
		var elseExpr Expr
		if v.Else != nil {
			elseExpr = cloneExpr(v.Else)
		}
		return &Implication{Branches: branches, Else: elseExpr, Source: v.Source}
	}
	return e
}
