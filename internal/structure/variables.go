package structure

import "github.com/logica-lang/logica/internal/ast"

// collectVariables walks e and adds every variable name mentioned to
// out. When diveIntoCombines is false — the usual case — a Combine
// sub-expression's own variables are not mentioned, since they are
// resolvable from the combine's own inner tables and must not leak into
// the enclosing rule's vocabulary, grounded on AllMentionedVariables.
func collectVariables(e ast.Expr, diveIntoCombines bool, out map[string]struct{}) {
	if e == nil {
		return
	}
	switch v := e.(type) {
	case *ast.Variable:
		out[v.Name] = struct{}{}
	case *ast.ListLiteral:
		for _, el := range v.Elements {
			collectVariables(el, diveIntoCombines, out)
		}
	case *ast.Call:
		collectVariablesInRecord(v.Args, diveIntoCombines, out)
	case *ast.Subscript:
		collectVariables(v.Record, diveIntoCombines, out)
	case *ast.RecordExpr:
		collectVariablesInRecord(v.Record, diveIntoCombines, out)
	case *ast.Combine:
		if diveIntoCombines && v.Rule != nil {
			collectVariablesInRule(v.Rule, diveIntoCombines, out)
		}
	case *ast.Implication:
		for _, b := range v.Branches {
			collectVariables(b.Cond, diveIntoCombines, out)
			collectVariables(b.Then, diveIntoCombines, out)
		}
		collectVariables(v.Else, diveIntoCombines, out)
	}
}

func collectVariablesInRecord(r *ast.Record, diveIntoCombines bool, out map[string]struct{}) {
	if r == nil {
		return
	}
	for _, fv := range r.Fields {
		if fv.Expr != nil {
			collectVariables(fv.Expr, diveIntoCombines, out)
		}
		if fv.Agg != nil && fv.Agg.Arg != nil {
			collectVariables(fv.Agg.Arg, diveIntoCombines, out)
		}
	}
}

func collectVariablesInRule(r *ast.Rule, diveIntoCombines bool, out map[string]struct{}) {
	if r.Head != nil {
		collectVariablesInRecord(r.Head.Args, diveIntoCombines, out)
	}
	if r.Body != nil {
		collectVariablesInConjunction(r.Body, diveIntoCombines, out)
	}
}

func collectVariablesInConjunction(c *ast.Conjunction, diveIntoCombines bool, out map[string]struct{}) {
	for _, conj := range c.Conjuncts {
		collectVariablesInConjunct(conj, diveIntoCombines, out)
	}
}

func collectVariablesInConjunct(c ast.Conjunct, diveIntoCombines bool, out map[string]struct{}) {
	switch v := c.(type) {
	case *ast.PredicateConjunct:
		collectVariablesInRecord(v.Call.Args, diveIntoCombines, out)
	case *ast.UnificationConjunct:
		collectVariables(v.LHS, diveIntoCombines, out)
		collectVariables(v.RHS, diveIntoCombines, out)
	case *ast.InclusionConjunct:
		collectVariables(v.Element, diveIntoCombines, out)
		collectVariables(v.List, diveIntoCombines, out)
	case *ast.DisjunctionConjunct:
		for i := range v.Disjuncts {
			collectVariablesInConjunction(&v.Disjuncts[i], diveIntoCombines, out)
		}
	case *ast.Conjunction:
		collectVariablesInConjunction(v, diveIntoCombines, out)
	}
}

// replaceVariable substitutes every occurrence of a variable named
// oldName within e with newExpr, mutating nested containers in place
// and returning the (possibly replaced) root, grounded on
// rule_translate.py's ReplaceVariable. Unlike collectVariables it always
// descends into Combine sub-rules: once a substitution has been judged
// safe by ElliminateInternalVariables, it must apply everywhere the
// variable is visible, combine scopes included.
func replaceVariable(e ast.Expr, oldName string, newExpr ast.Expr) ast.Expr {
	if e == nil {
		return nil
	}
	switch v := e.(type) {
	case *ast.Variable:
		if v.Name == oldName {
			return newExpr
		}
		return v
	case *ast.ListLiteral:
		for i, el := range v.Elements {
			v.Elements[i] = replaceVariable(el, oldName, newExpr)
		}
		return v
	case *ast.Call:
		replaceVariableInRecord(v.Args, oldName, newExpr)
		return v
	case *ast.Subscript:
		v.Record = replaceVariable(v.Record, oldName, newExpr)
		return v
	case *ast.RecordExpr:
		replaceVariableInRecord(v.Record, oldName, newExpr)
		return v
	case *ast.Combine:
		if v.Rule != nil {
			replaceVariableInRule(v.Rule, oldName, newExpr)
		}
		return v
	case *ast.Implication:
		for i := range v.Branches {
			v.Branches[i].Cond = replaceVariable(v.Branches[i].Cond, oldName, newExpr)
			v.Branches[i].Then = replaceVariable(v.Branches[i].Then, oldName, newExpr)
		}
		if v.Else != nil {
			v.Else = replaceVariable(v.Else, oldName, newExpr)
		}
		return v
	default:
		return v
	}
}

func replaceVariableInRecord(r *ast.Record, oldName string, newExpr ast.Expr) {
	if r == nil {
		return
	}
	for i := range r.Fields {
		fv := &r.Fields[i]
		if fv.Expr != nil {
			fv.Expr = replaceVariable(fv.Expr, oldName, newExpr)
		}
		if fv.Agg != nil && fv.Agg.Arg != nil {
			fv.Agg.Arg = replaceVariable(fv.Agg.Arg, oldName, newExpr)
		}
	}
}

func replaceVariableInRule(r *ast.Rule, oldName string, newExpr ast.Expr) {
	if r.Head != nil {
		replaceVariableInRecord(r.Head.Args, oldName, newExpr)
	}
	if r.Body != nil {
		replaceVariableInConjunction(r.Body, oldName, newExpr)
	}
}

func replaceVariableInConjunction(c *ast.Conjunction, oldName string, newExpr ast.Expr) {
	for _, conj := range c.Conjuncts {
		replaceVariableInConjunct(conj, oldName, newExpr)
	}
}

func replaceVariableInConjunct(c ast.Conjunct, oldName string, newExpr ast.Expr) {
	switch v := c.(type) {
	case *ast.PredicateConjunct:
		replaceVariableInRecord(v.Call.Args, oldName, newExpr)
	case *ast.UnificationConjunct:
		v.LHS = replaceVariable(v.LHS, oldName, newExpr)
		v.RHS = replaceVariable(v.RHS, oldName, newExpr)
	case *ast.InclusionConjunct:
		v.Element = replaceVariable(v.Element, oldName, newExpr)
		v.List = replaceVariable(v.List, oldName, newExpr)
	case *ast.DisjunctionConjunct:
		for i := range v.Disjuncts {
			replaceVariableInConjunction(&v.Disjuncts[i], oldName, newExpr)
		}
	case *ast.Conjunction:
		replaceVariableInConjunction(v, oldName, newExpr)
	}
}
