package functor

import (
	"fmt"
	"strings"

	"github.com/logica-lang/logica/internal/ast"
)

// RemoveRulesProvenToBeNil iterates to a fixed point: a predicate whose
// every rule references "nil" is itself proven to be nothing, so its
// occurrences elsewhere are folded to nil and the count is rechecked,
// exactly as functors.py's RemoveRulesProvenToBeNil. A synthetic
// predicate (one whose name contains "_") may vanish silently; a
// user-defined one that vanishes is a compile error, since it almost
// always means a recursion's base case never fired.
//
// It returns, for every surviving predicate, how many of its rules are
// not nil — callers that find a zero there (after any makes this pass
// should have built) should surface that as an error too.
func (f *Functors) RemoveRulesProvenToBeNil(rules []*ast.Rule) (map[string]int, error) {
	provenNothing := map[string]struct{}{"nil": {}}
	defined := map[string]struct{}{}
	for _, r := range rules {
		defined[r.Head.Name] = struct{}{}
	}

	var rulesPerPredicate map[string]int
	for {
		rulesPerPredicate = map[string]int{}
		for _, r := range rules {
			p := r.Head.Name
			if _, ok := rulesPerPredicate[p]; !ok {
				rulesPerPredicate[p] = 0
			}
			if countNilReferences(r) == 0 {
				rulesPerPredicate[p]++
			}
		}
		isNothing := map[string]struct{}{}
		for p := range defined {
			if rulesPerPredicate[p] == 0 {
				isNothing[p] = struct{}{}
			}
		}
		grew := false
		for p := range isNothing {
			if _, ok := provenNothing[p]; !ok {
				grew = true
				break
			}
		}
		if !grew {
			break
		}
		for p := range isNothing {
			provenNothing[p] = struct{}{}
		}
	}

	var lastNullified string
	changed := false
	for p := range provenNothing {
		if p == "nil" {
			continue
		}
		changed = true
		lastNullified = p
		for _, r := range rules {
			if r.Head.Name == p {
				r.Head.Name = "Nullified" + p
			} else if !strings.HasPrefix(r.Head.Name, "@") {
				ast.RenamePredicate(r, p, "nil")
			}
		}
		if !strings.Contains(p, "_") {
			return nil, &Error{
				Message: fmt.Sprintf("predicate %s was proven to be empty; most likely the base "+
					"case of recursion is missing, or flat recursion was not given enough steps", p),
				Functor: p,
			}
		}
		delete(rulesPerPredicate, p)
	}
	if changed {
		f.UpdateStructure(lastNullified)
	}
	return rulesPerPredicate, nil
}

// countNilReferences counts occurrences of the predicate name "nil" in
// rule, skipping predicate-value literals (a first-class reference to a
// predicate, not a call of it) and nested Combine sub-rules, which are
// trivially null in isolation — the same taboo the original's
// WalkWithTaboo applies via its ['the_predicate', 'combine', 'satellites']
// list (Go's typed AST has no "satellites" node to skip).
func countNilReferences(rule *ast.Rule) int {
	count := 0
	if rule.Head != nil {
		count += countNilsInCall(rule.Head)
	}
	if rule.Body != nil {
		count += countNilsInConjunction(rule.Body)
	}
	return count
}

func countNilsInCall(c *ast.PredicateCall) int {
	count := 0
	if c.Name == "nil" {
		count++
	}
	if c.Args != nil {
		count += countNilsInRecord(c.Args)
	}
	return count
}

func countNilsInRecord(r *ast.Record) int {
	count := 0
	for _, fv := range r.Fields {
		if fv.Expr != nil {
			count += countNilsInExpr(fv.Expr)
		}
		if fv.Agg != nil && fv.Agg.Arg != nil {
			count += countNilsInExpr(fv.Agg.Arg)
		}
	}
	return count
}

func countNilsInConjunction(c *ast.Conjunction) int {
	count := 0
	for _, conj := range c.Conjuncts {
		count += countNilsInConjunct(conj)
	}
	return count
}

func countNilsInConjunct(c ast.Conjunct) int {
	switch v := c.(type) {
	case *ast.PredicateConjunct:
		return countNilsInCall(v.Call)
	case *ast.UnificationConjunct:
		return countNilsInExpr(v.LHS) + countNilsInExpr(v.RHS)
	case *ast.InclusionConjunct:
		return countNilsInExpr(v.Element) + countNilsInExpr(v.List)
	case *ast.DisjunctionConjunct:
		count := 0
		for i := range v.Disjuncts {
			count += countNilsInConjunction(&v.Disjuncts[i])
		}
		return count
	case *ast.Conjunction:
		return countNilsInConjunction(v)
	}
	return 0
}

func countNilsInExpr(e ast.Expr) int {
	switch v := e.(type) {
	case *ast.PredicateLiteral:
		return 0 // taboo: a predicate-value literal, not a call
	case *ast.ListLiteral:
		count := 0
		for _, el := range v.Elements {
			count += countNilsInExpr(el)
		}
		return count
	case *ast.Call:
		count := 0
		if v.Predicate == "nil" {
			count++
		}
		if v.Args != nil {
			count += countNilsInRecord(v.Args)
		}
		return count
	case *ast.Subscript:
		return countNilsInExpr(v.Record)
	case *ast.RecordExpr:
		if v.Record != nil {
			return countNilsInRecord(v.Record)
		}
	case *ast.Combine:
		return 0 // taboo: combine sub-expressions are trivially null
	case *ast.Implication:
		count := 0
		for _, b := range v.Branches {
			count += countNilsInExpr(b.Cond) + countNilsInExpr(b.Then)
		}
		if v.Else != nil {
			count += countNilsInExpr(v.Else)
		}
		return count
	}
	return 0
}
