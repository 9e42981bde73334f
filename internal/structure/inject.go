package structure

import "github.com/logica-lang/logica/internal/ast"

// maxInjectionIterations bounds the fixed-point loop in RunInjections,
// the Go analogue of the original's sys.getrecursionlimit() guard: real
// programs converge in a handful of passes, so hitting this is a sign
// of a self-referential (recursive) predicate, which Logica does not
// support.
const maxInjectionIterations = 1000

// InjectionLookup decides, for one table alias standing for predicate,
// whether that predicate should be inlined into the structure using
// it. When it should, it returns the predicate's own rule already run
// through ExtractRuleStructure (but not yet internal-variable
// eliminated); RunInjections takes care of elimination and merging.
type InjectionLookup func(predicate string) (rule *RuleStructure, inject bool, err error)

// RunInjections repeatedly inlines the single-rule, injectible
// predicates this structure refers to, until none are left, grounded
// on LogicaProgram.RunInjections. It is a method on RuleStructure
// rather than a free function because merging two structures requires
// rewriting the private vars_map/inv_vars_map bookkeeping that only
// this package can reach.
func (s *RuleStructure) RunInjections(lookup InjectionLookup) error {
	for iteration := 0; ; iteration++ {
		if iteration > maxInjectionIterations {
			return errorf("the rule appears to use recursion. Recursion is neither " +
				"supported by Logica nor by StandardSQL")
		}

		var newTables []TableRef
		newTableSet := map[string]string{}
		changed := false

		for _, t := range s.Tables {
			rs, inject, err := lookup(t.Predicate)
			if err != nil {
				return err
			}
			if !inject {
				newTables = append(newTables, t)
				newTableSet[t.Alias] = t.Predicate
				continue
			}
			changed = true
			if err := rs.ElliminateInternalVariables(false); err != nil {
				return err
			}
			for _, rt := range rs.Tables {
				newTables = append(newTables, rt)
				newTableSet[rt.Alias] = rt.Predicate
			}
			s.inject(rs)
			if err := s.rewireInjectedVars(t.Alias, t.Predicate, rs); err != nil {
				return err
			}
		}

		s.Tables = newTables
		s.tableSet = newTableSet
		if !changed {
			return nil
		}
	}
}

// inject merges source's own bookkeeping into s, grounded on
// universe.py's free function InjectStructure. It deliberately does
// not merge Select or Tables: Tables is merged by RunInjections
// itself, and Select fields are only ever read through
// rewireInjectedVars, never copied wholesale.
func (s *RuleStructure) inject(source *RuleStructure) {
	for k, v := range source.varsMap {
		s.varsMap[k] = v
	}
	for k, v := range source.invVarsMap {
		s.invVarsMap[k] = v
	}
	s.VarsUnification = append(s.VarsUnification, source.VarsUnification...)
	s.Unnestings = append(s.Unnestings, source.Unnestings...)
	s.Constraints = append(s.Constraints, source.Constraints...)
}

func (s *RuleStructure) selectField(name string) (ast.Expr, bool) {
	for _, f := range s.Select {
		if f.Field.String() == name {
			return f.Expr, true
		}
	}
	return nil, false
}

// rewireInjectedVars turns every (alias, field) -> clauseVar binding
// this structure held for the now-inlined alias into an explicit
// unification against the inlined rule's own select expression,
// falling back to a `..rest` subscript when the field was only
// reachable through it, grounded on the vars_map rewiring block inside
// LogicaProgram.RunInjections.
func (s *RuleStructure) rewireInjectedVars(alias, predicate string, rs *RuleStructure) error {
	newVarsMap := map[tableFieldKey]string{}
	newInvVarsMap := map[string]tableFieldKey{}
	for key, clauseVar := range s.varsMap {
		if key.Table != alias {
			newVarsMap[key] = clauseVar
			newInvVarsMap[clauseVar] = key
			continue
		}
		field, ok := rs.selectField(key.Field)
		if !ok {
			rest, hasRest := rs.selectField("*")
			if !hasRest {
				hint := ""
				if key.Field == "*" {
					hint = " Are you using ..<rest of> for an injectible predicate? " +
						"Please list the fields that you extract explicitly."
				}
				return errorf("predicate %s does not have an argument %s, but this rule "+
					"tries to access it.%s This error might also come from injected sub-rules.",
					predicate, key.Field, hint)
			}
			s.VarsUnification = append(s.VarsUnification, Unification{
				Left:  &ast.Variable{Name: clauseVar},
				Right: &ast.Subscript{Record: rest, Field: key.Field},
			})
			continue
		}
		s.VarsUnification = append(s.VarsUnification, Unification{
			Left:  &ast.Variable{Name: clauseVar},
			Right: field,
		})
	}
	s.varsMap = newVarsMap
	s.invVarsMap = newInvVarsMap
	return nil
}
