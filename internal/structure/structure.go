package structure

import (
	"reflect"
	"sort"
	"strings"

	"github.com/logica-lang/logica/internal/ast"
	"github.com/logica-lang/logica/internal/heritage"
)

// Unification is one `lhs == rhs` pair awaiting variable elimination,
// grounded on rule_translate.py's vars_unification entries.
type Unification struct {
	Left, Right ast.Expr
}

// Unnesting is one `element in list` pair rewritten into an UNNEST
// clause, grounded on rule_translate.py's unnestings entries.
type Unnesting struct {
	Element ast.Expr
	List    ast.Expr
}

// SelectField is one field of a rule's head, in declaration order.
type SelectField struct {
	Field ast.Field
	Expr  ast.Expr
}

// TableRef is one allocated alias in Tables, kept in allocation order so
// FROM clauses and diagnostics read the way the source rule does.
type TableRef struct {
	Alias     string
	Predicate string
}

// tableFieldKey identifies a (table alias, field) pair; Table is "" for
// an unnest pseudo-column.
type tableFieldKey struct {
	Table string
	Field string
}

// RuleStructure is a single Logica rule reduced to the shape of a SQL
// SELECT statement, grounded on rule_translate.py's RuleStructure.
type RuleStructure struct {
	ThisPredicateName string

	Tables   []TableRef
	tableSet map[string]string // alias -> predicate, mirrors Tables

	varsMap    map[tableFieldKey]string
	invVarsMap map[string]tableFieldKey

	VarsUnification []Unification
	Constraints     []*ast.PredicateCall
	Select          []SelectField
	Unnestings      []Unnesting
	DistinctVars    []string
	DistinctDenoted bool

	ExternalVocabulary map[string]string
	SynonymLog         map[string][]string
	FullRuleText       heritage.Span

	Allocator *NamesAllocator
}

// NewRuleStructure constructs an empty structure sharing allocator and
// externalVocabulary, mirroring RuleStructure.__init__.
func NewRuleStructure(allocator *NamesAllocator, externalVocabulary map[string]string) *RuleStructure {
	if allocator == nil {
		allocator = NewNamesAllocator(nil)
	}
	return &RuleStructure{
		tableSet:           map[string]string{},
		varsMap:            map[tableFieldKey]string{},
		invVarsMap:         map[string]tableFieldKey{},
		ExternalVocabulary:  externalVocabulary,
		SynonymLog:         map[string][]string{},
		Allocator:          allocator,
	}
}

// addTable records a fresh table allocation, keeping Tables in order.
func (s *RuleStructure) addTable(alias, predicate string) {
	s.Tables = append(s.Tables, TableRef{Alias: alias, Predicate: predicate})
	s.tableSet[alias] = predicate
}

// bindVar records the mapping between an allocated (table, field) slot
// and the variable name standing for it.
func (s *RuleStructure) bindVar(table, field, varName string) {
	key := tableFieldKey{Table: table, Field: field}
	s.varsMap[key] = varName
	s.invVarsMap[varName] = key
}

// OwnVarsVocabulary returns, for every variable this structure itself
// introduced, the SQL fragment (table.field) it stands for, grounded on
// RuleStructure.OwnVarsVocabulary.
func (s *RuleStructure) OwnVarsVocabulary() map[string]string {
	r := make(map[string]string, len(s.invVarsMap))
	except := ExceptExpression{}
	for v, key := range s.invVarsMap {
		field := key.Field
		switch {
		case except.Recognize(field):
			r[v] = field
		case key.Table != "" && field != "*":
			r[v] = key.Table + "." + field
		case key.Table == "":
			r[v] = field
		default: // field == "*"
			r[v] = key.Table
		}
	}
	return r
}

// VarsVocabulary merges OwnVarsVocabulary with any ExternalVocabulary
// from an enclosing query, grounded on RuleStructure.VarsVocabulary.
func (s *RuleStructure) VarsVocabulary() map[string]string {
	r := s.OwnVarsVocabulary()
	for k, v := range s.ExternalVocabulary {
		r[k] = v
	}
	return r
}

// ExtractedVariables is the set of variable names this structure (or its
// enclosing query) already knows how to resolve.
func (s *RuleStructure) ExtractedVariables() map[string]struct{} {
	vocab := s.VarsVocabulary()
	out := make(map[string]struct{}, len(vocab))
	for k := range vocab {
		out[k] = struct{}{}
	}
	return out
}

// AllVariables is every variable name mentioned anywhere in this
// structure's select, unifications, constraints, or unnestings,
// grounded on RuleStructure.AllVariables.
func (s *RuleStructure) AllVariables() map[string]struct{} {
	out := map[string]struct{}{}
	for _, f := range s.Select {
		collectVariables(f.Expr, false, out)
	}
	for _, u := range s.VarsUnification {
		collectVariables(u.Left, false, out)
		collectVariables(u.Right, false, out)
	}
	for _, c := range s.Constraints {
		collectVariablesInRecord(c.Args, false, out)
	}
	for _, u := range s.Unnestings {
		collectVariables(u.Element, false, out)
		collectVariables(u.List, false, out)
	}
	return out
}

// InternalVariables is AllVariables minus the ones already resolvable
// via ExtractedVariables: these must be eliminated via substitution
// before this structure can be compiled to SQL.
func (s *RuleStructure) InternalVariables() map[string]struct{} {
	all := s.AllVariables()
	extracted := s.ExtractedVariables()
	out := map[string]struct{}{}
	for v := range all {
		if _, ok := extracted[v]; !ok {
			out[v] = struct{}{}
		}
	}
	return out
}

// SortUnnestings orders Unnestings so that an unnest depending on
// another unnest's element variable (via its list expression) always
// follows it, erroring on a cycle, grounded on RuleStructure.SortUnnestings.
func (s *RuleStructure) SortUnnestings() error {
	type named struct {
		name string
		u    Unnesting
	}
	pending := make(map[string]named, len(s.Unnestings))
	names := make([]string, 0, len(s.Unnestings))
	for _, u := range s.Unnestings {
		v, ok := u.Element.(*ast.Variable)
		if !ok {
			continue
		}
		pending[v.Name] = named{name: v.Name, u: u}
		names = append(names, v.Name)
	}
	unnestVars := make(map[string]struct{}, len(names))
	for _, n := range names {
		unnestVars[n] = struct{}{}
	}
	dependsOn := map[string]map[string]struct{}{}
	for _, n := range names {
		vars := map[string]struct{}{}
		collectVariables(pending[n].u.List, true, vars)
		deps := map[string]struct{}{}
		for v := range vars {
			if _, ok := unnestVars[v]; ok {
				deps[v] = struct{}{}
			}
		}
		dependsOn[n] = deps
	}

	unnested := map[string]struct{}{}
	var ordered []Unnesting
	for len(pending) > 0 {
		sorted := make([]string, 0, len(pending))
		for n := range pending {
			sorted = append(sorted, n)
		}
		sort.Strings(sorted)
		progressed := false
		for _, n := range sorted {
			if isSubset(dependsOn[n], unnested) {
				ordered = append(ordered, pending[n].u)
				delete(pending, n)
				unnested[n] = struct{}{}
				progressed = true
				break
			}
		}
		if !progressed {
			return errorf("there seem to be a circular dependency of In calls. " +
				"This error might also come from injected sub-rules.")
		}
	}
	s.Unnestings = ordered
	return nil
}

func isSubset(a, b map[string]struct{}) bool {
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}

func exprDeepEqual(a, b ast.Expr) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return reflect.DeepEqual(a, b)
}

func (s *RuleStructure) substituteVariable(oldName string, newExpr ast.Expr) {
	for i := range s.Unnestings {
		s.Unnestings[i].Element = replaceVariable(s.Unnestings[i].Element, oldName, newExpr)
		s.Unnestings[i].List = replaceVariable(s.Unnestings[i].List, oldName, newExpr)
	}
	for i := range s.Select {
		s.Select[i].Expr = replaceVariable(s.Select[i].Expr, oldName, newExpr)
	}
	for i := range s.VarsUnification {
		s.VarsUnification[i].Left = replaceVariable(s.VarsUnification[i].Left, oldName, newExpr)
		s.VarsUnification[i].Right = replaceVariable(s.VarsUnification[i].Right, oldName, newExpr)
	}
	for _, c := range s.Constraints {
		replaceVariableInRecord(c.Args, oldName, newExpr)
	}
}

func stripDisambiguation(name string) string {
	if i := strings.Index(name, " # disambiguated with"); i >= 0 {
		return name[:i]
	}
	return name
}

// ElliminateInternalVariables repeatedly substitutes an internal
// variable with the other side of a unification it appears alone in,
// until no more substitutions apply, then either asserts every internal
// variable was resolved (used once a program's functors/recursion are
// fully expanded) or reports any that are left over as unassigned user
// variables, grounded on RuleStructure.ElliminateInternalVariables.
func (s *RuleStructure) ElliminateInternalVariables(assertFullElimination bool) error {
	variables := s.InternalVariables()
	for {
		done := true
		for i := range s.VarsUnification {
			u := &s.VarsUnification[i]
			dirs := [2]struct{ k, r *ast.Expr }{
				{&u.Left, &u.Right},
				{&u.Right, &u.Left},
			}
			for _, dir := range dirs {
				uk, ur := *dir.k, *dir.r
				if exprDeepEqual(uk, ur) {
					continue
				}
				lhsVar, isVar := uk.(*ast.Variable)
				if !isVar {
					continue
				}
				name := lhsVar.Name
				if _, internal := variables[name]; !internal {
					continue
				}
				urVarsCombines := map[string]struct{}{}
				collectVariables(ur, true, urVarsCombines)
				if _, selfRef := urVarsCombines[name]; selfRef {
					continue
				}
				urVars := map[string]struct{}{}
				collectVariables(ur, false, urVars)
				extracted := s.ExtractedVariables()
				if !(isSubset(urVars, extracted) || !strings.HasPrefix(name, "x_")) {
					continue
				}

				if rv, ok := ur.(*ast.Variable); ok {
					log := append([]string{}, s.SynonymLog[rv.Name]...)
					log = append(log, name)
					log = append(log, s.SynonymLog[name]...)
					s.SynonymLog[rv.Name] = log
				}
				s.substituteVariable(name, ur)
				done = false
			}
		}
		if done {
			variables = s.InternalVariables()
			if assertFullElimination {
				if len(variables) == 0 {
					return nil
				}
				violators := map[string]struct{}{}
				for v := range variables {
					for _, syn := range s.SynonymLog[v] {
						violators[syn] = struct{}{}
					}
					violators[v] = struct{}{}
				}
				clean := map[string]struct{}{}
				for v := range violators {
					if !strings.HasPrefix(v, "x_") {
						clean[stripDisambiguation(v)] = struct{}{}
					}
				}
				if len(clean) == 0 {
					return errorf("logica needs better error messages: a purely internal " +
						"variable was not eliminated; it looks like a required argument was " +
						"not passed to a called predicate")
				}
				return errorf("found no way to assign variables: %s. This error might also "+
					"come from injected sub-rules.", joinSorted(clean))
			}
			var unassigned []string
			for v := range variables {
				if !strings.HasPrefix(v, "x_") {
					unassigned = append(unassigned, stripDisambiguation(v))
				}
			}
			if len(unassigned) > 0 {
				clean := map[string]struct{}{}
				for _, v := range unassigned {
					clean[v] = struct{}{}
				}
				return errorf("found no way to assign variables: %s. This error might also "+
					"come from injected sub-rules.", joinSorted(clean))
			}
			return nil
		}
	}
}

func joinSorted(set map[string]struct{}) string {
	names := make([]string, 0, len(set))
	for n := range set {
		names = append(names, n)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

// UnificationsToConstraints promotes every remaining vars_unification
// pair (one that ElliminateInternalVariables could not resolve via
// substitution, because neither side was a purely internal variable) to
// an explicit `==` constraint, grounded on
// RuleStructure.UnificationsToConstraints.
func (s *RuleStructure) UnificationsToConstraints() {
	for _, u := range s.VarsUnification {
		if exprDeepEqual(u.Left, u.Right) {
			continue
		}
		s.Constraints = append(s.Constraints, binaryCall("==", u.Left, u.Right))
	}
}

func binaryCall(name string, left, right ast.Expr) *ast.PredicateCall {
	return &ast.PredicateCall{
		Name: name,
		Args: &ast.Record{Fields: []ast.FieldValue{
			{Field: ast.NamedField("left"), Expr: left},
			{Field: ast.NamedField("right"), Expr: right},
		}},
	}
}
