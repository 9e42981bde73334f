package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/logica-lang/logica/internal/ast"
	"github.com/logica-lang/logica/internal/parser"
	"github.com/logica-lang/logica/internal/typeinfer"
)

// predicateSignature is one predicate's merged head-field kinds across
// every rule that defines it, the Go analogue of the original's
// TypesInferenceEngine.ShowPredicateTypes output (§4.11's inferencer
// run once per defining rule, then merged here by field name since the
// inferencer itself stays scoped to a single rule).
type predicateSignature struct {
	Name   string
	Order  []string
	Fields map[string]typeinfer.Kind
}

func (s predicateSignature) String() string {
	parts := make([]string, 0, len(s.Order))
	for _, name := range s.Order {
		parts = append(parts, fmt.Sprintf("%s: %s", name, s.Fields[name]))
	}
	return fmt.Sprintf("%s(%s)", s.Name, strings.Join(parts, ", "))
}

// buildSignatures infers and merges every non-annotation predicate's
// field kinds, returning signatures in predicate-name order and every
// diagnostic collected along the way.
func buildSignatures(rules []*ast.Rule) ([]predicateSignature, []typeinfer.Diagnostic) {
	byName := parser.DefinedPredicatesRules(rules)

	names := make([]string, 0, len(byName))
	for name := range byName {
		if name == "" || name[0] == '@' {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	var diags []typeinfer.Diagnostic
	sigs := make([]predicateSignature, 0, len(names))
	for _, name := range names {
		sig := predicateSignature{Name: name, Fields: map[string]typeinfer.Kind{}}
		for _, rule := range byName[name] {
			g, ds := typeinfer.Infer(rule)
			diags = append(diags, ds...)
			if rule.Head == nil || rule.Head.Args == nil {
				continue
			}
			for _, fv := range rule.Head.Args.Fields {
				if fv.Field.Positional {
					continue
				}
				k := g.KindOf("." + fv.Field.Name)
				if existing, ok := sig.Fields[fv.Field.Name]; ok {
					if merged, ok := typeinfer.Intersect(existing, k); ok {
						k = merged
					}
				} else {
					sig.Order = append(sig.Order, fv.Field.Name)
				}
				sig.Fields[fv.Field.Name] = k
			}
		}
		sigs = append(sigs, sig)
	}
	return sigs, diags
}

// signatureJSON converts signatures restricted to the requested predicate
// names into the map/slice tree build_schema prints, the closest this
// port gets to the original's live-database RetrieveTypes call: §1's
// Non-goals place actual engine schema reflection out of scope, so this
// reports the statically inferred shape instead (DESIGN.md records the
// simplification).
func signatureJSON(sigs []predicateSignature, predicates []string) map[string]interface{} {
	want := make(map[string]bool, len(predicates))
	for _, p := range predicates {
		want[p] = true
	}
	out := map[string]interface{}{}
	for _, sig := range sigs {
		if len(want) > 0 && !want[sig.Name] {
			continue
		}
		fields := map[string]interface{}{}
		for name, kind := range sig.Fields {
			fields[name] = kind.String()
		}
		out[sig.Name] = fields
	}
	return out
}
