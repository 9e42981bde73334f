package structure_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/logica-lang/logica/internal/structure"
)

func TestRunInjectionsInlinesSingleRulePredicate(t *testing.T) {
	outer := mustRule(t, `Grandparent(x, z) :- Parent(x, y), Parent(y, z)`)
	inner := mustRule(t, `Parent(a, b) :- Family(a, b, c)`)

	alloc := structure.NewNamesAllocator(nil)
	s, err := structure.ExtractRuleStructure(outer, alloc, nil)
	require.NoError(t, err)
	require.NoError(t, s.ElliminateInternalVariables(false))
	require.Len(t, s.Tables, 2)

	lookup := func(predicate string) (*structure.RuleStructure, bool, error) {
		if predicate != "Parent" {
			return nil, false, nil
		}
		rs, err := structure.ExtractRuleStructure(inner, alloc, nil)
		if err != nil {
			return nil, false, err
		}
		return rs, true, nil
	}

	require.NoError(t, s.RunInjections(lookup))
	require.NoError(t, s.ElliminateInternalVariables(true))
	s.UnificationsToConstraints()

	var predicates []string
	for _, tr := range s.Tables {
		predicates = append(predicates, tr.Predicate)
	}
	require.Contains(t, predicates, "Family")
	require.NotContains(t, predicates, "Parent")
}

func TestRunInjectionsLeavesUninjectiblePredicateAlone(t *testing.T) {
	outer := mustRule(t, `Grandparent(x, z) :- Parent(x, y), Parent(y, z)`)

	alloc := structure.NewNamesAllocator(nil)
	s, err := structure.ExtractRuleStructure(outer, alloc, nil)
	require.NoError(t, err)
	require.NoError(t, s.ElliminateInternalVariables(false))

	lookup := func(predicate string) (*structure.RuleStructure, bool, error) {
		return nil, false, nil
	}
	require.NoError(t, s.RunInjections(lookup))

	var predicates []string
	for _, tr := range s.Tables {
		predicates = append(predicates, tr.Predicate)
	}
	require.ElementsMatch(t, []string{"Parent", "Parent"}, predicates)
}
