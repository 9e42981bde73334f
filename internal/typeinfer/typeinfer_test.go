package typeinfer_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/logica-lang/logica/internal/ast"
	"github.com/logica-lang/logica/internal/parser"
	"github.com/logica-lang/logica/internal/typeinfer"
)

func mustRule(t *testing.T, text string) *ast.Rule {
	t.Helper()
	f, err := parser.ParseFile(text, "<test>")
	require.NoError(t, err)
	require.Len(t, f.Rules, 1)
	return f.Rules[0]
}

func TestInferLiteralKinds(t *testing.T) {
	rule := mustRule(t, `Foo(x: 1, y: "s", z: true)`)
	g, diags := typeinfer.Infer(rule)
	require.Empty(t, diags)
	require.Equal(t, typeinfer.NumKind, g.KindOf(".x"))
	require.Equal(t, typeinfer.StrKind, g.KindOf(".y"))
	require.Equal(t, typeinfer.BoolKind, g.KindOf(".z"))
}

func TestInferUnificationPropagatesKind(t *testing.T) {
	rule := mustRule(t, `Foo(x) :- x == 5`)
	g, diags := typeinfer.Infer(rule)
	require.Empty(t, diags)
	require.Equal(t, typeinfer.NumKind, g.KindOf("x"))
}

func TestInferConflictingUnificationReportsDiagnostic(t *testing.T) {
	rule := mustRule(t, `Foo(x) :- x == 5, x == "a"`)
	_, diags := typeinfer.Infer(rule)
	require.Len(t, diags, 1)
	require.Contains(t, diags[0].Error(), "is implied to be")
}

func TestInferListElementKind(t *testing.T) {
	rule := mustRule(t, `Foo(x) :- x in [1, 2, 3]`)
	g, diags := typeinfer.Infer(rule)
	require.Empty(t, diags)
	require.Equal(t, typeinfer.NumKind, g.KindOf("x"))
}

func TestInferRecordFieldKind(t *testing.T) {
	rule := mustRule(t, `Foo(x) :- y == {a: 1, b: "s"}, x == y.a`)
	g, diags := typeinfer.Infer(rule)
	require.Empty(t, diags)
	require.Equal(t, typeinfer.NumKind, g.KindOf("x"))
}

func TestIntersectAnyWithAtomYieldsAtom(t *testing.T) {
	k, ok := typeinfer.Intersect(typeinfer.AnyKind{}, typeinfer.StrKind)
	require.True(t, ok)
	require.Equal(t, typeinfer.StrKind, k)
}

func TestIntersectIncompatibleAtomsConflict(t *testing.T) {
	_, ok := typeinfer.Intersect(typeinfer.StrKind, typeinfer.NumKind)
	require.False(t, ok)
}
