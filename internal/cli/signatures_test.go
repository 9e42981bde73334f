package cli

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/logica-lang/logica/internal/parser"
	"github.com/logica-lang/logica/internal/typeinfer"
)

func TestBuildSignaturesInfersAndOrdersFields(t *testing.T) {
	f, err := parser.ParseFile(`Foo(x: 1, y: "s")`, "<test>")
	require.NoError(t, err)

	sigs, diags := buildSignatures(f.Rules)
	require.Empty(t, diags)
	require.Len(t, sigs, 1)
	require.Equal(t, "Foo", sigs[0].Name)
	require.Equal(t, []string{"x", "y"}, sigs[0].Order)
	require.Equal(t, typeinfer.NumKind, sigs[0].Fields["x"])
	require.Equal(t, typeinfer.StrKind, sigs[0].Fields["y"])
}

func TestBuildSignaturesSkipsAnnotationPredicates(t *testing.T) {
	f, err := parser.ParseFile("@DefineFlag(\"region\", \"string\");\nFoo(x: 1)", "<test>")
	require.NoError(t, err)

	sigs, _ := buildSignatures(f.Rules)
	for _, sig := range sigs {
		require.NotEqual(t, byte('@'), sig.Name[0])
	}
}

func TestPredicateSignatureString(t *testing.T) {
	f, err := parser.ParseFile(`Foo(x: 1, y: "s")`, "<test>")
	require.NoError(t, err)
	sigs, diags := buildSignatures(f.Rules)
	require.Empty(t, diags)
	require.Equal(t, `Foo(x: Num, y: Str)`, sigs[0].String())
}

func TestSignatureJSONFiltersRequestedPredicates(t *testing.T) {
	f, err := parser.ParseFile("Foo(x: 1);\nBar(y: 2)", "<test>")
	require.NoError(t, err)
	sigs, diags := buildSignatures(f.Rules)
	require.Empty(t, diags)

	out := signatureJSON(sigs, []string{"Foo"})
	require.Contains(t, out, "Foo")
	require.NotContains(t, out, "Bar")
}
