package lexer_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/logica-lang/logica/internal/heritage"
	"github.com/logica-lang/logica/internal/lexer"
)

func src(text string) lexer.Source {
	return lexer.NewSource(heritage.NewBuffer("test.l", text))
}

func texts(ss []lexer.Source) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = s.Text
	}
	return out
}

func TestSplitRespectsBrackets(t *testing.T) {
	parts, err := lexer.Split(src("[a,b],[c,d]"), ",")
	require.NoError(t, err)
	require.Equal(t, []string{"[a,b]", "[c,d]"}, texts(parts))
}

func TestSplitDoesNotBreakOnDoublePipe(t *testing.T) {
	parts, err := lexer.Split(src("a || b | c"), "|")
	require.NoError(t, err)
	require.Equal(t, []string{"a || b", "c"}, texts(parts))
}

func TestIsWhole(t *testing.T) {
	require.True(t, lexer.IsWhole("(a, [b, c])"))
	require.False(t, lexer.IsWhole("(a, [b, c)]"))
}

func TestStripRemovesOuterParens(t *testing.T) {
	out := lexer.Strip(src("  ((x + y))  "))
	require.Equal(t, "x + y", out.Text)
}

func TestRemoveCommentsStripsLineAndBlock(t *testing.T) {
	out, err := lexer.RemoveComments(src("a # comment\nb /* block */ c"))
	require.NoError(t, err)
	require.Equal(t, "a \nb  c", out.Text)
}

func TestRemoveCommentsIgnoresHashInString(t *testing.T) {
	out, err := lexer.RemoveComments(src(`"a # not a comment"`))
	require.NoError(t, err)
	require.Equal(t, `"a # not a comment"`, out.Text)
}

func TestSplitOnWhitespace(t *testing.T) {
	parts, err := lexer.SplitOnWhitespace(src("foo(a, b)  bar  baz"))
	require.NoError(t, err)
	require.Equal(t, []string{"foo(a, b)", "bar", "baz"}, texts(parts))
}

func TestUnmatchedParenthesisIsAnError(t *testing.T) {
	_, err := lexer.Split(src("(a, b"), ",")
	require.Error(t, err)
	var pe *lexer.ParsingError
	require.ErrorAs(t, err, &pe)
}
