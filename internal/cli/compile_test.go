package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReadProgramReadsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prog.l")
	require.NoError(t, os.WriteFile(path, []byte("Foo(x: 1) :- true"), 0o600))

	text, name, err := readProgram(path)
	require.NoError(t, err)
	require.Equal(t, "Foo(x: 1) :- true", text)
	require.Equal(t, "main", name)
}

func TestReadProgramMissingFile(t *testing.T) {
	_, _, err := readProgram("/no/such/file.l")
	require.Error(t, err)
}

func TestParseProgramResolvesWithoutImports(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prog.l")
	require.NoError(t, os.WriteFile(path, []byte("Foo(x: 1)"), 0o600))

	_, rules, err := parseProgram(path, nil)
	require.NoError(t, err)
	require.Len(t, rules, 1)
	require.Equal(t, "Foo", rules[0].Head.Name)
}

func TestDesugaredProgramRunsDesugaring(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prog.l")
	require.NoError(t, os.WriteFile(path, []byte("Foo(x: 1)"), 0o600))

	rules, err := desugaredProgram(path, nil)
	require.NoError(t, err)
	require.NotEmpty(t, rules)
}
