package importer_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/logica-lang/logica/internal/importer"
	"github.com/logica-lang/logica/internal/parser"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	full := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

func TestResolveImportsSinglePredicate(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a/b.l", `Greeting(x) :- x == "hi";`)

	main, err := parser.ParseFile(`
import a.b.Greeting;
Main(x) :- Greeting(x);
`, "main")
	require.NoError(t, err)

	r := importer.NewResolver([]string{root})
	rules, err := r.Resolve(main)
	require.NoError(t, err)
	require.NotEmpty(t, rules)

	var sawRenamedGreeting, sawMain bool
	for _, rule := range rules {
		if rule.Head.Name == "Main" {
			sawMain = true
		}
		if rule.Head.Name == "b_Greeting" {
			sawRenamedGreeting = true
		}
	}
	require.True(t, sawMain, "main predicate should survive the merge")
	require.True(t, sawRenamedGreeting, "imported predicate should be renamed under its file prefix")
}

func TestResolveRejectsImportNotUsed(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a/b.l", `Greeting(x) :- x == "hi";`)

	main, err := parser.ParseFile(`
import a.b.Greeting;
Main(x) :- x == "bye";
`, "main")
	require.NoError(t, err)

	r := importer.NewResolver([]string{root})
	_, err = r.Resolve(main)
	require.Error(t, err)
}

func TestResolveRejectsImportNotDefined(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a/b.l", `Greeting(x) :- x == "hi";`)

	main, err := parser.ParseFile(`
import a.b.Farewell;
Main(x) :- Farewell(x);
`, "main")
	require.NoError(t, err)

	r := importer.NewResolver([]string{root})
	_, err = r.Resolve(main)
	require.Error(t, err)
}

func TestResolveDetectsCircularImport(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.l", `
import b.B;
A(x) :- B(x);
`)
	writeFile(t, root, "b.l", `
import a.A;
B(x) :- A(x);
`)

	main, err := parser.ParseFile(`
import a.A;
Main(x) :- A(x);
`, "main")
	require.NoError(t, err)

	r := importer.NewResolver([]string{root})
	_, err = r.Resolve(main)
	require.Error(t, err)
	require.Contains(t, err.Error(), "circular")
}

func TestResolveSearchesRootsInOrder(t *testing.T) {
	firstRoot := t.TempDir()
	secondRoot := t.TempDir()
	writeFile(t, secondRoot, "a/b.l", `Greeting(x) :- x == "hi";`)

	main, err := parser.ParseFile(`
import a.b.Greeting;
Main(x) :- Greeting(x);
`, "main")
	require.NoError(t, err)

	r := importer.NewResolver([]string{firstRoot, secondRoot})
	rules, err := r.Resolve(main)
	require.NoError(t, err)
	require.NotEmpty(t, rules)
}

func TestResolveReportsFileNotFound(t *testing.T) {
	root := t.TempDir()

	main, err := parser.ParseFile(`
import a.b.Greeting;
Main(x) :- Greeting(x);
`, "main")
	require.NoError(t, err)

	r := importer.NewResolver([]string{root})
	_, err = r.Resolve(main)
	require.Error(t, err)
	require.Contains(t, err.Error(), "Considered:")
}

func TestResolvePrefixesKeepSameNamedPredicatesFromDifferentFilesApart(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.l", `Shared(x) :- x == 1;`)
	writeFile(t, root, "b.l", `Shared(x) :- x == 2;`)

	main, err := parser.ParseFile(`
import a.Shared as SharedA;
import b.Shared as SharedB;
Main(x) :- SharedA(x);
Main(x) :- SharedB(x);
`, "main")
	require.NoError(t, err)

	r := importer.NewResolver([]string{root})
	rules, err := r.Resolve(main)
	require.NoError(t, err)
	require.NotEmpty(t, rules)
}
