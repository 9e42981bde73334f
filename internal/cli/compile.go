// Package cli implements the `logica <file|-> <command> ...` command line
// §6 describes: a cobra root command with flag parsing disabled so
// dispatch can follow Logica's own `file` then `command` then
// `predicate-list` argument order instead of a per-verb subcommand
// tree.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/logica-lang/logica/internal/ast"
	"github.com/logica-lang/logica/internal/desugar"
	"github.com/logica-lang/logica/internal/importer"
	"github.com/logica-lang/logica/internal/parser"
)

// readProgram reads fileArg's contents; "-" reads stdin, mirroring the
// original's '/dev/stdin' special-case.
func readProgram(fileArg string) (text, fileName string, err error) {
	if fileArg == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), "main", nil
	}
	if _, err := os.Stat(fileArg); err != nil {
		return "", "", fmt.Errorf("file not found: %s", fileArg)
	}
	data, err := os.ReadFile(fileArg) //#nosec G304 -- fileArg is a command-line-supplied source file, the CLI's whole purpose
	if err != nil {
		return "", "", fmt.Errorf("reading %s: %w", fileArg, err)
	}
	return string(data), "main", nil
}

// parseProgram parses fileArg (or stdin) and resolves its import closure
// against roots, returning both the raw parsed file and the flat,
// import-resolved rule set. The commands (`parse`, `infer_types`,
// `show_signatures`, `build_schema`) work from the resolved rules, before
// desugaring.
func parseProgram(fileArg string, roots []string) (*ast.File, []*ast.Rule, error) {
	text, fileName, err := readProgram(fileArg)
	if err != nil {
		return nil, nil, err
	}
	file, err := parser.ParseFile(text, fileName)
	if err != nil {
		return nil, nil, err
	}
	resolved, err := importer.NewResolver(roots).Resolve(file)
	if err != nil {
		return nil, nil, err
	}
	return file, resolved, nil
}

// desugaredProgram additionally runs the desugaring passes, the rule set
// every compiling command (print/run/run_to_csv/run_in_terminal)
// actually feeds to universe.NewProgram.
func desugaredProgram(fileArg string, roots []string) ([]*ast.Rule, error) {
	_, resolved, err := parseProgram(fileArg, roots)
	if err != nil {
		return nil, err
	}
	return desugar.Rewrite(resolved)
}
