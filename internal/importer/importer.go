// Package importer resolves `import a.b.C [as D]` statements against a
// search path of root directories: it turns a dotted package path into
// a file on disk, parses that file, renames its predicates under a
// file-specific prefix so two imports can never collide, and merges
// the whole transitive closure into one flat rule set (§4.10
// "Import loader"), following the same directory-scoped-loader shape
// as parser_py/parse.py's ParseFile/ParseImport/RenamePredicate
// machinery.
package importer

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/logica-lang/logica/internal/ast"
	"github.com/logica-lang/logica/internal/parser"
)

// Error reports a problem resolving or merging an import, the Go
// analogue of parser_py/parse.py's ParsingException as raised from its
// import-handling branch.
type Error struct {
	File    string
	Message string
}

func (e *Error) Error() string {
	if e.File == "" {
		return e.Message
	}
	return e.Message + " (" + e.File + ")"
}

func errorf(file, format string, args ...interface{}) error {
	return &Error{File: file, Message: fmt.Sprintf(format, args...)}
}

// Resolver resolves import statements by searching, in order, a list of
// root directories for `<root>/<path joined by "/">.l`, grounded on
// ParseImport's `import_root` list (str-or-list) parameter.
type Resolver struct {
	Roots []string
}

// NewResolver builds a Resolver that searches roots in order.
func NewResolver(roots []string) *Resolver {
	return &Resolver{Roots: roots}
}

// resolvedImport is one file's contribution to the program: its own
// rules (predicates already renamed under its prefix, imports already
// resolved and renamed in), the prefix it was assigned, and its name —
// the Go analogue of the dict ParseFile returns.
type resolvedImport struct {
	rules            []*ast.Rule
	predicatesPrefix string
	fileName         string
}

// resolution threads the memoized per-file results and the import
// chain (for circular-import detection) through one Resolve call,
// mirroring ParseFile's parsed_imports/import_chain parameters without
// needing to pass them through every call by hand.
type resolution struct {
	roots   []string
	entries map[string]*resolvedImport // nil value: resolution in progress
	order   []string                   // insertion order, for deterministic merge
}

// Resolve parses mainFile's entire import closure, renames every
// imported predicate to its source file's prefixed name, and returns
// the flat rule set ready for desugaring and compilation, grounded on
// ParseFile's this_file_name == 'main' branch.
func (r *Resolver) Resolve(mainFile *ast.File) ([]*ast.Rule, error) {
	res := &resolution{roots: r.Roots, entries: map[string]*resolvedImport{}}

	main, err := res.resolveFile(mainFile, "main", nil)
	if err != nil {
		return nil, err
	}

	defined := parser.DefinedPredicates(main.rules)
	merged := ast.CloneRules(main.rules)
	for _, key := range res.order {
		entry := res.entries[key]
		fresh := parser.DefinedPredicates(entry.rules)
		for p, ok := range fresh {
			if !ok || p == "" || p[0] == '@' {
				continue
			}
			if defined[p] {
				return nil, errorf(entry.fileName,
					"predicate %s defined in this file is overridden by import", p)
			}
		}
		for p, ok := range fresh {
			if ok {
				defined[p] = true
			}
		}
		merged = append(merged, ast.CloneRules(entry.rules)...)
	}
	return merged, nil
}

// resolveFile renames file's own predicates under a freshly assigned
// prefix, resolves and renames each of its imports in turn, and
// returns the result without yet merging anything in — merging only
// happens once, for the main file, in Resolve.
func (res *resolution) resolveFile(file *ast.File, fileName string, chain []string) (*resolvedImport, error) {
	chain = append(append([]string{}, chain...), fileName)
	rules := ast.CloneRules(file.Rules)

	prefix, err := res.assignPrefix(fileName)
	if err != nil {
		return nil, err
	}
	if fileName != "main" {
		renameOwnPredicates(rules, prefix)
	}

	for _, imp := range file.Imports {
		key := strings.Join(imp.Path, ".")
		nested, err := res.resolveImport(key, imp.Path, chain)
		if err != nil {
			return nil, err
		}

		importedAs := imp.As
		if importedAs == "" {
			importedAs = imp.Predicate
		}
		fullName := nested.predicatesPrefix + imp.Predicate

		defined := parser.DefinedPredicates(nested.rules)
		made := parser.MadePredicates(nested.rules)
		if !defined[fullName] && !made[fullName] {
			return nil, errorf(key,
				"predicate %s from file %s is imported by %s, but is not defined",
				imp.Predicate, key, fileName)
		}

		if ast.RenamePredicateInRules(rules, importedAs, fullName) == 0 {
			return nil, errorf(key,
				"predicate %s from file %s is imported by %s, but not used",
				imp.Predicate, key, fileName)
		}
	}

	return &resolvedImport{rules: rules, predicatesPrefix: prefix, fileName: fileName}, nil
}

// resolveImport loads and resolves the file importKey names, memoizing
// the result so a file imported from two places is only read and
// resolved once, grounded on ParseImport's parsed_imports cache and its
// circular-import guard (a nil cache entry marks "currently resolving").
func (res *resolution) resolveImport(importKey string, pathSegments []string, chain []string) (*resolvedImport, error) {
	if existing, ok := res.entries[importKey]; ok {
		if existing == nil {
			return nil, errorf(importKey, "circular imports are not allowed: %s",
				strings.Join(append(append([]string{}, chain...), importKey), "->"))
		}
		return existing, nil
	}
	res.entries[importKey] = nil

	content, err := res.readFile(pathSegments)
	if err != nil {
		return nil, err
	}
	file, err := parser.ParseFile(content, importKey)
	if err != nil {
		return nil, err
	}
	resolved, err := res.resolveFile(file, importKey, chain)
	if err != nil {
		return nil, err
	}
	res.entries[importKey] = resolved
	res.order = append(res.order, importKey)
	return resolved, nil
}

// readFile looks for pathSegments joined with "/" plus ".l" under each
// root in turn, returning the first match, grounded on ParseImport's
// str-or-list import_root resolution.
func (res *resolution) readFile(pathSegments []string) (string, error) {
	rel := strings.Join(pathSegments, string(filepath.Separator)) + ".l"
	if len(res.roots) == 0 {
		return "", errorf(rel, "imported file not found: no import roots configured")
	}
	var considered []string
	for _, root := range res.roots {
		candidate := filepath.Join(root, rel)
		considered = append(considered, candidate)
		content, err := os.ReadFile(candidate) //#nosec G304 -- candidate is built from the program's own configured import roots
		if err == nil {
			return string(content), nil
		}
	}
	return "", errorf(rel, "imported file not found. Considered:\n- %s", strings.Join(considered, "\n- "))
}

// assignPrefix picks a prefix unique among every prefix already handed
// out in this resolution, trying progressively longer suffixes of
// fileName's dotted path when the shortest one collides, grounded on
// ParseFile's existing_prefixes loop.
func (res *resolution) assignPrefix(fileName string) (string, error) {
	if fileName == "main" {
		return "", nil
	}
	existing := map[string]struct{}{}
	for _, e := range res.entries {
		if e != nil {
			existing[e.predicatesPrefix] = struct{}{}
		}
	}
	parts := strings.Split(fileName, ".")
	idx := len(parts) - 1
	candidate := parts[idx] + "_"
	for {
		if _, clash := existing[candidate]; !clash {
			return candidate, nil
		}
		idx--
		if idx < 0 {
			return "", errorf(fileName,
				"some import paths are equal modulo '_' and '/'; this confuses the prefix assigner: %s", candidate)
		}
		candidate = parts[idx] + candidate
	}
}

// renameOwnPredicates prefixes every predicate file defines (skipping
// annotation heads and the special `++?` aggregation-as-predicate
// spelling), grounded on ParseFile's "adding file prefix" loop.
func renameOwnPredicates(rules []*ast.Rule, prefix string) {
	names := map[string]struct{}{}
	for p := range parser.DefinedPredicates(rules) {
		names[p] = struct{}{}
	}
	for p := range parser.MadePredicates(rules) {
		names[p] = struct{}{}
	}
	var sorted []string
	for p := range names {
		sorted = append(sorted, p)
	}
	sort.Strings(sorted)
	for _, p := range sorted {
		if p == "" || p[0] == '@' || p == "++?" {
			continue
		}
		ast.RenamePredicateInRules(rules, p, prefix+p)
	}
}
