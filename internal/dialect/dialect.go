// Package dialect holds the per-SQL-engine knowledge §4.7 calls the
// "Dialect registry": built-in function/operator translations, array and
// UNNEST phrasing, and the aggregation-scope disambiguation rewrite a
// handful of engines need.
package dialect

import (
	"fmt"
	"sync"

	"github.com/logica-lang/logica/internal/ast"
)

// Dialect is one SQL engine's translation knowledge (§4.7). Its
// fields are populated via Builder rather than being discovered at
// runtime, keeping each engine a small hand-written value instead of a
// subclass.
type Dialect struct {
	name                       string
	builtInFunctions           map[string]string
	infixOperators             map[string]string
	libraryProgram             string
	unnestPhrase               string
	arrayPhrase                string
	groupBySpecBy              string
	maybeCascadingDeletionWord string
	subscript                  func(record, subscript string, recordIsTable bool) string
	decorateCombineRule        func(rule *ast.Rule, varName string) *ast.Rule
	predicateLiteral           func(name string) string
}

// Name is the dialect's display name, e.g. "BigQuery".
func (d *Dialect) Name() string { return d.name }

// BuiltInFunctions maps a Logica function name to a Go fmt verb-style
// template for this engine's SQL (§4.6/§4.7).
func (d *Dialect) BuiltInFunctions() map[string]string { return d.builtInFunctions }

// InfixOperators maps an infix operator to its SQL template, overriding
// the portable default for engines that need it (e.g. `++` needs
// `CONCAT` on most engines).
func (d *Dialect) InfixOperators() map[string]string { return d.infixOperators }

// Subscript renders `record.field`, some engines distinguishing whether
// record denotes a joined table alias versus a JSON/struct value.
func (d *Dialect) Subscript(record, subscript string, recordIsTable bool) string {
	return d.subscript(record, subscript, recordIsTable)
}

// LibraryProgram is a snippet of Logica source defining this engine's
// standard-library predicates (§4.7), compiled alongside user
// programs the way an implicit prelude would be.
func (d *Dialect) LibraryProgram() string { return d.libraryProgram }

// UnnestPhrase is the engine's `UNNEST(...)` spelling, as a two-slot
// template: the array expression and the alias to bind each element to.
func (d *Dialect) UnnestPhrase() string { return d.unnestPhrase }

// ArrayPhrase is the engine's array-constructor template.
func (d *Dialect) ArrayPhrase() string { return d.arrayPhrase }

// GroupBySpecBy says whether this engine's GROUP BY clause must reference
// columns by "name", "expr", or positional "index".
func (d *Dialect) GroupBySpecBy() string { return d.groupBySpecBy }

// MaybeCascadingDeletionWord is appended to `DROP TABLE` for engines that
// require cascading deletes of dependents (§4.8, `@Ground`).
func (d *Dialect) MaybeCascadingDeletionWord() string { return d.maybeCascadingDeletionWord }

// DecorateCombineRule resolves the aggregation-scope ambiguity that
// arises when a `combine` expression aggregates over a variable unnested
// from a list inside its own body (§4.7, §9). Most engines are a
// no-op here; SQLite and PostgreSQL need the MagicalEntangle rewrite.
func (d *Dialect) DecorateCombineRule(rule *ast.Rule, varName string) *ast.Rule {
	if d.decorateCombineRule == nil {
		return rule
	}
	return d.decorateCombineRule(rule, varName)
}

// PredicateLiteral renders a predicate name used as a first-class value
// (§4.4's functor arguments).
func (d *Dialect) PredicateLiteral(name string) string {
	if d.predicateLiteral != nil {
		return d.predicateLiteral(name)
	}
	return fmt.Sprintf("'predicate_name:%s'", name)
}

// Builder constructs a Dialect fluently, one With* call per field.
type Builder struct {
	d *Dialect
}

// NewBuilder starts building a dialect named name.
func NewBuilder(name string) *Builder {
	return &Builder{d: &Dialect{name: name, subscript: defaultSubscript}}
}

func defaultSubscript(record, subscript string, _ bool) string {
	return record + "." + subscript
}

func (b *Builder) WithBuiltInFunctions(fns map[string]string) *Builder {
	b.d.builtInFunctions = fns
	return b
}

func (b *Builder) WithInfixOperators(ops map[string]string) *Builder {
	b.d.infixOperators = ops
	return b
}

func (b *Builder) WithSubscript(fn func(record, subscript string, recordIsTable bool) string) *Builder {
	b.d.subscript = fn
	return b
}

func (b *Builder) WithLibraryProgram(src string) *Builder {
	b.d.libraryProgram = src
	return b
}

func (b *Builder) WithUnnestPhrase(phrase string) *Builder {
	b.d.unnestPhrase = phrase
	return b
}

func (b *Builder) WithArrayPhrase(phrase string) *Builder {
	b.d.arrayPhrase = phrase
	return b
}

func (b *Builder) WithGroupBySpecBy(by string) *Builder {
	b.d.groupBySpecBy = by
	return b
}

func (b *Builder) WithMaybeCascadingDeletionWord(word string) *Builder {
	b.d.maybeCascadingDeletionWord = word
	return b
}

func (b *Builder) WithDecorateCombineRule(fn func(rule *ast.Rule, varName string) *ast.Rule) *Builder {
	b.d.decorateCombineRule = fn
	return b
}

func (b *Builder) WithPredicateLiteral(fn func(name string) string) *Builder {
	b.d.predicateLiteral = fn
	return b
}

func (b *Builder) Build() *Dialect { return b.d }

// registry is a mutex-guarded map, populated by each dialect file's
// init().
var (
	registryMu sync.RWMutex
	registry   = map[string]*Dialect{}
)

// Register adds a dialect under name, overwriting any existing
// registration (used by tests to install a fake dialect).
func Register(name string, d *Dialect) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = d
}

// UnknownDialectError reports a lookup for an unregistered engine name.
type UnknownDialectError struct{ Name string }

func (e *UnknownDialectError) Error() string {
	return fmt.Sprintf("unknown SQL dialect %q", e.Name)
}

// Get looks up a dialect by its engine name (§6's `@Engine`
// annotation values: bigquery, sqlite, psql, duckdb, trino, presto,
// clickhouse).
func Get(name string) (*Dialect, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	d, ok := registry[name]
	if !ok {
		return nil, &UnknownDialectError{Name: name}
	}
	return d, nil
}

// ListDialects returns every registered engine name.
func ListDialects() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	return names
}
