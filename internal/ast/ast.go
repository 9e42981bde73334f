// Package ast defines Logica's abstract syntax tree (§3 "Data model").
// Expressions and conjuncts are represented as small tagged-union
// interfaces, the idiomatic Go substitute for the original's dynamically
// typed dict nodes; every concrete node additionally carries the
// heritage.Span it was parsed from so later passes can still point at the
// offending source on error.
package ast

import "github.com/logica-lang/logica/internal/heritage"

// LogicaValueField is the reserved field name for a predicate's return
// value (§3).
const LogicaValueField = "logica_value"

// Field names a position in a Record: either a non-negative integer
// (positional) or an identifier (named).
type Field struct {
	Positional bool
	Index      int
	Name       string
}

// NamedField constructs a named Field.
func NamedField(name string) Field { return Field{Name: name} }

// PositionalField constructs a positional Field.
func PositionalField(i int) Field { return Field{Positional: true, Index: i} }

// String renders the field the way Logica source would.
func (f Field) String() string {
	if f.Positional {
		return itoa(f.Index)
	}
	return f.Name
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	neg := i < 0
	if neg {
		i = -i
	}
	var buf [20]byte
	pos := len(buf)
	for i > 0 {
		pos--
		buf[pos] = byte('0' + i%10)
		i /= 10
	}
	if neg {
		pos--
		buf[pos] = '-'
	}
	return string(buf[pos:])
}

// Aggregation is a field value of the shape `op= expr` that has not yet
// been desugared into the `{call: Agg<Op>(...)}` expression form (spec
// §4.3 pass 3). Post-desugaring no FieldValue carries one.
type Aggregation struct {
	Op  string
	Arg Expr
}

// FieldValue is one field of a Record: a field name/position paired with
// either a plain expression or a not-yet-desugared aggregation.
type FieldValue struct {
	Field Field
	Expr  Expr         // set when Agg == nil
	Agg   *Aggregation // set when this field is an aggregation
}

// Record is an ordered sequence of field-value pairs, with an optional
// trailing `..rest` marker (§4.2, "Records").
type Record struct {
	Fields  []FieldValue
	HasRest bool
}

// Get returns the value bound to a named field, if present.
func (r *Record) Get(name string) (FieldValue, bool) {
	for _, fv := range r.Fields {
		if !fv.Field.Positional && fv.Field.Name == name {
			return fv, true
		}
	}
	return FieldValue{}, false
}

// PredicateCall is a call to a predicate: a name plus an argument Record.
type PredicateCall struct {
	Name   string
	Args   *Record
	Source heritage.Span
}

// Conjunct is the tagged union of body elements (§3). Disjunction is
// a conjunct only until the DNF desugaring pass removes it (§4.3.1).
type Conjunct interface {
	conjunctNode()
	Span() heritage.Span
}

// PredicateConjunct is a bare predicate call used as a conjunct.
type PredicateConjunct struct {
	Call   *PredicateCall
	Source heritage.Span
}

func (*PredicateConjunct) conjunctNode()          {}
func (c *PredicateConjunct) Span() heritage.Span   { return c.Source }

// UnificationConjunct is `lhs == rhs`.
type UnificationConjunct struct {
	LHS, RHS Expr
	Source   heritage.Span
}

func (*UnificationConjunct) conjunctNode()        {}
func (c *UnificationConjunct) Span() heritage.Span { return c.Source }

// InclusionConjunct is `element in list`.
type InclusionConjunct struct {
	Element Expr
	List    Expr
	Source  heritage.Span
}

func (*InclusionConjunct) conjunctNode()         {}
func (c *InclusionConjunct) Span() heritage.Span { return c.Source }

// DisjunctionConjunct is `lhs || rhs`, eliminated by the DNF pass (spec
// §4.3.1); it only appears in the tree the rule parser hands to the
// desugarer.
type DisjunctionConjunct struct {
	Disjuncts []Conjunction
	Source    heritage.Span
}

func (*DisjunctionConjunct) conjunctNode()         {}
func (c *DisjunctionConjunct) Span() heritage.Span { return c.Source }

// Conjunction is `conjunct, conjunct, ...` (an `&&`-joined body). It also
// implements Conjunct itself, since a proposition with internal top-level
// commas (e.g. one side of a `|` disjunction) parses to a bare
// Conjunction used in conjunct position (§4.2, ParseProposition).
type Conjunction struct {
	Conjuncts []Conjunct
	Source    heritage.Span
}

func (*Conjunction) conjunctNode()          {}
func (c *Conjunction) Span() heritage.Span { return c.Source }

// Expr is the tagged union of expression nodes (§3).
type Expr interface {
	exprNode()
	Span() heritage.Span
}

// NumberLiteral is a numeric literal, kept as the literal source text
// (Logica numbers may be big integers or floats; the translator, not the
// parser, decides how to render them per dialect).
type NumberLiteral struct {
	Text   string
	Source heritage.Span
}

func (*NumberLiteral) exprNode()          {}
func (e *NumberLiteral) Span() heritage.Span { return e.Source }

// StringLiteral is a quoted string literal; Value is already unescaped.
type StringLiteral struct {
	Value  string
	Source heritage.Span
}

func (*StringLiteral) exprNode()          {}
func (e *StringLiteral) Span() heritage.Span { return e.Source }

// BoolLiteral is `true`/`false`.
type BoolLiteral struct {
	Value  bool
	Source heritage.Span
}

func (*BoolLiteral) exprNode()          {}
func (e *BoolLiteral) Span() heritage.Span { return e.Source }

// NullLiteral is `NULL`.
type NullLiteral struct {
	Source heritage.Span
}

func (*NullLiteral) exprNode()          {}
func (e *NullLiteral) Span() heritage.Span { return e.Source }

// ListLiteral is `[e1, e2, ...]`.
type ListLiteral struct {
	Elements []Expr
	Source   heritage.Span
}

func (*ListLiteral) exprNode()          {}
func (e *ListLiteral) Span() heritage.Span { return e.Source }

// PredicateLiteral names a predicate as a first-class value, used as a
// functor application argument (§4.4).
type PredicateLiteral struct {
	Name   string
	Source heritage.Span
}

func (*PredicateLiteral) exprNode()          {}
func (e *PredicateLiteral) Span() heritage.Span { return e.Source }

// Variable is a reference to a variable name.
type Variable struct {
	Name   string
	Source heritage.Span
}

func (*Variable) exprNode()          {}
func (e *Variable) Span() heritage.Span { return e.Source }

// Call is `predicate_name(...)` used where a value is expected.
type Call struct {
	Predicate string
	Args      *Record
	Source    heritage.Span
}

func (*Call) exprNode()          {}
func (e *Call) Span() heritage.Span { return e.Source }

// Subscript is `record_expr.field_name`.
type Subscript struct {
	Record Expr
	Field  string
	Source heritage.Span
}

func (*Subscript) exprNode()          {}
func (e *Subscript) Span() heritage.Span { return e.Source }

// RecordExpr is a record literal used as an expression, e.g. `{a: 1, b: 2}`.
type RecordExpr struct {
	Record *Record
	Source heritage.Span
}

func (*RecordExpr) exprNode()          {}
func (e *RecordExpr) Span() heritage.Span { return e.Source }

// Combine is an inlined aggregation sub-rule used as an expression (spec
// glossary: "Combine").
type Combine struct {
	Rule   *Rule
	Source heritage.Span
}

func (*Combine) exprNode()          {}
func (e *Combine) Span() heritage.Span { return e.Source }

// IfThen is one branch of an Implication.
type IfThen struct {
	Cond Expr
	Then Expr
}

// Implication is `if C1 then V1 else if C2 then V2 else V3`.
type Implication struct {
	Branches []IfThen
	Else     Expr
	Source   heritage.Span
}

func (*Implication) exprNode()          {}
func (e *Implication) Span() heritage.Span { return e.Source }

// Rule is §3's Rule AST node.
type Rule struct {
	Head            *PredicateCall
	Body            *Conjunction // nil for a fact with no body
	DistinctDenoted bool
	FullText        heritage.Span
}

// Import is a parsed `import a.b.C [as D]` statement (§4.2).
type Import struct {
	Path      []string // package path segments, e.g. ["a", "b"]
	Predicate string    // "C"
	As        string    // "D", or "" if no alias was given
	Source    heritage.Span
}

// File is the result of parsing one source file (§4.2, ParseFile).
type File struct {
	Rules              []*Rule
	Imports            []*Import
	ImportedPredicates []string
	PredicatesPrefix   string
	FileName           string
}
